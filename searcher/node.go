package searcher

import (
	"fmt"
	"uttt/game"
)

// node is a search tree vertex. The parent pointer is only followed upwards during
// backpropagation; the tree is owned from the root down.
type node struct {
	parent       *node
	parentAction game.Action // Zero value at the root
	children     []*node     // In expansion order
	lookup       map[game.Action]*node
	untried      []game.Action
	visits       int
	wins         float64
}

func newNode(parent *node, action game.Action, actions []game.Action) *node {
	untried := make([]game.Action, len(actions))
	copy(untried, actions)

	return &node{
		parent:       parent,
		parentAction: action,
		lookup:       make(map[game.Action]*node, len(actions)),
		untried:      untried,
	}
}

func (n *node) isRoot() bool {
	return n.parent == nil
}

func (n *node) fullyExpanded() bool {
	return len(n.untried) == 0
}

// popUntried removes and returns the first untried action.
func (n *node) popUntried() game.Action {
	if len(n.untried) == 0 {
		panic("node has no untried actions")
	}
	action := n.untried[0]
	n.untried = n.untried[1:]
	return action
}

func (n *node) addChild(action game.Action, actions []game.Action) *node {
	if _, ok := n.lookup[action]; ok {
		panic(fmt.Sprintf("action %v already expanded", action))
	}
	child := newNode(n, action, actions)
	n.children = append(n.children, child)
	n.lookup[action] = child
	return child
}

// average is the mean outcome of the iterations that passed through the node.
func (n *node) average() float64 {
	if n.visits == 0 {
		panic("cannot average a node with 0 visits")
	}
	return n.wins / float64(n.visits)
}
