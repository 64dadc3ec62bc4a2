package searcher

import (
	"fmt"
	"math"
	"time"
	"uttt/experiments/metrics"
	"uttt/game"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

type Option func(s *settings)

type settings struct {
	iterations int
	rng        *rand.Rand
	metrics    metrics.Collector
	logger     zerolog.Logger
}

func WithIterations(iterations int) Option {
	return func(s *settings) {
		if iterations > 0 {
			s.iterations = iterations
		}
	}
}

func WithSeed(seed uint64) Option {
	return func(s *settings) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

func WithRand(rng *rand.Rand) Option {
	return func(s *settings) {
		if rng != nil {
			s.rng = rng
		}
	}
}

func WithMetrics() Option {
	return func(s *settings) {
		s.metrics = metrics.NewCollector()
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

// MCTS builds a fresh UCT tree for every decision and discards it afterwards.
// It is not safe for concurrent use.
type MCTS[S any] struct {
	settings
}

func NewMCTS[S any](options ...Option) *MCTS[S] {
	m := &MCTS[S]{settings{ // Default values
		iterations: DefaultIterations,
		metrics:    metrics.NewDummyCollector(),
		logger:     log.Logger,
	}}
	for _, option := range options {
		option(&m.settings)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	return m
}

func (m *MCTS[S]) Iterations() int {
	return m.iterations
}

type ChildStat struct {
	Action game.Action
	Visits int
	Wins   float64
}

type Result struct {
	Action     game.Action
	Score      float64 // Average outcome of the chosen child, 0 on fallback
	Fallback   bool    // No child averaged above 0, Action is a random legal action
	RootVisits int
	Children   []ChildStat // In expansion order
	Metric     metrics.SearchMetric
}

// Think searches the state and returns the action to play.
func (m *MCTS[S]) Think(board game.Board[S], state S) game.Action {
	return m.Choose(board, state).Action
}

// Choose is Think returning the full search result. It logs the chosen action
// and its expected score.
func (m *MCTS[S]) Choose(board game.Board[S], state S) Result {
	result := m.Search(board, state)
	m.logger.Info().
		Stringer("action", result.Action).
		Float64("score", result.Score).
		Bool("fallback", result.Fallback).
		Msgf("picking %s with expected score %f", result.Action, result.Score)
	return result
}

// Search runs the configured number of iterations from state and reports the
// root child with the best average outcome for the player to move.
func (m *MCTS[S]) Search(board game.Board[S], state S) Result {
	identity := board.CurrentPlayer(state)
	legal := board.LegalActions(state)
	if len(legal) == 0 {
		panic("cannot search a state without legal actions")
	}

	m.metrics.Start(m.iterations)
	root := m.buildTree(board, state, identity)
	metric := m.metrics.Complete()

	result := Result{
		Action:     legal[m.rng.Intn(len(legal))],
		Fallback:   true,
		RootVisits: root.visits,
		Children:   make([]ChildStat, 0, len(root.children)),
		Metric:     metric,
	}
	for _, child := range root.children {
		result.Children = append(result.Children, ChildStat{
			Action: child.parentAction,
			Visits: child.visits,
			Wins:   child.wins,
		})
		if average := child.average(); average > result.Score {
			result.Score = average
			result.Action = child.parentAction
			result.Fallback = false
		}
	}
	return result
}

func (m *MCTS[S]) buildTree(board game.Board[S], state S, identity game.Player) *node {
	if identity != game.PlayerOne && identity != game.PlayerTwo {
		panic(fmt.Sprintf("unsupported search identity %v", identity))
	}

	root := newNode(nil, game.Action{}, board.LegalActions(state))
	for i := 0; i < m.iterations; i++ {
		m.simulate(root, board, state, identity)
		m.metrics.AddEpisode()
	}
	return root
}

func (m *MCTS[S]) simulate(root *node, board game.Board[S], state S, identity game.Player) {
	leaf, leafState := traverse(root, board, state, identity)
	child, childState := expand(leaf, board, leafState)
	if child != leaf {
		m.metrics.AddNode()
	}

	outcome, moves := rollout(board, childState, m.rng)
	if moves > 0 {
		m.metrics.AddFullPlayout()
		m.metrics.AddRolloutMoves(moves)
	}

	won, ok := outcome[identity]
	if !ok {
		panic(fmt.Sprintf("outcome %v has no score for player %v", outcome, identity))
	}
	backpropagate(child, won)
}

// traverse descends through fully expanded nodes by UCT until it reaches a terminal
// state or a node with untried actions.
func traverse[S any](root *node, board game.Board[S], state S, identity game.Player) (*node, S) {
	current, currentState := root, state
	for !board.IsEnded(currentState) && current.fullyExpanded() {
		if len(current.children) == 0 {
			panic("non-terminal node has no actions")
		}

		// Statistics are from the searching player's point of view
		opponentToMove := board.CurrentPlayer(currentState) != identity

		maxScore := math.Inf(-1)
		selected, selectedState := current, currentState
		for _, child := range current.children {
			childState := board.NextState(currentState, child.parentAction)
			if board.IsEnded(childState) {
				selected, selectedState = child, childState
				break
			}

			reward := child.average()
			if opponentToMove {
				reward = 1 - reward
			}
			if score := uct(reward, child.visits, current.visits); score > maxScore {
				maxScore = score
				selected, selectedState = child, childState
			}
		}
		current, currentState = selected, selectedState
	}
	return current, currentState
}

// expand adds a child for the first untried action. Terminal states are returned as is.
func expand[S any](n *node, board game.Board[S], state S) (*node, S) {
	if board.IsEnded(state) {
		return n, state
	}
	action := n.popUntried()
	newState := board.NextState(state, action)
	return n.addChild(action, board.LegalActions(newState)), newState
}

// backpropagate adds the unflipped outcome to every node from n up to the root.
func backpropagate(n *node, won float64) {
	for {
		n.visits++
		n.wins += won
		if n.isRoot() {
			return
		}
		n = n.parent
	}
}
