package game

import "fmt"

// Player identifies a seat at the board. Box and board owners reuse the same values,
// with NoPlayer for unclaimed and Draw for regions filled without a winner.
type Player int

const (
	NoPlayer  Player = 0
	PlayerOne Player = 1
	PlayerTwo Player = 2
	Draw      Player = 3
)

func (p Player) Opponent() Player {
	switch p {
	case PlayerOne:
		return PlayerTwo
	case PlayerTwo:
		return PlayerOne
	default:
		panic(fmt.Sprintf("player %d has no opponent", p))
	}
}

func (p Player) String() string {
	switch p {
	case NoPlayer:
		return "none"
	case PlayerOne:
		return "1"
	case PlayerTwo:
		return "2"
	case Draw:
		return "draw"
	default:
		return fmt.Sprintf("player(%d)", int(p))
	}
}

// Box addresses one macro cell of the outer grid.
type Box struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Action is a move into micro cell (InnerRow, InnerCol) of macro cell (OuterRow, OuterCol).
// It is comparable and used directly as a map key.
type Action struct {
	OuterRow int `json:"outer_row"`
	OuterCol int `json:"outer_col"`
	InnerRow int `json:"inner_row"`
	InnerCol int `json:"inner_col"`
}

// Box returns the macro cell the action is played in.
func (a Action) Box() Box {
	return Box{Row: a.OuterRow, Col: a.OuterCol}
}

// Target returns the macro cell the opponent is sent to.
func (a Action) Target() Box {
	return Box{Row: a.InnerRow, Col: a.InnerCol}
}

func (a Action) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", a.OuterRow, a.OuterCol, a.InnerRow, a.InnerCol)
}

// Outcome maps each player to its score at a terminal state.
type Outcome map[Player]float64

// Board is the game abstraction consumed by the searcher. Implementations must treat
// states as values: NextState returns a new state and leaves its argument untouched.
type Board[S any] interface {
	IsEnded(state S) bool
	LegalActions(state S) []Action
	NextState(state S, action Action) S
	CurrentPlayer(state S) Player
	PreviousPlayer(state S) Player
	OwnedBoxes(state S) map[Box]Player
	// PointsValues is only defined for terminal states.
	PointsValues(state S) Outcome
}
