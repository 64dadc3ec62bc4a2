package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const Size = 3

var (
	ErrGameOver     = errors.New("game is over")
	ErrOutOfRange   = errors.New("coordinate out of range")
	ErrOccupied     = errors.New("cell is occupied")
	ErrBoxOwned     = errors.New("box is already decided")
	ErrWrongBox     = errors.New("move must be played in the forced box")
	ErrInvalidInput = errors.New("invalid action notation")
	ErrInvalidState = errors.New("invalid state")
)

type Grid [Size][Size]Player

// State is an Ultimate Tic-Tac-Toe position. It holds only arrays and scalars, so
// assigning or passing it copies the whole position.
type State struct {
	Cells     [Size][Size]Grid `json:"cells"` // [OuterRow][OuterCol][InnerRow][InnerCol]
	Owners    Grid             `json:"owners"`
	Turn      Player           `json:"turn"`
	Forced    Box              `json:"forced"`
	HasForced bool             `json:"has_forced"`
	Winner    Player           `json:"winner"`
	Ended     bool             `json:"ended"`
	Moves     int              `json:"moves"`
}

// NewState returns the empty starting position with player one to move.
func NewState() State {
	return State{Turn: PlayerOne}
}

// UltimateBoard implements Board for nested tic-tac-toe.
type UltimateBoard struct{}

func NewUltimateBoard() UltimateBoard {
	return UltimateBoard{}
}

func (UltimateBoard) IsEnded(s State) bool {
	return s.Ended
}

func (UltimateBoard) LegalActions(s State) []Action {
	if s.Ended {
		return nil
	}
	if s.HasForced && s.Owners[s.Forced.Row][s.Forced.Col] == NoPlayer {
		return s.emptyCells(s.Forced, nil)
	}
	actions := make([]Action, 0, Size*Size*Size*Size-s.Moves)
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if s.Owners[r][c] == NoPlayer {
				actions = s.emptyCells(Box{Row: r, Col: c}, actions)
			}
		}
	}
	return actions
}

func (s State) emptyCells(box Box, actions []Action) []Action {
	grid := s.Cells[box.Row][box.Col]
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if grid[r][c] == NoPlayer {
				actions = append(actions, Action{OuterRow: box.Row, OuterCol: box.Col, InnerRow: r, InnerCol: c})
			}
		}
	}
	return actions
}

// NextState plays the action on a copy of s. It panics on an illegal action.
func (UltimateBoard) NextState(s State, action Action) State {
	if err := ValidateAction(s, action); err != nil {
		panic(fmt.Sprintf("cannot play %v: %v", action, err))
	}

	mover := s.Turn
	box := &s.Cells[action.OuterRow][action.OuterCol]
	box[action.InnerRow][action.InnerCol] = mover
	if box.hasLine(mover) {
		s.Owners[action.OuterRow][action.OuterCol] = mover
	} else if box.full() {
		s.Owners[action.OuterRow][action.OuterCol] = Draw
	}

	s.Moves++
	s.Turn = mover.Opponent()
	s.Forced = action.Target()
	s.HasForced = true

	if s.Owners.hasLine(mover) {
		s.Winner = mover
		s.Ended = true
	} else if !s.Owners.has(NoPlayer) { // Every box decided, nothing left to play
		s.Winner = Draw
		s.Ended = true
	}
	return s
}

func (UltimateBoard) CurrentPlayer(s State) Player {
	return s.Turn
}

func (UltimateBoard) PreviousPlayer(s State) Player {
	return s.Turn.Opponent()
}

func (UltimateBoard) OwnedBoxes(s State) map[Box]Player {
	owned := make(map[Box]Player, Size*Size)
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			owned[Box{Row: r, Col: c}] = s.Owners[r][c]
		}
	}
	return owned
}

func (UltimateBoard) PointsValues(s State) Outcome {
	if !s.Ended {
		panic("points requested for a game in progress")
	}
	switch s.Winner {
	case PlayerOne, PlayerTwo:
		return Outcome{s.Winner: 1, s.Winner.Opponent(): 0}
	default:
		return Outcome{PlayerOne: 0.5, PlayerTwo: 0.5}
	}
}

// ValidateAction reports why the action cannot be played in s, or nil if it can.
func ValidateAction(s State, action Action) error {
	if s.Ended {
		return ErrGameOver
	}
	for _, v := range [...]int{action.OuterRow, action.OuterCol, action.InnerRow, action.InnerCol} {
		if v < 0 || v >= Size {
			return fmt.Errorf("%w: %v", ErrOutOfRange, action)
		}
	}
	if s.Owners[action.OuterRow][action.OuterCol] != NoPlayer {
		return fmt.Errorf("%w: %v", ErrBoxOwned, action.Box())
	}
	if s.HasForced && s.Owners[s.Forced.Row][s.Forced.Col] == NoPlayer && action.Box() != s.Forced {
		return fmt.Errorf("%w: want %v, got %v", ErrWrongBox, s.Forced, action.Box())
	}
	if s.Cells[action.OuterRow][action.OuterCol][action.InnerRow][action.InnerCol] != NoPlayer {
		return fmt.Errorf("%w: %v", ErrOccupied, action)
	}
	return nil
}

// ValidateState reports whether s is a position the board can search from:
// every mark is a known player, the forced box is on the board, a running game
// has a player to move and at least one legal action, and a finished game has a result.
func ValidateState(s State) error {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			switch s.Owners[r][c] {
			case NoPlayer, PlayerOne, PlayerTwo, Draw:
			default:
				return fmt.Errorf("%w: box (%d, %d) has owner %d", ErrInvalidState, r, c, s.Owners[r][c])
			}
			for _, row := range s.Cells[r][c] {
				for _, p := range row {
					if p != NoPlayer && p != PlayerOne && p != PlayerTwo {
						return fmt.Errorf("%w: box (%d, %d) holds mark %d", ErrInvalidState, r, c, p)
					}
				}
			}
		}
	}
	if s.HasForced && (s.Forced.Row < 0 || s.Forced.Row >= Size || s.Forced.Col < 0 || s.Forced.Col >= Size) {
		return fmt.Errorf("%w: forced box %v is off the board", ErrInvalidState, s.Forced)
	}
	if s.Moves < 0 {
		return fmt.Errorf("%w: negative move count", ErrInvalidState)
	}
	if s.Ended {
		if s.Winner != PlayerOne && s.Winner != PlayerTwo && s.Winner != Draw {
			return fmt.Errorf("%w: finished game without a result", ErrInvalidState)
		}
		return nil
	}
	if s.Turn != PlayerOne && s.Turn != PlayerTwo {
		return fmt.Errorf("%w: no player to move", ErrInvalidState)
	}
	if s.Winner != NoPlayer {
		return fmt.Errorf("%w: running game has winner %v", ErrInvalidState, s.Winner)
	}
	if len(UltimateBoard{}.LegalActions(s)) == 0 {
		return fmt.Errorf("%w: running game has no legal action", ErrInvalidState)
	}
	return nil
}

func (g *Grid) hasLine(p Player) bool {
	for i := 0; i < Size; i++ {
		if g[i][0] == p && g[i][1] == p && g[i][2] == p {
			return true
		}
		if g[0][i] == p && g[1][i] == p && g[2][i] == p {
			return true
		}
	}
	return (g[0][0] == p && g[1][1] == p && g[2][2] == p) ||
		(g[0][2] == p && g[1][1] == p && g[2][0] == p)
}

func (g *Grid) has(p Player) bool {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if g[r][c] == p {
				return true
			}
		}
	}
	return false
}

func (g *Grid) full() bool {
	return !g.has(NoPlayer)
}

// ParseAction reads an action written as four coordinates, e.g. "(1, 2, 0, 0)" or "1 2 0 0".
func ParseAction(text string) (Action, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == '(' || r == ')' || r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != 4 {
		return Action{}, fmt.Errorf("%w: %q", ErrInvalidInput, text)
	}
	var coords [4]int
	for i, field := range fields {
		v, err := strconv.Atoi(field)
		if err != nil {
			return Action{}, fmt.Errorf("%w: %q: %w", ErrInvalidInput, text, err)
		}
		if v < 0 || v >= Size {
			return Action{}, fmt.Errorf("%w: %q", ErrOutOfRange, text)
		}
		coords[i] = v
	}
	return Action{OuterRow: coords[0], OuterCol: coords[1], InnerRow: coords[2], InnerCol: coords[3]}, nil
}

// ParseOpening plays a ';' separated list of actions from the starting position.
// An empty text gives the starting position.
func ParseOpening(text string) (State, error) {
	board := NewUltimateBoard()
	state := NewState()
	for _, field := range strings.Split(text, ";") {
		if strings.TrimSpace(field) == "" {
			continue
		}
		action, err := ParseAction(field)
		if err != nil {
			return State{}, err
		}
		if err := ValidateAction(state, action); err != nil {
			return State{}, fmt.Errorf("move %d: %w", state.Moves+1, err)
		}
		state = board.NextState(state, action)
	}
	return state, nil
}
