package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLegalActions(t *testing.T) {
	board := NewUltimateBoard()

	t.Run("opening position allows every cell in order", func(t *testing.T) {
		actions := board.LegalActions(NewState())

		require.Len(t, actions, 81)
		require.Equal(t, Action{0, 0, 0, 0}, actions[0])
		require.Equal(t, Action{0, 0, 0, 1}, actions[1])
		require.Equal(t, Action{2, 2, 2, 2}, actions[80])
	})

	t.Run("a move restricts the opponent to the target box", func(t *testing.T) {
		state := board.NextState(NewState(), Action{1, 1, 0, 2})
		actions := board.LegalActions(state)

		require.Len(t, actions, 9)
		for _, action := range actions {
			require.Equal(t, Box{0, 2}, action.Box())
		}
	})

	t.Run("being sent to a decided box frees the choice", func(t *testing.T) {
		state := NewState()
		state.Owners[0][0] = PlayerTwo
		state.Forced = Box{0, 0}
		state.HasForced = true

		actions := board.LegalActions(state)

		require.Len(t, actions, 72)
		for _, action := range actions {
			require.NotEqual(t, Box{0, 0}, action.Box())
		}
	})

	t.Run("terminal state has no legal actions", func(t *testing.T) {
		state := NewState()
		state.Ended = true
		require.Empty(t, board.LegalActions(state))
	})
}

func TestNextState(t *testing.T) {
	board := NewUltimateBoard()

	t.Run("transition is pure", func(t *testing.T) {
		state := board.NextState(NewState(), Action{1, 1, 1, 1})
		before := state

		first := board.NextState(state, Action{1, 1, 0, 0})
		second := board.NextState(state, Action{1, 1, 0, 0})

		require.Equal(t, first, second, "Same state and action should give equal results")
		require.Equal(t, before, state, "Input state should be unchanged")
		require.NotEqual(t, state, first)
	})

	t.Run("completing a line claims the box", func(t *testing.T) {
		state := NewState()
		state.Cells[0][0][0][0] = PlayerOne
		state.Cells[0][0][0][1] = PlayerOne
		state.Forced = Box{0, 0}
		state.HasForced = true

		next := board.NextState(state, Action{0, 0, 0, 2})

		require.Equal(t, PlayerOne, next.Owners[0][0])
		require.Equal(t, PlayerOne, board.OwnedBoxes(next)[Box{0, 0}])
		require.Equal(t, PlayerOne, board.PreviousPlayer(next))
		require.Equal(t, PlayerTwo, board.CurrentPlayer(next))
		require.False(t, board.IsEnded(next))
	})

	t.Run("filling a box without a line marks it drawn", func(t *testing.T) {
		state := NewState()
		state.Cells[2][2] = Grid{
			{PlayerOne, PlayerTwo, PlayerOne},
			{PlayerOne, PlayerTwo, PlayerTwo},
			{PlayerTwo, PlayerOne, NoPlayer},
		}
		state.Forced = Box{2, 2}
		state.HasForced = true

		next := board.NextState(state, Action{2, 2, 2, 2})

		require.Equal(t, Draw, next.Owners[2][2])
	})

	t.Run("three boxes in a row wins the game", func(t *testing.T) {
		state := NewState()
		state.Owners[0][0] = PlayerOne
		state.Owners[0][1] = PlayerOne
		state.Cells[0][2][1][0] = PlayerOne
		state.Cells[0][2][1][1] = PlayerOne
		state.Forced = Box{0, 2}
		state.HasForced = true

		next := board.NextState(state, Action{0, 2, 1, 2})

		require.True(t, board.IsEnded(next))
		require.Equal(t, PlayerOne, next.Winner)
		require.Equal(t, Outcome{PlayerOne: 1, PlayerTwo: 0}, board.PointsValues(next))
	})

	t.Run("deciding every box without a line is a draw", func(t *testing.T) {
		state := NewState()
		state.Owners = Grid{
			{PlayerOne, PlayerTwo, PlayerOne},
			{PlayerOne, PlayerTwo, PlayerTwo},
			{PlayerTwo, PlayerOne, NoPlayer},
		}
		state.Turn = PlayerTwo
		state.Cells[2][2][0][0] = PlayerTwo
		state.Cells[2][2][0][1] = PlayerTwo

		next := board.NextState(state, Action{2, 2, 0, 2})

		require.Equal(t, PlayerTwo, next.Owners[2][2])
		require.True(t, board.IsEnded(next))
		require.Equal(t, Draw, next.Winner)
		require.Equal(t, Outcome{PlayerOne: 0.5, PlayerTwo: 0.5}, board.PointsValues(next))
	})

	t.Run("illegal action panics", func(t *testing.T) {
		state := board.NextState(NewState(), Action{1, 1, 0, 2})
		require.Panics(t, func() {
			board.NextState(state, Action{1, 1, 0, 0})
		}, "Should panic when playing outside the forced box")
	})
}

func TestPointsValuesInProgress(t *testing.T) {
	require.Panics(t, func() {
		NewUltimateBoard().PointsValues(NewState())
	})
}

func TestValidateAction(t *testing.T) {
	board := NewUltimateBoard()
	state := board.NextState(NewState(), Action{1, 1, 1, 1})

	tests := []struct {
		name   string
		state  State
		action Action
		err    error
	}{
		{"legal", state, Action{1, 1, 0, 0}, nil},
		{"occupied", state, Action{1, 1, 1, 1}, ErrOccupied},
		{"wrong box", state, Action{0, 0, 0, 0}, ErrWrongBox},
		{"out of range", state, Action{1, 1, 3, 0}, ErrOutOfRange},
		{"game over", State{Ended: true}, Action{0, 0, 0, 0}, ErrGameOver},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAction(tt.state, tt.action)
			if tt.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestValidateState(t *testing.T) {
	board := NewUltimateBoard()
	running := board.NextState(NewState(), Action{1, 1, 1, 1})

	allOwned := NewState()
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			allOwned.Owners[r][c] = Draw
		}
	}
	fullForced := running
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			fullForced.Cells[1][1][r][c] = PlayerTwo
		}
	}

	tests := []struct {
		name   string
		mutate func(s *State)
		valid  bool
	}{
		{"running game", func(s *State) {}, true},
		{"finished game", func(s *State) { s.Ended, s.Winner = true, PlayerTwo }, true},
		{"no player to move", func(s *State) { s.Turn = NoPlayer }, false},
		{"forced box off the board", func(s *State) { s.Forced = Box{Row: 7, Col: 0} }, false},
		{"negative forced box", func(s *State) { s.Forced = Box{Row: 0, Col: -1} }, false},
		{"unknown owner", func(s *State) { s.Owners[0][0] = Player(9) }, false},
		{"draw mark in a cell", func(s *State) { s.Cells[0][0][0][0] = Draw }, false},
		{"negative moves", func(s *State) { s.Moves = -1 }, false},
		{"finished without a result", func(s *State) { s.Ended = true }, false},
		{"running with a winner", func(s *State) { s.Winner = PlayerOne }, false},
		{"every box owned but running", func(s *State) { *s = allOwned }, false},
		{"forced box full but unowned", func(s *State) { *s = fullForced }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := running
			tt.mutate(&state)
			err := ValidateState(state)
			if tt.valid {
				require.NoError(t, err)
				require.NotPanics(t, func() { board.LegalActions(state) })
				return
			}
			require.ErrorIs(t, err, ErrInvalidState)
		})
	}
}

func TestParseOpening(t *testing.T) {
	t.Run("plays the moves in order", func(t *testing.T) {
		board := NewUltimateBoard()
		want := board.NextState(board.NextState(NewState(), Action{1, 1, 0, 2}), Action{0, 2, 2, 2})

		got, err := ParseOpening("(1, 1, 0, 2); (0, 2, 2, 2)")

		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("empty opening is the start", func(t *testing.T) {
		got, err := ParseOpening(" ")
		require.NoError(t, err)
		require.Equal(t, NewState(), got)
	})

	t.Run("rejects illegal and malformed moves", func(t *testing.T) {
		_, err := ParseOpening("1 1 0 2; 0 0 0 0")
		require.ErrorIs(t, err, ErrWrongBox)
		require.ErrorContains(t, err, "move 2")

		_, err = ParseOpening("1 1 0")
		require.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestParseAction(t *testing.T) {
	t.Run("round trips the printed form", func(t *testing.T) {
		action := Action{2, 0, 1, 2}
		got, err := ParseAction(action.String())
		require.NoError(t, err)
		require.Equal(t, action, got)
	})

	t.Run("accepts space separated coordinates", func(t *testing.T) {
		got, err := ParseAction("0 1 2 0")
		require.NoError(t, err)
		require.Equal(t, Action{0, 1, 2, 0}, got)
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		_, err := ParseAction("0 1 x 0")
		require.ErrorIs(t, err, ErrInvalidInput)

		_, err = ParseAction("0 1 2")
		require.ErrorIs(t, err, ErrInvalidInput)

		_, err = ParseAction("0 1 2 5")
		require.ErrorIs(t, err, ErrOutOfRange)
	})
}

func TestOpponent(t *testing.T) {
	require.Equal(t, PlayerTwo, PlayerOne.Opponent())
	require.Equal(t, PlayerOne, PlayerTwo.Opponent())
	require.Panics(t, func() { Draw.Opponent() })
}
