package searcher

import (
	"uttt/game"

	"golang.org/x/exp/rand"
)

// rollout plays the game out from state with rolloutPolicy and returns the terminal
// outcome along with the number of moves played.
func rollout[S any](board game.Board[S], state S, rng *rand.Rand) (game.Outcome, int) {
	moves := 0
	for !board.IsEnded(state) {
		state = board.NextState(state, rolloutPolicy(board, state, rng))
		moves++
	}
	return board.PointsValues(state), moves
}

// rolloutPolicy takes the first action that wins its box. Otherwise it picks at
// random among actions that send the opponent to an unclaimed box, or among all
// legal actions when there are none.
func rolloutPolicy[S any](board game.Board[S], state S, rng *rand.Rand) game.Action {
	actions := board.LegalActions(state)
	owned := board.OwnedBoxes(state)

	var safe []game.Action
	for _, action := range actions {
		if winsBox(board, state, action) {
			return action
		}
		if owned[action.Target()] == game.NoPlayer {
			safe = append(safe, action)
		}
	}

	if len(safe) > 0 {
		return safe[rng.Intn(len(safe))]
	}
	return actions[rng.Intn(len(actions))]
}

// winsBox reports whether the mover owns the action's box right after playing it.
func winsBox[S any](board game.Board[S], state S, action game.Action) bool {
	next := board.NextState(state, action)
	return board.OwnedBoxes(next)[action.Box()] == board.PreviousPlayer(next)
}
