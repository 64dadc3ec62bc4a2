package agent

import (
	"time"
	"uttt/experiments/metrics"
	"uttt/game"
	"uttt/searcher"

	"golang.org/x/exp/rand"
)

type Agent interface {
	// FindMove returns the move to play and performance metrics (if collected) from the search
	FindMove(state game.State) (game.Action, metrics.SearchMetric, error)
}

type mctsAgent struct {
	board game.UltimateBoard
	mcts  *searcher.MCTS[game.State]
}

// NewMCTSAgent returns an agent that runs a fresh UCT search for every move.
func NewMCTSAgent(board game.UltimateBoard, options ...searcher.Option) Agent {
	return mctsAgent{board: board, mcts: searcher.NewMCTS[game.State](options...)}
}

func (a mctsAgent) FindMove(state game.State) (game.Action, metrics.SearchMetric, error) {
	if a.board.IsEnded(state) {
		return game.Action{}, metrics.SearchMetric{}, game.ErrGameOver
	}
	result := a.mcts.Choose(a.board, state)
	return result.Action, result.Metric, nil
}

type randomAgent struct {
	board game.UltimateBoard
	rng   *rand.Rand
}

// NewRandomAgent returns a baseline agent playing uniformly random legal moves.
// A zero seed seeds from the clock.
func NewRandomAgent(board game.UltimateBoard, seed uint64) Agent {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &randomAgent{board: board, rng: rand.New(rand.NewSource(seed))}
}

func (a *randomAgent) FindMove(state game.State) (game.Action, metrics.SearchMetric, error) {
	moves := a.board.LegalActions(state)
	if len(moves) == 0 {
		return game.Action{}, metrics.SearchMetric{}, game.ErrGameOver
	}
	return moves[a.rng.Intn(len(moves))], metrics.SearchMetric{}, nil
}
