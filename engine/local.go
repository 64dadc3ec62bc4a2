package engine

import (
	"fmt"
	"time"
	"uttt/agent"
	"uttt/experiments/metrics"
	"uttt/game"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// MaxMoves is the number of cells on the board, so no game can run longer.
const MaxMoves = game.Size * game.Size * game.Size * game.Size

type Engine interface {
	// Run plays a game till it ends or a max number of moves is reached
	Run() (winner string, gameMetric metrics.GameMetric, moveMetrics []metrics.MoveMetric, err error)
}

// MoveHook is called after every move with the resulting state.
type MoveHook func(step int, player game.Player, move game.Action, state game.State)

type Option func(e *LocalEngine)

func WithMaxMoves(maxMoves int) Option {
	return func(e *LocalEngine) {
		if maxMoves > 0 {
			e.maxMoves = maxMoves
		}
	}
}

func WithStartState(state game.State) Option {
	return func(e *LocalEngine) {
		e.State = state
	}
}

func WithMoveHook(hook MoveHook) Option {
	return func(e *LocalEngine) {
		e.onMove = hook
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *LocalEngine) {
		e.logger = logger
	}
}

var _ Engine = (*LocalEngine)(nil)

type LocalEngine struct {
	ID       string
	State    game.State
	board    game.UltimateBoard
	agents   [2]agent.Agent // Indexed by player ID - 1
	maxMoves int
	onMove   MoveHook
	logger   zerolog.Logger
}

// NewLocalEngine seats agents[0] as player one and agents[1] as player two.
func NewLocalEngine(board game.UltimateBoard, agents [2]agent.Agent, options ...Option) *LocalEngine {
	if agents[0] == nil || agents[1] == nil {
		panic("need two agents")
	}
	e := &LocalEngine{
		ID:       uuid.NewString(),
		State:    game.NewState(),
		board:    board,
		agents:   agents,
		maxMoves: MaxMoves,
		logger:   log.Logger,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Run executes the game loop until the game ends or the move limit is hit.
func (e *LocalEngine) Run() (string, metrics.GameMetric, []metrics.MoveMetric, error) {
	if err := game.ValidateState(e.State); err != nil {
		return "", metrics.GameMetric{ID: e.ID}, nil, fmt.Errorf("cannot start from state: %w", err)
	}
	gameMetric := metrics.GameMetric{
		ID:             e.ID,
		StartingPlayer: int(e.board.CurrentPlayer(e.State)),
		StartTime:      time.Now(),
	}
	logger := e.logger.With().Str("game", e.ID).Logger()
	logger.Info().Msgf("player %v is starting", e.board.CurrentPlayer(e.State))

	var moveMetrics []metrics.MoveMetric
	for step := 1; !e.board.IsEnded(e.State) && step <= e.maxMoves; step++ {
		player := e.board.CurrentPlayer(e.State)
		move, searchMetric, err := e.agents[player-1].FindMove(e.State)
		if err != nil {
			return "", e.complete(gameMetric), moveMetrics, fmt.Errorf("player %v failed to find a move: %w", player, err)
		}
		if err := game.ValidateAction(e.State, move); err != nil {
			return "", e.complete(gameMetric), moveMetrics, fmt.Errorf("player %v played illegal move %v: %w", player, move, err)
		}

		moveMetrics = append(moveMetrics, metrics.MoveMetric{
			Step:         step,
			Player:       int(player),
			SearchMetric: searchMetric,
		})
		e.State = e.board.NextState(e.State, move)
		gameMetric.TotalMoves++

		logger.Debug().Int("step", step).Stringer("player", player).Stringer("move", move).Msg("move played")
		if e.onMove != nil {
			e.onMove(step, player, move, e.State)
		}
	}

	winner := Winner(e.State)
	if e.board.IsEnded(e.State) {
		logger.Info().Msgf("game ended after %d moves with winner: %s", gameMetric.TotalMoves, winner)
	} else {
		logger.Info().Msgf("stopped after %d moves (no winner yet)", gameMetric.TotalMoves)
	}

	gameMetric = e.complete(gameMetric)
	gameMetric.Winner = winner
	return winner, gameMetric, moveMetrics, nil
}

func (e *LocalEngine) complete(gameMetric metrics.GameMetric) metrics.GameMetric {
	gameMetric.EndTime = time.Now()
	gameMetric.Duration = gameMetric.EndTime.Sub(gameMetric.StartTime)
	return gameMetric
}

// Winner names the winner of a finished game: "1", "2", "draw", or "" if still running.
func Winner(state game.State) string {
	if !state.Ended {
		return ""
	}
	return state.Winner.String()
}
