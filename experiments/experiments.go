package experiments

import (
	"fmt"
	"uttt/agent"
	"uttt/engine"
	"uttt/experiments/metrics"
	"uttt/game"
	"uttt/searcher"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	KindMCTS   = "mcts"
	KindRandom = "random"
)

// Named experiments selectable from the CLI.
const (
	NameBaseline = "baseline"
	NameSelfPlay = "selfplay"
)

// ByName returns the agents and match ups of a named experiment.
func ByName(name string, iterations int, seed uint64) ([]metrics.AgentConfig, []MatchUp, error) {
	switch name {
	case NameBaseline:
		configs, matchUps := Baseline(Budgets(iterations), seed)
		return configs, matchUps, nil
	case NameSelfPlay:
		configs, matchUps := SelfPlay(Budgets(iterations), seed)
		return configs, matchUps, nil
	default:
		return nil, nil, fmt.Errorf("unknown experiment %q", name)
	}
}

// Budgets scales a full iteration budget down to a ladder of weaker agents:
// 1/20, 1/4 and the full budget, skipping rungs that round to zero.
func Budgets(iterations int) []int {
	budgets := []int{}
	for _, b := range []int{iterations / 20, iterations / 4, iterations} {
		if b > 0 {
			budgets = append(budgets, b)
		}
	}
	return budgets
}

type MatchUp [2]metrics.AgentConfig

// Baseline pairs an MCTS agent at each budget against a random agent.
func Baseline(budgets []int, seed uint64) ([]metrics.AgentConfig, []MatchUp) {
	random := metrics.AgentConfig{ID: 0, Kind: KindRandom, Seed: seed}
	configs := []metrics.AgentConfig{random}
	matchUps := []MatchUp{}
	for i, iterations := range budgets {
		config := metrics.AgentConfig{ID: i + 1, Kind: KindMCTS, Iterations: iterations, Seed: seed}
		configs = append(configs, config)
		matchUps = append(matchUps, MatchUp{config, random})
	}
	return configs, matchUps
}

// SelfPlay pairs each budget against itself, which gives similar game
// lengths and measures search throughput per move.
func SelfPlay(budgets []int, seed uint64) ([]metrics.AgentConfig, []MatchUp) {
	configs := []metrics.AgentConfig{}
	matchUps := []MatchUp{}
	for i, iterations := range budgets {
		config := metrics.AgentConfig{ID: i + 1, Kind: KindMCTS, Iterations: iterations, Seed: seed}
		configs = append(configs, config)
		matchUps = append(matchUps, MatchUp{config, config})
	}
	return configs, matchUps
}

// NewAgent builds the agent a config describes.
func NewAgent(board game.UltimateBoard, config metrics.AgentConfig, logger zerolog.Logger) (agent.Agent, error) {
	switch config.Kind {
	case KindMCTS:
		options := []searcher.Option{searcher.WithMetrics(), searcher.WithLogger(logger)}
		if config.Iterations > 0 {
			options = append(options, searcher.WithIterations(config.Iterations))
		}
		if config.Seed != 0 {
			options = append(options, searcher.WithSeed(config.Seed))
		}
		return agent.NewMCTSAgent(board, options...), nil
	case KindRandom:
		return agent.NewRandomAgent(board, config.Seed), nil
	default:
		return nil, fmt.Errorf("unknown agent kind %q", config.Kind)
	}
}

type Option func(r *runner)

func WithMaxMoves(maxMoves int) Option {
	return func(r *runner) {
		r.maxMoves = maxMoves
	}
}

// WithWorkers sets how many games are played at once.
func WithWorkers(workers int) Option {
	return func(r *runner) {
		if workers > 0 {
			r.workers = workers
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(r *runner) {
		r.logger = logger
	}
}

type runner struct {
	maxMoves int
	workers  int
	logger   zerolog.Logger
}

type job struct {
	matchUp int
	game    int
	seats   MatchUp
}

type result struct {
	winner      string
	gameMetric  metrics.GameMetric
	moveMetrics []metrics.MoveMetric
}

// Run plays every match up the given number of games, swapping seats after
// each game, and stores the records with writer when it is not nil.
func Run(name string, configs []metrics.AgentConfig, matchUps []MatchUp, games int, writer *metrics.Writer, options ...Option) (metrics.Summary, error) {
	r := runner{maxMoves: engine.MaxMoves, workers: 1, logger: log.Logger}
	for _, option := range options {
		option(&r)
	}
	board := game.NewUltimateBoard()

	jobs := []job{}
	for mi, matchUp := range matchUps {
		for i := 0; i < games; i++ {
			seats := matchUp
			if i%2 == 1 {
				seats = MatchUp{matchUp[1], matchUp[0]}
			}
			// Vary seeded agents between games so each game is a different sample
			for s := range seats {
				if seats[s].Seed != 0 {
					seats[s].Seed += uint64(len(jobs))
				}
			}
			jobs = append(jobs, job{matchUp: mi, game: i, seats: seats})
		}
	}

	r.logger.Info().Int("matchups", len(matchUps)).Int("games", len(jobs)).Int("workers", r.workers).Msgf("starting %s experiment...", name)

	results := make([]result, len(jobs))
	g := errgroup.Group{}
	g.SetLimit(r.workers)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			winner, gameMetric, moveMetrics, err := r.runGame(board, j.seats)
			if err != nil {
				return fmt.Errorf("matchup %d game %d: %w", j.matchUp+1, j.game+1, err)
			}
			results[i] = result{winner: winner, gameMetric: gameMetric, moveMetrics: moveMetrics}
			r.logger.Info().Msgf("completed matchup %d of %d game %d with winner: %s", j.matchUp+1, len(matchUps), j.game+1, winner)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return metrics.Summary{}, err
	}

	gameRecords := []metrics.GameRecord{}
	moveRecords := []metrics.MoveRecord{}
	for i, res := range results {
		id := i + 1
		gameRecords = append(gameRecords, metrics.GameRecord{
			ID:         id,
			Agent1:     jobs[i].seats[0].ID,
			Agent2:     jobs[i].seats[1].ID,
			GameMetric: res.gameMetric,
		})
		for _, mm := range res.moveMetrics {
			moveRecords = append(moveRecords, metrics.MoveRecord{
				Game:       id,
				MoveMetric: mm,
			})
		}
	}

	summary := metrics.Summarize(gameRecords)
	event := r.logger.Info().
		Int("games", summary.Games).
		Int("draws", summary.Draws).
		Int("unfinished", summary.Unfinished).
		Float64("mean_moves", summary.MeanMoves).
		Float64("stddev_moves", summary.StdDevMoves)
	for _, id := range summary.Agents() {
		event = event.Int(fmt.Sprintf("agent%d_wins", id), summary.Wins[id])
	}
	event.Msgf("completed %s experiment", name)

	if writer == nil {
		return summary, nil
	}
	if err := writer.WriteAgentConfigs(configs); err != nil {
		return summary, fmt.Errorf("failed to store agent configs: %w", err)
	}
	if err := writer.WriteGameRecords(gameRecords); err != nil {
		return summary, fmt.Errorf("failed to store game records: %w", err)
	}
	if err := writer.WriteMoveRecords(moveRecords); err != nil {
		return summary, fmt.Errorf("failed to store move records: %w", err)
	}
	r.logger.Info().Str("dir", writer.Dir()).Msg("stored experiment records")
	return summary, nil
}

func (r runner) runGame(board game.UltimateBoard, seats MatchUp) (string, metrics.GameMetric, []metrics.MoveMetric, error) {
	var agents [2]agent.Agent
	for s, config := range seats {
		a, err := NewAgent(board, config, r.logger)
		if err != nil {
			return "", metrics.GameMetric{}, nil, err
		}
		agents[s] = a
	}
	var e engine.Engine = engine.NewLocalEngine(board, agents, engine.WithMaxMoves(r.maxMoves), engine.WithLogger(r.logger))
	return e.Run()
}
