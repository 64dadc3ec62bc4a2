package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"
	"uttt/agent"
	"uttt/config"
	"uttt/engine"
	"uttt/experiments"
	"uttt/experiments/metrics"
	"uttt/game"
	"uttt/render"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

const usage = `usage: uttt <command> [flags]

commands:
  play        play one game and print every position
  experiment  play MCTS at several budgets against a random agent (--kind baseline)
              or against itself (--kind selfplay) and store CSVs
  serve       serve the MCTS agent over HTTP
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("uttt failed")
	}
}

func newFlagSet(command string) *pflag.FlagSet {
	flags := pflag.NewFlagSet(command, pflag.ContinueOnError)
	flags.String("config", "", "path to a YAML config file")
	flags.Int("iterations", 2000, "MCTS iterations per move")
	flags.Uint64("seed", 0, "random seed, 0 seeds from the clock")
	flags.Int("games", 10, "games per match up")
	flags.Int("max-turns", engine.MaxMoves, "stop a game after this many moves")
	flags.Int("workers", 1, "games played at once in experiments")
	flags.String("output-dir", "experiments", "directory for experiment records")
	flags.String("opponent", "mcts", "opponent of the MCTS agent in play: mcts or random")
	flags.String("remote", "", "URL of an agent server to play as the opponent")
	flags.String("opening", "", `moves played before the agents take over, e.g. "(1, 1, 0, 2); (0, 2, 2, 2)"`)
	flags.String("kind", "baseline", "experiment to run: baseline or selfplay")
	flags.String("addr", ":8080", "listen address of the agent server")
	flags.String("log-level", "info", "debug, info, warn or error")
	flags.String("log-format", "console", "console or json")
	return flags
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("missing command")
	}
	command := args[0]
	switch command {
	case "play", "experiment", "serve":
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", command)
	}

	flags := newFlagSet(command)
	if err := flags.Parse(args[1:]); err != nil {
		return err
	}
	configPath, _ := flags.GetString("config")
	manager, err := config.Load(configPath, flags)
	if err != nil {
		return err
	}
	cfg := manager.Config()
	setupLogging(cfg.Log.Level, cfg.Log.Format)
	if path := manager.FilePath(); path != "" {
		log.Info().Str("file", path).Msg("loaded config")
	}

	switch command {
	case "play":
		remote, _ := flags.GetString("remote")
		opening, _ := flags.GetString("opening")
		return play(cfg, remote, opening, out)
	case "experiment":
		return experiment(cfg)
	default:
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, manager)
	}
}

func setupLogging(level, format string) {
	var logLevel zerolog.Level
	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}
}

func searchConfig(cfg config.Config, id int, seedOffset uint64) metrics.AgentConfig {
	seed := cfg.Search.Seed
	if seed != 0 {
		seed += seedOffset
	}
	return metrics.AgentConfig{ID: id, Kind: experiments.KindMCTS, Iterations: cfg.Search.Iterations, Seed: seed}
}

func play(cfg config.Config, remote, opening string, out io.Writer) error {
	start, err := game.ParseOpening(opening)
	if err != nil {
		return fmt.Errorf("invalid opening: %w", err)
	}
	board := game.NewUltimateBoard()
	first, err := experiments.NewAgent(board, searchConfig(cfg, 1, 0), log.Logger)
	if err != nil {
		return err
	}

	var second agent.Agent
	if remote != "" {
		second = agent.NewRemoteAgent(remote, nil)
	} else {
		opponent := searchConfig(cfg, 2, 1)
		opponent.Kind = cfg.Match.Opponent
		if second, err = experiments.NewAgent(board, opponent, log.Logger); err != nil {
			return err
		}
	}

	renderer := render.NewTerminal()
	fmt.Fprint(out, renderer.Position(start))
	e := engine.NewLocalEngine(board, [2]agent.Agent{first, second},
		engine.WithStartState(start),
		engine.WithMaxMoves(cfg.Match.MaxTurns),
		engine.WithMoveHook(func(step int, player game.Player, move game.Action, state game.State) {
			fmt.Fprintf(out, "\nmove %d: %s plays %v\n", step, render.Symbol(player), move)
			fmt.Fprint(out, renderer.Position(state))
		}),
	)

	winner, gameMetric, _, err := e.Run()
	if err != nil {
		return err
	}
	if winner == "" {
		fmt.Fprintf(out, "\nstopped after %d moves\n", gameMetric.TotalMoves)
	}
	return nil
}

func experiment(cfg config.Config) error {
	name := cfg.Match.Experiment
	configs, matchUps, err := experiments.ByName(name, cfg.Search.Iterations, cfg.Search.Seed)
	if err != nil {
		return err
	}
	writer, err := metrics.NewWriter(cfg.Match.OutputDir, name)
	if err != nil {
		return err
	}
	_, err = experiments.Run(name, configs, matchUps, cfg.Match.Games, writer,
		experiments.WithMaxMoves(cfg.Match.MaxTurns), experiments.WithWorkers(cfg.Match.Workers))
	return err
}

func serve(ctx context.Context, manager *config.Manager) error {
	board := game.NewUltimateBoard()
	newAgent := func(cfg config.Config) (agent.Agent, error) {
		return experiments.NewAgent(board, searchConfig(cfg, 1, 0), log.Logger)
	}

	a, err := newAgent(manager.Config())
	if err != nil {
		return err
	}
	server := agent.NewServer(a, log.Logger)

	manager.Watch(func(cfg config.Config) {
		a, err := newAgent(cfg)
		if err != nil {
			log.Error().Err(err).Msg("keeping previous agent")
			return
		}
		server.SetAgent(a)
		log.Info().Int("iterations", cfg.Search.Iterations).Msg("agent reconfigured")
	})

	return server.ListenAndServe(ctx, manager.Config().Server.Addr)
}
