package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Search SearchConfig `mapstructure:"search"`
	Match  MatchConfig  `mapstructure:"match"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
}

type SearchConfig struct {
	Iterations int    `mapstructure:"iterations"`
	Seed       uint64 `mapstructure:"seed"` // 0 = time seeded
}

type MatchConfig struct {
	Games      int    `mapstructure:"games"`
	MaxTurns   int    `mapstructure:"max_turns"`
	OutputDir  string `mapstructure:"output_dir"`
	Opponent   string `mapstructure:"opponent"`   // mcts or random
	Workers    int    `mapstructure:"workers"`    // Games played at once in experiments
	Experiment string `mapstructure:"experiment"` // baseline or selfplay
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"iterations": "search.iterations",
	"seed":       "search.seed",
	"games":      "match.games",
	"max-turns":  "match.max_turns",
	"output-dir": "match.output_dir",
	"opponent":   "match.opponent",
	"workers":    "match.workers",
	"kind":       "match.experiment",
	"addr":       "server.addr",
	"log-level":  "log.level",
	"log-format": "log.format",
}

func setViperDefaults(v *viper.Viper) {
	v.SetDefault("search.iterations", 2000)
	v.SetDefault("search.seed", 0)

	v.SetDefault("match.games", 10)
	v.SetDefault("match.max_turns", 81)
	v.SetDefault("match.output_dir", "experiments")
	v.SetDefault("match.opponent", "mcts")
	v.SetDefault("match.workers", 1)
	v.SetDefault("match.experiment", "baseline")

	v.SetDefault("server.addr", ":8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Manager owns the viper instance and the current decoded config.
type Manager struct {
	mu  sync.RWMutex
	v   *viper.Viper
	cfg Config
}

// Load reads defaults, then the config file, then UTTT_* environment
// variables, then any flags that were set. An empty path searches the
// working directory and ./config for config.yaml; a missing file falls back to defaults.
func Load(path string, flags *pflag.FlagSet) (*Manager, error) {
	v := viper.New()
	setViperDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("UTTT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	m := &Manager{v: v}
	cfg, err := m.decode()
	if err != nil {
		return nil, err
	}
	m.cfg = cfg
	return m, nil
}

func (m *Manager) decode() (Config, error) {
	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (m *Manager) Config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// FilePath returns the path of the loaded config file, or "" if none was found.
func (m *Manager) FilePath() string {
	return m.v.ConfigFileUsed()
}

// Watch reloads the config whenever the file changes. Invalid edits are
// logged and ignored. It does nothing when no file was loaded.
func (m *Manager) Watch(onChange func(Config)) {
	if m.FilePath() == "" {
		return
	}
	m.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := m.decode()
		if err != nil {
			log.Warn().Err(err).Str("file", e.Name).Msg("ignoring config change")
			return
		}
		m.mu.Lock()
		m.cfg = cfg
		m.mu.Unlock()
		log.Info().Str("file", e.Name).Msg("config reloaded")
		if onChange != nil {
			onChange(cfg)
		}
	})
	m.v.WatchConfig()
}

// Validate validates the configuration values
func Validate(c Config) error {
	if c.Search.Iterations <= 0 {
		return fmt.Errorf("search.iterations must be positive")
	}

	if c.Match.Games <= 0 {
		return fmt.Errorf("match.games must be positive")
	}
	if c.Match.MaxTurns <= 0 || c.Match.MaxTurns > 81 {
		return fmt.Errorf("match.max_turns must be between 1 and 81")
	}
	if c.Match.Workers <= 0 {
		return fmt.Errorf("match.workers must be positive")
	}
	switch c.Match.Experiment {
	case "baseline", "selfplay":
	default:
		return fmt.Errorf("match.experiment must be one of: baseline, selfplay")
	}
	if c.Match.OutputDir == "" {
		return fmt.Errorf("match.output_dir must not be empty")
	}
	switch c.Match.Opponent {
	case "mcts", "random":
	default:
		return fmt.Errorf("match.opponent must be one of: mcts, random")
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be one of: console, json")
	}

	return nil
}
