package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.NoError(t, err)

	c := m.Config()
	assert.Equal(t, 2000, c.Search.Iterations)
	assert.Equal(t, uint64(0), c.Search.Seed)
	assert.Equal(t, 10, c.Match.Games)
	assert.Equal(t, 81, c.Match.MaxTurns)
	assert.Equal(t, "experiments", c.Match.OutputDir)
	assert.Equal(t, "mcts", c.Match.Opponent)
	assert.Equal(t, 1, c.Match.Workers)
	assert.Equal(t, "baseline", c.Match.Experiment)
	assert.Equal(t, ":8080", c.Server.Addr)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "console", c.Log.Format)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
search:
  iterations: 500
  seed: 42
match:
  games: 4
  opponent: random
log:
  format: json
`)

	m, err := Load(path, nil)
	require.NoError(t, err)

	c := m.Config()
	assert.Equal(t, 500, c.Search.Iterations)
	assert.Equal(t, uint64(42), c.Search.Seed)
	assert.Equal(t, 4, c.Match.Games)
	assert.Equal(t, "random", c.Match.Opponent)
	assert.Equal(t, "json", c.Log.Format)
	assert.Equal(t, 81, c.Match.MaxTurns, "Unset keys keep their defaults")
	assert.Equal(t, path, m.FilePath())
}

func TestLoadPrecedence(t *testing.T) {
	path := writeConfig(t, "search:\n  iterations: 500\nmatch:\n  games: 4\n")
	t.Setenv("UTTT_MATCH_GAMES", "6")
	t.Setenv("UTTT_SERVER_ADDR", ":9090")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("iterations", 2000, "")
	flags.Int("games", 10, "")
	require.NoError(t, flags.Parse([]string{"--iterations", "50"}))

	m, err := Load(path, flags)
	require.NoError(t, err)

	c := m.Config()
	assert.Equal(t, 50, c.Search.Iterations, "Set flags override the file")
	assert.Equal(t, 6, c.Match.Games, "Env overrides the file when the flag is unset")
	assert.Equal(t, ":9090", c.Server.Addr)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeConfig(t, "search: [1, 2"), nil)
	require.ErrorContains(t, err, "error reading config file")

	_, err = Load(writeConfig(t, "search:\n  iterations: 0\n"), nil)
	require.ErrorContains(t, err, "search.iterations must be positive")
}

func TestValidate(t *testing.T) {
	valid := Config{
		Search: SearchConfig{Iterations: 1},
		Match:  MatchConfig{Games: 1, MaxTurns: 81, OutputDir: "out", Opponent: "mcts", Workers: 2, Experiment: "selfplay"},
		Server: ServerConfig{Addr: ":1"},
		Log:    LogConfig{Level: "debug", Format: "json"},
	}
	require.NoError(t, Validate(valid))

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"games", func(c *Config) { c.Match.Games = 0 }, "match.games"},
		{"max turns too high", func(c *Config) { c.Match.MaxTurns = 82 }, "match.max_turns"},
		{"max turns zero", func(c *Config) { c.Match.MaxTurns = 0 }, "match.max_turns"},
		{"workers", func(c *Config) { c.Match.Workers = 0 }, "match.workers"},
		{"experiment", func(c *Config) { c.Match.Experiment = "cutoff" }, "match.experiment"},
		{"output dir", func(c *Config) { c.Match.OutputDir = "" }, "match.output_dir"},
		{"opponent", func(c *Config) { c.Match.Opponent = "human" }, "match.opponent"},
		{"addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			require.ErrorContains(t, Validate(c), tt.want)
		})
	}
}

func TestWatch(t *testing.T) {
	path := writeConfig(t, "search:\n  iterations: 100\n")
	m, err := Load(path, nil)
	require.NoError(t, err)

	changed := make(chan Config, 64)
	m.Watch(func(c Config) { changed <- c })

	require.NoError(t, os.WriteFile(path, []byte("search:\n  iterations: 300\n"), 0644))

	// A write can surface as several events, the first possibly seeing a truncated file
	timeout := time.After(5 * time.Second)
	for observed := false; !observed; {
		select {
		case c := <-changed:
			observed = c.Search.Iterations == 300
		case <-timeout:
			t.Fatal("config change was not observed")
		}
	}
	require.Eventually(t, func() bool {
		return m.Config().Search.Iterations == 300
	}, time.Second, 10*time.Millisecond)
}
