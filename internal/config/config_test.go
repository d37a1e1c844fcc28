package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shithead/internal/bot"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Game.PlayerCount)
	assert.Equal(t, string(bot.DifficultyMedium), cfg.AI.DefaultDifficulty)
	assert.True(t, cfg.AI.AutoFill)
	assert.Equal(t, 5, cfg.AI.AutoFillDelaySeconds)
	assert.Equal(t, time.Second, cfg.AI.MinDelay())
	assert.Equal(t, 2*time.Second, cfg.AI.MaxDelay())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 2000, cfg.Simulation.MaxTurns)
}

func TestLoadYAMLFile(t *testing.T) {
	path := writeFile(t, "shithead.yaml", `
game:
  player_count: 4
  seed: 99
ai:
  default_difficulty: hard
  difficulties: [easy, expert]
  min_delay_seconds: 0.5
  max_delay_seconds: 0.5
logging:
  format: json
simulation:
  games: 3
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Game.PlayerCount)
	assert.Equal(t, int64(99), cfg.Game.Seed)
	assert.Equal(t, bot.DifficultyEasy, cfg.AI.Difficulty(0))
	assert.Equal(t, bot.DifficultyExpert, cfg.AI.Difficulty(1))
	assert.Equal(t, bot.DifficultyHard, cfg.AI.Difficulty(2))
	assert.Equal(t, 500*time.Millisecond, cfg.AI.MinDelay())
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 3, cfg.Simulation.Games)
	// Untouched keys keep their defaults.
	assert.Equal(t, 2000, cfg.Simulation.MaxTurns)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeFile(t, "shithead.json", `{"game": {"player_count": 3}}`)
	t.Setenv("SHITHEAD_GAME_PLAYER_COUNT", "5")
	t.Setenv("SHITHEAD_AI_DEFAULT_DIFFICULTY", "easy")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Game.PlayerCount)
	assert.Equal(t, bot.DifficultyEasy, cfg.AI.Difficulty(0))
}

func TestLoadRuntimeEnv(t *testing.T) {
	cfg, err := LoadRuntimeEnv(map[string]string{
		"shithead_ai_auto_fill":               "false",
		"shithead_ai_auto_fill_delay_seconds": "9",
		"shithead_ai_difficulties":            "easy,hard",
		"unrelated_key":                       "x",
	})
	require.NoError(t, err)

	assert.False(t, cfg.AI.AutoFill)
	assert.Equal(t, 9, cfg.AI.AutoFillDelaySeconds)
	assert.Equal(t, bot.DifficultyHard, cfg.AI.Difficulty(1))
	assert.Equal(t, bot.DifficultyMedium, cfg.AI.Difficulty(2))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Game:       GameConfig{PlayerCount: 3},
			AI:         AIConfig{DefaultDifficulty: "medium", MinDelaySeconds: 1, MaxDelaySeconds: 2},
			Logging:    LoggingConfig{Level: "info", Format: "console"},
			Simulation: SimulationConfig{Games: 1, MaxTurns: 100},
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"too few players", func(c *Config) { c.Game.PlayerCount = 1 }},
		{"too many players", func(c *Config) { c.Game.PlayerCount = 7 }},
		{"unknown default difficulty", func(c *Config) { c.AI.DefaultDifficulty = "god" }},
		{"unknown seat difficulty", func(c *Config) { c.AI.Difficulties = []string{"easy", "smart"} }},
		{"inverted delay", func(c *Config) { c.AI.MinDelaySeconds = 3 }},
		{"negative delay", func(c *Config) { c.AI.MinDelaySeconds = -1 }},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"zero max turns", func(c *Config) { c.Simulation.MaxTurns = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := writeFile(t, "bad.yaml", "game:\n  player_count: 9\n")
	_, err := Load(path)
	require.Error(t, err)
}
