package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"shithead/internal/bot"
	"shithead/internal/domain"
)

// EnvPrefix is prepended to every environment override, e.g. SHITHEAD_AI_AUTO_FILL.
const EnvPrefix = "SHITHEAD"

// Config is the full runtime configuration.
type Config struct {
	Game       GameConfig       `mapstructure:"game"`
	AI         AIConfig         `mapstructure:"ai"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Simulation SimulationConfig `mapstructure:"simulation"`
}

type GameConfig struct {
	PlayerCount int `mapstructure:"player_count"`
	// Seed fixes shuffling and AI randomness. Zero seeds from the clock.
	Seed int64 `mapstructure:"seed"`
}

type AIConfig struct {
	DefaultDifficulty string `mapstructure:"default_difficulty"`
	// Difficulties assigns a level per AI seat; seats past the end use DefaultDifficulty.
	Difficulties []string `mapstructure:"difficulties"`
	// MinDelaySeconds and MaxDelaySeconds bound the pause before an AI acts.
	MinDelaySeconds float64 `mapstructure:"min_delay_seconds"`
	MaxDelaySeconds float64 `mapstructure:"max_delay_seconds"`
	// AutoFill seats AI players in empty seats when a match starts, and
	// after AutoFillDelaySeconds when a single human waits in a lobby.
	AutoFill             bool `mapstructure:"auto_fill"`
	AutoFillDelaySeconds int  `mapstructure:"auto_fill_delay_seconds"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SimulationConfig struct {
	Games    int `mapstructure:"games"`
	MaxTurns int `mapstructure:"max_turns"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("game.player_count", 2)
	v.SetDefault("game.seed", 0)

	v.SetDefault("ai.default_difficulty", string(bot.DifficultyMedium))
	v.SetDefault("ai.difficulties", []string{})
	v.SetDefault("ai.min_delay_seconds", 1.0)
	v.SetDefault("ai.max_delay_seconds", 2.0)
	v.SetDefault("ai.auto_fill", true)
	v.SetDefault("ai.auto_fill_delay_seconds", 5)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("simulation.games", 10)
	v.SetDefault("simulation.max_turns", 2000)
}

// Load reads defaults, then the file at path if non-empty, then SHITHEAD_*
// environment variables, and validates the result.
func Load(path string) (*Config, error) {
	return load(path, nil)
}

// LoadRuntimeEnv builds the configuration inside a Nakama runtime, where
// overrides arrive as the runtime env map (shithead_ai_auto_fill=false)
// rather than process environment variables.
func LoadRuntimeEnv(env map[string]string) (*Config, error) {
	return load("", env)
}

func load(path string, overrides map[string]string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	for _, key := range v.AllKeys() {
		name := strings.ToLower(EnvPrefix + "_" + strings.ReplaceAll(key, ".", "_"))
		if val, ok := overrides[name]; ok {
			v.Set(key, val)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the game cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Game.PlayerCount < domain.MinPlayers || c.Game.PlayerCount > domain.MaxPlayers {
		errs = append(errs, fmt.Errorf("game.player_count must be between %d and %d, got %d",
			domain.MinPlayers, domain.MaxPlayers, c.Game.PlayerCount))
	}
	if _, err := bot.ParseDifficulty(c.AI.DefaultDifficulty); err != nil {
		errs = append(errs, fmt.Errorf("ai.default_difficulty: %w", err))
	}
	for i, d := range c.AI.Difficulties {
		if _, err := bot.ParseDifficulty(d); err != nil {
			errs = append(errs, fmt.Errorf("ai.difficulties[%d]: %w", i, err))
		}
	}
	if c.AI.MinDelaySeconds < 0 || c.AI.MaxDelaySeconds < c.AI.MinDelaySeconds {
		errs = append(errs, fmt.Errorf("ai delay range [%v, %v] is invalid",
			c.AI.MinDelaySeconds, c.AI.MaxDelaySeconds))
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format))
	}
	if c.AI.AutoFillDelaySeconds < 0 {
		errs = append(errs, fmt.Errorf("ai.auto_fill_delay_seconds must not be negative"))
	}
	if c.Simulation.Games < 0 {
		errs = append(errs, fmt.Errorf("simulation.games must not be negative"))
	}
	if c.Simulation.MaxTurns <= 0 {
		errs = append(errs, fmt.Errorf("simulation.max_turns must be positive"))
	}
	return errors.Join(errs...)
}

// Difficulty returns the level for the AI in the given seat.
func (c AIConfig) Difficulty(seat int) bot.Difficulty {
	level := c.DefaultDifficulty
	if seat >= 0 && seat < len(c.Difficulties) {
		level = c.Difficulties[seat]
	}
	d, err := bot.ParseDifficulty(level)
	if err != nil {
		return bot.DifficultyMedium
	}
	return d
}

// MinDelay is the shortest pause before an AI move.
func (c AIConfig) MinDelay() time.Duration {
	return time.Duration(c.MinDelaySeconds * float64(time.Second))
}

// MaxDelay is the longest pause before an AI move.
func (c AIConfig) MaxDelay() time.Duration {
	return time.Duration(c.MaxDelaySeconds * float64(time.Second))
}
