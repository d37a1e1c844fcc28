package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"shithead/internal/app"
	"shithead/internal/bot"
	"shithead/internal/config"
)

var configPath = flag.String("config", "", "path to configuration file (defaults and SHITHEAD_* env when empty)")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("simulation failed", zap.Error(err))
	}
}

// tally accumulates results across simulated games, keyed by seat.
type tally struct {
	games     int
	abandoned int
	turns     int
	wins      []int
	losses    []int
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	seed := cfg.Game.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	svc := app.NewService(rand.New(rand.NewSource(rng.Int63())), logger.Named("engine"))

	n := cfg.Game.PlayerCount
	levels := make([]bot.Difficulty, n)
	for i := range levels {
		levels[i] = cfg.AI.Difficulty(i)
	}
	logger.Info("starting simulation",
		zap.Int("games", cfg.Simulation.Games),
		zap.Int("players", n),
		zap.Int64("seed", seed),
		zap.Any("difficulties", levels),
	)

	t := tally{wins: make([]int, n), losses: make([]int, n)}
	for g := 0; g < cfg.Simulation.Games; g++ {
		agents := make([]*bot.Agent, n)
		for i, level := range levels {
			agent, err := bot.NewAgent(i, level, rand.New(rand.NewSource(rng.Int63())))
			if err != nil {
				return err
			}
			agents[i] = agent
		}
		arena := &bot.Arena{
			Service:  svc,
			Agents:   agents,
			MaxTurns: cfg.Simulation.MaxTurns,
			Logger:   logger.Named("arena"),
		}

		res, err := arena.Play(ctx)
		switch {
		case errors.Is(err, bot.ErrTurnLimit):
			t.abandoned++
			continue
		case err != nil:
			return fmt.Errorf("game %d: %w", g+1, err)
		}
		t.games++
		t.turns += res.Turns
		t.wins[res.State.Winner]++
		if res.State.Loser >= 0 {
			t.losses[res.State.Loser]++
		}
	}

	for i, level := range levels {
		logger.Info("seat results",
			zap.Int("seat", i),
			zap.String("difficulty", string(level)),
			zap.Int("wins", t.wins[i]),
			zap.Int("losses", t.losses[i]),
		)
	}
	avg := 0.0
	if t.games > 0 {
		avg = float64(t.turns) / float64(t.games)
	}
	logger.Info("simulation finished",
		zap.Int("completed", t.games),
		zap.Int("abandoned", t.abandoned),
		zap.Float64("avg_turns", avg),
	)
	return nil
}

func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
