package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"shithead/internal/config"
)

func TestRun(t *testing.T) {
	cfg := &config.Config{
		Game:       config.GameConfig{PlayerCount: 3, Seed: 11},
		AI:         config.AIConfig{DefaultDifficulty: "medium", Difficulties: []string{"easy", "hard"}},
		Logging:    config.LoggingConfig{Level: "info", Format: "console"},
		Simulation: config.SimulationConfig{Games: 3, MaxTurns: 3000},
	}
	require.NoError(t, cfg.Validate())
	require.NoError(t, run(context.Background(), cfg, zaptest.NewLogger(t)))
}

func TestInitLogger(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, err := initLogger(config.LoggingConfig{Level: "debug", Format: format})
		require.NoError(t, err)
		require.NotNil(t, logger)
	}
}
