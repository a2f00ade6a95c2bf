package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/trebuchet-org/treb-gov/internal/domain/config"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG", slog.LevelWarn))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning", slog.LevelInfo))
	assert.Equal(t, slog.LevelError, parseLevel(" error ", slog.LevelWarn))
	assert.Equal(t, slog.LevelWarn, parseLevel("verbose", slog.LevelWarn))
}

func TestNewLogger(t *testing.T) {
	t.Run("debug flag enables debug level", func(t *testing.T) {
		log := NewLogger(&config.RuntimeConfig{Debug: true})
		assert.True(t, log.Enabled(context.Background(), slog.LevelDebug))
	})

	t.Run("env level applies without debug", func(t *testing.T) {
		t.Setenv("TREBGOV_LOG_LEVEL", "info")
		log := NewLogger(&config.RuntimeConfig{})
		assert.True(t, log.Enabled(context.Background(), slog.LevelInfo))
		assert.False(t, log.Enabled(context.Background(), slog.LevelDebug))
	})
}

func TestShortPath(t *testing.T) {
	assert.Equal(t, "internal/usecase/mint_scheduler.go", shortPath("/home/dev/treb-gov/internal/usecase/mint_scheduler.go"))
	assert.Equal(t, "main.go", shortPath("/elsewhere/main.go"))
}
