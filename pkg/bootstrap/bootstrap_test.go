package bootstrap

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToLevel(t *testing.T) {
	testCases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for level, expected := range testCases {
		assert.Equal(t, expected, toLevel(level), "level %q", level)
	}
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	log := NewLogger("warn")
	ctx := context.Background()

	assert.False(t, log.Enabled(ctx, slog.LevelInfo))
	assert.True(t, log.Enabled(ctx, slog.LevelWarn))
}
