package logging_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/idelchi/gocryptor/internal/logging"
)

func TestNewLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		verbosity int
		enabled   zapcore.Level
		disabled  zapcore.Level
	}{
		{0, zapcore.WarnLevel, zapcore.InfoLevel},
		{1, zapcore.InfoLevel, zapcore.DebugLevel},
		{5, zapcore.DebugLevel, zapcore.DebugLevel - 1},
	}

	for _, tt := range tests {
		logger, err := logging.New(tt.verbosity, false)
		require.NoError(t, err)

		assert.True(t, logger.Core().Enabled(tt.enabled), "verbosity %d", tt.verbosity)
		assert.False(t, logger.Core().Enabled(tt.disabled), "verbosity %d", tt.verbosity)
	}

	quiet, err := logging.New(5, true)
	require.NoError(t, err)
	assert.False(t, quiet.Core().Enabled(zapcore.ErrorLevel))
}

func TestContextLogger(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logging.WithLogger(context.Background(), zap.New(core))

	logging.FromContext(logging.WithName(ctx, "engine")).Info("hello")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "engine", entries[0].LoggerName)

	assert.NotNil(t, logging.FromContext(context.Background()))
}
