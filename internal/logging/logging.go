// Package logging builds the zap logger and carries it through contexts.
package logging

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger writing to stderr.
// Verbosity 0 logs warnings and errors, 1 adds info, 2 and above add debug.
// A quiet logger discards everything.
func New(verbosity int, quiet bool) (*zap.Logger, error) {
	if quiet {
		return zap.NewNop(), nil
	}

	level := zapcore.WarnLevel

	switch {
	case verbosity >= 2: //nolint:mnd
		level = zapcore.DebugLevel
	case verbosity == 1:
		level = zapcore.InfoLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	return logger, nil
}

type loggerKeyType string

const (
	ctxLogger loggerKeyType = "logger"
)

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxLogger, logger)
}

// FromContext returns the logger stored in ctx, or the global zap logger.
func FromContext(ctx context.Context) *zap.Logger {
	if v, ok := ctx.Value(ctxLogger).(*zap.Logger); ok {
		return v
	}

	return zap.L()
}

// Named returns the context logger with name appended.
func Named(ctx context.Context, name string) *zap.Logger {
	return FromContext(ctx).Named(name)
}

// WithName returns a copy of ctx whose logger has name appended.
func WithName(ctx context.Context, name string) context.Context {
	return WithLogger(ctx, Named(ctx, name))
}
