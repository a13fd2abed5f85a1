// Package obslog provides structured logging for the gateway core, wrapping
// log/slog with correlation-id scoping the way the rest of the gateway
// propagates correlation ids through errors.
package obslog

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with correlation-id-aware helpers.
type Logger struct {
	logger *slog.Logger
}

// Config controls logger construction.
type Config struct {
	Level      slog.Level
	Output     io.Writer
	AddSource  bool
	JSONFormat bool
}

// DefaultConfig returns sensible defaults: info level, JSON to stdout.
func DefaultConfig() Config {
	return Config{Level: slog.LevelInfo, Output: os.Stdout, JSONFormat: true}
}

// New creates a new Logger.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: cfg.Level, AddSource: cfg.AddSource}

	var handler slog.Handler
	if cfg.JSONFormat {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	} else {
		handler = slog.NewTextHandler(cfg.Output, opts)
	}
	return &Logger{logger: slog.New(handler)}
}

// With returns a logger with additional structured fields attached.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{logger: l.logger.With(args...)}
}

// WithCorrelation returns a logger scoped to a correlation id.
func (l *Logger) WithCorrelation(correlationID string) *Logger {
	if correlationID == "" {
		return l
	}
	return l.With("correlation_id", correlationID)
}

// WithContext returns a logger scoped to the correlation id carried by ctx,
// if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	return l.WithCorrelation(CorrelationIDFromContext(ctx))
}

func (l *Logger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }
func (l *Logger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }

// Slog returns the underlying slog.Logger for interop with libraries that
// expect one directly (e.g. the redis client's logger hook).
func (l *Logger) Slog() *slog.Logger { return l.logger }

// Nop returns a logger that discards everything, useful in tests.
func Nop() *Logger {
	return New(Config{Level: slog.LevelError + 1, Output: io.Discard})
}
