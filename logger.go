package facade

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with recognition-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithLabel adds a building label field to the logger.
func (l *Logger) WithLabel(label string) *Logger {
	return &Logger{
		Logger: l.Logger.With("label", label),
	}
}

// LogRecognize logs a recognition request.
func (l *Logger) LogRecognize(ctx context.Context, label string, confidence float32, candidates int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "recognition failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "recognition completed",
			"label", label,
			"confidence", confidence,
			"candidates", candidates,
		)
	}
}

// LogClassify logs a classification request.
func (l *Logger) LogClassify(ctx context.Context, label string, confidence float64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "classification failed",
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "classification completed",
			"label", label,
			"confidence", confidence,
		)
	}
}

// LogClassifierLoad logs a classifier artifact (re)load.
func (l *Logger) LogClassifierLoad(ctx context.Context, artifact string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "classifier load failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "classifier loaded",
			"artifact", artifact,
		)
	}
}
