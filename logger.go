package cstable

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with table writer context.
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
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithTable adds a table field to the logger.
func (l *Logger) WithTable(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("table", name),
	}
}

// WithColumn adds a column field to the logger.
func (l *Logger) WithColumn(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("column", name),
	}
}

// LogFlush logs a table flush.
func (l *Logger) LogFlush(ctx context.Context, columns int, bytes int64, d time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "flush failed",
			"columns", columns,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "flush completed",
			"columns", columns,
			"bytes", bytes,
			"duration", d,
		)
	}
}

// LogClose logs the completion of a table.
func (l *Logger) LogClose(ctx context.Context, rows uint64, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "close failed",
			"rows", rows,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "table written",
			"rows", rows,
			"bytes", bytes,
		)
	}
}

// LogAbort logs an aborted table.
func (l *Logger) LogAbort(ctx context.Context, rows uint64, cause error) {
	l.WarnContext(ctx, "table aborted",
		"rows", rows,
		"cause", cause,
	)
}
