// Package logger provides the context-scoped structured logging helpers
// used throughout this module, matching the calling convention observed
// at the teacher's internal/cli call sites (logger.Info(ctx, msg, "k", v)).
package logger

import (
	"context"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

type ctxKey struct{}

// New builds the default structured logger: JSON to stderr, with fields
// for run id and task id attached via WithRun/WithTask. A second handler
// can be fanned in via slog-multi (e.g. a file sink) by callers that need
// one; New on its own wraps a single handler through slogmulti.Fanout so
// adding handlers later does not change the logger's type.
func New(level slog.Level, extra ...slog.Handler) *slog.Logger {
	handlers := append([]slog.Handler{
		slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	}, extra...)
	return slog.New(slogmulti.Fanout(handlers...))
}

// WithContext stores l in ctx for retrieval by the package-level helpers.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored in ctx, or slog.Default() if none
// was attached.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

// WithRun returns a context carrying a logger annotated with run_id.
func WithRun(ctx context.Context, runID string) context.Context {
	return WithContext(ctx, FromContext(ctx).With("run_id", runID))
}

// WithTask returns a context carrying a logger annotated with task_id.
func WithTask(ctx context.Context, taskID string) context.Context {
	return WithContext(ctx, FromContext(ctx).With("task_id", taskID))
}

// Debug logs at debug level using the logger attached to ctx.
func Debug(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Debug(msg, args...)
}

// Info logs at info level using the logger attached to ctx.
func Info(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Info(msg, args...)
}

// Warn logs at warn level using the logger attached to ctx.
func Warn(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Warn(msg, args...)
}

// Error logs at error level using the logger attached to ctx.
func Error(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Error(msg, args...)
}
