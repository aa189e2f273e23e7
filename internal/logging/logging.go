// Package logging carries a request-scoped slog.Logger through contexts so
// booking operations can log with the request attributes already attached.
package logging

import (
	"context"
	"log/slog"
)

type ctxKey int

const loggerKey ctxKey = iota

// ContextWithLogger attaches logger to the context. A nil context or logger
// is returned unchanged so call sites need no guards.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger attached to ctx, or nil when none was
// attached. Callers fall back to their own base logger on nil.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return nil
	}
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return nil
}
