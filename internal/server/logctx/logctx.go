// Package logctx carries the request-scoped logger.
package logctx

import (
	"context"
	"io"
	"log/slog"
)

type contextKey struct{}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored by WithLogger, or one that drops everything.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return discard
}
