package logging

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// WithRequest returns a context carrying a logger that tags every record
// with requestID.
func WithRequest(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, slog.Default().With("request_id", requestID))
}

// FromContext returns the request-scoped logger, falling back to slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
