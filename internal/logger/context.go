// internal/logger/context.go
//
// Request-scoped loggers.
//
// Handlers enrich a logger with request fields once (request id, form id,
// client IP) and pass it down through the context.  Code that has no
// context-bound logger falls back to the global one installed by New.

package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// WithContext returns a copy of ctx carrying log.
func WithContext(ctx context.Context, log *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// FromContext returns the logger stored in ctx, or zap.S() when none is.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.SugaredLogger); ok && l != nil {
			return l
		}
	}
	return zap.S()
}

// NewNop returns a logger that discards everything.
func NewNop() *zap.SugaredLogger { return zap.NewNop().Sugar() }
