package logging

import (
	"context"
	"log/slog"
)

type scopeKey struct{}

// scope is the request-scoped logging state. It is copied on every change so
// parent contexts never observe child spans.
type scope struct {
	logger    *slog.Logger
	requestID string
	traceID   string
	spanID    string
}

func scopeFrom(ctx context.Context) scope {
	if ctx == nil {
		return scope{}
	}
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

func withScope(ctx context.Context, s scope) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, scopeKey{}, s)
}

// WithLogger stores the provided logger on the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		return ctx
	}
	s := scopeFrom(ctx)
	s.logger = logger
	return withScope(ctx, s)
}

// FromContext returns the request-scoped logger or falls back to slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger := scopeFrom(ctx).logger; logger != nil {
		return logger
	}
	return slog.Default()
}

// WithRequestID stores a request identifier on the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	s := scopeFrom(ctx)
	s.requestID = requestID
	return withScope(ctx, s)
}

// RequestIDFromContext retrieves a previously stored request identifier.
func RequestIDFromContext(ctx context.Context) string {
	return scopeFrom(ctx).requestID
}

// TraceIDFromContext returns the trace identifier set by the first span, if any.
func TraceIDFromContext(ctx context.Context) string {
	return scopeFrom(ctx).traceID
}

// SpanIDFromContext returns the identifier of the innermost span, if any.
func SpanIDFromContext(ctx context.Context) string {
	return scopeFrom(ctx).spanID
}
