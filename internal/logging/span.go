package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span times one upstream call or processing stage within a request.
type Span struct {
	name   string
	logger *slog.Logger
	start  time.Time
	attrs  []any
	err    error
}

// StartSpan derives a child span from ctx. The returned context carries a logger
// tagged with trace_id, span_id and span_name (plus parent_span_id when nested).
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	s := scopeFrom(ctx)
	logger := FromContext(ctx)

	if s.traceID == "" {
		// Reuse the request id so one trace id covers the whole request.
		s.traceID = s.requestID
		if s.traceID == "" {
			s.traceID = uuid.NewString()
		}
		logger = logger.With("trace_id", s.traceID)
	}

	parent := s.spanID
	s.spanID = uuid.NewString()
	logger = logger.With("span_id", s.spanID, "span_name", name)
	if parent != "" {
		logger = logger.With("parent_span_id", parent)
	}
	s.logger = logger

	return withScope(ctx, s), &Span{name: name, logger: logger, start: time.Now()}
}

// Set attaches a key/value pair to the completion entry.
func (s *Span) Set(key string, value any) {
	if s == nil {
		return
	}
	s.attrs = append(s.attrs, key, value)
}

// Fail marks the span as failed; the completion entry is then logged at warn.
func (s *Span) Fail(err error) {
	if s == nil || err == nil {
		return
	}
	s.err = err
}

// End emits the completion entry with the elapsed duration.
func (s *Span) End() {
	if s == nil {
		return
	}
	args := append([]any{"duration", time.Since(s.start)}, s.attrs...)
	if s.err != nil {
		s.logger.Warn("span failed", append(args, "error", s.err)...)
		return
	}
	s.logger.Debug("span completed", args...)
}
