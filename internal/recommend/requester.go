package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/popcornpicks/backend/internal/archive"
	"github.com/popcornpicks/backend/internal/llm"
	"github.com/popcornpicks/backend/internal/logging"
	"github.com/popcornpicks/backend/internal/metrics"
	"github.com/popcornpicks/backend/internal/models"
)

// OutputArchiver receives model answers that failed to parse.
type OutputArchiver interface {
	Enqueue(ctx context.Context, rec archive.Record) error
}

// Options tunes the model call made by a Requester.
type Options struct {
	Temperature float64
	MaxTokens   int
	Archive     OutputArchiver
	Metrics     *metrics.Metrics
}

// Requester turns free text into movie recommendations using a chat model.
type Requester struct {
	completer   llm.Completer
	temperature float64
	maxTokens   int
	archive     OutputArchiver
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewRequester constructs a Requester backed by the supplied completer.
func NewRequester(completer llm.Completer, opts Options) *Requester {
	return &Requester{
		completer:   completer,
		temperature: opts.Temperature,
		maxTokens:   opts.MaxTokens,
		archive:     opts.Archive,
		metrics:     opts.Metrics,
		now:         time.Now,
	}
}

// GetRecommendations asks the model for RecommendationCount movies matching userInput.
func (r *Requester) GetRecommendations(ctx context.Context, userInput string) ([]models.Recommendation, error) {
	if strings.TrimSpace(userInput) == "" {
		return nil, ErrInvalidInput
	}
	if r == nil || r.completer == nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, llm.ErrNotConfigured)
	}

	ctx, span := logging.StartSpan(ctx, "recommend.llm")
	defer span.End()
	logger := logging.FromContext(ctx)

	start := r.now()
	raw, err := r.completer.Complete(ctx, llm.CompletionRequest{
		System:      SystemPrompt,
		Prompt:      BuildPrompt(userInput),
		Temperature: r.temperature,
		MaxTokens:   r.maxTokens,
	})
	elapsed := time.Since(start)
	if err != nil {
		r.metrics.ObserveLLM(metrics.LLMError, elapsed)
		span.Fail(err)
		if errors.Is(err, llm.ErrEmptyCompletion) {
			r.archiveFailure(ctx, userInput, raw, err)
			return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	recs, err := ParseRecommendations(raw)
	if err != nil {
		r.metrics.ObserveLLM(metrics.LLMMalformed, elapsed)
		span.Fail(err)
		logger.Error("parse model output", "error", err, "outputBytes", len(raw))
		r.archiveFailure(ctx, userInput, raw, err)
		return nil, err
	}
	r.metrics.ObserveLLM(metrics.LLMSuccess, elapsed)
	span.Set("recommendations", len(recs))

	if len(recs) < RecommendationCount {
		logger.Warn("model returned fewer recommendations than requested", "requested", RecommendationCount, "received", len(recs))
	}
	return recs, nil
}

func (r *Requester) archiveFailure(ctx context.Context, userInput, raw string, cause error) {
	if r.archive == nil {
		return
	}
	rec := archive.Record{
		ID:         uuid.NewString(),
		UserInput:  userInput,
		RawOutput:  raw,
		ParseError: cause.Error(),
		CreatedAt:  r.now().UTC(),
	}
	if err := r.archive.Enqueue(ctx, rec); err != nil {
		logging.FromContext(ctx).Warn("archive model output", "error", err, "recordId", rec.ID)
	}
}
