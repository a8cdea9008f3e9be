package movies

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/popcornpicks/backend/internal/logging"
	"github.com/popcornpicks/backend/internal/metrics"
	"github.com/popcornpicks/backend/internal/models"
)

// Enricher attaches movie metadata to recommendations.
type Enricher struct {
	provider Provider
	metrics  *metrics.Metrics
}

// NewEnricher constructs an Enricher. A nil provider yields null metadata for every item.
func NewEnricher(provider Provider, m *metrics.Metrics) *Enricher {
	return &Enricher{provider: provider, metrics: m}
}

// Enrich looks every recommendation up concurrently and returns them in the
// same order. A failed lookup leaves that item's metadata null.
func (e *Enricher) Enrich(ctx context.Context, recs []models.Recommendation) []models.EnrichedRecommendation {
	out := make([]models.EnrichedRecommendation, len(recs))
	if len(recs) == 0 {
		return out
	}

	ctx, span := logging.StartSpan(ctx, "movies.enrich")
	defer span.End()
	span.Set("items", len(recs))

	var wg sync.WaitGroup
	wg.Add(len(recs))
	for i := range recs {
		go func(i int) {
			defer wg.Done()
			out[i] = models.EnrichedRecommendation{
				Recommendation: recs[i],
				MovieMetadata:  e.lookup(ctx, recs[i]),
			}
		}(i)
	}
	wg.Wait()

	return out
}

func (e *Enricher) lookup(ctx context.Context, rec models.Recommendation) (metadata models.MovieMetadata) {
	logger := logging.FromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("metadata lookup panicked", "title", rec.Title, "panic", fmt.Sprint(r))
			e.metrics.RecordEnrichment(metrics.EnrichmentError)
			metadata = models.MovieMetadata{}
		}
	}()

	if e.provider == nil {
		e.metrics.RecordEnrichment(metrics.EnrichmentError)
		return models.MovieMetadata{}
	}

	result, err := e.provider.Lookup(ctx, rec.Title, rec.Year)
	switch {
	case err == nil:
		e.metrics.RecordEnrichment(metrics.EnrichmentMatched)
		return result
	case errors.Is(err, ErrNoMatch):
		e.metrics.RecordEnrichment(metrics.EnrichmentNoMatch)
	default:
		logger.Warn("metadata lookup failed", "title", rec.Title, "year", rec.Year, "error", err)
		e.metrics.RecordEnrichment(metrics.EnrichmentError)
	}
	return models.MovieMetadata{}
}
