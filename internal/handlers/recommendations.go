package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/popcornpicks/backend/internal/logging"
	"github.com/popcornpicks/backend/internal/models"
	"github.com/popcornpicks/backend/internal/recommend"
)

// RecommendationHandler turns free text into enriched movie recommendations.
type RecommendationHandler struct {
	Recommender Recommender
	Enricher    Enricher
}

type recommendationRequest struct {
	UserInput string `json:"userInput"`
}

type recommendationResponse struct {
	Success   bool                            `json:"success"`
	Movies    []models.EnrichedRecommendation `json:"movies"`
	UserInput string                          `json:"userInput"`
}

// Create handles POST /api/recommendations.
func (h RecommendationHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req recommendationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid recommendation payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	if strings.TrimSpace(req.UserInput) == "" {
		respondError(ctx, w, http.StatusBadRequest, "User input is required")
		return
	}

	if h.Recommender == nil {
		logger.Error("recommendation service unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "Failed to get movie recommendations")
		return
	}

	recs, err := h.Recommender.GetRecommendations(ctx, req.UserInput)
	if err != nil {
		switch {
		case errors.Is(err, recommend.ErrInvalidInput):
			respondError(ctx, w, http.StatusBadRequest, "User input is required")
		case errors.Is(err, recommend.ErrMalformedOutput):
			logger.Error("model output could not be parsed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "Failed to parse AI response")
		default:
			logger.Error("recommendation request failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "Failed to get movie recommendations")
		}
		return
	}

	var movies []models.EnrichedRecommendation
	if h.Enricher != nil {
		movies = h.Enricher.Enrich(ctx, recs)
	} else {
		movies = make([]models.EnrichedRecommendation, len(recs))
		for i, rec := range recs {
			movies[i] = models.EnrichedRecommendation{Recommendation: rec}
		}
	}

	respondJSON(ctx, w, http.StatusOK, recommendationResponse{
		Success:   true,
		Movies:    movies,
		UserInput: req.UserInput,
	})
}
