package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/popcornpicks/backend/internal/auth"
	"github.com/popcornpicks/backend/internal/logging"
	"github.com/popcornpicks/backend/internal/models"
	"github.com/popcornpicks/backend/internal/repositories"
)

// WatchlistHandler manages the authenticated user's saved movies.
type WatchlistHandler struct {
	Watchlist WatchlistStore
}

// movieID accepts either a JSON string or a JSON number, since clients send
// TMDB ids as numbers and synthesized ids as strings.
type movieID string

func (m *movieID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = movieID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*m = movieID(n.String())
	return nil
}

type addWatchlistRequest struct {
	MovieID     movieID `json:"movie_id"`
	MovieTitle  string  `json:"movie_title"`
	MoviePoster *string `json:"movie_poster"`
}

type addWatchlistResponse struct {
	Message       string                `json:"message"`
	WatchlistItem models.WatchlistEntry `json:"watchlistItem"`
}

type listWatchlistResponse struct {
	Watchlist []models.WatchlistEntry `json:"watchlist"`
}

type removeWatchlistResponse struct {
	Message     string                `json:"message"`
	RemovedItem models.WatchlistEntry `json:"removedItem"`
}

type checkWatchlistResponse struct {
	InWatchlist bool `json:"inWatchlist"`
}

// Add handles POST /api/watchlist.
func (h WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	claims, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req addWatchlistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.Warn("invalid watchlist payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	id := strings.TrimSpace(string(req.MovieID))
	title := strings.TrimSpace(req.MovieTitle)
	if id == "" || title == "" {
		respondError(ctx, w, http.StatusBadRequest, "Movie ID and title are required")
		return
	}

	poster := req.MoviePoster
	if poster != nil && strings.TrimSpace(*poster) == "" {
		poster = nil
	}

	entry, err := h.Watchlist.Add(ctx, models.WatchlistEntry{
		UserID:      claims.UserID,
		MovieID:     id,
		MovieTitle:  title,
		MoviePoster: poster,
	})
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrConflict):
			respondError(ctx, w, http.StatusBadRequest, "Movie already in watchlist")
		case errors.Is(err, repositories.ErrInvalidInput):
			respondError(ctx, w, http.StatusBadRequest, "Movie ID and title are required")
		case errors.Is(err, repositories.ErrNotFound):
			logger.Warn("watchlist add for unknown user", "userId", claims.UserID)
			respondError(ctx, w, http.StatusNotFound, "User not found")
		default:
			logger.Error("add watchlist entry failed", "error", err, "movieId", id)
			respondError(ctx, w, http.StatusInternalServerError, msgInternalError)
		}
		return
	}

	respondJSON(ctx, w, http.StatusCreated, addWatchlistResponse{
		Message:       "Movie added to watchlist",
		WatchlistItem: entry,
	})
}

// List handles GET /api/watchlist.
func (h WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := h.authorize(w, r)
	if !ok {
		return
	}

	entries, err := h.Watchlist.List(ctx, claims.UserID)
	if err != nil {
		logging.FromContext(ctx).Error("list watchlist failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, msgInternalError)
		return
	}
	if entries == nil {
		entries = []models.WatchlistEntry{}
	}

	respondJSON(ctx, w, http.StatusOK, listWatchlistResponse{Watchlist: entries})
}

// Remove handles DELETE /api/watchlist/{movieId}.
func (h WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := h.authorize(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "movieId")
	entry, err := h.Watchlist.Remove(ctx, claims.UserID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "Movie not found in watchlist")
			return
		}
		logging.FromContext(ctx).Error("remove watchlist entry failed", "error", err, "movieId", id)
		respondError(ctx, w, http.StatusInternalServerError, msgInternalError)
		return
	}

	respondJSON(ctx, w, http.StatusOK, removeWatchlistResponse{
		Message:     "Movie removed from watchlist",
		RemovedItem: entry,
	})
}

// Check handles GET /api/watchlist/check/{movieId}.
func (h WatchlistHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, ok := h.authorize(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "movieId")
	exists, err := h.Watchlist.Exists(ctx, claims.UserID, id)
	if err != nil {
		logging.FromContext(ctx).Error("check watchlist failed", "error", err, "movieId", id)
		respondError(ctx, w, http.StatusInternalServerError, msgInternalError)
		return
	}

	respondJSON(ctx, w, http.StatusOK, checkWatchlistResponse{InWatchlist: exists})
}

func (h WatchlistHandler) authorize(w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	ctx := r.Context()
	if h.Watchlist == nil {
		logging.FromContext(ctx).Error("watchlist store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, msgInternalError)
		return nil, false
	}
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok || claims.UserID == "" {
		respondError(ctx, w, http.StatusUnauthorized, "Access token required")
		return nil, false
	}
	return claims, true
}
