package handlers

import (
	"net/http"
	"time"
)

// HealthHandler responds with service liveness information.
type HealthHandler struct {
	NowFunc func() time.Time
}

type healthResponse struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Handle implements GET /api/health.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	now := time.Now
	if h.NowFunc != nil {
		now = h.NowFunc
	}
	respondJSON(r.Context(), w, http.StatusOK, healthResponse{
		Message:   "Backend is running",
		Timestamp: now().UTC(),
	})
}
