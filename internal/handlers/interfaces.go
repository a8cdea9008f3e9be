package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/popcornpicks/backend/internal/models"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("empty request body")

// CredentialService registers users and checks their passwords.
type CredentialService interface {
	Register(ctx context.Context, username, password string) (models.User, error)
	Verify(ctx context.Context, username, password string) (models.User, error)
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	Issue(user models.User) (string, time.Time, error)
}

// Recommender produces movie recommendations from free text.
type Recommender interface {
	GetRecommendations(ctx context.Context, userInput string) ([]models.Recommendation, error)
}

// Enricher attaches movie metadata to recommendations.
type Enricher interface {
	Enrich(ctx context.Context, recs []models.Recommendation) []models.EnrichedRecommendation
}

// WatchlistStore captures persistence for a user's saved movies.
type WatchlistStore interface {
	Add(ctx context.Context, entry models.WatchlistEntry) (models.WatchlistEntry, error)
	List(ctx context.Context, userID string) ([]models.WatchlistEntry, error)
	Remove(ctx context.Context, userID, movieID string) (models.WatchlistEntry, error)
	Exists(ctx context.Context, userID, movieID string) (bool, error)
}
