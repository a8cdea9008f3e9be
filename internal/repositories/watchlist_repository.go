package repositories

import (
	"context"

	"github.com/popcornpicks/backend/internal/models"
)

// WatchlistRepository defines data access for a user's saved movies. Every
// operation is scoped to the owning user.
type WatchlistRepository interface {
	Add(ctx context.Context, entry models.WatchlistEntry) (models.WatchlistEntry, error)
	List(ctx context.Context, userID string) ([]models.WatchlistEntry, error)
	Remove(ctx context.Context, userID, movieID string) (models.WatchlistEntry, error)
	Exists(ctx context.Context, userID, movieID string) (bool, error)
}
