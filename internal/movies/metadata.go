package movies

import (
	"context"
	"errors"

	"github.com/popcornpicks/backend/internal/models"
)

var (
	// ErrProviderUnavailable indicates the metadata provider is not configured.
	ErrProviderUnavailable = errors.New("movie metadata provider unavailable")
	// ErrNoMatch indicates the search returned nothing usable.
	ErrNoMatch = errors.New("no matching movie")
)

// Provider returns metadata for the movie with the supplied title and release year.
// A zero year searches without a year filter.
type Provider interface {
	Lookup(ctx context.Context, title string, year int) (models.MovieMetadata, error)
}
