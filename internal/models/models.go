package models

import "time"

// User represents an account within the PopcornPicks platform.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// PublicUser is the user shape returned to API clients.
type PublicUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Public strips credential material from the user record.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}
}

// WatchlistEntry is a movie saved by a user. MovieID is either a TMDB id or a
// client-synthesized "title-year" key.
type WatchlistEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	MovieID     string    `json:"movie_id"`
	MovieTitle  string    `json:"movie_title"`
	MoviePoster *string   `json:"movie_poster"`
	CreatedAt   time.Time `json:"created_at"`
}

// Recommendation is a single model-generated movie suggestion.
type Recommendation struct {
	Title               string `json:"title"`
	Year                int    `json:"year"`
	Genre               string `json:"genre"`
	Reason              string `json:"reason"`
	Rating              string `json:"rating"`
	MatchPercentage     int    `json:"match_percentage"`
	DetailedExplanation string `json:"detailed_explanation"`
}

// MovieMetadata holds movie database details attached to a recommendation.
// Every field is nil when the lookup failed or found nothing usable.
type MovieMetadata struct {
	PosterURL  *string  `json:"poster_url"`
	TMDBID     *int     `json:"tmdb_id"`
	TMDBRating *float64 `json:"tmdb_rating"`
	Overview   *string  `json:"overview"`
}

// EnrichedRecommendation is the response shape of a recommendation after enrichment.
type EnrichedRecommendation struct {
	Recommendation
	MovieMetadata
}
