package movies

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/popcornpicks/backend/internal/config"
	"github.com/popcornpicks/backend/internal/logging"
	"github.com/popcornpicks/backend/internal/metrics"
	"github.com/popcornpicks/backend/internal/models"
)

const breakerName = "tmdb"

// errCallerGone marks a search abandoned because the caller's context ended.
var errCallerGone = errors.New("lookup abandoned by caller")

// BreakerSettings controls when the TMDB circuit opens and how long it stays open.
type BreakerSettings struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// DefaultBreakerSettings trips after five straight failures and probes again after 30s.
var DefaultBreakerSettings = BreakerSettings{ConsecutiveFailures: 5, OpenTimeout: 30 * time.Second}

// TMDBProvider looks movies up through the TMDB search API.
type TMDBProvider struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	http         *http.Client
	breaker      *gobreaker.CircuitBreaker[models.MovieMetadata]
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

type searchResult struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
}

// NewTMDBProvider configures a provider with its own HTTP client and circuit breaker.
func NewTMDBProvider(cfg config.TMDBConfig, settings BreakerSettings, m *metrics.Metrics) *TMDBProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = DefaultBreakerSettings.ConsecutiveFailures
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = DefaultBreakerSettings.OpenTimeout
	}

	m.SetBreakerState(breakerName, int(gobreaker.StateClosed))

	breaker := gobreaker.NewCircuitBreaker[models.MovieMetadata](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     settings.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
		},
		// Empty results and abandoned calls do not count against TMDB.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoMatch) || errors.Is(err, errCallerGone)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			m.SetBreakerState(name, int(to))
		},
	})

	return &TMDBProvider{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		imageBaseURL: cfg.ImageBaseURL,
		http:         &http.Client{Timeout: timeout},
		breaker:      breaker,
	}
}

// Lookup searches TMDB and maps the first result that carries a poster.
func (p *TMDBProvider) Lookup(ctx context.Context, title string, year int) (models.MovieMetadata, error) {
	if p == nil || strings.TrimSpace(p.apiKey) == "" {
		return models.MovieMetadata{}, ErrProviderUnavailable
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return models.MovieMetadata{}, ErrNoMatch
	}

	if err := ctx.Err(); err != nil {
		return models.MovieMetadata{}, err
	}

	return p.breaker.Execute(func() (models.MovieMetadata, error) {
		metadata, err := p.search(ctx, title, year)
		if err != nil && ctx.Err() != nil {
			return metadata, fmt.Errorf("%w: %w", errCallerGone, ctx.Err())
		}
		return metadata, err
	})
}

func (p *TMDBProvider) search(ctx context.Context, title string, year int) (models.MovieMetadata, error) {
	query := url.Values{}
	query.Set("api_key", p.apiKey)
	query.Set("query", title)
	if year > 0 {
		query.Set("year", strconv.Itoa(year))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/search/movie?"+query.Encode(), nil)
	if err != nil {
		return models.MovieMetadata{}, fmt.Errorf("build tmdb request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	logging.FromContext(ctx).Debug("searching tmdb", "title", title, "year", year)

	resp, err := p.http.Do(req)
	if err != nil {
		return models.MovieMetadata{}, fmt.Errorf("tmdb request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return models.MovieMetadata{}, fmt.Errorf("tmdb returned status %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return models.MovieMetadata{}, fmt.Errorf("decode tmdb search response: %w", err)
	}

	if len(result.Results) == 0 || result.Results[0].PosterPath == "" {
		return models.MovieMetadata{}, ErrNoMatch
	}

	first := result.Results[0]
	poster := p.imageBaseURL + first.PosterPath
	id := first.ID
	rating := first.VoteAverage
	overview := first.Overview

	return models.MovieMetadata{
		PosterURL:  &poster,
		TMDBID:     &id,
		TMDBRating: &rating,
		Overview:   &overview,
	}, nil
}
