package movies

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/popcornpicks/backend/internal/config"
	"github.com/popcornpicks/backend/internal/metrics"
)

func newTMDBServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func tmdbConfig(baseURL string) config.TMDBConfig {
	return config.TMDBConfig{
		APIKey:       "tmdb-key",
		BaseURL:      baseURL,
		ImageBaseURL: "https://image.tmdb.org/t/p/w500",
		Timeout:      time.Second,
	}
}

func TestTMDBProviderLookup(t *testing.T) {
	srv := newTMDBServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/movie", r.URL.Path)
		assert.Equal(t, "tmdb-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "Spirited Away", r.URL.Query().Get("query"))
		assert.Equal(t, "2001", r.URL.Query().Get("year"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[
			{"id":129,"title":"Spirited Away","overview":"A girl wanders into a world of spirits.","poster_path":"/39wmItIWsg5sZMyRUHLkWBcuVCM.jpg","vote_average":8.5},
			{"id":999,"title":"Other","poster_path":"/other.jpg","vote_average":5}
		]}`))
	})

	provider := NewTMDBProvider(tmdbConfig(srv.URL), DefaultBreakerSettings, nil)
	metadata, err := provider.Lookup(context.Background(), "Spirited Away", 2001)
	require.NoError(t, err)

	require.NotNil(t, metadata.PosterURL)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/39wmItIWsg5sZMyRUHLkWBcuVCM.jpg", *metadata.PosterURL)
	assert.Equal(t, 129, *metadata.TMDBID)
	assert.Equal(t, 8.5, *metadata.TMDBRating)
	assert.Equal(t, "A girl wanders into a world of spirits.", *metadata.Overview)
}

func TestTMDBProviderOmitsZeroYear(t *testing.T) {
	srv := newTMDBServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, present := r.URL.Query()["year"]
		assert.False(t, present)
		_, _ = w.Write([]byte(`{"results":[]}`))
	})

	provider := NewTMDBProvider(tmdbConfig(srv.URL), DefaultBreakerSettings, nil)
	_, err := provider.Lookup(context.Background(), "Untitled", 0)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestTMDBProviderNoUsableMatch(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no results", `{"results":[]}`},
		{"first result without poster", `{"results":[{"id":1,"title":"X","poster_path":null},{"id":2,"poster_path":"/y.jpg"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTMDBServer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			provider := NewTMDBProvider(tmdbConfig(srv.URL), DefaultBreakerSettings, nil)

			_, err := provider.Lookup(context.Background(), "X", 2000)
			assert.ErrorIs(t, err, ErrNoMatch)
		})
	}
}

func TestTMDBProviderErrors(t *testing.T) {
	srv := newTMDBServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"status_message":"Invalid API key"}`))
	})

	provider := NewTMDBProvider(tmdbConfig(srv.URL), DefaultBreakerSettings, nil)
	_, err := provider.Lookup(context.Background(), "Heat", 1995)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoMatch))

	unconfigured := NewTMDBProvider(config.TMDBConfig{BaseURL: srv.URL}, DefaultBreakerSettings, nil)
	_, err = unconfigured.Lookup(context.Background(), "Heat", 1995)
	assert.ErrorIs(t, err, ErrProviderUnavailable)

	_, err = provider.Lookup(context.Background(), "   ", 1995)
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestTMDBProviderCircuitBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := newTMDBServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	m := metrics.New()
	provider := NewTMDBProvider(tmdbConfig(srv.URL), BreakerSettings{ConsecutiveFailures: 3, OpenTimeout: time.Minute}, m)

	for i := 0; i < 3; i++ {
		_, err := provider.Lookup(context.Background(), "Heat", 1995)
		require.Error(t, err)
	}
	_, err := provider.Lookup(context.Background(), "Heat", 1995)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(3), hits.Load(), "open circuit must not reach TMDB")
}

func TestTMDBProviderCallerCancellationDoesNotTrip(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := newTMDBServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("query") == "Slow" {
			select {
			case <-r.Context().Done():
			case <-release:
			}
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"id":949,"title":"Heat","poster_path":"/heat.jpg","vote_average":8.3}]}`))
	})
	defer close(release)

	provider := NewTMDBProvider(tmdbConfig(srv.URL), BreakerSettings{ConsecutiveFailures: 2, OpenTimeout: time.Minute}, nil)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 5; i++ {
		_, err := provider.Lookup(cancelled, "Heat", 1995)
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, int32(0), hits.Load(), "cancelled lookups must not reach TMDB")

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		_, err := provider.Lookup(ctx, "Slow", 1995)
		cancel()
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	}

	metadata, err := provider.Lookup(context.Background(), "Heat", 1995)
	require.NoError(t, err, "abandoned lookups must not open the circuit")
	require.NotNil(t, metadata.TMDBID)
	assert.Equal(t, int32(4), hits.Load())
}

func TestTMDBProviderNoMatchDoesNotTrip(t *testing.T) {
	var hits atomic.Int32
	srv := newTMDBServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"results":[]}`))
	})

	provider := NewTMDBProvider(tmdbConfig(srv.URL), BreakerSettings{ConsecutiveFailures: 2, OpenTimeout: time.Minute}, nil)
	for i := 0; i < 5; i++ {
		_, err := provider.Lookup(context.Background(), "Nothing", 2000)
		assert.ErrorIs(t, err, ErrNoMatch)
	}
	assert.Equal(t, int32(5), hits.Load())
}
