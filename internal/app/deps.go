package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/popcornpicks/backend/internal/archive"
	"github.com/popcornpicks/backend/internal/auth"
	"github.com/popcornpicks/backend/internal/config"
	"github.com/popcornpicks/backend/internal/db"
	"github.com/popcornpicks/backend/internal/handlers"
	"github.com/popcornpicks/backend/internal/llm"
	"github.com/popcornpicks/backend/internal/metrics"
	"github.com/popcornpicks/backend/internal/middleware"
	"github.com/popcornpicks/backend/internal/movies"
	"github.com/popcornpicks/backend/internal/recommend"
	"github.com/popcornpicks/backend/internal/repositories"
	"github.com/popcornpicks/backend/internal/storage"
)

type cleanupFunc func(ctx context.Context) error

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, cleanupFunc, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var cleanups []cleanupFunc

	m := metrics.New()

	users := repositories.NewPostgresUserRepository(pool)
	credentials := auth.NewCredentials(users, cfg.BcryptCost)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)

	var completer llm.Completer
	if client, err := llm.NewAnthropicClient(cfg.LLM); err != nil {
		if !errors.Is(err, llm.ErrNotConfigured) {
			return handlers.Dependencies{}, nil, fmt.Errorf("configure llm client: %w", err)
		}
		logger.Warn("LLM_API_KEY not set; recommendations will fail")
	} else {
		completer = client
	}

	recommendOpts := recommend.Options{
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Metrics:     m,
	}
	if cfg.ObjectStore.Bucket != "" {
		store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, nil, fmt.Errorf("configure archive storage: %w", err)
		}
		outputArchive := archive.New(store, archive.Config{}, logger.With("component", "archive"))
		recommendOpts.Archive = outputArchive
		cleanups = append(cleanups, outputArchive.Shutdown)
	}
	recommender := recommend.NewRequester(completer, recommendOpts)

	if cfg.TMDB.APIKey == "" {
		logger.Warn("TMDB_API_KEY not set; recommendations will carry no metadata")
	}
	tmdb := movies.NewTMDBProvider(cfg.TMDB, movies.DefaultBreakerSettings, m)

	var cache movies.Cache
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable; metadata cache lookups will fall through", "addr", cfg.Redis.Addr, "error", err)
		}
		cancel()
		cache = movies.NewRedisCache(client, cfg.MetadataCacheTTL)
		cleanups = append(cleanups, func(context.Context) error { return client.Close() })
	} else {
		cache = movies.NewMemoryCache(cfg.MetadataCacheTTL)
	}
	enricher := movies.NewEnricher(movies.NewCachingProvider(tmdb, cache), m)

	deps := handlers.Dependencies{
		Credentials: credentials,
		Tokens:      tokens,
		Recommender: recommender,
		Enricher:    enricher,
		Watchlist:   repositories.NewPostgresWatchlistRepository(pool),
		RateLimiter: middleware.NewIPRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Burst, 10*time.Minute),
		Metrics:     m,
		CORSOrigins: cfg.CORSAllowedOrigins,
	}

	cleanup := func(ctx context.Context) error {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i](ctx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	return deps, cleanup, nil
}
