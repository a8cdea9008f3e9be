package movies

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/popcornpicks/backend/internal/logging"
	"github.com/popcornpicks/backend/internal/models"
)

const defaultCacheTTL = time.Hour

// Cache stores successful metadata lookups.
type Cache interface {
	Get(ctx context.Context, key string) (models.MovieMetadata, bool, error)
	Set(ctx context.Context, key string, metadata models.MovieMetadata) error
}

// CacheKey normalizes a title and year into a cache key.
func CacheKey(title string, year int) string {
	return "tmdb:search:" + strings.ToLower(strings.TrimSpace(title)) + ":" + strconv.Itoa(year)
}

// CachingProvider wraps another Provider with a Cache. Cache failures are
// logged and the lookup falls through to the wrapped provider.
type CachingProvider struct {
	base  Provider
	cache Cache
}

// NewCachingProvider returns a Provider that consults cache before base.
func NewCachingProvider(base Provider, cache Cache) *CachingProvider {
	return &CachingProvider{base: base, cache: cache}
}

// Lookup returns cached metadata when available, otherwise it delegates to the
// underlying provider and stores a successful result.
func (c *CachingProvider) Lookup(ctx context.Context, title string, year int) (models.MovieMetadata, error) {
	if c == nil || c.base == nil {
		return models.MovieMetadata{}, ErrProviderUnavailable
	}
	if c.cache == nil {
		return c.base.Lookup(ctx, title, year)
	}

	logger := logging.FromContext(ctx)
	key := CacheKey(title, year)

	metadata, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		logger.Warn("metadata cache read failed", "key", key, "error", err)
	} else if ok {
		return metadata, nil
	}

	metadata, err = c.base.Lookup(ctx, title, year)
	if err != nil {
		return models.MovieMetadata{}, err
	}

	if err := c.cache.Set(ctx, key, metadata); err != nil {
		logger.Warn("metadata cache write failed", "key", key, "error", err)
	}
	return metadata, nil
}

type cacheEntry struct {
	metadata models.MovieMetadata
	expires  time.Time
}

// MemoryCache is a TTL-based in-process Cache.
type MemoryCache struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewMemoryCache returns a cache whose entries live for ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &MemoryCache{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]cacheEntry),
	}
}

// Get returns an unexpired entry.
func (c *MemoryCache) Get(_ context.Context, key string) (models.MovieMetadata, bool, error) {
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return models.MovieMetadata{}, false, nil
	}
	if !c.now().Before(entry.expires) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return models.MovieMetadata{}, false, nil
	}
	return entry.metadata, true, nil
}

// Set stores metadata until the TTL elapses.
func (c *MemoryCache) Set(_ context.Context, key string, metadata models.MovieMetadata) error {
	c.mu.Lock()
	c.items[key] = cacheEntry{metadata: metadata, expires: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

// RedisCache stores lookups as JSON values with a TTL.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisCache wraps a go-redis client.
func NewRedisCache(client redis.Cmdable, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Get reads and decodes a cached entry.
func (c *RedisCache) Get(ctx context.Context, key string) (models.MovieMetadata, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.MovieMetadata{}, false, nil
	}
	if err != nil {
		return models.MovieMetadata{}, false, fmt.Errorf("redis get: %w", err)
	}

	var metadata models.MovieMetadata
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return models.MovieMetadata{}, false, fmt.Errorf("decode cached metadata: %w", err)
	}
	return metadata, true, nil
}

// Set encodes and stores metadata.
func (c *RedisCache) Set(ctx context.Context, key string, metadata models.MovieMetadata) error {
	payload, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
