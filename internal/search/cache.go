package search

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"sjsage522/pricescout/internal/product"
	"sjsage522/pricescout/logger"
	pkgerrors "sjsage522/pricescout/pkg/errors"
	"sjsage522/pricescout/services/cache"
)

// DefaultCacheTTL is how long a live result stays servable.
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	Data      []product.Product `json:"data"`
	Timestamp time.Time         `json:"timestamp"`
}

// ResultCache stores normalized results per (query, category) on top of a
// CacheService backend. Validity is judged against the entry's own timestamp
// with the injected clock, so every backend expires entries the same way.
type ResultCache struct {
	backend cache.CacheService
	ttl     time.Duration
	now     cache.Clock
	log     *logger.Logger
}

// NewResultCache creates a result cache. A nil backend disables caching and a
// nil clock uses time.Now.
func NewResultCache(backend cache.CacheService, ttl time.Duration, now cache.Clock) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &ResultCache{
		backend: backend,
		ttl:     ttl,
		now:     now,
		log:     logger.ForCache(),
	}
}

// CacheKey normalizes a (query, category) pair into a cache key.
func CacheKey(query, category string) string {
	return strings.ToLower(strings.TrimSpace(query)) + "|" + strings.ToLower(strings.TrimSpace(category))
}

// Get returns the cached products for (query, category) while still fresh.
func (c *ResultCache) Get(query, category string) ([]product.Product, bool) {
	if c == nil || c.backend == nil {
		return nil, false
	}

	key := CacheKey(query, category)
	raw, err := c.backend.Get(key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.log.Warn().Err(err).Str("key", key).Str("error_type", string(pkgerrors.TypeOf(err))).Msg("Cache read failed")
		}
		return nil, false
	}

	var entry cacheEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Discarding unreadable cache entry")
		return nil, false
	}
	if c.now().Sub(entry.Timestamp) >= c.ttl {
		return nil, false
	}
	return entry.Data, true
}

// Set stores products for (query, category). Empty results are not cached.
func (c *ResultCache) Set(query, category string, products []product.Product) {
	if c == nil || c.backend == nil || len(products) == 0 {
		return
	}

	key := CacheKey(query, category)
	raw, err := json.Marshal(cacheEntry{Data: products, Timestamp: c.now()})
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("Failed to encode cache entry")
		return
	}
	if err := c.backend.Set(key, raw, c.ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Str("error_type", string(pkgerrors.TypeOf(err))).Msg("Cache write failed")
	}
}

// TTL returns the configured time-to-live
func (c *ResultCache) TTL() time.Duration {
	return c.ttl
}
