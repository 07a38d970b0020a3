package source

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/denuncia-map-service/internal/cache"
	"github.com/couchcryptid/denuncia-map-service/internal/domain"
	"github.com/couchcryptid/denuncia-map-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// PayloadStore keeps fetched payloads for a bounded time.
type PayloadStore interface {
	Get(ctx context.Context, key string) (domain.Payload, bool, error)
	Put(ctx context.Context, key string, p domain.Payload, ttl time.Duration) error
}

// MemoryStore is an in-process PayloadStore backed by a TTL LRU.
type MemoryStore struct {
	lru *cache.LRU[domain.Payload]
}

// NewMemoryStore creates a MemoryStore holding at most maxEntries payloads.
func NewMemoryStore(maxEntries int, clock clockwork.Clock) *MemoryStore {
	return &MemoryStore{lru: cache.New[domain.Payload](maxEntries, clock)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (domain.Payload, bool, error) {
	p, ok := m.lru.Get(key)
	return p, ok, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, p domain.Payload, ttl time.Duration) error {
	m.lru.Put(key, p, ttl)
	return nil
}

// CachedFetcher reuses a successful fetch of the same location for ttl.
// Failed fetches are never cached. Store errors degrade to a plain fetch.
type CachedFetcher struct {
	inner   Fetcher
	store   PayloadStore
	ttl     time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCachedFetcher creates a cache decorator around a fetcher.
func NewCachedFetcher(inner Fetcher, store PayloadStore, ttl time.Duration, logger *slog.Logger, metrics *observability.Metrics) *CachedFetcher {
	return &CachedFetcher{inner: inner, store: store, ttl: ttl, logger: logger, metrics: metrics}
}

func (c *CachedFetcher) Fetch(ctx context.Context, location string) (domain.Payload, error) {
	p, ok, err := c.store.Get(ctx, cacheKey(location))
	if err != nil {
		c.logger.Warn("source cache lookup failed", "source", location, "error", err)
	}
	if ok {
		c.metrics.SourceCache.WithLabelValues("hit").Inc()
		c.logger.Debug("source cache hit", "source", location, "fetched_at", p.FetchedAt)
		return p, nil
	}
	c.metrics.SourceCache.WithLabelValues("miss").Inc()
	return c.fetchAndStore(ctx, location)
}

// Refresh always fetches and replaces the cached payload on success.
func (c *CachedFetcher) Refresh(ctx context.Context, location string) (domain.Payload, error) {
	c.metrics.SourceCache.WithLabelValues("refresh").Inc()
	return c.fetchAndStore(ctx, location)
}

func (c *CachedFetcher) fetchAndStore(ctx context.Context, location string) (domain.Payload, error) {
	p, err := c.inner.Fetch(ctx, location)
	if err != nil {
		return p, err
	}
	if err := c.store.Put(ctx, cacheKey(location), p, c.ttl); err != nil {
		c.logger.Warn("source cache store failed", "source", location, "error", err)
	}
	return p, nil
}

func cacheKey(location string) string {
	return "source:" + location
}
