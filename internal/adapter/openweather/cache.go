package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/gear-smarts-service/internal/domain"
	"github.com/couchcryptid/gear-smarts-service/internal/observability"
)

const (
	endpointCurrent    = "current"
	endpointHistorical = "historical"
)

// Cache stores raw payloads by key. Implemented by the bbolt store.
type Cache interface {
	GetCached(ctx context.Context, key string) ([]byte, bool, error)
	PutCached(ctx context.Context, key string, value []byte) error
}

// CachedProvider wraps a WeatherProvider with a persistent cache. Current
// conditions expire after ttl. Historical ranges that have fully elapsed never
// expire; a range still in progress expires like current conditions.
type CachedProvider struct {
	inner   domain.WeatherProvider
	cache   Cache
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewCachedProvider creates a cache decorator around a weather provider.
func NewCachedProvider(inner domain.WeatherProvider, cache Cache, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		cache:   cache,
		ttl:     ttl,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

type cacheEntry struct {
	Body      json.RawMessage `json:"body"`
	FetchedAt time.Time       `json:"fetched_at"`
	Permanent bool            `json:"permanent"`
}

func (c *CachedProvider) Current(ctx context.Context, location string) (json.RawMessage, error) {
	key := "current:" + location
	return c.fetch(ctx, key, endpointCurrent, false, func() (json.RawMessage, error) {
		return c.inner.Current(ctx, location)
	})
}

func (c *CachedProvider) Historical(ctx context.Context, location string, start, end time.Time) (json.RawMessage, error) {
	key := fmt.Sprintf("history:%s|%d|%d", location, start.Unix(), end.Unix())
	final := !end.After(c.clock.Now())
	return c.fetch(ctx, key, endpointHistorical, final, func() (json.RawMessage, error) {
		return c.inner.Historical(ctx, location, start, end)
	})
}

func (c *CachedProvider) fetch(ctx context.Context, key, endpoint string, permanent bool, load func() (json.RawMessage, error)) (json.RawMessage, error) {
	if body, ok := c.lookup(ctx, key, endpoint); ok {
		return body, nil
	}

	body, err := load()
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(cacheEntry{Body: body, FetchedAt: c.clock.Now(), Permanent: permanent})
	if err == nil {
		err = c.cache.PutCached(ctx, key, data)
	}
	if err != nil {
		c.logger.Warn("weather cache write failed", "key", key, "error", err)
	}
	return body, nil
}

func (c *CachedProvider) lookup(ctx context.Context, key, endpoint string) (json.RawMessage, bool) {
	data, ok, err := c.cache.GetCached(ctx, key)
	if err != nil {
		c.logger.Warn("weather cache read failed", "key", key, "error", err)
		c.metrics.WeatherCache.WithLabelValues(endpoint, "miss").Inc()
		return nil, false
	}
	if !ok {
		c.metrics.WeatherCache.WithLabelValues(endpoint, "miss").Inc()
		return nil, false
	}

	var e cacheEntry
	if err := json.Unmarshal(data, &e); err != nil {
		c.logger.Warn("weather cache entry corrupt", "key", key, "error", err)
		c.metrics.WeatherCache.WithLabelValues(endpoint, "miss").Inc()
		return nil, false
	}
	if !e.Permanent && c.clock.Since(e.FetchedAt) >= c.ttl {
		c.metrics.WeatherCache.WithLabelValues(endpoint, "expired").Inc()
		return nil, false
	}

	c.metrics.WeatherCache.WithLabelValues(endpoint, "hit").Inc()
	return e.Body, true
}
