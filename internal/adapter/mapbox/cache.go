package mapbox

import (
	"context"
	"strings"

	"github.com/couchcryptid/denuncia-map-service/internal/cache"
	"github.com/couchcryptid/denuncia-map-service/internal/domain"
	"github.com/couchcryptid/denuncia-map-service/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache. Neighborhood
// names repeat across many reports, so most lookups after the first load hit.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *cache.LRU[domain.GeocodingResult]
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   cache.New[domain.GeocodingResult](maxEntries, nil),
		metrics: metrics,
	}
}

func (c *CachedGeocoder) ForwardGeocode(ctx context.Context, name, region string) (domain.GeocodingResult, error) {
	key := "fwd:" + domain.FoldHeader(name) + "|" + strings.ToLower(strings.TrimSpace(region))
	if result, ok := c.cache.Get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result, err := c.inner.ForwardGeocode(ctx, name, region)
	if err != nil {
		return result, err
	}
	// Only cache non-empty results so transient "not found" responses can be retried.
	if result.FormattedAddress != "" {
		c.cache.Put(key, result, 0)
	}
	return result, nil
}
