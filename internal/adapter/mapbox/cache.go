package mapbox

import (
	"container/list"
	"context"
	"math"
	"sync"

	"github.com/couchcryptid/climate-grid-service/internal/domain"
	"github.com/couchcryptid/climate-grid-service/internal/observability"
)

// cellPrecision snaps coordinates to 1e-4 degrees (about 11 m) so repeated
// clicks on the same grid cell share a cache entry.
const cellPrecision = 1e4

// CachedGeocoder wraps a Geocoder with a bounded LRU cache keyed by
// snapped coordinate.
type CachedGeocoder struct {
	inner   domain.Geocoder
	metrics *observability.Metrics

	mu      sync.Mutex
	max     int
	order   *list.List // front is most recently used
	entries map[cell]*list.Element
}

type cell struct{ lat, lon int64 }

type cached struct {
	key    cell
	result domain.GeocodingResult
}

// NewCachedGeocoder creates a cache decorator holding at most maxEntries results.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &CachedGeocoder{
		inner:   inner,
		metrics: metrics,
		max:     maxEntries,
		order:   list.New(),
		entries: make(map[cell]*list.Element, maxEntries),
	}
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	key := snap(lat, lon)
	if result, ok := c.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	result, err := c.inner.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		return result, err
	}
	// Empty results are not cached so a transient miss can be retried.
	if result.FormattedAddress != "" {
		c.put(key, result)
	}
	return result, nil
}

// Len reports the number of cached results.
func (c *CachedGeocoder) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *CachedGeocoder) get(key cell) (domain.GeocodingResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return domain.GeocodingResult{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cached).result, true
}

func (c *CachedGeocoder) put(key cell, result domain.GeocodingResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cached).result = result
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cached{key: key, result: result})
	for c.order.Len() > c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cached).key)
	}
}

func snap(lat, lon float64) cell {
	return cell{
		lat: int64(math.Round(lat * cellPrecision)),
		lon: int64(math.Round(lon * cellPrecision)),
	}
}
