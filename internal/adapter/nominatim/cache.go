package nominatim

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/couchcryptid/safescape-map-service/internal/domain"
	"github.com/couchcryptid/safescape-map-service/internal/observability"
)

// CachedGeocoder wraps a Geocoder with in-memory LRU caches for search and
// reverse lookups.
type CachedGeocoder struct {
	inner    domain.Geocoder
	searches *lruCache[[]domain.Place]
	reverses *lruCache[domain.Place]
	metrics  *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder. Each lookup
// kind keeps up to maxEntries results.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:    inner,
		searches: newLRUCache[[]domain.Place](maxEntries),
		reverses: newLRUCache[domain.Place](maxEntries),
		metrics:  metrics,
	}
}

func (c *CachedGeocoder) Search(ctx context.Context, query string, limit int) ([]domain.Place, error) {
	key := fmt.Sprintf("%s|%d", strings.ToLower(strings.TrimSpace(query)), limit)
	if places, ok := c.searches.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("search", "hit").Inc()
		return clonePlaces(places), nil
	}
	c.metrics.GeocodeCache.WithLabelValues("search", "miss").Inc()

	places, err := c.inner.Search(ctx, query, limit)
	if err != nil {
		return places, err
	}
	// Only cache non-empty results so a transient "not found" can be retried.
	if len(places) > 0 {
		c.searches.put(key, clonePlaces(places))
	}
	return places, nil
}

func (c *CachedGeocoder) Reverse(ctx context.Context, lat, lng float64) (domain.Place, error) {
	key := fmt.Sprintf("%.6f,%.6f", lat, lng)
	if place, ok := c.reverses.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("reverse", "hit").Inc()
		return place, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("reverse", "miss").Inc()

	place, err := c.inner.Reverse(ctx, lat, lng)
	if err != nil {
		return place, err
	}
	if place.Label != "" {
		c.reverses.put(key, place)
	}
	return place, nil
}

func clonePlaces(places []domain.Place) []domain.Place {
	return append([]domain.Place(nil), places...)
}

// lruCache is a simple thread-safe LRU cache.
type lruCache[V any] struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry[V]
	head       *entry[V] // most recently used
	tail       *entry[V] // least recently used
}

type entry[V any] struct {
	key   string
	value V
	prev  *entry[V]
	next  *entry[V]
}

func newLRUCache[V any](maxEntries int) *lruCache[V] {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache[V]{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry[V]),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry[V]{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[V]) moveToFront(e *entry[V]) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache[V]) addToFront(e *entry[V]) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache[V]) remove(e *entry[V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache[V]) evictTail() {
	if c.tail == nil {
		return
	}
	tail := c.tail
	delete(c.entries, tail.key)
	c.remove(tail)
}
