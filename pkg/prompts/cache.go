package prompts

import (
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheName is the label under which cache metrics are reported.
const CacheName = "templates"

// CacheMetrics receives cache hit/miss/size updates.
// The telemetry collector satisfies this interface.
type CacheMetrics interface {
	RecordCacheHit(cacheName string)
	RecordCacheMiss(cacheName string)
	UpdateCacheSize(cacheName string, size int)
}

// Cache memoizes resolved templates in a bounded LRU.
//
// Templates are treated as immutable for the lifetime of a cache entry:
// a second Resolve for the same name does not re-read the store. Eviction
// happens on capacity (least recently used) or via Evict when a watcher
// observes the backing file changing.
type Cache struct {
	store   Store
	entries *lru.Cache[string, *Template]
	metrics CacheMetrics
	mu      sync.Mutex
}

// NewCache creates a template cache with the given capacity.
// metrics may be nil.
func NewCache(store Store, capacity int, metrics CacheMetrics) (*Cache, error) {
	entries, err := lru.New[string, *Template](capacity)
	if err != nil {
		return nil, err
	}

	return &Cache{
		store:   store,
		entries: entries,
		metrics: metrics,
	}, nil
}

// Resolve returns the template with the given name, reading the store
// only on a cache miss. Returns *NotFoundError for unknown names.
func (c *Cache) Resolve(name string) (*Template, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if tmpl, ok := c.entries.Get(name); ok {
		if c.metrics != nil {
			c.metrics.RecordCacheHit(CacheName)
		}
		return tmpl, nil
	}

	if c.metrics != nil {
		c.metrics.RecordCacheMiss(CacheName)
	}

	tmpl, err := c.store.Load(name)
	if err != nil {
		return nil, err
	}

	c.entries.Add(name, tmpl)
	if c.metrics != nil {
		c.metrics.UpdateCacheSize(CacheName, c.entries.Len())
	}

	slog.Debug("template cached", "template", name, "cache_size", c.entries.Len())
	return tmpl, nil
}

// Evict removes the named template from the cache, if present.
func (c *Cache) Evict(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries.Remove(name) {
		if c.metrics != nil {
			c.metrics.UpdateCacheSize(CacheName, c.entries.Len())
		}
		slog.Debug("template evicted", "template", name)
	}
}

// Len returns the number of cached templates.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}
