// Package valuecache implements the TTL-bounded value cache described
// in spec.md §4.2: a process-local, non-persistent mapping from secret
// reference to previously approved value, evicted lazily on lookup.
//
// Grounded on haasonsaas-nexus's internal/cache/dedupe.go, adapted
// from a seen-before dedupe table (map[string]int64 of timestamps) to
// a reference-to-value cache.
package valuecache

import (
	"sync"
	"time"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// Cache is a TTL-bounded reference→value mapping. A Cache constructed
// with ttl<=0 is disabled: Lookup always misses and Store is a no-op,
// per spec.md §3.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

// New returns a Cache with the given TTL. ttl<=0 disables caching.
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Enabled reports whether this cache will ever store or return a value.
func (c *Cache) Enabled() bool {
	return c.ttl > 0
}

// Lookup returns the cached value for reference, evicting it first if
// expired. The second return is false on a miss (absent or expired or
// cache disabled).
func (c *Cache) Lookup(reference string) (string, bool) {
	if !c.Enabled() {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[reference]
	if !ok {
		return "", false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, reference)
		return "", false
	}
	return e.value, true
}

// Store inserts or refreshes the cached value for reference. A no-op
// when the cache is disabled.
func (c *Cache) Store(reference, value string) {
	if !c.Enabled() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[reference] = entry{
		value:     value,
		expiresAt: c.now().Add(c.ttl),
	}
}

// Evict removes every expired entry. Called opportunistically; Lookup
// already evicts the expired entry it finds, so this is only useful to
// bound memory on an otherwise idle cache. Store does not evict.
func (c *Cache) Evict() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for ref, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, ref)
		}
	}
}

// Size returns the number of entries currently held, without evicting.
// Used by the `status` transport action (spec.md §4.7).
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
