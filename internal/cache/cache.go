// Package cache provides the in-process lookup cache used for per-domain
// settings and generated dialplan artifacts. Mutating handlers invalidate
// entries explicitly through the Invalidator port; readers treat a miss as
// "fetch from the store".
package cache

import (
	"sync"
	"time"
)

// Invalidator is the narrow port mutation handlers use to drop derived
// entries (directory:<ext>@<domain>, dialplan:<domain>, settings:<domain>)
// after a configuration change.
type Invalidator interface {
	Delete(key string)
}

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a TTL map safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

// New creates a cache whose entries expire after ttl. A zero ttl means
// entries never expire (explicit invalidation only).
func New(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the cached value for key, or false when absent or expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores a value under key.
func (c *Cache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.now().Add(c.ttl)
	}
	c.entries[key] = entry{value: value, expiresAt: expiresAt}
}

// Delete removes the entry for key, if present.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

var _ Invalidator = (*Cache)(nil)
