package openf1

import (
	"sync"
	"sync/atomic"
	"time"
)

// DefaultCacheTTL is how long a successful response is served from memory.
const DefaultCacheTTL = 5 * time.Minute

type cacheEntry struct {
	fingerprint string
	payload     []Record
	insertedAt  time.Time
}

// responseCache is a read-through cache keyed by fingerprint. Entries are
// never evicted; a refetch after expiry overwrites the entry in place.
type responseCache struct {
	ttl time.Duration

	mu      sync.RWMutex
	entries map[string]cacheEntry

	hits   atomic.Int64
	misses atomic.Int64
}

func newResponseCache(ttl time.Duration) *responseCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &responseCache{ttl: ttl, entries: make(map[string]cacheEntry)}
}

// lookup returns the payload when an entry exists and now - insertedAt < ttl.
func (c *responseCache) lookup(key string, now time.Time) ([]Record, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || now.Sub(entry.insertedAt) >= c.ttl {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return entry.payload, true
}

func (c *responseCache) store(key string, payload []Record, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{fingerprint: key, payload: payload, insertedAt: now}
}

func (c *responseCache) purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]cacheEntry)
	return n
}

func (c *responseCache) counts(now time.Time) (total int, fresh int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, entry := range c.entries {
		if now.Sub(entry.insertedAt) < c.ttl {
			fresh++
		}
	}
	return len(c.entries), fresh
}
