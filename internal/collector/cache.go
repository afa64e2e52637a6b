package collector

import (
	"sync"
	"time"
)

type cacheEntry struct {
	value  float64
	stored time.Time
}

// ttlCache holds oracle answers for a fixed time-to-live.
type ttlCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]cacheEntry
}

func newTTLCache(ttl time.Duration, now func() time.Time) *ttlCache {
	if now == nil {
		now = time.Now
	}
	return &ttlCache{ttl: ttl, now: now, items: make(map[string]cacheEntry)}
}

func (c *ttlCache) get(key string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		return 0, false
	}
	if c.now().Sub(e.stored) >= c.ttl {
		delete(c.items, key)
		return 0, false
	}
	return e.value, true
}

func (c *ttlCache) set(key string, v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = cacheEntry{value: v, stored: c.now()}
}
