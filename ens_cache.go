package api

import (
	"sync"
	"time"
)

type ensCacheItem struct {
	name      string
	expiresAt time.Time
}

// ensCache is a bounded TTL cache for resolved primary names, keyed by
// checksummed address. When full, the oldest insertion is evicted; entries
// also lapse after the TTL so renamed wallets eventually re-resolve.
type ensCache struct {
	mu       sync.Mutex
	items    map[string]ensCacheItem
	order    []string
	capacity int
	ttl      time.Duration
}

func newENSCache(capacity int, ttl time.Duration) *ensCache {
	if capacity <= 0 {
		capacity = 1024
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ensCache{
		items:    make(map[string]ensCacheItem, capacity),
		order:    make([]string, 0, capacity),
		capacity: capacity,
		ttl:      ttl,
	}
}

func (c *ensCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		return "", false
	}
	if time.Now().After(item.expiresAt) {
		c.removeLocked(key)
		return "", false
	}
	return item.name, true
}

// removeLocked drops a key from both items and order, keeping order an exact
// mirror of the live keys so eviction never pops a stale entry. Callers must
// hold mu.
func (c *ensCache) removeLocked(key string) {
	delete(c.items, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *ensCache) Set(key, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists {
		for len(c.items) >= c.capacity && len(c.order) > 0 {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.items, oldest)
		}
		c.order = append(c.order, key)
	}

	c.items[key] = ensCacheItem{
		name:      name,
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *ensCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
