package cache

import (
	"sync"
	"time"
)

// Flusher is the slice of the cache API the refresh scheduler needs:
// after a successful refresh every derived cache must be emptied.
type Flusher interface {
	FlushAll()
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a time-bounded key/value store. Entries expire lazily on
// Get; the refresh cycle flushes everything on success, which bounds
// how long an abandoned key can linger.
type Cache[V any] struct {
	mu         sync.RWMutex
	entries    map[string]entry[V]
	defaultTTL time.Duration

	hits   uint64
	misses uint64
}

func New[V any](defaultTTL time.Duration) *Cache[V] {
	return &Cache[V]{
		entries:    make(map[string]entry[V]),
		defaultTTL: defaultTTL,
	}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && time.Now().Before(e.expiresAt) {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return e.value, true
	}

	c.mu.Lock()
	if ok {
		delete(c.entries, key)
	}
	c.misses++
	c.mu.Unlock()

	var zero V
	return zero, false
}

func (c *Cache[V]) Set(key string, value V) {
	c.SetTTL(key, value, c.defaultTTL)
}

func (c *Cache[V]) SetTTL(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, expiresAt: time.Now().Add(ttl)}
}

func (c *Cache[V]) FlushAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[V])
}

func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats reports hit/miss counters since process start.
func (c *Cache[V]) Stats() (hits, misses uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
