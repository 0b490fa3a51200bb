// Package cache keeps the last successful payload of each slice per account.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache is an in-memory TTL cache. Expired entries are not deleted: Get
// ignores them, Peek still returns them so stale data can be shown while a
// refetch is in flight.
type Cache[K comparable, V any] struct {
	mu   sync.RWMutex
	data map[K]entry[V]
	ttl  time.Duration
	now  func() time.Time
}

// New creates a new Cache with the given TTL. A zero TTL never expires.
func New[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		data: make(map[K]entry[V]),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Get returns the cached value for the given key, if it exists and is not expired.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero V

	e, ok := c.data[key]
	if !ok || c.expired(e) {
		return zero, false
	}
	return e.value, true
}

// Peek returns the value regardless of age, along with when it was stored.
func (c *Cache[K, V]) Peek(key K) (V, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.data[key]
	return e.value, e.storedAt, ok
}

// Set stores a value in the cache.
func (c *Cache[K, V]) Set(key K, value V) {
	c.SetAt(key, value, c.now())
}

// SetAt stores a value with an explicit timestamp, used when restoring from disk.
func (c *Cache[K, V]) SetAt(key K, value V, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = entry[V]{value: value, storedAt: at}
}

// Delete removes a key.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.data, key)
}

// DeleteFunc removes every key for which match returns true.
func (c *Cache[K, V]) DeleteFunc(match func(K) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k := range c.data {
		if match(k) {
			delete(c.data, k)
		}
	}
}

// Clear removes all entries from the cache.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = make(map[K]entry[V])
}

// Len returns the number of entries, expired or not.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *Cache[K, V]) expired(e entry[V]) bool {
	return c.ttl > 0 && c.now().Sub(e.storedAt) > c.ttl
}
