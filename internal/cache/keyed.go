// Package cache provides the in-process caches that sit in front of the store.
//
// Entries live until they are explicitly removed or the whole cache is
// drained. There is no TTL and no capacity bound: the flush cycle is the
// only eviction policy.
package cache

import "sync"

// Keyed maps a composite string key to a cached value.
// It is safe for concurrent use.
type Keyed[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

func NewKeyed[V any]() *Keyed[V] {
	return &Keyed[V]{items: make(map[string]V)}
}

func (c *Keyed[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	value, ok := c.items[key]
	return value, ok
}

func (c *Keyed[V]) Put(key string, value V) {
	c.mu.Lock()
	c.items[key] = value
	c.mu.Unlock()
}

func (c *Keyed[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func (c *Keyed[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// ForEach calls visit for every entry until visit returns false.
// visit runs on a snapshot, so it may call back into the cache.
func (c *Keyed[V]) ForEach(visit func(key string, value V) bool) {
	for key, value := range c.snapshot() {
		if !visit(key, value) {
			return
		}
	}
}

func (c *Keyed[V]) Clear() {
	c.mu.Lock()
	c.items = make(map[string]V)
	c.mu.Unlock()
}

// DeleteIf removes key when its current value satisfies match.
func (c *Keyed[V]) DeleteIf(key string, match func(V) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.items[key]
	if !ok || !match(value) {
		return false
	}
	delete(c.items, key)
	return true
}

// PutIfAbsent stores value unless key is already present and returns the
// value that ends up cached.
func (c *Keyed[V]) PutIfAbsent(key string, value V) V {
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.items[key]; ok {
		return existing
	}
	c.items[key] = value
	return value
}

func (c *Keyed[V]) snapshot() map[string]V {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]V, len(c.items))
	for key, value := range c.items {
		out[key] = value
	}
	return out
}
