// internal/cache/lru.go
//
// Typed LRU for process-local lookups.
//
// Context
// -------
// The view engine keeps parsed template sets here, keyed by override root,
// component, and page.  Handlers render concurrently, so every method
// takes the mutex.  Stats feed the template cache gauges in view.
package cache

import (
	"container/list"
	"sync"
)

// LRU is a fixed-capacity least-recently-used map.
type LRU[K comparable, V any] struct {
	mu      sync.Mutex
	max     int
	order   *list.List // front = most recent
	index   map[K]*list.Element
	hits    uint64
	misses  uint64
	evicted uint64
}

type entry[K comparable, V any] struct {
	key K
	val V
}

// Stats is a point-in-time snapshot of the counters.
type Stats struct {
	Len, Hits, Misses, Evicted int
}

// New returns an LRU holding at most max entries.  Panics on max < 1.
func New[K comparable, V any](max int) *LRU[K, V] {
	if max < 1 {
		panic("cache: capacity must be at least 1")
	}
	return &LRU[K, V]{
		max:   max,
		order: list.New(),
		index: make(map[K]*list.Element, max),
	}
}

// Get returns the value for key and marks it most recent.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		c.hits++
		c.order.MoveToFront(el)
		return el.Value.(*entry[K, V]).val, true
	}
	c.misses++
	var zero V
	return zero, false
}

// Put stores val under key, evicting the oldest entry when full.
func (c *LRU[K, V]) Put(key K, val V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.index[key]; ok {
		el.Value.(*entry[K, V]).val = val
		c.order.MoveToFront(el)
		return
	}
	c.index[key] = c.order.PushFront(&entry[K, V]{key: key, val: val})
	for c.order.Len() > c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.index, oldest.Value.(*entry[K, V]).key)
		c.evicted++
	}
}

// Remove drops key.  It reports whether the key was present.
func (c *LRU[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.index[key]
	if ok {
		c.order.Remove(el)
		delete(c.index, key)
	}
	return ok
}

// Purge empties the cache.  Counters are kept.
func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.index = make(map[K]*list.Element, c.max)
}

// Len reports the number of entries.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Stats snapshots the counters.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Len:     c.order.Len(),
		Hits:    int(c.hits),
		Misses:  int(c.misses),
		Evicted: int(c.evicted),
	}
}
