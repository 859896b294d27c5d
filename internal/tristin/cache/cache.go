// Package cache implements the bounded response store used by the gateway:
// a size-capped, TTL-capped string cache with least-recently-used eviction.
//
// Two instances are run in production: a response cache for completion
// replies (short TTL) and a definition cache for dictionary results (long
// TTL; definitions are near-static).
//
// TTL and LRU coordinate as follows: an expired entry is evicted the moment
// it is detected (Get, Set, or Cleanup), never counts toward capacity, and
// never participates in choosing an eviction victim.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// Cache is a bounded LRU+TTL key→value store for small string payloads.
// All operations are serialized by a single mutex; hold times are
// microseconds, so correctness wins over throughput here.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List               // front = most recently used
	entries  map[string]*list.Element // key → element in order
}

// entry is the value stored in each list element.
type entry struct {
	key       string
	value     string
	createdAt time.Time
}

// New returns a Cache holding at most capacity entries, each living at
// most ttl from its last Set. Capacity and ttl must be positive.
func New(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	return &Cache{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
	}
}

// Get returns the value for key and refreshes its recency. A key that is
// absent, or present but older than the TTL, reports a miss; expired
// entries are evicted on detection.
func (c *Cache) Get(key string) (string, bool) {
	return c.getAt(key, time.Now())
}

// getAt is the time-injectable core of Get (for testing).
func (c *Cache) getAt(key string, now time.Time) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return "", false
	}
	e := el.Value.(*entry)
	if now.Sub(e.createdAt) > c.ttl {
		c.removeElement(el)
		return "", false
	}
	c.order.MoveToFront(el)
	return e.value, true
}

// Set inserts or updates key, stamping it with the current time and
// marking it most recently used. When the cache is at capacity and key is
// new, the least-recently-used entry is evicted first.
func (c *Cache) Set(key, value string) {
	c.setAt(key, value, time.Now())
}

// setAt is the time-injectable core of Set (for testing).
func (c *Cache) setAt(key, value string, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		e := el.Value.(*entry)
		e.value = value
		e.createdAt = now
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() >= c.capacity {
		if back := c.order.Back(); back != nil {
			c.removeElement(back)
		}
	}

	el := c.order.PushFront(&entry{key: key, value: value, createdAt: now})
	c.entries[key] = el
}

// Delete removes key if present.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.removeElement(el)
	}
}

// Len returns the number of physically present entries, expired or not.
// The Cleanup sweep keeps this close to the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element, c.capacity)
}

// Cleanup evicts all entries older than the TTL and returns how many were
// removed. It runs from the background cleanup schedule so worst-case
// memory stays bounded even when traffic stops; it takes the same mutex as
// the request-path operations and is safe to run concurrently with them.
func (c *Cache) Cleanup(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	// Walk from the back: oldest-recency entries are the likeliest to have
	// expired, but expiry follows createdAt, not recency, so the whole list
	// is scanned.
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if now.Sub(el.Value.(*entry).createdAt) > c.ttl {
			c.removeElement(el)
			removed++
		}
		el = prev
	}
	return removed
}

// removeElement unlinks an element from both structures. Must be called
// with mu held.
func (c *Cache) removeElement(el *list.Element) {
	c.order.Remove(el)
	delete(c.entries, el.Value.(*entry).key)
}
