// Package cache provides a bounded, expiring, concurrency-safe cache that
// coalesces concurrent loads of the same key.
package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Clock returns the current time. Injected so tests can move time forward.
type Clock func() time.Time

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// TTL is an LRU-bounded cache whose entries expire after a fixed time-to-live.
// Expired entries are never returned. The mutex is never held while a value
// is being loaded, so a slow load for one key does not block other keys.
type TTL[V any] struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	items    map[string]*list.Element
	order    *list.List // front = most recently used
	now      Clock
	group    singleflight.Group
}

// NewTTL creates a cache holding at most capacity entries for ttl each.
// A nil clock uses time.Now.
func NewTTL[V any](capacity int, ttl time.Duration, clock Clock) *TTL[V] {
	if capacity <= 0 {
		capacity = 1
	}
	if clock == nil {
		clock = time.Now
	}
	return &TTL[V]{
		ttl:      ttl,
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
		now:      clock,
	}
}

// Get returns the cached value for key if present and not expired.
func (c *TTL[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[V])
	if !c.now().Before(e.expiresAt) {
		c.removeElement(el)
		return zero, false
	}
	c.order.MoveToFront(el)
	return e.value, true
}

// Put stores value under key, evicting the least recently used entry when full.
func (c *TTL[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[V])
		e.value = value
		e.expiresAt = expiresAt
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&entry[V]{key: key, value: value, expiresAt: expiresAt})
	for c.order.Len() > c.capacity {
		c.evictOldest()
	}
}

// Len returns the number of stored entries, expired ones included until touched
func (c *TTL[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Purge drops every expired entry
func (c *TTL[V]) Purge() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if !now.Before(el.Value.(*entry[V]).expiresAt) {
			c.removeElement(el)
			removed++
		}
		el = prev
	}
	return removed
}

// Coalesce runs load for key unless an identical call is already in flight,
// in which case it waits for and shares that call's result. shared reports
// whether the result came from another caller's load. Coalesce does not read
// or write the cache itself; callers decide what is worth storing.
//
// Each caller waits on its own ctx. A caller whose ctx ends gets ctx.Err()
// while the load keeps running for the others, so load must not depend on
// any single caller's context.
func (c *TTL[V]) Coalesce(ctx context.Context, key string, load func() (V, error)) (value V, shared bool, err error) {
	ch := c.group.DoChan(key, func() (any, error) {
		return load()
	})

	select {
	case <-ctx.Done():
		var zero V
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			var zero V
			return zero, res.Shared, res.Err
		}
		value, _ = res.Val.(V)
		return value, res.Shared, nil
	}
}

func (c *TTL[V]) evictOldest() {
	if el := c.order.Back(); el != nil {
		c.removeElement(el)
	}
}

func (c *TTL[V]) removeElement(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry[V]).key)
}
