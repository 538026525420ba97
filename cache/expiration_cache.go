// Package cache provides the in-memory response cache: a TTL-bounded map
// from question fingerprints to frozen responses. Entries expire lazily on
// read, there is no background eviction.
package cache

import (
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

const defaultSize = 10_000

type element[T any] struct {
	val       *T
	expiresAt time.Time
}

// ExpiringLRUCache is a thread-safe cache whose entries carry an absolute
// expiry. The LRU backing store bounds memory, expiry is enforced on Get.
// The cache can be disabled at runtime: Get then misses and Put is a no-op.
type ExpiringLRUCache[T any] struct {
	enabled atomic.Bool
	lru     *lru.Cache
}

type CacheOption[T any] func(c *ExpiringLRUCache[T])

func WithMaxSize[T any](size uint) CacheOption[T] {
	return func(c *ExpiringLRUCache[T]) {
		if size > 0 {
			l, _ := lru.New(int(size))
			c.lru = l
		}
	}
}

func NewCache[T any](options ...CacheOption[T]) *ExpiringLRUCache[T] {
	l, _ := lru.New(defaultSize)
	c := &ExpiringLRUCache[T]{lru: l}
	c.enabled.Store(true)

	for _, opt := range options {
		opt(c)
	}

	return c
}

// SetEnabled toggles the cache at runtime. Disabling does not drop entries,
// they just become unreachable until re-enabled (and may expire meanwhile).
func (e *ExpiringLRUCache[T]) SetEnabled(enabled bool) {
	e.enabled.Store(enabled)
}

func (e *ExpiringLRUCache[T]) Enabled() bool {
	return e.enabled.Load()
}

// Put inserts val under key for ttl. Non-positive ttl means the entry would
// already be expired, so nothing is inserted.
func (e *ExpiringLRUCache[T]) Put(key string, val *T, ttl time.Duration) {
	if ttl <= 0 || !e.enabled.Load() {
		return
	}

	e.lru.Add(key, &element[T]{
		val:       val,
		expiresAt: time.Now().Add(ttl),
	})
}

// Get returns the value and its remaining TTL. Entries past their expiry are
// treated as absent and removed opportunistically.
func (e *ExpiringLRUCache[T]) Get(key string) (*T, time.Duration) {
	if !e.enabled.Load() {
		return nil, 0
	}

	v, ok := e.lru.Get(key)
	if !ok {
		return nil, 0
	}

	el := v.(*element[T])

	remaining := time.Until(el.expiresAt)
	if remaining <= 0 {
		e.lru.Remove(key)

		return nil, 0
	}

	return el.val, remaining
}

// TotalCount returns the number of entries, including not yet evicted
// expired ones
func (e *ExpiringLRUCache[T]) TotalCount() int {
	return e.lru.Len()
}

// Clear drops all entries
func (e *ExpiringLRUCache[T]) Clear() {
	e.lru.Purge()
}
