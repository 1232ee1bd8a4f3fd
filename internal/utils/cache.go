package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheItem[V any] struct {
	data      V
	expiresAt time.Time
}

// Cache is a size-bounded LRU where every entry also carries its own TTL.
// Safe for concurrent use.
type Cache[V any] struct {
	lruCache *lru.Cache[string, cacheItem[V]]
	now      func() time.Time
}

func NewCache[V any](size int) (*Cache[V], error) {
	l, err := lru.New[string, cacheItem[V]](size)
	if err != nil {
		return nil, err
	}
	return &Cache[V]{lruCache: l, now: time.Now}, nil
}

// Set stores data under key until ttl elapses.
func (c *Cache[V]) Set(key string, data V, ttl time.Duration) {
	c.lruCache.Add(key, cacheItem[V]{
		data:      data,
		expiresAt: c.now().Add(ttl),
	})
}

// Get returns the cached value, or false if absent or expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	val, ok := c.lruCache.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().After(val.expiresAt) {
		c.lruCache.Remove(key)
		var zero V
		return zero, false
	}
	return val.data, true
}

func (c *Cache[V]) Delete(key string) {
	c.lruCache.Remove(key)
}
