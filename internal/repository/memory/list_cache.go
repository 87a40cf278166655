package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// ListCache holds the last fetched memory and document lists so repeated
// reads inside the TTL do not hit the backend. Mutations call Invalidate.
// A non-positive TTL disables caching.
type ListCache[T any] struct {
	cache    *cache.Cache
	disabled bool
}

func NewListCache[T any](ttl time.Duration) *ListCache[T] {
	if ttl <= 0 {
		return &ListCache[T]{cache: cache.New(cache.NoExpiration, 0), disabled: true}
	}
	// Create a cache with the configured expiration, and which
	// purges expired items every ttl*2
	return &ListCache[T]{
		cache: cache.New(ttl, ttl*2),
	}
}

func (c *ListCache[T]) Get(key string) ([]T, bool) {
	if c.disabled {
		return nil, false
	}
	if x, found := c.cache.Get(key); found {
		items := x.([]T)
		out := make([]T, len(items))
		copy(out, items)
		return out, true
	}
	return nil, false
}

func (c *ListCache[T]) Set(key string, items []T) {
	if c.disabled {
		return
	}
	stored := make([]T, len(items))
	copy(stored, items)
	c.cache.Set(key, stored, cache.DefaultExpiration)
}

func (c *ListCache[T]) Invalidate(key string) {
	c.cache.Delete(key)
}
