package cache

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
)

type ttlStore[T any] struct {
	cache *ttlcache.Cache[string, T]
}

func (s *ttlStore[T]) Get(key string) (T, bool) {
	item := s.cache.Get(key)
	if item == nil || item.IsExpired() {
		var empty T
		return empty, false
	}
	return item.Value(), true
}

func (s *ttlStore[T]) Put(key string, value T) {
	s.cache.Set(key, value, ttlcache.DefaultTTL)
}

func (s *ttlStore[T]) Delete(key string) {
	s.cache.Delete(key)
}

// NewTTLStore creates a ttlcache backed store holding at most maxEntries
// entries (0 means unbounded). Expiry is checked when reading, no janitor is started.
func NewTTLStore[T any](ttl time.Duration, maxEntries uint64) *ttlStore[T] {
	options := []ttlcache.Option[string, T]{
		ttlcache.WithTTL[string, T](ttl),
		ttlcache.WithDisableTouchOnHit[string, T](),
	}
	if maxEntries > 0 {
		options = append(options, ttlcache.WithCapacity[string, T](maxEntries))
	}

	return &ttlStore[T]{cache: ttlcache.New[string, T](options...)}
}
