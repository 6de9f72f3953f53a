package cache

import (
	"sync"
	"time"
)

// Entries are never mutated, Put replaces them
type cacheEntry[T any] struct {
	value    T
	storedAt time.Time
}

type basicStore[T any] struct {
	entries   map[string]cacheEntry[T]
	cacheLock sync.RWMutex

	ttl     time.Duration
	nowFunc func() time.Time
}

func (s *basicStore[T]) Get(key string) (T, bool) {
	s.cacheLock.RLock()
	entry, ok := s.entries[key]
	s.cacheLock.RUnlock()

	if !ok {
		var empty T
		return empty, false
	}

	if s.isExpired(entry) {
		s.deleteIfUnchanged(key, entry)
		var empty T
		return empty, false
	}

	return entry.value, true
}

func (s *basicStore[T]) Put(key string, value T) {
	s.cacheLock.Lock()
	defer s.cacheLock.Unlock()

	s.entries[key] = cacheEntry[T]{value: value, storedAt: s.nowFunc()}
}

func (s *basicStore[T]) Delete(key string) {
	s.cacheLock.Lock()
	defer s.cacheLock.Unlock()

	delete(s.entries, key)
}

func (s *basicStore[T]) isExpired(entry cacheEntry[T]) bool {
	if s.ttl <= 0 {
		return false
	}
	return s.nowFunc().Sub(entry.storedAt) >= s.ttl
}

// Drop an expired entry unless it was replaced after we read it
func (s *basicStore[T]) deleteIfUnchanged(key string, expired cacheEntry[T]) {
	s.cacheLock.Lock()
	defer s.cacheLock.Unlock()

	current, ok := s.entries[key]
	if ok && current.storedAt.Equal(expired.storedAt) {
		delete(s.entries, key)
	}
}

// NewBasicStore creates a map backed store. A ttl <= 0 disables expiry.
func NewBasicStore[T any](ttl time.Duration, nowFunc func() time.Time) *basicStore[T] {
	return &basicStore[T]{
		entries: make(map[string]cacheEntry[T]),
		ttl:     ttl,
		nowFunc: nowFunc,
	}
}
