package cache

import "context"

// Store holds previously fetched values by key.
// Expired entries are reported as missing.
type Store[T any] interface {
	Get(key string) (T, bool)
	Put(key string, value T)
	Delete(key string)
}

// Fetcher produces the value for a key from the upstream source
type Fetcher[T any] func(ctx context.Context, key string) (T, error)
