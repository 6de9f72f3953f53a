package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreImpl(t *testing.T) {
	t.Parallel()

	for _, c := range storeCases() {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()

			t.Run("Put and Get", func(t *testing.T) {
				t.Parallel()

				store := c.newStore()
				store.Put("test", Data{"a", "b"})

				data, ok := store.Get("test")
				require.True(t, ok, "Expected entry to exist")
				require.Equal(t, Data{"a", "b"}, data)
			})

			t.Run("Get missing", func(t *testing.T) {
				t.Parallel()

				store := c.newStore()

				data, ok := store.Get("test")
				require.False(t, ok)
				require.Nil(t, data)
			})

			t.Run("Put replaces", func(t *testing.T) {
				t.Parallel()

				store := c.newStore()
				store.Put("test", Data{"old"})
				store.Put("test", Data{"new"})

				data, ok := store.Get("test")
				require.True(t, ok)
				require.Equal(t, Data{"new"}, data)
			})

			t.Run("Delete", func(t *testing.T) {
				t.Parallel()

				store := c.newStore()
				store.Put("test", Data{"a"})
				store.Delete("test")

				_, ok := store.Get("test")
				require.False(t, ok)
			})

			t.Run("Delete missing entry", func(t *testing.T) {
				t.Parallel()

				store := c.newStore()
				store.Delete("test")

				_, ok := store.Get("test")
				require.False(t, ok)
			})

			t.Run("concurrent access to different keys", func(t *testing.T) {
				t.Parallel()

				store := c.newStore()

				wg := sync.WaitGroup{}
				wg.Add(20)
				for i := range 20 {
					go func() {
						defer wg.Done()
						key := fmt.Sprintf("key%d", i)
						store.Put(key, Data{key})
						data, ok := store.Get(key)
						assert.True(t, ok)
						assert.Equal(t, Data{key}, data)
					}()
				}
				wg.Wait()
			})
		})
	}
}

func TestBasicStoreExpiry(t *testing.T) {
	t.Parallel()

	now := time.Now()
	nowFunc := func() time.Time {
		return now
	}

	store := NewBasicStore[Data](time.Minute, nowFunc)
	store.Put("test", Data{"a"})

	now = now.Add(59 * time.Second)
	_, ok := store.Get("test")
	require.True(t, ok)

	now = now.Add(1 * time.Second)
	_, ok = store.Get("test")
	require.False(t, ok)

	// Expired entries are dropped when read
	require.Empty(t, store.entries)

	t.Run("no ttl", func(t *testing.T) {
		t.Parallel()

		now := time.Now()
		store := NewBasicStore[Data](0, func() time.Time {
			return now
		})
		store.Put("test", Data{"a"})

		now = now.Add(24 * 365 * time.Hour)
		_, ok := store.Get("test")
		require.True(t, ok)
	})
}

func TestTTLStoreExpiry(t *testing.T) {
	t.Parallel()

	store := NewTTLStore[Data](50*time.Millisecond, 0)
	store.Put("test", Data{"a"})

	_, ok := store.Get("test")
	require.True(t, ok)

	require.Eventually(t, func() bool {
		_, ok := store.Get("test")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestTTLStoreCapacity(t *testing.T) {
	t.Parallel()

	store := NewTTLStore[Data](time.Minute, 2)
	store.Put("key1", Data{"1"})
	store.Put("key2", Data{"2"})
	store.Put("key3", Data{"3"})

	_, ok := store.Get("key1")
	require.False(t, ok, "Expected the oldest entry to be evicted")

	_, ok = store.Get("key3")
	require.True(t, ok)
	require.Equal(t, 2, store.cache.Len())
}
