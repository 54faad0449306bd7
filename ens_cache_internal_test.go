package api

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestENSCache(t *testing.T) {
	t.Run("stores and returns entries", func(t *testing.T) {
		cache := newENSCache(4, time.Minute)

		cache.Set("0xA", "alice.eth")
		name, ok := cache.Get("0xA")
		assert.True(t, ok)
		assert.Equal(t, "alice.eth", name)
	})

	t.Run("caches the empty result", func(t *testing.T) {
		cache := newENSCache(4, time.Minute)

		cache.Set("0xB", "")
		name, ok := cache.Get("0xB")
		assert.True(t, ok)
		assert.Empty(t, name)
	})

	t.Run("entries lapse after the ttl", func(t *testing.T) {
		cache := newENSCache(4, time.Millisecond)

		cache.Set("0xA", "alice.eth")
		time.Sleep(5 * time.Millisecond)

		_, ok := cache.Get("0xA")
		assert.False(t, ok)
	})

	t.Run("evicts the oldest insertion at capacity", func(t *testing.T) {
		cache := newENSCache(3, time.Minute)

		for i := 0; i < 4; i++ {
			cache.Set(fmt.Sprintf("0x%d", i), "name.eth")
		}

		assert.Equal(t, 3, cache.Len())
		_, ok := cache.Get("0x0")
		assert.False(t, ok, "oldest entry should have been evicted")
		_, ok = cache.Get("0x3")
		assert.True(t, ok)
	})

	t.Run("overwriting a key does not grow the cache", func(t *testing.T) {
		cache := newENSCache(3, time.Minute)

		cache.Set("0xA", "one.eth")
		cache.Set("0xA", "two.eth")

		assert.Equal(t, 1, cache.Len())
		name, _ := cache.Get("0xA")
		assert.Equal(t, "two.eth", name)
	})

	t.Run("expire and re-resolve churn keeps bookkeeping bounded", func(t *testing.T) {
		cache := newENSCache(4, time.Millisecond)

		for i := 0; i < 50; i++ {
			cache.Set("0xA", "alice.eth")
			time.Sleep(2 * time.Millisecond)
			_, ok := cache.Get("0xA")
			assert.False(t, ok)
		}

		assert.LessOrEqual(t, len(cache.order), cache.capacity)
		assert.Equal(t, len(cache.items), len(cache.order))
	})

	t.Run("expired keys do not shadow newer entries in eviction order", func(t *testing.T) {
		cache := newENSCache(2, 50*time.Millisecond)

		cache.Set("0xA", "alice.eth")
		time.Sleep(80 * time.Millisecond)
		_, _ = cache.Get("0xA")

		cache.Set("0xA", "alice.eth")
		cache.Set("0xB", "bob.eth")
		cache.Set("0xC", "carol.eth")

		_, ok := cache.Get("0xA")
		assert.False(t, ok, "0xA is the oldest live insertion and should be evicted")
		_, ok = cache.Get("0xB")
		assert.True(t, ok)
		_, ok = cache.Get("0xC")
		assert.True(t, ok)
	})
}
