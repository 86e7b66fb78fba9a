package cache

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("c", 3)

	_, ok = c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUCache_Expiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewLRUCache[string](10, time.Minute, WithClock(func() time.Time { return now }))
	c.Set("k", "v")
	c.Set("other", "w")

	now = now.Add(59 * time.Second)
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)

	now = now.Add(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry expires exactly at ttl")
	assert.Equal(t, 1, c.Size(), "expired read drops the entry")

	c.Set("fresh", "x")
	assert.Equal(t, 1, c.CleanExpired())
	_, ok = c.Get("fresh")
	assert.True(t, ok)
}

func TestLRUCache_ZeroTTLNeverHits(t *testing.T) {
	c := NewLRUCache[int](10, 0)
	c.Set("k", 1)
	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestLRUCache_GetOrLoad(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	calls := 0
	load := func() (int, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrLoad("answer", load)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	}
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	_, err := c.GetOrLoad("broken", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	_, ok := c.Get("broken")
	assert.False(t, ok, "errors must not be cached")
}

func TestManager_CleanNow(t *testing.T) {
	short := NewLRUCache[int](10, time.Millisecond)
	long := NewLRUCache[int](10, time.Hour)
	short.Set("a", 1)
	short.Set("b", 2)
	long.Set("c", 3)

	m := NewManager(nil)
	m.Register(short)
	m.Register(long)

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 2, m.CleanNow())
	assert.Equal(t, 0, short.Size())
	assert.Equal(t, 1, long.Size())
}

func TestManager_StartStop(t *testing.T) {
	m := NewManager(nil)
	m.StartCleanup(time.Millisecond)
	m.Stop()
	// second Stop is a no-op
	m.Stop()
}
