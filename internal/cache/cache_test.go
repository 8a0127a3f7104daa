package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func TestGetSetRoundTrip(t *testing.T) {
	c := New[string]("test", 10, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("greeting", "hello")
	got, ok := c.Get("greeting")
	require.True(t, ok)
	assert.Equal(t, "hello", got)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestTTLExpiration(t *testing.T) {
	clock := newClock()
	c := New[string]("test", 10, time.Hour, WithClock[string](clock.Now))

	c.Set("k", "v")
	clock.Advance(59 * time.Minute)
	_, ok := c.Get("k")
	require.True(t, ok, "entry should be live before TTL")

	clock.Advance(2 * time.Minute)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry should expire after TTL")
	assert.Equal(t, 0, c.Len())
}

func TestLRUEviction(t *testing.T) {
	c := New[int]("test", 3, time.Hour)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	// Touch "a" so "b" becomes least recently used.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("d", 4)

	assert.Equal(t, 3, c.Len())
	_, ok = c.Get("b")
	assert.False(t, ok, "least recently used entry should be evicted")
	for _, key := range []string{"a", "c", "d"} {
		_, ok := c.Get(key)
		assert.True(t, ok, "expected %s to survive", key)
	}
}

func TestSizeNeverExceedsMax(t *testing.T) {
	c := New[int]("test", 5, time.Hour)
	for i := 0; i < 50; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
		require.LessOrEqual(t, c.Len(), 5)
	}
}

func TestExpiredEntriesEvictedBeforeLiveOnes(t *testing.T) {
	clock := newClock()
	c := New[int]("test", 2, time.Hour, WithClock[int](clock.Now))

	c.SetWithTTL("short", 1, time.Minute)
	c.Set("long", 2)
	clock.Advance(2 * time.Minute)

	c.Set("new", 3)

	_, ok := c.Get("long")
	assert.True(t, ok, "live entry should be kept while an expired one can go")
	_, ok = c.Get("new")
	assert.True(t, ok)
}

func TestValidatorDropsCorruptEntries(t *testing.T) {
	c := New[string]("test", 10, time.Hour, WithValidator(func(v string) bool { return v != "" }))

	c.Set("empty", "")
	_, ok := c.Get("empty")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len(), "corrupt entry should be removed")
}

func TestEvictExpired(t *testing.T) {
	clock := newClock()
	c := New[int]("test", 0, time.Minute, WithClock[int](clock.Now))
	c.Set("a", 1)
	c.Set("b", 2)
	c.SetWithTTL("c", 3, time.Hour)

	clock.Advance(2 * time.Minute)
	assert.Equal(t, 2, c.EvictExpired())
	assert.Equal(t, 1, c.Len())
}

func TestConcurrentAccessWithPeriodicEviction(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := New[int]("test", 100, time.Millisecond)
	c.StartPeriodicEviction(ctx, time.Millisecond)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("%d-%d", w, i%10)
				c.Set(key, i)
				c.Get(key)
			}
		}(w)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 100)
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "i need a shelter", NormalizeKey("  I   NEED a\tShelter "))
	assert.Equal(t, NormalizeKey("Shelter near Austin"), NormalizeKey("shelter  near austin"))
}
