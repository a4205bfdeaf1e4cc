package utils

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type stepClock struct{ t time.Time }

func (c *stepClock) now() time.Time          { return c.t }
func (c *stepClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestMemoryCacheExpiresWithClock(t *testing.T) {
	clk := &stepClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMemoryCache(clk.now)
	ctx := context.Background()

	c.Set(ctx, "k", []byte("v"), time.Minute)
	got, ok := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	clk.advance(59 * time.Second)
	_, ok = c.Get(ctx, "k")
	assert.True(t, ok)

	clk.advance(time.Second)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok, "entry must expire exactly at ttl")
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCacheDefaultTTL(t *testing.T) {
	clk := &stepClock{t: time.Unix(0, 0)}
	c := NewMemoryCache(clk.now)
	c.Set(context.Background(), "k", []byte("v"), 0)
	clk.advance(defaultCacheTTL - time.Nanosecond)
	_, ok := c.Get(context.Background(), "k")
	assert.True(t, ok)
}

func TestMemoryCacheInvalidatePrefix(t *testing.T) {
	c := NewMemoryCache(nil)
	ctx := context.Background()
	c.Set(ctx, "insights:1:7", []byte("a"), time.Minute)
	c.Set(ctx, "insights:1:30", []byte("b"), time.Minute)
	c.Set(ctx, "insights:2:7", []byte("c"), time.Minute)

	c.InvalidatePrefix(ctx, "insights:1:")

	_, ok := c.Get(ctx, "insights:1:7")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "insights:1:30")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "insights:2:7")
	assert.True(t, ok)
}

func TestCacheJSONRoundTrip(t *testing.T) {
	c := NewMemoryCache(nil)
	ctx := context.Background()
	CacheSetJSON(ctx, c, "k", map[string]int{"n": 3}, time.Minute)

	var out map[string]int
	assert.True(t, CacheGetJSON(ctx, c, "k", &out))
	assert.Equal(t, 3, out["n"])
	assert.False(t, CacheGetJSON(ctx, c, "missing", &out))
}
