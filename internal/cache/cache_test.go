package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time          { return f.t }
func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestCache(t *testing.T, size int) (*MemoryCache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMemoryCache(size, 0)
	c.now = clock.now
	t.Cleanup(c.Close)
	return c, clock
}

func TestMemoryCache_SetGetExpire(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(t, 10)
	c.Set("a", 1, time.Minute)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	clock.advance(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Size())
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(t, 2)
	c.Set("a", "A", time.Hour)
	clock.advance(time.Second)
	c.Set("b", "B", time.Hour)
	clock.advance(time.Second)

	_, ok := c.Get("a")
	require.True(t, ok)
	clock.advance(time.Second)

	c.Set("c", "C", time.Hour)

	_, ok = c.Get("b")
	assert.False(t, ok, "b was least recently used")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestMemoryCache_OverwriteDoesNotEvict(t *testing.T) {
	t.Parallel()

	c, _ := newTestCache(t, 2)
	c.Set("a", 1, time.Hour)
	c.Set("b", 2, time.Hour)
	c.Set("a", 3, time.Hour)

	assert.Equal(t, 2, c.Size())
	v, _ := c.Get("a")
	assert.Equal(t, 3, v)
}

func TestMemoryCache_RemoveExpired(t *testing.T) {
	t.Parallel()

	c, clock := newTestCache(t, 10)
	c.Set("short", 1, time.Second)
	c.Set("long", 2, time.Hour)
	clock.advance(time.Minute)

	c.removeExpired()
	assert.Equal(t, 1, c.Size())
}

func TestReportCache_StatsAndKeys(t *testing.T) {
	t.Parallel()

	mc, _ := newTestCache(t, 10)
	rc := NewReportCache(mc, time.Minute)

	req := map[string]string{"property": "123"}
	_, ok := rc.Get("report", req)
	assert.False(t, ok)

	rc.Set("report", req, "table")
	v, ok := rc.Get("report", req)
	require.True(t, ok)
	assert.Equal(t, "table", v)

	_, ok = rc.Get("metadata", req)
	assert.False(t, ok, "namespaces are isolated")

	stats := rc.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, 1, stats.Size)
	assert.InDelta(t, 1.0/3.0, stats.HitRate, 1e-9)

	rc.Clear()
	assert.Equal(t, CacheStats{}, rc.Stats())
}

func TestGenerateKey_Deterministic(t *testing.T) {
	t.Parallel()

	a := GenerateKey("report", map[string]interface{}{"x": 1, "y": []string{"a"}})
	b := GenerateKey("report", map[string]interface{}{"y": []string{"a"}, "x": 1})
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, GenerateKey("other", map[string]interface{}{"x": 1, "y": []string{"a"}}))
}
