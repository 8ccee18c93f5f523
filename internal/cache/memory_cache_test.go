package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock позволяет управлять временем в тестах.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.now = f.now.Add(d)
}

func TestMemoryCacheGetSet(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemoryCache(30*time.Minute, clock.Now)
	ctx := context.Background()

	// Промах на пустом кеше
	_, err := c.Get(ctx, "elevation")
	assert.True(t, IsCacheMiss(err))

	// Запись и чтение
	require.NoError(t, c.Set(ctx, "elevation", []byte("raster")))
	data, err := c.Get(ctx, "elevation")
	require.NoError(t, err)
	assert.Equal(t, []byte("raster"), data)
}

func TestMemoryCacheTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	c := NewMemoryCache(30*time.Minute, clock.Now)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "buildings", []byte("data")))

	// Запись моложе 30 минут действительна
	clock.Advance(29 * time.Minute)
	_, err := c.Get(ctx, "buildings")
	require.NoError(t, err)

	// Запись старше 30 минут считается промахом
	clock.Advance(2 * time.Minute)
	_, err = c.Get(ctx, "buildings")
	assert.True(t, IsCacheMiss(err))
}

func TestMemoryCacheInvalidateAll(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c := NewMemoryCache(30*time.Minute, clock.Now)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "roads", []byte("a")))
	require.NoError(t, c.Set(ctx, "forests", []byte("b")))
	assert.Equal(t, 2, c.Stats().Entries)

	require.NoError(t, c.InvalidateAll(ctx))
	assert.Equal(t, 0, c.Stats().Entries)

	_, err := c.Get(ctx, "roads")
	assert.True(t, IsCacheMiss(err))
}

func TestMemoryCacheStats(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	c := NewMemoryCache(30*time.Minute, clock.Now)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "elevation", []byte("x")))

	_, _ = c.Get(ctx, "elevation") // hit
	_, _ = c.Get(ctx, "missing")   // miss

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRatio, 1e-9)
}
