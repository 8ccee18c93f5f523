package geodata

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viimsigame/terrain-server/internal/cache"
	"github.com/viimsigame/terrain-server/internal/geo"
)

// fakeElevationProvider считает обращения и может отказывать.
type fakeElevationProvider struct {
	calls int64
	fail  bool
}

func (f *fakeElevationProvider) FetchElevation(ctx context.Context) (*ElevationRaster, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.fail {
		return nil, errors.New("provider down")
	}
	return NewElevationRaster([]float64{1, 2, 3, 4})
}

// fakeVectorProvider считает обращения и может отказывать.
type fakeVectorProvider struct {
	calls int64
	fail  bool
}

func (f *fakeVectorProvider) FetchBuildings(ctx context.Context) ([]Building, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.fail {
		return nil, errors.New("provider down")
	}
	return []Building{{ID: 1, Lat: 59.45, Lon: 24.75, HasCoord: true, Height: 6}}, nil
}

func (f *fakeVectorProvider) FetchRoads(ctx context.Context) ([]Road, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.fail {
		return nil, errors.New("provider down")
	}
	return []Road{{ID: 1, Category: "residential", Width: 4,
		Geometry: []geo.GeoPoint{{Lat: 59.45, Lon: 24.75}, {Lat: 59.46, Lon: 24.76}}}}, nil
}

func (f *fakeVectorProvider) FetchForests(ctx context.Context) ([]Forest, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.fail {
		return nil, errors.New("provider down")
	}
	return []Forest{}, nil
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func newTestSource(elev *fakeElevationProvider, vec *fakeVectorProvider, clock *testClock) *Source {
	mem := cache.NewMemoryCache(30*time.Minute, clock.Now)
	return NewSource(mem, elev, vec, 42)
}

func TestFetchElevationCachesResult(t *testing.T) {
	clock := &testClock{now: time.Now()}
	elev := &fakeElevationProvider{}
	src := newTestSource(elev, &fakeVectorProvider{}, clock)
	ctx := context.Background()

	r1 := src.FetchElevation(ctx)
	require.NotNil(t, r1)
	assert.Equal(t, int64(1), atomic.LoadInt64(&elev.calls))

	// Повторный вызов берёт из кеша без обращения к провайдеру
	r2 := src.FetchElevation(ctx)
	assert.Equal(t, int64(1), atomic.LoadInt64(&elev.calls))
	assert.Equal(t, r1.Samples, r2.Samples)
}

func TestCacheExpiryTriggersRefetch(t *testing.T) {
	clock := &testClock{now: time.Now()}
	elev := &fakeElevationProvider{}
	src := newTestSource(elev, &fakeVectorProvider{}, clock)
	ctx := context.Background()

	src.FetchElevation(ctx)
	assert.Equal(t, int64(1), atomic.LoadInt64(&elev.calls))

	// Запись моложе 30 минут — сети нет
	clock.now = clock.now.Add(29 * time.Minute)
	src.FetchElevation(ctx)
	assert.Equal(t, int64(1), atomic.LoadInt64(&elev.calls))

	// Запись старше 30 минут — свежий запрос
	clock.now = clock.now.Add(2 * time.Minute)
	src.FetchElevation(ctx)
	assert.Equal(t, int64(2), atomic.LoadInt64(&elev.calls))
}

func TestProviderFailureFallsBack(t *testing.T) {
	clock := &testClock{now: time.Now()}
	elev := &fakeElevationProvider{fail: true}
	vec := &fakeVectorProvider{fail: true}
	src := newTestSource(elev, vec, clock)
	ctx := context.Background()

	// Высоты: процедурный рельеф вместо ошибки
	raster := src.FetchElevation(ctx)
	require.NotNil(t, raster)
	assert.Equal(t, elevationGridSize, raster.Size)

	// Здания: встроенные ориентиры
	buildings := src.FetchBuildings(ctx)
	assert.NotEmpty(t, buildings)

	// Леса: пустой список, не nil-паника
	forests := src.FetchForests(ctx)
	assert.Empty(t, forests)
}

func TestFallbackIsNotCached(t *testing.T) {
	clock := &testClock{now: time.Now()}
	elev := &fakeElevationProvider{fail: true}
	src := newTestSource(elev, &fakeVectorProvider{}, clock)
	ctx := context.Background()

	src.FetchElevation(ctx)
	assert.Equal(t, int64(1), atomic.LoadInt64(&elev.calls))

	// Fallback не кешируется: следующий вызов снова пробует сеть
	src.FetchElevation(ctx)
	assert.Equal(t, int64(2), atomic.LoadInt64(&elev.calls))

	// Провайдер ожил — результат кешируется
	elev.fail = false
	src.FetchElevation(ctx)
	assert.Equal(t, int64(3), atomic.LoadInt64(&elev.calls))
	src.FetchElevation(ctx)
	assert.Equal(t, int64(3), atomic.LoadInt64(&elev.calls))
}

func TestLoadAllPartialFailure(t *testing.T) {
	clock := &testClock{now: time.Now()}
	elev := &fakeElevationProvider{fail: true}
	vec := &fakeVectorProvider{}
	src := newTestSource(elev, vec, clock)

	// Отказ одного провайдера не валит загрузку целиком
	data, err := src.LoadAll(context.Background())
	require.NoError(t, err)
	require.NotNil(t, data)

	assert.NotNil(t, data.Elevation) // процедурный fallback
	assert.Len(t, data.Buildings, 1)
	assert.Len(t, data.Roads, 1)
}

func TestLoadAllDeterministicWithCache(t *testing.T) {
	clock := &testClock{now: time.Now()}
	elev := &fakeElevationProvider{}
	vec := &fakeVectorProvider{}
	src := newTestSource(elev, vec, clock)
	ctx := context.Background()

	first, err := src.LoadAll(ctx)
	require.NoError(t, err)

	// Повторная загрузка с неизменным кешем идентична
	second, err := src.LoadAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.Elevation.Samples, second.Elevation.Samples)
	assert.Equal(t, first.Buildings, second.Buildings)
	assert.Equal(t, first.Roads, second.Roads)
}
