package geodata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viimsigame/terrain-server/internal/geo"
)

func TestFallbackElevationDeterministic(t *testing.T) {
	a := GenerateFallbackElevation(64, 42)
	b := GenerateFallbackElevation(64, 42)

	// Один сид — побитно одинаковый рельеф
	require.Equal(t, a.Size, b.Size)
	assert.Equal(t, a.Samples, b.Samples)

	// Другой сид — другой рельеф
	c := GenerateFallbackElevation(64, 43)
	assert.NotEqual(t, a.Samples, c.Samples)
}

func TestFallbackElevationShape(t *testing.T) {
	r := GenerateFallbackElevation(64, 1)

	require.Equal(t, 64, r.Size)
	require.Len(t, r.Samples, 64*64)

	min, max := r.MinMax()
	assert.GreaterOrEqual(t, min, 0.0, "высоты не должны быть отрицательными")
	assert.LessOrEqual(t, max, 45.0, "прибрежная низменность не выше ~40 м")
	assert.Greater(t, max, 5.0, "рельеф не должен быть плоским")
}

func TestFallbackBuildingsInsideBounds(t *testing.T) {
	bounds := geo.DefaultViimsiBounds

	buildings := FallbackBuildings()
	require.NotEmpty(t, buildings)

	for _, b := range buildings {
		assert.True(t, b.HasCoord, "ориентир %s без координаты", b.Name)
		assert.True(t, bounds.Contains(b.Lat, b.Lon), "ориентир %s вне области", b.Name)
		assert.Greater(t, b.Height, 0.0)
	}
}

func TestFallbackRoadsGeometry(t *testing.T) {
	roads := FallbackRoads()
	require.NotEmpty(t, roads)

	for _, r := range roads {
		assert.GreaterOrEqual(t, len(r.Geometry), 2, "дорога %s без геометрии", r.Name)
		assert.Equal(t, RoadWidth(r.Category), r.Width)
	}
}

func TestFallbackForestsEmpty(t *testing.T) {
	assert.Empty(t, FallbackForests())
}

func TestElevationRasterValidation(t *testing.T) {
	// Точный квадрат принимается
	r, err := NewElevationRaster(make([]float64, 16))
	require.NoError(t, err)
	assert.Equal(t, 4, r.Size)

	// Не квадрат отклоняется
	_, err = NewElevationRaster(make([]float64, 15))
	assert.Error(t, err)
}

func TestElevationRasterAtClamps(t *testing.T) {
	r, err := NewElevationRaster([]float64{1, 2, 3, 4})
	require.NoError(t, err)

	assert.Equal(t, 1.0, r.At(0, 0))
	assert.Equal(t, 4.0, r.At(1, 1))

	// Индексы за пределами сетки прижимаются к краю
	assert.Equal(t, 1.0, r.At(-5, -5))
	assert.Equal(t, 4.0, r.At(10, 10))
}
