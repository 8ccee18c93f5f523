package terrain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viimsigame/terrain-server/internal/geodata"
)

// Эталонный растр 4x4 из спецификации выборки.
func referenceRaster(t *testing.T) *geodata.ElevationRaster {
	t.Helper()
	r, err := geodata.NewElevationRaster([]float64{
		0, 10, 20, 30,
		5, 15, 25, 35,
		10, 20, 30, 40,
		15, 25, 35, 45,
	})
	require.NoError(t, err)
	return r
}

func testLevels() []LODLevel {
	return []LODLevel{
		{Resolution: 16, MaxViewDistance: 300},
		{Resolution: 8, MaxViewDistance: 700},
		{Resolution: 4, MaxViewDistance: 1200},
	}
}

func TestSampleCenter(t *testing.T) {
	r := referenceRaster(t)

	// Центр сетки 4x4: смесь 15, 25, 20, 30
	assert.InDelta(t, 22.5, Sample(0.5, 0.5, r), 1e-9)
}

func TestSampleGridCorners(t *testing.T) {
	r := referenceRaster(t)

	// В точных узлах сетки значение сырое, без смешивания
	assert.Equal(t, 0.0, Sample(0, 0, r))
	assert.Equal(t, 45.0, Sample(1, 1, r))
	assert.Equal(t, 30.0, Sample(1, 0, r))
	assert.Equal(t, 15.0, Sample(0, 1, r))
}

func TestSampleClampsOutOfRange(t *testing.T) {
	r := referenceRaster(t)

	// Выход за [0,1] прижимается к краю
	assert.Equal(t, Sample(0, 1, r), Sample(-0.1, 1.1, r))
	assert.Equal(t, Sample(0, 0, r), Sample(-5, -5, r))
	assert.Equal(t, Sample(1, 1, r), Sample(2, 2, r))
}

func TestSampleBilinearMidpoints(t *testing.T) {
	r := referenceRaster(t)

	// Середина между узлами (0,0)=0 и (0,1)=10 по оси u
	gx := 0.5 / 3.0 // пол-ячейки в нормализованных координатах
	assert.InDelta(t, 5.0, Sample(gx, 0, r), 1e-9)
}

func TestSampleNilRaster(t *testing.T) {
	assert.Equal(t, 0.0, Sample(0.5, 0.5, nil))
}

func TestBuilderValidation(t *testing.T) {
	// Пустой список уровней отклоняется
	_, err := NewBuilder(2000, 1.0, nil, false)
	assert.Error(t, err)

	// Невозрастающие дистанции отклоняются
	_, err = NewBuilder(2000, 1.0, []LODLevel{
		{Resolution: 16, MaxViewDistance: 700},
		{Resolution: 8, MaxViewDistance: 300},
	}, false)
	assert.Error(t, err)
}

func TestBuildMeshes(t *testing.T) {
	b, err := NewBuilder(2000, 1.0, testLevels(), false)
	require.NoError(t, err)

	b.Build(referenceRaster(t))

	meshes := b.GetAllMeshes()
	require.Len(t, meshes, 3)

	for i, m := range meshes {
		verts := testLevels()[i].Resolution + 1
		assert.Len(t, m.Vertices, verts*verts)
		assert.Len(t, m.Indices, testLevels()[i].Resolution*testLevels()[i].Resolution*6)
	}

	// Виден ровно один меш — самый детальный
	assert.True(t, meshes[0].Visible)
	assert.False(t, meshes[1].Visible)
	assert.False(t, meshes[2].Visible)
}

func TestHeightAtMatchesMeshSurface(t *testing.T) {
	b, err := NewBuilder(2000, 1.0, testLevels(), false)
	require.NoError(t, err)
	b.Build(referenceRaster(t))

	// Высота вершин меша обязана совпадать с HeightAt в тех же точках
	mesh := b.GetMesh(0)
	require.NotNil(t, mesh)
	for _, v := range mesh.Vertices {
		assert.InDelta(t, b.HeightAt(v.X(), v.Z()), v.Y(), 1e-9)
	}
}

func TestHeightScale(t *testing.T) {
	b, err := NewBuilder(2000, 2.0, testLevels(), false)
	require.NoError(t, err)
	b.Build(referenceRaster(t))

	// Северо-восточный угол: 45 * масштаб 2
	assert.InDelta(t, 90.0, b.HeightAt(1000, 1000), 1e-9)
}

func TestSelectLOD(t *testing.T) {
	b, err := NewBuilder(2000, 1.0, testLevels(), false)
	require.NoError(t, err)

	assert.Equal(t, 0, b.SelectLOD(0))
	assert.Equal(t, 0, b.SelectLOD(300))
	assert.Equal(t, 1, b.SelectLOD(301))
	assert.Equal(t, 2, b.SelectLOD(1200))

	// За пределами всех порогов — самый грубый уровень
	assert.Equal(t, 2, b.SelectLOD(99999))
}

func TestSwitchLODVisibility(t *testing.T) {
	b, err := NewBuilder(2000, 1.0, testLevels(), false)
	require.NoError(t, err)
	b.Build(referenceRaster(t))

	// 800 > 700, значит второй уровень уже не подходит
	b.SwitchLOD(800)
	assert.Equal(t, 2, b.ActiveLOD())
	assert.Equal(t, int64(1), b.LODSwitches())

	// Ровно один видимый меш после любого переключения
	visible := 0
	for _, m := range b.GetAllMeshes() {
		if m.Visible {
			visible++
		}
	}
	assert.Equal(t, 1, visible)

	// Переключение на тот же уровень не инкрементирует счётчик
	b.SwitchLOD(800)
	assert.Equal(t, int64(1), b.LODSwitches())

	b.SwitchLOD(100)
	assert.Equal(t, 0, b.ActiveLOD())
	assert.Equal(t, int64(2), b.LODSwitches())
}

func TestPlaceholderWithoutRaster(t *testing.T) {
	b, err := NewBuilder(2000, 1.0, testLevels(), false)
	require.NoError(t, err)
	b.Build(nil)

	// Процедурная заглушка: центральная возвышенность, не плоскость
	center := b.HeightAt(0, 0)
	edge := b.HeightAt(-1000, -1000)
	assert.Greater(t, center, edge)
	assert.Greater(t, center, 10.0)

	// Меши сгенерированы и не вырождены
	mesh := b.GetMesh(0)
	require.NotNil(t, mesh)
	min, max := mesh.Vertices[0].Y(), mesh.Vertices[0].Y()
	for _, v := range mesh.Vertices {
		if v.Y() < min {
			min = v.Y()
		}
		if v.Y() > max {
			max = v.Y()
		}
	}
	assert.Greater(t, max-min, 5.0)
}

func TestFlatnessCorrection(t *testing.T) {
	// Почти плоский растр: разброс 1 м при пороге 50
	flat := make([]float64, 16)
	for i := range flat {
		flat[i] = 10.0 + float64(i%2)
	}
	raster, err := geodata.NewElevationRaster(flat)
	require.NoError(t, err)

	// С коррекцией поверхность получает заметный разброс
	b, err := NewBuilder(2000, 1.0, testLevels(), true)
	require.NoError(t, err)
	b.Build(raster)

	mesh := b.GetMesh(0)
	min, max := mesh.Vertices[0].Y(), mesh.Vertices[0].Y()
	for _, v := range mesh.Vertices {
		if v.Y() < min {
			min = v.Y()
		}
		if v.Y() > max {
			max = v.Y()
		}
	}
	assert.Greater(t, max-min, 10.0)

	// Без коррекции рельеф остаётся плоским
	plain, err := NewBuilder(2000, 1.0, testLevels(), false)
	require.NoError(t, err)
	plain.Build(raster)

	mesh = plain.GetMesh(0)
	min, max = mesh.Vertices[0].Y(), mesh.Vertices[0].Y()
	for _, v := range mesh.Vertices {
		if v.Y() < min {
			min = v.Y()
		}
		if v.Y() > max {
			max = v.Y()
		}
	}
	assert.Less(t, max-min, 2.0)
}
