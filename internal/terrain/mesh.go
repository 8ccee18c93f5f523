package terrain

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/viimsigame/terrain-server/internal/geodata"
	"github.com/viimsigame/terrain-server/internal/logging"
)

// Порог "слишком плоского" рельефа в масштабированных единицах высоты.
// Совершенно плоский меш выглядит для игрока сломанным.
const flatnessThreshold = 50.0

// LODLevel описывает один уровень детализации.
type LODLevel struct {
	Resolution      int     // сегментов сетки по стороне
	MaxViewDistance float64 // дистанция, до которой уровень активен
}

// Mesh — сетка террейна одного уровня детализации.
// Вершины в игровых координатах, высота уже умножена на heightScale.
type Mesh struct {
	Resolution      int
	MaxViewDistance float64
	Visible         bool
	Vertices        []mgl64.Vec3
	Indices         []uint32
}

// Builder строит N мешей террейна из одного растра высот и отвечает
// на запросы высоты и выбора уровня детализации.
type Builder struct {
	worldSize   float64
	heightScale float64
	levels      []LODLevel
	flatnessFix bool

	raster *geodata.ElevationRaster
	meshes []*Mesh

	// Вторичная вариация включается, если реальный рельеф плоский
	variationActive bool

	activeLOD   int
	lodSwitches int64

	log *logging.Logger
}

// NewBuilder создаёт построитель террейна.
// levels обязаны идти в порядке возрастания MaxViewDistance.
func NewBuilder(worldSize, heightScale float64, levels []LODLevel, flatnessFix bool) (*Builder, error) {
	if len(levels) == 0 {
		return nil, fmt.Errorf("нужен хотя бы один уровень детализации")
	}
	for i := 1; i < len(levels); i++ {
		if levels[i].MaxViewDistance <= levels[i-1].MaxViewDistance {
			return nil, fmt.Errorf("уровни детализации должны идти по возрастанию дистанции")
		}
	}

	return &Builder{
		worldSize:   worldSize,
		heightScale: heightScale,
		levels:      levels,
		flatnessFix: flatnessFix,
		log:         logging.GetTerrainLogger(),
	}, nil
}

// Build генерирует все уровни детализации из растра высот.
// При raster == nil строится процедурная заглушка: меш не должен
// быть визуально вырожденным даже без реальных данных.
func (b *Builder) Build(raster *geodata.ElevationRaster) {
	b.raster = raster
	b.variationActive = false

	if raster == nil {
		b.log.Warn("Растр высот отсутствует, строится процедурная поверхность")
	} else if b.flatnessFix {
		min, max := raster.MinMax()
		if (max-min)*b.heightScale < flatnessThreshold {
			// Реальные данные, но рельеф читается как сломанный —
			// добавляем вторичную вариацию поверх
			b.variationActive = true
			b.log.Info("Рельеф слишком плоский (разброс %.1f), добавлена вариация", (max-min)*b.heightScale)
		}
	}

	b.meshes = make([]*Mesh, 0, len(b.levels))
	for _, level := range b.levels {
		b.meshes = append(b.meshes, b.buildMesh(level))
	}

	// Виден ровно один уровень
	b.activeLOD = 0
	b.meshes[0].Visible = true

	b.log.Info("Террейн собран: %d уровней детализации, растр=%v, вариация=%v",
		len(b.meshes), raster != nil, b.variationActive)
}

// buildMesh строит сетку одного уровня детализации.
func (b *Builder) buildMesh(level LODLevel) *Mesh {
	segments := level.Resolution
	verts := segments + 1

	mesh := &Mesh{
		Resolution:      segments,
		MaxViewDistance: level.MaxViewDistance,
		Vertices:        make([]mgl64.Vec3, 0, verts*verts),
		Indices:         make([]uint32, 0, segments*segments*6),
	}

	half := b.worldSize / 2.0
	for row := 0; row < verts; row++ {
		for col := 0; col < verts; col++ {
			x := -half + b.worldSize*float64(col)/float64(segments)
			z := -half + b.worldSize*float64(row)/float64(segments)
			mesh.Vertices = append(mesh.Vertices, mgl64.Vec3{x, b.HeightAt(x, z), z})
		}
	}

	for row := 0; row < segments; row++ {
		for col := 0; col < segments; col++ {
			topLeft := uint32(row*verts + col)
			topRight := topLeft + 1
			bottomLeft := uint32((row+1)*verts + col)
			bottomRight := bottomLeft + 1

			mesh.Indices = append(mesh.Indices,
				topLeft, bottomLeft, topRight,
				topRight, bottomLeft, bottomRight)
		}
	}

	return mesh
}

// HeightAt возвращает высоту поверхности в игровой точке.
// Использует тот же билинейный путь и heightScale, что и генерация
// меша: геймплей (посадка игрока, физика) обязан совпадать с
// видимой поверхностью.
func (b *Builder) HeightAt(x, z float64) float64 {
	u := (x + b.worldSize/2.0) / b.worldSize
	v := (z + b.worldSize/2.0) / b.worldSize

	if b.raster == nil {
		return b.placeholderHeight(clamp01(u), clamp01(v))
	}

	h := Sample(u, v, b.raster) * b.heightScale
	if b.variationActive {
		h += b.secondaryVariation(clamp01(u), clamp01(v))
	}
	return h
}

// placeholderHeight — процедурная поверхность без реальных данных:
// центральная возвышенность плюс слоистая синусоидальная рябь.
func (b *Builder) placeholderHeight(u, v float64) float64 {
	dx := u - 0.5
	dz := v - 0.5
	dist := math.Sqrt(dx*dx+dz*dz) * 2.0 // 0 в центре, ~1 на краю

	mound := 30.0 * math.Max(0, 1.0-dist*dist)

	ripple := 4.0*math.Sin(u*math.Pi*6.0)*math.Cos(v*math.Pi*5.0) +
		2.0*math.Sin(u*math.Pi*13.0+0.8)*math.Sin(v*math.Pi*11.0+0.3)

	h := (mound + ripple) * b.heightScale
	if h < 0 {
		h = 0
	}
	return h
}

// secondaryVariation — косметическая добавка к слишком плоскому рельефу.
// Детерминированная функция координат: меш и HeightAt получают
// одинаковую поверхность.
func (b *Builder) secondaryVariation(u, v float64) float64 {
	return 12.0*math.Sin(u*math.Pi*3.0)*math.Cos(v*math.Pi*2.5) +
		5.0*math.Sin(u*math.Pi*7.0+1.1)*math.Sin(v*math.Pi*6.0+0.4)
}
