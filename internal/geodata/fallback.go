package geodata

import (
	"math"
	"math/rand"

	"github.com/viimsigame/terrain-server/internal/geo"
	"github.com/viimsigame/terrain-server/internal/util"
)

// Встроенные резервные датасеты. Используются, когда внешний провайдер
// недоступен: игра должна подняться и без сети. Резервные данные
// геометрически корректны, но не являются реальными измерениями.

// GenerateFallbackElevation генерирует процедурный растр высот size x size.
// Рельеф детерминирован для одного сида: градиент от северо-западного
// угла (удаление от берега), две октавы синусоидального шума и мелкий
// перлиновский джиттер. Высоты прижаты к нулю снизу, диапазон около [0, 40] м.
func GenerateFallbackElevation(size int, seed int64) *ElevationRaster {
	noise := util.NewNoiseGenerator(seed)
	rng := rand.New(rand.NewSource(seed))

	samples := make([]float64, size*size)
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			nx := float64(col) / float64(size-1)
			nz := float64(row) / float64(size-1)

			// Берег в северо-западном углу: высота растёт с удалением от него
			distFromShore := math.Sqrt(nx*nx+nz*nz) / math.Sqrt2
			height := distFromShore * 25.0

			// Две октавы низкочастотного рельефа
			height += 8.0 * math.Sin(nx*math.Pi*2.0) * math.Cos(nz*math.Pi*1.5)
			height += 4.0 * math.Sin(nx*math.Pi*5.0+1.3) * math.Sin(nz*math.Pi*4.0+0.7)

			// Мелкая детализация: перлин плюс капля случайности
			height += 2.0 * (noise.Noise2D(nx*6.0, nz*6.0) - 0.5)
			height += rng.Float64() * 0.5

			if height < 0 {
				height = 0
			}
			samples[row*size+col] = height
		}
	}

	raster, _ := NewElevationRaster(samples) // size*size всегда точный квадрат
	return raster
}

// FallbackBuildings возвращает короткий список известных ориентиров
// волости Виймси для работы без сети.
func FallbackBuildings() []Building {
	landmarks := []struct {
		name     string
		lat, lon float64
		category string
	}{
		{"Viimsi Keskus", 59.5053, 24.8084, "commercial"},
		{"Viimsi Püha Jaakobi kirik", 59.5030, 24.8030, "church"},
		{"Viimsi Kool", 59.5060, 24.8120, "school"},
		{"Viimsi mõis", 59.5005, 24.8065, "residential"},
		{"Rannarahva Muuseum", 59.5010, 24.8055, "commercial"},
		{"Haabneeme staadion", 59.5090, 24.8000, "commercial"},
	}

	buildings := make([]Building, 0, len(landmarks))
	for i, lm := range landmarks {
		tags := map[string]string{"building": lm.category, "name": lm.name}
		buildings = append(buildings, Building{
			ID:       -int64(i + 1), // отрицательные ID, чтобы не пересекаться с OSM
			Name:     lm.name,
			Lat:      lm.lat,
			Lon:      lm.lon,
			HasCoord: true,
			Tags:     tags,
			Height:   EstimateBuildingHeight(tags),
		})
	}
	return buildings
}

// FallbackRoads возвращает основные дороги волости для работы без сети.
func FallbackRoads() []Road {
	routes := []struct {
		name     string
		category string
		points   []geo.GeoPoint
	}{
		{
			name:     "Rohuneeme tee",
			category: "secondary",
			points: []geo.GeoPoint{
				{Lat: 59.4950, Lon: 24.7980},
				{Lat: 59.5050, Lon: 24.8020},
				{Lat: 59.5150, Lon: 24.8060},
			},
		},
		{
			name:     "Randvere tee",
			category: "secondary",
			points: []geo.GeoPoint{
				{Lat: 59.4900, Lon: 24.7900},
				{Lat: 59.4950, Lon: 24.8100},
				{Lat: 59.5000, Lon: 24.8300},
			},
		},
		{
			name:     "Pärnamäe tee",
			category: "tertiary",
			points: []geo.GeoPoint{
				{Lat: 59.4700, Lon: 24.7800},
				{Lat: 59.4850, Lon: 24.7900},
				{Lat: 59.4950, Lon: 24.7980},
			},
		},
		{
			name:     "Muuga tee",
			category: "residential",
			points: []geo.GeoPoint{
				{Lat: 59.4800, Lon: 24.8100},
				{Lat: 59.4850, Lon: 24.8250},
			},
		},
	}

	roads := make([]Road, 0, len(routes))
	for i, rt := range routes {
		roads = append(roads, Road{
			ID:       -int64(i + 1),
			Name:     rt.name,
			Category: rt.category,
			Geometry: rt.points,
			Width:    RoadWidth(rt.category),
		})
	}
	return roads
}

// FallbackForests возвращает пустой список: выдумывать лесные массивы
// нет смысла, их отсутствие не ломает геймплей.
func FallbackForests() []Forest {
	return []Forest{}
}
