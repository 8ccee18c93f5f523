package mapstore

import (
	"math"
	"sort"
)

// Пространственные запросы работают по последнему успешному снимку.
// До первой загрузки все запросы возвращают пустые/нулевые значения.

// Сколько ближайших объектов возвращает LocationInfo.
const nearestLimit = 3

// BuildingsInRadius возвращает здания в радиусе r от точки (x, z).
// Фильтр по евклидову расстоянию до игровой позиции здания.
func (s *Store) BuildingsInRadius(x, z, r float64) []WorldBuilding {
	current := s.Current()
	if current == nil {
		return nil
	}

	result := make([]WorldBuilding, 0)
	for _, b := range current.Buildings {
		dx := b.X - x
		dz := b.Z - z
		if dx*dx+dz*dz <= r*r {
			result = append(result, b)
		}
	}
	return result
}

// RoadsInRadius возвращает дороги, у которых хотя бы одна вершина
// попадает в радиус r от точки (x, z).
func (s *Store) RoadsInRadius(x, z, r float64) []WorldRoad {
	current := s.Current()
	if current == nil {
		return nil
	}

	result := make([]WorldRoad, 0)
	for _, road := range current.Roads {
		for _, p := range road.Points {
			dx := p.World.X - x
			dz := p.World.Z - z
			if dx*dx+dz*dz <= r*r {
				result = append(result, road)
				break
			}
		}
	}
	return result
}

// HeightAt возвращает высоту рельефа в игровой точке без интерполяции:
// координаты прижимаются к краям карты высот, берётся ближайшая ячейка
// с округлением вниз. Без данных о высотах — ноль.
// Интерполированный вариант живёт в terrain.MeshBuilder.
func (s *Store) HeightAt(x, z float64) float64 {
	current := s.Current()
	if current == nil || current.Elevation == nil {
		return 0
	}

	raster := current.Elevation
	worldSize := s.transform.WorldSize()

	u := clamp01((x + worldSize/2.0) / worldSize)
	v := clamp01((z + worldSize/2.0) / worldSize)

	col := int(u * float64(raster.Size-1))
	row := int(v * float64(raster.Size-1))

	return raster.At(row, col)
}

// IsInRegion проверяет принадлежность географической точки области
// (границы включительно).
func (s *Store) IsInRegion(lat, lon float64) bool {
	return s.transform.Bounds().Contains(lat, lon)
}

// LocationInfo собирает сводку о точке мира: обратное геокодирование,
// высота, ближайшие здания и дороги, флаг принадлежности региону.
func (s *Store) LocationInfo(x, z float64) LocationInfo {
	g := s.transform.ToGeo(x, z)

	info := LocationInfo{
		Geo:      g,
		Height:   s.HeightAt(x, z),
		InRegion: s.transform.Bounds().Contains(g.Lat, g.Lon),
	}

	current := s.Current()
	if current == nil {
		return info
	}

	info.NearestBuildings = nearestBuildings(current.Buildings, x, z, nearestLimit)
	info.NearestRoads = nearestRoads(current.Roads, x, z, nearestLimit)
	return info
}

// nearestBuildings возвращает до limit зданий, отсортированных по удалению.
func nearestBuildings(buildings []WorldBuilding, x, z float64, limit int) []WorldBuilding {
	sorted := make([]WorldBuilding, len(buildings))
	copy(sorted, buildings)

	sort.Slice(sorted, func(i, j int) bool {
		return distSq(sorted[i].X, sorted[i].Z, x, z) < distSq(sorted[j].X, sorted[j].Z, x, z)
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// nearestRoads возвращает до limit дорог по удалению ближайшей вершины.
func nearestRoads(roads []WorldRoad, x, z float64, limit int) []WorldRoad {
	type roadDist struct {
		road WorldRoad
		d    float64
	}

	dists := make([]roadDist, 0, len(roads))
	for _, r := range roads {
		if len(r.Points) == 0 {
			continue
		}
		best := math.MaxFloat64
		for _, p := range r.Points {
			if d := distSq(p.World.X, p.World.Z, x, z); d < best {
				best = d
			}
		}
		dists = append(dists, roadDist{road: r, d: best})
	}

	sort.Slice(dists, func(i, j int) bool { return dists[i].d < dists[j].d })

	if len(dists) > limit {
		dists = dists[:limit]
	}

	result := make([]WorldRoad, 0, len(dists))
	for _, rd := range dists {
		result = append(result, rd.road)
	}
	return result
}

func distSq(x1, z1, x2, z2 float64) float64 {
	dx := x1 - x2
	dz := z1 - z2
	return dx*dx + dz*dz
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
