package mapstore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/viimsigame/terrain-server/internal/geo"
	"github.com/viimsigame/terrain-server/internal/geodata"
	"github.com/viimsigame/terrain-server/internal/logging"
)

// Loader поставляет сырые геоданные. Реализуется geodata.Source;
// в тестах подменяется фейком.
type Loader interface {
	LoadAll(ctx context.Context) (*geodata.RawMapData, error)
}

// Store владеет единственным снимком карты и сериализует загрузки.
//
// Одновременные вызовы Load разделяют один запрос к источнику
// (single-flight через singleflight.Group: второй вызов подключается
// к результату первого, никакого опроса флага по таймеру).
type Store struct {
	loader    Loader
	transform *geo.Transform

	group   singleflight.Group
	loading int32 // для диагностики

	mu      sync.RWMutex
	current *MapData

	log *logging.Logger
}

// NewStore создаёт хранилище карты.
func NewStore(loader Loader, transform *geo.Transform) *Store {
	return &Store{
		loader:    loader,
		transform: transform,
		log:       logging.GetComponentLogger("mapstore"),
	}
}

// Load загружает карту. Параллельные вызовы получают один и тот же
// снимок от одного обращения к источнику. При ошибке снимок не
// публикуется, состояние загрузки сбрасывается, ошибка уходит
// вызывающему.
func (s *Store) Load(ctx context.Context) (*MapData, error) {
	v, err, _ := s.group.Do("load", func() (interface{}, error) {
		atomic.StoreInt32(&s.loading, 1)
		defer atomic.StoreInt32(&s.loading, 0)

		return s.doLoad(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*MapData), nil
}

// doLoad выполняет загрузку и трансформацию, публикует снимок.
func (s *Store) doLoad(ctx context.Context) (*MapData, error) {
	started := time.Now()

	raw, err := s.loader.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки геоданных: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("источник геоданных вернул пустой результат")
	}

	snapshot := &MapData{
		ID:        uuid.New(),
		Elevation: raw.Elevation,
		Buildings: s.transformBuildings(raw.Buildings),
		Roads:     s.transformRoads(raw.Roads),
		Forests:   s.transformForests(raw.Forests),
		Bounds:    s.transform.Bounds(),
		Timestamp: time.Now(),
	}

	// Атомарная замена: читатели никогда не видят полусобранный снимок
	s.mu.Lock()
	s.current = snapshot
	s.mu.Unlock()

	s.log.Info("Снимок карты %s собран за %v: зданий=%d, дорог=%d, лесов=%d",
		snapshot.ID, time.Since(started), len(snapshot.Buildings), len(snapshot.Roads), len(snapshot.Forests))
	return snapshot, nil
}

// Current возвращает последний успешный снимок или nil.
func (s *Store) Current() *MapData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// transformBuildings переводит здания в игровые координаты.
// Источник позиции разрешается один раз: явная координата, первая
// точка контура или начало координат.
func (s *Store) transformBuildings(buildings []geodata.Building) []WorldBuilding {
	result := make([]WorldBuilding, 0, len(buildings))
	for _, b := range buildings {
		wb := WorldBuilding{Building: b}

		switch {
		case b.HasCoord:
			p := s.transform.ToWorld(b.Lat, b.Lon)
			wb.X, wb.Z = p.X, p.Z
			wb.PosSource = PositionDirect
		case len(b.Outline) > 0:
			first := b.Outline[0]
			p := s.transform.ToWorld(first.Lat, first.Lon)
			wb.X, wb.Z = p.X, p.Z
			wb.PosSource = PositionFromOutline
		default:
			// Здание без координат ставится в начало координат, не выбрасывается
			wb.PosSource = PositionDefault
		}

		// Коробка здания стоит на земле: центр на половине высоты
		wb.Y = b.Height / 2.0

		result = append(result, wb)
	}
	return result
}

// transformRoads переводит каждую вершину дороги, сохраняя исходные
// географические координаты рядом с игровыми.
func (s *Store) transformRoads(roads []geodata.Road) []WorldRoad {
	result := make([]WorldRoad, 0, len(roads))
	for _, r := range roads {
		wr := WorldRoad{Road: r}
		wr.Points = make([]RoadPoint, 0, len(r.Geometry))

		for _, g := range r.Geometry {
			wr.Points = append(wr.Points, RoadPoint{
				World: s.transform.ToWorld(g.Lat, g.Lon),
				Geo:   g,
			})
		}

		// Ширина всегда из общей таблицы
		wr.Width = geodata.RoadWidth(r.Category)
		result = append(result, wr)
	}
	return result
}

// transformForests переводит ограничивающий прямоугольник полигона.
func (s *Store) transformForests(forests []geodata.Forest) []WorldForest {
	result := make([]WorldForest, 0, len(forests))
	for _, f := range forests {
		if len(f.Polygon) == 0 {
			continue
		}

		minLat, maxLat := f.Polygon[0].Lat, f.Polygon[0].Lat
		minLon, maxLon := f.Polygon[0].Lon, f.Polygon[0].Lon
		for _, p := range f.Polygon[1:] {
			if p.Lat < minLat {
				minLat = p.Lat
			}
			if p.Lat > maxLat {
				maxLat = p.Lat
			}
			if p.Lon < minLon {
				minLon = p.Lon
			}
			if p.Lon > maxLon {
				maxLon = p.Lon
			}
		}

		result = append(result, WorldForest{
			Forest: f,
			Min:    s.transform.ToWorld(minLat, minLon),
			Max:    s.transform.ToWorld(maxLat, maxLon),
		})
	}
	return result
}

// Stats возвращает диагностику хранилища.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()

	stats := Stats{
		Loading: atomic.LoadInt32(&s.loading) == 1,
	}
	if current != nil {
		stats.Loaded = true
		stats.SnapshotID = current.ID.String()
		stats.Buildings = len(current.Buildings)
		stats.Roads = len(current.Roads)
		stats.Forests = len(current.Forests)
		stats.HasElevation = current.Elevation != nil
		stats.LoadedAt = current.Timestamp
	}
	return stats
}
