package geodata

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/viimsigame/terrain-server/internal/cache"
	"github.com/viimsigame/terrain-server/internal/logging"
)

// Имена датасетов — ключи кеша.
const (
	DatasetElevation = "elevation"
	DatasetBuildings = "buildings"
	DatasetRoads     = "roads"
	DatasetForests   = "forests"
)

// Source загружает сырые геоданные области из внешних провайдеров
// с кешированием и детерминированным fallback-ом на каждый датасет.
//
// Протокол каждого датасета:
//  1. действительная запись кеша — вернуть без сети;
//  2. запрос к провайдеру, разбор, запись в кеш, вернуть;
//  3. любая ошибка — лог и встроенный резервный датасет.
//
// Резервные данные в кеш не пишутся: следующий вызов снова
// попробует сеть.
type Source struct {
	cache        cache.DatasetCache
	elevation    ElevationProvider
	vector       VectorProvider
	fallbackSeed int64
	log          *logging.Logger
}

// NewSource создаёт источник геоданных.
func NewSource(c cache.DatasetCache, elevation ElevationProvider, vector VectorProvider, fallbackSeed int64) *Source {
	return &Source{
		cache:        c,
		elevation:    elevation,
		vector:       vector,
		fallbackSeed: fallbackSeed,
		log:          logging.GetGeoDataLogger(),
	}
}

// LoadAll загружает все четыре датасета параллельно.
// Отказ одного датасета не прерывает остальные: в агрегате он
// замещается nil-растром или пустым списком. Ошибка возвращается
// только при отмене контекста.
func (s *Source) LoadAll(ctx context.Context) (*RawMapData, error) {
	result := &RawMapData{}

	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		result.Elevation = s.FetchElevation(ctx)
	}()
	go func() {
		defer wg.Done()
		result.Buildings = s.FetchBuildings(ctx)
	}()
	go func() {
		defer wg.Done()
		result.Roads = s.FetchRoads(ctx)
	}()
	go func() {
		defer wg.Done()
		result.Forests = s.FetchForests(ctx)
	}()

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.log.Info("Геоданные загружены: высоты=%v, зданий=%d, дорог=%d, лесов=%d",
		result.Elevation != nil, len(result.Buildings), len(result.Roads), len(result.Forests))
	return result, nil
}

// FetchElevation возвращает растр высот: кеш → WCS → процедурный fallback.
func (s *Source) FetchElevation(ctx context.Context) *ElevationRaster {
	if data, err := s.cache.Get(ctx, DatasetElevation); err == nil {
		var raster ElevationRaster
		if err := json.Unmarshal(data, &raster); err == nil {
			s.log.Debug("Растр высот взят из кеша")
			return &raster
		}
		s.log.Warn("Повреждённая запись кеша %s, перезагрузка", DatasetElevation)
	}

	raster, err := s.elevation.FetchElevation(ctx)
	if err != nil {
		s.log.Warn("Провайдер высот недоступен (%v), процедурный рельеф", err)
		return GenerateFallbackElevation(elevationGridSize, s.fallbackSeed)
	}

	s.storeInCache(ctx, DatasetElevation, raster)
	return raster
}

// FetchBuildings возвращает здания: кеш → Overpass → встроенные ориентиры.
func (s *Source) FetchBuildings(ctx context.Context) []Building {
	if data, err := s.cache.Get(ctx, DatasetBuildings); err == nil {
		var buildings []Building
		if err := json.Unmarshal(data, &buildings); err == nil {
			s.log.Debug("Здания взяты из кеша: %d", len(buildings))
			return buildings
		}
		s.log.Warn("Повреждённая запись кеша %s, перезагрузка", DatasetBuildings)
	}

	buildings, err := s.vector.FetchBuildings(ctx)
	if err != nil {
		s.log.Warn("Провайдер зданий недоступен (%v), встроенные ориентиры", err)
		return FallbackBuildings()
	}

	s.storeInCache(ctx, DatasetBuildings, buildings)
	return buildings
}

// FetchRoads возвращает дороги: кеш → Overpass → встроенные дороги.
func (s *Source) FetchRoads(ctx context.Context) []Road {
	if data, err := s.cache.Get(ctx, DatasetRoads); err == nil {
		var roads []Road
		if err := json.Unmarshal(data, &roads); err == nil {
			s.log.Debug("Дороги взяты из кеша: %d", len(roads))
			return roads
		}
		s.log.Warn("Повреждённая запись кеша %s, перезагрузка", DatasetRoads)
	}

	roads, err := s.vector.FetchRoads(ctx)
	if err != nil {
		s.log.Warn("Провайдер дорог недоступен (%v), встроенные дороги", err)
		return FallbackRoads()
	}

	s.storeInCache(ctx, DatasetRoads, roads)
	return roads
}

// FetchForests возвращает леса: кеш → Overpass → пустой список.
func (s *Source) FetchForests(ctx context.Context) []Forest {
	if data, err := s.cache.Get(ctx, DatasetForests); err == nil {
		var forests []Forest
		if err := json.Unmarshal(data, &forests); err == nil {
			s.log.Debug("Леса взяты из кеша: %d", len(forests))
			return forests
		}
		s.log.Warn("Повреждённая запись кеша %s, перезагрузка", DatasetForests)
	}

	forests, err := s.vector.FetchForests(ctx)
	if err != nil {
		s.log.Warn("Провайдер лесов недоступен (%v), леса опущены", err)
		return FallbackForests()
	}

	s.storeInCache(ctx, DatasetForests, forests)
	return forests
}

// InvalidateCache сбрасывает кеш всех датасетов.
func (s *Source) InvalidateCache(ctx context.Context) error {
	return s.cache.InvalidateAll(ctx)
}

// CacheStats возвращает статистику кеша датасетов.
func (s *Source) CacheStats() cache.CacheStats {
	return s.cache.Stats()
}

// storeInCache сериализует значение в кеш. Ошибка кеша не фатальна:
// данные уже получены, страдает только следующий запрос.
func (s *Source) storeInCache(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		s.log.Error("Ошибка сериализации датасета %s: %v", key, err)
		return
	}
	if err := s.cache.Set(ctx, key, data); err != nil {
		s.log.Warn("Не удалось закешировать датасет %s: %v", key, err)
	}
}
