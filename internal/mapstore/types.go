package mapstore

import (
	"time"

	"github.com/google/uuid"
	"github.com/viimsigame/terrain-server/internal/geo"
	"github.com/viimsigame/terrain-server/internal/geodata"
)

// PositionSource указывает, откуда взята игровая позиция здания.
// Вариант разрешается один раз при трансформации, а не проверяется
// заново в каждом месте использования.
type PositionSource int

const (
	// PositionDirect — у здания была явная координата
	PositionDirect PositionSource = iota
	// PositionFromOutline — позиция взята из первой точки контура
	PositionFromOutline
	// PositionDefault — ни координаты, ни контура; начало координат
	PositionDefault
)

// String возвращает строковое представление источника позиции
func (p PositionSource) String() string {
	switch p {
	case PositionDirect:
		return "direct"
	case PositionFromOutline:
		return "outline"
	case PositionDefault:
		return "default"
	default:
		return "unknown"
	}
}

// WorldBuilding — здание с игровыми координатами.
// Географические данные сохраняются рядом с игровыми: трансформация
// дополняет запись, ничего не отбрасывая.
type WorldBuilding struct {
	geodata.Building

	// Игровая позиция; Y — половина высоты, чтобы коробка здания
	// стояла на земле, а не парила и не тонула
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`

	PosSource PositionSource `json:"pos_source"`
}

// RoadPoint — вершина дороги в двух системах координат.
type RoadPoint struct {
	World geo.WorldPoint `json:"world"`
	Geo   geo.GeoPoint   `json:"geo"`
}

// WorldRoad — дорога с игровыми координатами каждой вершины.
type WorldRoad struct {
	geodata.Road

	Points []RoadPoint `json:"points"`
}

// WorldForest — лесной массив в игровых координатах.
// Трансформируется только ограничивающий прямоугольник полигона
// (два противоположных угла) — осознанное упрощение, не ошибка.
type WorldForest struct {
	geodata.Forest

	Min geo.WorldPoint `json:"min"`
	Max geo.WorldPoint `json:"max"`
}

// MapData — один согласованный снимок карты. Заменяется целиком
// при каждой успешной загрузке; читатели видят либо старый полный
// снимок, либо новый, но никогда смесь.
type MapData struct {
	ID        uuid.UUID                `json:"id"`
	Elevation *geodata.ElevationRaster `json:"elevation"`
	Buildings []WorldBuilding          `json:"buildings"`
	Roads     []WorldRoad              `json:"roads"`
	Forests   []WorldForest            `json:"forests"`
	Bounds    geo.GeoBounds            `json:"bounds"`
	Timestamp time.Time                `json:"timestamp"`
}

// LocationInfo — составной ответ о точке мира: обратное геокодирование,
// высота, ближайшие объекты и принадлежность региону.
type LocationInfo struct {
	Geo              geo.GeoPoint    `json:"geo"`
	Height           float64         `json:"height"`
	InRegion         bool            `json:"in_region"`
	NearestBuildings []WorldBuilding `json:"nearest_buildings"`
	NearestRoads     []WorldRoad     `json:"nearest_roads"`
}

// Stats — диагностика хранилища карты.
type Stats struct {
	Loaded       bool      `json:"loaded"`
	Loading      bool      `json:"loading"`
	SnapshotID   string    `json:"snapshot_id,omitempty"`
	Buildings    int       `json:"buildings"`
	Roads        int       `json:"roads"`
	Forests      int       `json:"forests"`
	HasElevation bool      `json:"has_elevation"`
	LoadedAt     time.Time `json:"loaded_at"`
}
