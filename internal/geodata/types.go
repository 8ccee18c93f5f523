package geodata

import (
	"github.com/viimsigame/terrain-server/internal/geo"
)

// Building представляет здание в географических координатах,
// как его вернул провайдер. Координата может отсутствовать —
// тогда позиция выводится из геометрии контура (см. mapstore).
type Building struct {
	ID       int64             `json:"id"`
	Name     string            `json:"name,omitempty"`
	Lat      float64           `json:"lat,omitempty"`
	Lon      float64           `json:"lon,omitempty"`
	HasCoord bool              `json:"has_coord"`
	Outline  []geo.GeoPoint    `json:"outline,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
	Height   float64           `json:"height"`
}

// Road представляет дорогу как ломаную в географических координатах.
type Road struct {
	ID       int64          `json:"id"`
	Name     string         `json:"name,omitempty"`
	Category string         `json:"category"`
	Geometry []geo.GeoPoint `json:"geometry"`
	Width    float64        `json:"width"`
}

// Forest представляет лесной массив как полигон в географических координатах.
type Forest struct {
	ID      int64          `json:"id"`
	Name    string         `json:"name,omitempty"`
	Polygon []geo.GeoPoint `json:"polygon"`
}

// RawMapData объединяет сырые датасеты одной загрузки.
// Координаты только географические; преобразование в игровой мир
// выполняет mapstore.
type RawMapData struct {
	Elevation *ElevationRaster `json:"elevation"`
	Buildings []Building       `json:"buildings"`
	Roads     []Road           `json:"roads"`
	Forests   []Forest         `json:"forests"`
}
