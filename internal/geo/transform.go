package geo

// WorldPoint представляет точку в игровых координатах.
// Мир — квадрат со стороной worldSize, центрированный в начале координат:
// обе оси лежат в диапазоне [-worldSize/2, +worldSize/2].
type WorldPoint struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

// GeoPoint представляет точку в географических координатах.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Transform выполняет двунаправленное преобразование между географическими
// координатами и игровым миром. Преобразование линейное: долгота отображается
// на ось X, широта — на ось Z. Точки вне границ не обрезаются, а линейно
// экстраполируются; обрезка — ответственность вызывающего кода.
type Transform struct {
	bounds    GeoBounds
	worldSize float64
}

// NewTransform создаёт преобразование для указанных границ и размера мира.
func NewTransform(bounds GeoBounds, worldSize float64) (*Transform, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	return &Transform{bounds: bounds, worldSize: worldSize}, nil
}

// Bounds возвращает границы области преобразования.
func (t *Transform) Bounds() GeoBounds {
	return t.bounds
}

// WorldSize возвращает размер стороны игрового мира.
func (t *Transform) WorldSize() float64 {
	return t.worldSize
}

// ToWorld преобразует географические координаты в игровые.
// Долгота нормализуется по [West, East] в [0,1], широта по [South, North],
// затем [0,1] отображается в [-worldSize/2, +worldSize/2].
func (t *Transform) ToWorld(lat, lon float64) WorldPoint {
	nx := (lon - t.bounds.West) / t.bounds.LonSpan()
	nz := (lat - t.bounds.South) / t.bounds.LatSpan()

	return WorldPoint{
		X: nx*t.worldSize - t.worldSize/2.0,
		Z: nz*t.worldSize - t.worldSize/2.0,
	}
}

// ToGeo преобразует игровые координаты обратно в географические.
// Точное обращение ToWorld: для любой точки внутри границ
// ToGeo(ToWorld(lat, lon)) восстанавливает исходные координаты
// с точностью лучше 0.001 градуса.
func (t *Transform) ToGeo(x, z float64) GeoPoint {
	nx := (x + t.worldSize/2.0) / t.worldSize
	nz := (z + t.worldSize/2.0) / t.worldSize

	return GeoPoint{
		Lat: t.bounds.South + nz*t.bounds.LatSpan(),
		Lon: t.bounds.West + nx*t.bounds.LonSpan(),
	}
}
