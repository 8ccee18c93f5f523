package geo

import (
	"fmt"
)

// GeoBounds представляет прямоугольную область в географических координатах (WGS84).
// Инвариант: North > South и East > West; проверяется при создании.
type GeoBounds struct {
	North float64 `yaml:"north" json:"north"`
	South float64 `yaml:"south" json:"south"`
	East  float64 `yaml:"east" json:"east"`
	West  float64 `yaml:"west" json:"west"`
}

// Границы волости Виймси по умолчанию.
var DefaultViimsiBounds = GeoBounds{
	North: 59.5167,
	South: 59.4167,
	East:  24.8333,
	West:  24.7000,
}

// NewGeoBounds создаёт границы области с проверкой инвариантов.
// Возвращает ошибку, если область вырождена (North <= South или East <= West).
func NewGeoBounds(north, south, east, west float64) (GeoBounds, error) {
	b := GeoBounds{North: north, South: south, East: east, West: west}
	if err := b.Validate(); err != nil {
		return GeoBounds{}, err
	}
	return b, nil
}

// Validate проверяет корректность границ.
func (b GeoBounds) Validate() error {
	if b.North <= b.South {
		return fmt.Errorf("некорректные границы: north (%.4f) <= south (%.4f)", b.North, b.South)
	}
	if b.East <= b.West {
		return fmt.Errorf("некорректные границы: east (%.4f) <= west (%.4f)", b.East, b.West)
	}
	return nil
}

// Center возвращает центральную точку области.
func (b GeoBounds) Center() (lat, lon float64) {
	return (b.North + b.South) / 2.0, (b.East + b.West) / 2.0
}

// Contains проверяет, находится ли точка внутри границ (включительно).
func (b GeoBounds) Contains(lat, lon float64) bool {
	return lat >= b.South && lat <= b.North && lon >= b.West && lon <= b.East
}

// LatSpan возвращает протяжённость области по широте в градусах.
func (b GeoBounds) LatSpan() float64 {
	return b.North - b.South
}

// LonSpan возвращает протяжённость области по долготе в градусах.
func (b GeoBounds) LonSpan() float64 {
	return b.East - b.West
}
