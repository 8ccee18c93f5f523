package geodata

import (
	"fmt"
	"math"
)

// ElevationRaster представляет квадратную сетку высот в метрах.
// Хранение плоское, построчное: индекс = row*Size + col.
// После создания растр не изменяется.
type ElevationRaster struct {
	Samples []float64 `json:"samples"`
	Size    int       `json:"size"`
}

// NewElevationRaster создаёт растр из плоского массива.
// Длина массива обязана быть точным квадратом — иначе индексация
// построчной сетки не определена.
func NewElevationRaster(samples []float64) (*ElevationRaster, error) {
	size := int(math.Sqrt(float64(len(samples))))
	if size*size != len(samples) {
		return nil, fmt.Errorf("длина растра %d не является точным квадратом", len(samples))
	}
	return &ElevationRaster{Samples: samples, Size: size}, nil
}

// At возвращает значение высоты в ячейке (row, col).
// Индексы за пределами сетки прижимаются к ближайшему краю.
func (r *ElevationRaster) At(row, col int) float64 {
	if row < 0 {
		row = 0
	}
	if row >= r.Size {
		row = r.Size - 1
	}
	if col < 0 {
		col = 0
	}
	if col >= r.Size {
		col = r.Size - 1
	}
	return r.Samples[row*r.Size+col]
}

// MinMax возвращает минимальную и максимальную высоту растра.
func (r *ElevationRaster) MinMax() (min, max float64) {
	if len(r.Samples) == 0 {
		return 0, 0
	}
	min, max = r.Samples[0], r.Samples[0]
	for _, v := range r.Samples[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}
