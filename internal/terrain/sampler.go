package terrain

import (
	"math"

	"github.com/viimsigame/terrain-server/internal/geodata"
)

// Sample выполняет билинейную выборку из карты высот.
// u, v — нормализованные координаты, прижимаются к [0, 1]; дробная
// позиция в сетке интерполируется по четырём соседним отсчётам
// (линейная смесь по каждой оси, индексы прижимаются к краям сетки,
// без заворота). В точных узлах сетки возвращается сырое значение
// без смешивания.
//
// Это центральная числовая процедура ядра: по ней строится и
// поверхность меша, и HeightAt, расхождение между ними недопустимо.
func Sample(u, v float64, raster *geodata.ElevationRaster) float64 {
	if raster == nil || raster.Size == 0 {
		return 0
	}

	u = clamp01(u)
	v = clamp01(v)

	// Непрерывные координаты сетки [0, size-1]
	gx := u * float64(raster.Size-1)
	gz := v * float64(raster.Size-1)

	x0 := int(math.Floor(gx))
	z0 := int(math.Floor(gz))
	x1 := x0 + 1
	z1 := z0 + 1

	fx := gx - float64(x0)
	fz := gz - float64(z0)

	// At прижимает индексы к краям сетки
	h00 := raster.At(z0, x0)
	h10 := raster.At(z0, x1)
	h01 := raster.At(z1, x0)
	h11 := raster.At(z1, x1)

	top := h00 + (h10-h00)*fx
	bottom := h01 + (h11-h01)*fx
	return top + (bottom-top)*fz
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
