package util

import (
	"github.com/aquilax/go-perlin"
)

// NoiseGenerator обёртка над шумом Перлина с фиксированным сидом.
// Один генератор на компонент: процедурный ландшафт должен быть
// детерминированным для одного и того же сида.
type NoiseGenerator struct {
	p *perlin.Perlin
}

// NewNoiseGenerator создаёт генератор шума Перлина с указанным сидом
func NewNoiseGenerator(seed int64) *NoiseGenerator {
	alpha := 2.0  // Сглаживание шума
	beta := 2.0   // Частота шума
	n := int32(3) // Количество октав
	return &NoiseGenerator{p: perlin.NewPerlin(alpha, beta, n, seed)}
}

// Noise2D возвращает значение шума для указанных координат (от 0 до 1)
func (g *NoiseGenerator) Noise2D(x, y float64) float64 {
	// Значение шума лежит в диапазоне от -1 до 1
	noise := g.p.Noise2D(x, y)

	// Преобразуем в диапазон от 0 до 1
	return (noise + 1.0) / 2.0
}
