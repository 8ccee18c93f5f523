package geodata

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

func encodeTIFF(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, img, nil))
	return buf.Bytes()
}

func TestDecodeElevationTIFF(t *testing.T) {
	// Верхняя строка изображения — север; значения в сантиметрах
	img := image.NewGray16(image.Rect(0, 0, 2, 2))
	img.SetGray16(0, 0, color.Gray16{Y: 100})
	img.SetGray16(1, 0, color.Gray16{Y: 200})
	img.SetGray16(0, 1, color.Gray16{Y: 300})
	img.SetGray16(1, 1, color.Gray16{Y: 400})

	raster, err := DecodeElevationTIFF(encodeTIFF(t, img))
	require.NoError(t, err)
	require.Equal(t, 2, raster.Size)

	// Строка 0 растра — юг (нижняя строка изображения), метры
	assert.Equal(t, []float64{3, 4, 1, 2}, raster.Samples)
}

func TestDecodeElevationTIFFCropsToSquare(t *testing.T) {
	// Изображение 3x2: [[1,2,3],[4,5,6]] в метрах
	img := image.NewGray16(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			img.SetGray16(x, y, color.Gray16{Y: uint16((y*3 + x + 1) * 100)})
		}
	}

	raster, err := DecodeElevationTIFF(encodeTIFF(t, img))
	require.NoError(t, err)

	// Обрезка до квадрата по меньшей стороне: левые две колонки
	require.Equal(t, 2, raster.Size)
	assert.Equal(t, []float64{4, 5, 1, 2}, raster.Samples)
}

func TestDecodeElevationTIFFGarbage(t *testing.T) {
	_, err := DecodeElevationTIFF([]byte("definitely not a tiff"))
	assert.Error(t, err)
}
