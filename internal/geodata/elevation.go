package geodata

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/image/tiff"

	"github.com/viimsigame/terrain-server/internal/geo"
)

// ElevationProvider поставляет растр высот для фиксированной области.
type ElevationProvider interface {
	FetchElevation(ctx context.Context) (*ElevationRaster, error)
}

// Размер запрашиваемой сетки высот. Квадрат обязателен:
// ElevationRaster индексируется как size x size.
const elevationGridSize = 256

// WCSElevationProvider реализует ElevationProvider через WCS сервис
// Маа-амета (Земельный департамент Эстонии). Сервис возвращает GeoTIFF;
// растр декодируется в плоский массив высот в метрах.
type WCSElevationProvider struct {
	endpoint string
	bounds   geo.GeoBounds
	client   *http.Client
}

// NewWCSElevationProvider создаёт WCS провайдер высот.
func NewWCSElevationProvider(endpoint string, bounds geo.GeoBounds, timeout time.Duration) *WCSElevationProvider {
	return &WCSElevationProvider{
		endpoint: endpoint,
		bounds:   bounds,
		client:   &http.Client{Timeout: timeout},
	}
}

// FetchElevation запрашивает и декодирует растр высот.
func (p *WCSElevationProvider) FetchElevation(ctx context.Context) (*ElevationRaster, error) {
	params := url.Values{
		"service":  {"WCS"},
		"version":  {"1.0.0"},
		"request":  {"GetCoverage"},
		"coverage": {"dem_10m"},
		"crs":      {"EPSG:4326"},
		"bbox": {fmt.Sprintf("%f,%f,%f,%f",
			p.bounds.West, p.bounds.South, p.bounds.East, p.bounds.North)},
		"width":  {fmt.Sprintf("%d", elevationGridSize)},
		"height": {fmt.Sprintf("%d", elevationGridSize)},
		"format": {"GeoTIFF"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("wcs request error: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wcs network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wcs status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("wcs read error: %w", err)
	}

	return DecodeElevationTIFF(body)
}

// DecodeElevationTIFF декодирует GeoTIFF в растр высот.
// Значения пикселей трактуются как сантиметры над уровнем моря
// (16-битный серый канал), итог — метры. Неквадратное изображение
// обрезается до квадрата по меньшей стороне.
func DecodeElevationTIFF(data []byte) (*ElevationRaster, error) {
	img, err := tiff.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("tiff decode error: %w", err)
	}

	b := img.Bounds()
	size := b.Dx()
	if b.Dy() < size {
		size = b.Dy()
	}
	if size <= 0 {
		return nil, fmt.Errorf("tiff decode error: пустое изображение %dx%d", b.Dx(), b.Dy())
	}

	// Строка 0 изображения — север; растр хранится строкой 0 на юг
	samples := make([]float64, size*size)
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			// Gray16 даёт 16-битное значение в старших битах R
			r, _, _, _ := img.At(b.Min.X+col, b.Min.Y+row).RGBA()
			meters := float64(r) / 100.0 // сантиметры -> метры

			// Отрицательных высот в прибрежной низменности не бывает,
			// артефакты измерений прижимаем к нулю
			if meters < 0 {
				meters = 0
			}
			samples[(size-1-row)*size+col] = meters
		}
	}

	return NewElevationRaster(samples)
}
