package geodata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/viimsigame/terrain-server/internal/geo"
)

// VectorProvider поставляет векторные датасеты (здания, дороги, леса)
// для фиксированной области.
type VectorProvider interface {
	FetchBuildings(ctx context.Context) ([]Building, error)
	FetchRoads(ctx context.Context) ([]Road, error)
	FetchForests(ctx context.Context) ([]Forest, error)
}

// OverpassProvider реализует VectorProvider через Overpass API.
// Три датасета отличаются только тег-фильтром запроса.
type OverpassProvider struct {
	endpoint string
	bounds   geo.GeoBounds
	client   *http.Client
	timeout  time.Duration
}

// NewOverpassProvider создаёт провайдер Overpass для указанной области.
func NewOverpassProvider(endpoint string, bounds geo.GeoBounds, timeout time.Duration) *OverpassProvider {
	return &OverpassProvider{
		endpoint: endpoint,
		bounds:   bounds,
		client:   &http.Client{Timeout: timeout},
		timeout:  timeout,
	}
}

// overpassResponse соответствует формату ответа Overpass API.
type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Lat      float64           `json:"lat,omitempty"`
	Lon      float64           `json:"lon,omitempty"`
	Center   *overpassCenter   `json:"center,omitempty"`
	Geometry []overpassCoord   `json:"geometry,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type overpassCoord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// query выполняет Overpass запрос с указанным фильтром.
func (p *OverpassProvider) query(ctx context.Context, filter string) (*overpassResponse, error) {
	bbox := fmt.Sprintf("%f,%f,%f,%f", p.bounds.South, p.bounds.West, p.bounds.North, p.bounds.East)
	q := fmt.Sprintf("[out:json][timeout:%d];(%s);out center geom;",
		int(p.timeout.Seconds()), strings.ReplaceAll(filter, "{{bbox}}", bbox))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint,
		strings.NewReader(url.Values{"data": {q}}.Encode()))
	if err != nil {
		return nil, fmt.Errorf("overpass request error: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("overpass read error: %w", err)
	}

	var parsed overpassResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("overpass parse error: %w", err)
	}
	return &parsed, nil
}

// FetchBuildings загружает здания области (фильтр building=*).
func (p *OverpassProvider) FetchBuildings(ctx context.Context) ([]Building, error) {
	resp, err := p.query(ctx, `way["building"]({{bbox}});relation["building"]({{bbox}})`)
	if err != nil {
		return nil, err
	}

	buildings := make([]Building, 0, len(resp.Elements))
	for _, el := range resp.Elements {
		b := Building{
			ID:   el.ID,
			Tags: el.Tags,
			Name: el.Tags["name"],
		}

		// Координата центра, если Overpass её посчитал
		if el.Center != nil {
			b.Lat = el.Center.Lat
			b.Lon = el.Center.Lon
			b.HasCoord = true
		} else if el.Type == "node" {
			b.Lat = el.Lat
			b.Lon = el.Lon
			b.HasCoord = true
		}

		for _, c := range el.Geometry {
			b.Outline = append(b.Outline, geo.GeoPoint{Lat: c.Lat, Lon: c.Lon})
		}

		b.Height = EstimateBuildingHeight(el.Tags)
		buildings = append(buildings, b)
	}
	return buildings, nil
}

// FetchRoads загружает дороги области (фильтр highway=*).
func (p *OverpassProvider) FetchRoads(ctx context.Context) ([]Road, error) {
	resp, err := p.query(ctx, `way["highway"]({{bbox}})`)
	if err != nil {
		return nil, err
	}

	roads := make([]Road, 0, len(resp.Elements))
	for _, el := range resp.Elements {
		if len(el.Geometry) < 2 {
			continue // дорога без геометрии бесполезна
		}

		r := Road{
			ID:       el.ID,
			Name:     el.Tags["name"],
			Category: el.Tags["highway"],
		}
		for _, c := range el.Geometry {
			r.Geometry = append(r.Geometry, geo.GeoPoint{Lat: c.Lat, Lon: c.Lon})
		}
		r.Width = RoadWidth(r.Category)
		roads = append(roads, r)
	}
	return roads, nil
}

// FetchForests загружает лесные массивы (landuse=forest или natural=wood).
func (p *OverpassProvider) FetchForests(ctx context.Context) ([]Forest, error) {
	resp, err := p.query(ctx, `way["landuse"="forest"]({{bbox}});way["natural"="wood"]({{bbox}})`)
	if err != nil {
		return nil, err
	}

	forests := make([]Forest, 0, len(resp.Elements))
	for _, el := range resp.Elements {
		if len(el.Geometry) < 3 {
			continue // не полигон
		}

		f := Forest{
			ID:   el.ID,
			Name: el.Tags["name"],
		}
		for _, c := range el.Geometry {
			f.Polygon = append(f.Polygon, geo.GeoPoint{Lat: c.Lat, Lon: c.Lon})
		}
		forests = append(forests, f)
	}
	return forests, nil
}
