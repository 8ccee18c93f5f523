package geodata

import (
	"strconv"
)

// Таблицы оценки размеров общие для источника данных и mapstore:
// двух копий быть не должно, иначе они молча разъедутся.

// Высота здания по категории использования, в метрах.
var buildingHeightByCategory = map[string]float64{
	"house":       6,
	"residential": 8,
	"commercial":  10,
	"industrial":  12,
	"school":      8,
	"hospital":    12,
	"church":      15,
}

// DefaultBuildingHeight высота здания без каких-либо атрибутов.
const DefaultBuildingHeight = 6.0

// Ширина дороги по категории, в игровых единицах.
var roadWidthByCategory = map[string]float64{
	"motorway":     12,
	"trunk":        10,
	"primary":      8,
	"secondary":    7,
	"tertiary":     6,
	"residential":  4,
	"unclassified": 4,
	"service":      3,
	"track":        2.5,
	"path":         1.5,
	"footway":      1,
}

// DefaultRoadWidth ширина дороги неизвестной категории.
const DefaultRoadWidth = 4.0

// Метров на этаж при оценке высоты по числу этажей.
const metersPerLevel = 3.0

// EstimateBuildingHeight оценивает высоту здания по его тегам.
// Приоритет: явная высота → этажи × 3 м → категория → дефолт.
func EstimateBuildingHeight(tags map[string]string) float64 {
	if h, ok := tags["height"]; ok {
		if v, err := strconv.ParseFloat(h, 64); err == nil && v > 0 {
			return v
		}
	}

	if levels, ok := tags["building:levels"]; ok {
		if v, err := strconv.ParseFloat(levels, 64); err == nil && v > 0 {
			return v * metersPerLevel
		}
	}

	if category, ok := tags["building"]; ok {
		if h, found := buildingHeightByCategory[category]; found {
			return h
		}
	}

	return DefaultBuildingHeight
}

// RoadWidth возвращает ширину дороги для категории.
// Неизвестные категории получают ширину по умолчанию.
func RoadWidth(category string) float64 {
	if w, ok := roadWidthByCategory[category]; ok {
		return w
	}
	return DefaultRoadWidth
}
