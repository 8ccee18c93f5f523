package geodata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateBuildingHeight(t *testing.T) {
	// Два этажа по 3 метра
	assert.Equal(t, 6.0, EstimateBuildingHeight(map[string]string{"building:levels": "2"}))

	// Категория из таблицы
	assert.Equal(t, 15.0, EstimateBuildingHeight(map[string]string{"building": "church"}))
	assert.Equal(t, 8.0, EstimateBuildingHeight(map[string]string{"building": "school"}))
	assert.Equal(t, 12.0, EstimateBuildingHeight(map[string]string{"building": "hospital"}))

	// Без атрибутов — дефолт
	assert.Equal(t, 6.0, EstimateBuildingHeight(map[string]string{}))

	// Явная высота приоритетнее всего
	assert.Equal(t, 21.5, EstimateBuildingHeight(map[string]string{
		"height":          "21.5",
		"building:levels": "2",
		"building":        "church",
	}))

	// Этажи приоритетнее категории
	assert.Equal(t, 9.0, EstimateBuildingHeight(map[string]string{
		"building:levels": "3",
		"building":        "church",
	}))

	// Мусор в атрибутах игнорируется
	assert.Equal(t, 6.0, EstimateBuildingHeight(map[string]string{"height": "tall"}))
}

func TestRoadWidth(t *testing.T) {
	assert.Equal(t, 12.0, RoadWidth("motorway"))
	assert.Equal(t, 4.0, RoadWidth("residential"))
	assert.Equal(t, 1.0, RoadWidth("footway"))
	assert.Equal(t, 1.5, RoadWidth("path"))

	// Неизвестная категория получает ширину по умолчанию
	assert.Equal(t, 4.0, RoadWidth("totally-unknown"))
	assert.Equal(t, 4.0, RoadWidth(""))
}
