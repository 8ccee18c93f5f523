package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viimsigame/terrain-server/internal/geo"
	"github.com/viimsigame/terrain-server/internal/geodata"
	"github.com/viimsigame/terrain-server/internal/mapstore"
)

// staticLoader отдаёт пустой набор геоданных без сети.
type staticLoader struct{}

func (staticLoader) LoadAll(ctx context.Context) (*geodata.RawMapData, error) {
	return &geodata.RawMapData{}, nil
}

// newBareServer собирает сервер без middleware: прометеевские метрики
// регистрируются в глобальном регистре и не переживают второй вызов
// NewRestServer в одном тестовом процессе.
func newBareServer(t *testing.T) *RestServer {
	t.Helper()
	transform, err := geo.NewTransform(geo.DefaultViimsiBounds, 2000)
	require.NoError(t, err)
	return &RestServer{store: mapstore.NewStore(staticLoader{}, transform)}
}

func healthContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)
	return c, rec
}

func TestHealthWhileLoading(t *testing.T) {
	rs := newBareServer(t)

	c, rec := healthContext(t)
	rs.handleHealth(c)

	// До первой загрузки сервис сообщает о недоступности
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "loading")
}

func TestHealthAfterLoad(t *testing.T) {
	rs := newBareServer(t)

	_, err := rs.store.Load(context.Background())
	require.NoError(t, err)

	c, rec := healthContext(t)
	rs.handleHealth(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}
