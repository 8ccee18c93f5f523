package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/viimsigame/terrain-server/internal/geodata"
	"github.com/viimsigame/terrain-server/internal/logging"
	"github.com/viimsigame/terrain-server/internal/mapstore"
	"github.com/viimsigame/terrain-server/internal/middleware"
	"github.com/viimsigame/terrain-server/internal/terrain"
)

// RestServer — REST API поверх хранилища карты и построителя террейна.
// Отдаёт данные клиентам и диагностику операторам.
type RestServer struct {
	router  *gin.Engine
	store   *mapstore.Store
	source  *geodata.Source
	port    string
	metrics *ServerMetrics
	log     *logging.Logger

	httpServer *http.Server

	// Построитель не потокобезопасен; перезагрузка и чтение мешей
	// идут под одним мьютексом
	mu      sync.Mutex
	builder *terrain.Builder
}

// Config содержит зависимости REST сервера.
type Config struct {
	Port    int
	Store   *mapstore.Store
	Source  *geodata.Source
	Builder *terrain.Builder
}

// NewRestServer создает REST API сервер с observability middleware.
func NewRestServer(config Config) *RestServer {
	if config.Port == 0 {
		config.Port = 8088
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New() // без стандартного logger/recovery
	router.Use(gin.Recovery())

	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	router.Use(otelgin.Middleware("terrain_api"))

	promMw := middleware.NewPrometheusMiddleware("terrain")
	router.Use(promMw.Handler())

	server := &RestServer{
		router:  router,
		store:   config.Store,
		source:  config.Source,
		builder: config.Builder,
		port:    fmt.Sprintf(":%d", config.Port),
		metrics: NewServerMetrics(),
		log:     logging.GetAPILogger(),
	}

	server.setupRoutes()
	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// CORS: браузерный игровой клиент ходит с другого origin
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	api := rs.router.Group("/api/terrain")
	{
		api.GET("/height", rs.handleHeight)
		api.GET("/location", rs.handleLocation)
		api.GET("/buildings", rs.handleBuildings)
		api.GET("/roads", rs.handleRoads)
		api.GET("/map", rs.handleMap)
		api.GET("/lod", rs.handleLOD)
		api.GET("/mesh/:level", rs.handleMesh)
		api.GET("/stats", rs.handleStats)
		api.POST("/reload", rs.handleReload)
	}

	rs.router.GET("/health", rs.handleHealth)
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// queryFloat читает обязательный float-параметр запроса.
func queryFloat(c *gin.Context, name string) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Отсутствует параметр " + name,
		})
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверное значение параметра " + name,
		})
		return 0, false
	}
	return v, true
}

// handleHeight возвращает высоту поверхности в игровой точке.
func (rs *RestServer) handleHeight(c *gin.Context) {
	x, ok := queryFloat(c, "x")
	if !ok {
		return
	}
	z, ok := queryFloat(c, "z")
	if !ok {
		return
	}

	rs.mu.Lock()
	height := rs.builder.HeightAt(x, z)
	rs.mu.Unlock()

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Высота получена",
		Data: map[string]interface{}{
			"x":      x,
			"z":      z,
			"height": height,
		},
	})
}

// handleLocation возвращает составную информацию о точке мира.
func (rs *RestServer) handleLocation(c *gin.Context) {
	x, ok := queryFloat(c, "x")
	if !ok {
		return
	}
	z, ok := queryFloat(c, "z")
	if !ok {
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Информация о точке",
		Data:    rs.store.LocationInfo(x, z),
	})
}

// handleBuildings возвращает здания в радиусе от точки.
func (rs *RestServer) handleBuildings(c *gin.Context) {
	x, ok := queryFloat(c, "x")
	if !ok {
		return
	}
	z, ok := queryFloat(c, "z")
	if !ok {
		return
	}
	radius, ok := queryFloat(c, "radius")
	if !ok {
		return
	}

	buildings := rs.store.BuildingsInRadius(x, z, radius)
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Здания получены",
		Data: map[string]interface{}{
			"buildings": buildings,
			"total":     len(buildings),
		},
	})
}

// handleRoads возвращает дороги в радиусе от точки.
func (rs *RestServer) handleRoads(c *gin.Context) {
	x, ok := queryFloat(c, "x")
	if !ok {
		return
	}
	z, ok := queryFloat(c, "z")
	if !ok {
		return
	}
	radius, ok := queryFloat(c, "radius")
	if !ok {
		return
	}

	roads := rs.store.RoadsInRadius(x, z, radius)
	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Дороги получены",
		Data: map[string]interface{}{
			"roads": roads,
			"total": len(roads),
		},
	})
}

// handleMap возвращает целиком текущий снимок карты.
func (rs *RestServer) handleMap(c *gin.Context) {
	snapshot := rs.store.Current()
	if snapshot == nil {
		c.JSON(http.StatusServiceUnavailable, GenericResponse{
			Success: false,
			Message: "Карта ещё не загружена",
		})
		return
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Снимок карты",
		Data:    snapshot,
	})
}

// handleLOD переключает активный уровень детализации по дистанции камеры.
func (rs *RestServer) handleLOD(c *gin.Context) {
	distance, ok := queryFloat(c, "distance")
	if !ok {
		return
	}

	rs.mu.Lock()
	level := rs.builder.SwitchLOD(distance)
	mesh := rs.builder.GetMesh(level)
	switches := rs.builder.LODSwitches()
	rs.mu.Unlock()

	data := map[string]interface{}{
		"level":    level,
		"switches": switches,
	}
	if mesh != nil {
		data["resolution"] = mesh.Resolution
		data["max_view_distance"] = mesh.MaxViewDistance
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Уровень детализации выбран",
		Data:    data,
	})
}

// handleMesh возвращает меш уровня детализации. По умолчанию только
// метаданные; ?full=true добавляет вершины и индексы.
func (rs *RestServer) handleMesh(c *gin.Context) {
	level, err := strconv.Atoi(c.Param("level"))
	if err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный уровень детализации",
		})
		return
	}

	rs.mu.Lock()
	mesh := rs.builder.GetMesh(level)
	rs.mu.Unlock()

	if mesh == nil {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Уровень детализации не найден",
		})
		return
	}

	data := map[string]interface{}{
		"level":             level,
		"resolution":        mesh.Resolution,
		"max_view_distance": mesh.MaxViewDistance,
		"visible":           mesh.Visible,
		"vertex_count":      len(mesh.Vertices),
		"index_count":       len(mesh.Indices),
	}
	if c.Query("full") == "true" {
		data["vertices"] = mesh.Vertices
		data["indices"] = mesh.Indices
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Меш получен",
		Data:    data,
	})
}

// handleStats возвращает диагностику: хранилище, кеш, процесс.
func (rs *RestServer) handleStats(c *gin.Context) {
	memoryMB, _ := rs.metrics.GetMemoryUsage()
	cpuPercent, _ := rs.metrics.GetCPUUsage()

	rs.mu.Lock()
	activeLOD := rs.builder.ActiveLOD()
	lodSwitches := rs.builder.LODSwitches()
	rs.mu.Unlock()

	stats := map[string]interface{}{
		"store": rs.store.Stats(),
		"cache": rs.source.CacheStats(),
		"terrain": map[string]interface{}{
			"active_lod":   activeLOD,
			"lod_switches": lodSwitches,
		},
		"server": map[string]interface{}{
			"uptime":      rs.metrics.GetUptime(),
			"memory_mb":   fmt.Sprintf("%.2f", memoryMB),
			"cpu_percent": fmt.Sprintf("%.2f", cpuPercent),
			"server_time": time.Now().Unix(),
		},
		"memory_details": rs.metrics.GetDetailedMemoryStats(),
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

// handleReload сбрасывает кеш геоданных, перезагружает карту и
// пересобирает террейн.
func (rs *RestServer) handleReload(c *gin.Context) {
	ctx := c.Request.Context()

	if err := rs.source.InvalidateCache(ctx); err != nil {
		rs.log.Warn("Сброс кеша при перезагрузке: %v", err)
	}

	snapshot, err := rs.store.Load(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Ошибка перезагрузки карты: " + err.Error(),
		})
		return
	}

	rs.mu.Lock()
	rs.builder.Build(snapshot.Elevation)
	rs.mu.Unlock()

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Карта перезагружена",
		Data: map[string]interface{}{
			"snapshot_id": snapshot.ID,
			"buildings":   len(snapshot.Buildings),
			"roads":       len(snapshot.Roads),
			"forests":     len(snapshot.Forests),
		},
	})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	status := "ok"
	code := http.StatusOK
	if rs.store.Current() == nil {
		// Карта ещё не загружена: балансировщик не должен слать трафик
		status = "loading"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status": status,
		"time":   time.Now().Unix(),
	})
}

// Start запускает REST сервер. Блокирует до остановки.
func (rs *RestServer) Start() error {
	rs.httpServer = &http.Server{
		Addr:              rs.port,
		Handler:           rs.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	rs.log.Info("REST API слушает %s", rs.port)
	if err := rs.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop останавливает сервер, дождавшись активных запросов.
func (rs *RestServer) Stop(ctx context.Context) error {
	if rs.httpServer == nil {
		return nil
	}
	return rs.httpServer.Shutdown(ctx)
}
