package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/viimsigame/terrain-server/internal/api"
	"github.com/viimsigame/terrain-server/internal/cache"
	"github.com/viimsigame/terrain-server/internal/config"
	"github.com/viimsigame/terrain-server/internal/geo"
	"github.com/viimsigame/terrain-server/internal/geodata"
	"github.com/viimsigame/terrain-server/internal/logging"
	"github.com/viimsigame/terrain-server/internal/mapstore"
	"github.com/viimsigame/terrain-server/internal/observability"
	"github.com/viimsigame/terrain-server/internal/terrain"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации")
	flag.Parse()

	// .env удобен при локальной разработке; в проде его просто нет
	_ = godotenv.Load()

	if err := logging.InitDefaultLogger("terrain-server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("🗺️  Запуск Viimsi Terrain Server...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("❌ Ошибка чтения конфигурации: %v", err)
		log.Fatalf("❌ Ошибка чтения конфигурации: %v", err)
	}

	restPort := cfg.Server.GetRESTPort()
	metricsPort := cfg.Server.GetMetricsPort()
	logging.Info("📡 Конфигурация: мир %.0fx%.0f, REST=:%d, метрики=:%d, TTL кеша=%s",
		cfg.World.WorldSize, cfg.World.WorldSize, restPort, metricsPort, cfg.Cache.TTL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === OBSERVABILITY ===
	shutdownTelemetry, err := observability.InitTelemetry(ctx, "terrain-server")
	if err != nil {
		// Трассировка опциональна: без коллектора сервис работает
		logging.Warn("OpenTelemetry недоступен: %v", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	// === КЕШ ГЕОДАННЫХ ===
	datasetCache, closeCache := buildCache(cfg)
	defer closeCache()

	// === ИСТОЧНИКИ ГЕОДАННЫХ ===
	elevation := geodata.NewWCSElevationProvider(
		cfg.Providers.ElevationURL, cfg.World.Bounds, cfg.Providers.RequestTimeout)
	vector := geodata.NewOverpassProvider(
		cfg.Providers.OverpassURL, cfg.World.Bounds, cfg.Providers.RequestTimeout)

	source := geodata.NewSource(datasetCache, elevation, vector, cfg.Providers.FallbackSeed)

	// === ХРАНИЛИЩЕ КАРТЫ ===
	transform, err := geo.NewTransform(cfg.World.Bounds, cfg.World.WorldSize)
	if err != nil {
		logging.Error("❌ Неверные границы региона: %v", err)
		log.Fatalf("❌ Неверные границы региона: %v", err)
	}
	store := mapstore.NewStore(source, transform)

	// === ТЕРРЕЙН ===
	levels := make([]terrain.LODLevel, 0, len(cfg.World.LODLevels))
	for _, l := range cfg.World.LODLevels {
		levels = append(levels, terrain.LODLevel{
			Resolution:      l.Resolution,
			MaxViewDistance: l.MaxViewDistance,
		})
	}
	builder, err := terrain.NewBuilder(
		cfg.World.WorldSize, cfg.World.HeightScale, levels, cfg.World.EnableFlatnessFix)
	if err != nil {
		logging.Error("❌ Неверная конфигурация уровней детализации: %v", err)
		log.Fatalf("❌ Неверная конфигурация уровней детализации: %v", err)
	}

	// === ПЕРВИЧНАЯ ЗАГРУЗКА ===
	logging.Info("⏳ Загрузка геоданных региона...")
	loadCtx, loadCancel := context.WithTimeout(ctx, 2*time.Minute)
	snapshot, err := store.Load(loadCtx)
	loadCancel()
	if err != nil {
		// Загрузка не падает из-за внешних сервисов (есть fallback),
		// ошибка здесь означает отмену контекста
		logging.Error("❌ Первичная загрузка карты: %v", err)
		log.Fatalf("❌ Первичная загрузка карты: %v", err)
	}
	builder.Build(snapshot.Elevation)

	// === REST API ===
	restServer := api.NewRestServer(api.Config{
		Port:    restPort,
		Store:   store,
		Source:  source,
		Builder: builder,
	})

	go func() {
		if err := restServer.Start(); err != nil {
			logging.Error("❌ REST сервер остановлен с ошибкой: %v", err)
		}
	}()

	metricsServer := api.NewMetricsServer(metricsPort)
	go func() {
		if err := metricsServer.Start(); err != nil {
			logging.Error("❌ Сервер метрик остановлен с ошибкой: %v", err)
		}
	}()

	logging.Info("✅ Сервис запущен")
	logging.Info("   🌐 REST API: http://localhost:%d", restPort)
	logging.Info("   ❤️  Health check: http://localhost:%d/health", restPort)
	logging.Info("   📈 Метрики: http://localhost:%d/metrics", metricsPort)

	// Ждём сигнала завершения
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logging.Info("📡 Получен сигнал %v, завершение работы...", sig)

	// === GRACEFUL SHUTDOWN ===
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := restServer.Stop(shutdownCtx); err != nil {
		logging.Error("Остановка REST сервера: %v", err)
	}
	if err := metricsServer.Stop(shutdownCtx); err != nil {
		logging.Error("Остановка сервера метрик: %v", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logging.Error("Остановка телеметрии: %v", err)
	}

	logging.Info("👋 Сервис остановлен")
}

// buildCache собирает слоёный кеш по конфигурации: память всегда,
// Redis, Badger и NATS подключаются только если заданы адреса.
func buildCache(cfg *config.Config) (cache.DatasetCache, func()) {
	var redisLayer *cache.RedisCache
	if cfg.Cache.RedisURL != "" {
		rc, err := cache.NewRedisCache(
			cfg.Cache.RedisURL, cfg.Cache.RedisPassword, cfg.Cache.RedisDB,
			cfg.Cache.TTL, time.Now)
		if err != nil {
			logging.Warn("Redis недоступен, слой пропущен: %v", err)
		} else {
			redisLayer = rc
			logging.Info("💾 Redis кеш подключен: %s", cfg.Cache.RedisURL)
		}
	}

	var coldLayer cache.ColdStorage
	if cfg.Cache.BadgerPath != "" {
		bs, err := cache.NewBadgerStorage(cfg.Cache.BadgerPath)
		if err != nil {
			logging.Warn("Badger недоступен, слой пропущен: %v", err)
		} else {
			coldLayer = bs
			logging.Info("💾 Badger хранилище открыто: %s", cfg.Cache.BadgerPath)
		}
	}

	var invalidator cache.Invalidator
	if cfg.Cache.NatsURL != "" {
		ni, err := cache.NewNATSInvalidator(cfg.Cache.NatsURL, uuid.NewString())
		if err != nil {
			logging.Warn("NATS недоступен, рассылка инвалидации отключена: %v", err)
		} else {
			invalidator = ni
			logging.Info("📨 NATS инвалидация подключена: %s", cfg.Cache.NatsURL)
		}
	}

	layered := cache.NewLayeredCache(cfg.Cache.TTL, time.Now, redisLayer, coldLayer, invalidator)
	return layered, func() {
		if err := layered.Close(); err != nil {
			logging.Error("Закрытие кеша: %v", err)
		}
	}
}
