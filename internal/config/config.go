package config

import (
	"os"
	"strconv"
	"time"

	"github.com/viimsigame/terrain-server/internal/geo"
	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Providers ProvidersConfig `yaml:"providers"`
	Cache     CacheConfig     `yaml:"cache"`
	Server    ServerConfig    `yaml:"server"`
}

// WorldConfig описывает игровой мир: границы реальной области,
// размер мира и параметры ландшафта.
type WorldConfig struct {
	Bounds      geo.GeoBounds `yaml:"bounds"`
	WorldSize   float64       `yaml:"world_size"`
	HeightScale float64       `yaml:"height_scale"`

	// Уровни детализации: сегменты сетки и максимальная дистанция видимости
	LODLevels []LODLevelConfig `yaml:"lod_levels"`

	// Коррекция слишком плоского рельефа (см. mesh builder)
	EnableFlatnessFix bool `yaml:"enable_flatness_fix"`
}

// LODLevelConfig описывает один уровень детализации террейна.
type LODLevelConfig struct {
	Resolution      int     `yaml:"resolution"`
	MaxViewDistance float64 `yaml:"max_view_distance"`
}

// ProvidersConfig содержит адреса внешних источников геоданных.
type ProvidersConfig struct {
	ElevationURL   string        `yaml:"elevation_url"`
	OverpassURL    string        `yaml:"overpass_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	FallbackSeed   int64         `yaml:"fallback_seed"`
}

// CacheConfig содержит настройки кеширования датасетов.
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl"`

	// Опциональный hot cache в Redis (ENV: CACHE_REDIS_URL и т.д.)
	RedisURL      string `yaml:"redis_url"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// Опциональное постоянное хранилище на диске (ENV: CACHE_BADGER_PATH)
	BadgerPath string `yaml:"badger_path"`

	// Опциональная рассылка инвалидации через NATS (ENV: CACHE_NATS_URL)
	NatsURL string `yaml:"nats_url"`
}

// ServerConfig содержит сетевые порты сервиса.
type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "TERRAIN_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "TERRAIN_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// applyEnvFallbacks подставляет адреса слоёв кеша из окружения для
// полей, не заданных в YAML. Приоритет тот же, что у портов:
// config -> env -> пусто (слой отключён).
func (c *CacheConfig) applyEnvFallbacks() {
	if c.RedisURL == "" {
		c.RedisURL = os.Getenv("CACHE_REDIS_URL")
	}
	if c.RedisPassword == "" {
		c.RedisPassword = os.Getenv("CACHE_REDIS_PASSWORD")
	}
	if c.RedisDB == 0 {
		if v := os.Getenv("CACHE_REDIS_DB"); v != "" {
			if db, err := strconv.Atoi(v); err == nil && db >= 0 {
				c.RedisDB = db
			}
		}
	}
	if c.BadgerPath == "" {
		c.BadgerPath = os.Getenv("CACHE_BADGER_PATH")
	}
	if c.NatsURL == "" {
		c.NatsURL = os.Getenv("CACHE_NATS_URL")
	}
}

// Default возвращает конфигурацию по умолчанию: волость Виймси,
// мир 2000x2000, четыре уровня детализации.
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Bounds:      geo.DefaultViimsiBounds,
			WorldSize:   2000,
			HeightScale: 1.0,
			LODLevels: []LODLevelConfig{
				{Resolution: 128, MaxViewDistance: 300},
				{Resolution: 64, MaxViewDistance: 700},
				{Resolution: 32, MaxViewDistance: 1200},
				{Resolution: 16, MaxViewDistance: 2500},
			},
			EnableFlatnessFix: true,
		},
		Providers: ProvidersConfig{
			ElevationURL:   "https://gsavalik.envir.ee/geoserver/maaamet/ows",
			OverpassURL:    "https://overpass-api.de/api/interpreter",
			RequestTimeout: 25 * time.Second,
			FallbackSeed:   59416724, // широта+долгота региона, просто запоминающееся число
		},
		Cache: CacheConfig{
			TTL: 30 * time.Minute,
		},
		Server: ServerConfig{},
	}
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV TERRAIN_CONFIG или возвращает дефолты.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("TERRAIN_CONFIG")
		if path == "" {
			// Конфиг не задан — дефолты плюс переменные окружения
			cfg.Cache.applyEnvFallbacks()
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.World.Bounds.Validate(); err != nil {
		return nil, err
	}

	cfg.Cache.applyEnvFallbacks()
	return cfg, nil
}
