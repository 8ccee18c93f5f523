package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.World.Bounds.Validate())
	assert.Equal(t, 2000.0, cfg.World.WorldSize)
	assert.Len(t, cfg.World.LODLevels, 4)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)

	// Без YAML и окружения слои кеша отключены
	assert.Empty(t, cfg.Cache.RedisURL)
	assert.Empty(t, cfg.Cache.BadgerPath)
	assert.Empty(t, cfg.Cache.NatsURL)
}

func TestCacheEnvFallbacks(t *testing.T) {
	t.Setenv("TERRAIN_CONFIG", "")
	t.Setenv("CACHE_REDIS_URL", "redis:6379")
	t.Setenv("CACHE_REDIS_PASSWORD", "secret")
	t.Setenv("CACHE_REDIS_DB", "3")
	t.Setenv("CACHE_BADGER_PATH", "/var/cache/geodata")
	t.Setenv("CACHE_NATS_URL", "nats://queue:4222")

	cfg, err := Load("")
	require.NoError(t, err)

	// Экспортированные переменные включают слои кеша
	assert.Equal(t, "redis:6379", cfg.Cache.RedisURL)
	assert.Equal(t, "secret", cfg.Cache.RedisPassword)
	assert.Equal(t, 3, cfg.Cache.RedisDB)
	assert.Equal(t, "/var/cache/geodata", cfg.Cache.BadgerPath)
	assert.Equal(t, "nats://queue:4222", cfg.Cache.NatsURL)
}

func TestYAMLWinsOverEnv(t *testing.T) {
	t.Setenv("CACHE_REDIS_URL", "env:6379")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path,
		[]byte("cache:\n  redis_url: yaml:6379\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Явное значение YAML имеет приоритет над окружением
	assert.Equal(t, "yaml:6379", cfg.Cache.RedisURL)
}

func TestPortEnvFallbacks(t *testing.T) {
	t.Setenv("TERRAIN_REST_PORT", "9000")
	t.Setenv("TERRAIN_METRICS_PORT", "9100")

	cfg := Default()
	assert.Equal(t, 9000, cfg.Server.GetRESTPort())
	assert.Equal(t, 9100, cfg.Server.GetMetricsPort())

	// Явный порт в конфигурации сильнее окружения
	cfg.Server.RESTPort = 8500
	assert.Equal(t, 8500, cfg.Server.GetRESTPort())
}
