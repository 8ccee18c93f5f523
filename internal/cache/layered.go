package cache

import (
	"context"
	"time"

	"github.com/viimsigame/terrain-server/internal/logging"
)

// LayeredCache объединяет кеш в памяти с опциональными нижними слоями:
// Redis (hot cache, общий для узлов) и ColdStorage (переживает перезапуски).
//
// Чтение: память → Redis → cold storage; найденная действительная запись
// поднимается в верхние слои. Запись идёт во все слои. Инвалидация
// сбрасывает все слои и, при наличии invalidator-а, оповещает другие узлы.
type LayeredCache struct {
	memory      *MemoryCache
	redis       *RedisCache
	cold        ColdStorage
	invalidator Invalidator
	ttl         time.Duration
	clock       Clock
}

// NewLayeredCache создаёт многослойный кеш. redis, cold и invalidator
// могут быть nil — тогда соответствующий слой отсутствует.
func NewLayeredCache(ttl time.Duration, clock Clock, redis *RedisCache, cold ColdStorage, invalidator Invalidator) *LayeredCache {
	if clock == nil {
		clock = time.Now
	}

	lc := &LayeredCache{
		memory:      NewMemoryCache(ttl, clock),
		redis:       redis,
		cold:        cold,
		invalidator: invalidator,
		ttl:         ttl,
		clock:       clock,
	}

	// Удалённая инвалидация сбрасывает локальные слои
	if invalidator != nil {
		err := invalidator.SubscribeInvalidations(context.Background(), func(key string) error {
			logging.Debug("Получена удалённая инвалидация кеша: %s", key)
			return lc.memory.InvalidateAll(context.Background())
		})
		if err != nil {
			logging.Warn("Не удалось подписаться на инвалидацию кеша: %v", err)
		}
	}

	return lc
}

// Get возвращает действительную запись из первого слоя, где она нашлась.
func (lc *LayeredCache) Get(ctx context.Context, key string) ([]byte, error) {
	// Память
	if data, err := lc.memory.Get(ctx, key); err == nil {
		return data, nil
	}

	// Redis
	if lc.redis != nil {
		if env, err := lc.redis.GetEnvelope(ctx, key); err == nil {
			if lc.clock().Sub(env.Timestamp) < lc.ttl {
				lc.memory.SetEnvelope(key, env)
				return env.Data, nil
			}
		}
	}

	// Cold storage
	if lc.cold != nil {
		if env, err := lc.cold.Load(ctx, key); err == nil {
			if lc.clock().Sub(env.Timestamp) < lc.ttl {
				lc.memory.SetEnvelope(key, env)
				if lc.redis != nil {
					_ = lc.redis.SetEnvelope(ctx, key, env)
				}
				return env.Data, nil
			}
		}
	}

	return nil, ErrCacheMiss
}

// Set записывает значение во все слои с одной временной меткой.
func (lc *LayeredCache) Set(ctx context.Context, key string, value []byte) error {
	env := &Envelope{Timestamp: lc.clock(), Data: value}

	lc.memory.SetEnvelope(key, env)

	if lc.redis != nil {
		if err := lc.redis.SetEnvelope(ctx, key, env); err != nil {
			logging.Warn("Redis слой кеша недоступен для записи %s: %v", key, err)
		}
	}
	if lc.cold != nil {
		if err := lc.cold.Store(ctx, key, env); err != nil {
			logging.Warn("Cold storage недоступен для записи %s: %v", key, err)
		}
	}
	return nil
}

// InvalidateAll сбрасывает все слои и оповещает другие узлы.
func (lc *LayeredCache) InvalidateAll(ctx context.Context) error {
	if err := lc.memory.InvalidateAll(ctx); err != nil {
		return err
	}

	if lc.redis != nil {
		if err := lc.redis.InvalidateAll(ctx); err != nil {
			logging.Warn("Ошибка инвалидации Redis слоя: %v", err)
		}
	}
	if lc.cold != nil {
		if err := lc.cold.DeleteAll(ctx); err != nil {
			logging.Warn("Ошибка очистки cold storage: %v", err)
		}
	}
	if lc.invalidator != nil {
		if err := lc.invalidator.PublishInvalidation(ctx, "all"); err != nil {
			logging.Warn("Ошибка публикации инвалидации: %v", err)
		}
	}
	return nil
}

// Stats возвращает статистику верхнего слоя (память принимает весь трафик).
func (lc *LayeredCache) Stats() CacheStats {
	return lc.memory.Stats()
}

// Close закрывает все слои.
func (lc *LayeredCache) Close() error {
	var lastErr error
	if lc.invalidator != nil {
		if err := lc.invalidator.Close(); err != nil {
			lastErr = err
		}
	}
	if lc.redis != nil {
		if err := lc.redis.Close(); err != nil {
			lastErr = err
		}
	}
	if lc.cold != nil {
		if err := lc.cold.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
