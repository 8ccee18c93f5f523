package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/viimsigame/terrain-server/internal/logging"
)

// RedisCache реализует DatasetCache поверх Redis.
// Используется как hot cache, разделяемый несколькими узлами:
// после перезапуска процесса датасеты не нужно тянуть с провайдеров заново.
//
// Временная метка хранится внутри Envelope, а не через EXPIRE:
// проверка TTL должна быть единообразной во всех слоях и управляться
// одними и теми же внедряемыми часами.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	clock  Clock
	prefix string
}

// NewRedisCache создаёт Redis кеш датасетов.
func NewRedisCache(url, password string, db int, ttl time.Duration, clock Clock) (*RedisCache, error) {
	if clock == nil {
		clock = time.Now
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         url,
		Password:     password,
		DB:           db,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Info("Redis кеш датасетов подключен: %s", url)
	return &RedisCache{
		client: rdb,
		ttl:    ttl,
		clock:  clock,
		prefix: "geodata:",
	}, nil
}

// Get возвращает значение по ключу или ErrCacheMiss.
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("redis entry decode error: %w", err)
	}

	if r.clock().Sub(env.Timestamp) >= r.ttl {
		return nil, ErrCacheMiss
	}

	return env.Data, nil
}

// GetEnvelope возвращает запись вместе с временной меткой.
func (r *RedisCache) GetEnvelope(ctx context.Context, key string) (*Envelope, error) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("redis entry decode error: %w", err)
	}
	return &env, nil
}

// Set сохраняет значение с текущей временной меткой.
func (r *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	return r.SetEnvelope(ctx, key, &Envelope{Timestamp: r.clock(), Data: value})
}

// SetEnvelope сохраняет запись с уже известной временной меткой.
func (r *RedisCache) SetEnvelope(ctx context.Context, key string, env *Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("redis entry encode error: %w", err)
	}

	// Redis TTL с запасом, чтобы записи не копились: логический TTL
	// проверяется при чтении по временной метке
	if err := r.client.Set(ctx, r.prefix+key, raw, r.ttl*2).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

// InvalidateAll удаляет все записи датасетов.
func (r *RedisCache) InvalidateAll(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis delete error: %w", err)
		}
	}
	return iter.Err()
}

// Stats возвращает статистику кеша (для Redis — только число записей).
func (r *RedisCache) Stats() CacheStats {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var entries int
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		entries++
	}

	return CacheStats{Entries: entries}
}

// Close закрывает соединение с Redis.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
