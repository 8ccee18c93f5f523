package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryCache реализует DatasetCache в памяти процесса.
// Часы внедряются снаружи: тесты подменяют их, чтобы проверять
// истечение TTL без реального ожидания.
type MemoryCache struct {
	ttl   time.Duration
	clock Clock

	mu      sync.RWMutex
	entries map[string]*Envelope

	// Метрики (atomic для thread safety)
	hits    int64
	misses  int64
	expired int64
	lastSet atomic.Value // time.Time
}

// NewMemoryCache создаёт кеш в памяти с указанным TTL.
// Если clock == nil, используется time.Now.
func NewMemoryCache(ttl time.Duration, clock Clock) *MemoryCache {
	if clock == nil {
		clock = time.Now
	}
	return &MemoryCache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]*Envelope),
	}
}

// Get возвращает значение по ключу или ErrCacheMiss.
// Запись действительна, пока now - timestamp < TTL.
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	env, exists := m.entries[key]
	m.mu.RUnlock()

	if !exists {
		atomic.AddInt64(&m.misses, 1)
		return nil, ErrCacheMiss
	}

	if m.clock().Sub(env.Timestamp) >= m.ttl {
		atomic.AddInt64(&m.expired, 1)
		atomic.AddInt64(&m.misses, 1)
		return nil, ErrCacheMiss
	}

	atomic.AddInt64(&m.hits, 1)
	return env.Data, nil
}

// Set сохраняет значение с текущей временной меткой.
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte) error {
	now := m.clock()

	m.mu.Lock()
	m.entries[key] = &Envelope{Timestamp: now, Data: value}
	m.mu.Unlock()

	m.lastSet.Store(now)
	return nil
}

// SetEnvelope сохраняет запись с уже известной временной меткой.
// Используется при подъёме записей из нижних слоёв хранения.
func (m *MemoryCache) SetEnvelope(key string, env *Envelope) {
	m.mu.Lock()
	m.entries[key] = env
	m.mu.Unlock()
}

// InvalidateAll сбрасывает все записи кеша.
func (m *MemoryCache) InvalidateAll(ctx context.Context) error {
	m.mu.Lock()
	m.entries = make(map[string]*Envelope)
	m.mu.Unlock()
	return nil
}

// Stats возвращает статистику кеша.
func (m *MemoryCache) Stats() CacheStats {
	m.mu.RLock()
	entries := len(m.entries)
	m.mu.RUnlock()

	hits := atomic.LoadInt64(&m.hits)
	misses := atomic.LoadInt64(&m.misses)

	stats := CacheStats{
		Entries: entries,
		Hits:    hits,
		Misses:  misses,
		Expired: atomic.LoadInt64(&m.expired),
	}

	if total := hits + misses; total > 0 {
		stats.HitRatio = float64(hits) / float64(total)
	}
	if ls, ok := m.lastSet.Load().(time.Time); ok {
		stats.LastSet = ls
	}

	return stats
}

// Close освобождает ресурсы (для кеша в памяти — ничего).
func (m *MemoryCache) Close() error {
	return nil
}
