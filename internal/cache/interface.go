package cache

import (
	"context"
	"time"
)

// Clock возвращает текущее время. Внедряется в кеш, чтобы тесты
// могли управлять истечением записей без ожидания.
type Clock func() time.Time

// DatasetCache определяет интерфейс кеша датасетов геоданных.
// Ключ — имя датасета ("elevation", "buildings", "roads", "forests").
//
// Запись действительна, пока её возраст меньше TTL. Истекшие записи
// не удаляются досрочно — они перестают возвращаться из Get и
// перезаписываются следующим успешным Set.
type DatasetCache interface {
	// Get возвращает значение по ключу.
	// Возвращает ErrCacheMiss, если ключ не найден или запись истекла.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение с текущей временной меткой.
	Set(ctx context.Context, key string, value []byte) error

	// InvalidateAll сбрасывает все записи кеша.
	InvalidateAll(ctx context.Context) error

	// Stats возвращает статистику кеша.
	Stats() CacheStats

	// Close освобождает ресурсы кеша.
	Close() error
}

// ColdStorage определяет интерфейс постоянного хранилища датасетов.
// Используется, чтобы переживать перезапуски сервиса без повторных
// обращений к внешним провайдерам.
type ColdStorage interface {
	// Load загружает запись из постоянного хранилища.
	Load(ctx context.Context, key string) (*Envelope, error)

	// Store сохраняет запись в постоянное хранилище.
	Store(ctx context.Context, key string, env *Envelope) error

	// DeleteAll удаляет все записи.
	DeleteAll(ctx context.Context) error

	// Close закрывает хранилище.
	Close() error
}

// Invalidator рассылает уведомления об инвалидации между узлами.
type Invalidator interface {
	// PublishInvalidation отправляет уведомление об инвалидации датасета.
	PublishInvalidation(ctx context.Context, key string) error

	// SubscribeInvalidations подписывается на уведомления.
	SubscribeInvalidations(ctx context.Context, handler InvalidationHandler) error

	// Close закрывает соединение.
	Close() error
}

// InvalidationHandler обрабатывает уведомление об инвалидации датасета.
type InvalidationHandler func(key string) error

// Envelope оборачивает кешированное значение временной меткой.
// Метка позволяет проверять TTL в любом слое хранения.
type Envelope struct {
	Timestamp time.Time `json:"timestamp"`
	Data      []byte    `json:"data"`
}

// CacheStats содержит статистику работы кеша.
type CacheStats struct {
	Entries  int       `json:"entries"`
	Hits     int64     `json:"hits"`
	Misses   int64     `json:"misses"`
	Expired  int64     `json:"expired"`
	LastSet  time.Time `json:"last_set"`
	HitRatio float64   `json:"hit_ratio"`
}

// CacheError представляет ошибку кеша.
type CacheError struct {
	Message string
}

func (e *CacheError) Error() string {
	return e.Message
}

// Ошибки кеша
var (
	ErrCacheMiss  = &CacheError{Message: "cache miss"}
	ErrCacheEmpty = &CacheError{Message: "cache empty"}
)

// IsCacheMiss проверяет, является ли ошибка промахом кеша.
func IsCacheMiss(err error) bool {
	return err == ErrCacheMiss
}
