package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/gzip"
	"github.com/viimsigame/terrain-server/internal/logging"
)

// BadgerStorage реализует ColdStorage поверх embedded BadgerDB.
// Датасеты геоданных занимают сотни килобайт (растр высот, списки
// зданий), поэтому записи сжимаются gzip перед сохранением.
type BadgerStorage struct {
	db *badger.DB
}

// NewBadgerStorage открывает постоянное хранилище в указанной директории.
func NewBadgerStorage(path string) (*BadgerStorage, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Badger шумит в stdout, логируем сами

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger storage: %w", err)
	}

	logging.Info("Постоянное хранилище датасетов открыто: %s", path)
	return &BadgerStorage{db: db}, nil
}

// Load загружает запись из хранилища.
func (b *BadgerStorage) Load(ctx context.Context, key string) (*Envelope, error) {
	var raw []byte

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("badger load error: %w", err)
	}

	decompressed, err := gunzip(raw)
	if err != nil {
		return nil, fmt.Errorf("badger entry decompress error: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(decompressed, &env); err != nil {
		return nil, fmt.Errorf("badger entry decode error: %w", err)
	}
	return &env, nil
}

// Store сохраняет запись в хранилище.
func (b *BadgerStorage) Store(ctx context.Context, key string, env *Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("badger entry encode error: %w", err)
	}

	compressed, err := gzipBytes(raw)
	if err != nil {
		return fmt.Errorf("badger entry compress error: %w", err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), compressed)
	})
	if err != nil {
		return fmt.Errorf("badger store error: %w", err)
	}
	return nil
}

// DeleteAll удаляет все записи хранилища.
func (b *BadgerStorage) DeleteAll(ctx context.Context) error {
	return b.db.DropAll()
}

// Close закрывает хранилище.
func (b *BadgerStorage) Close() error {
	return b.db.Close()
}

// gzipBytes сжимает данные gzip-ом.
func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// gunzip распаковывает gzip данные.
func gunzip(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
