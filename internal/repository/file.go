package repository

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"sync"
)

// FileKV key-value хранилище поверх JSON-файла. Загружается один раз при
// создании, каждая мутация синхронно переписывает файл (write-through).
// Нечитаемый или повреждённый файл даёт пустое состояние, не ошибку.
type FileKV struct {
	mu   sync.Mutex
	path string
	data map[string]string
	log  *slog.Logger
}

func NewFileKV(path string, log *slog.Logger) *FileKV {
	kv := &FileKV{
		path: path,
		data: make(map[string]string),
		log:  log,
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn("state file unreadable, starting empty", "path", path, "err", err)
		}
		return kv
	}
	if err := json.Unmarshal(raw, &kv.data); err != nil {
		log.Warn("state file corrupt, starting empty", "path", path, "err", err)
		kv.data = make(map[string]string)
	}
	return kv
}

var _ KVStore = (*FileKV)(nil)

func (kv *FileKV) Get(ctx context.Context, key string) (string, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	v, ok := kv.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (kv *FileKV) Set(ctx context.Context, key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.data[key] = value
	return kv.flush()
}

func (kv *FileKV) Delete(ctx context.Context, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.data, key)
	return kv.flush()
}

func (kv *FileKV) flush() error {
	raw, err := json.Marshal(kv.data)
	if err != nil {
		return err
	}
	return os.WriteFile(kv.path, raw, 0o644)
}
