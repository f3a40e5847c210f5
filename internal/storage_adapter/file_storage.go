package storage_adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/annel0/prefab-loader/internal/raw"
	"github.com/annel0/prefab-loader/internal/storage_interface"
)

// ErrInvalidID - ID не может быть именем файла
var ErrInvalidID = errors.New("invalid game id")

const (
	gameExt = ".fcg"
	metaExt = ".json"
)

// FileStorageAdapter хранит игры как .fcg файлы в директории.
// Рядом с каждым файлом лежит <id>.json с метаданными; для .fcg без
// метаданных (скопированных вручную) они читаются из заголовка файла.
type FileStorageAdapter struct {
	basePath  string                                // Базовый путь для хранения файлов
	metaCache map[string]storage_interface.GameMeta // Кеш метаданных
	mu        sync.RWMutex                          // Мьютекс для безопасного доступа
}

// NewFileStorageAdapter создаёт новый файловый адаптер хранилища
func NewFileStorageAdapter(basePath string) (*FileStorageAdapter, error) {
	// Создаём директорию если её нет
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию %s: %w", basePath, err)
	}

	return &FileStorageAdapter{
		basePath:  basePath,
		metaCache: make(map[string]storage_interface.GameMeta),
	}, nil
}

// Save записывает .fcg и метаданные
func (fsa *FileStorageAdapter) Save(ctx context.Context, rec *storage_interface.GameRecord) error {
	if err := validateID(rec.Meta.ID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	meta, err := json.MarshalIndent(rec.Meta, "", "  ")
	if err != nil {
		return fmt.Errorf("ошибка сериализации метаданных %s: %w", rec.Meta.ID, err)
	}

	fsa.mu.Lock()
	defer fsa.mu.Unlock()

	if err := writeFileAtomic(fsa.path(rec.Meta.ID, gameExt), rec.Data); err != nil {
		return err
	}
	if err := writeFileAtomic(fsa.path(rec.Meta.ID, metaExt), meta); err != nil {
		return err
	}

	fsa.metaCache[rec.Meta.ID] = rec.Meta
	return nil
}

// Load читает .fcg и метаданные
func (fsa *FileStorageAdapter) Load(ctx context.Context, id string) (*storage_interface.GameRecord, error) {
	meta, err := fsa.Info(ctx, id)
	if err != nil {
		return nil, err
	}

	fsa.mu.RLock()
	data, err := os.ReadFile(fsa.path(id, gameExt))
	fsa.mu.RUnlock()
	if err != nil {
		return nil, fsa.readError(id, err)
	}

	return &storage_interface.GameRecord{Meta: *meta, Data: data}, nil
}

// Info возвращает метаданные из кеша, .json или заголовка .fcg
func (fsa *FileStorageAdapter) Info(ctx context.Context, id string) (*storage_interface.GameMeta, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fsa.mu.RLock()
	meta, exists := fsa.metaCache[id]
	fsa.mu.RUnlock()
	if exists {
		return &meta, nil
	}

	meta, err := fsa.readMeta(id)
	if err != nil {
		return nil, err
	}

	fsa.mu.Lock()
	fsa.metaCache[id] = meta
	fsa.mu.Unlock()
	return &meta, nil
}

// List сканирует директорию в поиске .fcg файлов
func (fsa *FileStorageAdapter) List(ctx context.Context) ([]storage_interface.GameMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(fsa.basePath)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения директории %s: %w", fsa.basePath, err)
	}

	var metas []storage_interface.GameMeta
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != gameExt {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		meta, err := fsa.Info(ctx, strings.TrimSuffix(e.Name(), gameExt))
		if err != nil {
			return nil, err
		}
		metas = append(metas, *meta)
	}

	sort.Slice(metas, func(i, j int) bool { return metas[i].ID < metas[j].ID })
	return metas, nil
}

// Delete удаляет .fcg и метаданные
func (fsa *FileStorageAdapter) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fsa.mu.Lock()
	defer fsa.mu.Unlock()

	if err := os.Remove(fsa.path(id, gameExt)); err != nil {
		return fsa.readError(id, err)
	}
	if err := os.Remove(fsa.path(id, metaExt)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ошибка удаления метаданных %s: %w", id, err)
	}

	delete(fsa.metaCache, id)
	return nil
}

// Close сбрасывает кеш
func (fsa *FileStorageAdapter) Close() error {
	fsa.mu.Lock()
	defer fsa.mu.Unlock()
	fsa.metaCache = make(map[string]storage_interface.GameMeta)
	return nil
}

func (fsa *FileStorageAdapter) readMeta(id string) (storage_interface.GameMeta, error) {
	fsa.mu.RLock()
	defer fsa.mu.RUnlock()

	var meta storage_interface.GameMeta

	data, err := os.ReadFile(fsa.path(id, metaExt))
	if err == nil {
		if err := json.Unmarshal(data, &meta); err != nil {
			return meta, fmt.Errorf("ошибка десериализации метаданных %s: %w", id, err)
		}
		return meta, nil
	}
	if !os.IsNotExist(err) {
		return meta, fmt.Errorf("ошибка чтения метаданных %s: %w", id, err)
	}

	// Метаданных нет - читаем заголовок самой игры
	path := fsa.path(id, gameExt)
	game, err := os.ReadFile(path)
	if err != nil {
		return meta, fsa.readError(id, err)
	}
	info, err := raw.LoadInfoCompressed(bytes.NewReader(game))
	if err != nil {
		return meta, fmt.Errorf("ошибка чтения заголовка %s: %w", path, err)
	}

	stat, err := os.Stat(path)
	if err != nil {
		return meta, fsa.readError(id, err)
	}

	return storage_interface.GameMeta{
		ID:          id,
		Name:        info.Name,
		Author:      info.Author,
		Description: info.Description,
		Version:     info.Version,
		PrefabCount: -1, // без полного разбора неизвестно
		Size:        len(game),
		SavedAt:     stat.ModTime(),
	}, nil
}

func (fsa *FileStorageAdapter) readError(id string, err error) error {
	if os.IsNotExist(err) {
		return fmt.Errorf("игра %s: %w", id, storage_interface.ErrGameNotFound)
	}
	return fmt.Errorf("ошибка доступа к игре %s: %w", id, err)
}

// path возвращает имя файла для игры
func (fsa *FileStorageAdapter) path(id, ext string) string {
	return filepath.Join(fsa.basePath, id+ext)
}

func validateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// writeFileAtomic пишет во временный файл и переименовывает его
func writeFileAtomic(filename string, data []byte) error {
	tmp := filename + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("ошибка записи файла %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, filename); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("ошибка переименования %s: %w", tmp, err)
	}
	return nil
}

var (
	_ storage_interface.GameStore = (*FileStorageAdapter)(nil)
	_ storage_interface.GameStore = (*GameStorageAdapter)(nil)
)
