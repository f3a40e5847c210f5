package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/annel0/prefab-loader/internal/storage_interface"
)

// MemoryGameRepo реализует GameStore в памяти.
// Используется в тестах и для backend: memory.
// ВНИМАНИЕ: Данные теряются при перезапуске!
type MemoryGameRepo struct {
	mu   sync.RWMutex
	data map[string]storage_interface.GameRecord
}

// NewMemoryGameRepo создает новый репозиторий игр в памяти.
func NewMemoryGameRepo() *MemoryGameRepo {
	return &MemoryGameRepo{
		data: make(map[string]storage_interface.GameRecord),
	}
}

// Save сохраняет копию игры.
func (r *MemoryGameRepo) Save(ctx context.Context, rec *storage_interface.GameRecord) error {
	if rec == nil || rec.Meta.ID == "" {
		return fmt.Errorf("пустой ID игры")
	}

	// Проверяем контекст на отмену
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[rec.Meta.ID] = storage_interface.GameRecord{
		Meta: rec.Meta,
		Data: append([]byte(nil), rec.Data...),
	}
	return nil
}

// Load возвращает копию игры.
func (r *MemoryGameRepo) Load(ctx context.Context, id string) (*storage_interface.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.data[id]
	if !exists {
		return nil, fmt.Errorf("игра %s: %w", id, storage_interface.ErrGameNotFound)
	}
	return &storage_interface.GameRecord{Meta: rec.Meta, Data: append([]byte(nil), rec.Data...)}, nil
}

// Info возвращает метаданные игры.
func (r *MemoryGameRepo) Info(ctx context.Context, id string) (*storage_interface.GameMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.data[id]
	if !exists {
		return nil, fmt.Errorf("игра %s: %w", id, storage_interface.ErrGameNotFound)
	}
	meta := rec.Meta
	return &meta, nil
}

// List возвращает метаданные всех игр.
func (r *MemoryGameRepo) List(ctx context.Context) ([]storage_interface.GameMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	metas := make([]storage_interface.GameMeta, 0, len(r.data))
	for _, rec := range r.data {
		metas = append(metas, rec.Meta)
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].ID < metas[j].ID })
	return metas, nil
}

// Delete удаляет игру.
func (r *MemoryGameRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[id]; !exists {
		return fmt.Errorf("игра %s: %w", id, storage_interface.ErrGameNotFound)
	}
	delete(r.data, id)
	return nil
}

// Count возвращает количество сохраненных игр (для отладки).
func (r *MemoryGameRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}

// Close ничего не делает.
func (r *MemoryGameRepo) Close() error { return nil }

var _ storage_interface.GameStore = (*MemoryGameRepo)(nil)
