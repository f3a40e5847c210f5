package storage_adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/annel0/prefab-loader/internal/storage"
	"github.com/annel0/prefab-loader/internal/storage_interface"
)

// GameStorageAdapter адаптирует GameStorage (BadgerDB) к интерфейсу GameStore
type GameStorageAdapter struct {
	storage *storage.GameStorage
}

// NewGameStore создает новый адаптер для GameStorage
func NewGameStore(dataPath string) (storage_interface.GameStore, error) {
	gs, err := storage.NewGameStorage(dataPath)
	if err != nil {
		return nil, err
	}

	return &GameStorageAdapter{
		storage: gs,
	}, nil
}

// Save сохраняет игру
func (a *GameStorageAdapter) Save(ctx context.Context, rec *storage_interface.GameRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return a.storage.SaveGame(toInfo(rec.Meta), rec.Data)
}

// Load загружает игру и её метаданные
func (a *GameStorageAdapter) Load(ctx context.Context, id string) (*storage_interface.GameRecord, error) {
	meta, err := a.Info(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := a.storage.LoadGame(id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &storage_interface.GameRecord{Meta: *meta, Data: data}, nil
}

// Info загружает метаданные
func (a *GameStorageAdapter) Info(ctx context.Context, id string) (*storage_interface.GameMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := a.storage.LoadInfo(id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	meta := fromInfo(*info)
	return &meta, nil
}

// List возвращает метаданные всех игр
func (a *GameStorageAdapter) List(ctx context.Context) ([]storage_interface.GameMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	infos, err := a.storage.ListInfos()
	if err != nil {
		return nil, err
	}

	result := make([]storage_interface.GameMeta, 0, len(infos))
	for _, info := range infos {
		result = append(result, fromInfo(info))
	}
	return result, nil
}

// Delete удаляет игру
func (a *GameStorageAdapter) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return mapNotFound(a.storage.DeleteGame(id))
}

// Close закрывает хранилище
func (a *GameStorageAdapter) Close() error {
	return a.storage.Close()
}

// mapNotFound переводит ошибку BadgerDB в ошибку интерфейса
func mapNotFound(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %v", storage_interface.ErrGameNotFound, err)
	}
	return err
}

func toInfo(m storage_interface.GameMeta) storage.GameInfo {
	return storage.GameInfo{
		ID:          m.ID,
		Name:        m.Name,
		Author:      m.Author,
		Description: m.Description,
		Version:     m.Version,
		PrefabCount: m.PrefabCount,
		Size:        m.Size,
		SavedAt:     m.SavedAt,
	}
}

func fromInfo(i storage.GameInfo) storage_interface.GameMeta {
	return storage_interface.GameMeta{
		ID:          i.ID,
		Name:        i.Name,
		Author:      i.Author,
		Description: i.Description,
		Version:     i.Version,
		PrefabCount: i.PrefabCount,
		Size:        i.Size,
		SavedAt:     i.SavedAt,
	}
}
