package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/annel0/prefab-loader/internal/logging"
)

// ErrNotFound - ключ отсутствует в BadgerDB
var ErrNotFound = errors.New("not found")

// ErrNotReady - хранилище закрыто
var ErrNotReady = errors.New("хранилище не готово")

const (
	gamePrefix = "game:"
	infoPrefix = "info:"
)

// GameStorage хранит сжатые игры и их метаданные в BadgerDB.
// Данные и метаданные лежат под разными ключами, чтобы List не читал
// содержимое игр.
type GameStorage struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool
	log     *logging.Logger
}

// GameInfo - метаданные игры в том виде, в каком они лежат в BadgerDB
type GameInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
	Version     uint16    `json:"version"`
	PrefabCount int       `json:"prefab_count"`
	Size        int       `json:"size"`
	SavedAt     time.Time `json:"saved_at"`
}

// NewGameStorage открывает хранилище в dataPath/games
func NewGameStorage(dataPath string) (*GameStorage, error) {
	dbPath := filepath.Join(dataPath, "games")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	gs := &GameStorage{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
		log:     logging.GetStorageLogger(),
	}
	gs.log.Info("BadgerDB открыта: %s", dbPath)
	return gs, nil
}

// Close закрывает хранилище данных
func (gs *GameStorage) Close() error {
	gs.mutex.Lock()
	defer gs.mutex.Unlock()

	if !gs.isReady {
		return nil
	}

	gs.isReady = false
	return gs.db.Close()
}

// SaveGame сохраняет данные и метаданные одной транзакцией
func (gs *GameStorage) SaveGame(info GameInfo, data []byte) error {
	gs.mutex.RLock()
	defer gs.mutex.RUnlock()

	if !gs.isReady {
		return ErrNotReady
	}
	if info.ID == "" {
		return fmt.Errorf("пустой ID игры")
	}

	meta, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("ошибка сериализации метаданных: %w", err)
	}

	err = gs.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(gamePrefix+info.ID), data); err != nil {
			return err
		}
		return txn.Set([]byte(infoPrefix+info.ID), meta)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}

	gs.log.Debug("Сохранена игра %s (%d байт)", info.ID, len(data))
	return nil
}

// LoadGame загружает сжатые данные игры
func (gs *GameStorage) LoadGame(id string) ([]byte, error) {
	gs.mutex.RLock()
	defer gs.mutex.RUnlock()

	if !gs.isReady {
		return nil, ErrNotReady
	}
	return gs.get(gamePrefix + id)
}

// LoadInfo загружает метаданные игры
func (gs *GameStorage) LoadInfo(id string) (*GameInfo, error) {
	gs.mutex.RLock()
	defer gs.mutex.RUnlock()

	if !gs.isReady {
		return nil, ErrNotReady
	}

	data, err := gs.get(infoPrefix + id)
	if err != nil {
		return nil, err
	}

	var info GameInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("ошибка десериализации метаданных: %w", err)
	}
	return &info, nil
}

// ListInfos возвращает метаданные всех игр, отсортированные по ID
func (gs *GameStorage) ListInfos() ([]GameInfo, error) {
	gs.mutex.RLock()
	defer gs.mutex.RUnlock()

	if !gs.isReady {
		return nil, ErrNotReady
	}

	var infos []GameInfo
	err := gs.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(infoPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var info GameInfo
				if err := json.Unmarshal(val, &info); err != nil {
					return fmt.Errorf("ключ %s: %w", item.Key(), err)
				}
				infos = append(infos, info)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

// DeleteGame удаляет данные и метаданные игры
func (gs *GameStorage) DeleteGame(id string) error {
	gs.mutex.RLock()
	defer gs.mutex.RUnlock()

	if !gs.isReady {
		return ErrNotReady
	}

	err := gs.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(infoPrefix + id)); err != nil {
			return err
		}
		if err := txn.Delete([]byte(gamePrefix + id)); err != nil {
			return err
		}
		return txn.Delete([]byte(infoPrefix + id))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("игра %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("ошибка удаления из BadgerDB: %w", err)
	}

	gs.log.Debug("Удалена игра %s", id)
	return nil
}

func (gs *GameStorage) get(key string) ([]byte, error) {
	var data []byte

	err := gs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			data = append([]byte{}, val...)
			return nil
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return data, nil
}
