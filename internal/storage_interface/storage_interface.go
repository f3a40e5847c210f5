package storage_interface

import (
	"context"
	"errors"
	"time"
)

// ErrGameNotFound - игры с таким ID нет в хранилище
var ErrGameNotFound = errors.New("game not found")

// GameStore определяет интерфейс библиотеки сохранённых игр.
// Данные игры хранятся в том виде, в каком они лежат в .fcg файле (zlib).
type GameStore interface {
	// Save сохраняет игру, перезаписывая существующую с тем же ID
	Save(ctx context.Context, rec *GameRecord) error

	// Load загружает игру целиком
	Load(ctx context.Context, id string) (*GameRecord, error)

	// Info загружает только метаданные
	Info(ctx context.Context, id string) (*GameMeta, error)

	// List возвращает метаданные всех игр, отсортированные по ID
	List(ctx context.Context) ([]GameMeta, error)

	// Delete удаляет игру. Отсутствующая игра - ErrGameNotFound.
	Delete(ctx context.Context, id string) error

	// Close закрывает хранилище
	Close() error
}

// GameMeta содержит сведения об игре без префабов
type GameMeta struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Author      string    `json:"author"`
	Description string    `json:"description"`
	Version     uint16    `json:"version"`     // Версия исходного файла
	PrefabCount int       `json:"prefabs"`     // Число записей префабов
	Size        int       `json:"size"`        // Размер сжатых данных
	SavedAt     time.Time `json:"saved_at"`
}

// GameRecord - метаданные плюс сжатый контейнер
type GameRecord struct {
	Meta GameMeta
	Data []byte
}
