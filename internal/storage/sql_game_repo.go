package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/annel0/prefab-loader/internal/logging"
	"github.com/annel0/prefab-loader/internal/storage_interface"
)

// Поддерживаемые SQL драйверы
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// SQLGameRepo реализует GameStore поверх MariaDB/MySQL или SQLite.
// Использует таблицу prefab_games; время сохранения хранится в наносекундах Unix.
type SQLGameRepo struct {
	db     *sql.DB
	driver string
	log    *logging.Logger
}

// NewSQLGameRepo открывает базу и создает таблицу, если её нет.
//
// Параметры:
//
//	driver - mysql или sqlite
//	dsn - строка подключения (user:pass@tcp(host:port)/dbname или путь к файлу)
func NewSQLGameRepo(driver, dsn string) (*SQLGameRepo, error) {
	if driver != DriverMySQL && driver != DriverSQLite {
		return nil, fmt.Errorf("неподдерживаемый SQL драйвер: %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// SQLite не любит параллельных писателей
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Проверяем соединение
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("не удалось проверить соединение с %s: %w", driver, err)
	}

	repo := &SQLGameRepo{db: db, driver: driver, log: logging.GetStorageLogger()}
	if err := repo.createTable(ctx); err != nil {
		db.Close()
		return nil, err
	}

	repo.log.Info("SQL хранилище игр открыто (%s)", driver)
	return repo, nil
}

// createTable создает таблицу prefab_games, если она не существует.
func (r *SQLGameRepo) createTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS prefab_games (
			id           VARCHAR(64)  PRIMARY KEY,
			name         VARCHAR(255) NOT NULL,
			author       VARCHAR(255) NOT NULL,
			description  TEXT         NOT NULL,
			version      INT          NOT NULL,
			prefab_count INT          NOT NULL,
			size         INT          NOT NULL,
			saved_at     BIGINT       NOT NULL,
			data         LONGBLOB     NOT NULL
		)
	`

	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ошибка создания таблицы prefab_games: %w", err)
	}
	return nil
}

// upsertQuery возвращает INSERT с обновлением для текущего диалекта
func (r *SQLGameRepo) upsertQuery() string {
	const insert = `
		INSERT INTO prefab_games (id, name, author, description, version, prefab_count, size, saved_at, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	if r.driver == DriverMySQL {
		return insert + `
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			author = VALUES(author),
			description = VALUES(description),
			version = VALUES(version),
			prefab_count = VALUES(prefab_count),
			size = VALUES(size),
			saved_at = VALUES(saved_at),
			data = VALUES(data)`
	}

	return insert + `
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			author = excluded.author,
			description = excluded.description,
			version = excluded.version,
			prefab_count = excluded.prefab_count,
			size = excluded.size,
			saved_at = excluded.saved_at,
			data = excluded.data`
}

// Save сохраняет игру, существующая запись перезаписывается.
func (r *SQLGameRepo) Save(ctx context.Context, rec *storage_interface.GameRecord) error {
	if rec == nil || rec.Meta.ID == "" {
		return fmt.Errorf("пустой ID игры")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := rec.Meta
	_, err := r.db.ExecContext(ctx, r.upsertQuery(),
		m.ID, m.Name, m.Author, m.Description, m.Version, m.PrefabCount, m.Size, m.SavedAt.UnixNano(), rec.Data)
	if err != nil {
		return fmt.Errorf("ошибка сохранения игры %s: %w", m.ID, err)
	}
	return nil
}

const metaColumns = `id, name, author, description, version, prefab_count, size, saved_at`

// rowScanner - общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeta(row rowScanner, extra ...any) (storage_interface.GameMeta, error) {
	var (
		m       storage_interface.GameMeta
		savedAt int64
	)
	dest := append([]any{&m.ID, &m.Name, &m.Author, &m.Description, &m.Version, &m.PrefabCount, &m.Size, &savedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return m, err
	}
	m.SavedAt = time.Unix(0, savedAt).UTC()
	return m, nil
}

// Load загружает игру целиком.
func (r *SQLGameRepo) Load(ctx context.Context, id string) (*storage_interface.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var data []byte
	row := r.db.QueryRowContext(ctx, `SELECT `+metaColumns+`, data FROM prefab_games WHERE id = ?`, id)
	meta, err := scanMeta(row, &data)
	if err != nil {
		return nil, r.notFound(id, err)
	}
	return &storage_interface.GameRecord{Meta: meta, Data: data}, nil
}

// Info загружает только метаданные.
func (r *SQLGameRepo) Info(ctx context.Context, id string) (*storage_interface.GameMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+metaColumns+` FROM prefab_games WHERE id = ?`, id)
	meta, err := scanMeta(row)
	if err != nil {
		return nil, r.notFound(id, err)
	}
	return &meta, nil
}

// List возвращает метаданные всех игр по возрастанию ID.
func (r *SQLGameRepo) List(ctx context.Context) ([]storage_interface.GameMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT `+metaColumns+` FROM prefab_games ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения списка игр: %w", err)
	}
	defer rows.Close()

	metas := make([]storage_interface.GameMeta, 0)
	for rows.Next() {
		meta, err := scanMeta(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения строки: %w", err)
		}
		metas = append(metas, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return metas, nil
}

// Delete удаляет игру.
func (r *SQLGameRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM prefab_games WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления игры %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения количества затронутых строк: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("игра %s: %w", id, storage_interface.ErrGameNotFound)
	}
	return nil
}

// Close закрывает соединение с базой данных.
func (r *SQLGameRepo) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLGameRepo) notFound(id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("игра %s: %w", id, storage_interface.ErrGameNotFound)
	}
	return fmt.Errorf("ошибка чтения игры %s: %w", id, err)
}

var _ storage_interface.GameStore = (*SQLGameRepo)(nil)
