package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/go-redis/redis/v8"

	"github.com/annel0/prefab-loader/internal/logging"
	"github.com/annel0/prefab-loader/internal/storage_interface"
)

// RedisGameOptions содержит настройки подключения к Redis
type RedisGameOptions struct {
	Addr      string // Адрес Redis сервера
	Password  string // Пароль (пустой если не требуется)
	DB        int    // Номер базы данных
	KeyPrefix string // Префикс для ключей
}

// RedisGameRepo хранит игры в Redis.
//
// Ключи:
//   - <prefix>data:<id> - сжатый контейнер
//   - <prefix>meta:<id> - метаданные в JSON
//   - <prefix>ids       - множество ID
type RedisGameRepo struct {
	client    *redis.Client
	keyPrefix string
	log       *logging.Logger
}

// NewRedisGameRepo подключается к Redis и проверяет соединение
func NewRedisGameRepo(ctx context.Context, opts RedisGameOptions) (*RedisGameRepo, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	// Проверяем подключение
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	repo := &RedisGameRepo{client: client, keyPrefix: opts.KeyPrefix, log: logging.GetStorageLogger()}
	repo.log.Info("Redis хранилище игр подключено: %s", opts.Addr)
	return repo, nil
}

func (r *RedisGameRepo) dataKey(id string) string { return r.keyPrefix + "data:" + id }
func (r *RedisGameRepo) metaKey(id string) string { return r.keyPrefix + "meta:" + id }
func (r *RedisGameRepo) idsKey() string           { return r.keyPrefix + "ids" }

// Save записывает данные, метаданные и ID одной транзакцией
func (r *RedisGameRepo) Save(ctx context.Context, rec *storage_interface.GameRecord) error {
	if rec == nil || rec.Meta.ID == "" {
		return fmt.Errorf("пустой ID игры")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	meta, err := json.Marshal(rec.Meta)
	if err != nil {
		return fmt.Errorf("ошибка сериализации метаданных: %w", err)
	}

	id := rec.Meta.ID
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.dataKey(id), rec.Data, 0)
		pipe.Set(ctx, r.metaKey(id), meta, 0)
		pipe.SAdd(ctx, r.idsKey(), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения игры %s в Redis: %w", id, err)
	}
	return nil
}

// Load загружает игру целиком
func (r *RedisGameRepo) Load(ctx context.Context, id string) (*storage_interface.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vals, err := r.client.MGet(ctx, r.metaKey(id), r.dataKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения игры %s из Redis: %w", id, err)
	}
	metaRaw, ok1 := vals[0].(string)
	dataRaw, ok2 := vals[1].(string)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("игра %s: %w", id, storage_interface.ErrGameNotFound)
	}

	var meta storage_interface.GameMeta
	if err := json.Unmarshal([]byte(metaRaw), &meta); err != nil {
		return nil, fmt.Errorf("повреждённые метаданные игры %s: %w", id, err)
	}
	return &storage_interface.GameRecord{Meta: meta, Data: []byte(dataRaw)}, nil
}

// Info загружает только метаданные
func (r *RedisGameRepo) Info(ctx context.Context, id string) (*storage_interface.GameMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := r.client.Get(ctx, r.metaKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("игра %s: %w", id, storage_interface.ErrGameNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения метаданных %s из Redis: %w", id, err)
	}

	var meta storage_interface.GameMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("повреждённые метаданные игры %s: %w", id, err)
	}
	return &meta, nil
}

// List читает множество ID и метаданные одним MGET
func (r *RedisGameRepo) List(ctx context.Context) ([]storage_interface.GameMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids, err := r.client.SMembers(ctx, r.idsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения списка игр из Redis: %w", err)
	}
	metas := make([]storage_interface.GameMeta, 0, len(ids))
	if len(ids) == 0 {
		return metas, nil
	}
	sort.Strings(ids)

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.metaKey(id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения метаданных из Redis: %w", err)
	}

	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			// ID без метаданных: запись удаляется параллельно
			r.log.Warn("В Redis нет метаданных игры %s", ids[i])
			continue
		}
		var meta storage_interface.GameMeta
		if err := json.Unmarshal([]byte(s), &meta); err != nil {
			return nil, fmt.Errorf("повреждённые метаданные игры %s: %w", ids[i], err)
		}
		metas = append(metas, meta)
	}
	return metas, nil
}

// Delete удаляет все ключи игры одной транзакцией
func (r *RedisGameRepo) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var removed *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.SRem(ctx, r.idsKey(), id)
		pipe.Del(ctx, r.dataKey(id), r.metaKey(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления игры %s из Redis: %w", id, err)
	}
	if removed.Val() == 0 {
		return fmt.Errorf("игра %s: %w", id, storage_interface.ErrGameNotFound)
	}
	return nil
}

// Close закрывает подключение к Redis
func (r *RedisGameRepo) Close() error {
	return r.client.Close()
}

var _ storage_interface.GameStore = (*RedisGameRepo)(nil)
