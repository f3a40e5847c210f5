package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/annel0/prefab-loader/internal/logging"
	"github.com/annel0/prefab-loader/internal/storage_interface"
)

// Ключи кеша
func gameKey(id string) string { return "game:" + id }
func metaKey(id string) string { return "meta:" + id }

// CachedStore - GameStore с read-through кешем.
//
// Load и Info читают сначала из кеша. Save и Delete пишут в хранилище,
// удаляют оба ключа игры и рассылают её ID через Invalidator.
// List всегда идёт в хранилище.
type CachedStore struct {
	store       storage_interface.GameStore
	cache       CacheRepo
	invalidator Invalidator // может быть nil
	ttl         time.Duration
	log         *logging.Logger
}

// cachedGame - запись игры в кеше
type cachedGame struct {
	Meta storage_interface.GameMeta `json:"meta"`
	Data []byte                     `json:"data"`
}

// NewCachedStore оборачивает store. invalidator может быть nil.
// CachedStore владеет всеми тремя компонентами и закрывает их в Close.
func NewCachedStore(store storage_interface.GameStore, cache CacheRepo, invalidator Invalidator, ttl time.Duration) *CachedStore {
	return &CachedStore{
		store:       store,
		cache:       cache,
		invalidator: invalidator,
		ttl:         ttl,
		log:         logging.GetComponentLogger("cache"),
	}
}

// Listen применяет инвалидации других узлов к локальному кешу
func (c *CachedStore) Listen(ctx context.Context) error {
	if c.invalidator == nil {
		return nil
	}
	return c.invalidator.SubscribeInvalidations(ctx, func(id string) error {
		return c.drop(context.Background(), id)
	})
}

// Save сохраняет игру и сбрасывает кеш
func (c *CachedStore) Save(ctx context.Context, rec *storage_interface.GameRecord) error {
	if err := c.store.Save(ctx, rec); err != nil {
		return err
	}
	c.invalidate(ctx, rec.Meta.ID)
	return nil
}

// Load читает игру через кеш
func (c *CachedStore) Load(ctx context.Context, id string) (*storage_interface.GameRecord, error) {
	if raw, ok := c.lookup(ctx, gameKey(id)); ok {
		var cg cachedGame
		if err := json.Unmarshal(raw, &cg); err == nil {
			return &storage_interface.GameRecord{Meta: cg.Meta, Data: cg.Data}, nil
		}
		c.log.Warn("Повреждённая запись кеша %s, читаем из хранилища", gameKey(id))
	}

	rec, err := c.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(cachedGame{Meta: rec.Meta, Data: rec.Data}); err == nil {
		c.fill(ctx, gameKey(id), raw)
	}
	return rec, nil
}

// Info читает метаданные через кеш
func (c *CachedStore) Info(ctx context.Context, id string) (*storage_interface.GameMeta, error) {
	if raw, ok := c.lookup(ctx, metaKey(id)); ok {
		var meta storage_interface.GameMeta
		if err := json.Unmarshal(raw, &meta); err == nil {
			return &meta, nil
		}
		c.log.Warn("Повреждённая запись кеша %s, читаем из хранилища", metaKey(id))
	}

	meta, err := c.store.Info(ctx, id)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(meta); err == nil {
		c.fill(ctx, metaKey(id), raw)
	}
	return meta, nil
}

// List не кешируется
func (c *CachedStore) List(ctx context.Context) ([]storage_interface.GameMeta, error) {
	return c.store.List(ctx)
}

// Delete удаляет игру и сбрасывает кеш
func (c *CachedStore) Delete(ctx context.Context, id string) error {
	if err := c.store.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

// Metrics возвращает метрики кеша
func (c *CachedStore) Metrics() *CacheMetrics {
	return c.cache.GetMetrics()
}

// Close закрывает invalidator, кеш и хранилище
func (c *CachedStore) Close() error {
	var errs []error
	if c.invalidator != nil {
		errs = append(errs, c.invalidator.Close())
	}
	errs = append(errs, c.cache.Close(), c.store.Close())
	return errors.Join(errs...)
}

// lookup возвращает значение из кеша. Ошибки кеша не прерывают чтение.
func (c *CachedStore) lookup(ctx context.Context, key string) ([]byte, bool) {
	raw, err := c.cache.Get(ctx, key)
	if err == nil {
		return raw, true
	}
	if !IsCacheMiss(err) && ctx.Err() == nil {
		c.log.Warn("Ошибка чтения кеша %s: %v", key, err)
	}
	return nil, false
}

func (c *CachedStore) fill(ctx context.Context, key string, raw []byte) {
	if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
		c.log.Warn("Ошибка записи кеша %s: %v", key, err)
	}
}

// drop удаляет оба ключа игры из кеша
func (c *CachedStore) drop(ctx context.Context, id string) error {
	return errors.Join(c.cache.Delete(ctx, gameKey(id)), c.cache.Delete(ctx, metaKey(id)))
}

func (c *CachedStore) invalidate(ctx context.Context, id string) {
	// Запись в хранилище уже прошла, кеш сбрасываем даже при отменённом ctx
	local := context.WithoutCancel(ctx)
	if err := c.drop(local, id); err != nil {
		c.log.Error("Не удалось сбросить кеш игры %s: %v", id, err)
	}
	if c.invalidator == nil {
		return
	}
	if err := c.invalidator.PublishInvalidation(local, id); err != nil {
		c.log.Error("Ошибка рассылки инвалидации %s: %v", id, err)
	}
}

var _ storage_interface.GameStore = (*CachedStore)(nil)
