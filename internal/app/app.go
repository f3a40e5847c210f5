// Package app собирает библиотеку игр из конфигурации: хранилище, кеш,
// шину событий и метрики. Используется сервером и game-cli.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/prefab-loader/internal/cache"
	"github.com/annel0/prefab-loader/internal/config"
	"github.com/annel0/prefab-loader/internal/eventbus"
	"github.com/annel0/prefab-loader/internal/library"
	"github.com/annel0/prefab-loader/internal/logging"
	"github.com/annel0/prefab-loader/internal/storage"
	"github.com/annel0/prefab-loader/internal/storage_adapter"
	"github.com/annel0/prefab-loader/internal/storage_interface"
)

// EventRetention - сколько JetStream хранит события
const EventRetention = 7 * 24 * time.Hour

const memoryBusCapacity = 1024

// App - собранная библиотека со вспомогательными компонентами
type App struct {
	Library  *library.Library
	Bus      eventbus.EventBus // nil при events.backend=none
	Registry *prometheus.Registry

	closers []func() error
	log     *logging.Logger
}

// New открывает хранилище и шину событий по конфигурации
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Registry: prometheus.NewRegistry(),
		log:      logging.GetComponentLogger("app"),
	}

	bus, err := openBus(cfg)
	if err != nil {
		return nil, err
	}

	var opts []library.Option
	if bus != nil {
		a.Bus = bus
		a.closers = append(a.closers, bus.Close)

		sub, err := eventbus.StartLoggingListener(bus)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("не удалось подписать логгер событий: %w", err)
		}
		a.closers = append(a.closers, func() error { sub.Unsubscribe(); return nil })

		exporter := eventbus.NewMetricsExporter(bus, a.Registry)
		exporter.Start(5 * time.Second)
		a.closers = append(a.closers, func() error { exporter.Stop(); return nil })

		opts = append(opts, library.WithEventBus(bus))
	}

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Library = library.New(store, library.NewMetrics(a.Registry), cfg.Codec.GetCompressionLevel(), opts...)
	// Библиотека закрывается первой, шина после неё
	a.closers = append(a.closers, a.Library.Close)

	a.log.Info("Библиотека собрана: storage=%s, cache=%v, events=%s",
		cfg.Storage.GetBackend(), cfg.Cache.Enabled, cfg.Events.GetBackend())
	return a, nil
}

// Close освобождает ресурсы в порядке, обратном открытию
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func openBus(cfg *config.Config) (eventbus.EventBus, error) {
	switch cfg.Events.GetBackend() {
	case config.EventsMemory:
		return eventbus.NewMemoryBus(memoryBusCapacity), nil
	case config.EventsNATS:
		bus, err := eventbus.NewJetStreamBus(cfg.Events.GetNATSURL(), cfg.Events.GetStream(), EventRetention)
		if err != nil {
			return nil, fmt.Errorf("не удалось подключиться к NATS JetStream: %w", err)
		}
		return bus, nil
	case config.EventsNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("неизвестный events.backend: %q", cfg.Events.GetBackend())
	}
}

// OpenStore выбирает хранилище по storage.backend и, если включено,
// оборачивает его кешем. Подписка на инвалидацию живет, пока жив ctx.
func OpenStore(ctx context.Context, cfg *config.Config) (storage_interface.GameStore, error) {
	store, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if !cfg.Cache.Enabled {
		return store, nil
	}

	cached, err := wrapCache(ctx, cfg, store)
	if err != nil {
		store.Close()
		return nil, err
	}
	return cached, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (storage_interface.GameStore, error) {
	s := &cfg.Storage
	switch s.GetBackend() {
	case config.BackendBadger:
		return storage_adapter.NewGameStore(s.GetPath())
	case config.BackendFile:
		return storage_adapter.NewFileStorageAdapter(s.GetPath())
	case config.BackendMemory:
		return storage.NewMemoryGameRepo(), nil
	case config.BackendSQL:
		return storage.NewSQLGameRepo(s.SQL.GetDriver(), s.SQL.GetDSN())
	case config.BackendRedis:
		return storage.NewRedisGameRepo(ctx, storage.RedisGameOptions{
			Addr:      s.Redis.GetAddr(),
			Password:  s.Redis.Password,
			DB:        s.Redis.DB,
			KeyPrefix: s.Redis.GetKeyPrefix(),
		})
	case config.BackendMongo:
		return storage.NewMongoGameRepo(ctx, storage.MongoGameOptions{
			URI:        s.Mongo.GetURI(),
			Database:   s.Mongo.GetDatabase(),
			Collection: s.Mongo.GetCollection(),
		})
	default:
		return nil, fmt.Errorf("неизвестный storage.backend: %q", s.GetBackend())
	}
}

func wrapCache(ctx context.Context, cfg *config.Config, store storage_interface.GameStore) (*cache.CachedStore, error) {
	c := &cfg.Cache

	var repo cache.CacheRepo
	switch c.GetBackend() {
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(cache.RedisCacheConfig{
			Addr:      c.GetRedisAddr(),
			KeyPrefix: "prefab:cache:",
			MaxTTL:    c.GetTTL(),
		})
		if err != nil {
			return nil, err
		}
		repo = rc
	case config.BackendMemory:
		repo = cache.NewMemoryCache()
	default:
		return nil, fmt.Errorf("неизвестный cache.backend: %q", c.GetBackend())
	}

	var invalidator cache.Invalidator
	if c.NATSURL != "" {
		inv, err := cache.NewNATSInvalidator(cache.InvalidatorConfig{NATSURL: c.NATSURL}, nodeID())
		if err != nil {
			repo.Close()
			return nil, err
		}
		invalidator = inv
	}

	cached := cache.NewCachedStore(store, repo, invalidator, c.GetTTL())
	if err := cached.Listen(ctx); err != nil {
		// store закрывает вызывающий
		if invalidator != nil {
			invalidator.Close()
		}
		repo.Close()
		return nil, fmt.Errorf("не удалось подписаться на инвалидацию кеша: %w", err)
	}
	return cached, nil
}

// nodeID отличает сообщения инвалидации этого процесса от чужих
func nodeID() string {
	host, err := os.Hostname()
	if err != nil {
		host = "node"
	}
	return host + "-" + uuid.NewString()[:8]
}
