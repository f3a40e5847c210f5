package app

import (
	"bytes"
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/prefab-loader/internal/cache"
	"github.com/annel0/prefab-loader/internal/config"
	"github.com/annel0/prefab-loader/internal/eventbus"
	"github.com/annel0/prefab-loader/internal/storage_interface/storetest"
)

func TestOpenStoreBackends(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cases := map[string]config.StorageConfig{
		"memory": {Backend: config.BackendMemory},
		"file":   {Backend: config.BackendFile, Path: filepath.Join(dir, "file")},
		"badger": {Backend: config.BackendBadger, Path: filepath.Join(dir, "badger")},
		"sqlite": {Backend: config.BackendSQL, SQL: config.SQLConfig{Driver: config.DriverSQLite, DSN: filepath.Join(dir, "games.db")}},
	}
	for name, sc := range cases {
		t.Run(name, func(t *testing.T) {
			store, err := OpenStore(ctx, &config.Config{Storage: sc})
			require.NoError(t, err)
			defer store.Close()
			storetest.Run(t, store)
		})
	}
}

func TestOpenStoreWithMemoryCache(t *testing.T) {
	cfg := &config.Config{
		Storage: config.StorageConfig{Backend: config.BackendMemory},
		Cache:   config.CacheConfig{Enabled: true, Backend: config.BackendMemory, TTL: time.Minute},
	}
	store, err := OpenStore(context.Background(), cfg)
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.(*cache.CachedStore)
	assert.True(t, ok, "хранилище должно быть обернуто кешем")
	storetest.Run(t, store)
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	_, err := OpenStore(context.Background(), &config.Config{Storage: config.StorageConfig{Backend: "cassandra"}})
	assert.Error(t, err)
}

func TestNewWithMemoryBus(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		Storage: config.StorageConfig{Backend: config.BackendMemory},
		Events:  config.EventsConfig{Backend: config.EventsMemory},
	}

	a, err := New(ctx, cfg)
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.Bus)

	var (
		mu     sync.Mutex
		events []string
	)
	sub, err := a.Bus.Subscribe(ctx, eventbus.Filter{}, func(_ context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		events = append(events, ev.EventType)
		mu.Unlock()
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	meta, err := a.Library.Import(ctx, bytes.NewReader(storetest.CompressedGame(t, "Wired")))
	require.NoError(t, err)
	assert.Equal(t, "Wired", meta.Name)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(events) == 1 && events[0] == eventbus.EventGameImported
	}, 2*time.Second, 10*time.Millisecond)

	families, err := a.Registry.Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["prefab_library_operations_total"])
}

func TestNewWithoutBus(t *testing.T) {
	a, err := New(context.Background(), &config.Config{Storage: config.StorageConfig{Backend: config.BackendMemory}})
	require.NoError(t, err)
	assert.Nil(t, a.Bus)
	assert.NoError(t, a.Close())
	assert.NoError(t, a.Close(), "повторное закрытие ничего не делает")
}
