// Package storetest содержит общий набор проверок для реализаций GameStore.
package storetest

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/prefab-loader/internal/protocol"
	"github.com/annel0/prefab-loader/internal/raw"
	"github.com/annel0/prefab-loader/internal/storage_interface"
)

// CompressedGame возвращает сжатый контейнер игры с одним префабом
func CompressedGame(t *testing.T, name string) []byte {
	t.Helper()
	g, err := raw.NewGame(name)
	require.NoError(t, err)
	g.Author = "tester"
	g.Prefabs = []*raw.Prefab{raw.NewPrefab()}

	var buf bytes.Buffer
	require.NoError(t, g.SaveCompressed(&buf, protocol.DefaultCompressionLevel))
	return buf.Bytes()
}

// Run проверяет поведение, общее для всех хранилищ.
// Хранилище должно быть пустым.
func Run(t *testing.T, store storage_interface.GameStore) {
	t.Helper()
	ctx := context.Background()
	data := CompressedGame(t, "Contract")
	savedAt := time.Unix(1700000000, 0).UTC()

	rec := &storage_interface.GameRecord{
		Meta: storage_interface.GameMeta{ID: "g-1", Name: "Contract", Author: "tester", Version: 31, PrefabCount: 1, Size: len(data), SavedAt: savedAt},
		Data: data,
	}
	require.NoError(t, store.Save(ctx, rec))

	got, err := store.Load(ctx, "g-1")
	require.NoError(t, err)
	assert.Equal(t, data, got.Data)
	assert.Equal(t, "Contract", got.Meta.Name)
	assert.Equal(t, 1, got.Meta.PrefabCount)

	meta, err := store.Info(ctx, "g-1")
	require.NoError(t, err)
	assert.Equal(t, "tester", meta.Author)
	assert.Equal(t, uint16(31), meta.Version)
	assert.True(t, savedAt.Equal(meta.SavedAt), "saved_at: %v", meta.SavedAt)

	// Повторное сохранение перезаписывает
	rec.Meta.Name = "Renamed"
	require.NoError(t, store.Save(ctx, rec))
	meta, err = store.Info(ctx, "g-1")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", meta.Name)

	require.NoError(t, store.Save(ctx, &storage_interface.GameRecord{
		Meta: storage_interface.GameMeta{ID: "a-0", Name: "First", SavedAt: savedAt},
		Data: data,
	}))

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a-0", list[0].ID)
	assert.Equal(t, "g-1", list[1].ID)

	require.NoError(t, store.Delete(ctx, "g-1"))
	_, err = store.Load(ctx, "g-1")
	assert.ErrorIs(t, err, storage_interface.ErrGameNotFound)
	_, err = store.Info(ctx, "g-1")
	assert.ErrorIs(t, err, storage_interface.ErrGameNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "g-1"), storage_interface.ErrGameNotFound)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = store.List(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = store.Load(cancelled, "a-0")
	assert.ErrorIs(t, err, context.Canceled)
}
