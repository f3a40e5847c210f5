package storage_adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/prefab-loader/internal/raw"
	"github.com/annel0/prefab-loader/internal/storage_interface/storetest"
)

func TestBadgerGameStore(t *testing.T) {
	store, err := NewGameStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	storetest.Run(t, store)
}

func TestFileGameStore(t *testing.T) {
	store, err := NewFileStorageAdapter(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	storetest.Run(t, store)
}

func TestFileStoreReadsForeignFcg(t *testing.T) {
	dir := t.TempDir()
	data := storetest.CompressedGame(t, "Dropped In")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manual.fcg"), data, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	store, err := NewFileStorageAdapter(dir)
	require.NoError(t, err)

	list, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "manual", list[0].ID)
	assert.Equal(t, "Dropped In", list[0].Name)
	assert.Equal(t, "tester", list[0].Author)
	assert.Equal(t, raw.CurrentVersion, list[0].Version)
	assert.Equal(t, len(data), list[0].Size)
}

func TestFileStoreRejectsPathIDs(t *testing.T) {
	store, err := NewFileStorageAdapter(t.TempDir())
	require.NoError(t, err)

	for _, id := range []string{"", "..", "a/b", `a\b`} {
		_, err := store.Info(context.Background(), id)
		assert.ErrorIs(t, err, ErrInvalidID, "id %q", id)
	}
}
