package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/prefab-loader/internal/config"
	"github.com/annel0/prefab-loader/internal/world"
)

func memoryConfig() *config.Config {
	return &config.Config{Storage: config.StorageConfig{Backend: config.BackendMemory}}
}

func TestParseSize(t *testing.T) {
	x, z, err := parseSize("12, 7")
	require.NoError(t, err)
	assert.Equal(t, 12, x)
	assert.Equal(t, 7, z)

	_, _, err = parseSize("12")
	assert.Error(t, err)
	_, _, err = parseSize("a,1")
	assert.Error(t, err)
}

func TestParsePalette(t *testing.T) {
	p, err := parsePalette("")
	require.NoError(t, err)
	assert.Equal(t, world.DefaultPalette, p)

	p, err = parsePalette("10,11,12,13,14,0")
	require.NoError(t, err)
	assert.Equal(t, world.Palette{Stone: 10, Dirt: 11, Grass: 12, Sand: 13, Water: 14}, p)

	_, err = parsePalette("1,2,3")
	assert.Error(t, err)
	_, err = parsePalette("1,2,3,4,5,70000")
	assert.Error(t, err)
}

func TestRunFileCommands(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig()
	path := filepath.Join(t.TempDir(), "terrain.fcg")

	require.NoError(t, run(ctx, cfg, &Options{Command: "gen", Out: path, Name: "Hills", Seed: 5, Size: "8,8"}))

	g, err := readGameFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Hills", g.Name)
	require.Len(t, g.Prefabs, 1)
	assert.NotNil(t, g.Prefabs[0].Blocks)

	require.NoError(t, run(ctx, cfg, &Options{Command: "info", File: path}))
	require.NoError(t, run(ctx, cfg, &Options{Command: "dump", File: path}))

	edited := filepath.Join(t.TempDir(), "edited.fcg")
	require.NoError(t, run(ctx, cfg, &Options{Command: "editable", File: path, Out: edited}))
	eg, err := readGameFile(edited)
	require.NoError(t, err)
	assert.False(t, eg.Prefabs[0].UnEditable)

	require.NoError(t, run(ctx, cfg, &Options{Command: "import", File: path}))
}

func TestRunAuthHelpers(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig()

	require.NoError(t, run(ctx, cfg, &Options{Command: "hash-password", Password: "secret"}))
	require.NoError(t, run(ctx, cfg, &Options{Command: "jwt-secret"}))
	assert.Error(t, run(ctx, cfg, &Options{Command: "hash-password"}))
}

func TestRunErrors(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig()

	assert.Error(t, run(ctx, cfg, &Options{Command: "nope"}))
	assert.Error(t, run(ctx, cfg, &Options{Command: "export", ID: "x"}), "без -out")
	assert.Error(t, run(ctx, cfg, &Options{Command: "delete"}))
	assert.Error(t, run(ctx, cfg, &Options{Command: "editable"}))
	assert.Error(t, run(ctx, cfg, &Options{Command: "gen", Out: filepath.Join(t.TempDir(), "x.fcg"), Name: "X", Size: "0,4"}))
}
