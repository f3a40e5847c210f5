package world

import (
	"testing"

	"github.com/annel0/prefab-loader/internal/vec"
	"github.com/annel0/prefab-loader/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerrainGeneratorDeterministic(t *testing.T) {
	a, err := NewTerrainGenerator(1234, DefaultPalette).Generate(20, 12)
	require.NoError(t, err)
	b, err := NewTerrainGenerator(1234, DefaultPalette).Generate(20, 12)
	require.NoError(t, err)

	assert.Equal(t, a.Size(), b.Size())
	assert.Equal(t, a.ToGrid().Data(), b.ToGrid().Data(), "один сид - один ландшафт")
}

func TestTerrainGeneratorFillsEveryColumn(t *testing.T) {
	tg := NewTerrainGenerator(7, DefaultPalette)
	bd, err := tg.Generate(10, 6)
	require.NoError(t, err)

	size := bd.Size()
	assert.Equal(t, 10, size.X)
	assert.Equal(t, 6, size.Z)
	assert.LessOrEqual(t, size.Y, tg.MaxHeight)

	for z := 0; z < 6; z++ {
		for x := 0; x < 10; x++ {
			assert.False(t, bd.GetBlock(vec.NewVec3(x, 0, z)).IsAir(), "столбец (%d,%d) пуст", x, z)
		}
	}
}

func TestTerrainGeneratorPaletteAirDisablesElement(t *testing.T) {
	palette := DefaultPalette
	palette.Tree = block.AirBlockID

	tg := NewTerrainGenerator(99, palette)
	tg.ForestDensity = 1
	bd, err := tg.Generate(16, 16)
	require.NoError(t, err)

	data := bd.ToGrid().Data()
	for _, id := range data {
		assert.NotEqual(t, DefaultPalette.Tree, id)
	}
}

func TestTerrainGeneratorRejectsEmptyArea(t *testing.T) {
	tg := NewTerrainGenerator(1, DefaultPalette)

	_, err := tg.Generate(0, 4)
	assert.ErrorIs(t, err, ErrNegativePosition)

	tg.MaxHeight = 0
	_, err = tg.Generate(4, 4)
	assert.ErrorIs(t, err, ErrNegativePosition)
}

func TestBiomeThresholds(t *testing.T) {
	assert.Equal(t, BiomeDeepWater, getBiomeType(0.1, 0.5))
	assert.Equal(t, BiomeWater, getBiomeType(0.25, 0.5))
	assert.Equal(t, BiomeMountains, getBiomeType(0.9, 0.5))
	assert.Equal(t, BiomeDesert, getBiomeType(0.5, 0.1))
	assert.Equal(t, BiomeForest, getBiomeType(0.5, 0.9))
	assert.Equal(t, BiomePlains, getBiomeType(0.5, 0.5))
}
