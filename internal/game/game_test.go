package game

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/prefab-loader/internal/grid"
	"github.com/annel0/prefab-loader/internal/prefab"
	"github.com/annel0/prefab-loader/internal/protocol"
	"github.com/annel0/prefab-loader/internal/raw"
	"github.com/annel0/prefab-loader/internal/vec"
	"github.com/annel0/prefab-loader/internal/world/block"
)

func TestOffsetRemap(t *testing.T) {
	remap := OffsetRemap(500, 597)
	assert.Equal(t, block.AirBlockID, remap(0))
	assert.Equal(t, block.BlockID(499), remap(499), "стоковые блоки не сдвигаются")
	assert.Equal(t, block.BlockID(597), remap(500))
	assert.Equal(t, block.BlockID(607), remap(510))

	same := OffsetRemap(597, 597)
	assert.Equal(t, block.BlockID(700), same(700))
}

func rawGameWithOffset(t *testing.T, offset uint16) *raw.Game {
	t.Helper()
	rg, err := raw.NewGame("Old")
	require.NoError(t, err)
	rg.IDOffset = offset

	ids, err := grid.FromSlice([]block.BlockID{3, 500, 0, 501}, 2, 2, 1)
	require.NoError(t, err)

	level := raw.NewPrefab()
	level.Name = "Level"
	level.Type = prefab.TypeLevel
	level.Blocks = ids

	part := raw.NewPrefab()
	part.Name = "Part"
	part.GroupID = 500
	part.UnEditable = true

	rg.Prefabs = []*raw.Prefab{level, part}
	return rg
}

func TestFromRawRemapsCustomIDs(t *testing.T) {
	rg := rawGameWithOffset(t, 500)

	g, err := FromRaw(rg, true)
	require.NoError(t, err)
	require.Len(t, g.Prefabs, 2)

	level := g.Prefabs[0]
	assert.Equal(t, vec.NewVec3(2, 2, 1), level.Blocks.Size())
	assert.Equal(t, block.BlockID(3), level.Blocks.GetBlock(vec.NewVec3(0, 0, 0)))
	assert.Equal(t, block.BlockID(597), level.Blocks.GetBlock(vec.NewVec3(1, 0, 0)))
	assert.Equal(t, block.AirBlockID, level.Blocks.GetBlock(vec.NewVec3(0, 1, 0)))
	assert.Equal(t, block.BlockID(598), level.Blocks.GetBlock(vec.NewVec3(1, 1, 0)))

	part := g.Prefabs[1]
	assert.Equal(t, block.BlockID(597), part.GroupID)
	assert.False(t, part.Editable)

	// clone=true не трогает исходную сетку
	assert.Equal(t, block.BlockID(500), rg.Prefabs[0].Blocks.Get(1, 0, 0))
}

func TestToRawStampsCurrentOffset(t *testing.T) {
	g, err := FromRaw(rawGameWithOffset(t, 500), true)
	require.NoError(t, err)

	rg, err := g.ToRaw(true)
	require.NoError(t, err)
	assert.Equal(t, raw.CurrentStockPrefabs, rg.IDOffset)
	assert.Equal(t, "Old", rg.Name)
	assert.Equal(t, []block.BlockID{3, 597, 0, 598}, rg.Prefabs[0].Blocks.Data())
	assert.True(t, rg.Prefabs[1].UnEditable)
	assert.Nil(t, rg.Prefabs[1].Blocks, "пустые блоки не записываются")

	// повторная загрузка ничего не сдвигает
	var buf bytes.Buffer
	require.NoError(t, rg.SaveCompressed(&buf, protocol.DefaultCompressionLevel))
	loaded, err := raw.LoadCompressed(&buf)
	require.NoError(t, err)

	again, err := FromRaw(loaded, false)
	require.NoError(t, err)
	assert.Equal(t, block.BlockID(597), again.Prefabs[0].Blocks.GetBlock(vec.NewVec3(1, 0, 0)))
	assert.Equal(t, block.BlockID(597), again.Prefabs[1].GroupID)
}

func TestMakeEditable(t *testing.T) {
	g, err := FromRaw(rawGameWithOffset(t, 597), false)
	require.NoError(t, err)
	g.Author = "Someone"

	g.MakeEditable(false)
	assert.Equal(t, "Someone", g.Author)
	assert.True(t, g.Prefabs[1].Editable)

	g.MakeEditable(true)
	assert.Equal(t, raw.DefaultAuthor, g.Author)
}

func TestGroupsAndPartials(t *testing.T) {
	g, err := New("Groups")
	require.NoError(t, err)

	for _, pos := range []vec.Byte3{{}, {X: 1}, {Y: 1}} {
		p, err := prefab.New("Part", prefab.TypeNormal)
		require.NoError(t, err)
		p.GroupID = 600
		p.PosInGroup = pos
		g.Prefabs = append(g.Prefabs, p)
	}
	single, err := prefab.New("Single", prefab.TypeScript)
	require.NoError(t, err)
	g.Prefabs = append(g.Prefabs, single)

	groups, err := g.Groups()
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 3, groups[0].Len())
	assert.Equal(t, vec.Byte3{X: 2, Y: 2, Z: 1}, groups[0].Size())

	id, ok := prefab.IDAt(groups[0], vec.Byte3{Y: 1})
	require.True(t, ok)
	assert.Equal(t, block.BlockID(602), id)

	partials := g.Partials()
	require.Len(t, partials, 4)
	assert.Equal(t, "Single", partials[3].Name)
	assert.False(t, partials[3].IsInGroup())

	g.Prefabs[1].PosInGroup = vec.Byte3{}
	_, err = g.Groups()
	assert.ErrorIs(t, err, prefab.ErrInvalidArgument)
}

func TestNameValidation(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, prefab.ErrInvalidArgument)

	g, err := New("a")
	require.NoError(t, err)
	assert.ErrorIs(t, g.SetName(""), prefab.ErrInvalidArgument)
	assert.Equal(t, "a", g.Name())
	assert.Equal(t, raw.DefaultAuthor, g.Author)
}
