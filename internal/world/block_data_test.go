package world

import (
	"testing"

	"github.com/annel0/prefab-loader/internal/grid"
	"github.com/annel0/prefab-loader/internal/vec"
	"github.com/annel0/prefab-loader/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testShape - простая группа для тестов
type testShape struct {
	id    block.BlockID
	cells map[vec.Byte3]struct{}
}

func newTestShape(id block.BlockID, cells ...vec.Byte3) *testShape {
	s := &testShape{id: id, cells: make(map[vec.Byte3]struct{})}
	for _, c := range cells {
		s.cells[c] = struct{}{}
	}
	return s
}

func (s *testShape) ID() block.BlockID { return s.id }

func (s *testShape) Size() vec.Byte3 {
	var size vec.Byte3
	for c := range s.cells {
		size = size.Max(vec.Byte3{X: c.X + 1, Y: c.Y + 1, Z: c.Z + 1})
	}
	return size
}

func (s *testShape) ContainsKey(pos vec.Byte3) bool {
	_, ok := s.cells[pos]
	return ok
}

func TestNewBlockDataIsEmpty(t *testing.T) {
	bd := NewBlockData()

	assert.Equal(t, vec.Zero, bd.Size())
	assert.Equal(t, vec.Vec3{X: 8, Y: 8, Z: 8}, bd.Capacity())
	assert.True(t, bd.IsEmpty())
}

func TestEnsureSizeChunkRounding(t *testing.T) {
	bd := NewBlockData()
	require.NoError(t, bd.SetBlock(vec.Vec3{X: 1, Y: 2, Z: 3}, 11))

	require.NoError(t, bd.EnsureSize(vec.Vec3{X: 8, Y: 0, Z: 16}))
	assert.Equal(t, vec.Vec3{X: 9, Y: 3, Z: 17}, bd.Size())
	assert.Equal(t, vec.Vec3{X: 16, Y: 8, Z: 24}, bd.Capacity())
	assert.Equal(t, block.BlockID(11), bd.GetBlock(vec.Vec3{X: 1, Y: 2, Z: 3}), "прежнее содержимое должно сохраниться")
}

func TestEnsureSizeWithinCapacityKeepsStorage(t *testing.T) {
	bd := NewBlockData()
	require.NoError(t, bd.EnsureSize(vec.Vec3{X: 6, Y: 0, Z: 0}))

	assert.Equal(t, vec.Vec3{X: 7, Y: 1, Z: 1}, bd.Size())
	assert.Equal(t, vec.Vec3{X: 8, Y: 8, Z: 8}, bd.Capacity())
}

func TestEnsureSizeRejectsNegative(t *testing.T) {
	bd := NewBlockData()
	assert.ErrorIs(t, bd.EnsureSize(vec.Vec3{X: -1}), ErrNegativePosition)
	assert.ErrorIs(t, bd.SetBlock(vec.Vec3{Z: -2}, 5), ErrNegativePosition)
}

func TestSetBlockAirDoesNotGrow(t *testing.T) {
	bd := NewBlockData()

	require.NoError(t, bd.SetBlock(vec.Vec3{X: 20, Y: 20, Z: 20}, block.AirBlockID))
	assert.Equal(t, vec.Zero, bd.Size())
	assert.Equal(t, vec.Vec3{X: 8, Y: 8, Z: 8}, bd.Capacity())

	require.NoError(t, bd.SetBlock(vec.Vec3{X: 2}, 4))
	assert.Equal(t, vec.Vec3{X: 3, Y: 1, Z: 1}, bd.Size())
	assert.Equal(t, block.BlockID(4), bd.GetBlock(vec.Vec3{X: 2}))
	assert.Equal(t, block.AirBlockID, bd.GetBlock(vec.Vec3{X: 100}))
}

func TestSetGroupSequencing(t *testing.T) {
	bd := NewBlockData()
	shape := newTestShape(100,
		vec.Byte3{X: 0, Y: 0, Z: 0},
		vec.Byte3{X: 1, Y: 0, Z: 0},
		vec.Byte3{X: 0, Y: 1, Z: 0},
	)

	require.NoError(t, bd.SetGroup(vec.Zero, shape))

	assert.Equal(t, block.BlockID(100), bd.GetBlock(vec.Vec3{X: 0, Y: 0, Z: 0}))
	assert.Equal(t, block.BlockID(101), bd.GetBlock(vec.Vec3{X: 1, Y: 0, Z: 0}))
	assert.Equal(t, block.BlockID(102), bd.GetBlock(vec.Vec3{X: 0, Y: 1, Z: 0}))
	assert.Equal(t, block.AirBlockID, bd.GetBlock(vec.Vec3{X: 1, Y: 1, Z: 0}))
	assert.Equal(t, vec.Vec3{X: 2, Y: 2, Z: 1}, bd.Size())
}

func TestSetGroupOffsetGrowsOnce(t *testing.T) {
	bd := NewBlockData()
	shape := newTestShape(7,
		vec.Byte3{X: 0, Y: 0, Z: 0},
		vec.Byte3{X: 0, Y: 0, Z: 1},
	)

	require.NoError(t, bd.SetGroup(vec.Vec3{X: 3, Y: 4, Z: 7}, shape))

	assert.Equal(t, vec.Vec3{X: 4, Y: 5, Z: 9}, bd.Size())
	assert.Equal(t, vec.Vec3{X: 8, Y: 8, Z: 16}, bd.Capacity())
	assert.Equal(t, block.BlockID(7), bd.GetBlock(vec.Vec3{X: 3, Y: 4, Z: 7}))
	assert.Equal(t, block.BlockID(8), bd.GetBlock(vec.Vec3{X: 3, Y: 4, Z: 8}))
}

func TestForEachGroupCellStopsEarly(t *testing.T) {
	shape := newTestShape(1,
		vec.Byte3{X: 0}, vec.Byte3{X: 1}, vec.Byte3{X: 2},
	)

	var seen []block.BlockID
	ForEachGroupCell(shape, func(_ vec.Byte3, id block.BlockID) bool {
		seen = append(seen, id)
		return id < 2
	})
	assert.Equal(t, []block.BlockID{1, 2}, seen)
}

func TestTrimFindsBoundingBox(t *testing.T) {
	bd := NewBlockData()
	require.NoError(t, bd.SetBlock(vec.Vec3{X: 0, Y: 0, Z: 0}, 1))
	require.NoError(t, bd.SetBlock(vec.Vec3{X: 10, Y: 1, Z: 2}, 2))
	require.NoError(t, bd.SetBlock(vec.Vec3{X: 10, Y: 1, Z: 2}, block.AirBlockID))
	require.NoError(t, bd.SetBlock(vec.Vec3{X: 0, Y: 3, Z: 0}, 3))

	assert.Equal(t, vec.Vec3{X: 11, Y: 4, Z: 3}, bd.Size())

	bd.Trim()
	assert.Equal(t, vec.Vec3{X: 1, Y: 4, Z: 1}, bd.Size(), "размер не округляется до чанка")
	assert.Equal(t, vec.Vec3{X: 16, Y: 8, Z: 8}, bd.Capacity(), "ёмкость при Trim не уменьшается")
}

func TestTrimKeepsBlocksOnAxisOrigin(t *testing.T) {
	bd := NewBlockData()
	require.NoError(t, bd.SetBlock(vec.Zero, 9))

	bd.Trim()
	assert.Equal(t, vec.One, bd.Size())
	assert.Equal(t, block.BlockID(9), bd.GetBlock(vec.Zero))
}

func TestTrimIdempotent(t *testing.T) {
	bd := NewBlockData()
	require.NoError(t, bd.SetBlock(vec.Vec3{X: 5, Y: 2, Z: 9}, 3))
	require.NoError(t, bd.SetBlock(vec.Vec3{X: 1, Y: 6, Z: 0}, 4))

	bd.Trim()
	first := bd.Size()
	bd.Trim()

	assert.Equal(t, first, bd.Size())
	assert.Equal(t, vec.Vec3{X: 6, Y: 7, Z: 10}, first)
}

func TestTrimAllEmpty(t *testing.T) {
	bd := NewBlockData()
	require.NoError(t, bd.SetBlock(vec.Vec3{X: 3, Y: 3, Z: 3}, 5))
	require.NoError(t, bd.SetBlock(vec.Vec3{X: 3, Y: 3, Z: 3}, block.AirBlockID))

	bd.Trim()
	assert.Equal(t, vec.Zero, bd.Size())
	assert.Equal(t, vec.Zero, bd.Capacity())

	// после полной очистки хранилище снова растёт
	require.NoError(t, bd.SetBlock(vec.Vec3{X: 1}, 2))
	assert.Equal(t, vec.Vec3{X: 2, Y: 1, Z: 1}, bd.Size())
	assert.Equal(t, vec.Vec3{X: 8, Y: 8, Z: 8}, bd.Capacity())
}

func TestNewBlockDataFromTrims(t *testing.T) {
	g, err := grid.FromSlice([]block.BlockID{
		5, 0, 0,
		0, 0, 0,
	}, 3, 2, 1)
	require.NoError(t, err)

	bd := NewBlockDataFrom(g)
	assert.Equal(t, vec.One, bd.Size())
	assert.Equal(t, block.BlockID(5), bd.GetBlock(vec.Zero))
}

func TestToGridExactExtent(t *testing.T) {
	bd := NewBlockData()
	require.NoError(t, bd.SetBlock(vec.Vec3{X: 0}, 5))
	require.NoError(t, bd.SetBlock(vec.Vec3{X: 1}, 9))

	g := bd.ToGrid()
	assert.Equal(t, vec.Vec3{X: 2, Y: 1, Z: 1}, g.Size())
	assert.Equal(t, []block.BlockID{5, 9}, g.Data())

	empty := NewBlockData().ToGrid()
	assert.Equal(t, 0, empty.Len())
}

func TestBlockDataCloneAndRemap(t *testing.T) {
	bd := NewBlockData()
	require.NoError(t, bd.SetBlock(vec.Vec3{X: 1, Y: 1, Z: 1}, 600))

	c := bd.Clone()
	c.Remap(func(id block.BlockID) block.BlockID { return id + 10 })

	assert.Equal(t, block.BlockID(600), bd.GetBlock(vec.One))
	assert.Equal(t, block.BlockID(610), c.GetBlock(vec.One))
	assert.Equal(t, block.AirBlockID, c.GetBlock(vec.Zero), "воздух не переназначается")
	assert.Equal(t, 1, c.Count())
}
