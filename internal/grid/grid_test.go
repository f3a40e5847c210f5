package grid

import (
	"testing"

	"github.com/annel0/prefab-loader/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridIndexRoundTrip(t *testing.T) {
	g, err := New[uint16](3, 4, 5)
	require.NoError(t, err)
	assert.Equal(t, 60, g.Len())

	for z := 0; z < 5; z++ {
		for y := 0; y < 4; y++ {
			for x := 0; x < 3; x++ {
				i := g.Index(x, y, z)
				assert.Equal(t, x+y*3+z*12, i)
				assert.Equal(t, vec.Vec3{X: x, Y: y, Z: z}, g.Pos(i))
			}
		}
	}
}

func TestGridNewRejectsNegative(t *testing.T) {
	_, err := New[int](1, -1, 1)
	assert.ErrorIs(t, err, ErrInvalidDimension)
}

func TestGridNewZeroAxisIsEmpty(t *testing.T) {
	g, err := New[int](0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, g.Len())
	assert.False(t, g.InBounds(0, 0, 0))
}

func TestGridFromSliceLengthMismatch(t *testing.T) {
	_, err := FromSlice([]uint16{1, 2, 3}, 2, 2, 1)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	g, err := FromSlice([]uint16{1, 2, 3, 4}, 2, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, uint16(4), g.Get(1, 1, 0))
}

func TestGridBounds(t *testing.T) {
	g, err := New[byte](2, 2, 2)
	require.NoError(t, err)

	assert.True(t, g.InBounds(1, 1, 1))
	assert.False(t, g.InBounds(2, 0, 0))
	assert.False(t, g.InBounds(0, -1, 0))
	assert.True(t, g.InBoundsIndex(7))
	assert.False(t, g.InBoundsIndex(8))

	assert.Panics(t, func() { g.Get(0, 0, 2) })
	assert.Panics(t, func() { g.Set(-1, 0, 0, 1) })
}

func TestGridResizePreservesContent(t *testing.T) {
	const v = uint16(7)

	g, err := New[uint16](4, 4, 4)
	require.NoError(t, err)
	for i := range g.Data() {
		g.SetIndex(i, v)
	}

	require.NoError(t, g.Resize(8, 4, 4))
	assert.Equal(t, vec.Vec3{X: 8, Y: 4, Z: 4}, g.Size())

	for z := 0; z < 4; z++ {
		for y := 0; y < 4; y++ {
			for x := 0; x < 8; x++ {
				if x < 4 {
					assert.Equal(t, v, g.Get(x, y, z), "(%d,%d,%d)", x, y, z)
				} else {
					assert.Equal(t, uint16(0), g.Get(x, y, z), "(%d,%d,%d)", x, y, z)
				}
			}
		}
	}
}

func TestGridResizeShrink(t *testing.T) {
	g, err := New[int](3, 3, 3)
	require.NoError(t, err)
	for i := range g.Data() {
		g.SetIndex(i, i)
	}

	require.NoError(t, g.Resize(2, 1, 2))
	assert.Equal(t, []int{0, 1, 9, 10}, g.Data())
}

func TestGridResizeEdgeCases(t *testing.T) {
	g, err := New[int](2, 2, 2)
	require.NoError(t, err)
	g.Set(1, 1, 1, 5)

	require.NoError(t, g.Resize(2, 2, 2))
	assert.Equal(t, 5, g.Get(1, 1, 1), "same size must be a no-op")

	assert.ErrorIs(t, g.Resize(-1, 2, 2), ErrInvalidDimension)

	require.NoError(t, g.Resize(3, 0, 3))
	assert.Equal(t, vec.Vec3{}, g.Size())
	assert.Equal(t, 0, g.Len())

	// из пустой сетки - снова в непустую
	require.NoError(t, g.Resize(1, 1, 1))
	assert.Equal(t, 0, g.Get(0, 0, 0))
}

func TestGridCloneIsIndependent(t *testing.T) {
	g, err := New[int](2, 1, 1)
	require.NoError(t, err)
	g.Set(0, 0, 0, 1)

	c := g.Clone()
	c.Set(0, 0, 0, 2)

	assert.Equal(t, 1, g.Get(0, 0, 0))
	assert.Equal(t, 2, c.Get(0, 0, 0))
	assert.Equal(t, g.Size(), c.Size())
}

func TestGridAllFlatOrder(t *testing.T) {
	g, err := FromSlice([]int{10, 11, 12, 13}, 2, 2, 1)
	require.NoError(t, err)

	var got []int
	for i, v := range g.All() {
		assert.Equal(t, 10+i, v)
		got = append(got, v)
		if i == 2 {
			break
		}
	}
	assert.Equal(t, []int{10, 11, 12}, got)
}
