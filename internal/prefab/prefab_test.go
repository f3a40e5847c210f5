package prefab

import (
	"errors"
	"testing"

	"github.com/annel0/prefab-loader/internal/protocol"
	"github.com/annel0/prefab-loader/internal/vec"
	"github.com/annel0/prefab-loader/internal/world"
	"github.com/annel0/prefab-loader/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGroupPrefab(t *testing.T, id block.BlockID) *Prefab {
	t.Helper()
	p, err := New("Part", TypeNormal)
	require.NoError(t, err)
	p.GroupID = id
	return p
}

// TestGroupSequence - три ячейки с пропуском получают 100, 101, 102
func TestGroupSequence(t *testing.T) {
	g := NewGroup(100)
	require.NoError(t, g.Add(vec.Byte3{X: 0, Y: 0, Z: 0}, newGroupPrefab(t, 100)))
	require.NoError(t, g.Add(vec.Byte3{X: 1, Y: 0, Z: 0}, newGroupPrefab(t, 100)))
	require.NoError(t, g.Add(vec.Byte3{X: 0, Y: 0, Z: 1}, newGroupPrefab(t, 100)))

	assert.Equal(t, vec.Byte3{X: 2, Y: 1, Z: 2}, g.Size())
	assert.Equal(t, []vec.Byte3{{X: 0}, {X: 1}, {Z: 1}}, Sequence(g))

	id, ok := IDAt(g, vec.Byte3{Z: 1})
	require.True(t, ok)
	assert.Equal(t, block.BlockID(102), id)

	_, ok = IDAt(g, vec.Byte3{X: 1, Z: 1})
	assert.False(t, ok, "пустая ячейка не получает идентификатор")

	bd := world.NewBlockData()
	require.NoError(t, bd.SetGroup(vec.NewVec3(0, 0, 0), g))
	assert.Equal(t, block.BlockID(100), bd.GetBlock(vec.NewVec3(0, 0, 0)))
	assert.Equal(t, block.BlockID(101), bd.GetBlock(vec.NewVec3(1, 0, 0)))
	assert.Equal(t, block.BlockID(102), bd.GetBlock(vec.NewVec3(0, 0, 1)))
	assert.Equal(t, block.AirBlockID, bd.GetBlock(vec.NewVec3(1, 0, 1)))
}

func TestGroupRejectsForeignPrefab(t *testing.T) {
	g := NewGroup(100)
	err := g.Add(vec.Byte3{}, newGroupPrefab(t, 200))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidGroupID)

	var typed *InvalidGroupIDError
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, uint16(100), typed.ExpectedGroupID)
	assert.Equal(t, uint16(200), typed.PrefabGroupID)
	assert.Equal(t, 0, g.Len())
}

func TestGroupRemoveShrinksSize(t *testing.T) {
	g := NewPartialGroup(700)
	a, err := NewPartialPrefab("a", TypeNormal, 700, vec.Byte3{})
	require.NoError(t, err)
	b, err := NewPartialPrefab("b", TypeNormal, 700, vec.Byte3{})
	require.NoError(t, err)

	require.NoError(t, g.Add(vec.Byte3{}, a))
	require.NoError(t, g.Add(vec.Byte3{X: 3, Y: 1}, b))
	assert.Equal(t, vec.Byte3{X: 4, Y: 2, Z: 1}, g.Size())
	assert.Equal(t, vec.Byte3{X: 3, Y: 1}, b.PosInGroup)

	assert.True(t, g.Remove(vec.Byte3{X: 3, Y: 1}))
	assert.False(t, g.Remove(vec.Byte3{X: 3, Y: 1}))
	assert.Equal(t, vec.Byte3{X: 1, Y: 1, Z: 1}, g.Size())
}

func TestPartialPrefabRoundTrip(t *testing.T) {
	cases := []*PartialPrefab{
		{Name: DefaultName, Type: TypeNormal, GroupID: block.NoGroup},
		{Name: "Door", Type: TypeScript, GroupID: block.NoGroup},
		{Name: "Wall", Type: TypeRigid, GroupID: 612, PosInGroup: vec.Byte3{X: 1, Y: 2, Z: 3}},
	}

	for _, want := range cases {
		w := protocol.NewWriter()
		require.NoError(t, want.Write(w))

		got, err := ReadPartialPrefab(protocol.NewBytesReader(w.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestPartialPrefabDefaultsAreOneByte(t *testing.T) {
	p := &PartialPrefab{Name: DefaultName, GroupID: block.NoGroup}
	w := protocol.NewWriter()
	require.NoError(t, p.Write(w))
	assert.Equal(t, []byte{0}, w.Bytes())
}

func TestPartialPrefabEmptyName(t *testing.T) {
	_, err := NewPartialPrefab("", TypeNormal, block.NoGroup, vec.Byte3{})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	// заголовок с флагом имени и пустой строкой
	_, err = ReadPartialPrefab(protocol.NewBytesReader([]byte{partialHasName, 0}))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	err = (&PartialPrefab{GroupID: block.NoGroup}).Write(protocol.NewWriter())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSettingRoundTrip(t *testing.T) {
	settings := []Setting{
		{Index: 0, Type: SettingByte, Position: vec.UShort3{X: 1}, Value: uint8(3)},
		{Index: 1, Type: SettingUshort, Position: vec.UShort3{Y: 2}, Value: uint16(65535)},
		{Index: 0, Type: SettingFloat, Position: vec.UShort3{Z: 3}, Value: float32(-2.5)},
		{Index: 0, Type: SettingVec3, Value: vec.Float3{X: 1, Y: 2, Z: 3}},
		{Index: 0, Type: SettingRotation, Value: vec.Float3{Y: 90}},
		{Index: 0, Type: SettingText, Value: "hello"},
		{Index: 2, Type: SettingType(12), Value: "Number"},
	}

	w := protocol.NewWriter()
	for _, s := range settings {
		require.NoError(t, s.Write(w))
	}

	r := protocol.NewBytesReader(w.Bytes())
	for _, want := range settings {
		got, err := ReadSetting(r)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestSettingUnknownType(t *testing.T) {
	// index, type=3, pos
	data := []byte{0, 3, 0, 0, 0, 0, 0, 0}
	_, err := ReadSetting(protocol.NewBytesReader(data))
	assert.ErrorIs(t, err, ErrUnknownSettingType)

	err = Setting{Type: 0, Value: uint8(1)}.Write(protocol.NewWriter())
	assert.ErrorIs(t, err, ErrUnknownSettingType)
}

func TestSettingValueMismatch(t *testing.T) {
	err := Setting{Type: SettingFloat, Value: 1.0}.Write(protocol.NewWriter())
	assert.ErrorIs(t, err, ErrInvalidSettingValue)
}

func TestConnectionIs24Bytes(t *testing.T) {
	c := Connection{
		From:      vec.UShort3{X: 1, Y: 2, Z: 3},
		To:        vec.UShort3{X: 4, Y: 5, Z: 6},
		FromVoxel: vec.UShort3{X: 7},
		ToVoxel:   vec.UShort3{Z: 8},
	}
	w := protocol.NewWriter()
	c.Write(w)
	assert.Equal(t, 24, w.Len())

	got, err := ReadConnection(protocol.NewBytesReader(w.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, c, got)

	_, err = ReadConnection(protocol.NewBytesReader(w.Bytes()[:20]))
	assert.ErrorIs(t, err, protocol.ErrTruncatedInput)
}

func TestPrefabCloneIsDeep(t *testing.T) {
	p, err := New("Box", TypeNormal)
	require.NoError(t, err)
	p.Voxels = &Voxels{}
	p.Voxels[0] = 5
	require.NoError(t, p.Blocks.SetBlock(vec.NewVec3(1, 1, 1), 42))
	p.Settings = []Setting{{Type: SettingByte, Value: uint8(1)}}

	c := p.Clone()
	c.Voxels[0] = 9
	require.NoError(t, c.Blocks.SetBlock(vec.NewVec3(1, 1, 1), 43))
	c.Settings[0].Index = 7

	assert.Equal(t, byte(5), p.Voxels[0])
	assert.Equal(t, block.BlockID(42), p.Blocks.GetBlock(vec.NewVec3(1, 1, 1)))
	assert.Equal(t, uint8(0), p.Settings[0].Index)
}

func TestPrefabNameValidation(t *testing.T) {
	_, err := New("", TypeNormal)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	p, err := New("x", TypeLevel)
	require.NoError(t, err)
	assert.ErrorIs(t, p.SetName(""), ErrInvalidArgument)
	assert.Equal(t, "x", p.Name)
	assert.False(t, p.IsInGroup())
	assert.Equal(t, ColliderBox, p.Collider)
	assert.Equal(t, "Level", p.Type.String())
}
