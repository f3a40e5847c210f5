package raw

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/prefab-loader/internal/grid"
	"github.com/annel0/prefab-loader/internal/prefab"
	"github.com/annel0/prefab-loader/internal/protocol"
	"github.com/annel0/prefab-loader/internal/vec"
	"github.com/annel0/prefab-loader/internal/world/block"
)

// gridComparer сравнивает сетки по размеру и содержимому
var gridComparer = cmp.Comparer(func(a, b *grid.Grid[block.BlockID]) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Size() == b.Size() && slicesEqual(a.Data(), b.Data())
})

func slicesEqual(a, b []block.BlockID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func encodePrefab(t *testing.T, p *Prefab) []byte {
	t.Helper()
	w := protocol.NewWriter()
	require.NoError(t, p.Write(w))
	return w.Bytes()
}

func mustGrid(t *testing.T, ids []block.BlockID, x, y, z int) *grid.Grid[block.BlockID] {
	t.Helper()
	g, err := grid.FromSlice(ids, x, y, z)
	require.NoError(t, err)
	return g
}

// TestBlocksOnlyScenario - запись только с блоками (2,1,1) [5,9]
func TestBlocksOnlyScenario(t *testing.T) {
	p := NewPrefab()
	p.Blocks = mustGrid(t, []block.BlockID{5, 9}, 2, 1, 1)

	data := encodePrefab(t, p)
	assert.Equal(t, []byte{
		0x04, 0x00, // только hasBlocks
		2, 0, 1, 0, 1, 0,
		5, 0, 9, 0,
	}, data)

	got, err := ReadPrefab(protocol.NewBytesReader(data))
	require.NoError(t, err)
	assert.Equal(t, vec.NewVec3(2, 1, 1), got.Blocks.Size())
	assert.Equal(t, []block.BlockID{5, 9}, got.Blocks.Data())

	assert.Equal(t, prefab.DefaultName, got.Name)
	assert.Equal(t, prefab.ColorDefault, got.BackgroundColor)
	assert.Equal(t, prefab.TypeNormal, got.Type)
	assert.Equal(t, prefab.DefaultCollider, got.Collider)
	assert.Zero(t, got.Data1)
	assert.Zero(t, got.Data2)
	assert.False(t, got.IsInGroup())
	assert.Nil(t, got.Voxels)
	assert.Empty(t, got.Settings)
	assert.Empty(t, got.Connections)
}

func TestDefaultPrefabIsHeaderOnly(t *testing.T) {
	assert.Equal(t, []byte{0, 0}, encodePrefab(t, NewPrefab()))
}

func TestHeaderBitLayout(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(p *Prefab)
		header uint16
	}{
		{"connections", func(p *Prefab) { p.Connections = []prefab.Connection{{}} }, 1 << 0},
		{"settings", func(p *Prefab) {
			p.Settings = []prefab.Setting{{Type: prefab.SettingByte, Value: uint8(1)}}
		}, 1 << 1},
		{"blocks", func(p *Prefab) { p.Blocks = mustGrid(t, []block.BlockID{1}, 1, 1, 1) }, 1 << 2},
		{"voxels", func(p *Prefab) { p.Voxels = &prefab.Voxels{} }, 1 << 3},
		{"group", func(p *Prefab) { p.GroupID = 600 }, 1 << 4},
		{"collider", func(p *Prefab) { p.Collider = prefab.ColliderSphere }, 1 << 5},
		{"uneditable", func(p *Prefab) { p.UnEditable = true }, 1 << 6},
		{"uneditable2", func(p *Prefab) { p.UnEditable2 = true }, 1 << 7},
		{"background", func(p *Prefab) { p.BackgroundColor = prefab.ColorRed1 }, 1 << 8},
		{"data2", func(p *Prefab) { p.Data2 = 7 }, 1 << 9},
		{"data1", func(p *Prefab) { p.Data1 = 7 }, 1 << 10},
		{"name", func(p *Prefab) { p.Name = "Tree" }, 1 << 11},
		{"type", func(p *Prefab) { p.Type = prefab.TypeScript }, 1 << 12},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPrefab()
			tc.mutate(p)
			assert.Equal(t, tc.header, p.Header())

			data := encodePrefab(t, p)
			assert.Equal(t, byte(tc.header), data[0])
			assert.Equal(t, byte(tc.header>>8), data[1])
		})
	}
}

func TestFieldOrder(t *testing.T) {
	p := NewPrefab()
	p.Type = prefab.TypeLevel
	p.Name = "L"
	p.Data1 = 0xAA
	p.Data2 = 0x01020304
	p.BackgroundColor = prefab.ColorBlack
	p.Collider = prefab.ColliderNone
	p.GroupID = 0x0300
	p.PosInGroup = vec.Byte3{X: 1, Y: 2, Z: 3}

	data := encodePrefab(t, p)
	expected := []byte{
		0x30, 0x1F,
		byte(prefab.TypeLevel),
		1, 'L',
		0xAA,
		0x04, 0x03, 0x02, 0x01,
		byte(prefab.ColorBlack),
		byte(prefab.ColliderNone),
		0x00, 0x03, 1, 2, 3,
	}
	assert.Equal(t, expected, data)
}

func fullPrefab(t *testing.T) *Prefab {
	t.Helper()
	voxels := &prefab.Voxels{}
	for i := range voxels {
		voxels[i] = byte(i % 251)
	}

	return &Prefab{
		Type:            prefab.TypeRigid,
		Name:            "Crate",
		Data1:           3,
		Data2:           123456,
		BackgroundColor: prefab.ColorGreen2,
		Collider:        prefab.ColliderSphere,
		UnEditable:      true,
		UnEditable2:     true,
		GroupID:         620,
		PosInGroup:      vec.Byte3{X: 0, Y: 1, Z: 0},
		Voxels:          voxels,
		Blocks:          mustGrid(t, []block.BlockID{1, 0, 0, 700, 0, 2}, 3, 1, 2),
		Settings: []prefab.Setting{
			{Index: 0, Type: prefab.SettingFloat, Position: vec.UShort3{X: 2}, Value: float32(0.5)},
			{Index: 1, Type: prefab.SettingText, Position: vec.UShort3{Z: 1}, Value: "score"},
		},
		Connections: []prefab.Connection{
			{From: vec.UShort3{X: 0}, To: vec.UShort3{X: 2, Z: 1}, FromVoxel: vec.UShort3{X: 3, Y: 1}, ToVoxel: vec.UShort3{Y: 1}},
		},
	}
}

func TestPrefabRoundTrip(t *testing.T) {
	want := fullPrefab(t)

	got, err := ReadPrefab(protocol.NewBytesReader(encodePrefab(t, want)))
	require.NoError(t, err)

	if diff := cmp.Diff(want, got, gridComparer); diff != "" {
		t.Errorf("запись изменилась после кодирования (-want +got):\n%s", diff)
	}
}

func TestTruncatedBlocksIsLengthMismatch(t *testing.T) {
	data := []byte{
		0x04, 0x00,
		2, 0, 2, 0, 2, 0, // 8 идентификаторов
		1, 0, 2, 0, 3, 0,
	}
	_, err := ReadPrefab(protocol.NewBytesReader(data))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLengthMismatch)
	assert.ErrorIs(t, err, protocol.ErrTruncatedInput)
}

func TestTruncatedMidField(t *testing.T) {
	full := encodePrefab(t, fullPrefab(t))
	for _, cut := range []int{1, 3, 5, 100, len(full) - 1} {
		_, err := ReadPrefab(protocol.NewBytesReader(full[:cut]))
		assert.ErrorIs(t, err, protocol.ErrTruncatedInput, "cut=%d", cut)
	}
}

func TestWriteRejectsEmptyName(t *testing.T) {
	p := NewPrefab()
	p.Name = ""
	err := p.Write(protocol.NewWriter())
	assert.ErrorIs(t, err, prefab.ErrInvalidArgument)
}

func TestPrefabPartialAndClone(t *testing.T) {
	p := fullPrefab(t)

	partial := p.Partial()
	assert.Equal(t, &prefab.PartialPrefab{Name: "Crate", Type: prefab.TypeRigid, GroupID: 620, PosInGroup: vec.Byte3{Y: 1}}, partial)

	c := p.Clone()
	c.Voxels[0] = 200
	c.Blocks.Set(0, 0, 0, 99)
	c.Settings[0].Index = 9

	assert.Equal(t, byte(0), p.Voxels[0])
	assert.Equal(t, block.BlockID(1), p.Blocks.Get(0, 0, 0))
	assert.Equal(t, uint8(0), p.Settings[0].Index)
}

// containerBytes собирает пустой контейнер заданной версии
func containerBytes(version uint16) []byte {
	w := protocol.NewWriter()
	w.WriteUint16(version)
	_ = w.WriteString("Game")
	_ = w.WriteString("Author")
	_ = w.WriteString("Desc")
	w.WriteUint16(CurrentStockPrefabs)
	w.WriteUint16(0)
	return w.Bytes()
}

func TestVersionGate(t *testing.T) {
	for _, v := range []uint16{25, 32, 0, 1000} {
		_, err := Decode(protocol.NewBytesReader(containerBytes(v)))
		require.ErrorIs(t, err, ErrUnsupportedVersion, "version %d", v)

		var verr *UnsupportedVersionError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, v, verr.Version)

		_, err = DecodeInfo(protocol.NewBytesReader(containerBytes(v)))
		assert.ErrorIs(t, err, ErrUnsupportedVersion, "info, version %d", v)
	}

	_, err := Decode(protocol.NewBytesReader(containerBytes(26)))
	assert.ErrorIs(t, err, ErrUnimplementedVersion)
	assert.NotErrorIs(t, err, ErrUnsupportedVersion)

	_, err = DecodeInfo(protocol.NewBytesReader(containerBytes(26)))
	assert.ErrorIs(t, err, ErrUnimplementedVersion)

	for _, v := range []uint16{27, 28, 31} {
		g, err := Decode(protocol.NewBytesReader(containerBytes(v)))
		require.NoError(t, err, "version %d", v)
		assert.Equal(t, v, g.Version)
		assert.Equal(t, "Game", g.Name)
		assert.Equal(t, "Author", g.Author)
		assert.Equal(t, "Desc", g.Description)
		assert.Empty(t, g.Prefabs)

		info, err := DecodeInfo(protocol.NewBytesReader(containerBytes(v)))
		require.NoError(t, err)
		assert.Equal(t, Info{Version: v, Name: "Game", Author: "Author", Description: "Desc"}, info)
	}
}

func TestEncodeAlwaysWritesCurrentVersion(t *testing.T) {
	g, err := Decode(protocol.NewBytesReader(containerBytes(27)))
	require.NoError(t, err)

	w := protocol.NewWriter()
	require.NoError(t, g.Encode(w))
	assert.Equal(t, []byte{31, 0}, w.Bytes()[:2])
}

func TestGameRoundTrip(t *testing.T) {
	want, err := NewGame("My Game")
	require.NoError(t, err)
	want.Description = "desc"
	want.Prefabs = []*Prefab{NewPrefab(), fullPrefab(t)}
	want.Prefabs[0].Blocks = mustGrid(t, []block.BlockID{5, 9}, 2, 1, 1)

	var buf bytes.Buffer
	require.NoError(t, want.SaveCompressed(&buf, protocol.DefaultCompressionLevel))
	compressed := buf.Bytes()

	got, err := LoadCompressed(bytes.NewReader(compressed))
	require.NoError(t, err)
	if diff := cmp.Diff(want, got, gridComparer, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("игра изменилась после сохранения (-want +got):\n%s", diff)
	}

	info, err := LoadInfoCompressed(bytes.NewReader(compressed))
	require.NoError(t, err)
	assert.Equal(t, want.Info(), info)
	assert.Equal(t, DefaultAuthor, info.Author)
}

func TestDecodeAbortsOnBadPrefab(t *testing.T) {
	w := protocol.NewWriter()
	w.WriteUint16(CurrentVersion)
	_ = w.WriteString("g")
	_ = w.WriteString("a")
	_ = w.WriteString("")
	w.WriteUint16(CurrentStockPrefabs)
	w.WriteUint16(2)
	require.NoError(t, NewPrefab().Write(w))
	w.WriteUint8(0x04) // заголовок второй записи обрывается

	g, err := Decode(protocol.NewBytesReader(w.Bytes()))
	assert.Nil(t, g)
	assert.ErrorIs(t, err, protocol.ErrTruncatedInput)
}

func TestNewGameValidation(t *testing.T) {
	_, err := NewGame("")
	assert.ErrorIs(t, err, prefab.ErrInvalidArgument)
}
