// Package raw - побайтовое представление файла игры: записи префабов с
// заголовком присутствия полей и контейнер с версией.
package raw

import (
	"fmt"
	"math"
	"slices"

	"github.com/annel0/prefab-loader/internal/grid"
	"github.com/annel0/prefab-loader/internal/prefab"
	"github.com/annel0/prefab-loader/internal/protocol"
	"github.com/annel0/prefab-loader/internal/vec"
	"github.com/annel0/prefab-loader/internal/world/block"
)

// ErrLengthMismatch - объявленный размер сетки блоков не совпадает с данными
var ErrLengthMismatch = grid.ErrLengthMismatch

// Биты заголовка записи (LSB первым, байт 0, затем байт 1)
const (
	flagHasConnections uint16 = 1 << iota
	flagHasSettings
	flagHasBlocks
	flagHasVoxels
	flagIsInGroup
	flagHasColliderByte
	flagUnEditable
	flagUnEditable2
	flagNonDefaultBackgroundColor
	flagHasData2
	flagHasData1
	flagNonDefaultName
	flagHasTypeByte
)

// Prefab - запись префаба в том виде, в каком она лежит в файле.
// Присутствие необязательного поля определяется его значением: имя,
// отличное от prefab.DefaultName, ненулевой Voxels и т.д.
type Prefab struct {
	Type            prefab.PrefabType
	Name            string
	Data1           uint8
	Data2           uint32
	BackgroundColor prefab.Color
	Collider        prefab.Collider
	UnEditable      bool
	UnEditable2     bool

	// GroupID равен block.NoGroup для одиночного префаба
	GroupID    block.BlockID
	PosInGroup vec.Byte3

	Voxels      *prefab.Voxels
	Blocks      *grid.Grid[block.BlockID]
	Settings    []prefab.Setting
	Connections []prefab.Connection
}

// NewPrefab возвращает запись со значениями по умолчанию
func NewPrefab() *Prefab {
	return &Prefab{
		Type:            prefab.TypeNormal,
		Name:            prefab.DefaultName,
		BackgroundColor: prefab.ColorDefault,
		Collider:        prefab.DefaultCollider,
		GroupID:         block.NoGroup,
	}
}

// IsInGroup сообщает, входит ли префаб в группу
func (p *Prefab) IsInGroup() bool { return p.GroupID != block.NoGroup }

// field - необязательное поле записи. Чтение и запись проходят по одной и
// той же таблице, поэтому порядок полей не может разойтись.
type field struct {
	name    string
	flag    uint16
	present func(p *Prefab) bool
	read    func(p *Prefab, r *protocol.Reader) error
	write   func(p *Prefab, w *protocol.Writer) error
}

// fields - поля в порядке следования в файле
var fields = []field{
	{
		name:    "type",
		flag:    flagHasTypeByte,
		present: func(p *Prefab) bool { return p.Type != prefab.TypeNormal },
		read: func(p *Prefab, r *protocol.Reader) error {
			v, err := r.ReadUint8()
			p.Type = prefab.PrefabType(v)
			return err
		},
		write: func(p *Prefab, w *protocol.Writer) error {
			w.WriteUint8(uint8(p.Type))
			return nil
		},
	},
	{
		name:    "name",
		flag:    flagNonDefaultName,
		present: func(p *Prefab) bool { return p.Name != prefab.DefaultName },
		read: func(p *Prefab, r *protocol.Reader) (err error) {
			p.Name, err = r.ReadString()
			return err
		},
		write: func(p *Prefab, w *protocol.Writer) error {
			if p.Name == "" {
				return fmt.Errorf("%w: empty prefab name", prefab.ErrInvalidArgument)
			}
			return w.WriteString(p.Name)
		},
	},
	{
		name:    "data1",
		flag:    flagHasData1,
		present: func(p *Prefab) bool { return p.Data1 != 0 },
		read: func(p *Prefab, r *protocol.Reader) (err error) {
			p.Data1, err = r.ReadUint8()
			return err
		},
		write: func(p *Prefab, w *protocol.Writer) error {
			w.WriteUint8(p.Data1)
			return nil
		},
	},
	{
		name:    "data2",
		flag:    flagHasData2,
		present: func(p *Prefab) bool { return p.Data2 != 0 },
		read: func(p *Prefab, r *protocol.Reader) (err error) {
			p.Data2, err = r.ReadUint32()
			return err
		},
		write: func(p *Prefab, w *protocol.Writer) error {
			w.WriteUint32(p.Data2)
			return nil
		},
	},
	{
		name:    "background color",
		flag:    flagNonDefaultBackgroundColor,
		present: func(p *Prefab) bool { return p.BackgroundColor != prefab.ColorDefault },
		read: func(p *Prefab, r *protocol.Reader) error {
			v, err := r.ReadUint8()
			p.BackgroundColor = prefab.Color(v)
			return err
		},
		write: func(p *Prefab, w *protocol.Writer) error {
			w.WriteUint8(uint8(p.BackgroundColor))
			return nil
		},
	},
	{
		name:    "collider",
		flag:    flagHasColliderByte,
		present: func(p *Prefab) bool { return p.Collider != prefab.DefaultCollider },
		read: func(p *Prefab, r *protocol.Reader) error {
			v, err := r.ReadUint8()
			p.Collider = prefab.Collider(v)
			return err
		},
		write: func(p *Prefab, w *protocol.Writer) error {
			w.WriteUint8(uint8(p.Collider))
			return nil
		},
	},
	{
		name:    "group",
		flag:    flagIsInGroup,
		present: (*Prefab).IsInGroup,
		read: func(p *Prefab, r *protocol.Reader) error {
			id, err := r.ReadUint16()
			if err != nil {
				return err
			}
			p.GroupID = block.BlockID(id)
			p.PosInGroup, err = r.ReadByte3()
			return err
		},
		write: func(p *Prefab, w *protocol.Writer) error {
			w.WriteUint16(uint16(p.GroupID))
			w.WriteByte3(p.PosInGroup)
			return nil
		},
	},
	{
		name:    "voxels",
		flag:    flagHasVoxels,
		present: func(p *Prefab) bool { return p.Voxels != nil },
		read: func(p *Prefab, r *protocol.Reader) error {
			data, err := r.ReadBytes(prefab.VoxelsLength)
			if err != nil {
				return err
			}
			p.Voxels = (*prefab.Voxels)(data)
			return nil
		},
		write: func(p *Prefab, w *protocol.Writer) error {
			w.WriteBytes(p.Voxels[:])
			return nil
		},
	},
	{
		name:    "blocks",
		flag:    flagHasBlocks,
		present: func(p *Prefab) bool { return p.Blocks != nil },
		read:    readBlocks,
		write:   writeBlocks,
	},
	{
		name:    "settings",
		flag:    flagHasSettings,
		present: func(p *Prefab) bool { return len(p.Settings) > 0 },
		read: func(p *Prefab, r *protocol.Reader) (err error) {
			p.Settings, err = readList(r, prefab.ReadSetting)
			return err
		},
		write: func(p *Prefab, w *protocol.Writer) error {
			if err := writeCount(w, len(p.Settings)); err != nil {
				return err
			}
			for i, s := range p.Settings {
				if err := s.Write(w); err != nil {
					return fmt.Errorf("setting %d: %w", i, err)
				}
			}
			return nil
		},
	},
	{
		name:    "connections",
		flag:    flagHasConnections,
		present: func(p *Prefab) bool { return len(p.Connections) > 0 },
		read: func(p *Prefab, r *protocol.Reader) (err error) {
			p.Connections, err = readList(r, prefab.ReadConnection)
			return err
		},
		write: func(p *Prefab, w *protocol.Writer) error {
			if err := writeCount(w, len(p.Connections)); err != nil {
				return err
			}
			for _, c := range p.Connections {
				c.Write(w)
			}
			return nil
		},
	},
}

// Флаги без полезной нагрузки
var flagOnly = []struct {
	flag uint16
	get  func(p *Prefab) *bool
}{
	{flagUnEditable, func(p *Prefab) *bool { return &p.UnEditable }},
	{flagUnEditable2, func(p *Prefab) *bool { return &p.UnEditable2 }},
}

// Header вычисляет заголовок присутствия по значениям полей
func (p *Prefab) Header() uint16 {
	var header uint16
	for _, f := range fields {
		if f.present(p) {
			header |= f.flag
		}
	}
	for _, f := range flagOnly {
		if *f.get(p) {
			header |= f.flag
		}
	}
	return header
}

// ReadPrefab читает одну запись
func ReadPrefab(r *protocol.Reader) (*Prefab, error) {
	header, err := r.ReadUint16()
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	p := NewPrefab()
	for _, f := range flagOnly {
		*f.get(p) = header&f.flag != 0
	}
	for _, f := range fields {
		if header&f.flag == 0 {
			continue
		}
		if err := f.read(p, r); err != nil {
			return nil, fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return p, nil
}

// Write записывает запись: заголовок, затем присутствующие поля
func (p *Prefab) Write(w *protocol.Writer) error {
	header := p.Header()
	w.WriteUint16(header)

	for _, f := range fields {
		if header&f.flag == 0 {
			continue
		}
		if err := f.write(p, w); err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}
	}
	return nil
}

func readBlocks(p *Prefab, r *protocol.Reader) error {
	extent, err := r.ReadUShort3()
	if err != nil {
		return err
	}

	size := extent.ToVec3()
	n := size.Volume()
	ids, err := protocol.ReadUint16s[block.BlockID](r, n)
	if err != nil {
		return fmt.Errorf("%w: extent %dx%dx%d needs %d ids, got %d: %w",
			ErrLengthMismatch, size.X, size.Y, size.Z, n, len(ids), err)
	}

	p.Blocks, err = grid.FromSlice(ids, size.X, size.Y, size.Z)
	return err
}

func writeBlocks(p *Prefab, w *protocol.Writer) error {
	g := p.Blocks
	if g.LengthX() > math.MaxUint16 || g.LengthY() > math.MaxUint16 || g.LengthZ() > math.MaxUint16 {
		return fmt.Errorf("%w: block grid %v does not fit ushort3", prefab.ErrInvalidArgument, g.Size())
	}

	w.WriteUShort3(vec.UShort3{X: uint16(g.LengthX()), Y: uint16(g.LengthY()), Z: uint16(g.LengthZ())})
	protocol.WriteUint16s(w, g.Data())
	return nil
}

func readList[T any](r *protocol.Reader, readOne func(*protocol.Reader) (T, error)) ([]T, error) {
	count, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}

	out := make([]T, 0, count)
	for i := 0; i < int(count); i++ {
		v, err := readOne(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func writeCount(w *protocol.Writer, n int) error {
	if n > math.MaxUint16 {
		return fmt.Errorf("%w: %d records do not fit u16 count", prefab.ErrInvalidArgument, n)
	}
	w.WriteUint16(uint16(n))
	return nil
}

// Partial строит облегчённую проекцию
func (p *Prefab) Partial() *prefab.PartialPrefab {
	return &prefab.PartialPrefab{Name: p.Name, Type: p.Type, GroupID: p.GroupID, PosInGroup: p.PosInGroup}
}

// Clone возвращает глубокую копию
func (p *Prefab) Clone() *Prefab {
	c := *p
	if p.Voxels != nil {
		v := *p.Voxels
		c.Voxels = &v
	}
	if p.Blocks != nil {
		c.Blocks = p.Blocks.Clone()
	}
	c.Settings = slices.Clone(p.Settings)
	c.Connections = slices.Clone(p.Connections)
	return &c
}
