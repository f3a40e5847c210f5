package prefab

import (
	"fmt"

	"github.com/annel0/prefab-loader/internal/protocol"
	"github.com/annel0/prefab-loader/internal/vec"
	"github.com/annel0/prefab-loader/internal/world/block"
)

// Биты заголовка PartialPrefab
const (
	partialHasType uint8 = 1 << 0
	partialHasName uint8 = 1 << 1
	partialInGroup uint8 = 1 << 2
)

// PartialPrefab - облегчённая проекция префаба: только имя, тип и
// принадлежность группе. Строится из raw.Prefab или Prefab и не является
// источником истины.
type PartialPrefab struct {
	Name       string
	Type       PrefabType
	GroupID    block.BlockID
	PosInGroup vec.Byte3
}

// NewPartialPrefab создаёт проекцию. Пустое имя недопустимо.
func NewPartialPrefab(name string, typ PrefabType, groupID block.BlockID, pos vec.Byte3) (*PartialPrefab, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty prefab name", ErrInvalidArgument)
	}
	return &PartialPrefab{Name: name, Type: typ, GroupID: groupID, PosInGroup: pos}, nil
}

// IsInGroup сообщает, входит ли префаб в группу
func (p *PartialPrefab) IsInGroup() bool { return p.GroupID != block.NoGroup }

// ReadPartialPrefab читает проекцию в компактном формате
func ReadPartialPrefab(r *protocol.Reader) (*PartialPrefab, error) {
	header, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}

	p := &PartialPrefab{Name: DefaultName, Type: TypeNormal, GroupID: block.NoGroup}

	if header&partialHasType != 0 {
		t, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		p.Type = PrefabType(t)
	}
	if header&partialHasName != 0 {
		if p.Name, err = r.ReadString(); err != nil {
			return nil, err
		}
		if p.Name == "" {
			return nil, fmt.Errorf("%w: empty prefab name", ErrInvalidArgument)
		}
	}
	if header&partialInGroup != 0 {
		id, err := r.ReadUint16()
		if err != nil {
			return nil, err
		}
		p.GroupID = block.BlockID(id)
		if p.PosInGroup, err = r.ReadByte3(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Write записывает проекцию в компактном формате
func (p *PartialPrefab) Write(w *protocol.Writer) error {
	if p.Name == "" {
		return fmt.Errorf("%w: empty prefab name", ErrInvalidArgument)
	}

	var header uint8
	if p.Type != TypeNormal {
		header |= partialHasType
	}
	if p.Name != DefaultName {
		header |= partialHasName
	}
	if p.IsInGroup() {
		header |= partialInGroup
	}

	w.WriteUint8(header)
	if header&partialHasType != 0 {
		w.WriteUint8(uint8(p.Type))
	}
	if header&partialHasName != 0 {
		if err := w.WriteString(p.Name); err != nil {
			return err
		}
	}
	if header&partialInGroup != 0 {
		w.WriteUint16(uint16(p.GroupID))
		w.WriteByte3(p.PosInGroup)
	}
	return nil
}

// Clone возвращает копию
func (p *PartialPrefab) Clone() *PartialPrefab {
	c := *p
	return &c
}
