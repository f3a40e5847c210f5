package prefab

import (
	"fmt"
	"slices"

	"github.com/annel0/prefab-loader/internal/vec"
	"github.com/annel0/prefab-loader/internal/world"
	"github.com/annel0/prefab-loader/internal/world/block"
)

// Prefab - префаб в виде, удобном для редактирования.
// Значения по умолчанию (имя, цвет фона, коллайдер) хранятся явно;
// решение, записывать ли поле, принимает кодек.
type Prefab struct {
	Name            string
	Type            PrefabType
	Collider        Collider
	BackgroundColor Color
	Editable        bool

	// Служебные поля формата, смысл которых игрой не раскрыт
	Data1 uint8
	Data2 uint32

	// GroupID равен block.NoGroup, если префаб одиночный
	GroupID    block.BlockID
	PosInGroup vec.Byte3

	Voxels      *Voxels
	Blocks      *world.BlockData
	Settings    []Setting
	Connections []Connection
}

// New создаёт пустой одиночный префаб
func New(name string, typ PrefabType) (*Prefab, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty prefab name", ErrInvalidArgument)
	}
	return &Prefab{
		Name:            name,
		Type:            typ,
		Collider:        DefaultCollider,
		BackgroundColor: ColorDefault,
		Editable:        true,
		GroupID:         block.NoGroup,
		Blocks:          world.NewBlockData(),
	}, nil
}

// SetName меняет имя, пустое имя недопустимо
func (p *Prefab) SetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty prefab name", ErrInvalidArgument)
	}
	p.Name = name
	return nil
}

// IsInGroup сообщает, входит ли префаб в группу
func (p *Prefab) IsInGroup() bool { return p.GroupID != block.NoGroup }

// Partial строит облегчённую проекцию
func (p *Prefab) Partial() *PartialPrefab {
	return &PartialPrefab{Name: p.Name, Type: p.Type, GroupID: p.GroupID, PosInGroup: p.PosInGroup}
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
