package prefab

import (
	"github.com/annel0/prefab-loader/internal/vec"
	"github.com/annel0/prefab-loader/internal/world"
	"github.com/annel0/prefab-loader/internal/world/block"
)

// cells - общая часть Group и PartialGroup: занятые относительные позиции
// и габарит, который всегда равен max(pos)+1 по каждой оси.
type cells[T any] struct {
	id    block.BlockID
	items map[vec.Byte3]T
	size  vec.Byte3
}

func newCells[T any](id block.BlockID) cells[T] {
	return cells[T]{id: id, items: make(map[vec.Byte3]T)}
}

// ID возвращает идентификатор первой занятой ячейки
func (c *cells[T]) ID() block.BlockID { return c.id }

// Size возвращает габарит группы
func (c *cells[T]) Size() vec.Byte3 { return c.size }

// Len возвращает число занятых ячеек
func (c *cells[T]) Len() int { return len(c.items) }

// ContainsKey сообщает, занята ли позиция
func (c *cells[T]) ContainsKey(pos vec.Byte3) bool {
	_, ok := c.items[pos]
	return ok
}

// Get возвращает элемент по позиции
func (c *cells[T]) Get(pos vec.Byte3) (T, bool) {
	v, ok := c.items[pos]
	return v, ok
}

// Remove освобождает позицию и пересчитывает габарит
func (c *cells[T]) Remove(pos vec.Byte3) bool {
	if _, ok := c.items[pos]; !ok {
		return false
	}
	delete(c.items, pos)

	c.size = vec.Byte3{}
	for p := range c.items {
		c.grow(p)
	}
	return true
}

// Positions возвращает занятые позиции в порядке выдачи идентификаторов
func (c *cells[T]) Positions() []vec.Byte3 {
	return Sequence(c)
}

func (c *cells[T]) put(pos vec.Byte3, v T) {
	c.items[pos] = v
	c.grow(pos)
}

func (c *cells[T]) grow(pos vec.Byte3) {
	c.size = c.size.Max(vec.Byte3{X: pos.X + 1, Y: pos.Y + 1, Z: pos.Z + 1})
}

// Group - многоклеточный префаб: полные префабы по относительным позициям.
type Group struct {
	cells[*Prefab]
}

// NewGroup создаёт пустую группу
func NewGroup(id block.BlockID) *Group {
	return &Group{cells: newCells[*Prefab](id)}
}

// Add кладёт префаб в позицию. Префаб должен принадлежать этой группе.
func (g *Group) Add(pos vec.Byte3, p *Prefab) error {
	if p.GroupID != g.id {
		return &InvalidGroupIDError{ExpectedGroupID: uint16(g.id), PrefabGroupID: uint16(p.GroupID)}
	}
	p.PosInGroup = pos
	g.put(pos, p)
	return nil
}

// PartialGroup - то же, что Group, но для PartialPrefab
type PartialGroup struct {
	cells[*PartialPrefab]
}

// NewPartialGroup создаёт пустую группу
func NewPartialGroup(id block.BlockID) *PartialGroup {
	return &PartialGroup{cells: newCells[*PartialPrefab](id)}
}

// Add кладёт проекцию в позицию. Проекция должна принадлежать этой группе.
func (g *PartialGroup) Add(pos vec.Byte3, p *PartialPrefab) error {
	if p.GroupID != g.id {
		return &InvalidGroupIDError{ExpectedGroupID: uint16(g.id), PrefabGroupID: uint16(p.GroupID)}
	}
	p.PosInGroup = pos
	g.put(pos, p)
	return nil
}

// Sequence возвращает занятые позиции группы в порядке Z, Y, X.
// i-я позиция получает идентификатор g.ID()+i.
func Sequence(g world.GroupShape) []vec.Byte3 {
	var out []vec.Byte3
	world.ForEachGroupCell(g, func(rel vec.Byte3, _ block.BlockID) bool {
		out = append(out, rel)
		return true
	})
	return out
}

// IDAt возвращает идентификатор, который получит позиция при размещении группы
func IDAt(g world.GroupShape, pos vec.Byte3) (block.BlockID, bool) {
	var (
		found block.BlockID
		ok    bool
	)
	world.ForEachGroupCell(g, func(rel vec.Byte3, id block.BlockID) bool {
		if rel == pos {
			found, ok = id, true
			return false
		}
		return true
	})
	return found, ok
}

var (
	_ world.GroupShape = (*Group)(nil)
	_ world.GroupShape = (*PartialGroup)(nil)
)
