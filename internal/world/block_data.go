package world

import (
	"errors"
	"fmt"

	"github.com/annel0/prefab-loader/internal/grid"
	"github.com/annel0/prefab-loader/internal/vec"
	"github.com/annel0/prefab-loader/internal/world/block"
)

// ChunkSize - шаг округления выделенной ёмкости по каждой оси
const ChunkSize = 8

// ErrNegativePosition - запись по отрицательной координате
var ErrNegativePosition = errors.New("negative block position")

// GroupShape описывает форму многоклеточной группы префабов.
// Реализуется prefab.Group и prefab.PartialGroup.
type GroupShape interface {
	// ID - идентификатор первой занятой ячейки
	ID() block.BlockID
	// Size - габариты группы
	Size() vec.Byte3
	// ContainsKey сообщает, занята ли относительная позиция
	ContainsKey(pos vec.Byte3) bool
}

// ForEachGroupCell обходит занятые ячейки группы в порядке Z, Y, X (X внутренний)
// и выдаёт каждой следующий идентификатор начиная с g.ID(). Пустые ячейки
// пропускаются и идентификатор не расходуют.
func ForEachGroupCell(g GroupShape, fn func(rel vec.Byte3, id block.BlockID) bool) {
	id := g.ID()
	size := g.Size()

	for z := 0; z < int(size.Z); z++ {
		for y := 0; y < int(size.Y); y++ {
			for x := 0; x < int(size.X); x++ {
				rel := vec.Byte3{X: uint8(x), Y: uint8(y), Z: uint8(z)}
				if !g.ContainsKey(rel) {
					continue
				}
				if !fn(rel, id) {
					return
				}
				id++
			}
		}
	}
}

// BlockData хранит блоки префаба: выделенная ёмкость (Grid) плюс
// логический размер Size, который всегда не больше ёмкости.
// Ёмкость растёт кратно ChunkSize, чтобы не перевыделять память на каждый блок.
//
// Потокобезопасность не обеспечивается.
type BlockData struct {
	blocks *grid.Grid[block.BlockID]
	size   vec.Vec3
}

// NewBlockData создаёт пустое хранилище с ёмкостью 8x8x8
func NewBlockData() *BlockData {
	g, _ := grid.New[block.BlockID](ChunkSize, ChunkSize, ChunkSize)
	return &BlockData{blocks: g}
}

// NewBlockDataFrom забирает существующую сетку и сразу обрезает размер
// по занятым блокам. Сетка не копируется.
func NewBlockDataFrom(blocks *grid.Grid[block.BlockID]) *BlockData {
	bd := &BlockData{
		blocks: blocks,
		size:   blocks.Size(),
	}
	bd.Trim()
	return bd
}

// Size возвращает логический размер
func (bd *BlockData) Size() vec.Vec3 { return bd.size }

// Capacity возвращает выделенный размер
func (bd *BlockData) Capacity() vec.Vec3 { return bd.blocks.Size() }

// IsEmpty сообщает, что логический размер нулевой
func (bd *BlockData) IsEmpty() bool { return bd.size == vec.Zero }

// InBounds проверяет координату относительно выделенной ёмкости
func (bd *BlockData) InBounds(pos vec.Vec3) bool {
	return bd.blocks.InBounds(pos.X, pos.Y, pos.Z)
}

// GetBlock возвращает блок; вне ёмкости - воздух
func (bd *BlockData) GetBlock(pos vec.Vec3) block.BlockID {
	if !bd.blocks.InBounds(pos.X, pos.Y, pos.Z) {
		return block.AirBlockID
	}
	return bd.blocks.GetUnchecked(pos.X, pos.Y, pos.Z)
}

// SetBlock записывает блок, при необходимости расширяя хранилище.
// Для воздуха хранилище не расширяется.
func (bd *BlockData) SetBlock(pos vec.Vec3, id block.BlockID) error {
	if pos.AnyNegative() {
		return fmt.Errorf("%w: %v", ErrNegativePosition, pos)
	}

	if id == block.AirBlockID {
		if bd.blocks.InBounds(pos.X, pos.Y, pos.Z) {
			bd.blocks.SetUnchecked(pos.X, pos.Y, pos.Z, id)
		}
		return nil
	}

	if err := bd.EnsureSize(pos); err != nil {
		return err
	}
	bd.blocks.SetUnchecked(pos.X, pos.Y, pos.Z, id)
	return nil
}

// SetBlockUnchecked пишет без расширения. Координата должна лежать внутри ёмкости.
func (bd *BlockData) SetBlockUnchecked(pos vec.Vec3, id block.BlockID) {
	bd.blocks.SetUnchecked(pos.X, pos.Y, pos.Z, id)
}

// SetGroup размещает группу с якорем в pos: хранилище расширяется один раз
// на весь габарит группы, затем занятые ячейки получают последовательные id.
func (bd *BlockData) SetGroup(pos vec.Vec3, g GroupShape) error {
	if pos.AnyNegative() {
		return fmt.Errorf("%w: %v", ErrNegativePosition, pos)
	}

	size := g.Size()
	if size.X == 0 || size.Y == 0 || size.Z == 0 {
		return nil
	}

	if err := bd.EnsureSize(pos.Add(size.ToVec3()).Sub(vec.One)); err != nil {
		return err
	}

	ForEachGroupCell(g, func(rel vec.Byte3, id block.BlockID) bool {
		bd.SetBlockUnchecked(pos.Add(rel.ToVec3()), id)
		return true
	})
	return nil
}

// EnsureSize расширяет логический размер так, чтобы включить pos.
// Ёмкость перевыделяется только если новый размер её превышает.
func (bd *BlockData) EnsureSize(pos vec.Vec3) error {
	if pos.AnyNegative() {
		return fmt.Errorf("%w: %v", ErrNegativePosition, pos)
	}

	size := bd.size.Max(pos.Add(vec.One))
	if size == bd.size {
		return nil
	}

	capacity := bd.blocks.Size()
	if size.X > capacity.X || size.Y > capacity.Y || size.Z > capacity.Z {
		// Растём кусками по ChunkSize
		if err := bd.blocks.Resize(ceilToChunk(size.X), ceilToChunk(size.Y), ceilToChunk(size.Z)); err != nil {
			return err
		}
	}

	bd.size = size
	return nil
}

// Trim сжимает логический размер до минимального параллелепипеда,
// содержащего все непустые блоки. Если блоков нет - размер и ёмкость нулевые.
// Ёмкость в остальных случаях не уменьшается.
func (bd *BlockData) Trim() {
	capacity := bd.blocks.Size()
	if capacity.Volume() == 0 {
		bd.size = vec.Zero
		return
	}

	maxX := lastOccupied(capacity.X, func(i, a, b int) block.BlockID { return bd.blocks.GetUnchecked(i, a, b) }, capacity.Y, capacity.Z)
	if maxX < 0 {
		// нет ни одного блока
		_ = bd.blocks.Resize(0, 0, 0)
		bd.size = vec.Zero
		return
	}
	maxY := lastOccupied(capacity.Y, func(i, a, b int) block.BlockID { return bd.blocks.GetUnchecked(a, i, b) }, capacity.X, capacity.Z)
	maxZ := lastOccupied(capacity.Z, func(i, a, b int) block.BlockID { return bd.blocks.GetUnchecked(a, b, i) }, capacity.X, capacity.Y)

	bd.size = vec.Vec3{X: maxX + 1, Y: maxY + 1, Z: maxZ + 1}
}

// lastOccupied ищет с конца оси первую плоскость, где есть непустой блок.
// get(i, a, b) читает ячейку с координатой i по сканируемой оси.
func lastOccupied(axisLen int, get func(i, a, b int) block.BlockID, lenA, lenB int) int {
	for i := axisLen - 1; i >= 0; i-- {
		for b := 0; b < lenB; b++ {
			for a := 0; a < lenA; a++ {
				if get(i, a, b) != block.AirBlockID {
					return i
				}
			}
		}
	}
	return -1
}

// Remap применяет fn ко всем непустым блокам
func (bd *BlockData) Remap(fn func(block.BlockID) block.BlockID) {
	data := bd.blocks.Data()
	for i, id := range data {
		if id != block.AirBlockID {
			data[i] = fn(id)
		}
	}
}

// ToGrid копирует логическую область в сетку ровно размера Size
func (bd *BlockData) ToGrid() *grid.Grid[block.BlockID] {
	out, _ := grid.New[block.BlockID](bd.size.X, bd.size.Y, bd.size.Z)
	if bd.size.Volume() == 0 {
		return out
	}

	for z := 0; z < bd.size.Z; z++ {
		for y := 0; y < bd.size.Y; y++ {
			src := bd.blocks.Index(0, y, z)
			dst := out.Index(0, y, z)
			copy(out.Data()[dst:dst+bd.size.X], bd.blocks.Data()[src:src+bd.size.X])
		}
	}
	return out
}

// Clone создаёт независимую копию
func (bd *BlockData) Clone() *BlockData {
	return &BlockData{
		blocks: bd.blocks.Clone(),
		size:   bd.size,
	}
}

// Count возвращает число непустых блоков
func (bd *BlockData) Count() int {
	n := 0
	for _, id := range bd.blocks.All() {
		if id != block.AirBlockID {
			n++
		}
	}
	return n
}

func ceilToChunk(n int) int {
	if mod := n % ChunkSize; mod != 0 {
		n += ChunkSize - mod
	}
	return max(n, ChunkSize)
}
