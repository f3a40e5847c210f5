// Package grid содержит плотный трёхмерный массив, хранящийся одним срезом.
package grid

import (
	"errors"
	"fmt"
	"iter"

	"github.com/annel0/prefab-loader/internal/vec"
)

var (
	// ErrInvalidDimension - отрицательная длина оси
	ErrInvalidDimension = errors.New("invalid grid dimension")
	// ErrLengthMismatch - число элементов не равно произведению длин осей
	ErrLengthMismatch = errors.New("grid length mismatch")
)

// Grid - плотный 3D массив. X - самая внутренняя ось:
// индекс (x,y,z) = x + y*LengthX + z*LengthX*LengthY.
//
// Grid не потокобезопасен, синхронизация на вызывающей стороне.
type Grid[T any] struct {
	data      []T
	lengthX   int
	lengthY   int
	lengthZ   int
	layerSize int
}

// New создаёт сетку заданного размера, заполненную нулевыми значениями.
func New[T any](x, y, z int) (*Grid[T], error) {
	if x < 0 || y < 0 || z < 0 {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrInvalidDimension, x, y, z)
	}

	return &Grid[T]{
		data:      make([]T, x*y*z),
		lengthX:   x,
		lengthY:   y,
		lengthZ:   z,
		layerSize: x * y,
	}, nil
}

// FromSlice оборачивает существующий срез без копирования.
func FromSlice[T any](data []T, x, y, z int) (*Grid[T], error) {
	if x < 0 || y < 0 || z < 0 {
		return nil, fmt.Errorf("%w: %dx%dx%d", ErrInvalidDimension, x, y, z)
	}
	if len(data) != x*y*z {
		return nil, fmt.Errorf("%w: data has %d elements, %dx%dx%d needs %d",
			ErrLengthMismatch, len(data), x, y, z, x*y*z)
	}

	return &Grid[T]{
		data:      data,
		lengthX:   x,
		lengthY:   y,
		lengthZ:   z,
		layerSize: x * y,
	}, nil
}

// LengthX возвращает длину по оси X
func (g *Grid[T]) LengthX() int { return g.lengthX }

// LengthY возвращает длину по оси Y
func (g *Grid[T]) LengthY() int { return g.lengthY }

// LengthZ возвращает длину по оси Z
func (g *Grid[T]) LengthZ() int { return g.lengthZ }

// Size возвращает длины всех трёх осей
func (g *Grid[T]) Size() vec.Vec3 {
	return vec.Vec3{X: g.lengthX, Y: g.lengthY, Z: g.lengthZ}
}

// Len возвращает общее число элементов
func (g *Grid[T]) Len() int { return len(g.data) }

// Data возвращает срез хранения в плоском порядке. Изменения видны сетке.
func (g *Grid[T]) Data() []T { return g.data }

// Index переводит координату в плоский индекс
func (g *Grid[T]) Index(x, y, z int) int {
	return x + y*g.lengthX + z*g.layerSize
}

// Pos переводит плоский индекс обратно в координату
func (g *Grid[T]) Pos(index int) vec.Vec3 {
	remaining := index % g.layerSize
	return vec.Vec3{X: remaining % g.lengthX, Y: remaining / g.lengthX, Z: index / g.layerSize}
}

// InBounds проверяет, лежит ли координата внутри сетки
func (g *Grid[T]) InBounds(x, y, z int) bool {
	return x >= 0 && x < g.lengthX && y >= 0 && y < g.lengthY && z >= 0 && z < g.lengthZ
}

// InBoundsIndex проверяет плоский индекс
func (g *Grid[T]) InBoundsIndex(index int) bool {
	return index >= 0 && index < len(g.data)
}

// Get возвращает элемент. Координата вне сетки вызывает панику.
func (g *Grid[T]) Get(x, y, z int) T {
	if !g.InBounds(x, y, z) {
		panic(fmt.Sprintf("grid: position (%d,%d,%d) out of range %dx%dx%d", x, y, z, g.lengthX, g.lengthY, g.lengthZ))
	}
	return g.data[g.Index(x, y, z)]
}

// Set записывает элемент. Координата вне сетки вызывает панику.
func (g *Grid[T]) Set(x, y, z int, value T) {
	if !g.InBounds(x, y, z) {
		panic(fmt.Sprintf("grid: position (%d,%d,%d) out of range %dx%dx%d", x, y, z, g.lengthX, g.lengthY, g.lengthZ))
	}
	g.data[g.Index(x, y, z)] = value
}

// GetUnchecked читает без проверки осей. Вызывающий гарантирует границы.
func (g *Grid[T]) GetUnchecked(x, y, z int) T {
	return g.data[g.Index(x, y, z)]
}

// SetUnchecked пишет без проверки осей. Вызывающий гарантирует границы.
func (g *Grid[T]) SetUnchecked(x, y, z int, value T) {
	g.data[g.Index(x, y, z)] = value
}

// GetIndex читает по плоскому индексу
func (g *Grid[T]) GetIndex(index int) T {
	return g.data[index]
}

// SetIndex пишет по плоскому индексу
func (g *Grid[T]) SetIndex(index int, value T) {
	g.data[index] = value
}

// Resize меняет размеры сетки, сохраняя пересечение старой и новой областей.
// Ячейки за пределами старой области получают нулевое значение.
func (g *Grid[T]) Resize(newX, newY, newZ int) error {
	switch {
	case newX < 0 || newY < 0 || newZ < 0:
		return fmt.Errorf("%w: %dx%dx%d", ErrInvalidDimension, newX, newY, newZ)
	case newX == 0 || newY == 0 || newZ == 0:
		g.data = []T{}
		g.lengthX, g.lengthY, g.lengthZ, g.layerSize = 0, 0, 0, 0
		return nil
	case newX == g.lengthX && newY == g.lengthY && newZ == g.lengthZ:
		return nil
	}

	newData := make([]T, newX*newY*newZ)
	newLayer := newX * newY

	// Копируем построчно вдоль X
	rowLen := min(g.lengthX, newX)
	if rowLen > 0 {
		maxY := min(g.lengthY, newY)
		maxZ := min(g.lengthZ, newZ)
		for z := 0; z < maxZ; z++ {
			for y := 0; y < maxY; y++ {
				src := g.Index(0, y, z)
				dst := y*newX + z*newLayer
				copy(newData[dst:dst+rowLen], g.data[src:src+rowLen])
			}
		}
	}

	g.data = newData
	g.lengthX, g.lengthY, g.lengthZ = newX, newY, newZ
	g.layerSize = newLayer
	return nil
}

// Clone создаёт независимую глубокую копию
func (g *Grid[T]) Clone() *Grid[T] {
	data := make([]T, len(g.data))
	copy(data, g.data)

	return &Grid[T]{
		data:      data,
		lengthX:   g.lengthX,
		lengthY:   g.lengthY,
		lengthZ:   g.lengthZ,
		layerSize: g.layerSize,
	}
}

// All перебирает элементы в плоском порядке (X внутренняя ось)
func (g *Grid[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, v := range g.data {
			if !yield(i, v) {
				return
			}
		}
	}
}
