// Package prefab описывает префабы игры: полное представление для
// редактирования, облегчённую проекцию PartialPrefab и многоклеточные группы.
package prefab

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument - пустое обязательное поле или недопустимое значение аргумента
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidGroupID - id группы префаба не совпадает с id группы
	ErrInvalidGroupID = errors.New("invalid group id")
)

// DefaultName - имя префаба, которое не записывается в файл
const DefaultName = "New Block"

// VoxelsLength - размер поверхностных вокселей: 8*8*8 ячеек * 6 граней
const VoxelsLength = 8 * 8 * 8 * 6

// Voxels - визуальная оболочка префаба
type Voxels [VoxelsLength]byte

// PrefabType - тип префаба
type PrefabType uint8

const (
	TypeNormal PrefabType = iota
	TypeSound
	TypeRigid
	TypeScript
	TypeLevel
)

// String возвращает строковое представление типа
func (t PrefabType) String() string {
	switch t {
	case TypeNormal:
		return "Normal"
	case TypeSound:
		return "Sound"
	case TypeRigid:
		return "Rigid"
	case TypeScript:
		return "Script"
	case TypeLevel:
		return "Level"
	default:
		return fmt.Sprintf("PrefabType(%d)", uint8(t))
	}
}

// Collider - форма коллайдера префаба
type Collider uint8

const (
	ColliderNone Collider = iota
	ColliderBox
	ColliderSphere
)

// DefaultCollider - коллайдер, который не записывается в файл
const DefaultCollider = ColliderBox

// Color - индекс цвета палитры
type Color uint8

// Палитра. Значения соответствуют байту в файле.
const (
	ColorBlack Color = iota + 1
	ColorGray3
	ColorGray2
	ColorGray1
	ColorWhite
	ColorBrown3
	ColorBrown2
	ColorBrown1
	ColorBeige3
	ColorBeige2
	ColorBeige1
	ColorRed3
	ColorRed2
	ColorRed1
	ColorOrange3
	ColorOrange2
	ColorOrange1
	ColorYellow3
	ColorYellow2
	ColorYellow1
	ColorGreen3
	ColorGreen2
	ColorGreen1
	ColorBlue3
	ColorBlue2
	ColorBlue1
	ColorPurple3
	ColorPurple2
	ColorPurple1
	ColorPink3
	ColorPink2
	ColorPink1
)

// ColorDefault - цвет фона, который не записывается в файл
const ColorDefault = ColorBlue2

// InvalidGroupIDError - префаб добавляется в чужую группу
type InvalidGroupIDError struct {
	ExpectedGroupID uint16
	PrefabGroupID   uint16
}

func (e *InvalidGroupIDError) Error() string {
	return fmt.Sprintf("prefab's group id (%d) is different than the group's id (%d)", e.PrefabGroupID, e.ExpectedGroupID)
}

// Unwrap позволяет сравнивать через errors.Is(err, ErrInvalidGroupID)
func (e *InvalidGroupIDError) Unwrap() error { return ErrInvalidGroupID }
