package prefab

import (
	"errors"
	"fmt"

	"github.com/annel0/prefab-loader/internal/protocol"
	"github.com/annel0/prefab-loader/internal/vec"
)

var (
	// ErrUnknownSettingType - тип настройки, для которого неизвестен формат значения
	ErrUnknownSettingType = errors.New("unknown setting type")
	// ErrInvalidSettingValue - Go-тип значения не соответствует типу настройки
	ErrInvalidSettingValue = errors.New("invalid setting value")
)

// SettingType определяет формат значения настройки
type SettingType uint8

const (
	SettingByte     SettingType = 1
	SettingUshort   SettingType = 2
	SettingFloat    SettingType = 4
	SettingVec3     SettingType = 5
	SettingRotation SettingType = 6
	// SettingText и все значения выше хранят строку (текст, имена терминалов)
	SettingText SettingType = 7
)

// IsString сообщает, хранится ли значение как строка
func (t SettingType) IsString() bool { return t >= SettingText }

// Setting - настройка блока внутри префаба.
// Value: uint8, uint16, float32, vec.Float3 или string в зависимости от Type.
type Setting struct {
	Index    uint8
	Type     SettingType
	Position vec.UShort3
	Value    any
}

// ReadSetting читает одну настройку
func ReadSetting(r *protocol.Reader) (Setting, error) {
	var s Setting
	var err error

	if s.Index, err = r.ReadUint8(); err != nil {
		return s, err
	}
	typ, err := r.ReadUint8()
	if err != nil {
		return s, err
	}
	s.Type = SettingType(typ)
	if s.Position, err = r.ReadUShort3(); err != nil {
		return s, err
	}

	switch {
	case s.Type == SettingByte:
		s.Value, err = r.ReadUint8()
	case s.Type == SettingUshort:
		s.Value, err = r.ReadUint16()
	case s.Type == SettingFloat:
		s.Value, err = r.ReadFloat32()
	case s.Type == SettingVec3 || s.Type == SettingRotation:
		s.Value, err = r.ReadFloat3()
	case s.Type.IsString():
		s.Value, err = r.ReadString()
	default:
		return s, fmt.Errorf("%w: %d", ErrUnknownSettingType, typ)
	}
	return s, err
}

// Write записывает настройку
func (s Setting) Write(w *protocol.Writer) error {
	w.WriteUint8(s.Index)
	w.WriteUint8(uint8(s.Type))
	w.WriteUShort3(s.Position)

	mismatch := func() error {
		return fmt.Errorf("%w: type %d with value %T", ErrInvalidSettingValue, s.Type, s.Value)
	}

	switch {
	case s.Type == SettingByte:
		v, ok := s.Value.(uint8)
		if !ok {
			return mismatch()
		}
		w.WriteUint8(v)
	case s.Type == SettingUshort:
		v, ok := s.Value.(uint16)
		if !ok {
			return mismatch()
		}
		w.WriteUint16(v)
	case s.Type == SettingFloat:
		v, ok := s.Value.(float32)
		if !ok {
			return mismatch()
		}
		w.WriteFloat32(v)
	case s.Type == SettingVec3 || s.Type == SettingRotation:
		v, ok := s.Value.(vec.Float3)
		if !ok {
			return mismatch()
		}
		w.WriteFloat3(v)
	case s.Type.IsString():
		v, ok := s.Value.(string)
		if !ok {
			return mismatch()
		}
		return w.WriteString(v)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownSettingType, uint8(s.Type))
	}
	return nil
}
