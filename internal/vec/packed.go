package vec

// Упакованные векторы, в том виде, в каком они лежат в файле.

// Byte3 - позиция внутри группы (3 x uint8)
type Byte3 struct {
	X uint8
	Y uint8
	Z uint8
}

// ToVec3 расширяет вектор до int
func (b Byte3) ToVec3() Vec3 {
	return Vec3{X: int(b.X), Y: int(b.Y), Z: int(b.Z)}
}

// Max возвращает покомпонентный максимум
func (b Byte3) Max(other Byte3) Byte3 {
	return Byte3{X: max(b.X, other.X), Y: max(b.Y, other.Y), Z: max(b.Z, other.Z)}
}

// UShort3 - размеры сетки блоков и позиции настроек/соединений (3 x uint16)
type UShort3 struct {
	X uint16
	Y uint16
	Z uint16
}

// ToVec3 расширяет вектор до int
func (u UShort3) ToVec3() Vec3 {
	return Vec3{X: int(u.X), Y: int(u.Y), Z: int(u.Z)}
}

// Float3 - значение настройки типа Vec3/Rotation
type Float3 struct {
	X float32
	Y float32
	Z float32
}
