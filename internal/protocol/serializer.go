package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/annel0/prefab-loader/internal/vec"
)

// MaxStringLength - строки пишутся с однобайтовым префиксом длины
const MaxStringLength = math.MaxUint8

// ErrStringTooLong - строка не помещается в однобайтовый префикс
var ErrStringTooLong = errors.New("string too long")

// Writer накапливает примитивы формата в памяти. Все числа - little-endian.
// Ошибки возможны только у WriteString и WriteTo.
type Writer struct {
	buf []byte
}

// NewWriter создает новый сериализатор
func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 256)}
}

// Bytes возвращает записанные данные
func (w *Writer) Bytes() []byte { return w.buf }

// Len возвращает число записанных байт
func (w *Writer) Len() int { return len(w.buf) }

// Reset очищает буфер, сохраняя выделенную память
func (w *Writer) Reset() { w.buf = w.buf[:0] }

// WriteTo выгружает накопленные байты в dst
func (w *Writer) WriteTo(dst io.Writer) (int64, error) {
	n, err := dst.Write(w.buf)
	return int64(n), err
}

// WriteUint8 записывает байт
func (w *Writer) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

// WriteBool записывает 0 или 1
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
}

// WriteUint16 записывает uint16
func (w *Writer) WriteUint16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// WriteUint32 записывает uint32
func (w *Writer) WriteUint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// WriteFloat32 записывает float32 (IEEE 754)
func (w *Writer) WriteFloat32(v float32) {
	w.WriteUint32(math.Float32bits(v))
}

// WriteBytes записывает байты как есть, без длины
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteUint16s записывает массив 16-битных значений в little-endian
// независимо от порядка байт платформы
func WriteUint16s[T ~uint16](w *Writer, values []T) {
	for _, v := range values {
		w.buf = binary.LittleEndian.AppendUint16(w.buf, uint16(v))
	}
}

// WriteString записывает строку с однобайтовым префиксом длины (в байтах)
func (w *Writer) WriteString(s string) error {
	if len(s) > MaxStringLength {
		return fmt.Errorf("%w: %d bytes, max %d", ErrStringTooLong, len(s), MaxStringLength)
	}

	w.WriteUint8(uint8(len(s)))
	w.buf = append(w.buf, s...)
	return nil
}

// WriteByte3 записывает 3 x uint8
func (w *Writer) WriteByte3(v vec.Byte3) {
	w.buf = append(w.buf, v.X, v.Y, v.Z)
}

// WriteUShort3 записывает 3 x uint16
func (w *Writer) WriteUShort3(v vec.UShort3) {
	w.WriteUint16(v.X)
	w.WriteUint16(v.Y)
	w.WriteUint16(v.Z)
}

// WriteFloat3 записывает 3 x float32
func (w *Writer) WriteFloat3(v vec.Float3) {
	w.WriteFloat32(v.X)
	w.WriteFloat32(v.Y)
	w.WriteFloat32(v.Z)
}
