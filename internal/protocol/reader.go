package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/annel0/prefab-loader/internal/vec"
)

// ErrTruncatedInput - поток закончился посреди поля
var ErrTruncatedInput = errors.New("truncated input")

// readChunk ограничивает разовое выделение памяти при чтении массивов,
// объявленная длина которых ещё не подтверждена данными
const readChunk = 4096

// Reader читает примитивы формата из потока. Все числа - little-endian.
type Reader struct {
	r       io.Reader
	offset  int64
	scratch [8]byte
}

// NewReader создает десериализатор поверх r
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// NewBytesReader создает десериализатор поверх среза
func NewBytesReader(b []byte) *Reader {
	return NewReader(bytes.NewReader(b))
}

// Offset возвращает число прочитанных байт
func (r *Reader) Offset() int64 { return r.offset }

// fill читает ровно len(p) байт
func (r *Reader) fill(p []byte, field string) error {
	n, err := io.ReadFull(r.r, p)
	r.offset += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: %s at offset %d (need %d bytes, got %d)",
				ErrTruncatedInput, field, r.offset-int64(n), len(p), n)
		}
		return fmt.Errorf("ошибка чтения %s: %w", field, err)
	}
	return nil
}

// ReadUint8 читает байт
func (r *Reader) ReadUint8() (uint8, error) {
	if err := r.fill(r.scratch[:1], "uint8"); err != nil {
		return 0, err
	}
	return r.scratch[0], nil
}

// ReadUint16 читает uint16
func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.fill(r.scratch[:2], "uint16"); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(r.scratch[:2]), nil
}

// ReadUint32 читает uint32
func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.fill(r.scratch[:4], "uint32"); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.scratch[:4]), nil
}

// ReadFloat32 читает float32
func (r *Reader) ReadFloat32() (float32, error) {
	bits, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(bits), nil
}

// ReadBytes читает ровно n байт
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if err := r.fill(b, "bytes"); err != nil {
		return nil, err
	}
	return b, nil
}

// ReadUint16s читает n 16-битных значений в little-endian.
// Память выделяется по мере поступления данных.
func ReadUint16s[T ~uint16](r *Reader, n int) ([]T, error) {
	out := make([]T, 0, min(n, readChunk))
	buf := make([]byte, 2*min(n, readChunk))

	for len(out) < n {
		count := min(n-len(out), readChunk)
		chunk := buf[:2*count]
		if err := r.fill(chunk, "uint16 array"); err != nil {
			return out, err
		}
		for i := 0; i < count; i++ {
			out = append(out, T(binary.LittleEndian.Uint16(chunk[2*i:])))
		}
	}
	return out, nil
}

// ReadString читает строку с однобайтовым префиксом длины
func (r *Reader) ReadString() (string, error) {
	length, err := r.ReadUint8()
	if err != nil {
		return "", err
	}
	if length == 0 {
		return "", nil
	}

	b := make([]byte, length)
	if err := r.fill(b, "string"); err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadByte3 читает 3 x uint8
func (r *Reader) ReadByte3() (vec.Byte3, error) {
	if err := r.fill(r.scratch[:3], "byte3"); err != nil {
		return vec.Byte3{}, err
	}
	return vec.Byte3{X: r.scratch[0], Y: r.scratch[1], Z: r.scratch[2]}, nil
}

// ReadUShort3 читает 3 x uint16
func (r *Reader) ReadUShort3() (vec.UShort3, error) {
	if err := r.fill(r.scratch[:6], "ushort3"); err != nil {
		return vec.UShort3{}, err
	}
	return vec.UShort3{
		X: binary.LittleEndian.Uint16(r.scratch[0:]),
		Y: binary.LittleEndian.Uint16(r.scratch[2:]),
		Z: binary.LittleEndian.Uint16(r.scratch[4:]),
	}, nil
}

// ReadFloat3 читает 3 x float32
func (r *Reader) ReadFloat3() (vec.Float3, error) {
	var v vec.Float3
	var err error
	if v.X, err = r.ReadFloat32(); err != nil {
		return v, err
	}
	if v.Y, err = r.ReadFloat32(); err != nil {
		return v, err
	}
	if v.Z, err = r.ReadFloat32(); err != nil {
		return v, err
	}
	return v, nil
}
