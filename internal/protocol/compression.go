package protocol

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// DefaultCompressionLevel - уровень zlib по умолчанию
const DefaultCompressionLevel = zlib.DefaultCompression

// Compress сжимает payload в zlib-поток и пишет его в dst
func Compress(dst io.Writer, payload []byte, level int) error {
	zw, err := zlib.NewWriterLevel(dst, level)
	if err != nil {
		return fmt.Errorf("ошибка создания zlib writer: %w", err)
	}
	if _, err := zw.Write(payload); err != nil {
		zw.Close()
		return fmt.Errorf("ошибка сжатия: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("ошибка завершения zlib потока: %w", err)
	}
	return nil
}

// Decompress читает zlib-поток целиком
func Decompress(src io.Reader) ([]byte, error) {
	zr, err := zlib.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("ошибка открытия zlib потока: %w", err)
	}
	defer zr.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, zr); err != nil {
		return nil, fmt.Errorf("ошибка распаковки: %w", err)
	}
	return buf.Bytes(), nil
}
