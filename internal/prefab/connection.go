package prefab

import (
	"github.com/annel0/prefab-loader/internal/protocol"
	"github.com/annel0/prefab-loader/internal/vec"
)

// Connection - провод между терминалами двух блоков
type Connection struct {
	From      vec.UShort3
	To        vec.UShort3
	FromVoxel vec.UShort3
	ToVoxel   vec.UShort3
}

// ReadConnection читает соединение (4 x ushort3)
func ReadConnection(r *protocol.Reader) (Connection, error) {
	var c Connection
	var err error

	if c.From, err = r.ReadUShort3(); err != nil {
		return c, err
	}
	if c.To, err = r.ReadUShort3(); err != nil {
		return c, err
	}
	if c.FromVoxel, err = r.ReadUShort3(); err != nil {
		return c, err
	}
	if c.ToVoxel, err = r.ReadUShort3(); err != nil {
		return c, err
	}
	return c, nil
}

// Write записывает соединение
func (c Connection) Write(w *protocol.Writer) {
	w.WriteUShort3(c.From)
	w.WriteUShort3(c.To)
	w.WriteUShort3(c.FromVoxel)
	w.WriteUShort3(c.ToVoxel)
}
