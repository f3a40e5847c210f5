package raw

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/annel0/prefab-loader/internal/logging"
	"github.com/annel0/prefab-loader/internal/prefab"
	"github.com/annel0/prefab-loader/internal/protocol"
)

// Версии формата контейнера
const (
	CurrentVersion       uint16 = 31
	OldestVersion        uint16 = 27
	UnimplementedVersion uint16 = 26

	// CurrentStockPrefabs - число стоковых префабов в текущем каталоге игры
	CurrentStockPrefabs uint16 = 597

	// DefaultAuthor - автор новой игры
	DefaultAuthor = "Unknown Author"
)

var (
	// ErrUnsupportedVersion - версия вне поддерживаемого диапазона
	ErrUnsupportedVersion = errors.New("unsupported game version")
	// ErrUnimplementedVersion - известная, но не реализованная версия
	ErrUnimplementedVersion = errors.New("loading of version 26 is not implemented")
)

// UnsupportedVersionError несёт неподдерживаемую версию
type UnsupportedVersionError struct {
	Version uint16
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported game version: %d (supported %d..%d)", e.Version, OldestVersion, CurrentVersion)
}

// Unwrap позволяет сравнивать через errors.Is(err, ErrUnsupportedVersion)
func (e *UnsupportedVersionError) Unwrap() error { return ErrUnsupportedVersion }

// CheckVersion проверяет, можно ли читать контейнер этой версии
func CheckVersion(version uint16) error {
	switch {
	case version > CurrentVersion || version < UnimplementedVersion:
		return &UnsupportedVersionError{Version: version}
	case version == UnimplementedVersion:
		return ErrUnimplementedVersion
	default:
		return nil
	}
}

// Info - заголовок контейнера без префабов
type Info struct {
	Version     uint16
	Name        string
	Author      string
	Description string
}

// Game - контейнер игры в файловом представлении
type Game struct {
	Version     uint16
	Name        string
	Author      string
	Description string
	// IDOffset - число стоковых префабов на момент сохранения файла
	IDOffset uint16
	Prefabs  []*Prefab
}

// NewGame создаёт пустую игру текущей версии
func NewGame(name string) (*Game, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty game name", prefab.ErrInvalidArgument)
	}
	return &Game{
		Version:  CurrentVersion,
		Name:     name,
		Author:   DefaultAuthor,
		IDOffset: CurrentStockPrefabs,
	}, nil
}

// Info возвращает заголовок игры
func (g *Game) Info() Info {
	return Info{Version: g.Version, Name: g.Name, Author: g.Author, Description: g.Description}
}

func readInfo(r *protocol.Reader) (Info, error) {
	var info Info
	var err error

	if info.Version, err = r.ReadUint16(); err != nil {
		return info, fmt.Errorf("version: %w", err)
	}
	if err := CheckVersion(info.Version); err != nil {
		return info, err
	}
	if info.Name, err = r.ReadString(); err != nil {
		return info, fmt.Errorf("name: %w", err)
	}
	if info.Author, err = r.ReadString(); err != nil {
		return info, fmt.Errorf("author: %w", err)
	}
	if info.Description, err = r.ReadString(); err != nil {
		return info, fmt.Errorf("description: %w", err)
	}
	return info, nil
}

// DecodeInfo читает только версию и три строки.
// Проверка версии та же, что и в Decode.
func DecodeInfo(r *protocol.Reader) (Info, error) {
	return readInfo(r)
}

// Decode читает контейнер целиком. Любая ошибка отменяет загрузку.
func Decode(r *protocol.Reader) (*Game, error) {
	info, err := readInfo(r)
	if err != nil {
		return nil, err
	}

	g := &Game{
		Version:     info.Version,
		Name:        info.Name,
		Author:      info.Author,
		Description: info.Description,
	}

	if g.IDOffset, err = r.ReadUint16(); err != nil {
		return nil, fmt.Errorf("id offset: %w", err)
	}
	count, err := r.ReadUint16()
	if err != nil {
		return nil, fmt.Errorf("prefab count: %w", err)
	}

	g.Prefabs = make([]*Prefab, 0, count)
	for i := 0; i < int(count); i++ {
		p, err := ReadPrefab(r)
		if err != nil {
			return nil, fmt.Errorf("prefab %d at offset %d: %w", i, r.Offset(), err)
		}
		g.Prefabs = append(g.Prefabs, p)
	}

	logging.GetCodecLogger().Debug("Прочитана игра %q v%d: %d префабов, idOffset=%d",
		g.Name, g.Version, len(g.Prefabs), g.IDOffset)
	return g, nil
}

// Encode записывает контейнер. Версия всегда CurrentVersion.
func (g *Game) Encode(w *protocol.Writer) error {
	if len(g.Prefabs) > math.MaxUint16 {
		return fmt.Errorf("%w: %d prefabs do not fit u16 count", prefab.ErrInvalidArgument, len(g.Prefabs))
	}

	w.WriteUint16(CurrentVersion)
	if err := w.WriteString(g.Name); err != nil {
		return fmt.Errorf("name: %w", err)
	}
	if err := w.WriteString(g.Author); err != nil {
		return fmt.Errorf("author: %w", err)
	}
	if err := w.WriteString(g.Description); err != nil {
		return fmt.Errorf("description: %w", err)
	}
	w.WriteUint16(g.IDOffset)
	w.WriteUint16(uint16(len(g.Prefabs)))

	for i, p := range g.Prefabs {
		if err := p.Write(w); err != nil {
			return fmt.Errorf("prefab %d: %w", i, err)
		}
	}
	return nil
}

// LoadCompressed читает zlib-сжатый контейнер
func LoadCompressed(src io.Reader) (*Game, error) {
	data, err := protocol.Decompress(src)
	if err != nil {
		return nil, err
	}

	g, err := Decode(protocol.NewBytesReader(data))
	if err != nil {
		logging.GetCodecLogger().LogDecodeError("game", err, data)
		return nil, err
	}
	return g, nil
}

// LoadInfoCompressed читает только заголовок сжатого контейнера
func LoadInfoCompressed(src io.Reader) (Info, error) {
	data, err := protocol.Decompress(src)
	if err != nil {
		return Info{}, err
	}
	return DecodeInfo(protocol.NewBytesReader(data))
}

// SaveCompressed записывает контейнер и сжимает его
func (g *Game) SaveCompressed(dst io.Writer, level int) error {
	w := protocol.NewWriter()
	if err := g.Encode(w); err != nil {
		return err
	}
	return protocol.Compress(dst, w.Bytes(), level)
}

// Clone возвращает глубокую копию
func (g *Game) Clone() *Game {
	c := *g
	c.Prefabs = make([]*Prefab, len(g.Prefabs))
	for i, p := range g.Prefabs {
		c.Prefabs[i] = p.Clone()
	}
	return &c
}
