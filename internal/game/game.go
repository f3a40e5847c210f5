// Package game - игра в виде для редактирования и её преобразование
// в файловое представление raw.Game и обратно.
package game

import (
	"fmt"

	"github.com/annel0/prefab-loader/internal/prefab"
	"github.com/annel0/prefab-loader/internal/raw"
	"github.com/annel0/prefab-loader/internal/world"
	"github.com/annel0/prefab-loader/internal/world/block"
)

// Game - игра: метаданные и список префабов
type Game struct {
	name        string
	Author      string
	Description string
	Prefabs     []*prefab.Prefab
}

// New создаёт пустую игру
func New(name string) (*Game, error) {
	g := &Game{Author: raw.DefaultAuthor}
	if err := g.SetName(name); err != nil {
		return nil, err
	}
	return g, nil
}

// Name возвращает название игры
func (g *Game) Name() string { return g.name }

// SetName меняет название, пустое недопустимо
func (g *Game) SetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty game name", prefab.ErrInvalidArgument)
	}
	g.name = name
	return nil
}

// MakeEditable снимает блокировку редактирования со всех префабов
// и, если нужно, сбрасывает автора
func (g *Game) MakeEditable(changeAuthor bool) {
	if changeAuthor {
		g.Author = raw.DefaultAuthor
	}
	for _, p := range g.Prefabs {
		p.Editable = true
	}
}

// Partials возвращает проекции всех префабов
func (g *Game) Partials() []*prefab.PartialPrefab {
	out := make([]*prefab.PartialPrefab, len(g.Prefabs))
	for i, p := range g.Prefabs {
		out[i] = p.Partial()
	}
	return out
}

// Groups собирает префабы групп в prefab.Group в порядке первого появления
func (g *Game) Groups() ([]*prefab.Group, error) {
	var groups []*prefab.Group
	byID := make(map[block.BlockID]*prefab.Group)

	for _, p := range g.Prefabs {
		if !p.IsInGroup() {
			continue
		}
		grp, ok := byID[p.GroupID]
		if !ok {
			grp = prefab.NewGroup(p.GroupID)
			byID[p.GroupID] = grp
			groups = append(groups, grp)
		}
		if grp.ContainsKey(p.PosInGroup) {
			return nil, fmt.Errorf("%w: group %d has two prefabs at %v", prefab.ErrInvalidArgument, p.GroupID, p.PosInGroup)
		}
		if err := grp.Add(p.PosInGroup, p); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// FromRaw строит игру из файлового представления. Идентификаторы
// пользовательских префабов сдвигаются под текущий стоковый каталог.
// При clone=false сетки блоков raw-префабов переиспользуются.
func FromRaw(rg *raw.Game, clone bool) (*Game, error) {
	return FromRawWith(rg, OffsetRemap(rg.IDOffset, raw.CurrentStockPrefabs), clone)
}

// FromRawWith - то же, что FromRaw, с явной таблицей перенумерации
func FromRawWith(rg *raw.Game, remap IDRemap, clone bool) (*Game, error) {
	g := &Game{Author: rg.Author, Description: rg.Description}
	if err := g.SetName(rg.Name); err != nil {
		return nil, err
	}

	g.Prefabs = make([]*prefab.Prefab, 0, len(rg.Prefabs))
	for i, rp := range rg.Prefabs {
		p, err := prefabFromRaw(rp, remap, clone)
		if err != nil {
			return nil, fmt.Errorf("prefab %d: %w", i, err)
		}
		g.Prefabs = append(g.Prefabs, p)
	}
	return g, nil
}

// ToRaw строит файловое представление. IDOffset всегда текущий.
func (g *Game) ToRaw(clone bool) (*raw.Game, error) {
	rg, err := raw.NewGame(g.name)
	if err != nil {
		return nil, err
	}
	rg.Author = g.Author
	rg.Description = g.Description

	rg.Prefabs = make([]*raw.Prefab, 0, len(g.Prefabs))
	for _, p := range g.Prefabs {
		rg.Prefabs = append(rg.Prefabs, prefabToRaw(p, clone))
	}
	return rg, nil
}

func prefabFromRaw(rp *raw.Prefab, remap IDRemap, clone bool) (*prefab.Prefab, error) {
	if rp.Name == "" {
		return nil, fmt.Errorf("%w: empty prefab name", prefab.ErrInvalidArgument)
	}
	if clone {
		rp = rp.Clone()
	}

	p := &prefab.Prefab{
		Name:            rp.Name,
		Type:            rp.Type,
		Collider:        rp.Collider,
		BackgroundColor: rp.BackgroundColor,
		Editable:        !rp.UnEditable && !rp.UnEditable2,
		Data1:           rp.Data1,
		Data2:           rp.Data2,
		GroupID:         rp.GroupID,
		PosInGroup:      rp.PosInGroup,
		Voxels:          rp.Voxels,
		Settings:        rp.Settings,
		Connections:     rp.Connections,
	}

	if p.IsInGroup() {
		p.GroupID = remap(p.GroupID)
	}

	if rp.Blocks != nil {
		p.Blocks = world.NewBlockDataFrom(rp.Blocks)
		p.Blocks.Remap(remap)
	} else {
		p.Blocks = world.NewBlockData()
	}
	return p, nil
}

func prefabToRaw(p *prefab.Prefab, clone bool) *raw.Prefab {
	if clone {
		p = p.Clone()
	}

	rp := &raw.Prefab{
		Type:            p.Type,
		Name:            p.Name,
		Data1:           p.Data1,
		Data2:           p.Data2,
		BackgroundColor: p.BackgroundColor,
		Collider:        p.Collider,
		UnEditable:      !p.Editable,
		UnEditable2:     !p.Editable,
		GroupID:         p.GroupID,
		PosInGroup:      p.PosInGroup,
		Voxels:          p.Voxels,
		Settings:        p.Settings,
		Connections:     p.Connections,
	}

	if p.Blocks != nil && !p.Blocks.IsEmpty() {
		rp.Blocks = p.Blocks.ToGrid()
	}
	return rp
}
