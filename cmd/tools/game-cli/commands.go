package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/annel0/prefab-loader/internal/game"
	"github.com/annel0/prefab-loader/internal/library"
	"github.com/annel0/prefab-loader/internal/prefab"
	"github.com/annel0/prefab-loader/internal/raw"
	"github.com/annel0/prefab-loader/internal/world"
)

const timeFormat = "2006-01-02 15:04:05"

// showFileInfo выводит заголовок .fcg файла без разбора префабов
func showFileInfo(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := raw.LoadInfoCompressed(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Printf("📄 %s\n", path)
	fmt.Printf("   Name:        %s\n", info.Name)
	fmt.Printf("   Author:      %s\n", info.Author)
	fmt.Printf("   Description: %s\n", info.Description)
	fmt.Printf("   Version:     %d\n", info.Version)
	return nil
}

// showInfo выводит метаданные игры из библиотеки
func showInfo(ctx context.Context, lib *library.Library, id string) error {
	meta, err := lib.Info(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("🎮 %s\n", meta.ID)
	fmt.Printf("   Name:        %s\n", meta.Name)
	fmt.Printf("   Author:      %s\n", meta.Author)
	fmt.Printf("   Description: %s\n", meta.Description)
	fmt.Printf("   Version:     %d\n", meta.Version)
	fmt.Printf("   Prefabs:     %d\n", meta.PrefabCount)
	fmt.Printf("   Size:        %d bytes\n", meta.Size)
	fmt.Printf("   Saved at:    %s\n", meta.SavedAt.Local().Format(timeFormat))
	return nil
}

// listGames выводит таблицу игр библиотеки
func listGames(ctx context.Context, lib *library.Library) error {
	list, err := lib.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("📭 Library is empty")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tAUTHOR\tVERSION\tPREFABS\tSIZE\tSAVED")
	for _, m := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			m.ID, m.Name, m.Author, m.Version, m.PrefabCount, m.Size, m.SavedAt.Local().Format(timeFormat))
	}
	return tw.Flush()
}

// dumpFile выводит содержимое .fcg файла
func dumpFile(path string) error {
	rg, err := readGameFile(path)
	if err != nil {
		return err
	}
	g, err := game.FromRaw(rg, false)
	if err != nil {
		return err
	}
	return printGame(g, rg.Version, rg.IDOffset)
}

// dumpGame выводит содержимое игры из библиотеки
func dumpGame(ctx context.Context, lib *library.Library, id string) error {
	rg, err := lib.LoadRaw(ctx, id)
	if err != nil {
		return err
	}
	g, err := game.FromRaw(rg, false)
	if err != nil {
		return err
	}
	return printGame(g, rg.Version, rg.IDOffset)
}

func printGame(g *game.Game, version, idOffset uint16) error {
	fmt.Printf("🎮 %q by %s (v%d, idOffset %d)\n", g.Name(), g.Author, version, idOffset)
	if g.Description != "" {
		fmt.Printf("   %s\n", g.Description)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tTYPE\tGROUP\tBLOCKS\tSIZE\tSETTINGS\tWIRES\tEDITABLE")
	for i, p := range g.Prefabs {
		group := "-"
		if p.IsInGroup() {
			group = fmt.Sprintf("%d @ %d,%d,%d", p.GroupID, p.PosInGroup.X, p.PosInGroup.Y, p.PosInGroup.Z)
		}
		count, size := 0, "-"
		if p.Blocks != nil && !p.Blocks.IsEmpty() {
			s := p.Blocks.Size()
			count, size = p.Blocks.Count(), fmt.Sprintf("%dx%dx%d", s.X, s.Y, s.Z)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%d\t%d\t%v\n",
			i, p.Name, p.Type, group, count, size, len(p.Settings), len(p.Connections), p.Editable)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	groups, err := g.Groups()
	if err != nil {
		return err
	}
	for _, grp := range groups {
		s := grp.Size()
		fmt.Printf("🧩 Group %d: %d prefabs, size %dx%dx%d\n", grp.ID(), grp.Len(), s.X, s.Y, s.Z)
	}
	return nil
}

// importGame добавляет .fcg файл в библиотеку
func importGame(ctx context.Context, lib *library.Library, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	start := time.Now()
	meta, err := lib.Import(ctx, f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	fmt.Printf("✅ Imported %q as %s (%d prefabs, %v)\n", meta.Name, meta.ID, meta.PrefabCount, time.Since(start).Round(time.Millisecond))
	return nil
}

// exportGame пишет игру из библиотеки в файл текущей версии
func exportGame(ctx context.Context, lib *library.Library, id, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := lib.Export(ctx, id, f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("✅ Exported %s into %s\n", id, path)
	return nil
}

// makeEditable снимает блокировку редактирования с игры в файле
func makeEditable(in, out string, changeAuthor bool, level int) error {
	if err := requireFlag("file", in); err != nil {
		return err
	}
	if out == "" {
		out = in
	}

	rg, err := readGameFile(in)
	if err != nil {
		return err
	}
	g, err := game.FromRaw(rg, false)
	if err != nil {
		return err
	}
	g.MakeEditable(changeAuthor)

	if err := writeGameFile(g, out, level); err != nil {
		return err
	}
	fmt.Printf("🔓 %q is editable now: %s\n", g.Name(), out)
	return nil
}

// generate строит игру с одним уровнем из сгенерированного ландшафта
func generate(opts *Options) (*game.Game, error) {
	x, z, err := parseSize(opts.Size)
	if err != nil {
		return nil, err
	}
	palette, err := parsePalette(opts.Palette)
	if err != nil {
		return nil, err
	}

	blocks, err := world.NewTerrainGenerator(opts.Seed, palette).Generate(x, z)
	if err != nil {
		return nil, err
	}

	g, err := game.New(opts.Name)
	if err != nil {
		return nil, err
	}
	level, err := prefab.New("Level 1", prefab.TypeLevel)
	if err != nil {
		return nil, err
	}
	level.Blocks = blocks
	g.Prefabs = append(g.Prefabs, level)
	return g, nil
}

func readGameFile(path string) (*raw.Game, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rg, err := raw.LoadCompressed(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rg, nil
}

// writeGameFile пишет игру во временный файл и переименовывает его
func writeGameFile(g *game.Game, path string, level int) error {
	rg, err := g.ToRaw(false)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := rg.SaveCompressed(f, level); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}
