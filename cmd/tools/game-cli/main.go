package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/annel0/prefab-loader/internal/app"
	"github.com/annel0/prefab-loader/internal/auth"
	"github.com/annel0/prefab-loader/internal/config"
	"github.com/annel0/prefab-loader/internal/library"
	"github.com/annel0/prefab-loader/internal/logging"
	"github.com/annel0/prefab-loader/internal/world"
	"github.com/annel0/prefab-loader/internal/world/block"
)

const commands = "info, dump, import, export, list, delete, editable, gen, hash-password, jwt-secret"

// Options - разобранные флаги командной строки
type Options struct {
	Command    string
	File       string
	Out        string
	ID         string
	Name       string
	Seed       int64
	Size       string
	Palette    string
	KeepAuthor bool
	Password   string
}

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config (default: $PREFAB_CONFIG)")
		command    = flag.String("cmd", "list", "Command: "+commands)
		file       = flag.String("file", "", "Input .fcg file")
		out        = flag.String("out", "", "Output .fcg file")
		id         = flag.String("id", "", "Game ID in the library")
		name       = flag.String("name", "Generated", "Name of the generated game")
		seed       = flag.Int64("seed", 1, "Terrain seed for gen")
		size       = flag.String("size", "32,32", "Terrain size X,Z for gen")
		palette    = flag.String("palette", "", "Terrain block IDs: stone,dirt,grass,sand,water,tree")
		keepAuthor = flag.Bool("keep-author", false, "Do not reset the author in editable")
		password   = flag.String("password", "", "Password for hash-password")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid config: %v", err)
	}
	if err := setupLogging(cfg); err != nil {
		log.Fatalf("❌ Failed to set up logging: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err = run(ctx, cfg, &Options{
		Command:    *command,
		File:       *file,
		Out:        *out,
		ID:         *id,
		Name:       *name,
		Seed:       *seed,
		Size:       *size,
		Palette:    *palette,
		KeepAuthor: *keepAuthor,
		Password:   *password,
	})

	stop()
	if err != nil {
		logging.Error("%v", err)
	}
	_ = logging.GetLoggerManager().CloseAll()
	logging.CloseDefaultLogger()

	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
}

// run выполняет команду. Хранилище открывается только если оно нужно.
func run(ctx context.Context, cfg *config.Config, opts *Options) error {
	level := cfg.Codec.GetCompressionLevel()

	// Команды, работающие только с файлами
	switch {
	case opts.Command == "editable":
		return makeEditable(opts.File, opts.Out, !opts.KeepAuthor, level)
	case opts.Command == "gen" && opts.Out != "":
		g, err := generate(opts)
		if err != nil {
			return err
		}
		if err := writeGameFile(g, opts.Out, level); err != nil {
			return err
		}
		fmt.Printf("✅ Generated %q into %s\n", g.Name(), opts.Out)
		return nil
	case opts.Command == "info" && opts.File != "":
		return showFileInfo(opts.File)
	case opts.Command == "dump" && opts.File != "":
		return dumpFile(opts.File)
	case opts.Command == "hash-password":
		if err := requireFlag("password", opts.Password); err != nil {
			return err
		}
		hash, err := auth.HashPassword(opts.Password)
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	case opts.Command == "jwt-secret":
		secret, err := auth.GenerateSecureSecret()
		if err != nil {
			return err
		}
		fmt.Println(secret)
		return nil
	}

	lib, err := openLibrary(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open library: %w", err)
	}
	defer func() {
		if err := lib.Close(); err != nil {
			logging.Error("Ошибка закрытия библиотеки: %v", err)
		}
	}()

	switch opts.Command {
	case "list":
		return listGames(ctx, lib)
	case "info":
		if err := requireFlag("id", opts.ID); err != nil {
			return err
		}
		return showInfo(ctx, lib, opts.ID)
	case "dump":
		if err := requireFlag("id", opts.ID); err != nil {
			return err
		}
		return dumpGame(ctx, lib, opts.ID)
	case "import":
		if err := requireFlag("file", opts.File); err != nil {
			return err
		}
		return importGame(ctx, lib, opts.File)
	case "export":
		if err := requireFlag("id", opts.ID); err != nil {
			return err
		}
		if err := requireFlag("out", opts.Out); err != nil {
			return err
		}
		return exportGame(ctx, lib, opts.ID, opts.Out)
	case "delete":
		if err := requireFlag("id", opts.ID); err != nil {
			return err
		}
		if err := lib.Delete(ctx, opts.ID); err != nil {
			return err
		}
		fmt.Printf("🗑️  Deleted %s\n", opts.ID)
		return nil
	case "gen":
		g, err := generate(opts)
		if err != nil {
			return err
		}
		meta, err := lib.Store(ctx, g)
		if err != nil {
			return err
		}
		fmt.Printf("✅ Generated %q as %s\n", g.Name(), meta.ID)
		return nil
	default:
		return fmt.Errorf("unknown command: %s (available: %s)", opts.Command, commands)
	}
}

// setupLogging настраивает логгеры по конфигурации
func setupLogging(cfg *config.Config) error {
	consoleLevel, err := logging.ParseLevel(cfg.Logging.GetConsoleLevel())
	if err != nil {
		return err
	}
	fileLevel, err := logging.ParseLevel(cfg.Logging.GetFileLevel())
	if err != nil {
		return err
	}

	logging.Configure(logging.Options{
		Dir:          cfg.Logging.GetDir(),
		ConsoleLevel: consoleLevel,
		FileLevel:    fileLevel,
		Console:      os.Stderr,
	})
	return logging.InitDefaultLogger("game-cli")
}

// openLibrary открывает хранилище и, если задан адрес, поднимает /metrics
func openLibrary(ctx context.Context, cfg *config.Config) (*library.Library, error) {
	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	metrics := library.NewMetrics(reg)
	if addr := cfg.Metrics.GetListen(); addr != "" {
		library.StartHTTP(addr, reg)
	}

	logging.Debug("Хранилище %s открыто", cfg.Storage.GetBackend())
	return library.New(store, metrics, cfg.Codec.GetCompressionLevel()), nil
}

// parseSize парсит размер вида "X,Z"
func parseSize(s string) (int, int, error) {
	parts := parseStringList(s)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid size %q, expected X,Z", s)
	}
	x, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size X: %v", err)
	}
	z, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size Z: %v", err)
	}
	return x, z, nil
}

// parsePalette парсит шесть идентификаторов блоков через запятую
func parsePalette(s string) (world.Palette, error) {
	if s == "" {
		return world.DefaultPalette, nil
	}
	parts := parseStringList(s)
	if len(parts) != 6 {
		return world.Palette{}, fmt.Errorf("invalid palette %q, expected 6 block IDs", s)
	}

	ids := make([]block.BlockID, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseUint(part, 10, 16)
		if err != nil {
			return world.Palette{}, fmt.Errorf("invalid block ID %q: %v", part, err)
		}
		ids[i] = block.BlockID(v)
	}
	return world.Palette{Stone: ids[0], Dirt: ids[1], Grass: ids[2], Sand: ids[3], Water: ids[4], Tree: ids[5]}, nil
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func requireFlag(name, value string) error {
	if value == "" {
		return fmt.Errorf("flag -%s is required for this command", name)
	}
	return nil
}
