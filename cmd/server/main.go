package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/prefab-loader/internal/api"
	"github.com/annel0/prefab-loader/internal/app"
	"github.com/annel0/prefab-loader/internal/auth"
	"github.com/annel0/prefab-loader/internal/config"
	"github.com/annel0/prefab-loader/internal/logging"
	"github.com/annel0/prefab-loader/internal/observability"
)

// Version подставляется при сборке через -ldflags
var Version = "dev"

func main() {
	configPath := flag.String("config", "", "Путь к YAML конфигурации (по умолчанию $PREFAB_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Некорректная конфигурация: %v", err)
	}
	if err := setupLogging(cfg); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}

	err = run(cfg)
	if err != nil {
		logging.Error("❌ %v", err)
	}
	_ = logging.GetLoggerManager().CloseAll()
	logging.CloseDefaultLogger()

	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logging.Info("🎮 Запуск Prefab Library %s...", Version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === TELEMETRY ===
	if cfg.Telemetry.Enabled {
		shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry.GetServiceName(), Version)
		if err != nil {
			return fmt.Errorf("ошибка инициализации OpenTelemetry: %w", err)
		}
		defer shutdownWithTimeout("OpenTelemetry", shutdownTelemetry)
	}

	// === БИБЛИОТЕКА ===
	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("ошибка сборки библиотеки: %w", err)
	}
	defer func() {
		if err := application.Close(); err != nil {
			logging.Error("Ошибка закрытия библиотеки: %v", err)
		}
	}()

	// === АВТОРИЗАЦИЯ ===
	users, err := loadUsers(cfg.API.Users)
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenManager(cfg.API.GetJWTSecret(), cfg.API.GetTokenTTL())
	if err != nil {
		return fmt.Errorf("ошибка инициализации JWT: %w", err)
	}
	if cfg.API.GetJWTSecret() == "" {
		logging.Warn("api.jwt_secret не задан: токены станут недействительны после перезапуска")
	}

	// === REST API ===
	server, err := api.NewRestServer(api.Config{
		Listen:      cfg.API.GetListen(),
		Library:     application.Library,
		Users:       users,
		Tokens:      tokens,
		Registry:    application.Registry,
		ServiceName: cfg.Telemetry.GetServiceName(),
		Version:     Version,
	})
	if err != nil {
		return fmt.Errorf("ошибка создания REST API: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logging.Info("✅ Сервер запущен")
	logging.Info("   🌐 REST API: http://localhost%s", cfg.API.GetListen())
	logging.Info("   ❤️  Health check: http://localhost%s/health", cfg.API.GetListen())

	select {
	case <-ctx.Done():
		logging.Info("📡 Получен сигнал, завершение работы...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("REST API остановлен: %w", err)
		}
	}

	// === GRACEFUL SHUTDOWN ===
	shutdownWithTimeout("REST API", server.Shutdown)
	logging.Info("👋 Сервер успешно остановлен")
	return nil
}

// loadUsers переносит пользователей из конфигурации в репозиторий
func loadUsers(list []config.APIUser) (*auth.MemoryUserRepo, error) {
	users := auth.NewMemoryUserRepo()
	for _, u := range list {
		if _, err := users.AddUser(u.Username, u.PasswordHash, u.Admin); err != nil {
			return nil, fmt.Errorf("пользователь %s: %w", u.Username, err)
		}
	}
	logging.Debug("Загружено пользователей API: %d", users.Len())
	return users, nil
}

func shutdownWithTimeout(name string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		logging.Error("Ошибка остановки %s: %v", name, err)
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
		Console:      os.Stdout,
	})
	return logging.InitDefaultLogger("server")
}
