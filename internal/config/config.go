package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Cache     CacheConfig     `yaml:"cache"`
	Events    EventsConfig    `yaml:"events"`
	API       APIConfig       `yaml:"api"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
	Codec     CodecConfig     `yaml:"codec"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// Поддерживаемые хранилища
const (
	BackendBadger = "badger"
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendSQL    = "sql"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Драйверы SQL хранилища
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Шины событий
const (
	EventsNone   = "none"
	EventsMemory = "memory"
	EventsNATS   = "nats"
)

// MinJWTSecretBytes - минимальная длина секрета после base64
const MinJWTSecretBytes = 32

type StorageConfig struct {
	Backend string      `yaml:"backend"` // badger | file | memory | sql | redis | mongo
	Path    string      `yaml:"path"`
	SQL     SQLConfig   `yaml:"sql"`
	Redis   RedisConfig `yaml:"redis"`
	Mongo   MongoConfig `yaml:"mongo"`
}

type SQLConfig struct {
	Driver string `yaml:"driver"` // mysql | sqlite
	DSN    string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Backend   string        `yaml:"backend"` // redis | memory
	RedisAddr string        `yaml:"redis_addr"`
	TTL       time.Duration `yaml:"ttl"`
	// NATSURL - если задан, инвалидация рассылается остальным узлам
	NATSURL string `yaml:"nats_url"`
}

type EventsConfig struct {
	Backend string `yaml:"backend"` // none | memory | nats
	NATSURL string `yaml:"nats_url"`
	Stream  string `yaml:"stream"`
}

// APIUser - пользователь REST API. Пароль хранится только как bcrypt хеш.
type APIUser struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	Admin        bool   `yaml:"admin"`
}

type APIConfig struct {
	Listen    string        `yaml:"listen"`
	JWTSecret string        `yaml:"jwt_secret"` // base64
	TokenTTL  time.Duration `yaml:"token_ttl"`
	Users     []APIUser     `yaml:"users"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

type LoggingConfig struct {
	Dir          string `yaml:"dir"`
	ConsoleLevel string `yaml:"console_level"`
	FileLevel    string `yaml:"file_level"`
}

type CodecConfig struct {
	// CompressionLevel - уровень zlib (-2..9). nil - значение по умолчанию.
	CompressionLevel *int `yaml:"compression_level"`
}

type MetricsConfig struct {
	// Listen - адрес HTTP эндпоинта /metrics, пусто - не поднимать
	Listen string `yaml:"listen"`
}

// Default возвращает конфигурацию без файла
func Default() *Config {
	return &Config{}
}

// GetBackend возвращает тип хранилища с поддержкой fallback значений
func (s *StorageConfig) GetBackend() string {
	return getStringWithEnvFallback(s.Backend, "PREFAB_STORAGE_BACKEND", BackendBadger)
}

// GetPath возвращает каталог данных для badger и file хранилищ
func (s *StorageConfig) GetPath() string {
	return getStringWithEnvFallback(s.Path, "PREFAB_STORAGE_PATH", "data")
}

func (s *SQLConfig) GetDriver() string {
	return getStringWithEnvFallback(s.Driver, "PREFAB_SQL_DRIVER", DriverSQLite)
}

func (s *SQLConfig) GetDSN() string {
	return getStringWithEnvFallback(s.DSN, "PREFAB_SQL_DSN", "")
}

func (r *RedisConfig) GetAddr() string {
	return getStringWithEnvFallback(r.Addr, "PREFAB_REDIS_ADDR", "localhost:6379")
}

func (r *RedisConfig) GetKeyPrefix() string {
	if r.KeyPrefix != "" {
		return r.KeyPrefix
	}
	return "prefab:"
}

func (m *MongoConfig) GetURI() string {
	return getStringWithEnvFallback(m.URI, "PREFAB_MONGO_URI", "mongodb://localhost:27017")
}

func (m *MongoConfig) GetDatabase() string {
	if m.Database != "" {
		return m.Database
	}
	return "prefabs"
}

func (m *MongoConfig) GetCollection() string {
	if m.Collection != "" {
		return m.Collection
	}
	return "games"
}

func (c *CacheConfig) GetBackend() string {
	if c.Backend != "" {
		return c.Backend
	}
	return BackendMemory
}

func (c *CacheConfig) GetRedisAddr() string {
	return getStringWithEnvFallback(c.RedisAddr, "PREFAB_REDIS_ADDR", "localhost:6379")
}

// GetTTL возвращает время жизни записи кеша (по умолчанию 5 минут)
func (c *CacheConfig) GetTTL() time.Duration {
	if c.TTL > 0 {
		return c.TTL
	}
	return 5 * time.Minute
}

func (e *EventsConfig) GetBackend() string {
	return getStringWithEnvFallback(e.Backend, "PREFAB_EVENTS_BACKEND", EventsNone)
}

func (e *EventsConfig) GetNATSURL() string {
	return getStringWithEnvFallback(e.NATSURL, "PREFAB_NATS_URL", "nats://127.0.0.1:4222")
}

func (e *EventsConfig) GetStream() string {
	if e.Stream != "" {
		return e.Stream
	}
	return "PREFAB_EVENTS"
}

// GetListen возвращает адрес REST API
func (a *APIConfig) GetListen() string {
	return getStringWithEnvFallback(a.Listen, "PREFAB_API_LISTEN", ":8088")
}

// GetJWTSecret возвращает секрет в base64; пусто - секрет генерируется при старте
func (a *APIConfig) GetJWTSecret() string {
	return getStringWithEnvFallback(a.JWTSecret, "PREFAB_JWT_SECRET", "")
}

// GetTokenTTL возвращает время жизни токена (по умолчанию 24 часа)
func (a *APIConfig) GetTokenTTL() time.Duration {
	if a.TokenTTL > 0 {
		return a.TokenTTL
	}
	return 24 * time.Hour
}

func (t *TelemetryConfig) GetServiceName() string {
	if t.ServiceName != "" {
		return t.ServiceName
	}
	return "prefab-library"
}

// GetDir возвращает каталог логов, пусто - только консоль
func (l *LoggingConfig) GetDir() string {
	return getStringWithEnvFallback(l.Dir, "PREFAB_LOG_DIR", "")
}

func (l *LoggingConfig) GetConsoleLevel() string {
	return getStringWithEnvFallback(l.ConsoleLevel, "PREFAB_LOG_LEVEL", "info")
}

func (l *LoggingConfig) GetFileLevel() string {
	return getStringWithEnvFallback(l.FileLevel, "PREFAB_FILE_LOG_LEVEL", "debug")
}

// GetCompressionLevel возвращает уровень сжатия с поддержкой fallback значений
func (c *CodecConfig) GetCompressionLevel() int {
	if c.CompressionLevel != nil {
		return *c.CompressionLevel
	}
	if envVal := os.Getenv("PREFAB_COMPRESSION_LEVEL"); envVal != "" {
		if level, err := strconv.Atoi(envVal); err == nil && validCompressionLevel(level) {
			return level
		}
	}
	return -1 // zlib.DefaultCompression
}

// GetListen возвращает адрес /metrics
func (m *MetricsConfig) GetListen() string {
	return getStringWithEnvFallback(m.Listen, "PREFAB_METRICS_LISTEN", "")
}

// Validate проверяет значения, заданные в файле
func (c *Config) Validate() error {
	switch c.Storage.GetBackend() {
	case BackendBadger, BackendFile, BackendMemory, BackendRedis, BackendMongo:
	case BackendSQL:
		switch c.Storage.SQL.GetDriver() {
		case DriverMySQL, DriverSQLite:
		default:
			return fmt.Errorf("неизвестный storage.sql.driver: %q", c.Storage.SQL.Driver)
		}
		if c.Storage.SQL.GetDSN() == "" {
			return fmt.Errorf("storage.sql.dsn не задан")
		}
	default:
		return fmt.Errorf("неизвестный storage.backend: %q", c.Storage.Backend)
	}

	if c.Cache.Enabled {
		switch c.Cache.GetBackend() {
		case BackendRedis, BackendMemory:
		default:
			return fmt.Errorf("неизвестный cache.backend: %q", c.Cache.Backend)
		}
	}

	switch c.Events.GetBackend() {
	case EventsNone, EventsMemory, EventsNATS:
	default:
		return fmt.Errorf("неизвестный events.backend: %q", c.Events.Backend)
	}

	if secret := c.API.GetJWTSecret(); secret != "" {
		decoded, err := base64.StdEncoding.DecodeString(secret)
		if err != nil {
			return fmt.Errorf("api.jwt_secret должен быть в base64: %w", err)
		}
		if len(decoded) < MinJWTSecretBytes {
			return fmt.Errorf("api.jwt_secret короче %d байт", MinJWTSecretBytes)
		}
	}
	for i, u := range c.API.Users {
		if u.Username == "" || u.PasswordHash == "" {
			return fmt.Errorf("api.users[%d]: нужны username и password_hash", i)
		}
	}

	if lvl := c.Codec.CompressionLevel; lvl != nil && !validCompressionLevel(*lvl) {
		return fmt.Errorf("codec.compression_level вне диапазона -2..9: %d", *lvl)
	}
	return nil
}

func validCompressionLevel(level int) bool {
	return level >= -2 && level <= 9
}

// getStringWithEnvFallback возвращает значение с приоритетом: config -> env -> default
func getStringWithEnvFallback(configVal, envVar, defaultVal string) string {
	if configVal != "" {
		return configVal
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		return envVal
	}
	return defaultVal
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV PREFAB_CONFIG, иначе возвращает Default().
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("PREFAB_CONFIG")
		if path == "" {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения конфигурации: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
