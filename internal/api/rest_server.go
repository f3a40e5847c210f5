package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/prefab-loader/internal/auth"
	"github.com/annel0/prefab-loader/internal/library"
	"github.com/annel0/prefab-loader/internal/logging"
	"github.com/annel0/prefab-loader/internal/middleware"
)

// DefaultMaxUpload - предельный размер загружаемого .fcg файла
const DefaultMaxUpload = 64 << 20

// RestServer представляет REST API библиотеки игр
type RestServer struct {
	router    *gin.Engine
	server    *http.Server
	lib       *library.Library
	users     auth.UserRepository
	tokens    *auth.TokenManager
	metrics   *ServerMetrics
	log       *logging.Logger
	version   string
	maxUpload int64
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Listen      string              // адрес для запуска сервера
	Library     *library.Library    // библиотека игр
	Users       auth.UserRepository // пустой репозиторий - запись открыта
	Tokens      *auth.TokenManager
	Registry    *prometheus.Registry // HTTP метрики и /metrics
	ServiceName string               // имя для otelgin
	Version     string
	MaxUpload   int64
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) (*RestServer, error) {
	if config.Library == nil {
		return nil, errors.New("api: library is required")
	}
	if config.Tokens == nil {
		return nil, errors.New("api: token manager is required")
	}
	if config.Listen == "" {
		config.Listen = ":8088"
	}
	if config.Users == nil {
		config.Users = auth.NewMemoryUserRepo()
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}
	if config.ServiceName == "" {
		config.ServiceName = "prefab-library"
	}
	if config.MaxUpload <= 0 {
		config.MaxUpload = DefaultMaxUpload
	}

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware(config.ServiceName))
	router.Use(middleware.NewRequestLogger("/health", "/metrics").Handler())

	promMw := middleware.NewPrometheusMiddleware("prefab_api", config.Registry)
	router.Use(promMw.Handler())
	middleware.RegisterMetricsEndpoint(router, config.Registry)

	rs := &RestServer{
		router:    router,
		lib:       config.Library,
		users:     config.Users,
		tokens:    config.Tokens,
		metrics:   NewServerMetrics(),
		log:       logging.GetComponentLogger("api"),
		version:   config.Version,
		maxUpload: config.MaxUpload,
	}
	rs.server = &http.Server{
		Addr:              config.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if config.Users.Len() == 0 {
		rs.log.Warn("Пользователи API не заданы: запись и удаление игр открыты без авторизации")
	}

	rs.setupRoutes()
	return rs, nil
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// Middleware для CORS
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	rs.router.GET("/health", rs.handleHealth)

	api := rs.router.Group("/api")

	// Эндпоинт для аутентификации (без JWT защиты)
	api.POST("/auth/login", rs.handleLogin)
	api.GET("/server", rs.handleServerInfo)

	games := api.Group("/games")
	{
		games.GET("", rs.handleListGames)
		games.GET("/:id", rs.handleGetGame)
		games.GET("/:id/prefabs", rs.handleGetPrefabs)
		games.GET("/:id/download", rs.handleDownload)

		// Защищенные эндпоинты (требуют JWT)
		games.POST("", rs.jwtMiddleware(), rs.handleUpload)
		games.DELETE("/:id", rs.jwtMiddleware(), rs.adminMiddleware(), rs.handleDelete)
	}
}

// Handler возвращает http.Handler сервера (используется в тестах)
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// Start запускает REST сервер и блокируется до Shutdown
func (rs *RestServer) Start() error {
	rs.log.Info("🌐 REST API слушает %s", rs.server.Addr)
	if err := rs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown дожидается завершения активных запросов
func (rs *RestServer) Shutdown(ctx context.Context) error {
	return rs.server.Shutdown(ctx)
}

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse представляет ответ на вход
type LoginResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token,omitempty"`
	Message   string    `json:"message"`
	IsAdmin   bool      `json:"is_admin,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// handleLogin обрабатывает запрос на вход
func (rs *RestServer) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, LoginResponse{
			Success: false,
			Message: "Неверный формат запроса",
		})
		return
	}

	user, err := rs.users.ValidateCredentials(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, LoginResponse{
			Success: false,
			Message: "Неверное имя пользователя или пароль",
		})
		return
	}

	token, err := rs.tokens.Generate(user)
	if err != nil {
		rs.log.Error("Ошибка генерации токена для %s: %v", user.Username, err)
		c.JSON(http.StatusInternalServerError, LoginResponse{
			Success: false,
			Message: "Внутренняя ошибка сервера",
		})
		return
	}

	rs.log.Info("Пользователь %s вошёл (admin=%v)", user.Username, user.IsAdmin)
	c.JSON(http.StatusOK, LoginResponse{
		Success:   true,
		Token:     token,
		Message:   "Успешный вход",
		IsAdmin:   user.IsAdmin,
		ExpiresAt: time.Now().Add(rs.tokens.TTL()).UTC(),
	})
}

// handleServerInfo возвращает информацию о сервере
func (rs *RestServer) handleServerInfo(c *gin.Context) {
	stats, err := rs.metrics.GetLibraryStats(c.Request.Context(), rs.lib)
	if err != nil {
		rs.log.Warn("Не удалось собрать статистику библиотеки: %v", err)
	}
	memoryMB, _ := rs.metrics.GetMemoryUsage()
	cpuPercent, _ := rs.metrics.GetCPUUsage()

	info := map[string]interface{}{
		"version":     rs.version,
		"name":        "Prefab Library",
		"status":      "running",
		"uptime":      rs.metrics.GetUptime(),
		"memory_mb":   fmt.Sprintf("%.1f", memoryMB),
		"cpu_percent": fmt.Sprintf("%.1f", cpuPercent),
		"memory":      rs.metrics.GetDetailedMemoryStats(),
		"library":     stats,
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Информация о сервере",
		Data:    info,
	})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}
