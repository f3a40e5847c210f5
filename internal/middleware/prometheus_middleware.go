package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// unmatchedPath - метка для запросов вне маршрутов, чтобы не плодить серии
const unmatchedPath = "unmatched"

// PrometheusMiddleware собирает HTTP-метрики REST API.
//
//	mw := middleware.NewPrometheusMiddleware("prefab_api", reg)
//	r.Use(mw.Handler())
//	middleware.RegisterMetricsEndpoint(r, reg)
//
// Метрики (с префиксом namespace):
//   - http_request_duration_seconds{method,path,status}
//   - http_requests_inflight
//   - http_request_errors_total{method,path,status} для 4xx/5xx
//   - http_request_body_bytes{method,path} размер тела (загрузка .fcg)
//   - http_response_body_bytes{method,path} размер ответа (выгрузка .fcg)
type PrometheusMiddleware struct {
	duration  *prometheus.HistogramVec
	inflight  prometheus.Gauge
	errors    *prometheus.CounterVec
	reqBytes  *prometheus.HistogramVec
	respBytes *prometheus.HistogramVec
}

// Игры весят от сотен байт до десятков мегабайт
var bodyBuckets = prometheus.ExponentialBuckets(256, 4, 10)

// NewPrometheusMiddleware создаёт middleware и регистрирует метрики в reg
func NewPrometheusMiddleware(namespace string, reg prometheus.Registerer) *PrometheusMiddleware {
	labels := []string{"method", "path"}
	pm := &PrometheusMiddleware{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Длительность HTTP-запросов.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "path", "status"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_inflight",
			Help:      "Запросы в обработке.",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_request_errors_total",
			Help:      "Запросы, завершившиеся статусом 4xx/5xx.",
		}, []string{"method", "path", "status"}),
		reqBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_body_bytes",
			Help:      "Размер тела запроса.",
			Buckets:   bodyBuckets,
		}, labels),
		respBytes: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_body_bytes",
			Help:      "Размер тела ответа.",
			Buckets:   bodyBuckets,
		}, labels),
	}

	reg.MustRegister(pm.duration, pm.inflight, pm.errors, pm.reqBytes, pm.respBytes)
	return pm
}

// Handler возвращает gin.HandlerFunc для router.Use()
func (pm *PrometheusMiddleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		pm.inflight.Inc()
		defer pm.inflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedPath
		}
		method := c.Request.Method
		code := c.Writer.Status()
		status := strconv.Itoa(code)

		pm.duration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
		if code >= 400 {
			pm.errors.WithLabelValues(method, path, status).Inc()
		}
		if c.Request.ContentLength > 0 {
			pm.reqBytes.WithLabelValues(method, path).Observe(float64(c.Request.ContentLength))
		}
		if size := c.Writer.Size(); size > 0 {
			pm.respBytes.WithLabelValues(method, path).Observe(float64(size))
		}
	}
}

// RegisterMetricsEndpoint добавляет GET /metrics
func RegisterMetricsEndpoint(r gin.IRoutes, gatherer prometheus.Gatherer) {
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
