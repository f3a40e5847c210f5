package library

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/annel0/prefab-loader/internal/logging"
)

// Metrics - Prometheus-метрики библиотеки игр.
//
// Метрики:
// * prefab_library_operations_total{op,result} - counter
// * prefab_library_operation_duration_seconds{op} - histogram
// * prefab_library_bytes_total{direction} - counter (сжатые байты in/out)
// * prefab_library_prefabs_decoded_total - counter
type Metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	bytes      *prometheus.CounterVec
	prefabs    prometheus.Counter
}

// NewMetrics создаёт метрики и регистрирует их в reg.
// nil reg - метрики не регистрируются (удобно в тестах).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prefab_library",
			Name:      "operations_total",
			Help:      "Число операций библиотеки по типу и результату.",
		}, []string{"op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "prefab_library",
			Name:      "operation_duration_seconds",
			Help:      "Длительность операций библиотеки.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"op"}),
		bytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "prefab_library",
			Name:      "bytes_total",
			Help:      "Объём сжатых данных, прочитанных (in) и записанных (out).",
		}, []string{"direction"}),
		prefabs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "prefab_library",
			Name:      "prefabs_decoded_total",
			Help:      "Общее число разобранных записей префабов.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.operations, m.duration, m.bytes, m.prefabs)
	}
	return m
}

// observe фиксирует результат операции
func (m *Metrics) observe(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(op, result).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// StartHTTP запускает HTTP-эндпоинт Prometheus на указанном адресе (например, ":2112").
// Метод неблокирующий: HTTP-сервер стартует в отдельной горутине.
func StartHTTP(addr string, gatherer prometheus.Gatherer) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	go func() {
		logging.Info("Prometheus /metrics доступен по адресу %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
}
