package utils

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PipelineMetrics метрики ETL-процесса на собственном реестре
type PipelineMetrics struct {
	registry *prometheus.Registry

	rowsTotal          *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	runsTotal          *prometheus.CounterVec
	outputBytesTotal   *prometheus.CounterVec
	lastRunDuration    prometheus.Gauge
	lastSuccess        prometheus.Gauge
}

// NewPipelineMetrics создает и регистрирует метрики
func NewPipelineMetrics() *PipelineMetrics {
	m := &PipelineMetrics{registry: prometheus.NewRegistry()}

	m.rowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sales_etl",
			Name:      "rows_total",
			Help:      "Rows passed through the pipeline by origin",
		},
		[]string{"source"},
	)
	m.validationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sales_etl",
			Name:      "validation_failures_total",
			Help:      "Validation rule violations by rule",
		},
		[]string{"rule"},
	)
	m.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sales_etl",
			Name:      "runs_total",
			Help:      "ETL runs by final status",
		},
		[]string{"status"},
	)
	m.outputBytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sales_etl",
			Name:      "output_bytes_total",
			Help:      "Bytes written per artifact kind",
		},
		[]string{"kind"},
	)
	m.lastRunDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sales_etl",
		Name:      "last_run_duration_seconds",
		Help:      "Duration of the last ETL run",
	})
	m.lastSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sales_etl",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful run",
	})

	m.registry.MustRegister(
		m.rowsTotal,
		m.validationFailures,
		m.runsTotal,
		m.outputBytesTotal,
		m.lastRunDuration,
		m.lastSuccess,
	)

	return m
}

// Registry возвращает реестр метрик
func (m *PipelineMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler возвращает HTTP-обработчик /metrics
func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// AddRows учитывает строки из указанного источника
func (m *PipelineMetrics) AddRows(source string, n int) {
	m.rowsTotal.WithLabelValues(source).Add(float64(n))
}

// AddValidationFailures учитывает нарушения по правилам
func (m *PipelineMetrics) AddValidationFailures(byRule map[string]int) {
	for rule, n := range byRule {
		m.validationFailures.WithLabelValues(rule).Add(float64(n))
	}
}

// AddOutputBytes учитывает записанные байты
func (m *PipelineMetrics) AddOutputBytes(kind string, n int64) {
	m.outputBytesTotal.WithLabelValues(kind).Add(float64(n))
}

// RunsCounter счетчик запусков с указанным статусом
func (m *PipelineMetrics) RunsCounter(status string) prometheus.Counter {
	return m.runsTotal.WithLabelValues(status)
}

// ObserveRun фиксирует итог запуска
func (m *PipelineMetrics) ObserveRun(status string, duration time.Duration, finishedAt time.Time) {
	m.runsTotal.WithLabelValues(status).Inc()
	m.lastRunDuration.Set(duration.Seconds())
	if status == "success" {
		m.lastSuccess.Set(float64(finishedAt.Unix()))
	}
}
