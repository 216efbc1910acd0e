// Package metrics exposes Prometheus instrumentation for store-backed
// operations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns the metric vectors behind /metrics. A nil *Recorder is valid
// and records nothing, so tests can pass nil instead of wiring a registry.
type Recorder struct {
	registry      *prometheus.Registry
	operations    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	importsActive prometheus.Gauge
}

// NewRecorder builds a recorder with its own registry, including the standard
// Go and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_operations_total",
			Help: "Completed store-backed operations by outcome.",
		}, []string{"operation", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crm_operation_duration_seconds",
			Help:    "Latency of store-backed operations.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		importsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "crm_imports_active",
			Help: "CSV imports currently holding a limiter slot.",
		}),
	}
	r.registry.MustRegister(
		r.operations,
		r.duration,
		r.importsActive,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Observe records one completed operation.
func (r *Recorder) Observe(operation string, success bool, d time.Duration) {
	if r == nil {
		return
	}
	result := "success"
	if !success {
		result = "error"
	}
	r.operations.WithLabelValues(operation, result).Inc()
	r.duration.WithLabelValues(operation).Observe(d.Seconds())
}

// ImportStarted marks an import as holding a limiter slot.
func (r *Recorder) ImportStarted() {
	if r == nil {
		return
	}
	r.importsActive.Inc()
}

// ImportFinished releases the slot marked by ImportStarted.
func (r *Recorder) ImportFinished() {
	if r == nil {
		return
	}
	r.importsActive.Dec()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
