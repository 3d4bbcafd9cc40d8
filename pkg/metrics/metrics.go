// Package metrics exposes Prometheus collectors for lifecycle transitions,
// import outcomes and HTTP traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "asset_tracker"

// Metrics groups the service collectors.
type Metrics struct {
	Transitions  *prometheus.CounterVec
	ImportRows   *prometheus.CounterVec
	ImportRuns   prometheus.Counter
	Requests     *prometheus.CounterVec
	Latency      *prometheus.HistogramVec
	ActiveAssets prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifecycle_operations_total",
			Help:      "Lifecycle operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		ImportRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_total",
			Help:      "Imported spreadsheet rows by outcome.",
		}, []string{"outcome"}),
		ImportRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_runs_total",
			Help:      "Completed spreadsheet imports.",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ActiveAssets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_assets",
			Help:      "Active assets seen by the last listing or export.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Transitions, m.ImportRows, m.ImportRuns, m.Requests, m.Latency, m.ActiveAssets)
	}
	return m
}

// Nop returns unregistered collectors, for tests and tools.
func Nop() *Metrics {
	return New(nil)
}

// ObserveOperation counts one lifecycle operation. outcome is "ok", or the
// error code when it failed.
func (m *Metrics) ObserveOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(operation, outcome).Inc()
}

// ObserveImportRow counts one processed import row.
func (m *Metrics) ObserveImportRow(outcome string) {
	if m == nil {
		return
	}
	m.ImportRows.WithLabelValues(outcome).Inc()
}

// ObserveImportRun counts a finished import.
func (m *Metrics) ObserveImportRun() {
	if m == nil {
		return
	}
	m.ImportRuns.Inc()
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.Latency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// SetActiveAssets records the current number of active assets.
func (m *Metrics) SetActiveAssets(n int) {
	if m == nil {
		return
	}
	m.ActiveAssets.Set(float64(n))
}
