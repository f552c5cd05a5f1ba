package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"PortWatch/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	runsTotal    *prometheus.CounterVec
	alertsTotal  *prometheus.CounterVec
	skipsTotal   *prometheus.CounterVec
	barsIngested *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		runsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portwatch_engine_runs_total",
				Help: "Total number of engine evaluation runs",
			},
			[]string{"scope"},
		),
		alertsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portwatch_alerts_total",
				Help: "Alerts emitted per run, by scope and severity",
			},
			[]string{"scope", "severity"},
		),
		skipsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portwatch_holdings_skipped_total",
				Help: "Holdings skipped during evaluation",
			},
			[]string{"scope"},
		),
		barsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portwatch_bars_ingested_total",
				Help: "Daily bars accepted from the ingest stream",
			},
			[]string{"symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portwatch_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portwatch_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) RecordRun(scope string) {
	r.runsTotal.WithLabelValues(scope).Inc()
}

func (r *Recorder) RecordAlerts(scope string, severity models.Severity, n int) {
	r.alertsTotal.WithLabelValues(scope, string(severity)).Add(float64(n))
}

func (r *Recorder) RecordSkips(scope string, n int) {
	r.skipsTotal.WithLabelValues(scope).Add(float64(n))
}

func (r *Recorder) RecordBarIngested(symbol string) {
	r.barsIngested.WithLabelValues(symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
