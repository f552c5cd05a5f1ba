package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	EvalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "portwatch",
			Subsystem: "engine",
			Name:      "latency_seconds",
			Help:      "Latency of evaluation endpoints",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	EvalErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portwatch",
			Subsystem: "engine",
			Name:      "errors_total",
			Help:      "Errors by evaluation endpoint",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(EvalLatency, EvalErrors)
	})
}
