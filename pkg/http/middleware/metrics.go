package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portwatch_http_requests_total",
		Help: "HTTP requests by path, method and status",
	}, []string{"path", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portwatch_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"path", "method"})

	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "portwatch_http_in_flight_requests",
		Help: "Requests currently being served",
	})

	httpSlow = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portwatch_http_slow_requests_total",
		Help: "Requests slower than the configured threshold",
	}, []string{"path", "method"})
)

// Metrics records request counters and latency. Paths are raw URL paths;
// the API surface is small and fixed, so cardinality stays bounded.
func Metrics(slowThreshold time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			method := r.Method

			httpInFlight.Inc()
			start := time.Now()

			rw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)

			elapsed := time.Since(start)
			httpInFlight.Dec()
			httpRequests.WithLabelValues(path, method, strconv.Itoa(rw.status)).Inc()
			httpDuration.WithLabelValues(path, method).Observe(elapsed.Seconds())
			if slowThreshold > 0 && elapsed >= slowThreshold {
				httpSlow.WithLabelValues(path, method).Inc()
			}
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
