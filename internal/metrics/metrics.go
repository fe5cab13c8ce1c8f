// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Store-level operation metrics, labelled by operation name
// (count, list, get, add, update, delete, clear, clear_all).
var Store = struct {
	Requests *prometheus.CounterVec
	Errors   *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
}{
	Requests: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "todo", Subsystem: "storage", Name: "requests_total",
		Help: "Total number of storage operations",
	}, []string{"op"}),
	Errors: promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "todo", Subsystem: "storage", Name: "errors_total",
		Help: "Total number of failed storage operations",
	}, []string{"op"}),
	Latency: promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "todo", Subsystem: "storage", Name: "latency_seconds",
		Help:    "Latency distribution of storage operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"}),
}

// ObserveStore records one finished storage operation.
func ObserveStore(op string, start time.Time, err error) {
	Store.Requests.WithLabelValues(op).Inc()
	if err != nil {
		Store.Errors.WithLabelValues(op).Inc()
		return
	}
	Store.Latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
