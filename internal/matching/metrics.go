package matching

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// matchesTotal counts matched products by terminal status.
	matchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matcher_matches_total",
		Help: "Total number of matched products by terminal status",
	}, []string{"status"})

	// matchDuration tracks time spent matching a single product, including
	// rate-limit waits.
	matchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "matcher_match_duration_seconds",
		Help:    "Time taken to match a single product",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	})

	// lookupErrors counts upstream lookup and search failures.
	lookupErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matcher_lookup_errors_total",
		Help: "Total number of upstream lookup/search failures",
	})
)

// MetricsRecorder provides methods to record matcher metrics.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordMatch records one finished match with its terminal status.
func (m *MetricsRecorder) RecordMatch(status string, duration time.Duration) {
	matchesTotal.WithLabelValues(status).Inc()
	matchDuration.Observe(duration.Seconds())
}

// RecordLookupError records an upstream lookup or search failure.
func (m *MetricsRecorder) RecordLookupError() {
	lookupErrors.Inc()
}
