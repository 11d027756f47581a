package analysis

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *serviceMetrics
	metricsOnce   sync.Once
)

// serviceMetrics holds Prometheus metrics for the analysis pipeline.
type serviceMetrics struct {
	AnalysesTotal   *prometheus.CounterVec
	ChatsTotal      *prometheus.CounterVec
	UpstreamDur     prometheus.Histogram
	PersistFailures prometheus.Counter
}

// newServiceMetrics creates and registers pipeline metrics. sync.Once
// guards against duplicate collector registration panics when multiple
// services are constructed (tests do this).
func newServiceMetrics() *serviceMetrics {
	metricsOnce.Do(func() {
		globalMetrics = &serviceMetrics{
			AnalysesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "analysis_requests_total",
					Help: "Total analysis requests by language and outcome",
				},
				[]string{"language", "status"}, // status: ok, input_error, upstream_error, invalid_response
			),
			ChatsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "chat_requests_total",
					Help: "Total chat-about-code requests by outcome",
				},
				[]string{"status"},
			),
			UpstreamDur: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "analysis_upstream_duration_seconds",
					Help:    "Duration of upstream LLM calls in seconds",
					Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
				},
			),
			PersistFailures: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "analysis_persist_failures_total",
					Help: "History writes that failed after a successful analysis",
				},
			),
		}
	})
	return globalMetrics
}
