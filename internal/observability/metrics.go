package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Upstream labels
const (
	UpstreamSpeech     = "speech"
	UpstreamGenerative = "generative"
)

var (
	// Callable metrics
	callableRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speech_gateway_callable_requests_total",
		Help: "Total number of callable invocations by outcome",
	}, []string{"function", "outcome"}) // outcome: "ok" or an error kind

	callableDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "speech_gateway_callable_duration_seconds",
		Help:    "End-to-end callable latency in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	}, []string{"function"})

	// Upstream metrics
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speech_gateway_upstream_requests_total",
		Help: "Total number of upstream API calls",
	}, []string{"upstream", "status"})

	upstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "speech_gateway_upstream_latency_seconds",
		Help:    "Upstream API latency in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	}, []string{"upstream"})
)

// CallMetrics tracks metrics for a single callable invocation
type CallMetrics struct {
	function  string
	startTime time.Time
}

// NewCallMetrics starts tracking a callable invocation
func NewCallMetrics(function string) *CallMetrics {
	return &CallMetrics{
		function:  function,
		startTime: time.Now(),
	}
}

// RecordEnd records the outcome of the invocation
func (m *CallMetrics) RecordEnd(outcome string) {
	callableDuration.WithLabelValues(m.function).Observe(time.Since(m.startTime).Seconds())
	callableRequests.WithLabelValues(m.function, outcome).Inc()
}

// RecordUpstream records one upstream call. status is "success" or "error".
func RecordUpstream(upstream string, start time.Time, success bool) {
	upstreamLatency.WithLabelValues(upstream).Observe(time.Since(start).Seconds())

	status := "success"
	if !success {
		status = "error"
	}
	upstreamRequests.WithLabelValues(upstream, status).Inc()
}
