package api

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus instruments on a private
// registry, so constructing a second server never double-registers.
type Metrics struct {
	RequestCounter    *prometheus.CounterVec
	LatencyHistogram  *prometheus.HistogramVec
	PredictionCounter *prometheus.CounterVec
	ToolRunCounter    *prometheus.CounterVec
	RateLimitHits     prometheus.Counter
	registry          *prometheus.Registry
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "minerva_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		LatencyHistogram: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "minerva_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		PredictionCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "minerva_predictions_total",
				Help: "Predictions served, by model variant and recommended tool",
			},
			[]string{"model", "tool"},
		),
		ToolRunCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "minerva_tool_runs_total",
				Help: "Benchmark tool runs, by tool and outcome",
			},
			[]string{"tool", "status"},
		),
		RateLimitHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "minerva_rate_limit_hits_total",
				Help: "Requests rejected by the benchmark rate limit",
			},
		),
		registry: registry,
	}

	registry.MustRegister(m.RequestCounter)
	registry.MustRegister(m.LatencyHistogram)
	registry.MustRegister(m.PredictionCounter)
	registry.MustRegister(m.ToolRunCounter)
	registry.MustRegister(m.RateLimitHits)

	return m
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, path string, status int, seconds float64) {
	m.RequestCounter.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.LatencyHistogram.WithLabelValues(method, path).Observe(seconds)
}

// RecordPrediction counts one served prediction.
func (m *Metrics) RecordPrediction(model, tool string) {
	m.PredictionCounter.WithLabelValues(model, tool).Inc()
}

// RecordToolRun counts one benchmark tool invocation by outcome.
func (m *Metrics) RecordToolRun(tool, status string) {
	m.ToolRunCounter.WithLabelValues(tool, status).Inc()
}

// RecordRateLimitHit counts one rejected benchmark request.
func (m *Metrics) RecordRateLimitHit() {
	m.RateLimitHits.Inc()
}

// Handler returns the Prometheus exposition handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
