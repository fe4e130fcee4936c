package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the assistant.
type Metrics struct {
	ActiveSessions  prometheus.Gauge
	EndpointSwitch  *prometheus.CounterVec
	ToolDispatches  *prometheus.CounterVec
	FallbackReplies *prometheus.CounterVec
	TurnLatency     prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of live agent sessions.",
		}),
		EndpointSwitch: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "endpoint_switches_total",
			Help:      "Chat endpoint failovers by newly active endpoint.",
		}, []string{"endpoint"}),
		ToolDispatches: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_dispatches_total",
			Help:      "Tool dispatches by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		FallbackReplies: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_replies_total",
			Help:      "Deterministic fallback replies by reason.",
		}, []string{"reason"}),
		TurnLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_latency_seconds",
			Help:      "End-to-end latency of one user turn in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60},
		}),
	}
}

func (m *Metrics) ObserveTurnLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.TurnLatency.Observe(d.Seconds())
}

func (m *Metrics) ObserveEndpointSwitch(endpoint string) {
	if m == nil {
		return
	}
	m.EndpointSwitch.WithLabelValues(endpoint).Inc()
}

func (m *Metrics) ObserveToolDispatch(tool, outcome string) {
	if m == nil {
		return
	}
	m.ToolDispatches.WithLabelValues(tool, outcome).Inc()
}

func (m *Metrics) ObserveFallback(reason string) {
	if m == nil {
		return
	}
	m.FallbackReplies.WithLabelValues(reason).Inc()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
