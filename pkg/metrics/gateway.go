package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GatewayMetrics records outbound REST calls made by the dashboard.
type GatewayMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
}

// NewGatewayMetrics registers the gateway metrics on the provided registerer.
func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	if reg == nil {
		return &GatewayMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_request_duration_seconds",
		Help:    "Duration of backend requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"resource", "operation"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_requests_total",
		Help: "Backend requests by outcome (ok or error code).",
	}, []string{"resource", "operation", "outcome"})
	reg.MustRegister(duration, outcomes)
	return &GatewayMetrics{
		duration: duration,
		outcomes: outcomes,
	}
}

// ObserveRequest records one completed request.
func (g *GatewayMetrics) ObserveRequest(resource, operation, outcome string, duration time.Duration) {
	if g == nil || g.duration == nil || g.outcomes == nil {
		return
	}
	resource = normalizeLabel(resource)
	operation = normalizeLabel(operation)
	g.duration.WithLabelValues(resource, operation).Observe(duration.Seconds())
	g.outcomes.WithLabelValues(resource, operation, normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
