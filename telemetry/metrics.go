// ABOUTME: Prometheus counters for store operations, outbox delivery and aggregation
// ABOUTME: A nil *Metrics is valid and records nothing
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crmdesk"

type Metrics struct {
	registry            *prometheus.Registry
	storeOps            *prometheus.CounterVec
	outboxDelivered     prometheus.Counter
	outboxFailed        prometheus.Counter
	outboxPending       prometheus.Gauge
	aggregationFailures *prometheus.CounterVec
}

// New registers all collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Repository operations by bucket, operation and result.",
		}, []string{"bucket", "op", "result"}),
		outboxDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_delivered_total",
			Help:      "Activity events applied to the activity log.",
		}),
		outboxFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_failed_total",
			Help:      "Activity event delivery attempts that failed.",
		}),
		outboxPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outbox_pending",
			Help:      "Activity events waiting for delivery.",
		}),
		aggregationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregation_failures_total",
			Help:      "Metric computations that failed and were reported as zero.",
		}, []string{"computation"}),
	}
	m.registry.MustRegister(
		m.storeOps,
		m.outboxDelivered,
		m.outboxFailed,
		m.outboxPending,
		m.aggregationFailures,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) ObserveStoreOp(bucket, op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.storeOps.WithLabelValues(bucket, op, result).Inc()
}

func (m *Metrics) OutboxDelivered() {
	if m != nil {
		m.outboxDelivered.Inc()
	}
}

func (m *Metrics) OutboxFailed() {
	if m != nil {
		m.outboxFailed.Inc()
	}
}

func (m *Metrics) SetOutboxPending(n int) {
	if m != nil {
		m.outboxPending.Set(float64(n))
	}
}

func (m *Metrics) AggregationFailed(computation string) {
	if m != nil {
		m.aggregationFailures.WithLabelValues(computation).Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
