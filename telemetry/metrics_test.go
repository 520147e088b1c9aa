package telemetry

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreOpCounters(t *testing.T) {
	m := New()
	m.ObserveStoreOp("deals", "create", nil)
	m.ObserveStoreOp("deals", "create", nil)
	m.ObserveStoreOp("deals", "get", errors.New("missing"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.storeOps.WithLabelValues("deals", "create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.storeOps.WithLabelValues("deals", "get", "error")))
}

func TestOutboxAndAggregation(t *testing.T) {
	m := New()
	m.OutboxDelivered()
	m.OutboxFailed()
	m.SetOutboxPending(3)
	m.AggregationFailed("company_metrics")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.outboxDelivered))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outboxFailed))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.outboxPending))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.aggregationFailures.WithLabelValues("company_metrics")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveStoreOp("x", "y", nil)
	m.OutboxDelivered()
	m.OutboxFailed()
	m.SetOutboxPending(1)
	m.AggregationFailed("z")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.OutboxDelivered()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "crmdesk_outbox_delivered_total 1")
}
