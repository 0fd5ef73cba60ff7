package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveUpstream("weather", OutcomeSuccess, time.Millisecond)
		m.ObserveView(OutcomeError)
		m.SetUpstreamUp(true)
	})
}

func TestMetrics_Record(t *testing.T) {
	m := New()

	m.ObserveUpstream("forecast", OutcomeSuccess, 20*time.Millisecond)
	m.ObserveUpstream("forecast", OutcomeError, 5*time.Millisecond)
	m.ObserveView(OutcomeNotFound)
	m.SetUpstreamUp(true)

	assert.InDelta(t, 1, testutil.ToFloat64(m.UpstreamRequests().WithLabelValues("forecast", OutcomeSuccess)), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(m.UpstreamRequests().WithLabelValues("forecast", OutcomeError)), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ViewRequests().WithLabelValues(OutcomeNotFound)), 0.001)
	assert.InDelta(t, 1, testutil.ToFloat64(m.UpstreamUp()), 0.001)

	m.SetUpstreamUp(false)
	assert.InDelta(t, 0, testutil.ToFloat64(m.UpstreamUp()), 0.001)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveView(OutcomeSuccess)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `weather_view_requests_total{outcome="success"} 1`)
}
