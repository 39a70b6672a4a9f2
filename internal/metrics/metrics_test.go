package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveScore(t *testing.T) {
	m := New()
	m.ObserveScore("webhook", "medium", 35, []string{"Missing location", "No reviews"})
	m.ObserveScore("webhook", "low", 0, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReservationsScored.WithLabelValues("webhook", "medium")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReservationsScored.WithLabelValues("webhook", "low")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RuleMatches.WithLabelValues("No reviews")))
}

func TestObserveConfigUpdate(t *testing.T) {
	m := New()
	m.ObserveConfigUpdate("api", nil)
	m.ObserveConfigUpdate("api", errors.New("bad thresholds"))
	m.ObserveConfigUpdate("file", nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConfigUpdates.WithLabelValues("api", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConfigUpdates.WithLabelValues("api", "rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConfigUpdates.WithLabelValues("file", "ok")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveScore("cli", "low", 0, nil)
		m.ObserveScoringError("cli")
		m.ObserveConfigUpdate("cli", nil)
		m.ObserveLookup("ok", time.Millisecond)
		m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveHTTP("GET", "/health", http.StatusOK, 5*time.Millisecond)
	m.ObserveLookup("not_found", 20*time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `guest_risk_http_requests_total{method="GET",route="/health",status="200"} 1`)
	assert.Contains(t, string(body), `guest_risk_lookup_requests_total{result="not_found"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
