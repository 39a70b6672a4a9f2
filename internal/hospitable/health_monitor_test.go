package hospitable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthMonitor_RecordSuccessAndFailure(t *testing.T) {
	monitor := NewHealthMonitor()
	assert.True(t, monitor.IsHealthy())

	monitor.RecordSuccess("r-1")
	monitor.RecordSuccess("r-2")
	monitor.RecordSuccess("r-3")

	status := monitor.GetHealthStatus()
	assert.Equal(t, int64(3), status.TotalRequests)
	assert.Equal(t, int64(3), status.SuccessfulRequests)
	assert.Equal(t, 1.0, status.SuccessRate)
	assert.NotNil(t, status.LastSuccessTime)
	assert.Nil(t, status.LastFailureTime)

	monitor.RecordFailure("r-4", "network error", "https://example.com")

	status = monitor.GetHealthStatus()
	assert.Equal(t, int64(4), status.TotalRequests)
	assert.Equal(t, int64(1), status.FailedRequests)
	assert.Equal(t, 0.75, status.SuccessRate)
	assert.Len(t, status.RecentFailures, 1)
}

func TestHealthMonitor_ConsecutiveFailures(t *testing.T) {
	monitor := NewHealthMonitor()
	for i := 0; i < 6; i++ {
		monitor.RecordFailure("r-1", "error", "")
	}

	status := monitor.GetHealthStatus()
	assert.False(t, status.IsHealthy)
	assert.Equal(t, int64(6), status.ConsecutiveFailures)
	assert.Contains(t, status.HealthIssues, "Multiple consecutive lookup failures")

	monitor.RecordSuccess("r-1")
	assert.Equal(t, int64(0), monitor.GetHealthStatus().ConsecutiveFailures)
}

func TestHealthMonitor_HighFailureRate(t *testing.T) {
	monitor := NewHealthMonitor()
	for i := 0; i < 5; i++ {
		monitor.RecordSuccess("r-1")
	}
	for i := 0; i < 10; i++ {
		monitor.RecordFailure("r-1", "error", "")
	}

	status := monitor.GetHealthStatus()
	assert.False(t, status.IsHealthy)
	assert.Contains(t, status.HealthIssues, "High lookup failure rate (>20%)")
}

func TestHealthMonitor_FailurePatternAnalysis(t *testing.T) {
	monitor := NewHealthMonitor()
	for i := 0; i < 10; i++ {
		monitor.RecordFailure("r-1", "hospitable api rejected the credentials: status 401", "")
	}

	status := monitor.GetHealthStatus()
	assert.Contains(t, status.HealthIssues, "Lookups are being rejected as unauthorized")
	assert.Contains(t, status.RecommendedActions, "Rotate HOSPITABLE_API_KEY")
}

func TestHealthMonitor_RecentFailuresLimit(t *testing.T) {
	monitor := NewHealthMonitor()
	for i := 0; i < 60; i++ {
		monitor.RecordFailure("r-1", "error", "")
	}
	assert.Len(t, monitor.GetHealthStatus().RecentFailures, monitor.maxRecentFailures)
}

func TestHealthMonitor_Reset(t *testing.T) {
	monitor := NewHealthMonitor()
	monitor.RecordSuccess("r-1")
	monitor.RecordFailure("r-1", "error", "")

	monitor.Reset()

	status := monitor.GetHealthStatus()
	assert.Zero(t, status.TotalRequests)
	assert.Zero(t, status.SuccessfulRequests)
	assert.Zero(t, status.FailedRequests)
	assert.Empty(t, status.RecentFailures)
}

func TestHealthMonitor_FailureRate(t *testing.T) {
	monitor := NewHealthMonitor()
	assert.Equal(t, 0.0, monitor.GetFailureRate())

	monitor.RecordSuccess("r-1")
	monitor.RecordSuccess("r-1")
	monitor.RecordFailure("r-1", "error", "")
	monitor.RecordFailure("r-1", "error", "")
	assert.Equal(t, 0.5, monitor.GetFailureRate())
}

func TestCategorizeError(t *testing.T) {
	testCases := []struct {
		error    string
		expected string
	}{
		{"connection timeout", "timeout"},
		{"context deadline exceeded", "timeout"},
		{"rate limit exceeded", "rate_limit"},
		{"unexpected status code: 429", "rate_limit"},
		{"unauthorized access", "authentication"},
		{"status 403", "authentication"},
		{"network unreachable", "network"},
		{"DNS resolution failed", "network"},
		{"connection refused", "network"},
		{"unknown error", "other"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, categorizeError(tc.error), tc.error)
	}
}
