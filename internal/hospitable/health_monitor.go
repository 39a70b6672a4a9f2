package hospitable

import (
	"strings"
	"sync"
	"time"
)

// HealthMonitor tracks lookup outcomes against the booking platform
type HealthMonitor struct {
	mu                   sync.RWMutex
	totalRequests        int64
	successfulRequests   int64
	failedRequests       int64
	consecutiveFailures  int64
	lastFailureTime      time.Time
	lastSuccessTime      time.Time
	recentFailures       []FailureRecord
	maxRecentFailures    int
	failureThreshold     float64
	consecutiveThreshold int64
	staleAfter           time.Duration
}

// FailureRecord is one failed lookup
type FailureRecord struct {
	Timestamp     time.Time `json:"timestamp"`
	ReservationID string    `json:"reservation_id"`
	Error         string    `json:"error"`
	URL           string    `json:"url,omitempty"`
}

// HealthStatus is a point-in-time view of lookup health
type HealthStatus struct {
	IsHealthy           bool            `json:"is_healthy"`
	TotalRequests       int64           `json:"total_requests"`
	SuccessfulRequests  int64           `json:"successful_requests"`
	FailedRequests      int64           `json:"failed_requests"`
	SuccessRate         float64         `json:"success_rate"`
	ConsecutiveFailures int64           `json:"consecutive_failures"`
	LastFailureTime     *time.Time      `json:"last_failure_time,omitempty"`
	LastSuccessTime     *time.Time      `json:"last_success_time,omitempty"`
	RecentFailures      []FailureRecord `json:"recent_failures"`
	HealthIssues        []string        `json:"health_issues"`
	RecommendedActions  []string        `json:"recommended_actions"`
}

// NewHealthMonitor creates a monitor that keeps the last 50 failures and
// turns unhealthy above a 20% failure rate or after 5 failures in a row
func NewHealthMonitor() *HealthMonitor {
	return &HealthMonitor{
		maxRecentFailures:    50,
		failureThreshold:     0.2,
		consecutiveThreshold: 5,
		staleAfter:           time.Hour,
		recentFailures:       make([]FailureRecord, 0, 50),
	}
}

// RecordSuccess records a successful lookup
func (h *HealthMonitor) RecordSuccess(reservationID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.totalRequests++
	h.successfulRequests++
	h.consecutiveFailures = 0
	h.lastSuccessTime = time.Now()
}

// RecordFailure records a failed lookup
func (h *HealthMonitor) RecordFailure(reservationID, errorMsg, url string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	h.totalRequests++
	h.failedRequests++
	h.consecutiveFailures++
	h.lastFailureTime = now

	h.recentFailures = append(h.recentFailures, FailureRecord{
		Timestamp:     now,
		ReservationID: reservationID,
		Error:         errorMsg,
		URL:           url,
	})
	if len(h.recentFailures) > h.maxRecentFailures {
		h.recentFailures = h.recentFailures[1:]
	}
}

// GetHealthStatus returns the current health status
func (h *HealthMonitor) GetHealthStatus() HealthStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := HealthStatus{
		IsHealthy:           true,
		TotalRequests:       h.totalRequests,
		SuccessfulRequests:  h.successfulRequests,
		FailedRequests:      h.failedRequests,
		ConsecutiveFailures: h.consecutiveFailures,
		SuccessRate:         1.0,
		RecentFailures:      make([]FailureRecord, len(h.recentFailures)),
		HealthIssues:        []string{},
		RecommendedActions:  []string{},
	}
	copy(status.RecentFailures, h.recentFailures)

	if h.totalRequests > 0 {
		status.SuccessRate = float64(h.successfulRequests) / float64(h.totalRequests)
	}
	if !h.lastFailureTime.IsZero() {
		t := h.lastFailureTime
		status.LastFailureTime = &t
	}
	if !h.lastSuccessTime.IsZero() {
		t := h.lastSuccessTime
		status.LastSuccessTime = &t
	}

	if h.totalRequests >= 10 && status.SuccessRate < 1.0-h.failureThreshold {
		status.addIssue("High lookup failure rate (>20%)",
			"Check Hospitable API availability and the configured API key")
	}
	if h.consecutiveFailures >= h.consecutiveThreshold {
		status.addIssue("Multiple consecutive lookup failures",
			"Verify HOSPITABLE_BASE_URL is reachable from this host")
	}
	if !h.lastSuccessTime.IsZero() && h.lastFailureTime.After(h.lastSuccessTime) &&
		time.Since(h.lastSuccessTime) > h.staleAfter {
		status.addIssue("No successful lookups in the last hour",
			"Check network connectivity to the booking platform")
	}

	h.analyzeFailurePatterns(&status)
	return status
}

func (s *HealthStatus) addIssue(issue, action string) {
	s.IsHealthy = false
	s.HealthIssues = append(s.HealthIssues, issue)
	s.RecommendedActions = append(s.RecommendedActions, action)
}

var failurePatternAdvice = map[string][2]string{
	"timeout":        {"Frequent lookup timeouts", "Raise the client timeout or lower HOSPITABLE_REQUESTS_PER_SECOND"},
	"rate_limit":     {"Booking platform is rate limiting lookups", "Lower HOSPITABLE_REQUESTS_PER_SECOND"},
	"authentication": {"Lookups are being rejected as unauthorized", "Rotate HOSPITABLE_API_KEY"},
	"network":        {"Network errors reaching the booking platform", "Check DNS and outbound connectivity"},
}

// analyzeFailurePatterns flags an error category that dominates recent failures.
// It reports the issue without changing IsHealthy.
func (h *HealthMonitor) analyzeFailurePatterns(status *HealthStatus) {
	if len(h.recentFailures) < 3 {
		return
	}

	counts := make(map[string]int)
	for _, failure := range h.recentFailures {
		counts[categorizeError(failure.Error)]++
	}

	total := len(h.recentFailures)
	for _, category := range []string{"timeout", "rate_limit", "authentication", "network"} {
		if float64(counts[category])/float64(total) > 0.5 {
			advice := failurePatternAdvice[category]
			status.HealthIssues = append(status.HealthIssues, advice[0])
			status.RecommendedActions = append(status.RecommendedActions, advice[1])
		}
	}
}

func categorizeError(errorMsg string) string {
	msg := strings.ToLower(errorMsg)
	switch {
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "429"):
		return "rate_limit"
	case strings.Contains(msg, "unauthorized"), strings.Contains(msg, "401"), strings.Contains(msg, "403"):
		return "authentication"
	case strings.Contains(msg, "network"), strings.Contains(msg, "connection"), strings.Contains(msg, "dns"):
		return "network"
	}
	return "other"
}

// Reset clears all health monitoring data
func (h *HealthMonitor) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.totalRequests = 0
	h.successfulRequests = 0
	h.failedRequests = 0
	h.consecutiveFailures = 0
	h.lastFailureTime = time.Time{}
	h.lastSuccessTime = time.Time{}
	h.recentFailures = h.recentFailures[:0]
}

// IsHealthy reports whether lookups are within healthy parameters
func (h *HealthMonitor) IsHealthy() bool {
	return h.GetHealthStatus().IsHealthy
}

// GetFailureRate returns the failure ratio in [0, 1]
func (h *HealthMonitor) GetFailureRate() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.totalRequests == 0 {
		return 0.0
	}
	return float64(h.failedRequests) / float64(h.totalRequests)
}
