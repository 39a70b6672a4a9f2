package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "guest_risk"

// Metrics holds the collectors exported on /metrics. Each instance owns its
// registry so tests and multiple servers do not collide.
type Metrics struct {
	registry *prometheus.Registry

	ReservationsScored *prometheus.CounterVec
	RuleMatches        *prometheus.CounterVec
	ScoreValue         prometheus.Histogram
	ScoringErrors      *prometheus.CounterVec
	ConfigUpdates      *prometheus.CounterVec
	LookupRequests     *prometheus.CounterVec
	LookupDuration     prometheus.Histogram
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// New creates and registers every collector
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ReservationsScored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_scored_total",
			Help:      "Reservations scored, by source and resulting risk level.",
		}, []string{"source", "level"}),
		RuleMatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_matches_total",
			Help:      "Matched rules across all scored reservations.",
		}, []string{"rule"}),
		ScoreValue: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score",
			Help:      "Distribution of total risk scores.",
			Buckets:   []float64{0, 10, 20, 30, 45, 60, 80, 100, 150},
		}),
		ScoringErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scoring_errors_total",
			Help:      "Scoring passes that failed, by source.",
		}, []string{"source"}),
		ConfigUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_updates_total",
			Help:      "Scoring configuration changes, by origin and result.",
		}, []string{"origin", "result"}),
		LookupRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookup_requests_total",
			Help:      "Reservation lookups against the booking platform, by result.",
		}, []string{"result"}),
		LookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Latency of reservation lookups.",
			Buckets:   prometheus.DefBuckets,
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ReservationsScored,
		m.RuleMatches,
		m.ScoreValue,
		m.ScoringErrors,
		m.ConfigUpdates,
		m.LookupRequests,
		m.LookupDuration,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveScore records one successful scoring pass
func (m *Metrics) ObserveScore(source, level string, score int, matched []string) {
	if m == nil {
		return
	}
	m.ReservationsScored.WithLabelValues(source, level).Inc()
	m.ScoreValue.Observe(float64(score))
	for _, rule := range matched {
		m.RuleMatches.WithLabelValues(rule).Inc()
	}
}

// ObserveScoringError records a failed scoring pass
func (m *Metrics) ObserveScoringError(source string) {
	if m == nil {
		return
	}
	m.ScoringErrors.WithLabelValues(source).Inc()
}

// ObserveConfigUpdate records a configuration change attempt
func (m *Metrics) ObserveConfigUpdate(origin string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	m.ConfigUpdates.WithLabelValues(origin, result).Inc()
}

// ObserveLookup records one platform lookup
func (m *Metrics) ObserveLookup(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.LookupRequests.WithLabelValues(result).Inc()
	m.LookupDuration.Observe(elapsed.Seconds())
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
