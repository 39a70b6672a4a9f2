package hospitable

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ajharbinger/guest-risk-scorer/internal/logger"
	"github.com/ajharbinger/guest-risk-scorer/internal/metrics"
	"github.com/ajharbinger/guest-risk-scorer/internal/models"
)

const (
	DefaultBaseURL = "https://public.api.hospitable.com"
	maxBodyBytes   = 5 << 20
)

var (
	ErrNotConfigured       = errors.New("hospitable api key is not configured")
	ErrReservationNotFound = errors.New("reservation not found on platform")
	ErrUnauthorized        = errors.New("hospitable api rejected the credentials")
)

// ClientConfig configures the reservation lookup client
type ClientConfig struct {
	BaseURL           string
	APIKey            string
	RequestsPerSecond int
	Timeout           time.Duration
}

// Client fetches reservations from the Hospitable public API with rate limiting
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter chan struct{}
	stop        chan struct{}
	closeOnce   sync.Once
	userAgent   string
	monitor     *HealthMonitor
	metrics     *metrics.Metrics
	logger      logger.Logger
}

// NewClient creates a lookup client. m may be nil.
func NewClient(cfg ClientConfig, log logger.Logger, m *metrics.Metrics) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	rateLimiter := make(chan struct{}, cfg.RequestsPerSecond)
	for i := 0; i < cfg.RequestsPerSecond; i++ {
		rateLimiter <- struct{}{}
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 30 * time.Second,
			},
		},
		rateLimiter: rateLimiter,
		stop:        make(chan struct{}),
		userAgent:   "guest-risk-scorer/1.0",
		monitor:     NewHealthMonitor(),
		metrics:     m,
		logger:      log,
	}

	go c.refill(time.Second / time.Duration(cfg.RequestsPerSecond))
	return c
}

func (c *Client) refill(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			select {
			case c.rateLimiter <- struct{}{}:
			default:
			}
		case <-c.stop:
			return
		}
	}
}

// Configured reports whether an API key is set
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Monitor returns the lookup health monitor
func (c *Client) Monitor() *HealthMonitor {
	return c.monitor
}

// GetReservation fetches one reservation by platform id and normalizes it
func (c *Client) GetReservation(ctx context.Context, id string) (*models.NormalizedReservation, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingID
	}

	select {
	case <-c.rateLimiter:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	endpoint := c.baseURL + "/v2/reservations/" + url.PathEscape(id)
	start := time.Now()

	body, err := c.get(ctx, endpoint)
	if err != nil {
		c.recordFailure(id, endpoint, err, time.Since(start))
		return nil, err
	}

	raw, err := DecodeReservation(body)
	if err != nil {
		c.recordFailure(id, endpoint, err, time.Since(start))
		return nil, err
	}
	if raw.ID == "" {
		raw.ID = id
	}

	c.monitor.RecordSuccess(id)
	c.metrics.ObserveLookup("ok", time.Since(start))
	c.logger.Debug("Fetched reservation from platform", "reservation_id", id, "duration", time.Since(start))

	reservation := NormalizeReservation(raw)
	return &reservation, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrReservationNotFound
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

func (c *Client) recordFailure(id, endpoint string, err error, elapsed time.Duration) {
	if errors.Is(err, ErrReservationNotFound) {
		// the platform answered; only the id was unknown
		c.monitor.RecordSuccess(id)
		c.metrics.ObserveLookup("not_found", elapsed)
		return
	}
	c.monitor.RecordFailure(id, err.Error(), endpoint)
	c.metrics.ObserveLookup("error", elapsed)
	c.logger.Warn("Reservation lookup failed", "reservation_id", id, "url", endpoint, "error", err.Error())
}

// Close stops the rate limiter and releases idle connections
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.stop)
		c.httpClient.CloseIdleConnections()
	})
}
