package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/guest-risk-scorer/internal/hospitable"
	"github.com/ajharbinger/guest-risk-scorer/internal/logger"
)

// HealthChecker is a store that can report whether it is reachable
type HealthChecker interface {
	HealthCheck() error
}

// LookupHealth reports on the booking platform client
type LookupHealth interface {
	Configured() bool
	Monitor() *hospitable.HealthMonitor
}

// HealthHandler answers liveness and dependency health checks
type HealthHandler struct {
	db      HealthChecker
	lookup  LookupHealth
	logger  logger.Logger
	started time.Time
}

// NewHealthHandler creates a health handler. db is nil when reservations
// are kept in memory; lookup is nil when no platform client exists.
func NewHealthHandler(db HealthChecker, lookup LookupHealth, log logger.Logger) *HealthHandler {
	return &HealthHandler{
		db:      db,
		lookup:  lookup,
		logger:  log,
		started: time.Now(),
	}
}

// Root is the plain-text banner
func (h *HealthHandler) Root(c *gin.Context) {
	c.String(http.StatusOK, "Guest risk scorer API is running")
}

// Health reports ok, degraded (lookup failing) or unavailable (store down)
func (h *HealthHandler) Health(c *gin.Context) {
	status := "ok"
	code := http.StatusOK
	body := gin.H{
		"uptime": time.Since(h.started).Round(time.Second).String(),
	}

	switch {
	case h.db == nil:
		body["database"] = "memory"
	default:
		if err := h.db.HealthCheck(); err != nil {
			h.logger.Error("Database health check failed", err)
			body["database"] = "unavailable"
			status = "unavailable"
			code = http.StatusServiceUnavailable
		} else {
			body["database"] = "ok"
		}
	}

	if h.lookup == nil || !h.lookup.Configured() {
		body["lookup"] = gin.H{"configured": false}
	} else {
		lookup := h.lookup.Monitor().GetHealthStatus()
		body["lookup"] = lookup
		if !lookup.IsHealthy && status == "ok" {
			status = "degraded"
		}
	}

	body["status"] = status
	c.JSON(code, body)
}
