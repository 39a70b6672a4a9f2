package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/guest-risk-scorer/internal/logger"
	"github.com/ajharbinger/guest-risk-scorer/internal/metrics"
	"github.com/ajharbinger/guest-risk-scorer/pkg/config"
)

// SecurityHeadersMiddleware adds security headers to all responses
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// JSON API only, nothing to load
		csp := "default-src 'none'; " +
			"connect-src 'self'; " +
			"frame-ancestors 'none'; " +
			"base-uri 'none'; " +
			"form-action 'none'"
		c.Header("Content-Security-Policy", csp)

		// Risk reports contain guest contact details
		c.Header("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
		c.Header("Pragma", "no-cache")
		c.Header("Expires", "0")

		c.Next()
	}
}

var developmentOrigins = []string{
	"http://localhost:3000",
	"http://localhost:5173",
	"http://localhost:8080",
	"http://127.0.0.1:3000",
	"http://127.0.0.1:5173",
	"http://127.0.0.1:8080",
}

// CORSMiddleware handles Cross-Origin Resource Sharing. Development allows
// the usual local dashboard ports; other environments only ALLOWED_ORIGINS.
func CORSMiddleware(cfg *config.Config) gin.HandlerFunc {
	allowed := map[string]bool{}
	if cfg.IsDevelopment() {
		for _, o := range developmentOrigins {
			allowed[o] = true
		}
	}
	for _, o := range cfg.GetAllowedOrigins() {
		if o != "" {
			allowed[o] = true
		}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowed[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-CSRF-Token")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

var allowedContentTypes = []string{
	"application/json",
	"text/plain",
}

// InputValidationMiddleware caps the request body and rejects bodies that are
// not JSON. Webhook senders sometimes label JSON as text/plain.
func InputValidationMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		if c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPut {
			contentType := c.GetHeader("Content-Type")
			if contentType != "" && c.Request.ContentLength != 0 {
				ok := false
				for _, t := range allowedContentTypes {
					if strings.HasPrefix(strings.ToLower(contentType), t) {
						ok = true
						break
					}
				}
				if !ok {
					c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
						"error":         "Unsupported content type",
						"allowed_types": allowedContentTypes,
					})
					return
				}
			}
		}

		ua := strings.ToLower(c.GetHeader("User-Agent"))
		for _, pattern := range []string{"sqlmap", "nikto", "masscan", "<script", "javascript:"} {
			if strings.Contains(ua, pattern) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"error": "Request blocked for security reasons",
				})
				return
			}
		}

		c.Next()
	}
}

// RateLimitingMiddleware allows perMinute requests per client IP in a
// sliding one-minute window
func RateLimitingMiddleware(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		perMinute = 100
	}
	var mu sync.Mutex
	clients := make(map[string][]time.Time)
	retryAfter := fmt.Sprint(int(time.Minute.Seconds()))

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		recent := clients[ip][:0]
		for _, ts := range clients[ip] {
			if now.Sub(ts) <= time.Minute {
				recent = append(recent, ts)
			}
		}
		limited := len(recent) >= perMinute
		if !limited {
			recent = append(recent, now)
		}
		if len(recent) == 0 {
			delete(clients, ip)
		} else {
			clients[ip] = recent
		}
		mu.Unlock()

		if limited {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}

// LoggingMiddleware logs each request and records it in the HTTP metrics.
// Routes are labelled with their pattern so reservation ids don't explode
// label cardinality.
func LoggingMiddleware(log logger.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, status, latency)

		fields := []interface{}{
			"method", c.Request.Method,
			"route", route,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		}
		switch {
		case status >= http.StatusInternalServerError:
			log.Warn("request failed", fields...)
		case status >= http.StatusBadRequest:
			log.Info("request rejected", append(fields, "user_agent", c.Request.UserAgent())...)
		default:
			log.Debug("request", fields...)
		}
	}
}

// RecoveryMiddleware turns a handler panic into a logged 500
func RecoveryMiddleware(log logger.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error("handler panic", fmt.Errorf("%v", recovered),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
			"code":  "INTERNAL_ERROR",
		})
	})
}
