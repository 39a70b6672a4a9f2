package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/guest-risk-scorer/internal/auth"
	"github.com/ajharbinger/guest-risk-scorer/internal/logger"
	"github.com/ajharbinger/guest-risk-scorer/internal/metrics"
	"github.com/ajharbinger/guest-risk-scorer/internal/middleware"
	"github.com/ajharbinger/guest-risk-scorer/internal/models"
	"github.com/ajharbinger/guest-risk-scorer/internal/services"
	"github.com/ajharbinger/guest-risk-scorer/pkg/config"
)

// Dependencies are what the router serves. DB and Lookup may be nil.
type Dependencies struct {
	Services *services.Services
	DB       HealthChecker
	Lookup   LookupHealth
	Metrics  *metrics.Metrics
	Logger   logger.Logger
	Config   *config.Config
}

// NewRouter builds the gin engine with the middleware chain and all routes
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	if deps.Config == nil {
		deps.Config = config.New()
	}
	cfg := deps.Config

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.GetTrustedProxies()); err != nil {
		return nil, err
	}

	r.Use(middleware.RecoveryMiddleware(deps.Logger))
	r.Use(middleware.LoggingMiddleware(deps.Logger, deps.Metrics))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CORSMiddleware(cfg))
	r.Use(middleware.InputValidationMiddleware(cfg.MaxRequestSize))
	if cfg.EnableRateLimit {
		r.Use(middleware.RateLimitingMiddleware(100))
	}

	SetupRoutes(r, deps)
	return r, nil
}

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, deps Dependencies) {
	healthHandler := NewHealthHandler(deps.DB, deps.Lookup, deps.Logger)
	reservationHandler := NewReservationHandler(deps.Services.Reservations, deps.Logger)
	scoringHandler := NewScoringHandler(deps.Services.ScoringConfig, deps.Logger)
	authHandler := NewAuthHandler(deps.Services.Auth, deps.Logger)

	r.GET("/", healthHandler.Root)
	r.GET("/health", healthHandler.Health)
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	// Booking platform webhook
	r.POST("/booking", reservationHandler.BookingWebhook)

	// The ops UI calls the unversioned paths
	registerReservationRoutes(r.Group("/reservations"), reservationHandler)

	v1 := r.Group("/api/v1")
	{
		registerReservationRoutes(v1.Group("/reservations"), reservationHandler)

		v1.POST("/auth/login", authHandler.Login)
		v1.POST("/auth/logout", authHandler.Logout)
	}

	admin := v1.Group("/scoring")
	admin.Use(auth.JWTMiddleware(auth.NewJWTService(deps.Config.JWTSecret)))
	admin.Use(auth.RequireRole(string(models.RoleAdmin)))
	admin.Use(auth.CSRFMiddleware())
	{
		admin.GET("/config", scoringHandler.GetConfig)
		admin.PUT("/config", scoringHandler.UpdateConfig)
		admin.POST("/config/reset", scoringHandler.ResetConfig)
		admin.GET("/rules", scoringHandler.GetRules)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}

func registerReservationRoutes(g *gin.RouterGroup, h *ReservationHandler) {
	g.POST("", h.CreateReservation)
	g.GET("", h.ListReservations)
	g.GET("/export", h.ExportReservations)
	g.GET("/:id", h.GetReservation)
	g.PUT("/:id", h.UpdateReservation)
	g.POST("/:id/refresh", h.RefreshReservation)
}
