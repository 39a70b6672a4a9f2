package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/ajharbinger/guest-risk-scorer/internal/api"
	"github.com/ajharbinger/guest-risk-scorer/internal/archive"
	"github.com/ajharbinger/guest-risk-scorer/internal/database"
	"github.com/ajharbinger/guest-risk-scorer/internal/hospitable"
	"github.com/ajharbinger/guest-risk-scorer/internal/logger"
	"github.com/ajharbinger/guest-risk-scorer/internal/metrics"
	"github.com/ajharbinger/guest-risk-scorer/internal/repository"
	"github.com/ajharbinger/guest-risk-scorer/internal/scoring"
	"github.com/ajharbinger/guest-risk-scorer/internal/services"
	"github.com/ajharbinger/guest-risk-scorer/pkg/config"
)

const shutdownTimeout = 15 * time.Second

func main() {
	envErr := godotenv.Load()

	cfg := config.New()

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log = logger.NewSimpleLogger()
	}
	defer log.Sync()

	if envErr != nil {
		log.Debug("No .env file found")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Registration must finish before any traffic is scored
	registry, err := scoring.NewDefaultRegistry()
	if err != nil {
		log.Fatal("Failed to register scoring rules", err)
	}
	log.Info("Scoring rules registered", "rules", registry.IDs())
	configuration := scoring.NewConfiguration(registry)
	engine := scoring.NewEngine(registry, configuration)

	if cfg.ScoringConfigFile != "" {
		if _, err := scoring.ApplyConfigFile(configuration, cfg.ScoringConfigFile); err != nil {
			log.Fatal("Failed to apply scoring config file", err, "path", cfg.ScoringConfigFile)
		}
		m.ObserveConfigUpdate("file", nil)
		log.Info("Applied scoring config file", "path", cfg.ScoringConfigFile)
	}

	var db *database.DB
	repos := repository.NewMemoryRepositories()
	if cfg.DatabaseURL != "" {
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to open database", err)
		}
		defer db.Close()
		repos = repository.NewRepositories(db.DB)
		log.Info("Database ready", "driver", db.Driver)
	} else {
		log.Warn("DATABASE_URL is not set; reservations are kept in memory")
	}

	lookup := hospitable.NewClient(hospitable.ClientConfig{
		BaseURL:           cfg.HospitableBaseURL,
		APIKey:            cfg.HospitableAPIKey,
		RequestsPerSecond: cfg.HospitableRequestsPerSecond,
	}, log.With("component", "hospitable"), m)
	defer lookup.Close()
	if !lookup.Configured() {
		log.Info("HOSPITABLE_API_KEY is not set; reservation refresh is disabled")
	}

	svc := services.NewServices(services.Dependencies{
		Repos:   repos,
		Engine:  engine,
		Lookup:  lookup,
		Archive: archive.New(cfg.PayloadArchiveDir, log),
		Metrics: m,
		Logger:  log,
		Config:  cfg,
	})

	if cfg.ScoringConfigFile != "" {
		watchScoringConfig(ctx, cfg.ScoringConfigFile, configuration, svc.Reservations, m, log)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := api.Dependencies{
		Services: svc,
		Lookup:   lookup,
		Metrics:  m,
		Logger:   log,
		Config:   cfg,
	}
	if db != nil {
		deps.DB = db
	}
	router, err := api.NewRouter(deps)
	if err != nil {
		log.Fatal("Failed to set up router", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", err)
	}
}

// watchScoringConfig re-applies the policy file on change and rescores
// stored reservations after every successful reload
func watchScoringConfig(ctx context.Context, path string, configuration *scoring.Configuration, reservations services.ReservationService, m *metrics.Metrics, log logger.Logger) {
	watcher, err := scoring.NewConfigWatcher(configuration, path, log.With("component", "config-watcher"))
	if err != nil {
		log.Error("Scoring config hot reload disabled", err, "path", path)
		return
	}

	watcher.OnReload(func(_ *scoring.Config, err error) {
		m.ObserveConfigUpdate("file", err)
		if err != nil {
			return
		}
		stats, err := reservations.RescoreAll(ctx, services.DefaultRescoreOptions())
		if err != nil {
			log.Error("Rescore after config reload failed", err)
			return
		}
		log.Info("Rescored after config reload", "summary", stats.Summary())
	})

	go func() {
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Scoring config watcher stopped", err)
		}
	}()
}
