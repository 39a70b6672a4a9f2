package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajharbinger/guest-risk-scorer/internal/archive"
	"github.com/ajharbinger/guest-risk-scorer/internal/database"
	"github.com/ajharbinger/guest-risk-scorer/internal/logger"
	"github.com/ajharbinger/guest-risk-scorer/internal/metrics"
	"github.com/ajharbinger/guest-risk-scorer/internal/repository"
	"github.com/ajharbinger/guest-risk-scorer/internal/scoring"
	"github.com/ajharbinger/guest-risk-scorer/internal/services"
	"github.com/ajharbinger/guest-risk-scorer/pkg/config"
)

// rootOptions are the persistent flags shared by every subcommand
type rootOptions struct {
	configFile  string
	databaseURL string
	logLevel    string
}

// NewRootCommand builds the riskctl command tree
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "riskctl",
		Short: "Score, load and backfill guest risk reports",
		Long: "Operator tooling for the guest risk scorer. Commands share the server's storage\n" +
			"(DATABASE_URL) and accept the same YAML scoring overlay (--config).",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", os.Getenv("SCORING_CONFIG_FILE"), "Scoring configuration overlay (YAML)")
	root.PersistentFlags().StringVar(&opts.databaseURL, "database-url", os.Getenv("DATABASE_URL"), "Storage URL (postgres://… or sqlite://path); empty keeps results in memory")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")

	root.AddCommand(
		newRulesCommand(opts),
		newConfigCommand(opts),
		newScoreCommand(opts),
		newLoadCommand(opts),
		newRescoreCommand(opts),
		newExportCommand(opts),
	)
	return root
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// runtime is what a command works against. close releases the database.
type runtime struct {
	services *services.Services
	engine   *scoring.Engine
	logger   logger.Logger
	db       *database.DB
}

func (r *runtime) close() {
	if r.db != nil {
		_ = r.db.Close()
	}
	_ = r.logger.Sync()
}

// newEngine builds the default engine and applies the overlay, if any
func (o *rootOptions) newEngine() (*scoring.Engine, error) {
	engine, err := scoring.NewDefaultEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to build scoring engine: %w", err)
	}
	if o.configFile != "" {
		if _, err := scoring.ApplyConfigFile(engine.Configuration(), o.configFile); err != nil {
			return nil, err
		}
	}
	return engine, nil
}

// open wires the engine, storage and services. needStore is false for
// commands that never read stored reservations.
func (o *rootOptions) open(needStore bool) (*runtime, error) {
	log, err := logger.New(o.logLevel, "console")
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	engine, err := o.newEngine()
	if err != nil {
		return nil, err
	}

	rt := &runtime{engine: engine, logger: log}
	repos := repository.NewMemoryRepositories()
	if needStore {
		if o.databaseURL == "" {
			log.Warn("DATABASE_URL is not set; results are kept in memory and discarded on exit")
		} else {
			db, err := database.Open(o.databaseURL)
			if err != nil {
				return nil, err
			}
			rt.db = db
			repos = repository.NewRepositories(db.DB)
		}
	}

	rt.services = services.NewServices(services.Dependencies{
		Repos:   repos,
		Engine:  engine,
		Archive: archive.New("", log),
		Metrics: metrics.New(),
		Logger:  log,
		Config:  config.New(),
	})
	return rt, nil
}
