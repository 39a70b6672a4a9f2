package services

import (
	"context"

	"github.com/ajharbinger/guest-risk-scorer/internal/archive"
	"github.com/ajharbinger/guest-risk-scorer/internal/logger"
	"github.com/ajharbinger/guest-risk-scorer/internal/metrics"
	"github.com/ajharbinger/guest-risk-scorer/internal/models"
	"github.com/ajharbinger/guest-risk-scorer/internal/repository"
	"github.com/ajharbinger/guest-risk-scorer/internal/scoring"
	"github.com/ajharbinger/guest-risk-scorer/pkg/config"
)

// Scoring sources used as metric labels
const (
	SourceWebhook = "webhook"
	SourceManual  = "manual"
	SourceUpdate  = "update"
	SourceRefresh = "refresh"
	SourceRescore = "rescore"
	SourceImport  = "import"
	SourceAdHoc   = "adhoc"
)

// Services contains all application services
type Services struct {
	Reservations  ReservationService
	ScoringConfig ScoringConfigService
	Auth          AuthService
}

// ReservationService defines the interface for reservation scoring and storage
type ReservationService interface {
	// IngestWebhook archives, scores and stores a booking webhook body
	IngestWebhook(body []byte) (*WebhookResult, error)
	// Import scores and stores a saved payload without archiving it
	Import(body []byte) (*WebhookResult, error)
	Create(guest models.NormalizedGuest) (*repository.StoredReservation, error)
	Get(id string) (*repository.StoredReservation, error)
	List() ([]repository.StoredReservation, error)
	UpdateGuest(id string, guest models.NormalizedGuest) (*ScoredReservation, error)
	Refresh(ctx context.Context, id string) (*ScoredReservation, error)
	RescoreAll(ctx context.Context, opts RescoreOptions) (*RescoreStats, error)
	// Score evaluates a reservation without storing it
	Score(reservation models.NormalizedReservation) (*scoring.RiskReport, error)
	Export(filter ExportFilter, format ExportFormat) ([]byte, error)
}

// ScoringConfigService defines the interface for the live scoring policy
type ScoringConfigService interface {
	Current() *scoring.Config
	Update(partial scoring.PartialConfig) (*scoring.Config, error)
	Rules() []RuleView
	RestoreDefaults() *scoring.Config
}

// AuthService defines the interface for admin authentication
type AuthService interface {
	Login(email, password string) (*LoginResponse, error)
	ValidateToken(token string) (*models.Admin, error)
}

// ReservationLookup fetches reservations from the booking platform
type ReservationLookup interface {
	Configured() bool
	GetReservation(ctx context.Context, id string) (*models.NormalizedReservation, error)
}

// WebhookResult is the webhook answer: the reservation id and the report fields inline
type WebhookResult struct {
	ReservationID string `json:"reservation_id"`
	scoring.RiskReport
}

// ScoredReservation pairs a reservation with the report just computed for it
type ScoredReservation struct {
	Reservation models.NormalizedReservation `json:"reservation"`
	RiskReport  scoring.RiskReport           `json:"riskReport"`
}

// Dependencies are the collaborators services are built from.
// Lookup, Archive and Metrics may be nil.
type Dependencies struct {
	Repos   *repository.Repositories
	Engine  *scoring.Engine
	Lookup  ReservationLookup
	Archive *archive.Archive
	Metrics *metrics.Metrics
	Logger  logger.Logger
	Config  *config.Config
}

// NewServices creates a new Services instance with all dependencies
func NewServices(deps Dependencies) *Services {
	if deps.Logger == nil {
		deps.Logger = logger.NewSimpleLogger()
	}
	if deps.Config == nil {
		deps.Config = config.New()
	}

	return &Services{
		Reservations:  newReservationService(deps),
		ScoringConfig: newScoringConfigService(deps),
		Auth:          newAuthService(deps.Config),
	}
}
