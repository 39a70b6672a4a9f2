package services

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ajharbinger/guest-risk-scorer/internal/archive"
	"github.com/ajharbinger/guest-risk-scorer/internal/errors"
	"github.com/ajharbinger/guest-risk-scorer/internal/hospitable"
	"github.com/ajharbinger/guest-risk-scorer/internal/logger"
	"github.com/ajharbinger/guest-risk-scorer/internal/metrics"
	"github.com/ajharbinger/guest-risk-scorer/internal/models"
	"github.com/ajharbinger/guest-risk-scorer/internal/repository"
	"github.com/ajharbinger/guest-risk-scorer/internal/scoring"
)

// reservationServiceImpl implements ReservationService
type reservationServiceImpl struct {
	repos   *repository.Repositories
	engine  *scoring.Engine
	lookup  ReservationLookup
	archive *archive.Archive
	metrics *metrics.Metrics
	logger  logger.Logger
}

// newReservationService creates a new reservation service implementation
func newReservationService(deps Dependencies) ReservationService {
	return &reservationServiceImpl{
		repos:   deps.Repos,
		engine:  deps.Engine,
		lookup:  deps.Lookup,
		archive: deps.Archive,
		metrics: deps.Metrics,
		logger:  deps.Logger,
	}
}

// IngestWebhook archives the raw body, then scores and stores the reservation
func (s *reservationServiceImpl) IngestWebhook(body []byte) (*WebhookResult, error) {
	reservation, err := parsePayload(body)
	if err != nil {
		return nil, err
	}

	if _, err := s.archive.Save(reservation.ID, body); err != nil {
		s.logger.Warn("Failed to archive webhook payload", "reservation_id", reservation.ID, "error", err.Error())
	}

	return s.scoreAndSave(SourceWebhook, reservation)
}

// Import scores and stores a previously saved payload
func (s *reservationServiceImpl) Import(body []byte) (*WebhookResult, error) {
	reservation, err := parsePayload(body)
	if err != nil {
		return nil, err
	}
	return s.scoreAndSave(SourceImport, reservation)
}

func parsePayload(body []byte) (models.NormalizedReservation, error) {
	reservation, err := hospitable.ParseWebhook(body)
	if err != nil {
		if stderrors.Is(err, hospitable.ErrMissingID) {
			return reservation, errors.InvalidInput("Missing reservation ID", err)
		}
		return reservation, errors.InvalidInput("Invalid reservation payload", err)
	}
	return reservation, nil
}

func (s *reservationServiceImpl) scoreAndSave(source string, reservation models.NormalizedReservation) (*WebhookResult, error) {
	report, err := s.score(source, reservation)
	if err != nil {
		return nil, err
	}
	if err := s.save(reservation, report); err != nil {
		return nil, err
	}

	s.logger.Info("Scored reservation",
		"reservation_id", reservation.ID,
		"source", source,
		"score", report.Score,
		"level", report.Level,
	)
	return &WebhookResult{ReservationID: reservation.ID, RiskReport: *report}, nil
}

// Create scores and stores a reservation entered by hand
func (s *reservationServiceImpl) Create(guest models.NormalizedGuest) (*repository.StoredReservation, error) {
	guest.Normalize()
	reservation := newManualReservation(guest, time.Now().UTC())

	report, err := s.score(SourceManual, reservation)
	if err != nil {
		return nil, err
	}
	if err := s.save(reservation, report); err != nil {
		return nil, err
	}

	s.logger.Info("Created manual reservation", "reservation_id", reservation.ID, "level", report.Level)
	return s.Get(reservation.ID)
}

// newManualReservation builds a one-night reservation stub around guest
func newManualReservation(guest models.NormalizedGuest, now time.Time) models.NormalizedReservation {
	id := "manual-" + uuid.NewString()
	code := "MAN" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	today := now.Format(time.RFC3339)
	tomorrow := now.Add(24 * time.Hour).Format(time.RFC3339)

	return models.NormalizedReservation{
		ID:             id,
		Code:           code,
		Platform:       "manual",
		PlatformID:     id,
		BookingDate:    today,
		ArrivalDate:    today,
		DepartureDate:  tomorrow,
		CheckIn:        today,
		CheckOut:       tomorrow,
		Nights:         1,
		Status:         "accepted",
		StatusHistory:  []models.StatusHistoryItem{},
		ConversationID: id,
		LastMessageAt:  today,
		Guests:         models.GuestCounts{Total: 1, AdultCount: 1},
		ReservationStatus: models.ReservationStatus{
			Current: models.CurrentStatus{Category: "accepted"},
			History: []models.StatusHistoryItem{},
		},
		Guest: guest,
	}
}

// Get retrieves a stored reservation
func (s *reservationServiceImpl) Get(id string) (*repository.StoredReservation, error) {
	stored, err := s.repos.Reservations.Get(id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("Reservation not found", err)
		}
		s.logger.Error("Failed to get reservation", err, "reservation_id", id)
		return nil, errors.DatabaseError("failed to get reservation", err).WithOperation("Get")
	}
	return stored, nil
}

// List returns every stored reservation, newest first
func (s *reservationServiceImpl) List() ([]repository.StoredReservation, error) {
	list, err := s.repos.Reservations.List()
	if err != nil {
		s.logger.Error("Failed to list reservations", err)
		return nil, errors.DatabaseError("failed to list reservations", err).WithOperation("List")
	}
	s.logger.Debug("Listed reservations", "count", len(list))
	return list, nil
}

// UpdateGuest replaces the guest of a stored reservation and rescores it
func (s *reservationServiceImpl) UpdateGuest(id string, guest models.NormalizedGuest) (*ScoredReservation, error) {
	stored, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	guest.Normalize()
	reservation := stored.Reservation
	reservation.Guest = guest

	report, err := s.score(SourceUpdate, reservation)
	if err != nil {
		return nil, err
	}
	if err := s.save(reservation, report); err != nil {
		return nil, err
	}

	s.logger.Info("Updated reservation guest", "reservation_id", id, "score", report.Score, "level", report.Level)
	return &ScoredReservation{Reservation: reservation, RiskReport: *report}, nil
}

// Refresh fetches the reservation from the booking platform and rescores it.
// Reputation counts the platform does not report are kept from the stored guest.
func (s *reservationServiceImpl) Refresh(ctx context.Context, id string) (*ScoredReservation, error) {
	if s.lookup == nil || !s.lookup.Configured() {
		return nil, errors.ServiceError("Reservation lookup is not configured", hospitable.ErrNotConfigured)
	}

	fetched, err := s.lookup.GetReservation(ctx, id)
	if err != nil {
		if stderrors.Is(err, hospitable.ErrReservationNotFound) {
			return nil, errors.NotFound("Reservation not found on platform", err)
		}
		return nil, errors.ServiceError("Reservation lookup failed", err).WithOperation("Refresh")
	}

	reservation := *fetched
	if stored, err := s.repos.Reservations.Get(id); err == nil {
		previous := stored.Reservation.Guest
		reservation.Guest.ReviewCount = previous.ReviewCount
		reservation.Guest.TripCount = previous.TripCount
		reservation.Guest.HasNegativeReviews = previous.HasNegativeReviews
	} else if !stderrors.Is(err, repository.ErrNotFound) {
		return nil, errors.DatabaseError("failed to get reservation", err).WithOperation("Refresh")
	}
	reservation.ID = id

	report, err := s.score(SourceRefresh, reservation)
	if err != nil {
		return nil, err
	}
	if err := s.save(reservation, report); err != nil {
		return nil, err
	}

	s.logger.Info("Refreshed reservation from platform", "reservation_id", id, "level", report.Level)
	return &ScoredReservation{Reservation: reservation, RiskReport: *report}, nil
}

// Score evaluates a reservation under the current configuration without storing it
func (s *reservationServiceImpl) Score(reservation models.NormalizedReservation) (*scoring.RiskReport, error) {
	reservation.Guest.Normalize()
	return s.score(SourceAdHoc, reservation)
}

func (s *reservationServiceImpl) score(source string, reservation models.NormalizedReservation) (*scoring.RiskReport, error) {
	report, err := s.engine.Score(reservation)
	if err != nil {
		s.metrics.ObserveScoringError(source)
		if stderrors.Is(err, scoring.ErrInvalidGuest) {
			return nil, errors.ValidationError("Invalid guest data", err)
		}
		s.logger.Error("Scoring failed", err, "reservation_id", reservation.ID, "source", source)
		return nil, errors.InternalError("Scoring failed", err).WithOperation("Score")
	}

	s.metrics.ObserveScore(source, string(report.Level), report.Score, report.RuleNames())
	return report, nil
}

func (s *reservationServiceImpl) save(reservation models.NormalizedReservation, report *scoring.RiskReport) error {
	if err := s.repos.Reservations.Save(reservation.ID, reservation, *report); err != nil {
		s.logger.Error("Failed to save reservation", err, "reservation_id", reservation.ID)
		return errors.DatabaseError("failed to save reservation", err).WithOperation("Save")
	}
	return nil
}
