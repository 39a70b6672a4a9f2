package repository

import (
	"errors"

	"github.com/ajharbinger/guest-risk-scorer/internal/models"
	"github.com/ajharbinger/guest-risk-scorer/internal/scoring"
)

// ErrNotFound is returned when no reservation is stored under an id
var ErrNotFound = errors.New("reservation not found")

var errRequiredID = errors.New("reservation id is required")

// ReservationRepository defines the interface for reservation and risk report storage
type ReservationRepository interface {
	// Save upserts a reservation together with its latest report.
	// The first CreatedAt is kept across saves.
	Save(id string, reservation models.NormalizedReservation, report scoring.RiskReport) error
	Get(id string) (*StoredReservation, error)
	// GetForUpdate reads like Get and, inside a transaction, holds the
	// reservation until commit so concurrent saves queue behind it
	GetForUpdate(id string) (*StoredReservation, error)
	// List returns every stored reservation, newest first
	List() ([]StoredReservation, error)
	Count() (int, error)
}

// TransactionManager defines the interface for database transaction management
type TransactionManager interface {
	WithTransaction(fn func(repos *Repositories) error) error
}

// Repositories groups all repository interfaces
type Repositories struct {
	Reservations ReservationRepository
	Tx           TransactionManager
}
