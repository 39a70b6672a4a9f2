package repository

import (
	"time"

	"github.com/ajharbinger/guest-risk-scorer/internal/models"
	"github.com/ajharbinger/guest-risk-scorer/internal/scoring"
)

// StoredReservation is a reservation with the report it was last scored with
type StoredReservation struct {
	Reservation models.NormalizedReservation `json:"reservation"`
	RiskReport  scoring.RiskReport           `json:"riskReport"`
	CreatedAt   time.Time                    `json:"createdAt"`
	UpdatedAt   time.Time                    `json:"updatedAt"`
}

var timeNow = func() time.Time {
	return time.Now().UTC()
}
