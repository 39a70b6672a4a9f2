package hospitable

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ajharbinger/guest-risk-scorer/internal/models"
)

// ErrMissingID is returned for payloads that carry no reservation id
var ErrMissingID = errors.New("missing reservation id")

// RawGuest is the guest object as it arrives from the platform or a webhook.
// It accepts both the platform shape (first_name, profile_picture URL) and an
// already normalized guest (name, profile_picture flag).
type RawGuest struct {
	ID             *string         `json:"id"`
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Name           string          `json:"name"`
	ProfilePicture json.RawMessage `json:"profile_picture"`
	PhoneNumbers   []string        `json:"phone_numbers"`
	Email          *string         `json:"email"`
	Location       *string         `json:"location"`
	Language       *string         `json:"language"`

	ReviewCount        *int  `json:"review_count"`
	TripCount          *int  `json:"trip_count"`
	HasNegativeReviews *bool `json:"has_negative_reviews"`

	// camelCase variants seen in older webhook fixtures
	ReviewCountAlt        *int  `json:"reviewCount"`
	TripCountAlt          *int  `json:"tripCount"`
	HasNegativeReviewsAlt *bool `json:"hasNegativeReviews"`
}

// RawReservation is a platform reservation before guest normalization.
// Guest shadows the embedded normalized guest during decoding.
type RawReservation struct {
	models.NormalizedReservation
	Guest RawGuest `json:"guest"`
}

// NormalizeGuest maps a raw guest onto the normalized shape.
// Counts the platform does not report default to zero.
func NormalizeGuest(raw RawGuest) models.NormalizedGuest {
	guest := models.NormalizedGuest{
		Name:           strings.TrimSpace(raw.Name),
		ProfilePicture: hasProfilePicture(raw.ProfilePicture),
		PhoneNumbers:   raw.PhoneNumbers,
		Email:          raw.Email,
		Location:       raw.Location,
	}
	if raw.ID != nil {
		guest.ID = *raw.ID
	}
	if guest.Name == "" {
		guest.Name = strings.TrimSpace(raw.FirstName + " " + raw.LastName)
	}
	if raw.Language != nil {
		guest.Language = *raw.Language
	}

	guest.ReviewCount = firstInt(raw.ReviewCount, raw.ReviewCountAlt)
	guest.TripCount = firstInt(raw.TripCount, raw.TripCountAlt)
	guest.HasNegativeReviews = firstBool(raw.HasNegativeReviews, raw.HasNegativeReviewsAlt)

	guest.Normalize()
	return guest
}

// NormalizeReservation replaces the raw guest with its normalized form and
// carries every other field through
func NormalizeReservation(raw RawReservation) models.NormalizedReservation {
	reservation := raw.NormalizedReservation
	reservation.Guest = NormalizeGuest(raw.Guest)
	if reservation.ReservationStatus.Current.Category == "" {
		reservation.ReservationStatus.Current.Category = "accepted"
	}
	if reservation.ReservationStatus.History == nil {
		reservation.ReservationStatus.History = []models.StatusHistoryItem{}
	}
	return reservation
}

// DecodeReservation decodes a reservation from either a bare object or a
// {"data": {...}} envelope
func DecodeReservation(body []byte) (RawReservation, error) {
	var envelope struct {
		ID   json.RawMessage `json:"id"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return RawReservation{}, fmt.Errorf("invalid reservation payload: %w", err)
	}

	payload := body
	if len(envelope.ID) == 0 && len(envelope.Data) > 0 && !bytes.Equal(envelope.Data, []byte("null")) {
		payload = envelope.Data
	}

	var raw RawReservation
	if err := json.Unmarshal(payload, &raw); err != nil {
		return RawReservation{}, fmt.Errorf("invalid reservation payload: %w", err)
	}
	return raw, nil
}

// ParseWebhook decodes and normalizes a booking webhook body
func ParseWebhook(body []byte) (models.NormalizedReservation, error) {
	raw, err := DecodeReservation(body)
	if err != nil {
		return models.NormalizedReservation{}, err
	}
	if strings.TrimSpace(raw.ID) == "" {
		return models.NormalizedReservation{}, ErrMissingID
	}
	return NormalizeReservation(raw), nil
}

func hasProfilePicture(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var flag bool
	if err := json.Unmarshal(raw, &flag); err == nil {
		return flag
	}
	var url string
	if err := json.Unmarshal(raw, &url); err == nil {
		return strings.TrimSpace(url) != ""
	}
	return false
}

func firstInt(values ...*int) int {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

func firstBool(values ...*bool) bool {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return false
}
