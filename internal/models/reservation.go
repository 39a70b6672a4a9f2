package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// NormalizedGuest is the platform-independent guest shape the risk engine reads
type NormalizedGuest struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	ReviewCount        int      `json:"review_count"`
	TripCount          int      `json:"trip_count"`
	HasNegativeReviews bool     `json:"has_negative_reviews"`
	ProfilePicture     bool     `json:"profile_picture"`
	PhoneNumbers       []string `json:"phone_numbers"`
	Email              *string  `json:"email"`
	Location           *string  `json:"location"`
	Language           string   `json:"language"`
}

// GuestCounts is the party breakdown of a booking
type GuestCounts struct {
	Total       int `json:"total"`
	AdultCount  int `json:"adult_count"`
	ChildCount  int `json:"child_count"`
	InfantCount int `json:"infant_count"`
	PetCount    int `json:"pet_count"`
}

// StatusHistoryItem records one status transition of a booking
type StatusHistoryItem struct {
	Category    string  `json:"category"`
	SubCategory *string `json:"sub_category,omitempty"`
	Status      string  `json:"status,omitempty"`
	ChangedAt   string  `json:"changed_at,omitempty"`
}

// CurrentStatus is the current status of a booking on the platform
type CurrentStatus struct {
	Category    string  `json:"category"`
	SubCategory *string `json:"sub_category"`
}

// ReservationStatus groups the current status with its history
type ReservationStatus struct {
	Current CurrentStatus       `json:"current"`
	History []StatusHistoryItem `json:"history"`
}

// NormalizedReservation is a booking with exactly one normalized guest.
// Everything except Guest is carried through untouched.
type NormalizedReservation struct {
	ID                string              `json:"id"`
	Code              string              `json:"code"`
	Platform          string              `json:"platform"`
	PlatformID        string              `json:"platform_id"`
	BookingDate       string              `json:"booking_date"`
	ArrivalDate       string              `json:"arrival_date"`
	DepartureDate     string              `json:"departure_date"`
	CheckIn           string              `json:"check_in"`
	CheckOut          string              `json:"check_out"`
	Nights            int                 `json:"nights"`
	Status            string              `json:"status"`
	StatusHistory     []StatusHistoryItem `json:"status_history"`
	ConversationID    string              `json:"conversation_id"`
	LastMessageAt     string              `json:"last_message_at"`
	Guests            GuestCounts         `json:"guests"`
	ReservationStatus ReservationStatus   `json:"reservation_status"`
	Guest             NormalizedGuest     `json:"guest"`
}

// StringPtr returns a pointer to s, or nil when s is blank
func StringPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// Normalize enforces the null conventions of the guest shape: blank contact
// fields become nil and a missing phone list becomes empty.
func (g *NormalizedGuest) Normalize() {
	if g.Email != nil && strings.TrimSpace(*g.Email) == "" {
		g.Email = nil
	}
	if g.Location != nil && strings.TrimSpace(*g.Location) == "" {
		g.Location = nil
	}
	if g.PhoneNumbers == nil {
		g.PhoneNumbers = []string{}
	}
	g.Name = strings.TrimSpace(g.Name)
}

// Validate checks the guest invariants
func (g NormalizedGuest) Validate() error {
	if g.ReviewCount < 0 {
		return fmt.Errorf("review_count must not be negative, got %d", g.ReviewCount)
	}
	if g.TripCount < 0 {
		return fmt.Errorf("trip_count must not be negative, got %d", g.TripCount)
	}
	return nil
}

// HasEmail reports whether a non-blank email is present
func (g NormalizedGuest) HasEmail() bool {
	return g.Email != nil && strings.TrimSpace(*g.Email) != ""
}

// HasLocation reports whether a non-blank location is present
func (g NormalizedGuest) HasLocation() bool {
	return g.Location != nil && strings.TrimSpace(*g.Location) != ""
}

// Value implements driver.Valuer for NormalizedGuest
func (g NormalizedGuest) Value() (driver.Value, error) {
	return json.Marshal(g)
}

// Scan implements sql.Scanner for NormalizedGuest
func (g *NormalizedGuest) Scan(value interface{}) error {
	if value == nil {
		*g = NormalizedGuest{PhoneNumbers: []string{}}
		return nil
	}

	bytes, err := scanBytes(value)
	if err != nil {
		return fmt.Errorf("cannot scan %T into NormalizedGuest", value)
	}

	return json.Unmarshal(bytes, g)
}

// Value implements driver.Valuer for NormalizedReservation
func (r NormalizedReservation) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements sql.Scanner for NormalizedReservation
func (r *NormalizedReservation) Scan(value interface{}) error {
	if value == nil {
		*r = NormalizedReservation{}
		return nil
	}

	bytes, err := scanBytes(value)
	if err != nil {
		return fmt.Errorf("cannot scan %T into NormalizedReservation", value)
	}

	return json.Unmarshal(bytes, r)
}

// scanBytes accepts both the []byte Postgres returns for JSONB and the
// string SQLite may return for TEXT columns.
func scanBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", value)
	}
}
