package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ajharbinger/guest-risk-scorer/internal/models"
	"github.com/ajharbinger/guest-risk-scorer/internal/scoring"
)

// reservationRepository implements ReservationRepository over SQL.
// tx is nil when the repository already runs inside a transaction.
type reservationRepository struct {
	db dbExecutor
	tx TransactionManager
}

const selectStored = `
	SELECT r.reservation_data, r.created_at, r.updated_at,
		   k.score, k.level, k.matched_rules, k.config_used
	FROM reservations r
	JOIN risk_reports k ON k.reservation_id = r.id
`

// Save upserts the reservation row and its risk report atomically
func (r *reservationRepository) Save(id string, reservation models.NormalizedReservation, report scoring.RiskReport) error {
	if id == "" {
		return errRequiredID
	}
	if r.tx == nil {
		return r.save(id, reservation, report)
	}
	return r.tx.WithTransaction(func(repos *Repositories) error {
		return repos.Reservations.Save(id, reservation, report)
	})
}

func (r *reservationRepository) save(id string, reservation models.NormalizedReservation, report scoring.RiskReport) error {
	now := timeNow()

	matched, err := json.Marshal(matchedRules(report))
	if err != nil {
		return fmt.Errorf("failed to encode matched rules: %w", err)
	}
	configUsed, err := json.Marshal(report.ConfigUsed)
	if err != nil {
		return fmt.Errorf("failed to encode config used: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO reservations (id, code, platform, status, booking_date, guest_name,
			guest_data, reservation_data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (id) DO UPDATE SET
			code = EXCLUDED.code,
			platform = EXCLUDED.platform,
			status = EXCLUDED.status,
			booking_date = EXCLUDED.booking_date,
			guest_name = EXCLUDED.guest_name,
			guest_data = EXCLUDED.guest_data,
			reservation_data = EXCLUDED.reservation_data,
			updated_at = EXCLUDED.updated_at
	`, id, reservation.Code, reservation.Platform, reservation.Status, reservation.BookingDate,
		reservation.Guest.Name, reservation.Guest, reservation, now)
	if err != nil {
		return fmt.Errorf("failed to save reservation: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO risk_reports (reservation_id, score, level, matched_rules, config_used, scored_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (reservation_id) DO UPDATE SET
			score = EXCLUDED.score,
			level = EXCLUDED.level,
			matched_rules = EXCLUDED.matched_rules,
			config_used = EXCLUDED.config_used,
			scored_at = EXCLUDED.scored_at
	`, id, report.Score, string(report.Level), string(matched), string(configUsed), now)
	if err != nil {
		return fmt.Errorf("failed to save risk report: %w", err)
	}

	return nil
}

// Get retrieves a stored reservation by id
func (r *reservationRepository) Get(id string) (*StoredReservation, error) {
	stored, err := scanStored(r.db.QueryRow(selectStored+" WHERE r.id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	return stored, nil
}

// GetForUpdate takes the row lock with a no-op write before reading, which
// works on both postgres and sqlite
func (r *reservationRepository) GetForUpdate(id string) (*StoredReservation, error) {
	if _, err := r.db.Exec("UPDATE reservations SET updated_at = updated_at WHERE id = $1", id); err != nil {
		return nil, fmt.Errorf("failed to lock reservation: %w", err)
	}
	return r.Get(id)
}

// List retrieves every stored reservation, newest first
func (r *reservationRepository) List() ([]StoredReservation, error) {
	rows, err := r.db.Query(selectStored + " ORDER BY r.created_at DESC, r.id DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	result := []StoredReservation{}
	for rows.Next() {
		stored, err := scanStored(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		result = append(result, *stored)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reservations: %w", err)
	}
	return result, nil
}

// Count returns the number of stored reservations
func (r *reservationRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM reservations").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count reservations: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStored(row rowScanner) (*StoredReservation, error) {
	var (
		stored     StoredReservation
		level      string
		matched    string
		configUsed string
	)
	err := row.Scan(
		&stored.Reservation, &stored.CreatedAt, &stored.UpdatedAt,
		&stored.RiskReport.Score, &level, &matched, &configUsed,
	)
	if err != nil {
		return nil, err
	}

	stored.RiskReport.Level = scoring.Level(level)
	if err := json.Unmarshal([]byte(matched), &stored.RiskReport.MatchedRules); err != nil {
		return nil, fmt.Errorf("failed to decode matched rules: %w", err)
	}
	if err := json.Unmarshal([]byte(configUsed), &stored.RiskReport.ConfigUsed); err != nil {
		return nil, fmt.Errorf("failed to decode config used: %w", err)
	}
	stored.CreatedAt = stored.CreatedAt.UTC()
	stored.UpdatedAt = stored.UpdatedAt.UTC()
	return &stored, nil
}

func matchedRules(report scoring.RiskReport) []scoring.MatchedRule {
	if report.MatchedRules == nil {
		return []scoring.MatchedRule{}
	}
	return report.MatchedRules
}
