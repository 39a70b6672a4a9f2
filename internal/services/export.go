package services

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ajharbinger/guest-risk-scorer/internal/errors"
	"github.com/ajharbinger/guest-risk-scorer/internal/repository"
	"github.com/ajharbinger/guest-risk-scorer/internal/scoring"
)

// ExportFormat specifies the format for exporting reservations
type ExportFormat string

const (
	FormatJSON ExportFormat = "json"
	FormatCSV  ExportFormat = "csv"
)

// ExportFilter narrows an export. Zero values select everything.
type ExportFilter struct {
	MinLevel scoring.Level `json:"min_level"`
	Limit    int           `json:"limit"`
}

var exportHeaders = []string{
	"reservation_id", "code", "platform", "arrival_date", "departure_date",
	"guest_name", "guest_email", "guest_location", "review_count", "trip_count",
	"score", "level", "matched_rules", "created_at", "updated_at",
}

// Export renders stored reservations, newest first, as JSON or CSV
func (s *reservationServiceImpl) Export(filter ExportFilter, format ExportFormat) ([]byte, error) {
	if filter.MinLevel != "" && !filter.MinLevel.Valid() {
		return nil, errors.InvalidInput(fmt.Sprintf("unknown risk level %q", filter.MinLevel), nil)
	}

	list, err := s.List()
	if err != nil {
		return nil, err
	}
	selected := filterStored(list, filter)

	switch format {
	case FormatJSON, "":
		return exportJSON(selected)
	case FormatCSV:
		return exportCSV(selected)
	default:
		return nil, errors.InvalidInput(fmt.Sprintf("unsupported export format: %s", format), nil)
	}
}

func filterStored(list []repository.StoredReservation, filter ExportFilter) []repository.StoredReservation {
	selected := make([]repository.StoredReservation, 0, len(list))
	for _, stored := range list {
		if filter.MinLevel != "" && stored.RiskReport.Level.Rank() < filter.MinLevel.Rank() {
			continue
		}
		selected = append(selected, stored)
		if filter.Limit > 0 && len(selected) == filter.Limit {
			break
		}
	}
	return selected
}

func exportJSON(list []repository.StoredReservation) ([]byte, error) {
	return json.MarshalIndent(map[string]interface{}{
		"reservations": list,
		"count":        len(list),
		"exported_at":  time.Now().UTC(),
	}, "", "  ")
}

func exportCSV(list []repository.StoredReservation) ([]byte, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)

	if err := writer.Write(exportHeaders); err != nil {
		return nil, err
	}

	for _, stored := range list {
		r := stored.Reservation
		row := []string{
			r.ID,
			r.Code,
			r.Platform,
			r.ArrivalDate,
			r.DepartureDate,
			r.Guest.Name,
			formatNullString(r.Guest.Email),
			formatNullString(r.Guest.Location),
			strconv.Itoa(r.Guest.ReviewCount),
			strconv.Itoa(r.Guest.TripCount),
			strconv.Itoa(stored.RiskReport.Score),
			string(stored.RiskReport.Level),
			strings.Join(stored.RiskReport.RuleNames(), "; "),
			stored.CreatedAt.Format(time.RFC3339),
			stored.UpdatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return []byte(output.String()), nil
}

func formatNullString(val *string) string {
	if val == nil {
		return ""
	}
	return *val
}
