package scoring

import (
	"github.com/ajharbinger/guest-risk-scorer/internal/models"
)

// Category groups rules for display and filtering
type Category string

const (
	CategoryNone       Category = ""
	CategoryIdentity   Category = "identity"
	CategoryContact    Category = "contact"
	CategoryReputation Category = "reputation"
)

// Valid reports whether c is one of the known categories (or unset)
func (c Category) Valid() bool {
	switch c {
	case CategoryNone, CategoryIdentity, CategoryContact, CategoryReputation:
		return true
	}
	return false
}

// Predicate decides whether a rule matches a guest. It must not mutate the
// guest or perform I/O.
type Predicate func(guest models.NormalizedGuest) bool

// Rule is a named, weighted check over a guest record.
//
// DefaultScore and DefaultEnabled only seed the Configuration; the engine
// always scores with the configured values.
type Rule struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	DefaultScore   int       `json:"default_score"`
	DefaultEnabled bool      `json:"default_enabled"`
	Rationale      string    `json:"rationale"`
	Category       Category  `json:"category,omitempty"`
	Applies        Predicate `json:"-"`
}

// defaultRuleConfig is the configuration a rule starts with
func (r Rule) defaultRuleConfig() RuleConfig {
	return RuleConfig{Score: r.DefaultScore, Enabled: r.DefaultEnabled}
}
