package scoring

import (
	"github.com/ajharbinger/guest-risk-scorer/internal/models"
)

// Built-in rule identifiers. They double as configuration keys and as the
// matched rule names in reports, so they must stay stable.
const (
	RuleMissingLocation  = "missing-location"
	RuleNoProfilePicture = "no-profile-picture"
	RuleMissingEmail     = "missing-email"
	RuleMissingPhone     = "missing-phone"
	RuleNoReviews        = "no-reviews"
	RuleNoTrips          = "no-trips"
	RuleNegativeReviews  = "negative-reviews"
)

// BuiltinRules returns the built-in rule set in registration order
func BuiltinRules() []Rule {
	return []Rule{
		{
			ID:             RuleMissingLocation,
			Name:           "Missing Location",
			DefaultScore:   10,
			DefaultEnabled: true,
			Rationale:      "Guest does not have a location defined.",
			Category:       CategoryIdentity,
			Applies: func(g models.NormalizedGuest) bool {
				return !g.HasLocation()
			},
		},
		{
			ID:             RuleNoProfilePicture,
			Name:           "No Profile Picture",
			DefaultScore:   10,
			DefaultEnabled: true,
			Rationale:      "Guest has not uploaded a profile picture.",
			Category:       CategoryIdentity,
			Applies: func(g models.NormalizedGuest) bool {
				return !g.ProfilePicture
			},
		},
		{
			ID:             RuleMissingEmail,
			Name:           "Missing Email",
			DefaultScore:   15,
			DefaultEnabled: true,
			Rationale:      "Guest has not provided an email address.",
			Category:       CategoryContact,
			Applies: func(g models.NormalizedGuest) bool {
				return !g.HasEmail()
			},
		},
		{
			ID:             RuleMissingPhone,
			Name:           "Missing Phone",
			DefaultScore:   15,
			DefaultEnabled: true,
			Rationale:      "Guest has not provided a phone number.",
			Category:       CategoryContact,
			Applies: func(g models.NormalizedGuest) bool {
				return len(g.PhoneNumbers) == 0
			},
		},
		{
			// TripCount/ReviewCount default to zero when the platform does not
			// report them, so "unknown" and "confirmed zero" look the same here.
			ID:             RuleNoReviews,
			Name:           "No Reviews",
			DefaultScore:   30,
			DefaultEnabled: true,
			Rationale:      "Guest has trips but has not received any reviews.",
			Category:       CategoryReputation,
			Applies: func(g models.NormalizedGuest) bool {
				return g.TripCount > 0 && g.ReviewCount == 0
			},
		},
		{
			ID:             RuleNoTrips,
			Name:           "No Trips",
			DefaultScore:   10,
			DefaultEnabled: true,
			Rationale:      "Guest has not completed any trips.",
			Category:       CategoryReputation,
			Applies: func(g models.NormalizedGuest) bool {
				return g.TripCount == 0
			},
		},
		{
			ID:             RuleNegativeReviews,
			Name:           "Negative Reviews",
			DefaultScore:   40,
			DefaultEnabled: true,
			Rationale:      "Guest has received negative reviews.",
			Category:       CategoryReputation,
			Applies: func(g models.NormalizedGuest) bool {
				return g.HasNegativeReviews
			},
		},
	}
}

// RegisterAllRules registers the built-in rules. Calling it twice on the
// same registry fails with ErrDuplicateRule.
func RegisterAllRules(registry *Registry) error {
	for _, rule := range BuiltinRules() {
		if err := registry.Register(rule); err != nil {
			return err
		}
	}
	return nil
}

// NewDefaultRegistry returns a registry holding the built-in rules
func NewDefaultRegistry() (*Registry, error) {
	registry := NewRegistry()
	if err := RegisterAllRules(registry); err != nil {
		return nil, err
	}
	return registry, nil
}
