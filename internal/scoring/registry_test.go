package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/guest-risk-scorer/internal/models"
)

func alwaysTrue(models.NormalizedGuest) bool { return true }

func TestRegistry_RegisterAndLookup(t *testing.T) {
	registry := NewRegistry()
	rule := Rule{ID: "a", Name: "A", DefaultScore: 3, Category: CategoryContact, Applies: alwaysTrue}

	require.NoError(t, registry.Register(rule))

	got, ok := registry.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", got.Name)

	_, ok = registry.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(Rule{ID: "a", Applies: alwaysTrue}))

	err := registry.Register(Rule{ID: "a", DefaultScore: 99, Applies: alwaysTrue})
	assert.ErrorIs(t, err, ErrDuplicateRule)

	got, _ := registry.Get("a")
	assert.Equal(t, 0, got.DefaultScore, "original rule must be kept")
	assert.Equal(t, 1, registry.Len())

	assert.Panics(t, func() {
		registry.MustRegister(Rule{ID: "a", Applies: alwaysTrue})
	})
}

func TestRegistry_RejectsInvalidRules(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{"empty id", Rule{Applies: alwaysTrue}},
		{"nil predicate", Rule{ID: "x"}},
		{"negative score", Rule{ID: "x", DefaultScore: -1, Applies: alwaysTrue}},
		{"unknown category", Rule{ID: "x", Category: "payments", Applies: alwaysTrue}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewRegistry()
			assert.ErrorIs(t, registry.Register(tt.rule), ErrInvalidRule)
			assert.Equal(t, 0, registry.Len())
		})
	}
}

func TestRegistry_AllKeepsRegistrationOrder(t *testing.T) {
	registry, err := NewDefaultRegistry()
	require.NoError(t, err)

	assert.Equal(t, []string{
		RuleMissingLocation,
		RuleNoProfilePicture,
		RuleMissingEmail,
		RuleMissingPhone,
		RuleNoReviews,
		RuleNoTrips,
		RuleNegativeReviews,
	}, registry.IDs())
	assert.Len(t, registry.All(), 7)
}

func TestRegistry_ByCategory(t *testing.T) {
	registry, err := NewDefaultRegistry()
	require.NoError(t, err)

	ids := func(rules []Rule) []string {
		out := make([]string, len(rules))
		for i, r := range rules {
			out[i] = r.ID
		}
		return out
	}

	assert.Equal(t, []string{RuleMissingLocation, RuleNoProfilePicture}, ids(registry.ByCategory(CategoryIdentity)))
	assert.Equal(t, []string{RuleMissingEmail, RuleMissingPhone}, ids(registry.ByCategory(CategoryContact)))
	assert.Equal(t, []string{RuleNoReviews, RuleNoTrips, RuleNegativeReviews}, ids(registry.ByCategory(CategoryReputation)))
	assert.Empty(t, registry.ByCategory(CategoryNone))
}

func TestRegistry_ResetAllowsReRegistration(t *testing.T) {
	registry, err := NewDefaultRegistry()
	require.NoError(t, err)

	assert.ErrorIs(t, RegisterAllRules(registry), ErrDuplicateRule)

	registry.Reset()
	assert.Equal(t, 0, registry.Len())
	assert.Empty(t, registry.All())

	require.NoError(t, RegisterAllRules(registry))
	assert.Equal(t, 7, registry.Len())
}
