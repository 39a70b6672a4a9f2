package scoring

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/guest-risk-scorer/internal/models"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewDefaultEngine()
	require.NoError(t, err)
	return engine
}

func reservationFor(guest models.NormalizedGuest) models.NormalizedReservation {
	return models.NormalizedReservation{
		ID:       "res-test",
		Platform: "airbnb",
		Guest:    guest,
	}
}

func completeGuest() models.NormalizedGuest {
	return models.NormalizedGuest{
		ID:             "guest-1",
		Name:           "Test Guest",
		Location:       models.StringPtr("Christiansburg, VA"),
		ProfilePicture: true,
		Email:          models.StringPtr("t@example.com"),
		PhoneNumbers:   []string{"18644508822"},
		Language:       "en",
	}
}

func sumMatched(report *RiskReport) int {
	total := 0
	for _, m := range report.MatchedRules {
		total += m.Score
	}
	return total
}

func TestEngine_Scenarios(t *testing.T) {
	tests := []struct {
		name       string
		thresholds *PartialThresholds
		guest      func() models.NormalizedGuest
		wantRules  []string
		wantScore  int
		wantLevel  Level
	}{
		{
			name:      "all fields present, no trips",
			guest:     completeGuest,
			wantRules: []string{RuleNoTrips},
			wantScore: 10,
			wantLevel: LevelLow,
		},
		{
			name: "nothing present",
			guest: func() models.NormalizedGuest {
				return models.NormalizedGuest{ID: "guest-2", PhoneNumbers: []string{}}
			},
			wantRules: []string{RuleMissingLocation, RuleNoProfilePicture, RuleMissingEmail, RuleMissingPhone, RuleNoTrips},
			wantScore: 60,
			wantLevel: LevelHigh,
		},
		{
			name: "trips without reviews and negative reviews",
			guest: func() models.NormalizedGuest {
				return models.NormalizedGuest{
					ID:                 "guest-3",
					Email:              models.StringPtr("x@y.com"),
					PhoneNumbers:       []string{"1"},
					TripCount:          5,
					HasNegativeReviews: true,
				}
			},
			wantRules: []string{RuleMissingLocation, RuleNoProfilePicture, RuleNoReviews, RuleNegativeReviews},
			wantScore: 90,
			wantLevel: LevelHigh,
		},
		{
			name:       "custom thresholds, boundary inclusive",
			thresholds: &PartialThresholds{Medium: intPtr(15), High: intPtr(30)},
			guest: func() models.NormalizedGuest {
				g := completeGuest()
				g.Email = nil
				g.TripCount = 5
				g.ReviewCount = 3
				return g
			},
			wantRules: []string{RuleMissingEmail},
			wantScore: 15,
			wantLevel: LevelMedium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t)
			if tt.thresholds != nil {
				_, err := engine.Configuration().Update(PartialConfig{Thresholds: tt.thresholds})
				require.NoError(t, err)
			}

			report, err := engine.Score(reservationFor(tt.guest()))
			require.NoError(t, err)

			assert.Equal(t, tt.wantRules, report.RuleNames())
			assert.Equal(t, tt.wantScore, report.Score)
			assert.Equal(t, tt.wantLevel, report.Level)
			assert.Equal(t, sumMatched(report), report.Score)
		})
	}
}

func TestEngine_ReportsConfiguredScoreAndThresholds(t *testing.T) {
	engine := newTestEngine(t)
	_, err := engine.Configuration().Update(PartialConfig{
		Thresholds:  &PartialThresholds{High: intPtr(50)},
		RuleWeights: map[string]int{RuleNoTrips: 25},
	})
	require.NoError(t, err)

	report, err := engine.Score(reservationFor(completeGuest()))
	require.NoError(t, err)

	require.Len(t, report.MatchedRules, 1)
	assert.Equal(t, MatchedRule{
		Name:      RuleNoTrips,
		Score:     25,
		Rationale: "Guest has not completed any trips.",
	}, report.MatchedRules[0])
	assert.Equal(t, Thresholds{Medium: 30, High: 50}, report.ConfigUsed.Thresholds)
}

func TestEngine_DisabledRuleNeverMatches(t *testing.T) {
	engine := newTestEngine(t)
	_, err := engine.Configuration().Update(PartialConfig{
		RuleConfigs: map[string]PartialRuleConfig{
			RuleMissingEmail: {Enabled: boolPtr(false)},
		},
	})
	require.NoError(t, err)

	guest := models.NormalizedGuest{ID: "guest-2", PhoneNumbers: []string{}}
	for i := 0; i < 3; i++ {
		report, err := engine.Score(reservationFor(guest))
		require.NoError(t, err)
		assert.NotContains(t, report.RuleNames(), RuleMissingEmail)
		assert.Equal(t, 45, report.Score)
		assert.Equal(t, LevelMedium, report.Level)
	}
}

func TestEngine_DisabledPredicateIsNotInvoked(t *testing.T) {
	registry := NewRegistry()
	calls := 0
	registry.MustRegister(Rule{
		ID:             "counting",
		DefaultScore:   5,
		DefaultEnabled: false,
		Applies: func(models.NormalizedGuest) bool {
			calls++
			return true
		},
	})
	engine := NewEngine(registry, NewConfiguration(registry))

	report, err := engine.Score(reservationFor(completeGuest()))
	require.NoError(t, err)

	assert.Equal(t, 0, calls)
	assert.Empty(t, report.MatchedRules)
	assert.NotNil(t, report.MatchedRules)
	assert.Equal(t, LevelLow, report.Level)
}

func TestEngine_FallsBackToDefaultsForLateRules(t *testing.T) {
	engine := newTestEngine(t)
	// take the snapshot before the rule exists
	engine.Configuration().Current()

	engine.Registry().MustRegister(Rule{
		ID:             "late-rule",
		DefaultScore:   7,
		DefaultEnabled: true,
		Rationale:      "registered after configuration",
		Applies:        func(models.NormalizedGuest) bool { return true },
	})

	report, err := engine.Score(reservationFor(completeGuest()))
	require.NoError(t, err)

	assert.Equal(t, []string{RuleNoTrips, "late-rule"}, report.RuleNames())
	assert.Equal(t, 17, report.Score)
}

func TestEngine_PredicatePanicFailsWholeScore(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, RegisterAllRules(registry))
	registry.MustRegister(Rule{
		ID:             "broken",
		DefaultScore:   1,
		DefaultEnabled: true,
		Applies: func(g models.NormalizedGuest) bool {
			return g.PhoneNumbers[10] == ""
		},
	})
	engine := NewEngine(registry, NewConfiguration(registry))

	report, err := engine.Score(reservationFor(completeGuest()))

	assert.Nil(t, report)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRulePanic)
	assert.Contains(t, err.Error(), "broken")
}

func TestEngine_RejectsInvalidGuest(t *testing.T) {
	engine := newTestEngine(t)
	guest := completeGuest()
	guest.TripCount = -1

	_, err := engine.Score(reservationFor(guest))
	assert.ErrorIs(t, err, ErrInvalidGuest)
}

func TestEngine_Idempotent(t *testing.T) {
	engine := newTestEngine(t)
	reservation := reservationFor(models.NormalizedGuest{ID: "guest-2", TripCount: 2})

	first, err := engine.Score(reservation)
	require.NoError(t, err)
	second, err := engine.Score(reservation)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestEngine_ScoreEqualsSumForAllGuestShapes(t *testing.T) {
	engine := newTestEngine(t)

	for mask := 0; mask < 1<<7; mask++ {
		guest := models.NormalizedGuest{ID: "guest", PhoneNumbers: []string{}}
		if mask&1 != 0 {
			guest.Location = models.StringPtr("Lisbon")
		}
		if mask&2 != 0 {
			guest.ProfilePicture = true
		}
		if mask&4 != 0 {
			guest.Email = models.StringPtr("a@b.c")
		}
		if mask&8 != 0 {
			guest.PhoneNumbers = []string{"123"}
		}
		if mask&16 != 0 {
			guest.TripCount = 3
		}
		if mask&32 != 0 {
			guest.ReviewCount = 2
		}
		if mask&64 != 0 {
			guest.HasNegativeReviews = true
		}

		report, err := engine.Score(reservationFor(guest))
		require.NoError(t, err)
		assert.Equal(t, sumMatched(report), report.Score, "mask %07b", mask)
		assert.Equal(t, Classify(report.Score, report.ConfigUsed.Thresholds), report.Level)
	}
}

func TestEngine_JSONShape(t *testing.T) {
	engine := newTestEngine(t)
	report, err := engine.Score(reservationFor(completeGuest()))
	require.NoError(t, err)

	data, err := json.Marshal(report)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"score": 10,
		"level": "low",
		"matched_rules": [
			{"name": "no-trips", "score": 10, "rationale": "Guest has not completed any trips."}
		],
		"config_used": {"thresholds": {"medium": 30, "high": 60}}
	}`, string(data))
}

func TestEngine_ConcurrentScoreAndUpdate(t *testing.T) {
	engine := newTestEngine(t)
	guest := models.NormalizedGuest{ID: "guest-2", PhoneNumbers: []string{}}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			high := 60 + i%2
			_, err := engine.Configuration().Update(PartialConfig{
				Thresholds:  &PartialThresholds{High: &high},
				RuleWeights: map[string]int{RuleNoTrips: 10 + i%2},
			})
			assert.NoError(t, err)
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			report, err := engine.Score(reservationFor(guest))
			if assert.NoError(t, err) {
				assert.Equal(t, sumMatched(report), report.Score)
				assert.Equal(t, Classify(report.Score, report.ConfigUsed.Thresholds), report.Level)
			}
		}
	}()

	wg.Wait()
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }
