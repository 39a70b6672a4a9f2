package scoring

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfiguration(t *testing.T) *Configuration {
	t.Helper()
	registry, err := NewDefaultRegistry()
	require.NoError(t, err)
	return NewConfiguration(registry)
}

func TestConfiguration_Defaults(t *testing.T) {
	config := newTestConfiguration(t).Defaults()

	assert.Equal(t, Thresholds{Medium: 30, High: 60}, config.Thresholds)
	assert.Equal(t, map[string]RuleConfig{
		RuleMissingLocation:  {Score: 10, Enabled: true},
		RuleNoProfilePicture: {Score: 10, Enabled: true},
		RuleMissingEmail:     {Score: 15, Enabled: true},
		RuleMissingPhone:     {Score: 15, Enabled: true},
		RuleNoReviews:        {Score: 30, Enabled: true},
		RuleNoTrips:          {Score: 10, Enabled: true},
		RuleNegativeReviews:  {Score: 40, Enabled: true},
	}, config.RuleConfigs)
}

func TestConfiguration_CurrentInitializesOnceAndCopies(t *testing.T) {
	configuration := newTestConfiguration(t)

	first := configuration.Current()
	first.RuleConfigs[RuleNoTrips] = RuleConfig{Score: 999}
	first.Thresholds.High = 1

	second := configuration.Current()
	assert.Equal(t, RuleConfig{Score: 10, Enabled: true}, second.RuleConfigs[RuleNoTrips])
	assert.Equal(t, 60, second.Thresholds.High)
}

func TestConfiguration_ThresholdUpdateLeavesRulesUntouched(t *testing.T) {
	configuration := newTestConfiguration(t)
	before := configuration.Current()

	updated, err := configuration.Update(PartialConfig{
		Thresholds: &PartialThresholds{Medium: intPtr(20)},
	})
	require.NoError(t, err)

	assert.Equal(t, Thresholds{Medium: 20, High: 60}, updated.Thresholds)
	assert.Equal(t, before.RuleConfigs, updated.RuleConfigs)
}

func TestConfiguration_RuleUpdateLeavesThresholdsUntouched(t *testing.T) {
	configuration := newTestConfiguration(t)
	before := configuration.Current()

	updated, err := configuration.Update(PartialConfig{
		RuleConfigs: map[string]PartialRuleConfig{
			RuleNoTrips: {Enabled: boolPtr(false)},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, before.Thresholds, updated.Thresholds)
	assert.Equal(t, RuleConfig{Score: 10, Enabled: false}, updated.RuleConfigs[RuleNoTrips])
	for id, rc := range before.RuleConfigs {
		if id == RuleNoTrips {
			continue
		}
		assert.Equal(t, rc, updated.RuleConfigs[id], id)
	}
}

func TestConfiguration_SuccessiveUpdatesMerge(t *testing.T) {
	configuration := newTestConfiguration(t)

	_, err := configuration.Update(PartialConfig{RuleWeights: map[string]int{RuleMissingEmail: 20}})
	require.NoError(t, err)
	_, err = configuration.Update(PartialConfig{RuleConfigs: map[string]PartialRuleConfig{
		RuleMissingEmail: {Enabled: boolPtr(false)},
	}})
	require.NoError(t, err)

	current := configuration.Current()
	assert.Equal(t, RuleConfig{Score: 20, Enabled: false}, current.RuleConfigs[RuleMissingEmail])
}

func TestConfiguration_WeightsApplyAfterRuleConfigs(t *testing.T) {
	configuration := newTestConfiguration(t)

	updated, err := configuration.Update(PartialConfig{
		RuleConfigs: map[string]PartialRuleConfig{RuleNoTrips: {Score: intPtr(1)}},
		RuleWeights: map[string]int{RuleNoTrips: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.RuleConfigs[RuleNoTrips].Score)
}

func TestConfiguration_UnknownRuleIsStored(t *testing.T) {
	configuration := newTestConfiguration(t)

	updated, err := configuration.Update(PartialConfig{
		RuleConfigs: map[string]PartialRuleConfig{"future-rule": {Score: intPtr(12)}},
	})
	require.NoError(t, err)

	assert.Equal(t, RuleConfig{Score: 12, Enabled: true}, updated.RuleConfigs["future-rule"])
	assert.Len(t, updated.RuleConfigs, 8)
}

func TestConfiguration_RejectsInvalidUpdates(t *testing.T) {
	tests := []struct {
		name    string
		partial PartialConfig
		wantErr error
	}{
		{
			name:    "medium above high",
			partial: PartialConfig{Thresholds: &PartialThresholds{Medium: intPtr(70)}},
			wantErr: ErrInvalidThresholds,
		},
		{
			name:    "high below medium",
			partial: PartialConfig{Thresholds: &PartialThresholds{High: intPtr(10)}},
			wantErr: ErrInvalidThresholds,
		},
		{
			name:    "negative medium",
			partial: PartialConfig{Thresholds: &PartialThresholds{Medium: intPtr(-1)}},
			wantErr: ErrInvalidThresholds,
		},
		{
			name:    "negative rule score",
			partial: PartialConfig{RuleConfigs: map[string]PartialRuleConfig{RuleNoTrips: {Score: intPtr(-5)}}},
			wantErr: ErrInvalidRuleConfig,
		},
		{
			name:    "negative weight",
			partial: PartialConfig{RuleWeights: map[string]int{RuleNoTrips: -5}},
			wantErr: ErrInvalidRuleConfig,
		},
		{
			name:    "empty rule id",
			partial: PartialConfig{RuleWeights: map[string]int{"": 5}},
			wantErr: ErrInvalidRuleConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configuration := newTestConfiguration(t)
			before := configuration.Current()

			_, err := configuration.Update(tt.partial)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, before, configuration.Current(), "rejected update must not change the configuration")
		})
	}
}

func TestConfiguration_EqualThresholdsAllowed(t *testing.T) {
	configuration := newTestConfiguration(t)

	updated, err := configuration.Update(PartialConfig{
		Thresholds: &PartialThresholds{Medium: intPtr(40), High: intPtr(40)},
	})
	require.NoError(t, err)
	assert.Equal(t, Thresholds{Medium: 40, High: 40}, updated.Thresholds)
}

func TestConfiguration_UpdateSeedsRegisteredRules(t *testing.T) {
	registry, err := NewDefaultRegistry()
	require.NoError(t, err)
	configuration := NewConfiguration(registry)
	configuration.Current()

	registry.MustRegister(Rule{ID: "late", DefaultScore: 4, DefaultEnabled: true, Applies: alwaysTrue})

	updated, err := configuration.Update(PartialConfig{Thresholds: &PartialThresholds{Medium: intPtr(25)}})
	require.NoError(t, err)
	assert.Equal(t, RuleConfig{Score: 4, Enabled: true}, updated.RuleConfigs["late"])
}

func TestConfiguration_Reset(t *testing.T) {
	configuration := newTestConfiguration(t)

	_, err := configuration.Update(PartialConfig{Thresholds: &PartialThresholds{High: intPtr(90)}})
	require.NoError(t, err)
	assert.Equal(t, 90, configuration.Current().Thresholds.High)

	configuration.Reset()
	assert.Equal(t, configuration.Defaults(), configuration.Current())
}

func TestConfiguration_RestoreDefaults(t *testing.T) {
	configuration := newTestConfiguration(t)

	_, err := configuration.Update(PartialConfig{
		Thresholds:  &PartialThresholds{High: intPtr(90)},
		RuleWeights: map[string]int{RuleNoTrips: 99},
	})
	require.NoError(t, err)

	restored := configuration.RestoreDefaults()
	assert.Equal(t, configuration.Defaults(), restored)
	assert.Equal(t, configuration.Defaults(), configuration.Current())
}

func TestConfiguration_UpdateAfterResetStartsFromDefaults(t *testing.T) {
	configuration := newTestConfiguration(t)

	_, err := configuration.Update(PartialConfig{RuleWeights: map[string]int{RuleNoTrips: 99}})
	require.NoError(t, err)

	// Hold the writer lock so the update queues behind the reset below
	configuration.mu.Lock()
	done := make(chan *Config)
	go func() {
		updated, err := configuration.Update(PartialConfig{Thresholds: &PartialThresholds{Medium: intPtr(30)}})
		assert.NoError(t, err)
		done <- updated
	}()
	time.Sleep(20 * time.Millisecond)
	configuration.current.Store(nil)
	configuration.mu.Unlock()

	updated := <-done
	assert.Equal(t, 10, updated.RuleConfigs[RuleNoTrips].Score)
	assert.Equal(t, 10, configuration.Current().RuleConfigs[RuleNoTrips].Score)
}

func TestConfiguration_ConcurrentRestoreAndUpdate(t *testing.T) {
	configuration := newTestConfiguration(t)
	defaults := configuration.Defaults()

	// every published snapshot is either all defaults or the whole update
	consistent := func(config *Config) bool {
		switch config.Thresholds.Medium {
		case defaults.Thresholds.Medium:
			return config.Thresholds.High == defaults.Thresholds.High &&
				config.RuleConfigs[RuleNoTrips] == defaults.RuleConfigs[RuleNoTrips]
		case 45:
			return config.Thresholds.High == 90 && config.RuleConfigs[RuleNoTrips].Score == 99
		}
		return false
	}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_, err := configuration.Update(PartialConfig{
				Thresholds:  &PartialThresholds{Medium: intPtr(45), High: intPtr(90)},
				RuleWeights: map[string]int{RuleNoTrips: 99},
			})
			assert.NoError(t, err)
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			assert.True(t, consistent(configuration.RestoreDefaults()))
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 400; i++ {
			assert.True(t, consistent(configuration.Current()))
		}
	}()

	wg.Wait()
	assert.True(t, consistent(configuration.Current()))
}

func TestPartialConfig_IsEmpty(t *testing.T) {
	assert.True(t, PartialConfig{}.IsEmpty())
	assert.False(t, PartialConfig{RuleWeights: map[string]int{"a": 1}}.IsEmpty())
	assert.False(t, PartialConfig{Thresholds: &PartialThresholds{}}.IsEmpty())
}
