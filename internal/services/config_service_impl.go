package services

import (
	"github.com/ajharbinger/guest-risk-scorer/internal/errors"
	"github.com/ajharbinger/guest-risk-scorer/internal/logger"
	"github.com/ajharbinger/guest-risk-scorer/internal/metrics"
	"github.com/ajharbinger/guest-risk-scorer/internal/scoring"
)

// RuleView is a registered rule with its effective configuration
type RuleView struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Category       scoring.Category `json:"category,omitempty"`
	Rationale      string           `json:"rationale"`
	DefaultScore   int              `json:"default_score"`
	DefaultEnabled bool             `json:"default_enabled"`
	Score          int              `json:"score"`
	Enabled        bool             `json:"enabled"`
}

// scoringConfigServiceImpl implements ScoringConfigService
type scoringConfigServiceImpl struct {
	engine  *scoring.Engine
	metrics *metrics.Metrics
	logger  logger.Logger
}

// newScoringConfigService creates a new scoring configuration service
func newScoringConfigService(deps Dependencies) ScoringConfigService {
	return &scoringConfigServiceImpl{
		engine:  deps.Engine,
		metrics: deps.Metrics,
		logger:  deps.Logger,
	}
}

// Current returns a copy of the effective configuration
func (s *scoringConfigServiceImpl) Current() *scoring.Config {
	return s.engine.Configuration().Current()
}

// Update merges a partial configuration. Invalid updates leave the configuration unchanged.
func (s *scoringConfigServiceImpl) Update(partial scoring.PartialConfig) (*scoring.Config, error) {
	updated, err := s.engine.Configuration().Update(partial)
	s.metrics.ObserveConfigUpdate("api", err)
	if err != nil {
		s.logger.Warn("Rejected scoring configuration update", "error", err.Error())
		return nil, errors.ValidationError("Invalid scoring configuration", err).WithDetails(err.Error())
	}

	s.logger.Info("Scoring configuration updated",
		"medium_threshold", updated.Thresholds.Medium,
		"high_threshold", updated.Thresholds.High,
	)
	return updated, nil
}

// Rules lists every registered rule in registration order with its effective configuration
func (s *scoringConfigServiceImpl) Rules() []RuleView {
	current := s.Current()
	rules := s.engine.Registry().All()

	views := make([]RuleView, 0, len(rules))
	for _, rule := range rules {
		rc, ok := current.RuleConfigs[rule.ID]
		if !ok {
			rc = scoring.RuleConfig{Score: rule.DefaultScore, Enabled: rule.DefaultEnabled}
		}
		views = append(views, RuleView{
			ID:             rule.ID,
			Name:           rule.Name,
			Category:       rule.Category,
			Rationale:      rule.Rationale,
			DefaultScore:   rule.DefaultScore,
			DefaultEnabled: rule.DefaultEnabled,
			Score:          rc.Score,
			Enabled:        rc.Enabled,
		})
	}
	return views
}

// RestoreDefaults swaps the defaults in as the live configuration
func (s *scoringConfigServiceImpl) RestoreDefaults() *scoring.Config {
	restored := s.engine.Configuration().RestoreDefaults()
	s.metrics.ObserveConfigUpdate("reset", nil)
	s.logger.Info("Scoring configuration reset to defaults")
	return restored
}
