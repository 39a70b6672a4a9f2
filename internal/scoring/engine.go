package scoring

import (
	"errors"
	"fmt"

	"github.com/ajharbinger/guest-risk-scorer/internal/models"
)

var (
	// ErrRulePanic is returned when a rule predicate panics. The whole
	// scoring pass fails; predicates are expected to be total.
	ErrRulePanic = errors.New("rule predicate panicked")
	// ErrInvalidGuest is returned for guest records that break the data invariants
	ErrInvalidGuest = errors.New("invalid guest")
)

// MatchedRule is a rule that was enabled and matched, with its configured score
type MatchedRule struct {
	Name      string `json:"name"`
	Score     int    `json:"score"`
	Rationale string `json:"rationale"`
}

// ConfigUsed records the policy a report was produced under
type ConfigUsed struct {
	Thresholds Thresholds `json:"thresholds"`
}

// RiskReport is the outcome of scoring one reservation.
// Score always equals the sum of MatchedRules scores.
type RiskReport struct {
	Score        int           `json:"score"`
	Level        Level         `json:"level"`
	MatchedRules []MatchedRule `json:"matched_rules"`
	ConfigUsed   ConfigUsed    `json:"config_used"`
}

// RuleNames returns the names of the matched rules in report order
func (r *RiskReport) RuleNames() []string {
	names := make([]string, len(r.MatchedRules))
	for i, m := range r.MatchedRules {
		names[i] = m.Name
	}
	return names
}

// Engine scores reservations against a registry of rules under a configuration
type Engine struct {
	registry *Registry
	config   *Configuration
}

// NewEngine creates an engine over an explicitly owned registry and configuration
func NewEngine(registry *Registry, config *Configuration) *Engine {
	return &Engine{
		registry: registry,
		config:   config,
	}
}

// NewDefaultEngine creates an engine with the built-in rule set and default policy
func NewDefaultEngine() (*Engine, error) {
	registry, err := NewDefaultRegistry()
	if err != nil {
		return nil, err
	}
	return NewEngine(registry, NewConfiguration(registry)), nil
}

// Registry returns the engine's rule registry
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Configuration returns the engine's live configuration
func (e *Engine) Configuration() *Configuration {
	return e.config
}

// Score evaluates every enabled rule against the reservation's guest
func (e *Engine) Score(reservation models.NormalizedReservation) (*RiskReport, error) {
	return e.ScoreGuest(reservation.Guest)
}

// ScoreGuest evaluates every enabled rule against guest.
// Disabled rules are skipped without invoking their predicate.
func (e *Engine) ScoreGuest(guest models.NormalizedGuest) (*RiskReport, error) {
	if err := guest.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGuest, err)
	}

	config := e.config.snapshot()

	matches := make([]MatchedRule, 0)
	total := 0
	for _, rule := range e.registry.All() {
		rc, exists := config.RuleConfigs[rule.ID]
		if !exists {
			// registered after the snapshot was taken
			rc = rule.defaultRuleConfig()
		}
		if !rc.Enabled {
			continue
		}

		matched, err := evaluate(rule, guest)
		if err != nil {
			return nil, err
		}
		if !matched {
			continue
		}

		matches = append(matches, MatchedRule{
			Name:      rule.ID,
			Score:     rc.Score,
			Rationale: rule.Rationale,
		})
		total += rc.Score
	}

	return &RiskReport{
		Score:        total,
		Level:        Classify(total, config.Thresholds),
		MatchedRules: matches,
		ConfigUsed:   ConfigUsed{Thresholds: config.Thresholds},
	}, nil
}

func evaluate(rule Rule, guest models.NormalizedGuest) (matched bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrRulePanic, rule.ID, r)
		}
	}()
	return rule.Applies(guest), nil
}
