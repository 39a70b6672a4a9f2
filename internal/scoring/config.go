package scoring

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

const (
	DefaultMediumThreshold = 30
	DefaultHighThreshold   = 60
)

var (
	// ErrInvalidThresholds is returned when an update would invert or negate the level bands
	ErrInvalidThresholds = errors.New("invalid thresholds")
	// ErrInvalidRuleConfig is returned when an update carries a negative rule score
	ErrInvalidRuleConfig = errors.New("invalid rule config")
)

// Thresholds are the lower bounds of the medium and high bands
type Thresholds struct {
	Medium int `json:"medium" yaml:"medium"`
	High   int `json:"high" yaml:"high"`
}

// DefaultThresholds returns the thresholds a fresh configuration starts with
func DefaultThresholds() Thresholds {
	return Thresholds{Medium: DefaultMediumThreshold, High: DefaultHighThreshold}
}

// Validate checks 0 <= medium <= high
func (t Thresholds) Validate() error {
	if t.Medium < 0 || t.High < 0 {
		return fmt.Errorf("%w: thresholds must not be negative (medium=%d, high=%d)", ErrInvalidThresholds, t.Medium, t.High)
	}
	if t.Medium > t.High {
		return fmt.Errorf("%w: medium (%d) must not exceed high (%d)", ErrInvalidThresholds, t.Medium, t.High)
	}
	return nil
}

// RuleConfig is the effective policy for one rule
type RuleConfig struct {
	Score   int  `json:"score" yaml:"score"`
	Enabled bool `json:"enabled" yaml:"enabled"`
}

// Config is an immutable snapshot of scoring policy. Published snapshots are
// never modified; use Clone before changing one.
type Config struct {
	Thresholds  Thresholds            `json:"thresholds" yaml:"thresholds"`
	RuleConfigs map[string]RuleConfig `json:"rule_configs" yaml:"rule_configs"`
}

// Clone returns a deep copy
func (c *Config) Clone() *Config {
	clone := &Config{
		Thresholds:  c.Thresholds,
		RuleConfigs: make(map[string]RuleConfig, len(c.RuleConfigs)),
	}
	for id, rc := range c.RuleConfigs {
		clone.RuleConfigs[id] = rc
	}
	return clone
}

// PartialThresholds overlays individual thresholds
type PartialThresholds struct {
	Medium *int `json:"medium,omitempty" yaml:"medium,omitempty"`
	High   *int `json:"high,omitempty" yaml:"high,omitempty"`
}

// PartialRuleConfig overlays individual fields of a rule's config
type PartialRuleConfig struct {
	Score   *int  `json:"score,omitempty" yaml:"score,omitempty"`
	Enabled *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
}

// PartialConfig is a merge update. Absent keys keep their current value.
// RuleWeights is shorthand for setting only the score of a rule and is
// applied after RuleConfigs.
type PartialConfig struct {
	Thresholds  *PartialThresholds           `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
	RuleConfigs map[string]PartialRuleConfig `json:"rule_configs,omitempty" yaml:"rule_configs,omitempty"`
	RuleWeights map[string]int               `json:"rule_weights,omitempty" yaml:"rule_weights,omitempty"`
}

// IsEmpty reports whether the update carries no changes
func (p PartialConfig) IsEmpty() bool {
	return p.Thresholds == nil && len(p.RuleConfigs) == 0 && len(p.RuleWeights) == 0
}

// Configuration holds the live scoring policy for one engine.
//
// Readers load an immutable snapshot through an atomic pointer; writers
// serialize on mu, build a new snapshot and swap it in, so a reader sees
// either the whole old policy or the whole new one.
type Configuration struct {
	registry *Registry
	mu       sync.Mutex
	current  atomic.Pointer[Config]
}

// NewConfiguration creates a configuration whose defaults derive from registry
func NewConfiguration(registry *Registry) *Configuration {
	return &Configuration{registry: registry}
}

// Defaults builds a fresh configuration from the registry's current rules
func (c *Configuration) Defaults() *Config {
	rules := c.registry.All()
	config := &Config{
		Thresholds:  DefaultThresholds(),
		RuleConfigs: make(map[string]RuleConfig, len(rules)),
	}
	for _, rule := range rules {
		config.RuleConfigs[rule.ID] = rule.defaultRuleConfig()
	}
	return config
}

// Current returns a copy of the live configuration, initializing it from
// Defaults on first access
func (c *Configuration) Current() *Config {
	return c.snapshot().Clone()
}

// snapshot returns the live configuration without copying. Callers must not
// modify it.
func (c *Configuration) snapshot() *Config {
	if config := c.current.Load(); config != nil {
		return config
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if config := c.current.Load(); config != nil {
		return config
	}
	config := c.Defaults()
	c.current.Store(config)
	return config
}

// Update merges partial into the live configuration and returns the result.
// Invalid updates are rejected as a whole and leave the configuration unchanged.
func (c *Configuration) Update(partial PartialConfig) (*Config, error) {
	if err := validatePartial(partial); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	base := c.current.Load()
	if base == nil {
		base = c.Defaults()
	}
	next := base.Clone()

	for _, rule := range c.registry.All() {
		if _, exists := next.RuleConfigs[rule.ID]; !exists {
			next.RuleConfigs[rule.ID] = rule.defaultRuleConfig()
		}
	}

	if partial.Thresholds != nil {
		if partial.Thresholds.Medium != nil {
			next.Thresholds.Medium = *partial.Thresholds.Medium
		}
		if partial.Thresholds.High != nil {
			next.Thresholds.High = *partial.Thresholds.High
		}
	}
	if err := next.Thresholds.Validate(); err != nil {
		return nil, err
	}

	for id, overlay := range partial.RuleConfigs {
		rc := c.baseRuleConfig(next, id)
		if overlay.Score != nil {
			rc.Score = *overlay.Score
		}
		if overlay.Enabled != nil {
			rc.Enabled = *overlay.Enabled
		}
		next.RuleConfigs[id] = rc
	}

	for id, weight := range partial.RuleWeights {
		rc := c.baseRuleConfig(next, id)
		rc.Score = weight
		next.RuleConfigs[id] = rc
	}

	c.current.Store(next)
	return next.Clone(), nil
}

// RestoreDefaults publishes a fresh Defaults snapshot and returns a copy of it.
// It is an ordinary writer and safe to call while traffic is being scored.
func (c *Configuration) RestoreDefaults() *Config {
	c.mu.Lock()
	defer c.mu.Unlock()

	defaults := c.Defaults()
	c.current.Store(defaults)
	return defaults.Clone()
}

// Reset drops the live configuration so the next read rebuilds it from
// Defaults. Test setup only; request handling uses RestoreDefaults.
func (c *Configuration) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current.Store(nil)
}

// baseRuleConfig is what an overlay for id is applied on top of: the current
// entry, else the rule's defaults, else an enabled zero-score entry for ids
// no rule has claimed yet.
func (c *Configuration) baseRuleConfig(config *Config, id string) RuleConfig {
	if rc, exists := config.RuleConfigs[id]; exists {
		return rc
	}
	if rule, ok := c.registry.Get(id); ok {
		return rule.defaultRuleConfig()
	}
	return RuleConfig{Enabled: true}
}

func validatePartial(partial PartialConfig) error {
	for id, overlay := range partial.RuleConfigs {
		if id == "" {
			return fmt.Errorf("%w: empty rule id", ErrInvalidRuleConfig)
		}
		if overlay.Score != nil && *overlay.Score < 0 {
			return fmt.Errorf("%w: rule %s score must not be negative, got %d", ErrInvalidRuleConfig, id, *overlay.Score)
		}
	}
	for id, weight := range partial.RuleWeights {
		if id == "" {
			return fmt.Errorf("%w: empty rule id", ErrInvalidRuleConfig)
		}
		if weight < 0 {
			return fmt.Errorf("%w: rule %s weight must not be negative, got %d", ErrInvalidRuleConfig, id, weight)
		}
	}
	return nil
}
