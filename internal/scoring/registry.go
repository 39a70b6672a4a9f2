package scoring

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrDuplicateRule is returned when a rule id is registered twice
	ErrDuplicateRule = errors.New("rule already registered")
	// ErrInvalidRule is returned for rules that cannot be evaluated
	ErrInvalidRule = errors.New("invalid rule")
)

// Registry holds every known rule keyed by id, in registration order.
// It is populated once at startup; Reset exists for tests only.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
	order []string
}

// NewRegistry creates an empty rule registry
func NewRegistry() *Registry {
	return &Registry{
		rules: make(map[string]Rule),
	}
}

// Register adds a rule. Duplicate ids are rejected.
func (r *Registry) Register(rule Rule) error {
	if rule.ID == "" {
		return fmt.Errorf("%w: rule id is required", ErrInvalidRule)
	}
	if rule.Applies == nil {
		return fmt.Errorf("%w: rule %s has no predicate", ErrInvalidRule, rule.ID)
	}
	if rule.DefaultScore < 0 {
		return fmt.Errorf("%w: rule %s has negative default score %d", ErrInvalidRule, rule.ID, rule.DefaultScore)
	}
	if !rule.Category.Valid() {
		return fmt.Errorf("%w: rule %s has unknown category %q", ErrInvalidRule, rule.ID, rule.Category)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[rule.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, rule.ID)
	}

	r.rules[rule.ID] = rule
	r.order = append(r.order, rule.ID)
	return nil
}

// MustRegister registers a rule and panics on error. Intended for startup wiring.
func (r *Registry) MustRegister(rule Rule) {
	if err := r.Register(rule); err != nil {
		panic(err)
	}
}

// Get returns the rule with the given id
func (r *Registry) Get(id string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[id]
	return rule, ok
}

// All returns every registered rule in registration order
func (r *Registry) All() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rules := make([]Rule, 0, len(r.order))
	for _, id := range r.order {
		rules = append(rules, r.rules[id])
	}
	return rules
}

// ByCategory returns the registered rules tagged with category
func (r *Registry) ByCategory(category Category) []Rule {
	var rules []Rule
	for _, rule := range r.All() {
		if rule.Category == category {
			rules = append(rules, rule)
		}
	}
	return rules
}

// IDs returns the registered rule ids in registration order
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Len returns the number of registered rules
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Reset removes every rule. Test isolation only.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = make(map[string]Rule)
	r.order = nil
}
