// Package gates decides whether a session's derived training examples
// are eligible for export, by evaluating a prioritized set of
// conditional threshold rules against the session's category scores.
package gates

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/tracecart/curator/internal/types"
)

// Registry holds the quality threshold rule set. The administrative
// surface mutates it; Assess reads an immutable snapshot, so a running
// assessment never observes a half-applied update.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]types.QualityThresholdRule
}

// NewRegistry creates an empty rule registry
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]types.QualityThresholdRule)}
}

// NewRegistryWithRules creates a registry pre-populated with the given
// rules, validating each.
func NewRegistryWithRules(rules []types.QualityThresholdRule) (*Registry, error) {
	r := NewRegistry()
	for _, rule := range rules {
		if _, err := r.Add(rule); err != nil {
			return nil, fmt.Errorf("invalid rule %q: %w", rule.Name, err)
		}
	}
	return r, nil
}

// Add validates and registers a rule. Malformed rules are rejected here,
// at registration time, so the gate never has to reason about them at
// assessment time. An empty ID is assigned a fresh UUID.
func (r *Registry) Add(rule types.QualityThresholdRule) (types.QualityThresholdRule, error) {
	if err := ValidateRule(rule); err != nil {
		return types.QualityThresholdRule{}, err
	}
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rules[rule.ID]; exists {
		return types.QualityThresholdRule{}, fmt.Errorf("rule %s already registered", rule.ID)
	}
	r.rules[rule.ID] = rule
	return rule, nil
}

// Update replaces an existing rule after validation.
func (r *Registry) Update(rule types.QualityThresholdRule) error {
	if err := ValidateRule(rule); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rules[rule.ID]; !exists {
		return fmt.Errorf("rule %s not found", rule.ID)
	}
	r.rules[rule.ID] = rule
	return nil
}

// Remove deletes a rule by ID.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rules[id]; !exists {
		return fmt.Errorf("rule %s not found", id)
	}
	delete(r.rules, id)
	return nil
}

// Get returns a rule by ID.
func (r *Registry) Get(id string) (types.QualityThresholdRule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	return rule, ok
}

// Snapshot returns a copy of all rules sorted by ascending priority
// (name breaks ties for stable listing output).
func (r *Registry) Snapshot() []types.QualityThresholdRule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.QualityThresholdRule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ValidateRule checks a rule for configuration mistakes: inverted score
// bounds, unknown categories/actions/operators.
func ValidateRule(rule types.QualityThresholdRule) error {
	if rule.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if !rule.Category.IsValid() {
		return fmt.Errorf("unknown category %q", rule.Category)
	}
	if rule.MinScore > rule.MaxScore {
		return fmt.Errorf("min score %.1f exceeds max score %.1f", rule.MinScore, rule.MaxScore)
	}
	if !rule.Action.IsValid() {
		return fmt.Errorf("unknown action %q", rule.Action)
	}
	for i, cond := range rule.Conditions {
		if cond.Field == "" {
			return fmt.Errorf("condition %d: field is required", i)
		}
		if !cond.Operator.IsValid() {
			return fmt.Errorf("condition %d: unknown operator %q", i, cond.Operator)
		}
		if cond.Logical != "" && cond.Logical != types.LogicalAND && cond.Logical != types.LogicalOR {
			return fmt.Errorf("condition %d: unknown logical operator %q", i, cond.Logical)
		}
	}
	return nil
}

// DefaultRules is the stock rule set used when no rules file is
// configured. Scores are on a 0-100 scale.
func DefaultRules() []types.QualityThresholdRule {
	return []types.QualityThresholdRule{
		{
			ID:       "reject-unreliable-selectors",
			Name:     "Reject unreliable selectors",
			Category: types.CategoryReliability,
			MinScore: 0, MaxScore: 40,
			Action:   types.ActionReject,
			Priority: 0,
			Enabled:  true,
		},
		{
			ID:       "reject-incoherent-sessions",
			Name:     "Reject incoherent sessions",
			Category: types.CategoryConsistency,
			MinScore: 0, MaxScore: 30,
			Action:   types.ActionReject,
			Priority: 5,
			Enabled:  true,
		},
		{
			ID:       "flag-weak-completeness",
			Name:     "Flag weak completeness",
			Category: types.CategoryCompleteness,
			MinScore: 0, MaxScore: 50,
			Action:   types.ActionFlag,
			Priority: 10,
			Enabled:  true,
		},
		{
			ID:       "warn-moderate-overall",
			Name:     "Warn on moderate overall quality",
			Category: types.CategoryOverall,
			MinScore: 50, MaxScore: 70,
			Action:   types.ActionWarn,
			Priority: 20,
			Enabled:  true,
		},
		{
			ID:       "accept-strong-sessions",
			Name:     "Accept strong sessions",
			Category: types.CategoryOverall,
			MinScore: 70, MaxScore: 100,
			Action:   types.ActionAccept,
			Priority: 30,
			Enabled:  true,
		},
	}
}
