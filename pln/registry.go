package pln

import (
	"sort"
	"strings"
	"sync"

	"github.com/teranos/atomspace/am"
	"github.com/teranos/atomspace/errors"
)

// Registry holds the rules an engine runs.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]*Rule
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rules: make(map[string]*Rule)}
}

// DefaultRegistry registers DefaultRules, TemporalRules and TypeRules, plus
// FuzzyRules when enabled, minus any rule named in cfg.DisabledRules.
func DefaultRegistry(cfg am.InferenceConfig) (*Registry, error) {
	r := NewRegistry()
	rules := DefaultRules()
	rules = append(rules, TemporalRules(cfg.TemporalScale)...)
	rules = append(rules, TypeRules()...)
	if cfg.EnableFuzzy {
		rules = append(rules, FuzzyRules()...)
	}
	for _, rule := range rules {
		if err := r.Register(rule); err != nil {
			return nil, err
		}
	}
	for _, name := range cfg.DisabledRules {
		if !r.Remove(name) {
			return nil, errors.WithHintf(
				errors.Wrapf(errors.ErrInvalidRule, "cannot disable unknown rule %q", name),
				"known rules: %s", strings.Join(r.Names(), ", "))
		}
	}
	return r, nil
}

// Register adds a rule. Names are unique.
func (r *Registry) Register(rule *Rule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rules[rule.Name]; exists {
		return errors.Wrapf(errors.ErrInvalidRule, "rule already registered: %s", rule.Name)
	}
	r.rules[rule.Name] = rule
	return nil
}

// Remove deletes a rule, reporting whether it was registered.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[name]; !ok {
		return false
	}
	delete(r.rules, name)
	return true
}

// Get retrieves a rule by name.
func (r *Registry) Get(name string) (*Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[name]
	return rule, ok
}

// Names returns all rule names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.rules))
	for name := range r.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the rules in execution order: category priority descending,
// then cost ascending, then name.
func (r *Registry) All() []*Rule {
	r.mu.RLock()
	out := make([]*Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if pa, pb := a.Category.Priority(), b.Category.Priority(); pa != pb {
			return pa > pb
		}
		if a.Cost != b.Cost {
			return a.Cost < b.Cost
		}
		return a.Name < b.Name
	})
	return out
}
