// Package pln is the forward-chaining inference engine: a flat registry of
// rules, each a premise list plus a pure derivation function, driven to a
// fixed point over store snapshots.
package pln

import (
	"github.com/teranos/atomspace/atom"
	"github.com/teranos/atomspace/errors"
	"github.com/teranos/atomspace/match"
	"github.com/teranos/atomspace/store"
)

// Category tags a rule for ordering and reporting. It never changes dispatch.
type Category string

const (
	Deductive   Category = "Deductive"
	Inheritance Category = "Inheritance"
	Intensional Category = "Intensional"
	Contextual  Category = "Contextual"
	Fuzzy       Category = "Fuzzy"
	Symmetry    Category = "Symmetry"
	Temporal    Category = "Temporal"
	Typing      Category = "Type"
)

// Priority orders categories in the registry; higher runs first.
func (c Category) Priority() float64 {
	switch c {
	case Deductive:
		return 1.0
	case Intensional:
		return 0.9
	case Contextual:
		return 0.8
	case Fuzzy:
		return 0.7
	default:
		return 0.5
	}
}

// ApplyFunc derives atoms from a tuple whose positions matched the rule's
// premises in order. view is the snapshot the tuple was drawn from.
// Returning an empty slice means the rule does not apply.
type ApplyFunc func(view store.Reader, tuple []atom.Atom) ([]atom.Atom, error)

// Rule is one inference rule.
type Rule struct {
	Name        string
	Category    Category
	Description string
	// Premises holds one pattern per tuple position. Variables are shared
	// across positions, so ImplicationLink(?A,?B) followed by
	// ImplicationLink(?B,?C) joins on ?B.
	Premises []*match.Pattern
	Cost     float64
	Apply    ApplyFunc
}

// Arity is the tuple length the rule consumes.
func (r *Rule) Arity() int {
	return len(r.Premises)
}

// Validate checks that the rule can be registered.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return errors.Wrap(errors.ErrInvalidRule, "rule has no name")
	}
	if r.Apply == nil {
		return errors.Wrapf(errors.ErrInvalidRule, "rule %s has no apply function", r.Name)
	}
	if len(r.Premises) == 0 {
		return errors.WithHint(errors.Wrapf(errors.ErrInvalidRule, "rule %s has no premises", r.Name),
			"a rule needs at least one premise pattern")
	}
	for i, p := range r.Premises {
		if err := match.Validate(p); err != nil {
			return errors.Wrapf(errors.Mark(err, errors.ErrInvalidRule), "rule %s premise %d", r.Name, i)
		}
	}
	return nil
}
