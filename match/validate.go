package match

import (
	"fmt"
	"regexp"

	"github.com/teranos/atomspace/errors"
)

var variableNameRE = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate rejects malformed patterns before any matching happens.
// Errors wrap errors.ErrMalformedPattern, name the offending location
// (e.g. "outgoing[1].patterns[0]") and carry a hint.
func Validate(p *Pattern) error {
	return validateAt(p, "pattern")
}

func validateAt(p *Pattern, loc string) error {
	if p == nil {
		return errors.NewMalformedPatternError("%s is empty", loc)
	}

	if p.IsVariable {
		if p.VariableName == "" {
			return errors.WithHint(errors.NewMalformedPatternError("%s: variable has no name", loc),
				"set variableName on every pattern with isVariable: true")
		}
		if !variableNameRE.MatchString(p.VariableName) {
			return errors.WithHint(
				errors.NewMalformedPatternError("%s: invalid variable name %q", loc, p.VariableName),
				"variable names start with a letter or underscore followed by letters, digits or underscores")
		}
	}

	switch p.Operator {
	case "":
		if len(p.Patterns) > 0 {
			return errors.WithHint(errors.NewMalformedPatternError("%s: patterns without an operator", loc),
				"set operator to AND, OR or NOT")
		}
	case And, Or:
		if len(p.Patterns) == 0 {
			return errors.NewMalformedPatternError("%s: %s needs at least one sub-pattern", loc, p.Operator)
		}
	case Not:
		if len(p.Patterns) != 1 {
			return errors.WithHint(
				errors.NewMalformedPatternError("%s: NOT takes exactly one sub-pattern, got %d", loc, len(p.Patterns)),
				"wrap several patterns in an AND or OR inside the NOT")
		}
	default:
		return errors.WithHint(errors.NewMalformedPatternError("%s: unknown operator %q", loc, p.Operator),
			"use AND, OR or NOT")
	}

	if r := p.Recursive; r != nil {
		if r.MaxDepth != nil && *r.MaxDepth < 0 {
			return errors.NewMalformedPatternError("%s: maxDepth %d is negative", loc, *r.MaxDepth)
		}
		switch r.CyclePolicy {
		case CycleDefault, CycleFail, CycleReport:
		default:
			return errors.WithHint(errors.NewMalformedPatternError("%s: unknown cycle policy %q", loc, r.CyclePolicy),
				"use fail or report")
		}
	}

	if p.TruthOp != nil && !p.TruthOp.Valid() {
		return errors.NewMalformedPatternError("%s: unknown truth value operator %q", loc, *p.TruthOp)
	}

	if r := p.Truth; r != nil {
		for name, bounds := range map[string]*[2]float64{"strength": r.Strength, "confidence": r.Confidence} {
			if bounds == nil {
				continue
			}
			if bounds[0] > bounds[1] || bounds[0] < 0 || bounds[1] > 1 {
				return errors.WithDetailf(
					errors.NewMalformedPatternError("%s: %s range must satisfy 0 <= min <= max <= 1", loc, name),
					"range=%v", *bounds)
			}
		}
	}

	for i, sub := range p.Patterns {
		if err := validateAt(sub, fmt.Sprintf("%s.patterns[%d]", loc, i)); err != nil {
			return err
		}
	}
	for i, el := range p.Outgoing {
		at := fmt.Sprintf("%s.outgoing[%d]", loc, i)
		if el.Pattern == nil {
			if el.ID == "" {
				return errors.WithHint(errors.NewMalformedPatternError("%s is neither an atom id nor a pattern", at),
					"use a literal atom id string or a nested pattern")
			}
			continue
		}
		if err := validateAt(el.Pattern, at); err != nil {
			return err
		}
	}
	return nil
}
