package truth

import (
	"strings"

	"github.com/teranos/atomspace/errors"
	"gopkg.in/yaml.v3"
)

// Operator names a binary combinator that can be folded over a list of values.
type Operator string

const (
	OpRevision     Operator = "REVISION"
	OpDeduction    Operator = "DEDUCTION"
	OpIntersection Operator = "INTERSECTION"
	OpUnion        Operator = "UNION"
	OpInduction    Operator = "INDUCTION"
	OpAbduction    Operator = "ABDUCTION"
)

var combinators = map[Operator]func(a, b Value) Value{
	OpRevision:     Revision,
	OpDeduction:    Deduction,
	OpIntersection: Intersection,
	OpUnion:        Union,
	OpInduction:    Induction,
	OpAbduction:    Abduction,
}

// Valid reports whether op is a known combinator.
func (op Operator) Valid() bool {
	_, ok := combinators[op]
	return ok
}

// ParseOperator accepts operator names case-insensitively.
func ParseOperator(s string) (Operator, error) {
	op := Operator(strings.ToUpper(strings.TrimSpace(s)))
	if !op.Valid() {
		return "", errors.WithHint(
			errors.NewInvalidRequestError("unknown truth value operator %q", s),
			"use one of REVISION, DEDUCTION, INTERSECTION, UNION, INDUCTION, ABDUCTION")
	}
	return op, nil
}

// UnmarshalYAML normalises the operator name.
func (op *Operator) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseOperator(s)
	if err != nil {
		return err
	}
	*op = parsed
	return nil
}

// Fold applies op left to right: op(op(v0, v1), v2)...
// A single value is returned unchanged; ok is false for an empty list or an unknown op.
func Fold(op Operator, values ...Value) (result Value, ok bool) {
	fn, known := combinators[op]
	if !known || len(values) == 0 {
		return Value{}, false
	}
	result = values[0]
	for _, v := range values[1:] {
		result = fn(result, v)
	}
	return result, true
}
