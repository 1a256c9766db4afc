package pln

import (
	"strconv"

	"github.com/teranos/atomspace/atom"
	"github.com/teranos/atomspace/match"
	"github.com/teranos/atomspace/store"
	"github.com/teranos/atomspace/truth"
)

// DefaultTemporalScale is the time distance at which precedence strength
// has decayed to 1/e.
const DefaultTemporalScale = 1.0

// TemporalRules returns the rules over timestamped events. Events are
// placed in time with AtTimeLink(event, TimeNode), the TimeNode's name
// being a number. scale <= 0 means DefaultTemporalScale.
func TemporalRules(scale float64) []*Rule {
	if scale <= 0 {
		scale = DefaultTemporalScale
	}
	return []*Rule{
		TemporalOrdering(scale),
		chainRule("TemporalTransitivity", Temporal, atom.BeforeLink, "If A is before B and B is before C, then A is before C"),
		TemporalInference(),
		chainRule("PredictiveDeduction", Temporal, atom.PredictiveImplicationLink, "If A predicts B and B predicts C, then A predicts C"),
	}
}

// timestamp reads the time of a TimeNode.
func timestamp(view store.Reader, id string) (float64, bool) {
	n, ok := view.GetAtom(id)
	if !ok || n.Type != atom.TimeNode {
		return 0, false
	}
	t, err := strconv.ParseFloat(n.Name, 64)
	if err != nil {
		return 0, false
	}
	return t, true
}

// TemporalOrdering derives BeforeLink(E1, E2) from AtTimeLink(E1, T1) and
// AtTimeLink(E2, T2) when T1 < T2. Strength decays with the gap between the
// two times; simultaneous events are not ordered.
func TemporalOrdering(scale float64) *Rule {
	return &Rule{
		Name:        "TemporalOrdering",
		Category:    Temporal,
		Description: "An event timestamped earlier than another happens before it",
		Premises:    []*match.Pattern{linkOf(atom.AtTimeLink, "E1", "T1"), linkOf(atom.AtTimeLink, "E2", "T2")},
		Cost:        3,
		Apply: func(view store.Reader, tuple []atom.Atom) ([]atom.Atom, error) {
			e1, t1, ok1 := binary(tuple[0], atom.AtTimeLink)
			e2, t2, ok2 := binary(tuple[1], atom.AtTimeLink)
			if !ok1 || !ok2 || e1 == e2 {
				return nil, nil
			}
			at1, ok1 := timestamp(view, t1)
			at2, ok2 := timestamp(view, t2)
			if !ok1 || !ok2 || at2 <= at1 {
				return nil, nil
			}
			tv := truth.Precedence(tuple[0].TV(), tuple[1].TV(), at2-at1, scale)
			return []atom.Atom{atom.Link(atom.BeforeLink, atom.DerivedID("TemporalOrdering", e1, e2), &tv, e1, e2)}, nil
		},
	}
}

// TemporalInference turns an implication whose antecedent is also observed
// to precede its consequent into a predictive implication:
// ImplicationLink(A, B) and BeforeLink(A, B) give
// PredictiveImplicationLink(A, B).
func TemporalInference() *Rule {
	return &Rule{
		Name:        "TemporalInference",
		Category:    Temporal,
		Description: "If A implies B and A comes before B, then A predicts B",
		Premises:    []*match.Pattern{linkOf(atom.ImplicationLink, "A", "B"), linkOf(atom.BeforeLink, "A", "B")},
		Cost:        2,
		Apply: func(_ store.Reader, tuple []atom.Atom) ([]atom.Atom, error) {
			a1, b1, ok1 := binary(tuple[0], atom.ImplicationLink)
			a2, b2, ok2 := binary(tuple[1], atom.BeforeLink)
			if !ok1 || !ok2 || a1 != a2 || b1 != b2 || a1 == b1 {
				return nil, nil
			}
			tv := truth.Weakest(tuple[0].TV(), tuple[1].TV())
			return []atom.Atom{atom.Link(atom.PredictiveImplicationLink, atom.DerivedID("TemporalInference", a1, b1), &tv, a1, b1)}, nil
		},
	}
}
