package pln

import (
	"github.com/teranos/atomspace/atom"
	"github.com/teranos/atomspace/match"
	"github.com/teranos/atomspace/store"
	"github.com/teranos/atomspace/truth"
)

// Conclusions are keyed by rule name plus the ids the conclusion is about,
// not the premise links that produced it. Two derivations of the same
// conclusion therefore merge, and the set of derivable ids stays finite.

// DefaultRules returns the standard rule set.
func DefaultRules() []*Rule {
	return []*Rule{
		ModusPonens(),
		chainRule("Deduction", Deductive, atom.ImplicationLink, "If A implies B and B implies C, then A implies C"),
		chainRule("InheritanceTransitivity", Inheritance, atom.InheritanceLink, "If A inherits from B and B inherits from C, then A inherits from C"),
		chainRule("SubsetDeduction", Deductive, atom.SubsetLink, "If A is a subset of B and B is a subset of C, then A is a subset of C"),
		Induction(),
		Abduction(),
		symmetryRule("SimilaritySymmetry", atom.SimilarityLink),
		symmetryRule("EquivalenceSymmetry", atom.EquivalenceLink),
		ContextualDeduction(),
	}
}

// FuzzyRules returns the concept formation rules, off by default.
func FuzzyRules() []*Rule {
	return []*Rule{
		conceptRule("ConceptIntersection", atom.AndLink, truth.Intersection),
		conceptRule("ConceptUnion", atom.OrLink, truth.Union),
	}
}

// TypeRules returns the rules over TypeNode hierarchies.
func TypeRules() []*Rule {
	return []*Rule{TypeInheritance()}
}

// linkOf builds Type(?v0, ?v1, ...).
func linkOf(t atom.Type, vars ...string) *match.Pattern {
	out := make([]match.Element, len(vars))
	for i, v := range vars {
		out[i] = match.Sub(match.Var(v))
	}
	return &match.Pattern{Type: t, Outgoing: out}
}

func typedVar(name string, t atom.Type) *match.Pattern {
	return &match.Pattern{IsVariable: true, VariableName: name, Type: t}
}

// binary returns the two endpoints of a binary link of type t.
func binary(a atom.Atom, t atom.Type) (string, string, bool) {
	if a.Type != t || len(a.Outgoing) != 2 {
		return "", "", false
	}
	return a.Outgoing[0], a.Outgoing[1], true
}

// ModusPonens derives Q from P and ImplicationLink(P, Q). The conclusion is
// Q itself: the derived truth value is written onto Q's id, so later
// implications out of Q chain from it. An asserted truth value on Q is only
// replaced by a more confident one.
func ModusPonens() *Rule {
	return &Rule{
		Name:        "ModusPonens",
		Category:    Deductive,
		Description: "If P holds and P implies Q, then Q holds",
		Premises:    []*match.Pattern{match.Var("P"), linkOf(atom.ImplicationLink, "P", "Q")},
		Cost:        1,
		Apply: func(view store.Reader, tuple []atom.Atom) ([]atom.Atom, error) {
			p, impl := tuple[0], tuple[1]
			from, to, ok := binary(impl, atom.ImplicationLink)
			if !ok || from != p.ID || to == p.ID {
				return nil, nil
			}
			q, ok := view.GetAtom(to)
			if !ok {
				return nil, nil
			}
			tv := truth.ModusPonens(p.TV(), impl.TV())
			if q.TruthValue != nil && q.TruthValue.Confidence >= tv.Confidence {
				return nil, nil
			}
			conclusion := q.Clone()
			conclusion.TruthValue = &tv
			conclusion.Attention = nil
			return []atom.Atom{conclusion}, nil
		},
	}
}

// chainRule derives t(A, C) from t(A, B) and t(B, C) by deduction.
func chainRule(name string, cat Category, t atom.Type, desc string) *Rule {
	return &Rule{
		Name:        name,
		Category:    cat,
		Description: desc,
		Premises:    []*match.Pattern{linkOf(t, "A", "B"), linkOf(t, "B", "C")},
		Cost:        2,
		Apply: func(_ store.Reader, tuple []atom.Atom) ([]atom.Atom, error) {
			a, b1, ok1 := binary(tuple[0], t)
			b2, c, ok2 := binary(tuple[1], t)
			if !ok1 || !ok2 || b1 != b2 || a == c {
				return nil, nil
			}
			tv := truth.Deduction(tuple[0].TV(), tuple[1].TV())
			return []atom.Atom{atom.Link(t, atom.DerivedID(name, a, c), &tv, a, c)}, nil
		},
	}
}

// Induction generalises InheritanceLink(A, B) and InheritanceLink(A, C)
// into InheritanceLink(B, C).
func Induction() *Rule {
	return &Rule{
		Name:        "Induction",
		Category:    Intensional,
		Description: "Instances shared by B and C suggest B inherits from C",
		Premises:    []*match.Pattern{linkOf(atom.InheritanceLink, "A", "B"), linkOf(atom.InheritanceLink, "A", "C")},
		Cost:        3,
		Apply: func(_ store.Reader, tuple []atom.Atom) ([]atom.Atom, error) {
			a1, b, ok1 := binary(tuple[0], atom.InheritanceLink)
			a2, c, ok2 := binary(tuple[1], atom.InheritanceLink)
			if !ok1 || !ok2 || a1 != a2 || b == c {
				return nil, nil
			}
			tv := truth.Induction(tuple[0].TV(), tuple[1].TV())
			return []atom.Atom{atom.Link(atom.InheritanceLink, atom.DerivedID("Induction", b, c), &tv, b, c)}, nil
		},
	}
}

// Abduction infers SimilarityLink(A, B) from InheritanceLink(A, C) and
// InheritanceLink(B, C).
func Abduction() *Rule {
	return &Rule{
		Name:        "Abduction",
		Category:    Intensional,
		Description: "A and B sharing a parent C suggests A is similar to B",
		Premises:    []*match.Pattern{linkOf(atom.InheritanceLink, "A", "C"), linkOf(atom.InheritanceLink, "B", "C")},
		Cost:        3,
		Apply: func(_ store.Reader, tuple []atom.Atom) ([]atom.Atom, error) {
			a, c1, ok1 := binary(tuple[0], atom.InheritanceLink)
			b, c2, ok2 := binary(tuple[1], atom.InheritanceLink)
			if !ok1 || !ok2 || c1 != c2 || a == b {
				return nil, nil
			}
			tv := truth.Abduction(tuple[0].TV(), tuple[1].TV())
			return []atom.Atom{atom.Link(atom.SimilarityLink, atom.DerivedID("Abduction", a, b), &tv, a, b)}, nil
		},
	}
}

// symmetryRule derives t(B, A) from t(A, B) with the same truth value,
// unless some t(B, A) is already present.
func symmetryRule(name string, t atom.Type) *Rule {
	return &Rule{
		Name:        name,
		Category:    Symmetry,
		Description: "If " + string(t) + "(A, B) then " + string(t) + "(B, A)",
		Premises:    []*match.Pattern{linkOf(t, "A", "B")},
		Cost:        1,
		Apply: func(view store.Reader, tuple []atom.Atom) ([]atom.Atom, error) {
			a, b, ok := binary(tuple[0], t)
			if !ok || a == b || tuple[0].TruthValue == nil {
				return nil, nil
			}
			for _, in := range view.Incoming(a) {
				if x, y, ok := binary(in, t); ok && x == b && y == a {
					return nil, nil
				}
			}
			tv := *tuple[0].TruthValue
			return []atom.Atom{atom.Link(t, atom.DerivedID(name, b, a), &tv, b, a)}, nil
		},
	}
}

// TypeInheritance propagates membership up a type hierarchy:
// MemberLink(X, T) and InheritanceLink(T, U), with T and U TypeNodes, give
// MemberLink(X, U).
func TypeInheritance() *Rule {
	return &Rule{
		Name:        "TypeInheritance",
		Category:    Typing,
		Description: "A member of type T is a member of every supertype of T",
		Premises:    []*match.Pattern{linkOf(atom.MemberLink, "X", "T"), linkOf(atom.InheritanceLink, "T", "U")},
		Cost:        2,
		Apply: func(view store.Reader, tuple []atom.Atom) ([]atom.Atom, error) {
			x, t1, ok1 := binary(tuple[0], atom.MemberLink)
			t2, u, ok2 := binary(tuple[1], atom.InheritanceLink)
			if !ok1 || !ok2 || t1 != t2 || x == u {
				return nil, nil
			}
			for _, id := range []string{t1, u} {
				if n, ok := view.GetAtom(id); !ok || n.Type != atom.TypeNode {
					return nil, nil
				}
			}
			member, sub := tuple[0].TV(), tuple[1].TV()
			tv := truth.New(member.Strength*sub.Strength, truth.Weakest(member, sub).Confidence)
			return []atom.Atom{atom.Link(atom.MemberLink, atom.DerivedID("TypeInheritance", x, u), &tv, x, u)}, nil
		},
	}
}

// ContextualDeduction chains implications that hold within the same context:
// ContextLink(C, ImplicationLink(A, B)) and ContextLink(C, ImplicationLink(B, D))
// give ContextLink(C, ImplicationLink(A, D)). The strength of a contextual
// implication is the ContextLink's truth value, falling back to the inner
// implication's. The deduced value is scaled by the truth of C itself.
func ContextualDeduction() *Rule {
	ctxImpl := func(a, b string) *match.Pattern {
		return &match.Pattern{
			Type:     atom.ContextLink,
			Outgoing: []match.Element{match.Sub(match.Var("C")), match.Sub(linkOf(atom.ImplicationLink, a, b))},
		}
	}
	return &Rule{
		Name:        "ContextualDeduction",
		Category:    Contextual,
		Description: "Deduction restricted to implications that hold in a shared context",
		Premises:    []*match.Pattern{ctxImpl("A", "B"), ctxImpl("B", "D")},
		Cost:        3,
		Apply: func(view store.Reader, tuple []atom.Atom) ([]atom.Atom, error) {
			c1, i1, ok1 := binary(tuple[0], atom.ContextLink)
			c2, i2, ok2 := binary(tuple[1], atom.ContextLink)
			if !ok1 || !ok2 || c1 != c2 {
				return nil, nil
			}
			ctx, okC := view.GetAtom(c1)
			impl1, okI1 := view.GetAtom(i1)
			impl2, okI2 := view.GetAtom(i2)
			if !okC || !okI1 || !okI2 {
				return nil, nil
			}
			a, b1, ok1 := binary(impl1, atom.ImplicationLink)
			b2, d, ok2 := binary(impl2, atom.ImplicationLink)
			if !ok1 || !ok2 || b1 != b2 || a == d {
				return nil, nil
			}

			ctxTV := truth.Value{Strength: 1, Confidence: 1}
			if ctx.TruthValue != nil {
				ctxTV = *ctx.TruthValue
			}
			tv := truth.Scale(truth.Deduction(contextualTV(tuple[0], impl1), contextualTV(tuple[1], impl2)), ctxTV)

			inner := atom.Link(atom.ImplicationLink, atom.DerivedID("ContextualDeduction.implication", a, d), nil, a, d)
			wrapped := atom.Link(atom.ContextLink, atom.DerivedID("ContextualDeduction", c1, a, d), &tv, c1, inner.ID)
			return []atom.Atom{wrapped, inner}, nil
		},
	}
}

func contextualTV(link, inner atom.Atom) truth.Value {
	if link.TruthValue != nil {
		return *link.TruthValue
	}
	return inner.TV()
}

// conceptRule forms t(X, Y) over two concepts, once per unordered pair.
func conceptRule(name string, t atom.Type, combine func(a, b truth.Value) truth.Value) *Rule {
	return &Rule{
		Name:        name,
		Category:    Fuzzy,
		Description: "Form a compound concept " + string(t) + "(X, Y)",
		Premises:    []*match.Pattern{typedVar("X", atom.ConceptNode), typedVar("Y", atom.ConceptNode)},
		Cost:        4,
		Apply: func(_ store.Reader, tuple []atom.Atom) ([]atom.Atom, error) {
			x, y := tuple[0], tuple[1]
			if x.ID >= y.ID {
				return nil, nil
			}
			tv := combine(x.TV(), y.TV())
			return []atom.Atom{atom.Link(t, atom.DerivedID(name, x.ID, y.ID), &tv, x.ID, y.ID)}, nil
		},
	}
}
