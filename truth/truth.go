// Package truth implements the probabilistic truth-value calculus.
//
// A Value is a (strength, confidence) pair in [0,1]². Every combinator is a
// pure, total function whose output is clamped back into that square, so
// callers never have to guard against drift from floating point error.
package truth

import (
	"fmt"
	"math"

	"github.com/teranos/atomspace/errors"
	"github.com/teranos/atomspace/internal/util"
)

// Calculus constants.
const (
	// RevisionK is the evidence horizon k in (c1+c2-c1·c2)/(1+k).
	RevisionK = 1.0
	// DeductionDamping scales deduction confidence per inference hop.
	DeductionDamping = 0.9
	// InductionDiscount scales induction confidence.
	InductionDiscount = 0.8
	// AbductionDiscount scales abduction confidence.
	AbductionDiscount = 0.7
	// TemporalDiscount scales the confidence of temporal and type conclusions.
	TemporalDiscount = 0.9
)

// Value is a probabilistic truth value.
type Value struct {
	Strength   float64 `json:"strength" yaml:"strength" toml:"strength"`
	Confidence float64 `json:"confidence" yaml:"confidence" toml:"confidence"`
}

// New returns a clamped truth value.
func New(strength, confidence float64) Value {
	return Value{Strength: util.Clamp01(strength), Confidence: util.Clamp01(confidence)}
}

// Default is the value assumed for atoms that carry none: full strength, no evidence.
func Default() Value {
	return Value{Strength: 1, Confidence: 0}
}

// Significance is strength·confidence, the quantity compared against the
// inference engine's threshold.
func (v Value) Significance() float64 {
	return v.Strength * v.Confidence
}

// Equal reports whether two values are identical within 1e-9.
func (v Value) Equal(o Value) bool {
	return math.Abs(v.Strength-o.Strength) < 1e-9 && math.Abs(v.Confidence-o.Confidence) < 1e-9
}

func (v Value) String() string {
	return fmt.Sprintf("<%.3f, %.3f>", v.Strength, v.Confidence)
}

// Validate rejects values outside [0,1]² and non-finite components.
func Validate(v Value) error {
	for name, x := range map[string]float64{"strength": v.Strength, "confidence": v.Confidence} {
		if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 || x > 1 {
			err := errors.Wrapf(errors.ErrInconsistentTruthValue, "%s %v outside [0,1]", name, x)
			return errors.WithDetailf(err, "value=%s", v)
		}
	}
	return nil
}

func clamp(s, c float64) Value {
	return Value{Strength: util.Clamp01(s), Confidence: util.Clamp01(c)}
}

// Revision merges two independent estimates of the same statement.
// With no evidence on either side the mean strength is returned at zero confidence.
func Revision(a, b Value) Value {
	cs := a.Confidence + b.Confidence
	if cs <= 0 {
		return clamp((a.Strength+b.Strength)/2, 0)
	}
	s := (a.Confidence*a.Strength + b.Confidence*b.Strength) / cs
	c := (cs - a.Confidence*b.Confidence) / (1 + RevisionK)
	return clamp(s, c)
}

// Deduction chains A→B and B→C under an independence assumption.
func Deduction(ab, bc Value) Value {
	return clamp(ab.Strength*bc.Strength, ab.Confidence*bc.Confidence*DeductionDamping)
}

// ModusPonens derives Q from P and P→Q in a single undamped step.
func ModusPonens(p, impl Value) Value {
	return clamp(p.Strength*impl.Strength, p.Confidence*impl.Confidence)
}

// Induction generalises from two statements sharing a subject.
func Induction(a, b Value) Value {
	den := a.Strength + b.Strength - a.Strength*b.Strength
	s := 0.0
	if den > 0 {
		s = a.Strength * b.Strength / den
	}
	return clamp(s, a.Confidence*b.Confidence*InductionDiscount)
}

// Abduction infers a common cause from two statements sharing a predicate.
func Abduction(a, b Value) Value {
	return clamp(math.Sqrt(a.Strength*b.Strength), a.Confidence*b.Confidence*AbductionDiscount)
}

// Intersection is the fuzzy AND.
func Intersection(a, b Value) Value {
	return clamp(math.Min(a.Strength, b.Strength), math.Min(a.Confidence, b.Confidence))
}

// Union is the fuzzy OR.
func Union(a, b Value) Value {
	return clamp(math.Max(a.Strength, b.Strength), math.Min(a.Confidence, b.Confidence))
}

// Complement is the fuzzy NOT; confidence is unchanged.
func Complement(a Value) Value {
	return clamp(1-a.Strength, a.Confidence)
}

// Scale weights a conclusion by the truth of the context it holds in:
// strength by the context's strength, confidence by its confidence.
func Scale(v, ctx Value) Value {
	return clamp(v.Strength*ctx.Strength, v.Confidence*ctx.Confidence)
}

// Weakest joins two premises that must both hold: the lower strength at the
// lower confidence, discounted by TemporalDiscount.
func Weakest(a, b Value) Value {
	return clamp(math.Min(a.Strength, b.Strength), math.Min(a.Confidence, b.Confidence)*TemporalDiscount)
}

// Precedence is the truth of "a happens before b" for events observed dt
// apart. Strength decays as exp(-dt/scale); a non-positive scale is 1.
func Precedence(a, b Value, dt, scale float64) Value {
	if scale <= 0 {
		scale = 1
	}
	w := Weakest(a, b)
	return clamp(w.Strength*math.Exp(-dt/scale), w.Confidence)
}
