package truth

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/teranos/atomspace/errors"
)

const eps = 1e-9

// samples spans the corners and interior of the unit square, confidence > 0.
var samples = []Value{
	{0, 0.1}, {1, 1}, {0.5, 0.5}, {0.9, 0.8}, {1, 0.9}, {0.2, 0.99}, {0.7, 0.3}, {0.01, 0.01},
}

func inRange(t *testing.T, v Value) {
	t.Helper()
	assert.GreaterOrEqual(t, v.Strength, 0.0)
	assert.LessOrEqual(t, v.Strength, 1.0)
	assert.GreaterOrEqual(t, v.Confidence, 0.0)
	assert.LessOrEqual(t, v.Confidence, 1.0)
}

func TestCombinatorsStayInUnitSquare(t *testing.T) {
	binary := map[string]func(a, b Value) Value{
		"revision":     Revision,
		"deduction":    Deduction,
		"modus ponens": ModusPonens,
		"induction":    Induction,
		"abduction":    Abduction,
		"intersection": Intersection,
		"union":        Union,
		"scale":        Scale,
	}
	for name, fn := range binary {
		t.Run(name, func(t *testing.T) {
			for _, a := range samples {
				for _, b := range samples {
					inRange(t, fn(a, b))
				}
			}
		})
	}
	for _, a := range samples {
		inRange(t, Complement(a))
	}
}

func TestIntersectionAndUnionAreIdempotent(t *testing.T) {
	for _, tv := range samples {
		assert.Equal(t, tv, Intersection(tv, tv))
		assert.Equal(t, tv, Union(tv, tv))
	}
}

func TestIntersectionAndUnionBounds(t *testing.T) {
	for _, a := range samples {
		for _, b := range samples {
			assert.LessOrEqual(t, Intersection(a, b).Strength, math.Min(a.Strength, b.Strength))
			assert.GreaterOrEqual(t, Union(a, b).Strength, math.Max(a.Strength, b.Strength))
		}
	}
}

func TestWeakerEvidenceCombinators(t *testing.T) {
	for _, a := range samples {
		for _, b := range samples {
			minC := math.Min(a.Confidence, b.Confidence)
			assert.LessOrEqual(t, Induction(a, b).Confidence, minC)
			assert.LessOrEqual(t, Abduction(a, b).Confidence, minC)
			if minC > 0 {
				assert.Less(t, Induction(a, b).Confidence, minC)
				assert.Less(t, Abduction(a, b).Confidence, minC)
			}
		}
	}
}

func TestRevision(t *testing.T) {
	got := Revision(Value{0.8, 0.5}, Value{0.4, 0.5})
	assert.InDelta(t, 0.6, got.Strength, eps)
	assert.InDelta(t, (1.0-0.25)/2, got.Confidence, eps)

	t.Run("no evidence on either side", func(t *testing.T) {
		got := Revision(Value{0.2, 0}, Value{0.6, 0})
		assert.InDelta(t, 0.4, got.Strength, eps)
		assert.Equal(t, 0.0, got.Confidence)
	})

	t.Run("stronger evidence dominates strength", func(t *testing.T) {
		got := Revision(Value{1, 0.9}, Value{0, 0.1})
		assert.InDelta(t, 0.9, got.Strength, eps)
	})
}

func TestDeduction(t *testing.T) {
	got := Deduction(Value{0.8, 0.9}, Value{0.5, 0.5})
	assert.InDelta(t, 0.4, got.Strength, eps)
	assert.InDelta(t, 0.9*0.5*0.9, got.Confidence, eps)
}

func TestModusPonens(t *testing.T) {
	got := ModusPonens(Value{0.8, 0.9}, Value{0.7, 0.8})
	assert.InDelta(t, 0.56, got.Strength, eps)
	assert.InDelta(t, 0.72, got.Confidence, eps)
}

func TestInductionAndAbduction(t *testing.T) {
	ind := Induction(Value{0.5, 1}, Value{0.5, 1})
	assert.InDelta(t, 0.25/0.75, ind.Strength, eps)
	assert.InDelta(t, 0.8, ind.Confidence, eps)

	zero := Induction(Value{0, 1}, Value{0, 1})
	assert.Equal(t, 0.0, zero.Strength)

	abd := Abduction(Value{0.25, 1}, Value{1, 1})
	assert.InDelta(t, 0.5, abd.Strength, eps)
	assert.InDelta(t, 0.7, abd.Confidence, eps)
}

func TestComplementAndScale(t *testing.T) {
	assert.Equal(t, Value{0.25, 0.6}, Complement(Value{0.75, 0.6}))

	got := Scale(Value{0.8, 0.5}, Value{0.5, 0.6})
	assert.InDelta(t, 0.4, got.Strength, eps)
	assert.InDelta(t, 0.3, got.Confidence, eps)
}

func TestWeakestAndPrecedence(t *testing.T) {
	w := Weakest(Value{0.8, 0.9}, Value{0.6, 1})
	assert.InDelta(t, 0.6, w.Strength, eps)
	assert.InDelta(t, 0.81, w.Confidence, eps)

	p := Precedence(Value{1, 1}, Value{1, 1}, 2, 2)
	assert.InDelta(t, math.Exp(-1), p.Strength, eps)
	assert.InDelta(t, 0.9, p.Confidence, eps)

	assert.Equal(t, Precedence(Value{1, 1}, Value{1, 1}, 1, 1), Precedence(Value{1, 1}, Value{1, 1}, 1, 0),
		"non-positive scale means 1")
	inRange(t, Precedence(Value{1, 1}, Value{1, 1}, -5, 1))
}

func TestNewClamps(t *testing.T) {
	assert.Equal(t, Value{1, 0}, New(1.5, -0.2))
	assert.Equal(t, Value{0, 0}, New(math.NaN(), math.NaN()))
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(Value{0, 1}))
	require.NoError(t, Validate(Value{1, 0}))

	for _, bad := range []Value{{1.1, 0.5}, {0.5, -0.01}, {math.NaN(), 0.5}, {0.5, math.Inf(1)}} {
		err := Validate(bad)
		require.Error(t, err, "%v", bad)
		assert.True(t, errors.IsInconsistentTruthValueError(err))
	}
}

func TestFold(t *testing.T) {
	a, b, c := Value{0.9, 0.9}, Value{0.8, 0.7}, Value{0.5, 0.6}

	got, ok := Fold(OpDeduction, a, b, c)
	require.True(t, ok)
	assert.Equal(t, Deduction(Deduction(a, b), c), got)

	got, ok = Fold(OpIntersection, a)
	require.True(t, ok)
	assert.Equal(t, a, got)

	_, ok = Fold(OpUnion)
	assert.False(t, ok)

	_, ok = Fold(Operator("XOR"), a, b)
	assert.False(t, ok)
}

// Revision is not associative; the fold order is part of the contract.
func TestFoldIsLeftToRight(t *testing.T) {
	a, b, c := Value{1, 0.9}, Value{0, 0.2}, Value{0.5, 0.8}

	left, _ := Fold(OpRevision, a, b, c)
	assert.Equal(t, Revision(Revision(a, b), c), left)
	assert.NotEqual(t, Revision(a, Revision(b, c)), left)
}

func TestParseOperator(t *testing.T) {
	op, err := ParseOperator(" union ")
	require.NoError(t, err)
	assert.Equal(t, OpUnion, op)

	_, err = ParseOperator("xor")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))

	var parsed struct {
		Op Operator `yaml:"op"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("op: deduction\n"), &parsed))
	assert.Equal(t, OpDeduction, parsed.Op)
}

func TestSignificance(t *testing.T) {
	assert.InDelta(t, 0.72, Value{0.9, 0.8}.Significance(), eps)
	assert.Equal(t, 0.0, Default().Significance())
}
