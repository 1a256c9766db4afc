package pln

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/atomspace/am"
	"github.com/teranos/atomspace/atom"
	"github.com/teranos/atomspace/errors"
	"github.com/teranos/atomspace/match"
	"github.com/teranos/atomspace/store"
)

func names(rules []*Rule) []string {
	out := make([]string, len(rules))
	for i, r := range rules {
		out[i] = r.Name
	}
	return out
}

func TestDefaultRegistryOrder(t *testing.T) {
	reg, err := DefaultRegistry(am.InferenceConfig{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"ModusPonens",
		"Deduction",
		"SubsetDeduction",
		"Abduction",
		"Induction",
		"ContextualDeduction",
		"EquivalenceSymmetry",
		"SimilaritySymmetry",
		"InheritanceTransitivity",
		"PredictiveDeduction",
		"TemporalInference",
		"TemporalTransitivity",
		"TypeInheritance",
		"TemporalOrdering",
	}, names(reg.All()))
}

func TestDefaultRegistryFuzzy(t *testing.T) {
	reg, err := DefaultRegistry(am.InferenceConfig{EnableFuzzy: true})
	require.NoError(t, err)

	all := names(reg.All())
	assert.Len(t, all, 16)
	assert.Equal(t, []string{"ConceptIntersection", "ConceptUnion"}, all[6:8])
}

func TestDefaultRegistryDisabledRules(t *testing.T) {
	reg, err := DefaultRegistry(am.InferenceConfig{DisabledRules: []string{"Abduction", "Induction"}})
	require.NoError(t, err)
	_, ok := reg.Get("Abduction")
	assert.False(t, ok)
	assert.Len(t, reg.Names(), 12)

	_, err = DefaultRegistry(am.InferenceConfig{DisabledRules: []string{"Telepathy"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidRule))
	assert.Contains(t, errors.FlattenHints(err), "ModusPonens")
}

func TestRegisterRejects(t *testing.T) {
	noop := func(store.Reader, []atom.Atom) ([]atom.Atom, error) { return nil, nil }

	tests := []struct {
		name string
		rule *Rule
	}{
		{"no name", &Rule{Premises: []*match.Pattern{match.Var("X")}, Apply: noop}},
		{"no apply", &Rule{Name: "r", Premises: []*match.Pattern{match.Var("X")}}},
		{"no premises", &Rule{Name: "r", Apply: noop}},
		{"malformed premise", &Rule{Name: "r", Premises: []*match.Pattern{{Operator: match.Not}}, Apply: noop}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry().Register(tt.rule)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidRule))
		})
	}

	t.Run("duplicate", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.Register(ModusPonens()))
		err := reg.Register(ModusPonens())
		assert.True(t, errors.Is(err, errors.ErrInvalidRule))
	})
}

func TestMalformedPremiseKeepsPatternError(t *testing.T) {
	noop := func(store.Reader, []atom.Atom) ([]atom.Atom, error) { return nil, nil }
	err := (&Rule{Name: "r", Premises: []*match.Pattern{match.Var("1x")}, Apply: noop}).Validate()
	require.Error(t, err)
	assert.True(t, errors.IsMalformedPatternError(err))
}

func TestRemove(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(ModusPonens()))
	assert.True(t, reg.Remove("ModusPonens"))
	assert.False(t, reg.Remove("ModusPonens"))
	assert.Empty(t, reg.All())
}
