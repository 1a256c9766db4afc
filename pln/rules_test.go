package pln

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/atomspace/atom"
)

func TestIntensionalRules(t *testing.T) {
	s := newStore(t,
		atom.Node(atom.ConceptNode, "cat", "cat", nil),
		atom.Node(atom.ConceptNode, "dog", "dog", nil),
		atom.Node(atom.ConceptNode, "mammal", "mammal", nil),
		atom.Node(atom.ConceptNode, "pet", "pet", nil),
		atom.Link(atom.InheritanceLink, "cat-mammal", atom.TVPtr(0.9, 0.9), "cat", "mammal"),
		atom.Link(atom.InheritanceLink, "dog-mammal", atom.TVPtr(0.8, 0.9), "dog", "mammal"),
		atom.Link(atom.InheritanceLink, "cat-pet", atom.TVPtr(0.6, 0.5), "cat", "pet"),
	)
	e := newEngine(t, s)
	ctx := context.Background()
	get := func(id string) atom.Atom { a, _ := s.GetAtom(id); return a }

	t.Run("abduction", func(t *testing.T) {
		out, err := e.ApplyRule(ctx, mustRule(t, e, "Abduction"), []atom.Atom{get("cat-mammal"), get("dog-mammal")})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, atom.SimilarityLink, out[0].Type)
		assert.Equal(t, []string{"cat", "dog"}, out[0].Outgoing)
		assert.InDelta(t, math.Sqrt(0.72), out[0].TruthValue.Strength, 1e-9)
		assert.InDelta(t, 0.81*0.7, out[0].TruthValue.Confidence, 1e-9)
	})

	t.Run("abduction needs a shared parent", func(t *testing.T) {
		out, err := e.ApplyRule(ctx, mustRule(t, e, "Abduction"), []atom.Atom{get("cat-mammal"), get("cat-pet")})
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("induction", func(t *testing.T) {
		out, err := e.ApplyRule(ctx, mustRule(t, e, "Induction"), []atom.Atom{get("cat-mammal"), get("cat-pet")})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, atom.InheritanceLink, out[0].Type)
		assert.Equal(t, []string{"mammal", "pet"}, out[0].Outgoing)
		assert.InDelta(t, 0.54/(0.9+0.6-0.54), out[0].TruthValue.Strength, 1e-9)
		assert.InDelta(t, 0.45*0.8, out[0].TruthValue.Confidence, 1e-9)
	})
}

func TestSymmetryRule(t *testing.T) {
	s := newStore(t,
		atom.Node(atom.ConceptNode, "cat", "cat", nil),
		atom.Node(atom.ConceptNode, "dog", "dog", nil),
		atom.Link(atom.SimilarityLink, "cat~dog", atom.TVPtr(0.7, 0.6), "cat", "dog"),
	)
	e := newEngine(t, s)

	derived, err := e.RunInference(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, derived, 1)
	assert.Equal(t, []string{"dog", "cat"}, derived[0].Outgoing)
	assert.Equal(t, atom.TVPtr(0.7, 0.6), derived[0].TruthValue)
}

func TestFuzzyConceptFormation(t *testing.T) {
	s := newStore(t,
		atom.Node(atom.ConceptNode, "red", "red", atom.TVPtr(0.9, 0.8)),
		atom.Node(atom.ConceptNode, "round", "round", atom.TVPtr(0.6, 0.9)),
	)
	e := newEngine(t, s, func(o *Options) { o.Config.EnableFuzzy = true })

	derived, err := e.RunInference(context.Background(), 1)
	require.NoError(t, err)

	byType := map[atom.Type]atom.Atom{}
	for _, a := range derived {
		byType[a.Type] = a
	}
	require.Len(t, byType, 2)

	and := byType[atom.AndLink]
	assert.Equal(t, []string{"red", "round"}, and.Outgoing)
	assert.InDelta(t, 0.6, and.TruthValue.Strength, 1e-9)
	assert.InDelta(t, 0.8, and.TruthValue.Confidence, 1e-9)

	or := byType[atom.OrLink]
	assert.InDelta(t, 0.9, or.TruthValue.Strength, 1e-9)
	assert.InDelta(t, 0.8, or.TruthValue.Confidence, 1e-9)
}
