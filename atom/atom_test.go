package atom

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/teranos/atomspace/truth"
)

func TestDerivedIDIsDeterministic(t *testing.T) {
	a := DerivedID("Deduction", "ab", "bc")
	b := DerivedID("Deduction", "ab", "bc")
	assert.Equal(t, a, b)

	_, err := uuid.Parse(a)
	require.NoError(t, err)

	assert.NotEqual(t, a, DerivedID("Deduction", "bc", "ab"), "input order matters")
	assert.NotEqual(t, a, DerivedID("Induction", "ab", "bc"), "rule name matters")
	assert.NotEqual(t, DerivedID("r", "a", "bc"), DerivedID("r", "ab", "c"), "inputs are delimited")
}

func TestIsLink(t *testing.T) {
	assert.False(t, Node(ConceptNode, "cat", "cat", nil).IsLink())
	assert.True(t, Link(InheritanceLink, "l", nil, "cat", "mammal").IsLink())
	assert.True(t, Atom{ID: "x", Type: ListLink}.IsLink(), "empty link is still a link")
}

func TestCloneIsDeep(t *testing.T) {
	orig := Link(InheritanceLink, "l", TVPtr(0.9, 0.8), "a", "b")
	orig.Attention = &AttentionValue{STI: 5}

	c := orig.Clone()
	c.Outgoing[0] = "z"
	c.TruthValue.Strength = 0
	c.Attention.STI = 99

	assert.Equal(t, "a", orig.Outgoing[0])
	assert.Equal(t, 0.9, orig.TruthValue.Strength)
	assert.Equal(t, 5.0, orig.Attention.STI)
}

func TestAccessorsDefaults(t *testing.T) {
	a := Node(ConceptNode, "cat", "cat", nil)
	assert.Equal(t, truth.Default(), a.TV())
	assert.Equal(t, 0.0, a.STI())
}

// Atoms round-trip losslessly through the formats the CLI reads.
func TestRoundTrip(t *testing.T) {
	orig := Link(ImplicationLink, "impl", TVPtr(0.7, 0.8), "p", "q")
	orig.Attention = &AttentionValue{STI: 12.5, LTI: 3, VLTI: true}

	t.Run("json", func(t *testing.T) {
		data, err := json.Marshal(orig)
		require.NoError(t, err)
		var back Atom
		require.NoError(t, json.Unmarshal(data, &back))
		if diff := cmp.Diff(orig, back); diff != "" {
			t.Errorf("json round trip mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		data, err := yaml.Marshal(orig)
		require.NoError(t, err)
		var back Atom
		require.NoError(t, yaml.Unmarshal(data, &back))
		if diff := cmp.Diff(orig, back); diff != "" {
			t.Errorf("yaml round trip mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestString(t *testing.T) {
	assert.Equal(t, "ConceptNode(cat)", Node(ConceptNode, "c", "cat", nil).String())
	assert.Equal(t, "InheritanceLink([cat, mammal]) <0.900, 0.850>",
		Link(InheritanceLink, "l", TVPtr(0.9, 0.85), "cat", "mammal").String())
}
