package match

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/atomspace/atom"
	"github.com/teranos/atomspace/errors"
	"github.com/teranos/atomspace/truth"
)

func TestParsePatternYAML(t *testing.T) {
	src := `
type: InheritanceLink
outgoing:
  - isVariable: true
    variableName: X
  - mammal
recursive:
  maxDepth: 3
  detectCycles: true
  cyclePolicy: report
tvOperator: intersection
`
	p, err := ParsePattern([]byte(src))
	require.NoError(t, err)

	assert.Equal(t, atom.InheritanceLink, p.Type)
	require.Len(t, p.Outgoing, 2)
	require.NotNil(t, p.Outgoing[0].Pattern)
	assert.Equal(t, "X", p.Outgoing[0].Pattern.VariableName)
	assert.Equal(t, "mammal", p.Outgoing[1].ID)
	assert.Nil(t, p.Outgoing[1].Pattern)
	require.NotNil(t, p.Recursive)
	assert.Equal(t, 3, *p.Recursive.MaxDepth)
	assert.Equal(t, CycleReport, p.Recursive.Policy())
	require.NotNil(t, p.TruthOp)
	assert.Equal(t, truth.OpIntersection, *p.TruthOp)
}

func TestParsePatternRejectsMalformed(t *testing.T) {
	_, err := ParsePattern([]byte("operator: NOT\npatterns: [{name: a}, {name: b}]\n"))
	require.Error(t, err)
	assert.True(t, errors.IsMalformedPatternError(err))

	_, err = ParsePattern([]byte("tvOperator: xor\n"))
	require.Error(t, err)
}

func TestElementJSON(t *testing.T) {
	var p Pattern
	require.NoError(t, json.Unmarshal([]byte(`{"outgoing": ["cat", {"name": "mammal"}]}`), &p))
	require.Len(t, p.Outgoing, 2)
	assert.Equal(t, "cat", p.Outgoing[0].ID)
	assert.Equal(t, "mammal", p.Outgoing[1].Pattern.Name)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"outgoing": ["cat", {"name": "mammal"}]}`, string(out))
}

func TestPatternString(t *testing.T) {
	assert.Equal(t, "InheritanceLink(?X, {name:mammal})", isMammal().String())
	assert.Equal(t, "NOT(ConceptNode:cat)", (&Pattern{Operator: Not, Patterns: []*Pattern{{Type: atom.ConceptNode, Name: "cat"}}}).String())
	assert.Equal(t, "*", (&Pattern{}).String())
	assert.Equal(t, "(a, ?Y:ConceptNode)", (&Pattern{Outgoing: []Element{Lit("a"), Sub(&Pattern{IsVariable: true, VariableName: "Y", Type: atom.ConceptNode})}}).String())
}

func TestValidate(t *testing.T) {
	bad := truth.Operator("XOR")
	tests := []struct {
		name    string
		pattern *Pattern
		wantLoc string
	}{
		{"nil", nil, "pattern is empty"},
		{"variable without name", &Pattern{IsVariable: true}, "no name"},
		{"variable starting with digit", Var("1x"), "invalid variable name"},
		{"variable with dash", Var("a-b"), "invalid variable name"},
		{"unknown operator", &Pattern{Operator: "XOR", Patterns: []*Pattern{{}}}, "unknown operator"},
		{"AND without patterns", &Pattern{Operator: And}, "at least one"},
		{"NOT with two patterns", &Pattern{Operator: Not, Patterns: []*Pattern{{}, {}}}, "exactly one"},
		{"patterns without operator", &Pattern{Patterns: []*Pattern{{}}}, "without an operator"},
		{"negative depth", &Pattern{Recursive: &RecursiveOptions{MaxDepth: intPtr(-1)}}, "negative"},
		{"unknown cycle policy", &Pattern{Recursive: &RecursiveOptions{CyclePolicy: "retry"}}, "cycle policy"},
		{"unknown truth operator", &Pattern{TruthOp: &bad}, "truth value operator"},
		{"inverted truth range", &Pattern{Truth: &TruthRange{Strength: &[2]float64{0.8, 0.2}}}, "strength range"},
		{"empty outgoing element", &Pattern{Outgoing: []Element{{}}}, "pattern.outgoing[0]"},
		{"nested location", &Pattern{Outgoing: []Element{Lit("a"), Sub(&Pattern{Operator: Or, Patterns: []*Pattern{Var("9")}})}}, "pattern.outgoing[1].patterns[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.pattern)
			require.Error(t, err)
			assert.True(t, errors.IsMalformedPatternError(err))
			assert.True(t, strings.Contains(err.Error(), tt.wantLoc), "error %q should mention %q", err, tt.wantLoc)
		})
	}

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, Validate(isMammal()))
		require.NoError(t, Validate(&Pattern{}))
		require.NoError(t, Validate(Var("_x9")))
		require.NoError(t, Validate(&Pattern{Recursive: &RecursiveOptions{MaxDepth: intPtr(0)}}))
	})

	t.Run("hints", func(t *testing.T) {
		err := Validate(Var("1x"))
		assert.NotEmpty(t, errors.GetAllHints(err))
	})
}
