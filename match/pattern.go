package match

import (
	"bytes"
	"encoding/json"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/teranos/atomspace/atom"
	"github.com/teranos/atomspace/truth"
)

// Operator combines sub-patterns against a single atom.
type Operator string

const (
	And Operator = "AND"
	Or  Operator = "OR"
	Not Operator = "NOT"
)

// CyclePolicy decides what happens when a traversal revisits an atom already
// on the current path.
type CyclePolicy string

const (
	// CycleDefault resolves to CycleReport when FollowLinks is set, CycleFail otherwise.
	CycleDefault CyclePolicy = ""
	// CycleFail treats the revisit as NoMatch.
	CycleFail CyclePolicy = "fail"
	// CycleReport records the cyclic path, stops descending and succeeds.
	CycleReport CyclePolicy = "report"
)

// Pattern is a declarative query over the atom graph. The zero Pattern
// matches every atom.
type Pattern struct {
	Type         atom.Type         `json:"type,omitempty" yaml:"type,omitempty"`
	Name         string            `json:"name,omitempty" yaml:"name,omitempty"`
	IsVariable   bool              `json:"isVariable,omitempty" yaml:"isVariable,omitempty"`
	VariableName string            `json:"variableName,omitempty" yaml:"variableName,omitempty"`
	Operator     Operator          `json:"operator,omitempty" yaml:"operator,omitempty"`
	Patterns     []*Pattern        `json:"patterns,omitempty" yaml:"patterns,omitempty"`
	Outgoing     []Element         `json:"outgoing,omitempty" yaml:"outgoing,omitempty"`
	Recursive    *RecursiveOptions `json:"recursive,omitempty" yaml:"recursive,omitempty"`
	Truth        *TruthRange       `json:"truthValue,omitempty" yaml:"truthValue,omitempty"`
	TruthOp      *truth.Operator   `json:"tvOperator,omitempty" yaml:"tvOperator,omitempty"`
}

// RecursiveOptions bound a traversal. Sub-patterns inherit the nearest
// enclosing options unless they set their own. FollowLinks re-applies the
// pattern that sets it to every outgoing target of each atom it matches,
// collecting whatever matches below.
type RecursiveOptions struct {
	MaxDepth     *int        `json:"maxDepth,omitempty" yaml:"maxDepth,omitempty"`
	FollowLinks  bool        `json:"followLinks,omitempty" yaml:"followLinks,omitempty"`
	DetectCycles bool        `json:"detectCycles,omitempty" yaml:"detectCycles,omitempty"`
	CyclePolicy  CyclePolicy `json:"cyclePolicy,omitempty" yaml:"cyclePolicy,omitempty"`
}

// Policy returns the effective cycle policy.
func (r *RecursiveOptions) Policy() CyclePolicy {
	if r.CyclePolicy != CycleDefault {
		return r.CyclePolicy
	}
	if r.FollowLinks {
		return CycleReport
	}
	return CycleFail
}

// TruthRange constrains an atom's truth value to closed intervals.
// Atoms without a truth value are compared as truth.Default().
type TruthRange struct {
	Strength   *[2]float64 `json:"strength,omitempty" yaml:"strength,omitempty"`
	Confidence *[2]float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
}

func (r *TruthRange) contains(tv truth.Value) bool {
	if r.Strength != nil && (tv.Strength < r.Strength[0] || tv.Strength > r.Strength[1]) {
		return false
	}
	if r.Confidence != nil && (tv.Confidence < r.Confidence[0] || tv.Confidence > r.Confidence[1]) {
		return false
	}
	return true
}

// Element is one position of a structural pattern: a literal atom id or a
// sub-pattern. In YAML and JSON a bare string is a literal id.
type Element struct {
	ID      string
	Pattern *Pattern
}

// Lit is a literal-id element.
func Lit(id string) Element { return Element{ID: id} }

// Sub is a sub-pattern element.
func Sub(p *Pattern) Element { return Element{Pattern: p} }

// Var is a variable pattern.
func Var(name string) *Pattern { return &Pattern{IsVariable: true, VariableName: name} }

func (e Element) MarshalJSON() ([]byte, error) {
	if e.Pattern != nil {
		return json.Marshal(e.Pattern)
	}
	return json.Marshal(e.ID)
}

func (e *Element) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &e.ID)
	}
	var p Pattern
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	e.Pattern = &p
	return nil
}

func (e Element) MarshalYAML() (interface{}, error) {
	if e.Pattern != nil {
		return e.Pattern, nil
	}
	return e.ID, nil
}

func (e *Element) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&e.ID)
	}
	var p Pattern
	if err := node.Decode(&p); err != nil {
		return err
	}
	e.Pattern = &p
	return nil
}

// ParsePattern decodes a YAML (or JSON, which is valid YAML) pattern and validates it.
func ParsePattern(data []byte) (*Pattern, error) {
	var p Pattern
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// String renders a compact form used in logs and CLI output,
// e.g. InheritanceLink(?X, {name:mammal}).
func (p *Pattern) String() string {
	if p == nil {
		return "<nil>"
	}
	var sb strings.Builder
	p.write(&sb)
	return sb.String()
}

func (p *Pattern) write(sb *strings.Builder) {
	switch {
	case p.IsVariable:
		sb.WriteString("?" + p.VariableName)
		if p.Type != "" {
			sb.WriteString(":" + string(p.Type))
		}
		return
	case p.Operator != "":
		sb.WriteString(string(p.Operator) + "(")
		for i, sub := range p.Patterns {
			if i > 0 {
				sb.WriteString(", ")
			}
			sub.write(sb)
		}
		sb.WriteString(")")
		return
	}

	switch {
	case p.Type != "" && p.Name != "":
		sb.WriteString(string(p.Type) + ":" + p.Name)
	case p.Type != "":
		sb.WriteString(string(p.Type))
	case p.Name != "":
		sb.WriteString("{name:" + p.Name + "}")
	case len(p.Outgoing) == 0:
		sb.WriteString("*")
	}
	if len(p.Outgoing) > 0 {
		sb.WriteString("(")
		for i, el := range p.Outgoing {
			if i > 0 {
				sb.WriteString(", ")
			}
			if el.Pattern != nil {
				el.Pattern.write(sb)
			} else {
				sb.WriteString(el.ID)
			}
		}
		sb.WriteString(")")
	}
}
