// Package atom defines the node and link records held by the atom space.
package atom

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/teranos/atomspace/truth"
)

// Type is an open tag: the constants below are the types the built-in rules
// understand, but any string is a valid type.
type Type string

// Node types
const (
	ConceptNode   Type = "ConceptNode"
	PredicateNode Type = "PredicateNode"
	VariableNode  Type = "VariableNode"
	SchemaNode    Type = "SchemaNode"
	TypeNode      Type = "TypeNode"
	TimeNode      Type = "TimeNode" // name is a numeric timestamp
)

// Link types
const (
	ListLink        Type = "ListLink"
	EvaluationLink  Type = "EvaluationLink"
	InheritanceLink Type = "InheritanceLink"
	ImplicationLink Type = "ImplicationLink"
	SimilarityLink  Type = "SimilarityLink"
	EquivalenceLink Type = "EquivalenceLink"
	SubsetLink      Type = "SubsetLink"
	AndLink         Type = "AndLink"
	OrLink          Type = "OrLink"
	ContextLink     Type = "ContextLink"
	HebbianLink     Type = "HebbianLink"
	MemberLink      Type = "MemberLink"
)

// Temporal link types
const (
	AtTimeLink                Type = "AtTimeLink" // AtTimeLink(event, TimeNode)
	BeforeLink                Type = "BeforeLink"
	PredictiveImplicationLink Type = "PredictiveImplicationLink"
)

// Atom is a typed, identified node or link.
type Atom struct {
	ID         string          `json:"id" yaml:"id" toml:"id"`
	Type       Type            `json:"type" yaml:"type" toml:"type"`
	Name       string          `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`                   // empty for links
	Outgoing   []string        `json:"outgoing,omitempty" yaml:"outgoing,omitempty" toml:"outgoing,omitempty"`       // empty for nodes
	TruthValue *truth.Value    `json:"truthValue,omitempty" yaml:"truthValue,omitempty" toml:"truthValue,omitempty"` // optional
	Attention  *AttentionValue `json:"attentionValue,omitempty" yaml:"attentionValue,omitempty" toml:"attentionValue,omitempty"`
}

// AttentionValue is the importance annotation maintained by the attention bank.
type AttentionValue struct {
	STI  float64 `json:"sti" yaml:"sti" toml:"sti"`    // short-term importance
	LTI  float64 `json:"lti" yaml:"lti" toml:"lti"`                                                                  // long-term importance
	VLTI bool    `json:"vlti" yaml:"vlti" toml:"vlti"` // protected from decay
}

// IsLink reports whether the atom is a link.
func (a Atom) IsLink() bool {
	return len(a.Outgoing) > 0 || strings.HasSuffix(string(a.Type), "Link")
}

// TV returns the truth value, or truth.Default() when the atom has none.
func (a Atom) TV() truth.Value {
	if a.TruthValue == nil {
		return truth.Default()
	}
	return *a.TruthValue
}

// STI returns the short-term importance, zero when unset.
func (a Atom) STI() float64 {
	if a.Attention == nil {
		return 0
	}
	return a.Attention.STI
}

// Clone returns a deep copy; the store hands out clones so callers can
// never mutate stored atoms.
func (a Atom) Clone() Atom {
	c := a
	if a.Outgoing != nil {
		c.Outgoing = append([]string(nil), a.Outgoing...)
	}
	if a.TruthValue != nil {
		tv := *a.TruthValue
		c.TruthValue = &tv
	}
	if a.Attention != nil {
		av := *a.Attention
		c.Attention = &av
	}
	return c
}

func (a Atom) String() string {
	label := a.Name
	if a.IsLink() {
		label = "[" + strings.Join(a.Outgoing, ", ") + "]"
	}
	if a.TruthValue != nil {
		return fmt.Sprintf("%s(%s) %s", a.Type, label, a.TruthValue)
	}
	return fmt.Sprintf("%s(%s)", a.Type, label)
}

// namespace scopes derived ids so they cannot collide with ids from other UUIDv5 users.
var namespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("atomspace.derived"))

// DerivedID is the deterministic id of an atom produced by rule from inputs.
// Re-deriving from the same inputs yields the same id, so derivations merge.
func DerivedID(rule string, inputs ...string) string {
	key := rule + "\x00" + strings.Join(inputs, "\x00")
	return uuid.NewSHA1(namespace, []byte(key)).String()
}

// NewID returns a random id for atoms inserted without one.
func NewID() string {
	return uuid.New().String()
}

// Node builds a node atom.
func Node(t Type, id, name string, tv *truth.Value) Atom {
	return Atom{ID: id, Type: t, Name: name, TruthValue: tv}
}

// Link builds a link atom.
func Link(t Type, id string, tv *truth.Value, outgoing ...string) Atom {
	return Atom{ID: id, Type: t, Outgoing: outgoing, TruthValue: tv}
}

// TVPtr is a convenience for literal truth values.
func TVPtr(strength, confidence float64) *truth.Value {
	tv := truth.Value{Strength: strength, Confidence: confidence}
	return &tv
}
