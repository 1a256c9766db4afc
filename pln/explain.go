package pln

import (
	"fmt"
	"strings"

	"github.com/teranos/atomspace/atom"
	"github.com/teranos/atomspace/errors"
	"github.com/teranos/atomspace/sym"
	"github.com/teranos/atomspace/truth"
)

// Derivation records how the engine last produced an atom.
type Derivation struct {
	AtomID     string      `json:"atomId"`
	Rule       string      `json:"rule"`
	Inputs     []string    `json:"inputs"`
	Step       int         `json:"step"`
	Support    int         `json:"support"` // tuples in the step that derived this id
	TruthValue truth.Value `json:"truthValue"`
}

// Explanation is a derivation tree. Asserted atoms have no Derivation.
type Explanation struct {
	Atom       atom.Atom      `json:"atom"`
	Derivation *Derivation    `json:"derivation,omitempty"`
	Premises   []*Explanation `json:"premises,omitempty"`
}

// Derivation returns the record for a derived atom.
func (e *Engine) Derivation(id string) (Derivation, bool) {
	e.histMu.RLock()
	defer e.histMu.RUnlock()
	d, ok := e.history[id]
	return d, ok
}

// Explain builds the derivation tree of id down to depth levels of premises.
func (e *Engine) Explain(id string, depth int) (*Explanation, error) {
	a, ok := e.store.GetAtom(id)
	if !ok {
		return nil, errors.NewNotFoundError("atom %s", id)
	}
	x := &Explanation{Atom: a}
	d, ok := e.Derivation(id)
	if !ok {
		return x, nil
	}
	x.Derivation = &d
	if depth <= 0 {
		return x, nil
	}
	for _, in := range d.Inputs {
		child, err := e.Explain(in, depth-1)
		if err != nil {
			// premise removed since the derivation
			child = &Explanation{Atom: atom.Atom{ID: in}}
		}
		x.Premises = append(x.Premises, child)
	}
	return x, nil
}

// String renders the tree, one atom per line, premises indented.
func (x *Explanation) String() string {
	var sb strings.Builder
	x.write(&sb, 0)
	return sb.String()
}

func (x *Explanation) write(sb *strings.Builder, indent int) {
	sb.WriteString(strings.Repeat("  ", indent))
	if x.Atom.Type == "" {
		fmt.Fprintf(sb, "%s (missing)\n", x.Atom.ID)
	} else if x.Derivation == nil {
		fmt.Fprintf(sb, "%s %s\n", x.Atom, "asserted")
	} else {
		fmt.Fprintf(sb, "%s %s %s (step %d)\n", x.Atom, sym.PLN, x.Derivation.Rule, x.Derivation.Step)
	}
	for _, p := range x.Premises {
		p.write(sb, indent+1)
	}
}
