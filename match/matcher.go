// Package match implements the recursive, binding-aware pattern matcher.
//
// Matching is bounded and non-backtracking: each branch is evaluated once in
// a fixed order (recursion guard, variable, type/name filter, logical
// operator, structure, fallback) and a failed branch is never retried with
// different earlier bindings. A nil *Result with a nil error means NoMatch;
// errors are reserved for malformed patterns, conflicting AND bindings and
// cancellation.
package match

import (
	"context"
	"maps"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/atomspace/atom"
	"github.com/teranos/atomspace/errors"
	"github.com/teranos/atomspace/logger"
	"github.com/teranos/atomspace/store"
	"github.com/teranos/atomspace/truth"
)

// Bindings maps variable names to atom ids. Bindings are never mutated once
// handed out; binding a variable returns a new map.
type Bindings map[string]string

func (b Bindings) with(name, id string) Bindings {
	out := make(Bindings, len(b)+1)
	maps.Copy(out, b)
	out[name] = id
	return out
}

// Result is a successful match rooted at Atoms[0].
type Result struct {
	Atoms       []atom.Atom  `json:"atoms"`
	Bindings    Bindings     `json:"bindings"`
	Depth       int          `json:"depth"`
	CyclicPaths [][]string   `json:"cyclicPaths,omitempty"`
	TruthValue  *truth.Value `json:"truthValue,omitempty"`
}

// Root is the atom the match started from.
func (r *Result) Root() atom.Atom {
	return r.Atoms[0]
}

// Options configure a Matcher.
type Options struct {
	// MaxCalls caps recursive calls per root; 0 means unbounded. Exceeding
	// the cap ends that root as NoMatch.
	MaxCalls int
	Logger   *zap.SugaredLogger
}

// Snapshotter is implemented by readers that can hand out a stable view.
type Snapshotter interface {
	Snapshot() *store.Snapshot
}

// Matcher evaluates patterns against a store view.
type Matcher struct {
	source store.Reader
	opts   Options
	log    *zap.SugaredLogger
}

// New creates a matcher over source. When source is a *store.Store (or any
// Snapshotter) every call reads from a fresh snapshot.
func New(source store.Reader, opts Options) *Matcher {
	log := opts.Logger
	if log == nil {
		log = logger.ComponentLogger("match")
	}
	return &Matcher{source: source, opts: opts, log: logger.AddMatchSymbol(log)}
}

func (m *Matcher) view() store.Reader {
	if s, ok := m.source.(Snapshotter); ok {
		return s.Snapshot()
	}
	return m.source
}

// Match evaluates p against a single atom, starting from the given bindings
// (which are not modified). A nil result with a nil error is NoMatch.
func (m *Matcher) Match(ctx context.Context, a atom.Atom, p *Pattern, bindings Bindings) (*Result, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	return m.matchRoot(ctx, m.view(), a, p, bindings)
}

func (m *Matcher) matchRoot(ctx context.Context, view store.Reader, a atom.Atom, p *Pattern, bindings Bindings) (*Result, error) {
	if bindings == nil {
		bindings = Bindings{}
	}
	r := &run{ctx: ctx, view: view, maxCalls: m.opts.MaxCalls}
	res, err := r.match(a, p, bindings, frame{})
	if errors.Is(err, errRunaway) {
		m.log.Debugw("match abandoned: call budget exhausted",
			logger.FieldAtomID, a.ID,
			logger.FieldPattern, p.String(),
			"max_calls", m.opts.MaxCalls)
		return nil, nil
	}
	if err != nil || res == nil {
		return nil, err
	}
	if p.TruthOp != nil {
		res.TruthValue = combineTruth(res.Atoms, *p.TruthOp)
	}
	return res, nil
}

// combineTruth folds the truth values of the matched atoms that carry one.
func combineTruth(atoms []atom.Atom, op truth.Operator) *truth.Value {
	var tvs []truth.Value
	for _, a := range atoms {
		if a.TruthValue != nil {
			tvs = append(tvs, *a.TruthValue)
		}
	}
	tv, ok := truth.Fold(op, tvs...)
	if !ok {
		return nil
	}
	return &tv
}

var errRunaway = errors.New("match call budget exhausted")

// path is the immutable chain of atom ids from the root to the current atom.
type path struct {
	id     string
	parent *path
}

func (p *path) push(id string) *path { return &path{id: id, parent: p} }

func (p *path) contains(id string) bool {
	for n := p; n != nil; n = n.parent {
		if n.id == id {
			return true
		}
	}
	return false
}

// ids returns the path root first.
func (p *path) ids() []string {
	var out []string
	for n := p; n != nil; n = n.parent {
		out = append(out, n.id)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// frame is the per-call context, passed by value.
type frame struct {
	depth   int
	visited *path
	rec     *RecursiveOptions
}

type run struct {
	ctx      context.Context
	view     store.Reader
	calls    int
	maxCalls int
}

func (r *run) match(a atom.Atom, p *Pattern, b Bindings, f frame) (*Result, error) {
	if err := r.ctx.Err(); err != nil {
		return nil, err
	}
	r.calls++
	if r.maxCalls > 0 && r.calls > r.maxCalls {
		return nil, errRunaway
	}
	if p.Recursive != nil {
		f.rec = p.Recursive
	}

	// 1. recursion guard
	if rec := f.rec; rec != nil {
		if rec.MaxDepth != nil && f.depth > *rec.MaxDepth {
			return nil, nil
		}
		if rec.DetectCycles && f.visited.contains(a.ID) {
			if rec.Policy() == CycleFail {
				return nil, nil
			}
			return &Result{
				Atoms:       []atom.Atom{a},
				Bindings:    b,
				Depth:       f.depth,
				CyclicPaths: [][]string{append(f.visited.ids(), a.ID)},
			}, nil
		}
	}

	res, err := r.matchAtom(a, p, b, f)
	if err != nil || res == nil {
		return res, err
	}
	if p.Recursive != nil && p.Recursive.FollowLinks && len(a.Outgoing) > 0 {
		return r.followLinks(a, p, res, f)
	}
	return res, nil
}

// matchAtom evaluates p against a alone, after the recursion guard.
func (r *run) matchAtom(a atom.Atom, p *Pattern, b Bindings, f frame) (*Result, error) {
	// 2. variable binding
	if p.IsVariable {
		if p.VariableName == "" || !passesFilter(a, p) {
			return nil, nil
		}
		if bound, ok := b[p.VariableName]; ok {
			if bound != a.ID {
				return nil, nil
			}
			return leaf(a, b, f), nil
		}
		return leaf(a, b.with(p.VariableName, a.ID), f), nil
	}

	// 3. type/name filter
	if !passesFilter(a, p) {
		return nil, nil
	}

	// 4. logical composition
	switch p.Operator {
	case And:
		return r.matchAnd(a, p, b, f)
	case Or:
		for _, sub := range p.Patterns {
			res, err := r.match(a, sub, b, f)
			if err != nil || res != nil {
				return res, err
			}
		}
		return nil, nil
	case Not:
		res, err := r.match(a, p.Patterns[0], b, f)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return nil, nil
		}
		return leaf(a, b, f), nil
	}

	// 5. structural match
	if len(p.Outgoing) > 0 {
		return r.matchOutgoing(a, p, b, f)
	}

	// 6. fallback
	return leaf(a, b, f), nil
}

// followLinks re-applies the pattern that set FollowLinks to every outgoing
// target of an atom it already matched, one level deeper with the atom on the
// visited path. Targets that do not match are skipped; the atom's own match
// stands. Bindings found below are added where the atom's match left the
// variable unbound. Without cycle detection, targets already on the path are
// not revisited.
func (r *run) followLinks(a atom.Atom, p *Pattern, res *Result, f frame) (*Result, error) {
	child := frame{depth: f.depth + 1, visited: f.visited.push(a.ID), rec: f.rec}
	out := &Result{
		Atoms:       res.Atoms,
		Bindings:    res.Bindings,
		Depth:       res.Depth,
		CyclicPaths: res.CyclicPaths,
	}
	seen := make(map[string]bool, len(out.Atoms))
	for _, m := range out.Atoms {
		seen[m.ID] = true
	}
	cycles := make(map[string]bool)
	for _, c := range out.CyclicPaths {
		cycles[strings.Join(c, "\x00")] = true
	}

	for _, id := range a.Outgoing {
		target, ok := r.view.GetAtom(id)
		if !ok {
			continue
		}
		if !f.rec.DetectCycles && child.visited.contains(target.ID) {
			continue
		}
		sub, err := r.match(target, p, res.Bindings, child)
		if err != nil {
			return nil, err
		}
		if sub == nil {
			continue
		}
		for _, m := range sub.Atoms {
			if !seen[m.ID] {
				seen[m.ID] = true
				out.Atoms = append(out.Atoms, m)
			}
		}
		for name, v := range sub.Bindings {
			if _, ok := out.Bindings[name]; !ok {
				out.Bindings = out.Bindings.with(name, v)
			}
		}
		for _, c := range sub.CyclicPaths {
			if key := strings.Join(c, "\x00"); !cycles[key] {
				cycles[key] = true
				out.CyclicPaths = append(out.CyclicPaths, c)
			}
		}
		out.Depth = max(out.Depth, sub.Depth)
	}
	return out, nil
}

func passesFilter(a atom.Atom, p *Pattern) bool {
	if p.Type != "" && p.Type != a.Type {
		return false
	}
	if p.Name != "" && p.Name != a.Name {
		return false
	}
	if p.Truth != nil && !p.Truth.contains(a.TV()) {
		return false
	}
	return true
}

func leaf(a atom.Atom, b Bindings, f frame) *Result {
	return &Result{Atoms: []atom.Atom{a}, Bindings: b, Depth: f.depth}
}

// matchAnd runs every branch against the same atom with the same frame.
// Branches binding one variable to different atoms are an error, not a
// silent overwrite.
func (r *run) matchAnd(a atom.Atom, p *Pattern, b Bindings, f frame) (*Result, error) {
	out := &Result{Bindings: b, Depth: f.depth}
	seen := make(map[string]bool)
	merged := b
	for i, sub := range p.Patterns {
		res, err := r.match(a, sub, b, f)
		if err != nil || res == nil {
			return nil, err
		}
		for name, id := range res.Bindings {
			prev, ok := merged[name]
			if !ok {
				merged = merged.with(name, id)
				continue
			}
			if prev != id {
				return nil, errors.WithDetailf(
					errors.Wrapf(errors.ErrConflictingBinding, "AND branch %d binds ?%s", i, name),
					"?%s bound to %s and %s on atom %s", name, prev, id, a.ID)
			}
		}
		for _, m := range res.Atoms {
			if !seen[m.ID] {
				seen[m.ID] = true
				out.Atoms = append(out.Atoms, m)
			}
		}
		out.Depth = max(out.Depth, res.Depth)
		out.CyclicPaths = append(out.CyclicPaths, res.CyclicPaths...)
	}
	out.Bindings = merged
	return out, nil
}

// matchOutgoing compares positions left to right, threading bindings.
func (r *run) matchOutgoing(a atom.Atom, p *Pattern, b Bindings, f frame) (*Result, error) {
	if len(a.Outgoing) != len(p.Outgoing) {
		return nil, nil
	}
	child := frame{depth: f.depth + 1, visited: f.visited.push(a.ID), rec: f.rec}
	out := &Result{Atoms: []atom.Atom{a}, Depth: f.depth}
	cur := b
	for i, el := range p.Outgoing {
		target, ok := r.view.GetAtom(a.Outgoing[i])
		if !ok {
			return nil, nil
		}
		if el.Pattern == nil {
			if el.ID != target.ID {
				return nil, nil
			}
			out.Atoms = append(out.Atoms, target)
			out.Depth = max(out.Depth, child.depth)
			continue
		}
		res, err := r.match(target, el.Pattern, cur, child)
		if err != nil || res == nil {
			return nil, err
		}
		cur = res.Bindings
		out.Atoms = append(out.Atoms, res.Atoms...)
		out.Depth = max(out.Depth, res.Depth)
		out.CyclicPaths = append(out.CyclicPaths, res.CyclicPaths...)
	}
	out.Bindings = cur
	return out, nil
}
