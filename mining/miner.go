// Package mining discovers frequent structural patterns in a store. It is a
// client of the matcher: candidate patterns are generated from the atom
// types present and scored by matching them against one snapshot.
package mining

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/atomspace/am"
	"github.com/teranos/atomspace/atom"
	"github.com/teranos/atomspace/errors"
	"github.com/teranos/atomspace/logger"
	"github.com/teranos/atomspace/match"
	"github.com/teranos/atomspace/store"
)

// Interestingness measures.
const (
	Frequency              = "frequency"
	Surprisingness         = "surprisingness"
	MutualInformation      = "mutual-information"
	InteractionInformation = "interaction-information"
)

// confidentInstance is the truth confidence every atom of an instance needs
// to count towards a pattern's confidence.
const confidentInstance = 0.5

// Mined is one pattern that met the support and confidence thresholds.
type Mined struct {
	Pattern         *match.Pattern `json:"pattern"`
	Size            int            `json:"size"`
	Support         float64        `json:"support"`
	Confidence      float64        `json:"confidence"`
	Interestingness float64        `json:"interestingness"`
	Instances       [][]string     `json:"instances"` // matched atom ids, root first
}

// Options configure a Miner.
type Options struct {
	Config      am.MiningConfig
	Parallelism int
	MaxCalls    int
	Logger      *zap.SugaredLogger
}

// Miner mines one store.
type Miner struct {
	source      store.Reader
	cfg         am.MiningConfig
	parallelism int
	maxCalls    int
	log         *zap.SugaredLogger
}

// New creates a miner over source.
func New(source store.Reader, opts Options) *Miner {
	log := opts.Logger
	if log == nil {
		log = logger.ComponentLogger("mining")
	}
	return &Miner{
		source:      source,
		cfg:         opts.Config,
		parallelism: max(opts.Parallelism, 1),
		maxCalls:    opts.MaxCalls,
		log:         log,
	}
}

// candidate is a generated pattern with the type patterns it is built from.
type candidate struct {
	pattern *match.Pattern
	size    int
	parts   []atom.Type // link type then argument types; empty for single types
}

type scored struct {
	candidate
	support    float64
	confidence float64
	instances  [][]string
}

// Mine generates and scores candidate patterns, returning those with support
// >= MinSupport and confidence >= MinConfidence, most interesting first,
// truncated to MaxPatterns.
//
// Size-1 candidates are the single atom types. Size-k candidates, up to
// MaxPatternSize, are typed link patterns L(?X:T0, ?Y:T1, ...) of arity k
// built from frequent types only.
func (m *Miner) Mine(ctx context.Context) ([]Mined, error) {
	start := time.Now()
	var view store.Reader = m.source
	if s, ok := m.source.(match.Snapshotter); ok {
		view = s.Snapshot()
	}
	total := view.Len()
	if total == 0 {
		return []Mined{}, nil
	}
	matcher := match.New(view, match.Options{MaxCalls: m.maxCalls, Logger: m.log})

	counts := make(map[atom.Type]int)
	for _, a := range view.All() {
		counts[a.Type]++
	}
	typeSupport := make(map[atom.Type]float64, len(counts))
	for t, n := range counts {
		typeSupport[t] = float64(n) / float64(total)
	}

	var cands []candidate
	for _, t := range sortedTypes(typeSupport) {
		if typeSupport[t] >= m.cfg.MinSupport {
			cands = append(cands, candidate{pattern: &match.Pattern{Type: t}, size: 1})
		}
	}
	if m.cfg.MaxPatternSize > 1 {
		cands = append(cands, m.linkCandidates(view, typeSupport)...)
	}

	var kept []scored
	for _, c := range cands {
		s, err := m.score(ctx, matcher, c, total)
		if err != nil {
			return nil, errors.Wrapf(err, "scoring %s", c.pattern)
		}
		if s.support >= m.cfg.MinSupport && s.confidence >= m.cfg.MinConfidence {
			kept = append(kept, s)
		}
	}

	out := make([]Mined, len(kept))
	for i, s := range kept {
		out[i] = Mined{
			Pattern:         s.pattern,
			Size:            s.size,
			Support:         s.support,
			Confidence:      s.confidence,
			Interestingness: m.interestingness(view, s, typeSupport),
			Instances:       s.instances,
		}
	}
	rank(out)
	if m.cfg.MaxPatterns > 0 && len(out) > m.cfg.MaxPatterns {
		out = out[:m.cfg.MaxPatterns]
	}

	m.log.Infow("mining complete",
		"candidates", len(cands),
		logger.FieldCount, len(out),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return out, nil
}

// linkCandidates collects the distinct typed signatures of links whose arity
// fits MaxPatternSize and whose link and argument types are all frequent.
func (m *Miner) linkCandidates(view store.Reader, typeSupport map[atom.Type]float64) []candidate {
	frequent := func(t atom.Type) bool { return typeSupport[t] >= m.cfg.MinSupport }

	seen := make(map[string]bool)
	var out []candidate
	for _, a := range view.All() {
		k := len(a.Outgoing)
		if k < 2 || k > m.cfg.MaxPatternSize || !frequent(a.Type) {
			continue
		}
		parts := []atom.Type{a.Type}
		ok := true
		for _, id := range a.Outgoing {
			target, found := view.GetAtom(id)
			if !found || !frequent(target.Type) {
				ok = false
				break
			}
			parts = append(parts, target.Type)
		}
		if !ok {
			continue
		}
		p := signature(parts)
		key := p.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, candidate{pattern: p, size: k, parts: parts})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].size != out[j].size {
			return out[i].size < out[j].size
		}
		return out[i].pattern.String() < out[j].pattern.String()
	})
	return out
}

// signature builds L(?X:T0, ?Y:T1, ...) from [L, T0, T1, ...].
func signature(parts []atom.Type) *match.Pattern {
	p := &match.Pattern{Type: parts[0]}
	for i, t := range parts[1:] {
		p.Outgoing = append(p.Outgoing, match.Sub(&match.Pattern{
			IsVariable:   true,
			VariableName: varName(i),
			Type:         t,
		}))
	}
	return p
}

func varName(i int) string {
	if i < 3 {
		return string(rune('X' + i))
	}
	return fmt.Sprintf("V%d", i)
}

func (m *Miner) score(ctx context.Context, matcher *match.Matcher, c candidate, total int) (scored, error) {
	results, err := matcher.FindPatterns(ctx, c.pattern, match.WithParallelism(m.parallelism))
	if err != nil {
		return scored{}, err
	}
	s := scored{candidate: c, instances: make([][]string, 0, len(results))}
	confident := 0
	for _, res := range results {
		ids := make([]string, len(res.Atoms))
		all := true
		for i, a := range res.Atoms {
			ids[i] = a.ID
			if a.TruthValue == nil || a.TruthValue.Confidence <= confidentInstance {
				all = false
			}
		}
		if all {
			confident++
		}
		s.instances = append(s.instances, ids)
	}
	// FindPatterns orders by importance; instances are reported by root id.
	sort.Slice(s.instances, func(i, j int) bool { return s.instances[i][0] < s.instances[j][0] })

	s.support = float64(len(results)) / float64(total)
	if len(results) > 0 {
		s.confidence = float64(confident) / float64(len(results))
	}
	return s, nil
}

// interestingness scores a pattern. Frequency is its support. The other
// measures compare a link signature's support (the joint) with the supports
// of its parts and score single types zero:
//
//   - surprisingness: |joint - product of the link and argument type supports|
//   - mutual-information: joint·log2(joint / (p1·p2)) over the two argument
//     type supports; zero unless the signature is binary
//   - interaction-information: |joint - Σ p_i + Σ p_ij| where p_i are the
//     argument type supports and p_ij the share of atoms that are links of
//     the same type and arity with types T_i and T_j at positions i and j
func (m *Miner) interestingness(view store.Reader, s scored, typeSupport map[atom.Type]float64) float64 {
	switch m.cfg.Interestingness {
	case Surprisingness:
		if len(s.parts) == 0 {
			return 0
		}
		expected := 1.0
		for _, t := range s.parts {
			expected *= typeSupport[t]
		}
		return math.Abs(s.support - expected)
	case MutualInformation:
		if len(s.parts) != 3 || s.support == 0 {
			return 0
		}
		p1, p2 := typeSupport[s.parts[1]], typeSupport[s.parts[2]]
		if p1 == 0 || p2 == 0 {
			return 0
		}
		return s.support * math.Log2(s.support/(p1*p2))
	case InteractionInformation:
		if len(s.parts) < 3 {
			return 0
		}
		args := s.parts[1:]
		ii := s.support
		for _, t := range args {
			ii -= typeSupport[t]
		}
		for i := range args {
			for j := i + 1; j < len(args); j++ {
				ii += pairSupport(view, s.parts[0], args, i, j)
			}
		}
		return math.Abs(ii)
	default:
		return s.support
	}
}

// pairSupport is the share of atoms that are links of type l with
// len(args) targets, args[i] typed at position i and args[j] at j.
func pairSupport(view store.Reader, l atom.Type, args []atom.Type, i, j int) float64 {
	total := view.Len()
	if total == 0 {
		return 0
	}
	n := 0
	for _, a := range view.GetAtomsByType(l) {
		if len(a.Outgoing) != len(args) {
			continue
		}
		ti, ok1 := view.GetAtom(a.Outgoing[i])
		tj, ok2 := view.GetAtom(a.Outgoing[j])
		if ok1 && ok2 && ti.Type == args[i] && tj.Type == args[j] {
			n++
		}
	}
	return float64(n) / float64(total)
}

// rank orders by interestingness, then support, then confidence, all
// descending, then by pattern text.
func rank(ms []Mined) {
	sort.SliceStable(ms, func(i, j int) bool {
		a, b := ms[i], ms[j]
		if a.Interestingness != b.Interestingness {
			return a.Interestingness > b.Interestingness
		}
		if a.Support != b.Support {
			return a.Support > b.Support
		}
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.Pattern.String() < b.Pattern.String()
	})
}

func sortedTypes(m map[atom.Type]float64) []atom.Type {
	out := make([]atom.Type, 0, len(m))
	for t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
