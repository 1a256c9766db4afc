package pln

import (
	"sort"

	"github.com/teranos/atomspace/atom"
	"github.com/teranos/atomspace/internal/util"
)

// plan is one rule's candidate tuples for a step.
type plan struct {
	rule   *Rule
	tuples [][]atom.Atom
	score  float64
}

// importance maps STI into [0,1] relative to the STI range of the pool.
// Atoms without attention score 0.
type importance struct {
	min, max float64
}

func newImportance(pool []atom.Atom) importance {
	var im importance
	first := true
	for _, a := range pool {
		if a.Attention == nil {
			continue
		}
		if first || a.Attention.STI < im.min {
			im.min = a.Attention.STI
		}
		if first || a.Attention.STI > im.max {
			im.max = a.Attention.STI
		}
		first = false
	}
	return im
}

func (im importance) of(a atom.Atom) float64 {
	if a.Attention == nil {
		return 0
	}
	if im.max <= im.min {
		return 1
	}
	return util.Clamp01((a.Attention.STI - im.min) / (im.max - im.min))
}

// tupleScore is the mean premise importance plus the mean premise
// strength·confidence.
func (im importance) tupleScore(tuple []atom.Atom) float64 {
	if len(tuple) == 0 {
		return 0
	}
	var imp, sig float64
	for _, a := range tuple {
		imp += im.of(a)
		if a.TruthValue != nil {
			sig += a.TruthValue.Significance()
		}
	}
	n := float64(len(tuple))
	return imp/n + sig/n
}

// weigh orders plans by category priority plus the score of their best
// tuple, and each plan's tuples best first. Equal scores keep registry
// order.
func weigh(plans []plan, pool []atom.Atom) {
	im := newImportance(pool)
	for i := range plans {
		p := &plans[i]
		scores := make([]float64, len(p.tuples))
		for j, t := range p.tuples {
			scores[j] = im.tupleScore(t)
		}
		idx := make([]int, len(p.tuples))
		for j := range idx {
			idx[j] = j
		}
		sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })
		sorted := make([][]atom.Atom, len(idx))
		for j, k := range idx {
			sorted[j] = p.tuples[k]
		}
		p.tuples = sorted
		p.score = p.rule.Category.Priority()
		if len(idx) > 0 {
			p.score += scores[idx[0]]
		}
	}
	sort.SliceStable(plans, func(i, j int) bool { return plans[i].score > plans[j].score })
}
