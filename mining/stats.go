package mining

import (
	"github.com/teranos/atomspace/atom"
	"github.com/teranos/atomspace/match"
)

// Stats summarises a mining run.
type Stats struct {
	Total                  int               `json:"total"`
	AverageSupport         float64           `json:"averageSupport"`
	AverageConfidence      float64           `json:"averageConfidence"`
	AverageInterestingness float64           `json:"averageInterestingness"`
	Sizes                  map[int]int       `json:"sizes"`
	Types                  map[atom.Type]int `json:"types"` // patterns mentioning each type
}

// Summarize computes Stats over ms.
func Summarize(ms []Mined) Stats {
	st := Stats{
		Total: len(ms),
		Sizes: make(map[int]int),
		Types: make(map[atom.Type]int),
	}
	if len(ms) == 0 {
		return st
	}
	for _, m := range ms {
		st.AverageSupport += m.Support
		st.AverageConfidence += m.Confidence
		st.AverageInterestingness += m.Interestingness
		st.Sizes[m.Size]++
		for t := range typesOf(m.Pattern, nil) {
			st.Types[t]++
		}
	}
	n := float64(len(ms))
	st.AverageSupport /= n
	st.AverageConfidence /= n
	st.AverageInterestingness /= n
	return st
}

func typesOf(p *match.Pattern, acc map[atom.Type]bool) map[atom.Type]bool {
	if acc == nil {
		acc = make(map[atom.Type]bool)
	}
	if p == nil {
		return acc
	}
	if p.Type != "" {
		acc[p.Type] = true
	}
	for _, sub := range p.Patterns {
		typesOf(sub, acc)
	}
	for _, el := range p.Outgoing {
		typesOf(el.Pattern, acc)
	}
	return acc
}
