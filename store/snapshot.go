package store

import (
	"github.com/teranos/atomspace/atom"
)

// Snapshot is an immutable view of the store at one version.
// It is safe for concurrent use without locking.
type Snapshot struct {
	version  uint64
	atoms    map[string]atom.Atom
	ordered  []atom.Atom
	byType   map[atom.Type][]atom.Atom
	incoming map[string][]atom.Atom
}

func newSnapshot(src map[string]atom.Atom, version uint64) *Snapshot {
	snap := &Snapshot{
		version:  version,
		atoms:    make(map[string]atom.Atom, len(src)),
		ordered:  make([]atom.Atom, 0, len(src)),
		byType:   make(map[atom.Type][]atom.Atom),
		incoming: make(map[string][]atom.Atom),
	}
	for _, id := range sortedKeys(src) {
		a := src[id].Clone()
		snap.atoms[id] = a
		snap.ordered = append(snap.ordered, a)
		snap.byType[a.Type] = append(snap.byType[a.Type], a)
		seen := make(map[string]bool, len(a.Outgoing))
		for _, target := range a.Outgoing {
			if seen[target] {
				continue
			}
			seen[target] = true
			snap.incoming[target] = append(snap.incoming[target], a)
		}
	}
	return snap
}

func (s *Snapshot) GetAtom(id string) (atom.Atom, bool) {
	a, ok := s.atoms[id]
	return a, ok
}

func (s *Snapshot) GetAtomsByType(t atom.Type) []atom.Atom {
	return s.byType[t]
}

func (s *Snapshot) Incoming(id string) []atom.Atom {
	return s.incoming[id]
}

func (s *Snapshot) All() []atom.Atom {
	return s.ordered
}

func (s *Snapshot) Len() int {
	return len(s.ordered)
}

func (s *Snapshot) Version() uint64 {
	return s.version
}

var (
	_ Reader = (*Store)(nil)
	_ Reader = (*Snapshot)(nil)
)
