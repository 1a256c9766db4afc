// Package store holds the atom graph: atoms indexed by id, type and incoming
// link, guarded by a single RWMutex.
//
// Readers that traverse the graph (the matcher, the inference engine) work on
// a Snapshot, an immutable view taken at one version of the store, so writers
// never disturb a traversal in progress. Writes are atomic per call: Commit
// and UpdateAttention apply a whole batch under one write lock or nothing.
package store

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/teranos/atomspace/am"
	"github.com/teranos/atomspace/atom"
	"github.com/teranos/atomspace/errors"
	"github.com/teranos/atomspace/logger"
	"github.com/teranos/atomspace/truth"
)

// Reader is the read-only view shared by Store and Snapshot.
// Atoms returned by a Reader must not be mutated.
type Reader interface {
	GetAtom(id string) (atom.Atom, bool)
	GetAtomsByType(t atom.Type) []atom.Atom
	// Incoming returns the links whose outgoing set contains id.
	Incoming(id string) []atom.Atom
	// All returns every atom ordered by id.
	All() []atom.Atom
	Len() int
	Version() uint64
}

// Store is the mutable atom graph.
type Store struct {
	mu       sync.RWMutex
	atoms    map[string]atom.Atom
	byType   map[atom.Type]map[string]struct{}
	incoming map[string]map[string]struct{}
	version  uint64
	snap     *Snapshot

	autoID bool
	log    *zap.SugaredLogger
}

// New creates an empty store. A nil logger falls back to the component logger.
func New(cfg am.StoreConfig, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = logger.ComponentLogger("store")
	}
	return &Store{
		atoms:    make(map[string]atom.Atom),
		byType:   make(map[atom.Type]map[string]struct{}),
		incoming: make(map[string]map[string]struct{}),
		autoID:   cfg.AutoID,
		log:      logger.AddStoreSymbol(log),
	}
}

// AddAtom inserts a or replaces the atom with the same id, returning the id.
// A replacement that carries no attention value keeps the stored one.
func (s *Store) AddAtom(a atom.Atom) (string, error) {
	ids, err := s.AddAtoms([]atom.Atom{a})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// AddAtoms inserts a batch atomically: if any atom is invalid nothing is stored.
func (s *Store) AddAtoms(atoms []atom.Atom) ([]string, error) {
	prepared, err := s.prepare(atoms)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, len(prepared))
	for i, a := range prepared {
		s.put(a)
		ids[i] = a.ID
	}
	s.version++
	s.log.Debugw("atoms added", logger.FieldCount, len(ids), "version", s.version)
	return ids, nil
}

// Commit writes atoms in one atomic batch and returns those that changed the
// graph: atoms whose id was absent, or whose truth value differs from the
// stored one. Re-committing an identical atom is a no-op.
func (s *Store) Commit(atoms []atom.Atom) ([]atom.Atom, error) {
	prepared, err := s.prepare(atoms)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var changed []atom.Atom
	for _, a := range prepared {
		old, exists := s.atoms[a.ID]
		if exists && sameContent(old, a) {
			continue
		}
		s.put(a)
		changed = append(changed, a.Clone())
	}
	if len(changed) > 0 {
		s.version++
	}
	s.log.Debugw("commit", logger.FieldCount, len(prepared), "changed", len(changed), "version", s.version)
	return changed, nil
}

// RemoveAtom deletes an atom. Links that still point at it keep their
// outgoing ids; matching treats the dangling reference as NoMatch.
func (s *Store) RemoveAtom(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.atoms[id]
	if !ok {
		return errors.NewNotFoundError("atom %s", id)
	}
	s.unindex(old)
	delete(s.atoms, id)
	s.version++
	s.log.Debugw("atom removed", logger.FieldAtomID, id, "version", s.version)
	return nil
}

// UpdateAttention sets the attention value of several atoms at once.
// Every id must exist; otherwise nothing is written.
func (s *Store) UpdateAttention(updates map[string]atom.AttentionValue) error {
	if len(updates) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range updates {
		if _, ok := s.atoms[id]; !ok {
			return errors.WithHint(errors.NewNotFoundError("attention update for atom %s", id),
				"attention can only be set on atoms already in the store")
		}
	}
	for id, av := range updates {
		a := s.atoms[id]
		v := av
		a.Attention = &v
		s.atoms[id] = a
	}
	s.version++
	return nil
}

// GetAtom returns a copy of the atom with the given id.
func (s *Store) GetAtom(id string) (atom.Atom, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.atoms[id]
	if !ok {
		return atom.Atom{}, false
	}
	return a.Clone(), true
}

// GetAtomsByType returns copies of every atom of type t, ordered by id.
func (s *Store) GetAtomsByType(t atom.Type) []atom.Atom {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byType[t])
}

// Incoming returns copies of the links pointing at id, ordered by id.
func (s *Store) Incoming(id string) []atom.Atom {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.incoming[id])
}

// All returns copies of every atom, ordered by id.
func (s *Store) All() []atom.Atom {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]atom.Atom, 0, len(s.atoms))
	for _, id := range sortedKeys(s.atoms) {
		out = append(out, s.atoms[id].Clone())
	}
	return out
}

// Len returns the number of atoms.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.atoms)
}

// Version increases on every write that changes the store.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns an immutable view of the current version. Snapshots are
// cached, so repeated calls between writes return the same view.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	if s.snap != nil && s.snap.version == s.version {
		snap := s.snap
		s.mu.RUnlock()
		return snap
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil || s.snap.version != s.version {
		s.snap = newSnapshot(s.atoms, s.version)
	}
	return s.snap
}

// prepare validates and clones a batch outside the lock.
func (s *Store) prepare(atoms []atom.Atom) ([]atom.Atom, error) {
	out := make([]atom.Atom, 0, len(atoms))
	for i, a := range atoms {
		a = a.Clone()
		if a.ID == "" {
			if !s.autoID {
				return nil, errors.WithHint(
					errors.Wrapf(errors.ErrInvalidAtom, "atom %d (%s) has no id", i, a.Type),
					"set store.auto_id = true to assign random ids")
			}
			a.ID = atom.NewID()
		}
		if err := validate(a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func validate(a atom.Atom) error {
	if a.Type == "" {
		return errors.Wrapf(errors.ErrInvalidAtom, "atom %s has no type", a.ID)
	}
	for i, target := range a.Outgoing {
		if target == "" {
			return errors.Wrapf(errors.ErrInvalidAtom, "atom %s: outgoing[%d] is empty", a.ID, i)
		}
	}
	if a.TruthValue != nil {
		if err := truth.Validate(*a.TruthValue); err != nil {
			return errors.Wrapf(err, "atom %s", a.ID)
		}
	}
	return nil
}

// put stores a, replacing any previous atom with the same id. Caller holds the write lock.
func (s *Store) put(a atom.Atom) {
	if old, ok := s.atoms[a.ID]; ok {
		if a.Attention == nil && old.Attention != nil {
			av := *old.Attention
			a.Attention = &av
		}
		s.unindex(old)
	}
	s.atoms[a.ID] = a

	ids := s.byType[a.Type]
	if ids == nil {
		ids = make(map[string]struct{})
		s.byType[a.Type] = ids
	}
	ids[a.ID] = struct{}{}

	for _, target := range a.Outgoing {
		in := s.incoming[target]
		if in == nil {
			in = make(map[string]struct{})
			s.incoming[target] = in
		}
		in[a.ID] = struct{}{}
	}
}

func (s *Store) unindex(a atom.Atom) {
	if ids := s.byType[a.Type]; ids != nil {
		delete(ids, a.ID)
		if len(ids) == 0 {
			delete(s.byType, a.Type)
		}
	}
	for _, target := range a.Outgoing {
		if in := s.incoming[target]; in != nil {
			delete(in, a.ID)
			if len(in) == 0 {
				delete(s.incoming, target)
			}
		}
	}
}

func (s *Store) collect(ids map[string]struct{}) []atom.Atom {
	out := make([]atom.Atom, 0, len(ids))
	for _, id := range sortedKeys(ids) {
		out = append(out, s.atoms[id].Clone())
	}
	return out
}

// sameContent compares everything a derivation can change.
func sameContent(old, a atom.Atom) bool {
	if old.Type != a.Type || old.Name != a.Name || len(old.Outgoing) != len(a.Outgoing) {
		return false
	}
	for i := range old.Outgoing {
		if old.Outgoing[i] != a.Outgoing[i] {
			return false
		}
	}
	switch {
	case old.TruthValue == nil && a.TruthValue == nil:
		return true
	case old.TruthValue == nil || a.TruthValue == nil:
		return false
	default:
		return old.TruthValue.Equal(*a.TruthValue)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
