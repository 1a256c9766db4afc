package ecan

import (
	"context"

	"github.com/teranos/atomspace/atom"
	"github.com/teranos/atomspace/errors"
	"github.com/teranos/atomspace/internal/util"
	"github.com/teranos/atomspace/logger"
	"github.com/teranos/atomspace/store"
	"github.com/teranos/atomspace/truth"
)

// coActivation is the normalised STI both ends of a pair must exceed.
const coActivation = 0.5

// HebbianID is the id of the HebbianLink the bank maintains from src to tgt.
func HebbianID(src, tgt string) string {
	return atom.DerivedID("hebbian", src, tgt)
}

// UpdateHebbianLinks strengthens HebbianLink(L, T) for every link L and
// outgoing target T that are co-activated, creating the link when neither
// orientation exists, and decays every other HebbianLink. It returns the links written.
func (b *Bank) UpdateHebbianLinks(ctx context.Context) ([]atom.Atom, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.updateHebbian(ctx, b.store.Snapshot())
}

func (b *Bank) updateHebbian(ctx context.Context, snap *store.Snapshot) ([]atom.Atom, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hebbians := snap.GetAtomsByType(atom.HebbianLink)
	existing := make(map[[2]string]atom.Atom, len(hebbians))
	for _, h := range hebbians {
		if len(h.Outgoing) == 2 {
			existing[[2]string{h.Outgoing[0], h.Outgoing[1]}] = h
		}
	}

	rate := b.cfg.HebbianLearningRate
	active := make(map[[2]string]bool)
	var batch []atom.Atom
	for _, l := range snap.All() {
		if !l.IsLink() || l.Type == atom.HebbianLink || !b.coActive(l) {
			continue
		}
		for _, id := range l.Outgoing {
			pair := [2]string{l.ID, id}
			if active[pair] {
				continue
			}
			t, ok := snap.GetAtom(id)
			if !ok || !b.coActive(t) {
				continue
			}
			active[pair] = true

			h, ok := existing[pair]
			if !ok {
				// an existing HebbianLink(T, L) is the same association
				if h, ok = existing[[2]string{id, l.ID}]; ok {
					active[[2]string{id, l.ID}] = true
				}
			}
			if !ok {
				h = atom.Link(atom.HebbianLink, HebbianID(l.ID, id), &truth.Value{Strength: b.cfg.DefaultHebbianWeight}, l.ID, id)
				h.Name = "Hebbian(" + l.ID + "," + id + ")"
			}
			tv := h.TV()
			tv.Strength = util.Clamp01(tv.Strength + rate*(1-tv.Strength))
			tv.Confidence = util.Clamp01(tv.Confidence + rate*(1-tv.Confidence))
			h.TruthValue = &tv
			batch = append(batch, h)
		}
	}

	for _, h := range hebbians {
		if len(h.Outgoing) != 2 || active[[2]string{h.Outgoing[0], h.Outgoing[1]}] {
			continue
		}
		tv := h.TV()
		tv.Strength *= 1 - b.cfg.HebbianDecayRate
		h.TruthValue = &tv
		batch = append(batch, h)
	}

	changed, err := b.store.Commit(batch)
	if err != nil {
		return nil, errors.Wrap(err, "update hebbian links")
	}
	b.log.Debugw("hebbian links updated",
		logger.FieldCount, len(changed),
		"co_activated", len(active))
	return changed, nil
}

// coActive reports whether a's normalised STI is above the co-activation
// threshold.
func (b *Bank) coActive(a atom.Atom) bool {
	if a.Attention == nil || a.Attention.STI <= 0 {
		return false
	}
	span := b.cfg.MaxSTI - b.cfg.MinSTI
	if span <= 0 {
		return false
	}
	return (a.Attention.STI-b.cfg.MinSTI)/span > coActivation
}
