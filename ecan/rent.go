package ecan

import (
	"context"
	"math"

	"github.com/teranos/atomspace/atom"
	"github.com/teranos/atomspace/errors"
	"github.com/teranos/atomspace/logger"
	"github.com/teranos/atomspace/store"
)

// Rent is what an atom pays per collection:
// max(0, STI)·RentScale·(1 − LTI/MaxLTI), reduced by VLTIRentDiscount for
// VLTI atoms.
func (b *Bank) Rent(av atom.AttentionValue) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rent(av)
}

func (b *Bank) rent(av atom.AttentionValue) float64 {
	rent := math.Max(0, av.STI) * b.cfg.RentScale * (1 - av.LTI/b.cfg.MaxLTI)
	if av.VLTI {
		rent *= 1 - b.cfg.VLTIRentDiscount
	}
	return math.Max(0, rent)
}

// CollectRent charges every attention-bearing atom its rent and splits the
// proceeds equally among the atoms whose STI is still positive afterwards.
// It returns the total collected.
func (b *Bank) CollectRent(ctx context.Context) (float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.collectRent(ctx, b.store.Snapshot())
}

func (b *Bank) collectRent(ctx context.Context, snap *store.Snapshot) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	updates := make(map[string]atom.AttentionValue)
	var order []string
	total := 0.0
	for _, a := range snap.All() {
		if a.Attention == nil {
			continue
		}
		av := *a.Attention
		rent := b.rent(av)
		av.STI = b.clampSTI(av.STI - rent)
		total += rent
		updates[a.ID] = av
		order = append(order, a.ID)
	}
	if len(updates) == 0 {
		return 0, nil
	}

	var eligible []string
	for _, id := range order {
		if updates[id].STI > 0 {
			eligible = append(eligible, id)
		}
	}
	if len(eligible) > 0 && total > 0 {
		each := total / float64(len(eligible))
		for _, id := range eligible {
			av := updates[id]
			av.STI = b.clampSTI(av.STI + each)
			updates[id] = av
		}
	}

	if err := b.store.UpdateAttention(updates); err != nil {
		return 0, errors.Wrap(err, "collect rent")
	}
	b.metrics.RentCollected.Add(total)
	b.log.Debugw("rent collected",
		logger.FieldCount, len(updates),
		"rent", total,
		"recipients", len(eligible))
	return total, nil
}
