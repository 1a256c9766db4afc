package ecan

import (
	"context"
	"math"

	"github.com/teranos/atomspace/atom"
	"github.com/teranos/atomspace/errors"
	"github.com/teranos/atomspace/logger"
	"github.com/teranos/atomspace/store"
)

// Stimulus above this magnitude also earns a point of LTI.
const ltiStimulus = 10

// StimulusDelta is the STI change produced by a stimulus: the amplified
// amount a, damped to a/(1 + 0.1·|a|) so repeated large stimuli saturate.
func (b *Bank) StimulusDelta(amount float64) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stimulusDelta(amount)
}

func (b *Bank) stimulusDelta(amount float64) float64 {
	a := amount * b.cfg.StimulusAmplification
	return a / (1 + math.Abs(a)*0.1)
}

// Stimulate raises (or, for a negative amount, lowers) an atom's STI.
func (b *Bank) Stimulate(ctx context.Context, id string, amount float64) (atom.AttentionValue, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return atom.AttentionValue{}, err
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return atom.AttentionValue{}, errors.NewInvalidRequestError("stimulus must be finite, got %v", amount)
	}
	a, ok := b.store.GetAtom(id)
	if !ok {
		return atom.AttentionValue{}, errors.NewNotFoundError("atom %s", id)
	}

	av := attentionOf(a)
	av.STI = b.clampSTI(av.STI + b.stimulusDelta(amount))
	if math.Abs(amount) > ltiStimulus {
		av.LTI = b.clampLTI(av.LTI + 1)
	}
	av.VLTI = av.VLTI || av.LTI > vltiLTIFraction*b.cfg.MaxLTI

	if err := b.store.UpdateAttention(map[string]atom.AttentionValue{id: av}); err != nil {
		return atom.AttentionValue{}, err
	}
	b.log.Debugw("stimulated", logger.FieldAtomID, id, logger.FieldSTI, av.STI)
	return av, nil
}

// Decay shrinks the STI of every non-VLTI atom by DecayRate and returns how
// many atoms changed.
func (b *Bank) Decay(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.decay(ctx, b.store.Snapshot())
}

func (b *Bank) decay(ctx context.Context, snap *store.Snapshot) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	updates := make(map[string]atom.AttentionValue)
	for _, a := range snap.All() {
		if a.Attention == nil || a.Attention.VLTI || a.Attention.STI == 0 {
			continue
		}
		av := *a.Attention
		av.STI = b.clampSTI(av.STI * (1 - b.cfg.DecayRate))
		updates[a.ID] = av
	}
	if len(updates) == 0 {
		return 0, nil
	}
	if err := b.store.UpdateAttention(updates); err != nil {
		return 0, errors.Wrap(err, "decay")
	}
	return len(updates), nil
}
