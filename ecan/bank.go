// Package ecan is the attention bank: it moves short-term importance (STI)
// between atoms and accrues long-term importance (LTI) for atoms that keep
// receiving it.
//
// Every operation reads one store snapshot, computes new attention values,
// and writes them back with a single store.UpdateAttention, so a failed
// update leaves the store untouched. Operations on one Bank are serialised.
package ecan

import (
	"context"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/teranos/atomspace/am"
	"github.com/teranos/atomspace/atom"
	"github.com/teranos/atomspace/errors"
	"github.com/teranos/atomspace/internal/util"
	"github.com/teranos/atomspace/logger"
	"github.com/teranos/atomspace/store"
)

// Importance weights of the allocation score.
const (
	stiWeight   = 0.7
	ltiWeight   = 0.2
	truthWeight = 0.1
)

// VLTI promotion thresholds, as fractions of the LTI and STI ceilings.
const (
	vltiLTIFraction = 0.8
	vltiSTIFraction = 0.9
)

// Bank allocates attention over a store.
type Bank struct {
	store   *store.Store
	cfg     am.AttentionConfig
	metrics *Metrics
	log     *zap.SugaredLogger

	mu sync.Mutex
}

// Options configure a Bank.
type Options struct {
	Config  am.AttentionConfig
	Metrics *Metrics
	Logger  *zap.SugaredLogger
}

// NewBank creates a bank over st.
func NewBank(st *store.Store, opts Options) (*Bank, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	log := opts.Logger
	if log == nil {
		log = logger.ComponentLogger("ecan")
	}
	return &Bank{
		store:   st,
		cfg:     opts.Config,
		metrics: metrics,
		log:     logger.AddECANSymbol(log),
	}, nil
}

// Grant is one atom's share of an allocation.
type Grant struct {
	ID         string              `json:"id"`
	Importance float64             `json:"importance"`
	Attention  atom.AttentionValue `json:"attention"`
}

// Importance scores an atom for allocation: 0.7·STI + 0.2·LTI + 0.1·(s·c).
func Importance(av atom.AttentionValue, a atom.Atom) float64 {
	sc := 0.0
	if a.TruthValue != nil {
		sc = a.TruthValue.Significance()
	}
	return stiWeight*av.STI + ltiWeight*av.LTI + truthWeight*sc
}

// AllocateAttention distributes totalSTI over the most important fifth
// (FocusFraction) of the candidate atoms, in proportion to importance.
// With no ids every atom in the store is a candidate. Atoms outside the
// selected set keep their attention.
func (b *Bank) AllocateAttention(ctx context.Context, ids []string, totalSTI float64) ([]Grant, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.allocate(ctx, b.store.Snapshot(), ids, totalSTI)
}

func (b *Bank) allocate(ctx context.Context, snap *store.Snapshot, ids []string, totalSTI float64) ([]Grant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if math.IsNaN(totalSTI) || math.IsInf(totalSTI, 0) {
		return nil, errors.NewInvalidRequestError("totalSTI must be finite, got %v", totalSTI)
	}

	atoms, err := lookup(snap, ids)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		atom atom.Atom
		av   atom.AttentionValue
		imp  float64
	}
	var cands []candidate
	for _, a := range atoms {
		if !b.cfg.TreatMissingAsZero && (a.Attention == nil || a.TruthValue == nil) {
			continue
		}
		av := attentionOf(a)
		cands = append(cands, candidate{atom: a, av: av, imp: Importance(av, a)})
	}
	if len(cands) == 0 {
		return []Grant{}, nil
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].imp != cands[j].imp {
			return cands[i].imp > cands[j].imp
		}
		return cands[i].atom.ID < cands[j].atom.ID
	})
	k := int(math.Ceil(float64(len(cands)) * b.cfg.FocusFraction))
	k = max(1, min(k, len(cands)))
	selected := cands[:k]

	sum := 0.0
	for _, c := range selected {
		sum += c.imp
	}

	grants := make([]Grant, 0, k)
	updates := make(map[string]atom.AttentionValue, k)
	for _, c := range selected {
		share := 1 / float64(k)
		if sum > 0 {
			share = c.imp / sum
		}
		av := c.av
		av.STI = b.clampSTI(totalSTI * share)
		if av.STI > 0 {
			av.LTI = b.clampLTI(av.LTI + 1)
		}
		av.VLTI = av.VLTI || b.promote(av)
		updates[c.atom.ID] = av
		grants = append(grants, Grant{ID: c.atom.ID, Importance: c.imp, Attention: av})
	}

	if err := b.store.UpdateAttention(updates); err != nil {
		return nil, errors.Wrap(err, "allocate attention")
	}
	b.metrics.FocusSize.Set(float64(len(grants)))
	b.log.Debugw("attention allocated",
		logger.FieldCount, len(grants),
		"candidates", len(cands),
		"total_sti", totalSTI)
	return grants, nil
}

// SpreadAttention pushes SpreadingFactor of the source's STI to the atoms in
// its outgoing set, one hop. Each target receives an equal share weighted by
// the HebbianLink between source and target, or DefaultHebbianWeight when
// there is none. It returns the STI each target received.
func (b *Bank) SpreadAttention(ctx context.Context, sourceID string) (map[string]float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.spread(ctx, b.store.Snapshot(), sourceID)
}

func (b *Bank) spread(ctx context.Context, snap *store.Snapshot, sourceID string) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src, ok := snap.GetAtom(sourceID)
	if !ok {
		return nil, errors.NewNotFoundError("atom %s", sourceID)
	}

	sti := src.STI()
	amount := sti * b.cfg.SpreadingFactor
	if sti <= 0 || amount < b.cfg.SpreadingThreshold || len(src.Outgoing) == 0 {
		return map[string]float64{}, nil
	}

	share := amount / float64(len(src.Outgoing))
	received := make(map[string]float64, len(src.Outgoing))
	updates := make(map[string]atom.AttentionValue, len(src.Outgoing)+1)
	for _, id := range src.Outgoing {
		target, ok := snap.GetAtom(id)
		if !ok || id == sourceID {
			continue
		}
		av, seen := updates[id]
		if !seen {
			av = attentionOf(target)
		}
		delta := share * b.hebbianWeight(snap, sourceID, id)
		av.STI = b.clampSTI(av.STI + delta)
		updates[id] = av
		received[id] += delta
	}

	av := attentionOf(src)
	av.STI = b.clampSTI(sti * (1 - b.cfg.SpreadingFactor))
	updates[sourceID] = av

	if err := b.store.UpdateAttention(updates); err != nil {
		return nil, errors.Wrapf(err, "spread from %s", sourceID)
	}
	b.log.Debugw("attention spread",
		logger.FieldAtomID, sourceID,
		logger.FieldSTI, sti,
		"targets", len(received))
	return received, nil
}

// hebbianWeight is the strength of the HebbianLink between src and tgt.
// HebbianLinks are undirected; HebbianLink(src, tgt) wins over
// HebbianLink(tgt, src) when both exist.
func (b *Bank) hebbianWeight(view store.Reader, src, tgt string) float64 {
	weight, found := b.cfg.DefaultHebbianWeight, false
	for _, l := range view.Incoming(src) {
		if l.Type != atom.HebbianLink || len(l.Outgoing) != 2 {
			continue
		}
		switch {
		case l.Outgoing[0] == src && l.Outgoing[1] == tgt:
			return l.TV().Strength
		case l.Outgoing[0] == tgt && l.Outgoing[1] == src && !found:
			weight, found = l.TV().Strength, true
		}
	}
	return weight
}

// Focus returns the atoms in the attentional focus: those with positive STI,
// highest first, at most FocusFraction of the attention-bearing atoms.
func (b *Bank) Focus() []atom.Atom {
	b.mu.Lock()
	defer b.mu.Unlock()
	return focus(b.store.Snapshot(), b.cfg.FocusFraction)
}

// Config returns the active attention configuration.
func (b *Bank) Config() am.AttentionConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cfg
}

// SetConfig replaces the attention configuration. It waits for a running
// operation to finish; existing attention values are not re-clamped.
func (b *Bank) SetConfig(cfg am.AttentionConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfg = cfg
	b.log.Infow("attention config updated",
		"focus_fraction", cfg.FocusFraction,
		"decay_rate", cfg.DecayRate)
	return nil
}

func focus(view store.Reader, fraction float64) []atom.Atom {
	var bearing []atom.Atom
	for _, a := range view.All() {
		if a.Attention != nil {
			bearing = append(bearing, a)
		}
	}
	if len(bearing) == 0 {
		return nil
	}
	sort.SliceStable(bearing, func(i, j int) bool {
		return bearing[i].STI() > bearing[j].STI()
	})
	k := max(1, int(math.Ceil(float64(len(bearing))*fraction)))
	out := make([]atom.Atom, 0, k)
	for _, a := range bearing[:min(k, len(bearing))] {
		if a.STI() > 0 {
			out = append(out, a)
		}
	}
	return out
}

func (b *Bank) clampSTI(v float64) float64 {
	return util.Clamp(v, b.cfg.MinSTI, b.cfg.MaxSTI)
}

func (b *Bank) clampLTI(v float64) float64 {
	return util.Clamp(v, b.cfg.MinLTI, b.cfg.MaxLTI)
}

// promote reports whether av has earned VLTI protection.
func (b *Bank) promote(av atom.AttentionValue) bool {
	return av.LTI > vltiLTIFraction*b.cfg.MaxLTI || av.STI > vltiSTIFraction*b.cfg.MaxSTI
}

func attentionOf(a atom.Atom) atom.AttentionValue {
	if a.Attention == nil {
		return atom.AttentionValue{}
	}
	return *a.Attention
}

// lookup resolves ids against view; no ids means every atom.
func lookup(view store.Reader, ids []string) ([]atom.Atom, error) {
	if len(ids) == 0 {
		return view.All(), nil
	}
	out := make([]atom.Atom, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		a, ok := view.GetAtom(id)
		if !ok {
			return nil, errors.NewNotFoundError("atom %s", id)
		}
		out = append(out, a)
	}
	return out, nil
}
