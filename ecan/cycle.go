package ecan

import (
	"context"
	"time"

	"github.com/teranos/atomspace/logger"
)

// CycleReport summarises one attention cycle.
type CycleReport struct {
	Decayed        int           `json:"decayed"`
	Focus          []string      `json:"focus"`
	Spreaders      int           `json:"spreaders"`
	RentCollected  float64       `json:"rentCollected"`
	HebbianUpdated int           `json:"hebbianUpdated"`
	Duration       time.Duration `json:"duration"`
}

// Cycle runs one full round: decay, allocate totalSTI over every atom,
// spread from each funded atom, collect rent, then update Hebbian links.
// Each phase commits before the next reads, and the whole cycle holds the
// bank, so no other bank operation interleaves.
func (b *Bank) Cycle(ctx context.Context, totalSTI float64) (*CycleReport, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	log := logger.LoggerFromContext(ctx, b.log)
	report := &CycleReport{}

	var err error
	if report.Decayed, err = b.decay(ctx, b.store.Snapshot()); err != nil {
		return nil, err
	}

	grants, err := b.allocate(ctx, b.store.Snapshot(), nil, totalSTI)
	if err != nil {
		return nil, err
	}
	for _, g := range grants {
		report.Focus = append(report.Focus, g.ID)
	}

	for _, id := range report.Focus {
		received, err := b.spread(ctx, b.store.Snapshot(), id)
		if err != nil {
			return nil, err
		}
		if len(received) > 0 {
			report.Spreaders++
		}
	}

	if report.RentCollected, err = b.collectRent(ctx, b.store.Snapshot()); err != nil {
		return nil, err
	}

	hebbian, err := b.updateHebbian(ctx, b.store.Snapshot())
	if err != nil {
		return nil, err
	}
	report.HebbianUpdated = len(hebbian)
	report.Duration = time.Since(start)

	b.metrics.Cycles.Inc()
	b.metrics.CycleDuration.Observe(report.Duration.Seconds())
	log.Infow("attention cycle complete",
		"focus", len(report.Focus),
		"spreaders", report.Spreaders,
		"rent", report.RentCollected,
		"hebbian", report.HebbianUpdated,
		logger.FieldDurationMS, report.Duration.Milliseconds())
	return report, nil
}
