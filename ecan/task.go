package ecan

import (
	"context"
)

// CycleTask runs one attention cycle per pulse tick.
type CycleTask struct {
	Bank     *Bank
	TotalSTI float64
}

func (t *CycleTask) Name() string { return "ecan.cycle" }

func (t *CycleTask) Run(ctx context.Context) error {
	_, err := t.Bank.Cycle(ctx, t.TotalSTI)
	return err
}
