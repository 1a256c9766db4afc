package pln

import (
	"context"
)

// StepTask runs a few inference steps per pulse tick, stopping early at a
// fixed point.
type StepTask struct {
	Engine *Engine
	Steps  int
}

func (t *StepTask) Name() string { return "pln.step" }

func (t *StepTask) Run(ctx context.Context) error {
	steps := max(t.Steps, 1)
	for i := 0; i < steps; i++ {
		changed, err := t.Engine.Step(ctx)
		if err != nil {
			return err
		}
		if len(changed) == 0 {
			return nil
		}
	}
	return nil
}
