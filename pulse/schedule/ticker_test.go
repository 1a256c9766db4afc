package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/atomspace/am"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// countTask counts its runs and fails when err is set.
type countTask struct {
	name string
	runs atomic.Int64
	err  error
}

func (c *countTask) Name() string { return c.name }

func (c *countTask) Run(ctx context.Context) error {
	c.runs.Add(1)
	return c.err
}

type panicTask struct{}

func (panicTask) Name() string                  { return "panics" }
func (panicTask) Run(ctx context.Context) error { panic("boom") }

func newTicker(t *testing.T, cfg TickerConfig, tasks ...Task) *Ticker {
	t.Helper()
	reg, err := NewTaskRegistry(tasks...)
	require.NoError(t, err)
	return NewTicker(reg, cfg, zaptest.NewLogger(t).Sugar())
}

func TestTickerRunsTasksUntilStopped(t *testing.T) {
	task := &countTask{name: "count"}
	ticker := newTicker(t, TickerConfig{Interval: 5 * time.Millisecond}, task)

	ticker.Start()
	require.Eventually(t, func() bool { return task.runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	ticker.Stop()

	after := task.runs.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, task.runs.Load(), "no runs after Stop")

	st := ticker.Stats()
	assert.GreaterOrEqual(t, st.Cycles, int64(3))
	assert.Equal(t, st.Cycles, st.TaskRuns)
	assert.False(t, st.LastTickAt.IsZero())
}

func TestTickerStartTwice(t *testing.T) {
	task := &countTask{name: "count"}
	ticker := newTicker(t, TickerConfig{Interval: 5 * time.Millisecond}, task)
	ticker.Start()
	ticker.Start()
	ticker.Stop()
}

func TestTickerDisabled(t *testing.T) {
	task := &countTask{name: "count"}
	ticker := newTicker(t, TickerConfig{}, task)
	ticker.Start()
	time.Sleep(10 * time.Millisecond)
	ticker.Stop()
	assert.Zero(t, task.runs.Load())
}

func TestTickerParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	reg, err := NewTaskRegistry(&countTask{name: "count"})
	require.NoError(t, err)
	ticker := NewTickerWithContext(ctx, reg, TickerConfig{Interval: time.Millisecond}, zaptest.NewLogger(t).Sugar())

	ticker.Start()
	cancel()
	ticker.Stop()
}

func TestTickerFailingTaskDoesNotStopCycle(t *testing.T) {
	bad := &countTask{name: "bad", err: assert.AnError}
	good := &countTask{name: "good"}
	ticker := newTicker(t, TickerConfig{Interval: time.Second}, bad, panicTask{}, good)

	require.NoError(t, ticker.RunOnce(context.Background()))

	assert.Equal(t, int64(1), bad.runs.Load())
	assert.Equal(t, int64(1), good.runs.Load())
	st := ticker.Stats()
	assert.Equal(t, int64(2), st.TaskFailures)
	assert.Equal(t, int64(1), st.TaskRuns)
	assert.Equal(t, int64(1), st.Cycles)
	assert.Contains(t, st.LastError, "panicked")
}

func TestTickerRateLimit(t *testing.T) {
	task := &countTask{name: "count"}
	ticker := newTicker(t, TickerConfig{Interval: time.Second, MaxCyclesPerMinute: 1}, task)

	require.NoError(t, ticker.RunOnce(context.Background()))
	require.NoError(t, ticker.RunOnce(context.Background()))

	assert.Equal(t, int64(1), task.runs.Load())
	st := ticker.Stats()
	assert.Equal(t, int64(2), st.Ticks)
	assert.Equal(t, int64(1), st.RateLimited)
}

func TestTickerRunOnceCancelled(t *testing.T) {
	task := &countTask{name: "count"}
	ticker := newTicker(t, DefaultTickerConfig(), task)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, ticker.RunOnce(ctx), context.Canceled)
	assert.Zero(t, task.runs.Load())
}

func TestTickerConfigFrom(t *testing.T) {
	cfg := TickerConfigFrom(am.Default().Pulse)
	assert.Equal(t, DefaultTickerConfig(), cfg)
}
