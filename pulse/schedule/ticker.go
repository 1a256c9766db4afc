// Package schedule runs the periodic work of an atomspace: attention cycles
// and inference steps registered as Tasks on a rate-limited Ticker.
package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/teranos/atomspace/am"
	"github.com/teranos/atomspace/errors"
	"github.com/teranos/atomspace/logger"
)

// Ticker runs every registered task once per interval. A pass over all tasks
// is one cycle; cycles are capped per minute by a token bucket. A failing
// task is logged and the remaining tasks still run.
type Ticker struct {
	registry *TaskRegistry
	limiter  *rate.Limiter
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	log      *zap.SugaredLogger
	pulseLog *zap.SugaredLogger // Logger with Pulse symbol pre-attached

	mu      sync.Mutex
	started bool
	stats   TickerStats
}

// TickerConfig contains configuration for the Pulse ticker
type TickerConfig struct {
	Interval           time.Duration // How often tasks run (default: 1 second, 0 = disabled)
	MaxCyclesPerMinute int           // Cycle cap (default: 60, 0 = unlimited)
}

// DefaultTickerConfig returns sensible defaults
func DefaultTickerConfig() TickerConfig {
	return TickerConfig{
		Interval:           1 * time.Second,
		MaxCyclesPerMinute: 60,
	}
}

// TickerConfigFrom converts the [pulse] config section.
func TickerConfigFrom(c am.PulseConfig) TickerConfig {
	return TickerConfig{
		Interval:           time.Duration(c.TickerIntervalSeconds) * time.Second,
		MaxCyclesPerMinute: c.MaxCyclesPerMinute,
	}
}

// TickerStats reports what the ticker has done since it was created.
type TickerStats struct {
	Interval     time.Duration `json:"interval"`
	LastTickAt   time.Time     `json:"lastTickAt"`
	Ticks        int64         `json:"ticks"`
	Cycles       int64         `json:"cycles"`
	RateLimited  int64         `json:"rateLimited"` // ticks skipped by the cycle cap
	TaskRuns     int64         `json:"taskRuns"`
	TaskFailures int64         `json:"taskFailures"`
	LastError    string        `json:"lastError,omitempty"`
}

// NewTicker creates a new Pulse ticker over registry.
func NewTicker(registry *TaskRegistry, cfg TickerConfig, log *zap.SugaredLogger) *Ticker {
	return NewTickerWithContext(context.Background(), registry, cfg, log)
}

// NewTickerWithContext creates a ticker with a parent context
func NewTickerWithContext(ctx context.Context, registry *TaskRegistry, cfg TickerConfig, log *zap.SugaredLogger) *Ticker {
	tickerCtx, cancel := context.WithCancel(ctx)
	if log == nil {
		log = logger.ComponentLogger("pulse")
	}

	limit := rate.Inf
	if cfg.MaxCyclesPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.MaxCyclesPerMinute))
	}

	return &Ticker{
		registry: registry,
		limiter:  rate.NewLimiter(limit, 1),
		interval: cfg.Interval,
		ctx:      tickerCtx,
		cancel:   cancel,
		log:      log,
		pulseLog: logger.AddPulseSymbol(log),
		stats:    TickerStats{Interval: cfg.Interval},
	}
}

// Start begins the ticker loop. It is a no-op when the interval is not
// positive or the ticker is already running.
func (t *Ticker) Start() {
	if t.interval <= 0 {
		t.pulseLog.Infow("Pulse ticker disabled", "interval", t.interval)
		return
	}
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return
	}
	t.started = true
	t.mu.Unlock()

	t.wg.Add(1)
	go t.run()
	logger.PulseOpenInfow(t.log, "Pulse ticker started",
		"interval", t.interval,
		"tasks", t.registry.Names())
}

// Stop gracefully stops the ticker, waiting for a running cycle to finish.
func (t *Ticker) Stop() {
	t.cancel()
	t.wg.Wait()
	logger.PulseCloseInfow(t.log, "Pulse ticker stopped", "cycles", t.Stats().Cycles)
}

// run is the main ticker loop
func (t *Ticker) run() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case tickTime := <-ticker.C:
			if err := t.tick(t.ctx, tickTime); err != nil && t.ctx.Err() == nil {
				t.pulseLog.Warnw("Pulse tick error", logger.FieldError, err)
			}
		}
	}
}

// RunOnce runs a single cycle now, subject to the cycle cap. Task failures
// are recorded in the stats; only cancellation is returned.
func (t *Ticker) RunOnce(ctx context.Context) error {
	return t.tick(ctx, time.Now())
}

func (t *Ticker) tick(ctx context.Context, now time.Time) error {
	t.mu.Lock()
	t.stats.LastTickAt = now
	t.stats.Ticks++
	tick := t.stats.Ticks
	t.mu.Unlock()

	if !t.limiter.AllowN(now, 1) {
		t.mu.Lock()
		t.stats.RateLimited++
		t.mu.Unlock()
		t.pulseLog.Debugw("Pulse cycle skipped by rate limit", "tick", tick)
		return nil
	}

	start := time.Now()
	tasks := t.registry.Tasks()
	failed := 0
	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.runTask(ctx, task); err != nil {
			failed++
			t.mu.Lock()
			t.stats.TaskFailures++
			t.stats.LastError = err.Error()
			t.mu.Unlock()
			t.pulseLog.Errorw("Pulse task FAILED",
				logger.FieldTaskID, task.Name(),
				"tick", tick,
				logger.FieldError, err)
			continue
		}
		t.mu.Lock()
		t.stats.TaskRuns++
		t.mu.Unlock()
	}

	t.mu.Lock()
	t.stats.Cycles++
	t.mu.Unlock()
	t.pulseLog.Debugw("Pulse cycle",
		"tick", tick,
		"tasks", len(tasks),
		"failed", failed,
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return nil
}

// runTask runs one task, turning a panic into an error.
func (t *Ticker) runTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("task %s panicked: %s", task.Name(), fmt.Sprint(r))
		}
	}()
	if err := task.Run(ctx); err != nil {
		return errors.Wrapf(err, "task %s", task.Name())
	}
	return nil
}

// Stats returns ticker statistics
func (t *Ticker) Stats() TickerStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}
