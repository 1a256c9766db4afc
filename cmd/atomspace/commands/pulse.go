package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teranos/atomspace/am"
	"github.com/teranos/atomspace/ecan"
	"github.com/teranos/atomspace/errors"
	"github.com/teranos/atomspace/pln"
	"github.com/teranos/atomspace/pulse/schedule"
	"github.com/teranos/atomspace/store"
	"github.com/teranos/atomspace/sym"
)

var (
	pulseTotalSTI    float64
	pulseDuration    time.Duration
	pulseMetricsAddr string
	pulseNoInference bool
)

// PulseCmd represents the pulse command
var PulseCmd = &cobra.Command{
	Use:   "pulse <kb>",
	Short: short("pulse"),
	Long: sym.Pulse + ` pulse - Run attention and inference cycles continuously

Loads a knowledge base and, every pulse.ticker_interval_seconds, runs one
attention cycle and pulse.inference_steps_per_tick inference steps, capped
at pulse.max_cycles_per_minute. Edits to the config file's [attention]
section apply on the next cycle.

Runs until interrupted (Ctrl+C) or --duration elapses.

Examples:
  atomspace pulse zoo.yaml
  atomspace pulse zoo.yaml --duration 30s --metrics-addr :9464`,
	Args: cobra.ExactArgs(1),
	RunE: runPulseCommand,
}

func init() {
	PulseCmd.Flags().Float64Var(&pulseTotalSTI, "total-sti", 100, "STI allocated per attention cycle")
	PulseCmd.Flags().DurationVar(&pulseDuration, "duration", 0, "Stop after this long (0 = until interrupted)")
	PulseCmd.Flags().StringVar(&pulseMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	PulseCmd.Flags().BoolVar(&pulseNoInference, "no-inference", false, "Run attention cycles only")
}

// daemon is the set of components pulse runs.
type daemon struct {
	store    *store.Store
	bank     *ecan.Bank
	engine   *pln.Engine
	ticker   *schedule.Ticker
	registry *prometheus.Registry
}

func newDaemon(ctx context.Context, st *store.Store, cfg *am.Config, totalSTI float64, inference bool, log *zap.SugaredLogger) (*daemon, error) {
	reg := prometheus.NewRegistry()
	bank, err := ecan.NewBank(st, ecan.Options{
		Config:  cfg.Attention,
		Metrics: ecan.NewMetrics(reg),
		Logger:  log.Named("ecan"),
	})
	if err != nil {
		return nil, err
	}

	tasks, err := schedule.NewTaskRegistry(&ecan.CycleTask{Bank: bank, TotalSTI: totalSTI})
	if err != nil {
		return nil, err
	}

	d := &daemon{store: st, bank: bank, registry: reg}
	if inference {
		d.engine, err = pln.NewEngine(st, pln.Options{
			Config:   cfg.Inference,
			MaxCalls: cfg.Matcher.MaxCalls,
			Metrics:  pln.NewMetrics(reg),
			Logger:   log.Named("pln"),
		})
		if err != nil {
			return nil, err
		}
		if err := tasks.Register(&pln.StepTask{Engine: d.engine, Steps: cfg.Pulse.InferenceStepsPerTick}); err != nil {
			return nil, err
		}
	}

	d.ticker = schedule.NewTickerWithContext(ctx, tasks, schedule.TickerConfigFrom(cfg.Pulse), log.Named("pulse"))
	return d, nil
}

// reload applies a changed config file. Only the attention section is live.
func (d *daemon) reload(cfg *am.Config) error {
	return d.bank.SetConfig(cfg.Attention)
}

func runPulseCommand(cmd *cobra.Command, args []string) error {
	cfg, configPath, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Pulse.TickerIntervalSeconds <= 0 {
		return errors.WithHint(
			errors.NewInvalidRequestError("pulse is disabled"),
			"set pulse.ticker_interval_seconds to a positive value")
	}
	log := commandLogger("pulse")
	st, err := openStore(cmd, args[0], cfg.Store)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if pulseDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, pulseDuration)
		defer cancel()
	}

	d, err := newDaemon(ctx, st, cfg, pulseTotalSTI, !pulseNoInference, log)
	if err != nil {
		return err
	}

	if configPath != "" {
		watcher, err := am.NewConfigWatcher(configPath, log.Named("am"))
		if err != nil {
			log.Warnw("Config changes will not be picked up", "path", configPath, "error", err)
		} else {
			watcher.OnReload(d.reload)
			watcher.Start()
			defer func() {
				watcher.Stop()
				watcher.Wait()
			}()
		}
	}

	if pulseMetricsAddr != "" {
		srv := &http.Server{
			Addr:              pulseMetricsAddr,
			Handler:           promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorw("Metrics server failed", "addr", pulseMetricsAddr, "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s Pulse running over %d atoms every %s\n", sym.PulseOpen, st.Len(), d.ticker.Stats().Interval)
	d.ticker.Start()
	<-ctx.Done()
	d.ticker.Stop()

	return printPulseSummary(out, d)
}

func printPulseSummary(out io.Writer, d *daemon) error {
	stats := d.ticker.Stats()
	fmt.Fprintf(out, "%s Pulse stopped: %d cycles, %d task runs, %d failures, %d rate limited\n",
		sym.PulseClose, stats.Cycles, stats.TaskRuns, stats.TaskFailures, stats.RateLimited)
	focus := d.bank.Focus()
	if len(focus) == 0 {
		return nil
	}
	return renderTable(out, atomHeader, atomRows(focus))
}
