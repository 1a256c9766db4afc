package pln

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/atomspace/am"
	"github.com/teranos/atomspace/atom"
	"github.com/teranos/atomspace/errors"
	"github.com/teranos/atomspace/logger"
	"github.com/teranos/atomspace/match"
	"github.com/teranos/atomspace/store"
	"github.com/teranos/atomspace/truth"
)

// Options configure an Engine.
type Options struct {
	Config am.InferenceConfig
	// MaxCalls is the matcher's per-root call budget while joining premises.
	MaxCalls int
	// Registry defaults to DefaultRegistry(Config).
	Registry *Registry
	// Metrics defaults to unregistered collectors.
	Metrics *Metrics
	Logger  *zap.SugaredLogger
}

// Engine runs rules to a fixed point over a store.
//
// Each step reads one snapshot, derives, and commits all of its conclusions
// in a single store.Commit, so no partial step is ever visible. Steps are
// serialised: RunInference, Step and the pulse task never interleave.
type Engine struct {
	store    *store.Store
	rules    *Registry
	cfg      am.InferenceConfig
	maxCalls int
	metrics  *Metrics
	log      *zap.SugaredLogger

	mu    sync.Mutex // one step at a time
	steps int

	histMu  sync.RWMutex
	history map[string]Derivation
}

// NewEngine creates an engine over st.
func NewEngine(st *store.Store, opts Options) (*Engine, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	rules := opts.Registry
	if rules == nil {
		var err error
		if rules, err = DefaultRegistry(opts.Config); err != nil {
			return nil, err
		}
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	log := opts.Logger
	if log == nil {
		log = logger.ComponentLogger("pln")
	}
	return &Engine{
		store:    st,
		rules:    rules,
		cfg:      opts.Config,
		maxCalls: opts.MaxCalls,
		metrics:  metrics,
		log:      logger.AddPLNSymbol(log),
		history:  make(map[string]Derivation),
	}, nil
}

// Rules returns the registered rules in execution order.
func (e *Engine) Rules() []*Rule {
	return e.rules.All()
}

// RunInference steps until a step commits nothing new, maxSteps steps have
// run, the per-step application budget truncates a step, or ctx is done.
// It returns every atom the run added or changed, in commit order. On
// cancellation the atoms committed so far are returned with ctx's error.
func (e *Engine) RunInference(ctx context.Context, maxSteps int) ([]atom.Atom, error) {
	if maxSteps <= 0 {
		return []atom.Atom{}, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	log := logger.LoggerFromContext(ctx, e.log)
	start := time.Now()
	all := []atom.Atom{}
	reason := "max steps"
	steps := 0
	for steps < maxSteps {
		if err := ctx.Err(); err != nil {
			log.Infow("inference cancelled", logger.FieldStep, steps, logger.FieldDerived, len(all))
			return all, err
		}
		changed, truncated, err := e.step(ctx, log)
		steps++
		if err != nil {
			return all, err
		}
		all = append(all, changed...)
		if len(changed) == 0 {
			reason = "fixed point"
			break
		}
		if truncated {
			reason = "application budget"
			break
		}
	}

	log.Infow("inference complete",
		logger.FieldStep, steps,
		logger.FieldDerived, len(all),
		"reason", reason,
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return all, nil
}

// Step runs a single inference step and returns the atoms it committed.
func (e *Engine) Step(ctx context.Context) ([]atom.Atom, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	changed, _, err := e.step(ctx, logger.LoggerFromContext(ctx, e.log))
	return changed, err
}

// ApplyRule applies one rule to one tuple against the current snapshot.
// A wrong arity or an unmet premise yields an empty slice and no error; a
// failing or panicking rule yields an error. Derived atoms that fail truth
// value validation are dropped.
func (e *Engine) ApplyRule(ctx context.Context, rule *Rule, tuple []atom.Atom) ([]atom.Atom, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(tuple) != rule.Arity() {
		return []atom.Atom{}, nil
	}
	snap := e.store.Snapshot()
	m := match.New(snap, match.Options{MaxCalls: e.maxCalls, Logger: e.log})
	bindings := match.Bindings{}
	for i, premise := range rule.Premises {
		res, err := m.Match(ctx, tuple[i], premise, bindings)
		if err != nil {
			return nil, err
		}
		if res == nil {
			return []atom.Atom{}, nil
		}
		bindings = res.Bindings
	}
	out, err := e.apply(snap, rule, tuple)
	if err != nil {
		e.metrics.RuleFailures.WithLabelValues(rule.Name).Inc()
		return nil, err
	}
	return out, nil
}

func (e *Engine) step(ctx context.Context, log *zap.SugaredLogger) ([]atom.Atom, bool, error) {
	start := time.Now()
	e.steps++
	stepNo := e.steps

	snap := e.store.Snapshot()
	pool := e.significant(snap.All())
	m := match.New(snap, match.Options{MaxCalls: e.maxCalls, Logger: e.log})
	acc := newAccumulator()

	budget := e.cfg.MaxApplicationsPerStep
	applications := 0
	truncated := false

	plans, err := e.schedule(ctx, m, pool, log)
	if err != nil {
		return nil, false, err
	}

plans:
	for _, p := range plans {
		rule := p.rule
		for _, tuple := range p.tuples {
			if err := ctx.Err(); err != nil {
				return nil, false, err
			}
			if budget > 0 && applications >= budget {
				truncated = true
				break plans
			}
			applications++
			e.metrics.Applications.WithLabelValues(rule.Name).Inc()

			out, err := e.apply(snap, rule, tuple)
			if err != nil {
				e.metrics.RuleFailures.WithLabelValues(rule.Name).Inc()
				log.Warnw("rule failed, skipping tuple",
					logger.FieldRule, rule.Name,
					"inputs", ids(tuple),
					logger.FieldError, err)
				continue
			}
			for _, a := range out {
				acc.add(rule.Name, tuple, a)
			}
		}
	}

	batch := acc.commitSet(e.cfg.SignificanceThreshold)
	changed, err := e.store.Commit(batch)
	if err != nil {
		return nil, truncated, errors.Wrapf(err, "commit of step %d", stepNo)
	}

	e.histMu.Lock()
	for _, a := range changed {
		d := acc.byID[a.ID].deriv
		d.Step = stepNo
		e.history[a.ID] = d
		e.metrics.Derived.WithLabelValues(d.Rule).Inc()
	}
	e.histMu.Unlock()

	e.metrics.Steps.Inc()
	e.metrics.StepDuration.Observe(time.Since(start).Seconds())
	if truncated {
		log.Warnw("step truncated by application budget",
			logger.FieldStep, stepNo,
			"budget", budget)
	}
	log.Debugw("inference step",
		logger.FieldStep, stepNo,
		"significant", len(pool),
		"applications", applications,
		logger.FieldDerived, len(changed),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return changed, truncated, nil
}

// schedule gathers each rule's tuples in registry order. With attention
// weighting the plans are reordered by weigh; MaxActiveRules then keeps the
// first rules that have any tuple.
func (e *Engine) schedule(ctx context.Context, m *match.Matcher, pool []atom.Atom, log *zap.SugaredLogger) ([]plan, error) {
	var plans []plan
	for _, rule := range e.rules.All() {
		tuples, err := e.tuples(ctx, m, rule, pool)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			e.metrics.RuleFailures.WithLabelValues(rule.Name).Inc()
			log.Warnw("premise matching failed", logger.FieldRule, rule.Name, logger.FieldError, err)
			continue
		}
		if len(tuples) > 0 {
			plans = append(plans, plan{rule: rule, tuples: tuples})
		}
	}
	if e.cfg.AttentionWeighted {
		weigh(plans, pool)
	}
	if n := e.cfg.MaxActiveRules; n > 0 && len(plans) > n {
		plans = plans[:n]
	}
	return plans, nil
}

func (e *Engine) significant(atoms []atom.Atom) []atom.Atom {
	out := make([]atom.Atom, 0, len(atoms))
	for _, a := range atoms {
		if a.TruthValue != nil && a.TruthValue.Significance() > e.cfg.SignificanceThreshold {
			out = append(out, a)
		}
	}
	return out
}

// tuples joins the premises position by position: every partial tuple is
// extended by each pool atom matching the next premise under the bindings
// gathered so far. Atoms within a tuple are distinct.
func (e *Engine) tuples(ctx context.Context, m *match.Matcher, rule *Rule, pool []atom.Atom) ([][]atom.Atom, error) {
	type partial struct {
		atoms    []atom.Atom
		bindings match.Bindings
	}
	parts := []partial{{bindings: match.Bindings{}}}
	for _, premise := range rule.Premises {
		candidates := pool
		if premise.Type != "" {
			candidates = ofType(pool, premise.Type)
		}
		var next []partial
		for _, p := range parts {
			results, err := m.MatchAll(ctx, candidates, premise, p.bindings)
			if err != nil {
				return nil, err
			}
			for _, res := range results {
				root := res.Root()
				if containsID(p.atoms, root.ID) {
					continue
				}
				atoms := make([]atom.Atom, len(p.atoms), len(p.atoms)+1)
				copy(atoms, p.atoms)
				next = append(next, partial{atoms: append(atoms, root), bindings: res.Bindings})
			}
		}
		if len(next) == 0 {
			return nil, nil
		}
		parts = next
	}

	out := make([][]atom.Atom, len(parts))
	for i, p := range parts {
		out[i] = p.atoms
	}
	return out, nil
}

// apply runs the rule with panic recovery and the truth value gate.
func (e *Engine) apply(view store.Reader, rule *Rule, tuple []atom.Atom) ([]atom.Atom, error) {
	out, err := safeApply(view, rule, tuple)
	if err != nil {
		return nil, err
	}
	kept := make([]atom.Atom, 0, len(out))
	for _, a := range out {
		if a.TruthValue != nil {
			if err := truth.Validate(*a.TruthValue); err != nil {
				e.metrics.Rejected.WithLabelValues(rule.Name).Inc()
				e.log.Warnw("derived truth value rejected",
					logger.FieldRule, rule.Name,
					"inputs", ids(tuple),
					logger.FieldError, err)
				continue
			}
		}
		if a.Type == "" {
			e.log.Warnw("derived atom has no type", logger.FieldRule, rule.Name)
			continue
		}
		if a.ID == "" {
			a.ID = atom.DerivedID(rule.Name, ids(tuple)...)
		}
		kept = append(kept, a)
	}
	return kept, nil
}

func safeApply(view store.Reader, rule *Rule, tuple []atom.Atom) (out []atom.Atom, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(errors.ErrInvalidRule, "rule %s panicked: %v", rule.Name, r)
		}
	}()
	out, err = rule.Apply(view, tuple)
	if err != nil {
		return nil, errors.Wrapf(err, "rule %s", rule.Name)
	}
	return out, nil
}

// accumulator collects one step's conclusions keyed by id. When several
// tuples derive the same id the most confident conclusion wins; ties keep
// the first in application order.
type accumulator struct {
	byID  map[string]*pending
	order []string
}

type pending struct {
	atom  atom.Atom
	deriv Derivation
}

func newAccumulator() *accumulator {
	return &accumulator{byID: make(map[string]*pending)}
}

func (acc *accumulator) add(rule string, tuple []atom.Atom, a atom.Atom) {
	d := Derivation{AtomID: a.ID, Rule: rule, Inputs: ids(tuple), Support: 1}
	if a.TruthValue != nil {
		d.TruthValue = *a.TruthValue
	}
	p, ok := acc.byID[a.ID]
	if !ok {
		acc.byID[a.ID] = &pending{atom: a, deriv: d}
		acc.order = append(acc.order, a.ID)
		return
	}
	support := p.deriv.Support + 1
	if a.TruthValue != nil && (p.atom.TruthValue == nil || a.TruthValue.Confidence > p.atom.TruthValue.Confidence) {
		p.atom, p.deriv = a, d
	}
	p.deriv.Support = support
}

// commitSet keeps conclusions whose strength·confidence exceeds threshold,
// plus any truth-less structural atoms those conclusions point at.
func (acc *accumulator) commitSet(threshold float64) []atom.Atom {
	keep := make(map[string]bool)
	for _, id := range acc.order {
		a := acc.byID[id].atom
		if a.TruthValue != nil && a.TruthValue.Significance() > threshold {
			keep[id] = true
			for _, target := range a.Outgoing {
				if p, ok := acc.byID[target]; ok && p.atom.TruthValue == nil {
					keep[target] = true
				}
			}
		}
	}
	batch := make([]atom.Atom, 0, len(keep))
	for _, id := range acc.order {
		if keep[id] {
			batch = append(batch, acc.byID[id].atom)
		}
	}
	return batch
}

func ofType(atoms []atom.Atom, t atom.Type) []atom.Atom {
	var out []atom.Atom
	for _, a := range atoms {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

func containsID(atoms []atom.Atom, id string) bool {
	for _, a := range atoms {
		if a.ID == id {
			return true
		}
	}
	return false
}

func ids(atoms []atom.Atom) []string {
	out := make([]string, len(atoms))
	for i, a := range atoms {
		out[i] = a.ID
	}
	return out
}
