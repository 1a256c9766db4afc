package pln

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/atomspace/am"
	"github.com/teranos/atomspace/atom"
	"github.com/teranos/atomspace/errors"
	"github.com/teranos/atomspace/match"
	"github.com/teranos/atomspace/store"
	"github.com/teranos/atomspace/truth"
)

func newStore(t *testing.T, atoms ...atom.Atom) *store.Store {
	t.Helper()
	s := store.New(am.StoreConfig{AutoID: true}, zaptest.NewLogger(t).Sugar())
	_, err := s.AddAtoms(atoms)
	require.NoError(t, err)
	return s
}

func newEngine(t *testing.T, s *store.Store, opts ...func(*Options)) *Engine {
	t.Helper()
	o := Options{
		Config: am.Default().Inference,
		Logger: zaptest.NewLogger(t).Sugar(),
	}
	for _, fn := range opts {
		fn(&o)
	}
	e, err := NewEngine(s, o)
	require.NoError(t, err)
	return e
}

// modusPonensStore holds P <0.8, 0.9> and P → Q <0.7, 0.8>. Q carries no
// truth value of its own.
func modusPonensStore(t *testing.T) *store.Store {
	return newStore(t,
		atom.Node(atom.ConceptNode, "P", "P", atom.TVPtr(0.8, 0.9)),
		atom.Node(atom.ConceptNode, "Q", "Q", nil),
		atom.Link(atom.ImplicationLink, "P-Q", atom.TVPtr(0.7, 0.8), "P", "Q"),
	)
}

func inheritanceChain(t *testing.T) *store.Store {
	return newStore(t,
		atom.Node(atom.ConceptNode, "cat", "cat", nil),
		atom.Node(atom.ConceptNode, "mammal", "mammal", nil),
		atom.Node(atom.ConceptNode, "animal", "animal", nil),
		atom.Link(atom.InheritanceLink, "cat-mammal", atom.TVPtr(0.9, 0.9), "cat", "mammal"),
		atom.Link(atom.InheritanceLink, "mammal-animal", atom.TVPtr(0.9, 0.9), "mammal", "animal"),
	)
}

func mustGet(t *testing.T, s *store.Store, id string) atom.Atom {
	t.Helper()
	a, ok := s.GetAtom(id)
	require.True(t, ok, id)
	return a
}

func mustRule(t *testing.T, e *Engine, name string) *Rule {
	t.Helper()
	r, ok := e.rules.Get(name)
	require.True(t, ok, "rule %s not registered", name)
	return r
}

func TestModusPonensDerivation(t *testing.T) {
	s := modusPonensStore(t)
	e := newEngine(t, s)

	derived, err := e.RunInference(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, derived, 1)

	q := derived[0]
	assert.Equal(t, "Q", q.ID, "the conclusion is Q itself")
	assert.Equal(t, atom.ConceptNode, q.Type)
	assert.Equal(t, "Q", q.Name)
	require.NotNil(t, q.TruthValue)
	assert.InDelta(t, 0.56, q.TruthValue.Strength, 1e-9)
	assert.InDelta(t, 0.72, q.TruthValue.Confidence, 1e-9)

	stored, ok := s.GetAtom(q.ID)
	require.True(t, ok)
	assert.Equal(t, q.TruthValue, stored.TruthValue)
	assert.Equal(t, 3, s.Len())
}

func TestModusPonensChains(t *testing.T) {
	s := newStore(t,
		atom.Node(atom.ConceptNode, "P", "P", atom.TVPtr(0.9, 0.9)),
		atom.Node(atom.ConceptNode, "Q", "Q", nil),
		atom.Node(atom.ConceptNode, "R", "R", nil),
		atom.Link(atom.ImplicationLink, "P-Q", atom.TVPtr(0.9, 0.9), "P", "Q"),
		atom.Link(atom.ImplicationLink, "Q-R", atom.TVPtr(0.9, 0.9), "Q", "R"),
	)
	e := newEngine(t, s)

	_, err := e.RunInference(context.Background(), 10)
	require.NoError(t, err)

	assert.Len(t, s.GetAtomsByType(atom.ConceptNode), 3, "no copy of Q or R is created")

	q, _ := s.GetAtom("Q")
	require.NotNil(t, q.TruthValue)
	assert.InDelta(t, 0.81, q.TruthValue.Strength, 1e-9)
	assert.InDelta(t, 0.81, q.TruthValue.Confidence, 1e-9)

	r, _ := s.GetAtom("R")
	require.NotNil(t, r.TruthValue)
	assert.InDelta(t, 0.729, r.TruthValue.Strength, 1e-9)
	assert.InDelta(t, 0.729, r.TruthValue.Confidence, 1e-9)
}

func TestModusPonensKeepsMoreConfidentAssertion(t *testing.T) {
	s := newStore(t,
		atom.Node(atom.ConceptNode, "P", "P", atom.TVPtr(0.8, 0.9)),
		atom.Node(atom.ConceptNode, "Q", "Q", atom.TVPtr(0.1, 0.95)),
		atom.Link(atom.ImplicationLink, "P-Q", atom.TVPtr(0.7, 0.8), "P", "Q"),
	)
	e := newEngine(t, s)

	out, err := e.ApplyRule(context.Background(), mustRule(t, e, "ModusPonens"), []atom.Atom{mustGet(t, s, "P"), mustGet(t, s, "P-Q")})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestRunInferenceZeroSteps(t *testing.T) {
	s := modusPonensStore(t)
	e := newEngine(t, s)

	derived, err := e.RunInference(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, derived)
	assert.Empty(t, derived)
	assert.Equal(t, 3, s.Len())
}

func TestRerunDerivesNothingNew(t *testing.T) {
	s := modusPonensStore(t)
	e := newEngine(t, s)
	ctx := context.Background()

	first, err := e.RunInference(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	version := s.Version()

	second, err := e.RunInference(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Equal(t, version, s.Version())
}

func TestInheritanceTransitivity(t *testing.T) {
	s := inheritanceChain(t)
	e := newEngine(t, s)

	derived, err := e.RunInference(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, derived, 1)

	link := derived[0]
	assert.Equal(t, atom.DerivedID("InheritanceTransitivity", "cat", "animal"), link.ID)
	assert.Equal(t, atom.InheritanceLink, link.Type)
	assert.Equal(t, []string{"cat", "animal"}, link.Outgoing)
	assert.InDelta(t, 0.81, link.TruthValue.Strength, 1e-9)
	assert.InDelta(t, 0.81*truth.DeductionDamping, link.TruthValue.Confidence, 1e-9)
}

func TestContextualDeduction(t *testing.T) {
	s := newStore(t,
		atom.Node(atom.ConceptNode, "winter", "winter", nil),
		atom.Node(atom.ConceptNode, "a", "a", nil),
		atom.Node(atom.ConceptNode, "b", "b", nil),
		atom.Node(atom.ConceptNode, "d", "d", nil),
		atom.Link(atom.ImplicationLink, "a-b", nil, "a", "b"),
		atom.Link(atom.ImplicationLink, "b-d", nil, "b", "d"),
		atom.Link(atom.ContextLink, "winter:a-b", atom.TVPtr(0.9, 0.9), "winter", "a-b"),
		atom.Link(atom.ContextLink, "winter:b-d", atom.TVPtr(0.8, 0.9), "winter", "b-d"),
	)
	e := newEngine(t, s)

	derived, err := e.RunInference(context.Background(), 10)
	require.NoError(t, err)

	wrappedID := atom.DerivedID("ContextualDeduction", "winter", "a", "d")
	innerID := atom.DerivedID("ContextualDeduction.implication", "a", "d")
	assert.ElementsMatch(t, []string{wrappedID, innerID}, idsOf(derived))

	wrapped, ok := s.GetAtom(wrappedID)
	require.True(t, ok)
	assert.Equal(t, []string{"winter", innerID}, wrapped.Outgoing)
	assert.InDelta(t, 0.72, wrapped.TruthValue.Strength, 1e-9)
	assert.InDelta(t, 0.81*truth.DeductionDamping, wrapped.TruthValue.Confidence, 1e-9)

	inner, ok := s.GetAtom(innerID)
	require.True(t, ok)
	assert.Nil(t, inner.TruthValue)
	assert.Equal(t, []string{"a", "d"}, inner.Outgoing)
}

func TestApplyRule(t *testing.T) {
	s := modusPonensStore(t)
	e := newEngine(t, s)
	ctx := context.Background()
	mp := mustRule(t, e, "ModusPonens")
	p, _ := s.GetAtom("P")
	impl, _ := s.GetAtom("P-Q")

	t.Run("derives", func(t *testing.T) {
		out, err := e.ApplyRule(ctx, mp, []atom.Atom{p, impl})
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.InDelta(t, 0.56, out[0].TruthValue.Strength, 1e-9)
		assert.Equal(t, 3, s.Len(), "ApplyRule does not commit")
	})

	t.Run("wrong arity", func(t *testing.T) {
		out, err := e.ApplyRule(ctx, mp, []atom.Atom{p})
		require.NoError(t, err)
		assert.NotNil(t, out)
		assert.Empty(t, out)
	})

	t.Run("unmet premise", func(t *testing.T) {
		out, err := e.ApplyRule(ctx, mp, []atom.Atom{impl, p})
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("deterministic id", func(t *testing.T) {
		a, err := e.ApplyRule(ctx, mp, []atom.Atom{p, impl})
		require.NoError(t, err)
		b, err := e.ApplyRule(ctx, mp, []atom.Atom{p, impl})
		require.NoError(t, err)
		assert.Equal(t, a[0].ID, b[0].ID)
	})
}

func panicking() *Rule {
	return &Rule{
		Name:     "Boom",
		Category: Deductive,
		Premises: []*match.Pattern{match.Var("X")},
		Cost:     0,
		Apply: func(store.Reader, []atom.Atom) ([]atom.Atom, error) {
			panic("boom")
		},
	}
}

func TestPanickingRuleIsContained(t *testing.T) {
	s := modusPonensStore(t)
	reg := NewRegistry()
	require.NoError(t, reg.Register(panicking()))
	require.NoError(t, reg.Register(ModusPonens()))
	metrics := NewMetrics(nil)
	e := newEngine(t, s, func(o *Options) {
		o.Registry = reg
		o.Metrics = metrics
	})

	_, err := e.ApplyRule(context.Background(), panicking(), []atom.Atom{{ID: "P", Type: atom.ConceptNode}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidRule))

	derived, err := e.RunInference(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, derived, 1)
	assert.Equal(t, "Q", derived[0].ID)
	assert.Greater(t, testutil.ToFloat64(metrics.RuleFailures.WithLabelValues("Boom")), 0.0)
}

func TestInvalidTruthValueIsRejected(t *testing.T) {
	s := newStore(t, atom.Node(atom.ConceptNode, "P", "P", atom.TVPtr(0.8, 0.9)))
	bad := &Rule{
		Name:     "Overconfident",
		Category: Deductive,
		Premises: []*match.Pattern{match.Var("X")},
		Apply: func(_ store.Reader, tuple []atom.Atom) ([]atom.Atom, error) {
			tv := truth.Value{Strength: 1.5, Confidence: 0.5}
			return []atom.Atom{atom.Node(atom.ConceptNode, "", "too-strong", &tv)}, nil
		},
	}
	reg := NewRegistry()
	require.NoError(t, reg.Register(bad))
	metrics := NewMetrics(nil)
	e := newEngine(t, s, func(o *Options) {
		o.Registry = reg
		o.Metrics = metrics
	})

	derived, err := e.RunInference(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, derived)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Rejected.WithLabelValues("Overconfident")))
}

func TestApplicationBudgetTruncatesStep(t *testing.T) {
	s := newStore(t,
		atom.Node(atom.ConceptNode, "P1", "P1", atom.TVPtr(0.8, 0.9)),
		atom.Node(atom.ConceptNode, "P2", "P2", atom.TVPtr(0.8, 0.9)),
		atom.Node(atom.ConceptNode, "Q1", "Q1", nil),
		atom.Node(atom.ConceptNode, "Q2", "Q2", nil),
		atom.Link(atom.ImplicationLink, "P1-Q1", atom.TVPtr(0.7, 0.8), "P1", "Q1"),
		atom.Link(atom.ImplicationLink, "P2-Q2", atom.TVPtr(0.7, 0.8), "P2", "Q2"),
	)
	e := newEngine(t, s, func(o *Options) {
		o.Config.MaxApplicationsPerStep = 1
	})

	derived, err := e.RunInference(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, derived, 1)
}

func TestSignificanceThresholdFiltersConclusions(t *testing.T) {
	s := modusPonensStore(t)
	e := newEngine(t, s, func(o *Options) {
		// 0.56 * 0.72 is about 0.40
		o.Config.SignificanceThreshold = 0.45
	})

	derived, err := e.RunInference(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, derived)
}

func TestRunInferenceCancelled(t *testing.T) {
	s := modusPonensStore(t)
	e := newEngine(t, s)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	derived, err := e.RunInference(ctx, 10)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, derived)
	assert.Equal(t, 3, s.Len())
}

func TestMetricsRecorded(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	s := modusPonensStore(t)
	e := newEngine(t, s, func(o *Options) { o.Metrics = metrics })

	_, err := e.RunInference(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Steps), "one deriving step and one fixed-point step")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Derived.WithLabelValues("ModusPonens")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Applications.WithLabelValues("ModusPonens")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "atomspace_pln_steps_total")
}

func TestExplain(t *testing.T) {
	s := modusPonensStore(t)
	e := newEngine(t, s)

	derived, err := e.RunInference(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, derived, 1)

	x, err := e.Explain(derived[0].ID, 3)
	require.NoError(t, err)
	require.NotNil(t, x.Derivation)
	assert.Equal(t, "ModusPonens", x.Derivation.Rule)
	assert.Equal(t, []string{"P", "P-Q"}, x.Derivation.Inputs)
	assert.Equal(t, 1, x.Derivation.Step)
	require.Len(t, x.Premises, 2)
	assert.Nil(t, x.Premises[0].Derivation)
	assert.Equal(t, "P", x.Premises[0].Atom.ID)

	out := x.String()
	assert.Contains(t, out, "ModusPonens")
	assert.Contains(t, out, "asserted")

	shallow, err := e.Explain(derived[0].ID, 0)
	require.NoError(t, err)
	assert.Empty(t, shallow.Premises)

	asserted, err := e.Explain("P", 3)
	require.NoError(t, err)
	assert.Nil(t, asserted.Derivation)

	_, err = e.Explain("nope", 1)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestStepTask(t *testing.T) {
	s := modusPonensStore(t)
	e := newEngine(t, s)
	task := &StepTask{Engine: e, Steps: 3}

	assert.Equal(t, "pln.step", task.Name())
	require.NoError(t, task.Run(context.Background()))
	q, ok := s.GetAtom("Q")
	require.True(t, ok)
	assert.NotNil(t, q.TruthValue)
}

func idsOf(atoms []atom.Atom) []string {
	out := make([]string, len(atoms))
	for i, a := range atoms {
		out[i] = a.ID
	}
	return out
}
