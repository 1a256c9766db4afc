package match

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teranos/atomspace/atom"
	"github.com/teranos/atomspace/logger"
	"github.com/teranos/atomspace/store"
)

type findConfig struct {
	minSTI      *float64
	parallelism int
	limit       int
}

// FindOption tunes FindPatterns.
type FindOption func(*findConfig)

// WithAttentionalFocus restricts candidate roots to atoms with STI >= minSTI.
// Atoms without an attention value have STI 0.
func WithAttentionalFocus(minSTI float64) FindOption {
	return func(c *findConfig) { c.minSTI = &minSTI }
}

// WithParallelism evaluates up to n roots concurrently. Result order does not
// depend on n.
func WithParallelism(n int) FindOption {
	return func(c *findConfig) { c.parallelism = n }
}

// WithLimit keeps only the first n results after ordering; 0 keeps all.
func WithLimit(n int) FindOption {
	return func(c *findConfig) { c.limit = n }
}

// FindPatterns matches p against every atom of one snapshot as an independent
// root and returns the successful matches, most important root (highest STI)
// first, ties broken by id.
func (m *Matcher) FindPatterns(ctx context.Context, p *Pattern, opts ...FindOption) ([]Result, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	cfg := findConfig{parallelism: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	start := time.Now()
	view := m.view()
	roots := candidates(view, p, cfg.minSTI)
	found := make([]*Result, len(roots))

	if cfg.parallelism <= 1 {
		for i, root := range roots {
			res, err := m.matchRoot(ctx, view, root, p, nil)
			if err != nil {
				return nil, err
			}
			found[i] = res
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cfg.parallelism)
		for i, root := range roots {
			i, root := i, root
			g.Go(func() error {
				res, err := m.matchRoot(gctx, view, root, p, nil)
				if err != nil {
					return err
				}
				found[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	results := make([]Result, 0, len(found))
	for _, res := range found {
		if res != nil {
			results = append(results, *res)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Root(), results[j].Root()
		if a.STI() != b.STI() {
			return a.STI() > b.STI()
		}
		return a.ID < b.ID
	})
	if cfg.limit > 0 && len(results) > cfg.limit {
		results = results[:cfg.limit]
	}

	m.log.Debugw("find patterns",
		logger.FieldPattern, p.String(),
		logger.FieldRoots, len(roots),
		logger.FieldCount, len(results),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return results, nil
}

// MatchAll validates p once and matches it against each candidate in order,
// starting every attempt from bindings. Results keep candidate order; the
// inference engine uses it to join rule premises position by position.
func (m *Matcher) MatchAll(ctx context.Context, candidates []atom.Atom, p *Pattern, bindings Bindings) ([]Result, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	view := m.view()
	var out []Result
	for _, a := range candidates {
		res, err := m.matchRoot(ctx, view, a, p, bindings)
		if err != nil {
			return nil, err
		}
		if res != nil {
			out = append(out, *res)
		}
	}
	return out, nil
}

// candidates lists the roots worth trying. A pattern with a type constraint
// can only match atoms of that type, at any branch.
func candidates(view store.Reader, p *Pattern, minSTI *float64) []atom.Atom {
	pool := view.All()
	if p.Type != "" {
		pool = view.GetAtomsByType(p.Type)
	}
	if minSTI == nil {
		return pool
	}
	out := make([]atom.Atom, 0, len(pool))
	for _, a := range pool {
		if a.STI() >= *minSTI {
			out = append(out, a)
		}
	}
	return out
}
