package oracle

import (
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"slices"
	"sync/atomic"
	"time"

	"github.com/aretw0/entropia/internal/logging"
	"github.com/aretw0/entropia/pkg/distribution"
	"github.com/aretw0/entropia/pkg/domain"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Oracle resolves states to validated transition lists, invoking the underlying
// function at most once per state hash.
type Oracle[S any] struct {
	fn    domain.TransitionFunc[S]
	cache *Cache[S]
	group singleflight.Group
	calls atomic.Uint64

	tolerance   float64
	parallelism int
	logger      *slog.Logger
	hooks       domain.LifecycleHooks
}

// New creates an oracle for fn. A nil cache allocates a fresh one.
func New[S any](fn domain.TransitionFunc[S], cache *Cache[S], opts ...Option) *Oracle[S] {
	cfg := settings{
		tolerance:   domain.DefaultSumTolerance,
		parallelism: runtime.GOMAXPROCS(0),
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cache == nil {
		cache = NewCache[S]()
	}
	return &Oracle[S]{
		fn:          fn,
		cache:       cache,
		tolerance:   cfg.tolerance,
		parallelism: cfg.parallelism,
		logger:      cfg.logger,
		hooks:       cfg.hooks,
	}
}

// Cache returns the cache backing this oracle.
func (o *Oracle[S]) Cache() *Cache[S] {
	return o.cache
}

// Tolerance returns the weight-sum epsilon.
func (o *Oracle[S]) Tolerance() float64 {
	return o.tolerance
}

// Calls returns how many times the underlying function has been invoked.
func (o *Oracle[S]) Calls() uint64 {
	return o.calls.Load()
}

// Remember registers s with the cache without resolving it.
func (o *Oracle[S]) Remember(s S) domain.StateHash {
	return o.cache.Remember(s)
}

// State returns the registered state value for h.
func (o *Oracle[S]) State(h domain.StateHash) (S, bool) {
	return o.cache.State(h)
}

// Resolve returns the transitions leaving s. The first call for a given state runs
// the transition function and validates its output; later calls are served from the
// cache. Validation failures are cached too and returned as *domain.InvalidDistributionError.
func (o *Oracle[S]) Resolve(s S) ([]domain.Transition[S], error) {
	e, err := o.resolve(s)
	if err != nil {
		return nil, err
	}
	return slices.Clone(e.transitions), nil
}

func (o *Oracle[S]) resolve(s S) (*entry[S], error) {
	start := time.Now()
	h := domain.HashOf(s)
	o.cache.remember(h, s)

	hit := true
	e, ok := o.cache.lookup(h)
	if !ok {
		v, _, _ := o.group.Do(h.String(), func() (any, error) {
			if cur, ok := o.cache.lookup(h); ok {
				return cur, nil
			}
			hit = false
			gen := o.cache.generation()
			return o.cache.store(h, gen, o.compute(h, s)), nil
		})
		e = v.(*entry[S])
	}

	if o.hooks.OnResolve != nil {
		o.hooks.OnResolve(&domain.ResolveEvent{
			EventBase:   domain.EventBase{Timestamp: time.Now(), Type: domain.EventResolve},
			State:       h,
			Hit:         hit,
			Transitions: len(e.transitions),
			Duration:    time.Since(start),
			Err:         e.err,
		})
	}
	return e, e.err
}

func (o *Oracle[S]) compute(h domain.StateHash, s S) *entry[S] {
	o.calls.Add(1)
	ts := slices.Clone(o.fn(s))

	edges, err := o.validate(h, s, ts)
	if err != nil {
		o.logger.Debug("Rejected transitions", "state", h, "err", err)
		return &entry[S]{err: err}
	}
	for i, t := range ts {
		o.cache.remember(edges[i].To, t.Target)
	}
	o.logger.Debug("Resolved state", "state", h, "transitions", len(ts))
	return &entry[S]{transitions: ts, edges: edges}
}

func (o *Oracle[S]) validate(h domain.StateHash, s S, ts []domain.Transition[S]) ([]domain.Edge, error) {
	if len(ts) == 0 {
		return nil, nil
	}

	weights := make([]float64, len(ts))
	for i, t := range ts {
		weights[i] = t.Weight
	}
	sum := distribution.SumWeights(weights)
	fail := func(reason string) error {
		return &domain.InvalidDistributionError{State: h, Debug: domain.Describe(s), Sum: sum, Reason: reason}
	}

	edges := make([]domain.Edge, len(ts))
	for i, t := range ts {
		w := t.Weight
		switch {
		case math.IsNaN(w) || math.IsInf(w, 0):
			return nil, fail(fmt.Sprintf("transition %d has non-finite weight", i))
		case w < 0:
			return nil, fail(fmt.Sprintf("transition %d has negative weight %g", i, w))
		case w > 1+o.tolerance:
			return nil, fail(fmt.Sprintf("transition %d has weight %g above one", i, w))
		}
		edges[i] = domain.Edge{From: h, To: domain.HashOf(t.Target), Label: t.Label, Weight: w}
	}
	if math.Abs(sum-1) > o.tolerance {
		return nil, fail("weights do not sum to one")
	}
	return edges, nil
}

// ResolveAll resolves a batch of states. Results are aligned with the input.
// Wide batches are resolved concurrently; the first error wins.
func (o *Oracle[S]) ResolveAll(states []S) ([][]domain.Transition[S], error) {
	entries, err := o.resolveBatch(states)
	if err != nil {
		return nil, err
	}
	out := make([][]domain.Transition[S], len(entries))
	for i, e := range entries {
		out[i] = slices.Clone(e.transitions)
	}
	return out, nil
}

// Successors implements distribution.Resolver. Every hash must have been registered
// with the cache, either as an initial state or as a previously resolved target.
// The returned edge slices are shared with the cache and must not be modified.
func (o *Oracle[S]) Successors(hashes []domain.StateHash) ([][]domain.Edge, error) {
	states := make([]S, len(hashes))
	for i, h := range hashes {
		s, ok := o.cache.State(h)
		if !ok {
			return nil, fmt.Errorf("state %s: %w", h, domain.ErrUnknownState)
		}
		states[i] = s
	}
	entries, err := o.resolveBatch(states)
	if err != nil {
		return nil, err
	}
	out := make([][]domain.Edge, len(entries))
	for i, e := range entries {
		out[i] = e.edges
	}
	return out, nil
}

func (o *Oracle[S]) resolveBatch(states []S) ([]*entry[S], error) {
	out := make([]*entry[S], len(states))
	if len(states) < parallelThreshold || o.parallelism < 2 {
		for i, s := range states {
			e, err := o.resolve(s)
			if err != nil {
				return nil, err
			}
			out[i] = e
		}
		return out, nil
	}

	var g errgroup.Group
	g.SetLimit(o.parallelism)
	for i, s := range states {
		g.Go(func() error {
			e, err := o.resolve(s)
			if err != nil {
				return err
			}
			out[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ distribution.Resolver = (*Oracle[int])(nil)
