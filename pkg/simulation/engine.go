package simulation

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/entropia/internal/logging"
	"github.com/aretw0/entropia/pkg/distribution"
	"github.com/aretw0/entropia/pkg/domain"
	"github.com/aretw0/entropia/pkg/oracle"
	"github.com/aretw0/entropia/pkg/rules"
)

var engineIDs atomic.Uint64

// Engine is a sequential time-stepper over distributions.
// Methods are safe for concurrent use, but steps are strictly ordered.
type Engine[S any] struct {
	id     uint64
	oracle *oracle.Oracle[S]

	mu     sync.RWMutex
	frames []Frame
	offset uint64
	pruned float64

	tolerances domain.Tolerances
	logger     *slog.Logger
	hooks      domain.LifecycleHooks
}

func newEngine[S any](o *oracle.Oracle[S], opts []Option) *Engine[S] {
	cfg := settings{
		tolerances: domain.DefaultTolerances(),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine[S]{
		id:         engineIDs.Add(1),
		oracle:     o,
		tolerances: cfg.tolerances,
		logger:     cfg.logger,
		hooks:      cfg.hooks,
	}
}

// New starts a simulation with all mass on initial at time 0.
func New[S any](initial S, o *oracle.Oracle[S], opts ...Option) *Engine[S] {
	e := newEngine(o, opts)
	h := o.Remember(initial)
	e.frames = []Frame{{Time: 0, Kind: KindInitial, Distribution: distribution.Point(h)}}
	return e
}

// NewWithDistribution starts a simulation from an arbitrary distribution. Masses for
// equal states are added; the total must be 1 within the sum tolerance.
func NewWithDistribution[S any](o *oracle.Oracle[S], masses []Mass[S], opts ...Option) (*Engine[S], error) {
	e := newEngine(o, opts)
	b := distribution.NewBuilder(len(masses))
	for _, m := range masses {
		if err := b.Add(o.Remember(m.State), m.Mass); err != nil {
			return nil, err
		}
	}
	d, err := b.Distribution()
	if err != nil {
		return nil, err
	}
	if sum := d.Sum(); math.Abs(sum-1) > e.tolerances.Sum {
		return nil, fmt.Errorf("initial masses sum to %.12g: %w", sum, domain.ErrMassNotConserved)
	}
	e.frames = []Frame{{Time: 0, Kind: KindInitial, Distribution: d}}
	return e, nil
}

// Resume rebuilds an engine from recorded frames, typically loaded from a snapshot.
// Frames must have consecutive times, every supported state must be registered with
// the oracle's cache, and pruned is the mass already dropped by earlier steps.
func Resume[S any](o *oracle.Oracle[S], frames []Frame, pruned float64, opts ...Option) (*Engine[S], error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames to resume from")
	}
	e := newEngine(o, opts)
	for i, f := range frames {
		if i > 0 && f.Time != frames[i-1].Time+1 {
			return nil, fmt.Errorf("frame %d has time %d after %d", i, f.Time, frames[i-1].Time)
		}
		if drift := math.Abs(f.Distribution.Sum() - 1); drift > e.tolerances.Sum+pruned {
			return nil, fmt.Errorf("frame at time %d: %w", f.Time, domain.ErrMassNotConserved)
		}
		for _, h := range f.Distribution.Support() {
			if _, ok := o.State(h); !ok {
				return nil, fmt.Errorf("frame at time %d references %s: %w", f.Time, h, domain.ErrUnknownState)
			}
		}
	}
	e.frames = slices.Clone(frames)
	e.offset = frames[0].Time
	e.pruned = pruned
	return e, nil
}

// Oracle returns the oracle shared by this engine and its clones.
func (e *Engine[S]) Oracle() *oracle.Oracle[S] {
	return e.oracle
}

// Tolerances returns the tolerances in effect.
func (e *Engine[S]) Tolerances() domain.Tolerances {
	return e.tolerances
}

// Time returns the time of the current distribution.
func (e *Engine[S]) Time() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.now()
}

func (e *Engine[S]) now() uint64 {
	return e.offset + uint64(len(e.frames)-1)
}

// Earliest returns the oldest time still in the history.
func (e *Engine[S]) Earliest() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.offset
}

// Pruned returns the total mass dropped by pruning so far.
func (e *Engine[S]) Pruned() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.pruned
}

// Current returns the latest distribution.
func (e *Engine[S]) Current() distribution.Distribution {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.frames[len(e.frames)-1].Distribution
}

// History returns a copy of the recorded frames.
func (e *Engine[S]) History() []Frame {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.frames)
}

// KnownStates returns how many distinct states the shared cache has seen.
func (e *Engine[S]) KnownStates() int {
	return e.oracle.Cache().Known()
}

// Frame returns the frame recorded at time t.
func (e *Engine[S]) Frame(t uint64) (Frame, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if t < e.offset || t > e.now() {
		return Frame{}, &domain.NotYetComputedError{Time: t, Earliest: e.offset, Latest: e.now()}
	}
	return e.frames[t-e.offset], nil
}

// Distribution returns the distribution at time t.
func (e *Engine[S]) Distribution(t uint64) (distribution.Distribution, error) {
	f, err := e.Frame(t)
	return f.Distribution, err
}

// Entropy returns the entropy in bits of the distribution at time t.
func (e *Engine[S]) Entropy(t uint64) (float64, error) {
	f, err := e.Frame(t)
	if err != nil {
		return 0, err
	}
	return f.Distribution.Entropy(), nil
}

// Probability returns the mass of s at time t.
func (e *Engine[S]) Probability(t uint64, s S) (float64, error) {
	f, err := e.Frame(t)
	if err != nil {
		return 0, err
	}
	return f.Distribution.Probability(domain.HashOf(s)), nil
}

// EuclideanNorm returns the Euclidean norm of the distribution at time t.
func (e *Engine[S]) EuclideanNorm(t uint64) (float64, error) {
	f, err := e.Frame(t)
	if err != nil {
		return 0, err
	}
	return f.Distribution.EuclideanNorm(), nil
}

// NextStep computes the next distribution through the oracle and appends it.
func (e *Engine[S]) NextStep() (distribution.Distribution, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.step()
}

// Run performs n steps and returns the last distribution.
func (e *Engine[S]) Run(n int) (distribution.Distribution, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur := e.frames[len(e.frames)-1].Distribution
	for i := 0; i < n; i++ {
		var err error
		if cur, err = e.step(); err != nil {
			return distribution.Distribution{}, err
		}
	}
	return cur, nil
}

func (e *Engine[S]) step() (distribution.Distribution, error) {
	start := time.Now()
	if e.now() == math.MaxUint64 {
		return distribution.Distribution{}, fmt.Errorf("time counter: %w", domain.ErrArithmeticOverflow)
	}

	cur := e.frames[len(e.frames)-1].Distribution
	opts := distribution.DefaultStepOptions(e.tolerances)
	opts.Budget = e.tolerances.Sum - e.pruned

	next, stats, err := distribution.Step(cur, e.oracle, opts)
	if err != nil {
		return distribution.Distribution{}, fmt.Errorf("step at time %d: %w", e.now(), err)
	}
	e.pruned += stats.Pruned
	e.append(Frame{Kind: KindStep, Distribution: next}, stats.Pruned, start)
	return next, nil
}

func (e *Engine[S]) append(f Frame, pruned float64, start time.Time) {
	f.Time = e.now() + 1
	e.frames = append(e.frames, f)

	entropy := f.Distribution.Entropy()
	e.logger.Debug("Appended distribution",
		"time", f.Time,
		"kind", f.Kind,
		"support", f.Distribution.Len(),
		"entropy", entropy,
	)
	if e.hooks.OnStep != nil {
		e.hooks.OnStep(&domain.StepEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventStep},
			Time:      f.Time,
			Kind:      string(f.Kind),
			Support:   f.Distribution.Len(),
			Entropy:   entropy,
			Pruned:    pruned,
			Duration:  time.Since(start),
		})
	}
}

// ApplyIntervention forces a rule's action on every supported state, ignoring its
// condition. A state with mass m whose action yields weight w keeps m - m*w and
// sends m*w to the action's target. When the target is the state itself the whole
// mass stays in place.
func (e *Engine[S]) ApplyIntervention(r rules.Rule[S]) (distribution.Distribution, error) {
	if r.Action == nil {
		return distribution.Distribution{}, fmt.Errorf("rule %q has no action", r.ID)
	}
	start := time.Now()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.now() == math.MaxUint64 {
		return distribution.Distribution{}, fmt.Errorf("time counter: %w", domain.ErrArithmeticOverflow)
	}

	cur := e.frames[len(e.frames)-1].Distribution
	b := distribution.NewBuilder(cur.Len() * 2)
	var failed error
	cur.Each(func(h domain.StateHash, m float64) bool {
		s, ok := e.oracle.State(h)
		if !ok {
			failed = fmt.Errorf("state %s: %w", h, domain.ErrUnknownState)
			return false
		}
		t := r.Action(s)
		w, err := e.interventionWeight(h, s, t.Weight)
		if err != nil {
			failed = err
			return false
		}
		target := e.oracle.Remember(t.Target)
		if target == h {
			failed = b.Add(h, m)
			return failed == nil
		}
		moved := m * w
		if failed = b.Add(target, moved); failed != nil {
			return false
		}
		failed = b.Add(h, m-moved)
		return failed == nil
	})
	if failed != nil {
		return distribution.Distribution{}, fmt.Errorf("intervention %q: %w", r.ID, failed)
	}

	next, err := b.Distribution()
	if err != nil {
		return distribution.Distribution{}, err
	}
	if drift := math.Abs(next.Sum() - cur.Sum()); drift > e.tolerances.Sum {
		return distribution.Distribution{}, fmt.Errorf("intervention %q drifted by %g: %w", r.ID, drift, domain.ErrMassNotConserved)
	}

	e.append(Frame{Kind: KindIntervention, Label: r.ID, Distribution: next}, 0, start)
	return next, nil
}

func (e *Engine[S]) interventionWeight(h domain.StateHash, s S, w float64) (float64, error) {
	switch {
	case math.IsNaN(w) || math.IsInf(w, 0) || w < 0 || w > 1+e.tolerances.Sum:
		return 0, &domain.InvalidDistributionError{
			State:  h,
			Debug:  domain.Describe(s),
			Sum:    w,
			Reason: "intervention weight outside [0, 1]",
		}
	case w > 1:
		return 1, nil
	}
	return w, nil
}

// CloneWithoutHistory returns an engine that shares this engine's oracle and cache
// but keeps only the current frame. Time indices are preserved.
func (e *Engine[S]) CloneWithoutHistory() *Engine[S] {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return &Engine[S]{
		id:         engineIDs.Add(1),
		oracle:     e.oracle,
		frames:     []Frame{e.frames[len(e.frames)-1]},
		offset:     e.now(),
		pruned:     e.pruned,
		tolerances: e.tolerances,
		logger:     e.logger,
		hooks:      e.hooks,
	}
}

// Cursor returns a cursor positioned at the current time.
func (e *Engine[S]) Cursor() Cursor {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Cursor{engine: e.id, time: e.now()}
}

// Advance yields the distribution following the one c points at, and a cursor for
// the next call. A cursor from another engine, or one that has fallen behind because
// the engine moved on through another path, is rejected with domain.ErrStaleCursor.
func (e *Engine[S]) Advance(c Cursor) (distribution.Distribution, Cursor, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c.engine != e.id || c.time != e.now() {
		return distribution.Distribution{}, c, fmt.Errorf("cursor at %d, engine at %d: %w", c.time, e.now(), domain.ErrStaleCursor)
	}
	next, err := e.step()
	if err != nil {
		return distribution.Distribution{}, c, err
	}
	return next, Cursor{engine: e.id, time: e.now()}, nil
}
