package rules

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/entropia/internal/logging"
	"github.com/aretw0/entropia/pkg/domain"
)

// Invalidator is the part of a transition cache an Engine needs to keep it consistent
// with the rule set. *oracle.Cache satisfies it.
type Invalidator[S any] interface {
	Hashes() []domain.StateHash
	State(h domain.StateHash) (S, bool)
	Invalidate(hashes ...domain.StateHash) int
}

type settings struct {
	normalize bool
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*settings)

// WithNormalization selects ComposeNormalized instead of Compose.
func WithNormalization() Option {
	return func(s *settings) {
		s.normalize = true
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Engine holds a mutable, ordered rule set and its predicate cache.
// Safe for concurrent use.
type Engine[S any] struct {
	mu         sync.RWMutex
	rules      []Rule[S]
	predicates *PredicateCache
	bound      Invalidator[S]

	normalize bool
	logger    *slog.Logger
}

// NewEngine creates an engine with an initial rule set. Rule IDs must be unique.
func NewEngine[S any](rules []Rule[S], opts ...Option) (*Engine[S], error) {
	cfg := settings{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	e := &Engine[S]{
		predicates: NewPredicateCache(),
		normalize:  cfg.normalize,
		logger:     cfg.logger,
	}
	for _, r := range rules {
		if err := e.insert(r); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Predicates returns the engine's predicate cache.
func (e *Engine[S]) Predicates() *PredicateCache {
	return e.predicates
}

// Normalized reports whether the engine composes with ComposeNormalized.
func (e *Engine[S]) Normalized() bool {
	return e.normalize
}

// Rules returns a copy of the current rule set in insertion order.
func (e *Engine[S]) Rules() []Rule[S] {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.rules)
}

// Rule looks up a rule by ID.
func (e *Engine[S]) Rule(id string) (Rule[S], bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	i := e.find(id)
	if i < 0 {
		return Rule[S]{}, false
	}
	return e.rules[i], true
}

// Compose returns the transitions of s under the current rule set.
func (e *Engine[S]) Compose(s S) []domain.Transition[S] {
	e.mu.RLock()
	rules := e.rules
	e.mu.RUnlock()
	if e.normalize {
		return ComposeNormalized(rules, s, e.predicates)
	}
	return Compose(rules, s, e.predicates)
}

// TransitionFunc exposes Compose as a transition function for an oracle.
func (e *Engine[S]) TransitionFunc() domain.TransitionFunc[S] {
	return e.Compose
}

// Bind attaches the transition cache that Add and Remove keep consistent.
func (e *Engine[S]) Bind(cache Invalidator[S]) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bound = cache
}

// Add registers a rule and invalidates the cached states it applies to.
func (e *Engine[S]) Add(r Rule[S]) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.insert(r); err != nil {
		return err
	}
	e.invalidate(r)
	return nil
}

// Remove unregisters a rule, forgets its predicate results and invalidates the
// cached states it applied to.
func (e *Engine[S]) Remove(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.find(id)
	if i < 0 {
		return fmt.Errorf("%s: %w", id, domain.ErrRuleNotFound)
	}
	r := e.rules[i]
	e.invalidate(r)
	e.rules = slices.Delete(slices.Clone(e.rules), i, i+1)
	e.predicates.Forget(id)
	return nil
}

func (e *Engine[S]) insert(r Rule[S]) error {
	if err := r.validate(); err != nil {
		return err
	}
	if e.find(r.ID) >= 0 {
		return fmt.Errorf("%s: %w", r.ID, domain.ErrRuleExists)
	}
	// Copy on write so Compose can read a stable slice without holding the lock.
	e.rules = append(slices.Clip(e.rules), r)
	return nil
}

func (e *Engine[S]) find(id string) int {
	return slices.IndexFunc(e.rules, func(r Rule[S]) bool { return r.ID == id })
}

// invalidate drops the cached transitions of every state r applies to.
// Callers hold e.mu.
func (e *Engine[S]) invalidate(r Rule[S]) {
	if e.bound == nil || r.Condition.IsNever() {
		return
	}
	var affected []domain.StateHash
	for _, h := range e.bound.Hashes() {
		s, ok := e.bound.State(h)
		if !ok {
			continue
		}
		if r.Applies(s, h, e.predicates) {
			affected = append(affected, h)
		}
	}
	n := e.bound.Invalidate(affected...)
	e.logger.Debug("Invalidated cached transitions", "rule", r.ID, "condition", r.Condition.String(), "states", n)
}
