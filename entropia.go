package entropia

import (
	"sync"

	"github.com/aretw0/entropia/internal/logging"
	"github.com/aretw0/entropia/pkg/convergence"
	"github.com/aretw0/entropia/pkg/distribution"
	"github.com/aretw0/entropia/pkg/domain"
	"github.com/aretw0/entropia/pkg/explorer"
	"github.com/aretw0/entropia/pkg/oracle"
	"github.com/aretw0/entropia/pkg/rules"
	"github.com/aretw0/entropia/pkg/simulation"
	"github.com/aretw0/entropia/pkg/snapshot"
)

// Chain is the high-level entry point for the library.
// It wires an oracle, a simulation engine and, for rule based chains, a rule
// engine, and provides a simplified API over them. Safe for concurrent use.
type Chain[S any] struct {
	initial S
	oracle  *oracle.Oracle[S]
	sim     *simulation.Engine[S]
	rules   *rules.Engine[S]
	cfg     settings

	mu    sync.Mutex
	graph *explorer.Graph
}

// New creates a chain starting with all mass on initial, evolved by fn.
// fn must be a pure function of its argument.
func New[S any](initial S, fn domain.TransitionFunc[S], opts ...Option) *Chain[S] {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logging.NewNop()
	}

	o := oracle.New(fn, nil,
		oracle.WithTolerance(cfg.tolerances.Sum),
		oracle.WithParallelism(cfg.parallelism),
		oracle.WithLogger(cfg.logger),
		oracle.WithHooks(cfg.hooks),
	)
	sim := simulation.New(initial, o,
		simulation.WithTolerances(cfg.tolerances),
		simulation.WithLogger(cfg.logger),
		simulation.WithHooks(cfg.hooks),
	)
	return &Chain[S]{initial: initial, oracle: o, sim: sim, cfg: cfg}
}

// FromRules creates a chain whose transitions are composed from rs. The rule set
// stays editable through Rules; edits invalidate only the affected cached states.
func FromRules[S any](initial S, rs []rules.Rule[S], opts ...Option) (*Chain[S], error) {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	var ruleOpts []rules.Option
	if cfg.normalize {
		ruleOpts = append(ruleOpts, rules.WithNormalization())
	}
	if cfg.logger != nil {
		ruleOpts = append(ruleOpts, rules.WithLogger(cfg.logger))
	}
	eng, err := rules.NewEngine(rs, ruleOpts...)
	if err != nil {
		return nil, err
	}

	c := New(initial, eng.TransitionFunc(), opts...)
	eng.Bind(c.oracle.Cache())
	c.rules = eng
	return c, nil
}

// Step advances the simulation by one time step and returns the new distribution.
func (c *Chain[S]) Step() (distribution.Distribution, error) {
	return c.sim.NextStep()
}

// Run advances the simulation by n steps and returns the last distribution.
func (c *Chain[S]) Run(n int) (distribution.Distribution, error) {
	return c.sim.Run(n)
}

// Cursor returns a cursor positioned at the current time.
func (c *Chain[S]) Cursor() simulation.Cursor {
	return c.sim.Cursor()
}

// Advance steps the simulation from the position c points at.
func (c *Chain[S]) Advance(cur simulation.Cursor) (distribution.Distribution, simulation.Cursor, error) {
	return c.sim.Advance(cur)
}

// Frame returns the recorded frame at time t.
func (c *Chain[S]) Frame(t uint64) (simulation.Frame, error) {
	return c.sim.Frame(t)
}

// Time returns the index of the latest frame.
func (c *Chain[S]) Time() uint64 {
	return c.sim.Time()
}

// Entropy returns the Shannon entropy, in bits, of the distribution at time t.
func (c *Chain[S]) Entropy(t uint64) (float64, error) {
	return c.sim.Entropy(t)
}

// Probability returns the mass of s at time t.
func (c *Chain[S]) Probability(t uint64, s S) (float64, error) {
	return c.sim.Probability(t, s)
}

// EuclideanNorm returns the L2 norm of the distribution at time t.
func (c *Chain[S]) EuclideanNorm(t uint64) (float64, error) {
	return c.sim.EuclideanNorm(t)
}

// Intervene forces r's action on every state of the current distribution and
// records the result as a new frame.
func (c *Chain[S]) Intervene(r rules.Rule[S]) (distribution.Distribution, error) {
	return c.sim.ApplyIntervention(r)
}

// Explore maps the states reachable from the initial state. The result is kept
// and included by later calls to Snapshot.
func (c *Chain[S]) Explore() (*explorer.Graph, error) {
	g, err := explorer.FullTraversal(c.initial, c.oracle, explorer.Options[S]{
		IterationLimit: c.cfg.iterationLimit,
		BatchSize:      c.cfg.batchSize,
		Logger:         c.cfg.logger,
		Hooks:          c.cfg.hooks,
	})
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.graph = g
	c.mu.Unlock()
	return g, nil
}

// Graph returns the graph of the last successful Explore, or nil.
func (c *Chain[S]) Graph() *explorer.Graph {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.graph
}

// IsUniformSteady explores the reachable states and reports whether the uniform
// distribution over them stays put within iterationLimit steps.
func (c *Chain[S]) IsUniformSteady(iterationLimit int) (bool, error) {
	return convergence.UniformIsSteadyFrom(c.initial, c.oracle, c.cfg.iterationLimit, iterationLimit, c.cfg.tolerances.Convergence)
}

// Stationary iterates from the current distribution without recording frames.
func (c *Chain[S]) Stationary(maxIterations int) (convergence.Result, error) {
	return convergence.Stationary(c.oracle, c.sim.Current(), convergence.Config{
		MaxIterations: maxIterations,
		Tolerance:     c.cfg.tolerances.Convergence,
	})
}

// Snapshot captures the history, and the last explored graph if any.
func (c *Chain[S]) Snapshot(metadata map[string]string) (*snapshot.Snapshot, error) {
	return snapshot.Capture(c.sim, c.Graph(), metadata)
}

// Simulation exposes the underlying simulation engine.
func (c *Chain[S]) Simulation() *simulation.Engine[S] {
	return c.sim
}

// Oracle exposes the underlying transition oracle.
func (c *Chain[S]) Oracle() *oracle.Oracle[S] {
	return c.oracle
}

// Rules exposes the rule engine, or nil when the chain was built from a function.
func (c *Chain[S]) Rules() *rules.Engine[S] {
	return c.rules
}
