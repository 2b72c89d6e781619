package convergence

import (
	"fmt"

	"github.com/aretw0/entropia/pkg/distribution"
	"github.com/aretw0/entropia/pkg/domain"
	"github.com/aretw0/entropia/pkg/explorer"
	"github.com/aretw0/entropia/pkg/oracle"
)

// Config holds the bounds of a power iteration.
type Config struct {
	// MaxIterations is the maximum number of steps. Default: 100.
	MaxIterations int

	// Tolerance is the largest per-state mass change still considered steady.
	// Default: domain.DefaultConvergenceTolerance.
	Tolerance float64
}

// DefaultConfig returns the default power iteration bounds.
func DefaultConfig() Config {
	return Config{
		MaxIterations: 100,
		Tolerance:     domain.DefaultConvergenceTolerance,
	}
}

// Result describes a power iteration.
type Result struct {
	Distribution distribution.Distribution
	Iterations   int
	Converged    bool
	// Delta is the largest per-state change observed in the last iteration.
	Delta float64
}

// Stationary steps start through o until one step changes no mass by more than
// cfg.Tolerance, or cfg.MaxIterations steps have been taken.
func Stationary[S any](o *oracle.Oracle[S], start distribution.Distribution, cfg Config) (Result, error) {
	opts := distribution.StepOptions{Tolerance: o.Tolerance()}
	res := Result{Distribution: start}
	for res.Iterations < cfg.MaxIterations {
		next, _, err := distribution.Step(res.Distribution, o, opts)
		if err != nil {
			return res, fmt.Errorf("iteration %d: %w", res.Iterations+1, err)
		}
		res.Iterations++
		res.Delta = next.MaxDelta(res.Distribution)
		res.Distribution = next
		if res.Delta <= cfg.Tolerance {
			res.Converged = true
			return res, nil
		}
	}
	return res, nil
}

// UniformDistributionIsSteady starts from the uniform distribution over states and
// reports whether a step leaves every mass within eps of its predecessor before
// iterationLimit steps have been taken. A limit of zero or less performs no step
// and reports false, as does an empty state set.
func UniformDistributionIsSteady[S any](o *oracle.Oracle[S], states []S, iterationLimit int, eps float64) (bool, error) {
	if len(states) == 0 {
		return false, nil
	}
	hashes := make([]domain.StateHash, len(states))
	for i, s := range states {
		hashes[i] = o.Remember(s)
	}
	res, err := Stationary(o, distribution.Uniform(hashes), Config{MaxIterations: iterationLimit, Tolerance: eps})
	if err != nil {
		return false, err
	}
	return res.Converged, nil
}

// UniformIsSteadyFrom explores the states reachable from initial (bounded by
// exploreLimit expansions, zero for no bound) and checks the uniform distribution
// over every discovered state with UniformDistributionIsSteady.
func UniformIsSteadyFrom[S any](initial S, o *oracle.Oracle[S], exploreLimit, iterationLimit int, eps float64) (bool, error) {
	g, err := explorer.FullTraversal(initial, o, explorer.Options[S]{IterationLimit: exploreLimit})
	if err != nil {
		return false, err
	}
	var states []S
	for _, n := range g.Nodes() {
		if n.Pruned {
			continue
		}
		s, ok := o.State(n.Hash)
		if !ok {
			return false, fmt.Errorf("state %s: %w", n.Hash, domain.ErrUnknownState)
		}
		states = append(states, s)
	}
	return UniformDistributionIsSteady(o, states, iterationLimit, eps)
}
