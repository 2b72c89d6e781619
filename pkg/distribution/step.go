package distribution

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/aretw0/entropia/pkg/domain"
)

// Resolver answers successor queries for a batch of states.
// The result is aligned with the input: out[i] holds the edges leaving hashes[i],
// and an empty slice marks an absorbing state.
type Resolver interface {
	Successors(hashes []domain.StateHash) ([][]domain.Edge, error)
}

// StepOptions tunes a single Step.
type StepOptions struct {
	// Tolerance bounds the conservation error between input and output mass.
	Tolerance float64

	// Prune drops output entries with mass strictly below this value. Zero disables pruning.
	Prune float64

	// Budget is the total mass pruning may still drop. Entries are dropped
	// smallest first only while the dropped total stays strictly below Budget.
	Budget float64
}

// DefaultStepOptions returns options derived from the given tolerances.
func DefaultStepOptions(t domain.Tolerances) StepOptions {
	return StepOptions{
		Tolerance: t.Sum,
		Prune:     t.Prune,
		Budget:    t.Sum,
	}
}

// Stats describes what a Step did.
type Stats struct {
	Sources int
	Targets int
	Pruned  float64
	Dropped int
}

// Step evolves cur by one time unit.
//
// Every state with positive mass m distributes m*w to each successor reached with
// weight w. Contributions reaching the same target are added with compensated
// summation. Absorbing states keep their mass.
func Step(cur Distribution, r Resolver, opts StepOptions) (Distribution, Stats, error) {
	support := make([]domain.StateHash, 0, len(cur.masses))
	for _, h := range cur.Support() {
		if cur.masses[h] > 0 {
			support = append(support, h)
		}
	}
	stats := Stats{Sources: len(support)}

	succ, err := r.Successors(support)
	if err != nil {
		return Distribution{}, stats, err
	}
	if len(succ) != len(support) {
		return Distribution{}, stats, fmt.Errorf("resolver returned %d edge lists for %d states", len(succ), len(support))
	}

	b := NewBuilder(len(support))
	var in accumulator
	for i, h := range support {
		m := cur.masses[h]
		in.add(m)
		if len(succ[i]) == 0 {
			if err := b.Add(h, m); err != nil {
				return Distribution{}, stats, err
			}
			continue
		}
		for _, e := range succ[i] {
			if err := b.Add(e.To, m*e.Weight); err != nil {
				return Distribution{}, stats, fmt.Errorf("step from %s: %w", h, err)
			}
		}
	}

	out, err := b.Distribution()
	if err != nil {
		return Distribution{}, stats, err
	}
	next := out.masses

	if opts.Prune > 0 && opts.Budget > 0 {
		stats.Pruned, stats.Dropped = prune(next, opts.Prune, opts.Budget)
	}
	stats.Targets = len(next)

	if drift := math.Abs(out.Sum() + stats.Pruned - in.value()); drift > opts.Tolerance {
		return Distribution{}, stats, fmt.Errorf("step drifted by %g: %w", drift, domain.ErrMassNotConserved)
	}
	return out, stats, nil
}

// prune removes the smallest entries below threshold while the dropped total stays
// below budget. It returns the dropped mass and the number of removed entries.
func prune(m map[domain.StateHash]float64, threshold, budget float64) (float64, int) {
	type entry struct {
		h domain.StateHash
		p float64
	}
	var small []entry
	for h, p := range m {
		if p < threshold {
			small = append(small, entry{h, p})
		}
	}
	slices.SortFunc(small, func(a, b entry) int {
		if c := cmp.Compare(a.p, b.p); c != 0 {
			return c
		}
		return cmp.Compare(a.h, b.h)
	})

	var dropped accumulator
	n := 0
	for _, e := range small {
		if dropped.value()+e.p >= budget {
			break
		}
		dropped.add(e.p)
		delete(m, e.h)
		n++
	}
	return dropped.value(), n
}
