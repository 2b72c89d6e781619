package distribution

import (
	"fmt"

	"github.com/aretw0/entropia/pkg/domain"
)

// Builder accumulates mass contributions per state with compensated summation.
type Builder struct {
	acc   map[domain.StateHash]*accumulator
	total accumulator
}

// NewBuilder creates a builder sized for roughly n states.
func NewBuilder(n int) *Builder {
	return &Builder{acc: make(map[domain.StateHash]*accumulator, n)}
}

// Add contributes m to h. Negative or non-finite contributions are rejected.
func (b *Builder) Add(h domain.StateHash, m float64) error {
	if !finite(m) {
		return fmt.Errorf("mass %g for %s: %w", m, h, domain.ErrArithmeticOverflow)
	}
	if m < 0 {
		return fmt.Errorf("negative mass %g for %s: %w", m, h, domain.ErrMassNotConserved)
	}
	a, ok := b.acc[h]
	if !ok {
		a = &accumulator{}
		b.acc[h] = a
	}
	a.add(m)
	b.total.add(m)
	return nil
}

// Total returns the mass added so far.
func (b *Builder) Total() float64 {
	return b.total.value()
}

// Distribution returns the accumulated masses, dropping zero entries.
func (b *Builder) Distribution() (Distribution, error) {
	m := make(map[domain.StateHash]float64, len(b.acc))
	for h, a := range b.acc {
		v := a.value()
		if !finite(v) {
			return Distribution{}, fmt.Errorf("accumulated mass for %s: %w", h, domain.ErrArithmeticOverflow)
		}
		if v > 0 {
			m[h] = v
		}
	}
	return Distribution{masses: m}, nil
}
