package distribution

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/aretw0/entropia/pkg/domain"
)

// Distribution maps state hashes to non-negative probability mass.
// The zero value is the empty distribution.
type Distribution struct {
	masses map[domain.StateHash]float64
}

// Point returns the distribution with all mass on h.
func Point(h domain.StateHash) Distribution {
	return Distribution{masses: map[domain.StateHash]float64{h: 1}}
}

// Uniform spreads mass evenly over the distinct hashes given.
func Uniform(hashes []domain.StateHash) Distribution {
	uniq := make(map[domain.StateHash]struct{}, len(hashes))
	for _, h := range hashes {
		uniq[h] = struct{}{}
	}
	if len(uniq) == 0 {
		return Distribution{}
	}
	p := 1 / float64(len(uniq))
	m := make(map[domain.StateHash]float64, len(uniq))
	for h := range uniq {
		m[h] = p
	}
	return Distribution{masses: m}
}

// FromMasses validates and copies a mass map. Masses must be finite and
// non-negative, and must sum to 1 within eps. Zero entries are dropped.
func FromMasses(masses map[domain.StateHash]float64, eps float64) (Distribution, error) {
	m := make(map[domain.StateHash]float64, len(masses))
	var acc accumulator
	for h, p := range masses {
		if !finite(p) {
			return Distribution{}, fmt.Errorf("mass of %s is %v: %w", h, p, domain.ErrArithmeticOverflow)
		}
		if p < 0 {
			return Distribution{}, fmt.Errorf("mass of %s is negative (%g): %w", h, p, domain.ErrMassNotConserved)
		}
		if p > 0 {
			m[h] = p
			acc.add(p)
		}
	}
	if sum := acc.value(); math.Abs(sum-1) > eps {
		return Distribution{}, fmt.Errorf("masses sum to %.12g: %w", sum, domain.ErrMassNotConserved)
	}
	return Distribution{masses: m}, nil
}

// Probability returns the mass on h, or 0 if h is not in the support.
func (d Distribution) Probability(h domain.StateHash) float64 {
	return d.masses[h]
}

// Len returns the number of states carrying mass.
func (d Distribution) Len() int {
	return len(d.masses)
}

// Support returns the hashes carrying mass in ascending order.
func (d Distribution) Support() []domain.StateHash {
	hs := make([]domain.StateHash, 0, len(d.masses))
	for h := range d.masses {
		hs = append(hs, h)
	}
	slices.Sort(hs)
	return hs
}

// Masses returns a copy of the underlying map.
func (d Distribution) Masses() map[domain.StateHash]float64 {
	out := make(map[domain.StateHash]float64, len(d.masses))
	for h, p := range d.masses {
		out[h] = p
	}
	return out
}

// Each calls fn for every entry in ascending hash order until fn returns false.
func (d Distribution) Each(fn func(h domain.StateHash, p float64) bool) {
	for _, h := range d.Support() {
		if !fn(h, d.masses[h]) {
			return
		}
	}
}

// Sum returns the total mass.
func (d Distribution) Sum() float64 {
	var acc accumulator
	d.Each(func(_ domain.StateHash, p float64) bool {
		acc.add(p)
		return true
	})
	return acc.value()
}

// Entropy returns the Shannon entropy in bits. A point mass has entropy 0.
func (d Distribution) Entropy() float64 {
	var acc accumulator
	d.Each(func(_ domain.StateHash, p float64) bool {
		if p > 0 {
			acc.add(-p * math.Log2(p))
		}
		return true
	})
	return math.Max(0, acc.value())
}

// EuclideanNorm returns sqrt(Σ p²).
func (d Distribution) EuclideanNorm() float64 {
	var acc accumulator
	d.Each(func(_ domain.StateHash, p float64) bool {
		acc.add(p * p)
		return true
	})
	return math.Sqrt(acc.value())
}

// MaxDelta returns the largest per-state absolute mass difference between d and o,
// treating absent states as zero.
func (d Distribution) MaxDelta(o Distribution) float64 {
	var delta float64
	for h, p := range d.masses {
		delta = math.Max(delta, math.Abs(p-o.masses[h]))
	}
	for h, q := range o.masses {
		if _, ok := d.masses[h]; !ok {
			delta = math.Max(delta, q)
		}
	}
	return delta
}

// Equal reports whether every mass of d and o differs by at most eps.
func (d Distribution) Equal(o Distribution, eps float64) bool {
	return d.MaxDelta(o) <= eps
}

// String renders the distribution in ascending hash order.
func (d Distribution) String() string {
	var b strings.Builder
	b.WriteString("{")
	first := true
	d.Each(func(h domain.StateHash, p float64) bool {
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%s: %g", h, p)
		return true
	})
	b.WriteString("}")
	return b.String()
}
