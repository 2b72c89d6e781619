package distribution

import "math"

// accumulator is a Neumaier compensated sum.
type accumulator struct {
	sum float64
	c   float64
}

func (a *accumulator) add(v float64) {
	t := a.sum + v
	if math.Abs(a.sum) >= math.Abs(v) {
		a.c += (a.sum - t) + v
	} else {
		a.c += (v - t) + a.sum
	}
	a.sum = t
}

func (a *accumulator) value() float64 {
	return a.sum + a.c
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// SumWeights returns the compensated sum of a slice of weights.
func SumWeights(ws []float64) float64 {
	var acc accumulator
	for _, w := range ws {
		acc.add(w)
	}
	return acc.value()
}
