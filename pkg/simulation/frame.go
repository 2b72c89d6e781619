package simulation

import "github.com/aretw0/entropia/pkg/distribution"

// Kind tells how a frame was produced.
type Kind string

const (
	KindInitial      Kind = "initial"
	KindStep         Kind = "step"
	KindIntervention Kind = "intervention"
)

// Frame is one entry of the history.
type Frame struct {
	Time         uint64
	Kind         Kind
	Label        string
	Distribution distribution.Distribution
}

// Mass assigns probability to a state when building an initial distribution.
type Mass[S any] struct {
	State S
	Mass  float64
}

// Cursor marks a position in an engine's sequence of distributions.
type Cursor struct {
	engine uint64
	time   uint64
}

// Time returns the time of the last distribution the cursor has seen.
func (c Cursor) Time() uint64 {
	return c.time
}
