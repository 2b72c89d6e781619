package domain

// AbsorbingLabel labels the implicit self-loop of a state without outgoing transitions.
const AbsorbingLabel = "absorb"

// Transition is a weighted move from a source state to Target.
//
// The transitions returned for a single state form a probability distribution:
// each Weight lies in [0, 1] and the weights sum to 1 within Tolerances.Sum.
// An empty list marks the state as absorbing.
type Transition[S any] struct {
	Target S       `json:"target" yaml:"target"`
	Label  string  `json:"label,omitempty" yaml:"label,omitempty"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// TransitionFunc generates the outgoing transitions of a state.
// It must be pure: the same state always yields the same transitions.
type TransitionFunc[S any] func(S) []Transition[S]

// Edge is the hashed form of a transition.
type Edge struct {
	From   StateHash `json:"from" yaml:"from"`
	To     StateHash `json:"to" yaml:"to"`
	Label  string    `json:"label,omitempty" yaml:"label,omitempty"`
	Weight float64   `json:"weight" yaml:"weight"`
}

// SelfLoop reports whether the edge points back to its source.
func (e Edge) SelfLoop() bool {
	return e.From == e.To
}
