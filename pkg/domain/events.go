package domain

import "time"

// EventType defines the category of the event.
type EventType string

const (
	EventResolve EventType = "resolve"
	EventStep    EventType = "step"
	EventExplore EventType = "explore"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// ResolveEvent is emitted each time the oracle answers a transition query.
type ResolveEvent struct {
	EventBase
	State       StateHash     `json:"state"`
	Hit         bool          `json:"hit"`
	Transitions int           `json:"transitions"`
	Duration    time.Duration `json:"duration"`
	Err         error         `json:"-"`
}

// StepEvent is emitted after a distribution has been appended to a history.
type StepEvent struct {
	EventBase
	Time     uint64        `json:"time"`
	Kind     string        `json:"kind"`
	Support  int           `json:"support"`
	Entropy  float64       `json:"entropy"`
	Pruned   float64       `json:"pruned"`
	Duration time.Duration `json:"duration"`
}

// ExploreEvent is emitted after each exploration round.
type ExploreEvent struct {
	EventBase
	Round    int `json:"round"`
	Frontier int `json:"frontier"`
	Nodes    int `json:"nodes"`
	Edges    int `json:"edges"`
}

// LifecycleHooks defines callbacks for engine observability.
// Any field may be nil.
type LifecycleHooks struct {
	OnResolve func(*ResolveEvent)
	OnStep    func(*StepEvent)
	OnExplore func(*ExploreEvent)
}

// Merge combines two hook sets; both callbacks run when both are set.
func (h LifecycleHooks) Merge(o LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnResolve: chain(h.OnResolve, o.OnResolve),
		OnStep:    chain(h.OnStep, o.OnStep),
		OnExplore: chain(h.OnExplore, o.OnExplore),
	}
}

func chain[E any](a, b func(*E)) func(*E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(e *E) {
		a(e)
		b(e)
	}
}
