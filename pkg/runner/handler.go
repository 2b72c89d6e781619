package runner

import (
	"context"
	"errors"

	"github.com/aretw0/entropia/pkg/domain"
	"github.com/aretw0/entropia/pkg/simulation"
)

// Handler renders frames produced by the runner.
type Handler interface {
	Handle(ctx context.Context, f simulation.Frame) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, f simulation.Frame) error

func (fn HandlerFunc) Handle(ctx context.Context, f simulation.Frame) error {
	return fn(ctx, f)
}

// Describer names a state for display.
type Describer func(h domain.StateHash) string

// MultiHandler sends every frame to all handlers, joining their errors.
func MultiHandler(handlers ...Handler) Handler {
	return HandlerFunc(func(ctx context.Context, f simulation.Frame) error {
		var errs []error
		for _, h := range handlers {
			if err := h.Handle(ctx, f); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// Sample forwards only frames whose time is a multiple of every, plus any frame
// that is not a plain step (initial and intervention frames).
func Sample(every uint64, next Handler) Handler {
	if every <= 1 {
		return next
	}
	return HandlerFunc(func(ctx context.Context, f simulation.Frame) error {
		if f.Kind != simulation.KindStep || f.Time%every == 0 {
			return next.Handle(ctx, f)
		}
		return nil
	})
}

// top returns the n heaviest states of a frame, heaviest first, ties by hash.
func top(f simulation.Frame, n int) []mass {
	if n <= 0 {
		return nil
	}
	out := make([]mass, 0, f.Distribution.Len())
	f.Distribution.Each(func(h domain.StateHash, p float64) bool {
		out = append(out, mass{h, p})
		return true
	})
	sortMasses(out)
	if len(out) > n {
		out = out[:n]
	}
	return out
}
