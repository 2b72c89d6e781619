package runner

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/entropia/internal/logging"
	"github.com/aretw0/entropia/pkg/distribution"
	"github.com/aretw0/entropia/pkg/simulation"
)

// Source is the pull side of a simulation; *simulation.Engine satisfies it.
type Source interface {
	Cursor() simulation.Cursor
	Advance(c simulation.Cursor) (distribution.Distribution, simulation.Cursor, error)
	Frame(t uint64) (simulation.Frame, error)
}

// Runner drives a Source and renders each frame.
type Runner struct {
	// Handler receives every frame, starting with the source's current one.
	// If nil, frames are discarded.
	Handler Handler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	Steps    int
	StopWhen func(simulation.Frame) bool

	CheckpointEvery int
	Checkpoint      func(ctx context.Context, f simulation.Frame) error
}

// Result summarizes a run.
type Result struct {
	Steps   int
	Last    simulation.Frame
	Stopped bool // StopWhen matched
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run renders the current frame, then advances until the step budget is spent,
// StopWhen matches or ctx is canceled. Cancellation is reported as ctx.Err()
// together with the partial result.
func (r *Runner) Run(ctx context.Context, src Source) (Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	handler := r.Handler
	if handler == nil {
		handler = HandlerFunc(func(context.Context, simulation.Frame) error { return nil })
	}

	var res Result
	c := src.Cursor()
	f, err := src.Frame(c.Time())
	if err != nil {
		return res, err
	}
	res.Last = f
	if err := handler.Handle(ctx, f); err != nil {
		return res, fmt.Errorf("handler error: %w", err)
	}
	if r.StopWhen != nil && r.StopWhen(f) {
		res.Stopped = true
		return res, nil
	}

	for r.Steps <= 0 || res.Steps < r.Steps {
		if err := ctx.Err(); err != nil {
			return res, r.finish(ctx, res, err)
		}

		if _, c, err = src.Advance(c); err != nil {
			return res, fmt.Errorf("advance at time %d: %w", res.Last.Time, err)
		}
		if f, err = src.Frame(c.Time()); err != nil {
			return res, err
		}
		res.Steps++
		res.Last = f

		if err := handler.Handle(ctx, f); err != nil {
			return res, fmt.Errorf("handler error: %w", err)
		}
		if r.CheckpointEvery > 0 && res.Steps%r.CheckpointEvery == 0 {
			if err := r.checkpoint(ctx, f); err != nil {
				return res, err
			}
		}
		if r.StopWhen != nil && r.StopWhen(f) {
			res.Stopped = true
			break
		}
	}

	logger.Debug("Run finished", "steps", res.Steps, "time", res.Last.Time, "stopped", res.Stopped)
	return res, r.finish(ctx, res, nil)
}

// finish writes the final checkpoint unless the last step already did.
func (r *Runner) finish(ctx context.Context, res Result, cause error) error {
	if r.Checkpoint != nil && res.Steps > 0 && (r.CheckpointEvery <= 0 || res.Steps%r.CheckpointEvery != 0) {
		// The run context may already be canceled; the final checkpoint still runs.
		if err := r.checkpoint(context.WithoutCancel(ctx), res.Last); err != nil {
			return err
		}
	}
	return cause
}

func (r *Runner) checkpoint(ctx context.Context, f simulation.Frame) error {
	if r.Checkpoint == nil {
		return nil
	}
	if err := r.Checkpoint(ctx, f); err != nil {
		return fmt.Errorf("checkpoint at time %d: %w", f.Time, err)
	}
	return nil
}
