package runner

import (
	"context"
	"log/slog"

	"github.com/aretw0/entropia/pkg/simulation"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithHandler configures where frames are rendered.
func WithHandler(h Handler) Option {
	return func(r *Runner) {
		r.Handler = h
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithSteps bounds the number of Advance calls; zero or less runs until stopped.
func WithSteps(n int) Option {
	return func(r *Runner) {
		r.Steps = n
	}
}

// WithStopWhen stops the loop after the first frame for which fn returns true.
func WithStopWhen(fn func(simulation.Frame) bool) Option {
	return func(r *Runner) {
		r.StopWhen = fn
	}
}

// WithCheckpoint calls fn after every n-th step and once more when the loop ends.
func WithCheckpoint(every int, fn func(ctx context.Context, f simulation.Frame) error) Option {
	return func(r *Runner) {
		r.CheckpointEvery = every
		r.Checkpoint = fn
	}
}
