package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/entropia/pkg/runner"
)

// Output formats for step frames.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// WalkOptions configures the walk command.
type WalkOptions struct {
	Model  ModelOptions
	Steps  int
	Format string
	Top    int
	Every  uint64
	Masses bool
}

func newHandler(w io.Writer, opts WalkOptions, describe runner.Describer) (runner.Handler, error) {
	var h runner.Handler
	switch opts.Format {
	case FormatText, "":
		h = runner.NewTextHandler(w, runner.WithTop(opts.Top), runner.WithDescriber(describe))
	case FormatJSON:
		jh := runner.NewJSONHandler(w)
		jh.Masses = opts.Masses
		jh.Describe = describe
		h = jh
	default:
		return nil, fmt.Errorf("unknown format %q (want %s or %s)", opts.Format, FormatText, FormatJSON)
	}
	return runner.Sample(opts.Every, h), nil
}

// RunWalk evolves the model for opts.Steps steps and prints every sampled frame.
// An interrupted walk is not an error.
func RunWalk(ctx context.Context, app *App, opts WalkOptions) error {
	if opts.Steps < 0 {
		return fmt.Errorf("steps must not be negative, got %d", opts.Steps)
	}
	chain, err := opts.Model.Chain(app.ChainOptions()...)
	if err != nil {
		return err
	}
	h, err := newHandler(app.Out, opts, describer(chain.Oracle()))
	if err != nil {
		return err
	}

	r := runner.New(
		runner.WithHandler(h),
		runner.WithLogger(app.Logger),
		runner.WithSteps(opts.Steps),
	)
	res, err := r.Run(ctx, chain)
	if errors.Is(err, context.Canceled) {
		app.Logger.Info("Walk interrupted", "time", res.Last.Time, "steps", res.Steps)
		return nil
	}
	return err
}
