/*
Package runner implements the pull loop that drives a simulation and renders it.

The runner advances a simulation through its cursor protocol, one distribution at
a time, and hands every frame to a pluggable Handler. It stops after a fixed
number of steps, when a stop predicate matches, or when its context is canceled.

# Key Components

  - Runner: the loop, with optional periodic checkpoints.
  - Handler: decouples rendering from stepping.
  - TextHandler: one human-readable line per frame.
  - JSONHandler: one JSON object per line, for pipelines.

# Usage

	r := runner.New(
		runner.WithHandler(runner.NewTextHandler(os.Stdout)),
		runner.WithSteps(100),
	)

	if _, err := r.Run(ctx, sim); err != nil {
		log.Fatal(err)
	}
*/
package runner
