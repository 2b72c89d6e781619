package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/entropia"
	"github.com/aretw0/entropia/internal/presentation/graph"
	"github.com/aretw0/entropia/internal/presentation/tui"
)

// ExploreOptions configures the explore command.
type ExploreOptions struct {
	Model ModelOptions

	// Limit caps expanded states; zero keeps the configured iteration limit.
	Limit int

	// Iterations bounds the steady-state checks.
	Iterations int

	// Mermaid writes the graph as a Mermaid flowchart to this path ("-" for Out).
	Mermaid string

	// Pretty renders the report as styled markdown.
	Pretty bool
}

// ExploreReport is what RunExplore prints.
type ExploreReport struct {
	Nodes      int
	Edges      int
	Pruned     int
	Rounds     int
	Exhaustive bool

	UniformSteady bool

	Converged  bool
	Iterations int
	Delta      float64
	Entropy    float64
}

// RunExplore maps the model's reachable graph and runs both steady-state checks:
// the uniform distribution over the graph, and power iteration from the initial
// state.
func RunExplore(ctx context.Context, app *App, opts ExploreOptions) (ExploreReport, error) {
	var rep ExploreReport
	chainOpts := app.ChainOptions()
	if opts.Limit > 0 {
		chainOpts = append(chainOpts, entropia.WithIterationLimit(opts.Limit))
	}
	if !opts.Model.Bounded() && opts.Limit <= 0 && app.Config.IterationLimit <= 0 {
		return rep, errors.New("model is unbounded: set --limit or iteration_limit")
	}
	if opts.Iterations < 1 {
		return rep, fmt.Errorf("iterations must be positive, got %d", opts.Iterations)
	}

	chain, err := opts.Model.Chain(chainOpts...)
	if err != nil {
		return rep, err
	}
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	g, err := chain.Explore()
	if err != nil {
		return rep, err
	}
	rep.Nodes = g.NodeCount()
	rep.Edges = g.EdgeCount()
	rep.Pruned = len(g.Pruned())
	rep.Rounds = g.Iterations()
	rep.Exhaustive = g.Exhaustive()
	app.Logger.Info("Explored", "nodes", rep.Nodes, "edges", rep.Edges, "exhaustive", rep.Exhaustive)

	if err := ctx.Err(); err != nil {
		return rep, err
	}
	if rep.UniformSteady, err = chain.IsUniformSteady(opts.Iterations); err != nil {
		return rep, err
	}

	res, err := chain.Stationary(opts.Iterations)
	if err != nil {
		return rep, err
	}
	rep.Converged = res.Converged
	rep.Iterations = res.Iterations
	rep.Delta = res.Delta
	rep.Entropy = res.Distribution.Entropy()

	if opts.Mermaid != "" {
		if err := writeMermaid(app, chain, opts); err != nil {
			return rep, err
		}
	}
	return rep, printReport(app, rep, opts.Pretty)
}

func printReport(app *App, rep ExploreReport, pretty bool) error {
	if pretty {
		render, err := tui.NewRenderer(tui.Width(app.Out))
		if err != nil {
			return err
		}
		out, err := render(rep.Markdown())
		if err != nil {
			return err
		}
		_, err = io.WriteString(app.Out, out)
		return err
	}
	fmt.Fprintf(app.Out, "graph: nodes=%d edges=%d pruned=%d expanded=%d exhaustive=%t\n",
		rep.Nodes, rep.Edges, rep.Pruned, rep.Rounds, rep.Exhaustive)
	fmt.Fprintf(app.Out, "uniform distribution steady: %t\n", rep.UniformSteady)
	fmt.Fprintf(app.Out, "power iteration: converged=%t iterations=%d delta=%.3g H=%.6f\n",
		rep.Converged, rep.Iterations, rep.Delta, rep.Entropy)
	return nil
}

// Markdown formats the report as a markdown document.
func (r ExploreReport) Markdown() string {
	var b strings.Builder
	b.WriteString("# Reachable graph\n\n")
	b.WriteString("| nodes | edges | pruned | expanded | exhaustive |\n|---|---|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %d | %d | %d | %t |\n\n", r.Nodes, r.Edges, r.Pruned, r.Rounds, r.Exhaustive)
	b.WriteString("# Steady state\n\n")
	fmt.Fprintf(&b, "- uniform distribution steady: **%t**\n", r.UniformSteady)
	fmt.Fprintf(&b, "- power iteration converged: **%t** after %d iterations (delta %.3g)\n", r.Converged, r.Iterations, r.Delta)
	fmt.Fprintf(&b, "- entropy of the last iterate: %.6f bits\n", r.Entropy)
	return b.String()
}

func writeMermaid(app *App, chain *entropia.Chain[int], opts ExploreOptions) error {
	snap, err := chain.Snapshot(opts.Model.metadata())
	if err != nil {
		return err
	}
	nodes, edges, overlay, _ := graph.FromSnapshot(snap)
	diagram := graph.GenerateMermaid(nodes, edges, overlay)
	if opts.Mermaid == "-" {
		_, err = io.WriteString(app.Out, diagram)
		return err
	}
	if err := os.WriteFile(opts.Mermaid, []byte(diagram), 0o644); err != nil {
		return err
	}
	app.Logger.Info("Graph written", "path", opts.Mermaid)
	return nil
}
