package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunExplore_Ring(t *testing.T) {
	app, out := newTestApp(t)
	rep, err := RunExplore(context.Background(), app, ExploreOptions{
		Model:      ModelOptions{Name: ModelRing, Size: 4},
		Iterations: 20,
	})
	require.NoError(t, err)

	assert.Equal(t, 4, rep.Nodes)
	assert.Equal(t, 8, rep.Edges)
	assert.True(t, rep.Exhaustive)
	assert.True(t, rep.UniformSteady)
	// An even ring alternates between parity classes from a point mass.
	assert.False(t, rep.Converged)
	assert.Equal(t, 20, rep.Iterations)
	assert.Contains(t, out.String(), "uniform distribution steady: true")
}

func TestRunExplore_OddRingConverges(t *testing.T) {
	app, _ := newTestApp(t)
	rep, err := RunExplore(context.Background(), app, ExploreOptions{
		Model:      ModelOptions{Name: ModelRing, Size: 3},
		Iterations: 200,
	})
	require.NoError(t, err)
	assert.True(t, rep.Converged)
	assert.InDelta(t, 1.584962500721156, rep.Entropy, 1e-6)
}

func TestRunExplore_Walk(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()

	_, err := RunExplore(ctx, app, ExploreOptions{Model: ModelOptions{Name: ModelWalk}, Iterations: 5})
	assert.ErrorContains(t, err, "unbounded")

	rep, err := RunExplore(ctx, app, ExploreOptions{Model: ModelOptions{Name: ModelWalk}, Limit: 3, Iterations: 5})
	require.NoError(t, err)
	assert.False(t, rep.Exhaustive)
	assert.Equal(t, 3, rep.Rounds)
	assert.False(t, rep.UniformSteady)

	_, err = RunExplore(ctx, app, ExploreOptions{Model: ModelOptions{Name: ModelRing, Size: 3}})
	assert.ErrorContains(t, err, "iterations")
}

func TestRunExplore_Mermaid(t *testing.T) {
	app, out := newTestApp(t)
	_, err := RunExplore(context.Background(), app, ExploreOptions{
		Model:      ModelOptions{Name: ModelRing, Size: 3},
		Iterations: 5,
		Mermaid:    "-",
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "graph TD\n")
	assert.Contains(t, out.String(), `(("0"))`)
	assert.Equal(t, 6, strings.Count(out.String(), "-- \"c"))

	path := filepath.Join(t.TempDir(), "ring.mmd")
	_, err = RunExplore(context.Background(), app, ExploreOptions{
		Model:      ModelOptions{Name: ModelRing, Size: 3},
		Iterations: 5,
		Mermaid:    path,
	})
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "class ")
}

func TestRunExplore_Pretty(t *testing.T) {
	app, out := newTestApp(t)
	_, err := RunExplore(context.Background(), app, ExploreOptions{
		Model:      ModelOptions{Name: ModelRing, Size: 4},
		Iterations: 5,
		Pretty:     true,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Reachable graph")
	assert.Contains(t, out.String(), "Steady state")
}

func TestExploreReport_Markdown(t *testing.T) {
	md := ExploreReport{Nodes: 4, Edges: 8, Exhaustive: true, UniformSteady: true}.Markdown()
	assert.Contains(t, md, "| 4 | 8 | 0 | 0 | true |")
	assert.Contains(t, md, "uniform distribution steady: **true**")
}

func TestRunExplore_Gambler(t *testing.T) {
	app, out := newTestApp(t)
	rep, err := RunExplore(context.Background(), app, ExploreOptions{
		Model:      ModelOptions{Name: ModelGambler, Size: 4},
		Iterations: 5,
		Mermaid:    "-",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, rep.Nodes)
	assert.Equal(t, 8, rep.Edges)
	assert.True(t, rep.Exhaustive)
	assert.False(t, rep.UniformSteady)
	assert.Equal(t, 2, strings.Count(out.String(), "-.->"))
	assert.Contains(t, out.String(), `(("2"))`)
	assert.Contains(t, out.String(), `[["0"]]`)

	_, err = RunExplore(context.Background(), app, ExploreOptions{Model: ModelOptions{Name: ModelGambler}, Iterations: 5})
	assert.ErrorContains(t, err, "gambler size must be positive")
}
