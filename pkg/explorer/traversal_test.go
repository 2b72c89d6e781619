package explorer_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/aretw0/entropia/pkg/domain"
	"github.com/aretw0/entropia/pkg/explorer"
	"github.com/aretw0/entropia/pkg/oracle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ring(size int, calls *atomic.Int64) domain.TransitionFunc[int] {
	return func(p int) []domain.Transition[int] {
		if calls != nil {
			calls.Add(1)
		}
		return []domain.Transition[int]{
			{Target: (p + 1) % size, Label: "forward", Weight: 0.5},
			{Target: (p + size - 1) % size, Label: "back", Weight: 0.5},
		}
	}
}

func walk(s int) []domain.Transition[int] {
	return []domain.Transition[int]{
		{Target: s - 1, Weight: 0.5},
		{Target: s + 1, Weight: 0.5},
	}
}

func assertConsistent(t *testing.T, g *explorer.Graph) {
	t.Helper()
	for _, e := range g.Edges() {
		assert.True(t, g.Has(e.From), "edge source %s", e.From)
		assert.True(t, g.Has(e.To), "edge target %s", e.To)
	}
}

func TestFullTraversal_Ring(t *testing.T) {
	var calls atomic.Int64
	o := oracle.New(ring(5, &calls), nil)

	g, err := explorer.FullTraversal(0, o, explorer.Options[int]{})
	require.NoError(t, err)
	assert.True(t, g.Exhaustive())
	assert.Equal(t, 5, g.NodeCount())
	assert.Equal(t, 10, g.EdgeCount())
	assert.Equal(t, 5, g.Iterations())
	assert.Equal(t, int64(5), calls.Load(), "each state is expanded once")
	assertConsistent(t, g)

	out := g.Outgoing(domain.HashOf(0))
	require.Len(t, out, 2)
	assert.Equal(t, domain.HashOf(1), out[0].To)
	assert.Equal(t, domain.HashOf(4), out[1].To)

	n, ok := g.Node(domain.HashOf(2))
	require.True(t, ok)
	assert.Equal(t, 2, n.Depth)
}

func TestFullTraversal_Deterministic(t *testing.T) {
	first, err := explorer.FullTraversal(0, oracle.New(ring(300, nil), nil, oracle.WithParallelism(8)), explorer.Options[int]{})
	require.NoError(t, err)

	shared := oracle.New(ring(300, nil), nil, oracle.WithParallelism(8))
	for i := 0; i < 3; i++ {
		g, err := explorer.FullTraversal(0, shared, explorer.Options[int]{BatchSize: 50})
		require.NoError(t, err)
		assert.True(t, g.Exhaustive())
		assert.Equal(t, first.Hashes(), g.Hashes())
		assert.Equal(t, first.Edges(), g.Edges())
	}
	assert.Equal(t, 300, first.NodeCount())
	assert.Equal(t, 600, first.EdgeCount())
}

func TestFullTraversal_IterationLimit(t *testing.T) {
	o := oracle.New(walk, nil)
	g, err := explorer.FullTraversal(0, o, explorer.Options[int]{IterationLimit: 10})
	require.NoError(t, err)
	assert.False(t, g.Exhaustive())
	assert.Equal(t, 10, g.Iterations())
	assert.Equal(t, 20, g.EdgeCount())
	assert.Equal(t, 12, g.NodeCount())
	assertConsistent(t, g)
}

func TestFullTraversal_ModifyStateCanonicalizes(t *testing.T) {
	o := oracle.New(walk, nil)
	// Fold the infinite walk onto a ring of 4.
	mod := func(s int) int { return ((s % 4) + 4) % 4 }

	g, err := explorer.FullTraversal(0, o, explorer.Options[int]{ModifyState: mod})
	require.NoError(t, err)
	assert.True(t, g.Exhaustive())
	assert.Equal(t, 4, g.NodeCount())
	for _, h := range g.Hashes() {
		assert.Len(t, g.Outgoing(h), 2)
	}
}

func TestFullTraversal_ModifyStateCanonicalizesInitial(t *testing.T) {
	var calls atomic.Int64
	o := oracle.New(func(s int) []domain.Transition[int] {
		calls.Add(1)
		return walk(s)
	}, nil)
	mod := func(s int) int { return ((s % 4) + 4) % 4 }

	g, err := explorer.FullTraversal(5, o, explorer.Options[int]{ModifyState: mod})
	require.NoError(t, err)
	assert.True(t, g.Exhaustive())
	assert.Equal(t, 4, g.NodeCount())
	assert.False(t, g.Has(domain.HashOf(5)))
	assert.True(t, g.Has(domain.HashOf(1)))
	assert.Equal(t, int64(4), calls.Load(), "each canonical state is expanded once")
}

func TestFullTraversal_Keep(t *testing.T) {
	o := oracle.New(walk, nil)
	inside := func(s int) bool { return s >= -2 && s <= 2 }

	g, err := explorer.FullTraversal(0, o, explorer.Options[int]{Keep: inside})
	require.NoError(t, err)
	assert.False(t, g.Exhaustive(), "pruned leaves leave the space unmapped")
	assert.Equal(t, 7, g.NodeCount())
	assert.ElementsMatch(t, []domain.StateHash{domain.HashOf(-3), domain.HashOf(3)}, g.Pruned())
	assert.Empty(t, g.Outgoing(domain.HashOf(3)))
}

func TestFullTraversal_AbsorbingSelfLoop(t *testing.T) {
	fn := func(s int) []domain.Transition[int] {
		if s >= 2 {
			return nil
		}
		return []domain.Transition[int]{{Target: s + 1, Weight: 1}}
	}
	g, err := explorer.FullTraversal(0, oracle.New(fn, nil), explorer.Options[int]{})
	require.NoError(t, err)

	out := g.Outgoing(domain.HashOf(2))
	require.Len(t, out, 1)
	assert.True(t, out[0].SelfLoop())
	assert.Equal(t, domain.AbsorbingLabel, out[0].Label)
	assert.Equal(t, 1.0, out[0].Weight)
}

func TestFullTraversal_InvalidDistribution(t *testing.T) {
	fn := func(s int) []domain.Transition[int] {
		if s == 3 {
			return []domain.Transition[int]{{Target: 0, Weight: 0.4}}
		}
		return []domain.Transition[int]{{Target: s + 1, Weight: 1}}
	}
	_, err := explorer.FullTraversal(0, oracle.New(fn, nil), explorer.Options[int]{})

	var gce *domain.GraphConstructionError
	require.True(t, errors.As(err, &gce))
	assert.Equal(t, domain.HashOf(3), gce.State)

	var invalid *domain.InvalidDistributionError
	require.True(t, errors.As(err, &invalid))
	assert.InDelta(t, 0.4, invalid.Sum, 1e-15)
}

func TestFullTraversal_Hooks(t *testing.T) {
	var rounds int
	_, err := explorer.FullTraversal(0, oracle.New(ring(5, nil), nil), explorer.Options[int]{
		BatchSize: 1,
		Hooks: domain.LifecycleHooks{
			OnExplore: func(*domain.ExploreEvent) { rounds++ },
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, rounds)
}

func TestRebuild(t *testing.T) {
	g, err := explorer.FullTraversal(0, oracle.New(ring(5, nil), nil), explorer.Options[int]{})
	require.NoError(t, err)

	again, err := explorer.Rebuild(g.Nodes(), g.Edges(), g.Exhaustive(), g.Iterations())
	require.NoError(t, err)
	assert.Equal(t, g.Hashes(), again.Hashes())
	assert.Equal(t, g.Outgoing(domain.HashOf(3)), again.Outgoing(domain.HashOf(3)))

	_, err = explorer.Rebuild(g.Nodes()[:2], g.Edges(), true, 5)
	assert.Error(t, err)
}
