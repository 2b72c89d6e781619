package entropia_test

import (
	"testing"

	"github.com/aretw0/entropia"
	"github.com/aretw0/entropia/pkg/config"
	"github.com/aretw0/entropia/pkg/domain"
	"github.com/aretw0/entropia/pkg/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walk(p int) []domain.Transition[int] {
	return []domain.Transition[int]{
		{Target: p - 1, Label: "left", Weight: 0.5},
		{Target: p + 1, Label: "right", Weight: 0.5},
	}
}

func ringRules(size int) []rules.Rule[int] {
	forward := func(p int) int { return (p + 1) % size }
	back := func(p int) int { return (p + size - 1) % size }
	return []rules.Rule[int]{
		{ID: "forward", Condition: rules.Always[int](), Action: rules.Weighted(forward, 0.5, "forward")},
		{ID: "back", Condition: rules.Always[int](), Action: rules.Weighted(back, 0.5, "back")},
	}
}

// settle moves 0 to 1 and keeps 1 forever.
func settle(p int) []domain.Transition[int] {
	return []domain.Transition[int]{{Target: 1, Label: "settle", Weight: 1}}
}

func TestChain_RandomWalk(t *testing.T) {
	chain := entropia.New(0, walk)

	_, err := chain.Run(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), chain.Time())

	h1, err := chain.Entropy(1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, h1, 1e-12)

	h2, err := chain.Entropy(2)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, h2, 1e-12)

	p, err := chain.Probability(2, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p, 1e-12)

	norm, err := chain.EuclideanNorm(0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, norm, 1e-12)

	_, err = chain.Entropy(3)
	var notYet *domain.NotYetComputedError
	assert.ErrorAs(t, err, &notYet)
}

func TestChain_Advance(t *testing.T) {
	chain := entropia.New(0, walk)
	cur := chain.Cursor()

	_, next, err := chain.Advance(cur)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next.Time())

	_, _, err = chain.Advance(cur)
	assert.ErrorIs(t, err, domain.ErrStaleCursor)

	_, err = chain.Step()
	require.NoError(t, err)
	_, _, err = chain.Advance(next)
	assert.ErrorIs(t, err, domain.ErrStaleCursor)
}

func TestChain_FromRules(t *testing.T) {
	chain, err := entropia.FromRules(0, ringRules(4))
	require.NoError(t, err)

	g, err := chain.Explore()
	require.NoError(t, err)
	assert.True(t, g.Exhaustive())
	assert.Equal(t, 4, g.NodeCount())
	assert.Equal(t, 8, g.EdgeCount())
	assert.Same(t, g, chain.Graph())

	steady, err := chain.IsUniformSteady(1)
	require.NoError(t, err)
	assert.True(t, steady)

	_, err = entropia.FromRules(0, append(ringRules(4), ringRules(4)[0]))
	assert.ErrorIs(t, err, domain.ErrRuleExists)
}

func TestChain_RuleEdits(t *testing.T) {
	forward := func(p int) int { return (p + 1) % 4 }
	back := func(p int) int { return (p + 3) % 4 }
	chain, err := entropia.FromRules(0, []rules.Rule[int]{
		{ID: "forward", Condition: rules.Always[int](), Action: rules.Weighted(forward, 1, "forward")},
	})
	require.NoError(t, err)

	_, err = chain.Step()
	require.NoError(t, err)
	p, err := chain.Probability(1, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, p, 1e-12)

	require.NoError(t, chain.Rules().Remove("forward"))
	require.NoError(t, chain.Rules().Add(rules.Rule[int]{
		ID: "back", Condition: rules.Always[int](), Action: rules.Weighted(back, 1, "back"),
	}))

	_, err = chain.Step()
	require.NoError(t, err)
	p, err = chain.Probability(2, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, p, 1e-12)

	assert.Nil(t, entropia.New(0, walk).Rules())
}

func TestChain_Steady(t *testing.T) {
	chain := entropia.New(0, settle)

	steady, err := chain.IsUniformSteady(1)
	require.NoError(t, err)
	assert.False(t, steady)

	steady, err = chain.IsUniformSteady(5)
	require.NoError(t, err)
	assert.True(t, steady)

	res, err := chain.Stationary(5)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Equal(t, 2, res.Iterations)
	assert.InDelta(t, 1.0, res.Distribution.Probability(domain.HashOf(1)), 1e-12)
	assert.Equal(t, uint64(0), chain.Time())
}

func TestChain_Intervene(t *testing.T) {
	chain := entropia.New(0, walk)
	_, err := chain.Step()
	require.NoError(t, err)

	home := rules.Rule[int]{
		ID:     "go home",
		Action: rules.Weighted(func(int) int { return 0 }, 0.5, "home"),
	}
	d, err := chain.Intervene(home)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, d.Probability(domain.HashOf(0)), 1e-12)
	assert.InDelta(t, 0.25, d.Probability(domain.HashOf(1)), 1e-12)

	f, err := chain.Frame(2)
	require.NoError(t, err)
	assert.Equal(t, "go home", f.Label)
}

func TestChain_Snapshot(t *testing.T) {
	chain, err := entropia.FromRules(0, ringRules(4))
	require.NoError(t, err)
	_, err = chain.Run(2)
	require.NoError(t, err)

	snap, err := chain.Snapshot(nil)
	require.NoError(t, err)
	assert.Len(t, snap.Frames, 3)
	assert.Nil(t, snap.Graph)

	_, err = chain.Explore()
	require.NoError(t, err)
	snap, err = chain.Snapshot(map[string]string{"model": "ring"})
	require.NoError(t, err)
	require.NotNil(t, snap.Graph)
	assert.Len(t, snap.Graph.Nodes, 4)
	assert.Equal(t, "ring", snap.Metadata["model"])
}

func TestChain_Options(t *testing.T) {
	cfg := config.Default()
	cfg.IterationLimit = 2

	var first, second int
	chain := entropia.New(0, walk,
		entropia.WithConfig(cfg),
		entropia.WithLifecycleHooks(domain.LifecycleHooks{OnStep: func(*domain.StepEvent) { first++ }}),
		entropia.WithLifecycleHooks(domain.LifecycleHooks{OnStep: func(*domain.StepEvent) { second++ }}),
	)

	g, err := chain.Explore()
	require.NoError(t, err)
	assert.False(t, g.Exhaustive())
	assert.Equal(t, 2, g.Iterations())

	_, err = chain.Run(3)
	require.NoError(t, err)
	assert.Equal(t, 3, first)
	assert.Equal(t, 3, second)
}
