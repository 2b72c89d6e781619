package rules_test

import (
	"sync/atomic"
	"testing"

	"github.com/aretw0/entropia/pkg/domain"
	"github.com/aretw0/entropia/pkg/oracle"
	"github.com/aretw0/entropia/pkg/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inc(s int) int { return s + 1 }
func dec(s int) int { return s - 1 }

func walkRules() []rules.Rule[int] {
	return []rules.Rule[int]{
		{ID: "forward", Condition: rules.Always[int](), Action: rules.Weighted(inc, 1, "Forward")},
		{ID: "backward", Condition: rules.Always[int](), Action: rules.Weighted(dec, 1, "Backward")},
	}
}

func weights(ts []domain.Transition[int]) map[int]float64 {
	out := map[int]float64{}
	for _, t := range ts {
		out[t.Target] += t.Weight
	}
	return out
}

func TestCondition_ZeroValueIsNever(t *testing.T) {
	var c rules.Condition[int]
	assert.True(t, c.IsNever())
	assert.True(t, rules.When[int](nil).IsNever())
	assert.Equal(t, "always", rules.Always[int]().String())
	assert.Equal(t, "predicate", rules.When(func(int) bool { return true }).String())
}

func TestCompose_AlwaysNeverSkipPredicateCache(t *testing.T) {
	set := []rules.Rule[int]{
		{ID: "stay", Condition: rules.Always[int](), Action: rules.Weighted(func(s int) int { return s }, 1, "")},
		{ID: "never", Condition: rules.Never[int](), Action: rules.Weighted(inc, 1, "")},
	}
	cache := rules.NewPredicateCache()
	for s := 0; s < 50; s++ {
		ts := rules.Compose(set, s, cache)
		require.Len(t, ts, 1)
		assert.Equal(t, "stay", ts[0].Label, "falls back to the rule ID")
	}
	assert.Equal(t, 0, cache.Len())
}

func TestCompose_PredicateIsCached(t *testing.T) {
	var evals atomic.Int64
	set := []rules.Rule[int]{
		{
			ID:          "even",
			Description: "step when even",
			Condition: rules.When(func(s int) bool {
				evals.Add(1)
				return s%2 == 0
			}),
			Action: rules.Weighted(inc, 1, ""),
		},
	}
	cache := rules.NewPredicateCache()

	ts := rules.Compose(set, 2, cache)
	require.Len(t, ts, 1)
	assert.Equal(t, "step when even", ts[0].Label)
	assert.Empty(t, rules.Compose(set, 3, cache))
	_ = rules.Compose(set, 2, cache)
	_ = rules.Compose(set, 3, cache)

	assert.Equal(t, int64(2), evals.Load())
	assert.Equal(t, 2, cache.Len())

	applies, ok := cache.Get("even", domain.HashOf(3))
	assert.True(t, ok)
	assert.False(t, applies)
}

func TestComposeNormalized_RandomWalk(t *testing.T) {
	ts := rules.ComposeNormalized(walkRules(), 0, nil)
	require.Len(t, ts, 2)
	w := weights(ts)
	assert.InDelta(t, 0.5, w[1], 1e-15)
	assert.InDelta(t, 0.5, w[-1], 1e-15)
}

func TestComposeNormalized_ReturnRule(t *testing.T) {
	set := append(walkRules(), rules.Rule[int]{
		ID:        "return",
		Condition: rules.Always[int](),
		Action:    rules.Weighted(func(int) int { return 0 }, 0.1, "Return"),
	})

	ts := rules.ComposeNormalized(set, 0, nil)
	require.Len(t, ts, 3)
	w := weights(ts)
	assert.InDelta(t, 1/2.1, w[1], 1e-15)
	assert.InDelta(t, 0.1/2.1, w[0], 1e-15)
}

func TestComposeNormalized_NothingRemainder(t *testing.T) {
	set := []rules.Rule[int]{
		{ID: "half", Condition: rules.Always[int](), Action: rules.Weighted(inc, 0.5, "half")},
	}
	ts := rules.ComposeNormalized(set, 7, nil)
	require.Len(t, ts, 2)
	assert.Equal(t, rules.NothingLabel, ts[1].Label)
	assert.Equal(t, 7, ts[1].Target)
	assert.InDelta(t, 0.5, ts[1].Weight, 1e-15)
}

func TestComposeNormalized_MergesTargets(t *testing.T) {
	set := []rules.Rule[int]{
		{ID: "a", Condition: rules.Always[int](), Action: rules.Weighted(inc, 0.2, "a")},
		{ID: "b", Condition: rules.Always[int](), Action: rules.Weighted(inc, 0.3, "b")},
		{ID: "self", Condition: rules.Always[int](), Action: rules.Weighted(func(s int) int { return s }, 0.5, "self")},
	}
	ts := rules.ComposeNormalized(set, 0, nil)
	require.Len(t, ts, 2)
	assert.Equal(t, "a | b", ts[0].Label)
	assert.Equal(t, "self | Nothing", ts[1].Label)

	// merged 0.5 and self 0.5; nothing = 0.5 * 0.5
	sum := 1.25
	assert.InDelta(t, 0.5/sum, ts[0].Weight, 1e-15)
	assert.InDelta(t, (0.5+0.25)/sum, ts[1].Weight, 1e-15)
}

func TestComposeNormalized_ZeroWeightNeverFires(t *testing.T) {
	set := []rules.Rule[int]{
		{ID: "off", Condition: rules.Always[int](), Action: rules.Weighted(inc, 0, "off")},
	}
	ts := rules.ComposeNormalized(set, 4, nil)
	require.Len(t, ts, 1)
	assert.Equal(t, 4, ts[0].Target)
	assert.Equal(t, 1.0, ts[0].Weight)
}

func TestEngine_AddRemove(t *testing.T) {
	e, err := rules.NewEngine(walkRules(), rules.WithNormalization())
	require.NoError(t, err)
	assert.True(t, e.Normalized())

	err = e.Add(walkRules()[0])
	assert.ErrorIs(t, err, domain.ErrRuleExists)
	assert.ErrorIs(t, e.Remove("sideways"), domain.ErrRuleNotFound)

	require.NoError(t, e.Remove("backward"))
	assert.Len(t, e.Rules(), 1)
	_, ok := e.Rule("backward")
	assert.False(t, ok)

	assert.Error(t, e.Add(rules.Rule[int]{ID: "", Action: rules.Weighted(inc, 1, "")}))
	assert.Error(t, e.Add(rules.Rule[int]{ID: "noop"}))

	_, err = rules.NewEngine(append(walkRules(), walkRules()[1]))
	assert.ErrorIs(t, err, domain.ErrRuleExists)
}

func TestEngine_SelectiveInvalidation(t *testing.T) {
	e, err := rules.NewEngine(walkRules(), rules.WithNormalization())
	require.NoError(t, err)

	var calls atomic.Int64
	fn := e.TransitionFunc()
	o := oracle.New(func(s int) []domain.Transition[int] {
		calls.Add(1)
		return fn(s)
	}, nil)
	e.Bind(o.Cache())

	for s := 0; s < 10; s++ {
		_, err := o.Resolve(s)
		require.NoError(t, err)
	}
	require.Equal(t, 10, o.Cache().Len())

	// Never rules cannot change any composition.
	require.NoError(t, e.Add(rules.Rule[int]{ID: "dormant", Condition: rules.Never[int](), Action: rules.Weighted(inc, 1, "")}))
	assert.Equal(t, 10, o.Cache().Len())

	// A predicate rule invalidates only the states it holds for.
	require.NoError(t, e.Add(rules.Rule[int]{
		ID:        "reset-even",
		Condition: rules.When(func(s int) bool { return s%2 == 0 }),
		Action:    rules.Weighted(func(int) int { return 0 }, 0.5, "reset"),
	}))
	assert.Equal(t, 5, o.Cache().Len())

	ts, err := o.Resolve(4)
	require.NoError(t, err)
	assert.Len(t, ts, 3)
	assert.Equal(t, int64(11), calls.Load())

	// Removing it invalidates the same states and forgets its predicate results.
	_, _ = o.Resolve(2)
	require.NoError(t, e.Remove("reset-even"))
	assert.Equal(t, 0, e.Predicates().Len())
	assert.Equal(t, 5, o.Cache().Len())

	// Always rules touch every cached state.
	require.NoError(t, e.Add(rules.Rule[int]{ID: "jump", Condition: rules.Always[int](), Action: rules.Weighted(func(s int) int { return s + 10 }, 1, "")}))
	assert.Equal(t, 0, o.Cache().Len())
}
