package rules

import (
	"errors"
	"math"

	"github.com/aretw0/entropia/pkg/domain"
)

// NothingLabel labels the self transition added by normalized composition for the
// probability that no rule fires.
const NothingLabel = "Nothing"

// Action produces the transition a rule contributes for a state.
type Action[S any] func(S) domain.Transition[S]

// Rule is a conditional, weighted state change.
type Rule[S any] struct {
	ID          string
	Description string
	Condition   Condition[S]
	Action      Action[S]
}

// Weighted builds an action that moves to next(s) with a fixed weight and label.
func Weighted[S any](next func(S) S, weight float64, label string) Action[S] {
	return func(s S) domain.Transition[S] {
		return domain.Transition[S]{Target: next(s), Label: label, Weight: weight}
	}
}

func (r Rule[S]) validate() error {
	if r.ID == "" {
		return errors.New("rule ID cannot be empty")
	}
	if r.Action == nil {
		return errors.New("rule " + r.ID + " has no action")
	}
	return nil
}

func (r Rule[S]) label(t domain.Transition[S]) string {
	switch {
	case t.Label != "":
		return t.Label
	case r.Description != "":
		return r.Description
	}
	return r.ID
}

// Applies evaluates the rule's condition for s, whose hash is h. Predicate results
// are read from and written to cache when it is non-nil; Always and Never never
// touch it.
func (r Rule[S]) Applies(s S, h domain.StateHash, cache *PredicateCache) bool {
	switch r.Condition.kind {
	case kindAlways:
		return true
	case kindPredicate:
		if cache != nil {
			if applies, ok := cache.Get(r.ID, h); ok {
				return applies
			}
		}
		applies := r.Condition.pred(s)
		if cache != nil {
			cache.Put(r.ID, h, applies)
		}
		return applies
	}
	return false
}

// Compose evaluates rules in order against s and returns the transitions of the
// satisfied rules. The result is a valid transition list when the caller's weights
// for every state sum to one.
func Compose[S any](rules []Rule[S], s S, cache *PredicateCache) []domain.Transition[S] {
	h := domain.HashOf(s)
	var out []domain.Transition[S]
	for _, r := range rules {
		if !r.Applies(s, h, cache) {
			continue
		}
		t := r.Action(s)
		t.Label = r.label(t)
		out = append(out, t)
	}
	return out
}

// ComposeNormalized evaluates rules like Compose, then treats each weight as an
// independent firing propensity:
//
//  1. Rules with weight 0 never fire.
//  2. Transitions reaching the same target are merged: weights add up and labels are
//     joined with " | ".
//  3. A self transition labelled NothingLabel receives Π(1 - w) over the merged
//     targets, the chance that no rule fires.
//  4. All weights are divided by Σw + Π(1 - w).
//
// A state where no rule fires therefore receives a single self transition of weight 1.
func ComposeNormalized[S any](rules []Rule[S], s S, cache *PredicateCache) []domain.Transition[S] {
	h := domain.HashOf(s)

	var out []domain.Transition[S]
	index := make(map[domain.StateHash]int)
	for _, r := range rules {
		if !r.Applies(s, h, cache) {
			continue
		}
		t := r.Action(s)
		if t.Weight == 0 {
			continue
		}
		t.Label = r.label(t)
		th := domain.HashOf(t.Target)
		if i, ok := index[th]; ok {
			out[i].Weight += t.Weight
			out[i].Label += " | " + t.Label
			continue
		}
		index[th] = len(out)
		out = append(out, t)
	}

	nothing := 1.0
	sum := 0.0
	for _, t := range out {
		nothing *= math.Max(0, 1-t.Weight)
		sum += t.Weight
	}
	sum += nothing

	for i := range out {
		out[i].Weight /= sum
	}
	if nothing > 0 {
		if i, ok := index[h]; ok {
			out[i].Weight += nothing / sum
			out[i].Label += " | " + NothingLabel
		} else {
			out = append(out, domain.Transition[S]{Target: s, Label: NothingLabel, Weight: nothing / sum})
		}
	}
	return out
}
