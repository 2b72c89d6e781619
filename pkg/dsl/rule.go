package dsl

import (
	"fmt"
	"math"

	"github.com/aretw0/entropia/pkg/domain"
	"github.com/aretw0/entropia/pkg/rules"
)

// RuleBuilder provides a fluent API for configuring a rule.
type RuleBuilder[S any] struct {
	rule   rules.Rule[S]
	next   func(S) S
	weight float64
	label  string
}

// Describe sets the human-readable description, used as the fallback label.
func (r *RuleBuilder[S]) Describe(text string) *RuleBuilder[S] {
	r.rule.Description = text
	return r
}

// Always makes the rule apply in every state.
func (r *RuleBuilder[S]) Always() *RuleBuilder[S] {
	r.rule.Condition = rules.Always[S]()
	return r
}

// Never disables the rule; it still exists and can be forced as an intervention.
func (r *RuleBuilder[S]) Never() *RuleBuilder[S] {
	r.rule.Condition = rules.Never[S]()
	return r
}

// When makes the rule apply only where pred holds.
func (r *RuleBuilder[S]) When(pred func(S) bool) *RuleBuilder[S] {
	r.rule.Condition = rules.When(pred)
	return r
}

// Go sets the successor function.
func (r *RuleBuilder[S]) Go(next func(S) S) *RuleBuilder[S] {
	r.next = next
	return r
}

// Stay makes the rule a self transition.
func (r *RuleBuilder[S]) Stay() *RuleBuilder[S] {
	r.next = func(s S) S { return s }
	return r
}

// Weight sets the transition weight, in [0, 1].
func (r *RuleBuilder[S]) Weight(w float64) *RuleBuilder[S] {
	r.weight = w
	return r
}

// Label sets the transition label.
func (r *RuleBuilder[S]) Label(label string) *RuleBuilder[S] {
	r.label = label
	return r
}

// Do sets a full action, overriding Go, Weight and Label.
func (r *RuleBuilder[S]) Do(action rules.Action[S]) *RuleBuilder[S] {
	r.rule.Action = action
	r.next = nil
	return r
}

func (r *RuleBuilder[S]) build() (rules.Rule[S], error) {
	out := r.rule
	if r.next != nil {
		if math.IsNaN(r.weight) || r.weight < 0 || r.weight > 1 {
			return out, fmt.Errorf("rule %q: weight %g outside [0, 1]", out.ID, r.weight)
		}
		out.Action = rules.Weighted(r.next, r.weight, r.label)
	}
	if out.Action == nil {
		return out, fmt.Errorf("rule %q: no successor (call Go, Stay or Do)", out.ID)
	}
	return out, nil
}

// Transition is a convenience for Do actions.
func Transition[S any](target S, weight float64, label string) domain.Transition[S] {
	return domain.Transition[S]{Target: target, Label: label, Weight: weight}
}
