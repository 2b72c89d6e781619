package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/entropia/pkg/rules"
)

// Builder collects rule declarations.
type Builder[S any] struct {
	order []string
	rules map[string]*RuleBuilder[S]
}

// New creates a new rule set builder.
func New[S any]() *Builder[S] {
	return &Builder[S]{
		rules: make(map[string]*RuleBuilder[S]),
	}
}

// Rule starts (or continues) the declaration of the rule with the given ID.
// New rules default to an Always condition and weight 1.
func (b *Builder[S]) Rule(id string) *RuleBuilder[S] {
	if rb, ok := b.rules[id]; ok {
		return rb
	}
	rb := &RuleBuilder[S]{
		rule:   rules.Rule[S]{ID: id, Condition: rules.Always[S]()},
		weight: 1,
	}
	b.rules[id] = rb
	b.order = append(b.order, id)
	return rb
}

// Rules validates every declaration and returns the rules in declaration order.
func (b *Builder[S]) Rules() ([]rules.Rule[S], error) {
	out := make([]rules.Rule[S], 0, len(b.order))
	var errs []error
	for _, id := range b.order {
		r, err := b.rules[id].build()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, r)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

// Build compiles the declarations into a rule engine.
func (b *Builder[S]) Build(opts ...rules.Option) (*rules.Engine[S], error) {
	rs, err := b.Rules()
	if err != nil {
		return nil, err
	}
	eng, err := rules.NewEngine(rs, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build rule engine: %w", err)
	}
	return eng, nil
}
