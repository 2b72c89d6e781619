/*
Package dsl provides a fluent Go builder for rule sets.

It lets callers declare the rules of a Markov chain as a readable sequence of
statements instead of assembling rules.Rule literals by hand. Rules keep their
declaration order, which is also the order of the transitions they produce.

Example usage:

	b := dsl.New[int]()

	b.Rule("walk forward").Always().Go(next).Label("forward")
	b.Rule("walk back").Always().Go(prev).Label("back")
	b.Rule("return").
		Describe("jump home when far away").
		When(func(p int) bool { return p > 3 }).
		Go(func(int) int { return 0 }).
		Weight(0.1)

	engine, err := b.Build(rules.WithNormalization())
	// engine.TransitionFunc() feeds oracle.New(...)
*/
package dsl
