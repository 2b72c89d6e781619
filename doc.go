/*
Package entropia is a discrete-time Markov chain engine for exploring how probability
mass spreads over a state space defined by a transition function or a set of rules.

It separates the description of a chain (what can follow a state, and how likely it
is) from the machinery that evaluates it: a memoizing oracle resolves transitions, a
simulation engine evolves a distribution step by step, an explorer maps the reachable
graph, and a convergence analyzer checks whether a distribution is steady.

# Concept

A state is any comparable Go value, or a type implementing domain.Keyer. The caller
supplies a domain.TransitionFunc that lists the weighted successors of a state. The
weights of every state must sum to one. Everything else, including caching, pruning
and history, is handled by the Chain.

# Usage

	package main

	import (
		"fmt"
		"log"

		"github.com/aretw0/entropia"
		"github.com/aretw0/entropia/pkg/domain"
	)

	func main() {
		walk := func(p int) []domain.Transition[int] {
			return []domain.Transition[int]{
				{Target: p - 1, Label: "left", Weight: 0.5},
				{Target: p + 1, Label: "right", Weight: 0.5},
			}
		}

		chain := entropia.New(0, walk)
		if _, err := chain.Run(3); err != nil {
			log.Fatal(err)
		}

		h, _ := chain.Entropy(3)
		fmt.Printf("H(3) = %.4f bits\n", h)
	}

Rule based chains are built with FromRules, or with the pkg/dsl builder, and can be
edited while a simulation is running: adding or removing a rule only forgets the
cached transitions of the states it touches.
*/
package entropia
