/*
Package domain contains the core vocabulary shared by every entropia component.

It defines how states are identified, what a weighted transition looks like, the
numeric tolerances used to judge probability mass, the lifecycle events emitted by
the engines and the error taxonomy. The package is kept free of I/O and of any
engine logic so that every other package can depend on it.

# Key Entities

  - StateHash: A stable 64-bit identity for a state value (see HashOf).
  - Transition: A weighted, labelled move from one state to a target state.
  - Edge: The hashed form of a Transition, used by graphs and distributions.
  - Tolerances: Epsilons for mass validation, pruning and convergence.
  - LifecycleHooks: Callbacks for resolution, stepping and exploration events.
*/
package domain
