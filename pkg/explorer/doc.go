/*
Package explorer discovers the reachable state space of a transition function.

FullTraversal runs a bounded breadth-first search. Each round takes a batch from
the frontier, resolves it through the shared oracle (concurrently for wide
batches) and then merges the results sequentially, so every state is discovered
and expanded exactly once and the resulting Graph is identical from run to run.
*/
package explorer
