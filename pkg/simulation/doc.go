/*
Package simulation evolves a probability distribution over states in discrete time.

An Engine starts from a point mass (or any validated distribution) and records one
Frame per time unit: steps computed through a shared oracle and forced
interventions that apply a single rule's action to every supported state. History
queries are answered by absolute time, including on history-free clones.

Stepping is pulled by the caller. Advance takes the Cursor returned by the previous
call and yields exactly one new distribution; there is no end to the sequence and
no cancellation beyond ceasing to call it.
*/
package simulation
