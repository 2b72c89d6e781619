/*
Package distribution implements probability distributions over state hashes and the
single-step evolution of a distribution under a Markov transition structure.

A Distribution is an immutable value. Step never mutates its input; it accumulates
mass * weight into the successors of every supported state using compensated
summation, keeps the mass of absorbing states in place, and optionally prunes
negligible entries within a bounded mass budget.
*/
package distribution
