/*
Package rules turns declarative, conditional rules into a transition function.

A Rule pairs a Condition with an Action. The Condition is a closed sum type with
three variants: Always, Never and When (a predicate). Composing a rule set for a
state evaluates every condition and collects the actions of the satisfied rules
as that state's transitions. Predicate results are cached per (rule, state);
Always and Never are answered without touching the cache.

An Engine holds a mutable rule set. When bound to an oracle cache it invalidates
exactly the cached states whose transitions depend on an added or removed rule.
Rules carry executable logic and are never persisted; snapshots are re-attached
to a rule set by supplying the same rules again.
*/
package rules
