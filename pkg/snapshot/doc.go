/*
Package snapshot defines the structural interchange form of a simulation.

A Snapshot records state identifiers, the JSON encoding of each state value,
per-frame probability masses, the reachable graph and free-form metadata. It never
contains transition functions or rules: those carry executable logic and are
re-attached on restore by building an oracle from the same rule set.

Snapshots are encoded as JSON or YAML and persisted through ports.SnapshotStore.
*/
package snapshot
