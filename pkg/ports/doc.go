/*
Package ports defines the driven ports (interfaces) of the entropia engine.

These interfaces decouple the simulation core from persistence and coordination
backends.

# Key Interfaces

  - SnapshotStore: persists and loads simulation snapshots by ID.
  - DistributedLocker: provides distributed locking for concurrent snapshot access.
*/
package ports
