/*
Package session implements snapshot management and persistence orchestration.

It serializes access to snapshots by ID within a process, optionally coordinates
with other processes through a ports.DistributedLocker, and bridges running
simulations to a ports.SnapshotStore with Checkpoint and Resume.
*/
package session
