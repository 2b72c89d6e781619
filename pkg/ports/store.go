package ports

import (
	"context"

	"github.com/aretw0/entropia/pkg/snapshot"
)

// SnapshotStore defines the interface for persisting simulation snapshots.
// This allows a long simulation to be stopped and resumed in another process.
type SnapshotStore interface {
	// Save persists the snapshot under the given ID, replacing any previous one.
	Save(ctx context.Context, id string, snap *snapshot.Snapshot) error

	// Load retrieves the snapshot for a given ID.
	// Returns domain.ErrSnapshotNotFound if the snapshot does not exist.
	Load(ctx context.Context, id string) (*snapshot.Snapshot, error)

	// Delete removes the snapshot for a given ID. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of stored snapshots.
	List(ctx context.Context) ([]string, error)
}
