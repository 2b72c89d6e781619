package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/entropia/pkg/domain"
	"github.com/aretw0/entropia/pkg/ports"
	"github.com/aretw0/entropia/pkg/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Fixture returns a small valid snapshot: a fair coin flipped once from heads.
func Fixture(id string) *snapshot.Snapshot {
	heads, tails := domain.HashOf("heads").String(), domain.HashOf("tails").String()
	return &snapshot.Snapshot{
		ID:        id,
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Time:      1,
		Frames: []snapshot.Frame{
			{Time: 0, Kind: "initial", Masses: map[string]float64{heads: 1}},
			{Time: 1, Kind: "step", Masses: map[string]float64{heads: 0.5, tails: 0.5}},
		},
		States: map[string]string{heads: `"heads"`, tails: `"tails"`},
		Graph: &snapshot.Graph{
			Nodes: []snapshot.Node{{Hash: heads}, {Hash: tails, Depth: 1}},
			Edges: []snapshot.Edge{
				{From: heads, To: heads, Label: "heads", Weight: 0.5},
				{From: heads, To: tails, Label: "tails", Weight: 0.5},
			},
			Exhaustive: true,
			Iterations: 2,
		},
		Metadata: map[string]string{"model": "coin"},
	}
}

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the interface contract.
func RunSnapshotStoreContract(t *testing.T, store ports.SnapshotStore) {
	t.Helper()
	ctx := context.Background()
	id := "contract-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := Fixture(id)
		require.NoError(t, store.Save(ctx, id, snap))

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, snap.ID, loaded.ID)
		assert.Equal(t, snap.Time, loaded.Time)
		assert.True(t, snap.CreatedAt.Equal(loaded.CreatedAt))
		assert.Equal(t, snap.Frames, loaded.Frames)
		assert.Equal(t, snap.States, loaded.States)
		assert.Equal(t, snap.Graph, loaded.Graph)
		assert.Equal(t, "coin", loaded.Metadata["model"])
		assert.NoError(t, loaded.Validate(domain.DefaultSumTolerance))
	})

	t.Run("Load is isolated from the caller", func(t *testing.T) {
		snap := Fixture(id)
		require.NoError(t, store.Save(ctx, id, snap))
		snap.Metadata["model"] = "mutated"

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "coin", loaded.Metadata["model"])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+id)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, id, Fixture(id)))
		require.NoError(t, store.Delete(ctx, id))

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Delete should return ErrSnapshotNotFound")
		assert.NoError(t, store.Delete(ctx, id), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1, id2 := id+"-1", id+"-2"
		require.NoError(t, store.Save(ctx, id1, Fixture(id1)))
		require.NoError(t, store.Save(ctx, id2, Fixture(id2)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
