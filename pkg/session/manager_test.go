package session_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/entropia/pkg/adapters/memory"
	"github.com/aretw0/entropia/pkg/adapters/redis"
	"github.com/aretw0/entropia/pkg/domain"
	"github.com/aretw0/entropia/pkg/explorer"
	"github.com/aretw0/entropia/pkg/oracle"
	contract "github.com/aretw0/entropia/pkg/ports/tests"
	"github.com/aretw0/entropia/pkg/session"
	"github.com/aretw0/entropia/pkg/simulation"
	"github.com/aretw0/entropia/pkg/snapshot"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slowStore simulates I/O latency to provoke lost updates if locking is missing.
type slowStore struct {
	*memory.Store
}

func (s slowStore) Save(ctx context.Context, id string, snap *snapshot.Snapshot) error {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Save(ctx, id, snap)
}

func (s slowStore) Load(ctx context.Context, id string) (*snapshot.Snapshot, error) {
	time.Sleep(2 * time.Millisecond)
	return s.Store.Load(ctx, id)
}

func increment(snap *snapshot.Snapshot) (*snapshot.Snapshot, error) {
	if snap == nil {
		snap = contract.Fixture("counter")
		snap.Metadata["count"] = "0"
	}
	n, err := strconv.Atoi(snap.Metadata["count"])
	if err != nil {
		return nil, err
	}
	snap.Metadata["count"] = strconv.Itoa(n + 1)
	return snap, nil
}

func TestManager_UpdateIsSerialized(t *testing.T) {
	manager := session.NewManager(slowStore{memory.NewStore()})
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, manager.Update(ctx, "counter", increment))
		}()
	}
	wg.Wait()

	snap, err := manager.Load(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, "20", snap.Metadata["count"])
}

func TestManager_UpdateAbort(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()
	boom := errors.New("boom")

	err := manager.Update(ctx, "x", func(*snapshot.Snapshot) (*snapshot.Snapshot, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	require.NoError(t, manager.Update(ctx, "x", func(*snapshot.Snapshot) (*snapshot.Snapshot, error) { return nil, nil }))
	_, err = manager.Load(ctx, "x")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func ring(p int) []domain.Transition[int] {
	return []domain.Transition[int]{
		{Target: (p + 1) % 4, Label: "forward", Weight: 0.5},
		{Target: (p + 3) % 4, Label: "back", Weight: 0.5},
	}
}

func TestCheckpointResume(t *testing.T) {
	manager := session.NewManager(memory.NewStore())
	ctx := context.Background()

	o := oracle.New(ring, nil)
	sim := simulation.New(0, o)
	_, err := sim.Run(3)
	require.NoError(t, err)
	g, err := explorer.FullTraversal(0, o, explorer.Options[int]{})
	require.NoError(t, err)

	_, err = session.Checkpoint(ctx, manager, "ring", sim, g, map[string]string{"model": "ring"})
	require.NoError(t, err)

	ids, err := manager.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ring"}, ids)

	restored, rg, err := session.Resume(ctx, manager, "ring", oracle.New(ring, nil))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), restored.Time())
	assert.Equal(t, 4, rg.NodeCount())
	assert.True(t, sim.Current().Equal(restored.Current(), 0))

	_, _, err = session.Resume(ctx, manager, "missing", oracle.New(ring, nil))
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestManager_DistributedLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()

	store := slowStore{memory.NewStore()}
	locker := redis.NewLocker(client, "entropia:")
	replicas := []*session.Manager{
		session.NewManager(store, session.WithLocker(locker), session.WithLockTTL(5*time.Second)),
		session.NewManager(store, session.WithLocker(locker)),
	}
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, m := range replicas {
		for i := 0; i < 3; i++ {
			wg.Add(1)
			go func(m *session.Manager) {
				defer wg.Done()
				assert.NoError(t, m.Update(ctx, "counter", increment))
			}(m)
		}
	}
	wg.Wait()

	snap, err := replicas[0].Load(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, "6", snap.Metadata["count"])
	assert.False(t, mr.Exists("entropia:lock:counter"), "lock must be released")
}

func TestManager_LockCanceled(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()

	require.NoError(t, mr.Set("entropia:lock:busy", "someone-else"))
	manager := session.NewManager(memory.NewStore(), session.WithLocker(redis.NewLocker(client, "entropia:")))

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	err := manager.Save(ctx, "busy", contract.Fixture("busy"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
