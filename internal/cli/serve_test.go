package cli

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/entropia/pkg/snapshot"
)

func TestStepper_Advance(t *testing.T) {
	ctx := context.Background()
	app, _ := newTestApp(t)
	_, err := SaveSnapshot(ctx, app, SaveOptions{Model: ModelOptions{Name: ModelRing, Size: 4}, Steps: 1, ID: "ring"})
	require.NoError(t, err)

	p, err := OpenPersistence(app.Config.Store, app.Logger)
	require.NoError(t, err)
	defer p.Close()
	stepper := NewStepper(app, p.Manager(app.Logger))

	snap, err := stepper.Advance(ctx, "ring", 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), snap.Time)
	assert.Len(t, snap.Frames, 5)

	stored, err := p.Store.Load(ctx, "ring")
	require.NoError(t, err)
	assert.Equal(t, uint64(4), stored.Time)
	assert.Equal(t, snap.ID, stored.ID)

	_, err = stepper.Advance(ctx, "missing", 1)
	assert.True(t, IsNotFound(err))
}

func TestRunServe(t *testing.T) {
	app, _ := newTestApp(t)
	_, err := SaveSnapshot(context.Background(), app, SaveOptions{Model: ModelOptions{Name: ModelRing, Size: 3}, ID: "ring", Explore: true})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- RunServe(ctx, app, ServeOptions{Addr: "127.0.0.1:0", Ready: func(addr string) { ready <- addr }})
	}()
	base := "http://" + <-ready

	resp, err := http.Post(base+"/snapshots/ring/steps", "application/json", strings.NewReader(`{"steps":2}`))
	require.NoError(t, err)
	var stepped map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stepped))
	resp.Body.Close()
	assert.Equal(t, float64(2), stepped["time"])

	resp, err = http.Get(base + "/snapshots/ring/frames/2")
	require.NoError(t, err)
	var f snapshot.Frame
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&f))
	resp.Body.Close()
	assert.Len(t, f.Masses, 3)

	resp, err = http.Get(base + "/snapshots/ring/graph.mmd")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, 6, strings.Count(string(body), "-- \"c"))

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	assert.NoError(t, <-done)

	assert.Error(t, RunServe(context.Background(), app, ServeOptions{}))
}
