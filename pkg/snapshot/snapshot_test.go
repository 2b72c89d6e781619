package snapshot_test

import (
	"errors"
	"testing"

	"github.com/aretw0/entropia/pkg/domain"
	"github.com/aretw0/entropia/pkg/explorer"
	"github.com/aretw0/entropia/pkg/oracle"
	"github.com/aretw0/entropia/pkg/simulation"
	"github.com/aretw0/entropia/pkg/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ring(p int) []domain.Transition[int] {
	return []domain.Transition[int]{
		{Target: (p + 1) % 5, Label: "forward", Weight: 0.5},
		{Target: (p + 4) % 5, Label: "back", Weight: 0.5},
	}
}

type position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func grid(p position) []domain.Transition[position] {
	if p.X >= 2 {
		return nil
	}
	return []domain.Transition[position]{
		{Target: position{X: p.X + 1, Y: p.Y}, Label: "east", Weight: 0.75},
		{Target: position{X: p.X, Y: p.Y + 1}, Label: "north", Weight: 0.25},
	}
}

func captureRing(t *testing.T) (*simulation.Engine[int], *explorer.Graph, *snapshot.Snapshot) {
	t.Helper()
	o := oracle.New(ring, nil)
	sim := simulation.New(0, o)
	_, err := sim.Run(4)
	require.NoError(t, err)
	g, err := explorer.FullTraversal(0, o, explorer.Options[int]{})
	require.NoError(t, err)

	snap, err := snapshot.Capture(sim, g, map[string]string{"model": "ring"})
	require.NoError(t, err)
	return sim, g, snap
}

func TestCapture(t *testing.T) {
	sim, _, snap := captureRing(t)

	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, sim.Time(), snap.Time)
	assert.Len(t, snap.Frames, 5)
	assert.Len(t, snap.States, 5)
	assert.Equal(t, "ring", snap.Metadata["model"])
	require.NotNil(t, snap.Graph)
	assert.Len(t, snap.Graph.Nodes, 5)
	assert.Len(t, snap.Graph.Edges, 10)
	assert.True(t, snap.Graph.Exhaustive)
	assert.Equal(t, "3", snap.States[domain.HashOf(3).String()])
	assert.NoError(t, snap.Validate(domain.DefaultSumTolerance))
}

func TestRestore_RoundTrip(t *testing.T) {
	for _, format := range []snapshot.Format{snapshot.FormatJSON, snapshot.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			sim, g, snap := captureRing(t)

			data, err := snapshot.Marshal(snap, format)
			require.NoError(t, err)
			decoded, err := snapshot.Unmarshal(data, format)
			require.NoError(t, err)

			fresh := oracle.New(ring, nil)
			restored, rg, err := snapshot.Restore(decoded, fresh)
			require.NoError(t, err)
			require.NotNil(t, rg)

			assert.Equal(t, sim.Time(), restored.Time())
			assert.Equal(t, g.NodeCount(), rg.NodeCount())
			assert.Equal(t, g.EdgeCount(), rg.EdgeCount())
			for tm := uint64(0); tm <= sim.Time(); tm++ {
				want, err := sim.Distribution(tm)
				require.NoError(t, err)
				got, err := restored.Distribution(tm)
				require.NoError(t, err)
				assert.True(t, want.Equal(got, 0), "time %d: %s vs %s", tm, want, got)
			}

			// Both engines continue identically.
			want, err := sim.Run(3)
			require.NoError(t, err)
			got, err := restored.Run(3)
			require.NoError(t, err)
			assert.True(t, want.Equal(got, 1e-12))
		})
	}
}

func TestRestore_StructStates(t *testing.T) {
	o := oracle.New(grid, nil)
	sim := simulation.New(position{}, o)
	_, err := sim.Run(3)
	require.NoError(t, err)

	snap, err := snapshot.Capture(sim, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, snap.Graph)

	restored, g, err := snapshot.Restore(snap, oracle.New(grid, nil))
	require.NoError(t, err)
	assert.Nil(t, g)

	p, err := restored.Probability(3, position{X: 2, Y: 1})
	require.NoError(t, err)
	assert.InDelta(t, 2*0.75*0.75*0.25, p, 1e-12)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *snapshot.Snapshot)
	}{
		{"missing id", func(s *snapshot.Snapshot) { s.ID = "" }},
		{"no frames", func(s *snapshot.Snapshot) { s.Frames = nil }},
		{"gap in frames", func(s *snapshot.Snapshot) { s.Frames[2].Time = 7 }},
		{"wrong time", func(s *snapshot.Snapshot) { s.Time = 9 }},
		{"missing state", func(s *snapshot.Snapshot) { delete(s.States, domain.HashOf(0).String()) }},
		{"bad hash", func(s *snapshot.Snapshot) { s.Frames[0].Masses = map[string]float64{"zz": 1} }},
		{"mass leak", func(s *snapshot.Snapshot) {
			for k := range s.Frames[1].Masses {
				s.Frames[1].Masses[k] = 0.1
			}
		}},
		{"negative mass", func(s *snapshot.Snapshot) {
			s.Frames[0].Masses[domain.HashOf(0).String()] = -1
		}},
		{"dangling edge", func(s *snapshot.Snapshot) {
			s.Graph.Edges = append(s.Graph.Edges, snapshot.Edge{From: domain.HashOf(0).String(), To: domain.HashOf(99).String()})
		}},
		{"pruned out of range", func(s *snapshot.Snapshot) { s.Pruned = 0.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, snap := captureRing(t)
			tt.mutate(snap)
			err := snap.Validate(domain.DefaultSumTolerance)
			assert.ErrorIs(t, err, domain.ErrInvalidSnapshot)
		})
	}
}

func TestRestore_RejectsMismatchedState(t *testing.T) {
	_, _, snap := captureRing(t)
	snap.States[domain.HashOf(2).String()] = "7"

	_, _, err := snapshot.Restore(snap, oracle.New(ring, nil))
	assert.True(t, errors.Is(err, domain.ErrInvalidSnapshot))
}

func TestClone(t *testing.T) {
	_, _, snap := captureRing(t)
	c := snap.Clone()
	c.Frames[0].Masses[domain.HashOf(0).String()] = 0.5
	c.Graph.Nodes[0].Depth = 42
	c.Metadata["model"] = "other"

	assert.Equal(t, 1.0, snap.Frames[0].Masses[domain.HashOf(0).String()])
	assert.NotEqual(t, 42, snap.Graph.Nodes[0].Depth)
	assert.Equal(t, "ring", snap.Metadata["model"])
}

func TestFormat(t *testing.T) {
	assert.Equal(t, snapshot.FormatYAML, snapshot.FormatFromPath("run.yml"))
	assert.Equal(t, snapshot.FormatJSON, snapshot.FormatFromPath("run.json"))

	f, err := snapshot.ParseFormat("YAML")
	require.NoError(t, err)
	assert.Equal(t, snapshot.FormatYAML, f)
	_, err = snapshot.ParseFormat("toml")
	assert.Error(t, err)
}
