package snapshot

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/entropia/pkg/distribution"
	"github.com/aretw0/entropia/pkg/domain"
	"github.com/aretw0/entropia/pkg/explorer"
	"github.com/aretw0/entropia/pkg/oracle"
	"github.com/aretw0/entropia/pkg/simulation"
)

// Frame is the persisted form of a history entry. Masses are keyed by hex state hash.
type Frame struct {
	Time   uint64             `json:"time" yaml:"time"`
	Kind   string             `json:"kind" yaml:"kind"`
	Label  string             `json:"label,omitempty" yaml:"label,omitempty"`
	Masses map[string]float64 `json:"masses" yaml:"masses"`
}

// Node is the persisted form of an explorer node.
type Node struct {
	Hash   string `json:"hash" yaml:"hash"`
	Depth  int    `json:"depth" yaml:"depth"`
	Pruned bool   `json:"pruned,omitempty" yaml:"pruned,omitempty"`
}

// Edge is the persisted form of a graph edge.
type Edge struct {
	From   string  `json:"from" yaml:"from"`
	To     string  `json:"to" yaml:"to"`
	Label  string  `json:"label,omitempty" yaml:"label,omitempty"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Graph is the persisted form of a reachable graph.
type Graph struct {
	Nodes      []Node `json:"nodes" yaml:"nodes"`
	Edges      []Edge `json:"edges" yaml:"edges"`
	Exhaustive bool   `json:"exhaustive" yaml:"exhaustive"`
	Iterations int    `json:"iterations" yaml:"iterations"`
}

// Snapshot is a self-contained, rule-free record of a simulation.
type Snapshot struct {
	ID        string    `json:"id" yaml:"id"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Time      uint64    `json:"time" yaml:"time"`
	Pruned    float64   `json:"pruned,omitempty" yaml:"pruned,omitempty"`
	Frames    []Frame   `json:"frames" yaml:"frames"`

	// States maps hex state hashes to the JSON encoding of the state value.
	States map[string]string `json:"states" yaml:"states"`

	Graph    *Graph            `json:"graph,omitempty" yaml:"graph,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Capture records sim (and optionally the graph g) into a new snapshot.
// State values are encoded with encoding/json and must round-trip to equal hashes.
func Capture[S any](sim *simulation.Engine[S], g *explorer.Graph, metadata map[string]string) (*Snapshot, error) {
	o := sim.Oracle()
	snap := &Snapshot{
		ID:        uuid.New().String(),
		CreatedAt: time.Now().UTC(),
		Time:      sim.Time(),
		Pruned:    sim.Pruned(),
		States:    make(map[string]string),
		Metadata:  maps.Clone(metadata),
	}

	addState := func(h domain.StateHash) error {
		key := h.String()
		if _, ok := snap.States[key]; ok {
			return nil
		}
		s, ok := o.State(h)
		if !ok {
			return fmt.Errorf("state %s: %w", h, domain.ErrUnknownState)
		}
		data, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("failed to encode state %s: %w", h, err)
		}
		snap.States[key] = string(data)
		return nil
	}

	for _, f := range sim.History() {
		pf := Frame{Time: f.Time, Kind: string(f.Kind), Label: f.Label, Masses: make(map[string]float64, f.Distribution.Len())}
		var err error
		f.Distribution.Each(func(h domain.StateHash, p float64) bool {
			pf.Masses[h.String()] = p
			err = addState(h)
			return err == nil
		})
		if err != nil {
			return nil, err
		}
		snap.Frames = append(snap.Frames, pf)
	}

	if g != nil {
		pg := &Graph{Exhaustive: g.Exhaustive(), Iterations: g.Iterations()}
		for _, n := range g.Nodes() {
			if err := addState(n.Hash); err != nil {
				return nil, err
			}
			pg.Nodes = append(pg.Nodes, Node{Hash: n.Hash.String(), Depth: n.Depth, Pruned: n.Pruned})
		}
		for _, e := range g.Edges() {
			pg.Edges = append(pg.Edges, Edge{From: e.From.String(), To: e.To.String(), Label: e.Label, Weight: e.Weight})
		}
		snap.Graph = pg
	}
	return snap, nil
}

// Validate checks the structure of a snapshot: frame times are consecutive and end
// at Time, masses are finite, non-negative and sum to one within eps (plus the
// pruned mass), and every hash referenced by a frame or the graph has a state.
func (s *Snapshot) Validate(eps float64) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", domain.ErrInvalidSnapshot, fmt.Sprintf(format, args...))
	}
	if s.ID == "" {
		return invalid("missing id")
	}
	if len(s.Frames) == 0 {
		return invalid("no frames")
	}
	if s.Pruned < 0 || s.Pruned > eps {
		return invalid("pruned mass %g out of range", s.Pruned)
	}
	known := func(key string) error {
		if _, err := domain.ParseStateHash(key); err != nil {
			return invalid("%v", err)
		}
		if _, ok := s.States[key]; !ok {
			return invalid("hash %s has no state", key)
		}
		return nil
	}

	for i, f := range s.Frames {
		if i > 0 && f.Time != s.Frames[i-1].Time+1 {
			return invalid("frame %d has time %d after %d", i, f.Time, s.Frames[i-1].Time)
		}
		var sum float64
		for key, p := range f.Masses {
			if err := known(key); err != nil {
				return err
			}
			if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
				return invalid("frame %d has mass %g for %s", f.Time, p, key)
			}
			sum += p
		}
		if math.Abs(sum-1) > eps+s.Pruned {
			return invalid("frame %d sums to %.12g", f.Time, sum)
		}
	}
	if last := s.Frames[len(s.Frames)-1].Time; last != s.Time {
		return invalid("last frame at %d, snapshot time %d", last, s.Time)
	}

	if s.Graph != nil {
		nodes := make(map[string]struct{}, len(s.Graph.Nodes))
		for _, n := range s.Graph.Nodes {
			if err := known(n.Hash); err != nil {
				return err
			}
			nodes[n.Hash] = struct{}{}
		}
		for _, e := range s.Graph.Edges {
			_, okFrom := nodes[e.From]
			_, okTo := nodes[e.To]
			if !okFrom || !okTo {
				return invalid("edge %s -> %s references an unknown node", e.From, e.To)
			}
		}
	}
	return nil
}

// Restore decodes the snapshot's states into o's cache and rebuilds the simulation
// and graph. o must be built from the same transition function or rule set that
// produced the snapshot. The graph is nil when the snapshot has none.
func Restore[S any](snap *Snapshot, o *oracle.Oracle[S], opts ...simulation.Option) (*simulation.Engine[S], *explorer.Graph, error) {
	eps := o.Tolerance()
	if err := snap.Validate(eps); err != nil {
		return nil, nil, err
	}

	keys := slices.Sorted(maps.Keys(snap.States))
	for _, key := range keys {
		var s S
		if err := json.Unmarshal([]byte(snap.States[key]), &s); err != nil {
			return nil, nil, fmt.Errorf("%w: failed to decode state %s: %v", domain.ErrInvalidSnapshot, key, err)
		}
		if got := o.Remember(s).String(); got != key {
			return nil, nil, fmt.Errorf("%w: state %s decodes to hash %s", domain.ErrInvalidSnapshot, key, got)
		}
	}

	frames := make([]simulation.Frame, len(snap.Frames))
	for i, f := range snap.Frames {
		masses := make(map[domain.StateHash]float64, len(f.Masses))
		for key, p := range f.Masses {
			h, _ := domain.ParseStateHash(key)
			masses[h] = p
		}
		d, err := distribution.FromMasses(masses, eps+snap.Pruned)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: frame %d: %v", domain.ErrInvalidSnapshot, f.Time, err)
		}
		frames[i] = simulation.Frame{Time: f.Time, Kind: simulation.Kind(f.Kind), Label: f.Label, Distribution: d}
	}
	sim, err := simulation.Resume(o, frames, snap.Pruned, opts...)
	if err != nil {
		return nil, nil, err
	}

	if snap.Graph == nil {
		return sim, nil, nil
	}
	nodes := make([]explorer.Node, len(snap.Graph.Nodes))
	for i, n := range snap.Graph.Nodes {
		h, _ := domain.ParseStateHash(n.Hash)
		nodes[i] = explorer.Node{Hash: h, Depth: n.Depth, Pruned: n.Pruned}
	}
	edges := make([]domain.Edge, len(snap.Graph.Edges))
	for i, e := range snap.Graph.Edges {
		from, _ := domain.ParseStateHash(e.From)
		to, _ := domain.ParseStateHash(e.To)
		edges[i] = domain.Edge{From: from, To: to, Label: e.Label, Weight: e.Weight}
	}
	g, err := explorer.Rebuild(nodes, edges, snap.Graph.Exhaustive, snap.Graph.Iterations)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrInvalidSnapshot, err)
	}
	return sim, g, nil
}

// Clone returns a deep copy.
func (s *Snapshot) Clone() *Snapshot {
	out := *s
	out.Frames = make([]Frame, len(s.Frames))
	for i, f := range s.Frames {
		f.Masses = maps.Clone(f.Masses)
		out.Frames[i] = f
	}
	out.States = maps.Clone(s.States)
	out.Metadata = maps.Clone(s.Metadata)
	if s.Graph != nil {
		g := *s.Graph
		g.Nodes = slices.Clone(s.Graph.Nodes)
		g.Edges = slices.Clone(s.Graph.Edges)
		out.Graph = &g
	}
	return &out
}
