package explorer

import (
	"fmt"
	"slices"

	"github.com/aretw0/entropia/pkg/domain"
)

// Node is a discovered state.
type Node struct {
	Hash   domain.StateHash `json:"hash" yaml:"hash"`
	Depth  int              `json:"depth" yaml:"depth"`
	Pruned bool             `json:"pruned,omitempty" yaml:"pruned,omitempty"`
}

// Graph is the reachable state graph produced by FullTraversal.
// Nodes are kept in discovery order.
type Graph struct {
	nodes      []Node
	index      map[domain.StateHash]int
	edges      []domain.Edge
	outgoing   map[domain.StateHash][]int
	exhaustive bool
	iterations int
}

func newGraph() *Graph {
	return &Graph{
		index:    make(map[domain.StateHash]int),
		outgoing: make(map[domain.StateHash][]int),
	}
}

// Rebuild reconstructs a graph from its parts, for example after loading a snapshot.
// Every edge must connect known nodes.
func Rebuild(nodes []Node, edges []domain.Edge, exhaustive bool, iterations int) (*Graph, error) {
	g := newGraph()
	for _, n := range nodes {
		if g.Has(n.Hash) {
			return nil, fmt.Errorf("duplicate node %s", n.Hash)
		}
		g.addNode(n)
	}
	for _, e := range edges {
		if !g.Has(e.From) || !g.Has(e.To) {
			return nil, fmt.Errorf("edge %s -> %s references an unknown node", e.From, e.To)
		}
		g.addEdge(e)
	}
	g.exhaustive = exhaustive
	g.iterations = iterations
	return g, nil
}

func (g *Graph) addNode(n Node) {
	g.index[n.Hash] = len(g.nodes)
	g.nodes = append(g.nodes, n)
}

func (g *Graph) addEdge(e domain.Edge) {
	g.outgoing[e.From] = append(g.outgoing[e.From], len(g.edges))
	g.edges = append(g.edges, e)
}

// Has reports whether h was discovered.
func (g *Graph) Has(h domain.StateHash) bool {
	_, ok := g.index[h]
	return ok
}

// Node returns the node for h.
func (g *Graph) Node(h domain.StateHash) (Node, bool) {
	i, ok := g.index[h]
	if !ok {
		return Node{}, false
	}
	return g.nodes[i], true
}

// Nodes returns the discovered nodes in discovery order.
func (g *Graph) Nodes() []Node {
	return slices.Clone(g.nodes)
}

// Hashes returns the discovered hashes in discovery order.
func (g *Graph) Hashes() []domain.StateHash {
	out := make([]domain.StateHash, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.Hash
	}
	return out
}

// Edges returns every edge in insertion order.
func (g *Graph) Edges() []domain.Edge {
	return slices.Clone(g.edges)
}

// Outgoing returns the edges leaving h.
func (g *Graph) Outgoing(h domain.StateHash) []domain.Edge {
	idx := g.outgoing[h]
	out := make([]domain.Edge, len(idx))
	for i, j := range idx {
		out[i] = g.edges[j]
	}
	return out
}

// NodeCount returns the number of discovered states.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of recorded edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Exhaustive reports whether the frontier emptied before the iteration limit
// with no state left unexpanded by Keep.
func (g *Graph) Exhaustive() bool { return g.exhaustive }

// Iterations returns how many states were expanded.
func (g *Graph) Iterations() int { return g.iterations }

// Pruned returns the hashes discovered but deliberately left unexpanded.
func (g *Graph) Pruned() []domain.StateHash {
	var out []domain.StateHash
	for _, n := range g.nodes {
		if n.Pruned {
			out = append(out, n.Hash)
		}
	}
	return out
}
