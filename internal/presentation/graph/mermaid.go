package graph

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/entropia/pkg/domain"
	"github.com/aretw0/entropia/pkg/snapshot"
)

// Node is a state as drawn in a diagram.
type Node struct {
	ID     string // hex state hash
	Label  string
	Root   bool
	Pruned bool
}

// Edge is a weighted transition as drawn in a diagram.
type Edge struct {
	From, To string
	Label    string
	Weight   float64
}

// Overlay carries the mass of a distribution to highlight on the graph.
type Overlay struct {
	Masses map[string]float64
}

// GenerateMermaid produces a Mermaid flowchart from a state graph.
// It applies semantic styling:
// - Root: ((Circle))
// - Absorbing (only a self loop): [[Subroutine]]
// - Pruned (never expanded): [/Parallelogram/]
// - Default: [Rectangle]
// With an overlay, states holding mass are styled "visited" and the heaviest
// state "current".
func GenerateMermaid(nodes []Node, edges []Edge, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	absorbing := absorbingNodes(edges)
	for _, node := range nodes {
		opener, closer := "[", "]"
		switch {
		case node.Root:
			opener, closer = "((", "))"
		case node.Pruned:
			opener, closer = "[/", "/]"
		case absorbing[node.ID]:
			opener, closer = "[[", "]]"
		}
		label := node.Label
		if label == "" {
			label = node.ID
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", mermaidID(node.ID), opener, escape(label), closer)
	}

	for _, e := range edges {
		arrow := fmt.Sprintf("-- \"%s\" -->", edgeLabel(e))
		if e.Label == domain.AbsorbingLabel {
			arrow = "-.->"
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", mermaidID(e.From), arrow, mermaidID(e.To))
	}

	if overlay != nil && len(overlay.Masses) > 0 {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text stays readable on the light fills in both themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		held := make([]string, 0, len(overlay.Masses))
		for id, m := range overlay.Masses {
			if m > 0 {
				held = append(held, id)
			}
		}
		slices.SortFunc(held, func(a, b string) int {
			if c := cmp.Compare(overlay.Masses[b], overlay.Masses[a]); c != 0 {
				return c
			}
			return strings.Compare(a, b)
		})
		for i, id := range held {
			class := "visited"
			if i == 0 {
				class = "current"
			}
			fmt.Fprintf(&sb, "    class %s %s;\n", mermaidID(id), class)
		}
	}

	return sb.String()
}

// FromSnapshot extracts the diagram of a snapshot's graph, labelled with the
// recorded states and overlaid with the latest frame. It returns false when the
// snapshot carries no graph.
func FromSnapshot(snap *snapshot.Snapshot) ([]Node, []Edge, *Overlay, bool) {
	if snap.Graph == nil {
		return nil, nil, nil, false
	}
	nodes := make([]Node, len(snap.Graph.Nodes))
	for i, n := range snap.Graph.Nodes {
		nodes[i] = Node{
			ID:     n.Hash,
			Label:  stateLabel(snap.States[n.Hash]),
			Root:   n.Depth == 0,
			Pruned: n.Pruned,
		}
	}
	edges := make([]Edge, len(snap.Graph.Edges))
	for i, e := range snap.Graph.Edges {
		edges[i] = Edge{From: e.From, To: e.To, Label: e.Label, Weight: e.Weight}
	}
	var overlay *Overlay
	if len(snap.Frames) > 0 {
		overlay = &Overlay{Masses: snap.Frames[len(snap.Frames)-1].Masses}
	}
	return nodes, edges, overlay, true
}

func absorbingNodes(edges []Edge) map[string]bool {
	out := map[string]bool{}
	leaves := map[string]bool{}
	for _, e := range edges {
		if e.From == e.To {
			if _, seen := leaves[e.From]; !seen {
				leaves[e.From] = true
			}
			continue
		}
		leaves[e.From] = false
	}
	for id, only := range leaves {
		if only {
			out[id] = true
		}
	}
	return out
}

func edgeLabel(e Edge) string {
	w := strconv.FormatFloat(e.Weight, 'g', 4, 64)
	if e.Label == "" {
		return w
	}
	return escape(e.Label) + " " + w
}

// stateLabel unquotes JSON strings so "heads" is drawn as heads.
func stateLabel(raw string) string {
	if s, err := strconv.Unquote(raw); err == nil {
		return s
	}
	return raw
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func mermaidID(id string) string {
	return "s_" + id
}
