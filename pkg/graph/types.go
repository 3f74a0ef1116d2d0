package graph

import (
	"fmt"
	"slices"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Node colors used by the visualization.
const (
	ColorNode     = "#fff"    // primitive nodes
	ColorJunction = "#000"    // junction dots
	ColorBoundary = "#000"    // entry graph boundary pseudo-nodes
	ColorBlocked  = "#ff0000" // nodes flagged as blocking by telemetry
	FontLight     = "#fff"
	FontDark      = "#000"
)

// Edge arrow styles.
const (
	// ArrowTo marks an edge with a resolved direction.
	ArrowTo = "to"
	// ArrowNone marks an undirected fan edge.
	ArrowNone = ""
)

// ShapeDot is the shape of junction nodes.
const ShapeDot = "dot"

// =============================================================================
// Graph - Visualization Graph Serialization
// =============================================================================

// Graph is the flattened visualization graph handed to renderers.
//
// The JSON form matches what node-link front ends expect:
//
//	{
//	  "nodes": [{"id": 1, "label": "A", "color": "#fff", "title": "main", "ports": ["out"]}],
//	  "edges": [{"from": 1, "to": 2, "arrows": "to"}]
//	}
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is a visualization node. Label is nil for junction dots.
type Node struct {
	ID    int      `json:"id"`
	Label *string  `json:"label"`
	Color string   `json:"color"`
	Title string   `json:"title,omitempty"` // owning graph name, primitives only
	Ports []string `json:"ports,omitempty"`
	Font  *Font    `json:"font,omitempty"`
	Shape string   `json:"shape,omitempty"`
	Size  int      `json:"size,omitempty"`
}

// Font overrides the label font of a node.
type Font struct {
	Color string `json:"color"`
}

// Edge connects two visualization nodes.
type Edge struct {
	From   int    `json:"from"`
	To     int    `json:"to"`
	Arrows string `json:"arrows"`
}

// Label returns a pointer to s, for building [Node] values.
func Label(s string) *string { return &s }

// DisplayLabel returns the label if set, otherwise an empty string.
func (n *Node) DisplayLabel() string {
	if n.Label != nil {
		return *n.Label
	}
	return ""
}

// IsJunction reports whether the node is a junction dot.
func (n *Node) IsJunction() bool { return n.Shape == ShapeDot }

// IsPrimitive reports whether the node stands for a declared primitive node.
// Only primitive nodes carry a title.
func (n *Node) IsPrimitive() bool { return n.Title != "" }

// Directed reports whether the edge has a resolved direction.
func (e Edge) Directed() bool { return e.Arrows == ArrowTo }

// =============================================================================
// Queries
// =============================================================================

// Node returns the node with the given id.
func (g *Graph) Node(id int) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.Edges) }

// Validate checks that ids are unique positive integers and that every edge
// endpoint names a node of the graph.
func (g *Graph) Validate() error {
	seen := make(map[int]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID <= 0 {
			return fmt.Errorf("node %d: id must be positive", n.ID)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("node %d: duplicate id", n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	for _, e := range g.Edges {
		if _, ok := seen[e.From]; !ok {
			return fmt.Errorf("edge %d→%d: unknown source node", e.From, e.To)
		}
		if _, ok := seen[e.To]; !ok {
			return fmt.Errorf("edge %d→%d: unknown target node", e.From, e.To)
		}
	}
	return nil
}

// Clone returns a deep copy of the graph.
func (g Graph) Clone() Graph {
	out := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: slices.Clone(g.Edges),
	}
	for i, n := range g.Nodes {
		c := n
		if n.Label != nil {
			c.Label = Label(*n.Label)
		}
		if n.Font != nil {
			f := *n.Font
			c.Font = &f
		}
		c.Ports = slices.Clone(n.Ports)
		out.Nodes[i] = c
	}
	return out
}

// SetBlocked recolors nodes according to the current blocking set: blocked
// nodes turn red with a light font, every other primitive node is reset to
// its default colors. Junctions and boundary nodes are left untouched.
func (g *Graph) SetBlocked(ids []int) {
	for i := range g.Nodes {
		n := &g.Nodes[i]
		switch {
		case slices.Contains(ids, n.ID):
			n.Color = ColorBlocked
			n.Font = &Font{Color: FontLight}
		case n.IsPrimitive():
			n.Color = ColorNode
			n.Font = &Font{Color: FontDark}
		}
	}
}
