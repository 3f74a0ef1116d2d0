package compiler

import (
	"github.com/matzehuels/flowscope/pkg/graph"
	"github.com/matzehuels/flowscope/pkg/orderedset"
)

// GlobalTitle is the title of nodes declared outside any graph body.
const GlobalTitle = "<global>"

// Kind distinguishes declared nodes from synthetic ones.
type Kind int

const (
	// KindPrimitive is a node declared with a non-graph type.
	KindPrimitive Kind = iota
	// KindJunction is a synthetic node joining a connection of more than two endpoints.
	KindJunction
	// KindBoundary is a synthetic node exposing an entry graph input or output.
	KindBoundary
)

func (k Kind) String() string {
	switch k {
	case KindJunction:
		return "junction"
	case KindBoundary:
		return "boundary"
	default:
		return "primitive"
	}
}

// Allocator hands out compiled node ids. The zero value starts at 1.
type Allocator struct {
	next int
}

// NewAllocator returns an allocator whose first id is 1.
func NewAllocator() *Allocator {
	return &Allocator{next: 1}
}

// Next returns a fresh id.
func (a *Allocator) Next() int {
	if a.next < 1 {
		a.next = 1
	}
	id := a.next
	a.next++
	return id
}

// Node is a compiled node.
type Node struct {
	ID    int
	Label string // declaration or boundary name; empty for junctions
	Title string // owning graph name, or GlobalTitle
	Kind  Kind
	Ports *orderedset.Set[string] // ports referenced on a primitive node
}

// Vis converts the node to its visualization form.
func (n *Node) Vis() graph.Node {
	switch n.Kind {
	case KindJunction:
		return graph.Node{ID: n.ID, Color: graph.ColorJunction, Shape: graph.ShapeDot, Size: 1}
	case KindBoundary:
		return graph.Node{
			ID:    n.ID,
			Label: graph.Label(n.Label),
			Color: graph.ColorBoundary,
			Font:  &graph.Font{Color: graph.FontLight},
		}
	default:
		return graph.Node{
			ID:    n.ID,
			Label: graph.Label(n.Label),
			Color: graph.ColorNode,
			Title: n.Title,
			Ports: n.Ports.Values(),
		}
	}
}

// Boundary is a graph input or output resolved to primitive ports.
// IDs and Tags are parallel: IDs[i] is the node carrying port Tags[i].
type Boundary struct {
	Name string
	IDs  []int
	Tags []string
}

// Graph is a fully flattened graph instance.
type Graph struct {
	Name    string
	Nodes   []*Node
	Edges   []graph.Edge
	Inputs  []Boundary
	Outputs []Boundary
}

// Input returns the input boundary with the given name.
func (g *Graph) Input(name string) (*Boundary, bool) {
	return findBoundary(g.Inputs, name)
}

// Output returns the output boundary with the given name.
func (g *Graph) Output(name string) (*Boundary, bool) {
	return findBoundary(g.Outputs, name)
}

// IDs returns the ids of every node in the flattened instance.
func (g *Graph) IDs() []int {
	ids := make([]int, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}

func findBoundary(bs []Boundary, name string) (*Boundary, bool) {
	for i := range bs {
		if bs[i].Name == name {
			return &bs[i], true
		}
	}
	return nil, false
}
