package compiler

import (
	"github.com/matzehuels/flowscope/pkg/decl"
	"github.com/matzehuels/flowscope/pkg/graph"
)

// Link is what a node declaration compiled to: exactly one of Node or Graph
// is set.
type Link struct {
	Node  *Node  // primitive node
	Graph *Graph // subgraph instance
}

// IsGraph reports whether the declaration compiled to a subgraph instance.
func (l Link) IsGraph() bool { return l.Graph != nil }

// Program is the result of one compilation: the visualization graph plus the
// symbol table retained for the debugging session. A Program is never
// mutated after Compile returns and is safe for concurrent reads.
type Program struct {
	// Table is the declaration table the program was compiled from.
	Table *decl.Table
	// Main is the compiled entry graph.
	Main *Graph
	// Globals holds the nodes declared outside any graph body.
	Globals *decl.Index[*Node]
	// GlobalGraphs holds the graph instances declared outside any graph body.
	GlobalGraphs *decl.Index[*Graph]
	// Boundaries are the entry graph's input and output pseudo-nodes.
	Boundaries []*Node
	// Graph is the flattened visualization graph.
	Graph graph.Graph

	// links records every compiled instance of a declaration, oldest first.
	// Declarations inside a graph type instantiated several times link to
	// each of their instances.
	links map[*decl.Node][]Link
}

func newProgram(t *decl.Table) *Program {
	return &Program{
		Table:        t,
		Globals:      decl.NewIndex[*Node](),
		GlobalGraphs: decl.NewIndex[*Graph](),
		links:        make(map[*decl.Node][]Link),
	}
}

func (p *Program) link(d *decl.Node, l Link) {
	p.links[d] = append(p.links[d], l)
}

// Link returns the most recently compiled instance of a declaration.
// For declarations of the entry graph and global declarations this is their
// only instance.
func (p *Program) Link(d *decl.Node) (Link, bool) {
	ls := p.links[d]
	if len(ls) == 0 {
		return Link{}, false
	}
	return ls[len(ls)-1], true
}

// Carries reports whether any compiled instance of the declaration is the
// primitive node with the given id.
func (p *Program) Carries(d *decl.Node, id int) bool {
	for _, l := range p.links[d] {
		if l.Node != nil && l.Node.ID == id {
			return true
		}
	}
	return false
}

// GlobalNode returns the compiled global primitive node with the given name.
func (p *Program) GlobalNode(name string) (*Node, bool) {
	return p.Globals.Get(name)
}

// GlobalGraph returns the compiled global graph instance with the given name.
func (p *Program) GlobalGraph(name string) (*Graph, bool) {
	return p.GlobalGraphs.Get(name)
}

// Stats summarizes a compiled program.
type Stats struct {
	Primitives int
	Junctions  int
	Boundaries int
	Edges      int
}

// Nodes returns the total node count.
func (s Stats) Nodes() int { return s.Primitives + s.Junctions + s.Boundaries }

// Stats counts the nodes of the visualization graph by kind.
func (p *Program) Stats() Stats {
	var s Stats
	for _, n := range p.Graph.Nodes {
		switch {
		case n.IsJunction():
			s.Junctions++
		case n.IsPrimitive():
			s.Primitives++
		default:
			s.Boundaries++
		}
	}
	s.Edges = len(p.Graph.Edges)
	return s
}
