package compiler

import (
	"strings"

	"github.com/matzehuels/flowscope/pkg/decl"
	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/graph"
	"github.com/matzehuels/flowscope/pkg/orderedset"
)

// Compile flattens the declaration table into a Program.
//
// Global declarations are compiled first, in declaration order, then the
// entry graph named by t.Main. Every id is drawn from ids; a nil allocator is
// replaced by a fresh one. On error no Program is returned and the allocator
// may have advanced.
func Compile(t *decl.Table, ids *Allocator) (*Program, error) {
	if ids == nil {
		ids = NewAllocator()
	}
	c := &compiler{
		table:  t,
		ids:    ids,
		prog:   newProgram(t),
		active: make(map[string]bool),
	}

	if err := c.compileGlobals(); err != nil {
		return nil, err
	}

	entry, ok := t.Graph(t.Main)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownGraph, "main graph[%s] is not declared", t.Main)
	}
	main, err := c.compileGraph(entry)
	if err != nil {
		return nil, err
	}
	c.prog.Main = main

	edges := c.exposeBoundaries(main)
	c.prog.Graph = c.assemble(edges)
	return c.prog, nil
}

type compiler struct {
	table *decl.Table
	ids   *Allocator
	prog  *Program

	// active holds the graph types on the current instantiation path.
	active map[string]bool
	chain  []string
}

func (c *compiler) compileGlobals() error {
	for name, d := range c.table.Nodes.All() {
		if gd, ok := c.table.Graph(d.Ty); ok {
			g, err := c.compileGraph(gd)
			if err != nil {
				return err
			}
			c.prog.GlobalGraphs.Put(name, g)
			c.prog.link(d, Link{Graph: g})
			continue
		}
		n := &Node{
			ID:    c.ids.Next(),
			Label: name,
			Title: GlobalTitle,
			Kind:  KindPrimitive,
			Ports: orderedset.New[string](),
		}
		c.prog.Globals.Put(name, n)
		c.prog.link(d, Link{Node: n})
	}
	return nil
}

// scope is the set of names visible while compiling one graph body.
type scope struct {
	graph     *decl.Graph
	nodes     map[string]*Node
	subgraphs map[string]*Graph
}

func (c *compiler) enter(name string) error {
	if c.active[name] {
		cycle := append(append([]string(nil), c.chain...), name)
		return errors.New(errors.ErrCodeCyclicGraph, "graph[%s] instantiates itself: %s", name, strings.Join(cycle, " -> "))
	}
	c.active[name] = true
	c.chain = append(c.chain, name)
	return nil
}

func (c *compiler) leave(name string) {
	delete(c.active, name)
	c.chain = c.chain[:len(c.chain)-1]
}

// compileGraph compiles a fresh instance of gd.
func (c *compiler) compileGraph(gd *decl.Graph) (*Graph, error) {
	if err := c.enter(gd.Name); err != nil {
		return nil, err
	}
	defer c.leave(gd.Name)

	sc := &scope{
		graph:     gd,
		nodes:     make(map[string]*Node),
		subgraphs: make(map[string]*Graph),
	}
	var own, instances []string

	for name, d := range gd.Nodes.All() {
		if sub, ok := c.table.Graph(d.Ty); ok {
			g, err := c.compileGraph(sub)
			if err != nil {
				return nil, err
			}
			sc.subgraphs[name] = g
			instances = append(instances, name)
			c.prog.link(d, Link{Graph: g})
			continue
		}
		n := &Node{
			ID:    c.ids.Next(),
			Label: name,
			Title: gd.Name,
			Kind:  KindPrimitive,
			Ports: orderedset.New[string](),
		}
		sc.nodes[name] = n
		own = append(own, name)
		c.prog.link(d, Link{Node: n})
	}

	out := &Graph{Name: gd.Name}
	for _, name := range own {
		out.Nodes = append(out.Nodes, sc.nodes[name])
	}

	for _, conn := range gd.Connections {
		var eps endpoints
		for _, ref := range conn.Ports {
			resolved, err := c.resolve(sc, ref)
			if err != nil {
				return nil, err
			}
			for _, ep := range resolved {
				eps.add(ep)
			}
		}
		out.Edges = append(out.Edges, c.wire(out, &eps)...)
	}

	var err error
	if out.Inputs, err = c.boundaries(sc, gd.Inputs, true); err != nil {
		return nil, err
	}
	if out.Outputs, err = c.boundaries(sc, gd.Outputs, false); err != nil {
		return nil, err
	}

	for _, name := range instances {
		sub := sc.subgraphs[name]
		out.Nodes = append(out.Nodes, sub.Nodes...)
		out.Edges = append(out.Edges, sub.Edges...)
	}
	return out, nil
}

// wire turns the endpoints of one connection into edges, allocating a
// junction on out when needed.
func (c *compiler) wire(out *Graph, eps *endpoints) []graph.Edge {
	switch total := eps.total(); {
	case total < 2:
		return nil
	case total == 2:
		if e, ok := eps.binary(); ok {
			return []graph.Edge{e}
		}
	}
	j := &Node{ID: c.ids.Next(), Kind: KindJunction}
	out.Nodes = append(out.Nodes, j)
	return eps.fan(j.ID)
}

// lookup resolves an entity name in scope order: local nodes, local
// subgraph instances, global nodes, global graph instances.
func (c *compiler) lookup(sc *scope, entity string) (*Node, *Graph, string, bool) {
	if n, ok := sc.nodes[entity]; ok {
		return n, nil, "", true
	}
	if g, ok := sc.subgraphs[entity]; ok {
		d, _ := sc.graph.Nodes.Get(entity)
		return nil, g, d.Ty, true
	}
	if n, ok := c.prog.Globals.Get(entity); ok {
		return n, nil, "", true
	}
	if g, ok := c.prog.GlobalGraphs.Get(entity); ok {
		d, _ := c.table.Nodes.Get(entity)
		return nil, g, d.Ty, true
	}
	return nil, nil, "", false
}

// resolve classifies one connection port reference.
func (c *compiler) resolve(sc *scope, ref string) ([]endpoint, error) {
	entity, port, err := errors.SplitPortRef(ref)
	if err != nil {
		return nil, err
	}
	n, g, ty, ok := c.lookup(sc, entity)
	if !ok {
		return nil, errors.New(errors.ErrCodeEntityNotFound, "node[%s] is not found in graph[%s]", entity, sc.graph.Name)
	}
	if n != nil {
		n.Ports.Add(port)
		return []endpoint{{kind: endpointUnknown, id: n.ID}}, nil
	}

	kind := endpointRx
	b, ok := g.Input(port)
	if !ok {
		kind = endpointTx
		b, ok = g.Output(port)
	}
	if !ok {
		return nil, errors.New(errors.ErrCodePortNotFound, "port[%s] of node[%s] is not found in graph[%s]", port, entity, ty)
	}
	eps := make([]endpoint, len(b.IDs))
	for i, id := range b.IDs {
		eps[i] = endpoint{kind: kind, id: id}
	}
	return eps, nil
}

// boundaries resolves the declared inputs or outputs of a graph body down to
// primitive ids and port tags.
func (c *compiler) boundaries(sc *scope, groups *decl.Index[*decl.Group], input bool) ([]Boundary, error) {
	var out []Boundary
	for name, grp := range groups.All() {
		b := Boundary{Name: name}
		for _, ref := range grp.Ports {
			entity, port, err := errors.SplitPortRef(ref)
			if err != nil {
				return nil, err
			}
			n, g, ty, ok := c.lookup(sc, entity)
			if !ok {
				return nil, errors.New(errors.ErrCodeEntityNotFound, "node[%s] is not found in graph[%s]", entity, sc.graph.Name)
			}
			if n != nil {
				n.Ports.Add(port)
				b.IDs = append(b.IDs, n.ID)
				b.Tags = append(b.Tags, port)
				continue
			}
			inner, ok := g.Output(port)
			if input {
				inner, ok = g.Input(port)
			}
			if !ok {
				return nil, errors.New(errors.ErrCodePortNotFound, "port[%s] of node[%s] is not found in graph[%s]", port, entity, ty)
			}
			b.IDs = append(b.IDs, inner.IDs...)
			b.Tags = append(b.Tags, inner.Tags...)
		}
		out = append(out, b)
	}
	return out, nil
}

// exposeBoundaries allocates one pseudo-node per entry graph boundary and
// returns the edges wiring it to the resolved endpoints.
func (c *compiler) exposeBoundaries(main *Graph) []graph.Edge {
	var edges []graph.Edge
	for _, b := range main.Inputs {
		p := c.pseudo(b.Name)
		for _, id := range b.IDs {
			edges = append(edges, graph.Edge{From: p.ID, To: id, Arrows: graph.ArrowTo})
		}
	}
	for _, b := range main.Outputs {
		p := c.pseudo(b.Name)
		for _, id := range b.IDs {
			edges = append(edges, graph.Edge{From: id, To: p.ID, Arrows: graph.ArrowTo})
		}
	}
	return edges
}

func (c *compiler) pseudo(name string) *Node {
	n := &Node{ID: c.ids.Next(), Label: name, Kind: KindBoundary}
	c.prog.Boundaries = append(c.prog.Boundaries, n)
	return n
}

func (c *compiler) assemble(pseudoEdges []graph.Edge) graph.Graph {
	p := c.prog
	var nodes []*Node
	nodes = append(nodes, p.Main.Nodes...)
	nodes = append(nodes, p.Boundaries...)
	for _, n := range p.Globals.All() {
		nodes = append(nodes, n)
	}
	for _, g := range p.GlobalGraphs.All() {
		nodes = append(nodes, g.Nodes...)
	}

	vis := graph.Graph{
		Nodes: make([]graph.Node, len(nodes)),
	}
	for i, n := range nodes {
		vis.Nodes[i] = n.Vis()
	}
	vis.Edges = append(vis.Edges, p.Main.Edges...)
	vis.Edges = append(vis.Edges, pseudoEdges...)
	for _, g := range p.GlobalGraphs.All() {
		vis.Edges = append(vis.Edges, g.Edges...)
	}
	return vis
}
