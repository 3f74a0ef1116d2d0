package telemetry

import (
	"context"

	"github.com/matzehuels/flowscope/pkg/compiler"
	"github.com/matzehuels/flowscope/pkg/observability"
)

// Split resolves a sample against a compiled program.
//
// The name is looked up as a global node, then a global graph instance, then
// a declaration of the graph type graphName. A name found nowhere yields
// (nil, false); the caller skips the sample.
//
// A primitive node yields one port per reported port name. A subgraph
// instance expands every reported boundary name through the instance's
// inputs and then its outputs; the resulting ports are labelled with the
// declaration that carries the underlying primitive node.
func Split(prog *compiler.Program, graphName string, s Sample) (*Resolved, bool) {
	if prog == nil || prog.Table == nil {
		return nil, false
	}
	t := prog.Table

	if n, ok := prog.GlobalNode(s.Name); ok {
		return splitNode(n, s), true
	}
	if g, ok := prog.GlobalGraph(s.Name); ok {
		d, _ := t.Nodes.Get(s.Name)
		return splitInstance(prog, d.Ty, g, s), true
	}

	gd, ok := t.Graph(graphName)
	if !ok {
		return nil, false
	}
	d, ok := gd.Nodes.Get(s.Name)
	if !ok {
		return nil, false
	}
	l, ok := prog.Link(d)
	if !ok {
		return nil, false
	}
	if l.IsGraph() {
		return splitInstance(prog, d.Ty, l.Graph, s), true
	}
	return splitNode(l.Node, s), true
}

func splitNode(n *compiler.Node, s Sample) *Resolved {
	out := &Resolved{Name: s.Name, ID: n.ID, IsBlock: s.IsBlock, Ports: []Port{}}
	for _, port := range s.PortNames() {
		v := s.QPS[port]
		out.Ports = append(out.Ports, Port{
			ID:    PortKey(n.ID, port),
			Descp: s.Name + ":" + port,
			Data:  Data{Size: v[0], QPS: v[1]},
		})
	}
	return out
}

func splitInstance(prog *compiler.Program, ty string, g *compiler.Graph, s Sample) *Resolved {
	out := &Resolved{Name: s.Name, Instance: true, IsBlock: s.IsBlock, Ports: []Port{}}
	seen := make(map[int]bool)

	expand := func(b *compiler.Boundary, v [2]int) {
		for i, id := range b.IDs {
			if !seen[id] {
				seen[id] = true
				out.IDs = append(out.IDs, id)
			}
			tag := b.Tags[i]
			name := s.Name
			if d, ok := Locate(prog, ty, id); ok {
				name = d.Name
			}
			out.Ports = append(out.Ports, Port{
				ID:    PortKey(id, tag),
				Descp: name + ":" + tag,
				Data:  Data{Size: v[0], QPS: v[1]},
			})
		}
	}

	for _, port := range s.PortNames() {
		v := s.QPS[port]
		if b, ok := g.Input(port); ok {
			expand(b, v)
		}
		if b, ok := g.Output(port); ok {
			expand(b, v)
		}
	}
	return out
}

// SplitBatch resolves every sample of a batch against a compiled program.
// Unresolved samples are skipped and their names reported in the frame.
func SplitBatch(ctx context.Context, prog *compiler.Program, b Batch) Frame {
	graphName := b.Graph
	if graphName == "" && prog != nil && prog.Table != nil {
		graphName = prog.Table.Main
	}

	f := Frame{Graph: graphName, Ports: []Port{}, Blocked: []int{}}
	blocked := make(map[int]bool)
	for _, s := range b.Nodes {
		split, ok := Split(prog, graphName, s)
		if !ok {
			f.Skipped = append(f.Skipped, s.Name)
			continue
		}
		f.Ports = append(f.Ports, split.Ports...)
		for _, id := range split.BlockedIDs() {
			if !blocked[id] {
				blocked[id] = true
				f.Blocked = append(f.Blocked, id)
			}
		}
	}

	observability.Telemetry().OnBatch(ctx, graphName, len(b.Nodes), len(f.Ports), len(f.Skipped))
	return f
}
