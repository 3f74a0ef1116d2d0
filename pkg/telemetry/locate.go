package telemetry

import (
	"github.com/matzehuels/flowscope/pkg/compiler"
	"github.com/matzehuels/flowscope/pkg/decl"
)

// Locate returns the declaration whose compiled primitive node has the
// given id.
//
// The search order is the declarations of the named graph type, then the
// global declarations, then every other graph type. Only primitive nodes
// carry ids; a subgraph instance declaration never matches.
func Locate(prog *compiler.Program, graphName string, id int) (*decl.Node, bool) {
	if prog == nil || prog.Table == nil {
		return nil, false
	}
	t := prog.Table

	if g, ok := t.Graph(graphName); ok {
		if d, ok := carrier(prog, g.Nodes, id); ok {
			return d, true
		}
	}
	if d, ok := carrier(prog, t.Nodes, id); ok {
		return d, true
	}
	for name, g := range t.Graphs.All() {
		if name == graphName {
			continue
		}
		if d, ok := carrier(prog, g.Nodes, id); ok {
			return d, true
		}
	}
	return nil, false
}

func carrier(prog *compiler.Program, decls *decl.Index[*decl.Node], id int) (*decl.Node, bool) {
	for _, d := range decls.All() {
		if prog.Carries(d, id) {
			return d, true
		}
	}
	return nil, false
}
