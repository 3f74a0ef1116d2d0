// Package compiler flattens a normalized pipeline declaration into a
// visualization graph and the symbol table used to correlate telemetry.
//
// # Overview
//
// A declaration is hierarchical: graphs contain primitive nodes and instances
// of other graphs, and connections may wire any number of ports together.
// [Compile] turns a [decl.Table] into a [Program]:
//
//	doc, _ := decl.ParseFile("flow.toml")
//	prog, err := compiler.Compile(decl.Normalize(doc), compiler.NewAllocator())
//	if err != nil {
//	    // ENTITY_NOT_FOUND, PORT_NOT_FOUND, CYCLIC_GRAPH or UNKNOWN_GRAPH
//	}
//	vis := prog.Graph // flat graph.Graph for renderers
//
// # Flattening
//
// Every subgraph instance is compiled afresh, so two instances of the same
// graph type get independent ids. A compiled [Graph] owns its primitives and
// junctions plus the concatenated nodes and edges of every instance it
// contains. Boundary inputs and outputs are resolved transitively down to
// primitive node ids and port tags; a [Boundary] never points at a subgraph.
//
// # Identifiers
//
// A single [Allocator] is threaded through the whole compilation. Each
// primitive node, junction and entry boundary pseudo-node draws exactly one
// id, starting at 1, in declaration order. Compiling the same document with a
// fresh allocator always yields the same ids.
//
// # Connections
//
// Each endpoint of a connection is classified as unknown (a primitive node
// port, direction not implied), rx (an input boundary of a subgraph instance)
// or tx (an output boundary of a subgraph instance). Two endpoints become a
// single edge, directed when either side has a known direction. More
// endpoints, or two endpoints that cannot be oriented, meet at a junction
// node.
//
// # Errors
//
// Resolution failures abort the compilation; no partial program is returned.
// Errors carry the codes of package errors and never a source position.
package compiler
