// Package decl provides the pipeline declaration document and its normalized
// lookup tables.
//
// # Overview
//
// A pipeline is authored as a document (TOML by default, JSON accepted) that
// declares reusable node types, composite graphs and the connections wiring
// their ports together:
//
//	main = "pipeline"
//
//	[[graphs]]
//	name = "pipeline"
//	nodes = [
//	    { name = "src", ty = "VideoSource" },
//	    { name = "det", ty = "detect" },        # subgraph instance
//	]
//	inputs  = [{ name = "inp", ports = ["src:inp"] }]
//	outputs = [{ name = "out", ports = ["det:out"] }]
//	connections = [
//	    { cap = 16, ports = ["src:out", "det:inp"] },
//	]
//
// A node whose ty names another declared graph is a subgraph instance; any
// other ty is a primitive node kind the runtime knows about.
//
// # Parsing
//
// [Parse] and [ParseFile] decode a [Document]. Syntax errors are reported as
// [*SyntaxError] values that carry the line and column of the failure, which
// distinguishes them from compilation errors raised later by the compiler.
//
// # Normalization
//
// [Normalize] converts the list-based [Document] into a [Table]: every list
// becomes an insertion-ordered, name-keyed [Index]. Missing lists normalize to
// empty indexes and never produce an error. The declaration order is kept so
// that identifier allocation in the compiler is deterministic.
package decl
