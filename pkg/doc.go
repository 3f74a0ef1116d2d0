// Package pkg provides the core libraries of flowscope, a debugger for
// declarative dataflow pipelines.
//
// # Overview
//
// A pipeline document declares named graphs of nodes, connected port to port.
// A node whose type names another graph is a subgraph instance. flowscope
// flattens the document into one visualization graph and maps runtime
// throughput samples back onto it.
//
// # Architecture
//
// The typical data flow through flowscope:
//
//	Pipeline document (TOML or JSON)
//	         ↓
//	    [decl] package (parse + normalize into lookup tables)
//	         ↓
//	    [compiler] package (expand instances, wire ports, assemble globals)
//	         ↓
//	    [graph] package (flat node-link graph)
//	         ↓
//	    [render/nodelink] package (DOT → SVG/PDF/PNG)
//
// At runtime the [debugger] client streams QPS samples, which [telemetry]
// resolves against the compiled program and [session] applies to the
// current graph.
//
// # Quick Start
//
// Compile a document and resolve a sample:
//
//	doc, _ := decl.Parse(data, "toml")
//	prog, err := compiler.Compile(decl.Normalize(doc), compiler.NewAllocator())
//	if err != nil {
//	    return err // an [errors.Error] naming the missing node, port or graph
//	}
//	frame := telemetry.SplitBatch(ctx, prog, batch)
//
// # Main Packages
//
// [decl] - Document model, TOML and JSON decoding, and the normalized
// graph/node/global tables.
//
// [compiler] - The recursive graph compiler and top-level assembler. It
// produces a [compiler.Program]: the visualization graph plus the per-graph
// compilation records used to locate nodes later.
//
// [graph] - Serialization types of the visualization graph.
//
// [telemetry] - The node locator and telemetry splitter, plus Redis fan-out
// of split frames.
//
// [debugger] - Websocket client for the runtime's debugging endpoint.
//
// [session] - The currently debugged program and its highlighted nodes.
//
// [pipeline] - Check and render orchestration shared by the CLI and the API.
//
// [api] - HTTP API used by the graph viewer.
//
// [cache] - File-backed render cache and retry helpers.
//
// [errors] - Error codes shared across packages.
//
// [observability] - Hook interfaces for logging and metrics integrations.
//
// # Testing
//
//	go test ./pkg/...          # All tests
//	go test ./pkg/compiler/... # Specific package
//	go test -run Example       # Examples only
//
// [decl]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/decl
// [compiler]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/compiler
// [compiler.Program]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/compiler#Program
// [graph]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/graph
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/render/nodelink
// [telemetry]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/telemetry
// [debugger]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/debugger
// [session]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/session
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/pipeline
// [api]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/api
// [cache]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/errors
// [errors.Error]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/errors#Error
// [observability]: https://pkg.go.dev/github.com/matzehuels/flowscope/pkg/observability
package pkg
