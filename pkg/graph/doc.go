// Package graph provides the serialization types for the flattened
// visualization graph.
//
// This package defines the wire format handed to renderers (the node-link
// front end, the DOT/SVG renderer, the HTTP API). It sits at the boundary
// between the compiler's internal symbol table and external consumers:
//
//   - [Graph]: Node-link format with integer ids
//   - [Node], [Edge], [Font]: Structural types
//
// # Graph Serialization
//
// Graphs use a node-link JSON format. Junction nodes carry a null label and
// the "dot" shape; boundary pseudo-nodes carry a light font:
//
//	{
//	  "nodes": [
//	    {"id": 1, "label": "A", "color": "#fff", "title": "main", "ports": ["out"]},
//	    {"id": 2, "label": null, "color": "#000", "shape": "dot", "size": 1}
//	  ],
//	  "edges": [{"from": 1, "to": 2, "arrows": ""}]
//	}
//
// Common operations:
//
//	g, _ := graph.ReadGraphFile("graph.json")    // File → Graph
//	graph.WriteGraphFile(g, "output.json")       // Graph → File
//	data, _ := graph.MarshalGraph(g)             // Graph → []byte
//	parsed, _ := graph.UnmarshalGraph(data)      // []byte → Graph
//
// # Block Highlighting
//
// During a debugging session telemetry flags nodes as blocking.
// [Graph.SetBlocked] recolors a graph in place; use [Graph.Clone] first when
// the compiled graph must stay untouched.
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
