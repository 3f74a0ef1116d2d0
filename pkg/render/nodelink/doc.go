// Package nodelink renders compiled dataflow graphs as node-link diagrams.
//
// # Overview
//
// The visualization graph produced by the compiler is already laid out as
// nodes and edges with colors, so rendering is a direct translation to
// Graphviz DOT followed by an in-process Graphviz run.
//
// # Usage
//
// Convert a graph to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(prog.Graph, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(dot)
//
// For PDF or PNG output, use the render functions:
//
//	pdf, err := nodelink.RenderPDF(dot)
//	png, err := nodelink.RenderPNG(dot, 2.0)  // 2x scale
//
// Options.Layout selects the Graphviz engine (dot, neato or fdp); it is
// written into the DOT source as a graph attribute.
//
// # Styling
//
//   - Primitive nodes: rounded boxes filled with the node color; the owning
//     graph name is the tooltip
//   - Junctions: small filled points
//   - Boundary pseudo-nodes: black boxes with a white label
//   - Undirected fan edges (arrows "") are drawn without arrowheads
//
// Blocked nodes come out red because [graph.Graph.SetBlocked] recolors them
// before rendering.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
