// Package render converts rendered diagrams between output formats.
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg). The node-link renderer uses
// them for its PDF and PNG output.
//
//	svg, err := nodelink.RenderSVG(dot)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// # Node-Link Diagrams
//
// The [nodelink] subpackage draws the compiled visualization graph as a
// Graphviz diagram: primitive nodes as boxes, junctions as dots and entry
// boundaries as black pseudo-nodes.
//
// [nodelink]: github.com/matzehuels/flowscope/pkg/render/nodelink
package render
