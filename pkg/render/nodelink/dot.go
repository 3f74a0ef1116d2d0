package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/flowscope/pkg/graph"
	"github.com/matzehuels/flowscope/pkg/render"
)

// Layout engines accepted in [Options].
const (
	LayoutDot   = "dot"
	LayoutNeato = "neato"
	LayoutFDP   = "fdp"
)

// ValidLayouts is the set of supported layout engines.
var ValidLayouts = map[string]bool{
	LayoutDot:   true,
	LayoutNeato: true,
	LayoutFDP:   true,
}

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the node id, owning graph and used ports to labels.
	// When false, only the declaration name is shown.
	Detailed bool

	// Layout names the Graphviz layout engine. Empty selects dot.
	Layout string
}

// ValidateLayout checks that a layout engine is supported.
func ValidateLayout(layout string) error {
	if layout != "" && !ValidLayouts[layout] {
		return fmt.Errorf("invalid layout: %q (must be one of: dot, neato, fdp)", layout)
	}
	return nil
}

// ToDOT converts a visualization graph to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
func ToDOT(g graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	if opts.Layout != "" && opts.Layout != LayoutDot {
		fmt.Fprintf(&buf, "  layout=%s;\n", opts.Layout)
	}
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		fmt.Fprintf(&buf, "  %d [%s];\n", n.ID, strings.Join(fmtAttrs(n, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		if e.Directed() {
			fmt.Fprintf(&buf, "  %d -> %d;\n", e.From, e.To)
		} else {
			fmt.Fprintf(&buf, "  %d -> %d [dir=none];\n", e.From, e.To)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n graph.Node, detailed bool) string {
	label := n.DisplayLabel()
	if !detailed || !n.IsPrimitive() {
		return label
	}

	parts := []string{fmt.Sprintf("id: %d", n.ID), "graph: " + n.Title}
	if len(n.Ports) > 0 {
		parts = append(parts, "ports: "+strings.Join(n.Ports, ", "))
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n graph.Node, detailed bool) []string {
	if n.IsJunction() {
		return []string{`label=""`, "shape=point", "width=0.12", fmt.Sprintf("fillcolor=%q", dotColor(n.Color))}
	}

	attrs := []string{
		fmt.Sprintf("label=%q", fmtLabel(n, detailed)),
		fmt.Sprintf("fillcolor=%q", dotColor(n.Color)),
	}
	if n.Font != nil {
		attrs = append(attrs, fmt.Sprintf("fontcolor=%q", dotColor(n.Font.Color)))
	}
	if n.IsPrimitive() {
		attrs = append(attrs, fmt.Sprintf("tooltip=%q", n.Title))
	} else {
		attrs = append(attrs, "style=filled")
	}
	return attrs
}

// dotColor expands CSS shorthand colors ("#fff") to the six-digit form
// Graphviz understands.
func dotColor(c string) string {
	if len(c) == 4 && c[0] == '#' {
		return "#" + strings.Repeat(c[1:2], 2) + strings.Repeat(c[2:3], 2) + strings.Repeat(c[3:4], 2)
	}
	if c == "" {
		return "white"
	}
	return c
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// This is a convenience wrapper around [RenderSVG] and [render.ToPDF].
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// This is a convenience wrapper around [RenderSVG] and [render.ToPNG].
//
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}
