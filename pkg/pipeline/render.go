package pipeline

import (
	"fmt"

	"github.com/matzehuels/flowscope/pkg/graph"
	"github.com/matzehuels/flowscope/pkg/render/nodelink"
)

// Render generates output artifacts in the requested formats.
// The graph is highlighted with opts.Blocked first; g itself is not modified.
func Render(g graph.Graph, opts RenderOptions) (map[string][]byte, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	work := g
	if len(opts.Blocked) > 0 {
		work = g.Clone()
		work.SetBlocked(opts.Blocked)
	}

	dot := nodelink.ToDOT(work, nodelink.Options{Detailed: opts.Detailed, Layout: opts.Layout})
	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			data, err = graph.MarshalGraph(work)
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = nodelink.RenderSVG(dot)
		case FormatPNG:
			data, err = nodelink.RenderPNG(dot, opts.Scale)
		case FormatPDF:
			data, err = nodelink.RenderPDF(dot)
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}
