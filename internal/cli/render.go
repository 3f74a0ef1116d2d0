package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/graph"
	"github.com/matzehuels/flowscope/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string   // output file path (or base path for multiple outputs)
	formats  []string // output formats: "svg", "png", "pdf", "json", "dot"
	layout   string   // graphviz layout engine
	scale    float64  // png scale factor
	detailed bool     // show ids, graphs and ports on primitive nodes
	blocked  []int    // node ids to highlight
	docFmt   string   // document format override
	noCache  bool     // bypass the render cache
	fromJSON bool     // input is a graph written by check -o
}

// renderCommand creates the render command for generating graph artifacts.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr, blockedStr string
	opts := renderOpts{
		layout: pipeline.DefaultLayout,
		scale:  pipeline.DefaultScale,
	}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a compiled pipeline graph",
		Long: `Compile a pipeline document and render the flattened graph.

Formats are svg (default), png, pdf, json and dot. With several formats,
--output is used as the base path and each file gets its own extension.

With --from-graph the input is a graph JSON file saved by "check -o" and is
rendered without compiling.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			ids, err := parseIDs(blockedStr)
			if err != nil {
				return err
			}
			opts.blocked = ids
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, pdf, json, dot (comma-separated)")
	cmd.Flags().StringVar(&opts.layout, "layout", opts.layout, "layout engine: dot, neato, fdp")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "png scale factor")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show node ids, graphs and ports")
	cmd.Flags().StringVar(&blockedStr, "blocked", "", "highlight node ids (comma-separated)")
	cmd.Flags().StringVar(&opts.docFmt, "doc-format", "", "document format: toml, json (default: from extension)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "bypass the render cache")
	cmd.Flags().BoolVar(&opts.fromJSON, "from-graph", false, "input is a saved graph JSON file")

	return cmd
}

// basePath derives the base output path from the output and input file paths.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	// Strip known format extensions from output path
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPath returns the file a format is written to. A single format with
// an explicit output uses it verbatim.
func outputPath(output, input, format string, single bool) string {
	if single && output != "" {
		return output
	}
	return basePath(output, input) + "." + format
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(opts.noCache, nil)
	if err != nil {
		return err
	}
	defer runner.Close()

	g, err := loadGraph(ctx, runner, input, opts)
	if err != nil {
		return err
	}

	for _, id := range opts.blocked {
		if _, ok := g.Node(id); !ok {
			printWarning("node %d is not in the graph", id)
		}
	}

	spinner := newSpinnerWithContext(ctx, "Rendering...")
	spinner.Start()
	artifacts, cached, err := runner.RenderWithCacheInfo(ctx, g, pipeline.RenderOptions{
		Formats:  opts.formats,
		Layout:   opts.layout,
		Scale:    opts.scale,
		Detailed: opts.detailed,
		Blocked:  opts.blocked,
	})
	spinner.Stop()
	if err != nil {
		return err
	}

	printStats(g.NodeCount(), g.EdgeCount(), cached)

	single := len(opts.formats) == 1
	for _, format := range opts.formats {
		path := outputPath(opts.output, input, format, single)
		if err := os.WriteFile(path, artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		logger.Debug("wrote artifact", "format", format, "path", path, "bytes", len(artifacts[format]))
		printFile(path)
	}
	return nil
}

// loadGraph compiles the input document, or reads a saved graph.
func loadGraph(ctx context.Context, runner *pipeline.Runner, input string, opts renderOpts) (graph.Graph, error) {
	if opts.fromJSON {
		g, err := graph.ReadGraphFile(input)
		if err != nil {
			printError("Invalid graph file: %s", input)
			printDetail("%v", err)
			return graph.Graph{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read graph %s", input)
		}
		return g, nil
	}
	res, err := runner.Check(ctx, pipeline.CheckOptions{Source: input, Format: opts.docFmt})
	if err != nil {
		printCheckError(input, err)
		return graph.Graph{}, fmt.Errorf("check %s: %w", input, err)
	}
	return res.Program.Graph, nil
}
