package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowscope/pkg/graph"
	"github.com/matzehuels/flowscope/pkg/pipeline"
)

// checkOpts holds the command-line flags for the check command.
type checkOpts struct {
	format string // document format override: "toml" or "json"
	output string // write the compiled graph as JSON here ("-" for stdout)
	quiet  bool   // only report errors
}

// checkCommand creates the check command, which compiles a document.
func (c *CLI) checkCommand() *cobra.Command {
	var opts checkOpts

	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Compile a pipeline document and report errors",
		Long: `Compile a pipeline document and report the first error found.

On success a summary of the compiled graph is printed. With --output the
flattened visualization graph is written as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCheck(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.format, "format", "", "document format: toml, json (default: from extension)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the compiled graph as JSON (\"-\" for stdout)")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "only report errors")

	return cmd
}

func (c *CLI) runCheck(ctx context.Context, path string, opts checkOpts) error {
	logger := loggerFromContext(ctx)
	runner := pipeline.NewRunner(nil, nil, logger)

	prog := newProgress(logger)
	res, err := runner.Check(ctx, pipeline.CheckOptions{Source: path, Format: opts.format})
	if err != nil {
		printCheckError(path, err)
		return fmt.Errorf("check %s: %w", path, err)
	}

	switch opts.output {
	case "":
	case "-":
		if err := graph.WriteGraph(res.Program.Graph, os.Stdout); err != nil {
			return err
		}
	default:
		if err := graph.WriteGraphFile(res.Program.Graph, opts.output); err != nil {
			return err
		}
	}

	if opts.quiet || opts.output == "-" {
		return nil
	}
	prog.done(fmt.Sprintf("Compiled %s", path))
	printSuccess("%s is valid", StyleHighlight.Render(path))
	fmt.Println(summaryTable(res.Program))
	if opts.output != "" {
		printFile(opts.output)
	} else {
		printNextStep("Render it", appName+" render "+path)
	}
	return nil
}
