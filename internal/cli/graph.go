package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/shipyard/pkg/catalog"
	"github.com/matzehuels/shipyard/pkg/errors"
	"github.com/matzehuels/shipyard/pkg/render/nodelink"
)

// Graph output formats.
const (
	formatDOT = "dot"
	formatSVG = "svg"
)

var graphFormats = []string{formatDOT, formatSVG}

// graphOptions holds the graph flags.
type graphOptions struct {
	data     string
	qty      string
	format   string
	output   string
	detailed bool
}

// graphCommand creates the graph command.
func (c *CLI) graphCommand() *cobra.Command {
	var opts graphOptions

	cmd := &cobra.Command{
		Use:   "graph <name|id>",
		Short: "Render a build tree as DOT or SVG",
		Long: `Graph draws the build plan of a type as a node-link diagram. Each type is one
node; edges carry the quantity consumed. Raw materials are drawn dashed.

Without --output, DOT is printed to stdout and SVG is written to <name>.svg.`,
		Example: `  shipyard graph Rifter | dot -Tpng > rifter.png
  shipyard graph Rifter --qty 5 --format svg -o rifter.svg`,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completeTypeNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.data, "data", "d", "", "extract directory (default from config: data)")
	cmd.Flags().StringVarP(&opts.qty, "qty", "q", "1", "quantity to build")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatDOT, "output format: dot or svg")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show runs and surplus on nodes")

	return cmd
}

func (c *CLI) runGraph(ctx context.Context, target string, opts graphOptions) error {
	if !slices.Contains(graphFormats, opts.format) {
		return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (want dot or svg)", opts.format)
	}

	e, err := c.loadExport(opts.data)
	if err != nil {
		return err
	}
	cat := catalog.New(e)

	p, err := buildPlan(cat, target, opts.qty)
	if err != nil {
		return err
	}

	dot := nodelink.ToDOT(p, cat, nodelink.Options{Detailed: opts.detailed})
	if opts.format == formatDOT && opts.output == "" {
		_, err := fmt.Fprint(stdout, dot)
		return err
	}

	data := []byte(dot)
	if opts.format == formatSVG {
		prog := newProgress(loggerFromContext(ctx))
		if data, err = nodelink.RenderSVG(ctx, dot); err != nil {
			return err
		}
		prog.done("Rendered SVG")
	}

	path := opts.output
	if path == "" {
		path = graphFileName(cat.Name(p.Product), opts.format)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	printSuccess("Rendered %s", StyleHighlight.Render(cat.Name(p.Product)))
	printFile(path)
	return nil
}

// graphFileName derives a file name from a type name.
func graphFileName(name, format string) string {
	if err := errors.ValidateFilename(name); err != nil {
		name = "graph"
	}
	return filepath.Clean(name + "." + format)
}
