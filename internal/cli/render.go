package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	cerrors "github.com/matzehuels/circuitry/pkg/errors"
	"github.com/matzehuels/circuitry/pkg/pipeline"
	"github.com/matzehuels/circuitry/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output      string   // output file (single format) or base path (multiple); "-" for stdout
	formats     []string // output formats: "svg", "png", "dot"
	detailed    bool     // label nodes with coordinates
	showSkipped bool     // draw pairs that were considered but already connected
	pinned      bool     // pin nodes to their x,y coordinates instead of running the layout
	noCache     bool
	refresh     bool
}

// renderCommand creates the render command, which draws the circuits left
// after the part one budget.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Draw the circuits after a connection budget with Graphviz",
		Long: `Render spends the connection budget and draws every point as a node and
every accepted connection as an edge. Nodes are coloured by circuit; isolated
points stay grey.`,
		Example: `  circuitry render testdata/example.txt -n 10
  circuitry render input.txt -f svg,png -o circuits --layout sfdp
  circuitry render input.txt -f dot -o - | dot -Tpdf > circuits.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			if opts.output == "-" && len(opts.formats) > 1 {
				return cerrors.New(cerrors.ErrCodeInvalidInput, "--output - needs exactly one format, got %d", len(opts.formats))
			}
			cfg, err := c.config(cmd, solveFlagNames...)
			if err != nil {
				return err
			}
			return c.runRender(cmd.Context(), cmd.OutOrStdout(), args[0], cfg, &opts)
		},
	}

	addSolveFlags(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple); - for stdout")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot (comma-separated)")
	cmd.Flags().String("layout", pipeline.DefaultLayout, "graphviz layout: neato (default), fdp, sfdp, circo, dot")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label nodes with their coordinates")
	cmd.Flags().BoolVar(&opts.showSkipped, "show-skipped", false, "draw considered pairs that were already connected")
	cmd.Flags().BoolVar(&opts.pinned, "pinned", false, "place nodes at their x,y coordinates")
	addCacheFlags(cmd, &opts.noCache, &opts.refresh)

	return cmd
}

// runRender loads input, renders every requested format and writes the
// artifacts next to the input unless an output path is given.
func (c *CLI) runRender(ctx context.Context, stdout io.Writer, input string, cfg Config, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	runner := c.newRunner(ctx, cfg, opts.noCache)
	defer runner.Close()

	popts := cfg.pipelineOptions(input)
	popts.Formats = opts.formats
	popts.Detailed = opts.detailed
	popts.ShowSkipped = opts.showSkipped
	popts.Pinned = opts.pinned
	popts.Refresh = opts.refresh
	popts.Logger = logger

	s, err := runner.Load(ctx, popts)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, "Rendering "+strings.Join(opts.formats, ", "))
	spinner.Start()
	artifacts, cached, err := runner.RenderWithCacheInfo(ctx, s, popts)
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.done("Rendered " + input)

	if opts.output == "-" {
		_, err := stdout.Write(artifacts[opts.formats[0]])
		return err
	}

	paths := outputPaths(opts.output, input, opts.formats)
	for _, format := range opts.formats {
		if err := writeOutput(paths[format], artifacts[format]); err != nil {
			return err
		}
	}

	printSuccess("Rendered %d %s", len(opts.formats), plural(len(opts.formats), "file", "files"))
	for _, format := range opts.formats {
		printFile(paths[format])
	}
	fmt.Println(statsLine(s.Len(), 0, cached))
	if !slices.Contains(opts.formats, render.FormatDOT) {
		printNextStep("Graphviz source", fmt.Sprintf("%s render %s -f dot -o -", appName, input))
	}
	return nil
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .png, .dot), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if render.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPaths maps each format to its output file. A single format with an
// explicit output path is written exactly there.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, format := range formats {
		paths[format] = base + "." + format
	}
	return paths
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return cerrors.Wrap(cerrors.ErrCodeInvalidPath, err, "create %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return cerrors.Wrap(cerrors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
