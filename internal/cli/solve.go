package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/matzehuels/circuitry/pkg/pipeline"
	"github.com/matzehuels/circuitry/pkg/report"
)

// solveOpts holds the command-line flags for the solve command.
type solveOpts struct {
	part    int
	format  string
	noCache bool
	refresh bool
}

// solveCommand creates the solve command, which prints both puzzle answers.
func (c *CLI) solveCommand() *cobra.Command {
	var opts solveOpts

	cmd := &cobra.Command{
		Use:   "solve <file>",
		Short: "Print the circuit product and the final connection for a point list",
		Long: `Solve connects the points of <file> closest pair first.

Part 1 spends the connection budget and multiplies the sizes of the three
largest circuits. Part 2 keeps connecting until all points share one circuit
and combines the chosen coordinate of the last pair joined.`,
		Example: `  circuitry solve input.txt
  circuitry solve testdata/example.txt -n 10
  circuitry solve input.txt --part 2 --axis y --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidatePart(opts.part); err != nil {
				return err
			}
			if err := report.ValidateFormat(opts.format); err != nil {
				return err
			}
			cfg, err := c.config(cmd, solveFlagNames...)
			if err != nil {
				return err
			}
			return c.runSolve(cmd.Context(), cmd.OutOrStdout(), args[0], cfg, opts)
		},
	}

	addSolveFlags(cmd)
	cmd.Flags().String("axis", string(pipeline.DefaultAxis), "coordinate combined in part 2: x (default), y, z")
	cmd.Flags().IntVar(&opts.part, "part", pipeline.PartAll, "run only part 1 or part 2 (0 runs both)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", report.FormatText, "output format: text (default), json, toml")
	addCacheFlags(cmd, &opts.noCache, &opts.refresh)

	return cmd
}

// runSolve executes the pipeline and writes the result. Text output is
// styled for the terminal; json and toml go to w unstyled.
func (c *CLI) runSolve(ctx context.Context, w io.Writer, input string, cfg Config, opts solveOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	runner := c.newRunner(ctx, cfg, opts.noCache)
	defer runner.Close()

	popts := cfg.pipelineOptions(input)
	popts.Part = opts.part
	popts.Refresh = opts.refresh
	popts.Logger = logger

	result, err := runner.Execute(ctx, popts)
	if err != nil {
		return err
	}
	prog.done("Solved " + input)

	if opts.format != report.FormatText {
		return report.Write(w, result, opts.format)
	}
	printResult(result)
	return nil
}
