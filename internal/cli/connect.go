package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/circuitry/pkg/pipeline"
	"github.com/matzehuels/circuitry/pkg/report"
)

// connectCommand creates the connect command, which shows every circuit
// size after a connection budget.
func (c *CLI) connectCommand() *cobra.Command {
	var (
		plain   bool
		limit   int
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "connect <file>",
		Short: "Show the circuit-size histogram after a connection budget",
		Example: `  circuitry connect testdata/example.txt -n 10
  circuitry connect input.txt -n 1000 --budget joins --plain`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.config(cmd, solveFlagNames...)
			if err != nil {
				return err
			}
			runner := c.newRunner(cmd.Context(), cfg, noCache)
			defer runner.Close()

			opts := cfg.pipelineOptions(args[0])
			opts.Part = pipeline.PartOne
			opts.Refresh = refresh
			opts.Logger = loggerFromContext(cmd.Context())
			return runConnect(cmd.Context(), runner, cmd.OutOrStdout(), opts, plain, limit)
		},
	}

	addSolveFlags(cmd)
	cmd.Flags().BoolVar(&plain, "plain", false, "print \"size count\" lines instead of a table")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum table rows (0 for all)")
	addCacheFlags(cmd, &noCache, &refresh)

	return cmd
}

// runConnect solves part one and writes its histogram to w.
func runConnect(ctx context.Context, runner *pipeline.Runner, w io.Writer, opts pipeline.Options, plain bool, limit int) error {
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		return err
	}
	p1 := result.PartOne

	if plain {
		_, err := io.WriteString(w, report.Histogram(p1.Sizes))
		return err
	}

	fmt.Fprintln(w, StyleTitle.Render(fmt.Sprintf("%d circuits after %d %s", len(p1.Sizes), p1.Connections, p1.Budget)))
	fmt.Fprintln(w, sizesTable(p1.Sizes, limit))
	printKeyValue("joins", strconv.Itoa(p1.Joins))
	printKeyValue("considered", strconv.Itoa(p1.Considered))
	printKeyValue("product", StyleNumber.Render(strconv.Itoa(p1.Product)))
	fmt.Println(statsLine(result.Stats.Points, result.Stats.Pairs, result.CacheInfo.ResultHit))
	return nil
}
