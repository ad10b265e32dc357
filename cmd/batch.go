package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alexiusacademia/gosxcu/internal/batch"
)

var batchParallel int

var batchCmd = &cobra.Command{
	Use:   "batch <cases-file>",
	Short: "Solve many cases concurrently",
	Long: `Solve every case in a yaml or json file on one engine, several at a time.
A failing case is reported in its row and does not stop the others.

File layout:
  cases:
    - id: reference        # optional, a UUID is assigned when missing
      mode: designer
      parameters:
        PLS_Cu: 2.5
        ...

Examples:
  gosxcu batch cases.yaml
  gosxcu batch cases.json --parallel 2 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().IntVarP(&batchParallel, "parallel", "j", runtime.NumCPU(), "Cases solved at the same time")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cases, err := batch.Load(args[0])
	if err != nil {
		return err
	}
	e, err := newEngine()
	if err != nil {
		return err
	}

	logger.Info("batch started", zap.Int("cases", len(cases)), zap.Int("parallel", batchParallel))
	outcomes, err := batch.Run(cmd.Context(), e, cases, batchParallel)
	if err != nil {
		return err
	}
	sum := batch.Summarize(outcomes)
	logger.Info("batch finished",
		zap.Int("converged", sum.Converged),
		zap.Int("not_converged", sum.NotConverged),
		zap.Int("failed", sum.Failed))

	if jsonOutput {
		return printJSON(outcomes)
	}

	printHeader(fmt.Sprintf("BATCH - %d CASES", sum.Total))
	w := newTable()
	fmt.Fprintf(w, "  Case\tMode\tv/v%%\tObjective\tStatus\n")
	fmt.Fprintf(w, "  ────\t────\t────\t─────────\t──────\n")
	for _, o := range outcomes {
		if o.Failed() {
			fmt.Fprintf(w, "  %s\t%s\t-\t-\terror: %s\n", o.ID, o.Mode, o.Error)
			continue
		}
		fmt.Fprintf(w, "  %s\t%s\t%.4f\t%.3e\t%v\n", o.ID, o.Mode, o.Result["v_v_percent"], o.Result["objective_value"], o.Result["message"])
	}
	w.Flush()
	fmt.Println()
	fmt.Printf("  converged %d, not converged %d, failed %d\n\n", sum.Converged, sum.NotConverged, sum.Failed)
	return nil
}
