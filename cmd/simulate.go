package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexiusacademia/gosxcu/internal/diagram"
	"github.com/alexiusacademia/gosxcu/internal/engine"
)

var (
	simStreams streamFlags

	simVV    float64
	simSR    float64
	simMef1e float64
	simMef2e float64

	simShowDiagram bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Evaluate the circuit once at fixed settings",
	Long: `Compute the full plant sheet at a given extractant strength, saturation
ratio and mixer efficiencies without solving for anything: organic
loadings, raffinate, recoveries, net transfer, flows and the remaining
balance closure.

Examples:
  gosxcu simulate --vv 8.66
  gosxcu simulate --vv 12 --sr 90 --mef1e 88 --diagram`,
	RunE: runSimulate,
}

func init() {
	rootCmd.AddCommand(simulateCmd)

	simStreams.register(simulateCmd.Flags())

	simulateCmd.Flags().Float64Var(&simVV, "vv", 10, "Extractant strength (v/v%)")
	simulateCmd.Flags().Float64Var(&simSR, "sr", 92, "Saturation ratio of loaded organic to AML (%)")
	simulateCmd.Flags().Float64Var(&simMef1e, "mef1e", 92, "Mixer efficiency E1 (%)")
	simulateCmd.Flags().Float64Var(&simMef2e, "mef2e", 95, "Mixer efficiency E2 (%)")
	simulateCmd.Flags().BoolVar(&simShowDiagram, "diagram", false, "Show ASCII circuit diagram")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	params, err := simStreams.mapping(map[string]float64{
		"v_v_percent": simVV,
		"SR":          simSR,
		"Mef1e":       simMef1e,
		"Mef2e":       simMef2e,
	})
	if err != nil {
		return err
	}
	var p engine.SimulationParams
	if _, err := engine.Decode(params, &p); err != nil {
		return err
	}

	e, err := newEngine()
	if err != nil {
		return err
	}
	sheet, prof, err := e.Simulate(cmd.Context(), p)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(sheet.Map())
	}

	printHeader("CIRCUIT SIMULATION - " + e.Topology().Name)
	printSheet(sheet)
	printStages(prof)
	if simShowDiagram {
		fmt.Println(diagram.DrawFlowsheet(prof))
	}
	return nil
}
