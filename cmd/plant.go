package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexiusacademia/gosxcu/internal/diagram"
	"github.com/alexiusacademia/gosxcu/internal/engine"
)

var (
	plantStreams streamFlags

	// Plant measurements
	plantML             float64
	plantRaffinate      float64
	plantStrippedTarget float64

	// Initial guesses
	plantGuessVV    float64
	plantGuessSR    float64
	plantGuessMef1e float64
	plantGuessMef2e float64

	plantShowDiagram bool
)

var plantCmd = &cobra.Command{
	Use:   "plant",
	Short: "Back-calculate circuit settings from plant measurements",
	Long: `Metallurgist mode: find the extractant strength (v/v%), saturation ratio
and extraction mixer efficiencies E1 and E2 that best reproduce the
measured maximum loading, raffinate copper and stripped organic copper.

The residuals are combined as a weighted sum of absolute errors; the
weights come from the weights.* configuration keys (all 1 by default).

Bounds:
  v/v%               5 - 30
  saturation ratio  70 - 100 %
  E1, E2 efficiency 70 - 100 %

Examples:
  gosxcu plant --ml 4.386 --raffinate 0.28 --stripped 1.8
  gosxcu plant -p plant-survey.yaml --json`,
	RunE: runPlant,
}

func init() {
	rootCmd.AddCommand(plantCmd)

	plantStreams.register(plantCmd.Flags())

	plantCmd.Flags().Float64Var(&plantML, "ml", 4.386, "Maximum loading measured in the plant lab (g/L)")
	plantCmd.Flags().Float64Var(&plantRaffinate, "raffinate", 0.28, "Measured raffinate copper (g/L)")
	plantCmd.Flags().Float64Var(&plantStrippedTarget, "stripped", 1.8, "Measured stripped organic copper (g/L)")

	plantCmd.Flags().Float64Var(&plantGuessVV, "guess-vv", 8, "Initial v/v% guess")
	plantCmd.Flags().Float64Var(&plantGuessSR, "guess-sr", 90, "Initial saturation ratio guess (%)")
	plantCmd.Flags().Float64Var(&plantGuessMef1e, "guess-mef1e", 90, "Initial E1 efficiency guess (%)")
	plantCmd.Flags().Float64Var(&plantGuessMef2e, "guess-mef2e", 95, "Initial E2 efficiency guess (%)")

	plantCmd.Flags().BoolVar(&plantShowDiagram, "diagram", false, "Show ASCII circuit diagram")
}

func runPlant(cmd *cobra.Command, args []string) error {
	params, err := plantStreams.mapping(map[string]float64{
		"ML_plant":                   plantML,
		"raffinate_Cu_target":        plantRaffinate,
		"stripped_organic_Cu_target": plantStrippedTarget,
		"initial_guess_vv":           plantGuessVV,
		"initial_guess_sr":           plantGuessSR,
		"initial_guess_mef1e":        plantGuessMef1e,
		"initial_guess_mef2e":        plantGuessMef2e,
	})
	if err != nil {
		return err
	}
	var p engine.MetallurgistParams
	if _, err := engine.Decode(params, &p); err != nil {
		return err
	}

	e, err := newEngine()
	if err != nil {
		return err
	}
	sol, err := e.SolveMetallurgist(cmd.Context(), p)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(sol.Map())
	}

	printHeader("METALLURGIST MODE - " + e.Topology().Name)

	printSection("PLANT MEASUREMENTS")
	w := newTable()
	fmt.Fprintf(w, "  Maximum loading (lab):\t%.3f g/L\n", p.MLPlant)
	fmt.Fprintf(w, "  Raffinate copper:\t%.3f g/L\n", p.RaffinateTarget)
	fmt.Fprintf(w, "  Stripped organic copper:\t%.3f g/L\n", p.StrippedTarget)
	w.Flush()
	fmt.Println()

	printSolverStatus(sol)

	printSection("BACK-CALCULATED SETTINGS")
	status := "CONVERGED"
	if !sol.Converged {
		status = "BEST POINT FOUND (NOT CONVERGED)"
	}
	fmt.Print(diagram.DrawSummaryBox(status, []string{
		fmt.Sprintf("Extractant strength = %.3f v/v%%", sol.VV),
		fmt.Sprintf("Saturation ratio    = %.2f %%", sol.SaturationRatio),
		fmt.Sprintf("Mixer efficiency E1 = %.2f %%", sol.MixerE1),
		fmt.Sprintf("Mixer efficiency E2 = %.2f %%", sol.MixerE2),
	}))
	fmt.Println()

	if r := sol.Residuals; r != nil {
		printSection("RESIDUALS")
		w = newTable()
		fmt.Fprintf(w, "  Maximum loading:\t%+.4f g/L\n", r.MaxLoading)
		fmt.Fprintf(w, "  Raffinate copper:\t%+.4f g/L\n", r.Raffinate)
		fmt.Fprintf(w, "  Stripped organic:\t%+.4f g/L\n", r.StrippedOrganic)
		w.Flush()
		fmt.Println()
	}

	if sol.Sheet == nil {
		fmt.Println("  No physical profile at the final point.")
		return nil
	}
	printSheet(sol.Sheet)
	printStages(sol.Profile)
	if plantShowDiagram {
		fmt.Println(diagram.DrawFlowsheet(sol.Profile))
	}
	return nil
}
