package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alexiusacademia/gosxcu/internal/diagram"
	"github.com/alexiusacademia/gosxcu/internal/engine"
)

var (
	designStreams streamFlags

	// Design settings
	designSR     float64
	designMef1e  float64
	designMef2e  float64
	designGuess  float64
	designTarget float64

	// Diagram options
	designShowDiagram bool
	designExportFile  string
)

var designCmd = &cobra.Command{
	Use:   "design",
	Short: "Find the extractant strength that closes the circuit balance",
	Long: `Designer mode: find the extractant concentration (v/v%) at which the
stripped organic returned by stripping equals the barren organic that
extraction requires, for a loaded organic at SR% of the maximum loading
capacity.

The search is bounded to 5 - 30 v/v%.

Examples:
  # Reference plant
  gosxcu design

  # Leaner feed, higher saturation
  gosxcu design --pls-cu 1.8 --sr 95 --guess 8

  # Parameters from a file, with the circuit diagram
  gosxcu design -p case.yaml --diagram

  # Refuse to solve when the mixers cannot reach 99.8% extraction
  gosxcu design --target-recovery 99.8`,
	RunE: runDesign,
}

func init() {
	rootCmd.AddCommand(designCmd)

	designStreams.register(designCmd.Flags())

	designCmd.Flags().Float64Var(&designSR, "sr", 92, "Saturation ratio of loaded organic to AML (%)")
	designCmd.Flags().Float64Var(&designMef1e, "mef1e", 92, "Mixer efficiency E1 (%)")
	designCmd.Flags().Float64Var(&designMef2e, "mef2e", 95, "Mixer efficiency E2 (%)")
	designCmd.Flags().Float64VarP(&designGuess, "guess", "g", 10, "Initial v/v% guess")
	designCmd.Flags().Float64Var(&designTarget, "target-recovery", 0, "Required extraction recovery (%), 0 to skip the check")

	designCmd.Flags().BoolVar(&designShowDiagram, "diagram", false, "Show ASCII circuit diagram")
	designCmd.Flags().StringVarP(&designExportFile, "output", "o", "", "Export stage profile chart to file (png, svg, pdf)")
}

func runDesign(cmd *cobra.Command, args []string) error {
	params, err := designStreams.mapping(map[string]float64{
		"SR":               designSR,
		"Mef1e":            designMef1e,
		"Mef2e":            designMef2e,
		"initial_vv_guess": designGuess,
	})
	if err != nil {
		return err
	}
	var p engine.DesignerParams
	if _, err := engine.Decode(params, &p); err != nil {
		return err
	}
	if designTarget > 0 {
		limit, err := engine.CheckRecoveryTarget(designTarget, p.Mef1e, p.Mef2e)
		if err != nil {
			return err
		}
		logger.Debug("recovery target attainable",
			zap.Float64("target", designTarget), zap.Float64("limit", limit))
	}

	e, err := newEngine()
	if err != nil {
		return err
	}
	sol, err := e.SolveDesigner(cmd.Context(), p)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(sol.Map())
	}

	printHeader("DESIGNER MODE - " + e.Topology().Name)

	printSection("INPUT DATA")
	w := newTable()
	fmt.Fprintf(w, "  PLS:\t%.1f m³/h, %.3f g/L Cu, %.2f g/L acid\n", p.PLSFlow, p.PLSCu, p.PLSAc)
	fmt.Fprintf(w, "  Electrolyte:\t%.1f → %.1f g/L Cu, %.0f g/L acid\n", p.SPCu, p.ADCu, p.SPAc)
	fmt.Fprintf(w, "  O/A extraction:\t%.2f\n", p.OAExt)
	fmt.Fprintf(w, "  Saturation ratio:\t%.1f %%\n", p.SR)
	fmt.Fprintf(w, "  Mixer efficiencies:\tE1 %.1f %%, E2 %.1f %%, S1 %.1f %%\n", p.Mef1e, p.Mef2e, p.Mef1s)
	w.Flush()
	fmt.Println()

	printSolverStatus(sol)

	printSection("DESIGN RESULT")
	status := "CONVERGED"
	if !sol.Converged {
		status = "NOT CONVERGED"
	}
	fmt.Print(diagram.DrawSummaryBox(status, []string{
		fmt.Sprintf("Extractant strength = %.4f v/v%%", sol.VV),
		fmt.Sprintf("|closure| = %.3e g/L", sol.Objective),
	}))
	fmt.Println()

	if sol.Sheet == nil {
		fmt.Println("  No physical profile at the final point.")
		return nil
	}
	printSheet(sol.Sheet)
	printStages(sol.Profile)

	if designShowDiagram {
		fmt.Println(diagram.DrawFlowsheet(sol.Profile))
		fmt.Println(diagram.DrawLoadingBars(diagram.LoadingLevels{
			AML:      sol.Sheet.AML,
			ML:       sol.Sheet.ML,
			Loaded:   sol.Profile.LoadedOrganic,
			Barren:   sol.Profile.BarrenOrganic,
			Stripped: sol.Profile.StrippedOrganic,
		}))
	}
	if designExportFile != "" {
		if err := diagram.ExportProfile(sol.Profile, designExportFile); err != nil {
			return fmt.Errorf("exporting diagram: %w", err)
		}
		fmt.Printf("Diagram exported to: %s\n", designExportFile)
	}
	return nil
}
