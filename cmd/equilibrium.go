package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexiusacademia/gosxcu/internal/equilibrium"
)

var (
	eqVV      float64
	eqPLSCu   float64
	eqPLSAc   float64
	eqSPCu    float64
	eqSPAc    float64
	eqOrganic float64
)

var equilibriumCmd = &cobra.Command{
	Use:   "equilibrium",
	Short: "Evaluate the Lix984N equilibrium correlations at one point",
	Long: `Evaluate the empirical extraction and stripping isotherms of Lix984N
at a single extractant strength and organic copper level.

Reported values:
  AML   maximum loading capacity at zero free acid
  ML    maximum loading reachable against the given PLS
  Ext.  aqueous copper in equilibrium with the organic (extraction)
  Str.  aqueous copper in equilibrium with the organic (stripping)

Examples:
  gosxcu equilibrium --vv 10 --organic 4
  gosxcu equilibrium --vv 8.66 --organic 1.77 --sp-cu 30 --sp-ac 190`,
	RunE: runEquilibrium,
}

func init() {
	rootCmd.AddCommand(equilibriumCmd)

	equilibriumCmd.Flags().Float64Var(&eqVV, "vv", 10, "Extractant strength (v/v%)")
	equilibriumCmd.Flags().Float64Var(&eqOrganic, "organic", 4, "Organic copper (g/L)")
	equilibriumCmd.Flags().Float64Var(&eqPLSCu, "pls-cu", 2.5, "PLS copper (g/L)")
	equilibriumCmd.Flags().Float64Var(&eqPLSAc, "pls-ac", 1.6, "PLS free acid (g/L)")
	equilibriumCmd.Flags().Float64Var(&eqSPCu, "sp-cu", 30, "Spent electrolyte copper (g/L)")
	equilibriumCmd.Flags().Float64Var(&eqSPAc, "sp-ac", 190, "Spent electrolyte acid (g/L)")
}

type eqValue struct {
	Value float64 `json:"value,omitempty"`
	Error string  `json:"error,omitempty"`
}

func newEqValue(v float64, err error) eqValue {
	if err != nil {
		return eqValue{Error: err.Error()}
	}
	return eqValue{Value: v}
}

func (v eqValue) String() string {
	if v.Error != "" {
		return "n/a (" + v.Error + ")"
	}
	return fmt.Sprintf("%.4f g/L", v.Value)
}

func runEquilibrium(cmd *cobra.Command, args []string) error {
	aml := equilibrium.MaxLoadingCapacity(eqVV)
	out := map[string]eqValue{
		"AML":        {Value: aml},
		"ML":         newEqValue(equilibrium.MaxLoading(eqPLSAc, eqPLSCu, eqVV, aml)),
		"extraction": newEqValue(equilibrium.ExtractionEquilibrium(eqPLSCu, eqPLSAc, eqVV, eqOrganic)),
		"stripping":  newEqValue(equilibrium.StrippingEquilibrium(eqSPCu, eqSPAc, eqVV, eqOrganic)),
	}
	if jsonOutput {
		return printJSON(out)
	}

	printHeader(fmt.Sprintf("%s EQUILIBRIUM", equilibrium.Lix984N.Name))

	printSection("INPUT DATA")
	w := newTable()
	fmt.Fprintf(w, "  Extractant strength:\t%.3f v/v%%\n", eqVV)
	fmt.Fprintf(w, "  Organic copper:\t%.4f g/L\n", eqOrganic)
	fmt.Fprintf(w, "  PLS:\t%.3f g/L Cu, %.2f g/L acid\n", eqPLSCu, eqPLSAc)
	fmt.Fprintf(w, "  Spent electrolyte:\t%.1f g/L Cu, %.0f g/L acid\n", eqSPCu, eqSPAc)
	w.Flush()
	fmt.Println()

	printSection("RESULTS")
	w = newTable()
	fmt.Fprintf(w, "  AML:\t%s\n", out["AML"])
	fmt.Fprintf(w, "  ML:\t%s\n", out["ML"])
	fmt.Fprintf(w, "  Ext. equilibrium aqueous Cu:\t%s\n", out["extraction"])
	fmt.Fprintf(w, "  Str. equilibrium aqueous Cu:\t%s\n", out["stripping"])
	w.Flush()
	fmt.Println()
	return nil
}
