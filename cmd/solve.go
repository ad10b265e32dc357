package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexiusacademia/gosxcu/internal/config"
	"github.com/alexiusacademia/gosxcu/internal/engine"
)

var solveCmd = &cobra.Command{
	Use:   "solve <designer|metallurgist> <params-file>",
	Short: "Solve a flat parameter file and print the result mapping",
	Long: `Run a solve the way a service caller would: the parameter file is a
flat mapping of parameter names to numbers (yaml or json), and the
result is printed as a JSON mapping with success, objective_value,
message and the solved variables.

Designer keys:
  PLS_flow PLS_Cu PLS_Ac SR O_A_Ext Mef1e Mef2e SP_Cu SP_Ac AD_Cu Mef1s
  initial_vv_guess

Metallurgist keys:
  PLS_flow PLS_Cu PLS_Ac O_A_Ext ML_plant SP_Cu SP_Ac AD_Cu Mef1s
  raffinate_Cu_target stripped_organic_Cu_target initial_guess_vv
  initial_guess_sr initial_guess_mef1e initial_guess_mef2e

Example:
  gosxcu solve designer case.yaml`,
	Args: cobra.ExactArgs(2),
	RunE: runSolve,
}

func init() {
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	mode, err := engine.ParseMode(args[0])
	if err != nil {
		return err
	}
	params, err := config.ReadParameters(args[1])
	if err != nil {
		return err
	}
	e, err := newEngine()
	if err != nil {
		return err
	}
	out, err := e.Solve(cmd.Context(), mode, params)
	if err != nil {
		return fmt.Errorf("%s: %w", args[1], err)
	}
	return printJSON(out)
}
