package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/alexiusacademia/gosxcu/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of gosxcu",
	Run: func(cmd *cobra.Command, args []string) {
		if jsonOutput {
			_ = printJSON(map[string]string{
				"version":    version.Version,
				"commit":     version.GitCommit,
				"build_time": version.BuildTime,
				"go":         runtime.Version(),
			})
			return
		}
		fmt.Println(version.String())
		fmt.Println("Copper Solvent Extraction Circuit Solver")
		fmt.Printf("Built with %s\n", runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
