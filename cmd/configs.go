package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexiusacademia/gosxcu/internal/circuit"
)

var configsCmd = &cobra.Command{
	Use:   "configs",
	Short: "List the plant configurations",
	Long: `List every plant configuration identifier with its stage counts and
whether a stage network is available for it.

Naming: Ex = extraction stage in series, Px = extraction stage in
parallel, S = stripping stage.`,
	RunE: runConfigs,
}

func init() {
	rootCmd.AddCommand(configsCmd)
}

func runConfigs(cmd *cobra.Command, args []string) error {
	if jsonOutput {
		type row struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			Extraction  int    `json:"extraction"`
			Parallel    int    `json:"parallel"`
			Stripping   int    `json:"stripping"`
			Implemented bool   `json:"implemented"`
		}
		rows := make([]row, 0, len(circuit.Topologies))
		for _, t := range circuit.Topologies {
			rows = append(rows, row{t.ID, t.Name, t.Extraction, t.Parallel, t.Stripping, t.Implemented()})
		}
		return printJSON(rows)
	}

	printHeader("PLANT CONFIGURATIONS")
	w := newTable()
	fmt.Fprintf(w, "  ID\tConfiguration\tEx\tPx\tS\tStatus\n")
	fmt.Fprintf(w, "  ──\t─────────────\t──\t──\t─\t──────\n")
	for _, t := range circuit.Topologies {
		status := "not implemented"
		if t.Implemented() {
			status = "available"
		}
		marker := " "
		if t.ID == cfg.Topology {
			marker = "*"
		}
		fmt.Fprintf(w, " %s%s\t%s\t%d\t%d\t%d\t%s\n", marker, t.ID, t.Name, t.Extraction, t.Parallel, t.Stripping, status)
	}
	w.Flush()
	fmt.Println()
	fmt.Println("  * selected with --topology")
	fmt.Println()
	return nil
}
