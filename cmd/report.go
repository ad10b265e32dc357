package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/alexiusacademia/gosxcu/internal/circuit"
	"github.com/alexiusacademia/gosxcu/internal/engine"
)

const rule = "───────────────────────────────────────────────────────────────"

func printHeader(title string) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("     %s\n", title)
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println()
}

func printSection(title string) {
	fmt.Printf("%s:\n", title)
	fmt.Println(rule)
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

func printSolverStatus(sol *engine.Solution) {
	printSection("SOLVER")
	w := newTable()
	fmt.Fprintf(w, "  Configuration:\t%s\n", sol.Topology)
	fmt.Fprintf(w, "  Status:\t%s\n", sol.Message)
	fmt.Fprintf(w, "  Objective:\t%.3e\n", sol.Objective)
	fmt.Fprintf(w, "  Iterations:\t%d\n", sol.Iterations)
	fmt.Fprintf(w, "  Evaluations:\t%d\n", sol.Evaluations)
	fmt.Fprintf(w, "  Elapsed:\t%s\n", sol.Elapsed)
	w.Flush()
	fmt.Println()
}

func printSheet(s *engine.Sheet) {
	printSection("ORGANIC")
	w := newTable()
	fmt.Fprintf(w, "  Extractant strength:\t%.3f v/v%%\n", s.VV)
	fmt.Fprintf(w, "  Max. loading capacity (AML):\t%.4f g/L\n", s.AML)
	fmt.Fprintf(w, "  Max. loading at feed (ML):\t%.4f g/L\n", s.ML)
	fmt.Fprintf(w, "  Loaded organic:\t%.4f g/L\n", s.LoadedOrganic)
	fmt.Fprintf(w, "  Stripped organic:\t%.4f g/L\n", s.StrippedOrganic)
	fmt.Fprintf(w, "  Saturation of ML:\t%.2f %%\n", s.Saturation)
	fmt.Fprintf(w, "  Net transfer:\t%.4f g/L per v/v%%\n", s.NetTransfer)
	w.Flush()
	fmt.Println()

	printSection("AQUEOUS")
	w = newTable()
	fmt.Fprintf(w, "  Raffinate copper:\t%.4f g/L\n", s.RaffinateCu)
	fmt.Fprintf(w, "  Raffinate acid:\t%.3f g/L\n", s.RaffinateAcid)
	fmt.Fprintf(w, "  Extraction recovery:\t%.2f %%\n", s.ExtractionRecovery)
	fmt.Fprintf(w, "  Stripping recovery:\t%.2f %%\n", s.StrippingRecovery)
	w.Flush()
	fmt.Println()

	printSection("FLOWS")
	w = newTable()
	fmt.Fprintf(w, "  Organic flow:\t%.1f m³/h\n", s.OrganicFlow)
	fmt.Fprintf(w, "  Stripping O/A:\t%.3f\n", s.StrippingOA)
	fmt.Fprintf(w, "  Electrolyte flow:\t%.2f m³/h\n", s.ElectrolyteFlow)
	fmt.Fprintf(w, "  Balance closure:\t%+.2e g/L\n", s.Closure)
	w.Flush()
	fmt.Println()
}

func printStages(p *circuit.Profile) {
	printSection("STAGE PROFILE")
	w := newTable()
	fmt.Fprintf(w, "  Stage\tAq in\tAq out\tAq eq\tOrg in\tOrg out\tEff %%\tO/A\n")
	fmt.Fprintf(w, "  ─────\t─────\t──────\t─────\t──────\t───────\t─────\t───\n")
	for _, s := range p.Stages {
		fmt.Fprintf(w, "  %s\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%.1f\t%.3f\n",
			s.Name, s.AqueousIn, s.AqueousOut, s.Equilibrium, s.OrganicIn, s.OrganicOut, s.Efficiency, s.OARatio)
	}
	w.Flush()
	fmt.Println()
}
