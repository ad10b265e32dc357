package cmd

import (
	"fmt"
	"math"

	"github.com/spf13/cobra"

	"github.com/alexiusacademia/gosxcu/internal/diagram"
	"github.com/alexiusacademia/gosxcu/internal/engine"
)

var (
	curveStreams streamFlags

	curveSR    float64
	curveMef1e float64
	curveMef2e float64

	curveFrom   float64
	curveTo     float64
	curvePoints int
	curveHeight int

	curveExportFile string
)

var curveCmd = &cobra.Command{
	Use:   "curve",
	Short: "Tabulate and plot loadings and balance closure against v/v%",
	Long: `Sweep the extractant strength and simulate the circuit at every point.

The table lists AML, ML, loaded organic, stripped organic and the
designer objective |closure|. Two terminal charts follow: the organic
loadings and the objective, whose minimum marks the designer solution.
Points where the isotherms have no physical solution are left blank.

Examples:
  gosxcu curve
  gosxcu curve --from 6 --to 14 --points 41
  gosxcu curve -o loading.svg`,
	RunE: runCurve,
}

func init() {
	rootCmd.AddCommand(curveCmd)

	curveStreams.register(curveCmd.Flags())

	curveCmd.Flags().Float64Var(&curveSR, "sr", 92, "Saturation ratio of loaded organic to AML (%)")
	curveCmd.Flags().Float64Var(&curveMef1e, "mef1e", 92, "Mixer efficiency E1 (%)")
	curveCmd.Flags().Float64Var(&curveMef2e, "mef2e", 95, "Mixer efficiency E2 (%)")

	curveCmd.Flags().Float64Var(&curveFrom, "from", 5, "First v/v%")
	curveCmd.Flags().Float64Var(&curveTo, "to", 30, "Last v/v%")
	curveCmd.Flags().IntVarP(&curvePoints, "points", "n", 26, "Number of samples")
	curveCmd.Flags().IntVar(&curveHeight, "height", 12, "Terminal chart height (rows)")

	curveCmd.Flags().StringVarP(&curveExportFile, "output", "o", "", "Export loading curves to file (png, svg, pdf)")
}

func runCurve(cmd *cobra.Command, args []string) error {
	params, err := curveStreams.mapping(map[string]float64{
		"v_v_percent": curveFrom,
		"SR":          curveSR,
		"Mef1e":       curveMef1e,
		"Mef2e":       curveMef2e,
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
	points, err := e.Sweep(cmd.Context(), p, curveFrom, curveTo, curvePoints)
	if err != nil {
		return err
	}

	vv := make([]float64, len(points))
	for i, pt := range points {
		vv[i] = pt.VV
	}
	aml := diagram.Series{Name: "AML", X: vv, Y: engine.Column(points, func(s *engine.Sheet) float64 { return s.AML })}
	ml := diagram.Series{Name: "ML", X: vv, Y: engine.Column(points, func(s *engine.Sheet) float64 { return s.ML })}
	lo := diagram.Series{Name: "Loaded", X: vv, Y: engine.Column(points, func(s *engine.Sheet) float64 { return s.LoadedOrganic })}
	so := diagram.Series{Name: "Stripped", X: vv, Y: engine.Column(points, func(s *engine.Sheet) float64 { return s.StrippedOrganic })}
	obj := make([]float64, len(points))
	for i, pt := range points {
		obj[i] = pt.Objective()
	}

	if jsonOutput {
		rows := make([]map[string]float64, 0, len(points))
		for _, pt := range points {
			if pt.Sheet != nil {
				rows = append(rows, pt.Sheet.Map())
			}
		}
		return printJSON(rows)
	}

	printHeader("LOADING CURVES - " + e.Topology().Name)
	w := newTable()
	fmt.Fprintf(w, "  v/v%%\tAML\tML\tLoaded\tStripped\t|closure|\n")
	fmt.Fprintf(w, "  ────\t───\t──\t──────\t────────\t─────────\n")
	for i, pt := range points {
		if pt.Sheet == nil {
			fmt.Fprintf(w, "  %.2f\t%s\n", pt.VV, "no physical solution")
			continue
		}
		fmt.Fprintf(w, "  %.2f\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\n", pt.VV, aml.Y[i], ml.Y[i], lo.Y[i], so.Y[i], obj[i])
	}
	w.Flush()
	fmt.Println()

	chart, err := diagram.DrawChart("organic Cu (g/L)", curveHeight, aml, ml, lo, so)
	if err != nil {
		return err
	}
	fmt.Println(chart)
	fmt.Println()

	if best := argmin(obj); best >= 0 {
		objChart, err := diagram.DrawChart("|closure| (g/L)", curveHeight, diagram.Series{Name: "objective", X: vv, Y: obj})
		if err != nil {
			return err
		}
		fmt.Println(objChart)
		fmt.Println()
		fmt.Printf("  Smallest sampled |closure|: %.4f g/L at %.2f v/v%%\n\n", obj[best], vv[best])
	}

	if curveExportFile != "" {
		if err := diagram.ExportCurves("Organic copper vs extractant strength", "v/v%", "g/L",
			[]diagram.Series{aml, ml, lo, so}, curveExportFile); err != nil {
			return fmt.Errorf("exporting curves: %w", err)
		}
		fmt.Printf("Curves exported to: %s\n", curveExportFile)
	}
	return nil
}

// argmin returns the index of the smallest non-NaN value, or -1.
func argmin(xs []float64) int {
	best := -1
	for i, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		if best < 0 || x < xs[best] {
			best = i
		}
	}
	return best
}
