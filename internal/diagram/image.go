package diagram

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/alexiusacademia/gosxcu/internal/circuit"
)

// ExportCurves writes series as a line chart. The format follows the file extension
// (png, svg or pdf); any other extension gets .png appended.
func ExportCurves(title, xLabel, yLabel string, series []Series, filename string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	drawn := 0
	for i, s := range series {
		pts := finitePoints(s)
		if len(pts) < 2 {
			continue
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("series %s: %w", s.Name, err)
		}
		line.LineStyle.Width = vg.Points(1.5)
		line.LineStyle.Color = plotutil.Color(i)
		line.LineStyle.Dashes = plotutil.Dashes(i)
		p.Add(line)
		p.Legend.Add(s.Name, line)
		drawn++
	}
	if drawn == 0 {
		return fmt.Errorf("nothing to plot in %q", title)
	}
	return save(p, 8*vg.Inch, 5*vg.Inch, filename)
}

// ExportProfile writes the organic copper entering and leaving each stage as grouped bars.
func ExportProfile(prof *circuit.Profile, filename string) error {
	if len(prof.Stages) == 0 {
		return fmt.Errorf("profile has no stages")
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Configuration %s at %.2f v/v%%", prof.Topology, prof.VV)
	p.Y.Label.Text = "Organic Cu (g/L)"

	in := make(plotter.Values, len(prof.Stages))
	out := make(plotter.Values, len(prof.Stages))
	names := make([]string, len(prof.Stages))
	for i, s := range prof.Stages {
		in[i], out[i], names[i] = s.OrganicIn, s.OrganicOut, s.Name
	}

	w := vg.Points(18)
	inBars, err := plotter.NewBarChart(in, w)
	if err != nil {
		return err
	}
	inBars.Color = color.RGBA{R: 100, G: 149, B: 237, A: 255}
	inBars.Offset = -w / 2

	outBars, err := plotter.NewBarChart(out, w)
	if err != nil {
		return err
	}
	outBars.Color = color.RGBA{R: 205, G: 127, B: 50, A: 255}
	outBars.Offset = w / 2

	p.Add(inBars, outBars)
	p.Legend.Add("organic in", inBars)
	p.Legend.Add("organic out", outBars)
	p.Legend.Top = true
	p.NominalX(names...)

	return save(p, 6*vg.Inch, 4*vg.Inch, filename)
}

func finitePoints(s Series) plotter.XYs {
	pts := make(plotter.XYs, 0, len(s.Y))
	for i := range s.Y {
		if math.IsNaN(s.Y[i]) || math.IsInf(s.Y[i], 0) {
			continue
		}
		pts = append(pts, plotter.XY{X: s.X[i], Y: s.Y[i]})
	}
	return pts
}

func save(p *plot.Plot, width, height vg.Length, filename string) error {
	if dir := filepath.Dir(filename); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png", ".svg", ".pdf":
	default:
		filename += ".png"
	}
	return p.Save(width, height, filename)
}
