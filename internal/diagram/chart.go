package diagram

import (
	"fmt"
	"math"
	"strings"

	"github.com/guptarohit/asciigraph"
)

// Series is one named curve. X and Y have equal length; NaN in Y marks a missing point.
type Series struct {
	Name string
	X    []float64
	Y    []float64
}

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Blue, asciigraph.Green, asciigraph.Red, asciigraph.Goldenrod, asciigraph.Magenta,
}

// DrawChart plots series on a shared terminal chart. The x axis is the sample index, so all
// series must be sampled on the same grid; the caption names the x range.
func DrawChart(title string, height int, series ...Series) (string, error) {
	if len(series) == 0 {
		return "", fmt.Errorf("no series to plot")
	}
	n := len(series[0].Y)
	data := make([][]float64, 0, len(series))
	names := make([]string, 0, len(series))
	for _, s := range series {
		if len(s.Y) != n || len(s.X) != n {
			return "", fmt.Errorf("series %q has %d points, want %d", s.Name, len(s.Y), n)
		}
		if !anyFinite(s.Y) {
			continue
		}
		data = append(data, s.Y)
		names = append(names, s.Name)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("every point of %q is undefined", title)
	}

	caption := title
	if x := series[0].X; n > 0 {
		caption = fmt.Sprintf("%s  [x %.3g to %.3g]  %s", title, x[0], x[n-1], strings.Join(names, ", "))
	}
	opts := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.Precision(3),
		asciigraph.Caption(caption),
	}
	if len(data) > 1 {
		opts = append(opts, asciigraph.SeriesColors(seriesColors[:min(len(data), len(seriesColors))]...))
	}
	return asciigraph.PlotMany(data, opts...), nil
}

func anyFinite(ys []float64) bool {
	for _, y := range ys {
		if !math.IsNaN(y) && !math.IsInf(y, 0) {
			return true
		}
	}
	return false
}
