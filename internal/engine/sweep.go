package engine

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// SweepPoint is one sample of a v/v% sweep. Sheet is nil where the circuit has no
// physical solution, and Err says why.
type SweepPoint struct {
	VV    float64
	Sheet *Sheet
	Err   error
}

// Objective returns the designer objective |closure| at the point, or NaN where it is undefined.
func (p SweepPoint) Objective() float64 {
	if p.Sheet == nil {
		return math.NaN()
	}
	return math.Abs(p.Sheet.Closure)
}

// Sweep simulates the design case at n evenly spaced v/v% values from lo to hi.
// The VV field of p is ignored.
func (e *Engine) Sweep(ctx context.Context, p SimulationParams, lo, hi float64, n int) ([]SweepPoint, error) {
	if n < 2 || !(lo > 0) || !(hi > lo) {
		return nil, fmt.Errorf("%w: sweep needs 0 < lo < hi and at least 2 points, got [%g, %g] with %d",
			ErrInvalidParameter, lo, hi, n)
	}
	p.VV = lo
	if err := Validate(p); err != nil {
		return nil, err
	}

	vvs := floats.Span(make([]float64, n), lo, hi)
	out := make([]SweepPoint, n)
	for i, vv := range vvs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.VV = vv
		sheet, _, err := e.simulate(p)
		out[i] = SweepPoint{VV: vv, Sheet: sheet, Err: err}
	}
	return out, nil
}

// Column extracts one quantity across a sweep, NaN where the point failed.
func Column(points []SweepPoint, pick func(*Sheet) float64) []float64 {
	col := make([]float64, len(points))
	for i, p := range points {
		if p.Sheet == nil {
			col[i] = math.NaN()
			continue
		}
		col[i] = pick(p.Sheet)
	}
	return col
}
