package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	armijo    = 1e-4
	curvature = 1e-10

	// restoreSteps is the number of points tried between an infeasible start and the box centre.
	restoreSteps = 8
)

// Minimizer runs bounded minimizations with fixed settings.
// A Minimizer holds no per-run state and may be shared between goroutines.
type Minimizer struct {
	Settings Settings
}

// New returns a Minimizer, filling zero settings from DefaultSettings.
func New(s Settings) *Minimizer {
	def := DefaultSettings()
	if s.FTol <= 0 {
		s.FTol = def.FTol
	}
	if s.MaxIterations <= 0 {
		s.MaxIterations = def.MaxIterations
	}
	if s.MaxLineSearch <= 0 {
		s.MaxLineSearch = def.MaxLineSearch
	}
	if s.Penalty <= 0 {
		s.Penalty = def.Penalty
	}
	return &Minimizer{Settings: s}
}

// Minimize searches for the minimum of p.Func inside p.Bounds starting from x0.
//
// Failing to converge is reported in the Result, not as an error. An error is returned only
// for a malformed problem, or for an evaluation failure under the Abort policy.
func (m *Minimizer) Minimize(ctx context.Context, p Problem, x0 []float64) (*Result, error) {
	n := len(x0)
	if n == 0 || len(p.Bounds) != n {
		return nil, fmt.Errorf("%w: %d variables, %d bounds", ErrDimension, n, len(p.Bounds))
	}
	for i, b := range p.Bounds {
		if !(b.Lower <= b.Upper) {
			return nil, fmt.Errorf("%w: bound %d is [%g, %g]", ErrDimension, i, b.Lower, b.Upper)
		}
		if !b.contains(x0[i]) {
			return nil, fmt.Errorf("%w: x[%d] = %g not in [%g, %g]", ErrOutOfBounds, i, x0[i], b.Lower, b.Upper)
		}
	}

	s := m.Settings
	if s.Runtime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Runtime)
		defer cancel()
	}

	ev := &evaluator{fn: p.Func, policy: s.Policy, penalty: s.Penalty}
	x := slices.Clone(x0)
	fx, feasible := ev.eval(x)
	if ev.err != nil {
		return nil, ev.err
	}
	if !feasible {
		// Penalized starts have a zero gradient; move to a point that evaluates first.
		fx, feasible = restore(x, p.Bounds, ev)
	}

	g := make([]float64, n)
	gradient(g, x, fx, p.Bounds, ev)
	if ev.err != nil {
		return nil, ev.err
	}

	var (
		hess = identity(n)
		gv   = mat.NewVecDense(n, g)
		dir  = mat.NewVecDense(n, nil)
		hy   = mat.NewVecDense(n, nil)
		xt   = make([]float64, n)
		step = make([]float64, n)
		gNew = make([]float64, n)
		y    = make([]float64, n)
		free = make([]bool, n)
	)

	finish := func(st Status, it int) (*Result, error) {
		if !feasible {
			st = NoFeasiblePoint
		}
		msg := st.String()
		if st == StationaryPoint && fx > s.FTol && onBound(x, p.Bounds) {
			msg = fmt.Sprintf("%s on a bound with objective %.6g", msg, fx)
		}
		return &Result{
			Converged:   st.Converged(),
			X:           x,
			F:           fx,
			Status:      st,
			Message:     msg,
			Iterations:  it,
			Evaluations: ev.count,
		}, nil
	}

	for it := 1; it <= s.MaxIterations; it++ {
		if err := ctx.Err(); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return finish(RuntimeLimit, it-1)
			}
			return finish(Canceled, it-1)
		}
		if fx <= s.FTol {
			return finish(ObjectiveConvergence, it-1)
		}

		// Freeze variables pinned on a bound with the gradient pushing outward.
		for i, b := range p.Bounds {
			free[i] = !((x[i] <= b.Lower && g[i] > 0) || (x[i] >= b.Upper && g[i] < 0))
		}
		dir.MulVec(hess, gv)
		dir.ScaleVec(-1, dir)
		project(dir, free)
		slope := mat.Dot(gv, dir)
		if slope >= 0 {
			hess = identity(n)
			dir.ScaleVec(-1, gv)
			project(dir, free)
			if slope = mat.Dot(gv, dir); slope >= 0 {
				return finish(StationaryPoint, it-1)
			}
		}

		var (
			ft       float64
			okT      bool
			accepted bool
		)
		alpha := 1.0
		for ls := 0; ls < s.MaxLineSearch; ls++ {
			for i, b := range p.Bounds {
				xt[i] = b.clamp(x[i] + alpha*dir.AtVec(i))
			}
			ft, okT = ev.eval(xt)
			if ev.err != nil {
				return nil, ev.err
			}
			floats.SubTo(step, xt, x)
			if ft <= fx+armijo*floats.Dot(g, step) {
				accepted = true
				break
			}
			alpha /= 2
		}
		if !accepted {
			return finish(LineSearchFailure, it)
		}

		fPrev := fx
		copy(x, xt)
		fx, feasible = ft, okT
		if math.Abs(fPrev-fx) < s.FTol {
			return finish(FunctionConvergence, it)
		}

		gradient(gNew, x, fx, p.Bounds, ev)
		if ev.err != nil {
			return nil, ev.err
		}
		floats.SubTo(y, gNew, g)
		copy(g, gNew)

		ys := floats.Dot(y, step)
		if ys > curvature*floats.Norm(y, 2)*floats.Norm(step, 2) {
			// H+ = H - ρ(s·(Hy)ᵀ + Hy·sᵀ) + (ρ²·yᵀHy + ρ)·s·sᵀ
			rho := 1 / ys
			yv := mat.NewVecDense(n, y)
			sv := mat.NewVecDense(n, step)
			hy.MulVec(hess, yv)
			yHy := mat.Dot(yv, hy)
			hess.RankTwo(hess, -rho, sv, hy)
			hess.SymRankOne(hess, rho*rho*yHy+rho, sv)
		}
	}
	return finish(IterationLimit, s.MaxIterations)
}

// gradient fills dst with finite-difference partials of the objective at x.
// The stencil turns one-sided where a central step would leave the box.
func gradient(dst, x []float64, fx float64, bounds []Bound, ev *evaluator) {
	xi := make([]float64, len(x))
	for i := range x {
		h := math.Sqrt(eps) * math.Max(1, math.Abs(x[i]))
		if bounds[i].Upper-bounds[i].Lower < h {
			dst[i] = 0
			continue
		}
		settings := &fd.Settings{Formula: fd.Central, Step: h}
		switch {
		case x[i]+h > bounds[i].Upper:
			settings.Formula = fd.Backward
			settings.OriginKnown, settings.OriginValue = true, fx
		case x[i]-h < bounds[i].Lower:
			settings.Formula = fd.Forward
			settings.OriginKnown, settings.OriginValue = true, fx
		}

		copy(xi, x)
		dst[i] = fd.Derivative(func(t float64) float64 {
			xi[i] = t
			f, _ := ev.eval(xi)
			return f
		}, x[i], settings)
		if ev.err != nil {
			return
		}
	}
}

const eps = 2.220446049250313e-16

// restore walks x toward the centre of the box and stops at the first point that evaluates.
// x is left unchanged when none does.
func restore(x []float64, bounds []Bound, ev *evaluator) (float64, bool) {
	n := len(x)
	toward := make([]float64, n)
	for i, b := range bounds {
		if mid := b.Lower + (b.Upper-b.Lower)/2; !math.IsInf(mid, 0) && !math.IsNaN(mid) {
			toward[i] = mid - x[i]
		}
	}
	xt := make([]float64, n)
	for k := 1; k <= restoreSteps; k++ {
		floats.AddScaledTo(xt, x, float64(k)/restoreSteps, toward)
		for i, b := range bounds {
			xt[i] = b.clamp(xt[i])
		}
		if f, ok := ev.eval(xt); ok {
			copy(x, xt)
			return f, true
		}
	}
	return ev.penalty, false
}

func onBound(x []float64, bounds []Bound) bool {
	for i, b := range bounds {
		if x[i] <= b.Lower || x[i] >= b.Upper {
			return true
		}
	}
	return false
}

func identity(n int) *mat.SymDense {
	h := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		h.SetSym(i, i, 1)
	}
	return h
}

func project(d *mat.VecDense, free []bool) {
	for i, ok := range free {
		if !ok {
			d.SetVec(i, 0)
		}
	}
}

// evaluator counts calls and applies the failure policy.
type evaluator struct {
	fn      Func
	policy  Policy
	penalty float64
	count   int
	err     error
}

// eval returns the objective and whether the point evaluated cleanly.
// Under Abort the first failure is kept in err and later calls return NaN.
func (e *evaluator) eval(x []float64) (float64, bool) {
	if e.err != nil {
		return math.NaN(), false
	}
	e.count++
	f, err := e.call(x)
	if err == nil && (math.IsNaN(f) || math.IsInf(f, 0)) {
		err = fmt.Errorf("%w: %g", ErrNonFinite, f)
	}
	if err != nil {
		if e.policy == Abort {
			e.err = &EvaluationError{X: slices.Clone(x), Err: err}
			return math.NaN(), false
		}
		return e.penalty, false
	}
	return f, true
}

func (e *evaluator) call(x []float64) (f float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("objective panicked: %v", r)
		}
	}()
	return e.fn(x)
}
