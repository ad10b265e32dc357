// Package solver minimizes a scalar objective over a box.
//
// The method is a projected quasi-Newton iteration: an inverse-Hessian approximation is
// updated with BFGS, directions are projected onto the face of the box the iterate sits on,
// and a backtracking line search clamps every trial point into the box. Gradients are
// finite differences that turn one-sided at the bounds, so the objective is never evaluated
// outside the box.
//
// A run is a single local descent from the supplied start. There are no restarts. Under
// Penalize a start that fails to evaluate is first walked toward the centre of the box until
// the objective evaluates; the descent then begins from there.
package solver

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrDimension is returned when the start point and bounds disagree in length.
	ErrDimension = errors.New("dimension mismatch")
	// ErrOutOfBounds is returned when the start point lies outside the box.
	ErrOutOfBounds = errors.New("initial point outside bounds")
	// ErrNonFinite marks an objective value that is NaN or infinite.
	ErrNonFinite = errors.New("non-finite objective")
)

// Func is an objective. It returns an error when the point cannot be evaluated.
type Func func(x []float64) (float64, error)

// Bound is a closed interval for one variable.
type Bound struct {
	Lower, Upper float64
}

func (b Bound) clamp(v float64) float64 {
	if v < b.Lower {
		return b.Lower
	}
	if v > b.Upper {
		return b.Upper
	}
	return v
}

func (b Bound) contains(v float64) bool {
	return v >= b.Lower && v <= b.Upper
}

// Problem is an objective with its box.
type Problem struct {
	Func   Func
	Bounds []Bound
}

// Policy decides what happens when the objective fails to evaluate.
type Policy int

const (
	// Penalize replaces a failed evaluation by Settings.Penalty and keeps searching. An
	// infeasible start is moved toward the box centre before the descent.
	Penalize Policy = iota
	// Abort stops the run and returns the evaluation error.
	Abort
)

func (p Policy) String() string {
	switch p {
	case Penalize:
		return "penalize"
	case Abort:
		return "abort"
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy maps a configuration value onto a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "penalize", "":
		return Penalize, nil
	case "abort":
		return Abort, nil
	}
	return 0, fmt.Errorf("unknown infeasible-evaluation policy %q", s)
}

// Settings tune a run.
type Settings struct {
	FTol          float64 // stop when f <= FTol or |Δf| < FTol
	MaxIterations int
	MaxLineSearch int // halvings per iteration
	Policy        Policy
	Penalty       float64       // objective assigned to failed evaluations under Penalize
	Runtime       time.Duration // wall-clock budget, 0 for none
}

// DefaultSettings returns the tolerances used by the plant solves.
func DefaultSettings() Settings {
	return Settings{
		FTol:          1e-8,
		MaxIterations: 100,
		MaxLineSearch: 40,
		Policy:        Penalize,
		Penalty:       1e3,
		Runtime:       30 * time.Second,
	}
}

// Status is the reason a run stopped.
type Status int

const (
	NotTerminated Status = iota
	ObjectiveConvergence
	FunctionConvergence
	StationaryPoint
	IterationLimit
	RuntimeLimit
	Canceled
	LineSearchFailure
	NoFeasiblePoint
)

// Converged reports whether the status counts as success.
func (s Status) Converged() bool {
	switch s {
	case ObjectiveConvergence, FunctionConvergence, StationaryPoint:
		return true
	}
	return false
}

func (s Status) String() string {
	switch s {
	case NotTerminated:
		return "not terminated"
	case ObjectiveConvergence:
		return "objective below tolerance"
	case FunctionConvergence:
		return "objective change below tolerance"
	case StationaryPoint:
		return "projected gradient vanished"
	case IterationLimit:
		return "iteration limit reached"
	case RuntimeLimit:
		return "did not converge within budget"
	case Canceled:
		return "solve canceled"
	case LineSearchFailure:
		return "line search could not decrease the objective"
	case NoFeasiblePoint:
		return "no feasible point found"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Result is the outcome of a run. X always lies inside the bounds.
type Result struct {
	Converged   bool
	X           []float64
	F           float64
	Status      Status
	Message     string
	Iterations  int
	Evaluations int
}

// EvaluationError wraps the objective failure that stopped a run under Abort.
type EvaluationError struct {
	X   []float64
	Err error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("objective evaluation failed at %v: %v", e.X, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}
