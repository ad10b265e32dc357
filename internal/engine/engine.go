// Package engine is the entry point for circuit solves. It turns a flat parameter mapping
// into a typed record, validates it once, runs the bounded minimizer against the selected
// stage network and reports the outcome as a flat mapping.
//
// An Engine keeps no state between solves; one instance can serve concurrent callers.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/alexiusacademia/gosxcu/internal/circuit"
	"github.com/alexiusacademia/gosxcu/internal/solver"
)

const tracerName = "github.com/alexiusacademia/gosxcu/internal/engine"

// Recorder receives solve statistics.
type Recorder interface {
	SolveFinished(mode, outcome string, evaluations int, elapsed time.Duration)
	DegenerateBalance()
}

type nopRecorder struct{}

func (nopRecorder) SolveFinished(string, string, int, time.Duration) {}
func (nopRecorder) DegenerateBalance() {}

// Outcome labels passed to Recorder.SolveFinished.
const (
	OutcomeConverged    = "converged"
	OutcomeNotConverged = "not_converged"
	OutcomeError        = "error"
)

// Engine solves plant cases on one stage network.
type Engine struct {
	network   circuit.Network
	minimizer *solver.Minimizer
	weights   circuit.Weights
	log       *zap.Logger
	rec       Recorder
	tracer    trace.Tracer
}

type config struct {
	topology string
	settings solver.Settings
	weights  circuit.Weights
	log      *zap.Logger
	rec      Recorder
}

// Option configures an Engine.
type Option func(*config)

// WithTopology selects the stage network by configuration identifier.
func WithTopology(id string) Option {
	return func(c *config) { c.topology = id }
}

// WithSettings replaces the minimizer settings.
func WithSettings(s solver.Settings) Option {
	return func(c *config) { c.settings = s }
}

// WithWeights sets the metallurgist residual weights.
func WithWeights(w circuit.Weights) Option {
	return func(c *config) { c.weights = w }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRecorder sets the statistics sink.
func WithRecorder(r Recorder) Option {
	return func(c *config) {
		if r != nil {
			c.rec = r
		}
	}
}

// New builds an Engine. Without options it solves configuration A with default settings.
func New(opts ...Option) (*Engine, error) {
	c := config{
		topology: circuit.DefaultTopology,
		settings: solver.DefaultSettings(),
		weights:  circuit.UnitWeights(),
		log:      zap.NewNop(),
		rec:      nopRecorder{},
	}
	for _, opt := range opts {
		opt(&c)
	}

	if w := c.weights; w.MaxLoading < 0 || w.Raffinate < 0 || w.StrippedOrganic < 0 ||
		w.MaxLoading+w.Raffinate+w.StrippedOrganic == 0 {
		return nil, fmt.Errorf("%w: residual weights %+v must be non-negative and not all zero", ErrInvalidParameter, w)
	}
	network, err := circuit.New(c.topology,
		circuit.WithLogger(c.log.Named("circuit")),
		circuit.WithDegenerateHook(c.rec.DegenerateBalance))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}
	return &Engine{
		network:   network,
		minimizer: solver.New(c.settings),
		weights:   c.weights,
		log:       c.log,
		rec:       c.rec,
		tracer:    otel.Tracer(tracerName),
	}, nil
}

// Topology returns the stage network the engine solves.
func (e *Engine) Topology() circuit.Topology {
	return e.network.Topology()
}

// Solution is the typed outcome of a solve.
type Solution struct {
	Mode        Mode
	Topology    string
	Converged   bool
	Objective   float64
	Status      solver.Status
	Message     string
	Iterations  int
	Evaluations int
	Elapsed     time.Duration
	X           []float64

	VV              float64
	SaturationRatio float64 // metallurgist
	MixerE1         float64 // metallurgist
	MixerE2         float64 // metallurgist

	Residuals *circuit.Residuals // metallurgist
	Profile   *circuit.Profile
	Sheet     *Sheet
}

// Map flattens the solution into the result mapping handed back to callers.
func (s *Solution) Map() map[string]any {
	m := map[string]any{
		"success":         s.Converged,
		"objective_value": s.Objective,
		"message":         s.Message,
		"v_v_percent":     s.VV,
		"iterations":      s.Iterations,
		"evaluations":     s.Evaluations,
	}
	if s.Mode == Metallurgist {
		m["saturation_ratio"] = s.SaturationRatio
		m["mixer_eff1"] = s.MixerE1
		m["mixer_eff2"] = s.MixerE2
	}
	return m
}

// Solve runs mode on a flat parameter mapping and returns the flat result mapping.
// Invalid input fails with ErrInvalidParameter before any computation. Non-convergence is
// reported through "success" rather than an error.
func (e *Engine) Solve(ctx context.Context, mode Mode, params map[string]float64) (map[string]any, error) {
	var (
		sol *Solution
		err error
	)
	switch mode {
	case Designer:
		var p DesignerParams
		if err := e.decode(mode, params, &p); err != nil {
			return nil, err
		}
		sol, err = e.SolveDesigner(ctx, p)
	case Metallurgist:
		var p MetallurgistParams
		if err := e.decode(mode, params, &p); err != nil {
			return nil, err
		}
		sol, err = e.SolveMetallurgist(ctx, p)
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidParameter, mode)
	}
	if err != nil {
		return nil, err
	}
	return sol.Map(), nil
}

func (e *Engine) decode(mode Mode, params map[string]float64, out any) error {
	unused, err := Decode(params, out)
	if err != nil {
		return err
	}
	if len(unused) > 0 {
		e.log.Debug("ignoring unknown parameters", zap.String("mode", string(mode)), zap.Strings("keys", unused))
	}
	return nil
}

var (
	designerNames     = []string{"initial_vv_guess"}
	metallurgistNames = []string{"initial_guess_vv", "initial_guess_sr", "initial_guess_mef1e", "initial_guess_mef2e"}
)

// SolveDesigner finds the v/v% at which stripping returns exactly the organic extraction needs.
func (e *Engine) SolveDesigner(ctx context.Context, p DesignerParams) (*Solution, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	if err := checkStart(p.start(), p.bounds(), designerNames); err != nil {
		return nil, err
	}

	c := p.designCase()
	prob := solver.Problem{Func: circuit.DesignerObjective(e.network, c), Bounds: p.bounds()}
	return e.run(ctx, Designer, prob, p.start(), func(sol *Solution) error {
		sol.VV = sol.X[0]
		return e.describe(sol, c.Operating(sol.VV))
	})
}

// SolveMetallurgist back-calculates v/v%, saturation ratio and the two extraction mixer
// efficiencies that best reproduce the plant measurements.
func (e *Engine) SolveMetallurgist(ctx context.Context, p MetallurgistParams) (*Solution, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	if err := checkStart(p.start(), p.bounds(), metallurgistNames); err != nil {
		return nil, err
	}

	c := p.plantCase(e.weights)
	prob := solver.Problem{Func: circuit.MetallurgistObjective(e.network, c), Bounds: p.bounds()}
	return e.run(ctx, Metallurgist, prob, p.start(), func(sol *Solution) error {
		sol.VV, sol.SaturationRatio, sol.MixerE1, sol.MixerE2 = sol.X[0], sol.X[1], sol.X[2], sol.X[3]
		r, _, err := circuit.PlantResiduals(e.network, c, sol.X)
		if err != nil {
			return err
		}
		sol.Residuals = &r
		return e.describe(sol, c.Operating(sol.X))
	})
}

// describe attaches the stage profile and simulation sheet at the solution.
func (e *Engine) describe(sol *Solution, op circuit.Operating) error {
	prof, err := e.network.Evaluate(op)
	if err != nil {
		return err
	}
	sheet, err := buildSheet(prof, op)
	if err != nil {
		return err
	}
	sol.Profile, sol.Sheet = prof, sheet
	return nil
}

func (e *Engine) run(ctx context.Context, mode Mode, prob solver.Problem, x0 []float64, finish func(*Solution) error) (*Solution, error) {
	top := e.network.Topology()
	ctx, span := e.tracer.Start(ctx, "engine.solve", trace.WithAttributes(
		attribute.String("sx.mode", string(mode)),
		attribute.String("sx.topology", top.ID),
	))
	defer span.End()

	start := time.Now()
	res, err := e.minimizer.Minimize(ctx, prob, x0)
	elapsed := time.Since(start)
	if err != nil {
		e.rec.SolveFinished(string(mode), OutcomeError, 0, elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.log.Warn("solve failed", zap.String("mode", string(mode)), zap.String("topology", top.ID), zap.Error(err))
		return nil, fmt.Errorf("%s solve: %w", mode, err)
	}

	sol := &Solution{
		Mode:        mode,
		Topology:    top.ID,
		Converged:   res.Converged,
		Objective:   res.F,
		Status:      res.Status,
		Message:     res.Message,
		Iterations:  res.Iterations,
		Evaluations: res.Evaluations,
		Elapsed:     elapsed,
		X:           res.X,
	}
	if err := finish(sol); err != nil {
		// The minimizer only stops at points it could evaluate, so this is a penalized point.
		e.log.Debug("no profile at solution", zap.String("mode", string(mode)), zap.Error(err))
	}

	outcome := OutcomeConverged
	if !sol.Converged {
		outcome = OutcomeNotConverged
	}
	e.rec.SolveFinished(string(mode), outcome, sol.Evaluations, elapsed)
	span.SetAttributes(
		attribute.Bool("sx.converged", sol.Converged),
		attribute.Int("sx.iterations", sol.Iterations),
		attribute.Float64("sx.objective", sol.Objective),
	)
	e.log.Info("solve finished",
		zap.String("mode", string(mode)),
		zap.String("topology", top.ID),
		zap.Bool("converged", sol.Converged),
		zap.String("status", sol.Message),
		zap.Int("iterations", sol.Iterations),
		zap.Int("evaluations", sol.Evaluations),
		zap.Float64("objective", sol.Objective),
		zap.Duration("elapsed", elapsed))
	return sol, nil
}
