package engine

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/alexiusacademia/gosxcu/internal/circuit"
	"github.com/alexiusacademia/gosxcu/internal/equilibrium"
	"github.com/alexiusacademia/gosxcu/internal/solver"
)

func designerInput() map[string]float64 {
	return map[string]float64{
		"PLS_flow": 400, "PLS_Cu": 2.5, "PLS_Ac": 1.6, "SR": 92, "O_A_Ext": 1,
		"Mef1e": 92, "Mef2e": 95, "SP_Cu": 30, "SP_Ac": 190, "AD_Cu": 50, "Mef1s": 98,
		"initial_vv_guess": 10,
	}
}

func metallurgistInput() map[string]float64 {
	return map[string]float64{
		"PLS_flow": 400, "PLS_Cu": 2.5, "PLS_Ac": 1.6, "O_A_Ext": 1, "ML_plant": 4.386,
		"SP_Cu": 30, "SP_Ac": 190, "AD_Cu": 50, "Mef1s": 98,
		"raffinate_Cu_target": 0.28, "stripped_organic_Cu_target": 1.8,
		"initial_guess_vv": 8, "initial_guess_sr": 90, "initial_guess_mef1e": 90, "initial_guess_mef2e": 95,
	}
}

type countingRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
	degen    int
}

func (r *countingRecorder) SolveFinished(mode, outcome string, _ int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = map[string]int{}
	}
	r.outcomes[mode+"/"+outcome]++
}

func (r *countingRecorder) DegenerateBalance() {
	r.mu.Lock()
	r.degen++
	r.mu.Unlock()
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(opts...)
	require.NoError(t, err)
	return e
}

func TestSolveDesignerReferenceCase(t *testing.T) {
	for _, policy := range []solver.Policy{solver.Penalize, solver.Abort} {
		t.Run(policy.String(), func(t *testing.T) {
			s := solver.DefaultSettings()
			s.Policy = policy
			e := newEngine(t, WithSettings(s))

			out, err := e.Solve(context.Background(), Designer, designerInput())
			require.NoError(t, err)

			assert.Equal(t, true, out["success"], out["message"])
			vv := out["v_v_percent"].(float64)
			assert.GreaterOrEqual(t, vv, 5.0)
			assert.LessOrEqual(t, vv, 30.0)
			assert.InDelta(t, 8.5788, vv, 1e-3)
			assert.Less(t, out["objective_value"].(float64), 1e-6)
			assert.NotContains(t, out, "saturation_ratio")
		})
	}
}

func TestSolveDesignerSolution(t *testing.T) {
	e := newEngine(t)
	var p DesignerParams
	_, err := Decode(designerInput(), &p)
	require.NoError(t, err)

	sol, err := e.SolveDesigner(context.Background(), p)
	require.NoError(t, err)
	require.True(t, sol.Converged)
	require.NotNil(t, sol.Profile)
	require.NotNil(t, sol.Sheet)

	assert.Equal(t, "A", sol.Topology)
	assert.InDelta(t, 0, sol.Profile.Closure(), 1e-6)
	assert.InDelta(t, 92, sol.Sheet.LoadedOrganic/sol.Sheet.AML*100, 1e-9)
	assert.InDelta(t, 400, sol.Sheet.OrganicFlow, 1e-12)
	assert.Len(t, sol.Profile.Stages, 3)
}

func TestSolveIsIdempotent(t *testing.T) {
	e := newEngine(t)
	first, err := e.Solve(context.Background(), Designer, designerInput())
	require.NoError(t, err)
	second, err := e.Solve(context.Background(), Designer, designerInput())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	m1, err := e.Solve(context.Background(), Metallurgist, metallurgistInput())
	require.NoError(t, err)
	m2, err := e.Solve(context.Background(), Metallurgist, metallurgistInput())
	require.NoError(t, err)
	assert.Equal(t, m1, m2)
}

func TestSolveConcurrentMatchesSequential(t *testing.T) {
	e := newEngine(t)
	want, err := e.Solve(context.Background(), Designer, designerInput())
	require.NoError(t, err)

	results := make([]map[string]any, 16)
	g, ctx := errgroup.WithContext(context.Background())
	for i := range results {
		g.Go(func() error {
			out, err := e.Solve(ctx, Designer, designerInput())
			results[i] = out
			return err
		})
	}
	require.NoError(t, g.Wait())
	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestSolveMetallurgist(t *testing.T) {
	rec := &countingRecorder{}
	e := newEngine(t, WithRecorder(rec))
	in := metallurgistInput()

	var p MetallurgistParams
	_, err := Decode(in, &p)
	require.NoError(t, err)
	f0, err := circuit.MetallurgistObjective(e.network, p.plantCase(circuit.UnitWeights()))(p.start())
	require.NoError(t, err)

	out, err := e.Solve(context.Background(), Metallurgist, in)
	require.NoError(t, err)

	for key, b := range map[string]solver.Bound{
		"v_v_percent":      VVBounds,
		"saturation_ratio": SaturationBounds,
		"mixer_eff1":       MixerBounds,
		"mixer_eff2":       MixerBounds,
	} {
		v := out[key].(float64)
		assert.GreaterOrEqual(t, v, b.Lower, key)
		assert.LessOrEqual(t, v, b.Upper, key)
	}
	assert.LessOrEqual(t, out["objective_value"].(float64), f0)
	assert.Equal(t, true, out["success"], out["message"])
	assert.Less(t, out["objective_value"].(float64), 1e-4)
	assert.InDelta(t, 8.663, out["v_v_percent"].(float64), 1e-2)
	assert.InDelta(t, 89.31, out["saturation_ratio"].(float64), 5e-2)
	assert.Equal(t, 1, rec.outcomes["metallurgist/converged"])
}

func TestNewRejectsDegenerateWeights(t *testing.T) {
	_, err := New(WithWeights(circuit.Weights{}))
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = New(WithWeights(circuit.Weights{MaxLoading: -1, Raffinate: 2}))
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = New(WithWeights(circuit.Weights{Raffinate: 2}))
	assert.NoError(t, err)
}

func TestSolveMetallurgistFromInfeasibleCorner(t *testing.T) {
	in := metallurgistInput()
	in["initial_guess_vv"] = 5
	in["initial_guess_sr"] = 70
	in["initial_guess_mef1e"] = 70
	in["initial_guess_mef2e"] = 70

	out, err := newEngine(t).Solve(context.Background(), Metallurgist, in)
	require.NoError(t, err)
	assert.Equal(t, true, out["success"], out["message"])
	assert.Less(t, out["objective_value"].(float64), 1e-4)
	assert.InDelta(t, 8.663, out["v_v_percent"].(float64), 1e-2)
}

func TestSolveInfeasibleStart(t *testing.T) {
	in := designerInput()
	in["initial_vv_guess"] = 26 // stripping isotherm has no real root here

	t.Run("abort", func(t *testing.T) {
		s := solver.DefaultSettings()
		s.Policy = solver.Abort
		rec := &countingRecorder{}
		e := newEngine(t, WithSettings(s), WithRecorder(rec))

		_, err := e.Solve(context.Background(), Designer, in)
		require.ErrorIs(t, err, equilibrium.ErrNonPhysical)
		var evalErr *solver.EvaluationError
		assert.ErrorAs(t, err, &evalErr)
		assert.Equal(t, 1, rec.outcomes["designer/error"])
	})

	t.Run("penalize", func(t *testing.T) {
		e := newEngine(t)
		for _, guess := range []float64{5, 25, 26, 29} {
			in := designerInput()
			in["initial_vv_guess"] = guess
			out, err := e.Solve(context.Background(), Designer, in)
			require.NoError(t, err)
			assert.Equal(t, true, out["success"], "guess %g: %v", guess, out["message"])
			assert.InDelta(t, 8.5788, out["v_v_percent"].(float64), 1e-3, "guess %g", guess)
			assert.Less(t, out["objective_value"].(float64), 1e-6, "guess %g", guess)
		}
	})
}

func TestSolveDesignerStartOnUpperBound(t *testing.T) {
	in := designerInput()
	in["initial_vv_guess"] = 30

	out, err := newEngine(t).Solve(context.Background(), Designer, in)
	require.NoError(t, err)
	assert.Equal(t, true, out["success"])
	assert.Equal(t, 30.0, out["v_v_percent"])
	assert.Contains(t, out["message"], "on a bound with objective 8.75")
}

func TestSolveRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mode   Mode
		mutate func(map[string]float64)
		field  string
	}{
		{name: "missing key", mode: Designer, mutate: func(m map[string]float64) { delete(m, "SR") }, field: "SR"},
		{name: "zero feed copper", mode: Designer, mutate: func(m map[string]float64) { m["PLS_Cu"] = 0 }, field: "PLS_Cu"},
		{name: "efficiency above 100", mode: Designer, mutate: func(m map[string]float64) { m["Mef1s"] = 101 }, field: "Mef1s"},
		{name: "advance below spent", mode: Designer, mutate: func(m map[string]float64) { m["AD_Cu"] = 20 }, field: "AD_Cu"},
		{name: "guess above bound", mode: Designer, mutate: func(m map[string]float64) { m["initial_vv_guess"] = 35 }, field: "initial_vv_guess"},
		{name: "zero guess", mode: Designer, mutate: func(m map[string]float64) { m["initial_vv_guess"] = 0 }, field: "initial_vv_guess"},
		{name: "sr guess below bound", mode: Metallurgist, mutate: func(m map[string]float64) { m["initial_guess_sr"] = 60 }, field: "initial_guess_sr"},
		{name: "missing target", mode: Metallurgist, mutate: func(m map[string]float64) { delete(m, "raffinate_Cu_target") }, field: "raffinate_Cu_target"},
	}
	rec := &countingRecorder{}
	e := newEngine(t, WithRecorder(rec))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := designerInput()
			if tt.mode == Metallurgist {
				in = metallurgistInput()
			}
			tt.mutate(in)

			_, err := e.Solve(context.Background(), tt.mode, in)
			require.ErrorIs(t, err, ErrInvalidParameter)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
	assert.Empty(t, rec.outcomes, "invalid input must not start a solve")

	_, err := e.Solve(context.Background(), Mode("operator"), designerInput())
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestSolveIgnoresUnknownKeys(t *testing.T) {
	e := newEngine(t)
	in := designerInput()
	in["operator_shift"] = 2

	out, err := e.Solve(context.Background(), Designer, in)
	require.NoError(t, err)
	assert.Equal(t, true, out["success"])
}

func TestNewRejectsTopology(t *testing.T) {
	_, err := New(WithTopology("B"))
	assert.ErrorIs(t, err, ErrInvalidParameter)
	assert.ErrorIs(t, err, circuit.ErrNotImplemented)

	_, err = New(WithTopology("Z"))
	assert.ErrorIs(t, err, circuit.ErrUnknownTopology)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Designer ")
	require.NoError(t, err)
	assert.Equal(t, Designer, m)

	m, err = ParseMode("metallurgist")
	require.NoError(t, err)
	assert.Equal(t, Metallurgist, m)

	_, err = ParseMode("plant")
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestSimulate(t *testing.T) {
	e := newEngine(t)
	in := designerInput()
	delete(in, "initial_vv_guess")
	in["v_v_percent"] = 8.66

	got, err := e.SimulateMap(context.Background(), in)
	require.NoError(t, err)

	want := map[string]float64{
		"v_v_percent":         8.66,
		"AML":                 4.414689017682404,
		"ML":                  4.384189928382968,
		"loaded_organic":      4.061513896267812,
		"stripped_organic":    1.6894656550308733,
		"raffinate_Cu":        0.20383086168517628,
		"raffinate_Ac":        5.136100473004829,
		"extraction_recovery": 91.84676553259294,
		"stripping_recovery":  58.40305614654305,
		"net_transfer":        0.27390857289110143,
		"organic_flow":        400,
		"O_A_Str":             8.710159746628316,
		"electrolyte_flow":    45.92338276629647,
		"saturation":          92.64000790599486,
		"closure":             1.6894656550308733 - 1.7653447579529882,
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("sheet mismatch (-want +got):\n%s", diff)
	}
}

func TestSimulateNonPhysical(t *testing.T) {
	e := newEngine(t)
	in := designerInput()
	delete(in, "initial_vv_guess")
	in["v_v_percent"] = 26

	_, err := e.SimulateMap(context.Background(), in)
	assert.ErrorIs(t, err, equilibrium.ErrNonPhysical)

	in["v_v_percent"] = -1
	_, err = e.SimulateMap(context.Background(), in)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestSweep(t *testing.T) {
	e := newEngine(t)
	in := designerInput()
	delete(in, "initial_vv_guess")
	in["v_v_percent"] = 1
	var p SimulationParams
	_, err := Decode(in, &p)
	require.NoError(t, err)

	points, err := e.Sweep(context.Background(), p, 5, 30, 26)
	require.NoError(t, err)
	require.Len(t, points, 26)
	assert.Equal(t, 5.0, points[0].VV)
	assert.Equal(t, 30.0, points[25].VV)

	// 8 and 9 v/v% straddle the designer root.
	assert.Greater(t, Column(points, func(s *Sheet) float64 { return s.Closure })[3], 0.0)
	assert.Less(t, Column(points, func(s *Sheet) float64 { return s.Closure })[4], 0.0)

	at26 := points[21]
	assert.Equal(t, 26.0, at26.VV)
	assert.Nil(t, at26.Sheet)
	assert.ErrorIs(t, at26.Err, equilibrium.ErrNonPhysical)
	assert.True(t, math.IsNaN(at26.Objective()))

	aml := Column(points, func(s *Sheet) float64 { return s.AML })
	assert.InDelta(t, equilibrium.MaxLoadingCapacity(10), aml[5], 1e-12)
	assert.True(t, math.IsNaN(aml[21]))

	_, err = e.Sweep(context.Background(), p, 10, 5, 10)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestCheckRecoveryTarget(t *testing.T) {
	limit, err := CheckRecoveryTarget(95, 92, 95)
	require.NoError(t, err)
	assert.InDelta(t, 99.6, limit, 1e-9)

	limit, err = CheckRecoveryTarget(99.9, 92, 95)
	require.ErrorIs(t, err, ErrUnattainableTarget)
	assert.InDelta(t, 99.6, limit, 1e-9)
	assert.Contains(t, err.Error(), "at most 99.6%")

	_, err = CheckRecoveryTarget(0, 92, 95)
	assert.ErrorIs(t, err, ErrInvalidParameter)
	_, err = CheckRecoveryTarget(101, 92, 95)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}
