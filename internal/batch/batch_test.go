package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexiusacademia/gosxcu/internal/engine"
)

type stubSolver struct {
	calls   atomic.Int32
	running atomic.Int32
	peak    atomic.Int32
	fail    map[float64]bool
	release chan struct{}
}

func (s *stubSolver) Solve(_ context.Context, mode engine.Mode, params map[string]float64) (map[string]any, error) {
	s.calls.Add(1)
	n := s.running.Add(1)
	defer s.running.Add(-1)
	for {
		p := s.peak.Load()
		if n <= p || s.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if s.release != nil {
		<-s.release
	}
	if s.fail[params["k"]] {
		return nil, errors.New("boom")
	}
	return map[string]any{"success": mode == engine.Designer, "k": params["k"]}, nil
}

func TestRunKeepsOrderAndIsolatesFailures(t *testing.T) {
	s := &stubSolver{fail: map[float64]bool{2: true}}
	cases := []Case{
		{ID: "a", Mode: "designer", Parameters: map[string]float64{"k": 1}},
		{ID: "b", Mode: "designer", Parameters: map[string]float64{"k": 2}},
		{ID: "c", Mode: "metallurgist", Parameters: map[string]float64{"k": 3}},
		{ID: "d", Mode: "operator", Parameters: map[string]float64{"k": 4}},
		{Mode: "designer", Parameters: map[string]float64{"k": 5}},
	}

	out, err := Run(context.Background(), s, cases, 2)
	require.NoError(t, err)
	require.Len(t, out, len(cases))

	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, 1.0, out[0].Result["k"])
	assert.Equal(t, "boom", out[1].Error)
	assert.Equal(t, 3.0, out[2].Result["k"])
	assert.True(t, out[3].Failed())
	assert.Contains(t, out[3].Error, "unknown mode")
	_, err = uuid.Parse(out[4].ID)
	assert.NoError(t, err)

	assert.Equal(t, int32(4), s.calls.Load(), "unknown mode never reaches the solver")
	assert.Equal(t, Summary{Total: 5, Converged: 2, NotConverged: 1, Failed: 2}, Summarize(out))
}

func TestRunRespectsParallelLimit(t *testing.T) {
	s := &stubSolver{release: make(chan struct{})}
	cases := make([]Case, 6)
	for i := range cases {
		cases[i] = Case{Mode: "designer", Parameters: map[string]float64{"k": float64(i)}}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = Run(context.Background(), s, cases, 2)
	}()
	for range cases {
		s.release <- struct{}{}
	}
	<-done
	assert.LessOrEqual(t, s.peak.Load(), int32(2))
	assert.Equal(t, int32(6), s.calls.Load())
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := Run(ctx, &stubSolver{}, []Case{{Mode: "designer"}}, 1)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, out, 1)
	assert.True(t, out[0].Failed())
}

func TestRunEmpty(t *testing.T) {
	_, err := Run(context.Background(), &stubSolver{}, nil, 1)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestRunWithEngine(t *testing.T) {
	e, err := engine.New()
	require.NoError(t, err)

	params := map[string]float64{
		"PLS_flow": 400, "PLS_Cu": 2.5, "PLS_Ac": 1.6, "SR": 92, "O_A_Ext": 1,
		"Mef1e": 92, "Mef2e": 95, "SP_Cu": 30, "SP_Ac": 190, "AD_Cu": 50, "Mef1s": 98,
		"initial_vv_guess": 10,
	}
	bad := map[string]float64{"PLS_Cu": 2.5}

	out, err := Run(context.Background(), e, []Case{
		{ID: "ref", Mode: "designer", Parameters: params},
		{ID: "bad", Mode: "designer", Parameters: bad},
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, true, out[0].Result["success"])
	assert.InDelta(t, 8.5788, out[0].Result["v_v_percent"].(float64), 1e-3)
	assert.Contains(t, out[1].Error, "invalid parameter")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cases.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
cases:
  - id: reference
    mode: designer
    parameters:
      PLS_Cu: 2.5
      SR: 92
  - mode: metallurgist
    parameters:
      ML_plant: 4.386
`), 0o600))

	cases, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "reference", cases[0].ID)
	assert.Equal(t, 92.0, cases[0].Parameters["SR"])
	assert.NotEmpty(t, cases[1].ID)
	assert.Equal(t, "metallurgist", cases[1].Mode)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"cases": []}`), 0o600))
	_, err = Load(empty)
	assert.ErrorIs(t, err, ErrEmpty)
}
