package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexiusacademia/gosxcu/internal/circuit"
	"github.com/alexiusacademia/gosxcu/internal/solver"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "A", c.Topology)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, circuit.UnitWeights(), c.CircuitWeights())

	s, err := c.SolverSettings()
	require.NoError(t, err)
	assert.Equal(t, solver.DefaultSettings(), s)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeFile(t, "gosxcu.yaml", `
solver:
  ftol: 1e-10
  infeasible: abort
  timeout: 5s
weights:
  raffinate: 4
log:
  level: DEBUG
`)
	t.Setenv("GOSXCU_SOLVER_MAX_ITERATIONS", "250")
	t.Setenv("GOSXCU_TOPOLOGY", " b ")

	v := New()
	require.NoError(t, ReadFile(v, path))
	c, err := Load(v)
	require.NoError(t, err)

	s, err := c.SolverSettings()
	require.NoError(t, err)
	assert.Equal(t, 1e-10, s.FTol)
	assert.Equal(t, solver.Abort, s.Policy)
	assert.Equal(t, 5*time.Second, s.Runtime)
	assert.Equal(t, 250, s.MaxIterations)
	assert.Equal(t, 4.0, c.Weights.Raffinate)
	assert.Equal(t, 1.0, c.Weights.MaxLoading)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "B", c.Topology)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{name: "policy", key: "solver.infeasible", val: "retry"},
		{name: "tolerance", key: "solver.ftol", val: 0.0},
		{name: "negative weight", key: "weights.stripped_organic", val: -1.0},
		{name: "log format", key: "log.format", val: "xml"},
		{name: "topology", key: "topology", val: "Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New()
			v.Set(tt.key, tt.val)
			_, err := Load(v)
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsAllZeroWeights(t *testing.T) {
	v := New()
	v.Set("weights.max_loading", 0.0)
	v.Set("weights.raffinate", 0.0)
	v.Set("weights.stripped_organic", 0.0)
	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "residual weight")

	v.Set("weights.raffinate", 2.0)
	c, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, circuit.Weights{Raffinate: 2}, c.CircuitWeights())
}

func TestReadParameters(t *testing.T) {
	yml := writeFile(t, "case.yaml", "PLS_Cu: 2.5\nPLS_Ac: 1.6\ninitial_vv_guess: 10\n")
	p, err := ReadParameters(yml)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"PLS_Cu": 2.5, "PLS_Ac": 1.6, "initial_vv_guess": 10}, p)

	js := writeFile(t, "case.json", `{"PLS_Cu": 2.5, "SR": 92}`)
	p, err = ReadParameters(js)
	require.NoError(t, err)
	assert.Equal(t, 92.0, p["SR"])

	_, err = ReadParameters(writeFile(t, "case.toml", "PLS_Cu = 2.5"))
	assert.Error(t, err)

	_, err = ReadParameters(writeFile(t, "empty.yaml", "{}"))
	assert.Error(t, err)

	_, err = ReadParameters(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
