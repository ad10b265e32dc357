package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.SolveFinished("designer", "converged", 40, 2*time.Millisecond)
	c.SolveFinished("designer", "converged", 38, time.Millisecond)
	c.SolveFinished("metallurgist", "not_converged", 900, 20*time.Millisecond)
	c.DegenerateBalance()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.solves.WithLabelValues("designer", "converged")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.solves.WithLabelValues("metallurgist", "not_converged")))
	assert.Equal(t, 78.0, testutil.ToFloat64(c.evaluations.WithLabelValues("designer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.degenerate))
	assert.Equal(t, 2, testutil.CollectAndCount(c.duration))
}

func TestWriteFile(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)
	c.SolveFinished("designer", "converged", 10, time.Millisecond)

	path := filepath.Join(t.TempDir(), "solves.prom")
	require.NoError(t, WriteFile(path, reg))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), `gosxcu_solves_total{mode="designer",outcome="converged"} 1`)
	assert.Contains(t, string(body), "gosxcu_solve_duration_seconds_bucket")
}
