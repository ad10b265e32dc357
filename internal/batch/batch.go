// Package batch solves many plant cases against one engine with bounded parallelism.
package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/alexiusacademia/gosxcu/internal/config"
	"github.com/alexiusacademia/gosxcu/internal/engine"
)

// ErrEmpty is returned for a case file without cases.
var ErrEmpty = errors.New("batch holds no cases")

// Solver is the part of the engine a batch needs.
type Solver interface {
	Solve(ctx context.Context, mode engine.Mode, params map[string]float64) (map[string]any, error)
}

// Case is one solve request.
type Case struct {
	ID         string             `yaml:"id" json:"id"`
	Mode       string             `yaml:"mode" json:"mode"`
	Parameters map[string]float64 `yaml:"parameters" json:"parameters"`
}

// File is the on-disk layout of a batch.
type File struct {
	Cases []Case `yaml:"cases" json:"cases"`
}

// Outcome is the result of one case. Error is set instead of Result when the case failed.
type Outcome struct {
	ID      string         `json:"id"`
	Mode    string         `json:"mode"`
	Result  map[string]any `json:"result,omitempty"`
	Error   string         `json:"error,omitempty"`
	Elapsed time.Duration  `json:"elapsed_ns"`
}

// Failed reports whether the case produced no result.
func (o Outcome) Failed() bool { return o.Error != "" }

// Load reads a YAML or JSON batch file. Cases without an id get a random one.
func Load(path string) ([]Case, error) {
	var f File
	if err := config.ReadDocument(path, &f); err != nil {
		return nil, err
	}
	if len(f.Cases) == 0 {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrEmpty)
	}
	for i := range f.Cases {
		if f.Cases[i].ID == "" {
			f.Cases[i].ID = uuid.NewString()
		}
	}
	return f.Cases, nil
}

// Run solves every case, at most parallel at a time (parallel <= 0 means unlimited).
// Outcomes keep the order of cases. A failing case does not stop the others; only
// cancellation of ctx ends the batch early, in which case the context error is returned
// alongside the outcomes gathered so far.
func Run(ctx context.Context, s Solver, cases []Case, parallel int) ([]Outcome, error) {
	if len(cases) == 0 {
		return nil, ErrEmpty
	}

	ctx, span := otel.Tracer("github.com/alexiusacademia/gosxcu/internal/batch").Start(ctx, "batch.run",
		trace.WithAttributes(attribute.Int("sx.cases", len(cases)), attribute.Int("sx.parallel", parallel)))
	defer span.End()

	out := make([]Outcome, len(cases))
	g, ctx := errgroup.WithContext(ctx)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, c := range cases {
		id := c.ID
		if id == "" {
			id = uuid.NewString()
		}
		out[i] = Outcome{ID: id, Mode: c.Mode}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				out[i].Error = err.Error()
				return err
			}
			start := time.Now()
			res, err := solveCase(ctx, s, c)
			out[i].Elapsed = time.Since(start)
			if err != nil {
				out[i].Error = err.Error()
				return nil
			}
			out[i].Result = res
			return nil
		})
	}
	return out, g.Wait()
}

func solveCase(ctx context.Context, s Solver, c Case) (map[string]any, error) {
	mode, err := engine.ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}
	return s.Solve(ctx, mode, c.Parameters)
}

// Summary counts converged, unconverged and failed cases.
type Summary struct {
	Total        int
	Converged    int
	NotConverged int
	Failed       int
}

// Summarize tallies outcomes.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		switch {
		case o.Failed():
			s.Failed++
		case o.Result["success"] == true:
			s.Converged++
		default:
			s.NotConverged++
		}
	}
	return s
}
