package circuit

import (
	"fmt"
	"math"

	"github.com/alexiusacademia/gosxcu/internal/equilibrium"
)

// DesignCase fixes everything except the extractant strength.
type DesignCase struct {
	Feed            Feed
	Electrolyte     Electrolyte
	SaturationRatio float64 // %
	MixerE1         float64
	MixerE2         float64
	MixerS1         float64
}

// Operating places the design case at extractant strength vv, loading the organic to the
// saturation ratio of its AML.
func (c DesignCase) Operating(vv float64) Operating {
	return Operating{
		Feed:          c.Feed,
		Electrolyte:   c.Electrolyte,
		VV:            vv,
		LoadedOrganic: equilibrium.MaxLoadingCapacity(vv) * c.SaturationRatio / 100,
		MixerE1:       c.MixerE1,
		MixerE2:       c.MixerE2,
		MixerS1:       c.MixerS1,
	}
}

// DesignerObjective returns |stripped organic - barren organic| as a function of x = [v/v%].
func DesignerObjective(n Network, c DesignCase) func(x []float64) (float64, error) {
	return func(x []float64) (float64, error) {
		p, err := n.Evaluate(c.Operating(x[0]))
		if err != nil {
			return 0, err
		}
		return math.Abs(p.Closure()), nil
	}
}

// Weights scale the three plant residuals before they are summed. The residuals are in g/L of
// different phases, so unit weights are a convention rather than a balanced choice.
type Weights struct {
	MaxLoading      float64
	Raffinate       float64
	StrippedOrganic float64
}

// UnitWeights returns weights of one for every residual.
func UnitWeights() Weights {
	return Weights{MaxLoading: 1, Raffinate: 1, StrippedOrganic: 1}
}

// PlantCase holds plant measurements used to back-calculate operating settings.
type PlantCase struct {
	Feed            Feed
	Electrolyte     Electrolyte
	PlantML         float64 // measured maximum loading, g/L
	MixerS1         float64
	RaffinateTarget float64 // g/L
	StrippedTarget  float64 // g/L
	Weights         Weights
}

// Operating places the plant case at x = [v/v%, SR, Mef1e, Mef2e].
func (c PlantCase) Operating(x []float64) Operating {
	return Operating{
		Feed:          c.Feed,
		Electrolyte:   c.Electrolyte,
		VV:            x[0],
		LoadedOrganic: c.PlantML * x[1] / 100,
		MixerE1:       x[2],
		MixerE2:       x[3],
		MixerS1:       c.MixerS1,
	}
}

// Residuals are the signed plant mismatches at one point.
type Residuals struct {
	MaxLoading      float64 // measured ML - model ML
	Raffinate       float64 // model raffinate - target
	StrippedOrganic float64 // model stripped organic - target
}

// Combine collapses the residuals into the weighted sum of their magnitudes.
func (r Residuals) Combine(w Weights) float64 {
	return w.MaxLoading*math.Abs(r.MaxLoading) +
		w.Raffinate*math.Abs(r.Raffinate) +
		w.StrippedOrganic*math.Abs(r.StrippedOrganic)
}

// PlantResiduals evaluates the network at x and compares it with the plant measurements.
// The model maximum loading is the PLS equilibrium ML at AML(v/v%), so that residual depends on
// the feed and x[0] only and not on SR or the mixer efficiencies.
func PlantResiduals(n Network, c PlantCase, x []float64) (Residuals, *Profile, error) {
	p, err := n.Evaluate(c.Operating(x))
	if err != nil {
		return Residuals{}, nil, err
	}
	vv := x[0]
	ml, err := equilibrium.MaxLoading(c.Feed.Acid, c.Feed.Cu, vv, equilibrium.MaxLoadingCapacity(vv))
	if err != nil {
		return Residuals{}, nil, fmt.Errorf("maximum loading: %w", err)
	}
	return Residuals{
		MaxLoading:      c.PlantML - ml,
		Raffinate:       p.Raffinate - c.RaffinateTarget,
		StrippedOrganic: p.StrippedOrganic - c.StrippedTarget,
	}, p, nil
}

// MetallurgistObjective returns the weighted plant residual as a function of
// x = [v/v%, SR, Mef1e, Mef2e].
func MetallurgistObjective(n Network, c PlantCase) func(x []float64) (float64, error) {
	return func(x []float64) (float64, error) {
		r, _, err := PlantResiduals(n, c, x)
		if err != nil {
			return 0, err
		}
		return r.Combine(c.Weights), nil
	}
}
