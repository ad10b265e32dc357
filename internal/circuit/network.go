// Package circuit chains the equilibrium relations across the mixer-settlers of a plant
// topology and turns the resulting steady-state profile into solver objectives.
package circuit

import (
	"go.uber.org/zap"
)

// Network computes the steady-state concentration profile of one plant topology.
// Implementations hold no mutable state and are safe for concurrent use.
type Network interface {
	Topology() Topology
	Evaluate(op Operating) (*Profile, error)
}

// Feed is the pregnant leach solution entering extraction.
type Feed struct {
	Flow    float64 // m³/h
	Cu      float64 // g/L
	Acid    float64 // g/L free H2SO4
	OARatio float64 // organic/aqueous in extraction
}

// Electrolyte is the tankhouse stream contacted in stripping.
type Electrolyte struct {
	SpentCu   float64 // g/L
	SpentAcid float64 // g/L
	AdvanceCu float64 // g/L
}

// Operating is one point of the circuit: the fixed streams plus the settings a solve varies.
type Operating struct {
	Feed        Feed
	Electrolyte Electrolyte

	VV            float64 // extractant v/v%
	LoadedOrganic float64 // g/L leaving the first extraction stage
	MixerE1       float64 // %
	MixerE2       float64 // %
	MixerS1       float64 // %
}

// StageState is what one mixer-settler sees during a single evaluation.
type StageState struct {
	Name        string
	OrganicIn   float64
	OrganicOut  float64
	AqueousIn   float64
	AqueousOut  float64
	AcidIn      float64
	AcidOut     float64
	Equilibrium float64 // aqueous copper at equilibrium with OrganicOut
	Efficiency  float64 // %
	OARatio     float64
}

// Profile is the steady-state solution of a network at one operating point.
type Profile struct {
	Topology string
	VV       float64
	AML      float64

	LoadedOrganic   float64 // organic leaving extraction
	BarrenOrganic   float64 // organic that must enter extraction to close the extraction balance
	StrippedOrganic float64 // organic actually leaving stripping
	Raffinate       float64
	RaffinateAcid   float64
	StrippingOA     float64
	Electrolyte     float64 // copper in the electrolyte leaving stripping

	// Degenerate is set when the stripping O/A balance had no copper to move and fell back to 1.
	Degenerate bool

	Stages []StageState
}

// Closure is the mismatch between the organic stripping returns and the organic extraction
// needs. It is zero when the circuit is in mass balance.
func (p *Profile) Closure() float64 {
	return p.StrippedOrganic - p.BarrenOrganic
}

// Stage returns the state of the named stage.
func (p *Profile) Stage(name string) (StageState, bool) {
	for _, s := range p.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return StageState{}, false
}

// Option configures a network built by New.
type Option func(*options)

type options struct {
	log          *zap.Logger
	onDegenerate func()
}

func defaultOptions() options {
	return options{log: zap.NewNop(), onDegenerate: func() {}}
}

// WithLogger sets the logger used for mass-balance diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithDegenerateHook registers a callback run each time the stripping balance falls back.
// It may be called from several goroutines at once.
func WithDegenerateHook(fn func()) Option {
	return func(o *options) {
		if fn != nil {
			o.onDegenerate = fn
		}
	}
}
