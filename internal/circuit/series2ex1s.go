package circuit

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/alexiusacademia/gosxcu/internal/equilibrium"
)

// Stage names used in profiles.
const (
	StageE1 = "E1"
	StageE2 = "E2"
	StageS1 = "S1"
)

// degenerateStripOA is the stripping O/A used when loaded and barren organic coincide.
const degenerateStripOA = 1.0

// series2Ex1S is configuration A: two extraction stages in series and one stripping stage.
//
// Aqueous runs E1 -> E2, organic runs S1 -> E2 -> E1 -> S1. Each mixer's aqueous product is
// taken at equilibrium with the organic leaving that mixer, then blended toward the incoming
// aqueous according to the mixer efficiency.
type series2Ex1S struct {
	topology Topology
	log      *zap.Logger
	onDegen  func()
}

func newSeries2Ex1S(t Topology, o options) Network {
	return &series2Ex1S{topology: t, log: o.log, onDegen: o.onDegenerate}
}

func (n *series2Ex1S) Topology() Topology {
	return n.topology
}

func (n *series2Ex1S) Evaluate(op Operating) (*Profile, error) {
	f, el := op.Feed, op.Electrolyte
	vv, lo := op.VV, op.LoadedOrganic

	// E1: PLS meets the loaded organic on its way out.
	ceq1, err := equilibrium.ExtractionEquilibrium(f.Cu, f.Acid, vv, lo)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", StageE1, err)
	}
	r1 := f.Cu - op.MixerE1/100*(f.Cu-ceq1)
	c1 := lo - (f.Cu-r1)/f.OARatio
	ac1 := equilibrium.RaffinateAcid(f.Acid, f.Cu, r1)

	// E2: E1 raffinate meets the barren organic, which leaves toward E1 at c1.
	ceq2, err := equilibrium.ExtractionEquilibrium(r1, ac1, vv, c1)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", StageE2, err)
	}
	r2 := r1 - op.MixerE2/100*(r1-ceq2)
	c2 := c1 - (r1-r2)/f.OARatio
	ac2 := equilibrium.RaffinateAcid(f.Acid, f.Cu, r2)

	// Stripping O/A from the copper the tankhouse takes out of the electrolyte.
	degenerate := false
	oaStrip := degenerateStripOA
	if transfer := lo - c2; transfer != 0 {
		oaStrip = (el.AdvanceCu - el.SpentCu) / transfer
	} else {
		degenerate = true
		n.onDegen()
		n.log.Debug("stripping balance degenerate, using fallback O/A",
			zap.Float64("vv", vv),
			zap.Float64("loadedOrganic", lo),
			zap.Float64("fallbackOA", degenerateStripOA))
	}

	// S1: spent electrolyte against the organic returned to extraction.
	seq, err := equilibrium.StrippingEquilibrium(el.SpentCu, el.SpentAcid, vv, c2)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", StageS1, err)
	}
	eqStripped := lo - (seq-el.SpentCu)/oaStrip
	stripped := op.MixerS1/100*eqStripped + (1-op.MixerS1/100)*lo
	advance := el.SpentCu + (lo-stripped)*oaStrip

	return &Profile{
		Topology:        n.topology.ID,
		VV:              vv,
		AML:             equilibrium.MaxLoadingCapacity(vv),
		LoadedOrganic:   lo,
		BarrenOrganic:   c2,
		StrippedOrganic: stripped,
		Raffinate:       r2,
		RaffinateAcid:   ac2,
		StrippingOA:     oaStrip,
		Electrolyte:     advance,
		Degenerate:      degenerate,
		Stages: []StageState{
			{
				Name: StageE1, OrganicIn: c1, OrganicOut: lo,
				AqueousIn: f.Cu, AqueousOut: r1, AcidIn: f.Acid, AcidOut: ac1,
				Equilibrium: ceq1, Efficiency: op.MixerE1, OARatio: f.OARatio,
			},
			{
				Name: StageE2, OrganicIn: c2, OrganicOut: c1,
				AqueousIn: r1, AqueousOut: r2, AcidIn: ac1, AcidOut: ac2,
				Equilibrium: ceq2, Efficiency: op.MixerE2, OARatio: f.OARatio,
			},
			{
				Name: StageS1, OrganicIn: lo, OrganicOut: stripped,
				AqueousIn: el.SpentCu, AqueousOut: advance,
				AcidIn: el.SpentAcid, AcidOut: el.SpentAcid - equilibrium.AcidPerCopper*(advance-el.SpentCu),
				Equilibrium: seq, Efficiency: op.MixerS1, OARatio: oaStrip,
			},
		},
	}, nil
}
