package circuit

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexiusacademia/gosxcu/internal/equilibrium"
)

var (
	defaultFeed        = Feed{Flow: 400, Cu: 2.5, Acid: 1.6, OARatio: 1}
	defaultElectrolyte = Electrolyte{SpentCu: 30, SpentAcid: 190, AdvanceCu: 50}
)

func defaultDesign() DesignCase {
	return DesignCase{
		Feed:            defaultFeed,
		Electrolyte:     defaultElectrolyte,
		SaturationRatio: 92,
		MixerE1:         92,
		MixerE2:         95,
		MixerS1:         98,
	}
}

func defaultPlant() PlantCase {
	return PlantCase{
		Feed:            defaultFeed,
		Electrolyte:     defaultElectrolyte,
		PlantML:         4.386,
		MixerS1:         98,
		RaffinateTarget: 0.28,
		StrippedTarget:  1.8,
		Weights:         UnitWeights(),
	}
}

func TestLookup(t *testing.T) {
	require.Len(t, Topologies, 18)

	seen := map[string]bool{}
	for _, top := range Topologies {
		assert.False(t, seen[top.ID], "duplicate topology %s", top.ID)
		seen[top.ID] = true
	}

	top, err := Lookup(" a ")
	require.NoError(t, err)
	assert.Equal(t, "Series 2Ex1S", top.Name)
	assert.True(t, top.Implemented())

	_, err = Lookup("Z")
	assert.ErrorIs(t, err, ErrUnknownTopology)
}

func TestNew(t *testing.T) {
	n, err := New(DefaultTopology)
	require.NoError(t, err)
	assert.Equal(t, "A", n.Topology().ID)

	for _, id := range []string{"B", "C", "R"} {
		_, err := New(id)
		assert.ErrorIs(t, err, ErrNotImplemented, id)
	}
	_, err = New("S")
	assert.ErrorIs(t, err, ErrUnknownTopology)
}

func TestSeries2Ex1SProfile(t *testing.T) {
	n, err := New("A")
	require.NoError(t, err)

	op := defaultDesign().Operating(10)
	p, err := n.Evaluate(op)
	require.NoError(t, err)

	assert.InDelta(t, equilibrium.MaxLoadingCapacity(10)*0.92, p.LoadedOrganic, 1e-12)
	assert.InDelta(t, 0.23688782774, p.Raffinate, 1e-9)
	assert.InDelta(t, 2.49482017206, p.BarrenOrganic, 1e-9)
	assert.InDelta(t, 8.83738784367, p.StrippingOA, 1e-8)
	assert.InDelta(t, 1.33626082533, p.StrippedOrganic, 1e-8)
	assert.InDelta(t, -1.15855934672, p.Closure(), 1e-8)
	assert.False(t, p.Degenerate)

	e1, ok := p.Stage(StageE1)
	require.True(t, ok)
	e2, ok := p.Stage(StageE2)
	require.True(t, ok)
	s1, ok := p.Stage(StageS1)
	require.True(t, ok)

	assert.InDelta(t, 1.12547058301, e1.AqueousOut, 1e-9)
	assert.InDelta(t, 3.38340292733, e1.OrganicIn, 1e-9)

	// counter-current linkage
	assert.Equal(t, e1.AqueousOut, e2.AqueousIn)
	assert.Equal(t, e1.OrganicIn, e2.OrganicOut)
	assert.Equal(t, e1.OrganicOut, s1.OrganicIn)

	// copper leaving the aqueous equals copper gained by the organic
	assert.InDelta(t, (p.LoadedOrganic-p.BarrenOrganic)*op.Feed.OARatio, op.Feed.Cu-p.Raffinate, 1e-12)
	assert.InDelta(t, equilibrium.RaffinateAcid(1.6, 2.5, p.Raffinate), p.RaffinateAcid, 1e-12)
}

func TestSeries2Ex1SDegenerateStripping(t *testing.T) {
	var calls atomic.Int32
	n, err := New("A", WithDegenerateHook(func() { calls.Add(1) }))
	require.NoError(t, err)

	c := defaultDesign()
	c.MixerE1, c.MixerE2 = 0, 0 // no transfer: loaded and barren organic coincide
	p, err := n.Evaluate(c.Operating(10))
	require.NoError(t, err)

	assert.True(t, p.Degenerate)
	assert.Equal(t, 1.0, p.StrippingOA)
	assert.Equal(t, p.LoadedOrganic, p.BarrenOrganic)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSeries2Ex1SNonPhysical(t *testing.T) {
	n, err := New("A")
	require.NoError(t, err)

	op := defaultDesign().Operating(10)
	op.LoadedOrganic = 5.2
	_, err = n.Evaluate(op)
	require.ErrorIs(t, err, equilibrium.ErrNonPhysical)
	assert.Contains(t, err.Error(), StageE1)
}

func TestDesignerObjective(t *testing.T) {
	n, err := New("A")
	require.NoError(t, err)
	f := DesignerObjective(n, defaultDesign())

	at10, err := f([]float64{10})
	require.NoError(t, err)
	assert.InDelta(t, 1.15855934672, at10, 1e-8)

	atRoot, err := f([]float64{8.578820831996333})
	require.NoError(t, err)
	assert.Less(t, atRoot, 1e-9)

	again, err := f([]float64{10})
	require.NoError(t, err)
	assert.Equal(t, at10, again)
}

func TestMetallurgistObjective(t *testing.T) {
	n, err := New("A")
	require.NoError(t, err)
	c := defaultPlant()
	x := []float64{8.66, 92, 92, 95}

	r, p, err := PlantResiduals(n, c, x)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.InDelta(t, 0.00181007, r.MaxLoading, 1e-5)
	assert.InDelta(t, -0.0900766128, r.Raffinate, 1e-8)
	assert.InDelta(t, -0.0441746566, r.StrippedOrganic, 1e-8)

	got, err := MetallurgistObjective(n, c)(x)
	require.NoError(t, err)
	assert.InDelta(t, 0.13606134, got, 1e-5)
	assert.InDelta(t, r.Combine(UnitWeights()), got, 1e-15)

	c.Weights = Weights{MaxLoading: 0, Raffinate: 2, StrippedOrganic: 0}
	weighted, err := MetallurgistObjective(n, c)(x)
	require.NoError(t, err)
	assert.InDelta(t, 2*0.0900766128, weighted, 1e-8)
}
