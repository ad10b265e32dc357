package engine

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/alexiusacademia/gosxcu/internal/circuit"
	"github.com/alexiusacademia/gosxcu/internal/equilibrium"
)

// Sheet is the plant summary at one operating point.
type Sheet struct {
	VV                 float64 // v/v%
	AML                float64 // g/L
	ML                 float64 // g/L
	LoadedOrganic      float64 // g/L
	StrippedOrganic    float64 // g/L
	RaffinateCu        float64 // g/L
	RaffinateAcid      float64 // g/L
	ExtractionRecovery float64 // %
	StrippingRecovery  float64 // %
	NetTransfer        float64 // g/L per v/v%
	OrganicFlow        float64 // m³/h
	StrippingOA        float64
	ElectrolyteFlow    float64 // m³/h
	Saturation         float64 // % of ML
	Closure            float64 // stripped - barren organic, g/L
}

// Map flattens the sheet using the parameter naming of the solve mapping.
func (s *Sheet) Map() map[string]float64 {
	return map[string]float64{
		"v_v_percent":         s.VV,
		"AML":                 s.AML,
		"ML":                  s.ML,
		"loaded_organic":      s.LoadedOrganic,
		"stripped_organic":    s.StrippedOrganic,
		"raffinate_Cu":        s.RaffinateCu,
		"raffinate_Ac":        s.RaffinateAcid,
		"extraction_recovery": s.ExtractionRecovery,
		"stripping_recovery":  s.StrippingRecovery,
		"net_transfer":        s.NetTransfer,
		"organic_flow":        s.OrganicFlow,
		"O_A_Str":             s.StrippingOA,
		"electrolyte_flow":    s.ElectrolyteFlow,
		"saturation":          s.Saturation,
		"closure":             s.Closure,
	}
}

func buildSheet(p *circuit.Profile, op circuit.Operating) (*Sheet, error) {
	f := op.Feed
	ml, err := equilibrium.MaxLoading(f.Acid, f.Cu, p.VV, p.AML)
	if err != nil {
		return nil, fmt.Errorf("maximum loading: %w", err)
	}
	extRec, err := equilibrium.ExtractionRecovery(f.Cu, p.Raffinate)
	if err != nil {
		return nil, err
	}
	strRec, err := equilibrium.StrippingRecovery(p.LoadedOrganic, p.StrippedOrganic)
	if err != nil {
		return nil, err
	}
	net, err := equilibrium.NetTransfer(p.LoadedOrganic, p.StrippedOrganic, p.VV)
	if err != nil {
		return nil, err
	}

	orgFlow := f.Flow * f.OARatio
	return &Sheet{
		VV:                 p.VV,
		AML:                p.AML,
		ML:                 ml,
		LoadedOrganic:      p.LoadedOrganic,
		StrippedOrganic:    p.StrippedOrganic,
		RaffinateCu:        p.Raffinate,
		RaffinateAcid:      p.RaffinateAcid,
		ExtractionRecovery: extRec,
		StrippingRecovery:  strRec,
		NetTransfer:        net,
		OrganicFlow:        orgFlow,
		StrippingOA:        p.StrippingOA,
		ElectrolyteFlow:    orgFlow / p.StrippingOA,
		Saturation:         p.LoadedOrganic / ml * 100,
		Closure:            p.Closure(),
	}, nil
}

// Simulate evaluates the circuit once at fixed settings, with the organic loaded to SR% of AML.
func (e *Engine) Simulate(ctx context.Context, p SimulationParams) (*Sheet, *circuit.Profile, error) {
	_, span := e.tracer.Start(ctx, "engine.simulate", trace.WithAttributes(
		attribute.String("sx.topology", e.network.Topology().ID),
		attribute.Float64("sx.vv", p.VV),
	))
	defer span.End()

	sheet, prof, err := e.simulate(p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}
	return sheet, prof, nil
}

func (e *Engine) simulate(p SimulationParams) (*Sheet, *circuit.Profile, error) {
	if err := Validate(p); err != nil {
		return nil, nil, err
	}
	op := p.designCase().Operating(p.VV)
	prof, err := e.network.Evaluate(op)
	if err != nil {
		return nil, nil, fmt.Errorf("simulate at %.4g v/v%%: %w", p.VV, err)
	}
	sheet, err := buildSheet(prof, op)
	if err != nil {
		return nil, nil, fmt.Errorf("simulate at %.4g v/v%%: %w", p.VV, err)
	}
	return sheet, prof, nil
}

// SimulateMap decodes a flat mapping and returns the flat sheet.
func (e *Engine) SimulateMap(ctx context.Context, params map[string]float64) (map[string]float64, error) {
	var p SimulationParams
	if err := e.decode("simulate", params, &p); err != nil {
		return nil, err
	}
	sheet, _, err := e.Simulate(ctx, p)
	if err != nil {
		return nil, err
	}
	return sheet.Map(), nil
}
