package engine

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"

	"github.com/alexiusacademia/gosxcu/internal/circuit"
	"github.com/alexiusacademia/gosxcu/internal/solver"
)

// ErrInvalidParameter is returned before any computation when the input cannot be solved.
var ErrInvalidParameter = errors.New("invalid parameter")

// ValidationError lists every problem found in one parameter set.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid parameters: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidParameter
}

// Mode selects which unknowns a solve looks for.
type Mode string

const (
	// Designer finds the extractant strength that closes the circuit mass balance.
	Designer Mode = "designer"
	// Metallurgist back-calculates v/v%, saturation ratio and extraction mixer efficiencies
	// from plant measurements.
	Metallurgist Mode = "metallurgist"
)

// ParseMode maps a caller-supplied name onto a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case Designer, Metallurgist:
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidParameter, s)
}

// Decision-variable boxes.
var (
	VVBounds         = solver.Bound{Lower: 5, Upper: 30}
	SaturationBounds = solver.Bound{Lower: 70, Upper: 100}
	MixerBounds      = solver.Bound{Lower: 70, Upper: 100}
)

// DesignerParams are the inputs of a designer solve.
type DesignerParams struct {
	PLSFlow   float64 `mapstructure:"PLS_flow" validate:"gte=0"`
	PLSCu     float64 `mapstructure:"PLS_Cu" validate:"gt=0"`
	PLSAc     float64 `mapstructure:"PLS_Ac" validate:"gte=0"`
	SR        float64 `mapstructure:"SR" validate:"gt=0,lte=100"`
	OAExt     float64 `mapstructure:"O_A_Ext" validate:"gt=0"`
	Mef1e     float64 `mapstructure:"Mef1e" validate:"gte=0,lte=100"`
	Mef2e     float64 `mapstructure:"Mef2e" validate:"gte=0,lte=100"`
	SPCu      float64 `mapstructure:"SP_Cu" validate:"gte=0"`
	SPAc      float64 `mapstructure:"SP_Ac" validate:"gte=0"`
	ADCu      float64 `mapstructure:"AD_Cu" validate:"gtfield=SPCu"`
	Mef1s     float64 `mapstructure:"Mef1s" validate:"gte=0,lte=100"`
	InitialVV float64 `mapstructure:"initial_vv_guess" validate:"gt=0"`
}

func (p DesignerParams) start() []float64 { return []float64{p.InitialVV} }

func (p DesignerParams) bounds() []solver.Bound { return []solver.Bound{VVBounds} }

func (p DesignerParams) designCase() circuit.DesignCase {
	return circuit.DesignCase{
		Feed:            circuit.Feed{Flow: p.PLSFlow, Cu: p.PLSCu, Acid: p.PLSAc, OARatio: p.OAExt},
		Electrolyte:     circuit.Electrolyte{SpentCu: p.SPCu, SpentAcid: p.SPAc, AdvanceCu: p.ADCu},
		SaturationRatio: p.SR,
		MixerE1:         p.Mef1e,
		MixerE2:         p.Mef2e,
		MixerS1:         p.Mef1s,
	}
}

// MetallurgistParams are the inputs of a metallurgist solve.
type MetallurgistParams struct {
	PLSFlow         float64 `mapstructure:"PLS_flow" validate:"gte=0"`
	PLSCu           float64 `mapstructure:"PLS_Cu" validate:"gt=0"`
	PLSAc           float64 `mapstructure:"PLS_Ac" validate:"gte=0"`
	OAExt           float64 `mapstructure:"O_A_Ext" validate:"gt=0"`
	MLPlant         float64 `mapstructure:"ML_plant" validate:"gt=0"`
	SPCu            float64 `mapstructure:"SP_Cu" validate:"gte=0"`
	SPAc            float64 `mapstructure:"SP_Ac" validate:"gte=0"`
	ADCu            float64 `mapstructure:"AD_Cu" validate:"gtfield=SPCu"`
	Mef1s           float64 `mapstructure:"Mef1s" validate:"gte=0,lte=100"`
	RaffinateTarget float64 `mapstructure:"raffinate_Cu_target" validate:"gte=0"`
	StrippedTarget  float64 `mapstructure:"stripped_organic_Cu_target" validate:"gte=0"`
	InitialVV       float64 `mapstructure:"initial_guess_vv" validate:"gt=0"`
	InitialSR       float64 `mapstructure:"initial_guess_sr" validate:"gt=0"`
	InitialMef1e    float64 `mapstructure:"initial_guess_mef1e" validate:"gt=0"`
	InitialMef2e    float64 `mapstructure:"initial_guess_mef2e" validate:"gt=0"`
}

func (p MetallurgistParams) start() []float64 {
	return []float64{p.InitialVV, p.InitialSR, p.InitialMef1e, p.InitialMef2e}
}

func (p MetallurgistParams) bounds() []solver.Bound {
	return []solver.Bound{VVBounds, SaturationBounds, MixerBounds, MixerBounds}
}

func (p MetallurgistParams) plantCase(w circuit.Weights) circuit.PlantCase {
	return circuit.PlantCase{
		Feed:            circuit.Feed{Flow: p.PLSFlow, Cu: p.PLSCu, Acid: p.PLSAc, OARatio: p.OAExt},
		Electrolyte:     circuit.Electrolyte{SpentCu: p.SPCu, SpentAcid: p.SPAc, AdvanceCu: p.ADCu},
		PlantML:         p.MLPlant,
		MixerS1:         p.Mef1s,
		RaffinateTarget: p.RaffinateTarget,
		StrippedTarget:  p.StrippedTarget,
		Weights:         w,
	}
}

// SimulationParams fix every setting of the circuit for a forward evaluation.
type SimulationParams struct {
	PLSFlow float64 `mapstructure:"PLS_flow" validate:"gte=0"`
	PLSCu   float64 `mapstructure:"PLS_Cu" validate:"gt=0"`
	PLSAc   float64 `mapstructure:"PLS_Ac" validate:"gte=0"`
	SR      float64 `mapstructure:"SR" validate:"gt=0,lte=100"`
	OAExt   float64 `mapstructure:"O_A_Ext" validate:"gt=0"`
	Mef1e   float64 `mapstructure:"Mef1e" validate:"gte=0,lte=100"`
	Mef2e   float64 `mapstructure:"Mef2e" validate:"gte=0,lte=100"`
	SPCu    float64 `mapstructure:"SP_Cu" validate:"gte=0"`
	SPAc    float64 `mapstructure:"SP_Ac" validate:"gte=0"`
	ADCu    float64 `mapstructure:"AD_Cu" validate:"gtfield=SPCu"`
	Mef1s   float64 `mapstructure:"Mef1s" validate:"gte=0,lte=100"`
	VV      float64 `mapstructure:"v_v_percent" validate:"gt=0"`
}

func (p SimulationParams) designCase() circuit.DesignCase {
	return DesignerParams{
		PLSFlow: p.PLSFlow, PLSCu: p.PLSCu, PLSAc: p.PLSAc, SR: p.SR, OAExt: p.OAExt,
		Mef1e: p.Mef1e, Mef2e: p.Mef2e, SPCu: p.SPCu, SPAc: p.SPAc, ADCu: p.ADCu, Mef1s: p.Mef1s,
	}.designCase()
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("mapstructure")
	})
	return v
}

// Validate range-checks a typed parameter record.
func Validate(params any) error {
	err := validate.Struct(params)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fe))
	}
	return &ValidationError{Problems: problems}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gt":
		return fmt.Sprintf("%s must be greater than %s, got %v", fe.Field(), fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be at least %s, got %v", fe.Field(), fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s must be at most %s, got %v", fe.Field(), fe.Param(), fe.Value())
	case "gtfield":
		return fmt.Sprintf("%s must exceed %s, got %v", fe.Field(), fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}

// Decode fills out from a flat parameter mapping. Every field of out is required; keys with
// no matching field are returned so the caller can report them.
func Decode(params map[string]float64, out any) ([]string, error) {
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:     out,
		Metadata:   &md,
		ErrorUnset: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	sort.Strings(md.Unused)
	return md.Unused, nil
}

// checkStart rejects initial guesses outside the decision box.
func checkStart(x []float64, b []solver.Bound, names []string) error {
	var problems []string
	for i := range x {
		if x[i] < b[i].Lower || x[i] > b[i].Upper {
			problems = append(problems, fmt.Sprintf("%s %g outside [%g, %g]", names[i], x[i], b[i].Lower, b[i].Upper))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
