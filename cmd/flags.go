package cmd

import (
	"github.com/spf13/pflag"

	"github.com/alexiusacademia/gosxcu/internal/config"
)

// streamFlags are the feed and electrolyte settings shared by every circuit command.
type streamFlags struct {
	plsFlow float64
	plsCu   float64
	plsAc   float64
	oaExt   float64
	spCu    float64
	spAc    float64
	adCu    float64
	mef1s   float64

	paramsFile string
}

func (f *streamFlags) register(fs *pflag.FlagSet) {
	// Feed
	fs.Float64Var(&f.plsFlow, "pls-flow", 400, "PLS flow (m³/h)")
	fs.Float64Var(&f.plsCu, "pls-cu", 2.5, "PLS copper (g/L)")
	fs.Float64Var(&f.plsAc, "pls-ac", 1.6, "PLS free acid (g/L)")
	fs.Float64Var(&f.oaExt, "oa-ext", 1, "O/A ratio in extraction")

	// Electrolyte
	fs.Float64Var(&f.spCu, "sp-cu", 30, "Spent electrolyte copper (g/L)")
	fs.Float64Var(&f.spAc, "sp-ac", 190, "Spent electrolyte acid (g/L)")
	fs.Float64Var(&f.adCu, "ad-cu", 50, "Advance electrolyte copper (g/L)")
	fs.Float64Var(&f.mef1s, "mef1s", 98, "Stripping mixer efficiency S1 (%)")

	fs.StringVarP(&f.paramsFile, "params", "p", "", "Parameter file (yaml or json); its keys override the flags")
}

// mapping returns the stream keys plus extra, overlaid with the parameter file if one was given.
func (f *streamFlags) mapping(extra map[string]float64) (map[string]float64, error) {
	m := map[string]float64{
		"PLS_flow": f.plsFlow,
		"PLS_Cu":   f.plsCu,
		"PLS_Ac":   f.plsAc,
		"O_A_Ext":  f.oaExt,
		"SP_Cu":    f.spCu,
		"SP_Ac":    f.spAc,
		"AD_Cu":    f.adCu,
		"Mef1s":    f.mef1s,
	}
	for k, v := range extra {
		m[k] = v
	}
	if f.paramsFile == "" {
		return m, nil
	}
	file, err := config.ReadParameters(f.paramsFile)
	if err != nil {
		return nil, err
	}
	for k, v := range file {
		m[k] = v
	}
	return m, nil
}
