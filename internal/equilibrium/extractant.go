package equilibrium

// Extractant describes the organic reagent the empirical correlations were fitted for.
type Extractant struct {
	Name            string
	Density         float64 // kg/L
	MolecularWeight float64 // g/mol
}

// Lix984N is the only extractant the correlations in this package are calibrated against.
var Lix984N = Extractant{
	Name:            "Lix984N",
	Density:         0.89,
	MolecularWeight: 360,
}

// Lix984N correlation coefficients

const (
	// Maximum loading capacity at zero free acid: AML = AMLFactor * (v/v%)^AMLExponent
	AMLFactor   = 0.4108
	AMLExponent = 1.1

	// Shared squared-ratio term (a*v - b*c)^2 / c
	RatioVV  = 3.303
	RatioOrg = 3.0842

	// Extraction isotherm correction
	ExtOrgFactor = -28.511
	ExtOrgExp    = -1.746
	ExtFreeFac   = 11.711
	ExtFreeExp   = -0.646

	// Stripping isotherm correction
	StrSlopeVV  = 4.8579 / 1000
	StrSlopeOff = -0.19183
	StrFreeFac  = 11.365
	StrFreeExp  = -0.85

	// Quadratic mass-action coefficients
	AcidCoef  = 1.299
	CuCoef    = 2.0
	InnerCoef = 0.422
	AcidEquiv = 0.644

	// AcidPerCopper is the sulphuric acid regenerated per unit copper extracted (g/L per g/L).
	AcidPerCopper = 1.54
)
