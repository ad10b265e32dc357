// Package equilibrium holds the closed-form copper distribution relations between the aqueous
// and organic phases of a Lix984N solvent-extraction circuit.
//
// Every function is pure: the same inputs always give the same output and nothing is cached.
// Concentrations are in g/L, extractant strength in v/v% and recoveries in percent (0-100).
package equilibrium

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrNonPhysical is returned when an isotherm has no real, positive solution for the inputs.
	ErrNonPhysical = errors.New("non-physical equilibrium")
	// ErrUndefined is returned when a relation would divide by zero.
	ErrUndefined = errors.New("undefined relation")
)

const (
	// mlTolerance is the bracket width at which MaxLoading stops bisecting.
	mlTolerance = 1e-12
	// mlMaxIter caps the bisection; the bracket shrinks below mlTolerance long before.
	mlMaxIter = 200
)

// MaxLoadingCapacity returns AML, the organic copper loading at zero free acid.
// AML = 0.4108 * (v/v%)^1.1, and 0 when v/v% is not positive.
func MaxLoadingCapacity(vv float64) float64 {
	if vv <= 0 {
		return 0
	}
	return AMLFactor * math.Pow(vv, AMLExponent)
}

// ExtractionEquilibrium returns the aqueous copper concentration in equilibrium with an
// organic phase loaded to organicCu, for an aqueous feed of plsCu copper and plsAc free acid.
func ExtractionEquilibrium(plsCu, plsAc, vv, organicCu float64) (float64, error) {
	inner, err := extractionInner(vv, organicCu)
	if err != nil {
		return 0, err
	}
	return solveQuadratic(plsCu, plsAc, inner)
}

// StrippingEquilibrium returns the aqueous copper concentration of an electrolyte holding spCu
// copper and spAc acid once in equilibrium with organic loaded to organicCu.
func StrippingEquilibrium(spCu, spAc, vv, organicCu float64) (float64, error) {
	if err := checkIsothermArgs(vv, organicCu); err != nil {
		return 0, err
	}
	corr := (StrSlopeVV*vv+StrSlopeOff)*organicCu + StrFreeFac*math.Pow(vv, StrFreeExp)
	return solveQuadratic(spCu, spAc, corr*ratioTerm(vv, organicCu))
}

// MaxLoading returns ML, the organic loading in steady state with the PLS.
// It is the loading in (0, aml] at which the extraction isotherm term equals plsAc²/plsCu.
// The residual tends to -Inf as the loading approaches zero and is positive at AML, so a
// root is always bracketed.
func MaxLoading(plsAc, plsCu, vv, aml float64) (float64, error) {
	if plsCu <= 0 {
		return 0, fmt.Errorf("%w: PLS copper %.4g must be positive", ErrUndefined, plsCu)
	}
	if vv <= 0 || aml <= 0 {
		return 0, fmt.Errorf("%w: v/v%% %.4g and AML %.4g must be positive", ErrUndefined, vv, aml)
	}

	target := plsAc * plsAc / plsCu
	lo, hi := 0.0, aml
	for i := 0; i < mlMaxIter && hi-lo > mlTolerance; i++ {
		mid := 0.5 * (lo + hi)
		inner, err := extractionInner(vv, mid)
		if err != nil {
			return 0, err
		}
		if inner-target > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return 0.5 * (lo + hi), nil
}

// ExtractionRecovery returns the share of feed copper reporting to the organic, in percent.
func ExtractionRecovery(feedCu, raffinateCu float64) (float64, error) {
	if feedCu == 0 {
		return 0, fmt.Errorf("%w: extraction recovery with zero feed copper", ErrUndefined)
	}
	return (feedCu - raffinateCu) / feedCu * 100, nil
}

// StrippingRecovery returns the share of loaded organic copper removed in stripping, in percent.
func StrippingRecovery(loadedCu, strippedCu float64) (float64, error) {
	if loadedCu == 0 {
		return 0, fmt.Errorf("%w: stripping recovery with zero loaded organic", ErrUndefined)
	}
	return (loadedCu - strippedCu) / loadedCu * 100, nil
}

// CascadeRecovery returns the extraction recovery of mixers in series when each one closes its
// stated efficiency of the gap to a copper-free raffinate, in percent. It is the ceiling no
// extractant strength can beat for those efficiencies.
func CascadeRecovery(efficiencies ...float64) float64 {
	left := 1.0
	for _, e := range efficiencies {
		left *= 1 - e/100
	}
	return (1 - left) * 100
}

// NetTransfer returns the copper carried per percent of extractant, in g/L per v/v%.
func NetTransfer(loadedCu, strippedCu, vv float64) (float64, error) {
	if vv == 0 {
		return 0, fmt.Errorf("%w: net transfer at zero v/v%%", ErrUndefined)
	}
	return (loadedCu - strippedCu) / vv, nil
}

// RaffinateAcid returns the free acid of an aqueous stream after copper extraction lowered its
// copper from plsCu to raffinateCu.
func RaffinateAcid(plsAc, plsCu, raffinateCu float64) float64 {
	return plsAc + AcidPerCopper*(plsCu-raffinateCu)
}

func extractionInner(vv, organicCu float64) (float64, error) {
	if err := checkIsothermArgs(vv, organicCu); err != nil {
		return 0, err
	}
	corr := ExtOrgFactor*math.Pow(vv, ExtOrgExp)*organicCu + ExtFreeFac*math.Pow(vv, ExtFreeExp)
	return corr * ratioTerm(vv, organicCu), nil
}

func checkIsothermArgs(vv, organicCu float64) error {
	if vv <= 0 {
		return fmt.Errorf("%w: v/v%% %.4g must be positive", ErrUndefined, vv)
	}
	if organicCu <= 0 || math.IsNaN(organicCu) {
		return fmt.Errorf("%w: organic copper %.4g g/L is not positive", ErrNonPhysical, organicCu)
	}
	return nil
}

// ratioTerm is (3.303*v - 3.0842*c)^2 / c.
func ratioTerm(vv, organicCu float64) float64 {
	r := RatioVV*vv - RatioOrg*organicCu
	return r * r / organicCu
}

// solveQuadratic returns the lower root of x² + A·x + (0.644·ac + cu)² = 0 with
// A = -1.299·ac - 2·cu - 0.422·inner. The upper root exceeds the feed and is discarded.
func solveQuadratic(cu, ac, inner float64) (float64, error) {
	a := -AcidCoef*ac - CuCoef*cu - InnerCoef*inner
	c := AcidEquiv*ac + cu
	disc := a*a - 4*c*c
	if disc < 0 || math.IsNaN(disc) {
		return 0, fmt.Errorf("%w: negative discriminant %.6g", ErrNonPhysical, disc)
	}
	return (-a - math.Sqrt(disc)) / 2, nil
}
