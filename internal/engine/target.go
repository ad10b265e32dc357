package engine

import (
	"errors"
	"fmt"

	"github.com/alexiusacademia/gosxcu/internal/equilibrium"
)

// ErrUnattainableTarget is returned when the extraction mixers cannot reach a recovery target
// at any extractant strength.
var ErrUnattainableTarget = errors.New("unattainable recovery target")

// CheckRecoveryTarget compares a target extraction recovery (%) with the ceiling the two
// extraction mixers allow and returns that ceiling.
func CheckRecoveryTarget(target, mef1e, mef2e float64) (float64, error) {
	if !(target > 0 && target <= 100) {
		return 0, fmt.Errorf("%w: target recovery %g%% must be in (0, 100]", ErrInvalidParameter, target)
	}
	limit := equilibrium.CascadeRecovery(mef1e, mef2e)
	if limit < target {
		return limit, fmt.Errorf("%w: %.1f%% needs better mixers, E1 %.1f%% and E2 %.1f%% reach at most %.1f%%",
			ErrUnattainableTarget, target, mef1e, mef2e, limit)
	}
	return limit, nil
}
