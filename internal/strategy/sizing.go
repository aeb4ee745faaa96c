package strategy

import (
	"fmt"

	"BreakoutSentinel/internal/model"
)

// SizePct converts a per-trade risk percentage and a stop distance into the
// share of equity to allocate: risking 1% with an 8% stop allocates 12.5%.
func SizePct(riskPct, stopPct float64) (float64, error) {
	if stopPct == 0 {
		return 0, fmt.Errorf("stop pct must not be zero: %w", model.ErrInvalidConfiguration)
	}
	return riskPct / stopPct, nil
}
