package calculator

import (
	"errors"
	"fmt"

	"BreakoutSentinel/internal/model"
)

// VolumeRatio divides the latest volume by the mean volume of the trailing
// window, latest bar included.
func VolumeRatio(volumes []float64, window int) (float64, error) {
	if window <= 0 {
		return 0, errors.New("window must be positive")
	}
	avg, err := CalculateSMA(volumes, window)
	if err != nil {
		return 0, fmt.Errorf("volume average: %w", err)
	}
	if avg <= 0 {
		return 0, fmt.Errorf("zero average volume: %w", model.ErrDataUnavailable)
	}
	return volumes[len(volumes)-1] / avg, nil
}
