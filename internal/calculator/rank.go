package calculator

import (
	"errors"
	"fmt"

	"BreakoutSentinel/internal/model"
)

// PercentileRank ranks the last value within the trailing window and returns
// the percentile in [0,100]. Ties share the average of their ranks.
func PercentileRank(values []float64, window int) (float64, error) {
	if window <= 0 {
		return 0, errors.New("window must be positive")
	}
	if len(values) < window {
		return 0, fmt.Errorf("rank window %d over %d values: %w", window, len(values), model.ErrInsufficientHistory)
	}
	sub := values[len(values)-window:]
	last := sub[window-1]

	var below, equal int
	for _, v := range sub {
		switch {
		case v < last:
			below++
		case v == last:
			equal++
		}
	}
	// Average of the 1-based ranks below+1 .. below+equal.
	rank := float64(below) + float64(equal+1)/2
	return rank / float64(window) * 100, nil
}
