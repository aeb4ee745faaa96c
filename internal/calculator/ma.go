package calculator

import (
	"errors"
	"fmt"

	"BreakoutSentinel/internal/model"
)

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, fmt.Errorf("sma(%d) over %d prices: %w", period, len(prices), model.ErrInsufficientHistory)
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// CloseAboveSMA reports whether the latest close is strictly above its SMA over period bars.
func CloseAboveSMA(bars []model.OHLCV, period int) (bool, error) {
	closes := extractCloses(bars)
	ma, err := CalculateSMA(closes, period)
	if err != nil {
		return false, err
	}
	return closes[len(closes)-1] > ma, nil
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
