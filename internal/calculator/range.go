package calculator

import (
	"errors"
	"math"

	"BreakoutSentinel/internal/model"
)

// RangeOf returns the highest high and lowest low over bars.
func RangeOf(bars []model.OHLCV) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low, nil
}

// Tail returns the last n bars, or all of them if there are fewer.
func Tail(bars []model.OHLCV, n int) []model.OHLCV {
	if n >= len(bars) {
		return bars
	}
	return bars[len(bars)-n:]
}
