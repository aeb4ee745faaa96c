package strategy

import (
	"BreakoutSentinel/internal/calculator"
	"BreakoutSentinel/internal/model"
)

// ComputePivot looks for a base-and-handle setup in weekly bars and returns
// the breakout pivot (the handle's highest high).
//
// The base is the last BaseWeeks bars and the handle the last HandleWeeks.
// The base must be at most MaxDepth deep from its high, and every handle
// close must sit strictly above the middle of the base range.
func ComputePivot(weekly []model.OHLCV, pp PatternParams) (float64, bool) {
	if pp.BaseWeeks <= 0 || pp.HandleWeeks <= 0 || len(weekly) < pp.BaseWeeks {
		return 0, false
	}
	base := calculator.Tail(weekly, pp.BaseWeeks)
	handle := calculator.Tail(weekly, pp.HandleWeeks)

	baseHigh, baseLow, err := calculator.RangeOf(base)
	if err != nil || baseHigh == 0 {
		return 0, false
	}
	depth := (baseHigh - baseLow) / baseHigh
	// A base exactly MaxDepth deep still qualifies.
	if depth > pp.MaxDepth {
		return 0, false
	}

	baseMid := baseLow + 0.5*(baseHigh-baseLow)
	for _, b := range handle {
		if !(b.Close > baseMid) {
			return 0, false
		}
	}

	pivot, _, err := calculator.RangeOf(handle)
	if err != nil {
		return 0, false
	}
	return pivot, true
}

// SetupPivot finds the pivot in the weeks completed before the latest daily
// bar. The week holding that bar is excluded: its high caps its own close, so
// a pivot that included it could never be broken by the same bar.
// weeks is the number of completed weeks examined.
func SetupPivot(daily []model.OHLCV, pp PatternParams) (pivot float64, weeks int, ok bool) {
	weekly := calculator.ToWeekly(daily)
	if len(weekly) == 0 {
		return 0, 0, false
	}
	prior := weekly[:len(weekly)-1]
	pivot, ok = ComputePivot(prior, pp)
	return pivot, len(prior), ok
}
