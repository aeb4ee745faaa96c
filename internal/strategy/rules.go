package strategy

import (
	"errors"
	"fmt"
	"time"

	"BreakoutSentinel/internal/calculator"
	"BreakoutSentinel/internal/model"
)

// Stage names the entry check a ticker failed at.
type Stage string

const (
	StageData     Stage = "data"
	StagePattern  Stage = "pattern"
	StageBreakout Stage = "breakout"
	StageVolume   Stage = "volume"
	StageStrength Stage = "strength"
	StageSizing   Stage = "sizing"
)

// ErrNotQualified marks a ticker that was evaluated but did not meet a rule.
var ErrNotQualified = errors.New("not qualified")

// SkipError records why a ticker produced no entry.
type SkipError struct {
	Stage Stage
	Err   error
}

func (e *SkipError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *SkipError) Unwrap() error { return e.Err }

func skip(stage Stage, err error) error { return &SkipError{Stage: stage, Err: err} }

// StageOf extracts the failing stage from an EvaluateEntry error.
func StageOf(err error) Stage {
	var se *SkipError
	if errors.As(err, &se) {
		return se.Stage
	}
	return StageData
}

// Entry is a confirmed breakout: the signal to announce and the position to hold.
type Entry struct {
	Signal   model.EntrySignal
	Position model.Position
}

// EvaluateEntry runs the breakout rules against a ticker's daily series.
// A non-nil error is always a *SkipError.
func EvaluateEntry(series *model.PriceSeries, p Params, now time.Time) (*Entry, error) {
	if err := series.Validate(); err != nil {
		return nil, skip(StageData, err)
	}

	pivot, weeks, ok := SetupPivot(series.DailyBars, p.Pattern)
	if !ok {
		return nil, skip(StagePattern, fmt.Errorf("no base-and-handle in %d completed weeks: %w", weeks, ErrNotQualified))
	}

	lastClose := series.Last().Close
	ceiling := pivot * (1 + p.BuyWindow)
	if !(pivot < lastClose && lastClose <= ceiling) {
		return nil, skip(StageBreakout, fmt.Errorf("close %.2f outside (%.2f, %.2f]: %w", lastClose, pivot, ceiling, ErrNotQualified))
	}

	volRatio, err := calculator.VolumeRatio(series.Volumes(), p.VolWindow)
	if err != nil {
		return nil, skip(StageVolume, err)
	}
	if volRatio < p.VolRatio {
		return nil, skip(StageVolume, fmt.Errorf("volume ratio %.2f below %.2f: %w", volRatio, p.VolRatio, ErrNotQualified))
	}

	closes := series.Closes()
	rsShort, err := calculator.PercentileRank(closes, p.RSShortWindow)
	if err != nil {
		return nil, skip(StageStrength, err)
	}
	rsLong, err := calculator.PercentileRank(closes, p.RSLongWindow)
	if err != nil {
		return nil, skip(StageStrength, err)
	}
	if rsShort < p.RSThreshold || rsLong < p.RSThreshold {
		return nil, skip(StageStrength, fmt.Errorf("rs %.1f/%.1f below %.1f: %w", rsShort, rsLong, p.RSThreshold, ErrNotQualified))
	}

	sizePct, err := SizePct(p.RiskPctPerTrade, p.StopPct)
	if err != nil {
		return nil, skip(StageSizing, err)
	}

	pos := model.NewPosition(series.Symbol, lastClose, pivot, p.StopPct, p.TargetPct, now)
	return &Entry{
		Position: pos,
		Signal: model.EntrySignal{
			Ticker:   series.Symbol,
			Entry:    pos.EntryPrice,
			Pivot:    pos.PivotPrice,
			Stop:     pos.StopPrice,
			Target:   pos.TargetPrice,
			VolRatio: volRatio,
			RSShort:  rsShort,
			RSLong:   rsLong,
			SizePct:  sizePct,
			Time:     now,
		},
	}, nil
}

// EvaluateExit checks a held position against the latest close. It returns
// ok=false while the position should stay open. A series without a usable
// close is an error and never an exit.
func EvaluateExit(pos model.Position, series *model.PriceSeries) (reason model.ExitReason, last float64, ok bool, err error) {
	if err := series.Validate(); err != nil {
		return "", 0, false, err
	}
	last = series.Last().Close
	switch {
	case last <= pos.StopPrice:
		return model.ExitStop, last, true, nil
	case last >= pos.TargetPrice:
		return model.ExitTarget, last, true, nil
	}
	return "", last, false, nil
}
