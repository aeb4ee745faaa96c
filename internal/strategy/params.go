package strategy

import (
	"fmt"

	"BreakoutSentinel/internal/model"
)

// PatternParams sizes the base-and-handle window, in weekly bars.
type PatternParams struct {
	BaseWeeks   int     `yaml:"base_weeks"`
	HandleWeeks int     `yaml:"handle_weeks"`
	MaxDepth    float64 `yaml:"max_depth"`
}

// Params holds the entry, exit and sizing rules. All fractions are decimals
// (0.08 = 8%) except RiskPctPerTrade and RSThreshold, which are percentages.
type Params struct {
	StopPct         float64       `yaml:"stop_pct"`
	TargetPct       float64       `yaml:"target_pct"`
	BuyWindow       float64       `yaml:"buy_window"`
	VolRatio        float64       `yaml:"vol_ratio"`
	VolWindow       int           `yaml:"vol_window"`
	RSThreshold     float64       `yaml:"rs_threshold"`
	RSShortWindow   int           `yaml:"rs_short_window"`
	RSLongWindow    int           `yaml:"rs_long_window"`
	RiskPctPerTrade float64       `yaml:"risk_pct_per_trade"`
	Pattern         PatternParams `yaml:"pattern"`
}

// DefaultParams returns the stock rule set.
func DefaultParams() Params {
	return Params{
		StopPct:         0.08,
		TargetPct:       0.20,
		BuyWindow:       0.05,
		VolRatio:        1.4,
		VolWindow:       50,
		RSThreshold:     85,
		RSShortWindow:   5,
		RSLongWindow:    126,
		RiskPctPerTrade: 1.0,
		Pattern:         DefaultPatternParams(),
	}
}

// DefaultPatternParams returns a 20-week base with a 3-week handle, at most 33% deep.
func DefaultPatternParams() PatternParams {
	return PatternParams{BaseWeeks: 20, HandleWeeks: 3, MaxDepth: 0.33}
}

// Validate rejects rule sets the engine cannot run with.
func (p Params) Validate() error {
	switch {
	case p.StopPct <= 0 || p.StopPct >= 1:
		return fmt.Errorf("stop_pct must be in (0,1), got %v: %w", p.StopPct, model.ErrInvalidConfiguration)
	case p.TargetPct <= 0:
		return fmt.Errorf("target_pct must be positive, got %v: %w", p.TargetPct, model.ErrInvalidConfiguration)
	case p.BuyWindow < 0:
		return fmt.Errorf("buy_window must not be negative: %w", model.ErrInvalidConfiguration)
	case p.VolRatio <= 0 || p.VolWindow <= 0:
		return fmt.Errorf("vol_ratio and vol_window must be positive: %w", model.ErrInvalidConfiguration)
	case p.RSThreshold < 0 || p.RSThreshold > 100:
		return fmt.Errorf("rs_threshold must be in [0,100], got %v: %w", p.RSThreshold, model.ErrInvalidConfiguration)
	case p.RSShortWindow <= 0 || p.RSLongWindow <= 0:
		return fmt.Errorf("rs windows must be positive: %w", model.ErrInvalidConfiguration)
	case p.RiskPctPerTrade <= 0:
		return fmt.Errorf("risk_pct_per_trade must be positive: %w", model.ErrInvalidConfiguration)
	}
	return p.Pattern.Validate()
}

// Validate checks window sizes.
func (p PatternParams) Validate() error {
	if p.BaseWeeks <= 0 || p.HandleWeeks <= 0 || p.HandleWeeks > p.BaseWeeks {
		return fmt.Errorf("pattern windows base=%d handle=%d: %w", p.BaseWeeks, p.HandleWeeks, model.ErrInvalidConfiguration)
	}
	if p.MaxDepth <= 0 || p.MaxDepth >= 1 {
		return fmt.Errorf("pattern max_depth must be in (0,1), got %v: %w", p.MaxDepth, model.ErrInvalidConfiguration)
	}
	return nil
}
