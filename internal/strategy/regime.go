package strategy

import (
	"context"

	"github.com/rs/zerolog/log"

	"BreakoutSentinel/internal/calculator"
	"BreakoutSentinel/internal/model"
)

// ReferenceSource supplies broad-market series for the regime check.
type ReferenceSource interface {
	FetchReference(ctx context.Context, symbol string) (*model.PriceSeries, error)
}

// RegimeGate suppresses new entries unless the broad market closes above its
// moving average.
type RegimeGate struct {
	Source   ReferenceSource
	Symbols  []string
	MAWindow int
}

// NewRegimeGate creates a gate that tries symbols in order.
func NewRegimeGate(src ReferenceSource, symbols []string, maWindow int) *RegimeGate {
	return &RegimeGate{Source: src, Symbols: symbols, MAWindow: maWindow}
}

// IsUptrend returns true iff the first usable reference symbol's latest close
// is above its MAWindow-bar SMA. If every symbol fails it returns false.
func (g *RegimeGate) IsUptrend(ctx context.Context) bool {
	for _, sym := range g.Symbols {
		series, err := g.Source.FetchReference(ctx, sym)
		if err == nil {
			err = series.Validate()
		}
		if err != nil {
			log.Warn().Err(err).Str("symbol", sym).Msg("regime reference unavailable, trying next")
			continue
		}
		up, err := calculator.CloseAboveSMA(series.DailyBars, g.MAWindow)
		if err != nil {
			log.Warn().Err(err).Str("symbol", sym).Msg("regime reference too short, trying next")
			continue
		}
		log.Info().Str("symbol", sym).Bool("uptrend", up).Msg("market regime")
		return up
	}
	log.Warn().Strs("symbols", g.Symbols).Msg("no regime reference available, treating market as not in uptrend")
	return false
}
