package model

import (
	"fmt"
	"time"
)

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries holds the daily bars of one ticker, ascending by time.
type PriceSeries struct {
	Symbol    string
	DailyBars []OHLCV
	FetchedAt time.Time
}

// Len returns the number of daily bars.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.DailyBars)
}

// Last returns the most recent bar. The series must not be empty.
func (s *PriceSeries) Last() OHLCV {
	return s.DailyBars[len(s.DailyBars)-1]
}

// Closes returns the close prices in time order.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.DailyBars))
	for i, b := range s.DailyBars {
		closes[i] = b.Close
	}
	return closes
}

// Volumes returns the volumes in time order.
func (s *PriceSeries) Volumes() []float64 {
	vols := make([]float64, len(s.DailyBars))
	for i, b := range s.DailyBars {
		vols[i] = b.Volume
	}
	return vols
}

// Validate reports ErrDataUnavailable when the series is empty or the latest
// bar lacks a usable close.
func (s *PriceSeries) Validate() error {
	if s.Len() == 0 {
		return fmt.Errorf("%s: no bars: %w", s.symbol(), ErrDataUnavailable)
	}
	last := s.Last()
	if last.Close <= 0 || last.High <= 0 {
		return fmt.Errorf("%s: latest bar has no price: %w", s.symbol(), ErrDataUnavailable)
	}
	return nil
}

func (s *PriceSeries) symbol() string {
	if s == nil || s.Symbol == "" {
		return "<unknown>"
	}
	return s.Symbol
}
