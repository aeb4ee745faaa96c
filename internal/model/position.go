package model

import (
	"encoding/json"
	"sort"
	"time"
)

// Position is a simulated long position opened by an entry signal.
type Position struct {
	Ticker      string    `json:"ticker"`
	EntryPrice  float64   `json:"entry_price"`
	PivotPrice  float64   `json:"pivot_price"`
	StopPrice   float64   `json:"stop_price"`
	TargetPrice float64   `json:"target_price"`
	OpenedAt    time.Time `json:"opened_at,omitempty"`
}

// NewPosition derives stop and target from the entry price.
func NewPosition(ticker string, entry, pivot, stopPct, targetPct float64, openedAt time.Time) Position {
	return Position{
		Ticker:      ticker,
		EntryPrice:  entry,
		PivotPrice:  pivot,
		StopPrice:   entry * (1 - stopPct),
		TargetPrice: entry * (1 + targetPct),
		OpenedAt:    openedAt,
	}
}

// Normalize fills fields missing from older records, which stored only
// entry and pivot.
func (p *Position) Normalize(ticker string, stopPct, targetPct float64) {
	if p.Ticker == "" {
		p.Ticker = ticker
	}
	if p.StopPrice == 0 {
		p.StopPrice = p.EntryPrice * (1 - stopPct)
	}
	if p.TargetPrice == 0 {
		p.TargetPrice = p.EntryPrice * (1 + targetPct)
	}
}

// UnmarshalJSON also accepts the short "entry"/"pivot" keys of older records.
func (p *Position) UnmarshalJSON(data []byte) error {
	type plain Position
	var aux struct {
		plain
		Entry *float64 `json:"entry"`
		Pivot *float64 `json:"pivot"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = Position(aux.plain)
	if p.EntryPrice == 0 && aux.Entry != nil {
		p.EntryPrice = *aux.Entry
	}
	if p.PivotPrice == 0 && aux.Pivot != nil {
		p.PivotPrice = *aux.Pivot
	}
	return nil
}

// Book maps ticker to its open position. A ticker has at most one.
type Book map[string]Position

// Clone returns a shallow copy safe to mutate independently.
func (b Book) Clone() Book {
	out := make(Book, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Holds reports whether ticker has an open position.
func (b Book) Holds(ticker string) bool {
	_, ok := b[ticker]
	return ok
}

// Tickers returns held tickers in sorted order.
func (b Book) Tickers() []string {
	out := make([]string, 0, len(b))
	for k := range b {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
