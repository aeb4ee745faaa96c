package model

import "time"

// SignalKind tags a Signal variant.
type SignalKind string

const (
	KindEntry   SignalKind = "ENTRY"
	KindExit    SignalKind = "EXIT"
	KindStartup SignalKind = "STARTUP"
)

// ExitReason says why a position was closed.
type ExitReason string

const (
	ExitStop   ExitReason = "stop"
	ExitTarget ExitReason = "target"
)

// Signal is an advisory event delivered to a notification sink.
type Signal interface {
	Kind() SignalKind
	Symbol() string
	At() time.Time
}

// EntrySignal announces a confirmed breakout and the simulated position opened for it.
type EntrySignal struct {
	Ticker   string    `json:"ticker"`
	Entry    float64   `json:"entry"`
	Pivot    float64   `json:"pivot"`
	Stop     float64   `json:"stop"`
	Target   float64   `json:"target"`
	VolRatio float64   `json:"vol_ratio"`
	RSShort  float64   `json:"rs_short"`
	RSLong   float64   `json:"rs_long"`
	SizePct  float64   `json:"size_pct"`
	Time     time.Time `json:"time"`
}

func (s EntrySignal) Kind() SignalKind { return KindEntry }
func (s EntrySignal) Symbol() string   { return s.Ticker }
func (s EntrySignal) At() time.Time    { return s.Time }

// ExitSignal announces that a held position hit its stop or target.
type ExitSignal struct {
	Ticker    string     `json:"ticker"`
	Reason    ExitReason `json:"reason"`
	ExitPrice float64    `json:"exit_price"`
	Entry     float64    `json:"entry"`
	GainPct   float64    `json:"gain_pct"`
	Time      time.Time  `json:"time"`
}

func (s ExitSignal) Kind() SignalKind { return KindExit }
func (s ExitSignal) Symbol() string   { return s.Ticker }
func (s ExitSignal) At() time.Time    { return s.Time }

// NewExitSignal computes the gain percentage from entry to exit.
func NewExitSignal(pos Position, reason ExitReason, exitPrice float64, at time.Time) ExitSignal {
	gain := 0.0
	if pos.EntryPrice != 0 {
		gain = 100 * (exitPrice/pos.EntryPrice - 1)
	}
	return ExitSignal{
		Ticker:    pos.Ticker,
		Reason:    reason,
		ExitPrice: exitPrice,
		Entry:     pos.EntryPrice,
		GainPct:   gain,
		Time:      at,
	}
}

// StartupSignal is sent once when the daemon starts.
type StartupSignal struct {
	Watchlist []string  `json:"watchlist"`
	Held      int       `json:"held"`
	Time      time.Time `json:"time"`
}

func (s StartupSignal) Kind() SignalKind { return KindStartup }
func (s StartupSignal) Symbol() string   { return "" }
func (s StartupSignal) At() time.Time    { return s.Time }
