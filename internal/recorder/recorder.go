package recorder

import (
	"time"

	"BreakoutSentinel/internal/model"
)

// CycleRecord summarises one scan cycle.
type CycleRecord struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Uptrend   bool
	Exits     int
	Entries   int
	Skipped   int
	Held      int
	Error     string
}

// SignalRecord is a stored entry or exit signal.
type SignalRecord struct {
	CycleID   string           `json:"cycle_id"`
	Timestamp time.Time        `json:"timestamp"`
	Kind      model.SignalKind `json:"kind"`
	Ticker    string           `json:"ticker"`
	Reason    string           `json:"reason"` // exit reason, empty for entries
	Price     float64          `json:"price"`
	Entry     float64          `json:"entry"`
	Pivot     float64          `json:"pivot"`
	Stop      float64          `json:"stop"`
	Target    float64          `json:"target"`
	VolRatio  float64          `json:"vol_ratio"`
	RSShort   float64          `json:"rs_short"`
	RSLong    float64          `json:"rs_long"`
	SizePct   float64          `json:"size_pct"`
	GainPct   float64          `json:"gain_pct"`
}

// NewSignalRecord flattens a signal for storage.
func NewSignalRecord(cycleID string, sig model.Signal) SignalRecord {
	rec := SignalRecord{CycleID: cycleID, Timestamp: sig.At(), Kind: sig.Kind(), Ticker: sig.Symbol()}
	switch s := sig.(type) {
	case model.EntrySignal:
		rec.Price = s.Entry
		rec.Entry = s.Entry
		rec.Pivot = s.Pivot
		rec.Stop = s.Stop
		rec.Target = s.Target
		rec.VolRatio = s.VolRatio
		rec.RSShort = s.RSShort
		rec.RSLong = s.RSLong
		rec.SizePct = s.SizePct
	case model.ExitSignal:
		rec.Reason = string(s.Reason)
		rec.Price = s.ExitPrice
		rec.Entry = s.Entry
		rec.GainPct = s.GainPct
	}
	return rec
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordCycle(c *CycleRecord) error
	RecordSignal(rec *SignalRecord) error
	RecentSignals(limit int) ([]SignalRecord, error)
	Close() error
}
