package backtest

import (
	"time"

	"github.com/chanfade/chanfade/internal/core"
)

// Result holds the complete backtest output.
type Result struct {
	Symbol    string
	StartTime time.Time
	EndTime   time.Time
	Bars      int
	BadBars   int
	Signals   int
	Trades    []Trade
	Stats     Stats

	// Open is the position still held when the bars ran out, if any.
	Open *core.Position
}

// Trade is a completed round trip.
type Trade struct {
	Direction  core.Direction
	EntryType  core.EntryType
	EntryTime  time.Time
	EntryPrice float64
	ExitTime   time.Time
	ExitPrice  float64
	ExitReason core.ExitReason
	PnLPoints  float64
	PnLDollars float64
	BarsHeld   int
}

// IsWin returns true if the trade was profitable.
func (t Trade) IsWin() bool {
	return t.PnLPoints > 0
}

// Stats holds performance statistics.
type Stats struct {
	Trades         int
	Wins           int
	Losses         int
	WinRate        float64 // percentage of profitable trades
	PnLPoints      float64
	PnLDollars     float64
	AvgWinPts      float64
	AvgLossPts     float64
	ProfitFactor   float64 // gross win points over gross loss points
	MaxDrawdownPts float64 // largest peak-to-trough decline of cumulative points
	ExitReasons    map[core.ExitReason]int
	AvgBarsHeld    float64
}
