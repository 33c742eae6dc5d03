package backtest

import (
	"sync"

	"github.com/chanfade/chanfade/internal/core"
)

// Collector assembles the engine's exit events into trades. It works as an
// event sink for any session kind, not just backtests.
type Collector struct {
	slippagePts float64
	pointValue  float64

	mu     sync.Mutex
	trades []Trade
}

// NewCollector creates a collector. Slippage is deducted per side from every
// trade's result.
func NewCollector(slippagePts, pointValue float64) *Collector {
	return &Collector{
		slippagePts: slippagePts,
		pointValue:  pointValue,
	}
}

// Publish records exit events; other events pass through untouched.
func (c *Collector) Publish(ev core.Event) {
	exit, ok := ev.(core.ExitEvent)
	if !ok {
		return
	}

	// Slippage hits both the entry and the exit fill.
	pnl := exit.Decision.PnLPoints - 2*c.slippagePts
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trades = append(c.trades, Trade{
		Direction:  exit.Direction,
		EntryType:  exit.EntryType,
		EntryTime:  exit.EntryTime,
		EntryPrice: exit.EntryPrice,
		ExitTime:   exit.Decision.Time,
		ExitPrice:  exit.Decision.Price,
		ExitReason: exit.Decision.Reason,
		PnLPoints:  pnl,
		PnLDollars: pnl * c.pointValue,
		BarsHeld:   exit.Decision.BarsHeld,
	})
}

// Trades returns a copy of the collected trades.
func (c *Collector) Trades() []Trade {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Trade, len(c.trades))
	copy(out, c.trades)
	return out
}
