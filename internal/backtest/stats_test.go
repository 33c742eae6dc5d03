package backtest

import (
	"testing"

	"github.com/chanfade/chanfade/internal/core"
	"github.com/stretchr/testify/assert"
)

func trade(pnl float64, reason core.ExitReason, barsHeld int) Trade {
	return Trade{PnLPoints: pnl, PnLDollars: pnl * 50, ExitReason: reason, BarsHeld: barsHeld}
}

func TestCalculateStatsEmpty(t *testing.T) {
	stats := CalculateStats(nil)
	assert.Equal(t, 0, stats.Trades)
	assert.NotNil(t, stats.ExitReasons)
}

func TestCalculateStats(t *testing.T) {
	trades := []Trade{
		trade(4, core.ExitTarget, 3),
		trade(-4, core.ExitStop, 2),
		trade(1.5, core.ExitTrailStop, 4),
		trade(-0.5, core.ExitTime, 5),
	}

	stats := CalculateStats(trades)
	assert.Equal(t, 4, stats.Trades)
	assert.Equal(t, 2, stats.Wins)
	assert.Equal(t, 2, stats.Losses)
	assert.InDelta(t, 50.0, stats.WinRate, 1e-9)
	assert.InDelta(t, 1.0, stats.PnLPoints, 1e-9)
	assert.InDelta(t, 50.0, stats.PnLDollars, 1e-9)
	assert.InDelta(t, 2.75, stats.AvgWinPts, 1e-9)
	assert.InDelta(t, -2.25, stats.AvgLossPts, 1e-9)
	assert.InDelta(t, 5.5/4.5, stats.ProfitFactor, 1e-9)
	assert.InDelta(t, 3.5, stats.AvgBarsHeld, 1e-9)
	assert.Equal(t, 1, stats.ExitReasons[core.ExitTarget])
	assert.Equal(t, 1, stats.ExitReasons[core.ExitStop])
}

func TestMaxDrawdown(t *testing.T) {
	trades := []Trade{
		trade(4, core.ExitTarget, 1),  // peak 4
		trade(-4, core.ExitStop, 1),   // 0, dd 4
		trade(-2, core.ExitStop, 1),   // -2, dd 6
		trade(8, core.ExitTarget, 1),  // 6, new peak
		trade(-1, core.ExitStop, 1),   // 5, dd 1
	}
	stats := CalculateStats(trades)
	assert.InDelta(t, 6.0, stats.MaxDrawdownPts, 1e-9)
}

func TestCalculateStatsAllWins(t *testing.T) {
	stats := CalculateStats([]Trade{trade(2, core.ExitTarget, 1), trade(3, core.ExitTarget, 2)})
	assert.Equal(t, 100.0, stats.WinRate)
	assert.Equal(t, 0.0, stats.ProfitFactor, "undefined without losses")
	assert.Equal(t, 0.0, stats.MaxDrawdownPts)
}
