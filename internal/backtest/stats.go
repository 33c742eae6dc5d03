package backtest

import "github.com/chanfade/chanfade/internal/core"

// CalculateStats computes performance statistics from completed trades.
func CalculateStats(trades []Trade) Stats {
	if len(trades) == 0 {
		return Stats{ExitReasons: map[core.ExitReason]int{}}
	}

	stats := Stats{
		Trades:      len(trades),
		ExitReasons: make(map[core.ExitReason]int),
	}

	var grossWin, grossLoss float64
	var barsHeld int
	for _, t := range trades {
		stats.PnLPoints += t.PnLPoints
		stats.PnLDollars += t.PnLDollars
		stats.ExitReasons[t.ExitReason]++
		barsHeld += t.BarsHeld

		if t.IsWin() {
			stats.Wins++
			grossWin += t.PnLPoints
		} else {
			stats.Losses++
			grossLoss += -t.PnLPoints
		}
	}

	stats.WinRate = float64(stats.Wins) / float64(stats.Trades) * 100
	stats.AvgBarsHeld = float64(barsHeld) / float64(stats.Trades)
	if stats.Wins > 0 {
		stats.AvgWinPts = grossWin / float64(stats.Wins)
	}
	if stats.Losses > 0 {
		stats.AvgLossPts = -grossLoss / float64(stats.Losses)
	}
	if grossLoss > 0 {
		stats.ProfitFactor = grossWin / grossLoss
	}
	stats.MaxDrawdownPts = maxDrawdown(trades)

	return stats
}

// maxDrawdown finds the largest peak-to-trough decline of the cumulative
// point curve.
func maxDrawdown(trades []Trade) float64 {
	var cumulative, peak, maxDD float64
	for _, t := range trades {
		cumulative += t.PnLPoints
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}
