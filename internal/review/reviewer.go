package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/chanfade/chanfade/internal/backtest"
	"go.uber.org/zap"
)

const systemPrompt = "You are an experienced futures trading coach. You are given the " +
	"results of a Donchian channel sweep-reversal session on index futures: summary " +
	"statistics and the individual trades. Point out what worked, what did not, and " +
	"any patterns in the losing trades worth investigating. Be specific and concise."

// Trades beyond this many are summarized rather than listed.
const maxTradeLines = 50

// Reviewer turns session results into a prompt and asks the provider for a
// critique.
type Reviewer struct {
	provider Provider
	logger   *zap.Logger
}

// NewReviewer creates a reviewer on top of a provider.
func NewReviewer(provider Provider, logger *zap.Logger) *Reviewer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reviewer{provider: provider, logger: logger}
}

// Review critiques a finished session.
func (r *Reviewer) Review(ctx context.Context, result *backtest.Result) (string, error) {
	prompt := FormatPrompt(result)
	r.logger.Debug("requesting session review",
		zap.String("provider", r.provider.Name()),
		zap.Int("prompt_bytes", len(prompt)),
	)

	text, err := r.provider.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// FormatPrompt renders the result as the review prompt.
func FormatPrompt(result *backtest.Result) string {
	var b strings.Builder
	stats := result.Stats

	fmt.Fprintf(&b, "Session: %s, %s to %s, %d bars\n",
		result.Symbol,
		result.StartTime.Format("2006-01-02 15:04"),
		result.EndTime.Format("2006-01-02 15:04"),
		result.Bars,
	)
	fmt.Fprintf(&b, "Trades: %d (%d wins, %d losses, %.1f%% win rate)\n",
		stats.Trades, stats.Wins, stats.Losses, stats.WinRate)
	fmt.Fprintf(&b, "P&L: %.2f pts ($%.2f), avg win %.2f pts, avg loss %.2f pts\n",
		stats.PnLPoints, stats.PnLDollars, stats.AvgWinPts, stats.AvgLossPts)
	fmt.Fprintf(&b, "Max drawdown: %.2f pts, profit factor %.2f, avg hold %.1f bars\n",
		stats.MaxDrawdownPts, stats.ProfitFactor, stats.AvgBarsHeld)

	if len(stats.ExitReasons) > 0 {
		b.WriteString("Exits:")
		for reason, n := range stats.ExitReasons {
			fmt.Fprintf(&b, " %s=%d", reason, n)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nTrades:\n")
	for i, t := range result.Trades {
		if i >= maxTradeLines {
			fmt.Fprintf(&b, "... and %d more\n", len(result.Trades)-maxTradeLines)
			break
		}
		fmt.Fprintf(&b, "%2d. %s %s %s entry %.2f exit %.2f (%s) %+.2f pts, %d bars\n",
			i+1,
			t.EntryTime.Format("01-02 15:04"),
			t.Direction,
			t.EntryType,
			t.EntryPrice,
			t.ExitPrice,
			t.ExitReason,
			t.PnLPoints,
			t.BarsHeld,
		)
	}

	if result.Open != nil {
		fmt.Fprintf(&b, "\nStill open: %s from %.2f\n", result.Open.Direction, result.Open.EntryPrice)
	}
	return b.String()
}
