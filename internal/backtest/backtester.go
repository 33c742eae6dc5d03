package backtest

import (
	"context"
	"errors"

	"github.com/chanfade/chanfade/internal/config"
	"github.com/chanfade/chanfade/internal/core"
	"github.com/chanfade/chanfade/internal/engine"
	"go.uber.org/zap"
)

// Backtester replays historical bars through the engine and assembles the
// resulting trades. The engine it drives is the same one shadow and live
// sessions run; only the bar source differs.
type Backtester struct {
	cfg         config.StrategyConfig
	logger      *zap.Logger
	slippagePts float64
}

// Option configures a Backtester.
type Option func(*Backtester)

// WithLogger sets the backtester logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Backtester) { b.logger = l }
}

// WithSlippage deducts the given points per side from every trade.
func WithSlippage(pts float64) Option {
	return func(b *Backtester) { b.slippagePts = pts }
}

// New creates a backtester for the given strategy parameters.
func New(cfg config.StrategyConfig, opts ...Option) *Backtester {
	b := &Backtester{
		cfg:    cfg,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run replays the bars in order. Malformed bars are skipped and counted; a
// bar stream that violates timestamp ordering aborts the run.
func (b *Backtester) Run(ctx context.Context, symbol string, bars []core.Bar) (*Result, error) {
	if len(bars) == 0 {
		return nil, core.ErrNoData
	}

	collector := NewCollector(b.slippagePts, b.cfg.PointValue)
	eng, err := engine.New(b.cfg, engine.WithLogger(b.logger), engine.WithEventSink(collector))
	if err != nil {
		return nil, err
	}

	result := &Result{
		Symbol:    symbol,
		StartTime: bars[0].Time,
		EndTime:   bars[len(bars)-1].Time,
	}

	for _, bar := range bars {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := eng.OnBar(bar); err != nil {
			if errors.Is(err, core.ErrBadBar) {
				result.BadBars++
				continue
			}
			return nil, err
		}
		result.Bars++
	}

	if pos, ok := eng.Position(); ok {
		result.Open = &pos
		b.logger.Info("position still open at end of data",
			zap.String("direction", string(pos.Direction)),
			zap.Float64("entry", pos.EntryPrice),
		)
	}

	result.Signals = eng.Stats().Signals
	result.Trades = collector.Trades()
	result.Stats = CalculateStats(result.Trades)

	b.logger.Info("backtest complete",
		zap.String("symbol", symbol),
		zap.Int("bars", result.Bars),
		zap.Int("trades", result.Stats.Trades),
		zap.Float64("pnl_pts", result.Stats.PnLPoints),
		zap.Float64("win_rate", result.Stats.WinRate),
	)
	return result, nil
}
