package events

import (
	"github.com/chanfade/chanfade/internal/core"
	"go.uber.org/zap"
)

// Log writes events to a zap logger: channel updates at debug level,
// everything else at info.
type Log struct {
	logger *zap.Logger
}

// NewLog creates a logging sink.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

// Publish logs the event.
func (l *Log) Publish(ev core.Event) {
	switch e := ev.(type) {
	case core.ChannelEvent:
		l.logger.Debug("channel",
			zap.Time("time", e.Time),
			zap.Int("period", e.Channel.Period),
			zap.Float64("high", e.Channel.High),
			zap.Float64("low", e.Channel.Low),
			zap.Float64("range", e.Channel.Range()),
		)
	case core.BreakEvent:
		l.logger.Info("channel break",
			zap.Time("time", e.Time),
			zap.String("direction", string(e.Direction)),
			zap.Float64("level", e.Level),
			zap.Float64("price", e.Price),
		)
	case core.DetectorEvent:
		l.logger.Info("entry candidate",
			zap.Time("time", e.Time),
			zap.String("entry_type", string(e.EntryType)),
			zap.String("direction", string(e.Direction)),
			zap.Float64("price", e.Price),
			zap.String("reason", e.Reason),
		)
	case core.SignalEvent:
		l.logger.Info("signal",
			zap.Time("time", e.Time),
			zap.String("entry_type", string(e.Signal.EntryType)),
			zap.String("direction", string(e.Signal.Direction)),
			zap.Float64("price", e.Signal.Price),
			zap.String("reason", e.Signal.Reason),
		)
	case core.EntryEvent:
		l.logger.Info("entry",
			zap.Time("time", e.Time),
			zap.String("direction", string(e.Position.Direction)),
			zap.String("entry_type", string(e.Position.EntryType)),
			zap.Float64("price", e.Position.EntryPrice),
			zap.Float64("stop", e.Position.Stop),
			zap.Float64("target", e.Position.Target),
		)
	case core.ExitEvent:
		l.logger.Info("exit",
			zap.Time("time", e.Time),
			zap.String("direction", string(e.Direction)),
			zap.String("reason", string(e.Decision.Reason)),
			zap.Float64("entry_price", e.EntryPrice),
			zap.Float64("exit_price", e.Decision.Price),
			zap.Float64("pnl_pts", e.Decision.PnLPoints),
			zap.Int("bars_held", e.Decision.BarsHeld),
		)
	default:
		l.logger.Debug("event", zap.String("kind", string(ev.Kind())), zap.Time("time", ev.When()))
	}
}
