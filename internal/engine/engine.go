package engine

import (
	"time"

	"github.com/chanfade/chanfade/internal/config"
	"github.com/chanfade/chanfade/internal/core"
	"go.uber.org/zap"
)

// EventSink receives engine events. Publish must not block; the engine fires
// and forgets.
type EventSink interface {
	Publish(core.Event)
}

// OrderSink receives entry/exit instructions. Instructions are commands, not
// requests: the engine does not wait for acknowledgment before advancing to
// the next bar, and fill reconciliation is the executor's concern.
type OrderSink interface {
	Submit(core.OrderInstruction)
}

type nopEventSink struct{}

func (nopEventSink) Publish(core.Event) {}

type nopOrderSink struct{}

func (nopOrderSink) Submit(core.OrderInstruction) {}

// Stats counts engine activity for session summaries.
type Stats struct {
	Bars      int
	Signals   int
	Entries   int
	Exits     int
	Wins      int
	Losses    int
	PnLPoints float64
}

// Engine processes bars one at a time: it updates the channel, runs sweep
// detection and signal evaluation while flat, and evaluates exit rules while
// in a position. Given an identical configuration and bar sequence it emits an
// identical event sequence, whether the bars come from a backtest file, a
// paper session, or a live feed.
type Engine struct {
	cfg       config.StrategyConfig
	logger    *zap.Logger
	sink      EventSink
	orders    OrderSink
	channel   *ChannelTracker
	detector  *SweepDetector
	evaluator *SignalEvaluator
	positions *PositionManager

	breaks   core.BreakState
	lastTime time.Time
	poisoned bool
	stats    Stats
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithEventSink sets the event sink.
func WithEventSink(s EventSink) Option {
	return func(e *Engine) { e.sink = s }
}

// WithOrderSink sets the order sink.
func WithOrderSink(s OrderSink) Option {
	return func(e *Engine) { e.orders = s }
}

// New creates an engine. Invalid strategy parameters are rejected here, never
// mid-stream.
func New(cfg config.StrategyConfig, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:       cfg,
		logger:    zap.NewNop(),
		sink:      nopEventSink{},
		orders:    nopOrderSink{},
		channel:   NewChannelTracker(cfg.ChannelPeriod),
		detector:  NewSweepDetector(cfg.TolerancePts, cfg.BreakoutMinPts),
		evaluator: NewSignalEvaluator(EnabledEntries{
			FailedTest: cfg.EnableFailedTest,
			Bounce:     cfg.EnableBounce,
			Breakout:   cfg.EnableBreakout,
		}),
		positions: NewPositionManager(cfg),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.logger.Info("engine initialized",
		zap.Int("channel_period", cfg.ChannelPeriod),
		zap.Bool("failed_test", cfg.EnableFailedTest),
		zap.Bool("bounce", cfg.EnableBounce),
		zap.Bool("breakout", cfg.EnableBreakout),
		zap.Float64("trail_activation_pts", cfg.TrailActivationPts),
		zap.Float64("trail_distance_pts", cfg.TrailDistancePts),
		zap.Float64("stop_pts", cfg.StopPts),
		zap.Float64("target_pts", cfg.TargetPts),
	)
	return e, nil
}

// OnBar processes the next bar in the stream.
//
// A non-monotonic timestamp is fatal to this engine instance: the stream is
// untrustworthy and the caller must restart with a clean one. A malformed bar
// is rejected without advancing any state; the engine simply awaits the next
// bar.
func (e *Engine) OnBar(bar core.Bar) error {
	if e.poisoned {
		return core.ErrOrderingViolation
	}
	if !bar.Time.After(e.lastTime) && !e.lastTime.IsZero() {
		e.poisoned = true
		return core.WrapError(core.ErrOrderingViolation, nil)
	}
	if err := bar.Validate(); err != nil {
		e.logger.Warn("rejecting malformed bar", zap.Time("time", bar.Time), zap.Error(err))
		return err
	}

	e.lastTime = bar.Time
	e.stats.Bars++

	e.logger.Debug("bar",
		zap.String("source", bar.Source),
		zap.Time("time", bar.Time),
		zap.Float64("open", bar.Open),
		zap.Float64("high", bar.High),
		zap.Float64("low", bar.Low),
		zap.Float64("close", bar.Close),
	)

	// Snapshot the channel as of the prior bar before this bar enters the
	// window; sweep detection compares against it. The emitted channel event
	// reflects the updated window.
	prior := e.channel.Channel()
	updated := e.channel.Update(bar)
	if updated != nil {
		e.publish(core.ChannelEvent{Time: bar.Time, Channel: *updated})
	}

	if !e.positions.Flat() {
		e.onBarInPosition(bar)
		return nil
	}
	if prior == nil {
		// Channel undefined: abstain from detection and signaling entirely.
		return nil
	}

	e.onBarFlat(bar, *prior)
	return nil
}

func (e *Engine) onBarInPosition(bar core.Bar) {
	held, _ := e.positions.Position()
	decision := e.positions.OnBar(bar)
	if decision == nil {
		if pos, ok := e.positions.Position(); ok {
			e.logger.Debug("position",
				zap.String("direction", string(pos.Direction)),
				zap.Float64("entry", pos.EntryPrice),
				zap.Float64("stop", pos.EffectiveStop()),
				zap.Float64("unrealized_pts", pos.UnrealizedPoints(bar.Close)),
			)
		}
		return
	}

	e.stats.Exits++
	e.stats.PnLPoints += decision.PnLPoints
	if decision.PnLPoints > 0 {
		e.stats.Wins++
	} else {
		e.stats.Losses++
	}

	exit := core.ExitEvent{
		Time:       bar.Time,
		Direction:  held.Direction,
		EntryType:  held.EntryType,
		EntryPrice: held.EntryPrice,
		EntryTime:  held.EntryTime,
		Decision:   *decision,
	}
	e.publish(exit)
	e.orders.Submit(core.OrderInstruction{
		Action:    core.OrderExit,
		Direction: exit.Direction.Opposite(),
		Price:     decision.Price,
		Size:      1,
		Time:      bar.Time,
		Reason:    string(decision.Reason),
	})

	e.logger.Info("exit",
		zap.String("direction", string(exit.Direction)),
		zap.String("reason", string(decision.Reason)),
		zap.Float64("price", decision.Price),
		zap.Float64("pnl_pts", decision.PnLPoints),
		zap.Int("bars_held", decision.BarsHeld),
	)
}

func (e *Engine) onBarFlat(bar core.Bar, prior core.Channel) {
	next, candidates := e.detector.Detect(bar, prior, e.breaks)

	// Rising-edge break events, for the log trail.
	if next.BrokeHigh && !e.breaks.BrokeHigh {
		e.publish(core.BreakEvent{Time: bar.Time, Direction: core.DirectionLong, Level: prior.High, Price: bar.High})
		e.logger.Info("break detected", zap.String("side", "high"), zap.Float64("level", prior.High), zap.Float64("price", bar.High))
	}
	if next.BrokeLow && !e.breaks.BrokeLow {
		e.publish(core.BreakEvent{Time: bar.Time, Direction: core.DirectionShort, Level: prior.Low, Price: bar.Low})
		e.logger.Info("break detected", zap.String("side", "low"), zap.Float64("level", prior.Low), zap.Float64("price", bar.Low))
	}
	for _, c := range candidates {
		e.publish(c)
	}

	sig := e.evaluator.Evaluate(candidates)
	if sig == nil {
		e.breaks = next
		return
	}

	e.stats.Signals++
	e.publish(core.SignalEvent{Time: bar.Time, Signal: *sig})

	pos := e.positions.OnSignal(*sig)
	e.stats.Entries++

	e.publish(core.EntryEvent{Time: bar.Time, Position: pos})
	e.orders.Submit(core.OrderInstruction{
		Action:    core.OrderEnter,
		Direction: pos.Direction,
		Price:     pos.EntryPrice,
		Size:      1,
		Time:      bar.Time,
		EntryType: pos.EntryType,
		Reason:    sig.Reason,
	})

	// Break flags must reflect only the immediately preceding bar; entering a
	// position suspends detection, so they reset here rather than surviving
	// the hold.
	e.breaks = core.BreakState{}

	e.logger.Info("entry",
		zap.String("direction", string(pos.Direction)),
		zap.String("entry_type", string(pos.EntryType)),
		zap.Float64("price", pos.EntryPrice),
		zap.Float64("stop", pos.Stop),
		zap.Float64("target", pos.Target),
	)
}

func (e *Engine) publish(ev core.Event) {
	e.sink.Publish(ev)
}

// Flat reports whether the engine holds no position.
func (e *Engine) Flat() bool {
	return e.positions.Flat()
}

// Position returns a snapshot of the open position.
func (e *Engine) Position() (core.Position, bool) {
	return e.positions.Position()
}

// Stats returns a copy of the engine counters.
func (e *Engine) Stats() Stats {
	return e.stats
}
