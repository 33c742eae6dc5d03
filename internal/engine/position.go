package engine

import (
	"github.com/chanfade/chanfade/internal/config"
	"github.com/chanfade/chanfade/internal/core"
)

// PositionManager owns at most one open position and evaluates its exit rules
// bar by bar. Rule order is fixed and first match wins: profit target, armed
// trailing stop, hard stop, then the trailing arm/update step (which never
// exits), then the time limit.
type PositionManager struct {
	cfg config.StrategyConfig
	pos *core.Position
}

// NewPositionManager creates a manager with the given strategy parameters.
func NewPositionManager(cfg config.StrategyConfig) *PositionManager {
	return &PositionManager{cfg: cfg}
}

// Flat reports whether no position is open.
func (m *PositionManager) Flat() bool {
	return m.pos == nil
}

// Position returns a snapshot of the open position.
func (m *PositionManager) Position() (core.Position, bool) {
	if m.pos == nil {
		return core.Position{}, false
	}
	return *m.pos, true
}

// OnSignal opens a position from an accepted signal. Must only be called
// while flat.
func (m *PositionManager) OnSignal(sig core.Signal) core.Position {
	sign := sig.Direction.Sign()
	pos := &core.Position{
		Direction:  sig.Direction,
		EntryType:  sig.EntryType,
		EntryPrice: sig.Price,
		EntryTime:  sig.Time,
		Stop:       sig.Price - m.cfg.StopPts*sign,
		Target:     sig.Price + m.cfg.TargetPts*sign,
		Extreme:    sig.Price,
	}
	m.pos = pos
	return *pos
}

// OnBar evaluates the exit rules against a new bar. Must only be called while
// a position is open. Returns the exit decision when a rule fires, after which
// the manager is flat again; nil when the position stays open.
func (m *PositionManager) OnBar(bar core.Bar) *core.ExitDecision {
	p := m.pos
	p.BarsHeld++

	favorable, adverse := bar.High, bar.Low
	if p.Direction == core.DirectionShort {
		favorable, adverse = bar.Low, bar.High
	}

	// 1. Profit target.
	if p.UnrealizedPoints(favorable) >= m.cfg.TargetPts {
		return m.close(bar, core.ExitTarget, p.Target, m.cfg.TargetPts)
	}

	// 2. Trailing stop, if it was armed on a previous bar.
	if p.TrailArmed && p.UnrealizedPoints(adverse) <= p.UnrealizedPoints(p.TrailStop) {
		return m.close(bar, core.ExitTrailStop, p.TrailStop, p.UnrealizedPoints(p.TrailStop))
	}

	// 3. Hard stop.
	if p.UnrealizedPoints(adverse) <= -m.cfg.StopPts {
		return m.close(bar, core.ExitStop, p.Stop, -m.cfg.StopPts)
	}

	// 4. Arm or ratchet the trailing stop for subsequent bars. The protected
	// price only ever tightens.
	if !p.TrailArmed {
		if p.UnrealizedPoints(favorable) >= m.cfg.TrailActivationPts {
			p.TrailArmed = true
			p.Extreme = favorable
			p.TrailStop = favorable - m.cfg.TrailDistancePts*p.Direction.Sign()
		}
	} else if p.UnrealizedPoints(favorable) > p.UnrealizedPoints(p.Extreme) {
		p.Extreme = favorable
		candidate := favorable - m.cfg.TrailDistancePts*p.Direction.Sign()
		if p.UnrealizedPoints(candidate) > p.UnrealizedPoints(p.TrailStop) {
			p.TrailStop = candidate
		}
	}

	// 5. Time limit: forced flat at the close, not a profit/loss rule.
	if p.BarsHeld >= m.cfg.MaxBars {
		return m.close(bar, core.ExitTime, bar.Close, p.UnrealizedPoints(bar.Close))
	}

	return nil
}

func (m *PositionManager) close(bar core.Bar, reason core.ExitReason, price, pnl float64) *core.ExitDecision {
	decision := &core.ExitDecision{
		Reason:    reason,
		Price:     price,
		PnLPoints: pnl,
		BarsHeld:  m.pos.BarsHeld,
		Time:      bar.Time,
	}
	m.pos = nil
	return decision
}
