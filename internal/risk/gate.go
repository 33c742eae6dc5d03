// Package risk enforces per-day trading limits between the engine and the
// executor.
package risk

import (
	"sync"
	"time"

	"github.com/chanfade/chanfade/internal/config"
	"github.com/chanfade/chanfade/internal/core"
	"go.uber.org/zap"
)

// Sink receives instructions that pass the gate.
type Sink interface {
	Submit(core.OrderInstruction)
}

// Snapshot is the gate's state for session summaries.
type Snapshot struct {
	Day        string
	Trades     int
	PnLPoints  float64
	Suppressed int
	Halted     bool
	HaltReason string
}

// Gate forwards instructions to the next sink until a daily limit is hit.
// Past a limit, entry instructions are suppressed; the exit matching a
// suppressed entry is suppressed too, so the downstream executor never sees
// a half trade. Counters reset when the instruction date changes.
//
// The gate never feeds back into the engine: signal generation stays
// deterministic, the gate only decides what reaches the executor.
type Gate struct {
	cfg    config.RiskConfig
	next   Sink
	logger *zap.Logger

	mu         sync.Mutex
	day        string
	trades     int
	pnlPoints  float64
	suppressed int

	entryPrice  float64
	entrySide   core.Direction
	open        bool
	suppressing bool
}

// NewGate creates a gate in front of next. Zero limits disable the
// corresponding check.
func NewGate(cfg config.RiskConfig, next Sink, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		cfg:    cfg,
		next:   next,
		logger: logger,
	}
}

// Submit applies the daily limits and forwards or suppresses the instruction.
func (g *Gate) Submit(instr core.OrderInstruction) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.roll(instr.Time)

	switch instr.Action {
	case core.OrderEnter:
		if reason := g.blockReason(); reason != "" {
			g.suppressing = true
			g.suppressed++
			g.logger.Warn("entry suppressed by risk gate",
				zap.String("reason", reason),
				zap.String("direction", string(instr.Direction)),
				zap.Float64("price", instr.Price),
			)
			return
		}
		g.open = true
		g.entryPrice = instr.Price
		g.entrySide = instr.Direction
		g.trades++
		g.next.Submit(instr)

	case core.OrderExit:
		if g.suppressing {
			g.suppressing = false
			return
		}
		if g.open {
			g.pnlPoints += (instr.Price - g.entryPrice) * g.entrySide.Sign()
			g.open = false
		}
		g.next.Submit(instr)
	}
}

// State returns the gate's current counters.
func (g *Gate) State() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	reason := g.blockReason()
	return Snapshot{
		Day:        g.day,
		Trades:     g.trades,
		PnLPoints:  g.pnlPoints,
		Suppressed: g.suppressed,
		Halted:     reason != "",
		HaltReason: reason,
	}
}

func (g *Gate) blockReason() string {
	if g.cfg.MaxTradesPerDay > 0 && g.trades >= g.cfg.MaxTradesPerDay {
		return "max trades per day reached"
	}
	if g.cfg.MaxDailyLossPts > 0 && -g.pnlPoints >= g.cfg.MaxDailyLossPts {
		return "daily loss limit reached"
	}
	return ""
}

// roll resets the daily counters when the instruction date changes. An open
// trade carries across the boundary untouched.
func (g *Gate) roll(t time.Time) {
	day := t.Format("2006-01-02")
	if day == g.day {
		return
	}
	if g.day != "" {
		g.logger.Info("risk gate daily reset",
			zap.String("from", g.day),
			zap.String("to", day),
			zap.Int("trades", g.trades),
			zap.Float64("pnl_pts", g.pnlPoints),
		)
	}
	g.day = day
	g.trades = 0
	g.pnlPoints = 0
	g.suppressed = 0
}
