// Package exec provides order executors. The engine hands them instructions
// and moves on; fill bookkeeping stays here.
package exec

import (
	"sync"
	"time"

	"github.com/chanfade/chanfade/internal/core"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Fill is a recorded execution.
type Fill struct {
	ID        string
	Action    core.OrderAction
	Direction core.Direction
	Price     float64
	Size      int
	Time      time.Time
	EntryType core.EntryType
	Reason    string
}

// Paper fills every instruction instantly at the instructed price. No
// slippage model; that belongs to the backtester.
type Paper struct {
	mu         sync.Mutex
	logger     *zap.Logger
	pointValue float64

	fills      []Fill
	entry      *Fill
	trades     int
	pnlPoints  float64
	pnlDollars float64
}

// NewPaper creates a paper executor. PointValue converts points to dollars
// for the session summary.
func NewPaper(pointValue float64, logger *zap.Logger) *Paper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Paper{
		logger:     logger,
		pointValue: pointValue,
	}
}

// Submit executes the instruction immediately.
func (p *Paper) Submit(instr core.OrderInstruction) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fill := Fill{
		ID:        uuid.NewString(),
		Action:    instr.Action,
		Direction: instr.Direction,
		Price:     instr.Price,
		Size:      instr.Size,
		Time:      instr.Time,
		EntryType: instr.EntryType,
		Reason:    instr.Reason,
	}
	p.fills = append(p.fills, fill)

	switch instr.Action {
	case core.OrderEnter:
		p.entry = &fill
		p.logger.Info("paper fill: entry",
			zap.String("id", fill.ID),
			zap.String("direction", string(fill.Direction)),
			zap.Float64("price", fill.Price),
			zap.String("entry_type", string(fill.EntryType)),
		)
	case core.OrderExit:
		if p.entry != nil {
			// The exit instruction's direction is the covering side; the
			// position side is its opposite.
			side := instr.Direction.Opposite()
			pts := (instr.Price - p.entry.Price) * side.Sign()
			p.trades++
			p.pnlPoints += pts
			p.pnlDollars += pts * p.pointValue * float64(instr.Size)
			p.entry = nil

			p.logger.Info("paper fill: exit",
				zap.String("id", fill.ID),
				zap.String("reason", fill.Reason),
				zap.Float64("price", fill.Price),
				zap.Float64("pnl_pts", pts),
				zap.Float64("session_pnl_pts", p.pnlPoints),
			)
		} else {
			p.logger.Warn("paper exit with no open entry", zap.String("id", fill.ID))
		}
	}
}

// Fills returns a copy of all recorded fills.
func (p *Paper) Fills() []Fill {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Fill, len(p.fills))
	copy(out, p.fills)
	return out
}

// Trades returns the number of completed round trips.
func (p *Paper) Trades() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.trades
}

// PnLPoints returns realized session P&L in points.
func (p *Paper) PnLPoints() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pnlPoints
}

// PnLDollars returns realized session P&L in dollars.
func (p *Paper) PnLDollars() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pnlDollars
}
