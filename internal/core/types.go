package core

import "time"

// Direction is the side of a signal or position.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Sign returns +1 for long, -1 for short.
func (d Direction) Sign() float64 {
	if d == DirectionShort {
		return -1
	}
	return 1
}

// Opposite returns the other side.
func (d Direction) Opposite() Direction {
	if d == DirectionLong {
		return DirectionShort
	}
	return DirectionLong
}

// EntryType identifies which entry rule produced a signal.
type EntryType string

const (
	EntryFailedTest EntryType = "failed_test"
	EntryBounce     EntryType = "bounce"
	EntryBreakout   EntryType = "breakout"
)

// Bar is a single OHLCV price bar. Bars are immutable and arrive in strictly
// increasing timestamp order.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
	Source string // feed identifier, e.g. "csv", "projectx", "quote_built"
}

// Validate checks internal bar consistency.
func (b Bar) Validate() error {
	switch {
	case b.Time.IsZero():
		return ErrBadBar
	case b.High < b.Low:
		return ErrBadBar
	case b.High < b.Open || b.High < b.Close:
		return ErrBadBar
	case b.Low > b.Open || b.Low > b.Close:
		return ErrBadBar
	}
	return nil
}

// Channel is the rolling high/low over the last N bars.
type Channel struct {
	High   float64
	Low    float64
	Period int
}

// Range returns the channel width in points.
func (c Channel) Range() float64 {
	return c.High - c.Low
}

// BreakState carries one bar's channel-break flags across exactly one bar
// boundary. ChannelHigh/ChannelLow are the channel levels that were in force
// when the break occurred; the failed-test reclaim check compares against
// these, not against the channel after the breaking bar entered the window.
type BreakState struct {
	BrokeHigh   bool
	BrokeLow    bool
	ChannelHigh float64
	ChannelLow  float64
}

// Any reports whether either side broke.
func (s BreakState) Any() bool {
	return s.BrokeHigh || s.BrokeLow
}

// Signal is a directional entry signal.
type Signal struct {
	Direction Direction
	EntryType EntryType
	Price     float64 // triggering bar's close
	Time      time.Time
	Reason    string
}

// ExitReason identifies which exit rule closed a position.
type ExitReason string

const (
	ExitTarget    ExitReason = "target"
	ExitTrailStop ExitReason = "trail_stop"
	ExitStop      ExitReason = "stop"
	ExitTime      ExitReason = "time"
)

// ExitDecision is the outcome of an exit rule firing.
type ExitDecision struct {
	Reason    ExitReason
	Price     float64
	PnLPoints float64
	BarsHeld  int
	Time      time.Time
}

// Position is an open position. Mutated only by the position manager; at most
// one position is open at any time.
type Position struct {
	Direction  Direction
	EntryType  EntryType
	EntryPrice float64
	EntryTime  time.Time
	Stop       float64 // hard stop price
	Target     float64 // profit target price
	TrailArmed bool
	TrailStop  float64 // protected price, valid once armed
	Extreme    float64 // favorable high/low-water mark since entry
	BarsHeld   int
}

// EffectiveStop returns the tighter of the hard stop and the trailing stop.
func (p *Position) EffectiveStop() float64 {
	if !p.TrailArmed {
		return p.Stop
	}
	if p.Direction == DirectionLong {
		if p.TrailStop > p.Stop {
			return p.TrailStop
		}
		return p.Stop
	}
	if p.TrailStop < p.Stop {
		return p.TrailStop
	}
	return p.Stop
}

// UnrealizedPoints returns the open P&L in points at the given price.
func (p *Position) UnrealizedPoints(price float64) float64 {
	return (price - p.EntryPrice) * p.Direction.Sign()
}
