package engine

import "github.com/chanfade/chanfade/internal/core"

// ChannelTracker maintains the rolling high/low channel over the last N bars.
// The window is a fixed-size ring keyed by arrival order.
type ChannelTracker struct {
	period int
	bars   []core.Bar
	next   int
	count  int
}

// NewChannelTracker creates a tracker over the given period (N >= 2).
func NewChannelTracker(period int) *ChannelTracker {
	return &ChannelTracker{
		period: period,
		bars:   make([]core.Bar, period),
	}
}

// Update adds a bar to the window and returns the recomputed channel,
// including the just-added bar. Returns nil until N bars have been observed.
func (t *ChannelTracker) Update(bar core.Bar) *core.Channel {
	t.bars[t.next] = bar
	t.next = (t.next + 1) % t.period
	if t.count < t.period {
		t.count++
	}
	return t.Channel()
}

// Channel returns the current channel without mutating the window, or nil if
// fewer than N bars have been observed.
func (t *ChannelTracker) Channel() *core.Channel {
	if t.count < t.period {
		return nil
	}

	ch := core.Channel{
		High:   t.bars[0].High,
		Low:    t.bars[0].Low,
		Period: t.period,
	}
	for _, b := range t.bars[1:] {
		if b.High > ch.High {
			ch.High = b.High
		}
		if b.Low < ch.Low {
			ch.Low = b.Low
		}
	}
	return &ch
}

// Count returns the number of bars observed, capped at the period.
func (t *ChannelTracker) Count() int {
	return t.count
}
