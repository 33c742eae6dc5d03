package engine

import (
	"fmt"

	"github.com/chanfade/chanfade/internal/core"
)

// SweepDetector classifies a bar against the channel: which side (if any) the
// bar's range broke, and which entry candidates the bar produced. Detection is
// a pure function of (bar, channel, prior break state); the detector itself
// holds only configured thresholds.
type SweepDetector struct {
	tolerancePts   float64
	breakoutMinPts float64
}

// NewSweepDetector creates a detector with the given tolerance and breakout
// minimum, both in points.
func NewSweepDetector(tolerancePts, breakoutMinPts float64) *SweepDetector {
	return &SweepDetector{
		tolerancePts:   tolerancePts,
		breakoutMinPts: breakoutMinPts,
	}
}

// Detect returns the bar's fresh break state (replacing the prior one) and the
// candidate entry events for this bar, in precedence order: failed test,
// bounce, breakout.
//
// Failed tests confirm against the channel levels recorded when the prior bar
// broke, not against the current channel; a break is only actionable on the
// very next bar.
func (d *SweepDetector) Detect(bar core.Bar, ch core.Channel, prior core.BreakState) (core.BreakState, []core.DetectorEvent) {
	tol := d.tolerancePts

	next := core.BreakState{
		BrokeHigh:   bar.High > ch.High+tol,
		BrokeLow:    bar.Low < ch.Low-tol,
		ChannelHigh: ch.High,
		ChannelLow:  ch.Low,
	}

	var events []core.DetectorEvent

	// Failed test: prior bar swept beyond the channel, this bar closed back
	// inside. Fade the trap.
	if prior.BrokeHigh && bar.Close < prior.ChannelHigh {
		events = append(events, core.DetectorEvent{
			Time:      bar.Time,
			EntryType: core.EntryFailedTest,
			Direction: core.DirectionShort,
			Level:     prior.ChannelHigh,
			Price:     bar.Close,
			Reason:    fmt.Sprintf("failed test: broke %.2f, reclaimed below", prior.ChannelHigh),
		})
	}
	if prior.BrokeLow && bar.Close > prior.ChannelLow {
		events = append(events, core.DetectorEvent{
			Time:      bar.Time,
			EntryType: core.EntryFailedTest,
			Direction: core.DirectionLong,
			Level:     prior.ChannelLow,
			Price:     bar.Close,
			Reason:    fmt.Sprintf("failed test: broke %.2f, reclaimed above", prior.ChannelLow),
		})
	}

	// Bounce: same-bar touch of the channel boundary rejected by the close,
	// no prior-bar break needed.
	if bar.High >= ch.High-tol && bar.High <= ch.High+tol && bar.Close < ch.High-tol {
		events = append(events, core.DetectorEvent{
			Time:      bar.Time,
			EntryType: core.EntryBounce,
			Direction: core.DirectionShort,
			Level:     ch.High,
			Price:     bar.Close,
			Reason:    fmt.Sprintf("bounce reject at %.2f", ch.High),
		})
	}
	if bar.Low >= ch.Low-tol && bar.Low <= ch.Low+tol && bar.Close > ch.Low+tol {
		events = append(events, core.DetectorEvent{
			Time:      bar.Time,
			EntryType: core.EntryBounce,
			Direction: core.DirectionLong,
			Level:     ch.Low,
			Price:     bar.Close,
			Reason:    fmt.Sprintf("bounce reject at %.2f", ch.Low),
		})
	}

	// Breakout: close held beyond the channel, continuation rather than
	// reversal.
	if bar.Close > ch.High+d.breakoutMinPts {
		events = append(events, core.DetectorEvent{
			Time:      bar.Time,
			EntryType: core.EntryBreakout,
			Direction: core.DirectionLong,
			Level:     ch.High,
			Price:     bar.Close,
			Reason:    fmt.Sprintf("breakout above %.2f", ch.High),
		})
	}
	if bar.Close < ch.Low-d.breakoutMinPts {
		events = append(events, core.DetectorEvent{
			Time:      bar.Time,
			EntryType: core.EntryBreakout,
			Direction: core.DirectionShort,
			Level:     ch.Low,
			Price:     bar.Close,
			Reason:    fmt.Sprintf("breakout below %.2f", ch.Low),
		})
	}

	return next, events
}
