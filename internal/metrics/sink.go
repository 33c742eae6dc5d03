package metrics

import "github.com/chanfade/chanfade/internal/core"

// Sink adapts a Registry to the engine's event stream: engine events become
// metric updates without the engine knowing about Prometheus.
type Sink struct {
	reg *Registry
}

// NewSink creates a metrics event sink.
func NewSink(reg *Registry) *Sink {
	return &Sink{reg: reg}
}

// Publish updates the relevant metrics for the event.
func (s *Sink) Publish(ev core.Event) {
	switch e := ev.(type) {
	case core.ChannelEvent:
		s.reg.SetChannelRange(e.Channel.Range())
	case core.BreakEvent:
		side := "high"
		if e.Direction == core.DirectionShort {
			side = "low"
		}
		s.reg.RecordBreak(side)
	case core.SignalEvent:
		s.reg.RecordSignal(string(e.Signal.EntryType), string(e.Signal.Direction))
	case core.EntryEvent:
		s.reg.RecordEntry(string(e.Position.EntryType), string(e.Position.Direction))
	case core.ExitEvent:
		s.reg.RecordExit(string(e.Decision.Reason), e.Decision.PnLPoints, e.Decision.BarsHeld)
	}
}
