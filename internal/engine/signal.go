package engine

import "github.com/chanfade/chanfade/internal/core"

// EnabledEntries selects which entry types may produce signals.
type EnabledEntries struct {
	FailedTest bool
	Bounce     bool
	Breakout   bool
}

// Allows reports whether the given entry type is enabled.
func (e EnabledEntries) Allows(t core.EntryType) bool {
	switch t {
	case core.EntryFailedTest:
		return e.FailedTest
	case core.EntryBounce:
		return e.Bounce
	case core.EntryBreakout:
		return e.Breakout
	}
	return false
}

// SignalEvaluator turns detector candidates into at most one signal per bar.
// Precedence when multiple candidates fire on the same bar:
// failed test > bounce > breakout. Within a type, the detector's emission
// order decides (short side first, matching the detection order).
type SignalEvaluator struct {
	enabled EnabledEntries
}

// NewSignalEvaluator creates an evaluator for the enabled entry types.
func NewSignalEvaluator(enabled EnabledEntries) *SignalEvaluator {
	return &SignalEvaluator{enabled: enabled}
}

// Evaluate picks the winning candidate, or nil when none is enabled.
func (e *SignalEvaluator) Evaluate(candidates []core.DetectorEvent) *core.Signal {
	byPrecedence := []core.EntryType{core.EntryFailedTest, core.EntryBounce, core.EntryBreakout}

	for _, entryType := range byPrecedence {
		if !e.enabled.Allows(entryType) {
			continue
		}
		for _, c := range candidates {
			if c.EntryType != entryType {
				continue
			}
			return &core.Signal{
				Direction: c.Direction,
				EntryType: c.EntryType,
				Price:     c.Price,
				Time:      c.Time,
				Reason:    c.Reason,
			}
		}
	}
	return nil
}
