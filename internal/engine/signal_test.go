package engine

import (
	"testing"

	"github.com/chanfade/chanfade/internal/core"
)

func candidate(t core.EntryType, d core.Direction) core.DetectorEvent {
	return core.DetectorEvent{EntryType: t, Direction: d, Price: 100, Reason: "test"}
}

func TestSignalEvaluatorPrecedence(t *testing.T) {
	ev := NewSignalEvaluator(EnabledEntries{FailedTest: true, Bounce: true, Breakout: true})

	candidates := []core.DetectorEvent{
		candidate(core.EntryBounce, core.DirectionShort),
		candidate(core.EntryBreakout, core.DirectionLong),
		candidate(core.EntryFailedTest, core.DirectionLong),
	}
	sig := ev.Evaluate(candidates)
	if sig == nil {
		t.Fatal("expected a signal")
	}
	if sig.EntryType != core.EntryFailedTest || sig.Direction != core.DirectionLong {
		t.Errorf("got %s %s, want failed_test long", sig.EntryType, sig.Direction)
	}
}

func TestSignalEvaluatorDisabledTypesIgnored(t *testing.T) {
	ev := NewSignalEvaluator(EnabledEntries{FailedTest: true})

	sig := ev.Evaluate([]core.DetectorEvent{
		candidate(core.EntryBounce, core.DirectionShort),
		candidate(core.EntryBreakout, core.DirectionLong),
	})
	if sig != nil {
		t.Errorf("expected no signal, got %+v", sig)
	}

	sig = ev.Evaluate([]core.DetectorEvent{
		candidate(core.EntryBounce, core.DirectionShort),
		candidate(core.EntryFailedTest, core.DirectionShort),
	})
	if sig == nil || sig.EntryType != core.EntryFailedTest {
		t.Errorf("expected failed_test signal, got %+v", sig)
	}
}

func TestSignalEvaluatorEmissionOrderWithinType(t *testing.T) {
	ev := NewSignalEvaluator(EnabledEntries{FailedTest: true})

	sig := ev.Evaluate([]core.DetectorEvent{
		candidate(core.EntryFailedTest, core.DirectionShort),
		candidate(core.EntryFailedTest, core.DirectionLong),
	})
	if sig == nil || sig.Direction != core.DirectionShort {
		t.Errorf("expected the first candidate (short), got %+v", sig)
	}
}

func TestSignalEvaluatorNoCandidates(t *testing.T) {
	ev := NewSignalEvaluator(EnabledEntries{FailedTest: true, Bounce: true, Breakout: true})
	if sig := ev.Evaluate(nil); sig != nil {
		t.Errorf("expected nil, got %+v", sig)
	}
}
