package engine

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/chanfade/chanfade/internal/core"
	"github.com/chanfade/chanfade/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(testStrategy(), opts...)
	require.NoError(t, err)
	return e
}

func TestEngineRejectsInvalidConfig(t *testing.T) {
	cfg := testStrategy()
	cfg.ChannelPeriod = 1
	_, err := New(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrConfigInvalid))
}

func TestEngineAbstainsDuringWarmup(t *testing.T) {
	sink := events.NewMemory()
	e := newTestEngine(t, WithEventSink(sink))

	require.NoError(t, e.OnBar(flatBar(0)))
	require.NoError(t, e.OnBar(flatBar(1)))
	assert.Empty(t, sink.Events(), "no events before the channel exists")

	require.NoError(t, e.OnBar(flatBar(2)))
	evs := sink.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, core.EventChannel, evs[0].Kind())
}

// A sweep above the channel followed by a close back inside produces a
// failed-test short on the very next bar, and only on that bar.
func TestEngineFailedTestShortSequence(t *testing.T) {
	sink := events.NewMemory()
	orders := &recordingOrders{}
	e := newTestEngine(t, WithEventSink(sink), WithOrderSink(orders))

	// Establish the channel at [99, 101].
	for i := 0; i < 3; i++ {
		require.NoError(t, e.OnBar(testBar(i, 100, 101, 99, 100)))
	}

	// Sweep bar: high pierces 101 + tolerance, close holds above.
	require.NoError(t, e.OnBar(testBar(3, 100.5, 102, 100.2, 101.6)))
	require.True(t, e.Flat())

	// Confirmation bar: close back under the break-time channel high.
	require.NoError(t, e.OnBar(testBar(4, 101, 101.2, 100, 100.4)))

	pos, ok := e.Position()
	require.True(t, ok)
	assert.Equal(t, core.DirectionShort, pos.Direction)
	assert.Equal(t, core.EntryFailedTest, pos.EntryType)
	assert.Equal(t, 100.4, pos.EntryPrice)
	assert.Equal(t, 104.4, pos.Stop)
	assert.InDelta(t, 96.4, pos.Target, 1e-9)

	var kinds []core.EventKind
	for _, ev := range sink.Events() {
		kinds = append(kinds, ev.Kind())
	}
	assert.Equal(t, []core.EventKind{
		core.EventChannel, // bar 2: channel established
		core.EventChannel, // bar 3
		core.EventBreak,   // bar 3: sweep above
		core.EventChannel, // bar 4
		core.EventDetector,
		core.EventSignal,
		core.EventEntry,
	}, kinds)

	instrs := orders.all()
	require.Len(t, instrs, 1)
	assert.Equal(t, core.OrderEnter, instrs[0].Action)
	assert.Equal(t, core.DirectionShort, instrs[0].Direction)
	assert.Equal(t, 100.4, instrs[0].Price)
	assert.Equal(t, 1, instrs[0].Size)
}

func TestEngineBreakFlagExpiresAfterOneBar(t *testing.T) {
	e := newTestEngine(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, e.OnBar(testBar(i, 100, 101, 99, 100)))
	}
	require.NoError(t, e.OnBar(testBar(3, 100.5, 102, 100.2, 101.6)))

	// A neutral bar passes without reclaiming; the flag must not survive it.
	require.NoError(t, e.OnBar(testBar(4, 101.5, 101.8, 101.2, 101.6)))
	require.True(t, e.Flat())

	// Same reclaim shape as a confirmation bar, one bar too late.
	require.NoError(t, e.OnBar(testBar(5, 101, 101.2, 100, 100.4)))
	assert.True(t, e.Flat(), "stale break flag must not trigger an entry")
}

func TestEngineFullTradeTargetExit(t *testing.T) {
	sink := events.NewMemory()
	orders := &recordingOrders{}
	e := newTestEngine(t, WithEventSink(sink), WithOrderSink(orders))

	for i := 0; i < 3; i++ {
		require.NoError(t, e.OnBar(testBar(i, 100, 101, 99, 100)))
	}
	require.NoError(t, e.OnBar(testBar(3, 100.5, 102, 100.2, 101.6)))
	require.NoError(t, e.OnBar(testBar(4, 101, 101.2, 100, 100.4)))
	require.False(t, e.Flat())

	// Short from 100.4, target 96.4: this bar trades through it.
	require.NoError(t, e.OnBar(testBar(5, 100.2, 100.3, 96.2, 96.5)))
	assert.True(t, e.Flat())

	evs := sink.Events()
	last, ok := evs[len(evs)-1].(core.ExitEvent)
	require.True(t, ok, "last event should be the exit")
	assert.Equal(t, core.ExitTarget, last.Decision.Reason)
	assert.InDelta(t, 96.4, last.Decision.Price, 1e-9)
	assert.InDelta(t, 4.0, last.Decision.PnLPoints, 1e-9)
	assert.Equal(t, core.DirectionShort, last.Direction)
	assert.Equal(t, 100.4, last.EntryPrice)

	instrs := orders.all()
	require.Len(t, instrs, 2)
	assert.Equal(t, core.OrderExit, instrs[1].Action)
	assert.Equal(t, core.DirectionLong, instrs[1].Direction, "exit order covers the short")
	assert.Equal(t, string(core.ExitTarget), instrs[1].Reason)

	stats := e.Stats()
	assert.Equal(t, 6, stats.Bars)
	assert.Equal(t, 1, stats.Signals)
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, 1, stats.Exits)
	assert.Equal(t, 1, stats.Wins)
	assert.InDelta(t, 4.0, stats.PnLPoints, 1e-9)
}

func TestEngineOrderingViolationPoisons(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.OnBar(flatBar(0)))

	err := e.OnBar(flatBar(0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrOrderingViolation))

	// Poisoned: even a well-formed later bar is refused.
	err = e.OnBar(flatBar(1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrOrderingViolation))
	assert.Equal(t, 1, e.Stats().Bars)
}

func TestEngineRejectsBadBarWithoutAdvancing(t *testing.T) {
	sink := events.NewMemory()
	e := newTestEngine(t, WithEventSink(sink))

	require.NoError(t, e.OnBar(flatBar(0)))
	require.NoError(t, e.OnBar(flatBar(1)))

	bad := testBar(2, 100, 99, 101, 100) // high < low
	err := e.OnBar(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrBadBar))
	assert.Empty(t, sink.Events(), "rejected bar must not complete the window")

	// The stream recovers: the next good bar completes the channel.
	require.NoError(t, e.OnBar(flatBar(3)))
	evs := sink.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, core.EventChannel, evs[0].Kind())
	assert.Equal(t, 3, e.Stats().Bars)
}

// randomBars produces a plausible OHLC random walk. Same seed, same bars.
func randomBars(seed int64, n int) []core.Bar {
	rng := rand.New(rand.NewSource(seed))
	bars := make([]core.Bar, 0, n)
	price := 100.0
	for i := 0; i < n; i++ {
		o := price
		c := o + (rng.Float64()-0.5)*3
		h := math.Max(o, c) + rng.Float64()*1.5
		l := math.Min(o, c) - rng.Float64()*1.5
		bars = append(bars, core.Bar{
			Time:   testBase.Add(time.Duration(i) * 5 * time.Minute),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: int64(500 + rng.Intn(1000)),
			Source: "test",
		})
		price = c
	}
	return bars
}

func TestEngineDeterminism(t *testing.T) {
	bars := randomBars(42, 300)

	run := func() []core.Event {
		sink := events.NewMemory()
		e := newTestEngine(t, WithEventSink(sink))
		for _, b := range bars {
			require.NoError(t, e.OnBar(b))
		}
		return sink.Events()
	}

	first := run()
	second := run()
	require.NotEmpty(t, first)
	assert.Equal(t, first, second, "identical input must produce an identical event sequence")
}

func TestEngineAtMostOnePosition(t *testing.T) {
	for _, seed := range []int64{1, 7, 42, 1234} {
		orders := &recordingOrders{}
		e := newTestEngine(t, WithOrderSink(orders))

		for _, b := range randomBars(seed, 500) {
			require.NoError(t, e.OnBar(b))
		}

		// Instructions must strictly alternate enter/exit, starting with enter.
		open := 0
		for i, instr := range orders.all() {
			switch instr.Action {
			case core.OrderEnter:
				require.Equal(t, 0, open, "seed %d: entry %d while a position is open", seed, i)
				open = 1
			case core.OrderExit:
				require.Equal(t, 1, open, "seed %d: exit %d while flat", seed, i)
				open = 0
			}
		}

		stats := e.Stats()
		assert.Equal(t, stats.Entries, stats.Signals, "seed %d", seed)
		diff := stats.Entries - stats.Exits
		assert.True(t, diff == 0 || diff == 1, "seed %d: entries=%d exits=%d", seed, stats.Entries, stats.Exits)
	}
}
