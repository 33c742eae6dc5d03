package engine

import (
	"sync"
	"time"

	"github.com/chanfade/chanfade/internal/config"
	"github.com/chanfade/chanfade/internal/core"
)

var testBase = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

// testBar builds a bar at the i-th 5-minute slot of the session.
func testBar(i int, o, h, l, c float64) core.Bar {
	return core.Bar{
		Time:   testBase.Add(time.Duration(i) * 5 * time.Minute),
		Open:   o,
		High:   h,
		Low:    l,
		Close:  c,
		Volume: 1000,
		Source: "test",
	}
}

// flatBar builds a bar whose range stays well inside a 99-101 channel.
func flatBar(i int) core.Bar {
	return testBar(i, 100, 100.5, 99.5, 100)
}

func testStrategy() config.StrategyConfig {
	return config.StrategyConfig{
		ChannelPeriod:      3,
		TolerancePts:       0.5,
		BreakoutMinPts:     2.0,
		EnableFailedTest:   true,
		TrailActivationPts: 1.0,
		TrailDistancePts:   0.5,
		StopPts:            4.0,
		TargetPts:          4.0,
		MaxBars:            5,
		PointValue:         50.0,
	}
}

// recordingOrders captures submitted instructions for assertions.
type recordingOrders struct {
	mu           sync.Mutex
	instructions []core.OrderInstruction
}

func (r *recordingOrders) Submit(instr core.OrderInstruction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instructions = append(r.instructions, instr)
}

func (r *recordingOrders) all() []core.OrderInstruction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.OrderInstruction, len(r.instructions))
	copy(out, r.instructions)
	return out
}
