package engine

import (
	"testing"

	"github.com/chanfade/chanfade/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openLong(m *PositionManager, price float64) core.Position {
	return m.OnSignal(core.Signal{
		Direction: core.DirectionLong,
		EntryType: core.EntryFailedTest,
		Price:     price,
		Time:      testBase,
		Reason:    "test",
	})
}

func openShort(m *PositionManager, price float64) core.Position {
	return m.OnSignal(core.Signal{
		Direction: core.DirectionShort,
		EntryType: core.EntryFailedTest,
		Price:     price,
		Time:      testBase,
		Reason:    "test",
	})
}

func TestPositionManagerOnSignal(t *testing.T) {
	m := NewPositionManager(testStrategy())
	require.True(t, m.Flat())

	pos := openLong(m, 100)
	assert.False(t, m.Flat())
	assert.Equal(t, 96.0, pos.Stop)
	assert.Equal(t, 104.0, pos.Target)
	assert.Equal(t, 100.0, pos.Extreme)
	assert.False(t, pos.TrailArmed)

	m = NewPositionManager(testStrategy())
	pos = openShort(m, 100)
	assert.Equal(t, 104.0, pos.Stop)
	assert.Equal(t, 96.0, pos.Target)
}

func TestPositionManagerTargetExit(t *testing.T) {
	m := NewPositionManager(testStrategy())
	openLong(m, 100)

	d := m.OnBar(testBar(1, 101, 104.2, 100.5, 103.8))
	require.NotNil(t, d)
	assert.Equal(t, core.ExitTarget, d.Reason)
	assert.Equal(t, 104.0, d.Price)
	assert.Equal(t, 4.0, d.PnLPoints)
	assert.Equal(t, 1, d.BarsHeld)
	assert.True(t, m.Flat())
}

func TestPositionManagerHardStopExit(t *testing.T) {
	m := NewPositionManager(testStrategy())
	openLong(m, 100)

	d := m.OnBar(testBar(1, 99, 99.5, 95.8, 96.2))
	require.NotNil(t, d)
	assert.Equal(t, core.ExitStop, d.Reason)
	assert.Equal(t, 96.0, d.Price)
	assert.Equal(t, -4.0, d.PnLPoints)
}

func TestPositionManagerTrailingArmAndExit(t *testing.T) {
	m := NewPositionManager(testStrategy())
	openLong(m, 100)

	// Profit reaches the activation threshold: arm, no exit yet.
	d := m.OnBar(testBar(1, 100, 101.2, 99.8, 101))
	require.Nil(t, d)
	pos, ok := m.Position()
	require.True(t, ok)
	assert.True(t, pos.TrailArmed)
	assert.Equal(t, 100.7, pos.TrailStop)
	assert.Equal(t, 101.2, pos.Extreme)

	// Pullback through the protected price exits at it.
	d = m.OnBar(testBar(2, 101, 101.1, 100.6, 100.9))
	require.NotNil(t, d)
	assert.Equal(t, core.ExitTrailStop, d.Reason)
	assert.Equal(t, 100.7, d.Price)
	assert.InDelta(t, 0.7, d.PnLPoints, 1e-9)
	assert.Equal(t, 2, d.BarsHeld)
}

func TestPositionManagerTrailingRatchet(t *testing.T) {
	m := NewPositionManager(testStrategy())
	openLong(m, 100)

	require.Nil(t, m.OnBar(testBar(1, 100, 101.2, 99.8, 101)))

	// New extreme ratchets the protected price up.
	require.Nil(t, m.OnBar(testBar(2, 101, 102, 100.9, 101.8)))
	pos, _ := m.Position()
	assert.Equal(t, 102.0, pos.Extreme)
	assert.InDelta(t, 101.5, pos.TrailStop, 1e-9)

	// No new extreme, no pullback to the trail: nothing moves.
	require.Nil(t, m.OnBar(testBar(3, 101.8, 101.9, 101.6, 101.7)))
	pos, _ = m.Position()
	assert.Equal(t, 102.0, pos.Extreme)
	assert.InDelta(t, 101.5, pos.TrailStop, 1e-9)

	d := m.OnBar(testBar(4, 101.7, 101.8, 101.4, 101.5))
	require.NotNil(t, d)
	assert.Equal(t, core.ExitTrailStop, d.Reason)
	assert.InDelta(t, 101.5, d.Price, 1e-9)
	assert.InDelta(t, 1.5, d.PnLPoints, 1e-9)
}

func TestPositionManagerTargetBeatsTrail(t *testing.T) {
	m := NewPositionManager(testStrategy())
	openLong(m, 100)
	require.Nil(t, m.OnBar(testBar(1, 100, 101.2, 99.8, 101)))

	// Both the target and the armed trail are inside this bar's range; the
	// target wins.
	d := m.OnBar(testBar(2, 101, 104.5, 100.5, 103))
	require.NotNil(t, d)
	assert.Equal(t, core.ExitTarget, d.Reason)
	assert.Equal(t, 104.0, d.Price)
	assert.Equal(t, 4.0, d.PnLPoints)
}

func TestPositionManagerStopBeatsArming(t *testing.T) {
	m := NewPositionManager(testStrategy())
	openLong(m, 100)

	// The bar both reaches the activation threshold and blows through the hard
	// stop; the stop fires and arming never happens.
	d := m.OnBar(testBar(1, 100, 101.5, 95.5, 96))
	require.NotNil(t, d)
	assert.Equal(t, core.ExitStop, d.Reason)
	assert.Equal(t, -4.0, d.PnLPoints)
}

func TestPositionManagerTimeExit(t *testing.T) {
	m := NewPositionManager(testStrategy())
	openLong(m, 100)

	for i := 1; i < 5; i++ {
		require.Nil(t, m.OnBar(testBar(i, 100, 100.5, 99.6, 100.2)))
	}
	d := m.OnBar(testBar(5, 100, 100.5, 99.6, 100.2))
	require.NotNil(t, d)
	assert.Equal(t, core.ExitTime, d.Reason)
	assert.Equal(t, 100.2, d.Price)
	assert.InDelta(t, 0.2, d.PnLPoints, 1e-9)
	assert.Equal(t, 5, d.BarsHeld)
}

func TestPositionManagerShortSymmetry(t *testing.T) {
	m := NewPositionManager(testStrategy())
	openShort(m, 100)

	d := m.OnBar(testBar(1, 99, 100.4, 95.7, 96.1))
	require.NotNil(t, d)
	assert.Equal(t, core.ExitTarget, d.Reason)
	assert.Equal(t, 96.0, d.Price)
	assert.Equal(t, 4.0, d.PnLPoints)

	m = NewPositionManager(testStrategy())
	openShort(m, 100)

	require.Nil(t, m.OnBar(testBar(1, 100, 100.2, 98.8, 99)))
	pos, _ := m.Position()
	assert.True(t, pos.TrailArmed)
	assert.InDelta(t, 99.3, pos.TrailStop, 1e-9)

	d = m.OnBar(testBar(2, 99, 99.4, 98.9, 99.2))
	require.NotNil(t, d)
	assert.Equal(t, core.ExitTrailStop, d.Reason)
	assert.InDelta(t, 99.3, d.Price, 1e-9)
	assert.InDelta(t, 0.7, d.PnLPoints, 1e-9)
}
