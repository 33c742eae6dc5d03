package core

import (
	"errors"
	"testing"
	"time"
)

func bar(o, h, l, c float64) Bar {
	return Bar{Time: time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC), Open: o, High: h, Low: l, Close: c}
}

func TestBar_Validate(t *testing.T) {
	tests := []struct {
		name    string
		bar     Bar
		wantErr bool
	}{
		{"valid", bar(100, 102, 99, 101), false},
		{"flat bar", bar(100, 100, 100, 100), false},
		{"high below low", bar(100, 98, 99, 100), true},
		{"high below close", bar(100, 101, 99, 102), true},
		{"low above open", bar(98, 102, 99, 101), true},
		{"zero time", Bar{Open: 100, High: 101, Low: 99, Close: 100}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.bar.Validate()
			if tt.wantErr && !errors.Is(err, ErrBadBar) {
				t.Errorf("expected ErrBadBar, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestDirection_Sign(t *testing.T) {
	if DirectionLong.Sign() != 1 {
		t.Error("long sign should be +1")
	}
	if DirectionShort.Sign() != -1 {
		t.Error("short sign should be -1")
	}
	if DirectionLong.Opposite() != DirectionShort {
		t.Error("opposite of long should be short")
	}
}

func TestPosition_EffectiveStop(t *testing.T) {
	long := &Position{Direction: DirectionLong, EntryPrice: 100, Stop: 96}
	if got := long.EffectiveStop(); got != 96 {
		t.Errorf("unarmed long stop = %v, want 96", got)
	}

	long.TrailArmed = true
	long.TrailStop = 100.5
	if got := long.EffectiveStop(); got != 100.5 {
		t.Errorf("armed long stop = %v, want 100.5 (trail above hard stop)", got)
	}

	short := &Position{Direction: DirectionShort, EntryPrice: 100, Stop: 104, TrailArmed: true, TrailStop: 99.5}
	if got := short.EffectiveStop(); got != 99.5 {
		t.Errorf("armed short stop = %v, want 99.5 (trail below hard stop)", got)
	}
}

func TestPosition_UnrealizedPoints(t *testing.T) {
	long := &Position{Direction: DirectionLong, EntryPrice: 100}
	if got := long.UnrealizedPoints(103); got != 3 {
		t.Errorf("long unrealized = %v, want 3", got)
	}
	short := &Position{Direction: DirectionShort, EntryPrice: 100}
	if got := short.UnrealizedPoints(103); got != -3 {
		t.Errorf("short unrealized = %v, want -3", got)
	}
}
