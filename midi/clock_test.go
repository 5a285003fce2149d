package midi

import (
	"testing"
	"time"
)

func TestBeatsTicks(t *testing.T) {
	for _, tc := range []struct {
		beats float64
		ticks int64
	}{
		{0, 0},
		{1, PPQ},
		{0.25, PPQ / 4},
		{4.5, 4*PPQ + PPQ/2},
		{-1, 0},
	} {
		if got := BeatsToTicks(tc.beats); got != tc.ticks {
			t.Errorf("BeatsToTicks(%v) = %d, expected %d", tc.beats, got, tc.ticks)
		}
	}
	if got := TicksToBeats(3 * PPQ / 2); got != 1.5 {
		t.Errorf("TicksToBeats = %v, expected 1.5", got)
	}
}

func TestWallClock(t *testing.T) {
	if got := BeatsToDuration(4, 120); got != 2*time.Second {
		t.Errorf("4 beats at 120 = %v", got)
	}
	if got := TicksToDuration(PPQ, 60); got != time.Second {
		t.Errorf("one beat at 60 = %v", got)
	}
	if got := DurationToTicks(time.Second, 120); got != 2*PPQ {
		t.Errorf("1s at 120 = %d ticks", got)
	}
	if TickDuration(0) != 0 || BeatsToDuration(1, -5) != 0 || DurationToTicks(time.Second, 0) != 0 {
		t.Errorf("non-positive tempo should give zero")
	}
	// one tick at 125 BPM is exactly 500us
	if got := TickDuration(125); got != 500*time.Microsecond {
		t.Errorf("tick at 125 = %v", got)
	}
}
