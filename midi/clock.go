package midi

import "time"

// PPQ is the tick resolution of the player (pulses per quarter note)
const PPQ = 960

// BeatsToTicks converts a beat position to the nearest tick
func BeatsToTicks(beats float64) int64 {
	if beats <= 0 {
		return 0
	}
	return int64(beats*PPQ + 0.5)
}

// TicksToBeats converts ticks back to beats
func TicksToBeats(ticks int64) float64 {
	return float64(ticks) / PPQ
}

// TickDuration is the wall-clock length of one tick at the given tempo
func TickDuration(bpm float64) time.Duration {
	if bpm <= 0 {
		return 0
	}
	return time.Duration(float64(time.Minute) / (bpm * PPQ))
}

// BeatsToDuration converts a length in beats to wall-clock time
func BeatsToDuration(beats, bpm float64) time.Duration {
	if bpm <= 0 || beats <= 0 {
		return 0
	}
	return time.Duration(beats * float64(time.Minute) / bpm)
}

// DurationToTicks converts elapsed wall-clock time to ticks at a tempo
func DurationToTicks(d time.Duration, bpm float64) int64 {
	if bpm <= 0 || d <= 0 {
		return 0
	}
	return int64(float64(d) * bpm * PPQ / float64(time.Minute))
}

// TicksToDuration converts a tick count to wall-clock time at a tempo
func TicksToDuration(ticks int64, bpm float64) time.Duration {
	if bpm <= 0 {
		return 0
	}
	return time.Duration(float64(ticks) * float64(time.Minute) / (bpm * PPQ))
}
