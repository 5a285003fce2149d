package sequencer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// BeatsPerBar is the fixed meter used by Bars durations
const BeatsPerBar = 4

// DurationMode selects how the loop length is derived
type DurationMode string

const (
	DurationAuto  DurationMode = "auto"  // longest track
	DurationBars  DurationMode = "bars"  // Count * 4 beats
	DurationSteps DurationMode = "steps" // Count beats
)

// Duration is the loop length policy of a timeline
type Duration struct {
	Mode  DurationMode `json:"mode" yaml:"mode"`
	Count int          `json:"count,omitempty" yaml:"count,omitempty"`
}

// Auto loops at the end of the longest track
func Auto() Duration {
	return Duration{Mode: DurationAuto}
}

// Bars loops every n bars of 4 beats
func Bars(n int) Duration {
	return Duration{Mode: DurationBars, Count: n}
}

// Steps loops every n beats
func Steps(n int) Duration {
	return Duration{Mode: DurationSteps, Count: n}
}

// Beats returns the loop length in beats for the given tracks
func (d Duration) Beats(tracks []Track) float64 {
	switch d.Mode {
	case DurationBars:
		return float64(max(d.Count, 0) * BeatsPerBar)
	case DurationSteps:
		return float64(max(d.Count, 0))
	}
	var longest float64
	for i := range tracks {
		if l := tracks[i].Duration(); l > longest {
			longest = l
		}
	}
	return longest
}

func (d Duration) String() string {
	switch d.Mode {
	case DurationBars, DurationSteps:
		return fmt.Sprintf("%s:%d", d.Mode, d.Count)
	}
	return string(DurationAuto)
}

// ParseDuration parses "auto", "bars:N" or "steps:N"
func ParseDuration(s string) (Duration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == string(DurationAuto) {
		return Auto(), nil
	}
	mode, count, found := strings.Cut(s, ":")
	if !found {
		return Duration{}, fmt.Errorf("invalid duration %q (want auto, bars:N or steps:N)", s)
	}
	n, err := strconv.Atoi(count)
	if err != nil || n < 0 {
		return Duration{}, fmt.Errorf("invalid duration count %q", count)
	}
	switch DurationMode(mode) {
	case DurationBars:
		return Bars(n), nil
	case DurationSteps:
		return Steps(n), nil
	}
	return Duration{}, fmt.Errorf("invalid duration mode %q", mode)
}

// Next cycles auto -> bars -> steps -> auto, keeping a sensible count
func (d Duration) Next(tracks []Track) Duration {
	switch d.Mode {
	case DurationBars:
		return Steps(d.Count * BeatsPerBar)
	case DurationSteps:
		return Auto()
	}
	bars := int(math.Ceil(d.Beats(tracks) / BeatsPerBar))
	return Bars(max(bars, 1))
}
