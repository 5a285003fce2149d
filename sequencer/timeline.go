package sequencer

import (
	"sort"
	"time"

	"stepseq/midi"
)

// Event is one scheduled note on one physical channel
type Event struct {
	Note     Note
	Velocity Velocity
	Start    float64 // beats
	Length   float64 // beats
	Channel  uint8
}

// TimelineTrack holds the events compiled from the registry track at Index
type TimelineTrack struct {
	Index   int
	Name    string
	Audible bool
	Events  []Event
}

// Timeline is the schedulable form of the registry at compile time. It is
// never modified after Compile; a new one is compiled on every play.
type Timeline struct {
	Tracks []TimelineTrack
	Length float64 // loop length in beats
	Tempo  float64
}

// Compile builds a timeline from a registry snapshot. It has no side
// effects and returns equal timelines for equal inputs.
func Compile(tracks []Track, tempo float64, d Duration) Timeline {
	solo := false
	for i := range tracks {
		if tracks[i].Solo {
			solo = true
			break
		}
	}

	tl := Timeline{
		Tracks: make([]TimelineTrack, len(tracks)),
		Length: d.Beats(tracks),
		Tempo:  tempo,
	}

	for i := range tracks {
		t := &tracks[i]
		on := audible(t, solo)
		tt := TimelineTrack{
			Index:   i,
			Name:    t.Name,
			Audible: on,
			Events:  []Event{},
		}
		for _, s := range t.Steps {
			velocity := s.Velocity
			if !on {
				velocity = 0
			}
			for _, n := range s.Notes {
				for _, ch := range t.Channels {
					tt.Events = append(tt.Events, Event{
						Note:     n,
						Velocity: velocity,
						Start:    s.Position,
						Length:   s.Duration,
						Channel:  ch,
					})
				}
			}
		}
		tl.Tracks[i] = tt
	}
	return tl
}

// Events returns every event ordered by start beat. Events sharing a start
// keep track order.
func (tl Timeline) Events() []Event {
	var out []Event
	for _, t := range tl.Tracks {
		out = append(out, t.Events...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start < out[j].Start
	})
	return out
}

// Equal reports whether two timelines schedule the same events at the
// same tempo and length
func (tl Timeline) Equal(other Timeline) bool {
	if tl.Length != other.Length || tl.Tempo != other.Tempo || len(tl.Tracks) != len(other.Tracks) {
		return false
	}
	for i, t := range tl.Tracks {
		o := other.Tracks[i]
		if t.Index != o.Index || t.Name != o.Name || t.Audible != o.Audible || len(t.Events) != len(o.Events) {
			return false
		}
		for j := range t.Events {
			if t.Events[j] != o.Events[j] {
				return false
			}
		}
	}
	return true
}

// NumEvents returns the number of events across all tracks
func (tl Timeline) NumEvents() int {
	n := 0
	for _, t := range tl.Tracks {
		n += len(t.Events)
	}
	return n
}

// Duration is the wall-clock length of one loop at the compiled tempo
func (tl Timeline) Duration() time.Duration {
	return midi.BeatsToDuration(tl.Length, tl.Tempo)
}

// Arrange loads the timeline into an engine arrangement: one engine track
// per timeline track, all sending to out.
func (tl Timeline) Arrange(a midi.Arranger, out midi.Output) {
	for _, t := range tl.Tracks {
		et := a.NewTrack(t.Name)
		et.SetOutput(out)
		for _, ev := range t.Events {
			et.AddEvent(uint8(ev.Note), uint8(ev.Velocity), ev.Start, ev.Length, ev.Channel)
		}
	}
	a.SetTempo(tl.Tempo)
	a.SetLoopLength(tl.Length)
}
