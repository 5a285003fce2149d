package midi

import (
	"fmt"
	"io"
	"sort"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// SMF is an Arranger that renders its tracks to a Standard MIDI File
// (format 1) instead of playing them.
type SMF struct {
	tracks []*smfTrack
	tempo  float64
	length float64
}

type smfTrack struct {
	name   string
	events []noteEvent
}

// NewSMF creates an empty file arrangement at 120 BPM
func NewSMF() *SMF {
	return &SMF{tempo: 120}
}

func (s *SMF) NewTrack(name string) PlayerTrack {
	t := &smfTrack{name: name}
	s.tracks = append(s.tracks, t)
	return t
}

func (s *SMF) SetTempo(bpm float64) {
	if bpm > 0 {
		s.tempo = bpm
	}
}

// SetLoopLength sets where the file ends. Events past it are kept.
func (s *SMF) SetLoopLength(beats float64) {
	s.length = beats
}

// Files have a single destination, outputs are ignored
func (t *smfTrack) SetOutput(out Output) {}

func (t *smfTrack) AddEvent(note, velocity uint8, startBeat, lengthBeats float64, channel uint8) {
	t.events = append(t.events, noteEvent{
		note:     note,
		velocity: velocity,
		channel:  channel & 0x0F,
		start:    startBeat,
		length:   lengthBeats,
	})
}

type timedMsg struct {
	tick int64
	off  bool
	msg  gomidi.Message
}

// WriteTo encodes the arrangement: a tempo track followed by one track per
// NewTrack call.
func (s *SMF) WriteTo(w io.Writer) (int64, error) {
	f := smf.New()
	f.TimeFormat = smf.MetricTicks(PPQ)

	end := BeatsToTicks(s.length)

	var tempo smf.Track
	tempo.Add(0, smf.MetaMeter(4, 4))
	tempo.Add(0, smf.MetaTempo(s.tempo))
	tempo.Close(uint32(end))
	if err := f.Add(tempo); err != nil {
		return 0, fmt.Errorf("error adding tempo track: %w", err)
	}

	for i, t := range s.tracks {
		var msgs []timedMsg
		for _, ev := range t.events {
			on := BeatsToTicks(ev.start)
			off := BeatsToTicks(ev.start + ev.length)
			if off <= on {
				off = on + 1
			}
			msgs = append(msgs,
				timedMsg{tick: on, msg: gomidi.NoteOn(ev.channel, ev.note, ev.velocity)},
				timedMsg{tick: off, off: true, msg: gomidi.NoteOffVelocity(ev.channel, ev.note, ev.velocity)},
			)
		}
		sort.SliceStable(msgs, func(a, b int) bool {
			if msgs[a].tick != msgs[b].tick {
				return msgs[a].tick < msgs[b].tick
			}
			return msgs[a].off && !msgs[b].off
		})

		var tr smf.Track
		tr.Add(0, smf.MetaTrackSequenceName(t.name))
		var last int64
		for _, m := range msgs {
			tr.Add(uint32(m.tick-last), m.msg)
			last = m.tick
		}
		var tail int64
		if end > last {
			tail = end - last
		}
		tr.Close(uint32(tail))
		if err := f.Add(tr); err != nil {
			return 0, fmt.Errorf("error adding track %d: %w", i, err)
		}
	}

	return f.WriteTo(w)
}
