package sequencer

import (
	"stepseq/debug"
	"stepseq/midi"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Router maps incoming notes to tracks. The input channel is an index into
// the registry: channel 0 plays the first track, channel 1 the second, and
// so on. A mapped note is re-sent on every physical channel of its track.
type Router struct {
	seq *Sequencer
}

var _ midi.MessageListener = (*Router)(nil)

// NoteOn re-sends the note on the mapped track's channels, at velocity 0
// when the track is not audible. Unmapped notes, and all notes while
// stopped, pass through unchanged.
func (r *Router) NoteOn(note, velocity, channel uint8) {
	channels, on, ok := r.lookup(channel)
	if !ok {
		debug.Log("router", "pass note-on ch=%d note=%d vel=%d", channel, note, velocity)
		if err := r.seq.engine.SendNoteOn(note, velocity, channel); err != nil {
			debug.Log("router", "send failed: %v", err)
		}
		return
	}

	if !on {
		velocity = 0
	}
	for _, ch := range channels {
		if err := r.seq.engine.SendNoteOn(note, velocity, ch); err != nil {
			debug.Log("router", "send failed: %v", err)
		}
	}
}

// NoteOff re-sends the note-off on every channel of the mapped track
// regardless of mute, so notes started before muting are released.
// Unmapped note-offs, and all note-offs while stopped, are dropped.
func (r *Router) NoteOff(note, velocity, channel uint8) {
	channels, _, ok := r.lookup(channel)
	if !ok {
		return
	}
	for _, ch := range channels {
		if err := r.seq.engine.SendNoteOff(note, velocity, ch); err != nil {
			debug.Log("router", "send failed: %v", err)
		}
	}
}

// Message receives every other message kind; nothing is routed
func (r *Router) Message(msg gomidi.Message) {
	debug.LogEvery(64, "router", "ignored %s", msg)
}

// lookup resolves channel to a track while playing
func (r *Router) lookup(channel uint8) (channels []uint8, on, ok bool) {
	if !r.seq.IsPlaying() {
		return nil, false, false
	}
	return r.seq.tracks.route(int(channel))
}
