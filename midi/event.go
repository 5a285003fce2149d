package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
	CC      uint8 = 0xB0
)

// Event is a decoded channel message as delivered to listeners
type Event struct {
	Type     uint8 // NoteOn, NoteOff, CC
	Channel  uint8 // 0-15
	Note     uint8 // note number, or controller number for CC
	Velocity uint8 // velocity, or controller value for CC
}

// Decode turns a raw message into an Event. ok is false for anything that
// is not a note or controller message.
func Decode(msg gomidi.Message) (ev Event, ok bool) {
	var channel, key, velocity uint8
	switch {
	case msg.GetNoteOn(&channel, &key, &velocity):
		return Event{Type: NoteOn, Channel: channel, Note: key, Velocity: velocity}, true
	case msg.GetNoteOff(&channel, &key, &velocity):
		return Event{Type: NoteOff, Channel: channel, Note: key, Velocity: velocity}, true
	case msg.GetControlChange(&channel, &key, &velocity):
		return Event{Type: CC, Channel: channel, Note: key, Velocity: velocity}, true
	}
	return Event{}, false
}

// Message encodes the event back into a wire message
func (e Event) Message() gomidi.Message {
	switch e.Type {
	case NoteOn:
		return gomidi.NoteOn(e.Channel, e.Note, e.Velocity)
	case NoteOff:
		return gomidi.NoteOffVelocity(e.Channel, e.Note, e.Velocity)
	case CC:
		return gomidi.ControlChange(e.Channel, e.Note, e.Velocity)
	}
	return nil
}
