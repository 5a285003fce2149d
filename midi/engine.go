package midi

import (
	gomidi "gitlab.com/gomidi/midi/v2"
)

// Listener receives the incoming note messages a sequencer acts on.
type Listener interface {
	NoteOn(note, velocity, channel uint8)
	NoteOff(note, velocity, channel uint8)
}

// MessageListener is optionally implemented by a Listener that wants every
// other incoming message kind (controllers, aftertouch, pitch wheel,
// program change, system messages).
type MessageListener interface {
	Message(msg gomidi.Message)
}

// Output is an open port that messages can be sent to
type Output interface {
	Send(msg gomidi.Message) error
	String() string
}

// Arranger collects tracks of timed note events
type Arranger interface {
	NewTrack(name string) PlayerTrack
	SetTempo(bpm float64)
	SetLoopLength(beats float64)
}

// Player schedules timed note events against a tempo clock.
// A Player is used for one run: once stopped it is discarded.
type Player interface {
	Arranger
	EnableLooping()
	Play() error
	Stop()
	IsPlaying() bool
	Position() float64 // beats since the start of the current loop
}

// PlayerTrack collects the events for one track of a Player
type PlayerTrack interface {
	SetOutput(out Output)
	AddEvent(note, velocity uint8, startBeat, lengthBeats float64, channel uint8)
}

// Executor runs functions on the context the engine requires for
// transport calls.
type Executor interface {
	Do(fn func())   // run fn and wait for it to finish
	Post(fn func()) // queue fn and return immediately
}
