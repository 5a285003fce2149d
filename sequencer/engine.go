package sequencer

import "stepseq/midi"

// Engine is the MIDI backend a Sequencer plays through. midi.Driver is the
// rtmidi implementation.
type Engine interface {
	CreateVirtualInputPort(name string) error
	CreateVirtualOutputPort(name string) (midi.Output, error)
	DestroyAllVirtualPorts()

	// Listen registers the receiver of messages arriving on the input port
	Listen(l midi.Listener) error

	// NewPlayer returns a fresh player for one run
	NewPlayer() midi.Player

	SendNoteOn(note, velocity, channel uint8) error
	SendNoteOff(note, velocity, channel uint8) error

	// Executor is the context transport start/stop calls must run on
	Executor() midi.Executor
}
