package midi

import (
	"errors"
	"fmt"
	"sync"

	"stepseq/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

var (
	ErrNoInput  = errors.New("no virtual input port")
	ErrNoOutput = errors.New("no virtual output port")
)

// Driver owns the rtmidi driver handle, the virtual ports published to
// other applications and the transport loop.
type Driver struct {
	drv  *rtmididrv.Driver
	loop *Loop

	mu         sync.Mutex
	in         drivers.In
	out        *portOutput
	stopListen func()
}

// portOutput serializes sends to one port: the player and the input router
// write from different goroutines.
type portOutput struct {
	mu   sync.Mutex
	port drivers.Out
	send func(gomidi.Message) error
}

func (o *portOutput) Send(msg gomidi.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.send(msg)
}

func (o *portOutput) String() string {
	return o.port.String()
}

// NewDriver opens the rtmidi driver. Fails when no MIDI backend is
// available on this system.
func NewDriver() (*Driver, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	return &Driver{
		drv:  drv,
		loop: NewLoop(),
	}, nil
}

// CreateVirtualInputPort publishes an input port other applications can
// send to
func (d *Driver) CreateVirtualInputPort(name string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.in != nil {
		return fmt.Errorf("virtual input %q already open", d.in.String())
	}
	in, err := d.drv.OpenVirtualIn(name)
	if err != nil {
		return fmt.Errorf("failed to create virtual MIDI input port '%s': %w", name, err)
	}
	d.in = in
	debug.Log("engine", "virtual in: %s", name)
	return nil
}

// CreateVirtualOutputPort publishes an output port other applications can
// listen to
func (d *Driver) CreateVirtualOutputPort(name string) (Output, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.out != nil {
		return nil, fmt.Errorf("virtual output %q already open", d.out.String())
	}
	out, err := d.drv.OpenVirtualOut(name)
	if err != nil {
		return nil, fmt.Errorf("failed to create virtual MIDI output port '%s': %w", name, err)
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		out.Close()
		return nil, fmt.Errorf("open output: %w", err)
	}
	d.out = &portOutput{port: out, send: send}
	debug.Log("engine", "virtual out: %s", name)
	return d.out, nil
}

// DestroyAllVirtualPorts stops listening and closes both virtual ports
func (d *Driver) DestroyAllVirtualPorts() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopListen != nil {
		d.stopListen()
		d.stopListen = nil
	}
	if d.in != nil {
		d.in.Close()
		d.in = nil
	}
	if d.out != nil {
		d.out.port.Close()
		d.out = nil
	}
}

// Listen delivers messages arriving on the virtual input to l
func (d *Driver) Listen(l Listener) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.in == nil {
		return ErrNoInput
	}
	if d.stopListen != nil {
		d.stopListen()
	}
	stop, err := gomidi.ListenTo(d.in, func(msg gomidi.Message, timestampms int32) {
		Dispatch(l, msg)
	})
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	d.stopListen = stop
	return nil
}

// Dispatch routes one incoming message to the matching listener method
func Dispatch(l Listener, msg gomidi.Message) {
	ev, ok := Decode(msg)
	switch {
	case ok && ev.Type == NoteOn:
		l.NoteOn(ev.Note, ev.Velocity, ev.Channel)
	case ok && ev.Type == NoteOff:
		l.NoteOff(ev.Note, ev.Velocity, ev.Channel)
	default:
		if ml, ok := l.(MessageListener); ok {
			ml.Message(msg)
		}
	}
}

func (d *Driver) SendNoteOn(note, velocity, channel uint8) error {
	return d.sendOut(gomidi.NoteOn(channel, note, velocity))
}

func (d *Driver) SendNoteOff(note, velocity, channel uint8) error {
	return d.sendOut(gomidi.NoteOffVelocity(channel, note, velocity))
}

func (d *Driver) sendOut(msg gomidi.Message) error {
	d.mu.Lock()
	out := d.out
	d.mu.Unlock()
	if out == nil {
		return ErrNoOutput
	}
	return out.Send(msg)
}

// NewPlayer returns a fresh clock-driven player
func (d *Driver) NewPlayer() Player {
	return NewPlayer()
}

// Executor is the OS-thread-locked loop transport calls must run on
func (d *Driver) Executor() Executor {
	return d.loop
}

// Close releases the ports, the transport loop and the driver
func (d *Driver) Close() {
	d.DestroyAllVirtualPorts()
	d.loop.Close()
	d.drv.Close()
}
