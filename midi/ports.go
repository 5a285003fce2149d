package midi

import (
	"errors"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// ErrPortScanTimeout is returned when the system MIDI service does not
// answer a port listing in time
var ErrPortScanTimeout = errors.New("MIDI port scan timed out")

// Ports lists the names of the system's MIDI ports
type Ports struct {
	Ins  []string
	Outs []string
}

// ListPorts scans the available ports. The scan runs in its own goroutine
// because CoreMIDI can hang; after timeout the scan is abandoned.
func ListPorts(timeout time.Duration) (Ports, error) {
	ch := make(chan Ports, 1)
	go func() {
		var p Ports
		for _, in := range gomidi.GetInPorts() {
			p.Ins = append(p.Ins, in.String())
		}
		for _, out := range gomidi.GetOutPorts() {
			p.Outs = append(p.Outs, out.String())
		}
		ch <- p
	}()

	select {
	case p := <-ch:
		return p, nil
	case <-time.After(timeout):
		// User needs to run: sudo killall coreaudiod midiserver
		return Ports{}, ErrPortScanTimeout
	}
}
