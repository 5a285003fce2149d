package sequencer

import (
	"sync"
	"testing"

	"stepseq/midi"

	gomidi "gitlab.com/gomidi/midi/v2"
)

type sentNote struct {
	On       bool
	Note     uint8
	Velocity uint8
	Channel  uint8
}

type fakeOutput struct {
	name string
}

func (o *fakeOutput) Send(msg gomidi.Message) error { return nil }
func (o *fakeOutput) String() string                { return o.name }

type fakeEvent struct {
	Note, Velocity uint8
	Start, Length  float64
	Channel        uint8
}

type fakeTrack struct {
	name   string
	out    midi.Output
	events []fakeEvent
}

func (t *fakeTrack) SetOutput(out midi.Output) { t.out = out }

func (t *fakeTrack) AddEvent(note, velocity uint8, start, length float64, channel uint8) {
	t.events = append(t.events, fakeEvent{note, velocity, start, length, channel})
}

type fakePlayer struct {
	mu        sync.Mutex
	tracks    []*fakeTrack
	tempo     float64
	loop      float64
	looping   bool
	playing   bool
	plays     int
	stops     int
	playError error
}

func (p *fakePlayer) NewTrack(name string) midi.PlayerTrack {
	t := &fakeTrack{name: name}
	p.tracks = append(p.tracks, t)
	return t
}

func (p *fakePlayer) SetTempo(bpm float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tempo = bpm
}

func (p *fakePlayer) SetLoopLength(beats float64) { p.loop = beats }
func (p *fakePlayer) EnableLooping()              { p.looping = true }

func (p *fakePlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playError != nil {
		return p.playError
	}
	p.plays++
	p.playing = true
	return nil
}

func (p *fakePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
	p.playing = false
}

func (p *fakePlayer) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *fakePlayer) Position() float64 { return 0 }

func (p *fakePlayer) Tempo() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tempo
}

type fakeEngine struct {
	mu sync.Mutex

	inErr, outErr, listenErr error
	playErr                  error

	inPort, outPort string
	destroyed       int
	listener        midi.Listener
	out             *fakeOutput
	sent            []sentNote
	players         []*fakePlayer

	loop *midi.Loop
}

func newFakeEngine(t *testing.T) *fakeEngine {
	e := &fakeEngine{loop: midi.NewLoop()}
	t.Cleanup(e.loop.Close)
	return e
}

func (e *fakeEngine) CreateVirtualInputPort(name string) error {
	if e.inErr != nil {
		return e.inErr
	}
	e.inPort = name
	return nil
}

func (e *fakeEngine) CreateVirtualOutputPort(name string) (midi.Output, error) {
	if e.outErr != nil {
		return nil, e.outErr
	}
	e.outPort = name
	e.out = &fakeOutput{name: name}
	return e.out, nil
}

func (e *fakeEngine) DestroyAllVirtualPorts() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.destroyed++
}

func (e *fakeEngine) Listen(l midi.Listener) error {
	if e.listenErr != nil {
		return e.listenErr
	}
	e.listener = l
	return nil
}

func (e *fakeEngine) NewPlayer() midi.Player {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := &fakePlayer{playError: e.playErr}
	e.players = append(e.players, p)
	return p
}

func (e *fakeEngine) SendNoteOn(note, velocity, channel uint8) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, sentNote{true, note, velocity, channel})
	return nil
}

func (e *fakeEngine) SendNoteOff(note, velocity, channel uint8) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, sentNote{false, note, velocity, channel})
	return nil
}

func (e *fakeEngine) Executor() midi.Executor {
	return e.loop
}

func (e *fakeEngine) Sent() []sentNote {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]sentNote(nil), e.sent...)
}

func (e *fakeEngine) Players() []*fakePlayer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*fakePlayer(nil), e.players...)
}

func (e *fakeEngine) Destroyed() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.destroyed
}

func newTestSequencer(t *testing.T) (*Sequencer, *fakeEngine) {
	e := newFakeEngine(t)
	s, err := New("test-seq", e)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s, e
}
