package sequencer

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"stepseq/debug"
	"stepseq/midi"
)

// DefaultTempo is the tempo of a new sequencer
const DefaultTempo = 120.0

var (
	ErrNoEngine     = errors.New("no MIDI engine")
	ErrInvalidTempo = errors.New("tempo must be a positive number of BPM")
	ErrSuperseded   = errors.New("play superseded by a later call")
	ErrClosed       = errors.New("sequencer closed")
)

// Sequencer owns the track registry, the transport and the virtual ports.
// Registry edits and transport calls are expected from one control
// goroutine; incoming MIDI is routed concurrently from the engine.
type Sequencer struct {
	name   string
	engine Engine
	out    midi.Output
	tracks *Tracks
	router *Router

	mu       sync.RWMutex
	tempo    float64
	duration Duration
	player   midi.Player
	timeline *Timeline
	gen      uint64 // bumped by every Play, PlayAsync and Stop
	closed   bool
}

// New publishes the virtual input and output ports under name and starts
// routing incoming MIDI. Port failures are returned; nothing stays open.
func New(name string, engine Engine) (*Sequencer, error) {
	if engine == nil {
		return nil, ErrNoEngine
	}
	if err := engine.CreateVirtualInputPort(name); err != nil {
		return nil, fmt.Errorf("create input port: %w", err)
	}
	out, err := engine.CreateVirtualOutputPort(name)
	if err != nil {
		engine.DestroyAllVirtualPorts()
		return nil, fmt.Errorf("create output port: %w", err)
	}

	s := &Sequencer{
		name:     name,
		engine:   engine,
		out:      out,
		tracks:   NewTracks(),
		tempo:    DefaultTempo,
		duration: Auto(),
	}
	s.router = &Router{seq: s}

	if err := engine.Listen(s.router); err != nil {
		engine.DestroyAllVirtualPorts()
		return nil, fmt.Errorf("listen: %w", err)
	}
	debug.Log("transport", "sequencer %q ready", name)
	return s, nil
}

// Name returns the port display name
func (s *Sequencer) Name() string {
	return s.name
}

// Tracks returns the track registry
func (s *Sequencer) Tracks() *Tracks {
	return s.tracks
}

// Router returns the listener attached to the input port
func (s *Sequencer) Router() *Router {
	return s.router
}

// Tempo returns the BPM
func (s *Sequencer) Tempo() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tempo
}

// SetTempo changes the BPM. A running player follows immediately.
func (s *Sequencer) SetTempo(bpm float64) error {
	if bpm <= 0 || math.IsNaN(bpm) || math.IsInf(bpm, 0) {
		return ErrInvalidTempo
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tempo = bpm
	if s.player != nil {
		s.player.SetTempo(bpm)
	}
	debug.Log("transport", "tempo %.2f", bpm)
	return nil
}

// Duration returns the loop length policy
func (s *Sequencer) Duration() Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.duration
}

// SetDuration changes the loop length policy; it applies from the next Play
func (s *Sequencer) SetDuration(d Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.duration = d
}

// Compile builds a timeline from the current registry, tempo and duration
func (s *Sequencer) Compile() Timeline {
	s.mu.RLock()
	tempo, d := s.tempo, s.duration
	s.mu.RUnlock()
	return Compile(s.tracks.Snapshot(), tempo, d)
}

// Play compiles a new timeline and (re)starts playback from beat 0, even
// when already playing.
func (s *Sequencer) Play() error {
	gen, err := s.next()
	if err != nil {
		return err
	}
	tl := s.Compile()
	s.engine.Executor().Do(func() {
		err = s.install(gen, tl)
	})
	return err
}

// PlayAsync compiles on a worker goroutine and starts playback on the
// engine executor, where done is then called. If Play, PlayAsync or Stop
// is called before the compile finishes, this call is dropped and done
// receives ErrSuperseded. done must not call Play or Stop.
func (s *Sequencer) PlayAsync(done func(error)) {
	finish := func(err error) {
		if done != nil {
			done(err)
		}
	}

	gen, err := s.next()
	if err != nil {
		s.engine.Executor().Post(func() { finish(err) })
		return
	}

	s.mu.RLock()
	tempo, d := s.tempo, s.duration
	s.mu.RUnlock()
	tracks := s.tracks.Snapshot()

	go func() {
		tl := Compile(tracks, tempo, d)
		s.engine.Executor().Post(func() {
			finish(s.install(gen, tl))
		})
	}()
}

// Stop halts playback and drops the timeline
func (s *Sequencer) Stop() {
	s.mu.Lock()
	s.gen++
	p := s.player
	s.player = nil
	s.timeline = nil
	s.mu.Unlock()

	if p != nil {
		s.engine.Executor().Do(p.Stop)
		debug.Log("transport", "stopped")
	}
}

// IsPlaying reports the live transport state
func (s *Sequencer) IsPlaying() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timeline != nil && s.player != nil && s.player.IsPlaying()
}

// Timeline returns the installed timeline, if playing
func (s *Sequencer) Timeline() (Timeline, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.timeline == nil {
		return Timeline{}, false
	}
	return *s.timeline, true
}

// Position returns the beat within the loop, 0 when stopped
func (s *Sequencer) Position() float64 {
	s.mu.RLock()
	p := s.player
	s.mu.RUnlock()
	if p == nil {
		return 0
	}
	return p.Position()
}

// Close stops playback and destroys the virtual ports
func (s *Sequencer) Close() {
	s.Stop()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.engine.DestroyAllVirtualPorts()
	debug.Log("transport", "sequencer %q closed", s.name)
}

func (s *Sequencer) next() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	s.gen++
	return s.gen, nil
}

// install replaces the live player with a new one running tl. Runs on the
// engine executor. The previous player is stopped before the new one is
// created so at most one exists.
func (s *Sequencer) install(gen uint64, tl Timeline) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		debug.Log("transport", "dropping stale compile gen=%d current=%d", gen, s.gen)
		return ErrSuperseded
	}

	if s.player != nil {
		s.player.Stop()
		s.player = nil
		s.timeline = nil
	}

	p := s.engine.NewPlayer()
	tl.Arrange(p, s.out)
	p.SetTempo(s.tempo)
	p.EnableLooping()
	if err := p.Play(); err != nil {
		return fmt.Errorf("start player: %w", err)
	}

	s.player = p
	s.timeline = &tl
	debug.Log("transport", "playing gen=%d tracks=%d events=%d length=%.2f tempo=%.2f",
		gen, len(tl.Tracks), tl.NumEvents(), tl.Length, s.tempo)
	return nil
}
