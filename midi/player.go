package midi

import (
	"runtime"
	"sort"
	"sync"
	"time"

	"stepseq/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// player is the clock-driven Player used by Driver. Events are converted to
// ticks when Play is called; ticks are converted to wall-clock time against
// an anchor that is re-based whenever the tempo changes, so a tempo change
// bends the remaining schedule without restarting it.
type player struct {
	mu        sync.Mutex
	tracks    []*playerTrack
	tempo     float64
	loopBeats float64
	looping   bool
	loopTicks int64
	playing   bool

	anchorTime time.Time
	anchorTick int64

	stop   chan struct{}
	done   chan struct{}
	retime chan struct{}

	now func() time.Time
}

type noteEvent struct {
	note, velocity, channel uint8
	start, length           float64
}

type playerTrack struct {
	p      *player
	name   string
	out    Output
	events []noteEvent
}

// slot is one scheduled message
type slot struct {
	tick                    int64
	off                     bool
	note, velocity, channel uint8
	out                     Output
}

type heldNote struct {
	out           Output
	channel, note uint8
}

// NewPlayer creates an idle player at 120 BPM with looping disabled
func NewPlayer() Player {
	return newPlayer()
}

func newPlayer() *player {
	return &player{
		tempo: 120,
		now:   time.Now,
	}
}

func (p *player) NewTrack(name string) PlayerTrack {
	p.mu.Lock()
	defer p.mu.Unlock()
	t := &playerTrack{p: p, name: name}
	p.tracks = append(p.tracks, t)
	return t
}

func (t *playerTrack) SetOutput(out Output) {
	t.p.mu.Lock()
	defer t.p.mu.Unlock()
	t.out = out
}

func (t *playerTrack) AddEvent(note, velocity uint8, startBeat, lengthBeats float64, channel uint8) {
	t.p.mu.Lock()
	defer t.p.mu.Unlock()
	t.events = append(t.events, noteEvent{
		note:     note,
		velocity: velocity,
		channel:  channel & 0x0F,
		start:    startBeat,
		length:   lengthBeats,
	})
}

func (p *player) SetTempo(bpm float64) {
	if bpm <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		now := p.now()
		p.anchorTick = p.tickAt(now)
		p.anchorTime = now
	}
	p.tempo = bpm
	if p.playing {
		select {
		case p.retime <- struct{}{}:
		default:
		}
	}
}

func (p *player) SetLoopLength(beats float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if beats < 0 {
		beats = 0
	}
	p.loopBeats = beats
}

func (p *player) EnableLooping() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.looping = true
}

// Play starts the clock from tick 0
func (p *player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		return nil
	}

	slots, loopTicks := p.schedule()
	p.loopTicks = loopTicks
	p.playing = true
	p.anchorTime = p.now()
	p.anchorTick = 0
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	p.retime = make(chan struct{}, 1)

	debug.Log("player", "play: tracks=%d slots=%d loop=%d tempo=%.2f", len(p.tracks), len(slots), loopTicks, p.tempo)
	go p.run(slots, loopTicks, p.stop, p.done, p.retime)
	return nil
}

// Stop halts the clock and releases every sounding note. It blocks until
// the dispatch goroutine has exited.
func (p *player) Stop() {
	p.mu.Lock()
	if !p.playing {
		p.mu.Unlock()
		return
	}
	p.playing = false
	stop, done := p.stop, p.done
	p.mu.Unlock()

	close(stop)
	<-done
	debug.Log("player", "stopped")
}

func (p *player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *player) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return 0
	}
	tick := p.tickAt(p.now())
	if p.loopTicks > 0 {
		tick %= p.loopTicks
	}
	return TicksToBeats(tick)
}

// schedule flattens all tracks into sorted slots. With looping enabled
// events starting past the loop end are dropped and note-offs are folded
// to the loop end. Called with mu held.
func (p *player) schedule() ([]slot, int64) {
	var loopTicks int64
	if p.looping {
		loopTicks = BeatsToTicks(p.loopBeats)
	}

	var slots []slot
	for _, t := range p.tracks {
		if t.out == nil {
			continue
		}
		for _, ev := range t.events {
			on := BeatsToTicks(ev.start)
			off := BeatsToTicks(ev.start + ev.length)
			if off <= on {
				off = on + 1
			}
			if loopTicks > 0 {
				if on >= loopTicks {
					continue
				}
				if off > loopTicks {
					off = loopTicks
				}
			}
			slots = append(slots,
				slot{tick: on, note: ev.note, velocity: ev.velocity, channel: ev.channel, out: t.out},
				slot{tick: off, off: true, note: ev.note, velocity: ev.velocity, channel: ev.channel, out: t.out},
			)
		}
	}

	// note-offs first on a shared tick so retriggers are not cut short
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].tick != slots[j].tick {
			return slots[i].tick < slots[j].tick
		}
		return slots[i].off && !slots[j].off
	})
	return slots, loopTicks
}

// tickAt is the clock position at t. Called with mu held.
func (p *player) tickAt(t time.Time) int64 {
	return p.anchorTick + DurationToTicks(t.Sub(p.anchorTime), p.tempo)
}

// until returns how long to wait before tick is due
func (p *player) until(tick int64) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	due := p.anchorTime.Add(TicksToDuration(tick-p.anchorTick, p.tempo))
	return due.Sub(p.now())
}

func (p *player) run(slots []slot, loopTicks int64, stop, done, retime chan struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(done)

	held := make(map[heldNote]bool)
	defer release(held)

	if len(slots) == 0 {
		<-stop
		return
	}

	var base int64 // first tick of the current loop cycle
	i := 0
	for {
		if i == len(slots) {
			if loopTicks <= 0 {
				<-stop
				return
			}
			base += loopTicks
			i = 0
		}

		s := slots[i]
		if wait := p.until(base + s.tick); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-stop:
				timer.Stop()
				return
			case <-retime:
				timer.Stop()
				continue
			case <-timer.C:
			}
		} else {
			select {
			case <-stop:
				return
			default:
			}
		}

		dispatch(s, held)
		i++
	}
}

func dispatch(s slot, held map[heldNote]bool) {
	key := heldNote{out: s.out, channel: s.channel, note: s.note}
	var msg gomidi.Message
	if s.off {
		msg = gomidi.NoteOffVelocity(s.channel, s.note, s.velocity)
		delete(held, key)
	} else {
		msg = gomidi.NoteOn(s.channel, s.note, s.velocity)
		held[key] = true
	}
	if err := s.out.Send(msg); err != nil {
		debug.Log("player", "send failed: %v", err)
	}
}

func release(held map[heldNote]bool) {
	for k := range held {
		k.out.Send(gomidi.NoteOff(k.channel, k.note))
	}
}
