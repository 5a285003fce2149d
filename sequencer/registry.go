package sequencer

import "sync"

// MaxTracks is the registry capacity, one track per MIDI channel
const MaxTracks = 16

// Tracks is the ordered track registry. A track's index is also the input
// channel the router maps to it.
type Tracks struct {
	mu   sync.RWMutex
	list []*Track
}

// NewTracks creates an empty registry
func NewTracks() *Tracks {
	return &Tracks{}
}

// Add appends t. Returns false, without changing anything, when the
// registry is full or t is nil.
func (r *Tracks) Add(t *Track) bool {
	if t == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.list) >= MaxTracks {
		return false
	}
	r.list = append(r.list, t)
	return true
}

// Remove deletes the first entry that is t
func (r *Tracks) Remove(t *Track) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.index(t)
	if i < 0 {
		return false
	}
	r.list = append(r.list[:i], r.list[i+1:]...)
	return true
}

// SetMute sets the mute flag. Solo is left untouched.
func (r *Tracks) SetMute(t *Track, on bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index(t) < 0 {
		return false
	}
	t.Mute = on
	return true
}

// SetSolo sets the solo flag. Mute is left untouched.
func (r *Tracks) SetSolo(t *Track, on bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.index(t) < 0 {
		return false
	}
	t.Solo = on
	return true
}

// Len returns the number of tracks
func (r *Tracks) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.list)
}

// At returns the track at index i (nil if out of range)
func (r *Tracks) At(i int) *Track {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i < 0 || i >= len(r.list) {
		return nil
	}
	return r.list[i]
}

// Index returns the position of t (-1 if absent)
func (r *Tracks) Index(t *Track) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.index(t)
}

// All returns the registered tracks in order
func (r *Tracks) All() []*Track {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Track(nil), r.list...)
}

// Clear removes every track
func (r *Tracks) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = nil
}

// Snapshot deep-copies every track under one lock
func (r *Tracks) Snapshot() []Track {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Track, len(r.list))
	for i, t := range r.list {
		out[i] = t.Clone()
	}
	return out
}

// AnySolo returns true if at least one track is soloed
func (r *Tracks) AnySolo() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return anySolo(r.list)
}

// Audible resolves mute/solo for t. Tracks not in the registry are never
// audible.
func (r *Tracks) Audible(t *Track) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.index(t) < 0 {
		return false
	}
	return audible(t, anySolo(r.list))
}

// route returns the channels and audibility of the track at input channel
// ch, read under one lock
func (r *Tracks) route(ch int) (channels []uint8, isAudible, ok bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ch < 0 || ch >= len(r.list) {
		return nil, false, false
	}
	t := r.list[ch]
	return append([]uint8(nil), t.Channels...), audible(t, anySolo(r.list)), true
}

func (r *Tracks) index(t *Track) int {
	for i, x := range r.list {
		if x == t {
			return i
		}
	}
	return -1
}

func anySolo(list []*Track) bool {
	for _, t := range list {
		if t.Solo {
			return true
		}
	}
	return false
}
