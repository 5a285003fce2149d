package sequencer

// Note is a MIDI note number (0-127)
type Note uint8

// Velocity is a MIDI velocity (0-127). Zero is the silent velocity muted
// tracks compile to.
type Velocity uint8

// Step is a quantized slot on a track holding zero or more simultaneous
// notes. A step without notes is a rest.
type Step struct {
	Position float64  `json:"position" yaml:"position"` // beats
	Duration float64  `json:"duration" yaml:"duration"` // beats
	Velocity Velocity `json:"velocity" yaml:"velocity"`
	Notes    []Note   `json:"notes,omitempty" yaml:"notes,flow,omitempty"`
}

// End returns the beat at which the step stops sounding
func (s Step) End() float64 {
	return s.Position + s.Duration
}

// IsRest returns true if the step holds no notes
func (s Step) IsRest() bool {
	return len(s.Notes) == 0
}

// Track is an ordered list of steps plus its routing state.
// Mute and Solo should be changed through the Tracks registry.
type Track struct {
	Name     string  `json:"name" yaml:"name"`
	Steps    []Step  `json:"steps" yaml:"steps"`
	Channels []uint8 `json:"channels" yaml:"channels,flow"` // physical MIDI channels 0-15
	Mute     bool    `json:"mute,omitempty" yaml:"mute,omitempty"`
	Solo     bool    `json:"solo,omitempty" yaml:"solo,omitempty"`
}

// NewTrack creates an empty track broadcasting on the given channels
func NewTrack(name string, channels ...uint8) *Track {
	return &Track{
		Name:     name,
		Channels: channels,
	}
}

// AddStep appends a step and returns the track for chaining
func (t *Track) AddStep(position, duration float64, velocity Velocity, notes ...Note) *Track {
	t.Steps = append(t.Steps, Step{
		Position: position,
		Duration: duration,
		Velocity: velocity,
		Notes:    notes,
	})
	return t
}

// Duration returns the end of the last sounding step, 0 with no steps
func (t *Track) Duration() float64 {
	var max float64
	for _, s := range t.Steps {
		if end := s.End(); end > max {
			max = end
		}
	}
	return max
}

// Clone returns a deep copy
func (t *Track) Clone() Track {
	c := *t
	c.Channels = append([]uint8(nil), t.Channels...)
	c.Steps = make([]Step, len(t.Steps))
	for i, s := range t.Steps {
		s.Notes = append([]Note(nil), s.Notes...)
		c.Steps[i] = s
	}
	return c
}

// audible is the mute/solo resolution shared by the compiler and the router:
// with any track soloed only soloed tracks sound, otherwise every unmuted
// track does.
func audible(t *Track, anySolo bool) bool {
	if anySolo {
		return t.Solo
	}
	return !t.Mute
}
