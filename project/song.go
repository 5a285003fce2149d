package project

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"stepseq/debug"
	"stepseq/sequencer"
)

// ErrTooManyTracks is returned when a song holds more tracks than a
// sequencer can register
var ErrTooManyTracks = fmt.Errorf("song has more than %d tracks", sequencer.MaxTracks)

// Song is the on-disk form of a sequencer session
type Song struct {
	Name     string             `yaml:"name"`
	Tempo    float64            `yaml:"tempo"`
	Duration sequencer.Duration `yaml:"duration"`
	Tracks   []sequencer.Track  `yaml:"tracks"`
}

// Load reads and validates a song file. A missing tempo defaults to 120 and
// a missing name to the file's base name.
func Load(path string) (*Song, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var s Song
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if s.Tempo == 0 {
		s.Tempo = sequencer.DefaultTempo
	}
	if s.Duration.Mode == "" {
		s.Duration = sequencer.Auto()
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	debug.Log("project", "loaded %s: %d tracks, %.1f bpm, %s", path, len(s.Tracks), s.Tempo, s.Duration)
	return &s, nil
}

// Save writes the song as YAML, creating parent directories
func (s *Song) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	debug.Log("project", "saved %s", path)
	return nil
}

// Validate reports every out-of-range value in the song
func (s *Song) Validate() error {
	var errs []error
	if s.Tempo <= 0 || math.IsNaN(s.Tempo) || math.IsInf(s.Tempo, 0) {
		errs = append(errs, fmt.Errorf("tempo %v: %w", s.Tempo, sequencer.ErrInvalidTempo))
	}
	switch s.Duration.Mode {
	case sequencer.DurationAuto, sequencer.DurationBars, sequencer.DurationSteps:
	default:
		errs = append(errs, fmt.Errorf("unknown duration mode %q", s.Duration.Mode))
	}
	if s.Duration.Count < 0 {
		errs = append(errs, fmt.Errorf("negative duration count %d", s.Duration.Count))
	}
	if len(s.Tracks) > sequencer.MaxTracks {
		errs = append(errs, ErrTooManyTracks)
	}

	for i, t := range s.Tracks {
		where := fmt.Sprintf("track %d (%s)", i, t.Name)
		for _, ch := range t.Channels {
			if ch > 15 {
				errs = append(errs, fmt.Errorf("%s: channel %d out of range", where, ch))
			}
		}
		for j, st := range t.Steps {
			if st.Position < 0 {
				errs = append(errs, fmt.Errorf("%s step %d: negative position %v", where, j, st.Position))
			}
			if st.Duration <= 0 {
				errs = append(errs, fmt.Errorf("%s step %d: duration %v must be positive", where, j, st.Duration))
			}
			if st.Velocity > 127 {
				errs = append(errs, fmt.Errorf("%s step %d: velocity %d out of range", where, j, st.Velocity))
			}
			for _, n := range st.Notes {
				if n > 127 {
					errs = append(errs, fmt.Errorf("%s step %d: note %d out of range", where, j, n))
				}
			}
		}
	}
	return errors.Join(errs...)
}

// Apply replaces the sequencer's tracks, tempo and duration with the song.
// A running transport keeps its timeline until the next Play.
func (s *Song) Apply(seq *sequencer.Sequencer) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if err := seq.SetTempo(s.Tempo); err != nil {
		return err
	}
	seq.SetDuration(s.Duration)

	reg := seq.Tracks()
	reg.Clear()
	for i := range s.Tracks {
		t := s.Tracks[i].Clone()
		if !reg.Add(&t) {
			return fmt.Errorf("add track %q: %w", t.Name, ErrTooManyTracks)
		}
	}
	debug.Log("project", "applied %q: %d tracks", s.Name, reg.Len())
	return nil
}

// FromSequencer captures the sequencer's current state as a song
func FromSequencer(name string, seq *sequencer.Sequencer) *Song {
	return &Song{
		Name:     name,
		Tempo:    seq.Tempo(),
		Duration: seq.Duration(),
		Tracks:   seq.Tracks().Snapshot(),
	}
}
