package sequencer

import (
	"reflect"
	"testing"

	"stepseq/midi"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// newRoutedSequencer registers three tracks; track 2 broadcasts on
// channels 3 and 4.
func newRoutedSequencer(t *testing.T) (*Sequencer, *fakeEngine, []*Track) {
	s, e := newTestSequencer(t)
	tracks := []*Track{
		NewTrack("zero", 0),
		NewTrack("one", 1, 2),
		NewTrack("two", 3, 4),
	}
	for _, tr := range tracks {
		s.Tracks().Add(tr)
	}
	return s, e, tracks
}

func TestRouterNoteOnFansOut(t *testing.T) {
	s, e, _ := newRoutedSequencer(t)
	s.Play()

	s.Router().NoteOn(60, 100, 2)
	want := []sentNote{{true, 60, 100, 3}, {true, 60, 100, 4}}
	if got := e.Sent(); !reflect.DeepEqual(got, want) {
		t.Fatalf("sent %+v, expected %+v", got, want)
	}
}

func TestRouterNoteOnMuted(t *testing.T) {
	s, e, tracks := newRoutedSequencer(t)
	s.Tracks().SetMute(tracks[2], true)
	s.Play()

	s.Router().NoteOn(60, 100, 2)
	want := []sentNote{{true, 60, 0, 3}, {true, 60, 0, 4}}
	if got := e.Sent(); !reflect.DeepEqual(got, want) {
		t.Fatalf("sent %+v, expected %+v", got, want)
	}
}

func TestRouterNoteOnSolo(t *testing.T) {
	s, e, tracks := newRoutedSequencer(t)
	s.Play()

	// another track soloed: silent
	s.Tracks().SetSolo(tracks[0], true)
	s.Router().NoteOn(60, 100, 2)

	// soloed itself: audible even when muted
	s.Tracks().SetSolo(tracks[2], true)
	s.Tracks().SetMute(tracks[2], true)
	s.Router().NoteOn(62, 100, 2)

	want := []sentNote{
		{true, 60, 0, 3}, {true, 60, 0, 4},
		{true, 62, 100, 3}, {true, 62, 100, 4},
	}
	if got := e.Sent(); !reflect.DeepEqual(got, want) {
		t.Fatalf("sent %+v, expected %+v", got, want)
	}
}

func TestRouterNoteOnUnmappedPassesThrough(t *testing.T) {
	s, e, _ := newRoutedSequencer(t)
	s.Play()

	s.Router().NoteOn(64, 77, 5)
	want := []sentNote{{true, 64, 77, 5}}
	if got := e.Sent(); !reflect.DeepEqual(got, want) {
		t.Fatalf("sent %+v, expected %+v", got, want)
	}
}

func TestRouterNoteOnStoppedPassesThrough(t *testing.T) {
	s, e, tracks := newRoutedSequencer(t)
	s.Tracks().SetMute(tracks[2], true)

	s.Router().NoteOn(60, 100, 2)
	want := []sentNote{{true, 60, 100, 2}}
	if got := e.Sent(); !reflect.DeepEqual(got, want) {
		t.Fatalf("sent %+v, expected %+v", got, want)
	}
}

func TestRouterNoteOff(t *testing.T) {
	s, e, tracks := newRoutedSequencer(t)
	s.Tracks().SetMute(tracks[1], true)
	s.Play()

	s.Router().NoteOff(60, 64, 1)
	want := []sentNote{{false, 60, 64, 1}, {false, 60, 64, 2}}
	if got := e.Sent(); !reflect.DeepEqual(got, want) {
		t.Fatalf("sent %+v, expected %+v", got, want)
	}
}

func TestRouterNoteOffDropped(t *testing.T) {
	s, e, _ := newRoutedSequencer(t)

	s.Router().NoteOff(60, 64, 1) // stopped
	s.Play()
	s.Router().NoteOff(60, 64, 9) // unmapped
	if got := e.Sent(); len(got) != 0 {
		t.Fatalf("expected nothing sent, got %+v", got)
	}
}

func TestRouterAfterStop(t *testing.T) {
	s, e, _ := newRoutedSequencer(t)
	s.Play()
	s.Stop()

	s.Router().NoteOn(60, 100, 2)
	want := []sentNote{{true, 60, 100, 2}}
	if got := e.Sent(); !reflect.DeepEqual(got, want) {
		t.Fatalf("sent %+v, expected %+v", got, want)
	}
}

func TestRouterFollowsRegistryWhilePlaying(t *testing.T) {
	s, e, tracks := newRoutedSequencer(t)
	s.Play()
	s.Tracks().Remove(tracks[0])

	// channel 0 now maps to the former second track
	s.Router().NoteOn(60, 100, 0)
	want := []sentNote{{true, 60, 100, 1}, {true, 60, 100, 2}}
	if got := e.Sent(); !reflect.DeepEqual(got, want) {
		t.Fatalf("sent %+v, expected %+v", got, want)
	}
}

func TestRouterThroughDispatch(t *testing.T) {
	s, e, _ := newRoutedSequencer(t)
	s.Play()

	midi.Dispatch(s.Router(), gomidi.NoteOn(1, 48, 90))
	midi.Dispatch(s.Router(), gomidi.NoteOffVelocity(1, 48, 10))
	midi.Dispatch(s.Router(), gomidi.ControlChange(1, 7, 100))
	midi.Dispatch(s.Router(), gomidi.Pitchbend(1, 200))

	want := []sentNote{
		{true, 48, 90, 1}, {true, 48, 90, 2},
		{false, 48, 10, 1}, {false, 48, 10, 2},
	}
	if got := e.Sent(); !reflect.DeepEqual(got, want) {
		t.Fatalf("sent %+v, expected %+v", got, want)
	}
}
