package midi

import (
	"bytes"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func TestSMFWriteTo(t *testing.T) {
	s := NewSMF()
	lead := s.NewTrack("lead")
	lead.AddEvent(60, 100, 0, 1, 0)
	lead.AddEvent(64, 90, 1, 1, 0)
	bass := s.NewTrack("bass")
	bass.AddEvent(36, 120, 0, 2, 3)
	s.SetTempo(90)
	s.SetLoopLength(4)

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}

	f, err := smf.ReadFrom(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadFrom failed: %v", err)
	}
	if tf, ok := f.TimeFormat.(smf.MetricTicks); !ok || tf.Resolution() != PPQ {
		t.Fatalf("unexpected time format %v", f.TimeFormat)
	}
	if len(f.Tracks) != 3 {
		t.Fatalf("expected tempo track plus 2, got %d tracks", len(f.Tracks))
	}

	var bpm float64
	for _, ev := range f.Tracks[0] {
		if ev.Message.GetMetaTempo(&bpm) {
			break
		}
	}
	if bpm < 89.99 || bpm > 90.01 {
		t.Fatalf("tempo %v, expected 90", bpm)
	}

	type hit struct {
		tick     int64
		on       bool
		ch, key  uint8
		velocity uint8
	}
	collect := func(tr smf.Track) (hits []hit, total int64, name string) {
		for _, ev := range tr {
			total += int64(ev.Delta)
			var ch, key, vel uint8
			msg := gomidi.Message(ev.Message)
			switch {
			case msg.GetNoteOn(&ch, &key, &vel):
				hits = append(hits, hit{total, true, ch, key, vel})
			case msg.GetNoteOff(&ch, &key, &vel):
				hits = append(hits, hit{total, false, ch, key, vel})
			default:
				ev.Message.GetMetaTrackName(&name)
			}
		}
		return
	}

	hits, total, name := collect(f.Tracks[1])
	if name != "lead" {
		t.Errorf("track name %q", name)
	}
	want := []hit{
		{0, true, 0, 60, 100},
		{PPQ, false, 0, 60, 100},
		{PPQ, true, 0, 64, 90},
		{2 * PPQ, false, 0, 64, 90},
	}
	if len(hits) != len(want) {
		t.Fatalf("lead hits %+v", hits)
	}
	for i := range want {
		if hits[i] != want[i] {
			t.Errorf("hit %d = %+v, expected %+v", i, hits[i], want[i])
		}
	}
	if total != 4*PPQ {
		t.Errorf("lead ends at %d, expected %d", total, 4*PPQ)
	}

	hits, _, _ = collect(f.Tracks[2])
	if len(hits) != 2 || hits[0].ch != 3 || hits[1].tick != 2*PPQ {
		t.Errorf("bass hits %+v", hits)
	}
}
