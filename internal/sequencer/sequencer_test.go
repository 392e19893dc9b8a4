package sequencer

import (
	"testing"
	"time"

	"github.com/SuperQuentin/TheMagicKeys/internal/smf"
)

type trigger struct {
	key   int
	level float64
}

// countingSink records every dispatched note event.
type countingSink struct {
	triggers []trigger
	releases []int
}

func (s *countingSink) TriggerLevel(key int, level float64) {
	s.triggers = append(s.triggers, trigger{key, level})
}

func (s *countingSink) Release(key int) {
	s.releases = append(s.releases, key)
}

func smfHeader(tracks, division int) []byte {
	return []byte{
		'M', 'T', 'h', 'd', 0, 0, 0, 6,
		0, 0,
		byte(tracks >> 8), byte(tracks),
		byte(division >> 8), byte(division),
	}
}

func track(events ...byte) []byte {
	chunk := []byte{
		'M', 'T', 'r', 'k',
		byte(len(events) >> 24), byte(len(events) >> 16), byte(len(events) >> 8), byte(len(events)),
	}
	return append(chunk, events...)
}

func file(division int, tracks ...[]byte) []byte {
	buf := smfHeader(len(tracks), division)
	for _, tr := range tracks {
		buf = append(buf, tr...)
	}
	return buf
}

func TestPlayDispatchesMappedNotes(t *testing.T) {
	// NoteOn key 60 velocity 80, then a quarter note later the same key
	// released through running status with velocity 0.
	data := file(96, track(
		0x00, 0x90, 0x3C, 0x50,
		0x60, 0x3C, 0x00,
	))
	sink := &countingSink{}
	var slept []time.Duration
	s := New(sink, Options{
		Keys:  85,
		Sleep: func(d time.Duration) { slept = append(slept, d) },
	})
	if err := s.Play(data); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if len(sink.triggers) != 1 || sink.triggers[0] != (trigger{35, 1.0}) {
		t.Fatalf("triggers = %+v, want one (35, 1.0)", sink.triggers)
	}
	if len(sink.releases) != 1 || sink.releases[0] != 35 {
		t.Fatalf("releases = %v, want [35]", sink.releases)
	}
	// Delta equal to the division is one quarter note at the default tempo.
	if len(slept) != 1 || slept[0] != 500*time.Millisecond {
		t.Fatalf("slept = %v, want [500ms]", slept)
	}
}

func TestPlaySkipsMetaAndZeroDeltas(t *testing.T) {
	data := file(96, track(
		0x00, 0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20,
		0x00, 0x90, 0x28, 0x28,
		0x00, 0xFF, 0x2F, 0x00,
	))
	sink := &countingSink{}
	metas := 0
	s := New(sink, Options{
		Keys:    85,
		Sleep:   func(time.Duration) { t.Fatal("slept on a zero delta") },
		OnEvent: func(ev smf.Event) {
			if ev.Kind == smf.KindMeta {
				metas++
			}
		},
	})
	if err := s.Play(data); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if len(sink.triggers) != 1 {
		t.Fatalf("triggers = %+v, want one", sink.triggers)
	}
	if metas != 2 {
		t.Fatalf("observed %d meta events, want 2", metas)
	}
}

func TestPlayNegativeShiftDisablesTranspose(t *testing.T) {
	data := file(96, track(0x00, 0x90, 0x3C, 0x50))
	sink := &countingSink{}
	s := New(sink, Options{Keys: 85, NoteShift: -1, Sleep: func(time.Duration) {}})
	if err := s.Play(data); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if len(sink.triggers) != 1 || sink.triggers[0].key != 59 {
		t.Fatalf("triggers = %+v, want untransposed key 59", sink.triggers)
	}
}

func TestPlayNoteLimit(t *testing.T) {
	data := file(96, track(
		0x00, 0x90, 0x3C, 0x50,
		0x00, 0x3E, 0x50,
		0x00, 0x40, 0x50,
	))
	sink := &countingSink{}
	s := New(sink, Options{Keys: 85, MaxNotes: 2, Sleep: func(time.Duration) {}})
	if err := s.Play(data); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if len(sink.triggers) != 2 {
		t.Fatalf("triggers = %+v, want exactly 2", sink.triggers)
	}
}

func TestPlayTrackLimit(t *testing.T) {
	first := track(0x00, 0x90, 0x3C, 0x50)
	second := track(0x00, 0x90, 0x3E, 0x50)
	sink := &countingSink{}
	s := New(sink, Options{Keys: 85, MaxTracks: 1, Sleep: func(time.Duration) {}})
	if err := s.Play(file(96, first, second)); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if len(sink.triggers) != 1 || sink.triggers[0].key != 35 {
		t.Fatalf("triggers = %+v, want only the first track's note", sink.triggers)
	}
}

func TestPlayRejectsBadHeader(t *testing.T) {
	sink := &countingSink{}
	s := New(sink, Options{Keys: 85, Sleep: func(time.Duration) {}})
	if err := s.Play([]byte("not a midi file, definitely")); err == nil {
		t.Fatal("Play accepted a garbage header")
	}
	if len(sink.triggers) != 0 {
		t.Fatalf("triggers after header failure: %+v", sink.triggers)
	}
}

func TestPlayRejectsZeroDivision(t *testing.T) {
	s := New(&countingSink{}, Options{Keys: 85, Sleep: func(time.Duration) {}})
	if err := s.Play(file(0, track(0x00, 0x90, 0x3C, 0x50))); err == nil {
		t.Fatal("Play accepted a zero time division")
	}
}

func TestPlayTrackErrorDoesNotStopLaterTracks(t *testing.T) {
	// First track's declared length covers a truncated channel event.
	bad := track(0x00, 0x90, 0x3C)
	good := track(0x00, 0x90, 0x3E, 0x50)
	sink := &countingSink{}
	s := New(sink, Options{Keys: 85, Sleep: func(time.Duration) {}})
	err := s.Play(file(96, bad, good))
	if err == nil {
		t.Fatal("Play swallowed the first track's decode error")
	}
	if len(sink.triggers) != 1 || sink.triggers[0].key != 37 {
		t.Fatalf("triggers = %+v, want only the second track's note", sink.triggers)
	}
}

func TestPlayRejectsTrackPastEndOfFile(t *testing.T) {
	data := file(96, []byte{'M', 'T', 'r', 'k', 0, 0, 0, 0xFF, 0x00, 0x90, 0x3C, 0x50})
	s := New(&countingSink{}, Options{Keys: 85, Sleep: func(time.Duration) {}})
	if err := s.Play(data); err == nil {
		t.Fatal("Play accepted a track length past end of file")
	}
}

func TestMapKey(t *testing.T) {
	cases := []struct {
		midiKey, want int
	}{
		{60, 35}, // middle C
		{24, 0},  // lowest shifted key stays on the first voice
		{25, 0},
		{23, 22},  // below the shift range, mapped as-is
		{120, 84}, // clamped to the top key
		{0, 0},
	}
	for _, tc := range cases {
		if got := MapKey(tc.midiKey, 24, 85); got != tc.want {
			t.Errorf("MapKey(%d) = %d, want %d", tc.midiKey, got, tc.want)
		}
	}
}

func TestLevel(t *testing.T) {
	cases := []struct {
		velocity int
		want     float64
	}{
		{80, 1.0},
		{40, 0.5},
		{100, 1.25},
	}
	for _, tc := range cases {
		if got := Level(tc.velocity); got != tc.want {
			t.Errorf("Level(%d) = %v, want %v", tc.velocity, got, tc.want)
		}
	}
}
