package keymsg

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestScannerFraming(t *testing.T) {
	// Noise before the sentinel is discarded; CRLF and bare LF both end a
	// message with the line ending stripped.
	sc := NewScanner(strings.NewReader("junkSD 0312345\r\nSU 03\n"))
	msg, err := sc.Next()
	if err != nil {
		t.Fatalf("first message: %v", err)
	}
	if string(msg) != "D 0312345" {
		t.Fatalf("first message = %q", msg)
	}
	msg, err = sc.Next()
	if err != nil {
		t.Fatalf("second message: %v", err)
	}
	if string(msg) != "U 03" {
		t.Fatalf("second message = %q", msg)
	}
	if _, err = sc.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("at end of stream: err = %v, want EOF", err)
	}
}

func TestScannerOverflowResynchronizes(t *testing.T) {
	long := "S" + strings.Repeat("x", MaxMessageLen+5) + "\n"
	sc := NewScanner(strings.NewReader(long + "SU 07\n"))
	_, err := sc.Next()
	var perr ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("oversized message: err = %v, want ProtocolError", err)
	}
	// The oversized message was consumed to its delimiter; the next one
	// decodes normally.
	msg, err := sc.Next()
	if err != nil {
		t.Fatalf("after overflow: %v", err)
	}
	if string(msg) != "U 07" {
		t.Fatalf("after overflow message = %q", msg)
	}
}

func TestParseMessage(t *testing.T) {
	ev, err := ParseMessage([]byte("D 0312345"))
	if err != nil {
		t.Fatalf("key down: %v", err)
	}
	if ev.Kind != KeyDown || ev.Key != 3 || ev.AttackTime != 12345 {
		t.Fatalf("key down = %+v", ev)
	}

	ev, err = ParseMessage([]byte("U 48"))
	if err != nil {
		t.Fatalf("key up: %v", err)
	}
	if ev.Kind != KeyUp || ev.Key != 48 {
		t.Fatalf("key up = %+v", ev)
	}
}

func TestParseMessageRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"D 0",        // too short
		"X 0312345",  // unknown type
		"D ab12345",  // non-numeric key
		"D 03banana", // non-numeric attack time
		"D 03-500",   // negative attack time
	}
	var perr ProtocolError
	for _, msg := range cases {
		if _, err := ParseMessage([]byte(msg)); !errors.As(err, &perr) {
			t.Errorf("ParseMessage(%q): err = %v, want ProtocolError", msg, err)
		}
	}
}

func TestMapKey(t *testing.T) {
	cases := []struct {
		hw, want int
	}{
		{6, 0},   // wired exception: leftmost key
		{48, 85}, // wired exception: the pedal
		{0, 1},
		{5, 6},
		{7, 7}, // first key of the second board
		{13, 13},
		{84, 73},
		{91, 79},
		{96, 84}, // topmost key
	}
	for _, tc := range cases {
		got, err := MapKey(tc.hw, 85)
		if err != nil {
			t.Errorf("MapKey(%d): %v", tc.hw, err)
			continue
		}
		if got != tc.want {
			t.Errorf("MapKey(%d) = %d, want %d", tc.hw, got, tc.want)
		}
	}
}

func TestMapKeyRange(t *testing.T) {
	var rerr *RangeError
	if _, err := MapKey(-1, 85); !errors.As(err, &rerr) {
		t.Errorf("MapKey(-1): err = %v, want RangeError", err)
	}
	if _, err := MapKey(99, 85); !errors.As(err, &rerr) {
		t.Errorf("MapKey(99): err = %v, want RangeError", err)
	}
}

func TestTranslatePedal(t *testing.T) {
	ev, err := Translate(Event{Kind: KeyDown, Key: 48, AttackTime: 9000}, 85)
	if err != nil {
		t.Fatalf("pedal down: %v", err)
	}
	if ev.Kind != PedalDown || ev.Key != -1 {
		t.Fatalf("pedal down = %+v", ev)
	}

	ev, err = Translate(Event{Kind: KeyUp, Key: 48}, 85)
	if err != nil {
		t.Fatalf("pedal up: %v", err)
	}
	if ev.Kind != PedalUp || ev.Key != -1 {
		t.Fatalf("pedal up = %+v", ev)
	}
}

func TestTranslateKey(t *testing.T) {
	ev, err := Translate(Event{Kind: KeyDown, Key: 13, AttackTime: 5000}, 85)
	if err != nil {
		t.Fatalf("Translate: %v", err)
	}
	if ev.Kind != KeyDown || ev.Key != 13 || ev.AttackTime != 5000 {
		t.Fatalf("Translate = %+v", ev)
	}
}
