package keymsg

import (
	"strings"
	"testing"
)

type keyboardCall struct {
	op         string
	key        int
	attackTime float64
}

type fakeKeyboard struct {
	calls []keyboardCall
}

func (k *fakeKeyboard) Trigger(key int, attackTime float64) {
	k.calls = append(k.calls, keyboardCall{"trigger", key, attackTime})
}

func (k *fakeKeyboard) Release(key int) {
	k.calls = append(k.calls, keyboardCall{"release", key, 0})
}

func (k *fakeKeyboard) PedalDown() {
	k.calls = append(k.calls, keyboardCall{op: "pedaldown", key: -1})
}

func (k *fakeKeyboard) PedalUp() {
	k.calls = append(k.calls, keyboardCall{op: "pedalup", key: -1})
}

func TestPumpDispatches(t *testing.T) {
	stream := strings.NewReader(
		"SD 0612345\r\n" + // leftmost key down
			"SD 4809999\r\n" + // pedal down
			"SU 06\r\n" +
			"SU 48\r\n",
	)
	kb := &fakeKeyboard{}
	if err := Pump(stream, kb, 85, nil); err != nil {
		t.Fatalf("Pump: %v", err)
	}
	want := []keyboardCall{
		{"trigger", 0, 12345},
		{"pedaldown", -1, 0},
		{"release", 0, 0},
		{"pedalup", -1, 0},
	}
	if len(kb.calls) != len(want) {
		t.Fatalf("calls = %+v, want %+v", kb.calls, want)
	}
	for i := range want {
		if kb.calls[i] != want[i] {
			t.Fatalf("call %d = %+v, want %+v", i, kb.calls[i], want[i])
		}
	}
}

func TestPumpDropsMalformedAndOutOfRange(t *testing.T) {
	stream := strings.NewReader(
		"SD 99123\r\n" + // maps past the pedal
			"SX nonsense\r\n" + // unknown type
			"S" + strings.Repeat("q", MaxMessageLen+1) + "\n" + // oversized
			"SD 0705000\r\n", // valid
	)
	kb := &fakeKeyboard{}
	dropped := 0
	if err := Pump(stream, kb, 85, func(error) { dropped++ }); err != nil {
		t.Fatalf("Pump: %v", err)
	}
	if dropped != 3 {
		t.Fatalf("dropped = %d, want 3", dropped)
	}
	if len(kb.calls) != 1 || kb.calls[0] != (keyboardCall{"trigger", 7, 5000}) {
		t.Fatalf("calls = %+v, want only the valid trigger", kb.calls)
	}
}
