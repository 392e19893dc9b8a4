// Package keymsg decodes the keyboard controller's line protocol and turns
// it into validated key and pedal events. The framing is a sentinel-start,
// delimiter-end byte stream independent of the underlying transport; feed it
// a serial device, a pipe, or a test buffer.
package keymsg

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// MaxMessageLen bounds the bytes accumulated after the start sentinel.
const MaxMessageLen = 20

const (
	startByte byte = 'S'
	endByte   byte = 0x0A
)

// ProtocolError reports a malformed wire message. The message is dropped;
// nothing reaches the voice pool.
type ProtocolError string

func (e ProtocolError) Error() string { return "keymsg: " + string(e) }

// RangeError reports a message whose key maps outside the pool. The event
// is discarded, never clamped into an adjacent key.
type RangeError struct {
	Key int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("keymsg: key %d outside the key range", e.Key)
}

// Kind tags an Event.
type Kind int

const (
	KeyDown Kind = iota
	KeyUp
	PedalDown
	PedalUp
)

// Event is a decoded message. Before Translate, Key is the controller's
// hardware index; after, it is a validated piano key index, and pedal
// messages carry the Pedal* kinds with Key set to -1.
type Event struct {
	Kind       Kind
	Key        int
	AttackTime float64 // key-down only; controller time units
}

// Scanner extracts framed message bodies from a byte stream: discard until
// the start sentinel, accumulate until the end delimiter, bound the length.
type Scanner struct {
	r   *bufio.Reader
	buf [MaxMessageLen]byte
}

func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReader(r)}
}

// Next returns the next message body with the sentinel and trailing CR/LF
// stripped. An oversized message is consumed to its delimiter, so the stream
// stays in sync, and reported as a ProtocolError. The returned slice is
// valid until the next call.
func (s *Scanner) Next() ([]byte, error) {
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == startByte {
			break
		}
	}
	n := 0
	overflow := false
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			return nil, err
		}
		if b == endByte {
			break
		}
		if n == len(s.buf) {
			overflow = true
			continue
		}
		s.buf[n] = b
		n++
	}
	if overflow {
		return nil, ProtocolError("message too long")
	}
	if n > 0 && s.buf[n-1] == '\r' {
		n--
	}
	return s.buf[:n], nil
}

// ParseMessage decodes a framed body: 'D kk<attack-time>' for key down,
// 'U kk' for key up, with kk the two-digit controller key index. The key is
// the raw hardware index; Translate maps and validates it.
func ParseMessage(msg []byte) (Event, error) {
	if len(msg) < 4 {
		return Event{}, ProtocolError("message too short")
	}
	hwKey, err := strconv.Atoi(string(msg[2:4]))
	if err != nil {
		return Event{}, ProtocolError("bad key field")
	}
	switch msg[0] {
	case 'D':
		t, err := strconv.ParseFloat(strings.TrimSpace(string(msg[4:])), 64)
		if err != nil || t < 0 {
			return Event{}, ProtocolError("bad attack time field")
		}
		return Event{Kind: KeyDown, Key: hwKey, AttackTime: t}, nil
	case 'U':
		return Event{Kind: KeyUp, Key: hwKey}, nil
	default:
		return Event{}, ProtocolError("unknown message type")
	}
}

// MapKey translates a controller key index to a piano key index in a layout
// of 7 keys per satellite board with only 6 connected, plus two wired
// exceptions: controller key 6 is the leftmost piano key, controller key 48
// is the sustain pedal (reported as index keys). Results past the pedal
// index are a RangeError.
func MapKey(hw, keys int) (int, error) {
	var key int
	switch hw {
	case 6:
		key = 0
	case 48:
		key = keys
	default:
		key = hw + 1 - hw/7
	}
	if hw < 0 || key > keys {
		return 0, &RangeError{Key: hw}
	}
	return key, nil
}

// Translate validates a parsed event against a pool of keys playable keys
// and resolves the pedal: mapping to the reserved pedal index yields a
// Pedal* event, anything else a key event with a valid pool index.
func Translate(ev Event, keys int) (Event, error) {
	key, err := MapKey(ev.Key, keys)
	if err != nil {
		return Event{}, err
	}
	if key == keys {
		out := Event{Kind: PedalUp, Key: -1}
		if ev.Kind == KeyDown {
			out.Kind = PedalDown
		}
		return out, nil
	}
	return Event{Kind: ev.Kind, Key: key, AttackTime: ev.AttackTime}, nil
}
