package keymsg

import (
	"errors"
	"io"
)

// Keyboard is the slice of the voice pool the transport drives.
type Keyboard interface {
	Trigger(key int, attackTime float64)
	Release(key int)
	PedalDown()
	PedalUp()
}

// Pump reads framed messages until the reader is exhausted and applies the
// valid ones to kb. Malformed and out-of-range messages are dropped without
// touching kb; onDrop, when non-nil, observes each dropped error.
func Pump(r io.Reader, kb Keyboard, keys int, onDrop func(error)) error {
	drop := func(err error) {
		if onDrop != nil {
			onDrop(err)
		}
	}
	sc := NewScanner(r)
	for {
		msg, err := sc.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var perr ProtocolError
			if errors.As(err, &perr) {
				drop(err)
				continue
			}
			return err
		}
		raw, err := ParseMessage(msg)
		if err != nil {
			drop(err)
			continue
		}
		ev, err := Translate(raw, keys)
		if err != nil {
			drop(err)
			continue
		}
		switch ev.Kind {
		case KeyDown:
			kb.Trigger(ev.Key, ev.AttackTime)
		case KeyUp:
			kb.Release(ev.Key)
		case PedalDown:
			kb.PedalDown()
		case PedalUp:
			kb.PedalUp()
		}
	}
}
