// Package sequencer paces the events of a loaded Standard MIDI File and
// drives a note sink (normally the voice pool) with the note on/off stream.
package sequencer

import (
	"errors"
	"fmt"
	"time"

	"github.com/SuperQuentin/TheMagicKeys/internal/smf"
)

// NoteSink receives validated note events. The voice pool implements it.
type NoteSink interface {
	TriggerLevel(key int, level float64)
	Release(key int)
}

type Options struct {
	Keys int // playable keys of the target pool

	// NoteShift is subtracted from MIDI key numbers before clamping.
	// Zero selects DefaultNoteShift; negative disables the transpose.
	NoteShift int

	TempoMs   int // milliseconds per quarter note
	MaxTracks int // stop after this many tracks (0 = all)
	MaxNotes  int // stop after this many note-ons (0 = unbounded)

	// Sleep suspends between events; nil means time.Sleep. This is the
	// sequencer's only suspension point, so tests and offline renderers
	// substitute their own pacing here.
	Sleep func(time.Duration)

	// OnEvent observes every decoded track event, before dispatch.
	OnEvent func(ev smf.Event)
}

const defaultTempoMs = 500 // per quarter note, when the file's tempo is not modeled

// DefaultNoteShift is the transpose applied when Options.NoteShift is zero,
// dropping typical piano arrangements into the 85-key range.
const DefaultNoteShift = 24

type Sequencer struct {
	sink  NoteSink
	opts  Options
	sleep func(time.Duration)
}

func New(sink NoteSink, opts Options) *Sequencer {
	if opts.TempoMs <= 0 {
		opts.TempoMs = defaultTempoMs
	}
	if opts.NoteShift == 0 {
		opts.NoteShift = DefaultNoteShift
	} else if opts.NoteShift < 0 {
		opts.NoteShift = 0
	}
	s := &Sequencer{sink: sink, opts: opts, sleep: opts.Sleep}
	if s.sleep == nil {
		s.sleep = time.Sleep
	}
	return s
}

// Play decodes and paces a fully loaded SMF buffer. A malformed header
// aborts the whole file. A decode error inside a track terminates that
// track's iteration at the event boundary, dispatches nothing further from
// it, and is reported after the remaining tracks have played.
func (s *Sequencer) Play(data []byte) error {
	header, err := smf.ParseHeader(data)
	if err != nil {
		return err
	}
	if header.TimeDivision <= 0 {
		return smf.FormatError("bad time division")
	}

	var trackErrs []error
	pos := smf.HeaderSize
	tracks := 0
	notes := 0
	for {
		if s.opts.MaxTracks > 0 && tracks >= s.opts.MaxTracks {
			break
		}
		trackLen, ok := smf.ParseTrackHeader(data, pos)
		if !ok {
			// No more track chunks: normal end of the file.
			break
		}
		pos += smf.TrackHeaderSize
		trackEnd := pos + trackLen
		if trackEnd > len(data) {
			trackErrs = append(trackErrs, fmt.Errorf("track %d: %w", tracks, smf.FormatError("track length past end of file")))
			break
		}
		done, err := s.playTrack(data, pos, trackEnd, header.TimeDivision, &notes)
		if err != nil {
			trackErrs = append(trackErrs, fmt.Errorf("track %d: %w", tracks, err))
		}
		pos = trackEnd
		tracks++
		if done {
			break
		}
	}
	return errors.Join(trackErrs...)
}

// playTrack runs one track chunk. done reports that the note limit was hit
// and the whole sequence should stop.
func (s *Sequencer) playTrack(data []byte, pos, end, division int, notes *int) (done bool, err error) {
	// Decode against the track's own extent: an event truncated by the
	// declared track length must surface as a FormatError, never read into
	// the next chunk's bytes.
	track := data[:end]
	var rs smf.RunningStatus
	for pos < end {
		delta, n, err := smf.DecodeVarLen(track, pos)
		if err != nil {
			return false, err
		}
		pos += n
		if delta > 0 {
			ms := uint64(s.opts.TempoMs) * uint64(delta) / uint64(division)
			s.sleep(time.Duration(ms) * time.Millisecond)
		}
		ev, n, newRS, err := smf.NextEvent(track, pos, rs)
		if err != nil {
			return false, err
		}
		rs = newRS
		pos += n
		if s.opts.OnEvent != nil {
			s.opts.OnEvent(ev)
		}
		if ev.Kind != smf.KindChannel {
			continue
		}
		switch ev.Status {
		case smf.StatusNoteOn:
			key := MapKey(int(ev.Data[0]), s.opts.NoteShift, s.opts.Keys)
			if vel := int(ev.Data[1]); vel > 0 {
				s.sink.TriggerLevel(key, Level(vel))
				*notes++
				if s.opts.MaxNotes > 0 && *notes >= s.opts.MaxNotes {
					return true, nil
				}
			} else {
				// Note-On with velocity 0 is a release.
				s.sink.Release(key)
			}
		case smf.StatusNoteOff:
			s.sink.Release(MapKey(int(ev.Data[0]), s.opts.NoteShift, s.opts.Keys))
		}
	}
	return false, nil
}

// MapKey maps a MIDI key number to a pool key index: shift down, clamp to
// the key count, then the 1-based to 0-based bias. The result is always a
// valid index for a pool with keys playable keys.
func MapKey(midiKey, shift, keys int) int {
	key := midiKey
	if key >= shift {
		key -= shift
	}
	if key >= keys {
		key = keys
	}
	if key > 0 {
		key--
	}
	return key
}

// Level maps a MIDI note-on velocity to a playback volume; velocity 80 is
// full level. Values above 80 exceed 1.0 and rely on the mix headroom, as
// the reference hardware did.
func Level(velocity int) float64 {
	return float64(velocity) / 80.0
}
