// Package smf decodes Standard MIDI Files from an in-memory buffer: chunk
// headers, variable-length quantities, and channel-voice events with running
// status. All functions are stateless over (buf, pos); the caller owns the
// cursor.
package smf

import "encoding/binary"

// FormatError reports malformed file data. It aborts the current unit of
// work (header or track); nothing is retried.
type FormatError string

func (e FormatError) Error() string { return "smf: " + string(e) }

const (
	// HeaderSize is the size of a well-formed MThd chunk including its tag.
	HeaderSize = 14
	// TrackHeaderSize is the MTrk tag plus the declared track length.
	TrackHeaderSize = 8

	headerChunkLen = 6
)

// Channel-voice status classes (high nibble of the status byte).
const (
	StatusNoteOff         byte = 0x80
	StatusNoteOn          byte = 0x90
	StatusPolyPressure    byte = 0xA0
	StatusControlChange   byte = 0xB0
	StatusProgramChange   byte = 0xC0
	StatusChannelPressure byte = 0xD0
	StatusPitchBend       byte = 0xE0
)

type Header struct {
	Format       int
	TrackCount   int
	TimeDivision int
}

// ParseHeader validates the MThd chunk at the start of buf.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, FormatError("file shorter than header")
	}
	if string(buf[0:4]) != "MThd" || binary.BigEndian.Uint32(buf[4:8]) != headerChunkLen {
		return Header{}, FormatError("missing MThd header")
	}
	return Header{
		Format:       int(binary.BigEndian.Uint16(buf[8:10])),
		TrackCount:   int(binary.BigEndian.Uint16(buf[10:12])),
		TimeDivision: int(binary.BigEndian.Uint16(buf[12:14])),
	}, nil
}

// ParseTrackHeader reads the MTrk chunk header at pos and returns the
// declared track length. ok is false when there is no track chunk at pos,
// which is the normal end of the track iteration, not an error.
func ParseTrackHeader(buf []byte, pos int) (length int, ok bool) {
	if pos+TrackHeaderSize > len(buf) || string(buf[pos:pos+4]) != "MTrk" {
		return 0, false
	}
	return int(binary.BigEndian.Uint32(buf[pos+4 : pos+8])), true
}

// DecodeVarLen decodes a MIDI variable-length quantity at pos: 7 bits per
// byte, big-endian, continuation flagged by the high bit, at most 4 bytes.
// n is the number of bytes consumed.
func DecodeVarLen(buf []byte, pos int) (value uint32, n int, err error) {
	for i := 0; i < 4; i++ {
		if pos+i >= len(buf) {
			return 0, 0, FormatError("truncated variable-length quantity")
		}
		b := buf[pos+i]
		value = value<<7 | uint32(b&0x7F)
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
	}
	return 0, 0, FormatError("unterminated variable-length quantity")
}
