package smf

// Kind classifies a track event.
type Kind int

const (
	KindMeta Kind = iota
	KindSysEx
	KindChannel
)

// RunningStatus carries the status class and channel of the last explicit
// channel-voice status byte, for events that omit theirs.
type RunningStatus struct {
	Status  byte
	Channel byte
}

// Event is one decoded track event. Meta and SysEx events are opaque skips;
// channel events carry their status class, channel, and data bytes.
type Event struct {
	Kind     Kind
	Status   byte // status class; valid when Kind == KindChannel
	Channel  byte
	Data     [2]byte
	DataLen  int
	MetaType byte // valid when Kind == KindMeta
}

// NextEvent decodes the event at pos (after its delta time) and returns the
// bytes consumed and the updated running status.
func NextEvent(buf []byte, pos int, rs RunningStatus) (Event, int, RunningStatus, error) {
	if pos >= len(buf) {
		return Event{}, 0, rs, FormatError("truncated track data")
	}
	b := buf[pos]
	switch {
	case b == 0xFF:
		// Meta event: type byte, length, payload, all skipped.
		if pos+2 > len(buf) {
			return Event{}, 0, rs, FormatError("truncated meta event")
		}
		metaType := buf[pos+1]
		length, vn, err := DecodeVarLen(buf, pos+2)
		if err != nil {
			return Event{}, 0, rs, err
		}
		n := 2 + vn + int(length)
		if pos+n > len(buf) {
			return Event{}, 0, rs, FormatError("truncated meta payload")
		}
		return Event{Kind: KindMeta, MetaType: metaType}, n, rs, nil

	case b >= 0xF0 && b <= 0xF7:
		// System exclusive: only the status byte is consumed. The
		// length-prefixed payload is not skipped, so decoding
		// desynchronizes on files carrying real SysEx data. Known
		// limitation; none of the target files carry SysEx.
		return Event{Kind: KindSysEx}, 1, rs, nil

	default:
		n := 0
		status := b & 0xF0
		channel := b & 0x0F
		if status >= 0x80 && status <= 0xE0 {
			// Explicit status byte.
			n = 1
			rs = RunningStatus{Status: status, Channel: channel}
		} else {
			// First data byte of an event whose status was omitted.
			if rs.Status == 0 {
				return Event{}, 0, rs, FormatError("data byte with no running status")
			}
			status = rs.Status
			channel = rs.Channel
		}
		ev := Event{
			Kind:    KindChannel,
			Status:  status,
			Channel: channel,
			DataLen: channelDataLen(status),
		}
		for i := 0; i < ev.DataLen; i++ {
			if pos+n >= len(buf) {
				return Event{}, 0, rs, FormatError("truncated channel event")
			}
			ev.Data[i] = buf[pos+n]
			n++
		}
		return ev, n, rs, nil
	}
}

func channelDataLen(status byte) int {
	switch status {
	case StatusProgramChange, StatusChannelPressure:
		return 1
	default:
		return 2
	}
}
