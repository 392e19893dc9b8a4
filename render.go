package magickeys

import (
	"encoding/binary"
	"time"

	intbank "github.com/SuperQuentin/TheMagicKeys/internal/bank"
	intseq "github.com/SuperQuentin/TheMagicKeys/internal/sequencer"
	intvoice "github.com/SuperQuentin/TheMagicKeys/internal/voice"
)

// RenderMIDI renders a loaded Standard MIDI File offline: the sequencer's
// paced waits advance the mixer by the equivalent number of frames instead
// of sleeping, so rendering is sample-accurate and faster than real time.
// maxSeconds caps the output including the trailing release; 0 means a
// 10-minute cap.
func RenderMIDI(b *intbank.Bank, data []byte, maxSeconds float64, opts ...Option) ([]float32, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if maxSeconds <= 0 {
		maxSeconds = 600
	}
	pool := intvoice.NewPool(b.Samples, b.Bounds(), cfg.voice)
	rate := cfg.voice.SampleRate
	maxFrames := int(float64(rate) * maxSeconds)

	out := make([]float32, 0, minInt(maxFrames, rate*8)*2)
	block := make([]float32, cfg.blockFrames*2)
	rendered := 0
	render := func(frames int) {
		for frames > 0 && rendered < maxFrames {
			n := minInt(frames, cfg.blockFrames)
			pool.ProcessBlock(block[:n*2])
			out = append(out, block[:n*2]...)
			rendered += n
			frames -= n
		}
	}

	seq := intseq.New(pool, intseq.Options{
		Keys:      cfg.keys,
		NoteShift: sequencerShift(cfg.noteShift),
		TempoMs:   cfg.tempoMs,
		MaxTracks: cfg.maxTracks,
		MaxNotes:  cfg.maxNotes,
		Sleep: func(d time.Duration) {
			render(int(d.Seconds() * float64(rate)))
		},
	})
	err := seq.Play(data)

	// Release tail: keep rendering until every voice has faded out.
	for pool.ActiveVoiceCount() > 0 && rendered < maxFrames {
		render(cfg.blockFrames)
	}
	return out, err
}

// EncodeWAVInt16LE encodes interleaved samples as a 16-bit PCM WAV file.
func EncodeWAVInt16LE(samples []float32, sampleRate, channels int) []byte {
	dataSize := len(samples) * 2
	byteRate := sampleRate * channels * 2
	blockAlign := channels * 2
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 1)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 16)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.LittleEndian.PutUint16(out[44+i*2:], uint16(int16(s*32767)))
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
