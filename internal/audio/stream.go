// Package audio feeds a block-based sample source to the platform audio
// device. The source always sees the same fixed block length regardless of
// how the driver sizes its reads.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// BlockSource produces audio one fixed-size block at a time. ProcessBlock
// fills dst with interleaved stereo float32 samples; dst always has the
// length the source was registered with. It runs on the audio thread and
// must not block.
type BlockSource interface {
	ProcessBlock(dst []float32)
}

// StreamReader adapts a BlockSource to the io.Reader the audio context
// consumes, slicing arbitrary read sizes into whole fixed blocks and
// carrying the unconsumed tail between reads.
type StreamReader struct {
	mu      sync.Mutex
	source  BlockSource
	block   []float32
	pending []float32
}

func NewStreamReader(source BlockSource, blockFrames int) *StreamReader {
	if blockFrames <= 0 {
		blockFrames = 128
	}
	return &StreamReader{
		source: source,
		block:  make([]float32, blockFrames*2),
	}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	written := 0
	// 8 bytes per stereo float32 frame; emit whole frames only.
	for written+8 <= len(p) {
		if len(r.pending) == 0 {
			r.source.ProcessBlock(r.block)
			r.pending = r.block
		}
		binary.LittleEndian.PutUint32(p[written:], math.Float32bits(r.pending[0]))
		binary.LittleEndian.PutUint32(p[written+4:], math.Float32bits(r.pending[1]))
		r.pending = r.pending[2:]
		written += 8
	}
	return written, nil
}

func (r *StreamReader) Close() error { return nil }

type Player struct {
	player *ebitaudio.Player
	reader *StreamReader
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

func NewPlayer(sampleRate, blockFrames int, source BlockSource) (*Player, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source, blockFrames)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	return &Player{player: pl, reader: reader}, nil
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }

func (p *Player) IsPlaying() bool { return p.player.IsPlaying() }

// Position returns what the listener actually hears right now.
func (p *Player) Position() time.Duration { return p.player.Position() }

func (p *Player) Stop() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return err
	}
	return p.reader.Close()
}
