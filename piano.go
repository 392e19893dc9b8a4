// Package magickeys is the playback core of a sample-based electronic
// piano: a fixed pool of per-key voices mixed into a stereo stream, driven
// by a keyboard controller's line protocol or by an embedded Standard MIDI
// File sequencer.
package magickeys

import (
	"errors"
	"io"
	"sync"

	intaudio "github.com/SuperQuentin/TheMagicKeys/internal/audio"
	intbank "github.com/SuperQuentin/TheMagicKeys/internal/bank"
	intkeymsg "github.com/SuperQuentin/TheMagicKeys/internal/keymsg"
	intseq "github.com/SuperQuentin/TheMagicKeys/internal/sequencer"
	intvoice "github.com/SuperQuentin/TheMagicKeys/internal/voice"
)

// NumKeys is the playable key count of the reference keyboard; the pedal is
// the virtual slot just past it on the transport side.
const NumKeys = 85

// Alert sound slots for TriggerAlert, offset past the playable keys.
const (
	SoundReady       = intbank.SoundReady
	SoundProgramLoad = intbank.SoundProgramLoad
)

type Option func(*config)

type config struct {
	keys        int
	blockFrames int
	noteShift   int
	tempoMs     int
	maxTracks   int
	maxNotes    int
	voice       intvoice.Params
}

func defaultConfig() config {
	return config{
		keys:        NumKeys,
		blockFrames: 128,
		noteShift:   intseq.DefaultNoteShift,
		voice:       intvoice.DefaultParams(),
	}
}

func WithSampleRate(hz int) Option {
	return func(cfg *config) { cfg.voice.SampleRate = hz }
}

// WithBlockSize sets the stereo frames produced per mixer invocation.
func WithBlockSize(frames int) Option {
	return func(cfg *config) { cfg.blockFrames = frames }
}

// WithEnvelopeWindows sets the attack and release ramp lengths.
func WithEnvelopeWindows(attackMs, releaseMs int) Option {
	return func(cfg *config) {
		cfg.voice.AttackMs = attackMs
		cfg.voice.ReleaseMs = releaseMs
	}
}

// WithAttackTimeRange sets the attack-time bounds of the velocity mapping;
// the unit is whatever the key transport measures.
func WithAttackTimeRange(min, max float64) Option {
	return func(cfg *config) {
		cfg.voice.MinAttackTime = min
		cfg.voice.MaxAttackTime = max
	}
}

// WithPolyphonyHeadroom sets how many full-level voices the mix carries
// without clipping.
func WithPolyphonyHeadroom(voices int) Option {
	return func(cfg *config) { cfg.voice.MaxPolyphony = voices }
}

// WithNoteShift sets the transpose subtracted from MIDI key numbers, applied
// identically to file playback and live note input. Zero disables it.
func WithNoteShift(semitones int) Option {
	return func(cfg *config) {
		if semitones < 0 {
			semitones = 0
		}
		cfg.noteShift = semitones
	}
}

// WithTempo sets the MIDI pacing in milliseconds per quarter note.
func WithTempo(msPerQuarter int) Option {
	return func(cfg *config) { cfg.tempoMs = msPerQuarter }
}

// WithMIDILimits bounds MIDI playback to the first tracks track chunks and
// notes note-ons (0 = unbounded).
func WithMIDILimits(tracks, notes int) Option {
	return func(cfg *config) {
		cfg.maxTracks = tracks
		cfg.maxNotes = notes
	}
}

// Piano owns the sample bank, the voice pool, and the audio output. Key and
// pedal methods may be called while audio is running; the pool's write
// ordering keeps the mixer consistent without locks.
type Piano struct {
	mu    sync.Mutex
	cfg   config
	pool  *intvoice.Pool
	audio *intaudio.Player
}

// NewPiano wires a pool over the bank's samples. The bank must hold one
// sound per playable key; alert slots after the keys are optional.
func NewPiano(b *intbank.Bank, opts ...Option) (*Piano, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if b.NumSounds() < cfg.keys {
		return nil, errors.New("magickeys: bank holds fewer sounds than keys")
	}
	return &Piano{
		cfg:  cfg,
		pool: intvoice.NewPool(b.Samples, b.Bounds(), cfg.voice),
	}, nil
}

// Start opens the audio device and begins mixing.
func (p *Piano) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		return nil
	}
	backend, err := intaudio.NewPlayer(p.cfg.voice.SampleRate, p.cfg.blockFrames, p.pool)
	if err != nil {
		return err
	}
	p.audio = backend
	p.audio.Play()
	return nil
}

func (p *Piano) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio == nil {
		return nil
	}
	err := p.audio.Stop()
	p.audio = nil
	return err
}

// KeyDown triggers a key with the controller's measured attack time.
func (p *Piano) KeyDown(key int, attackTime float64) { p.pool.Trigger(key, attackTime) }

func (p *Piano) KeyUp(key int) { p.pool.Release(key) }

func (p *Piano) PedalDown() { p.pool.PedalDown() }

func (p *Piano) PedalUp() { p.pool.PedalUp() }

// NoteOn triggers from a MIDI key number and velocity, through the same
// mapping and transpose the file sequencer uses. Velocity 0 releases.
func (p *Piano) NoteOn(midiKey, velocity int) {
	key := intseq.MapKey(midiKey, p.cfg.noteShift, p.cfg.keys)
	if velocity > 0 {
		p.pool.TriggerLevel(key, intseq.Level(velocity))
	} else {
		p.pool.Release(key)
	}
}

// NoteOff releases a MIDI key number.
func (p *Piano) NoteOff(midiKey int) {
	p.pool.Release(intseq.MapKey(midiKey, p.cfg.noteShift, p.cfg.keys))
}

// TriggerAlert plays one of the bank's alert sounds at full volume.
func (p *Piano) TriggerAlert(sound int) {
	slot := p.cfg.keys + sound
	if slot < p.pool.NumVoices() {
		p.pool.TriggerOneShot(slot)
	}
}

// PlayMIDI paces a loaded Standard MIDI File through the pool. It blocks
// for the duration of playback; run it from its own goroutine alongside
// Start. A header FormatError aborts the file before any trigger.
func (p *Piano) PlayMIDI(data []byte) error {
	seq := intseq.New(p.pool, intseq.Options{
		Keys:      p.cfg.keys,
		NoteShift: sequencerShift(p.cfg.noteShift),
		TempoMs:   p.cfg.tempoMs,
		MaxTracks: p.cfg.maxTracks,
		MaxNotes:  p.cfg.maxNotes,
	})
	return seq.Play(data)
}

// sequencerShift re-encodes a resolved transpose for sequencer Options,
// where zero selects the default and negative means none.
func sequencerShift(shift int) int {
	if shift == 0 {
		return -1
	}
	return shift
}

// ListenKeys consumes the controller line protocol from r until EOF,
// dropping malformed and out-of-range messages; onDrop, when non-nil,
// observes each drop.
func (p *Piano) ListenKeys(r io.Reader, onDrop func(error)) error {
	return intkeymsg.Pump(r, p.pool, p.cfg.keys, onDrop)
}

// ActiveVoices reports how many voices are currently sounding.
func (p *Piano) ActiveVoices() int { return p.pool.ActiveVoiceCount() }
