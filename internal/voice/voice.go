package voice

import (
	"math"
	"sync/atomic"
)

type Params struct {
	SampleRate    int
	MaxPolyphony  int     // full-level voices the output carries without clipping
	AttackMs      int     // leading ramp from silence to full level
	ReleaseMs     int     // trailing ramp from current level to silence
	MinAttackTime float64 // key attack time mapped to full volume
	MaxAttackTime float64 // key attack time mapped to the volume floor
}

func DefaultParams() Params {
	return Params{
		SampleRate:    44000,
		MaxPolyphony:  10,
		AttackMs:      10,
		ReleaseMs:     250,
		MinAttackTime: 10000,
		MaxAttackTime: 100000,
	}
}

// Voice is one playback slot of the pool. The mixer thread and the event
// dispatch thread share it without locks: every mutable field is atomic, and
// state transitions store their data fields before the boolean that gates
// them (active on trigger, keyReleased on release), so a concurrent reader
// never observes a flag ahead of the data it depends on.
type Voice struct {
	firstSample int
	lastSample  int

	active          atomic.Bool
	cursor          atomic.Int64
	volume          atomic.Uint64 // float64 bits
	keyReleased     atomic.Bool
	keyReleasedAt   atomic.Int64
	pedalReleasedAt atomic.Int64
	endSoon         atomic.Bool // fade-out latched before the waveform runs out
}

// Pool is a fixed arena of voices, one per playable key plus any one-shot
// alert slots, all reading from one shared sample buffer. It never grows and
// never allocates after construction.
type Pool struct {
	samples        []int16
	voices         []Voice
	pedalDown      atomic.Bool
	params         Params
	attackSamples  int
	releaseSamples int
}

// NewPool builds a pool with one voice per bounds entry. Each entry is an
// inclusive (first, last) sample offset pair into samples.
func NewPool(samples []int16, bounds [][2]int, params Params) *Pool {
	p := &Pool{
		samples:        samples,
		voices:         make([]Voice, len(bounds)),
		params:         params,
		attackSamples:  params.SampleRate * params.AttackMs / 1000,
		releaseSamples: params.SampleRate * params.ReleaseMs / 1000,
	}
	for i, b := range bounds {
		v := &p.voices[i]
		v.firstSample = b[0]
		v.lastSample = b[1]
		v.cursor.Store(int64(b[0]))
		v.keyReleasedAt.Store(int64(b[0]))
		v.pedalReleasedAt.Store(int64(b[0]))
	}
	return p
}

func (p *Pool) NumVoices() int { return len(p.voices) }

func (p *Pool) Params() Params { return p.params }

// Trigger starts the voice with a volume derived from the key's attack time.
// Callers validate index; an out-of-range index is a programming error.
func (p *Pool) Trigger(index int, attackTime float64) {
	p.TriggerLevel(index, Volume(attackTime, p.params.MinAttackTime, p.params.MaxAttackTime))
}

// TriggerLevel starts the voice at an explicit volume, restarting from the
// first sample. A voice mid-release is simply overwritten; the in-flight
// release is abandoned without a fade.
func (p *Pool) TriggerLevel(index int, level float64) {
	v := &p.voices[index]
	v.active.Store(false)
	v.volume.Store(math.Float64bits(level))
	v.cursor.Store(int64(v.firstSample))
	v.keyReleasedAt.Store(int64(v.firstSample))
	v.pedalReleasedAt.Store(int64(v.firstSample))
	v.keyReleased.Store(false)
	v.endSoon.Store(false)
	// Stored last: the mixer must never see an active voice with a stale
	// volume or position.
	v.active.Store(true)
}

// TriggerOneShot starts an alert slot at full volume.
func (p *Pool) TriggerOneShot(index int) {
	p.TriggerLevel(index, 1.0)
}

// Release marks the key up. The position is captured before the flag so the
// mixer cannot compute a release window from a stale position.
func (p *Pool) Release(index int) {
	v := &p.voices[index]
	v.keyReleasedAt.Store(v.cursor.Load())
	v.keyReleased.Store(true)
}

// PedalDown engages the sustain pedal. The per-voice pedal positions are
// rewound so that only a later pedal-up becomes the release reference.
func (p *Pool) PedalDown() {
	p.pedalDown.Store(true)
	for i := range p.voices {
		v := &p.voices[i]
		v.pedalReleasedAt.Store(int64(v.firstSample))
	}
}

// PedalUp snapshots, per voice, the position the pedal stopped sustaining at,
// then lifts the pedal. Voices whose key is already up start releasing from
// exactly this instant.
func (p *Pool) PedalUp() {
	for i := range p.voices {
		v := &p.voices[i]
		v.pedalReleasedAt.Store(v.cursor.Load())
	}
	p.pedalDown.Store(false)
}

func (p *Pool) PedalIsDown() bool { return p.pedalDown.Load() }

func (p *Pool) Active(index int) bool { return p.voices[index].active.Load() }

func (p *Pool) Cursor(index int) int { return int(p.voices[index].cursor.Load()) }

func (p *Pool) PedalReleasedAt(index int) int {
	return int(p.voices[index].pedalReleasedAt.Load())
}

func (p *Pool) ActiveVoiceCount() int {
	n := 0
	for i := range p.voices {
		if p.voices[i].active.Load() {
			n++
		}
	}
	return n
}
