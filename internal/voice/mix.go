package voice

import "math"

// RenderFrame advances every active voice by one sample and returns the
// mixed output duplicated on both channels. It runs on the audio thread:
// no allocation, no locks, bounded work per call.
func (p *Pool) RenderFrame() (float32, float32) {
	var sum float32
	for i := range p.voices {
		sum += p.tick(&p.voices[i])
	}
	return sum, sum
}

// ProcessBlock fills dst with interleaved stereo samples.
func (p *Pool) ProcessBlock(dst []float32) {
	for f := 0; f+1 < len(dst); f += 2 {
		l, r := p.RenderFrame()
		dst[f] = l
		dst[f+1] = r
	}
}

func (p *Pool) tick(v *Voice) float32 {
	if !v.active.Load() {
		return 0
	}
	cursor := v.cursor.Load()

	// Headroom division in int16 first, as the source material is int16;
	// then scale by the per-trigger volume.
	sig := float32(p.samples[cursor]/int16(p.params.MaxPolyphony)) / 32768.0
	sig *= float32(math.Float64frombits(v.volume.Load()))

	// Attack ramp over playback position, not wall-clock time, so a
	// retrigger replays identically from the start of the waveform.
	if rel := cursor - int64(v.firstSample); rel < int64(p.attackSamples) {
		sig *= float32(rel) / float32(p.attackSamples)
	}

	// Latch a fade-out shortly before the recorded waveform runs out, so
	// every voice ends with a ramp even if no release event ever arrives.
	if int64(v.lastSample)-cursor <= int64(p.releaseSamples) && !v.endSoon.Load() {
		v.keyReleasedAt.Store(cursor)
		v.pedalReleasedAt.Store(cursor)
		v.endSoon.Store(true)
	}

	if v.endSoon.Load() || (v.keyReleased.Load() && !p.pedalDown.Load()) {
		// The later of the key-up and pedal-up positions controls the
		// release; positions grow with play time, so larger means more
		// recent.
		releaseFrom := v.keyReleasedAt.Load()
		if pp := v.pedalReleasedAt.Load(); pp > releaseFrom {
			releaseFrom = pp
		}
		if cursor-releaseFrom >= int64(p.releaseSamples) || cursor >= int64(v.lastSample) {
			p.resetVoice(v)
			return 0
		}
		sig *= float32(releaseFrom+int64(p.releaseSamples)-cursor) / float32(p.releaseSamples)
	}

	if cursor < int64(v.lastSample) {
		v.cursor.Store(cursor + 1)
	}
	return sig
}

// resetVoice returns a voice to the fully idle state. Only the mixer calls
// this, on release completion.
func (p *Pool) resetVoice(v *Voice) {
	v.cursor.Store(int64(v.firstSample))
	v.keyReleasedAt.Store(int64(v.firstSample))
	v.pedalReleasedAt.Store(int64(v.firstSample))
	v.keyReleased.Store(false)
	v.endSoon.Store(false)
	v.volume.Store(0)
	v.active.Store(false)
}
