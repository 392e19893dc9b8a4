package bank

import "math"

// Synth generates a bank in memory for running without a sample library:
// one exponentially decaying sine per key, tuned from A0 up in semitones,
// plus two short alert beeps for the special-sound slots. Useful for the
// binaries' -synth mode and for tests.
func Synth(keys, sampleRate int) *Bank {
	b := &Bank{}
	noteLen := sampleRate // one second per key
	for k := 0; k < keys; k++ {
		freq := 27.5 * math.Pow(2, float64(k)/12)
		b.appendTone(freq, noteLen, sampleRate)
	}
	for i := 0; i < NumSpecialSounds; i++ {
		b.appendTone(880*float64(i+1), sampleRate/4, sampleRate)
	}
	return b
}

func (b *Bank) appendTone(freq float64, length, sampleRate int) {
	first := len(b.Samples)
	for i := 0; i < length; i++ {
		t := float64(i) / float64(sampleRate)
		v := math.Sin(2*math.Pi*freq*t) * math.Exp(-3*t)
		b.Samples = append(b.Samples, int16(v*0.8*math.MaxInt16))
	}
	b.bounds = append(b.bounds, [2]int{first, len(b.Samples) - 1})
}
