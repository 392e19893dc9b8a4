// Package bank owns the shared sample buffer: one contiguous int16 region
// holding every key's waveform back to back, plus the one-shot alert sounds,
// with per-sound bounds handed to the voice pool at load time. The buffer is
// written once here and never re-read or re-validated by the playback core.
package bank

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	wav "github.com/youpy/go-wav"
)

// Alert slot offsets, after the playable keys.
const (
	NumSpecialSounds = 2
	SoundReady       = 0
	SoundProgramLoad = 1
)

type Bank struct {
	Samples []int16
	bounds  [][2]int
}

// Bounds returns the inclusive (first, last) sample offsets per sound, in
// slot order.
func (b *Bank) Bounds() [][2]int { return b.bounds }

func (b *Bank) NumSounds() int { return len(b.bounds) }

// LoadDirectory loads exactly sounds WAV files from dir, assigned to slots
// by the 3-digit 1-based index prefix of each file name. Every slot must be
// covered; gaps and decode failures abort the load.
func LoadDirectory(dir string, sounds int) (*Bank, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("bank: %w", err)
	}
	paths := make([]string, sounds)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".wav") || len(name) < 3 {
			continue
		}
		idx, err := strconv.Atoi(name[:3])
		if err != nil || idx < 1 || idx > sounds {
			continue
		}
		paths[idx-1] = filepath.Join(dir, name)
	}
	b := &Bank{}
	for i, path := range paths {
		if path == "" {
			return nil, fmt.Errorf("bank: no wav file for sound %03d in %s", i+1, dir)
		}
		if err := b.appendWAV(path); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// appendWAV decodes one file's first channel onto the end of the buffer and
// records its bounds.
func (b *Bank) appendWAV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("bank: %w", err)
	}
	defer f.Close()

	r := wav.NewReader(f)
	first := len(b.Samples)
	for {
		samples, err := r.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("bank: %s: %w", path, err)
		}
		for _, smp := range samples {
			v := r.FloatValue(smp, 0)
			if v > 1 {
				v = 1
			} else if v < -1 {
				v = -1
			}
			b.Samples = append(b.Samples, int16(v*math.MaxInt16))
		}
	}
	if len(b.Samples) == first {
		return fmt.Errorf("bank: %s: no samples", path)
	}
	b.bounds = append(b.bounds, [2]int{first, len(b.Samples) - 1})
	return nil
}
