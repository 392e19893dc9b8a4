package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	magickeys "github.com/SuperQuentin/TheMagicKeys"
	"github.com/SuperQuentin/TheMagicKeys/internal/bank"
)

func main() {
	var (
		midiPath   = flag.String("file", "", "path to a .mid file (or a directory of them)")
		samplesDir = flag.String("samples", "", "directory of numbered per-key wav files")
		synth      = flag.Bool("synth", false, "use the generated sample bank instead of wav files")
		sampleRate = flag.Int("sample-rate", 44000, "output sample rate")
		tempo      = flag.Int("tempo", 500, "milliseconds per quarter note")
		tracks     = flag.Int("tracks", 0, "play only the first N tracks (0 = all)")
		notes      = flag.Int("notes", 0, "stop after N note-ons (0 = unbounded)")
		wavOut     = flag.String("wav", "", "render offline to this wav file instead of playing")
	)
	flag.Parse()

	if *midiPath == "" {
		log.Fatal("need -file")
	}
	files, err := resolveMIDIFiles(*midiPath)
	if err != nil {
		log.Fatal(err)
	}
	if len(files) == 0 {
		log.Fatalf("no .mid files under %s", *midiPath)
	}

	b, err := loadBank(*samplesDir, *synth, *sampleRate)
	if err != nil {
		log.Fatal(err)
	}

	opts := []magickeys.Option{
		magickeys.WithSampleRate(*sampleRate),
		magickeys.WithTempo(*tempo),
		magickeys.WithMIDILimits(*tracks, *notes),
	}

	if *wavOut != "" {
		data, err := os.ReadFile(files[0])
		if err != nil {
			log.Fatal(err)
		}
		samples, err := magickeys.RenderMIDI(b, data, 0, opts...)
		if err != nil {
			log.Printf("render: %v", err)
		}
		if err := os.WriteFile(*wavOut, magickeys.EncodeWAVInt16LE(samples, *sampleRate, 2), 0o644); err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote %s (%0.1fs)", *wavOut, float64(len(samples)/2)/float64(*sampleRate))
		return
	}

	piano, err := magickeys.NewPiano(b, opts...)
	if err != nil {
		log.Fatal(err)
	}
	if err := piano.Start(); err != nil {
		log.Fatal(err)
	}
	defer piano.Stop()

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("playing %s", path)
		if err := piano.PlayMIDI(data); err != nil {
			log.Printf("%s: %v", path, err)
		}
	}
}

func resolveMIDIFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".mid") {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func loadBank(dir string, synth bool, sampleRate int) (*bank.Bank, error) {
	if synth || dir == "" {
		return bank.Synth(magickeys.NumKeys, sampleRate), nil
	}
	return bank.LoadDirectory(dir, magickeys.NumKeys+bank.NumSpecialSounds)
}
