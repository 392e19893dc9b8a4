package main

import (
	"flag"
	"io"
	"log"
	"os"

	magickeys "github.com/SuperQuentin/TheMagicKeys"
	"github.com/SuperQuentin/TheMagicKeys/internal/bank"
)

func main() {
	var (
		device      = flag.String("device", "", "serial device delivering key messages (default: stdin)")
		samplesRoot = flag.String("samples", "", "root directory of per-program sample sets")
		programFile = flag.String("program-file", "", "persisted one-byte program index file")
		synth       = flag.Bool("synth", false, "use the generated sample bank instead of wav files")
		sampleRate  = flag.Int("sample-rate", 44000, "output sample rate")
		minAttack   = flag.Float64("min-attack", 10000, "attack time mapped to full volume")
		maxAttack   = flag.Float64("max-attack", 100000, "attack time mapped to the volume floor")
	)
	flag.Parse()

	var b *bank.Bank
	if *synth || *samplesRoot == "" {
		b = bank.Synth(magickeys.NumKeys, *sampleRate)
	} else {
		dir := *samplesRoot
		if *programFile != "" {
			program, err := bank.ReadProgram(*programFile)
			if err != nil {
				log.Fatal(err)
			}
			log.Printf("program %d", program)
			dir = bank.ProgramDir(*samplesRoot, program)
		}
		var err error
		b, err = bank.LoadDirectory(dir, magickeys.NumKeys+bank.NumSpecialSounds)
		if err != nil {
			log.Fatal(err)
		}
	}

	piano, err := magickeys.NewPiano(b,
		magickeys.WithSampleRate(*sampleRate),
		magickeys.WithAttackTimeRange(*minAttack, *maxAttack),
	)
	if err != nil {
		log.Fatal(err)
	}
	if err := piano.Start(); err != nil {
		log.Fatal(err)
	}
	defer piano.Stop()
	piano.TriggerAlert(magickeys.SoundReady)

	var in io.Reader = os.Stdin
	if *device != "" {
		f, err := os.Open(*device)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		in = f
	}

	log.Print("listening for key messages")
	if err := piano.ListenKeys(in, func(err error) { log.Printf("dropped: %v", err) }); err != nil {
		log.Fatal(err)
	}
}
