package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"

	magickeys "github.com/SuperQuentin/TheMagicKeys"
	"github.com/SuperQuentin/TheMagicKeys/internal/bank"

	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Sustain pedal controller number (CC 64).
const ccSustain = 64

func main() {
	var (
		portName   = flag.String("port", "", "substring of the MIDI input port name (default: first port)")
		listPorts  = flag.Bool("list", false, "list MIDI input ports and exit")
		samplesDir = flag.String("samples", "", "directory of numbered per-key wav files")
		synth      = flag.Bool("synth", false, "use the generated sample bank instead of wav files")
		sampleRate = flag.Int("sample-rate", 44000, "output sample rate")
	)
	flag.Parse()
	defer midi.CloseDriver()

	ins := midi.GetInPorts()
	if *listPorts {
		for i, in := range ins {
			log.Printf("%d: %s", i, in.String())
		}
		return
	}
	if len(ins) == 0 {
		log.Fatal("no MIDI input ports")
	}
	in := ins[0]
	if *portName != "" {
		found := false
		for _, p := range ins {
			if strings.Contains(strings.ToLower(p.String()), strings.ToLower(*portName)) {
				in = p
				found = true
				break
			}
		}
		if !found {
			log.Fatalf("no MIDI input port matching %q", *portName)
		}
	}

	var b *bank.Bank
	if *synth || *samplesDir == "" {
		b = bank.Synth(magickeys.NumKeys, *sampleRate)
	} else {
		var err error
		b, err = bank.LoadDirectory(*samplesDir, magickeys.NumKeys+bank.NumSpecialSounds)
		if err != nil {
			log.Fatal(err)
		}
	}
	piano, err := magickeys.NewPiano(b, magickeys.WithSampleRate(*sampleRate))
	if err != nil {
		log.Fatal(err)
	}
	if err := piano.Start(); err != nil {
		log.Fatal(err)
	}
	defer piano.Stop()

	stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		var channel, key, velocity, cc, value uint8
		switch {
		case msg.GetNoteOn(&channel, &key, &velocity):
			piano.NoteOn(int(key), int(velocity))
		case msg.GetNoteOff(&channel, &key, &velocity):
			piano.NoteOff(int(key))
		case msg.GetControlChange(&channel, &cc, &value):
			if cc == ccSustain {
				if value >= 64 {
					piano.PedalDown()
				} else {
					piano.PedalUp()
				}
			}
		}
	})
	if err != nil {
		log.Fatal(err)
	}
	defer stop()

	log.Printf("listening on %s", in.String())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
}
