package main

import (
	"fmt"
	"os"
	"time"

	"stepseq/midi"
	"stepseq/project"
	"stepseq/sequencer"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "list":
		err = listPorts()
	case "export":
		if len(os.Args) != 4 {
			usage()
			os.Exit(2)
		}
		err = export(os.Args[2], os.Args[3])
	case "check":
		if len(os.Args) != 3 {
			usage()
			os.Exit(2)
		}
		err = check(os.Args[2])
	default:
		usage()
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("stepseq tools")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list                        - List all MIDI ports")
	fmt.Println("  export <song.yml> <out.mid> - Render a song to a Standard MIDI File")
	fmt.Println("  check <song.yml>            - Validate a song and summarize its timeline")
}

func listPorts() error {
	fmt.Println("(waiting up to 3 seconds...)")
	ports, err := midi.ListPorts(3 * time.Second)
	if err == midi.ErrPortScanTimeout {
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
		return err
	}
	if err != nil {
		return err
	}

	fmt.Println("=== MIDI Input Ports ===")
	for i, p := range ports.Ins {
		fmt.Printf("  %d: %s\n", i, p)
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, p := range ports.Outs {
		fmt.Printf("  %d: %s\n", i, p)
	}
	return nil
}

func compile(path string) (*project.Song, sequencer.Timeline, error) {
	s, err := project.Load(path)
	if err != nil {
		return nil, sequencer.Timeline{}, err
	}
	return s, sequencer.Compile(s.Tracks, s.Tempo, s.Duration), nil
}

func export(songPath, outPath string) error {
	_, tl, err := compile(songPath)
	if err != nil {
		return err
	}

	f := midi.NewSMF()
	tl.Arrange(f, nil)

	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if _, err := f.WriteTo(out); err != nil {
		out.Close()
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	if err := out.Close(); err != nil {
		return err
	}

	fmt.Printf("wrote %s: %d tracks, %d events, %g beats\n", outPath, len(tl.Tracks), tl.NumEvents(), tl.Length)
	return nil
}

func check(path string) error {
	s, tl, err := compile(path)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %.1f bpm, loop %s = %g beats (%v)\n", s.Name, s.Tempo, s.Duration, tl.Length, tl.Duration())
	for _, t := range tl.Tracks {
		state := "audible"
		if !t.Audible {
			state = "silent"
		}
		fmt.Printf("  %2d %-16s %-7s %d events\n", t.Index+1, t.Name, state, len(t.Events))
	}
	return nil
}
