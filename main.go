package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"stepseq/config"
	"stepseq/debug"
	"stepseq/midi"
	"stepseq/project"
	"stepseq/sequencer"
	"stepseq/theme"
	"stepseq/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	name := flag.String("name", cfg.PortName, "virtual MIDI port name")
	song := flag.String("song", cfg.Song, "song file or saved song name")
	tempo := flag.Float64("tempo", 0, "tempo in BPM (overrides the song)")
	length := flag.String("length", "", "loop length: auto, bars:N or steps:N (overrides the song)")
	debugLog := flag.Bool("debug", cfg.Debug, "write a debug log to "+debug.DefaultPath())
	play := flag.Bool("play", cfg.AutoPlay, "start playing on launch")
	flag.Parse()

	if *debugLog {
		if err := debug.Enable(debug.DefaultPath()); err != nil {
			fmt.Printf("Error enabling debug log: %v\n", err)
		}
		defer debug.Disable()
	}

	palette, err := theme.Load(cfg.Palette)
	if err != nil {
		fmt.Printf("Error loading palette: %v\n", err)
		palette = theme.Default()
	}
	th := theme.New(palette)

	driver, err := midi.NewDriver()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer driver.Close()

	seq, err := sequencer.New(*name, driver)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		driver.Close()
		os.Exit(1)
	}
	defer seq.Close()

	// Song settings first, then command line overrides
	songName := "untitled"
	seq.SetTempo(cfg.Tempo)
	seq.SetDuration(cfg.Duration)
	if *song != "" {
		path, n, err := resolveSong(*song)
		if err != nil {
			exit(seq, driver, err)
		}
		songName = n
		if s, err := project.Load(path); err == nil {
			if err := s.Apply(seq); err != nil {
				exit(seq, driver, err)
			}
			cfg.Song = path
		} else if !os.IsNotExist(err) {
			exit(seq, driver, err)
		}
	}
	if *tempo != 0 {
		if err := seq.SetTempo(*tempo); err != nil {
			exit(seq, driver, err)
		}
	}
	if *length != "" {
		d, err := sequencer.ParseDuration(*length)
		if err != nil {
			exit(seq, driver, err)
		}
		seq.SetDuration(d)
	}

	if *play {
		if err := seq.Play(); err != nil {
			debug.Log("transport", "autoplay: %v", err)
		}
	}

	fmt.Printf("%s: virtual ports open, %d tracks\n", *name, seq.Tracks().Len())

	m := tui.NewModel(seq, th, songName)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		exit(seq, driver, err)
	}

	if err := cfg.Save(); err != nil {
		debug.Log("tui", "save config: %v", err)
	}
}

// resolveSong maps a -song argument to a file and a song name. Arguments
// that look like paths are used as is; anything else names a saved song.
func resolveSong(arg string) (path, name string, err error) {
	if strings.ContainsRune(arg, filepath.Separator) || filepath.Ext(arg) == project.Ext {
		return arg, strings.TrimSuffix(filepath.Base(arg), filepath.Ext(arg)), nil
	}
	path, err = project.Path(arg)
	return path, arg, err
}

func exit(seq *sequencer.Sequencer, driver *midi.Driver, err error) {
	fmt.Printf("Error: %v\n", err)
	seq.Close()
	driver.Close()
	os.Exit(1)
}
