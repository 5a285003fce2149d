package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"stepseq/sequencer"
)

func TestLoadFileMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Fatalf("got %+v, expected defaults", cfg)
	}
}

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := DefaultConfig()
	cfg.PortName = "live-set"
	cfg.Tempo = 98.5
	cfg.Duration = sequencer.Bars(2)
	cfg.Song = "/tmp/song.yml"
	cfg.AutoPlay = true

	if err := cfg.SaveFile(path); err != nil {
		t.Fatalf("SaveFile failed: %v", err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if !reflect.DeepEqual(got, cfg) {
		t.Fatalf("got %+v, expected %+v", got, cfg)
	}
}

func TestLoadFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"tempo": -3, "debug": true}`), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.PortName != "stepseq" || cfg.Tempo != sequencer.DefaultTempo || cfg.Duration != sequencer.Auto() {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if !cfg.Debug {
		t.Fatalf("debug flag lost")
	}
}

func TestLoadFileInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected error for invalid json")
	}
}
