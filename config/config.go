package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"stepseq/sequencer"
)

// Config is the main configuration structure
type Config struct {
	PortName string             `json:"portName"`           // virtual port display name
	Tempo    float64            `json:"tempo,omitempty"`    // BPM
	Duration sequencer.Duration `json:"duration,omitempty"` // loop length policy
	Song     string             `json:"song,omitempty"`     // last opened song file
	Palette  string             `json:"palette,omitempty"`  // optional GIMP .gpl palette
	Debug    bool               `json:"debug,omitempty"`
	AutoPlay bool               `json:"autoPlay,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		PortName: "stepseq",
		Tempo:    sequencer.DefaultTempo,
		Duration: sequencer.Auto(),
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "stepseq"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, or returns defaults if not found
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the config at path, or returns defaults if it does not
// exist. Missing fields keep their defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

// Save writes the config to disk
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path, creating its directory
func (c *Config) SaveFile(path string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// normalize replaces unusable values with defaults
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.PortName == "" {
		c.PortName = def.PortName
	}
	if c.Tempo <= 0 {
		c.Tempo = def.Tempo
	}
	if c.Duration.Mode == "" {
		c.Duration = def.Duration
	}
}
