package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
)

// EngineConfig tunes the scheduler
type EngineConfig struct {
	Lookahead float64 `json:"lookahead,omitempty"` // bars per tick
	LatencyMS int     `json:"latencyMs,omitempty"` // tick to sound
	GraceMS   int     `json:"graceMs,omitempty"`   // lifetime of replaced instruments
}

// OutputConfig defines the synth MIDI output
type OutputConfig struct {
	PortName string `json:"portName,omitempty"`
	Channels []int  `json:"channels,omitempty"` // 1-16, by track order
}

// InputConfig maps notes of a MIDI input to transport actions.
// A negative note is unused.
type InputConfig struct {
	PortName   string `json:"portName,omitempty"`
	ToggleNote int    `json:"toggleNote"`
	StartNote  int    `json:"startNote"`
	PauseNote  int    `json:"pauseNote"`
}

// UIConfig stores UI preferences
type UIConfig struct {
	Palette  string `json:"palette,omitempty"` // GIMP .gpl file, built-in palette if empty
	LastSong string `json:"lastSong,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Engine   EngineConfig `json:"engine"`
	Output   OutputConfig `json:"output,omitempty"`
	Input    InputConfig  `json:"input"`
	UI       UIConfig     `json:"ui,omitempty"`
	SongsDir string       `json:"songsDir,omitempty"`
	Debug    bool         `json:"debug,omitempty"`
	DebugLog string       `json:"debugLog,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Lookahead: 0.5,
			LatencyMS: 100,
			GraceMS:   5000,
		},
		Input: InputConfig{
			ToggleNote: -1,
			StartNote:  -1,
			PauseNote:  -1,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-jamtyper"), nil
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

// LoadFile reads the config at path. Missing fields keep their defaults.
func LoadFile(path string) (*Config, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
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
	cfg.Validate()
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
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate replaces out of range values with defaults
func (c *Config) Validate() {
	def := DefaultConfig()
	if !(c.Engine.Lookahead > 0) || c.Engine.Lookahead > 4 {
		c.Engine.Lookahead = def.Engine.Lookahead
	}
	if c.Engine.LatencyMS < 0 {
		c.Engine.LatencyMS = 0
	}
	if c.Engine.GraceMS <= 0 {
		c.Engine.GraceMS = def.Engine.GraceMS
	}
	valid := c.Output.Channels[:0]
	for _, ch := range c.Output.Channels {
		if ch >= 1 && ch <= 16 {
			valid = append(valid, ch)
		}
	}
	c.Output.Channels = valid
}

// Latency is the configured tick to sound distance
func (c *Config) Latency() time.Duration {
	return time.Duration(c.Engine.LatencyMS) * time.Millisecond
}

// Grace is how long replaced instruments keep running
func (c *Config) Grace() time.Duration {
	return time.Duration(c.Engine.GraceMS) * time.Millisecond
}

// ExpandPath resolves ~ in a configured path
func ExpandPath(path string) string {
	if expanded, err := homedir.Expand(path); err == nil {
		return expanded
	}
	return path
}

// RememberSong stores the song file opened last
func (c *Config) RememberSong(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	c.UI.LastSong = path
}
