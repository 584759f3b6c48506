// Package app provides configuration management for the NES emulator.
package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"nesemu/internal/graphics"
	"nesemu/internal/input"
)

// Config holds all application configuration
type Config struct {
	Window    WindowConfig    `json:"window"`
	Video     VideoConfig     `json:"video"`
	Audio     AudioConfig     `json:"audio"`
	Input     InputConfig     `json:"input"`
	Emulation EmulationConfig `json:"emulation"`
	Debug     DebugConfig     `json:"debug"`
	Paths     PathsConfig     `json:"paths"`

	// Internal state
	configPath string
	loaded     bool
}

// WindowConfig contains window-related configuration
type WindowConfig struct {
	Scale      int  `json:"scale"` // NES resolution multiplier, 1-4
	Fullscreen bool `json:"fullscreen"`
}

// VideoConfig contains video rendering configuration
type VideoConfig struct {
	Backend    string  `json:"backend"` // "ebitengine", "terminal", "headless"
	VSync      bool    `json:"vsync"`
	Filter     string  `json:"filter"` // "nearest", "linear"
	Brightness float32 `json:"brightness"`
	Contrast   float32 `json:"contrast"`
	Saturation float32 `json:"saturation"`
}

// AudioConfig contains audio configuration
type AudioConfig struct {
	Enabled    bool    `json:"enabled"`
	SampleRate int     `json:"sample_rate"`
	BufferMS   int     `json:"buffer_ms"` // device buffer length
	Volume     float32 `json:"volume"`
	Muted      bool    `json:"muted"`
	RecordPath string  `json:"record_path"` // WAV file, empty to disable
}

// InputConfig contains keyboard mappings for both controllers
type InputConfig struct {
	Player1Keys KeyMapping `json:"player1_keys"`
	Player2Keys KeyMapping `json:"player2_keys"`
}

// KeyMapping represents keyboard key mappings for NES controller
type KeyMapping struct {
	Up     string `json:"up"`
	Down   string `json:"down"`
	Left   string `json:"left"`
	Right  string `json:"right"`
	A      string `json:"a"`
	B      string `json:"b"`
	Start  string `json:"start"`
	Select string `json:"select"`
}

// EmulationConfig contains emulation-specific settings
type EmulationConfig struct {
	FrameRate      float64 `json:"frame_rate"`       // Target frame rate
	SaveStateSlots int     `json:"save_state_slots"` // Number of save state slots
	PauseOnStart   bool    `json:"pause_on_start"`
}

// DebugConfig contains debugging and development options
type DebugConfig struct {
	ShowFPS       bool   `json:"show_fps"`
	EnableLogging bool   `json:"enable_logging"`
	CPUTracing    bool   `json:"cpu_tracing"`
	TracePath     string `json:"trace_path"`  // empty traces to stderr
	TraceLimit    uint64 `json:"trace_limit"` // 0 for no limit
	InputLogging  bool   `json:"input_logging"`
}

// PathsConfig contains file and directory paths
type PathsConfig struct {
	SaveStates  string `json:"save_states"`
	Screenshots string `json:"screenshots"`
	Recordings  string `json:"recordings"`
}

// NTSCFrameRate is the native NTSC refresh rate (CPU clock / 29780.5)
const NTSCFrameRate = 60.0988

const (
	minScale = 1
	maxScale = 4
)

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Scale:      3,
			Fullscreen: false,
		},
		Video: VideoConfig{
			Backend:    string(graphics.BackendEbitengine),
			VSync:      true,
			Filter:     "nearest",
			Brightness: 1.0,
			Contrast:   1.0,
			Saturation: 1.0,
		},
		Audio: AudioConfig{
			Enabled:    true,
			SampleRate: 44100,
			BufferMS:   50,
			Volume:     0.8,
		},
		Input: InputConfig{
			Player1Keys: KeyMapping{
				Up:     "Up",
				Down:   "Down",
				Left:   "Left",
				Right:  "Right",
				A:      "J",
				B:      "K",
				Start:  "Enter",
				Select: "Space",
			},
			Player2Keys: KeyMapping{
				Up:     "1",
				Down:   "2",
				Left:   "3",
				Right:  "4",
				A:      "5",
				B:      "6",
				Start:  "7",
				Select: "8",
			},
		},
		Emulation: EmulationConfig{
			FrameRate:      NTSCFrameRate,
			SaveStateSlots: 4,
		},
		Paths: PathsConfig{
			SaveStates:  "./states",
			Screenshots: "./screenshots",
			Recordings:  "./recordings",
		},
	}
}

// LoadFromFile loads configuration from a JSON file. A missing file is
// created with the current values.
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	c.loaded = true
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	c.configPath = path
	return nil
}

// Save saves the configuration to the current config file
func (c *Config) Save() error {
	if c.configPath == "" {
		return fmt.Errorf("no config file path set")
	}
	return c.SaveToFile(c.configPath)
}

// Validate clamps numeric settings into range and rejects settings that
// cannot be repaired, such as unknown key names
func (c *Config) Validate() error {
	if c.Window.Scale < minScale {
		c.Window.Scale = minScale
	}
	if c.Window.Scale > maxScale {
		c.Window.Scale = maxScale
	}

	switch graphics.BackendType(c.Video.Backend) {
	case graphics.BackendEbitengine, graphics.BackendTerminal, graphics.BackendHeadless:
	case "":
		c.Video.Backend = string(graphics.BackendEbitengine)
	default:
		return &ConfigError{Field: "video.backend", Value: c.Video.Backend, Err: errors.New("unknown backend")}
	}
	if c.Video.Filter != "linear" {
		c.Video.Filter = "nearest"
	}
	c.Video.Brightness = clampFloat(c.Video.Brightness, 0.1, 3.0)
	c.Video.Contrast = clampFloat(c.Video.Contrast, 0.1, 3.0)
	c.Video.Saturation = clampFloat(c.Video.Saturation, 0.0, 3.0)

	if c.Audio.SampleRate < 8000 || c.Audio.SampleRate > 192000 {
		c.Audio.SampleRate = 44100
	}
	if c.Audio.BufferMS < 10 {
		c.Audio.BufferMS = 10
	}
	if c.Audio.BufferMS > 500 {
		c.Audio.BufferMS = 500
	}
	c.Audio.Volume = clampFloat(c.Audio.Volume, 0.0, 1.0)

	if c.Emulation.FrameRate <= 0 || c.Emulation.FrameRate > 240 {
		c.Emulation.FrameRate = NTSCFrameRate
	}
	if c.Emulation.SaveStateSlots <= 0 {
		c.Emulation.SaveStateSlots = 4
	}

	if _, err := c.KeyBindings(); err != nil {
		return err
	}
	return nil
}

func clampFloat(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Binding is the controller button a keyboard key drives
type Binding struct {
	Port   int // 1 or 2
	Button input.Button
}

// KeyBindings resolves both key mappings. A key bound twice is an error.
func (c *Config) KeyBindings() (map[graphics.Key]Binding, error) {
	bindings := make(map[graphics.Key]Binding, 16)
	for port, mapping := range []KeyMapping{c.Input.Player1Keys, c.Input.Player2Keys} {
		prefix := fmt.Sprintf("input.player%d_keys", port+1)
		for _, entry := range mapping.entries() {
			if entry.name == "" {
				continue
			}
			field := prefix + "." + entry.field
			key, err := graphics.ParseKey(entry.name)
			if err != nil {
				return nil, &ConfigError{Field: field, Value: entry.name, Err: err}
			}
			if _, dup := bindings[key]; dup {
				return nil, &ConfigError{Field: field, Value: entry.name, Err: errors.New("key bound twice")}
			}
			bindings[key] = Binding{Port: port + 1, Button: entry.button}
		}
	}
	return bindings, nil
}

type mappingEntry struct {
	field  string
	name   string
	button input.Button
}

func (m KeyMapping) entries() []mappingEntry {
	return []mappingEntry{
		{"a", m.A, input.ButtonA},
		{"b", m.B, input.ButtonB},
		{"select", m.Select, input.ButtonSelect},
		{"start", m.Start, input.ButtonStart},
		{"up", m.Up, input.ButtonUp},
		{"down", m.Down, input.ButtonDown},
		{"left", m.Left, input.ButtonLeft},
		{"right", m.Right, input.ButtonRight},
	}
}

// CreateDirectories creates the output directories named in Paths
func (c *Config) CreateDirectories() error {
	for _, dir := range []string{c.Paths.SaveStates, c.Paths.Screenshots, c.Paths.Recordings} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetWindowResolution returns the window resolution based on scale
func (c *Config) GetWindowResolution() (int, int) {
	return graphics.ScreenWidth * c.Window.Scale, graphics.ScreenHeight * c.Window.Scale
}

// IsLoaded returns whether the configuration was loaded from file
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// GetConfigPath returns the path to the config file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	return "./config/nesemu.json"
}

// ConfigError represents configuration-related errors
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s' with value '%v': %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
