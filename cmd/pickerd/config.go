package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration for the pickerd daemon.
//
// The config file is the primary configuration surface; flags exist for small
// overrides and for environments where a file is awkward. Defaults and
// validation are centralized here so the rest of the code can assume a
// well-formed config.
type Config struct {
	// Input selects and tunes the input device.
	Input InputConfig `yaml:"input"`

	// Nav tunes the navigation state machine.
	Nav NavConfig `yaml:"nav"`

	// Menus is the path to the menus file (flexible or legacy format).
	Menus string `yaml:"menus"`

	// Calibration is the path to the knob calibration profile. Empty means
	// linear fallback on every channel.
	Calibration string `yaml:"calibration,omitempty"`

	// Display selects the output device.
	Display DisplayConfig `yaml:"display"`

	// Generator configures the image-generation client fired on Go.
	Generator GeneratorConfig `yaml:"generator"`

	// IPC configures the unix-socket control interface.
	IPC IPCConfig `yaml:"ipc"`

	// StateWS configures the state websocket endpoint.
	StateWS StateWSConfig `yaml:"state_ws"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// InputConfig selects the input device. Mode is one of:
//
//	rotary - GPIO rotary encoder with pushbutton (default)
//	evdev  - kernel gpio-rotary-encoder / gpio-keys devices
//	knobs  - six analog knobs + two buttons on an MCP3008
//	sim    - no hardware; events come in over IPC only
type InputConfig struct {
	Mode string `yaml:"mode"`

	Rotary RotaryConfig `yaml:"rotary"`
	Evdev  EvdevConfig  `yaml:"evdev"`
	Knobs  KnobsConfig  `yaml:"knobs"`

	// TickHz is the UI consumer loop frequency.
	TickHz int `yaml:"tick_hz"`

	// Coalescer thresholds. Empirically tuned and hardware-dependent.
	WindowSize        int `yaml:"momentum_window"`
	Lookback          int `yaml:"momentum_lookback"`
	MomentumThreshold int `yaml:"momentum_threshold"`
	DetentsPerItem    int `yaml:"detents_per_item"`
}

type RotaryConfig struct {
	ClkPin string `yaml:"clk_pin"`
	DtPin  string `yaml:"dt_pin"`
	SwPin  string `yaml:"sw_pin"`

	PollHz            int `yaml:"poll_hz"`
	LineStableSamples int `yaml:"line_stable_samples"`
	ButtonWindowMS    int `yaml:"button_window_ms"`
}

type EvdevConfig struct {
	// Devices lists the /dev/input/event* paths to monitor. The encoder and
	// its button usually surface as two separate devices.
	Devices []string `yaml:"devices"`

	// RelCode is the relative axis carrying rotation. 0 is REL_X, the
	// rotary overlay's default; set 7 for REL_DIAL hardware.
	RelCode int `yaml:"rel_code"`

	// KeyCode is the key carrying the pushbutton. The default 28 is
	// KEY_ENTER as gpio-keys overlays commonly map it.
	KeyCode int `yaml:"key_code"`
}

type KnobsConfig struct {
	// SPIPort is the periph SPI registry name of the MCP3008 port, e.g.
	// "SPI0.1". The e-paper hat owns CE0.
	SPIPort string `yaml:"spi_port"`

	PollHz         int `yaml:"poll_hz"`
	StableRequired int `yaml:"stable_required"`

	// ButtonThreshold is the Go/Reset press threshold as a fraction of full
	// scale on the button channels.
	ButtonThreshold float64 `yaml:"button_threshold"`
}

type NavConfig struct {
	Wrap          bool `yaml:"wrap"`
	IdleTimeoutMS int  `yaml:"idle_timeout_ms"`
}

// DisplayConfig selects the renderer. Mode is "epaper" or "log".
type DisplayConfig struct {
	Mode string `yaml:"mode"`

	// SPIPort is the periph SPI registry name for the e-paper hat. Empty
	// picks the first available port.
	SPIPort string `yaml:"spi_port,omitempty"`
}

type GeneratorConfig struct {
	// URL is the Stable Diffusion web UI base URL. Empty disables generation;
	// Go then just logs.
	URL string `yaml:"url,omitempty"`

	// OutputPath is where the generated PNG is written.
	OutputPath string `yaml:"output_path"`

	NegativePrompt string `yaml:"negative_prompt,omitempty"`
	Steps          int    `yaml:"steps"`
	Width          int    `yaml:"width"`
	Height         int    `yaml:"height"`
	TimeoutMS      int    `yaml:"timeout_ms"`
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path"`
}

type StateWSConfig struct {
	// Port is the HTTP listener port for /ws. Zero disables the endpoint.
	Port int `yaml:"port"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
// Keep this aligned with constants.go and the input package defaults.
func DefaultConfig() Config {
	return Config{
		Input: InputConfig{
			Mode: "rotary",
			Rotary: RotaryConfig{
				ClkPin:            defaultClkPin,
				DtPin:             defaultDtPin,
				SwPin:             defaultSwPin,
				PollHz:            1000,
				LineStableSamples: 2,
				ButtonWindowMS:    50,
			},
			Evdev: EvdevConfig{
				Devices: []string{"/dev/input/event0", "/dev/input/event1"},
				RelCode: 0,
				KeyCode: 28,
			},
			Knobs: KnobsConfig{
				SPIPort:         "SPI0.1",
				PollHz:          80,
				StableRequired:  3,
				ButtonThreshold: defaultButtonThresh,
			},
			TickHz:            defaultTickHz,
			WindowSize:        10,
			Lookback:          5,
			MomentumThreshold: 3,
			DetentsPerItem:    2,
		},
		Nav: NavConfig{
			Wrap:          false,
			IdleTimeoutMS: 3000,
		},
		Menus:       "/etc/picker/menus.yaml",
		Calibration: "",
		Display: DisplayConfig{
			Mode: "epaper",
		},
		Generator: GeneratorConfig{
			OutputPath: "/var/lib/picker/output.png",
			Steps:      defaultGeneratorSteps,
			Width:      defaultGeneratorWidth,
			Height:     defaultGeneratorHeight,
			TimeoutMS:  int(defaultGeneratorTimeout / time.Millisecond),
		},
		IPC: IPCConfig{
			SocketPath: "/tmp/pickerd.sock",
		},
		StateWS: StateWSConfig{
			Port: 3002,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file.
//
// Unknown fields are rejected (helps catch typos) via KnownFields(true), and
// trailing documents are an error.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides applies overrides from flags on top of a loaded config.
// Flags pass pointers; each override is only applied if the pointer is
// non-nil. main.go decides which flags exist.
type FlagOverrides struct {
	InputMode   *string
	Menus       *string
	Calibration *string

	ClkPin *string
	DtPin  *string
	SwPin  *string

	KnobSPIPort *string

	DisplayMode   *string
	GeneratorURL  *string
	IPCSocketPath *string
	StateWSPort   *int

	Wrap     *bool
	LogLevel *string
}

// Apply merges the overrides into cfg. Nil pointers are ignored; non-nil
// values are applied even when they are zero values.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.InputMode != nil {
		cfg.Input.Mode = *o.InputMode
	}
	if o.Menus != nil {
		cfg.Menus = *o.Menus
	}
	if o.Calibration != nil {
		cfg.Calibration = *o.Calibration
	}
	if o.ClkPin != nil {
		cfg.Input.Rotary.ClkPin = *o.ClkPin
	}
	if o.DtPin != nil {
		cfg.Input.Rotary.DtPin = *o.DtPin
	}
	if o.SwPin != nil {
		cfg.Input.Rotary.SwPin = *o.SwPin
	}
	if o.KnobSPIPort != nil {
		cfg.Input.Knobs.SPIPort = *o.KnobSPIPort
	}
	if o.DisplayMode != nil {
		cfg.Display.Mode = *o.DisplayMode
	}
	if o.GeneratorURL != nil {
		cfg.Generator.URL = *o.GeneratorURL
	}
	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}
	if o.StateWSPort != nil {
		cfg.StateWS.Port = *o.StateWSPort
	}
	if o.Wrap != nil {
		cfg.Nav.Wrap = *o.Wrap
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// Call after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	switch c.Input.Mode {
	case "rotary", "evdev", "knobs", "sim":
	default:
		return fmt.Errorf("input.mode must be one of rotary, evdev, knobs, sim (got %q)", c.Input.Mode)
	}

	if c.Input.TickHz <= 0 || c.Input.TickHz > 1000 {
		return errors.New("input.tick_hz must be between 1 and 1000")
	}
	if c.Input.DetentsPerItem < 1 {
		return errors.New("input.detents_per_item must be >= 1")
	}
	if c.Input.WindowSize < 1 {
		return errors.New("input.momentum_window must be >= 1")
	}
	if c.Input.Lookback < 1 || c.Input.Lookback > c.Input.WindowSize {
		return errors.New("input.momentum_lookback must be between 1 and input.momentum_window")
	}
	if c.Input.MomentumThreshold < 1 {
		return errors.New("input.momentum_threshold must be >= 1")
	}

	if c.Input.Mode == "rotary" {
		r := c.Input.Rotary
		if r.ClkPin == "" || r.DtPin == "" || r.SwPin == "" {
			return errors.New("input.rotary pins must not be empty")
		}
		if r.PollHz <= 0 || r.PollHz > 10000 {
			return errors.New("input.rotary.poll_hz must be between 1 and 10000")
		}
		if r.ButtonWindowMS <= 0 {
			return errors.New("input.rotary.button_window_ms must be > 0")
		}
	}
	if c.Input.Mode == "evdev" {
		e := c.Input.Evdev
		if len(e.Devices) == 0 {
			return errors.New("input.evdev.devices must not be empty")
		}
		if e.RelCode < 0 || e.RelCode > 0xffff {
			return errors.New("input.evdev.rel_code must be a 16-bit event code")
		}
		if e.KeyCode < 0 || e.KeyCode > 0xffff {
			return errors.New("input.evdev.key_code must be a 16-bit event code")
		}
	}
	if c.Input.Mode == "knobs" {
		k := c.Input.Knobs
		if k.SPIPort == "" {
			return errors.New("input.knobs.spi_port must not be empty")
		}
		if k.PollHz <= 0 || k.PollHz > 1000 {
			return errors.New("input.knobs.poll_hz must be between 1 and 1000")
		}
		if k.ButtonThreshold <= 0 || k.ButtonThreshold >= 1 {
			return errors.New("input.knobs.button_threshold must be in (0, 1)")
		}
	}

	if c.Nav.IdleTimeoutMS < 0 {
		return errors.New("nav.idle_timeout_ms must be >= 0")
	}

	if c.Menus == "" {
		return errors.New("menus path must not be empty")
	}

	switch c.Display.Mode {
	case "epaper", "log":
	default:
		return fmt.Errorf("display.mode must be epaper or log (got %q)", c.Display.Mode)
	}

	if c.Generator.URL != "" {
		g := c.Generator
		if g.OutputPath == "" {
			return errors.New("generator.output_path must not be empty when generator.url is set")
		}
		if g.Steps <= 0 || g.Width <= 0 || g.Height <= 0 {
			return errors.New("generator steps, width and height must be > 0")
		}
		if g.TimeoutMS <= 0 {
			return errors.New("generator.timeout_ms must be > 0")
		}
	}

	if c.IPC.SocketPath == "" {
		return errors.New("ipc.socket_path must not be empty")
	}
	if c.StateWS.Port < 0 || c.StateWS.Port > 65535 {
		return errors.New("state_ws.port must be a valid port or 0 to disable")
	}
	if c.Logging.Level == "" {
		return errors.New("logging.level must not be empty")
	}
	return nil
}

// ExpandPath expands a leading "~" in a path using the home directory.
func ExpandPath(p string) string {
	if p == "" || p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
