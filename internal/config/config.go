package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// CameraConfig describes where frames come from.
// Type selects a concrete source ("pattern", "tethered", "gocv").
type CameraConfig struct {
	Type           string `yaml:"type" env:"CAMERA_TYPE"`           // e.g., "pattern"
	Device         int    `yaml:"device" env:"CAMERA_DEVICE"`       // video device index (gocv)
	IdealWidth     int    `yaml:"ideal_width" env:"CAMERA_WIDTH"`   // preferred stream width
	IdealHeight    int    `yaml:"ideal_height" env:"CAMERA_HEIGHT"` // preferred stream height
	WatchDir       string `yaml:"watch_dir" env:"CAMERA_WATCH_DIR"` // tether download folder (tethered)
	FocusPin       int    `yaml:"focus_pin"`                        // GPIO pin for FOCUS line (tethered)
	ShutterPin     int    `yaml:"shutter_pin"`                      // GPIO pin for SHUTTER line (tethered)
	FocusDelayMs   int    `yaml:"focus_delay_ms"`                   // autofocus delay (ms)
	ShutterDelayMs int    `yaml:"shutter_delay_ms"`                 // shutter hold time (ms)
	FrameTimeoutMs int    `yaml:"frame_timeout_ms"`                 // max wait for a tethered frame (ms)
}

// PhotoConfig describes a single still.
type PhotoConfig struct {
	Width   int `yaml:"width"`
	Height  int `yaml:"height"`
	Quality int `yaml:"quality"` // JPEG quality 1-100
}

// StripConfig describes the composed strip.
type StripConfig struct {
	Padding      int    `yaml:"padding"`
	Spacing      int    `yaml:"spacing"`
	FooterHeight int    `yaml:"footer_height"`
	Title        string `yaml:"title" env:"STRIP_TITLE"`
	Attribution  string `yaml:"attribution" env:"STRIP_ATTRIBUTION"`
}

// TimingConfig holds the pacing of a capture run.
type TimingConfig struct {
	CountdownStepMs int `yaml:"countdown_step_ms" env:"COUNTDOWN_STEP_MS"` // one countdown tick
	FlashMs         int `yaml:"flash_ms"`                                  // flash feedback duration
	ShotPauseMs     int `yaml:"shot_pause_ms"`                             // pause between shots
	DevelopingMs    int `yaml:"developing_ms"`                             // cosmetic wait before composing
}

// GPIOConfig holds optional kiosk hardware. 0 = not wired.
type GPIOConfig struct {
	Mock       bool `yaml:"mock" env:"MOCK_GPIO"`
	ButtonPin  int  `yaml:"button_pin"`  // trigger button (pull-up, active LOW)
	FlashPin   int  `yaml:"flash_pin"`   // flash light output (active HIGH)
	DebounceMs int  `yaml:"debounce_ms"` // button debounce window
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int    `yaml:"debug_level" env:"DEBUG_LEVEL"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	WebAddr    string `yaml:"web_addr" env:"WEB_ADDR"`       // kiosk listen address
	OutDir     string `yaml:"out_dir" env:"OUT_DIR"`         // headless mode output folder
}

// Config aggregates all application configuration.
type Config struct {
	Camera   CameraConfig   `yaml:"camera"`
	Photo    PhotoConfig    `yaml:"photo"`
	Strip    StripConfig    `yaml:"strip"`
	Timing   TimingConfig   `yaml:"timing"`
	GPIO     GPIOConfig     `yaml:"gpio"`
	Defaults DefaultsConfig `yaml:"defaults"`
}

// ValidateConfigPath checks that path points to a .yaml file inside a
// directory named "configs".
func ValidateConfigPath(path string) error {
	if path == "" {
		return fmt.Errorf("config path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if filepath.Ext(abs) != ".yaml" {
		return fmt.Errorf("config file must have .yaml extension, got %q", filepath.Ext(abs))
	}
	if filepath.Base(filepath.Dir(abs)) != "configs" {
		return fmt.Errorf("config file must be inside a configs/ directory, got %q", path)
	}
	return nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads a YAML file, applies defaults and BOOTHGO_* environment
// overrides, and returns the validated configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Camera.Type == "" {
		c.Camera.Type = "pattern"
	}
	if c.Camera.IdealWidth <= 0 {
		c.Camera.IdealWidth = 1280
	}
	if c.Camera.IdealHeight <= 0 {
		c.Camera.IdealHeight = 720
	}
	if c.Camera.FocusDelayMs <= 0 {
		c.Camera.FocusDelayMs = 500 // 500ms for autofocus
	}
	if c.Camera.ShutterDelayMs <= 0 {
		c.Camera.ShutterDelayMs = 200 // 200ms shutter hold
	}
	if c.Camera.FrameTimeoutMs <= 0 {
		c.Camera.FrameTimeoutMs = 10000
	}

	if c.Photo.Width <= 0 {
		c.Photo.Width = 400
	}
	if c.Photo.Height <= 0 {
		c.Photo.Height = 415
	}
	if c.Photo.Quality <= 0 {
		c.Photo.Quality = 90
	}

	if c.Strip.Padding <= 0 {
		c.Strip.Padding = 30
	}
	if c.Strip.Spacing <= 0 {
		c.Strip.Spacing = 20
	}
	if c.Strip.FooterHeight <= 0 {
		c.Strip.FooterHeight = 130
	}
	if c.Strip.Title == "" {
		c.Strip.Title = "Merry Christmas"
	}
	if c.Strip.Attribution == "" {
		c.Strip.Attribution = "by michellelichen.com"
	}

	if c.Timing.CountdownStepMs <= 0 {
		c.Timing.CountdownStepMs = 1000
	}
	if c.Timing.FlashMs <= 0 {
		c.Timing.FlashMs = 300
	}
	if c.Timing.ShotPauseMs <= 0 {
		c.Timing.ShotPauseMs = 350
	}
	if c.Timing.DevelopingMs <= 0 {
		c.Timing.DevelopingMs = 2000
	}

	if c.GPIO.DebounceMs <= 0 {
		c.GPIO.DebounceMs = 50
	}
	if c.Defaults.WebAddr == "" {
		c.Defaults.WebAddr = "127.0.0.1:8080"
	}
	if c.Defaults.OutDir == "" {
		c.Defaults.OutDir = "."
	}
}

// Validate checks ranges after defaults have been applied.
func (c *Config) Validate() error {
	switch c.Camera.Type {
	case "pattern", "gocv":
	case "tethered":
		if c.Camera.WatchDir == "" {
			return fmt.Errorf("camera.watch_dir is required for tethered camera")
		}
		if c.Camera.ShutterPin <= 0 {
			return fmt.Errorf("camera.shutter_pin is required for tethered camera")
		}
	default:
		return fmt.Errorf("unsupported camera type: %s", c.Camera.Type)
	}
	if c.Photo.Quality > 100 {
		return fmt.Errorf("photo.quality must be between 1 and 100, got %d", c.Photo.Quality)
	}
	if c.Defaults.DebugLevel < 0 || c.Defaults.DebugLevel > 4 {
		return fmt.Errorf("debug_level must be between 0 and 4, got %d", c.Defaults.DebugLevel)
	}
	if c.GPIO.ButtonPin < 0 || c.GPIO.FlashPin < 0 {
		return fmt.Errorf("gpio pins must be >= 0")
	}
	return nil
}

// FocusDelay returns the autofocus delay duration.
func (c *Config) FocusDelay() time.Duration {
	return time.Duration(c.Camera.FocusDelayMs) * time.Millisecond
}

// ShutterDelay returns the shutter hold duration.
func (c *Config) ShutterDelay() time.Duration {
	return time.Duration(c.Camera.ShutterDelayMs) * time.Millisecond
}

// FrameTimeout returns how long a tethered shot may take to land on disk.
func (c *Config) FrameTimeout() time.Duration {
	return time.Duration(c.Camera.FrameTimeoutMs) * time.Millisecond
}

// CountdownStep returns the duration of one countdown tick.
func (c *Config) CountdownStep() time.Duration {
	return time.Duration(c.Timing.CountdownStepMs) * time.Millisecond
}

// FlashDuration returns how long the flash feedback stays on.
func (c *Config) FlashDuration() time.Duration {
	return time.Duration(c.Timing.FlashMs) * time.Millisecond
}

// ShotPause returns the pause between two shots.
func (c *Config) ShotPause() time.Duration {
	return time.Duration(c.Timing.ShotPauseMs) * time.Millisecond
}

// DevelopingDelay returns the cosmetic wait before the strip is composed.
func (c *Config) DevelopingDelay() time.Duration {
	return time.Duration(c.Timing.DevelopingMs) * time.Millisecond
}

// Debounce returns the trigger button debounce window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.GPIO.DebounceMs) * time.Millisecond
}
