// Package config handles configuration loading, validation, and management for kave.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/xyproto/env/v2"

	"kave/internal/logging"
	"kave/internal/xkb"
)

// Version is the current configuration schema version.
const Version = 1

// DeviceAuto selects the first keyboard found at startup.
const DeviceAuto = "auto"

// Surface names accepted by display.surface.
const (
	SurfaceOverlay  = "overlay"
	SurfaceTerminal = "terminal"
	SurfaceNotify   = "notify"
	SurfaceLog      = "log"
)

// Config holds the complete program configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Input selects the keyboard device.
	Input InputConfig `toml:"input" json:"input" yaml:"input"`

	// Layout names the keymap used to decode scan codes.
	Layout LayoutConfig `toml:"layout" json:"layout" yaml:"layout"`

	// Display controls what is shown and for how long.
	Display DisplayConfig `toml:"display" json:"display" yaml:"display"`

	// Overlay styles the on-screen window.
	Overlay OverlayConfig `toml:"overlay" json:"overlay" yaml:"overlay"`

	// Capture tunes the device read loop.
	Capture CaptureConfig `toml:"capture" json:"capture" yaml:"capture"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
}

// InputConfig selects the evdev device.
type InputConfig struct {
	// Device is an evdev node path, or "auto".
	Device string `toml:"device" json:"device" yaml:"device"`
}

// LayoutConfig holds XKB rule names.
type LayoutConfig struct {
	Rules   string `toml:"rules" json:"rules" yaml:"rules"`
	Model   string `toml:"model" json:"model" yaml:"model"`
	Layout  string `toml:"layout" json:"layout" yaml:"layout"`
	Variant string `toml:"variant" json:"variant" yaml:"variant"`
	Options string `toml:"options" json:"options" yaml:"options"`
}

// DisplayConfig controls the presentation surface.
type DisplayConfig struct {
	// Surface is one of overlay, terminal, notify or log.
	Surface string `toml:"surface" json:"surface" yaml:"surface"`

	// FadeMs is how long a string stays visible after the last key.
	FadeMs int `toml:"fade_ms" json:"fade_ms" yaml:"fade_ms"`
}

// OverlayConfig styles the overlay window.
type OverlayConfig struct {
	FontSize    int    `toml:"font_size" json:"font_size" yaml:"font_size"`
	PaddingV    int    `toml:"padding_v" json:"padding_v" yaml:"padding_v"`
	PaddingH    int    `toml:"padding_h" json:"padding_h" yaml:"padding_h"`
	Radius      int    `toml:"radius" json:"radius" yaml:"radius"`
	Margin      int    `toml:"margin" json:"margin" yaml:"margin"`
	Background  string `toml:"background" json:"background" yaml:"background"`
	Foreground  string `toml:"foreground" json:"foreground" yaml:"foreground"`
	Position    string `toml:"position" json:"position" yaml:"position"`
	CrossfadeMs int    `toml:"crossfade_ms" json:"crossfade_ms" yaml:"crossfade_ms"`
	Width       int    `toml:"width" json:"width" yaml:"width"`
	Height      int    `toml:"height" json:"height" yaml:"height"`
}

// CaptureConfig tunes retrying of transient read errors.
type CaptureConfig struct {
	RetryAttempts   int `toml:"retry_attempts" json:"retry_attempts" yaml:"retry_attempts"`
	RetryDelayMs    int `toml:"retry_delay_ms" json:"retry_delay_ms" yaml:"retry_delay_ms"`
	RetryMaxDelayMs int `toml:"retry_max_delay_ms" json:"retry_max_delay_ms" yaml:"retry_max_delay_ms"`
}

// LoggingConfig mirrors logging.Config in file form.
type LoggingConfig struct {
	Level      string `toml:"level" json:"level" yaml:"level"`
	Format     string `toml:"format" json:"format" yaml:"format"`
	Output     string `toml:"output" json:"output" yaml:"output"`
	FilePath   string `toml:"file_path" json:"file_path" yaml:"file_path"`
	MaxSizeMB  int    `toml:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups" json:"max_backups" yaml:"max_backups"`
	Compress   bool   `toml:"compress" json:"compress" yaml:"compress"`

	// LogKeys writes key text to the log instead of redacting it.
	LogKeys bool `toml:"log_keys" json:"log_keys" yaml:"log_keys"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: Version,
		Input: InputConfig{
			Device: "/dev/input/event2",
		},
		Layout: LayoutConfig{
			Rules:  xkb.DefaultRuleNames.Rules,
			Model:  xkb.DefaultRuleNames.Model,
			Layout: xkb.DefaultRuleNames.Layout,
		},
		Display: DisplayConfig{
			Surface: SurfaceOverlay,
			FadeMs:  700,
		},
		Overlay: OverlayConfig{
			FontSize:    48,
			PaddingV:    8,
			PaddingH:    16,
			Radius:      24,
			Margin:      24,
			Background:  "#171717",
			Foreground:  "#ffffff",
			Position:    "bottom-center",
			CrossfadeMs: 300,
			Width:       640,
			Height:      120,
		},
		Capture: CaptureConfig{
			RetryAttempts:   8,
			RetryDelayMs:    50,
			RetryMaxDelayMs: 2000,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			Output:     "stderr",
			FilePath:   filepath.Join(PlatformStateDir(), "kave.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   true,
		},
	}
}

// ConfigPath returns the default configuration file path. KAVE_CONFIG
// overrides it.
func ConfigPath() string {
	if p := env.Str("KAVE_CONFIG"); p != "" {
		return p
	}
	if p := FindConfigFile(); p != "" {
		return p
	}
	return filepath.Join(PlatformConfigDir(), "config.toml")
}

// Load reads configuration from path, applies environment overrides and
// validates the result. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg, err := loadConfigFromFile(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	return ValidateConfig(c)
}

// ApplyEnvOverrides applies KAVE_* environment variables on top of the
// file values.
func (c *Config) ApplyEnvOverrides() {
	c.applyOverrides(func(name string) string { return env.Str(name) })
}

func (c *Config) applyOverrides(get func(string) string) {
	if v := get("KAVE_DEVICE"); v != "" {
		c.Input.Device = v
	}
	if v := get("KAVE_SURFACE"); v != "" {
		c.Display.Surface = v
	}
	if v := get("KAVE_FADE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.Display.FadeMs = ms
		}
	}
	if v := get("KAVE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := get("KAVE_LOG_PATH"); v != "" {
		c.Logging.FilePath = v
		if c.Logging.Output == "stderr" || c.Logging.Output == "stdout" {
			c.Logging.Output = "both"
		}
	}
}

// RestartRequired lists the settings that differ between c and next and
// only take effect on the next start. Only display.fade_ms is applied live.
func (c *Config) RestartRequired(next *Config) []string {
	var changed []string
	if c.Input != next.Input {
		changed = append(changed, "input")
	}
	if c.Layout != next.Layout {
		changed = append(changed, "layout")
	}
	if c.Display.Surface != next.Display.Surface {
		changed = append(changed, "display.surface")
	}
	if c.Overlay != next.Overlay {
		changed = append(changed, "overlay")
	}
	if c.Capture != next.Capture {
		changed = append(changed, "capture")
	}
	if c.Logging != next.Logging {
		changed = append(changed, "logging")
	}
	return changed
}

// FadeDelay returns the display fade delay.
func (c *Config) FadeDelay() time.Duration {
	return time.Duration(c.Display.FadeMs) * time.Millisecond
}

// RuleNames returns the layout section as XKB rule names.
func (c *Config) RuleNames() xkb.RuleNames {
	return xkb.RuleNames{
		Rules:   c.Layout.Rules,
		Model:   c.Layout.Model,
		Layout:  c.Layout.Layout,
		Variant: c.Layout.Variant,
		Options: c.Layout.Options,
	}
}

// AutoDevice reports whether the device should be detected at startup.
func (c *Config) AutoDevice() bool {
	return c.Input.Device == DeviceAuto || c.Input.Device == ""
}

// RetryBackoff returns the capture retry settings as durations.
func (c *Config) RetryBackoff() (attempts uint, delay, maxDelay time.Duration) {
	return uint(c.Capture.RetryAttempts),
		time.Duration(c.Capture.RetryDelayMs) * time.Millisecond,
		time.Duration(c.Capture.RetryMaxDelayMs) * time.Millisecond
}

// LoggerConfig converts the logging section into a logging.Config.
func (c *Config) LoggerConfig() (*logging.Config, error) {
	level, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(c.Logging.Format)
	if err != nil {
		return nil, err
	}

	lc := logging.DefaultConfig()
	lc.Level = level
	lc.Format = format
	lc.Output = c.Logging.Output
	lc.FilePath = c.Logging.FilePath
	lc.MaxSize = int64(c.Logging.MaxSizeMB)
	lc.MaxBackups = c.Logging.MaxBackups
	lc.Compress = c.Logging.Compress
	lc.LogKeys = c.Logging.LogKeys
	return lc, nil
}

// EnsureDirectories creates the directories the configuration writes to.
func (c *Config) EnsureDirectories() error {
	if c.Logging.Output != "file" && c.Logging.Output != "both" {
		return nil
	}
	dir := filepath.Dir(c.Logging.FilePath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	return nil
}

// Surfaces lists the accepted display.surface values.
func Surfaces() []string {
	return []string{SurfaceOverlay, SurfaceTerminal, SurfaceNotify, SurfaceLog}
}

func validSurface(s string) bool {
	return slices.Contains(Surfaces(), s)
}
