package config

import (
	"fmt"
	"image/color"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"kave/internal/logging"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Has reports whether any error concerns field.
func (e ValidationErrors) Has(field string) bool {
	for _, err := range e {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Positions lists the accepted overlay.position values.
var Positions = []string{
	"bottom-center", "bottom-left", "bottom-right",
	"top-center", "top-left", "top-right",
	"center",
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// ParseColor parses #rrggbb or #rrggbbaa.
func ParseColor(s string) (color.NRGBA, error) {
	if !hexColor.MatchString(s) {
		return color.NRGBA{}, fmt.Errorf("invalid color %q (want #rrggbb or #rrggbbaa)", s)
	}
	v, _ := strconv.ParseUint(s[1:], 16, 32)
	if len(s) == 7 {
		v = v<<8 | 0xff
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// ValidateConfig performs comprehensive validation of the configuration.
func ValidateConfig(c *Config) error {
	var errs ValidationErrors

	if c.Version < 1 || c.Version > Version {
		errs = append(errs, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %d (current: %d)", c.Version, Version),
		})
	}

	errs = append(errs, validateInput(&c.Input)...)
	errs = append(errs, validateDisplay(&c.Display)...)
	errs = append(errs, validateOverlay(&c.Overlay)...)
	errs = append(errs, validateCapture(&c.Capture)...)
	errs = append(errs, validateLogging(&c.Logging)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateInput(in *InputConfig) ValidationErrors {
	var errs ValidationErrors
	if in.Device == "" || in.Device == DeviceAuto {
		return errs
	}
	if !filepath.IsAbs(in.Device) {
		errs = append(errs, ValidationError{
			Field:   "input.device",
			Message: fmt.Sprintf("device must be an absolute path or %q: %s", DeviceAuto, in.Device),
		})
	}
	return errs
}

func validateDisplay(d *DisplayConfig) ValidationErrors {
	var errs ValidationErrors

	if !validSurface(d.Surface) {
		errs = append(errs, ValidationError{
			Field:   "display.surface",
			Message: fmt.Sprintf("invalid surface: %s (valid: %s)", d.Surface, strings.Join(Surfaces(), ", ")),
		})
	}
	if d.FadeMs < 50 {
		errs = append(errs, ValidationError{
			Field:   "display.fade_ms",
			Message: "fade delay must be at least 50ms",
		})
	}
	if d.FadeMs > 60000 {
		errs = append(errs, ValidationError{
			Field:   "display.fade_ms",
			Message: "fade delay cannot exceed 60000ms (1 minute)",
		})
	}
	return errs
}

func validateOverlay(o *OverlayConfig) ValidationErrors {
	var errs ValidationErrors

	positive := []struct {
		field string
		value int
	}{
		{"overlay.font_size", o.FontSize},
		{"overlay.width", o.Width},
		{"overlay.height", o.Height},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, ValidationError{Field: p.field, Message: "must be positive"})
		}
	}

	nonNegative := []struct {
		field string
		value int
	}{
		{"overlay.padding_v", o.PaddingV},
		{"overlay.padding_h", o.PaddingH},
		{"overlay.radius", o.Radius},
		{"overlay.margin", o.Margin},
		{"overlay.crossfade_ms", o.CrossfadeMs},
	}
	for _, p := range nonNegative {
		if p.value < 0 {
			errs = append(errs, ValidationError{Field: p.field, Message: "cannot be negative"})
		}
	}

	if _, err := ParseColor(o.Background); err != nil {
		errs = append(errs, ValidationError{Field: "overlay.background", Message: err.Error()})
	}
	if _, err := ParseColor(o.Foreground); err != nil {
		errs = append(errs, ValidationError{Field: "overlay.foreground", Message: err.Error()})
	}
	if !slices.Contains(Positions, o.Position) {
		errs = append(errs, ValidationError{
			Field:   "overlay.position",
			Message: fmt.Sprintf("invalid position: %s (valid: %s)", o.Position, strings.Join(Positions, ", ")),
		})
	}
	return errs
}

func validateCapture(c *CaptureConfig) ValidationErrors {
	var errs ValidationErrors

	if c.RetryAttempts < 1 {
		errs = append(errs, ValidationError{
			Field:   "capture.retry_attempts",
			Message: "retry attempts must be at least 1",
		})
	}
	if c.RetryDelayMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "capture.retry_delay_ms",
			Message: "retry delay cannot be negative",
		})
	}
	if c.RetryMaxDelayMs < c.RetryDelayMs {
		errs = append(errs, ValidationError{
			Field:   "capture.retry_max_delay_ms",
			Message: "max retry delay cannot be less than retry delay",
		})
	}
	return errs
}

func validateLogging(l *LoggingConfig) ValidationErrors {
	var errs ValidationErrors

	if _, err := logging.ParseLevel(l.Level); err != nil {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", l.Level),
		})
	}
	if _, err := logging.ParseFormat(l.Format); err != nil {
		errs = append(errs, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: text, json)", l.Format),
		})
	}

	switch l.Output {
	case "stdout", "stderr", "file", "both":
	default:
		errs = append(errs, ValidationError{
			Field:   "logging.output",
			Message: fmt.Sprintf("invalid log output: %s (valid: stdout, stderr, file, both)", l.Output),
		})
	}

	if (l.Output == "file" || l.Output == "both") && l.FilePath == "" {
		errs = append(errs, ValidationError{
			Field:   "logging.file_path",
			Message: "file path is required when logging to file",
		})
	}
	if l.MaxSizeMB < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Message: "max size cannot be negative",
		})
	}
	if l.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Message: "max backups cannot be negative",
		})
	}
	return errs
}
