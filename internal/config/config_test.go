package config

import (
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"kave/internal/logging"
	"kave/internal/xkb"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

// loaded returns the configuration the loader last accepted.
func loaded(l *Loader) *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.config
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg == nil {
		t.Fatal("DefaultConfig returned nil")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
	if cfg.FadeDelay() != 700*time.Millisecond {
		t.Errorf("expected fade delay 700ms, got %v", cfg.FadeDelay())
	}
	if cfg.Input.Device != "/dev/input/event2" {
		t.Errorf("expected default device /dev/input/event2, got %s", cfg.Input.Device)
	}
	if cfg.RuleNames() != xkb.DefaultRuleNames {
		t.Errorf("expected rule names %v, got %v", xkb.DefaultRuleNames, cfg.RuleNames())
	}
	if cfg.Display.Surface != SurfaceOverlay {
		t.Errorf("expected overlay surface, got %s", cfg.Display.Surface)
	}
	if cfg.Overlay.Background != "#171717" || cfg.Overlay.FontSize != 48 || cfg.Overlay.CrossfadeMs != 300 {
		t.Errorf("unexpected overlay defaults: %+v", cfg.Overlay)
	}
	if !strings.HasSuffix(cfg.Logging.FilePath, filepath.Join("kave", "kave.log")) {
		t.Errorf("log path should end in kave/kave.log: %s", cfg.Logging.FilePath)
	}
}

func TestConfigPathFindsExistingFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("KAVE_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	writeFile(t, filepath.Join(dir, "config.yaml"), "display:\n  fade_ms: 900\n")
	if got := ConfigPath(); got != "config.yaml" {
		t.Fatalf("ConfigPath = %q, want config.yaml", got)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Display.FadeMs != 900 {
		t.Errorf("fade_ms = %d, want 900 from the found file", cfg.Display.FadeMs)
	}
}

func TestFindConfigFilePrefersWorkingDirectory(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("platform config dir ignores XDG_CONFIG_HOME")
	}
	dir := t.TempDir()
	t.Chdir(dir)
	xdg := filepath.Join(dir, "xdg")
	t.Setenv("XDG_CONFIG_HOME", xdg)

	if got := FindConfigFile(); got != "" {
		t.Fatalf("FindConfigFile = %q, want none", got)
	}

	if err := os.MkdirAll(PlatformConfigDir(), 0o755); err != nil {
		t.Fatal(err)
	}
	platform := filepath.Join(PlatformConfigDir(), "config.json")
	writeFile(t, platform, "{}")
	if got := FindConfigFile(); got != platform {
		t.Errorf("FindConfigFile = %q, want %q", got, platform)
	}

	writeFile(t, filepath.Join(dir, "config.toml"), "")
	if got := FindConfigFile(); got != "config.toml" {
		t.Errorf("FindConfigFile = %q, want the working-directory file", got)
	}
}

func TestConfigPath(t *testing.T) {
	t.Chdir(t.TempDir())
	path := ConfigPath()
	if path == "" {
		t.Error("ConfigPath returned empty string")
	}
	if filepath.Ext(path) != ".toml" && os.Getenv("KAVE_CONFIG") == "" {
		t.Errorf("expected path ending with config.toml, got %s", path)
	}
}

func TestPlatformDirsHonourXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG paths are used on linux only")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))

	if got := PlatformConfigDir(); got != filepath.Join(dir, "kave") {
		t.Errorf("expected %s, got %s", filepath.Join(dir, "kave"), got)
	}
	if got := PlatformStateDir(); got != filepath.Join(dir, "state", "kave") {
		t.Errorf("expected %s, got %s", filepath.Join(dir, "state", "kave"), got)
	}
}

func TestLoadNonexistent(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Display.FadeMs != 700 {
		t.Errorf("expected fade 700, got %d", cfg.Display.FadeMs)
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, `
version = 1

[input]
device = "auto"

[display]
surface = "terminal"
fade_ms = 1200

[overlay]
background = "#20202080"
position = "top-center"

[logging]
level = "debug"
format = "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !cfg.AutoDevice() {
		t.Error("expected device autodetection")
	}
	if cfg.Display.Surface != SurfaceTerminal {
		t.Errorf("expected terminal surface, got %s", cfg.Display.Surface)
	}
	if cfg.FadeDelay() != 1200*time.Millisecond {
		t.Errorf("expected 1.2s fade, got %v", cfg.FadeDelay())
	}
	if cfg.Overlay.Position != "top-center" {
		t.Errorf("expected top-center, got %s", cfg.Overlay.Position)
	}
	// Untouched fields keep their defaults.
	if cfg.Overlay.FontSize != 48 {
		t.Errorf("expected default font size, got %d", cfg.Overlay.FontSize)
	}
	if cfg.Layout.Layout != "us" {
		t.Errorf("expected default layout us, got %s", cfg.Layout.Layout)
	}
}

func TestLoadJSONAndYAML(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "config.json")
	writeFile(t, jsonPath, `{"display": {"fade_ms": 900, "surface": "log"}}`)

	yamlPath := filepath.Join(dir, "config.yaml")
	writeFile(t, yamlPath, "display:\n  fade_ms: 400\n  surface: notify\n")

	tests := []struct {
		path    string
		fade    int
		surface string
	}{
		{jsonPath, 900, SurfaceLog},
		{yamlPath, 400, SurfaceNotify},
	}
	for _, tt := range tests {
		t.Run(filepath.Ext(tt.path), func(t *testing.T) {
			cfg, err := Load(tt.path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.Display.FadeMs != tt.fade {
				t.Errorf("expected fade %d, got %d", tt.fade, cfg.Display.FadeMs)
			}
			if cfg.Display.Surface != tt.surface {
				t.Errorf("expected surface %s, got %s", tt.surface, cfg.Display.Surface)
			}
		})
	}
}

func TestLoadAutoDetectsFormat(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		fade    int
	}{
		{"toml", "[display]\nfade_ms = 800\n", 800},
		{"json", `{"display": {"fade_ms": 850}}`, 850},
		{"yaml", "display:\n  fade_ms: 950\n", 950},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "kaverc-"+tt.name)
			writeFile(t, path, tt.content)

			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if cfg.Display.FadeMs != tt.fade {
				t.Errorf("expected fade %d, got %d", tt.fade, cfg.Display.FadeMs)
			}
		})
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "this is not valid toml {{{\n")

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid TOML")
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[display]\nsurface = \"hologram\"\nfade_ms = 10\n")

	_, err := Load(path)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if !verrs.Has("display.surface") || !verrs.Has("display.fade_ms") {
		t.Errorf("expected surface and fade errors, got %v", verrs)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"version", func(c *Config) { c.Version = 9 }, "version"},
		{"relative device", func(c *Config) { c.Input.Device = "event2" }, "input.device"},
		{"fade too long", func(c *Config) { c.Display.FadeMs = 120000 }, "display.fade_ms"},
		{"font size", func(c *Config) { c.Overlay.FontSize = 0 }, "overlay.font_size"},
		{"negative margin", func(c *Config) { c.Overlay.Margin = -1 }, "overlay.margin"},
		{"background", func(c *Config) { c.Overlay.Background = "black" }, "overlay.background"},
		{"position", func(c *Config) { c.Overlay.Position = "middle" }, "overlay.position"},
		{"retry attempts", func(c *Config) { c.Capture.RetryAttempts = 0 }, "capture.retry_attempts"},
		{"retry max delay", func(c *Config) { c.Capture.RetryMaxDelayMs = 1 }, "capture.retry_max_delay_ms"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"log output", func(c *Config) { c.Logging.Output = "syslog" }, "logging.output"},
		{"log file", func(c *Config) { c.Logging.Output = "file"; c.Logging.FilePath = "" }, "logging.file_path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if !verrs.Has(tt.field) {
				t.Errorf("expected error on %s, got %v", tt.field, verrs)
			}
		})
	}
}

func TestValidateAcceptsAutoDevice(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Input.Device = DeviceAuto
	if err := cfg.Validate(); err != nil {
		t.Errorf("auto device should be valid: %v", err)
	}
}

func TestApplyOverrides(t *testing.T) {
	vars := map[string]string{
		"KAVE_DEVICE":    "/dev/input/event7",
		"KAVE_SURFACE":   "terminal",
		"KAVE_FADE_MS":   "1500",
		"KAVE_LOG_LEVEL": "debug",
		"KAVE_LOG_PATH":  "/tmp/kave-test.log",
	}
	cfg := DefaultConfig()
	cfg.applyOverrides(func(name string) string { return vars[name] })

	if cfg.Input.Device != "/dev/input/event7" {
		t.Errorf("device override not applied: %s", cfg.Input.Device)
	}
	if cfg.Display.Surface != SurfaceTerminal {
		t.Errorf("surface override not applied: %s", cfg.Display.Surface)
	}
	if cfg.Display.FadeMs != 1500 {
		t.Errorf("fade override not applied: %d", cfg.Display.FadeMs)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level override not applied: %s", cfg.Logging.Level)
	}
	if cfg.Logging.FilePath != "/tmp/kave-test.log" || cfg.Logging.Output != "both" {
		t.Errorf("log path override not applied: %s (%s)", cfg.Logging.FilePath, cfg.Logging.Output)
	}
}

func TestApplyOverridesIgnoresBadNumbers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.applyOverrides(func(name string) string {
		if name == "KAVE_FADE_MS" {
			return "soon"
		}
		return ""
	})
	if cfg.Display.FadeMs != 700 {
		t.Errorf("expected fade to stay 700, got %d", cfg.Display.FadeMs)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
		ok   bool
	}{
		{"#171717", color.NRGBA{0x17, 0x17, 0x17, 0xff}, true},
		{"#FFffFF80", color.NRGBA{0xff, 0xff, 0xff, 0x80}, true},
		{"171717", color.NRGBA{}, false},
		{"#1717", color.NRGBA{}, false},
		{"#gggggg", color.NRGBA{}, false},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseColor(%q) error = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseColor(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoggerConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Level = "warn"
	cfg.Logging.Format = "json"
	cfg.Logging.LogKeys = true

	lc, err := cfg.LoggerConfig()
	if err != nil {
		t.Fatalf("LoggerConfig failed: %v", err)
	}
	if lc.Level != logging.LevelWarn {
		t.Errorf("expected warn level, got %v", lc.Level)
	}
	if lc.Format != logging.FormatJSON {
		t.Errorf("expected JSON format")
	}
	if !lc.LogKeys {
		t.Error("expected key logging enabled")
	}
	if lc.MaxSize != 10 || lc.MaxBackups != 3 {
		t.Errorf("unexpected rotation settings: %d/%d", lc.MaxSize, lc.MaxBackups)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultConfig()
	cfg.Display.FadeMs = 1000
	cfg.Overlay.Position = "top-right"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Display.FadeMs != 1000 || loaded.Overlay.Position != "top-right" {
		t.Errorf("round trip lost values: %+v %+v", loaded.Display, loaded.Overlay)
	}
}

func TestEnsureDirectories(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Output = "file"
	cfg.Logging.FilePath = filepath.Join(t.TempDir(), "a", "b", "kave.log")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(cfg.Logging.FilePath)); err != nil {
		t.Errorf("log directory not created: %v", err)
	}
}

func TestLoaderWatchReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, path, "[display]\nfade_ms = 700\n")

	loader := NewLoader(path)
	if _, err := loader.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	changed := make(chan *Config, 1)
	loader.OnChange(func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loader.Watch(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// Give the watcher time to register the directory.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(150 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case c := <-changed:
			if c.Display.FadeMs != 250 {
				t.Fatalf("expected reloaded fade 250, got %d", c.Display.FadeMs)
			}
			if loaded(loader).Display.FadeMs != 250 {
				t.Errorf("loader did not store reloaded config")
			}
			return
		case <-tick.C:
			writeFile(t, path, "[display]\nfade_ms = 250\n")
		case <-deadline:
			t.Fatal("config change was not observed")
		}
	}
}

func TestLoaderReportsInvalidEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	loader := NewLoader(path)
	if _, err := loader.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	writeFile(t, path, "[display]\nsurface = \"hologram\"\n")
	loader.reload()

	select {
	case err := <-loader.Errors():
		if !strings.Contains(err.Error(), "display.surface") {
			t.Errorf("unexpected error: %v", err)
		}
	default:
		t.Fatal("expected a reload error")
	}
	if loaded(loader).Display.Surface != SurfaceOverlay {
		t.Error("invalid edit replaced the active config")
	}
}

func TestRestartRequired(t *testing.T) {
	base := DefaultConfig()

	same := DefaultConfig()
	same.Display.FadeMs = 1200
	if got := base.RestartRequired(same); len(got) != 0 {
		t.Errorf("fade-only change reported %v", got)
	}

	next := DefaultConfig()
	next.Display.Surface = SurfaceLog
	next.Overlay.FontSize = 64
	next.Logging.Level = "debug"
	want := []string{"display.surface", "overlay", "logging"}
	got := base.RestartRequired(next)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("RestartRequired = %v, want %v", got, want)
	}
}
