package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/holoplot/go-evdev"
	"golang.org/x/sys/unix"

	"kave/internal/config"
	"kave/internal/keystroke"
	"kave/internal/logging"
	"kave/internal/surface"
)

func testLogger(t *testing.T) *logging.Logger {
	t.Helper()
	l, err := logging.New(&logging.Config{Level: logging.LevelDebug, Writer: io.Discard})
	if err != nil {
		t.Fatalf("logging.New failed: %v", err)
	}
	return l
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	opts := runOptions{
		configPath: filepath.Join(dir, "missing.toml"),
		device:     "/dev/input/event7",
		surface:    config.SurfaceLog,
		fade:       1500 * time.Millisecond,
		logLevel:   "debug",
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Input.Device != "/dev/input/event7" {
		t.Errorf("device = %q", cfg.Input.Device)
	}
	if cfg.Display.Surface != config.SurfaceLog {
		t.Errorf("surface = %q", cfg.Display.Surface)
	}
	if cfg.FadeDelay() != 1500*time.Millisecond {
		t.Errorf("fade = %v", cfg.FadeDelay())
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
}

func TestLoadConfigTerminalLogsToFile(t *testing.T) {
	opts := runOptions{
		configPath: filepath.Join(t.TempDir(), "missing.toml"),
		surface:    config.SurfaceTerminal,
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Logging.Output != "file" {
		t.Errorf("terminal surface should log to file, got %q", cfg.Logging.Output)
	}
}

func TestLoadConfigRejectsUnknownSurface(t *testing.T) {
	opts := runOptions{
		configPath: filepath.Join(t.TempDir(), "missing.toml"),
		surface:    "hologram",
	}

	_, err := opts.loadConfig()
	var verrs config.ValidationErrors
	if !errors.As(err, &verrs) || !verrs.Has("display.surface") {
		t.Fatalf("expected display.surface validation error, got %v", err)
	}
}

func TestPipelineShowsScriptOnLogSurface(t *testing.T) {
	cfg := config.DefaultConfig()
	layout, err := keystroke.NewLayoutState(cfg.RuleNames())
	if err != nil {
		t.Fatalf("NewLayoutState failed: %v", err)
	}

	script := []demoStep{
		chord(30*time.Millisecond, evdev.KEY_ESC),
		chord(30*time.Millisecond, evdev.KEY_A),
		chord(30*time.Millisecond, evdev.KEY_ENTER),
		chord(30*time.Millisecond, evdev.KEY_TAB),
	}

	var out bytes.Buffer
	src := keystroke.NewSimulated(8)
	p := &pipeline{
		cfg:    cfg,
		logger: testLogger(t),
		source: src,
		layout: layout,
		feed: func(ctx context.Context) error {
			return playScript(ctx, src, script, 1, 0)
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.serve(ctx, surface.NewLog(&out, false), nil); err != nil {
		t.Fatalf("serve failed: %v", err)
	}

	var lines []string
	for _, l := range strings.Split(out.String(), "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	want := []string{"⎋", "⏎", "⇥"}
	if strings.Join(lines, "|") != strings.Join(want, "|") {
		t.Errorf("shown %q, want %q", lines, want)
	}
}

func TestPipelineShowsAltHeldFromShift(t *testing.T) {
	cfg := config.DefaultConfig()
	layout, err := keystroke.NewLayoutState(cfg.RuleNames())
	if err != nil {
		t.Fatalf("NewLayoutState failed: %v", err)
	}

	src := keystroke.NewSimulated(8)
	key := func(code evdev.EvCode, t keystroke.Transition) keystroke.RawKeyEvent {
		return keystroke.RawKeyEvent{ScanCode: uint16(code), Transition: t}
	}
	steps := [][]keystroke.RawKeyEvent{
		{key(evdev.KEY_LEFTSHIFT, keystroke.Press)},
		{key(evdev.KEY_LEFTALT, keystroke.Press)},
		{key(evdev.KEY_LEFTSHIFT, keystroke.Release), key(evdev.KEY_A, keystroke.Press)},
	}

	var out bytes.Buffer
	p := &pipeline{
		cfg:    cfg,
		logger: testLogger(t),
		source: src,
		layout: layout,
		feed: func(ctx context.Context) error {
			for _, evs := range steps {
				src.Feed(evs...)
				if err := sleep(ctx, 50*time.Millisecond); err != nil {
					return nil
				}
			}
			return nil
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.serve(ctx, surface.NewLog(&out, false), nil); err != nil {
		t.Fatalf("serve failed: %v", err)
	}

	got := strings.Fields(strings.ReplaceAll(out.String(), " ", "_"))
	want := []string{"⇧", "⎇_⇧", "⎇_A"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("shown %q, want %q", got, want)
	}
}

func TestPipelineReopensLostDevice(t *testing.T) {
	cfg := config.DefaultConfig()
	layout, err := keystroke.NewLayoutState(cfg.RuleNames())
	if err != nil {
		t.Fatalf("NewLayoutState failed: %v", err)
	}

	first := keystroke.NewSimulated(4)
	second := keystroke.NewSimulated(4)
	var out bytes.Buffer
	p := &pipeline{
		cfg:    cfg,
		logger: testLogger(t),
		source: first,
		reopen: func() (keystroke.Source, error) { return second, nil },
		layout: layout,
		feed: func(ctx context.Context) error {
			first.FeedError(unix.ENODEV)
			second.Tap(uint16(evdev.KEY_ESC))
			return sleep(ctx, 300*time.Millisecond)
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.serve(ctx, surface.NewLog(&out, false), nil); err != nil {
		t.Fatalf("serve failed: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "⎋" {
		t.Errorf("shown %q, want %q", got, "⎋")
	}
}

func TestPipelineStopsWhenUIExits(t *testing.T) {
	cfg := config.DefaultConfig()
	layout, err := keystroke.NewLayoutState(cfg.RuleNames())
	if err != nil {
		t.Fatalf("NewLayoutState failed: %v", err)
	}

	p := &pipeline{
		cfg:    cfg,
		logger: testLogger(t),
		source: keystroke.NewSimulated(1),
		layout: layout,
	}
	ui := func(ctx context.Context) error { return nil }

	done := make(chan error, 1)
	go func() { done <- p.serve(context.Background(), surface.NewLog(io.Discard, false), ui) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after the UI loop returned")
	}
}

func TestPlayScriptStopsOnCancel(t *testing.T) {
	src := keystroke.NewSimulated(len(demoScript) * 8)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := playScript(ctx, src, demoScript, 1, time.Hour); err != nil {
		t.Errorf("playScript returned %v", err)
	}
	// Only the first chord is queued before the pause notices the cancel.
	if got := src.Pending(); got != 4 {
		t.Errorf("pending = %d, want 4", got)
	}
}

func TestReloadKeepsFlagOverrides(t *testing.T) {
	opts := &runOptions{
		configPath: filepath.Join(t.TempDir(), "missing.toml"),
		fade:       1500 * time.Millisecond,
	}
	start, err := opts.loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}

	var logs bytes.Buffer
	logger, err := logging.New(&logging.Config{Level: logging.LevelInfo, Writer: &logs})
	if err != nil {
		t.Fatalf("logging.New failed: %v", err)
	}
	var fade time.Duration
	r := &reloader{opts: opts, current: start, log: logger, setFade: func(d time.Duration) { fade = d }}

	next := config.DefaultConfig()
	next.Display.FadeMs = 200
	r.apply(next)
	if fade != 1500*time.Millisecond {
		t.Errorf("fade after reload = %v, want the -fade value", fade)
	}
	if strings.Contains(logs.String(), "restart to apply") {
		t.Errorf("unchanged settings reported:\n%s", logs.String())
	}

	opts.fade = 0
	changed := config.DefaultConfig()
	changed.Display.FadeMs = 200
	changed.Layout.Layout = "de"
	changed.Input.Device = "/dev/input/event9"
	r.apply(changed)
	if fade != 200*time.Millisecond {
		t.Errorf("fade after reload = %v, want 200ms", fade)
	}
	out := logs.String()
	for _, name := range []string{"setting=input", "setting=layout"} {
		if !strings.Contains(out, name) {
			t.Errorf("missing restart warning %q:\n%s", name, out)
		}
	}
	if strings.Contains(out, "setting=display.surface") {
		t.Errorf("surface reported as changed:\n%s", out)
	}
}

func TestLogSurfaceTimestamps(t *testing.T) {
	var out bytes.Buffer
	cfg := config.DefaultConfig()
	cfg.Display.Surface = config.SurfaceLog
	p := &pipeline{opts: &runOptions{timestamps: true}, cfg: cfg, logger: testLogger(t), out: &out}

	surf, ui, closeSurface, err := p.openSurface()
	if err != nil {
		t.Fatalf("openSurface failed: %v", err)
	}
	defer closeSurface()
	if ui != nil {
		t.Error("log surface has no UI loop")
	}

	surf.Show("⌃ C")
	if !regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{3} ⌃ C\n$`).MatchString(out.String()) {
		t.Errorf("line = %q, want a timestamp prefix", out.String())
	}
}

func TestExitCode(t *testing.T) {
	p := &pipeline{logger: testLogger(t)}

	if got := p.exitCode(nil); got != 0 {
		t.Errorf("nil error: %d", got)
	}
	if got := p.exitCode(context.Canceled); got != 0 {
		t.Errorf("canceled: %d", got)
	}
	if got := p.exitCode(keystroke.ErrDeviceGone); got != 1 {
		t.Errorf("device gone: %d", got)
	}
}

func TestPrintDevices(t *testing.T) {
	devices := []keystroke.DeviceInfo{
		{Path: "/dev/input/event2", Name: "AT Translated Set 2 keyboard", Keyboard: true, Readable: true,
			Links: []string{"/dev/input/by-path/platform-i8042-serio-0-event-kbd"}},
		{Path: "/dev/input/event5", Name: "Power Button", Keyboard: false},
	}

	var buf bytes.Buffer
	printDevices(&buf, devices, false)
	out := buf.String()
	if !strings.Contains(out, "AT Translated Set 2 keyboard") || !strings.Contains(out, "event-kbd") {
		t.Errorf("keyboard missing from output:\n%s", out)
	}
	if strings.Contains(out, "Power Button") {
		t.Errorf("non-keyboard listed without -all:\n%s", out)
	}

	buf.Reset()
	printDevices(&buf, devices, true)
	if !strings.Contains(buf.String(), "Power Button") {
		t.Errorf("-all should list every device:\n%s", buf.String())
	}

	buf.Reset()
	printDevices(&buf, nil, false)
	if !strings.Contains(buf.String(), "No keyboard devices found.") {
		t.Errorf("expected empty notice, got:\n%s", buf.String())
	}
}

func TestRunChecksReportsMissingDevice(t *testing.T) {
	dir := t.TempDir()
	opts := runOptions{
		configPath: filepath.Join(dir, "config.toml"),
		device:     filepath.Join(dir, "event99"),
		surface:    config.SurfaceLog,
	}

	results := runChecks(&opts)
	byName := map[string]checkResult{}
	for _, r := range results {
		byName[r.name] = r
	}

	if byName["config"].err != nil {
		t.Errorf("config check failed: %v", byName["config"].err)
	}
	if byName["layout"].err != nil || byName["layout"].info != "evdev/pc105/us//" {
		t.Errorf("layout check: %+v", byName["layout"])
	}
	if byName["device"].err == nil {
		t.Error("expected device check to fail for a missing node")
	}

	var buf bytes.Buffer
	if failed := printChecks(&buf, results); failed != 1 {
		t.Errorf("failed = %d, want 1\n%s", failed, buf.String())
	}
}
