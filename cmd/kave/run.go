package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gioui.org/app"
	"golang.org/x/sync/errgroup"

	"kave/cmd/kave/internal/overlay"
	"kave/internal/config"
	"kave/internal/display"
	"kave/internal/keystroke"
	"kave/internal/logging"
	"kave/internal/notify"
	"kave/internal/surface"
)

type runOptions struct {
	configPath string
	device     string
	surface    string
	fade       time.Duration
	logLevel   string
	watch      bool
	timestamps bool
}

func (o *runOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.configPath, "config", "", "Configuration file")
	fs.StringVar(&o.device, "device", "", `Keyboard device path or "auto"`)
	fs.StringVar(&o.surface, "surface", "", "Surface: overlay, terminal, notify, log")
	fs.DurationVar(&o.fade, "fade", 0, "Fade delay after the last key")
	fs.StringVar(&o.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	fs.BoolVar(&o.watch, "watch", false, "Reload the configuration file when it changes")
	fs.BoolVar(&o.timestamps, "timestamps", false, "Prefix log surface lines with the time")
}

// loadConfig loads the file and applies command-line overrides on top.
func (o *runOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	o.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// apply puts the command-line overrides on top of cfg. Reloads go through
// it too, so a flag keeps winning over the file.
func (o *runOptions) apply(cfg *config.Config) {
	if o.device != "" {
		cfg.Input.Device = o.device
	}
	if o.surface != "" {
		cfg.Display.Surface = o.surface
	}
	if o.fade > 0 {
		cfg.Display.FadeMs = int(o.fade / time.Millisecond)
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	// The terminal surface owns the screen; keep log lines off it.
	if cfg.Display.Surface == config.SurfaceTerminal && cfg.Logging.Output != "file" {
		cfg.Logging.Output = "file"
	}
}

func setupLogger(cfg *config.Config) (*logging.Logger, error) {
	lc, err := cfg.LoggerConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	logger, err := logging.New(lc)
	if err != nil {
		return nil, err
	}
	logging.SetDefault(logger)
	return logger, nil
}

func cmdRun(args []string) int {
	var opts runOptions
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	opts.register(fs)
	fs.Parse(args)

	cfg, err := opts.loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	logger, err := setupLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer logger.Close()

	layout, err := keystroke.NewLayoutState(cfg.RuleNames())
	if err != nil {
		logger.Error("keyboard layout unavailable", "error", err)
		return 1
	}

	path, err := resolveDevice(cfg)
	if err != nil {
		logger.Error("no keyboard device", "error", err)
		return 1
	}
	src, err := keystroke.OpenDevice(path)
	if err != nil {
		logger.Error("open keyboard device", "device", path, "error", err)
		return 1
	}
	logger.Info("capturing", "device", path, "layout", layout.Names().String(), "surface", cfg.Display.Surface)

	p := &pipeline{
		opts:   &opts,
		cfg:    cfg,
		logger: logger,
		source: src,
		reopen: keystroke.DeviceOpener(path),
		layout: layout,
	}
	if opts.watch {
		p.loader = config.NewLoader(opts.configPath)
	}
	return p.start()
}

func resolveDevice(cfg *config.Config) (string, error) {
	if cfg.AutoDevice() {
		return keystroke.FindKeyboard()
	}
	return cfg.Input.Device, nil
}

// pipeline wires a key source to a surface: capture, composer, surface UI
// loop and the optional config watcher run under one errgroup.
type pipeline struct {
	opts   *runOptions
	cfg    *config.Config
	logger *logging.Logger
	source keystroke.Source
	reopen keystroke.Opener
	layout *keystroke.LayoutState
	loader *config.Loader

	// out receives the log surface; nil means stdout.
	out io.Writer

	// feed, when set, drives the source and stops the pipeline on return.
	feed func(context.Context) error
}

// start builds the configured surface and runs until interrupted. The
// overlay needs the main goroutine for app.Main, so the pipeline moves to
// a goroutine in that case and exits the process itself.
func (p *pipeline) start() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if p.cfg.Display.Surface == config.SurfaceOverlay {
		ov, err := overlay.New(p.cfg.Overlay)
		if err != nil {
			p.logger.Error("create overlay", "error", err)
			return 1
		}
		go func() {
			code := p.exitCode(p.serve(ctx, ov, ov.Run))
			p.logger.Close()
			os.Exit(code)
		}()
		app.Main()
		return 0
	}

	surf, ui, closeSurface, err := p.openSurface()
	if err != nil {
		p.logger.Error("open surface", "surface", p.cfg.Display.Surface, "error", err)
		return 1
	}
	defer closeSurface()
	return p.exitCode(p.serve(ctx, surf, ui))
}

func (p *pipeline) openSurface() (display.Surface, func(context.Context) error, func(), error) {
	switch p.cfg.Display.Surface {
	case config.SurfaceTerminal:
		bg, _ := config.ParseColor(p.cfg.Overlay.Background)
		fg, _ := config.ParseColor(p.cfg.Overlay.Foreground)
		term, err := surface.NewTerminal(surface.TerminalStyle{
			Background: bg,
			Foreground: fg,
			PaddingH:   1,
			Bottom:     strings.HasPrefix(p.cfg.Overlay.Position, "bottom"),
		})
		if err != nil {
			return nil, nil, nil, err
		}
		return term, term.Run, func() {}, nil

	case config.SurfaceNotify:
		n, err := surface.NewNotifier("kave", p.logger.WithComponent("surface"))
		if err != nil {
			return nil, nil, nil, err
		}
		return n, nil, func() { n.Close() }, nil

	default:
		out := p.out
		if out == nil {
			out = os.Stdout
		}
		timestamps := p.opts != nil && p.opts.timestamps
		return surface.NewLog(out, timestamps), nil, func() {}, nil
	}
}

// serve runs the pipeline until ctx ends, the surface UI exits or the
// device fails.
func (p *pipeline) serve(ctx context.Context, surf display.Surface, ui func(context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	ch := notify.New()
	composer := display.NewComposer(surf,
		display.WithFadeDelay(p.cfg.FadeDelay()),
		display.WithLogger(p.logger.WithComponent("display")),
	)

	attempts, delay, maxDelay := p.cfg.RetryBackoff()
	var opts []keystroke.CaptureOption
	if p.reopen != nil {
		opts = append(opts, keystroke.WithReopen(p.reopen))
	}
	capture := keystroke.NewCapture(
		p.source,
		keystroke.NewClassifier(p.layout),
		ch,
		keystroke.RetryPolicy{Attempts: attempts, Delay: delay, MaxDelay: maxDelay},
		p.logger.WithComponent("capture"),
		opts...,
	)

	g.Go(func() error {
		return capture.Run(ctx)
	})
	g.Go(func() error {
		return composer.Run(ctx, ch.C())
	})
	if ui != nil {
		g.Go(func() error {
			defer cancel()
			return ui(ctx)
		})
	}
	if p.feed != nil {
		g.Go(func() error {
			defer cancel()
			return p.feed(ctx)
		})
	}
	if p.loader != nil {
		p.watchConfig(ctx, g, composer)
	}

	err := g.Wait()
	stats := capture.Stats()
	p.logger.Info("stopped",
		"events", stats.Events,
		"emitted", stats.Emitted,
		"dropped", ch.Dropped(),
		"retries", stats.Retries,
		"reopens", stats.Reopens,
	)
	return err
}

func (p *pipeline) watchConfig(ctx context.Context, g *errgroup.Group, composer *display.Composer) {
	log := p.logger.WithComponent("config")
	r := &reloader{opts: p.opts, current: p.cfg, log: log, setFade: composer.SetFadeDelay}
	p.loader.OnChange(r.apply)

	g.Go(func() error {
		if err := p.loader.Watch(ctx); err != nil {
			log.Warn("config watch disabled", "path", p.loader.Path(), "error", err)
		}
		return nil
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case err := <-p.loader.Errors():
				log.Warn("configuration not reloaded", "error", err)
			}
		}
	})
}

// reloader applies a reloaded configuration to a running pipeline. Only the
// fade delay changes live; other changed settings are logged.
type reloader struct {
	opts    *runOptions
	current *config.Config
	log     *logging.Logger
	setFade func(time.Duration)
}

func (r *reloader) apply(c *config.Config) {
	if r.opts != nil {
		r.opts.apply(c)
	}
	for _, name := range r.current.RestartRequired(c) {
		r.log.Warn("setting changed, restart to apply", "setting", name)
	}
	r.current = c
	r.setFade(c.FadeDelay())
	r.log.Info("configuration reloaded", "fade", c.FadeDelay())
}

func (p *pipeline) exitCode(err error) int {
	if err == nil || errors.Is(err, context.Canceled) {
		return 0
	}
	p.logger.Error("kave stopped", "error", err)
	return 1
}
