package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/holoplot/go-evdev"

	"kave/internal/config"
	"kave/internal/keystroke"
)

// demoStep is one chord: keys are pressed in order and released in
// reverse, then the script pauses.
type demoStep struct {
	keys  []evdev.EvCode
	pause time.Duration
}

func chord(pause time.Duration, keys ...evdev.EvCode) demoStep {
	return demoStep{keys: keys, pause: pause}
}

// demoScript covers each kind of string the indicator produces. The plain
// typing in the middle is expected to show nothing.
var demoScript = []demoStep{
	chord(400*time.Millisecond, evdev.KEY_LEFTCTRL, evdev.KEY_C),
	chord(400*time.Millisecond, evdev.KEY_LEFTCTRL, evdev.KEY_V),
	chord(900*time.Millisecond, evdev.KEY_LEFTSHIFT, evdev.KEY_A),
	chord(150*time.Millisecond, evdev.KEY_H),
	chord(150*time.Millisecond, evdev.KEY_I),
	chord(900*time.Millisecond, evdev.KEY_ENTER),
	chord(600*time.Millisecond, evdev.KEY_LEFTALT, evdev.KEY_TAB),
	chord(900*time.Millisecond, evdev.KEY_LEFTCTRL, evdev.KEY_LEFTSHIFT, evdev.KEY_LEFTMETA, evdev.KEY_T),
	chord(600*time.Millisecond, evdev.KEY_CAPSLOCK),
	chord(600*time.Millisecond, evdev.KEY_CAPSLOCK),
	chord(600*time.Millisecond, evdev.KEY_ESC),
	chord(600*time.Millisecond, evdev.KEY_BACKSPACE),
	chord(900*time.Millisecond, evdev.KEY_LEFTCTRL, evdev.KEY_LEFTALT, evdev.KEY_DELETE),
}

func cmdDemo(args []string) int {
	var opts runOptions
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	opts.register(fs)
	speed := fs.Float64("speed", 1, "Playback speed multiplier")
	fs.Parse(args)

	if opts.surface == "" {
		opts.surface = config.SurfaceLog
	}
	if *speed <= 0 {
		fmt.Fprintln(os.Stderr, "Error: -speed must be positive")
		return 1
	}

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

	src := keystroke.NewSimulated(16)
	tail := cfg.FadeDelay() + time.Duration(cfg.Overlay.CrossfadeMs)*time.Millisecond
	p := &pipeline{
		opts:   &opts,
		cfg:    cfg,
		logger: logger,
		source: src,
		layout: layout,
		feed: func(ctx context.Context) error {
			return playScript(ctx, src, demoScript, *speed, tail)
		},
	}
	return p.start()
}

// playScript feeds script into src, then waits tail so the last string can
// fade out.
func playScript(ctx context.Context, src *keystroke.SimulatedSource, script []demoStep, speed float64, tail time.Duration) error {
	scale := func(d time.Duration) time.Duration {
		return time.Duration(float64(d) / speed)
	}
	for _, step := range script {
		for _, k := range step.keys {
			src.Feed(keystroke.RawKeyEvent{ScanCode: uint16(k), Transition: keystroke.Press})
		}
		for i := len(step.keys) - 1; i >= 0; i-- {
			src.Feed(keystroke.RawKeyEvent{ScanCode: uint16(step.keys[i]), Transition: keystroke.Release})
		}
		if err := sleep(ctx, scale(step.pause)); err != nil {
			return nil
		}
	}
	sleep(ctx, tail)
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
