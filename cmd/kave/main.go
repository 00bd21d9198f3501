// kave - on-screen key-press indicator
//
// kave reads a keyboard device and briefly shows the modifiers and keys
// being pressed, for screencasts and live demos:
//
//	kave [run]     Show key presses (default)
//	kave devices   List input devices that can produce key events
//	kave check     Report configuration, layout and device access
//	kave demo      Play a scripted key sequence without a device
package main

import (
	"fmt"
	"os"
	"strings"
)

func main() {
	cmd := "run"
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	var code int
	switch cmd {
	case "run":
		code = cmdRun(args)
	case "devices":
		code = cmdDevices(args)
	case "check":
		code = cmdCheck(args)
	case "demo":
		code = cmdDemo(args)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		code = 1
	}
	os.Exit(code)
}

func usage() {
	fmt.Println(`kave - on-screen key-press indicator

USAGE:
    kave [command] [options]

COMMANDS:
    run                 Show modifier and key presses (default)
    devices             List input devices that report key events
    check               Check configuration, keyboard layout and device access
    demo                Play a scripted key sequence on a surface
    help                Show this help message

RUN OPTIONS:
    -config <path>      Configuration file (default: $XDG_CONFIG_HOME/kave/config.toml)
    -device <path>      Keyboard device, or "auto" (default: /dev/input/event2)
    -surface <name>     overlay, terminal, notify or log (default: overlay)
    -fade <duration>    Time a string stays visible after the last key (default: 700ms)
    -log-level <level>  debug, info, warn or error
    -watch              Reload the configuration file when it changes

ENVIRONMENT:
    KAVE_CONFIG, KAVE_DEVICE, KAVE_SURFACE, KAVE_FADE_MS,
    KAVE_LOG_LEVEL, KAVE_LOG_PATH

WHAT IS SHOWN:
    Modifiers (Ctrl, Alt, Shift, Super, Caps Lock) and the editing keys
    Escape, Tab, BackSpace, Return and Delete are shown when pressed.
    Other keys are shown only while a modifier is held, e.g. "⌃ C".
    Plain typing is never displayed.

PERMISSIONS:
    Reading /dev/input/event* requires membership in the "input" group
    (or root). Run "kave devices" to see which devices are readable.`)
}
