package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"kave/internal/config"
	"kave/internal/keystroke"
)

func cmdDevices(args []string) int {
	fs := flag.NewFlagSet("devices", flag.ExitOnError)
	all := fs.Bool("all", false, "Include devices that are not keyboards")
	fs.Parse(args)

	devices, err := keystroke.ListDevices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	printDevices(os.Stdout, devices, *all)
	return 0
}

func printDevices(w io.Writer, devices []keystroke.DeviceInfo, all bool) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tNAME\tKEYBOARD\tREADABLE\tLINKS")
	shown := 0
	for _, d := range devices {
		if !all && !d.Keyboard {
			continue
		}
		shown++
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			d.Path, d.Name, yesNo(d.Keyboard), yesNo(d.Readable), strings.Join(d.Links, ", "))
	}
	tw.Flush()

	if shown == 0 {
		fmt.Fprintln(w, "No keyboard devices found.")
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// checkResult is one line of the check report.
type checkResult struct {
	name string
	err  error
	info string
}

func cmdCheck(args []string) int {
	var opts runOptions
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	opts.register(fs)
	fs.Parse(args)

	results := runChecks(&opts)
	failed := printChecks(os.Stdout, results)
	if failed > 0 {
		return 1
	}
	return 0
}

func runChecks(opts *runOptions) []checkResult {
	var results []checkResult

	path := opts.configPath
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := opts.loadConfig()
	results = append(results, checkResult{name: "config", err: err, info: path})
	if err != nil {
		return results
	}

	layout, err := keystroke.NewLayoutState(cfg.RuleNames())
	info := cfg.RuleNames().String()
	if err == nil {
		info = layout.Names().String()
	}
	results = append(results, checkResult{name: "layout", err: err, info: info})

	device, err := resolveDevice(cfg)
	if err == nil {
		err = keystroke.CheckAccess(device)
	}
	if errors.Is(err, keystroke.ErrPermissionDenied) {
		err = fmt.Errorf("%w (add your user to the input group)", err)
	}
	results = append(results, checkResult{name: "device", err: err, info: device})

	results = append(results, checkResult{name: "surface", info: cfg.Display.Surface})
	results = append(results, checkResult{name: "fade", info: cfg.FadeDelay().String()})
	return results
}

func printChecks(w io.Writer, results []checkResult) (failed int) {
	for _, r := range results {
		status := "ok"
		if r.err != nil {
			status = "FAIL"
			failed++
		}
		fmt.Fprintf(w, "%-8s %-4s %s\n", r.name, status, r.info)
		if r.err != nil {
			fmt.Fprintf(w, "         %v\n", r.err)
		}
	}
	return failed
}
