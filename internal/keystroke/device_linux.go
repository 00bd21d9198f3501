//go:build linux

package keystroke

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	evdev "github.com/holoplot/go-evdev"
	"golang.org/x/sys/unix"
)

// DefaultDevicePath is used when no device is configured.
const DefaultDevicePath = "/dev/input/event2"

const byIDDir = "/dev/input/by-id"

// eventDevice is the part of *evdev.InputDevice the source reads through.
type eventDevice interface {
	ReadOne() (*evdev.InputEvent, error)
	NonBlock() error
	Close() error
}

// evdevSource reads key events from one /dev/input/event* node.
type evdevSource struct {
	dev  eventDevice
	path string
}

// OpenDevice opens the evdev node at path read-only.
func OpenDevice(path string) (Source, error) {
	if err := CheckAccess(path); err != nil {
		return nil, err
	}
	dev, err := evdev.OpenWithFlags(path, os.O_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return newEvdevSource(dev, path)
}

// newEvdevSource switches dev to non-blocking mode. Opening calls Fd(),
// which leaves the descriptor blocking; a blocking ReadOne would outlive
// Close until the next key event arrives.
func newEvdevSource(dev eventDevice, path string) (*evdevSource, error) {
	if err := dev.NonBlock(); err != nil {
		dev.Close()
		return nil, fmt.Errorf("set %s non-blocking: %w", path, err)
	}
	return &evdevSource{dev: dev, path: path}, nil
}

// ReadKey blocks until the next EV_KEY event. Other event types and
// values outside release/press/repeat are skipped.
func (s *evdevSource) ReadKey() (RawKeyEvent, error) {
	for {
		ev, err := s.dev.ReadOne()
		if err != nil {
			return RawKeyEvent{}, err
		}
		if ev.Type != evdev.EV_KEY {
			continue
		}
		t := Transition(ev.Value)
		if !t.Valid() {
			continue
		}
		return RawKeyEvent{ScanCode: uint16(ev.Code), Transition: t}, nil
	}
}

func (s *evdevSource) Close() error {
	return s.dev.Close()
}

// CheckAccess reports whether path exists and is readable by this process.
func CheckAccess(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		if errors.Is(err, unix.EACCES) || errors.Is(err, unix.EPERM) {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return fmt.Errorf("access %s: %w", path, err)
	}
	return nil
}

// DeviceInfo describes an input device that can produce key events.
type DeviceInfo struct {
	Path     string
	Name     string
	Keyboard bool     // has EV_KEY and EV_REP
	Links    []string // by-id symlinks pointing at Path
	Readable bool
}

// ListDevices enumerates the event nodes that report EV_KEY. Nodes that
// cannot be opened are still listed with Readable false.
func ListDevices() ([]DeviceInfo, error) {
	paths, err := evdev.ListDevicePaths()
	if err != nil {
		return nil, fmt.Errorf("list input devices: %w", err)
	}
	links := byIDLinks()

	var out []DeviceInfo
	for _, p := range paths {
		info := DeviceInfo{Path: p.Path, Name: p.Name, Links: links[p.Path]}

		dev, err := evdev.OpenWithFlags(p.Path, os.O_RDONLY)
		if err != nil {
			out = append(out, info)
			continue
		}
		types := dev.CapableTypes()
		if !slices.Contains(types, evdev.EV_KEY) {
			dev.Close()
			continue
		}
		info.Readable = true
		info.Keyboard = slices.Contains(types, evdev.EV_REP)
		if name, err := dev.Name(); err == nil && name != "" {
			info.Name = name
		}
		dev.Close()
		out = append(out, info)
	}
	return out, nil
}

// FindKeyboard returns the path of the first readable keyboard. Devices
// linked as *-event-kbd under /dev/input/by-id are preferred.
func FindKeyboard() (string, error) {
	devices, err := ListDevices()
	if err != nil {
		return "", err
	}

	var fallback string
	for _, d := range devices {
		if !d.Readable || !d.Keyboard {
			continue
		}
		for _, l := range d.Links {
			if strings.HasSuffix(l, "-kbd") {
				return d.Path, nil
			}
		}
		if fallback == "" && strings.Contains(strings.ToLower(d.Name), "keyboard") {
			fallback = d.Path
		}
	}
	if fallback != "" {
		return fallback, nil
	}
	return "", ErrNoKeyboard
}

// byIDLinks maps resolved event nodes to their by-id symlink names.
func byIDLinks() map[string][]string {
	out := make(map[string][]string)
	entries, err := os.ReadDir(byIDDir)
	if err != nil {
		return out
	}
	for _, e := range entries {
		if e.Type()&fs.ModeSymlink == 0 {
			continue
		}
		link := filepath.Join(byIDDir, e.Name())
		target, err := filepath.EvalSymlinks(link)
		if err != nil {
			continue
		}
		out[target] = append(out[target], e.Name())
	}
	return out
}
