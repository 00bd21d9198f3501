// Package keystroke reads raw key events from a keyboard device and turns
// them into display strings.
//
// Everything in this package runs on the capture goroutine: the layout
// state, the set of held modifiers and the classifier are owned by it and
// never shared. Only finished display strings leave, through a
// notify.Channel.
//
// Platform support:
//   - Linux: reads /dev/input/event* through evdev (requires the input
//     group or root)
//   - elsewhere: only the simulated source is available
package keystroke

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// Transition is the evdev key event value.
type Transition int32

const (
	Release Transition = 0
	Press   Transition = 1
	Repeat  Transition = 2
)

func (t Transition) String() string {
	switch t {
	case Release:
		return "release"
	case Press:
		return "press"
	case Repeat:
		return "repeat"
	default:
		return fmt.Sprintf("transition(%d)", int32(t))
	}
}

// Valid reports whether t is one of the three evdev key values.
func (t Transition) Valid() bool {
	return t >= Release && t <= Repeat
}

// RawKeyEvent is one key transition as reported by the device.
type RawKeyEvent struct {
	ScanCode   uint16
	Transition Transition
}

// Source yields raw key events. ReadKey blocks until the next key event
// arrives; non-key events are skipped by the implementation. Close unblocks
// a pending ReadKey.
type Source interface {
	ReadKey() (RawKeyEvent, error)
	Close() error
}

// Opener opens a fresh Source, for example after a USB keyboard was
// unplugged and plugged back in.
type Opener func() (Source, error)

// DeviceOpener returns an Opener for the evdev node at path.
func DeviceOpener(path string) Opener {
	return func() (Source, error) {
		return OpenDevice(path)
	}
}

var (
	// ErrNotAvailable is returned when keyboard devices cannot be used on
	// this platform.
	ErrNotAvailable = errors.New("keyboard devices not available on this platform")

	// ErrNoKeyboard is returned when device autodetection finds nothing.
	ErrNoKeyboard = errors.New("no keyboard device found")

	// ErrPermissionDenied is returned when the device exists but cannot be read.
	ErrPermissionDenied = errors.New("insufficient permissions to read keyboard device")

	// ErrDeviceGone is returned by the capture loop when the device fails
	// in a way that retrying cannot fix.
	ErrDeviceGone = errors.New("keyboard device failed")
)

// SimulatedSource is a Source fed by the program itself, used by tests and
// by the demo command.
type SimulatedSource struct {
	events chan simulated
	once   sync.Once
	done   chan struct{}
}

type simulated struct {
	ev  RawKeyEvent
	err error
}

// NewSimulated creates a source with room for buffer pending events.
func NewSimulated(buffer int) *SimulatedSource {
	return &SimulatedSource{
		events: make(chan simulated, buffer),
		done:   make(chan struct{}),
	}
}

// Feed queues events, blocking while the buffer is full.
func (s *SimulatedSource) Feed(events ...RawKeyEvent) {
	for _, ev := range events {
		select {
		case s.events <- simulated{ev: ev}:
		case <-s.done:
			return
		}
	}
}

// FeedError makes the next ReadKey return err.
func (s *SimulatedSource) FeedError(err error) {
	select {
	case s.events <- simulated{err: err}:
	case <-s.done:
	}
}

// Tap queues a press followed by a release.
func (s *SimulatedSource) Tap(scanCode uint16) {
	s.Feed(RawKeyEvent{scanCode, Press}, RawKeyEvent{scanCode, Release})
}

// ReadKey returns the next queued event.
func (s *SimulatedSource) ReadKey() (RawKeyEvent, error) {
	select {
	case item := <-s.events:
		return item.ev, item.err
	case <-s.done:
		return RawKeyEvent{}, os.ErrClosed
	}
}

// Pending returns the number of queued events.
func (s *SimulatedSource) Pending() int {
	return len(s.events)
}

// Close unblocks ReadKey; queued events are discarded.
func (s *SimulatedSource) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}
