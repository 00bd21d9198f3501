package keystroke

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sys/unix"

	"kave/internal/logging"
	"kave/internal/notify"
)

// RetryPolicy bounds how long the capture loop keeps retrying transient
// read errors before giving up.
type RetryPolicy struct {
	// Attempts is the number of reads tried per event, including the first.
	Attempts uint
	// Delay is the initial backoff delay.
	Delay time.Duration
	// MaxDelay caps the exponential backoff.
	MaxDelay time.Duration
}

// DefaultRetryPolicy retries a failing read for a few seconds.
var DefaultRetryPolicy = RetryPolicy{
	Attempts: 8,
	Delay:    50 * time.Millisecond,
	MaxDelay: 2 * time.Second,
}

// IsTransient reports whether a read error is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, unix.EINTR) ||
		errors.Is(err, unix.EAGAIN) ||
		errors.Is(err, unix.EIO)
}

// Stats counts what the capture loop has seen.
type Stats struct {
	Events  uint64
	Emitted uint64
	Retries uint64
	Reopens uint64
}

// Capture runs the blocking read loop: it reads events from a Source,
// classifies them and offers display strings to a notify.Channel.
type Capture struct {
	classifier *Classifier
	out        *notify.Channel
	policy     RetryPolicy
	logger     *logging.Logger
	open       Opener

	mu     sync.Mutex
	source Source
	closed bool

	events  atomic.Uint64
	emitted atomic.Uint64
	retries atomic.Uint64
	reopens atomic.Uint64
}

// CaptureOption configures a Capture.
type CaptureOption func(*Capture)

// WithReopen lets the capture loop replace a failed source with one from
// open instead of stopping.
func WithReopen(open Opener) CaptureOption {
	return func(c *Capture) {
		c.open = open
	}
}

// NewCapture wires a source to a classifier and an output channel. A nil
// logger uses the default logger.
func NewCapture(source Source, classifier *Classifier, out *notify.Channel, policy RetryPolicy, logger *logging.Logger, opts ...CaptureOption) *Capture {
	if logger == nil {
		logger = logging.Default().WithComponent("capture")
	}
	if policy.Attempts == 0 {
		policy.Attempts = DefaultRetryPolicy.Attempts
	}
	c := &Capture{
		source:     source,
		classifier: classifier,
		out:        out,
		policy:     policy,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run reads until ctx ends or the device fails for good. It returns nil on
// cancellation and an error wrapping ErrDeviceGone otherwise. With
// WithReopen, a read error that retrying did not clear closes the source
// and opens a new one; the held modifiers and layout state start over.
// Run must be called from a goroutine dedicated to it: ReadKey blocks
// indefinitely.
func (c *Capture) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, c.close)
	defer stop()
	defer c.close()

	for {
		ev, err := c.read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if c.open == nil {
				return fmt.Errorf("%w: %w", ErrDeviceGone, err)
			}
			c.logger.Warn("keyboard device lost, reopening", "error", err)
			if rerr := c.reopen(ctx); rerr != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("%w: %w (reopen: %w)", ErrDeviceGone, err, rerr)
			}
			continue
		}
		c.handle(ev)
	}
}

func (c *Capture) current() Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

func (c *Capture) read(ctx context.Context) (RawKeyEvent, error) {
	src := c.current()
	var ev RawKeyEvent
	err := retry.Do(
		func() error {
			var err error
			ev, err = src.ReadKey()
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.policy.Attempts),
		retry.Delay(c.policy.Delay),
		retry.MaxDelay(c.policy.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil && IsTransient(err)
		}),
		retry.OnRetry(func(n uint, err error) {
			c.retries.Add(1)
			c.logger.Warn("transient read error, retrying", "attempt", n+1, "error", err)
		}),
	)
	return ev, err
}

func (c *Capture) handle(ev RawKeyEvent) {
	if !ev.Transition.Valid() {
		return
	}
	c.events.Add(1)

	text, ok := c.classifier.Handle(ev)
	if !ok {
		return
	}
	if c.out.TrySend(text) {
		c.emitted.Add(1)
		c.logger.Debug("emitted", "text", text)
	}
}

// reopen closes the failed source and retries the opener with the read
// backoff policy.
func (c *Capture) reopen(ctx context.Context) error {
	c.closeSource(c.current())

	var src Source
	err := retry.Do(
		func() error {
			s, err := c.open()
			if err != nil {
				return err
			}
			src = s
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.policy.Attempts),
		retry.Delay(c.policy.Delay),
		retry.MaxDelay(c.policy.MaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("reopen failed, retrying", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.closeSource(src)
		return os.ErrClosed
	}
	c.source = src
	c.mu.Unlock()

	c.classifier.Reset()
	c.reopens.Add(1)
	c.logger.Info("keyboard device reopened")
	return nil
}

// close closes the current source once. A source installed by a later
// reopen is closed by reopen itself.
func (c *Capture) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	src := c.source
	c.mu.Unlock()
	c.closeSource(src)
}

func (c *Capture) closeSource(src Source) {
	if err := src.Close(); err != nil && !isClosed(err) {
		c.logger.Warn("close device", "error", err)
	}
}

// Stats returns a snapshot of the loop counters.
func (c *Capture) Stats() Stats {
	return Stats{
		Events:  c.events.Load(),
		Emitted: c.emitted.Load(),
		Retries: c.retries.Load(),
		Reopens: c.reopens.Load(),
	}
}

func isClosed(err error) bool {
	return errors.Is(err, os.ErrClosed) || errors.Is(err, io.EOF) || errors.Is(err, syscall.EBADF)
}
