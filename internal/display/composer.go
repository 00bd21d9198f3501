// Package display turns display strings into show/hide calls on a
// presentation surface.
//
// The Composer owns a single fade timer. Every incoming string stops the
// pending timer before a new one is started, so a hide always means that
// nothing arrived during the last fade delay. All composer state is touched
// only from the goroutine running Run.
package display

import (
	"context"
	"strings"
	"time"

	"kave/internal/logging"
)

// DefaultFadeDelay is how long a string stays visible after the last
// notification.
const DefaultFadeDelay = 700 * time.Millisecond

// Surface renders display strings.
type Surface interface {
	// Show displays text, replacing whatever is shown.
	Show(text string)
	// Hide hides the surface and clears its text.
	Hide()
}

// Composer schedules show and hide calls on a Surface.
type Composer struct {
	surface Surface
	clock   Clock
	delay   time.Duration
	delays  chan time.Duration
	logger  *logging.Logger

	// fade is the only outstanding timer; nil when nothing is shown.
	fade Timer
}

// Option configures a Composer.
type Option func(*Composer)

// WithFadeDelay sets the time a string stays visible.
func WithFadeDelay(d time.Duration) Option {
	return func(c *Composer) {
		if d > 0 {
			c.delay = d
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(c *Composer) {
		c.clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Composer) {
		c.logger = l
	}
}

// NewComposer creates a composer for surface.
func NewComposer(surface Surface, opts ...Option) *Composer {
	c := &Composer{
		surface: surface,
		clock:   realClock{},
		delay:   DefaultFadeDelay,
		delays:  make(chan time.Duration, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.Default().WithComponent("display")
	}
	return c
}

// SetFadeDelay hands a new fade delay to the running loop. It applies to
// the next timer that is scheduled. Safe to call from any goroutine.
func (c *Composer) SetFadeDelay(d time.Duration) {
	if d <= 0 {
		return
	}
	for {
		select {
		case c.delays <- d:
			return
		default:
			// Replace a pending update that was not consumed yet.
			select {
			case <-c.delays:
			default:
			}
		}
	}
}

// Run consumes display strings until ctx ends or in is closed. The surface
// is hidden on the way out.
func (c *Composer) Run(ctx context.Context, in <-chan string) error {
	defer func() {
		c.cancelFade()
		c.surface.Hide()
	}()

	for {
		var fadeC <-chan time.Time
		if c.fade != nil {
			fadeC = c.fade.C()
		}

		select {
		case <-ctx.Done():
			return nil

		case text, ok := <-in:
			if !ok {
				return nil
			}
			c.present(text)

		case <-fadeC:
			c.fade = nil
			c.surface.Hide()
			c.logger.Debug("faded out")

		case d := <-c.delays:
			c.logger.Info("fade delay updated", "delay", d)
			c.delay = d
		}
	}
}

func (c *Composer) present(text string) {
	text = strings.ToUpper(text)
	c.surface.Show(text)
	c.cancelFade()
	c.fade = c.clock.NewTimer(c.delay)
	c.logger.Debug("shown", "text", text, "fade_in", c.delay)
}

func (c *Composer) cancelFade() {
	if c.fade != nil {
		c.fade.Stop()
		c.fade = nil
	}
}
