// Package notify hands display strings from the capture goroutine to the
// display goroutine.
//
// The channel holds at most one pending value. Sending never blocks: when
// the slot is taken the new value is dropped, so a burst of keystrokes
// coalesces instead of queueing behind a slow consumer.
package notify

import (
	"context"
	"sync/atomic"
)

// Channel is a single-slot, drop-on-full handoff.
type Channel struct {
	ch      chan string
	sent    atomic.Uint64
	dropped atomic.Uint64
}

// New creates an empty channel.
func New() *Channel {
	return &Channel{ch: make(chan string, 1)}
}

// TrySend offers a value without blocking. It reports whether the value
// was accepted.
func (c *Channel) TrySend(s string) bool {
	select {
	case c.ch <- s:
		c.sent.Add(1)
		return true
	default:
		// Slot full, skip
		c.dropped.Add(1)
		return false
	}
}

// Recv waits for the next value or for ctx to end.
func (c *Channel) Recv(ctx context.Context) (string, error) {
	select {
	case s := <-c.ch:
		return s, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// C exposes the receive side for select loops.
func (c *Channel) C() <-chan string {
	return c.ch
}

// Sent returns how many values were accepted.
func (c *Channel) Sent() uint64 {
	return c.sent.Load()
}

// Dropped returns how many values were discarded because the slot was full.
func (c *Channel) Dropped() uint64 {
	return c.dropped.Load()
}
