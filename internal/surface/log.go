package surface

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Log writes each shown string as a line. It is the surface for headless
// runs and for piping into other tools.
type Log struct {
	mu         sync.Mutex
	w          io.Writer
	timestamps bool
	now        func() time.Time
	visible    bool
}

// NewLog writes to w. With timestamps set, each line is prefixed with the
// wall-clock time.
func NewLog(w io.Writer, timestamps bool) *Log {
	return &Log{w: w, timestamps: timestamps, now: time.Now}
}

// Show writes text.
func (l *Log) Show(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.visible = true
	if l.timestamps {
		fmt.Fprintf(l.w, "%s %s\n", l.now().Format("15:04:05.000"), text)
		return
	}
	fmt.Fprintln(l.w, text)
}

// Hide writes an empty line once after the last Show.
func (l *Log) Hide() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.visible {
		return
	}
	l.visible = false
	fmt.Fprintln(l.w)
}
