// Package surface holds the presentation surfaces the display composer
// drives. Every surface implements display.Surface: Show replaces what is
// visible, Hide hides and clears it. Show and Hide are called from the
// composer goroutine; surfaces that own a UI loop hand state to it under a
// mutex.
package surface

import (
	"context"
	"fmt"
	"image/color"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// TerminalStyle configures the terminal surface.
type TerminalStyle struct {
	Background color.NRGBA
	Foreground color.NRGBA
	PaddingH   int
	// Bottom places the text on the last usable row instead of the middle.
	Bottom bool
}

// Terminal shows the current string centered in the controlling terminal.
type Terminal struct {
	screen tcell.Screen
	style  TerminalStyle

	mu   sync.Mutex
	text string
}

// NewTerminal takes over the terminal.
func NewTerminal(style TerminalStyle) (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create screen: %w", err)
	}
	return newTerminal(screen, style)
}

func newTerminal(screen tcell.Screen, style TerminalStyle) (*Terminal, error) {
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("init screen: %w", err)
	}
	screen.HideCursor()
	screen.Clear()
	screen.Show()
	return &Terminal{screen: screen, style: style}, nil
}

// Show draws text.
func (t *Terminal) Show(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.text = text
	t.draw()
}

// Hide clears the screen.
func (t *Terminal) Hide() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.text = ""
	t.draw()
}

// Text returns what is currently shown.
func (t *Terminal) Text() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.text
}

// Run handles terminal events until ctx ends or the user presses Ctrl-C,
// Esc or q. It returns nil in both cases and restores the terminal.
func (t *Terminal) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	go t.screen.ChannelEvents(events, quit)
	defer t.screen.Fini()
	defer close(quit)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				t.mu.Lock()
				t.screen.Sync()
				t.draw()
				t.mu.Unlock()
			case *tcell.EventKey:
				if isQuitKey(ev) {
					return nil
				}
			}
		}
	}
}

func isQuitKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyCtrlC, tcell.KeyEscape:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q'
	}
	return false
}

// draw must be called with mu held.
func (t *Terminal) draw() {
	t.screen.Clear()
	if t.text != "" {
		w, h := t.screen.Size()
		padded := pad(t.text, t.style.PaddingH)
		width := runewidth.StringWidth(padded)

		x := (w - width) / 2
		if x < 0 {
			x = 0
		}
		y := h / 2
		if t.style.Bottom && h > 1 {
			y = h - 2
		}

		style := tcell.StyleDefault.
			Background(toTcell(t.style.Background)).
			Foreground(toTcell(t.style.Foreground)).
			Bold(true)
		for _, r := range padded {
			if x >= w {
				break
			}
			t.screen.SetContent(x, y, r, nil, style)
			x += max(runewidth.RuneWidth(r), 1)
		}
	}
	t.screen.Show()
}

func pad(s string, n int) string {
	if n <= 0 {
		return s
	}
	spaces := strings.Repeat(" ", n)
	return spaces + s + spaces
}

func toTcell(c color.NRGBA) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
