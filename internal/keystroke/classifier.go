package keystroke

import (
	"fmt"
	"strings"

	"kave/internal/glyph"
	"kave/internal/xkb"
)

// LayoutState resolves scan codes against a compiled keymap.
type LayoutState struct {
	keymap *xkb.Keymap
	state  *xkb.State
}

// NewLayoutState compiles the keymap for names. A failure here is fatal
// for the program: nothing can be decoded without a layout.
func NewLayoutState(names xkb.RuleNames) (*LayoutState, error) {
	keymap, err := xkb.NewKeymapFromNames(names)
	if err != nil {
		return nil, fmt.Errorf("compile keymap %s: %w", names, err)
	}
	return &LayoutState{keymap: keymap, state: xkb.NewState(keymap)}, nil
}

// Names returns the rule names of the compiled keymap.
func (l *LayoutState) Names() xkb.RuleNames {
	return l.keymap.Names()
}

// Reset forgets every pressed key and lock.
func (l *LayoutState) Reset() {
	l.state = xkb.NewState(l.keymap)
}

// Resolve applies the transition to the layout state and then returns the
// keysym the key produces in that state.
func (l *LayoutState) Resolve(scanCode uint16, t Transition) xkb.Keysym {
	kc := xkb.KeycodeFromEvdev(scanCode)
	dir := xkb.KeyDirDown
	if t == Release {
		dir = xkb.KeyDirUp
	}
	l.state.UpdateKey(kc, dir)
	return l.state.KeyGetOneSym(kc)
}

// Classifier decides which key events are announced.
//
// A press or repeat of a modifier-class key announces the held modifiers.
// A press or repeat of any other key is announced, after the held
// modifiers, only while at least one modifier is held. Releases update the
// held set and are never announced.
type Classifier struct {
	layout *LayoutState
	mods   ModifierSet

	// held remembers the keysym each held modifier key was inserted as, so
	// the release removes the same symbol even if the shift level changed.
	held map[uint16]xkb.Keysym
}

// NewClassifier creates a classifier on top of layout.
func NewClassifier(layout *LayoutState) *Classifier {
	return &Classifier{
		layout: layout,
		held:   make(map[uint16]xkb.Keysym),
	}
}

// Handle processes one event and returns the string to display, if any.
func (c *Classifier) Handle(ev RawKeyEvent) (string, bool) {
	sym := c.layout.Resolve(ev.ScanCode, ev.Transition)

	switch ev.Transition {
	case Press, Repeat:
		if prev, ok := c.held[ev.ScanCode]; ok {
			sym = prev
		}

		if glyph.IsModifierKey(sym) {
			c.mods.Add(sym)
			c.held[ev.ScanCode] = sym
			return c.mods.String(), true
		}

		if c.mods.Len() > 0 && !c.mods.Contains(sym) {
			return joinGlyphs(c.mods.Glyphs(), glyph.For(sym)), true
		}
		return "", false

	case Release:
		if prev, ok := c.held[ev.ScanCode]; ok {
			sym = prev
			delete(c.held, ev.ScanCode)
		}
		if glyph.IsModifierKey(sym) {
			c.mods.Remove(sym)
		}
	}

	return "", false
}

// Reset clears the held modifiers and the layout state, as after a fresh
// device open.
func (c *Classifier) Reset() {
	c.layout.Reset()
	c.mods = ModifierSet{}
	clear(c.held)
}

// Modifiers returns the held modifier keysyms in display order.
func (c *Classifier) Modifiers() []xkb.Keysym {
	return c.mods.Keys()
}

func joinGlyphs(mods []string, key string) string {
	if key == "" {
		return strings.Join(mods, " ")
	}
	return strings.Join(append(mods, key), " ")
}
