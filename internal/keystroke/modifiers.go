package keystroke

import (
	"slices"
	"strings"

	"kave/internal/glyph"
	"kave/internal/xkb"
)

// ModifierSet holds the modifier-class keys currently held down. Keys are
// kept in display order (glyph.Rank, then keysym value) so that the same
// held set always renders the same way.
type ModifierSet struct {
	keys []xkb.Keysym
}

func compareModifiers(a, b xkb.Keysym) int {
	if ra, rb := glyph.Rank(a), glyph.Rank(b); ra != rb {
		return ra - rb
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Add inserts k. It reports false when k was already present.
func (m *ModifierSet) Add(k xkb.Keysym) bool {
	i, found := slices.BinarySearchFunc(m.keys, k, compareModifiers)
	if found {
		return false
	}
	m.keys = slices.Insert(m.keys, i, k)
	return true
}

// Remove deletes k. Removing an absent key is a no-op that reports false.
func (m *ModifierSet) Remove(k xkb.Keysym) bool {
	i, found := slices.BinarySearchFunc(m.keys, k, compareModifiers)
	if !found {
		return false
	}
	m.keys = slices.Delete(m.keys, i, i+1)
	return true
}

// Contains reports whether k is held.
func (m *ModifierSet) Contains(k xkb.Keysym) bool {
	_, found := slices.BinarySearchFunc(m.keys, k, compareModifiers)
	return found
}

// Len returns the number of held modifiers.
func (m *ModifierSet) Len() int {
	return len(m.keys)
}

// Keys returns the held modifiers in display order.
func (m *ModifierSet) Keys() []xkb.Keysym {
	return slices.Clone(m.keys)
}

// Glyphs returns the non-empty glyphs of the held modifiers in display order.
func (m *ModifierSet) Glyphs() []string {
	out := make([]string, 0, len(m.keys))
	for _, k := range m.keys {
		if g := glyph.For(k); g != "" {
			out = append(out, g)
		}
	}
	return out
}

// String joins the glyphs with single spaces.
func (m *ModifierSet) String() string {
	return strings.Join(m.Glyphs(), " ")
}

// Clear forgets every held key.
func (m *ModifierSet) Clear() {
	m.keys = m.keys[:0]
}
