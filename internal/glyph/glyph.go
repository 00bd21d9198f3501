// Package glyph maps keysyms to the short labels shown on screen.
package glyph

import "kave/internal/xkb"

var overrides = map[xkb.Keysym]string{
	xkb.KeySpace:     "␣",
	xkb.KeyCapsLock:  "⇪",
	xkb.KeyBackSpace: "⌫",
	xkb.KeyReturn:    "⏎",
	xkb.KeyEscape:    "⎋",
	xkb.KeyTab:       "⇥",
	xkb.KeyDelete:    "⌦",
	xkb.KeyInsert:    "󰏔",
	xkb.KeyHome:      "󰋜",
	xkb.KeyEnd:       "󰘵",
	xkb.KeyPageUp:    "󰙪",
	xkb.KeyPageDown:  "󰙩",
	xkb.KeyShiftL:    "⇧",
	xkb.KeyShiftR:    "⇧",
	xkb.KeyControlL:  "⌃",
	xkb.KeyControlR:  "⌃",
	xkb.KeyAltL:      "⎇",
	xkb.KeyAltR:      "⎇",
	xkb.KeyMetaL:     "⎇",
	xkb.KeyMetaR:     "⎇",
	xkb.KeySuperL:    "⊞",
	xkb.KeySuperR:    "⊞",
	xkb.KeyPrint:     "⎙",
	xkb.KeyFunction:  "󰘧",

	xkb.KeyUp:    "↑",
	xkb.KeyDown:  "↓",
	xkb.KeyLeft:  "←",
	xkb.KeyRight: "→",

	xkb.KeyF1:  "F1",
	xkb.KeyF2:  "F2",
	xkb.KeyF3:  "F3",
	xkb.KeyF4:  "F4",
	xkb.KeyF5:  "F5",
	xkb.KeyF6:  "F6",
	xkb.KeyF7:  "F7",
	xkb.KeyF8:  "F8",
	xkb.KeyF9:  "F9",
	xkb.KeyF10: "F10",
	xkb.KeyF11: "F11",
	xkb.KeyF12: "F12",
}

// For returns the label for a keysym. Curated symbols come first; anything
// else falls back to the text the keysym types. Keys that type nothing
// printable get "".
func For(k xkb.Keysym) string {
	if g, ok := overrides[k]; ok {
		return g
	}
	return xkb.KeysymToUTF8(k)
}

// IsModifierKey reports whether a key is announced on its own and tracked
// while held: generic modifiers plus the editing keys BackSpace, Return,
// Delete, Tab and Escape.
func IsModifierKey(k xkb.Keysym) bool {
	switch k {
	case xkb.KeyBackSpace, xkb.KeyReturn, xkb.KeyDelete, xkb.KeyTab, xkb.KeyEscape:
		return true
	}
	return xkb.IsModifier(k)
}

// Rank orders modifier-class keys for display: Control, Alt/Meta, Shift,
// Super/Hyper, lock keys, other modifiers, then the editing keys. Lower
// ranks come first.
func Rank(k xkb.Keysym) int {
	switch k {
	case xkb.KeyControlL, xkb.KeyControlR:
		return 0
	case xkb.KeyAltL, xkb.KeyAltR, xkb.KeyMetaL, xkb.KeyMetaR:
		return 1
	case xkb.KeyShiftL, xkb.KeyShiftR:
		return 2
	case xkb.KeySuperL, xkb.KeySuperR, xkb.KeyHyperL, xkb.KeyHyperR:
		return 3
	case xkb.KeyCapsLock, xkb.KeyShiftLock, xkb.KeyNumLock:
		return 4
	case xkb.KeyEscape:
		return 6
	case xkb.KeyTab:
		return 7
	case xkb.KeyBackSpace:
		return 8
	case xkb.KeyReturn:
		return 9
	case xkb.KeyDelete:
		return 10
	}
	return 5
}
