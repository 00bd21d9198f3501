// Package xkb decodes evdev scan codes into X keysyms.
//
// With cgo on Linux the keymap is compiled by libxkbcommon from XKB rule
// names. Without it, a built-in table covers evdev/pc10x/us only.
//
// Keysym values follow /usr/include/X11/keysymdef.h. Keycodes follow the
// XKB numbering, which is the evdev scan code biased by EvdevOffset.
package xkb

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Keysym is a layout-resolved key identity.
type Keysym uint32

// Keycode is an XKB keycode (evdev scan code + EvdevOffset).
type Keycode uint32

// EvdevOffset is the distance between evdev scan codes and XKB keycodes.
const EvdevOffset = 8

// KeycodeFromEvdev converts an evdev scan code to an XKB keycode.
func KeycodeFromEvdev(scanCode uint16) Keycode {
	return Keycode(uint32(scanCode) + EvdevOffset)
}

// These constants come from /usr/include/X11/keysymdef.h and XF86keysym.h.
const (
	NoSymbol Keysym = 0

	KeySpace        Keysym = 0x0020
	KeyExclam       Keysym = 0x0021
	KeyQuotedbl     Keysym = 0x0022
	KeyNumbersign   Keysym = 0x0023
	KeyDollar       Keysym = 0x0024
	KeyPercent      Keysym = 0x0025
	KeyAmpersand    Keysym = 0x0026
	KeyApostrophe   Keysym = 0x0027
	KeyParenleft    Keysym = 0x0028
	KeyParenright   Keysym = 0x0029
	KeyAsterisk     Keysym = 0x002a
	KeyPlus         Keysym = 0x002b
	KeyComma        Keysym = 0x002c
	KeyMinus        Keysym = 0x002d
	KeyPeriod       Keysym = 0x002e
	KeySlash        Keysym = 0x002f
	Key0            Keysym = 0x0030
	Key1            Keysym = 0x0031
	Key2            Keysym = 0x0032
	Key3            Keysym = 0x0033
	Key4            Keysym = 0x0034
	Key5            Keysym = 0x0035
	Key6            Keysym = 0x0036
	Key7            Keysym = 0x0037
	Key8            Keysym = 0x0038
	Key9            Keysym = 0x0039
	KeyColon        Keysym = 0x003a
	KeySemicolon    Keysym = 0x003b
	KeyLess         Keysym = 0x003c
	KeyEqual        Keysym = 0x003d
	KeyGreater      Keysym = 0x003e
	KeyQuestion     Keysym = 0x003f
	KeyAt           Keysym = 0x0040
	KeyA            Keysym = 0x0041
	KeyZ            Keysym = 0x005a
	KeyBracketleft  Keysym = 0x005b
	KeyBackslash    Keysym = 0x005c
	KeyBracketright Keysym = 0x005d
	KeyAsciicircum  Keysym = 0x005e
	KeyUnderscore   Keysym = 0x005f
	KeyGrave        Keysym = 0x0060
	Keya            Keysym = 0x0061
	Keyz            Keysym = 0x007a
	KeyBraceleft    Keysym = 0x007b
	KeyBar          Keysym = 0x007c
	KeyBraceright   Keysym = 0x007d
	KeyAsciitilde   Keysym = 0x007e

	KeyFunction Keysym = 0x08f6

	KeyISOLock        Keysym = 0xfe01
	KeyISOLevel5Lock  Keysym = 0xfe13
	KeyISOLeftTab     Keysym = 0xfe20
	KeyBackSpace      Keysym = 0xff08
	KeyTab            Keysym = 0xff09
	KeyReturn         Keysym = 0xff0d
	KeyPause          Keysym = 0xff13
	KeyScrollLock     Keysym = 0xff14
	KeyEscape         Keysym = 0xff1b
	KeyHome           Keysym = 0xff50
	KeyLeft           Keysym = 0xff51
	KeyUp             Keysym = 0xff52
	KeyRight          Keysym = 0xff53
	KeyDown           Keysym = 0xff54
	KeyPageUp         Keysym = 0xff55
	KeyPageDown       Keysym = 0xff56
	KeyEnd            Keysym = 0xff57
	KeyPrint          Keysym = 0xff61
	KeyInsert         Keysym = 0xff63
	KeyMenu           Keysym = 0xff67
	KeyModeSwitch     Keysym = 0xff7e
	KeyNumLock        Keysym = 0xff7f
	KeyKPSpace        Keysym = 0xff80
	KeyKPTab          Keysym = 0xff89
	KeyKPEnter        Keysym = 0xff8d
	KeyKPHome         Keysym = 0xff95
	KeyKPLeft         Keysym = 0xff96
	KeyKPUp           Keysym = 0xff97
	KeyKPRight        Keysym = 0xff98
	KeyKPDown         Keysym = 0xff99
	KeyKPPageUp       Keysym = 0xff9a
	KeyKPPageDown     Keysym = 0xff9b
	KeyKPEnd          Keysym = 0xff9c
	KeyKPBegin        Keysym = 0xff9d
	KeyKPInsert       Keysym = 0xff9e
	KeyKPDelete       Keysym = 0xff9f
	KeyKPMultiply     Keysym = 0xffaa
	KeyKPAdd          Keysym = 0xffab
	KeyKPSeparator    Keysym = 0xffac
	KeyKPSubtract     Keysym = 0xffad
	KeyKPDecimal      Keysym = 0xffae
	KeyKPDivide       Keysym = 0xffaf
	KeyKP0            Keysym = 0xffb0
	KeyKP1            Keysym = 0xffb1
	KeyKP2            Keysym = 0xffb2
	KeyKP3            Keysym = 0xffb3
	KeyKP4            Keysym = 0xffb4
	KeyKP5            Keysym = 0xffb5
	KeyKP6            Keysym = 0xffb6
	KeyKP7            Keysym = 0xffb7
	KeyKP8            Keysym = 0xffb8
	KeyKP9            Keysym = 0xffb9
	KeyKPEqual        Keysym = 0xffbd
	KeyF1             Keysym = 0xffbe
	KeyF2             Keysym = 0xffbf
	KeyF3             Keysym = 0xffc0
	KeyF4             Keysym = 0xffc1
	KeyF5             Keysym = 0xffc2
	KeyF6             Keysym = 0xffc3
	KeyF7             Keysym = 0xffc4
	KeyF8             Keysym = 0xffc5
	KeyF9             Keysym = 0xffc6
	KeyF10            Keysym = 0xffc7
	KeyF11            Keysym = 0xffc8
	KeyF12            Keysym = 0xffc9
	KeyShiftL         Keysym = 0xffe1
	KeyShiftR         Keysym = 0xffe2
	KeyControlL       Keysym = 0xffe3
	KeyControlR       Keysym = 0xffe4
	KeyCapsLock       Keysym = 0xffe5
	KeyShiftLock      Keysym = 0xffe6
	KeyMetaL          Keysym = 0xffe7
	KeyMetaR          Keysym = 0xffe8
	KeyAltL           Keysym = 0xffe9
	KeyAltR           Keysym = 0xffea
	KeySuperL         Keysym = 0xffeb
	KeySuperR         Keysym = 0xffec
	KeyHyperL         Keysym = 0xffed
	KeyHyperR         Keysym = 0xffee
	KeyDelete         Keysym = 0xffff

	KeyAudioLowerVolume Keysym = 0x1008ff11
	KeyAudioMute        Keysym = 0x1008ff12
	KeyAudioRaiseVolume Keysym = 0x1008ff13
)

// unicodeOffset is the base of the keysym range that maps directly onto
// Unicode code points (U+0100 and up).
const unicodeOffset = 0x01000000

var names = map[Keysym]string{
	NoSymbol:            "NoSymbol",
	KeySpace:            "space",
	KeyFunction:         "function",
	KeyISOLeftTab:       "ISO_Left_Tab",
	KeyBackSpace:        "BackSpace",
	KeyTab:              "Tab",
	KeyReturn:           "Return",
	KeyPause:            "Pause",
	KeyScrollLock:       "Scroll_Lock",
	KeyEscape:           "Escape",
	KeyHome:             "Home",
	KeyLeft:             "Left",
	KeyUp:               "Up",
	KeyRight:            "Right",
	KeyDown:             "Down",
	KeyPageUp:           "Prior",
	KeyPageDown:         "Next",
	KeyEnd:              "End",
	KeyPrint:            "Print",
	KeyInsert:           "Insert",
	KeyMenu:             "Menu",
	KeyModeSwitch:       "Mode_switch",
	KeyNumLock:          "Num_Lock",
	KeyKPEnter:          "KP_Enter",
	KeyKPHome:           "KP_Home",
	KeyKPLeft:           "KP_Left",
	KeyKPUp:             "KP_Up",
	KeyKPRight:          "KP_Right",
	KeyKPDown:           "KP_Down",
	KeyKPPageUp:         "KP_Prior",
	KeyKPPageDown:       "KP_Next",
	KeyKPEnd:            "KP_End",
	KeyKPBegin:          "KP_Begin",
	KeyKPInsert:         "KP_Insert",
	KeyKPDelete:         "KP_Delete",
	KeyKPMultiply:       "KP_Multiply",
	KeyKPAdd:            "KP_Add",
	KeyKPSubtract:       "KP_Subtract",
	KeyKPDecimal:        "KP_Decimal",
	KeyKPDivide:         "KP_Divide",
	KeyKPEqual:          "KP_Equal",
	KeyShiftL:           "Shift_L",
	KeyShiftR:           "Shift_R",
	KeyControlL:         "Control_L",
	KeyControlR:         "Control_R",
	KeyCapsLock:         "Caps_Lock",
	KeyShiftLock:        "Shift_Lock",
	KeyMetaL:            "Meta_L",
	KeyMetaR:            "Meta_R",
	KeyAltL:             "Alt_L",
	KeyAltR:             "Alt_R",
	KeySuperL:           "Super_L",
	KeySuperR:           "Super_R",
	KeyHyperL:           "Hyper_L",
	KeyHyperR:           "Hyper_R",
	KeyDelete:           "Delete",
	KeyAudioLowerVolume: "XF86AudioLowerVolume",
	KeyAudioMute:        "XF86AudioMute",
	KeyAudioRaiseVolume: "XF86AudioRaiseVolume",
}

// String returns the keysym name, or a hex form for unnamed symbols.
func (k Keysym) String() string {
	if name, ok := names[k]; ok {
		return name
	}
	switch {
	case k >= KeyF1 && k <= KeyF12:
		return fmt.Sprintf("F%d", k-KeyF1+1)
	case k >= KeyKP0 && k <= KeyKP9:
		return fmt.Sprintf("KP_%d", k-KeyKP0)
	case k > 0x20 && k < 0x7f:
		return string(rune(k))
	}
	return fmt.Sprintf("0x%04x", uint32(k))
}

// IsModifier reports whether the keysym is a modifier in the generic XKB
// sense: the Shift_L..Hyper_R range, the ISO lock and level keys,
// Mode_switch and Num_Lock. libxkbcommon keeps its own check private.
func IsModifier(k Keysym) bool {
	return (k >= KeyShiftL && k <= KeyHyperR) ||
		(k >= KeyISOLock && k <= KeyISOLevel5Lock) ||
		k == KeyModeSwitch ||
		k == KeyNumLock
}

// printable drops text that would not render as a glyph: control
// characters and invalid runes.
func printable(s string) string {
	for _, r := range s {
		if r == utf8.RuneError || !unicode.IsPrint(r) {
			return ""
		}
	}
	return s
}
