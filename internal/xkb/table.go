//go:build !linux || !cgo

package xkb

import (
	"fmt"
	"unicode/utf8"

	evdev "github.com/holoplot/go-evdev"
)

// keyType decides which shift level a key produces for a modifier state.
type keyType int

const (
	typeOneLevel keyType = iota
	typeTwoLevel
	typeAlphabetic
	typeKeypad
)

// keyAction is the state change a key applies while held or on press.
type keyAction int

const (
	actionNone keyAction = iota
	actionSetShift
	actionSetControl
	actionSetAlt
	actionSetSuper
	actionLockCaps
	actionLockNum
)

type keyEntry struct {
	typ    keyType
	action keyAction
	levels [2]Keysym
}

// Keymap is a compiled keyboard description.
type Keymap struct {
	names RuleNames
	keys  map[Keycode]keyEntry
}

// Names returns the rule names the keymap was compiled from.
func (m *Keymap) Names() RuleNames {
	return m.names
}

// Len returns the number of keycodes with at least one symbol.
func (m *Keymap) Len() int {
	return len(m.keys)
}

var supportedModels = map[string]bool{
	"pc101": true,
	"pc104": true,
	"pc105": true,
}

// NewKeymapFromNames builds the keymap from the built-in table. Empty
// Rules, Model and Layout take their default values; anything outside
// evdev/pc10x/us without variant or options fails with ErrUnknownLayout.
func NewKeymapFromNames(names RuleNames) (*Keymap, error) {
	names = names.withDefaults()

	switch {
	case names.Rules != "evdev":
		return nil, fmt.Errorf("%w: rules %q", ErrUnknownLayout, names.Rules)
	case !supportedModels[names.Model]:
		return nil, fmt.Errorf("%w: model %q", ErrUnknownLayout, names.Model)
	case names.Layout != "us":
		return nil, fmt.Errorf("%w: layout %q", ErrUnknownLayout, names.Layout)
	case names.Variant != "":
		return nil, fmt.Errorf("%w: variant %q", ErrUnknownLayout, names.Variant)
	case names.Options != "":
		return nil, fmt.Errorf("%w: options %q", ErrUnknownLayout, names.Options)
	}

	keys := make(map[Keycode]keyEntry, len(usLayout))
	for code, entry := range usLayout {
		keys[KeycodeFromEvdev(uint16(code))] = entry
	}
	if names.Model == "pc105" {
		keys[KeycodeFromEvdev(uint16(evdev.KEY_102ND))] = two(KeyLess, KeyGreater)
	}

	return &Keymap{names: names, keys: keys}, nil
}

func one(sym Keysym) keyEntry {
	return keyEntry{typ: typeOneLevel, levels: [2]Keysym{sym, sym}}
}

func two(plain, shifted Keysym) keyEntry {
	return keyEntry{typ: typeTwoLevel, levels: [2]Keysym{plain, shifted}}
}

func letter(lower Keysym) keyEntry {
	return keyEntry{typ: typeAlphabetic, levels: [2]Keysym{lower, lower - (Keya - KeyA)}}
}

func keypad(plain, numeric Keysym) keyEntry {
	return keyEntry{typ: typeKeypad, levels: [2]Keysym{plain, numeric}}
}

func mod(action keyAction, plain, shifted Keysym) keyEntry {
	typ := typeTwoLevel
	if plain == shifted {
		typ = typeOneLevel
	}
	return keyEntry{typ: typ, action: action, levels: [2]Keysym{plain, shifted}}
}

func ch(r rune) Keysym {
	return Keysym(r)
}

// usLayout mirrors the symbols of xkeyboard-config's us(basic) on top of
// the pc and inet(evdev) sections.
var usLayout = map[evdev.EvCode]keyEntry{
	evdev.KEY_ESC:       one(KeyEscape),
	evdev.KEY_1:         two(Key1, KeyExclam),
	evdev.KEY_2:         two(Key2, KeyAt),
	evdev.KEY_3:         two(Key3, KeyNumbersign),
	evdev.KEY_4:         two(Key4, KeyDollar),
	evdev.KEY_5:         two(Key5, KeyPercent),
	evdev.KEY_6:         two(Key6, KeyAsciicircum),
	evdev.KEY_7:         two(Key7, KeyAmpersand),
	evdev.KEY_8:         two(Key8, KeyAsterisk),
	evdev.KEY_9:         two(Key9, KeyParenleft),
	evdev.KEY_0:         two(Key0, KeyParenright),
	evdev.KEY_MINUS:     two(KeyMinus, KeyUnderscore),
	evdev.KEY_EQUAL:     two(KeyEqual, KeyPlus),
	evdev.KEY_BACKSPACE: one(KeyBackSpace),
	evdev.KEY_TAB:       two(KeyTab, KeyISOLeftTab),

	evdev.KEY_Q:          letter(ch('q')),
	evdev.KEY_W:          letter(ch('w')),
	evdev.KEY_E:          letter(ch('e')),
	evdev.KEY_R:          letter(ch('r')),
	evdev.KEY_T:          letter(ch('t')),
	evdev.KEY_Y:          letter(ch('y')),
	evdev.KEY_U:          letter(ch('u')),
	evdev.KEY_I:          letter(ch('i')),
	evdev.KEY_O:          letter(ch('o')),
	evdev.KEY_P:          letter(ch('p')),
	evdev.KEY_LEFTBRACE:  two(KeyBracketleft, KeyBraceleft),
	evdev.KEY_RIGHTBRACE: two(KeyBracketright, KeyBraceright),
	evdev.KEY_ENTER:      one(KeyReturn),
	evdev.KEY_LEFTCTRL:   mod(actionSetControl, KeyControlL, KeyControlL),

	evdev.KEY_A:          letter(ch('a')),
	evdev.KEY_S:          letter(ch('s')),
	evdev.KEY_D:          letter(ch('d')),
	evdev.KEY_F:          letter(ch('f')),
	evdev.KEY_G:          letter(ch('g')),
	evdev.KEY_H:          letter(ch('h')),
	evdev.KEY_J:          letter(ch('j')),
	evdev.KEY_K:          letter(ch('k')),
	evdev.KEY_L:          letter(ch('l')),
	evdev.KEY_SEMICOLON:  two(KeySemicolon, KeyColon),
	evdev.KEY_APOSTROPHE: two(KeyApostrophe, KeyQuotedbl),
	evdev.KEY_GRAVE:      two(KeyGrave, KeyAsciitilde),
	evdev.KEY_LEFTSHIFT:  mod(actionSetShift, KeyShiftL, KeyShiftL),
	evdev.KEY_BACKSLASH:  two(KeyBackslash, KeyBar),

	evdev.KEY_Z:          letter(ch('z')),
	evdev.KEY_X:          letter(ch('x')),
	evdev.KEY_C:          letter(ch('c')),
	evdev.KEY_V:          letter(ch('v')),
	evdev.KEY_B:          letter(ch('b')),
	evdev.KEY_N:          letter(ch('n')),
	evdev.KEY_M:          letter(ch('m')),
	evdev.KEY_COMMA:      two(KeyComma, KeyLess),
	evdev.KEY_DOT:        two(KeyPeriod, KeyGreater),
	evdev.KEY_SLASH:      two(KeySlash, KeyQuestion),
	evdev.KEY_RIGHTSHIFT: mod(actionSetShift, KeyShiftR, KeyShiftR),
	evdev.KEY_KPASTERISK: one(KeyKPMultiply),
	evdev.KEY_LEFTALT:    mod(actionSetAlt, KeyAltL, KeyMetaL),
	evdev.KEY_SPACE:      one(KeySpace),
	evdev.KEY_CAPSLOCK:   mod(actionLockCaps, KeyCapsLock, KeyCapsLock),

	evdev.KEY_F1:  one(KeyF1),
	evdev.KEY_F2:  one(KeyF2),
	evdev.KEY_F3:  one(KeyF3),
	evdev.KEY_F4:  one(KeyF4),
	evdev.KEY_F5:  one(KeyF5),
	evdev.KEY_F6:  one(KeyF6),
	evdev.KEY_F7:  one(KeyF7),
	evdev.KEY_F8:  one(KeyF8),
	evdev.KEY_F9:  one(KeyF9),
	evdev.KEY_F10: one(KeyF10),
	evdev.KEY_F11: one(KeyF11),
	evdev.KEY_F12: one(KeyF12),

	evdev.KEY_NUMLOCK:    mod(actionLockNum, KeyNumLock, KeyNumLock),
	evdev.KEY_SCROLLLOCK: one(KeyScrollLock),
	evdev.KEY_KP7:        keypad(KeyKPHome, KeyKP7),
	evdev.KEY_KP8:        keypad(KeyKPUp, KeyKP8),
	evdev.KEY_KP9:        keypad(KeyKPPageUp, KeyKP9),
	evdev.KEY_KPMINUS:    one(KeyKPSubtract),
	evdev.KEY_KP4:        keypad(KeyKPLeft, KeyKP4),
	evdev.KEY_KP5:        keypad(KeyKPBegin, KeyKP5),
	evdev.KEY_KP6:        keypad(KeyKPRight, KeyKP6),
	evdev.KEY_KPPLUS:     one(KeyKPAdd),
	evdev.KEY_KP1:        keypad(KeyKPEnd, KeyKP1),
	evdev.KEY_KP2:        keypad(KeyKPDown, KeyKP2),
	evdev.KEY_KP3:        keypad(KeyKPPageDown, KeyKP3),
	evdev.KEY_KP0:        keypad(KeyKPInsert, KeyKP0),
	evdev.KEY_KPDOT:      keypad(KeyKPDelete, KeyKPDecimal),
	evdev.KEY_KPENTER:    one(KeyKPEnter),
	evdev.KEY_KPSLASH:    one(KeyKPDivide),
	evdev.KEY_KPEQUAL:    one(KeyKPEqual),

	evdev.KEY_RIGHTCTRL: mod(actionSetControl, KeyControlR, KeyControlR),
	evdev.KEY_SYSRQ:     one(KeyPrint),
	evdev.KEY_RIGHTALT:  mod(actionSetAlt, KeyAltR, KeyMetaR),
	evdev.KEY_HOME:      one(KeyHome),
	evdev.KEY_UP:        one(KeyUp),
	evdev.KEY_PAGEUP:    one(KeyPageUp),
	evdev.KEY_LEFT:      one(KeyLeft),
	evdev.KEY_RIGHT:     one(KeyRight),
	evdev.KEY_END:       one(KeyEnd),
	evdev.KEY_DOWN:      one(KeyDown),
	evdev.KEY_PAGEDOWN:  one(KeyPageDown),
	evdev.KEY_INSERT:    one(KeyInsert),
	evdev.KEY_DELETE:    one(KeyDelete),
	evdev.KEY_PAUSE:     one(KeyPause),
	evdev.KEY_LEFTMETA:  mod(actionSetSuper, KeySuperL, KeySuperL),
	evdev.KEY_RIGHTMETA: mod(actionSetSuper, KeySuperR, KeySuperR),
	evdev.KEY_COMPOSE:   one(KeyMenu),

	evdev.KEY_MUTE:       one(KeyAudioMute),
	evdev.KEY_VOLUMEDOWN: one(KeyAudioLowerVolume),
	evdev.KEY_VOLUMEUP:   one(KeyAudioRaiseVolume),
}

// stateImpl tracks held modifier actions and locks against the table.
type stateImpl struct {
	keymap *Keymap

	// held counts pressed keys per "set while held" action so that
	// releasing one Shift does not clear the other.
	held   map[keyAction]int
	locked ModMask
}

func newStateImpl(keymap *Keymap) *stateImpl {
	return &stateImpl{keymap: keymap, held: make(map[keyAction]int)}
}

func (s *stateImpl) updateKey(kc Keycode, dir KeyDirection) {
	entry, ok := s.keymap.keys[kc]
	if !ok {
		return
	}
	switch entry.action {
	case actionNone:
	case actionLockCaps:
		if dir == KeyDirDown {
			s.locked ^= ModLock
		}
	case actionLockNum:
		if dir == KeyDirDown {
			s.locked ^= ModNum
		}
	default:
		if dir == KeyDirDown {
			s.held[entry.action]++
		} else if s.held[entry.action] > 0 {
			s.held[entry.action]--
		}
	}
}

func (s *stateImpl) mods() ModMask {
	mask := s.locked
	if s.held[actionSetShift] > 0 {
		mask |= ModShift
	}
	if s.held[actionSetControl] > 0 {
		mask |= ModControl
	}
	if s.held[actionSetAlt] > 0 {
		mask |= ModAlt
	}
	if s.held[actionSetSuper] > 0 {
		mask |= ModSuper
	}
	return mask
}

func (s *stateImpl) keyGetOneSym(kc Keycode) Keysym {
	entry, ok := s.keymap.keys[kc]
	if !ok {
		return NoSymbol
	}
	return entry.levels[s.level(entry.typ)]
}

func (s *stateImpl) level(typ keyType) int {
	mods := s.mods()
	shift := mods&ModShift != 0

	var second bool
	switch typ {
	case typeOneLevel:
		second = false
	case typeTwoLevel:
		second = shift
	case typeAlphabetic:
		second = shift != (mods&ModLock != 0)
	case typeKeypad:
		second = shift != (mods&ModNum != 0)
	}
	if second {
		return 1
	}
	return 0
}

// ToUTF32 returns the Unicode code point a keysym produces, or 0 when it
// produces none.
func ToUTF32(k Keysym) rune {
	switch {
	case (k >= 0x0020 && k <= 0x007e) || (k >= 0x00a0 && k <= 0x00ff):
		return rune(k)
	case k >= unicodeOffset+0x0100 && k <= unicodeOffset+0x10ffff:
		return rune(k - unicodeOffset)
	case k == KeyKPSpace:
		return ' '
	case k >= KeyKP0 && k <= KeyKP9:
		return rune('0' + (k - KeyKP0))
	case k >= KeyKPMultiply && k <= KeyKPDivide, k == KeyKPEqual:
		// KP_Multiply..KP_Divide and KP_Equal share the ASCII low byte.
		return rune(k & 0x7f)
	case k == KeyKPTab, k == KeyKPEnter:
		return rune(k & 0x7f)
	case (k >= KeyBackSpace && k <= KeyEscape) || k == KeyDelete:
		return rune(k & 0x7f)
	}
	return 0
}

// KeysymToUTF8 returns the printable text a keysym produces. Control
// characters and keysyms without a text form yield "".
func KeysymToUTF8(k Keysym) string {
	r := ToUTF32(k)
	if r == 0 || !utf8.ValidRune(r) {
		return ""
	}
	return printable(string(r))
}
