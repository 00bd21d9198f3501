package xkb

// KeyDirection is the physical direction of a key transition.
type KeyDirection int

const (
	KeyDirUp KeyDirection = iota
	KeyDirDown
)

// ModMask is a set of active modifiers.
type ModMask uint8

const (
	ModShift ModMask = 1 << iota
	ModLock
	ModControl
	ModAlt
	ModNum
	ModSuper
)

// State tracks pressed keys and latched/locked modifiers for one keyboard.
// It is not safe for concurrent use.
type State struct {
	keymap  *Keymap
	pressed map[Keycode]bool
	impl    *stateImpl
}

// NewState returns a state with no keys pressed and no locks active.
func NewState(keymap *Keymap) *State {
	return &State{
		keymap:  keymap,
		pressed: make(map[Keycode]bool),
		impl:    newStateImpl(keymap),
	}
}

// UpdateKey applies a key transition. A Down for a key that is already down
// is an auto-repeat and does not re-apply the key's action; an Up for a key
// that is not down is ignored.
func (s *State) UpdateKey(kc Keycode, dir KeyDirection) {
	switch dir {
	case KeyDirDown:
		if s.pressed[kc] {
			return
		}
		s.pressed[kc] = true
	case KeyDirUp:
		if !s.pressed[kc] {
			return
		}
		delete(s.pressed, kc)
	default:
		return
	}
	s.impl.updateKey(kc, dir)
}

// Mods returns the currently effective modifiers.
func (s *State) Mods() ModMask {
	return s.impl.mods()
}

// ModActive reports whether every modifier in m is active.
func (s *State) ModActive(m ModMask) bool {
	return s.Mods()&m == m
}

// KeyGetOneSym returns the keysym the key produces in the current state,
// or NoSymbol when the keycode carries no single symbol.
func (s *State) KeyGetOneSym(kc Keycode) Keysym {
	return s.impl.keyGetOneSym(kc)
}
