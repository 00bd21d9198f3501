//go:build linux && cgo

package xkb

/*
#cgo pkg-config: xkbcommon
#include <xkbcommon/xkbcommon.h>
#include <stdlib.h>

// Indexed like the ModMask bits.
static const char *kave_mod_names[] = {
	XKB_MOD_NAME_SHIFT,
	XKB_MOD_NAME_CAPS,
	XKB_MOD_NAME_CTRL,
	XKB_MOD_NAME_ALT,
	XKB_MOD_NAME_NUM,
	XKB_MOD_NAME_LOGO,
};

static int kave_mod_count(void) {
	return sizeof(kave_mod_names) / sizeof(kave_mod_names[0]);
}

static int kave_mod_active(struct xkb_state *state, int i) {
	return xkb_state_mod_name_is_active(state, kave_mod_names[i], XKB_STATE_MODS_EFFECTIVE) > 0;
}
*/
import "C"

import (
	"fmt"
	"runtime"
	"unsafe"
)

// Keymap is a keyboard description compiled by libxkbcommon.
type Keymap struct {
	names  RuleNames
	keymap *C.struct_xkb_keymap
}

// NewKeymapFromNames compiles a keymap with libxkbcommon. Empty Rules,
// Model and Layout take their default values. A description libxkbcommon
// cannot compile fails with ErrUnknownLayout.
func NewKeymapFromNames(names RuleNames) (*Keymap, error) {
	names = names.withDefaults()

	ctx := C.xkb_context_new(C.XKB_CONTEXT_NO_FLAGS)
	if ctx == nil {
		return nil, fmt.Errorf("%w: cannot create xkb context", ErrUnknownLayout)
	}
	defer C.xkb_context_unref(ctx)

	var cnames C.struct_xkb_rule_names
	fields := []struct {
		dst **C.char
		val string
	}{
		{&cnames.rules, names.Rules},
		{&cnames.model, names.Model},
		{&cnames.layout, names.Layout},
		{&cnames.variant, names.Variant},
		{&cnames.options, names.Options},
	}
	for _, f := range fields {
		if f.val == "" {
			continue
		}
		cs := C.CString(f.val)
		defer C.free(unsafe.Pointer(cs))
		*f.dst = cs
	}

	km := C.xkb_keymap_new_from_names(ctx, &cnames, C.XKB_KEYMAP_COMPILE_NO_FLAGS)
	if km == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLayout, names)
	}

	m := &Keymap{names: names, keymap: km}
	runtime.AddCleanup(m, func(km *C.struct_xkb_keymap) {
		C.xkb_keymap_unref(km)
	}, km)
	return m, nil
}

// Names returns the rule names the keymap was compiled from.
func (m *Keymap) Names() RuleNames {
	return m.names
}

// Len returns the number of keycodes with at least one symbol.
func (m *Keymap) Len() int {
	lo := int(C.xkb_keymap_min_keycode(m.keymap))
	hi := int(C.xkb_keymap_max_keycode(m.keymap))

	n := 0
	for kc := lo; kc <= hi; kc++ {
		if C.xkb_keymap_num_layouts_for_key(m.keymap, C.xkb_keycode_t(kc)) > 0 {
			n++
		}
	}
	runtime.KeepAlive(m)
	return n
}

// stateImpl wraps an xkb_state.
type stateImpl struct {
	keymap *Keymap
	state  *C.struct_xkb_state
}

func newStateImpl(keymap *Keymap) *stateImpl {
	st := C.xkb_state_new(keymap.keymap)
	if st == nil {
		panic("xkb: xkb_state_new failed")
	}
	s := &stateImpl{keymap: keymap, state: st}
	runtime.AddCleanup(s, func(st *C.struct_xkb_state) {
		C.xkb_state_unref(st)
	}, st)
	return s
}

func (s *stateImpl) updateKey(kc Keycode, dir KeyDirection) {
	d := C.enum_xkb_key_direction(C.XKB_KEY_UP)
	if dir == KeyDirDown {
		d = C.XKB_KEY_DOWN
	}
	C.xkb_state_update_key(s.state, C.xkb_keycode_t(kc), d)
	runtime.KeepAlive(s)
}

func (s *stateImpl) mods() ModMask {
	var mask ModMask
	for i := range int(C.kave_mod_count()) {
		if C.kave_mod_active(s.state, C.int(i)) != 0 {
			mask |= ModMask(1) << i
		}
	}
	runtime.KeepAlive(s)
	return mask
}

func (s *stateImpl) keyGetOneSym(kc Keycode) Keysym {
	sym := C.xkb_state_key_get_one_sym(s.state, C.xkb_keycode_t(kc))
	runtime.KeepAlive(s)
	return Keysym(sym)
}

// KeysymToUTF8 returns the printable text a keysym produces. Control
// characters and keysyms without a text form yield "".
func KeysymToUTF8(k Keysym) string {
	var buf [64]C.char
	// The count includes the terminating NUL; 0 means no text.
	if n := C.xkb_keysym_to_utf8(C.xkb_keysym_t(k), &buf[0], C.size_t(len(buf))); n <= 1 {
		return ""
	}
	return printable(C.GoString(&buf[0]))
}
