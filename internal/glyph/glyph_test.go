package glyph

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"kave/internal/xkb"
)

func TestFor(t *testing.T) {
	tests := []struct {
		name string
		sym  xkb.Keysym
		want string
	}{
		{"caps lock uses override", xkb.KeyCapsLock, "⇪"},
		{"left shift", xkb.KeyShiftL, "⇧"},
		{"right shift", xkb.KeyShiftR, "⇧"},
		{"control", xkb.KeyControlR, "⌃"},
		{"space", xkb.KeySpace, "␣"},
		{"return", xkb.KeyReturn, "⏎"},
		{"f1", xkb.KeyF1, "F1"},
		{"f12", xkb.KeyF12, "F12"},
		{"arrow", xkb.KeyLeft, "←"},
		{"letter", xkb.Keysym('a'), "a"},
		{"shifted digit", xkb.KeyAt, "@"},
		{"keypad digit", xkb.KeyKP5, "5"},
		{"meta shares the alt glyph", xkb.KeyMetaL, "⎇"},
		{"right meta", xkb.KeyMetaR, "⎇"},
		{"no symbol", xkb.NoSymbol, ""},
		{"volume key", xkb.KeyAudioMute, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, For(tt.sym))
		})
	}
}

func TestIsModifierKey(t *testing.T) {
	modifiers := []xkb.Keysym{
		xkb.KeyBackSpace, xkb.KeyReturn, xkb.KeyDelete, xkb.KeyTab, xkb.KeyEscape,
		xkb.KeyShiftL, xkb.KeyControlL, xkb.KeyAltR, xkb.KeySuperL, xkb.KeyCapsLock, xkb.KeyNumLock,
	}
	for _, k := range modifiers {
		assert.True(t, IsModifierKey(k), k.String())
	}

	others := []xkb.Keysym{xkb.Keysym('a'), xkb.KeySpace, xkb.KeyF1, xkb.KeyUp, xkb.KeyInsert, xkb.KeyISOLeftTab}
	for _, k := range others {
		assert.False(t, IsModifierKey(k), k.String())
	}
}

func TestRankOrder(t *testing.T) {
	ordered := []xkb.Keysym{
		xkb.KeyControlL, xkb.KeyAltL, xkb.KeyShiftL, xkb.KeySuperL,
		xkb.KeyCapsLock, xkb.KeyModeSwitch, xkb.KeyEscape, xkb.KeyTab,
		xkb.KeyBackSpace, xkb.KeyReturn, xkb.KeyDelete,
	}
	for i := 1; i < len(ordered); i++ {
		assert.Less(t, Rank(ordered[i-1]), Rank(ordered[i]), "%s before %s", ordered[i-1], ordered[i])
	}
}
