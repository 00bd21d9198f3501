package xkb

import (
	"errors"
	"fmt"
)

// ErrUnknownLayout is returned when a keymap cannot be compiled from the
// given rule names.
var ErrUnknownLayout = errors.New("unknown keyboard layout")

// RuleNames selects a keyboard description the way XKB rule names do.
type RuleNames struct {
	Rules   string
	Model   string
	Layout  string
	Variant string
	Options string
}

// DefaultRuleNames is the description used for empty fields.
var DefaultRuleNames = RuleNames{
	Rules:  "evdev",
	Model:  "pc105",
	Layout: "us",
}

func (n RuleNames) String() string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", n.Rules, n.Model, n.Layout, n.Variant, n.Options)
}

// withDefaults fills empty Rules, Model and Layout from DefaultRuleNames so
// the result never depends on XKB_DEFAULT_* in the environment.
func (n RuleNames) withDefaults() RuleNames {
	if n.Rules == "" {
		n.Rules = DefaultRuleNames.Rules
	}
	if n.Model == "" {
		n.Model = DefaultRuleNames.Model
	}
	if n.Layout == "" {
		n.Layout = DefaultRuleNames.Layout
	}
	return n
}
