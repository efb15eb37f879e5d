package event

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/Alia5/macrohook/errs"
	"github.com/Alia5/macrohook/key"
)

// HotKey identifies a hotkey registration. Two HotKeys with the same key and
// modifier set compare equal, so HotKey is usable as a map key.
type HotKey struct {
	Key       key.Key
	Modifiers key.Modifier
}

// NewHotKey builds a HotKey from a trigger key and modifier keys. Left, right
// and generic modifier keys all normalize to their role.
func NewHotKey(k key.Key, mods ...key.Key) (HotKey, error) {
	if k == key.KeyNone {
		return HotKey{}, errs.InvalidArgument("hotkey without a key")
	}
	hk := HotKey{Key: k}
	for _, m := range mods {
		role, ok := key.ModifierOf(m)
		if !ok {
			return HotKey{}, errs.InvalidArgument("%s is not a modifier key", m)
		}
		hk.Modifiers |= role
	}
	return hk, nil
}

func (h HotKey) String() string {
	return key.Chord{Key: h.Key, Modifiers: modifierKeys(h.Modifiers)}.String()
}

func modifierKeys(m key.Modifier) []key.Key {
	var out []key.Key
	for _, r := range m.Roles() {
		out = append(out, r.Generic())
	}
	return out
}

// HotKeyEvent is delivered to a hotkey callback. Every firing gets a fresh
// stamp.
type HotKeyEvent struct {
	HotKey
	Stamp Stamp
}

func (e HotKeyEvent) Time() Stamp { return e.Stamp }

// HotString identifies a hotstring registration by its string and trigger
// set. The trigger set is kept as a sorted, deduplicated string so that
// equality is set equality.
type HotString struct {
	String   string
	triggers string
}

// NewHotString builds a HotString. An empty trigger list means the hotstring
// fires as soon as the string is typed.
func NewHotString(s string, triggers ...rune) (HotString, error) {
	if s == "" {
		return HotString{}, errs.InvalidArgument("empty hotstring")
	}
	t := slices.Clone(triggers)
	slices.Sort(t)
	t = slices.Compact(t)
	for _, r := range t {
		if r == 0 {
			return HotString{}, errs.InvalidArgument("NUL trigger in hotstring %q", s)
		}
		if !utf8.ValidRune(r) {
			return HotString{}, errs.InvalidArgument("invalid trigger %U in hotstring %q", r, s)
		}
	}
	return HotString{String: s, triggers: string(t)}, nil
}

// Triggers returns the trigger characters in ascending order.
func (h HotString) Triggers() []rune {
	return []rune(h.triggers)
}

// HasTriggers reports whether a trigger character must follow the string.
func (h HotString) HasTriggers() bool {
	return h.triggers != ""
}

func (h HotString) HasTrigger(r rune) bool {
	return strings.ContainsRune(h.triggers, r)
}

// HotStringEvent is delivered to a hotstring callback. Trigger is the
// character that completed the match, 0 for hotstrings without triggers.
type HotStringEvent struct {
	HotString
	Trigger rune
	Stamp   Stamp
}

func (e HotStringEvent) Time() Stamp { return e.Stamp }
