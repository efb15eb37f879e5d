package key

import (
	"strings"

	"github.com/Alia5/macrohook/errs"
)

// Modifier is a set of modifier roles. Equality is set equality.
type Modifier uint8

const (
	ModNone  Modifier = 0
	ModShift Modifier = 1 << (iota - 1)
	ModCtrl
	ModAlt
	ModAltGr
	ModMeta
)

// modifierOrder fixes the String order.
var modifierOrder = []struct {
	mod  Modifier
	name string
}{
	{ModCtrl, "ctrl"},
	{ModAlt, "alt"},
	{ModAltGr, "altgr"},
	{ModShift, "shift"},
	{ModMeta, "meta"},
}

func (m Modifier) Has(mod Modifier) bool {
	return mod != ModNone && m&mod == mod
}

func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

func (m Modifier) Without(mod Modifier) Modifier {
	return m &^ mod
}

// Len returns the number of roles in the set.
func (m Modifier) Len() int {
	n := 0
	for _, o := range modifierOrder {
		if m&o.mod != 0 {
			n++
		}
	}
	return n
}

// String renders the set as "ctrl+alt+shift", or "" for no modifiers.
func (m Modifier) String() string {
	var parts []string
	for _, o := range modifierOrder {
		if m&o.mod != 0 {
			parts = append(parts, o.name)
		}
	}
	return strings.Join(parts, "+")
}

// ParseModifiers parses "ctrl+shift" style sets. Any key name Parse
// understands as a modifier key is accepted, so "lctrl+rshift" works too.
func ParseModifiers(s string) (Modifier, error) {
	var m Modifier
	if strings.TrimSpace(s) == "" {
		return m, nil
	}
	for _, part := range strings.Split(s, "+") {
		k, err := Parse(part)
		if err != nil {
			return ModNone, err
		}
		mod, ok := ModifierOf(k)
		if !ok {
			return ModNone, errs.InvalidArgument("%s is not a modifier", k)
		}
		m |= mod
	}
	return m, nil
}

func (m Modifier) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Modifier) UnmarshalText(b []byte) error {
	v, err := ParseModifiers(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ModifierOf maps left, right and generic modifier keys to their role.
// Right Alt maps to ModAlt; ALTGR only comes from KeyAltGr or from the
// resolver.
func ModifierOf(k Key) (Modifier, bool) {
	switch k {
	case KeyLeftShift, KeyRightShift, KeyShift:
		return ModShift, true
	case KeyLeftCtrl, KeyRightCtrl, KeyCtrl:
		return ModCtrl, true
	case KeyLeftAlt, KeyRightAlt, KeyAlt:
		return ModAlt, true
	case KeyLeftMeta, KeyRightMeta, KeyMeta:
		return ModMeta, true
	case KeyAltGr:
		return ModAltGr, true
	}
	return ModNone, false
}

// Generic returns the generic modifier key for a role.
func (m Modifier) Generic() Key {
	switch m {
	case ModShift:
		return KeyShift
	case ModCtrl:
		return KeyCtrl
	case ModAlt:
		return KeyAlt
	case ModMeta:
		return KeyMeta
	case ModAltGr:
		return KeyAltGr
	}
	return KeyNone
}

// Physical returns the key a backend presses to synthesize the role.
func (m Modifier) Physical() Key {
	switch m {
	case ModShift:
		return KeyLeftShift
	case ModCtrl:
		return KeyLeftCtrl
	case ModAlt:
		return KeyLeftAlt
	case ModMeta:
		return KeyLeftMeta
	case ModAltGr:
		return KeyRightAlt
	}
	return KeyNone
}

// Roles splits the set into single roles in String order.
func (m Modifier) Roles() []Modifier {
	var out []Modifier
	for _, o := range modifierOrder {
		if m&o.mod != 0 {
			out = append(out, o.mod)
		}
	}
	return out
}

// Lock is a set of lock indicators, independent of Modifier.
type Lock uint8

const (
	LockNone   Lock = 0
	NumLock    Lock = 0x01
	CapsLock   Lock = 0x02
	ScrollLock Lock = 0x04
)

func (l Lock) Has(lock Lock) bool {
	return lock != LockNone && l&lock == lock
}

func (l Lock) With(lock Lock) Lock {
	return l | lock
}

func (l Lock) Without(lock Lock) Lock {
	return l &^ lock
}

func (l Lock) String() string {
	var parts []string
	if l&NumLock != 0 {
		parts = append(parts, "numlock")
	}
	if l&CapsLock != 0 {
		parts = append(parts, "capslock")
	}
	if l&ScrollLock != 0 {
		parts = append(parts, "scrolllock")
	}
	return strings.Join(parts, "+")
}

// LockOf maps a lock key to its indicator.
func LockOf(k Key) (Lock, bool) {
	switch k {
	case KeyNumLock:
		return NumLock, true
	case KeyCapsLock:
		return CapsLock, true
	case KeyScrollLock:
		return ScrollLock, true
	}
	return LockNone, false
}
