// Package xhotkey claims hotkeys through the desktop's own hotkey API
// (X11 or Cocoa) and injects keys with keybd_event. It sees nothing but the
// claimed chords: a hook receives the press and release of each grabbed
// hotkey and no other input.
package xhotkey

import (
	"slices"

	"github.com/Alia5/macrohook/backend"
	"github.com/Alia5/macrohook/event"
	"github.com/Alia5/macrohook/key"
	"github.com/Alia5/macrohook/keymap"
)

// chordRaw is the raw event a fired hotkey is reported as: the trigger key
// with the left modifier keys of its roles held.
func chordRaw(hk event.HotKey, pressed bool) backend.Raw {
	var held []keymap.Code
	for _, r := range hk.Modifiers.Roles() {
		held = append(held, keymap.Code(r.Physical()))
	}
	if pressed {
		held = append(held, keymap.Code(hk.Key))
	}
	slices.Sort(held)
	return backend.Raw{
		Source:  "hotkey",
		Code:    keymap.Code(hk.Key),
		Key:     hk.Key,
		Pressed: pressed,
		Held:    held,
	}
}

// modState tracks injected modifier keys. keybd_event applies modifiers as
// flags on the next key, so they are latched here instead of sent.
type modState struct {
	held []key.Key
}

// update records k if it is a modifier and reports whether it was one.
func (m *modState) update(k key.Key, pressed bool) bool {
	if _, ok := key.ModifierOf(k); !ok {
		return false
	}
	if pressed {
		if !slices.Contains(m.held, k) {
			m.held = append(m.held, k)
		}
	} else {
		m.held = slices.DeleteFunc(m.held, func(h key.Key) bool { return h == k })
	}
	return true
}

func (m *modState) mask() key.Modifier {
	var out key.Modifier
	for _, k := range m.held {
		role, _ := key.ModifierOf(k)
		out = out.With(role)
	}
	return out
}
