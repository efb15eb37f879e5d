//go:build linux && cgo

package xhotkey

import (
	"golang.design/x/hotkey"

	"github.com/Alia5/macrohook/key"
	"github.com/Alia5/macrohook/keymap"
)

var hotkeyModifiers = map[key.Modifier]hotkey.Modifier{
	key.ModCtrl:  hotkey.ModCtrl,
	key.ModShift: hotkey.ModShift,
	key.ModAlt:   hotkey.Mod1,
	key.ModMeta:  hotkey.Mod4,
}

// hotkeyKey returns the X keysym of k's unshifted US symbol.
func hotkeyKey(k key.Key) (hotkey.Key, bool) {
	syms := keymap.US().Table.Candidates(keymap.Code(k))
	if len(syms) == 0 || syms[0] == keymap.NoSymbol || syms[0] > 0xffff {
		return 0, false
	}
	return hotkey.Key(syms[0]), true
}

// virtualKey returns the keybd_event code of k, which on Linux is the evdev
// code.
func virtualKey(k key.Key) (int, bool) {
	if k == key.KeyNone || k > key.KeyMax || k.IsButton() {
		return 0, false
	}
	return int(k), true
}
