//go:build darwin && cgo

package xhotkey

import (
	"golang.design/x/hotkey"

	"github.com/Alia5/macrohook/key"
)

var hotkeyModifiers = map[key.Modifier]hotkey.Modifier{
	key.ModCtrl:  hotkey.ModCtrl,
	key.ModShift: hotkey.ModShift,
	key.ModAlt:   hotkey.ModOption,
	key.ModMeta:  hotkey.ModCmd,
}

// macKeys are the Carbon virtual key codes, which are positional like evdev
// codes.
var macKeys = map[key.Key]uint8{
	key.KeyA: 0x00, key.KeyS: 0x01, key.KeyD: 0x02, key.KeyF: 0x03,
	key.KeyH: 0x04, key.KeyG: 0x05, key.KeyZ: 0x06, key.KeyX: 0x07,
	key.KeyC: 0x08, key.KeyV: 0x09, key.KeyB: 0x0b, key.KeyQ: 0x0c,
	key.KeyW: 0x0d, key.KeyE: 0x0e, key.KeyR: 0x0f, key.KeyY: 0x10,
	key.KeyT: 0x11, key.Key1: 0x12, key.Key2: 0x13, key.Key3: 0x14,
	key.Key4: 0x15, key.Key6: 0x16, key.Key5: 0x17, key.KeyEqual: 0x18,
	key.Key9: 0x19, key.Key7: 0x1a, key.KeyMinus: 0x1b, key.Key8: 0x1c,
	key.Key0: 0x1d, key.KeyRightBrace: 0x1e, key.KeyO: 0x1f, key.KeyU: 0x20,
	key.KeyLeftBrace: 0x21, key.KeyI: 0x22, key.KeyP: 0x23, key.KeyEnter: 0x24,
	key.KeyL: 0x25, key.KeyJ: 0x26, key.KeyApostrophe: 0x27, key.KeyK: 0x28,
	key.KeySemicolon: 0x29, key.KeyBackslash: 0x2a, key.KeyComma: 0x2b, key.KeySlash: 0x2c,
	key.KeyN: 0x2d, key.KeyM: 0x2e, key.KeyDot: 0x2f, key.KeyTab: 0x30,
	key.KeySpace: 0x31, key.KeyGrave: 0x32, key.KeyBackspace: 0x33, key.KeyEsc: 0x35,
	key.KeyF1: 0x7a, key.KeyF2: 0x78, key.KeyF3: 0x63, key.KeyF4: 0x76,
	key.KeyF5: 0x60, key.KeyF6: 0x61, key.KeyF7: 0x62, key.KeyF8: 0x64,
	key.KeyF9: 0x65, key.KeyF10: 0x6d, key.KeyF11: 0x67, key.KeyF12: 0x6f,
	key.KeyHome: 0x73, key.KeyPageUp: 0x74, key.KeyDelete: 0x75, key.KeyEnd: 0x77,
	key.KeyPageDown: 0x79, key.KeyLeft: 0x7b, key.KeyRight: 0x7c, key.KeyDown: 0x7d,
	key.KeyUp: 0x7e,
}

func hotkeyKey(k key.Key) (hotkey.Key, bool) {
	c, ok := macKeys[k]
	return hotkey.Key(c), ok
}

func virtualKey(k key.Key) (int, bool) {
	c, ok := macKeys[k]
	return int(c), ok
}
