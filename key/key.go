// Package key defines the canonical identifiers for keys, buttons, modifier
// roles and lock indicators.
//
// Key values are the Linux input-event codes (KEY_* and BTN_*). They are
// stable across platforms; backends that deliver other device codes translate
// them at their boundary.
package key

// Key identifies a physical key or pointer button.
type Key uint16

// KeyMax is the highest input-event code. Generic modifier keys live above it.
const KeyMax Key = 0x2ff

const (
	KeyNone       Key = 0
	KeyEsc        Key = 1
	Key1          Key = 2
	Key2          Key = 3
	Key3          Key = 4
	Key4          Key = 5
	Key5          Key = 6
	Key6          Key = 7
	Key7          Key = 8
	Key8          Key = 9
	Key9          Key = 10
	Key0          Key = 11
	KeyMinus      Key = 12
	KeyEqual      Key = 13
	KeyBackspace  Key = 14
	KeyTab        Key = 15
	KeyQ          Key = 16
	KeyW          Key = 17
	KeyE          Key = 18
	KeyR          Key = 19
	KeyT          Key = 20
	KeyY          Key = 21
	KeyU          Key = 22
	KeyI          Key = 23
	KeyO          Key = 24
	KeyP          Key = 25
	KeyLeftBrace  Key = 26 // [ and {
	KeyRightBrace Key = 27 // ] and }
	KeyEnter      Key = 28
	KeyLeftCtrl   Key = 29
	KeyA          Key = 30
	KeyS          Key = 31
	KeyD          Key = 32
	KeyF          Key = 33
	KeyG          Key = 34
	KeyH          Key = 35
	KeyJ          Key = 36
	KeyK          Key = 37
	KeyL          Key = 38
	KeySemicolon  Key = 39
	KeyApostrophe Key = 40
	KeyGrave      Key = 41
	KeyLeftShift  Key = 42
	KeyBackslash  Key = 43
	KeyZ          Key = 44
	KeyX          Key = 45
	KeyC          Key = 46
	KeyV          Key = 47
	KeyB          Key = 48
	KeyN          Key = 49
	KeyM          Key = 50
	KeyComma      Key = 51
	KeyDot        Key = 52
	KeySlash      Key = 53
	KeyRightShift Key = 54
	KeyKpAsterisk Key = 55
	KeyLeftAlt    Key = 56
	KeySpace      Key = 57
	KeyCapsLock   Key = 58
	KeyF1         Key = 59
	KeyF2         Key = 60
	KeyF3         Key = 61
	KeyF4         Key = 62
	KeyF5         Key = 63
	KeyF6         Key = 64
	KeyF7         Key = 65
	KeyF8         Key = 66
	KeyF9         Key = 67
	KeyF10        Key = 68
	KeyNumLock    Key = 69
	KeyScrollLock Key = 70
	KeyKp7        Key = 71
	KeyKp8        Key = 72
	KeyKp9        Key = 73
	KeyKpMinus    Key = 74
	KeyKp4        Key = 75
	KeyKp5        Key = 76
	KeyKp6        Key = 77
	KeyKpPlus     Key = 78
	KeyKp1        Key = 79
	KeyKp2        Key = 80
	KeyKp3        Key = 81
	KeyKp0        Key = 82
	KeyKpDot      Key = 83
	Key102nd      Key = 86 // Non-US \ and |
	KeyF11        Key = 87
	KeyF12        Key = 88
	KeyKpEnter    Key = 96
	KeyRightCtrl  Key = 97
	KeyKpSlash    Key = 98
	KeySysRq      Key = 99
	KeyRightAlt   Key = 100
	KeyHome       Key = 102
	KeyUp         Key = 103
	KeyPageUp     Key = 104
	KeyLeft       Key = 105
	KeyRight      Key = 106
	KeyEnd        Key = 107
	KeyDown       Key = 108
	KeyPageDown   Key = 109
	KeyInsert     Key = 110
	KeyDelete     Key = 111
	KeyMute       Key = 113
	KeyVolumeDown Key = 114
	KeyVolumeUp   Key = 115
	KeyPower      Key = 116
	KeyKpEqual    Key = 117
	KeyPause      Key = 119
	KeyKpComma    Key = 121
	KeyLeftMeta   Key = 125 // Windows/Command key
	KeyRightMeta  Key = 126
	KeyCompose    Key = 127 // Application (menu) key

	KeyNextSong     Key = 163
	KeyPlayPause    Key = 164
	KeyPreviousSong Key = 165
	KeyStopCD       Key = 166

	KeyF13 Key = 183
	KeyF14 Key = 184
	KeyF15 Key = 185
	KeyF16 Key = 186
	KeyF17 Key = 187
	KeyF18 Key = 188
	KeyF19 Key = 189
	KeyF20 Key = 190
	KeyF21 Key = 191
	KeyF22 Key = 192
	KeyF23 Key = 193
	KeyF24 Key = 194
)

// Pointer buttons.
const (
	BtnLeft    Key = 0x110
	BtnRight   Key = 0x111
	BtnMiddle  Key = 0x112
	BtnSide    Key = 0x113
	BtnExtra   Key = 0x114
	BtnForward Key = 0x115
	BtnBack    Key = 0x116
	BtnTask    Key = 0x117
)

// Generic modifier keys. Left and right variants normalize to these.
const (
	KeyShift Key = KeyMax + 1 + iota
	KeyCtrl
	KeyAlt
	KeyMeta
	KeyAltGr // ISO level 3 shift
)

// IsButton reports whether k is a pointer button.
func (k Key) IsButton() bool {
	return k >= BtnLeft && k <= BtnTask
}

// IsGeneric reports whether k is one of the generic modifier keys.
func (k Key) IsGeneric() bool {
	return k > KeyMax && k <= KeyAltGr
}

// IsKeypad reports whether k sits on the numeric keypad.
func (k Key) IsKeypad() bool {
	switch k {
	case KeyKp0, KeyKp1, KeyKp2, KeyKp3, KeyKp4, KeyKp5, KeyKp6, KeyKp7, KeyKp8, KeyKp9,
		KeyKpDot, KeyKpAsterisk, KeyKpMinus, KeyKpPlus, KeyKpSlash, KeyKpEnter, KeyKpEqual, KeyKpComma:
		return true
	}
	return false
}
