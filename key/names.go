package key

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Alia5/macrohook/errs"
)

// names maps keys to human-readable names. String and Parse use it.
var names = map[Key]string{
	// Letters
	KeyA: "A", KeyB: "B", KeyC: "C", KeyD: "D", KeyE: "E", KeyF: "F", KeyG: "G",
	KeyH: "H", KeyI: "I", KeyJ: "J", KeyK: "K", KeyL: "L", KeyM: "M", KeyN: "N",
	KeyO: "O", KeyP: "P", KeyQ: "Q", KeyR: "R", KeyS: "S", KeyT: "T", KeyU: "U",
	KeyV: "V", KeyW: "W", KeyX: "X", KeyY: "Y", KeyZ: "Z",

	// Numbers
	Key1: "1", Key2: "2", Key3: "3", Key4: "4", Key5: "5",
	Key6: "6", Key7: "7", Key8: "8", Key9: "9", Key0: "0",

	// Special keys
	KeyEsc:        "Escape",
	KeyEnter:      "Enter",
	KeyBackspace:  "Backspace",
	KeyTab:        "Tab",
	KeySpace:      "Space",
	KeyMinus:      "Minus",
	KeyEqual:      "Equal",
	KeyLeftBrace:  "LeftBrace",
	KeyRightBrace: "RightBrace",
	KeyBackslash:  "Backslash",
	KeySemicolon:  "Semicolon",
	KeyApostrophe: "Apostrophe",
	KeyGrave:      "Grave",
	KeyComma:      "Comma",
	KeyDot:        "Dot",
	KeySlash:      "Slash",
	Key102nd:      "102nd",
	KeyCapsLock:   "CapsLock",
	KeyCompose:    "Compose",

	// Modifiers
	KeyLeftShift:  "LeftShift",
	KeyRightShift: "RightShift",
	KeyLeftCtrl:   "LeftCtrl",
	KeyRightCtrl:  "RightCtrl",
	KeyLeftAlt:    "LeftAlt",
	KeyRightAlt:   "RightAlt",
	KeyLeftMeta:   "LeftMeta",
	KeyRightMeta:  "RightMeta",
	KeyShift:      "Shift",
	KeyCtrl:       "Ctrl",
	KeyAlt:        "Alt",
	KeyMeta:       "Meta",
	KeyAltGr:      "AltGr",

	// Function keys
	KeyF1: "F1", KeyF2: "F2", KeyF3: "F3", KeyF4: "F4", KeyF5: "F5", KeyF6: "F6",
	KeyF7: "F7", KeyF8: "F8", KeyF9: "F9", KeyF10: "F10", KeyF11: "F11", KeyF12: "F12",
	KeyF13: "F13", KeyF14: "F14", KeyF15: "F15", KeyF16: "F16", KeyF17: "F17", KeyF18: "F18",
	KeyF19: "F19", KeyF20: "F20", KeyF21: "F21", KeyF22: "F22", KeyF23: "F23", KeyF24: "F24",

	// Control keys
	KeySysRq:      "SysRq",
	KeyScrollLock: "ScrollLock",
	KeyPause:      "Pause",
	KeyInsert:     "Insert",
	KeyHome:       "Home",
	KeyPageUp:     "PageUp",
	KeyDelete:     "Delete",
	KeyEnd:        "End",
	KeyPageDown:   "PageDown",

	// Arrow keys
	KeyRight: "Right",
	KeyLeft:  "Left",
	KeyDown:  "Down",
	KeyUp:    "Up",

	// Numpad
	KeyNumLock:    "NumLock",
	KeyKpSlash:    "Kp/",
	KeyKpAsterisk: "Kp*",
	KeyKpMinus:    "Kp-",
	KeyKpPlus:     "Kp+",
	KeyKpEnter:    "KpEnter",
	KeyKpEqual:    "Kp=",
	KeyKpComma:    "Kp,",
	KeyKp1:        "Kp1",
	KeyKp2:        "Kp2",
	KeyKp3:        "Kp3",
	KeyKp4:        "Kp4",
	KeyKp5:        "Kp5",
	KeyKp6:        "Kp6",
	KeyKp7:        "Kp7",
	KeyKp8:        "Kp8",
	KeyKp9:        "Kp9",
	KeyKp0:        "Kp0",
	KeyKpDot:      "Kp.",

	// Media
	KeyMute:         "Mute",
	KeyVolumeUp:     "VolumeUp",
	KeyVolumeDown:   "VolumeDown",
	KeyPower:        "Power",
	KeyPlayPause:    "PlayPause",
	KeyStopCD:       "MediaStop",
	KeyNextSong:     "MediaNext",
	KeyPreviousSong: "MediaPrevious",

	// Buttons
	BtnLeft:    "BtnLeft",
	BtnRight:   "BtnRight",
	BtnMiddle:  "BtnMiddle",
	BtnSide:    "BtnSide",
	BtnExtra:   "BtnExtra",
	BtnForward: "BtnForward",
	BtnBack:    "BtnBack",
	BtnTask:    "BtnTask",
}

// aliases are extra lowercase spellings accepted by Parse.
var aliases = map[string]Key{
	"esc":       KeyEsc,
	"return":    KeyEnter,
	"ret":       KeyEnter,
	"bs":        KeyBackspace,
	"del":       KeyDelete,
	"ins":       KeyInsert,
	"pgup":      KeyPageUp,
	"pgdn":      KeyPageDown,
	"period":    KeyDot,
	"menu":      KeyCompose,
	"print":     KeySysRq,
	"lshift":    KeyLeftShift,
	"rshift":    KeyRightShift,
	"lctrl":     KeyLeftCtrl,
	"rctrl":     KeyRightCtrl,
	"control":   KeyCtrl,
	"lalt":      KeyLeftAlt,
	"ralt":      KeyRightAlt,
	"option":    KeyAlt,
	"lmeta":     KeyLeftMeta,
	"rmeta":     KeyRightMeta,
	"super":     KeyMeta,
	"win":       KeyMeta,
	"cmd":       KeyMeta,
	"altgraph":  KeyAltGr,
	"mouseleft": BtnLeft,
	"lmb":       BtnLeft,
	"rmb":       BtnRight,
	"mmb":       BtnMiddle,
}

// punctuation maps single printable characters of the US layout to keys so
// that "ctrl+/" parses.
var punctuation = map[rune]Key{
	' ': KeySpace, '-': KeyMinus, '=': KeyEqual, '[': KeyLeftBrace, ']': KeyRightBrace,
	'\\': KeyBackslash, ';': KeySemicolon, '\'': KeyApostrophe, '`': KeyGrave,
	',': KeyComma, '.': KeyDot, '/': KeySlash,
}

var byName = func() map[string]Key {
	m := make(map[string]Key, len(names)+len(aliases))
	for k, n := range names {
		m[strings.ToLower(n)] = k
	}
	for n, k := range aliases {
		m[n] = k
	}
	return m
}()

// String returns the key name, or a numeric form for unnamed codes.
func (k Key) String() string {
	if n, ok := names[k]; ok {
		return n
	}
	return "Key(" + strconv.Itoa(int(k)) + ")"
}

// Parse resolves a key name case-insensitively. Aliases such as "esc" or
// "lctrl", single punctuation characters and numeric codes ("0x1e", "30")
// are accepted.
func Parse(s string) (Key, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return KeyNone, errs.InvalidArgument("empty key name")
	}
	if k, ok := byName[strings.ToLower(t)]; ok {
		return k, nil
	}
	if utf8.RuneCountInString(t) == 1 {
		r, _ := utf8.DecodeRuneInString(t)
		if k, ok := punctuation[r]; ok {
			return k, nil
		}
	}
	if n, err := strconv.ParseUint(t, 0, 16); err == nil && n > 0 {
		return Key(n), nil
	}
	return KeyNone, errs.InvalidArgument("unknown key %q", s)
}

// MustParse is Parse for static tables. It panics on error.
func MustParse(s string) Key {
	k, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("key.MustParse: %v", err))
	}
	return k
}

// All returns every named key sorted by code.
func All() []Key {
	out := make([]Key, 0, len(names))
	for k := range names {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func (k Key) MarshalText() ([]byte, error) {
	if n, ok := names[k]; ok {
		return []byte(n), nil
	}
	return []byte(strconv.Itoa(int(k))), nil
}

func (k *Key) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
