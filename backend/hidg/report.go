// Package hidg drives a Linux USB gadget: the machine appears to a host as a
// HID keyboard and mouse, and everything injected here is typed on the host.
// The gadget functions must be configured with ReportDescriptorKeyboard and
// ReportDescriptorMouse.
package hidg

import (
	"io"

	"github.com/Alia5/macrohook/key"
	"github.com/Alia5/macrohook/keymap"
)

// ReportDescriptorKeyboard describes an N-key rollover keyboard: a modifier
// byte, a reserved byte and a 256-bit key bitmap, with a 5-bit LED output
// report.
var ReportDescriptorKeyboard = []byte{
	0x05, 0x01, // Usage Page (Generic Desktop)
	0x09, 0x06, // Usage (Keyboard)
	0xA1, 0x01, // Collection (Application)
	0x05, 0x07, //   Usage Page (Keyboard)
	0x19, 0xE0, //   Usage Minimum (Left Control)
	0x29, 0xE7, //   Usage Maximum (Right GUI)
	0x15, 0x00, //   Logical Minimum (0)
	0x25, 0x01, //   Logical Maximum (1)
	0x75, 0x01, //   Report Size (1)
	0x95, 0x08, //   Report Count (8)
	0x81, 0x02, //   Input (Data, Variable, Absolute)
	0x75, 0x08, //   Report Size (8)
	0x95, 0x01, //   Report Count (1)
	0x81, 0x01, //   Input (Constant)
	0x19, 0x00, //   Usage Minimum (0)
	0x29, 0xFF, //   Usage Maximum (255)
	0x75, 0x01, //   Report Size (1)
	0x96, 0x00, 0x01, // Report Count (256)
	0x81, 0x02, //   Input (Data, Variable, Absolute)
	0x05, 0x08, //   Usage Page (LEDs)
	0x19, 0x01, //   Usage Minimum (Num Lock)
	0x29, 0x05, //   Usage Maximum (Kana)
	0x95, 0x05, //   Report Count (5)
	0x91, 0x02, //   Output (Data, Variable, Absolute)
	0x75, 0x03, //   Report Size (3)
	0x95, 0x01, //   Report Count (1)
	0x91, 0x01, //   Output (Constant)
	0xC0, // End Collection
}

// ReportDescriptorMouse describes a 5-button mouse with 16-bit relative
// axes, a wheel and a horizontal pan.
var ReportDescriptorMouse = []byte{
	0x05, 0x01, // Usage Page (Generic Desktop)
	0x09, 0x02, // Usage (Mouse)
	0xA1, 0x01, // Collection (Application)
	0x09, 0x01, //   Usage (Pointer)
	0xA1, 0x00, //   Collection (Physical)
	0x05, 0x09, //     Usage Page (Button)
	0x19, 0x01, //     Usage Minimum (Button 1)
	0x29, 0x05, //     Usage Maximum (Button 5)
	0x15, 0x00, //     Logical Minimum (0)
	0x25, 0x01, //     Logical Maximum (1)
	0x95, 0x05, //     Report Count (5)
	0x75, 0x01, //     Report Size (1)
	0x81, 0x02, //     Input (Data, Variable, Absolute)
	0x95, 0x01, //     Report Count (1)
	0x75, 0x03, //     Report Size (3)
	0x81, 0x01, //     Input (Constant)
	0x05, 0x01, //     Usage Page (Generic Desktop)
	0x09, 0x30, //     Usage (X)
	0x09, 0x31, //     Usage (Y)
	0x09, 0x38, //     Usage (Wheel)
	0x16, 0x01, 0x80, // Logical Minimum (-32767)
	0x26, 0xFF, 0x7F, // Logical Maximum (32767)
	0x75, 0x10, //     Report Size (16)
	0x95, 0x03, //     Report Count (3)
	0x81, 0x06, //     Input (Data, Variable, Relative)
	0x05, 0x0C, //     Usage Page (Consumer)
	0x0A, 0x38, 0x02, // Usage (AC Pan)
	0x95, 0x01, //     Report Count (1)
	0x81, 0x06, //     Input (Data, Variable, Relative)
	0xC0, //   End Collection
	0xC0, // End Collection
}

const (
	KeyboardReportLen = 34
	MouseReportLen    = 9
)

// HID usage IDs of the keyboard page, indexed by evdev code.
var usages = map[key.Key]uint8{
	key.KeyA: 0x04, key.KeyB: 0x05, key.KeyC: 0x06, key.KeyD: 0x07,
	key.KeyE: 0x08, key.KeyF: 0x09, key.KeyG: 0x0a, key.KeyH: 0x0b,
	key.KeyI: 0x0c, key.KeyJ: 0x0d, key.KeyK: 0x0e, key.KeyL: 0x0f,
	key.KeyM: 0x10, key.KeyN: 0x11, key.KeyO: 0x12, key.KeyP: 0x13,
	key.KeyQ: 0x14, key.KeyR: 0x15, key.KeyS: 0x16, key.KeyT: 0x17,
	key.KeyU: 0x18, key.KeyV: 0x19, key.KeyW: 0x1a, key.KeyX: 0x1b,
	key.KeyY: 0x1c, key.KeyZ: 0x1d,

	key.Key1: 0x1e, key.Key2: 0x1f, key.Key3: 0x20, key.Key4: 0x21,
	key.Key5: 0x22, key.Key6: 0x23, key.Key7: 0x24, key.Key8: 0x25,
	key.Key9: 0x26, key.Key0: 0x27,

	key.KeyEnter: 0x28, key.KeyEsc: 0x29, key.KeyBackspace: 0x2a, key.KeyTab: 0x2b,
	key.KeySpace: 0x2c, key.KeyMinus: 0x2d, key.KeyEqual: 0x2e, key.KeyLeftBrace: 0x2f,
	key.KeyRightBrace: 0x30, key.KeyBackslash: 0x31, key.KeySemicolon: 0x33,
	key.KeyApostrophe: 0x34, key.KeyGrave: 0x35, key.KeyComma: 0x36, key.KeyDot: 0x37,
	key.KeySlash: 0x38, key.KeyCapsLock: 0x39,

	key.KeyF1: 0x3a, key.KeyF2: 0x3b, key.KeyF3: 0x3c, key.KeyF4: 0x3d,
	key.KeyF5: 0x3e, key.KeyF6: 0x3f, key.KeyF7: 0x40, key.KeyF8: 0x41,
	key.KeyF9: 0x42, key.KeyF10: 0x43, key.KeyF11: 0x44, key.KeyF12: 0x45,

	key.KeySysRq: 0x46, key.KeyScrollLock: 0x47, key.KeyPause: 0x48, key.KeyInsert: 0x49,
	key.KeyHome: 0x4a, key.KeyPageUp: 0x4b, key.KeyDelete: 0x4c, key.KeyEnd: 0x4d,
	key.KeyPageDown: 0x4e, key.KeyRight: 0x4f, key.KeyLeft: 0x50, key.KeyDown: 0x51,
	key.KeyUp: 0x52,

	key.KeyNumLock: 0x53, key.KeyKpSlash: 0x54, key.KeyKpAsterisk: 0x55, key.KeyKpMinus: 0x56,
	key.KeyKpPlus: 0x57, key.KeyKpEnter: 0x58, key.KeyKp1: 0x59, key.KeyKp2: 0x5a,
	key.KeyKp3: 0x5b, key.KeyKp4: 0x5c, key.KeyKp5: 0x5d, key.KeyKp6: 0x5e,
	key.KeyKp7: 0x5f, key.KeyKp8: 0x60, key.KeyKp9: 0x61, key.KeyKp0: 0x62,
	key.KeyKpDot: 0x63, key.Key102nd: 0x64, key.KeyCompose: 0x65, key.KeyPower: 0x66,
	key.KeyKpEqual: 0x67, key.KeyKpComma: 0x85,

	key.KeyF13: 0x68, key.KeyF14: 0x69, key.KeyF15: 0x6a, key.KeyF16: 0x6b,
	key.KeyF17: 0x6c, key.KeyF18: 0x6d, key.KeyF19: 0x6e, key.KeyF20: 0x6f,
	key.KeyF21: 0x70, key.KeyF22: 0x71, key.KeyF23: 0x72, key.KeyF24: 0x73,

	key.KeyMute: 0x7f, key.KeyVolumeUp: 0x80, key.KeyVolumeDown: 0x81,
}

// Modifier keys are bits of the first report byte.
var modifierBits = map[key.Key]uint8{
	key.KeyLeftCtrl:   keymap.HIDLeftCtrl,
	key.KeyLeftShift:  keymap.HIDLeftShift,
	key.KeyLeftAlt:    keymap.HIDLeftAlt,
	key.KeyLeftMeta:   keymap.HIDLeftGUI,
	key.KeyRightCtrl:  keymap.HIDRightCtrl,
	key.KeyRightShift: keymap.HIDRightShift,
	key.KeyRightAlt:   keymap.HIDRightAlt,
	key.KeyRightMeta:  keymap.HIDRightGUI,
}

// KeyboardState is the set of keys the gadget reports as held.
type KeyboardState struct {
	Modifiers uint8
	KeyBitmap [32]uint8
}

// Set presses or releases k. It reports false for keys without a HID usage.
func (st *KeyboardState) Set(k key.Key, pressed bool) bool {
	if bit, ok := modifierBits[k]; ok {
		if pressed {
			st.Modifiers |= bit
		} else {
			st.Modifiers &^= bit
		}
		return true
	}
	u, ok := usages[k]
	if !ok {
		return false
	}
	if pressed {
		st.KeyBitmap[u/8] |= 1 << (u % 8)
	} else {
		st.KeyBitmap[u/8] &^= 1 << (u % 8)
	}
	return true
}

func (st *KeyboardState) Held(k key.Key) bool {
	if bit, ok := modifierBits[k]; ok {
		return st.Modifiers&bit != 0
	}
	u, ok := usages[k]
	return ok && st.KeyBitmap[u/8]&(1<<(u%8)) != 0
}

// BuildReport encodes the state as a 34-byte report:
//
//	Byte 0: Modifiers
//	Byte 1: Reserved
//	Bytes 2-33: Key bitmap
func (st KeyboardState) BuildReport() []byte {
	b := make([]byte, KeyboardReportLen)
	b[0] = st.Modifiers
	copy(b[2:], st.KeyBitmap[:])
	return b
}

// ParseLEDReport decodes the host's LED output report.
func ParseLEDReport(data []byte) (key.Lock, error) {
	if len(data) < 1 {
		return 0, io.ErrUnexpectedEOF
	}
	return keymap.LocksFromLEDs(data[0]), nil
}

// MouseState is one mouse report. Deltas are one-shot; buttons persist.
type MouseState struct {
	// bit 0=Left, 1=Right, 2=Middle, 3=Back, 4=Forward
	Buttons uint8
	DX, DY  int16
	Wheel   int16
	Pan     int16
}

func buttonBit(b key.Key) (uint8, bool) {
	switch b {
	case key.BtnLeft:
		return 0x01, true
	case key.BtnRight:
		return 0x02, true
	case key.BtnMiddle:
		return 0x04, true
	case key.BtnSide:
		return 0x08, true
	case key.BtnExtra:
		return 0x10, true
	}
	return 0, false
}

// BuildReport encodes the state as a 9-byte report:
//
//	Byte 0: Buttons
//	Bytes 1-2: DX (int16 little-endian)
//	Bytes 3-4: DY
//	Bytes 5-6: Wheel, positive away from the user
//	Bytes 7-8: Pan
func (m MouseState) BuildReport() []byte {
	b := make([]byte, MouseReportLen)
	b[0] = m.Buttons & 0x1f
	b[1] = byte(m.DX)
	b[2] = byte(m.DX >> 8)
	b[3] = byte(m.DY)
	b[4] = byte(m.DY >> 8)
	b[5] = byte(m.Wheel)
	b[6] = byte(m.Wheel >> 8)
	b[7] = byte(m.Pan)
	b[8] = byte(m.Pan >> 8)
	return b
}

// splitDelta breaks a movement into steps that fit a report.
func splitDelta(d int) []int16 {
	var out []int16
	for d != 0 {
		step := max(min(d, 32767), -32767)
		out = append(out, int16(step))
		d -= step
	}
	return out
}
