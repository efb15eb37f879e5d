package keymap

import (
	"maps"
	"slices"

	"github.com/Alia5/macrohook/key"
)

// HID modifier byte bits, as found in byte 0 of a boot keyboard report.
const (
	HIDLeftCtrl   = 0x01
	HIDLeftShift  = 0x02
	HIDLeftAlt    = 0x04
	HIDLeftGUI    = 0x08 // Windows/Command key
	HIDRightCtrl  = 0x10
	HIDRightShift = 0x20
	HIDRightAlt   = 0x40
	HIDRightGUI   = 0x80
)

// HID LED output report bits.
const (
	LEDNumLock    = 0x01
	LEDCapsLock   = 0x02
	LEDScrollLock = 0x04
	LEDCompose    = 0x08
	LEDKana       = 0x10
)

// HIDState packs a HID modifier byte and LED byte into the raw state word
// understood by HIDRoles: modifiers in bits 0-7, LEDs in bits 8-15.
func HIDState(modifiers, leds uint8) uint32 {
	return uint32(modifiers) | uint32(leds)<<8
}

// LocksFromLEDs converts a HID LED byte to a lock set.
func LocksFromLEDs(leds uint8) key.Lock {
	var l key.Lock
	if leds&LEDNumLock != 0 {
		l |= key.NumLock
	}
	if leds&LEDCapsLock != 0 {
		l |= key.CapsLock
	}
	if leds&LEDScrollLock != 0 {
		l |= key.ScrollLock
	}
	return l
}

// LEDsFromLocks is the inverse of LocksFromLEDs.
func LEDsFromLocks(l key.Lock) uint8 {
	var b uint8
	if l.Has(key.NumLock) {
		b |= LEDNumLock
	}
	if l.Has(key.CapsLock) {
		b |= LEDCapsLock
	}
	if l.Has(key.ScrollLock) {
		b |= LEDScrollLock
	}
	return b
}

// Roles maps raw state bits and device codes to modifier and lock roles.
//
// When ModMasks (or ModCodes) has no ALTGR entry, ALTGR is synthesized from
// the left-CTRL and right-ALT entries.
type Roles struct {
	ModMasks     map[key.Modifier]uint32
	LockMasks    map[key.Lock]uint32
	LeftCtrlMask uint32
	RightAltMask uint32

	ModCodes     map[key.Modifier][]Code
	LockCodes    map[key.Lock][]Code
	LeftCtrlCode Code
	RightAltCode Code
}

// Clone returns a deep copy so a derived layout can adjust roles.
func (r *Roles) Clone() *Roles {
	if r == nil {
		return nil
	}
	out := *r
	out.ModMasks = maps.Clone(r.ModMasks)
	out.LockMasks = maps.Clone(r.LockMasks)
	out.ModCodes = make(map[key.Modifier][]Code, len(r.ModCodes))
	for m, c := range r.ModCodes {
		out.ModCodes[m] = slices.Clone(c)
	}
	out.LockCodes = make(map[key.Lock][]Code, len(r.LockCodes))
	for l, c := range r.LockCodes {
		out.LockCodes[l] = slices.Clone(c)
	}
	return &out
}

// ModifierCodes returns the device codes a backend presses, in order, to
// synthesize mod: the first code registered for the role, or the left-CTRL
// and right-ALT pair for a synthesized ALTGR.
func (r *Roles) ModifierCodes(mod key.Modifier) ([]Code, bool) {
	if r == nil {
		return nil, false
	}
	if codes := r.ModCodes[mod]; len(codes) > 0 {
		return codes[:1:1], true
	}
	if mod == key.ModAltGr && r.LeftCtrlCode != 0 && r.RightAltCode != 0 {
		return []Code{r.LeftCtrlCode, r.RightAltCode}, true
	}
	return nil, false
}

// HIDRoles describes evdev device codes together with the HID-style raw
// state word built by HIDState.
func HIDRoles() *Roles {
	return &Roles{
		ModMasks: map[key.Modifier]uint32{
			key.ModShift: HIDLeftShift | HIDRightShift,
			key.ModCtrl:  HIDLeftCtrl | HIDRightCtrl,
			key.ModAlt:   HIDLeftAlt | HIDRightAlt,
			key.ModMeta:  HIDLeftGUI | HIDRightGUI,
		},
		LockMasks: map[key.Lock]uint32{
			key.NumLock:    LEDNumLock << 8,
			key.CapsLock:   LEDCapsLock << 8,
			key.ScrollLock: LEDScrollLock << 8,
		},
		LeftCtrlMask: HIDLeftCtrl,
		RightAltMask: HIDRightAlt,

		ModCodes: map[key.Modifier][]Code{
			key.ModShift: {Code(key.KeyLeftShift), Code(key.KeyRightShift)},
			key.ModCtrl:  {Code(key.KeyLeftCtrl), Code(key.KeyRightCtrl)},
			key.ModAlt:   {Code(key.KeyLeftAlt), Code(key.KeyRightAlt)},
			key.ModMeta:  {Code(key.KeyLeftMeta), Code(key.KeyRightMeta)},
		},
		LockCodes: map[key.Lock][]Code{
			key.NumLock:    {Code(key.KeyNumLock)},
			key.CapsLock:   {Code(key.KeyCapsLock)},
			key.ScrollLock: {Code(key.KeyScrollLock)},
		},
		LeftCtrlCode: Code(key.KeyLeftCtrl),
		RightAltCode: Code(key.KeyRightAlt),
	}
}

// level3Roles turns the right Alt key into a dedicated ALTGR key, as ISO
// layouts do.
func level3Roles() *Roles {
	r := HIDRoles()
	r.ModMasks[key.ModAlt] = HIDLeftAlt
	r.ModMasks[key.ModAltGr] = HIDRightAlt
	r.ModCodes[key.ModAlt] = []Code{Code(key.KeyLeftAlt)}
	r.ModCodes[key.ModAltGr] = []Code{Code(key.KeyRightAlt)}
	return r
}
