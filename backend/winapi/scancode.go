// Package winapi is the Windows backend: low-level keyboard and mouse hooks,
// SendInput injection, layouts read with ToUnicodeEx and window management
// through user32.
//
// Keys are identified by their set-1 scan codes, which coincide with evdev
// codes for the main block. Layouts therefore stay keyed by physical
// position, as on every other backend.
package winapi

import (
	"github.com/Alia5/macrohook/key"
	"github.com/Alia5/macrohook/keymap"
)

// E0-prefixed scan codes and the keys they denote.
var extendedKeys = map[uint16]key.Key{
	0x1c: key.KeyKpEnter,
	0x1d: key.KeyRightCtrl,
	0x35: key.KeyKpSlash,
	0x37: key.KeySysRq,
	0x38: key.KeyRightAlt,
	0x47: key.KeyHome,
	0x48: key.KeyUp,
	0x49: key.KeyPageUp,
	0x4b: key.KeyLeft,
	0x4d: key.KeyRight,
	0x4f: key.KeyEnd,
	0x50: key.KeyDown,
	0x51: key.KeyPageDown,
	0x52: key.KeyInsert,
	0x53: key.KeyDelete,
	0x5b: key.KeyLeftMeta,
	0x5c: key.KeyRightMeta,
	0x5d: key.KeyCompose,
}

var extendedScans = func() map[key.Key]uint16 {
	m := make(map[key.Key]uint16, len(extendedKeys))
	for sc, k := range extendedKeys {
		m[k] = sc
	}
	return m
}()

// maxPlainScan is the last scan code whose evdev code is the scan code
// itself.
const maxPlainScan = 0x58

// keyOfScan maps a hook scan code to a key. KeyNone means unknown.
func keyOfScan(scan uint16, extended bool) key.Key {
	if extended {
		return extendedKeys[scan]
	}
	if scan == 0 || scan > maxPlainScan {
		return key.KeyNone
	}
	return key.Key(scan)
}

// scanOf is the inverse of keyOfScan.
func scanOf(k key.Key) (scan uint16, extended bool, ok bool) {
	if sc, ok := extendedScans[k]; ok {
		return sc, true, true
	}
	if k > key.KeyNone && k <= maxPlainScan {
		// KeyPause has no single scan code; it goes through its virtual key.
		return uint16(k), false, true
	}
	return 0, false, false
}

// Virtual keys used directly.
const (
	vkLButton  = 0x01
	vkRButton  = 0x02
	vkMButton  = 0x04
	vkXButton1 = 0x05
	vkXButton2 = 0x06
	vkShift    = 0x10
	vkControl  = 0x11
	vkMenu     = 0x12
	vkPause    = 0x13
	vkCapital  = 0x14
	vkNumLock  = 0x90
	vkScroll   = 0x91
	vkLShift   = 0xa0
	vkRShift   = 0xa1
	vkLControl = 0xa2
	vkRControl = 0xa3
	vkLMenu    = 0xa4
	vkRMenu    = 0xa5
	vkLWin     = 0x5b
	vkRWin     = 0x5c
)

// modifierVKs are polled to rebuild the held modifier codes.
var modifierVKs = []struct {
	vk  int
	key key.Key
}{
	{vkLShift, key.KeyLeftShift},
	{vkRShift, key.KeyRightShift},
	{vkLControl, key.KeyLeftCtrl},
	{vkRControl, key.KeyRightCtrl},
	{vkLMenu, key.KeyLeftAlt},
	{vkRMenu, key.KeyRightAlt},
	{vkLWin, key.KeyLeftMeta},
	{vkRWin, key.KeyRightMeta},
}

func buttonVK(b key.Key) (int, bool) {
	switch b {
	case key.BtnLeft:
		return vkLButton, true
	case key.BtnRight:
		return vkRButton, true
	case key.BtnMiddle:
		return vkMButton, true
	case key.BtnSide:
		return vkXButton1, true
	case key.BtnExtra:
		return vkXButton2, true
	}
	return 0, false
}

// Spacing accents reported by ToUnicodeEx for dead keys.
var deadSymbols = map[rune]keymap.Symbol{
	'`':  keymap.SymDeadGrave,
	'´':  keymap.SymDeadAcute,
	'\'': keymap.SymDeadAcute,
	'^':  keymap.SymDeadCircumflex,
	'~':  keymap.SymDeadTilde,
}

// charLookup asks the system layout which character a key types. dead is set
// for dead keys, ok is false when the key types nothing.
type charLookup func(scan uint16, shift, altGr bool) (r rune, dead, ok bool)

// buildLayout fills the printable keys of the main block from lookup. The
// other keys come from the US layout. Levels follow the usual order: plain,
// shift, plain, shift, altgr, shift+altgr.
func buildLayout(name string, lookup charLookup) *keymap.Layout {
	entries := keymap.US().Table.Entries()
	hasAltGr := false

	symbol := func(scan uint16, shift, altGr bool) keymap.Symbol {
		r, dead, ok := lookup(scan, shift, altGr)
		switch {
		case !ok:
			return keymap.NoSymbol
		case dead:
			if s, ok := deadSymbols[r]; ok {
				return s
			}
			return keymap.NoSymbol
		}
		return keymap.SymbolOf(r)
	}

	for scan := uint16(1); scan <= maxPlainScan; scan++ {
		c := keymap.Code(scan)
		cur := entries[c]
		if len(cur) > 0 {
			if _, printable := keymap.Printable(cur[0]); !printable && !isDeadOrNone(cur[0]) {
				continue
			}
		}
		plain := symbol(scan, false, false)
		if plain == keymap.NoSymbol {
			continue
		}
		syms := []keymap.Symbol{plain, symbol(scan, true, false)}
		ag, agShift := symbol(scan, false, true), symbol(scan, true, true)
		if ag != keymap.NoSymbol || agShift != keymap.NoSymbol {
			hasAltGr = true
			syms = append(syms, syms[0], syms[1], ag, agShift)
		}
		for len(syms) > 1 && syms[len(syms)-1] == keymap.NoSymbol {
			syms = syms[:len(syms)-1]
		}
		entries[c] = syms
	}

	roles := keymap.HIDRoles()
	if hasAltGr {
		entries[keymap.Code(key.KeyRightAlt)] = []keymap.Symbol{keymap.SymISOLevel3Shift}
		roles.ModMasks[key.ModAlt] = keymap.HIDLeftAlt
		roles.ModMasks[key.ModAltGr] = keymap.HIDRightAlt
		roles.ModCodes[key.ModAlt] = []keymap.Code{keymap.Code(key.KeyLeftAlt)}
		roles.ModCodes[key.ModAltGr] = []keymap.Code{keymap.Code(key.KeyRightAlt)}
	}
	return keymap.New(name, keymap.NewTable(entries), roles)
}

func isDeadOrNone(s keymap.Symbol) bool {
	switch s {
	case keymap.NoSymbol, keymap.SymDeadGrave, keymap.SymDeadAcute, keymap.SymDeadCircumflex, keymap.SymDeadTilde:
		return true
	}
	return false
}
