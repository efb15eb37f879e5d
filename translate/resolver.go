// Package translate turns raw device state into modifier and lock sets and
// device codes into characters, and back.
package translate

import (
	"slices"

	"github.com/Alia5/macrohook/key"
	"github.com/Alia5/macrohook/keymap"
)

var plainModifiers = []key.Modifier{key.ModShift, key.ModCtrl, key.ModAlt, key.ModMeta}

var locks = []key.Lock{key.NumLock, key.CapsLock, key.ScrollLock}

// ResolveMask decodes a raw state word. A nil roles value resolves to the
// empty sets.
func ResolveMask(mask uint32, roles *keymap.Roles) (key.Modifier, key.Lock) {
	if roles == nil {
		return key.ModNone, 0
	}
	var mods key.Modifier
	for _, m := range plainModifiers {
		if mask&roles.ModMasks[m] != 0 {
			mods |= m
		}
	}
	var lk key.Lock
	for _, l := range locks {
		if mask&roles.LockMasks[l] != 0 {
			lk |= l
		}
	}

	if altgr := roles.ModMasks[key.ModAltGr]; altgr != 0 {
		if mask&altgr != 0 {
			mods |= key.ModAltGr
		}
		return mods, lk
	}

	lc, ra := roles.LeftCtrlMask, roles.RightAltMask
	if lc == 0 || ra == 0 || mask&lc == 0 || mask&ra == 0 {
		return mods, lk
	}
	mods |= key.ModAltGr
	if mask&(roles.ModMasks[key.ModCtrl]&^lc) == 0 {
		mods &^= key.ModCtrl
	}
	if mask&(roles.ModMasks[key.ModAlt]&^ra) == 0 {
		mods &^= key.ModAlt
	}
	return mods, lk
}

// ResolveCodes derives the modifier set from the held device codes. Locks
// come from the LED state only.
func ResolveCodes(held []keymap.Code, leds key.Lock, roles *keymap.Roles) (key.Modifier, key.Lock) {
	if roles == nil {
		return key.ModNone, 0
	}
	anyHeld := func(codes []keymap.Code, except keymap.Code) bool {
		for _, c := range codes {
			if c != except && slices.Contains(held, c) {
				return true
			}
		}
		return false
	}

	var mods key.Modifier
	for _, m := range plainModifiers {
		if anyHeld(roles.ModCodes[m], 0) {
			mods |= m
		}
	}

	if codes := roles.ModCodes[key.ModAltGr]; len(codes) > 0 {
		if anyHeld(codes, 0) {
			mods |= key.ModAltGr
		}
		return mods, leds
	}

	lc, ra := roles.LeftCtrlCode, roles.RightAltCode
	if lc == 0 || ra == 0 || !slices.Contains(held, lc) || !slices.Contains(held, ra) {
		return mods, leds
	}
	mods |= key.ModAltGr
	if !anyHeld(roles.ModCodes[key.ModCtrl], lc) {
		mods &^= key.ModCtrl
	}
	if !anyHeld(roles.ModCodes[key.ModAlt], ra) {
		mods &^= key.ModAlt
	}
	return mods, leds
}
