package keymap

import (
	"encoding/binary"
	"encoding/hex"
	"slices"

	"golang.org/x/crypto/blake2b"

	"github.com/Alia5/macrohook/key"
)

// Layout is an immutable snapshot of a keyboard layout. Layouts are replaced
// wholesale on reload, never mutated.
type Layout struct {
	Name  string
	Table *Table
	Roles *Roles

	id string
}

// New builds a Layout and computes its fingerprint.
func New(name string, table *Table, roles *Roles) *Layout {
	if table == nil {
		table = NewTable(nil)
	}
	if roles == nil {
		roles = HIDRoles()
	}
	l := &Layout{Name: name, Table: table, Roles: roles}
	l.id = fingerprint(l)
	return l
}

// ID is an opaque fingerprint of the layout contents. Two layouts with equal
// tables and roles have equal IDs.
func (l *Layout) ID() string {
	if l == nil {
		return ""
	}
	return l.id
}

func fingerprint(l *Layout) string {
	h, _ := blake2b.New256(nil)
	var buf [4]byte
	put := func(v uint32) {
		binary.LittleEndian.PutUint32(buf[:], v)
		_, _ = h.Write(buf[:])
	}

	_, _ = h.Write([]byte(l.Name))
	put(0)
	for _, c := range l.Table.sorted {
		put(uint32(c))
		syms := l.Table.codes[c]
		put(uint32(len(syms)))
		for _, s := range syms {
			put(uint32(s))
		}
	}

	r := l.Roles
	mods := []key.Modifier{key.ModShift, key.ModCtrl, key.ModAlt, key.ModAltGr, key.ModMeta}
	for _, m := range mods {
		put(r.ModMasks[m])
		codes := slices.Clone(r.ModCodes[m])
		slices.Sort(codes)
		put(uint32(len(codes)))
		for _, c := range codes {
			put(uint32(c))
		}
	}
	for _, lk := range []key.Lock{key.NumLock, key.CapsLock, key.ScrollLock} {
		put(r.LockMasks[lk])
	}
	put(r.LeftCtrlMask)
	put(r.RightAltMask)
	put(uint32(r.LeftCtrlCode))
	put(uint32(r.RightAltCode))

	return hex.EncodeToString(h.Sum(nil)[:12])
}
