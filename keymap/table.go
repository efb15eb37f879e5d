package keymap

import (
	"maps"
	"slices"
)

// Code is a backend device code: an evdev code, a Windows virtual key, an X
// keycode.
type Code uint32

type position struct {
	code  Code
	level int
}

// Table maps device codes to their ordered candidate symbols, one per shift
// level. A Table is immutable once built and safe for concurrent reads.
type Table struct {
	codes  map[Code][]Symbol
	sorted []Code
	index  map[Symbol]position
}

// NewTable copies entries into a new Table.
func NewTable(entries map[Code][]Symbol) *Table {
	t := &Table{
		codes: make(map[Code][]Symbol, len(entries)),
		index: make(map[Symbol]position),
	}
	maxLevel := 0
	for c, syms := range entries {
		if len(syms) == 0 {
			continue
		}
		t.codes[c] = slices.Clone(syms)
		maxLevel = max(maxLevel, len(syms))
	}
	t.sorted = slices.Sorted(maps.Keys(t.codes))

	// Reverse lookup prefers the lowest level, then the lowest code.
	for level := range maxLevel {
		for _, c := range t.sorted {
			syms := t.codes[c]
			if level >= len(syms) || syms[level] == NoSymbol {
				continue
			}
			if _, seen := t.index[syms[level]]; !seen {
				t.index[syms[level]] = position{code: c, level: level}
			}
		}
	}
	return t
}

// Candidates returns the symbols of code, or nil for unknown codes. The
// returned slice must not be modified.
func (t *Table) Candidates(c Code) []Symbol {
	if t == nil {
		return nil
	}
	return t.codes[c]
}

// Find returns the code and level producing sym.
func (t *Table) Find(sym Symbol) (Code, int, bool) {
	if t == nil {
		return 0, 0, false
	}
	p, ok := t.index[sym]
	return p.code, p.level, ok
}

// Codes lists the mapped codes in ascending order.
func (t *Table) Codes() []Code {
	if t == nil {
		return nil
	}
	return slices.Clone(t.sorted)
}

func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.codes)
}

// Entries returns a copy of the table contents.
func (t *Table) Entries() map[Code][]Symbol {
	out := make(map[Code][]Symbol, t.Len())
	if t == nil {
		return out
	}
	for c, syms := range t.codes {
		out[c] = slices.Clone(syms)
	}
	return out
}
