package translate

import (
	"sync/atomic"
	"unicode"

	"github.com/Alia5/macrohook/errs"
	"github.com/Alia5/macrohook/key"
	"github.com/Alia5/macrohook/keymap"
)

// Shift levels with a fixed modifier requirement.
const (
	levelShift      = 1
	levelAltGr      = 4
	levelShiftAltGr = 5
)

// Result is a translated key: the character it types (0 for none) and the
// modifier and lock sets it was resolved under.
type Result struct {
	Char      rune
	Modifiers key.Modifier
	Locks     key.Lock
}

// Translator maps device codes to characters and characters to device codes
// under the current layout. Reload swaps the layout atomically, so a
// Translator is safe for concurrent use.
type Translator struct {
	layout atomic.Pointer[keymap.Layout]
}

// New returns a Translator over layout, or over the built-in US layout when
// layout is nil.
func New(layout *keymap.Layout) *Translator {
	if layout == nil {
		layout = keymap.US()
	}
	t := &Translator{}
	t.layout.Store(layout)
	return t
}

func (t *Translator) Layout() *keymap.Layout {
	return t.layout.Load()
}

// Reload replaces the layout. A nil layout is ignored.
func (t *Translator) Reload(layout *keymap.Layout) {
	if layout != nil {
		t.layout.Store(layout)
	}
}

// Resolve returns the character code produces under mods and locks.
func (t *Translator) Resolve(code keymap.Code, mods key.Modifier, locks key.Lock) (rune, bool) {
	return resolve(t.layout.Load(), code, mods, locks)
}

// Encode finds the device code and the modifiers that type r.
func (t *Translator) Encode(r rune) (keymap.Code, key.Modifier, error) {
	return encode(t.layout.Load(), r)
}

// Translate resolves the modifier and lock sets from a raw state word and
// the character of code, all from a single layout snapshot.
func (t *Translator) Translate(code keymap.Code, mask uint32) Result {
	l := t.layout.Load()
	mods, locks := ResolveMask(mask, l.Roles)
	r, _ := resolve(l, code, mods, locks)
	return Result{Char: r, Modifiers: mods, Locks: locks}
}

// TranslateCodes is Translate for backends that report held codes and LED
// state instead of a state word.
func (t *Translator) TranslateCodes(code keymap.Code, held []keymap.Code, leds key.Lock) Result {
	l := t.layout.Load()
	mods, locks := ResolveCodes(held, leds, l.Roles)
	r, _ := resolve(l, code, mods, locks)
	return Result{Char: r, Modifiers: mods, Locks: locks}
}

// Level computes the shift level for a key whose first candidate is sym.
func Level(sym keymap.Symbol, mods key.Modifier, locks key.Lock) int {
	if keymap.NoIndex(sym) {
		return 0
	}
	shift := mods.Has(key.ModShift)
	caps := locks.Has(key.CapsLock)
	num := locks.Has(key.NumLock)

	level := 0
	switch {
	case keymap.IsKeypad(sym):
		if (shift != caps) != num {
			level++
		}
	case isAlpha(sym):
		if shift != caps {
			level++
		}
	default:
		if shift {
			level++
		}
	}
	if mods.Has(key.ModAltGr) {
		level += levelAltGr
	}
	return level
}

func isAlpha(sym keymap.Symbol) bool {
	r, ok := keymap.Printable(sym)
	return ok && unicode.IsLetter(r)
}

func resolve(l *keymap.Layout, code keymap.Code, mods key.Modifier, locks key.Lock) (rune, bool) {
	cands := l.Table.Candidates(code)
	if len(cands) == 0 {
		return 0, false
	}
	level := min(Level(cands[0], mods, locks), len(cands)-1)
	sym := cands[level]
	if sym == keymap.SymReturn {
		sym = keymap.SymLinefeed
	}
	return keymap.Printable(sym)
}

func encode(l *keymap.Layout, r rune) (keymap.Code, key.Modifier, error) {
	sym := keymap.SymbolOf(r)
	if sym == keymap.NoSymbol {
		return 0, key.ModNone, errs.Unmappable(r)
	}
	code, level, ok := l.Table.Find(sym)
	if !ok {
		return 0, key.ModNone, errs.Unmappable(r)
	}
	switch level {
	case levelShift:
		return code, key.ModShift, nil
	case levelAltGr:
		return code, key.ModAltGr, nil
	case levelShiftAltGr:
		return code, key.ModShift | key.ModAltGr, nil
	}
	return code, key.ModNone, nil
}
