// Package keymap holds keyboard layouts: the table of candidate symbols per
// device code and shift level, and the maps from device codes and state bits
// to modifier and lock roles.
//
// Symbols follow the X keysym numbering. Latin-1 symbols equal their code
// point, other characters use the 0x01000000 Unicode range, and function
// symbols live in 0xff00-0xffff.
package keymap

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Alia5/macrohook/errs"
)

// Symbol is what a key produces at a given shift level, before character
// mapping.
type Symbol uint32

const NoSymbol Symbol = 0

const (
	SymBackSpace  Symbol = 0xff08
	SymTab        Symbol = 0xff09
	SymLinefeed   Symbol = 0xff0a
	SymClear      Symbol = 0xff0b
	SymReturn     Symbol = 0xff0d
	SymPause      Symbol = 0xff13
	SymScrollLock Symbol = 0xff14
	SymSysReq     Symbol = 0xff15
	SymEscape     Symbol = 0xff1b
	SymDelete     Symbol = 0xffff

	SymHome       Symbol = 0xff50
	SymLeft       Symbol = 0xff51
	SymUp         Symbol = 0xff52
	SymRight      Symbol = 0xff53
	SymDown       Symbol = 0xff54
	SymPrior      Symbol = 0xff55
	SymNext       Symbol = 0xff56
	SymEnd        Symbol = 0xff57
	SymInsert     Symbol = 0xff63
	SymMenu       Symbol = 0xff67
	SymModeSwitch Symbol = 0xff7e
	SymNumLock    Symbol = 0xff7f

	SymKPSpace     Symbol = 0xff80
	SymKPTab       Symbol = 0xff89
	SymKPEnter     Symbol = 0xff8d
	SymKPHome      Symbol = 0xff95
	SymKPLeft      Symbol = 0xff96
	SymKPUp        Symbol = 0xff97
	SymKPRight     Symbol = 0xff98
	SymKPDown      Symbol = 0xff99
	SymKPPrior     Symbol = 0xff9a
	SymKPNext      Symbol = 0xff9b
	SymKPEnd       Symbol = 0xff9c
	SymKPBegin     Symbol = 0xff9d
	SymKPInsert    Symbol = 0xff9e
	SymKPDelete    Symbol = 0xff9f
	SymKPMultiply  Symbol = 0xffaa
	SymKPAdd       Symbol = 0xffab
	SymKPSeparator Symbol = 0xffac
	SymKPSubtract  Symbol = 0xffad
	SymKPDecimal   Symbol = 0xffae
	SymKPDivide    Symbol = 0xffaf
	SymKP0         Symbol = 0xffb0 // KP_1..KP_9 follow
	SymKPEqual     Symbol = 0xffbd

	SymF1 Symbol = 0xffbe // F2..F24 follow

	SymShiftL    Symbol = 0xffe1
	SymShiftR    Symbol = 0xffe2
	SymControlL  Symbol = 0xffe3
	SymControlR  Symbol = 0xffe4
	SymCapsLock  Symbol = 0xffe5
	SymShiftLock Symbol = 0xffe6
	SymMetaL     Symbol = 0xffe7
	SymMetaR     Symbol = 0xffe8
	SymAltL      Symbol = 0xffe9
	SymAltR      Symbol = 0xffea
	SymSuperL    Symbol = 0xffeb
	SymSuperR    Symbol = 0xffec

	SymISOLevel3Shift Symbol = 0xfe03
	SymISOLeftTab     Symbol = 0xfe20
	SymDeadGrave      Symbol = 0xfe50
	SymDeadAcute      Symbol = 0xfe51
	SymDeadCircumflex Symbol = 0xfe52
	SymDeadTilde      Symbol = 0xfe53

	SymEuroSign Symbol = 0x20ac // legacy keysym, Unicode form is 0x10020ac

	unicodeBase Symbol = 0x01000000
)

// KP returns the keypad digit symbol for d in 0-9.
func KP(d int) Symbol { return SymKP0 + Symbol(d) }

// F returns the function key symbol for n in 1-35.
func F(n int) Symbol { return SymF1 + Symbol(n-1) }

// SymbolOf returns the canonical symbol for r. Both CR and LF map to Return,
// since keyboards carry no linefeed key. Control characters other than tab
// and newline have no symbol.
func SymbolOf(r rune) Symbol {
	switch {
	case r == '\n', r == '\r':
		return SymReturn
	case r == '\t':
		return SymTab
	case r >= 0x20 && r <= 0x7e, r >= 0xa0 && r <= 0xff:
		return Symbol(r)
	case r >= 0x100 && r <= utf8.MaxRune:
		return unicodeBase | Symbol(r)
	}
	return NoSymbol
}

var keypadPrintable = map[Symbol]rune{
	SymKPSpace:     ' ',
	SymKPTab:       '\t',
	SymKPEnter:     '\n',
	SymKPMultiply:  '*',
	SymKPAdd:       '+',
	SymKPSeparator: ',',
	SymKPSubtract:  '-',
	SymKPDecimal:   '.',
	SymKPDivide:    '/',
	SymKPEqual:     '=',
}

// Printable maps a symbol to the character it types. Return is absent on
// purpose: callers normalize it to Linefeed first.
func Printable(s Symbol) (rune, bool) {
	switch {
	case s >= 0x20 && s <= 0x7e, s >= 0xa0 && s <= 0xff:
		return rune(s), true
	case s >= unicodeBase|0x100 && s <= unicodeBase|utf8.MaxRune:
		return rune(s &^ unicodeBase), true
	case s == SymLinefeed:
		return '\n', true
	case s == SymTab:
		return '\t', true
	case s == SymEuroSign:
		return '€', true
	case s >= SymKP0 && s <= SymKP0+9:
		return '0' + rune(s-SymKP0), true
	}
	r, ok := keypadPrintable[s]
	return r, ok
}

// IsKeypad reports keypad symbols. Their level follows NumLock.
func IsKeypad(s Symbol) bool {
	return s >= SymKPSpace && s <= SymKPEqual
}

// NoIndex reports symbols whose level never changes with modifiers: the
// modifier and lock keys themselves.
func NoIndex(s Symbol) bool {
	switch {
	case s >= SymShiftL && s <= SymSuperR:
		return true
	case s == SymISOLevel3Shift, s == SymModeSwitch, s == SymNumLock, s == SymScrollLock:
		return true
	}
	return false
}

var symbolNames = func() map[Symbol]string {
	m := map[Symbol]string{
		SymBackSpace:      "BackSpace",
		SymTab:            "Tab",
		SymLinefeed:       "Linefeed",
		SymClear:          "Clear",
		SymReturn:         "Return",
		SymPause:          "Pause",
		SymScrollLock:     "Scroll_Lock",
		SymSysReq:         "Sys_Req",
		SymEscape:         "Escape",
		SymDelete:         "Delete",
		SymHome:           "Home",
		SymLeft:           "Left",
		SymUp:             "Up",
		SymRight:          "Right",
		SymDown:           "Down",
		SymPrior:          "Prior",
		SymNext:           "Next",
		SymEnd:            "End",
		SymInsert:         "Insert",
		SymMenu:           "Menu",
		SymModeSwitch:     "Mode_switch",
		SymNumLock:        "Num_Lock",
		SymKPSpace:        "KP_Space",
		SymKPTab:          "KP_Tab",
		SymKPEnter:        "KP_Enter",
		SymKPHome:         "KP_Home",
		SymKPLeft:         "KP_Left",
		SymKPUp:           "KP_Up",
		SymKPRight:        "KP_Right",
		SymKPDown:         "KP_Down",
		SymKPPrior:        "KP_Prior",
		SymKPNext:         "KP_Next",
		SymKPEnd:          "KP_End",
		SymKPBegin:        "KP_Begin",
		SymKPInsert:       "KP_Insert",
		SymKPDelete:       "KP_Delete",
		SymKPMultiply:     "KP_Multiply",
		SymKPAdd:          "KP_Add",
		SymKPSeparator:    "KP_Separator",
		SymKPSubtract:     "KP_Subtract",
		SymKPDecimal:      "KP_Decimal",
		SymKPDivide:       "KP_Divide",
		SymKPEqual:        "KP_Equal",
		SymShiftL:         "Shift_L",
		SymShiftR:         "Shift_R",
		SymControlL:       "Control_L",
		SymControlR:       "Control_R",
		SymCapsLock:       "Caps_Lock",
		SymShiftLock:      "Shift_Lock",
		SymMetaL:          "Meta_L",
		SymMetaR:          "Meta_R",
		SymAltL:           "Alt_L",
		SymAltR:           "Alt_R",
		SymSuperL:         "Super_L",
		SymSuperR:         "Super_R",
		SymISOLevel3Shift: "ISO_Level3_Shift",
		SymISOLeftTab:     "ISO_Left_Tab",
		SymDeadGrave:      "dead_grave",
		SymDeadAcute:      "dead_acute",
		SymDeadCircumflex: "dead_circumflex",
		SymDeadTilde:      "dead_tilde",
		SymEuroSign:       "EuroSign",
	}
	for d := 0; d <= 9; d++ {
		m[KP(d)] = "KP_" + strconv.Itoa(d)
	}
	for n := 1; n <= 24; n++ {
		m[F(n)] = "F" + strconv.Itoa(n)
	}
	return m
}()

var symbolsByName = func() map[string]Symbol {
	m := make(map[string]Symbol, len(symbolNames))
	for s, n := range symbolNames {
		m[strings.ToLower(n)] = s
	}
	return m
}()

func (s Symbol) String() string {
	if n, ok := symbolNames[s]; ok {
		return n
	}
	if r, ok := Printable(s); ok {
		return string(r)
	}
	return fmt.Sprintf("0x%x", uint32(s))
}

// ParseSymbol accepts a single character, a symbol name ("KP_1", "Return")
// or a hex literal ("0xff0d").
func ParseSymbol(v string) (Symbol, error) {
	if utf8.RuneCountInString(v) == 1 {
		r, _ := utf8.DecodeRuneInString(v)
		if s := SymbolOf(r); s != NoSymbol {
			return s, nil
		}
	}
	if s, ok := symbolsByName[strings.ToLower(v)]; ok {
		return s, nil
	}
	if strings.HasPrefix(v, "0x") || strings.HasPrefix(v, "0X") {
		n, err := strconv.ParseUint(v[2:], 16, 32)
		if err == nil {
			return Symbol(n), nil
		}
	}
	return NoSymbol, errs.InvalidArgument("unknown symbol %q", v)
}
