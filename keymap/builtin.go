package keymap

import (
	"maps"
	"slices"
	"sync"

	"github.com/Alia5/macrohook/errs"
	"github.com/Alia5/macrohook/key"
)

// chars builds a candidate list from printable characters.
func chars(rs ...rune) []Symbol {
	out := make([]Symbol, len(rs))
	for i, r := range rs {
		out[i] = SymbolOf(r)
	}
	return out
}

func code(k key.Key) Code { return Code(k) }

// commonEntries are the function, navigation, modifier and keypad keys that
// every built-in layout shares.
func commonEntries() map[Code][]Symbol {
	m := map[Code][]Symbol{
		code(key.KeyEsc):        {SymEscape},
		code(key.KeyBackspace):  {SymBackSpace},
		code(key.KeyTab):        {SymTab, SymISOLeftTab},
		code(key.KeyEnter):      {SymReturn},
		code(key.KeySpace):      {SymbolOf(' ')},
		code(key.KeyLeftCtrl):   {SymControlL},
		code(key.KeyRightCtrl):  {SymControlR},
		code(key.KeyLeftShift):  {SymShiftL},
		code(key.KeyRightShift): {SymShiftR},
		code(key.KeyLeftAlt):    {SymAltL, SymMetaL},
		code(key.KeyRightAlt):   {SymAltR, SymMetaR},
		code(key.KeyLeftMeta):   {SymSuperL},
		code(key.KeyRightMeta):  {SymSuperR},
		code(key.KeyCapsLock):   {SymCapsLock},
		code(key.KeyNumLock):    {SymNumLock},
		code(key.KeyScrollLock): {SymScrollLock},
		code(key.KeySysRq):      {SymSysReq},
		code(key.KeyPause):      {SymPause},
		code(key.KeyCompose):    {SymMenu},
		code(key.KeyHome):       {SymHome},
		code(key.KeyUp):         {SymUp},
		code(key.KeyPageUp):     {SymPrior},
		code(key.KeyLeft):       {SymLeft},
		code(key.KeyRight):      {SymRight},
		code(key.KeyEnd):        {SymEnd},
		code(key.KeyDown):       {SymDown},
		code(key.KeyPageDown):   {SymNext},
		code(key.KeyInsert):     {SymInsert},
		code(key.KeyDelete):     {SymDelete},

		code(key.KeyKp7):        {SymKPHome, KP(7)},
		code(key.KeyKp8):        {SymKPUp, KP(8)},
		code(key.KeyKp9):        {SymKPPrior, KP(9)},
		code(key.KeyKp4):        {SymKPLeft, KP(4)},
		code(key.KeyKp5):        {SymKPBegin, KP(5)},
		code(key.KeyKp6):        {SymKPRight, KP(6)},
		code(key.KeyKp1):        {SymKPEnd, KP(1)},
		code(key.KeyKp2):        {SymKPDown, KP(2)},
		code(key.KeyKp3):        {SymKPNext, KP(3)},
		code(key.KeyKp0):        {SymKPInsert, KP(0)},
		code(key.KeyKpDot):      {SymKPDelete, SymKPDecimal},
		code(key.KeyKpMinus):    {SymKPSubtract},
		code(key.KeyKpPlus):     {SymKPAdd},
		code(key.KeyKpAsterisk): {SymKPMultiply},
		code(key.KeyKpSlash):    {SymKPDivide},
		code(key.KeyKpEnter):    {SymKPEnter},
		code(key.KeyKpEqual):    {SymKPEqual},
	}
	fkeys := []key.Key{
		key.KeyF1, key.KeyF2, key.KeyF3, key.KeyF4, key.KeyF5, key.KeyF6,
		key.KeyF7, key.KeyF8, key.KeyF9, key.KeyF10, key.KeyF11, key.KeyF12,
	}
	for i, k := range fkeys {
		m[code(k)] = []Symbol{F(i + 1)}
	}
	return m
}

func usEntries() map[Code][]Symbol {
	m := commonEntries()
	letters := map[key.Key]rune{
		key.KeyQ: 'q', key.KeyW: 'w', key.KeyE: 'e', key.KeyR: 'r', key.KeyT: 't',
		key.KeyY: 'y', key.KeyU: 'u', key.KeyI: 'i', key.KeyO: 'o', key.KeyP: 'p',
		key.KeyA: 'a', key.KeyS: 's', key.KeyD: 'd', key.KeyF: 'f', key.KeyG: 'g',
		key.KeyH: 'h', key.KeyJ: 'j', key.KeyK: 'k', key.KeyL: 'l',
		key.KeyZ: 'z', key.KeyX: 'x', key.KeyC: 'c', key.KeyV: 'v', key.KeyB: 'b',
		key.KeyN: 'n', key.KeyM: 'm',
	}
	for k, r := range letters {
		m[code(k)] = chars(r, r-'a'+'A')
	}
	pairs := map[key.Key][2]rune{
		key.Key1: {'1', '!'}, key.Key2: {'2', '@'}, key.Key3: {'3', '#'},
		key.Key4: {'4', '$'}, key.Key5: {'5', '%'}, key.Key6: {'6', '^'},
		key.Key7: {'7', '&'}, key.Key8: {'8', '*'}, key.Key9: {'9', '('},
		key.Key0: {'0', ')'}, key.KeyMinus: {'-', '_'}, key.KeyEqual: {'=', '+'},
		key.KeyLeftBrace: {'[', '{'}, key.KeyRightBrace: {']', '}'},
		key.KeySemicolon: {';', ':'}, key.KeyApostrophe: {'\'', '"'},
		key.KeyGrave: {'`', '~'}, key.KeyBackslash: {'\\', '|'},
		key.KeyComma: {',', '<'}, key.KeyDot: {'.', '>'}, key.KeySlash: {'/', '?'},
		key.Key102nd: {'<', '>'},
	}
	for k, p := range pairs {
		m[code(k)] = chars(p[0], p[1])
	}
	return m
}

func deEntries() map[Code][]Symbol {
	m := commonEntries()
	m[code(key.KeyRightAlt)] = []Symbol{SymISOLevel3Shift}

	// QWERTZ letters. Levels 2 and 3 repeat 0 and 1 so that level 4 is the
	// ALTGR symbol.
	letters := map[key.Key]rune{
		key.KeyW: 'w', key.KeyR: 'r', key.KeyT: 't', key.KeyY: 'z',
		key.KeyU: 'u', key.KeyI: 'i', key.KeyO: 'o', key.KeyP: 'p',
		key.KeyA: 'a', key.KeyS: 's', key.KeyD: 'd', key.KeyF: 'f', key.KeyG: 'g',
		key.KeyH: 'h', key.KeyJ: 'j', key.KeyK: 'k', key.KeyL: 'l',
		key.KeyZ: 'y', key.KeyX: 'x', key.KeyC: 'c', key.KeyV: 'v', key.KeyB: 'b',
		key.KeyN: 'n',
	}
	for k, r := range letters {
		m[code(k)] = chars(r, r-'a'+'A')
	}
	m[code(key.KeyQ)] = chars('q', 'Q', 'q', 'Q', '@')
	m[code(key.KeyE)] = chars('e', 'E', 'e', 'E', '€')
	m[code(key.KeyM)] = chars('m', 'M', 'm', 'M', 'µ')
	m[code(key.KeyLeftBrace)] = chars('ü', 'Ü')
	m[code(key.KeySemicolon)] = chars('ö', 'Ö')
	m[code(key.KeyApostrophe)] = chars('ä', 'Ä')

	withAltGr := map[key.Key][3]rune{
		key.Key2:          {'2', '"', '²'},
		key.Key3:          {'3', '§', '³'},
		key.Key7:          {'7', '/', '{'},
		key.Key8:          {'8', '(', '['},
		key.Key9:          {'9', ')', ']'},
		key.Key0:          {'0', '=', '}'},
		key.KeyMinus:      {'ß', '?', '\\'},
		key.KeyRightBrace: {'+', '*', '~'},
		key.Key102nd:      {'<', '>', '|'},
	}
	for k, t := range withAltGr {
		m[code(k)] = chars(t[0], t[1], t[0], t[1], t[2])
	}
	pairs := map[key.Key][2]rune{
		key.Key1: {'1', '!'}, key.Key4: {'4', '$'}, key.Key5: {'5', '%'},
		key.Key6: {'6', '&'}, key.KeyBackslash: {'#', '\''},
		key.KeyComma: {',', ';'}, key.KeyDot: {'.', ':'}, key.KeySlash: {'-', '_'},
	}
	for k, p := range pairs {
		m[code(k)] = chars(p[0], p[1])
	}
	m[code(key.KeyEqual)] = []Symbol{SymDeadAcute, SymDeadGrave}
	m[code(key.KeyGrave)] = []Symbol{SymDeadCircumflex, SymbolOf('°')}
	return m
}

var (
	builtinOnce sync.Once
	builtins    map[string]*Layout
)

func loadBuiltins() {
	builtins = map[string]*Layout{
		"us": New("us", NewTable(usEntries()), HIDRoles()),
		"de": New("de", NewTable(deEntries()), level3Roles()),
	}
}

// Builtin returns a built-in layout keyed by evdev codes.
func Builtin(name string) (*Layout, error) {
	builtinOnce.Do(loadBuiltins)
	l, ok := builtins[name]
	if !ok {
		return nil, errs.InvalidArgument("unknown layout %q (have %v)", name, BuiltinNames())
	}
	return l, nil
}

// US returns the built-in US layout.
func US() *Layout {
	l, _ := Builtin("us")
	return l
}

func BuiltinNames() []string {
	builtinOnce.Do(loadBuiltins)
	return slices.Sorted(maps.Keys(builtins))
}
