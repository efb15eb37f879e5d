package winapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/macrohook/key"
	"github.com/Alia5/macrohook/keymap"
)

func TestScanCodes(t *testing.T) {
	tests := []struct {
		scan     uint16
		extended bool
		want     key.Key
	}{
		{0x01, false, key.KeyEsc},
		{0x15, false, key.KeyY},
		{0x38, false, key.KeyLeftAlt},
		{0x38, true, key.KeyRightAlt},
		{0x1c, true, key.KeyKpEnter},
		{0x4b, true, key.KeyLeft},
		{0x5b, true, key.KeyLeftMeta},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, keyOfScan(tt.scan, tt.extended))
			sc, ext, ok := scanOf(tt.want)
			require.True(t, ok)
			assert.Equal(t, tt.scan, sc)
			assert.Equal(t, tt.extended, ext)
		})
	}

	assert.Equal(t, key.KeyNone, keyOfScan(0, false))
	assert.Equal(t, key.KeyNone, keyOfScan(0x70, false))
	assert.Equal(t, key.KeyNone, keyOfScan(0x2a, true))
	_, _, ok := scanOf(key.BtnLeft)
	assert.False(t, ok)
}

type fakeChar struct {
	r    rune
	dead bool
}

// fakeLookup answers for a handful of scan codes, indexed by shift and altGr.
func fakeLookup(m map[uint16][4]fakeChar) charLookup {
	return func(scan uint16, shift, altGr bool) (rune, bool, bool) {
		levels, ok := m[scan]
		if !ok {
			return 0, false, false
		}
		i := 0
		if shift {
			i++
		}
		if altGr {
			i += 2
		}
		c := levels[i]
		return c.r, c.dead, c.r != 0
	}
}

func TestBuildLayout(t *testing.T) {
	l := buildLayout("de", fakeLookup(map[uint16][4]fakeChar{
		0x15: {{r: 'z'}, {r: 'Z'}},
		0x10: {{r: 'q'}, {r: 'Q'}, {r: '@'}},
		0x0d: {{r: '´', dead: true}, {r: '`', dead: true}},
	}))

	assert.Equal(t, "de", l.Name)
	assert.Equal(t,
		[]keymap.Symbol{keymap.SymbolOf('z'), keymap.SymbolOf('Z')},
		l.Table.Candidates(keymap.Code(key.KeyY)))
	assert.Equal(t,
		[]keymap.Symbol{keymap.SymbolOf('q'), keymap.SymbolOf('Q'), keymap.SymbolOf('q'), keymap.SymbolOf('Q'), keymap.SymbolOf('@')},
		l.Table.Candidates(keymap.Code(key.KeyQ)))
	assert.Equal(t,
		[]keymap.Symbol{keymap.SymDeadAcute, keymap.SymDeadGrave},
		l.Table.Candidates(keymap.Code(key.KeyEqual)))

	// untouched keys keep the US symbols
	assert.Equal(t, keymap.US().Table.Candidates(keymap.Code(key.KeyA)), l.Table.Candidates(keymap.Code(key.KeyA)))
	assert.Equal(t, keymap.US().Table.Candidates(keymap.Code(key.KeyEsc)), l.Table.Candidates(keymap.Code(key.KeyEsc)))

	assert.Equal(t, []keymap.Symbol{keymap.SymISOLevel3Shift}, l.Table.Candidates(keymap.Code(key.KeyRightAlt)))
	c, ok := l.Roles.ModifierCodes(key.ModAltGr)
	require.True(t, ok)
	assert.Equal(t, []keymap.Code{keymap.Code(key.KeyRightAlt)}, c)
	assert.Equal(t, []keymap.Code{keymap.Code(key.KeyLeftAlt)}, l.Roles.ModCodes[key.ModAlt])
}

func TestBuildLayoutWithoutAltGr(t *testing.T) {
	l := buildLayout("us", fakeLookup(nil))
	assert.Equal(t, keymap.US().Table.Entries(), l.Table.Entries())
	assert.Len(t, l.Roles.ModCodes[key.ModAlt], 2)
	_, hasAltGr := l.Roles.ModCodes[key.ModAltGr]
	assert.False(t, hasAltGr)
}
