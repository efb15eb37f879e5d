package translate_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/macrohook/errs"
	"github.com/Alia5/macrohook/key"
	"github.com/Alia5/macrohook/keymap"
	"github.com/Alia5/macrohook/translate"
)

func code(k key.Key) keymap.Code { return keymap.Code(k) }

func TestResolveMask(t *testing.T) {
	hid := keymap.HIDRoles()
	de, err := keymap.Builtin("de")
	require.NoError(t, err)

	tests := []struct {
		name      string
		mods      uint8
		leds      uint8
		roles     *keymap.Roles
		wantMods  key.Modifier
		wantLocks key.Lock
	}{
		{name: "nothing", roles: hid},
		{name: "left shift", mods: keymap.HIDLeftShift, roles: hid, wantMods: key.ModShift},
		{name: "right shift", mods: keymap.HIDRightShift, roles: hid, wantMods: key.ModShift},
		{name: "ctrl alt", mods: keymap.HIDLeftCtrl | keymap.HIDLeftAlt, roles: hid, wantMods: key.ModCtrl | key.ModAlt},
		{name: "meta", mods: keymap.HIDRightGUI, roles: hid, wantMods: key.ModMeta},
		{
			name:     "altgr synthesized from left ctrl and right alt",
			mods:     keymap.HIDLeftCtrl | keymap.HIDRightAlt,
			roles:    hid,
			wantMods: key.ModAltGr,
		},
		{
			name:     "right ctrl keeps ctrl asserted",
			mods:     keymap.HIDLeftCtrl | keymap.HIDRightAlt | keymap.HIDRightCtrl,
			roles:    hid,
			wantMods: key.ModAltGr | key.ModCtrl,
		},
		{
			name:     "left alt keeps alt asserted",
			mods:     keymap.HIDLeftCtrl | keymap.HIDRightAlt | keymap.HIDLeftAlt,
			roles:    hid,
			wantMods: key.ModAltGr | key.ModAlt,
		},
		{name: "right alt alone is alt", mods: keymap.HIDRightAlt, roles: hid, wantMods: key.ModAlt},
		{name: "dedicated altgr", mods: keymap.HIDRightAlt, roles: de.Roles, wantMods: key.ModAltGr},
		{
			name:     "dedicated altgr does not clear ctrl",
			mods:     keymap.HIDLeftCtrl | keymap.HIDRightAlt,
			roles:    de.Roles,
			wantMods: key.ModAltGr | key.ModCtrl,
		},
		{
			name:      "locks",
			leds:      keymap.LEDNumLock | keymap.LEDCapsLock,
			roles:     hid,
			wantLocks: key.NumLock | key.CapsLock,
		},
		{name: "nil roles", mods: 0xff, leds: 0xff},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mods, locks := translate.ResolveMask(keymap.HIDState(tt.mods, tt.leds), tt.roles)
			assert.Equal(t, tt.wantMods, mods, mods.String())
			assert.Equal(t, tt.wantLocks, locks)
		})
	}
}

func TestResolveCodes(t *testing.T) {
	hid := keymap.HIDRoles()
	tests := []struct {
		name     string
		held     []key.Key
		wantMods key.Modifier
	}{
		{name: "none"},
		{name: "shift", held: []key.Key{key.KeyRightShift, key.KeyA}, wantMods: key.ModShift},
		{name: "altgr synthesized", held: []key.Key{key.KeyLeftCtrl, key.KeyRightAlt}, wantMods: key.ModAltGr},
		{
			name:     "altgr with right ctrl",
			held:     []key.Key{key.KeyLeftCtrl, key.KeyRightAlt, key.KeyRightCtrl},
			wantMods: key.ModAltGr | key.ModCtrl,
		},
		{
			name:     "altgr with left alt",
			held:     []key.Key{key.KeyLeftCtrl, key.KeyRightAlt, key.KeyLeftAlt},
			wantMods: key.ModAltGr | key.ModAlt,
		},
		{name: "lock key held is not a lock", held: []key.Key{key.KeyCapsLock}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			held := make([]keymap.Code, len(tt.held))
			for i, k := range tt.held {
				held[i] = code(k)
			}
			mods, locks := translate.ResolveCodes(held, key.ScrollLock, hid)
			assert.Equal(t, tt.wantMods, mods, mods.String())
			assert.Equal(t, key.ScrollLock, locks)
		})
	}

	mods, locks := translate.ResolveCodes([]keymap.Code{code(key.KeyLeftShift)}, key.CapsLock, nil)
	assert.Equal(t, key.ModNone, mods)
	assert.Zero(t, locks)
}

func TestResolverIsPure(t *testing.T) {
	roles := keymap.HIDRoles()
	before := roles.Clone()
	state := keymap.HIDState(keymap.HIDLeftCtrl|keymap.HIDRightAlt, keymap.LEDCapsLock)

	m1, l1 := translate.ResolveMask(state, roles)
	m2, l2 := translate.ResolveMask(state, roles)
	assert.Equal(t, m1, m2)
	assert.Equal(t, l1, l2)
	assert.Equal(t, before, roles)
}

func TestResolve(t *testing.T) {
	us := translate.New(keymap.US())
	de, err := keymap.Builtin("de")
	require.NoError(t, err)
	trDE := translate.New(de)

	tests := []struct {
		name   string
		tr     *translate.Translator
		key    key.Key
		mods   key.Modifier
		locks  key.Lock
		want   rune
		wantOK bool
	}{
		{name: "plain letter", tr: us, key: key.KeyA, want: 'a', wantOK: true},
		{name: "shift letter", tr: us, key: key.KeyA, mods: key.ModShift, want: 'A', wantOK: true},
		{name: "caps letter", tr: us, key: key.KeyA, locks: key.CapsLock, want: 'A', wantOK: true},
		{name: "caps and shift cancel", tr: us, key: key.KeyA, mods: key.ModShift, locks: key.CapsLock, want: 'a', wantOK: true},
		{name: "caps ignored for digits", tr: us, key: key.Key1, locks: key.CapsLock, want: '1', wantOK: true},
		{name: "shift digit", tr: us, key: key.Key1, mods: key.ModShift, want: '!', wantOK: true},
		{name: "return is linefeed", tr: us, key: key.KeyEnter, want: '\n', wantOK: true},
		{name: "tab", tr: us, key: key.KeyTab, want: '\t', wantOK: true},
		{name: "keypad without numlock", tr: us, key: key.KeyKp7},
		{name: "keypad with numlock", tr: us, key: key.KeyKp7, locks: key.NumLock, want: '7', wantOK: true},
		{name: "keypad numlock and shift", tr: us, key: key.KeyKp7, mods: key.ModShift, locks: key.NumLock},
		{name: "keypad caps flips like shift", tr: us, key: key.KeyKp7, locks: key.CapsLock, want: '7', wantOK: true},
		{name: "keypad operator", tr: us, key: key.KeyKpPlus, want: '+', wantOK: true},
		{name: "function key", tr: us, key: key.KeyF1},
		{name: "modifier key", tr: us, key: key.KeyLeftShift, mods: key.ModShift | key.ModAltGr},
		{name: "unknown code", tr: us, key: key.KeyMute},
		{name: "de qwertz", tr: trDE, key: key.KeyY, want: 'z', wantOK: true},
		{name: "de altgr", tr: trDE, key: key.KeyQ, mods: key.ModAltGr, want: '@', wantOK: true},
		{name: "de altgr digit", tr: trDE, key: key.Key7, mods: key.ModAltGr, want: '{', wantOK: true},
		{name: "de umlaut caps", tr: trDE, key: key.KeySemicolon, locks: key.CapsLock, want: 'Ö', wantOK: true},
		{name: "de dead key", tr: trDE, key: key.KeyEqual},
		{name: "de shifted dead key", tr: trDE, key: key.KeyGrave, mods: key.ModShift, want: '°', wantOK: true},
		{name: "altgr clamps to last level", tr: us, key: key.KeyA, mods: key.ModAltGr, want: 'A', wantOK: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.tr.Resolve(code(tt.key), tt.mods, tt.locks)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode(t *testing.T) {
	de, err := keymap.Builtin("de")
	require.NoError(t, err)
	tr := translate.New(de)

	tests := []struct {
		in       rune
		wantKey  key.Key
		wantMods key.Modifier
	}{
		{in: 'a', wantKey: key.KeyA},
		{in: 'Z', wantKey: key.KeyY, wantMods: key.ModShift},
		{in: '@', wantKey: key.KeyQ, wantMods: key.ModAltGr},
		{in: '€', wantKey: key.KeyE, wantMods: key.ModAltGr},
		{in: '\\', wantKey: key.KeyMinus, wantMods: key.ModAltGr},
		{in: '\n', wantKey: key.KeyEnter},
		{in: '\r', wantKey: key.KeyEnter},
		{in: ' ', wantKey: key.KeySpace},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			c, mods, err := tr.Encode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, code(tt.wantKey), c)
			assert.Equal(t, tt.wantMods, mods)
		})
	}

	_, _, err = tr.Encode('字')
	assert.ErrorIs(t, err, errs.ErrUnmappableCharacter)
	assert.Contains(t, err.Error(), "U+5B57")

	_, _, err = tr.Encode(0x07)
	assert.ErrorIs(t, err, errs.ErrUnmappableCharacter)
}

func TestRoundTrip(t *testing.T) {
	for _, name := range keymap.BuiltinNames() {
		t.Run(name, func(t *testing.T) {
			l, err := keymap.Builtin(name)
			require.NoError(t, err)
			tr := translate.New(l)

			checked := 0
			for _, c := range l.Table.Codes() {
				for _, sym := range l.Table.Candidates(c) {
					r, ok := keymap.Printable(sym)
					if !ok {
						continue
					}
					ec, mods, err := tr.Encode(r)
					require.NoError(t, err, "encode %q", r)
					got, ok := tr.Resolve(ec, mods, 0)
					require.True(t, ok, "resolve %q", r)
					assert.Equal(t, r, got, "code %d mods %s", ec, mods)
					checked++
				}
			}
			assert.Greater(t, checked, 60)
		})
	}
}

func TestTranslateUsesOneSnapshot(t *testing.T) {
	tr := translate.New(nil)
	res := tr.Translate(code(key.KeyA), keymap.HIDState(keymap.HIDLeftShift, keymap.LEDNumLock))
	assert.Equal(t, translate.Result{Char: 'A', Modifiers: key.ModShift, Locks: key.NumLock}, res)

	res = tr.TranslateCodes(code(key.KeyA), []keymap.Code{code(key.KeyLeftCtrl)}, key.CapsLock)
	assert.Equal(t, translate.Result{Char: 'A', Modifiers: key.ModCtrl, Locks: key.CapsLock}, res)

	de, err := keymap.Builtin("de")
	require.NoError(t, err)
	tr.Reload(de)
	assert.Same(t, de, tr.Layout())
	res = tr.Translate(code(key.KeyQ), keymap.HIDState(keymap.HIDRightAlt, 0))
	assert.Equal(t, '@', res.Char)
	assert.Equal(t, key.ModAltGr, res.Modifiers)

	tr.Reload(nil)
	assert.Same(t, de, tr.Layout())
}

type fakeProvider struct {
	mu      sync.Mutex
	id      string
	layout  *keymap.Layout
	fetches int
	err     error
}

func (p *fakeProvider) LayoutID() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.id, p.err
}

func (p *fakeProvider) CurrentLayout() (*keymap.Layout, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetches++
	return p.layout, nil
}

func (p *fakeProvider) set(l *keymap.Layout) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.id = l.ID()
	p.layout = l
}

func TestReloader(t *testing.T) {
	us := keymap.US()
	de, err := keymap.Builtin("de")
	require.NoError(t, err)

	src := &fakeProvider{}
	src.set(us)
	tr := translate.New(us)

	reloaded := make(chan *keymap.Layout, 1)
	r := translate.NewReloader(tr, src, nil,
		translate.WithInterval(10*time.Millisecond),
		translate.WithOnReload(func(l *keymap.Layout) { reloaded <- l }),
	)
	defer r.Close()

	src.set(de)
	select {
	case l := <-reloaded:
		assert.Same(t, de, l)
	case <-time.After(2 * time.Second):
		t.Fatal("reload not observed")
	}
	assert.Same(t, de, tr.Layout())
	assert.Eventually(t, func() bool { return r.Generation() == 1 }, time.Second, 5*time.Millisecond)

	got, ok := tr.Resolve(code(key.KeyY), 0, 0)
	require.True(t, ok)
	assert.Equal(t, 'z', got)
}

func TestReloaderPollErrorsKeepLayout(t *testing.T) {
	src := &fakeProvider{err: errors.New("display gone")}
	src.layout = keymap.US()
	tr := translate.New(keymap.US())
	r := translate.NewReloader(tr, src, nil, translate.WithInterval(5*time.Millisecond))
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	src.mu.Lock()
	defer src.mu.Unlock()
	assert.Zero(t, src.fetches)
	assert.Zero(t, r.Generation())
}

func TestReloaderCloseIsPrompt(t *testing.T) {
	src := &fakeProvider{}
	src.set(keymap.US())
	r := translate.NewReloader(translate.New(nil), src, nil)

	start := time.Now()
	require.NoError(t, r.Close())
	assert.Less(t, time.Since(start), translate.MaxReloadInterval+100*time.Millisecond)
}
