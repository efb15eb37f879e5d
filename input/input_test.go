package input_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/macrohook/backend"
	"github.com/Alia5/macrohook/backend/fake"
	"github.com/Alia5/macrohook/errs"
	"github.com/Alia5/macrohook/event"
	"github.com/Alia5/macrohook/input"
	th "github.com/Alia5/macrohook/internal/testing"
	"github.com/Alia5/macrohook/key"
	"github.com/Alia5/macrohook/keymap"
)

const wait = 2 * time.Second

func flush(t *testing.T, f interface{ Flush(context.Context) error }) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	require.NoError(t, f.Flush(ctx))
}

func press(k key.Key) fake.KeyInjection { return fake.KeyInjection{Key: k, Pressed: true} }
func release(k key.Key) fake.KeyInjection { return fake.KeyInjection{Key: k, Pressed: false} }

func TestKeyboardHookDeliversTranslatedEvents(t *testing.T) {
	for _, useMask := range []bool{false, true} {
		name := "held codes"
		if useMask {
			name = "state word"
		}
		t.Run(name, func(t *testing.T) {
			kb, b := th.NewKeyboard(t)
			b.UseMask = useMask
			got := th.NewCollector[event.KeyboardEvent]()
			require.NoError(t, kb.InstallHook(got.Add, false))
			assert.True(t, b.Hooked())

			b.Emit(key.KeyLeftShift, true)
			b.Tap(key.KeyA)
			b.Emit(key.KeyLeftShift, false)
			b.Emit(key.KeyLeftCtrl, true)
			b.Emit(key.KeyC, true)

			evs := got.WaitN(t, 6, wait)
			assert.Equal(t, key.KeyLeftShift, evs[0].Key)
			assert.Equal(t, key.Pressed, evs[0].State)

			assert.Equal(t, key.KeyA, evs[1].Key)
			assert.Equal(t, 'A', evs[1].Char)
			assert.Equal(t, key.ModShift, evs[1].Modifiers)
			assert.Equal(t, key.Released, evs[2].State)

			assert.Equal(t, key.KeyC, evs[5].Key)
			assert.Equal(t, key.ModCtrl, evs[5].Modifiers)
			assert.Zero(t, evs[5].Char, "ctrl chords carry no character")

			for i := 1; i < len(evs); i++ {
				assert.LessOrEqual(t, evs[i-1].Stamp, evs[i].Stamp)
			}
		})
	}
}

func TestKeyboardInstallHookTwice(t *testing.T) {
	kb, b := th.NewKeyboard(t)
	require.NoError(t, kb.InstallHook(func(event.KeyboardEvent) {}, false))
	err := kb.InstallHook(func(event.KeyboardEvent) {}, false)
	assert.ErrorIs(t, err, errs.ErrPreconditionNotMet)
	assert.ErrorIs(t, kb.InstallHook(nil, false), errs.ErrInvalidArgument)

	require.NoError(t, kb.UninstallHook())
	assert.False(t, kb.HookInstalled())
	assert.False(t, b.Hooked())
	require.NoError(t, kb.UninstallHook())
}

func TestKeyboardGrabUpgradesHook(t *testing.T) {
	kb, b := th.NewKeyboard(t)
	_, err := kb.RegisterHotKey(key.KeyF1, func(event.HotKeyEvent) {})
	require.NoError(t, err)
	assert.False(t, b.Grabbed())

	require.NoError(t, kb.InstallHook(func(event.KeyboardEvent) {}, true))
	assert.True(t, b.Grabbed())
}

func TestKeyboardIgnoresInjectedEvents(t *testing.T) {
	kb, b := th.NewKeyboard(t)
	b.Echo = true
	got := th.NewCollector[event.KeyboardEvent]()
	require.NoError(t, kb.InstallHook(got.Add, false))

	require.NoError(t, kb.KeyPress(key.KeyX))
	flush(t, kb)
	b.Emit(key.KeyB, true)

	evs := got.WaitN(t, 1, wait)
	assert.Equal(t, key.KeyB, evs[0].Key)
	flush(t, kb)
	assert.Equal(t, 1, got.Len())
}

func TestHotKeys(t *testing.T) {
	kb, b := th.NewKeyboard(t)
	fired := th.NewCollector[event.HotKeyEvent]()

	hk, err := kb.RegisterHotKey(key.KeyA, fired.Add, key.KeyCtrl, key.KeyLeftShift)
	require.NoError(t, err)
	assert.Equal(t, key.ModCtrl|key.ModShift, hk.Modifiers)
	assert.True(t, b.Hooked(), "registering starts the hook")
	assert.ElementsMatch(t, []event.HotKey{hk}, b.Grabs())
	assert.Equal(t, []event.HotKey{hk}, kb.HotKeys())

	// Missing shift: no match.
	b.Emit(key.KeyRightCtrl, true)
	b.Tap(key.KeyA)
	b.Emit(key.KeyRightShift, true)
	b.Tap(key.KeyA)
	b.Emit(key.KeyRightShift, false)
	b.Emit(key.KeyRightCtrl, false)

	evs := fired.WaitN(t, 1, wait)
	assert.Equal(t, hk, evs[0].HotKey)
	flush(t, kb)
	assert.Equal(t, 1, fired.Len())

	require.NoError(t, kb.UnregisterHotKey(hk))
	assert.Empty(t, b.Grabs())
	b.Emit(key.KeyLeftCtrl, true)
	b.Emit(key.KeyLeftShift, true)
	b.Tap(key.KeyA)
	flush(t, kb)
	assert.Equal(t, 1, fired.Len())
}

func TestRegisterHotKeyValidation(t *testing.T) {
	kb, _ := th.NewKeyboard(t)
	tests := []struct {
		name string
		key  key.Key
		cb   func(event.HotKeyEvent)
		mods []key.Key
	}{
		{"no key", key.KeyNone, func(event.HotKeyEvent) {}, nil},
		{"non modifier", key.KeyA, func(event.HotKeyEvent) {}, []key.Key{key.KeyB}},
		{"nil callback", key.KeyA, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := kb.RegisterHotKey(tt.key, tt.cb, tt.mods...)
			assert.ErrorIs(t, err, errs.ErrInvalidArgument)
		})
	}
}

func TestUninitHotkeys(t *testing.T) {
	kb, b := th.NewKeyboard(t)
	_, err := kb.RegisterHotKey(key.KeyF2, func(event.HotKeyEvent) {})
	require.NoError(t, err)

	require.NoError(t, kb.UninitHotkeys())
	assert.Empty(t, kb.HotKeys())
	assert.Empty(t, b.Grabs())
	assert.False(t, b.Hooked())

	require.NoError(t, kb.InitHotkeys())
	assert.True(t, b.Hooked())
}

func TestHotStrings(t *testing.T) {
	kb, b := th.NewKeyboard(t)
	cb := func(event.HotStringEvent) {}

	_, err := kb.RegisterHotString("btw", nil, cb)
	assert.ErrorIs(t, err, errs.ErrPreconditionNotMet)

	require.NoError(t, kb.InstallHook(func(event.KeyboardEvent) {}, false))
	fired := th.NewCollector[event.HotStringEvent]()
	plain, err := kb.RegisterHotString("btw", nil, fired.Add)
	require.NoError(t, err)
	trig, err := kb.RegisterHotString("Omw", []rune{' ', '.'}, fired.Add)
	require.NoError(t, err)
	assert.Equal(t, []event.HotString{plain, trig}, kb.HotStrings())

	require.NoError(t, b.TypeText("so btw Omw."))
	evs := fired.WaitN(t, 2, wait)
	assert.Equal(t, "btw", evs[0].String)
	assert.Zero(t, evs[0].Trigger)
	assert.Equal(t, "Omw", evs[1].String)
	assert.Equal(t, '.', evs[1].Trigger)

	require.NoError(t, kb.UnregisterHotString(plain))
	require.NoError(t, b.TypeText("btw"))
	flush(t, kb)
	assert.Equal(t, 2, fired.Len())

	require.NoError(t, kb.UninstallHook())
	assert.Empty(t, kb.HotStrings(), "uninstalling the hook drops hotstrings")
}

func TestHotStringsOnRelease(t *testing.T) {
	kb, b := th.NewKeyboard(t, input.WithHotStringOn(key.Released))
	require.NoError(t, kb.InstallHook(func(event.KeyboardEvent) {}, false))
	fired := th.NewCollector[event.HotStringEvent]()
	_, err := kb.RegisterHotString("ok", nil, fired.Add)
	require.NoError(t, err)

	b.Tap(key.KeyO)
	b.Emit(key.KeyK, true)
	flush(t, kb)
	assert.Zero(t, fired.Len())
	b.Emit(key.KeyK, false)
	fired.WaitN(t, 1, wait)
}

func TestKeyPress(t *testing.T) {
	kb, b := th.NewKeyboard(t)

	require.NoError(t, kb.KeyPress(key.KeyA))
	require.NoError(t, kb.KeyPress(key.KeyShift, key.Pressed))
	require.NoError(t, kb.KeyPress(key.KeyAltGr, key.Released))
	flush(t, kb)

	assert.Equal(t, []fake.KeyInjection{
		press(key.KeyA), release(key.KeyA),
		press(key.KeyLeftShift),
		release(key.KeyRightAlt),
	}, b.Injected())
	assert.Equal(t, 3, b.Syncs())

	st, err := kb.KeyState(key.KeyLeftShift)
	require.NoError(t, err)
	assert.Equal(t, key.Pressed, st)
}

func TestKeyPressValidation(t *testing.T) {
	kb, b := th.NewKeyboard(t)
	tests := []struct {
		name  string
		key   key.Key
		state []key.State
	}{
		{"button", key.BtnLeft, nil},
		{"none", key.KeyNone, nil},
		{"bad state", key.KeyA, []key.State{key.State(9)}},
		{"two states", key.KeyA, []key.State{key.Pressed, key.Released}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, kb.KeyPress(tt.key, tt.state...), errs.ErrInvalidArgument)
		})
	}
	flush(t, kb)
	assert.Empty(t, b.Injected())
}

func TestType(t *testing.T) {
	de, err := keymap.Builtin("de")
	require.NoError(t, err)
	euro, err := keymap.Parse([]byte("name: us-euro\nbase: us\nkeys:\n  \"16\": [q, Q, q, Q, \"€\"]\n"), keymap.FormatYAML)
	require.NoError(t, err)

	tests := []struct {
		name   string
		layout *keymap.Layout
		text   string
		want   []fake.KeyInjection
	}{
		{
			name:   "us shifted",
			layout: keymap.US(),
			text:   "aB",
			want: []fake.KeyInjection{
				press(key.KeyA), release(key.KeyA),
				press(key.KeyLeftShift), press(key.KeyB), release(key.KeyB), release(key.KeyLeftShift),
			},
		},
		{
			name:   "de altgr",
			layout: de,
			text:   "z@",
			want: []fake.KeyInjection{
				press(key.KeyY), release(key.KeyY),
				press(key.KeyRightAlt), press(key.KeyQ), release(key.KeyQ), release(key.KeyRightAlt),
			},
		},
		{
			name:   "altgr from ctrl and right alt",
			layout: euro,
			text:   "€",
			want: []fake.KeyInjection{
				press(key.KeyLeftCtrl), press(key.KeyRightAlt),
				press(key.KeyQ), release(key.KeyQ),
				release(key.KeyRightAlt), release(key.KeyLeftCtrl),
			},
		},
		{
			name:   "unmappable skipped",
			layout: keymap.US(),
			text:   "a☃b",
			want: []fake.KeyInjection{
				press(key.KeyA), release(key.KeyA),
				press(key.KeyB), release(key.KeyB),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb, b := th.NewKeyboard(t, input.WithLayout(tt.layout))
			require.NoError(t, kb.Type(tt.text))
			flush(t, kb)
			assert.Equal(t, tt.want, b.Injected())
		})
	}
}

func TestTypeBackendFailure(t *testing.T) {
	kb, b := th.NewKeyboard(t)
	b.InjectErr = errors.New("device gone")
	require.NoError(t, kb.Type("abc"), "failures surface on the queue, not the caller")
	flush(t, kb)
	assert.Empty(t, b.Injected())

	b.InjectErr = nil
	require.NoError(t, kb.KeyPress(key.KeyA))
	flush(t, kb)
	assert.Len(t, b.Injected(), 2, "the queue keeps running after a failed command")
}

func TestLayoutFollowsBackend(t *testing.T) {
	kb, b := th.NewKeyboard(t, input.WithReloadInterval(10*time.Millisecond))
	assert.Equal(t, "us", kb.Layout().Name)

	de, err := keymap.Builtin("de")
	require.NoError(t, err)
	b.SetLayout(de)
	assert.Eventually(t, func() bool { return kb.Layout().ID() == de.ID() }, wait, 10*time.Millisecond)

	got := th.NewCollector[event.KeyboardEvent]()
	require.NoError(t, kb.InstallHook(got.Add, false))
	b.Emit(key.KeyY, true)
	assert.Equal(t, 'z', got.WaitN(t, 1, wait)[0].Char)
}

func TestPinnedLayoutIgnoresBackend(t *testing.T) {
	de, err := keymap.Builtin("de")
	require.NoError(t, err)
	kb, b := th.NewKeyboard(t, input.WithLayout(de), input.WithReloadInterval(10*time.Millisecond))
	b.SetLayout(keymap.US())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, "de", kb.Layout().Name)
}

func TestKeyboardClose(t *testing.T) {
	b := fake.NewKeyboard()
	kb, err := input.NewKeyboard(b)
	require.NoError(t, err)
	require.NoError(t, kb.InstallHook(func(event.KeyboardEvent) {}, false))
	_, err = kb.RegisterHotKey(key.KeyF5, func(event.HotKeyEvent) {})
	require.NoError(t, err)
	require.NoError(t, kb.KeyPress(key.KeyA))

	require.NoError(t, kb.Close())
	require.NoError(t, kb.Close())

	assert.Empty(t, b.Grabs())
	assert.False(t, b.Hooked())
	assert.True(t, b.Closed())
	assert.Len(t, b.Injected(), 2, "pending injections drain before close")

	assert.ErrorIs(t, kb.KeyPress(key.KeyA), errs.ErrClosed)
	assert.ErrorIs(t, kb.InstallHook(func(event.KeyboardEvent) {}, false), errs.ErrClosed)
	_, err = kb.RegisterHotKey(key.KeyF6, func(event.HotKeyEvent) {})
	assert.ErrorIs(t, err, errs.ErrClosed)
}

func TestNewKeyboardNilBackend(t *testing.T) {
	_, err := input.NewKeyboard(nil)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestPointerHook(t *testing.T) {
	p, b := th.NewPointer(t)
	got := th.NewCollector[event.Event]()
	require.NoError(t, p.InstallHook(got.Add, false))
	assert.ErrorIs(t, p.InstallHook(got.Add, false), errs.ErrPreconditionNotMet)

	b.MoveTo(10, 20)
	b.EmitButton(key.BtnLeft, true)
	b.EmitScroll(key.Vertical, -1)

	evs := got.WaitN(t, 3, wait)
	require.IsType(t, event.PointerMotion{}, evs[0])
	assert.Equal(t, 10, evs[0].(event.PointerMotion).X)
	require.IsType(t, event.PointerButton{}, evs[1])
	assert.Equal(t, key.Pressed, evs[1].(event.PointerButton).State)
	require.IsType(t, event.PointerAxis{}, evs[2])
	assert.Equal(t, -1.0, evs[2].(event.PointerAxis).Value)

	require.NoError(t, p.UninstallHook())
	assert.False(t, b.Hooked())
}

func TestPointerWarp(t *testing.T) {
	type point struct{ x, y int }
	tests := []struct {
		name     string
		noWarp   bool
		relative bool
		to       point
		want     point
		inject   fake.PointerInjection
	}{
		{
			name:   "absolute",
			to:     point{100, 200},
			want:   point{100, 200},
			inject: fake.PointerInjection{Kind: backend.PointerMotion, DX: 100, DY: 200, Warp: true},
		},
		{
			name:   "absolute clamped",
			to:     point{5000, -10},
			want:   point{1919, 0},
			inject: fake.PointerInjection{Kind: backend.PointerMotion, DX: 1919, DY: 0, Warp: true},
		},
		{
			name:   "fallback to relative",
			noWarp: true,
			to:     point{30, 40},
			want:   point{30, 40},
			inject: fake.PointerInjection{Kind: backend.PointerMotion, DX: 30, DY: 40},
		},
		{
			name:     "relative",
			relative: true,
			to:       point{-5, 7},
			want:     point{0, 7},
			inject:   fake.PointerInjection{Kind: backend.PointerMotion, DX: -5, DY: 7},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, b := th.NewPointer(t)
			b.NoWarp = tt.noWarp
			require.NoError(t, p.Warp(tt.to.x, tt.to.y, tt.relative))
			flush(t, p)

			assert.Equal(t, []fake.PointerInjection{tt.inject}, b.Injected())
			x, y, err := p.Position()
			require.NoError(t, err)
			assert.Equal(t, tt.want, point{x, y})
		})
	}
}

func TestPointerWarpWithoutScreen(t *testing.T) {
	b := fake.NewPointer(0, 0)
	p, err := input.NewPointer(b)
	require.NoError(t, err)
	defer p.Close()

	require.NoError(t, p.Warp(10, 10, false))
	flush(t, p)
	assert.Empty(t, b.Injected())
}

func TestPointerClickAndScroll(t *testing.T) {
	p, b := th.NewPointer(t)

	require.NoError(t, p.Click(key.BtnRight))
	require.NoError(t, p.Click(key.BtnLeft, key.Pressed))
	require.NoError(t, p.Scroll(key.Horizontal, 2))
	require.NoError(t, p.Scroll(key.Vertical, 0))
	flush(t, p)

	assert.Equal(t, []fake.PointerInjection{
		{Kind: backend.PointerButton, Button: key.BtnRight, Pressed: true},
		{Kind: backend.PointerButton, Button: key.BtnRight},
		{Kind: backend.PointerButton, Button: key.BtnLeft, Pressed: true},
		{Kind: backend.PointerAxis, Axis: key.Horizontal, Amount: 2},
	}, b.Injected())

	st, err := p.ButtonState(key.BtnLeft)
	require.NoError(t, err)
	assert.Equal(t, key.Pressed, st)

	assert.ErrorIs(t, p.Click(key.KeyA), errs.ErrInvalidArgument)
	assert.ErrorIs(t, p.Click(key.BtnLeft, key.State(0)), errs.ErrInvalidArgument)
	assert.ErrorIs(t, p.Scroll(key.Axis(7), 1), errs.ErrInvalidArgument)
	_, err = p.ButtonState(key.KeyA)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestPointerClose(t *testing.T) {
	b := fake.NewPointer(800, 600)
	p, err := input.NewPointer(b)
	require.NoError(t, err)
	require.NoError(t, p.InstallHook(func(event.Event) {}, false))
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.True(t, b.Closed())
	assert.ErrorIs(t, p.Click(key.BtnLeft), errs.ErrClosed)
}

func TestTypedAltGrRoundTrips(t *testing.T) {
	euro, err := keymap.Parse([]byte("name: us-euro\nbase: us\nkeys:\n  \"16\": [q, Q, q, Q, \"€\"]\n"), keymap.FormatYAML)
	require.NoError(t, err)
	kb, b := th.NewKeyboard(t, input.WithLayout(euro))
	require.NoError(t, kb.Type("€"))
	flush(t, kb)

	var held []keymap.Code
	for _, inj := range b.Injected() {
		if inj.Key == key.KeyQ {
			break
		}
		if inj.Pressed {
			held = append(held, keymap.Code(inj.Key))
		}
	}
	res := kb.Translator().TranslateCodes(keymap.Code(key.KeyQ), held, 0)
	assert.Equal(t, '€', res.Char)
	assert.Equal(t, key.ModAltGr, res.Modifiers)
}

func TestKeyStateGenericModifier(t *testing.T) {
	kb, b := th.NewKeyboard(t)

	tests := []struct {
		name string
		held []key.Key
		k    key.Key
		want key.State
	}{
		{"physical", []key.Key{key.KeyLeftShift}, key.KeyLeftShift, key.Pressed},
		{"generic from left", []key.Key{key.KeyLeftShift}, key.KeyShift, key.Pressed},
		{"generic from right", []key.Key{key.KeyRightCtrl}, key.KeyCtrl, key.Pressed},
		{"generic released", []key.Key{key.KeyLeftShift}, key.KeyCtrl, key.Released},
		{"nothing held", nil, key.KeyAlt, key.Released},
		{"altgr chord", []key.Key{key.KeyLeftCtrl, key.KeyRightAlt}, key.KeyAltGr, key.Pressed},
		{"altgr needs both keys", []key.Key{key.KeyRightAlt}, key.KeyAltGr, key.Released},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range tt.held {
				b.Emit(k, true)
			}
			defer func() {
				for _, k := range tt.held {
					b.Emit(k, false)
				}
			}()
			st, err := kb.KeyState(tt.k)
			require.NoError(t, err)
			assert.Equal(t, tt.want, st)
		})
	}
}
