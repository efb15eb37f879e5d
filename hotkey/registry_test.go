package hotkey_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/macrohook/event"
	"github.com/Alia5/macrohook/hotkey"
	"github.com/Alia5/macrohook/key"
)

func press(k key.Key, mods key.Modifier, locks key.Lock) event.KeyboardEvent {
	return event.KeyboardEvent{Key: k, State: key.Pressed, Modifiers: mods, Locks: locks}
}

func TestMatch(t *testing.T) {
	r := hotkey.NewRegistry()
	ctrlA, err := event.NewHotKey(key.KeyA, key.KeyLeftCtrl)
	require.NoError(t, err)
	shiftGeneric, err := event.NewHotKey(key.KeyShift, key.KeyCtrl)
	require.NoError(t, err)

	fired := map[event.HotKey]int{}
	cb := func(ev event.HotKeyEvent) { fired[ev.HotKey]++ }
	assert.True(t, r.Register(ctrlA, cb))
	assert.True(t, r.Register(shiftGeneric, cb))

	tests := []struct {
		name string
		ev   event.KeyboardEvent
		want event.HotKey
		ok   bool
	}{
		{name: "exact", ev: press(key.KeyA, key.ModCtrl, 0), want: ctrlA, ok: true},
		{name: "locks ignored", ev: press(key.KeyA, key.ModCtrl, key.CapsLock|key.NumLock), want: ctrlA, ok: true},
		{name: "extra modifier", ev: press(key.KeyA, key.ModCtrl|key.ModShift, 0)},
		{name: "missing modifier", ev: press(key.KeyA, key.ModNone, 0)},
		{name: "other key", ev: press(key.KeyB, key.ModCtrl, 0)},
		{name: "release", ev: event.KeyboardEvent{Key: key.KeyA, State: key.Released, Modifiers: key.ModCtrl}},
		{name: "side modifier matches generic", ev: press(key.KeyRightShift, key.ModCtrl, 0), want: shiftGeneric, ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, got, ok := r.Match(tt.ev)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, ev.HotKey)
			got(ev)
		})
	}
	assert.Equal(t, 2, fired[ctrlA])
	assert.Equal(t, 1, fired[shiftGeneric])
}

func TestFreshStampPerFiring(t *testing.T) {
	r := hotkey.NewRegistry()
	hk, err := event.NewHotKey(key.KeyF5)
	require.NoError(t, err)
	r.Register(hk, func(event.HotKeyEvent) {})

	first, _, ok := r.Match(press(key.KeyF5, 0, 0))
	require.True(t, ok)
	second, _, ok := r.Match(press(key.KeyF5, 0, 0))
	require.True(t, ok)
	assert.GreaterOrEqual(t, second.Stamp, first.Stamp)
	assert.Equal(t, first.HotKey, second.HotKey)
}

func TestRegisterReplacesAndUnregister(t *testing.T) {
	r := hotkey.NewRegistry()
	hk, err := event.NewHotKey(key.KeyQ, key.KeyLeftAlt, key.KeyRightAlt)
	require.NoError(t, err)
	assert.Equal(t, key.ModAlt, hk.Modifiers)

	var which string
	assert.True(t, r.Register(hk, func(event.HotKeyEvent) { which = "first" }))
	assert.False(t, r.Register(hk, func(event.HotKeyEvent) { which = "second" }))
	assert.Equal(t, 1, r.Len())

	ev, cb, ok := r.Match(press(key.KeyQ, key.ModAlt, 0))
	require.True(t, ok)
	cb(ev)
	assert.Equal(t, "second", which)

	assert.True(t, r.Unregister(hk))
	assert.False(t, r.Unregister(hk), "unregistering twice is a no-op")
	_, _, ok = r.Match(press(key.KeyQ, key.ModAlt, 0))
	assert.False(t, ok)
}

func TestHotKeysSortedAndClear(t *testing.T) {
	r := hotkey.NewRegistry()
	b, _ := event.NewHotKey(key.KeyB)
	a2, _ := event.NewHotKey(key.KeyA, key.KeyShift)
	a1, _ := event.NewHotKey(key.KeyA)
	for _, hk := range []event.HotKey{b, a2, a1} {
		r.Register(hk, func(event.HotKeyEvent) {})
	}
	assert.Equal(t, []event.HotKey{a1, a2, b}, r.HotKeys())
	assert.Equal(t, []event.HotKey{a1, a2, b}, r.Clear())
	assert.Zero(t, r.Len())
}
