//go:build linux

package evdev

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/holoplot/go-evdev"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/macrohook/backend"
	"github.com/Alia5/macrohook/internal/log"
	"github.com/Alia5/macrohook/key"
	"github.com/Alia5/macrohook/keymap"
)

func keyEvent(code evdev.EvCode, value int32) *evdev.InputEvent {
	return &evdev.InputEvent{Type: evdev.EV_KEY, Code: code, Value: value}
}

func TestKeyboardHandleTracksHeldAndLeds(t *testing.T) {
	var got []backend.Raw
	k := &Keyboard{cfg: newConfig(nil), logger: slog.Default()}
	k.sink = func(r backend.Raw) { got = append(got, r) }

	k.handle("/dev/input/event3", keyEvent(evdev.KEY_LEFTSHIFT, 1))
	k.handle("/dev/input/event3", keyEvent(evdev.KEY_A, 1))
	k.handle("/dev/input/event3", keyEvent(evdev.KEY_A, 2))
	k.handle("/dev/input/event3", &evdev.InputEvent{Type: evdev.EV_LED, Code: evdev.LED_CAPSL, Value: 1})
	k.handle("/dev/input/event3", keyEvent(evdev.BTN_LEFT, 1))
	k.handle("/dev/input/event3", keyEvent(evdev.KEY_A, 0))

	require.Len(t, got, 3)
	assert.Equal(t, key.KeyLeftShift, got[0].Key)
	assert.Equal(t, []keymap.Code{keymap.Code(key.KeyLeftShift), keymap.Code(key.KeyA)}, got[1].Held)
	assert.True(t, got[1].Pressed)
	assert.Equal(t, "/dev/input/event3", got[1].Source)

	assert.False(t, got[2].Pressed)
	assert.Equal(t, []keymap.Code{keymap.Code(key.KeyLeftShift)}, got[2].Held)
	assert.Equal(t, key.CapsLock, got[2].Leds)
}

func TestPointerHandle(t *testing.T) {
	var got []backend.RawPointer
	p := &Pointer{cfg: newConfig([]Option{WithScreen(100, 50)}), logger: slog.Default(), buttons: map[key.Key]bool{}}
	p.sink = func(r backend.RawPointer) { got = append(got, r) }

	p.handle("m", &evdev.InputEvent{Type: evdev.EV_REL, Code: evdev.REL_X, Value: 30})
	p.handle("m", &evdev.InputEvent{Type: evdev.EV_REL, Code: evdev.REL_Y, Value: 80})
	p.handle("m", &evdev.InputEvent{Type: evdev.EV_SYN, Code: evdev.SYN_REPORT})
	p.handle("m", &evdev.InputEvent{Type: evdev.EV_SYN, Code: evdev.SYN_REPORT})
	p.handle("m", keyEvent(evdev.BTN_RIGHT, 1))
	p.handle("m", &evdev.InputEvent{Type: evdev.EV_REL, Code: evdev.REL_WHEEL, Value: 1})
	p.handle("m", &evdev.InputEvent{Type: evdev.EV_REL, Code: evdev.REL_HWHEEL, Value: 1})

	require.Len(t, got, 4)
	assert.Equal(t, backend.RawPointer{Source: "m", Kind: backend.PointerMotion, X: 30, Y: 49}, got[0])
	assert.Equal(t, key.BtnRight, got[1].Button)
	assert.True(t, got[1].Pressed)
	assert.Equal(t, -1.0, got[2].Value, "wheel up is a negative scroll")
	assert.Equal(t, key.Vertical, got[2].Axis)
	assert.Equal(t, 1.0, got[3].Value)

	st, err := p.ButtonState(key.BtnRight)
	require.NoError(t, err)
	assert.Equal(t, key.Pressed, st)
}

func TestLedLock(t *testing.T) {
	tests := []struct {
		code evdev.EvCode
		want key.Lock
		ok   bool
	}{
		{evdev.LED_NUML, key.NumLock, true},
		{evdev.LED_CAPSL, key.CapsLock, true},
		{evdev.LED_SCROLLL, key.ScrollLock, true},
		{evdev.LED_KANA, key.LockNone, false},
	}
	for _, tt := range tests {
		got, ok := ledLock(tt.code)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.ok, ok)
	}
}

func TestTraceWritesEventBytes(t *testing.T) {
	var buf bytes.Buffer
	trace(log.NewRaw(&buf), true, keyEvent(evdev.KEY_A, 1))
	assert.Contains(t, buf.String(), "dev->host")
	assert.Contains(t, buf.String(), "1e 00 01 00 00 00", "type, code and value of KEY_A press")
}

func TestConfigDefaults(t *testing.T) {
	c := newConfig(nil)
	assert.Equal(t, "us", c.layout.Name)
	assert.Equal(t, 1920, c.width)
	c = newConfig([]Option{WithScreen(0, 10)})
	assert.Equal(t, 1080, c.height, "invalid sizes are ignored")
}
