package record_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/macrohook/backend"
	"github.com/Alia5/macrohook/backend/fake"
	"github.com/Alia5/macrohook/errs"
	"github.com/Alia5/macrohook/event"
	th "github.com/Alia5/macrohook/internal/testing"
	"github.com/Alia5/macrohook/key"
	"github.com/Alia5/macrohook/record"
)

func TestRecordStopsOnStopKey(t *testing.T) {
	kb, kbb := th.NewKeyboard(t)
	ptr, pb := th.NewPointer(t)

	type result struct {
		events []event.Event
		err    error
	}
	done := make(chan result, 1)
	go func() {
		evs, err := record.Record(context.Background(), kb, ptr, record.Options{Type: record.Both, StopKey: key.KeyEsc})
		done <- result{evs, err}
	}()
	require.Eventually(t, func() bool { return kbb.Hooked() && pb.Hooked() }, time.Second, 5*time.Millisecond)

	kbb.Tap(key.KeyH)
	pb.MoveTo(3, 4)
	pb.EmitButton(key.BtnLeft, true)
	require.NoError(t, kb.Flush(context.Background()))
	require.NoError(t, ptr.Flush(context.Background()))
	kbb.Tap(key.KeyEsc)

	var res result
	select {
	case res = <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("recording did not stop")
	}
	require.NoError(t, res.err)
	require.Len(t, res.events, 4)
	for i := 1; i < len(res.events); i++ {
		assert.LessOrEqual(t, res.events[i-1].Time(), res.events[i].Time())
	}
	for _, ev := range res.events {
		if ke, ok := ev.(event.KeyboardEvent); ok {
			assert.NotEqual(t, key.KeyEsc, ke.Key)
		}
	}
	assert.False(t, kbb.Hooked(), "hooks are removed after recording")
	assert.False(t, pb.Hooked())
}

func TestRecordStopsOnDurationAndContext(t *testing.T) {
	kb, _ := th.NewKeyboard(t)

	start := time.Now()
	evs, err := record.Record(context.Background(), kb, nil, record.Options{Type: record.Keyboard, Duration: 30 * time.Millisecond})
	require.NoError(t, err)
	assert.Empty(t, evs)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = record.Record(ctx, kb, nil, record.Options{Type: record.Keyboard})
	require.NoError(t, err)
}

func TestRecordValidation(t *testing.T) {
	kb, _ := th.NewKeyboard(t)
	ptr, _ := th.NewPointer(t)
	tests := []struct {
		name string
		kb   bool
		ptr  bool
		opts record.Options
	}{
		{"invalid type", true, true, record.Options{}},
		{"keyboard missing", false, true, record.Options{Type: record.Both}},
		{"pointer missing", true, false, record.Options{Type: record.Pointer}},
		{"button stop without pointer", true, true, record.Options{Type: record.Keyboard, StopKey: key.BtnLeft}},
		{"key stop without keyboard", true, true, record.Options{Type: record.Pointer, StopKey: key.KeyEsc}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, p := kb, ptr
			if !tt.kb {
				k = nil
			}
			if !tt.ptr {
				p = nil
			}
			_, err := record.Record(context.Background(), k, p, tt.opts)
			assert.ErrorIs(t, err, errs.ErrInvalidArgument)
		})
	}
}

func TestReplay(t *testing.T) {
	kb, kbb := th.NewKeyboard(t)
	ptr, pb := th.NewPointer(t)
	events := []event.Event{
		event.KeyboardEvent{Key: key.KeyA, State: key.Pressed},
		event.KeyboardEvent{Key: key.KeyA, State: key.Released},
		event.PointerMotion{X: 50, Y: 60},
		event.PointerButton{Button: key.BtnLeft, State: key.Pressed},
		event.PointerButton{Button: key.BtnLeft, State: key.Released},
		event.PointerAxis{Axis: key.Vertical, Value: -2},
	}
	require.NoError(t, record.Replay(context.Background(), kb, ptr, events, time.Millisecond))

	assert.Equal(t, []fake.KeyInjection{{Key: key.KeyA, Pressed: true}, {Key: key.KeyA}}, kbb.Injected())
	assert.Equal(t, []fake.PointerInjection{
		{Kind: backend.PointerMotion, DX: 50, DY: 60, Warp: true},
		{Kind: backend.PointerButton, Button: key.BtnLeft, Pressed: true},
		{Kind: backend.PointerButton, Button: key.BtnLeft},
		{Kind: backend.PointerAxis, Axis: key.Vertical, Amount: -2},
	}, pb.Injected())
}

func TestReplayValidation(t *testing.T) {
	kb, kbb := th.NewKeyboard(t)
	events := []event.Event{
		event.KeyboardEvent{Key: key.KeyA, State: key.Pressed},
		event.PointerMotion{X: 1, Y: 1},
	}
	err := record.Replay(context.Background(), kb, nil, events, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
	assert.Empty(t, kbb.Injected(), "nothing is injected when validation fails")

	err = record.Replay(context.Background(), kb, nil, []event.Event{event.HotKeyEvent{}}, 0)
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}

func TestReplayCancel(t *testing.T) {
	kb, kbb := th.NewKeyboard(t)
	events := []event.Event{
		event.KeyboardEvent{Key: key.KeyA, State: key.Pressed},
		event.KeyboardEvent{Key: key.KeyA, State: key.Released},
		event.KeyboardEvent{Key: key.KeyB, State: key.Pressed},
		event.KeyboardEvent{Key: key.KeyB, State: key.Released},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := record.Replay(ctx, kb, nil, events, time.Hour)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, kbb.Injected(), 2)
}

func TestEncodeDecode(t *testing.T) {
	events := []event.Event{
		event.KeyboardEvent{Stamp: 10, Source: "kbd", Key: key.Key1, State: key.Pressed, Char: '!', Modifiers: key.ModShift},
		event.PointerMotion{Stamp: 20, X: 0, Y: 7},
		event.PointerButton{Stamp: 30, X: 1, Y: 2, Button: key.BtnRight, State: key.Released},
		event.PointerAxis{Stamp: 40, Axis: key.Horizontal, Value: 1.5, Modifiers: key.ModCtrl | key.ModAlt},
	}
	for _, format := range []record.Format{record.FormatYAML, record.FormatJSON} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, record.Encode(&buf, events, format))
			got, err := record.Decode(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, events, got)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad version", "version: 2\nevents: []\n"},
		{"unknown kind", "version: 1\nevents:\n  - kind: teleport\n    stamp: 1\n"},
		{"key without state", "version: 1\nevents:\n  - kind: key\n    stamp: 1\n    key: a\n"},
		{"unknown field", "version: 1\nevents: []\nextra: true\n"},
		{"bad key name", "version: 1\nevents:\n  - kind: key\n    stamp: 1\n    key: nope\n    state: pressed\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := record.Decode(strings.NewReader(tt.doc), record.FormatYAML)
			assert.Error(t, err)
		})
	}
	assert.Equal(t, record.FormatJSON, record.FormatOf("macro.JSON"))
	assert.Equal(t, record.FormatYAML, record.FormatOf("macro.yml"))
}

func TestParseType(t *testing.T) {
	for _, ty := range []record.Type{record.Keyboard, record.Pointer, record.Both} {
		got, err := record.ParseType(ty.String())
		require.NoError(t, err)
		assert.Equal(t, ty, got)
	}
	_, err := record.ParseType("mouse")
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)
}
