package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/macrohook/backend/fake"
	"github.com/Alia5/macrohook/event"
	th "github.com/Alia5/macrohook/internal/testing"
	"github.com/Alia5/macrohook/key"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadBindings(t *testing.T) {
	want := &Bindings{
		HotKeys: []HotKeyBinding{
			{HotKey: "ctrl+alt+t", Exec: "xterm"},
		},
		HotStrings: []HotStringBinding{
			{String: "btw", Triggers: " .", Replace: true, Type: "by the way"},
		},
	}
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "bindings.yaml",
			content: `hotkeys:
  - hotkey: ctrl+alt+t
    exec: xterm
hotstrings:
  - string: btw
    triggers: " ."
    replace: true
    type: by the way
`,
		},
		{
			name: "json",
			file: "bindings.json",
			content: `{"hotkeys":[{"hotkey":"ctrl+alt+t","exec":"xterm"}],
"hotstrings":[{"string":"btw","triggers":" .","replace":true,"type":"by the way"}]}`,
		},
		{
			name: "toml",
			file: "bindings.toml",
			content: `[[hotkeys]]
hotkey = "ctrl+alt+t"
exec = "xterm"

[[hotstrings]]
string = "btw"
triggers = " ."
replace = true
type = "by the way"
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadBindings(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadBindingsRejects(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown yaml field", "b.yaml", "hotkeys:\n  - hotkey: f1\n    run: ls\n"},
		{"unknown json field", "b.json", `{"macros": []}`},
		{"broken toml", "b.toml", "[[hotkeys]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBindings(writeFile(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := LoadBindings(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadBindingsEmptyYAML(t *testing.T) {
	got, err := LoadBindings(writeFile(t, "b.yaml", ""))
	require.NoError(t, err)
	assert.Empty(t, got.HotKeys)
}

func TestNewAction(t *testing.T) {
	a, err := newAction("hi", []string{"ctrl+c", "F5"}, "")
	require.NoError(t, err)
	assert.Equal(t, "hi", a.text)
	require.Len(t, a.chords, 2)
	assert.Equal(t, key.KeyC, a.chords[0].Key)
	assert.Equal(t, key.KeyF5, a.chords[1].Key)

	_, err = newAction("", nil, "")
	assert.Error(t, err)
	_, err = newAction("", []string{"a+b"}, "")
	assert.Error(t, err, "a is not a modifier")
}

func injected(b *fake.Keyboard, n int) func() bool {
	return func() bool { return len(b.Injected()) >= n }
}

func newBinder(t *testing.T) (*binder, *fake.Keyboard) {
	t.Helper()
	kb, b := th.NewKeyboard(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &binder{kb: kb, logger: logger, ctx: context.Background()}, b
}

func TestBinderHotKeySendsChord(t *testing.T) {
	bd, b := newBinder(t)
	require.NoError(t, bd.apply(&Bindings{HotKeys: []HotKeyBinding{
		{HotKey: "ctrl+alt+t", Keys: []string{"shift+v"}},
		{HotKey: "ctrl+nope", Keys: []string{"a"}},
	}}))
	assert.Len(t, bd.hotkeys, 1, "invalid entries are skipped")

	b.Emit(key.KeyLeftCtrl, true)
	b.Emit(key.KeyLeftAlt, true)
	b.Tap(key.KeyT)
	b.Emit(key.KeyLeftAlt, false)
	b.Emit(key.KeyLeftCtrl, false)

	require.Eventually(t, injected(b, 4), 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []fake.KeyInjection{
		{Key: key.KeyLeftShift, Pressed: true},
		{Key: key.KeyV, Pressed: true},
		{Key: key.KeyV, Pressed: false},
		{Key: key.KeyLeftShift, Pressed: false},
	}, b.Injected())
}

func TestBinderHotStringReplace(t *testing.T) {
	bd, b := newBinder(t)
	require.NoError(t, bd.kb.InstallHook(func(event.KeyboardEvent) {}, false))
	require.NoError(t, bd.apply(&Bindings{HotStrings: []HotStringBinding{
		{String: "btw", Triggers: " ", Replace: true, Type: "bye"},
	}}))

	require.NoError(t, b.TypeText("btw "))

	// four backspaces, "bye" and the trigger again, each a press and release
	const n = (4 + 3 + 1) * 2
	require.Eventually(t, injected(b, n), 2*time.Second, 5*time.Millisecond)
	got := b.Injected()
	for i := range 8 {
		assert.Equal(t, key.KeyBackspace, got[i].Key)
	}
	assert.Equal(t, []key.Key{key.KeyB, key.KeyB, key.KeyY, key.KeyY, key.KeyE, key.KeyE, key.KeySpace, key.KeySpace},
		keysOf(got[8:]))
}

func TestBinderReloadDropsOldBindings(t *testing.T) {
	bd, b := newBinder(t)
	require.NoError(t, bd.apply(&Bindings{HotKeys: []HotKeyBinding{{HotKey: "f1", Type: "x"}}}))
	require.Len(t, b.Grabs(), 1)

	require.NoError(t, bd.apply(&Bindings{HotKeys: []HotKeyBinding{{HotKey: "f2", Type: "x"}}}))
	grabs := b.Grabs()
	require.Len(t, grabs, 1)
	assert.Equal(t, key.KeyF2, grabs[0].Key)

	require.NoError(t, bd.clear())
	assert.Empty(t, b.Grabs())
}

func keysOf(in []fake.KeyInjection) []key.Key {
	out := make([]key.Key, len(in))
	for i, k := range in {
		out[i] = k.Key
	}
	return out
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Grab":    "grab",
		"NoWatch": "no_watch",
		"StopKey": "stop_key",
		"RawFile": "raw_file",
		"ID":      "id",
	}
	for in, want := range tests {
		assert.Equal(t, want, snakeCase(in), in)
	}
}

func TestBuildMapFromStruct(t *testing.T) {
	got := buildMapFromStruct(reflect.TypeOf(Record{}))
	assert.Equal(t, map[string]any{
		"type":     "keyboard",
		"stop_key": "Escape",
		"duration": "0s",
		"force":    false,
	}, got)

	g := buildMapFromStruct(reflect.TypeOf(Globals{}))
	assert.Equal(t, "auto", g["backend"])
	assert.Equal(t, int64(1920), g["width"])
	assert.NotContains(t, g, "devices")
}
