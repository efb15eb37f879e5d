package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/Alia5/macrohook/event"
	"github.com/Alia5/macrohook/input"
	"github.com/Alia5/macrohook/key"
)

// Bindings is the file served by the run command.
type Bindings struct {
	HotKeys    []HotKeyBinding    `json:"hotkeys,omitempty" yaml:"hotkeys,omitempty" toml:"hotkeys,omitempty"`
	HotStrings []HotStringBinding `json:"hotstrings,omitempty" yaml:"hotstrings,omitempty" toml:"hotstrings,omitempty"`
}

// HotKeyBinding runs its action when the chord is pressed.
type HotKeyBinding struct {
	HotKey string   `json:"hotkey" yaml:"hotkey" toml:"hotkey"`
	Type   string   `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	Keys   []string `json:"keys,omitempty" yaml:"keys,omitempty" toml:"keys,omitempty"`
	Exec   string   `json:"exec,omitempty" yaml:"exec,omitempty" toml:"exec,omitempty"`
}

// HotStringBinding runs its action when String is typed. Triggers lists the
// characters that must follow; empty fires immediately. Replace erases the
// typed string first.
type HotStringBinding struct {
	String   string   `json:"string" yaml:"string" toml:"string"`
	Triggers string   `json:"triggers,omitempty" yaml:"triggers,omitempty" toml:"triggers,omitempty"`
	Replace  bool     `json:"replace,omitempty" yaml:"replace,omitempty" toml:"replace,omitempty"`
	Type     string   `json:"type,omitempty" yaml:"type,omitempty" toml:"type,omitempty"`
	Keys     []string `json:"keys,omitempty" yaml:"keys,omitempty" toml:"keys,omitempty"`
	Exec     string   `json:"exec,omitempty" yaml:"exec,omitempty" toml:"exec,omitempty"`
}

// action is what a binding does, in order: type text, send chords, run a
// command.
type action struct {
	text   string
	chords []key.Chord
	exec   string
}

func newAction(text string, keys []string, command string) (action, error) {
	a := action{text: text, exec: command}
	for _, s := range keys {
		c, err := key.ParseChord(s)
		if err != nil {
			return action{}, err
		}
		a.chords = append(a.chords, c)
	}
	if a.text == "" && len(a.chords) == 0 && a.exec == "" {
		return action{}, errors.New("no action: set type, keys or exec")
	}
	return a, nil
}

// LoadBindings reads a bindings file, picking the decoder by extension.
func LoadBindings(path string) (*Bindings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bindings: %w", err)
	}
	var b Bindings
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&b)
	case ".toml":
		err = toml.Unmarshal(data, &b)
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&b)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("bindings %s: %w", path, err)
	}
	return &b, nil
}

// binder registers bindings on a keyboard and remembers them so a reload
// can drop the previous set.
type binder struct {
	kb     *input.Keyboard
	logger *slog.Logger
	ctx    context.Context

	mu         sync.Mutex
	hotkeys    []event.HotKey
	hotstrings []event.HotString
}

// apply replaces the registered bindings with b. Invalid entries are logged
// and skipped so one typo does not disable the whole file.
func (bd *binder) apply(b *Bindings) error {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	if err := bd.clearLocked(); err != nil {
		return err
	}
	for _, hb := range b.HotKeys {
		chord, err := key.ParseChord(hb.HotKey)
		if err != nil {
			bd.logger.Error("invalid hotkey", "hotkey", hb.HotKey, "error", err)
			continue
		}
		a, err := newAction(hb.Type, hb.Keys, hb.Exec)
		if err != nil {
			bd.logger.Error("invalid hotkey action", "hotkey", hb.HotKey, "error", err)
			continue
		}
		hk, err := bd.kb.RegisterHotKey(chord.Key, func(ev event.HotKeyEvent) {
			bd.logger.Info("hotkey", "hotkey", ev.HotKey.String())
			bd.run(a)
		}, chord.Modifiers...)
		if err != nil {
			bd.logger.Error("register hotkey", "hotkey", hb.HotKey, "error", err)
			continue
		}
		bd.hotkeys = append(bd.hotkeys, hk)
	}
	for _, sb := range b.HotStrings {
		a, err := newAction(sb.Type, sb.Keys, sb.Exec)
		if err != nil {
			bd.logger.Error("invalid hotstring action", "string", sb.String, "error", err)
			continue
		}
		replace := sb.Replace
		hs, err := bd.kb.RegisterHotString(sb.String, []rune(sb.Triggers), func(ev event.HotStringEvent) {
			bd.logger.Info("hotstring", "string", ev.String)
			if replace {
				bd.erase(ev)
			}
			bd.run(a)
			if replace && ev.Trigger != 0 {
				bd.typeText(string(ev.Trigger))
			}
		})
		if err != nil {
			bd.logger.Error("register hotstring", "string", sb.String, "error", err)
			continue
		}
		bd.hotstrings = append(bd.hotstrings, hs)
	}
	bd.logger.Info("bindings loaded", "hotkeys", len(bd.hotkeys), "hotstrings", len(bd.hotstrings))
	return nil
}

func (bd *binder) clear() error {
	bd.mu.Lock()
	defer bd.mu.Unlock()
	return bd.clearLocked()
}

func (bd *binder) clearLocked() error {
	var errList []error
	for _, hk := range bd.hotkeys {
		errList = append(errList, bd.kb.UnregisterHotKey(hk))
	}
	for _, hs := range bd.hotstrings {
		errList = append(errList, bd.kb.UnregisterHotString(hs))
	}
	bd.hotkeys, bd.hotstrings = nil, nil
	return errors.Join(errList...)
}

// erase sends one backspace per typed character, the trigger included.
func (bd *binder) erase(ev event.HotStringEvent) {
	n := len([]rune(ev.String))
	if ev.Trigger != 0 {
		n++
	}
	for range n {
		if err := bd.kb.KeyPress(key.KeyBackspace); err != nil {
			bd.logger.Error("erase hotstring", "error", err)
			return
		}
	}
}

func (bd *binder) typeText(s string) {
	if err := bd.kb.Type(s); err != nil {
		bd.logger.Error("type", "error", err)
	}
}

func (bd *binder) run(a action) {
	if a.text != "" {
		bd.typeText(a.text)
	}
	for _, c := range a.chords {
		if err := pressChord(bd.kb, c); err != nil {
			bd.logger.Error("send keys", "keys", c.String(), "error", err)
			return
		}
	}
	if a.exec != "" {
		go bd.execute(a.exec)
	}
}

// execute runs command through the system shell. It runs off the dispatch
// worker so a slow command does not stall input handling.
func (bd *binder) execute(command string) {
	var c *exec.Cmd
	if runtime.GOOS == "windows" {
		c = exec.CommandContext(bd.ctx, "cmd", "/C", command)
	} else {
		c = exec.CommandContext(bd.ctx, "/bin/sh", "-c", command)
	}
	out, err := c.CombinedOutput()
	if err != nil {
		bd.logger.Error("exec failed", "command", command, "error", err, "output", strings.TrimSpace(string(out)))
		return
	}
	bd.logger.Debug("exec done", "command", command, "output", strings.TrimSpace(string(out)))
}

// pressChord taps c.Key with the chord's modifiers held.
func pressChord(kb *input.Keyboard, c key.Chord) error {
	for _, m := range c.Modifiers {
		if err := kb.KeyPress(m, key.Pressed); err != nil {
			return err
		}
	}
	err := kb.KeyPress(c.Key)
	for i := len(c.Modifiers) - 1; i >= 0; i-- {
		err = errors.Join(err, kb.KeyPress(c.Modifiers[i], key.Released))
	}
	return err
}
