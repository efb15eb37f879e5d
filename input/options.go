// Package input is the caller-facing API: keyboard and pointer hooks,
// hotkeys, hotstrings and ordered synthetic input on top of a backend.
package input

import (
	"log/slog"
	"time"

	"github.com/Alia5/macrohook/key"
	"github.com/Alia5/macrohook/keymap"
	"github.com/Alia5/macrohook/translate"
)

type keyboardConfig struct {
	logger         *slog.Logger
	hotStringOn    key.State
	layout         *keymap.Layout
	reloadInterval time.Duration
	bufferSize     int
}

type KeyboardOption func(*keyboardConfig)

func WithLogger(l *slog.Logger) KeyboardOption {
	return func(c *keyboardConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHotStringOn selects whether hotstrings see characters on press
// (default) or on release.
func WithHotStringOn(s key.State) KeyboardOption {
	return func(c *keyboardConfig) {
		if s.Valid() {
			c.hotStringOn = s
		}
	}
}

// WithLayout pins the layout. The backend layout is then neither read nor
// watched.
func WithLayout(l *keymap.Layout) KeyboardOption {
	return func(c *keyboardConfig) { c.layout = l }
}

// WithReloadInterval sets how often the backend layout is polled.
func WithReloadInterval(d time.Duration) KeyboardOption {
	return func(c *keyboardConfig) { c.reloadInterval = d }
}

// WithHotStringBuffer sets the number of characters remembered per source.
func WithHotStringBuffer(n int) KeyboardOption {
	return func(c *keyboardConfig) { c.bufferSize = n }
}

func defaultKeyboardConfig() keyboardConfig {
	return keyboardConfig{
		logger:         slog.Default(),
		hotStringOn:    key.Pressed,
		reloadInterval: translate.MaxReloadInterval,
	}
}

type pointerConfig struct {
	logger *slog.Logger
}

type PointerOption func(*pointerConfig)

func WithPointerLogger(l *slog.Logger) PointerOption {
	return func(c *pointerConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
