package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Alia5/macrohook/input"
	"github.com/Alia5/macrohook/internal/log"
	"github.com/Alia5/macrohook/internal/platform"
	"github.com/Alia5/macrohook/keymap"
	"github.com/Alia5/macrohook/window"
)

// Globals are the flags shared by every command. main binds them for the
// command's Run.
type Globals struct {
	Backend string   `help:"Input backend (auto, evdev, hidg, windows, xhotkey, fake)" default:"auto" env:"MACROHOOK_BACKEND"`
	Layout  string   `help:"Keyboard layout: a built-in name or a layout file. Empty follows the backend" env:"MACROHOOK_LAYOUT"`
	Devices []string `help:"Device paths: evdev inputs, or the hidg keyboard and mouse gadgets" env:"MACROHOOK_DEVICES"`
	Width   int      `help:"Screen width for backends that track the cursor" default:"1920" env:"MACROHOOK_SCREEN_WIDTH"`
	Height  int      `help:"Screen height for backends that track the cursor" default:"1080" env:"MACROHOOK_SCREEN_HEIGHT"`
}

// Session is an opened backend with its facades.
type Session struct {
	Backend  *platform.Backend
	Keyboard *input.Keyboard
	// Pointer and Windows are nil when the backend has none.
	Pointer *input.Pointer
	Windows *window.Service
}

func (g *Globals) layout() (*keymap.Layout, error) {
	if g.Layout == "" {
		return nil, nil
	}
	return keymap.LoadOrBuiltin(g.Layout)
}

// Open opens the selected backend and wraps it in the input facades.
func (g *Globals) Open(logger *slog.Logger, tracer log.RawLogger) (*Session, error) {
	l, err := g.layout()
	if err != nil {
		return nil, err
	}
	b, err := platform.Open(g.Backend, platform.Options{
		Logger:  logger,
		Tracer:  tracer,
		Layout:  l,
		Devices: g.Devices,
		Width:   g.Width,
		Height:  g.Height,
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("backend opened", "backend", b.Name)

	opts := []input.KeyboardOption{input.WithLogger(logger)}
	if l != nil {
		opts = append(opts, input.WithLayout(l))
	}
	kb, err := input.NewKeyboard(b.Keyboard, opts...)
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("keyboard: %w", err)
	}
	s := &Session{Backend: b, Keyboard: kb}
	if b.Pointer != nil {
		s.Pointer, err = input.NewPointer(b.Pointer, input.WithPointerLogger(logger))
		if err != nil {
			_ = s.Close()
			_ = b.Pointer.Close()
			return nil, fmt.Errorf("pointer: %w", err)
		}
	}
	if b.Windows != nil {
		s.Windows = window.NewService(b.Windows, logger)
	}
	return s, nil
}

// Close closes the facades, which close the backend devices they own.
func (s *Session) Close() error {
	var errList []error
	if s.Pointer != nil {
		errList = append(errList, s.Pointer.Close())
	}
	errList = append(errList, s.Keyboard.Close())
	if s.Windows != nil {
		errList = append(errList, s.Windows.Close())
	} else if s.Backend.Windows != nil {
		errList = append(errList, s.Backend.Windows.Close())
	}
	return errors.Join(errList...)
}
