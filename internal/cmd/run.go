package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Alia5/macrohook/backend"
	"github.com/Alia5/macrohook/event"
	"github.com/Alia5/macrohook/internal/configpaths"
	"github.com/Alia5/macrohook/internal/filewatch"
	"github.com/Alia5/macrohook/internal/log"
	"github.com/Alia5/macrohook/keymap"
)

// Run serves the hotkeys and hotstrings of a bindings file until interrupted.
type Run struct {
	Bindings string `arg:"" optional:"" help:"Bindings file (defaults to bindings.{yaml,toml,json} in the working or config directory)" type:"path"`
	Grab     bool   `help:"Swallow keys while the hook is installed" default:"false"`
	NoWatch  bool   `help:"Do not reload the bindings and layout files when they change" default:"false"`
}

// Run is called by Kong when the run command is executed.
func (r *Run) Run(g *Globals, logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return r.Serve(ctx, g, logger, rawLogger)
}

func (r *Run) bindingsPath() (string, error) {
	if r.Bindings != "" {
		return r.Bindings, nil
	}
	if p, ok := configpaths.FindNamed("bindings"); ok {
		return p, nil
	}
	return "", errors.New("no bindings file given and none found")
}

// Serve opens the backend, registers the bindings and blocks until ctx is
// done.
func (r *Run) Serve(ctx context.Context, g *Globals, logger *slog.Logger, rawLogger log.RawLogger) error {
	path, err := r.bindingsPath()
	if err != nil {
		return err
	}
	b, err := LoadBindings(path)
	if err != nil {
		return err
	}

	s, err := g.Open(logger, rawLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Error("close session", "error", err)
		}
	}()

	kb := s.Keyboard
	err = kb.InstallHook(func(ev event.KeyboardEvent) {
		logger.Debug("key", "key", ev.Key.String(), "state", ev.State.String(), "char", string(ev.Char))
	}, r.Grab)
	switch {
	case errors.Is(err, backend.ErrUnsupported):
		logger.Warn("backend has no keyboard hook; hotstrings are disabled", "backend", s.Backend.Name)
		b = &Bindings{HotKeys: b.HotKeys}
	case err != nil:
		return fmt.Errorf("install hook: %w", err)
	}

	bd := &binder{kb: kb, logger: logger, ctx: ctx}
	if err := bd.apply(b); err != nil {
		return err
	}
	hookless := !kb.HookInstalled()

	if !r.NoWatch {
		err := filewatch.Watch(ctx, path, logger, func() {
			nb, err := LoadBindings(path)
			if err != nil {
				logger.Error("reload bindings", "path", path, "error", err)
				return
			}
			if hookless {
				nb.HotStrings = nil
			}
			if err := bd.apply(nb); err != nil {
				logger.Error("apply bindings", "error", err)
			}
		})
		if err != nil {
			logger.Warn("bindings will not reload", "path", path, "error", err)
		}
		if g.Layout != "" && isFile(g.Layout) {
			if err := keymap.Watch(ctx, g.Layout, logger, kb.SetLayout); err != nil {
				logger.Warn("layout will not reload", "path", g.Layout, "error", err)
			}
		}
	}

	logger.Info("macrohook running", "backend", s.Backend.Name, "bindings", path, "layout", kb.Layout().Name)
	<-ctx.Done()
	logger.Info("shutting down")
	return bd.clear()
}

func isFile(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.Mode().IsRegular()
}
