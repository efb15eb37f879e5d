package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Install registers run as a per-user service started with the session.
type Install struct {
	Bindings string `arg:"" optional:"" help:"Bindings file for the service" type:"existingfile"`
}

func (c *Install) Run(g *Globals, logger *slog.Logger) error {
	bindings := c.Bindings
	if bindings != "" {
		abs, err := filepath.Abs(bindings)
		if err != nil {
			return err
		}
		bindings = abs
	}
	return install(logger, bindings, g.Backend)
}

type Uninstall struct{}

func (c *Uninstall) Run(logger *slog.Logger) error {
	return uninstall(logger)
}

func currentExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return exe, nil
}
