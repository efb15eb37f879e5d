//go:build linux

package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/Alia5/macrohook/internal/configpaths"
)

const serviceName = "macrohook.service"

// unitPath is the systemd user unit location.
func unitPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "systemd", "user", serviceName), nil
}

func install(logger *slog.Logger, bindings string, backend string) error {
	exePath, err := currentExecutable()
	if err != nil {
		return err
	}
	path, err := unitPath()
	if err != nil {
		return err
	}
	if err := configpaths.EnsureDir(path); err != nil {
		return err
	}

	unit := systemdUnitContent(exePath, bindings, backend)
	if err := os.WriteFile(path, []byte(unit), 0o644); err != nil {
		return err
	}

	steps := [][]string{
		{"daemon-reload"},
		{"enable", serviceName},
		{"restart", serviceName},
	}
	for _, args := range steps {
		if err := runSystemctl(args...); err != nil {
			return err
		}
	}

	logger.Info("macrohook user service installed", "path", path, "exe", exePath)
	return nil
}

func uninstall(logger *slog.Logger) error {
	path, err := unitPath()
	if err != nil {
		return err
	}
	var errList []error
	if err := runSystemctl("stop", serviceName); err != nil {
		errList = append(errList, err)
	}
	if err := runSystemctl("disable", serviceName); err != nil {
		errList = append(errList, err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		errList = append(errList, err)
	}
	if err := runSystemctl("daemon-reload"); err != nil {
		errList = append(errList, err)
	}
	if len(errList) > 0 {
		return errors.Join(errList...)
	}

	logger.Info("macrohook user service removed", "path", path)
	return nil
}

func systemdUnitContent(exePath, bindings, backend string) string {
	args := []string{fmt.Sprintf("%q", exePath), "--backend=" + backend, "run"}
	if bindings != "" {
		args = append(args, fmt.Sprintf("%q", bindings))
	}
	return fmt.Sprintf(`[Unit]
Description=macrohook hotkeys and hotstrings
After=graphical-session.target
PartOf=graphical-session.target

[Service]
Type=simple
ExecStart=%s
Restart=on-failure
RestartSec=2

[Install]
WantedBy=default.target
`, strings.Join(args, " "))
}

func runSystemctl(args ...string) error {
	cmd := exec.Command("systemctl", append([]string{"--user"}, args...)...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("systemctl --user %s failed: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return nil
}
