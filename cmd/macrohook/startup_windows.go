//go:build windows

package main

import (
	"log/slog"
	"os"

	"github.com/Alia5/macrohook/internal/util"
)

// A double-clicked binary gets no arguments; serve the default bindings in
// the background instead of printing usage into a console that closes.
func init() {
	if !util.IsRunFromGUI() || len(os.Args) > 1 {
		return
	}
	slog.Info("Detected GUI startup, running with the default bindings")
	os.Args = append(os.Args, "run")
	util.HideConsoleWindow()
}
