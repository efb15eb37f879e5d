//go:build !windows

// Package util holds small process helpers that differ per platform.
package util

// IsRunFromGUI reports whether the process was started from a file manager
// rather than a shell. Only Windows can tell.
func IsRunFromGUI() bool { return false }

func HideConsoleWindow() {}
