//go:build darwin && cgo

package main

import "golang.design/x/hotkey/mainthread"

// Carbon hotkeys are delivered on the main thread's run loop.
func init() {
	runMain = mainthread.Init
}
