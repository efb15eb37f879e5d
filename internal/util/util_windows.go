//go:build windows

package util

import (
	"log/slog"
	"os"
	"slices"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32             = windows.NewLazySystemDLL("kernel32.dll")
	procGetConsoleWindow = kernel32.NewProc("GetConsoleWindow")
	procFreeConsole      = kernel32.NewProc("FreeConsole")
)

// shells start macrohook from a terminal.
var shells = []string{
	"cmd.exe",
	"powershell.exe",
	"pwsh.exe",
	"wt.exe",
	"conhost.exe",
	"windowsterminal.exe",
	"bash.exe",
	"nu.exe",
}

// IsRunFromGUI reports whether the process was started by Explorer or
// without a console.
func IsRunFromGUI() bool {
	hwnd, _, _ := procGetConsoleWindow.Call()
	parent := strings.ToLower(parentExe())
	slog.Debug("startup parent", "parent", parent, "console", hwnd != 0)
	switch {
	case hwnd == 0:
		return true
	case slices.Contains(shells, parent):
		return false
	default:
		return parent == "explorer.exe"
	}
}

// HideConsoleWindow detaches from the console Explorer opened for us.
func HideConsoleWindow() {
	hwnd, _, _ := procGetConsoleWindow.Call()
	if hwnd == 0 {
		return
	}
	_ = windows.ShowWindow(windows.HWND(hwnd), windows.SW_HIDE)
	_, _, _ = procFreeConsole.Call()
}

// parentExe returns the executable name of the parent process, or "".
func parentExe() string {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return ""
	}
	defer windows.CloseHandle(snap)

	names := map[uint32]string{}
	var parent uint32
	self := uint32(os.Getpid())

	var pe windows.ProcessEntry32
	pe.Size = uint32(unsafe.Sizeof(pe))
	for err = windows.Process32First(snap, &pe); err == nil; err = windows.Process32Next(snap, &pe) {
		names[pe.ProcessID] = windows.UTF16ToString(pe.ExeFile[:])
		if pe.ProcessID == self {
			parent = pe.ParentProcessID
		}
	}
	if parent == 0 {
		return ""
	}
	return names[parent]
}
