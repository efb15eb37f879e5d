//go:build windows

package winapi

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procSetWindowsHookExW        = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx      = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx           = user32.NewProc("CallNextHookEx")
	procGetMessageW              = user32.NewProc("GetMessageW")
	procPostThreadMessageW       = user32.NewProc("PostThreadMessageW")
	procSendInput                = user32.NewProc("SendInput")
	procGetKeyState              = user32.NewProc("GetKeyState")
	procGetAsyncKeyState         = user32.NewProc("GetAsyncKeyState")
	procMapVirtualKeyExW         = user32.NewProc("MapVirtualKeyExW")
	procToUnicodeEx              = user32.NewProc("ToUnicodeEx")
	procGetKeyboardLayout        = user32.NewProc("GetKeyboardLayout")
	procGetKeyboardLayoutNameW   = user32.NewProc("GetKeyboardLayoutNameW")
	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procGetCursorPos             = user32.NewProc("GetCursorPos")
	procSetCursorPos             = user32.NewProc("SetCursorPos")
	procGetSystemMetrics         = user32.NewProc("GetSystemMetrics")
	procEnumWindows              = user32.NewProc("EnumWindows")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procIsWindow                 = user32.NewProc("IsWindow")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetClassNameW            = user32.NewProc("GetClassNameW")
	procWindowFromPoint          = user32.NewProc("WindowFromPoint")
	procGetAncestor              = user32.NewProc("GetAncestor")
	procIsIconic                 = user32.NewProc("IsIconic")
	procIsZoomed                 = user32.NewProc("IsZoomed")
	procGetWindowRect            = user32.NewProc("GetWindowRect")
	procSetForegroundWindow      = user32.NewProc("SetForegroundWindow")
	procShowWindow               = user32.NewProc("ShowWindow")
	procSetWindowPos             = user32.NewProc("SetWindowPos")
	procPostMessageW             = user32.NewProc("PostMessageW")
	procScreenToClient           = user32.NewProc("ScreenToClient")
)

const (
	whKeyboardLL = 13
	whMouseLL    = 14

	wmQuit        = 0x0012
	wmClose       = 0x0010
	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmChar        = 0x0102
	wmSysKeyDown  = 0x0104
	wmSysKeyUp    = 0x0105
	wmMouseMove   = 0x0200
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmRButtonUp   = 0x0205
	wmMButtonDown = 0x0207
	wmMButtonUp   = 0x0208
	wmMouseWheel  = 0x020a
	wmXButtonDown = 0x020b
	wmXButtonUp   = 0x020c
	wmMouseHWheel = 0x020e

	llkhfExtended = 0x01
	llkhfInjected = 0x10
	llmhfInjected = 0x01

	inputMouse    = 0
	inputKeyboard = 1

	keyeventfExtendedKey = 0x0001
	keyeventfKeyUp       = 0x0002
	keyeventfScanCode    = 0x0008

	mouseeventfMove       = 0x0001
	mouseeventfLeftDown   = 0x0002
	mouseeventfLeftUp     = 0x0004
	mouseeventfRightDown  = 0x0008
	mouseeventfRightUp    = 0x0010
	mouseeventfMiddleDown = 0x0020
	mouseeventfMiddleUp   = 0x0040
	mouseeventfXDown      = 0x0080
	mouseeventfXUp        = 0x0100
	mouseeventfWheel      = 0x0800
	mouseeventfHWheel     = 0x1000

	wheelDelta = 120

	mapvkVKToVSC   = 0
	mapvkVSCToVKEx = 3

	smCXScreen = 0
	smCYScreen = 1

	gaRoot = 2

	swMinimize = 6
	swMaximize = 3
	swRestore  = 9

	swpNoSize   = 0x0001
	swpNoMove   = 0x0002
	swpNoZOrder = 0x0004
)

type point struct{ X, Y int32 }

type rect struct{ Left, Top, Right, Bottom int32 }

type winMsg struct {
	hwnd    windows.HWND
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      point
}

type kbdllHookStruct struct {
	vkCode    uint32
	scanCode  uint32
	flags     uint32
	time      uint32
	extraInfo uintptr
}

type msllHookStruct struct {
	pt        point
	mouseData uint32
	flags     uint32
	time      uint32
	extraInfo uintptr
}

type mouseInput struct {
	dx, dy    int32
	mouseData uint32
	flags     uint32
	time      uint32
	extraInfo uintptr
}

// keybdInput is padded to the size of mouseInput, the largest member of the
// INPUT union.
type keybdInput struct {
	vk        uint16
	scan      uint16
	flags     uint32
	time      uint32
	extraInfo uintptr
	_         [8]byte
}

type keyboardInputRecord struct {
	typ uint32
	ki  keybdInput
}

type mouseInputRecord struct {
	typ uint32
	mi  mouseInput
}

func sendKeyboard(ki keybdInput) error {
	in := keyboardInputRecord{typ: inputKeyboard, ki: ki}
	n, _, err := procSendInput.Call(1, uintptr(unsafe.Pointer(&in)), unsafe.Sizeof(in))
	if n != 1 {
		return err
	}
	return nil
}

func sendMouse(mi mouseInput) error {
	in := mouseInputRecord{typ: inputMouse, mi: mi}
	n, _, err := procSendInput.Call(1, uintptr(unsafe.Pointer(&in)), unsafe.Sizeof(in))
	if n != 1 {
		return err
	}
	return nil
}

func keyState(vk int) int16 {
	r, _, _ := procGetKeyState.Call(uintptr(vk))
	return int16(r)
}

func asyncKeyDown(vk int) bool {
	r, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
	return uint16(r)&0x8000 != 0
}

func cursorPos() (int, int, error) {
	var p point
	r, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&p)))
	if r == 0 {
		return 0, 0, err
	}
	return int(p.X), int(p.Y), nil
}

func foregroundLayout() uintptr {
	hwnd, _, _ := procGetForegroundWindow.Call()
	tid, _, _ := procGetWindowThreadProcessId.Call(hwnd, 0)
	hkl, _, _ := procGetKeyboardLayout.Call(tid)
	return hkl
}

// hookThread runs a low-level hook on a locked OS thread with its own
// message loop, as Windows requires.
type hookThread struct {
	tid  uint32
	done chan struct{}
}

func startHook(idHook int, proc uintptr) (*hookThread, error) {
	h := &hookThread{done: make(chan struct{})}
	ready := make(chan error, 1)
	go func() {
		defer close(h.done)
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		hook, _, err := procSetWindowsHookExW.Call(uintptr(idHook), proc, 0, 0)
		if hook == 0 {
			ready <- err
			return
		}
		defer procUnhookWindowsHookEx.Call(hook)
		h.tid = windows.GetCurrentThreadId()
		ready <- nil

		var m winMsg
		for {
			r, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
			if int32(r) <= 0 {
				return
			}
		}
	}()
	if err := <-ready; err != nil {
		return nil, err
	}
	return h, nil
}

func (h *hookThread) stop() {
	_, _, _ = procPostThreadMessageW.Call(uintptr(h.tid), wmQuit, 0, 0)
	<-h.done
}

func callNext(nCode int, wParam, lParam uintptr) uintptr {
	r, _, _ := procCallNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return r
}
