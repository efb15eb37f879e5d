//go:build windows

package winapi

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/Alia5/macrohook/backend"
	"github.com/Alia5/macrohook/errs"
	"github.com/Alia5/macrohook/event"
	"github.com/Alia5/macrohook/key"
)

// Windows manages top-level windows through user32.
type Windows struct{}

var _ backend.Windows = (*Windows)(nil)

func NewWindows(...Option) *Windows { return &Windows{} }

// EnumWindows callbacks are limited in number, so one is shared and the
// calls are serialized.
var (
	enumMu  sync.Mutex
	enumOut []backend.WindowHandle
	enumCB  = sync.OnceValue(func() uintptr {
		return windows.NewCallback(func(hwnd, _ uintptr) uintptr {
			if r, _, _ := procIsWindowVisible.Call(hwnd); r != 0 {
				enumOut = append(enumOut, backend.WindowHandle(hwnd))
			}
			return 1
		})
	})
)

func (w *Windows) List() ([]backend.WindowHandle, error) {
	enumMu.Lock()
	defer enumMu.Unlock()
	enumOut = nil
	r, _, err := procEnumWindows.Call(enumCB(), 0)
	if r == 0 {
		return nil, errs.Backend("EnumWindows", err)
	}
	out := enumOut
	enumOut = nil
	return out, nil
}

func (w *Windows) Active() (backend.WindowHandle, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	return backend.WindowHandle(hwnd), nil
}

func (w *Windows) UnderPointer() (backend.WindowHandle, error) {
	x, y, err := cursorPos()
	if err != nil {
		return 0, errs.Backend("GetCursorPos", err)
	}
	pt := uintptr(uint32(x)) | uintptr(uint32(y))<<32
	hwnd, _, _ := procWindowFromPoint.Call(pt)
	if hwnd == 0 {
		return 0, nil
	}
	root, _, _ := procGetAncestor.Call(hwnd, gaRoot)
	if root == 0 {
		root = hwnd
	}
	return backend.WindowHandle(root), nil
}

func valid(h backend.WindowHandle) error {
	if r, _, _ := procIsWindow.Call(uintptr(h)); r == 0 {
		return errs.Backend("window", ErrNoWindow)
	}
	return nil
}

func (w *Windows) Info(h backend.WindowHandle) (backend.WindowInfo, error) {
	if err := valid(h); err != nil {
		return backend.WindowInfo{}, err
	}
	hwnd := uintptr(h)
	info := backend.WindowInfo{Handle: h}

	buf := make([]uint16, 512)
	n, _, _ := procGetClassNameW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	info.Class = windows.UTF16ToString(buf[:n])
	n, _, _ = procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	info.Title = windows.UTF16ToString(buf[:n])

	var pid uint32
	_, _, _ = procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
	info.PID = int(pid)

	if r, _, _ := procIsIconic.Call(hwnd); r != 0 {
		info.State = backend.WindowMinimized
	} else if r, _, _ := procIsZoomed.Call(hwnd); r != 0 {
		info.State = backend.WindowMaximized
	}

	var rc rect
	if r, _, err := procGetWindowRect.Call(hwnd, uintptr(unsafe.Pointer(&rc))); r == 0 {
		return backend.WindowInfo{}, errs.Backend("GetWindowRect", err)
	}
	info.X, info.Y = int(rc.Left), int(rc.Top)
	info.Width, info.Height = int(rc.Right-rc.Left), int(rc.Bottom-rc.Top)
	return info, nil
}

func (w *Windows) Act(h backend.WindowHandle, a backend.WindowAction) error {
	if err := valid(h); err != nil {
		return err
	}
	hwnd := uintptr(h)
	switch a {
	case backend.ActionActivate:
		if r, _, _ := procIsIconic.Call(hwnd); r != 0 {
			_, _, _ = procShowWindow.Call(hwnd, swRestore)
		}
		if r, _, err := procSetForegroundWindow.Call(hwnd); r == 0 {
			return errs.Backend("SetForegroundWindow", err)
		}
	case backend.ActionRestore:
		_, _, _ = procShowWindow.Call(hwnd, swRestore)
	case backend.ActionMinimize:
		_, _, _ = procShowWindow.Call(hwnd, swMinimize)
	case backend.ActionMaximize:
		_, _, _ = procShowWindow.Call(hwnd, swMaximize)
	case backend.ActionClose:
		return post(hwnd, wmClose, 0, 0)
	case backend.ActionForceClose:
		var pid uint32
		_, _, _ = procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))
		p, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, pid)
		if err != nil {
			return errs.Backend("OpenProcess", err)
		}
		defer windows.CloseHandle(p)
		return errs.Backend("TerminateProcess", windows.TerminateProcess(p, 1))
	default:
		return errs.InvalidArgument("unknown window action %d", a)
	}
	return nil
}

func (w *Windows) Move(h backend.WindowHandle, x, y int) error {
	if err := valid(h); err != nil {
		return err
	}
	r, _, err := procSetWindowPos.Call(uintptr(h), 0, uintptr(x), uintptr(y), 0, 0, swpNoSize|swpNoZOrder)
	if r == 0 {
		return errs.Backend("SetWindowPos", err)
	}
	return nil
}

func (w *Windows) Resize(h backend.WindowHandle, width, height int) error {
	if err := valid(h); err != nil {
		return err
	}
	r, _, err := procSetWindowPos.Call(uintptr(h), 0, 0, 0, uintptr(width), uintptr(height), swpNoMove|swpNoZOrder)
	if r == 0 {
		return errs.Backend("SetWindowPos", err)
	}
	return nil
}

// Send posts the event to the window's message queue. The window receives
// it whether or not it has focus.
func (w *Windows) Send(h backend.WindowHandle, ev event.Event) error {
	if err := valid(h); err != nil {
		return err
	}
	hwnd := uintptr(h)
	switch e := ev.(type) {
	case event.KeyboardEvent:
		vk, ok := virtualKey(e.Key)
		if !ok {
			return errs.InvalidArgument("no virtual key for %s", e.Key)
		}
		sc, _, _ := scanOf(e.Key)
		lParam := uintptr(sc)<<16 | 1
		if e.State == key.Released {
			lParam |= 0xc0000000
			return post(hwnd, wmKeyUp, uintptr(vk), lParam)
		}
		if err := post(hwnd, wmKeyDown, uintptr(vk), lParam); err != nil {
			return err
		}
		if e.Char != 0 {
			return post(hwnd, wmChar, uintptr(e.Char), lParam)
		}
		return nil
	case event.PointerMotion:
		return post(hwnd, wmMouseMove, 0, clientPoint(hwnd, e.X, e.Y))
	case event.PointerButton:
		down, up, data := buttonMessages(e.Button)
		if down == 0 {
			return errs.InvalidArgument("cannot send %s", e.Button)
		}
		m := down
		if e.State == key.Released {
			m = up
		}
		return post(hwnd, m, data<<16, clientPoint(hwnd, e.X, e.Y))
	case event.PointerAxis:
		m := uint32(wmMouseWheel)
		delta := int32(e.Value * wheelDelta)
		if e.Axis == key.Vertical {
			delta = -delta
		} else {
			m = wmMouseHWheel
		}
		pt := uintptr(uint16(e.X)) | uintptr(uint16(e.Y))<<16
		return post(hwnd, m, uintptr(uint16(delta))<<16, pt)
	}
	return errs.InvalidArgument("cannot send %T", ev)
}

func buttonMessages(b key.Key) (down, up uint32, data uintptr) {
	switch b {
	case key.BtnLeft:
		return wmLButtonDown, wmLButtonUp, 0
	case key.BtnRight:
		return wmRButtonDown, wmRButtonUp, 0
	case key.BtnMiddle:
		return wmMButtonDown, wmMButtonUp, 0
	case key.BtnSide:
		return wmXButtonDown, wmXButtonUp, 1
	case key.BtnExtra:
		return wmXButtonDown, wmXButtonUp, 2
	}
	return 0, 0, 0
}

func clientPoint(hwnd uintptr, x, y int) uintptr {
	pt := point{X: int32(x), Y: int32(y)}
	_, _, _ = procScreenToClient.Call(hwnd, uintptr(unsafe.Pointer(&pt)))
	return uintptr(uint16(pt.X)) | uintptr(uint16(pt.Y))<<16
}

func post(hwnd uintptr, msg uint32, wParam, lParam uintptr) error {
	r, _, err := procPostMessageW.Call(hwnd, uintptr(msg), wParam, lParam)
	if r == 0 {
		return errs.Backend("PostMessage", err)
	}
	return nil
}

func (w *Windows) Close() error { return nil }
