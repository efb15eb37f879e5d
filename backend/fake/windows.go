package fake

import (
	"errors"
	"slices"
	"sync"

	"github.com/Alia5/macrohook/backend"
	"github.com/Alia5/macrohook/event"
)

// WindowCall records one action performed on a fake window.
type WindowCall struct {
	Handle backend.WindowHandle
	Action string
	Event  event.Event
}

// Windows is an in-memory window manager.
type Windows struct {
	mu      sync.Mutex
	next    backend.WindowHandle
	order   []backend.WindowHandle
	infos   map[backend.WindowHandle]backend.WindowInfo
	active  backend.WindowHandle
	pointer backend.WindowHandle
	calls   []WindowCall
}

var _ backend.Windows = (*Windows)(nil)

var errNoWindow = errors.New("fake: no such window")

func NewWindows() *Windows {
	return &Windows{next: 0x1000, infos: make(map[backend.WindowHandle]backend.WindowInfo)}
}

// Open adds a window and returns its handle. Handle, if zero, is assigned.
func (w *Windows) Open(info backend.WindowInfo) backend.WindowHandle {
	w.mu.Lock()
	defer w.mu.Unlock()
	if info.Handle == 0 {
		w.next++
		info.Handle = w.next
	}
	w.infos[info.Handle] = info
	w.order = append(w.order, info.Handle)
	return info.Handle
}

// Destroy removes a window as if its application closed it.
func (w *Windows) Destroy(h backend.WindowHandle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.remove(h)
}

func (w *Windows) remove(h backend.WindowHandle) {
	delete(w.infos, h)
	w.order = slices.DeleteFunc(w.order, func(o backend.WindowHandle) bool { return o == h })
	if w.active == h {
		w.active = 0
	}
	if w.pointer == h {
		w.pointer = 0
	}
}

func (w *Windows) Focus(h backend.WindowHandle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.active = h
}

// SetUnderPointer sets the window UnderPointer reports.
func (w *Windows) SetUnderPointer(h backend.WindowHandle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pointer = h
}

func (w *Windows) Calls() []WindowCall {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.calls)
}

func (w *Windows) List() ([]backend.WindowHandle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.order), nil
}

func (w *Windows) Active() (backend.WindowHandle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active, nil
}

func (w *Windows) UnderPointer() (backend.WindowHandle, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pointer, nil
}

func (w *Windows) lookup(h backend.WindowHandle) (backend.WindowInfo, error) {
	info, ok := w.infos[h]
	if !ok {
		return backend.WindowInfo{}, errNoWindow
	}
	return info, nil
}

func (w *Windows) Info(h backend.WindowHandle) (backend.WindowInfo, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lookup(h)
}

func (w *Windows) Act(h backend.WindowHandle, a backend.WindowAction) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	info, err := w.lookup(h)
	if err != nil {
		return err
	}
	w.calls = append(w.calls, WindowCall{Handle: h, Action: a.String()})
	switch a {
	case backend.ActionActivate:
		w.active = h
		if info.State == backend.WindowMinimized {
			info.State = backend.WindowNormal
		}
	case backend.ActionRestore:
		info.State = backend.WindowNormal
	case backend.ActionMinimize:
		info.State = backend.WindowMinimized
	case backend.ActionMaximize:
		info.State = backend.WindowMaximized
	case backend.ActionClose, backend.ActionForceClose:
		w.remove(h)
		return nil
	}
	w.infos[h] = info
	return nil
}

func (w *Windows) Move(h backend.WindowHandle, x, y int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	info, err := w.lookup(h)
	if err != nil {
		return err
	}
	info.X, info.Y = x, y
	w.infos[h] = info
	w.calls = append(w.calls, WindowCall{Handle: h, Action: "move"})
	return nil
}

func (w *Windows) Resize(h backend.WindowHandle, width, height int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	info, err := w.lookup(h)
	if err != nil {
		return err
	}
	info.Width, info.Height = width, height
	w.infos[h] = info
	w.calls = append(w.calls, WindowCall{Handle: h, Action: "resize"})
	return nil
}

func (w *Windows) Send(h backend.WindowHandle, ev event.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.lookup(h); err != nil {
		return err
	}
	w.calls = append(w.calls, WindowCall{Handle: h, Action: "send", Event: ev})
	return nil
}

func (w *Windows) Close() error { return nil }
