// Package window wraps platform windows in canonical objects: the same
// platform window is always represented by the same *Window while it is
// referenced.
package window

import (
	"fmt"

	"github.com/Alia5/macrohook/backend"
	"github.com/Alia5/macrohook/errs"
	"github.com/Alia5/macrohook/event"
)

// ID is the platform window handle.
type ID = backend.WindowHandle

type State = backend.WindowState

const (
	Normal    = backend.WindowNormal
	Minimized = backend.WindowMinimized
	Maximized = backend.WindowMaximized
)

// Window is a platform window. Class and PID are fixed at creation; other
// properties are queried from the backend on each call.
type Window struct {
	id    ID
	class string
	pid   int
	b     backend.Windows
}

func (w *Window) ID() ID { return w.id }

func (w *Window) Class() string { return w.class }

func (w *Window) PID() int { return w.pid }

func (w *Window) String() string {
	return fmt.Sprintf("<Window id=0x%x class=%q pid=%d>", uint64(w.id), w.class, w.pid)
}

func (w *Window) info() (backend.WindowInfo, error) {
	info, err := w.b.Info(w.id)
	if err != nil {
		return backend.WindowInfo{}, errs.Backend("window info", err)
	}
	return info, nil
}

func (w *Window) Title() (string, error) {
	info, err := w.info()
	return info.Title, err
}

func (w *Window) State() (State, error) {
	info, err := w.info()
	return info.State, err
}

func (w *Window) Position() (x, y int, err error) {
	info, err := w.info()
	return info.X, info.Y, err
}

func (w *Window) Size() (width, height int, err error) {
	info, err := w.info()
	return info.Width, info.Height, err
}

func (w *Window) act(a backend.WindowAction) error {
	return errs.Backend("window "+a.String(), w.b.Act(w.id, a))
}

// Activate raises the window and gives it focus.
func (w *Window) Activate() error { return w.act(backend.ActionActivate) }

func (w *Window) Restore() error { return w.act(backend.ActionRestore) }

func (w *Window) Minimize() error { return w.act(backend.ActionMinimize) }

func (w *Window) Maximize() error { return w.act(backend.ActionMaximize) }

// Close asks the window to close. The application may refuse.
func (w *Window) Close() error { return w.act(backend.ActionClose) }

// ForceClose terminates the window without asking.
func (w *Window) ForceClose() error { return w.act(backend.ActionForceClose) }

func (w *Window) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return errs.InvalidArgument("window size %dx%d", width, height)
	}
	return errs.Backend("window resize", w.b.Resize(w.id, width, height))
}

func (w *Window) Move(x, y int) error {
	return errs.Backend("window move", w.b.Move(w.id, x, y))
}

// SendEvent delivers a keyboard or pointer event to the window without
// changing focus.
func (w *Window) SendEvent(ev event.Event) error {
	switch ev.(type) {
	case event.KeyboardEvent, event.PointerMotion, event.PointerButton, event.PointerAxis:
	default:
		return errs.InvalidArgument("cannot send %T to a window", ev)
	}
	return errs.Backend("window send", w.b.Send(w.id, ev))
}
