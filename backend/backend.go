// Package backend defines what the input facade needs from a platform:
// keyboard and pointer hooks, synthetic input, layout discovery and window
// management. Concrete backends live in the sub-packages.
package backend

import (
	"errors"

	"github.com/Alia5/macrohook/event"
	"github.com/Alia5/macrohook/key"
	"github.com/Alia5/macrohook/keymap"
)

// ErrUnsupported marks a capability the backend lacks.
var ErrUnsupported = errors.New("not supported by this backend")

// Source is an input device.
type Source struct {
	ID   string
	Name string
	Path string
}

// Raw is a keyboard event as delivered by a backend hook. Backends report
// the modifier state either as a state word (HasMask) or as the held codes
// plus LED state.
type Raw struct {
	Source   string
	Code     keymap.Code
	Key      key.Key
	Pressed  bool
	Mask     uint32
	HasMask  bool
	Held     []keymap.Code
	Leds     key.Lock
	Injected bool
}

type PointerKind uint8

const (
	PointerMotion PointerKind = iota + 1
	PointerButton
	PointerAxis
)

// RawPointer is a pointer event as delivered by a backend hook. X and Y are
// absolute screen coordinates when the backend knows them.
type RawPointer struct {
	Source   string
	Kind     PointerKind
	X, Y     int
	Button   key.Key
	Pressed  bool
	Axis     key.Axis
	Value    float64
	Mods     key.Modifier
	Injected bool
}

// Keyboard is a keyboard backend. Hook delivers events on a goroutine owned
// by the backend until Unhook or Close.
type Keyboard interface {
	Sources() ([]Source, error)
	Hook(sink func(Raw), grab bool) error
	Unhook() error
	Leds() (key.Lock, error)
	KeyState(k key.Key) (key.State, error)
	Inject(k key.Key, pressed bool) error
	// Sync flushes injected events that the backend batches.
	Sync() error
	CurrentLayout() (*keymap.Layout, error)
	Close() error
}

// LayoutSource is implemented by keyboards whose layout can change at
// runtime. LayoutID changes whenever CurrentLayout would return a different
// layout.
type LayoutSource interface {
	LayoutID() (string, error)
}

// HotkeyGrabber is implemented by keyboards that can claim a hotkey at the
// OS level so the focused application does not see it.
type HotkeyGrabber interface {
	Grab(hk event.HotKey) error
	Ungrab(hk event.HotKey) error
}

// Pointer is a pointer backend.
type Pointer interface {
	Sources() ([]Source, error)
	Hook(sink func(RawPointer), grab bool) error
	Unhook() error
	InjectMotion(dx, dy int) error
	InjectButton(b key.Key, pressed bool) error
	InjectAxis(axis key.Axis, amount float64) error
	ButtonState(b key.Key) (key.State, error)
	CursorPosition() (x, y int, err error)
	ScreenBounds() (w, h int, err error)
	Close() error
}

// Warper is implemented by pointers that can move to absolute coordinates.
type Warper interface {
	Warp(x, y int) error
}

type WindowHandle uint64

type WindowState uint8

const (
	WindowNormal WindowState = iota
	WindowMinimized
	WindowMaximized
)

func (s WindowState) String() string {
	switch s {
	case WindowMinimized:
		return "minimized"
	case WindowMaximized:
		return "maximized"
	default:
		return "normal"
	}
}

// WindowInfo is a snapshot of a window's properties.
type WindowInfo struct {
	Handle WindowHandle
	Class  string
	Title  string
	PID    int
	State  WindowState
	X, Y   int
	Width  int
	Height int
}

type WindowAction uint8

const (
	ActionActivate WindowAction = iota + 1
	ActionRestore
	ActionMinimize
	ActionMaximize
	ActionClose
	ActionForceClose
)

func (a WindowAction) String() string {
	switch a {
	case ActionActivate:
		return "activate"
	case ActionRestore:
		return "restore"
	case ActionMinimize:
		return "minimize"
	case ActionMaximize:
		return "maximize"
	case ActionClose:
		return "close"
	case ActionForceClose:
		return "force-close"
	}
	return "unknown"
}

// Windows is a window management backend.
type Windows interface {
	// List returns the top-level windows.
	List() ([]WindowHandle, error)
	Active() (WindowHandle, error)
	UnderPointer() (WindowHandle, error)
	Info(h WindowHandle) (WindowInfo, error)
	Act(h WindowHandle, a WindowAction) error
	Move(h WindowHandle, x, y int) error
	Resize(h WindowHandle, w, height int) error
	// Send delivers a synthetic keyboard or pointer event to the window.
	Send(h WindowHandle, ev event.Event) error
	Close() error
}
