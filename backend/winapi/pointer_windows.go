//go:build windows

package winapi

import (
	"log/slog"
	"math"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/Alia5/macrohook/backend"
	"github.com/Alia5/macrohook/errs"
	"github.com/Alia5/macrohook/key"
)

// Pointer hooks the system mouse with WH_MOUSE_LL.
type Pointer struct {
	logger *slog.Logger
	proc   uintptr

	mu     sync.Mutex
	hook   *hookThread
	sink   func(backend.RawPointer)
	grab   bool
	closed bool
}

var (
	_ backend.Pointer = (*Pointer)(nil)
	_ backend.Warper  = (*Pointer)(nil)
)

func NewPointer(opts ...Option) (*Pointer, error) {
	cfg := newConfig(opts)
	p := &Pointer{logger: cfg.logger}
	p.proc = windows.NewCallback(p.hookProc)
	return p, nil
}

func (p *Pointer) Sources() ([]backend.Source, error) {
	return []backend.Source{{ID: "system", Name: "system pointer"}}, nil
}

func (p *Pointer) Hook(sink func(backend.RawPointer), grab bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errs.Closed("winapi pointer")
	}
	if p.hook != nil {
		return errs.PreconditionNotMet("pointer already hooked")
	}
	p.sink = sink
	p.grab = grab
	h, err := startHook(whMouseLL, p.proc)
	if err != nil {
		p.sink = nil
		return errs.Backend("SetWindowsHookEx mouse", err)
	}
	p.hook = h
	return nil
}

func (p *Pointer) Unhook() error {
	p.mu.Lock()
	h := p.hook
	p.hook = nil
	p.sink = nil
	p.mu.Unlock()
	if h != nil {
		h.stop()
	}
	return nil
}

func (p *Pointer) hookProc(nCode, wParam, lParam uintptr) uintptr {
	if int32(nCode) != 0 {
		return callNext(int(int32(nCode)), wParam, lParam)
	}
	info := (*msllHookStruct)(unsafe.Pointer(lParam))
	raw, ok := pointerEvent(wParam, info)
	if !ok {
		return callNext(0, wParam, lParam)
	}
	raw.Mods = modifiers()

	p.mu.Lock()
	sink, grab := p.sink, p.grab
	p.mu.Unlock()
	if sink != nil {
		sink(raw)
	}
	if grab && !raw.Injected {
		return 1
	}
	return callNext(0, wParam, lParam)
}

func pointerEvent(m uintptr, info *msllHookStruct) (backend.RawPointer, bool) {
	raw := backend.RawPointer{
		Source:   "system",
		X:        int(info.pt.X),
		Y:        int(info.pt.Y),
		Injected: info.flags&llmhfInjected != 0,
	}
	hi := int16(info.mouseData >> 16)
	switch m {
	case wmMouseMove:
		raw.Kind = backend.PointerMotion
	case wmLButtonDown, wmLButtonUp:
		raw.Kind, raw.Button, raw.Pressed = backend.PointerButton, key.BtnLeft, m == wmLButtonDown
	case wmRButtonDown, wmRButtonUp:
		raw.Kind, raw.Button, raw.Pressed = backend.PointerButton, key.BtnRight, m == wmRButtonDown
	case wmMButtonDown, wmMButtonUp:
		raw.Kind, raw.Button, raw.Pressed = backend.PointerButton, key.BtnMiddle, m == wmMButtonDown
	case wmXButtonDown, wmXButtonUp:
		raw.Kind, raw.Pressed = backend.PointerButton, m == wmXButtonDown
		raw.Button = key.BtnSide
		if hi == 2 {
			raw.Button = key.BtnExtra
		}
	case wmMouseWheel:
		// Windows reports positive as away from the user.
		raw.Kind, raw.Axis, raw.Value = backend.PointerAxis, key.Vertical, -float64(hi)/wheelDelta
	case wmMouseHWheel:
		raw.Kind, raw.Axis, raw.Value = backend.PointerAxis, key.Horizontal, float64(hi)/wheelDelta
	default:
		return raw, false
	}
	return raw, true
}

func modifiers() key.Modifier {
	var m key.Modifier
	for _, mv := range modifierVKs {
		if asyncKeyDown(mv.vk) {
			if mod, ok := key.ModifierOf(mv.key); ok {
				m = m.With(mod)
			}
		}
	}
	return m
}

func (p *Pointer) InjectMotion(dx, dy int) error {
	if p.isClosed() {
		return errs.Closed("winapi pointer")
	}
	return errs.Backend("SendInput", sendMouse(mouseInput{dx: int32(dx), dy: int32(dy), flags: mouseeventfMove}))
}

func (p *Pointer) InjectButton(b key.Key, pressed bool) error {
	if p.isClosed() {
		return errs.Closed("winapi pointer")
	}
	var mi mouseInput
	switch b {
	case key.BtnLeft:
		mi.flags = choose(pressed, mouseeventfLeftDown, mouseeventfLeftUp)
	case key.BtnRight:
		mi.flags = choose(pressed, mouseeventfRightDown, mouseeventfRightUp)
	case key.BtnMiddle:
		mi.flags = choose(pressed, mouseeventfMiddleDown, mouseeventfMiddleUp)
	case key.BtnSide, key.BtnExtra:
		mi.flags = choose(pressed, mouseeventfXDown, mouseeventfXUp)
		mi.mouseData = 1
		if b == key.BtnExtra {
			mi.mouseData = 2
		}
	default:
		return errs.InvalidArgument("cannot inject %s", b)
	}
	return errs.Backend("SendInput", sendMouse(mi))
}

func choose(pressed bool, down, up uint32) uint32 {
	if pressed {
		return down
	}
	return up
}

func (p *Pointer) InjectAxis(axis key.Axis, amount float64) error {
	if p.isClosed() {
		return errs.Closed("winapi pointer")
	}
	mi := mouseInput{flags: mouseeventfHWheel}
	delta := int32(math.Round(amount * wheelDelta))
	if axis == key.Vertical {
		mi.flags = mouseeventfWheel
		delta = -delta
	}
	mi.mouseData = uint32(delta)
	return errs.Backend("SendInput", sendMouse(mi))
}

func (p *Pointer) ButtonState(b key.Key) (key.State, error) {
	vk, ok := buttonVK(b)
	if !ok {
		return 0, errs.InvalidArgument("no virtual key for %s", b)
	}
	if asyncKeyDown(vk) {
		return key.Pressed, nil
	}
	return key.Released, nil
}

func (p *Pointer) CursorPosition() (int, int, error) {
	x, y, err := cursorPos()
	if err != nil {
		return 0, 0, errs.Backend("GetCursorPos", err)
	}
	return x, y, nil
}

func (p *Pointer) ScreenBounds() (int, int, error) {
	w, _, _ := procGetSystemMetrics.Call(smCXScreen)
	h, _, _ := procGetSystemMetrics.Call(smCYScreen)
	return int(w), int(h), nil
}

func (p *Pointer) Warp(x, y int) error {
	if p.isClosed() {
		return errs.Closed("winapi pointer")
	}
	r, _, err := procSetCursorPos.Call(uintptr(x), uintptr(y))
	if r == 0 {
		return errs.Backend("SetCursorPos", err)
	}
	return nil
}

func (p *Pointer) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Pointer) Close() error {
	err := p.Unhook()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return err
}
