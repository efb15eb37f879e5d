//go:build windows

package winapi

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/Alia5/macrohook/backend"
	"github.com/Alia5/macrohook/errs"
	"github.com/Alia5/macrohook/key"
	"github.com/Alia5/macrohook/keymap"
)

// Keyboard hooks the system keyboard with WH_KEYBOARD_LL and injects with
// SendInput.
type Keyboard struct {
	logger *slog.Logger
	proc   uintptr

	mu      sync.Mutex
	hook    *hookThread
	sink    func(backend.Raw)
	grab    bool
	held    []keymap.Code
	layouts map[uintptr]*keymap.Layout
	closed  bool
}

var (
	_ backend.Keyboard     = (*Keyboard)(nil)
	_ backend.LayoutSource = (*Keyboard)(nil)
)

func NewKeyboard(opts ...Option) (*Keyboard, error) {
	cfg := newConfig(opts)
	k := &Keyboard{
		logger:  cfg.logger,
		layouts: make(map[uintptr]*keymap.Layout),
	}
	k.proc = windows.NewCallback(k.hookProc)
	return k, nil
}

func (k *Keyboard) Sources() ([]backend.Source, error) {
	return []backend.Source{{ID: "system", Name: "system keyboard"}}, nil
}

func (k *Keyboard) Hook(sink func(backend.Raw), grab bool) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return errs.Closed("winapi keyboard")
	}
	if k.hook != nil {
		return errs.PreconditionNotMet("keyboard already hooked")
	}
	k.held = heldModifiers()
	k.sink = sink
	k.grab = grab
	h, err := startHook(whKeyboardLL, k.proc)
	if err != nil {
		k.sink = nil
		return errs.Backend("SetWindowsHookEx keyboard", err)
	}
	k.hook = h
	return nil
}

func (k *Keyboard) Unhook() error {
	k.mu.Lock()
	h := k.hook
	k.hook = nil
	k.sink = nil
	k.mu.Unlock()
	if h != nil {
		h.stop()
	}
	return nil
}

func (k *Keyboard) hookProc(nCode, wParam, lParam uintptr) uintptr {
	if int32(nCode) != 0 {
		return callNext(int(int32(nCode)), wParam, lParam)
	}
	info := (*kbdllHookStruct)(unsafe.Pointer(lParam))
	pressed := wParam == wmKeyDown || wParam == wmSysKeyDown
	injected := info.flags&llkhfInjected != 0

	kk := hookKey(info)
	if kk == key.KeyNone {
		k.logger.Debug("unknown scan code", "scan", info.scanCode, "vk", info.vkCode)
		return callNext(0, wParam, lParam)
	}

	k.mu.Lock()
	c := keymap.Code(kk)
	repeat := pressed && slices.Contains(k.held, c)
	if pressed {
		if !repeat {
			k.held = append(k.held, c)
		}
	} else {
		k.held = slices.DeleteFunc(k.held, func(h keymap.Code) bool { return h == c })
	}
	raw := backend.Raw{
		Source:   "system",
		Code:     c,
		Key:      kk,
		Pressed:  pressed,
		Held:     slices.Clone(k.held),
		Leds:     lockState(),
		Injected: injected,
	}
	sink, grab := k.sink, k.grab
	k.mu.Unlock()

	if sink != nil && !repeat {
		sink(raw)
	}
	if grab && !injected {
		return 1
	}
	return callNext(0, wParam, lParam)
}

// hookKey resolves the keys whose scan code is ambiguous by virtual key.
func hookKey(info *kbdllHookStruct) key.Key {
	switch info.vkCode {
	case vkPause:
		return key.KeyPause
	case vkNumLock:
		return key.KeyNumLock
	case vkRShift:
		return key.KeyRightShift
	}
	return keyOfScan(uint16(info.scanCode), info.flags&llkhfExtended != 0)
}

func heldModifiers() []keymap.Code {
	var held []keymap.Code
	for _, m := range modifierVKs {
		if asyncKeyDown(m.vk) {
			held = append(held, keymap.Code(m.key))
		}
	}
	return held
}

func lockState() key.Lock {
	var l key.Lock
	if keyState(vkCapital)&1 != 0 {
		l = l.With(key.CapsLock)
	}
	if keyState(vkNumLock)&1 != 0 {
		l = l.With(key.NumLock)
	}
	if keyState(vkScroll)&1 != 0 {
		l = l.With(key.ScrollLock)
	}
	return l
}

func (k *Keyboard) Leds() (key.Lock, error) {
	if k.isClosed() {
		return 0, errs.Closed("winapi keyboard")
	}
	return lockState(), nil
}

func (k *Keyboard) KeyState(kk key.Key) (key.State, error) {
	if k.isClosed() {
		return 0, errs.Closed("winapi keyboard")
	}
	vk, ok := virtualKey(kk)
	if !ok {
		return 0, errs.InvalidArgument("no virtual key for %s", kk)
	}
	if asyncKeyDown(vk) {
		return key.Pressed, nil
	}
	return key.Released, nil
}

func virtualKey(kk key.Key) (int, bool) {
	if kk == key.KeyPause {
		return vkPause, true
	}
	for _, m := range modifierVKs {
		if m.key == kk {
			return m.vk, true
		}
	}
	sc, ext, ok := scanOf(kk)
	if !ok {
		return 0, false
	}
	code := uintptr(sc)
	if ext {
		code |= 0xe000
	}
	vk, _, _ := procMapVirtualKeyExW.Call(code, mapvkVSCToVKEx, foregroundLayout())
	return int(vk), vk != 0
}

func (k *Keyboard) Inject(kk key.Key, pressed bool) error {
	if k.isClosed() {
		return errs.Closed("winapi keyboard")
	}
	var flags uint32
	if !pressed {
		flags |= keyeventfKeyUp
	}
	if kk == key.KeyPause {
		return errs.Backend("SendInput", sendKeyboard(keybdInput{vk: vkPause, flags: flags}))
	}
	sc, ext, ok := scanOf(kk)
	if !ok {
		return errs.InvalidArgument("cannot inject %s", kk)
	}
	flags |= keyeventfScanCode
	if ext {
		flags |= keyeventfExtendedKey
	}
	return errs.Backend("SendInput", sendKeyboard(keybdInput{scan: sc, flags: flags}))
}

// Sync is a no-op: SendInput delivers immediately.
func (k *Keyboard) Sync() error { return nil }

// LayoutID identifies the layout of the foreground window's thread.
func (k *Keyboard) LayoutID() (string, error) {
	return fmt.Sprintf("%08x", uint32(foregroundLayout())), nil
}

func (k *Keyboard) CurrentLayout() (*keymap.Layout, error) {
	if k.isClosed() {
		return nil, errs.Closed("winapi keyboard")
	}
	hkl := foregroundLayout()
	k.mu.Lock()
	defer k.mu.Unlock()
	if l, ok := k.layouts[hkl]; ok {
		return l, nil
	}
	l := buildLayout(fmt.Sprintf("windows-%08x", uint32(hkl)), systemLookup(hkl))
	k.layouts[hkl] = l
	return l, nil
}

// systemLookup asks ToUnicodeEx for the character of a scan code. Flag 4
// leaves the keyboard's dead key state untouched.
func systemLookup(hkl uintptr) charLookup {
	return func(scan uint16, shift, altGr bool) (rune, bool, bool) {
		vk, _, _ := procMapVirtualKeyExW.Call(uintptr(scan), mapvkVSCToVKEx, hkl)
		if vk == 0 {
			return 0, false, false
		}
		var state [256]byte
		if shift {
			state[vkShift] = 0x80
			state[vkLShift] = 0x80
		}
		if altGr {
			state[vkControl] = 0x80
			state[vkLControl] = 0x80
			state[vkMenu] = 0x80
			state[vkRMenu] = 0x80
		}
		var buf [8]uint16
		n, _, _ := procToUnicodeEx.Call(
			vk, uintptr(scan),
			uintptr(unsafe.Pointer(&state[0])),
			uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)),
			4, hkl,
		)
		switch c := int32(n); {
		case c < 0:
			return rune(buf[0]), true, true
		case c == 0:
			return 0, false, false
		}
		r := rune(buf[0])
		if r < 0x20 || r == 0x7f {
			return 0, false, false
		}
		return r, false, true
	}
}

func (k *Keyboard) isClosed() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.closed
}

func (k *Keyboard) Close() error {
	err := k.Unhook()
	k.mu.Lock()
	defer k.mu.Unlock()
	k.closed = true
	return err
}
