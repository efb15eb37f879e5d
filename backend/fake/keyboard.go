// Package fake is an in-memory backend. Tests script input through the Emit
// helpers and inspect what was injected.
package fake

import (
	"fmt"
	"slices"
	"sync"

	"github.com/Alia5/macrohook/backend"
	"github.com/Alia5/macrohook/errs"
	"github.com/Alia5/macrohook/event"
	"github.com/Alia5/macrohook/key"
	"github.com/Alia5/macrohook/keymap"
)

// KeyInjection is one synthetic key event.
type KeyInjection struct {
	Key     key.Key
	Pressed bool
}

func (k KeyInjection) String() string {
	if k.Pressed {
		return "+" + k.Key.String()
	}
	return "-" + k.Key.String()
}

// Keyboard is a scripted keyboard. Codes are evdev codes, so key.Key and
// keymap.Code coincide.
type Keyboard struct {
	mu       sync.Mutex
	sink     func(backend.Raw)
	grabbed  bool
	held     []keymap.Code
	leds     key.Lock
	layout   *keymap.Layout
	injected []KeyInjection
	syncs    int
	grabs    map[event.HotKey]bool
	closed   bool

	// Echo delivers injected keys back to the hook flagged as injected, as
	// OS-level hooks do.
	Echo bool
	// InjectErr makes Inject fail.
	InjectErr error
	// UseMask reports modifiers as a HID state word instead of held codes.
	UseMask bool
}

var (
	_ backend.Keyboard      = (*Keyboard)(nil)
	_ backend.LayoutSource  = (*Keyboard)(nil)
	_ backend.HotkeyGrabber = (*Keyboard)(nil)
)

func NewKeyboard() *Keyboard {
	return &Keyboard{layout: keymap.US(), grabs: make(map[event.HotKey]bool)}
}

func (k *Keyboard) Sources() ([]backend.Source, error) {
	return []backend.Source{{ID: "fake0", Name: "Fake Keyboard", Path: "fake://keyboard"}}, nil
}

func (k *Keyboard) Hook(sink func(backend.Raw), grab bool) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return errs.Closed("fake keyboard")
	}
	if k.sink != nil {
		return errs.PreconditionNotMet("keyboard already hooked")
	}
	k.sink = sink
	k.grabbed = grab
	return nil
}

func (k *Keyboard) Unhook() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.sink = nil
	k.grabbed = false
	return nil
}

// Hooked reports whether a hook is installed.
func (k *Keyboard) Hooked() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.sink != nil
}

func (k *Keyboard) Grabbed() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.grabbed
}

func (k *Keyboard) Leds() (key.Lock, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.leds, nil
}

// SetLeds replaces the lock state.
func (k *Keyboard) SetLeds(l key.Lock) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.leds = l
}

func (k *Keyboard) KeyState(kk key.Key) (key.State, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if slices.Contains(k.held, keymap.Code(kk)) {
		return key.Pressed, nil
	}
	return key.Released, nil
}

func (k *Keyboard) Inject(kk key.Key, pressed bool) error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return errs.Closed("fake keyboard")
	}
	if k.InjectErr != nil {
		k.mu.Unlock()
		return errs.Backend("inject", k.InjectErr)
	}
	if kk.IsGeneric() {
		k.mu.Unlock()
		return errs.InvalidArgument("cannot inject generic key %s", kk)
	}
	k.injected = append(k.injected, KeyInjection{Key: kk, Pressed: pressed})
	raw, sink := k.apply(keymap.Code(kk), kk, pressed)
	echo := k.Echo
	k.mu.Unlock()

	if echo && sink != nil {
		raw.Injected = true
		sink(raw)
	}
	return nil
}

func (k *Keyboard) Sync() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.syncs++
	return nil
}

// Syncs counts Sync calls.
func (k *Keyboard) Syncs() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.syncs
}

// Injected returns the injected keys in order.
func (k *Keyboard) Injected() []KeyInjection {
	k.mu.Lock()
	defer k.mu.Unlock()
	return slices.Clone(k.injected)
}

// ResetInjected forgets recorded injections.
func (k *Keyboard) ResetInjected() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.injected = nil
}

func (k *Keyboard) CurrentLayout() (*keymap.Layout, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.layout, nil
}

func (k *Keyboard) LayoutID() (string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.layout.ID(), nil
}

// SetLayout switches the layout, as a user changing the system layout would.
func (k *Keyboard) SetLayout(l *keymap.Layout) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.layout = l
}

func (k *Keyboard) Grab(hk event.HotKey) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.grabs[hk] = true
	return nil
}

func (k *Keyboard) Ungrab(hk event.HotKey) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.grabs, hk)
	return nil
}

// Grabs lists the OS-level hotkey grabs.
func (k *Keyboard) Grabs() []event.HotKey {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]event.HotKey, 0, len(k.grabs))
	for hk := range k.grabs {
		out = append(out, hk)
	}
	return out
}

func (k *Keyboard) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.closed = true
	k.sink = nil
	return nil
}

func (k *Keyboard) Closed() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.closed
}

// Emit delivers a physical key event to the hook on the calling goroutine.
// Lock keys toggle their LED on press.
func (k *Keyboard) Emit(kk key.Key, pressed bool) {
	k.mu.Lock()
	raw, sink := k.apply(keymap.Code(kk), kk, pressed)
	k.mu.Unlock()
	if sink != nil {
		sink(raw)
	}
}

// Tap emits a press and release of each key.
func (k *Keyboard) Tap(keys ...key.Key) {
	for _, kk := range keys {
		k.Emit(kk, true)
		k.Emit(kk, false)
	}
}

// TypeText emits the key strokes for s using the current layout, holding
// shift and altgr as the layout requires.
func (k *Keyboard) TypeText(s string) error {
	k.mu.Lock()
	l := k.layout
	k.mu.Unlock()
	for _, r := range s {
		sym := keymap.SymbolOf(r)
		c, level, ok := l.Table.Find(sym)
		if !ok {
			return fmt.Errorf("fake: %q not in layout %s", r, l.Name)
		}
		var mods []key.Key
		if level == 1 || level == 5 {
			mods = append(mods, key.KeyLeftShift)
		}
		if level == 4 || level == 5 {
			codes, _ := l.Roles.ModifierCodes(key.ModAltGr)
			for _, mc := range codes {
				mods = append(mods, key.Key(mc))
			}
		}
		for _, m := range mods {
			k.Emit(m, true)
		}
		k.Tap(key.Key(c))
		for _, m := range slices.Backward(mods) {
			k.Emit(m, false)
		}
	}
	return nil
}

// apply updates held state and builds the raw event. Callers hold k.mu.
func (k *Keyboard) apply(c keymap.Code, kk key.Key, pressed bool) (backend.Raw, func(backend.Raw)) {
	if pressed {
		if !slices.Contains(k.held, c) {
			k.held = append(k.held, c)
		}
		if lock, ok := key.LockOf(kk); ok {
			if k.leds.Has(lock) {
				k.leds = k.leds.Without(lock)
			} else {
				k.leds = k.leds.With(lock)
			}
		}
	} else {
		k.held = slices.DeleteFunc(k.held, func(h keymap.Code) bool { return h == c })
	}
	raw := backend.Raw{
		Source:  "fake0",
		Code:    c,
		Key:     kk,
		Pressed: pressed,
		Held:    slices.Clone(k.held),
		Leds:    k.leds,
	}
	if k.UseMask {
		raw.Mask, raw.HasMask = k.stateWord(), true
	}
	return raw, k.sink
}

// stateWord encodes held modifiers and LEDs the way HIDRoles expects.
func (k *Keyboard) stateWord() uint32 {
	bits := map[keymap.Code]uint8{
		keymap.Code(key.KeyLeftCtrl):   keymap.HIDLeftCtrl,
		keymap.Code(key.KeyLeftShift):  keymap.HIDLeftShift,
		keymap.Code(key.KeyLeftAlt):    keymap.HIDLeftAlt,
		keymap.Code(key.KeyLeftMeta):   keymap.HIDLeftGUI,
		keymap.Code(key.KeyRightCtrl):  keymap.HIDRightCtrl,
		keymap.Code(key.KeyRightShift): keymap.HIDRightShift,
		keymap.Code(key.KeyRightAlt):   keymap.HIDRightAlt,
		keymap.Code(key.KeyRightMeta):  keymap.HIDRightGUI,
	}
	var mods uint8
	for _, c := range k.held {
		mods |= bits[c]
	}
	return keymap.HIDState(mods, keymap.LEDsFromLocks(k.leds))
}
