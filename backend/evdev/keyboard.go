//go:build linux

package evdev

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/holoplot/go-evdev"

	"github.com/Alia5/macrohook/backend"
	"github.com/Alia5/macrohook/errs"
	"github.com/Alia5/macrohook/key"
	"github.com/Alia5/macrohook/keymap"
)

// Keyboard hooks every physical keyboard. Held keys and LEDs are tracked
// across all of them, so a modifier held on one keyboard applies to keys on
// another.
type Keyboard struct {
	cfg    config
	logger *slog.Logger

	mu     sync.Mutex
	devs   []*evdev.InputDevice
	out    *evdev.InputDevice
	sink   func(backend.Raw)
	held   []keymap.Code
	leds   key.Lock
	wg     sync.WaitGroup
	closed bool

	// serializes state updates with delivery
	deliver sync.Mutex
}

var _ backend.Keyboard = (*Keyboard)(nil)

func NewKeyboard(opts ...Option) (*Keyboard, error) {
	cfg := newConfig(opts)
	devs, err := openDevices(cfg, isKeyboard)
	if err != nil {
		return nil, errs.Backend("evdev keyboard", err)
	}
	if len(devs) == 0 {
		cfg.logger.Warn("no keyboard devices found, injection only")
	}
	return &Keyboard{
		cfg:    cfg,
		logger: cfg.logger.With("backend", "evdev"),
		devs:   devs,
	}, nil
}

func (k *Keyboard) Sources() ([]backend.Source, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return sources(k.devs), nil
}

func (k *Keyboard) Hook(sink func(backend.Raw), grab bool) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return errs.Closed("evdev keyboard")
	}
	if k.sink != nil {
		return errs.PreconditionNotMet("keyboard already hooked")
	}
	if len(k.devs) == 0 {
		return errs.Backend("evdev keyboard hook", ErrNoDevices)
	}

	if grab {
		for i, d := range k.devs {
			if err := d.Grab(); err != nil {
				for _, g := range k.devs[:i] {
					_ = g.Ungrab()
				}
				return errs.Backend("grab "+d.Path(), err)
			}
		}
	}

	k.held = k.heldLocked()
	k.leds = k.ledsLocked()
	k.sink = sink
	for _, d := range k.devs {
		k.wg.Add(1)
		go func() {
			defer k.wg.Done()
			readLoop(k.logger, k.cfg.tracer, d, k.handle)
		}()
	}
	return nil
}

// Unhook closes the hooked devices to stop the readers, then reopens them
// for state queries.
func (k *Keyboard) Unhook() error {
	k.mu.Lock()
	if k.sink == nil {
		k.mu.Unlock()
		return nil
	}
	devs := k.devs
	k.sink = nil
	k.mu.Unlock()

	err := closeAll(devs)
	k.wg.Wait()

	k.mu.Lock()
	defer k.mu.Unlock()
	if !k.closed {
		k.devs = reopen(k.cfg, devs)
	}
	return errs.Backend("evdev keyboard unhook", err)
}

func (k *Keyboard) handle(path string, ev *evdev.InputEvent) {
	switch ev.Type {
	case evdev.EV_LED:
		k.mu.Lock()
		if lock, ok := ledLock(ev.Code); ok {
			if ev.Value != 0 {
				k.leds = k.leds.With(lock)
			} else {
				k.leds = k.leds.Without(lock)
			}
		}
		k.mu.Unlock()
		return
	case evdev.EV_KEY:
	default:
		return
	}
	// Repeats and pointer buttons are not key events.
	if ev.Value == 2 || (ev.Code >= 0x100 && ev.Code < 0x160) {
		return
	}

	k.deliver.Lock()
	defer k.deliver.Unlock()

	c := keymap.Code(ev.Code)
	pressed := ev.Value == 1
	k.mu.Lock()
	if pressed {
		if !slices.Contains(k.held, c) {
			k.held = append(k.held, c)
		}
	} else {
		k.held = slices.DeleteFunc(k.held, func(h keymap.Code) bool { return h == c })
	}
	raw := backend.Raw{
		Source:  path,
		Code:    c,
		Key:     key.Key(c),
		Pressed: pressed,
		Held:    slices.Clone(k.held),
		Leds:    k.leds,
	}
	sink := k.sink
	k.mu.Unlock()

	if sink != nil {
		sink(raw)
	}
}

func ledLock(code evdev.EvCode) (key.Lock, bool) {
	switch code {
	case evdev.LED_NUML:
		return key.NumLock, true
	case evdev.LED_CAPSL:
		return key.CapsLock, true
	case evdev.LED_SCROLLL:
		return key.ScrollLock, true
	}
	return key.LockNone, false
}

func (k *Keyboard) heldLocked() []keymap.Code {
	var held []keymap.Code
	for _, d := range k.devs {
		st, err := d.State(evdev.EV_KEY)
		if err != nil {
			k.logger.Debug("key state unavailable", "path", d.Path(), "error", err)
			continue
		}
		for code, down := range st {
			if down && !slices.Contains(held, keymap.Code(code)) {
				held = append(held, keymap.Code(code))
			}
		}
	}
	slices.Sort(held)
	return held
}

func (k *Keyboard) ledsLocked() key.Lock {
	var leds key.Lock
	for _, d := range k.devs {
		st, err := d.State(evdev.EV_LED)
		if err != nil {
			continue
		}
		for code, on := range st {
			if lock, ok := ledLock(code); ok && on {
				leds = leds.With(lock)
			}
		}
	}
	return leds
}

func (k *Keyboard) Leds() (key.Lock, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return 0, errs.Closed("evdev keyboard")
	}
	return k.ledsLocked(), nil
}

func (k *Keyboard) KeyState(kk key.Key) (key.State, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return 0, errs.Closed("evdev keyboard")
	}
	if slices.Contains(k.heldLocked(), keymap.Code(kk)) {
		return key.Pressed, nil
	}
	return key.Released, nil
}

// device creates the uinput keyboard on first use. Callers hold k.mu.
func (k *Keyboard) device() (*evdev.InputDevice, error) {
	if k.out != nil {
		return k.out, nil
	}
	var codes []evdev.EvCode
	for _, kk := range key.All() {
		if kk != key.KeyNone && kk <= key.KeyMax && !kk.IsButton() {
			codes = append(codes, evdev.EvCode(kk))
		}
	}
	d, err := evdev.CreateDevice(KeyboardDeviceName, virtualID, map[evdev.EvType][]evdev.EvCode{
		evdev.EV_KEY: codes,
	})
	if err != nil {
		return nil, fmt.Errorf("create uinput keyboard: %w", err)
	}
	k.out = d
	return d, nil
}

func (k *Keyboard) Inject(kk key.Key, pressed bool) error {
	if kk.IsGeneric() || kk == key.KeyNone {
		return errs.InvalidArgument("cannot inject %s", kk)
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return errs.Closed("evdev keyboard")
	}
	d, err := k.device()
	if err != nil {
		return errs.Backend("inject", err)
	}
	var v int32
	if pressed {
		v = 1
	}
	return errs.Backend("inject", write(k.cfg.tracer, d, evdev.EV_KEY, evdev.EvCode(kk), v))
}

func (k *Keyboard) Sync() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.out == nil {
		return nil
	}
	return errs.Backend("sync", syn(k.cfg.tracer, k.out))
}

func (k *Keyboard) CurrentLayout() (*keymap.Layout, error) {
	return k.cfg.layout, nil
}

func (k *Keyboard) Close() error {
	unhookErr := k.Unhook()

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return nil
	}
	k.closed = true
	err := closeAll(k.devs)
	k.devs = nil
	if k.out != nil {
		err = errors.Join(err, k.out.Close())
		k.out = nil
	}
	return errors.Join(unhookErr, errs.Backend("evdev keyboard close", err))
}
