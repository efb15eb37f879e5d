//go:build linux

package evdev

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/holoplot/go-evdev"

	"github.com/Alia5/macrohook/backend"
	"github.com/Alia5/macrohook/errs"
	"github.com/Alia5/macrohook/key"
)

// Pointer hooks relative pointer devices. evdev reports no cursor position,
// so the position is integrated from motion deltas and clamped to the
// configured screen.
type Pointer struct {
	cfg    config
	logger *slog.Logger

	mu      sync.Mutex
	devs    []*evdev.InputDevice
	kbds    []*evdev.InputDevice
	out     *evdev.InputDevice
	sink    func(backend.RawPointer)
	x, y    int
	dx, dy  int
	buttons map[key.Key]bool
	wg      sync.WaitGroup
	closed  bool
}

var _ backend.Pointer = (*Pointer)(nil)

func NewPointer(opts ...Option) (*Pointer, error) {
	cfg := newConfig(opts)
	devs, err := openDevices(cfg, isPointer)
	if err != nil {
		return nil, errs.Backend("evdev pointer", err)
	}
	// Keyboards are only read for modifier state.
	kcfg := cfg
	kcfg.devices = nil
	kbds, err := openDevices(kcfg, isKeyboard)
	if err != nil {
		_ = closeAll(devs)
		return nil, errs.Backend("evdev pointer", err)
	}
	return &Pointer{
		cfg:     cfg,
		logger:  cfg.logger.With("backend", "evdev"),
		devs:    devs,
		kbds:    kbds,
		x:       cfg.width / 2,
		y:       cfg.height / 2,
		buttons: make(map[key.Key]bool),
	}, nil
}

func (p *Pointer) Sources() ([]backend.Source, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return sources(p.devs), nil
}

func (p *Pointer) Hook(sink func(backend.RawPointer), grab bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errs.Closed("evdev pointer")
	}
	if p.sink != nil {
		return errs.PreconditionNotMet("pointer already hooked")
	}
	if len(p.devs) == 0 {
		return errs.Backend("evdev pointer hook", ErrNoDevices)
	}
	if grab {
		for i, d := range p.devs {
			if err := d.Grab(); err != nil {
				for _, g := range p.devs[:i] {
					_ = g.Ungrab()
				}
				return errs.Backend("grab "+d.Path(), err)
			}
		}
	}
	p.sink = sink
	for _, d := range p.devs {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			readLoop(p.logger, p.cfg.tracer, d, p.handle)
		}()
	}
	return nil
}

func (p *Pointer) Unhook() error {
	p.mu.Lock()
	if p.sink == nil {
		p.mu.Unlock()
		return nil
	}
	devs := p.devs
	p.sink = nil
	p.mu.Unlock()

	err := closeAll(devs)
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.devs = reopen(p.cfg, devs)
	}
	return errs.Backend("evdev pointer unhook", err)
}

func (p *Pointer) handle(path string, ev *evdev.InputEvent) {
	p.mu.Lock()
	var raws []backend.RawPointer
	switch ev.Type {
	case evdev.EV_REL:
		switch ev.Code {
		case evdev.REL_X:
			p.dx += int(ev.Value)
		case evdev.REL_Y:
			p.dy += int(ev.Value)
		case evdev.REL_WHEEL:
			raws = append(raws, backend.RawPointer{Kind: backend.PointerAxis, Axis: key.Vertical, Value: -float64(ev.Value)})
		case evdev.REL_HWHEEL:
			raws = append(raws, backend.RawPointer{Kind: backend.PointerAxis, Axis: key.Horizontal, Value: float64(ev.Value)})
		}
	case evdev.EV_KEY:
		b := key.Key(ev.Code)
		if !b.IsButton() || ev.Value == 2 {
			break
		}
		p.buttons[b] = ev.Value == 1
		raws = append(raws, backend.RawPointer{Kind: backend.PointerButton, Button: b, Pressed: ev.Value == 1})
	case evdev.EV_SYN:
		if p.dx != 0 || p.dy != 0 {
			p.moveLocked(p.dx, p.dy)
			p.dx, p.dy = 0, 0
			raws = append(raws, backend.RawPointer{Kind: backend.PointerMotion})
		}
	}
	if len(raws) == 0 {
		p.mu.Unlock()
		return
	}
	mods := p.modsLocked()
	for i := range raws {
		raws[i].Source = path
		raws[i].X, raws[i].Y = p.x, p.y
		raws[i].Mods = mods
	}
	sink := p.sink
	p.mu.Unlock()

	if sink != nil {
		for _, r := range raws {
			sink(r)
		}
	}
}

func (p *Pointer) moveLocked(dx, dy int) {
	p.x = min(max(p.x+dx, 0), p.cfg.width-1)
	p.y = min(max(p.y+dy, 0), p.cfg.height-1)
}

// modsLocked reads the modifier keys held on any keyboard.
func (p *Pointer) modsLocked() key.Modifier {
	var mods key.Modifier
	for _, d := range p.kbds {
		st, err := d.State(evdev.EV_KEY)
		if err != nil {
			continue
		}
		for code, down := range st {
			if m, ok := key.ModifierOf(key.Key(code)); ok && down {
				mods |= m
			}
		}
	}
	return mods
}

// device creates the uinput pointer on first use. Callers hold p.mu.
func (p *Pointer) device() (*evdev.InputDevice, error) {
	if p.out != nil {
		return p.out, nil
	}
	var buttons []evdev.EvCode
	for b := key.BtnLeft; b <= key.BtnTask; b++ {
		buttons = append(buttons, evdev.EvCode(b))
	}
	d, err := evdev.CreateDevice(PointerDeviceName, virtualID, map[evdev.EvType][]evdev.EvCode{
		evdev.EV_REL: {evdev.REL_X, evdev.REL_Y, evdev.REL_WHEEL, evdev.REL_HWHEEL},
		evdev.EV_KEY: buttons,
	})
	if err != nil {
		return nil, fmt.Errorf("create uinput pointer: %w", err)
	}
	p.out = d
	return d, nil
}

func (p *Pointer) inject(op string, fn func(d *evdev.InputDevice) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errs.Closed("evdev pointer")
	}
	d, err := p.device()
	if err != nil {
		return errs.Backend(op, err)
	}
	if err := fn(d); err != nil {
		return errs.Backend(op, err)
	}
	return errs.Backend(op, syn(p.cfg.tracer, d))
}

func (p *Pointer) InjectMotion(dx, dy int) error {
	return p.inject("inject motion", func(d *evdev.InputDevice) error {
		err := errors.Join(
			write(p.cfg.tracer, d, evdev.EV_REL, evdev.REL_X, int32(dx)),
			write(p.cfg.tracer, d, evdev.EV_REL, evdev.REL_Y, int32(dy)),
		)
		if err == nil {
			p.moveLocked(dx, dy)
		}
		return err
	})
}

func (p *Pointer) InjectButton(b key.Key, pressed bool) error {
	if !b.IsButton() {
		return errs.InvalidArgument("%s is not a button", b)
	}
	return p.inject("inject button", func(d *evdev.InputDevice) error {
		var v int32
		if pressed {
			v = 1
		}
		return write(p.cfg.tracer, d, evdev.EV_KEY, evdev.EvCode(b), v)
	})
}

// InjectAxis writes wheel detents. Vertical values are negated: positive
// means down here and up for REL_WHEEL.
func (p *Pointer) InjectAxis(axis key.Axis, amount float64) error {
	v := int32(math.Round(amount))
	return p.inject("inject scroll", func(d *evdev.InputDevice) error {
		switch axis {
		case key.Vertical:
			return write(p.cfg.tracer, d, evdev.EV_REL, evdev.REL_WHEEL, -v)
		case key.Horizontal:
			return write(p.cfg.tracer, d, evdev.EV_REL, evdev.REL_HWHEEL, v)
		}
		return errs.InvalidArgument("invalid axis %d", axis)
	})
}

func (p *Pointer) ButtonState(b key.Key) (key.State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, d := range p.devs {
		st, err := d.State(evdev.EV_KEY)
		if err != nil {
			continue
		}
		if st[evdev.EvCode(b)] {
			return key.Pressed, nil
		}
	}
	if p.buttons[b] {
		return key.Pressed, nil
	}
	return key.Released, nil
}

func (p *Pointer) CursorPosition() (int, int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.x, p.y, nil
}

func (p *Pointer) ScreenBounds() (int, int, error) {
	return p.cfg.width, p.cfg.height, nil
}

func (p *Pointer) Close() error {
	unhookErr := p.Unhook()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	err := errors.Join(closeAll(p.devs), closeAll(p.kbds))
	p.devs, p.kbds = nil, nil
	if p.out != nil {
		err = errors.Join(err, p.out.Close())
		p.out = nil
	}
	return errors.Join(unhookErr, errs.Backend("evdev pointer close", err))
}
