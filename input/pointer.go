package input

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Alia5/macrohook/backend"
	"github.com/Alia5/macrohook/dispatch"
	"github.com/Alia5/macrohook/errs"
	"github.com/Alia5/macrohook/event"
	"github.com/Alia5/macrohook/key"
)

// Pointer hooks a pointer backend and injects motion, clicks and scrolling.
// Hook callbacks and injections share one ordered queue.
type Pointer struct {
	b      backend.Pointer
	logger *slog.Logger
	queue  *dispatch.Queue

	mu       sync.Mutex
	callback func(event.Event)
	hooked   bool
	closed   bool
}

func NewPointer(b backend.Pointer, opts ...PointerOption) (*Pointer, error) {
	if b == nil {
		return nil, errs.InvalidArgument("nil pointer backend")
	}
	cfg := pointerConfig{logger: slog.Default()}
	for _, o := range opts {
		o(&cfg)
	}
	logger := cfg.logger.With("component", "pointer")
	return &Pointer{
		b:      b,
		logger: logger,
		queue:  dispatch.New("pointer", logger),
	}, nil
}

// InstallHook delivers pointer events to cb as event.PointerMotion,
// event.PointerButton or event.PointerAxis values.
func (p *Pointer) InstallHook(cb func(event.Event), grab bool) error {
	if cb == nil {
		return errs.InvalidArgument("nil pointer hook callback")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errs.Closed("pointer")
	}
	if p.hooked {
		return errs.PreconditionNotMet("pointer hook already installed")
	}
	if err := p.b.Hook(p.onRaw, grab); err != nil {
		return errs.Backend("pointer hook", err)
	}
	p.callback = cb
	p.hooked = true
	return nil
}

func (p *Pointer) UninstallHook() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || !p.hooked {
		return nil
	}
	p.hooked = false
	p.callback = nil
	return errs.Backend("pointer unhook", p.b.Unhook())
}

func (p *Pointer) HookInstalled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hooked
}

func (p *Pointer) onRaw(raw backend.RawPointer) {
	if raw.Injected {
		return
	}
	var ev event.Event
	stamp := event.Now()
	switch raw.Kind {
	case backend.PointerMotion:
		ev = event.PointerMotion{Stamp: stamp, X: raw.X, Y: raw.Y, Modifiers: raw.Mods}
	case backend.PointerButton:
		state := key.Released
		if raw.Pressed {
			state = key.Pressed
		}
		ev = event.PointerButton{Stamp: stamp, X: raw.X, Y: raw.Y, Button: raw.Button, State: state, Modifiers: raw.Mods}
	case backend.PointerAxis:
		ev = event.PointerAxis{Stamp: stamp, X: raw.X, Y: raw.Y, Value: raw.Value, Axis: raw.Axis, Modifiers: raw.Mods}
	default:
		p.logger.Debug("unknown pointer event kind", "kind", raw.Kind)
		return
	}
	if err := p.queue.Enqueue(func() error {
		p.mu.Lock()
		cb := p.callback
		p.mu.Unlock()
		if cb != nil {
			cb(ev)
		}
		return nil
	}); err != nil {
		p.logger.Debug("dropping pointer event", "error", err)
	}
}

// Warp moves the pointer. Absolute targets are clamped to the screen; when
// the backend cannot warp, the move is injected as relative motion from the
// current position.
func (p *Pointer) Warp(x, y int, relative bool) error {
	if relative {
		return p.queue.Enqueue(func() error {
			return errs.Backend("pointer motion", p.b.InjectMotion(x, y))
		})
	}
	return p.queue.Enqueue(func() error {
		w, h, err := p.b.ScreenBounds()
		if err != nil {
			return errs.Backend("screen bounds", err)
		}
		if w <= 0 || h <= 0 {
			return errs.Backend("screen bounds", fmt.Errorf("invalid screen size %dx%d", w, h))
		}
		x, y := min(max(x, 0), w-1), min(max(y, 0), h-1)
		if wp, ok := p.b.(backend.Warper); ok {
			err := wp.Warp(x, y)
			if !errors.Is(err, backend.ErrUnsupported) {
				return errs.Backend("pointer warp", err)
			}
		}
		cx, cy, err := p.b.CursorPosition()
		if err != nil {
			return errs.Backend("cursor position", err)
		}
		return errs.Backend("pointer motion", p.b.InjectMotion(x-cx, y-cy))
	})
}

// Scroll injects amount wheel steps along axis. Positive values scroll down
// or right.
func (p *Pointer) Scroll(axis key.Axis, amount float64) error {
	if !axis.Valid() {
		return errs.InvalidArgument("invalid axis %d", axis)
	}
	if amount == 0 {
		return nil
	}
	return p.queue.Enqueue(func() error {
		return errs.Backend("pointer scroll", p.b.InjectAxis(axis, amount))
	})
}

// Click injects button b. With no state it clicks: press then release.
func (p *Pointer) Click(b key.Key, state ...key.State) error {
	if !b.IsButton() {
		return errs.InvalidArgument("%s is not a pointer button", b)
	}
	if len(state) > 1 {
		return errs.InvalidArgument("at most one button state, got %d", len(state))
	}
	if len(state) == 1 && !state[0].Valid() {
		return errs.InvalidArgument("invalid button state %d", state[0])
	}
	return p.queue.Enqueue(func() error {
		if len(state) == 1 {
			return errs.Backend("pointer button", p.b.InjectButton(b, state[0] == key.Pressed))
		}
		return errs.Backend("pointer button", errors.Join(
			p.b.InjectButton(b, true),
			p.b.InjectButton(b, false),
		))
	})
}

func (p *Pointer) ButtonState(b key.Key) (key.State, error) {
	if !b.IsButton() {
		return 0, errs.InvalidArgument("%s is not a pointer button", b)
	}
	st, err := p.b.ButtonState(b)
	if err != nil {
		return 0, errs.Backend("button state", err)
	}
	return st, nil
}

// Position returns the cursor position in screen pixels.
func (p *Pointer) Position() (x, y int, err error) {
	x, y, err = p.b.CursorPosition()
	if err != nil {
		return 0, 0, errs.Backend("cursor position", err)
	}
	return x, y, nil
}

// Flush waits until every command enqueued so far has run.
func (p *Pointer) Flush(ctx context.Context) error {
	return p.queue.Flush(ctx)
}

func (p *Pointer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	var unhookErr error
	if p.hooked {
		unhookErr = errs.Backend("pointer unhook", p.b.Unhook())
	}
	p.hooked = false
	p.callback = nil
	p.mu.Unlock()

	return errors.Join(unhookErr, p.queue.Close(), p.b.Close())
}
