package fake

import (
	"slices"
	"sync"

	"github.com/Alia5/macrohook/backend"
	"github.com/Alia5/macrohook/errs"
	"github.com/Alia5/macrohook/key"
)

// PointerInjection is one synthetic pointer event. Exactly one of the
// groups is set, according to Kind.
type PointerInjection struct {
	Kind    backend.PointerKind
	DX, DY  int
	Button  key.Key
	Pressed bool
	Axis    key.Axis
	Amount  float64
	Warp    bool
}

// Pointer is a scripted pointer on a fixed-size screen.
type Pointer struct {
	mu       sync.Mutex
	sink     func(backend.RawPointer)
	x, y     int
	w, h     int
	buttons  map[key.Key]bool
	injected []PointerInjection
	closed   bool

	// NoWarp hides the Warper capability behaviour: Warp fails with
	// backend.ErrUnsupported.
	NoWarp bool
}

var (
	_ backend.Pointer = (*Pointer)(nil)
	_ backend.Warper  = (*Pointer)(nil)
)

// NewPointer returns a pointer on a width x height screen.
func NewPointer(width, height int) *Pointer {
	return &Pointer{w: width, h: height, buttons: make(map[key.Key]bool)}
}

func (p *Pointer) Sources() ([]backend.Source, error) {
	return []backend.Source{{ID: "fake1", Name: "Fake Pointer", Path: "fake://pointer"}}, nil
}

func (p *Pointer) Hook(sink func(backend.RawPointer), grab bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errs.Closed("fake pointer")
	}
	if p.sink != nil {
		return errs.PreconditionNotMet("pointer already hooked")
	}
	p.sink = sink
	return nil
}

func (p *Pointer) Unhook() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sink = nil
	return nil
}

func (p *Pointer) Hooked() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sink != nil
}

func (p *Pointer) clamp() {
	p.x = min(max(p.x, 0), p.w-1)
	p.y = min(max(p.y, 0), p.h-1)
}

func (p *Pointer) InjectMotion(dx, dy int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errs.Closed("fake pointer")
	}
	p.x += dx
	p.y += dy
	p.clamp()
	p.injected = append(p.injected, PointerInjection{Kind: backend.PointerMotion, DX: dx, DY: dy})
	return nil
}

func (p *Pointer) Warp(x, y int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.NoWarp {
		return backend.ErrUnsupported
	}
	p.x, p.y = x, y
	p.clamp()
	p.injected = append(p.injected, PointerInjection{Kind: backend.PointerMotion, DX: p.x, DY: p.y, Warp: true})
	return nil
}

func (p *Pointer) InjectButton(b key.Key, pressed bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !b.IsButton() {
		return errs.InvalidArgument("%s is not a button", b)
	}
	p.buttons[b] = pressed
	p.injected = append(p.injected, PointerInjection{Kind: backend.PointerButton, Button: b, Pressed: pressed})
	return nil
}

func (p *Pointer) InjectAxis(axis key.Axis, amount float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.injected = append(p.injected, PointerInjection{Kind: backend.PointerAxis, Axis: axis, Amount: amount})
	return nil
}

func (p *Pointer) ButtonState(b key.Key) (key.State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
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
	return p.w, p.h, nil
}

func (p *Pointer) Injected() []PointerInjection {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.injected)
}

func (p *Pointer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.sink = nil
	return nil
}

func (p *Pointer) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Pointer) deliver(ev backend.RawPointer) {
	p.mu.Lock()
	ev.Source = "fake1"
	ev.X, ev.Y = p.x, p.y
	sink := p.sink
	p.mu.Unlock()
	if sink != nil {
		sink(ev)
	}
}

// MoveTo emits a physical motion to x, y.
func (p *Pointer) MoveTo(x, y int) {
	p.mu.Lock()
	p.x, p.y = x, y
	p.clamp()
	p.mu.Unlock()
	p.deliver(backend.RawPointer{Kind: backend.PointerMotion})
}

// EmitButton emits a physical button event.
func (p *Pointer) EmitButton(b key.Key, pressed bool) {
	p.mu.Lock()
	p.buttons[b] = pressed
	p.mu.Unlock()
	p.deliver(backend.RawPointer{Kind: backend.PointerButton, Button: b, Pressed: pressed})
}

// EmitScroll emits a physical wheel event.
func (p *Pointer) EmitScroll(axis key.Axis, value float64) {
	p.deliver(backend.RawPointer{Kind: backend.PointerAxis, Axis: axis, Value: value})
}
