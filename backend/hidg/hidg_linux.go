//go:build linux

package hidg

import (
	"errors"
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/Alia5/macrohook/backend"
	"github.com/Alia5/macrohook/errs"
	"github.com/Alia5/macrohook/internal/log"
	"github.com/Alia5/macrohook/key"
	"github.com/Alia5/macrohook/keymap"
)

const (
	DefaultKeyboardPath = "/dev/hidg0"
	DefaultMousePath    = "/dev/hidg1"
)

// ledPollTimeout bounds how long Close waits for the LED reader.
const ledPollTimeout = 200 * time.Millisecond

type config struct {
	logger *slog.Logger
	tracer log.RawLogger
	path   string
	layout *keymap.Layout
	width  int
	height int
}

type Option func(*config)

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracer logs every report written or read.
func WithTracer(t log.RawLogger) Option {
	return func(c *config) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithPath overrides the gadget character device.
func WithPath(p string) Option {
	return func(c *config) { c.path = p }
}

// WithLayout sets the host's layout. The default is US.
func WithLayout(l *keymap.Layout) Option {
	return func(c *config) { c.layout = l }
}

// WithScreen sets the host screen size used to track the cursor.
func WithScreen(width, height int) Option {
	return func(c *config) {
		if width > 0 && height > 0 {
			c.width, c.height = width, height
		}
	}
}

func newConfig(path string, opts []Option) config {
	c := config{
		logger: slog.Default(),
		tracer: log.Nop,
		path:   path,
		width:  1920,
		height: 1080,
	}
	for _, o := range opts {
		o(&c)
	}
	if c.layout == nil {
		c.layout = keymap.US()
	}
	c.logger = c.logger.With("backend", "hidg", "path", c.path)
	return c
}

// Keyboard writes keyboard reports to the gadget and reads the host's LED
// state back. There is nothing to hook: the host is the only reader.
type Keyboard struct {
	cfg  config
	f    *os.File
	stop chan struct{}
	done chan struct{}

	mu     sync.Mutex
	state  KeyboardState
	leds   key.Lock
	closed bool
}

var _ backend.Keyboard = (*Keyboard)(nil)

func NewKeyboard(opts ...Option) (*Keyboard, error) {
	cfg := newConfig(DefaultKeyboardPath, opts)
	f, err := os.OpenFile(cfg.path, os.O_RDWR, 0)
	if err != nil {
		return nil, errs.Backend("open gadget keyboard", err)
	}
	k := &Keyboard{
		cfg:  cfg,
		f:    f,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go k.readLEDs()
	return k, nil
}

// readLEDs polls for output reports so Close is never stuck in a read.
func (k *Keyboard) readLEDs() {
	defer close(k.done)
	fd := int(k.f.Fd())
	buf := make([]byte, 8)
	for {
		select {
		case <-k.stop:
			return
		default:
		}
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		n, err := unix.Poll(fds, int(ledPollTimeout/time.Millisecond))
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			k.cfg.logger.Warn("gadget poll failed", "error", err)
			return
		}
		if n == 0 || fds[0].Revents&unix.POLLIN == 0 {
			continue
		}
		m, err := unix.Read(fd, buf)
		if err != nil {
			if !errors.Is(err, unix.EAGAIN) {
				k.cfg.logger.Warn("gadget read failed", "error", err)
				return
			}
			continue
		}
		k.cfg.tracer.Log(false, buf[:m])
		leds, err := ParseLEDReport(buf[:m])
		if err != nil {
			continue
		}
		k.mu.Lock()
		k.leds = leds
		k.mu.Unlock()
		k.cfg.logger.Debug("host LEDs", "leds", leds)
	}
}

func (k *Keyboard) Sources() ([]backend.Source, error) {
	return []backend.Source{{ID: k.cfg.path, Name: "HID gadget keyboard", Path: k.cfg.path}}, nil
}

func (k *Keyboard) Hook(func(backend.Raw), bool) error {
	return errs.Backend("hidg keyboard hook", backend.ErrUnsupported)
}

func (k *Keyboard) Unhook() error { return nil }

func (k *Keyboard) Leds() (key.Lock, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return 0, errs.Closed("hidg keyboard")
	}
	return k.leds, nil
}

// KeyState reports the keys the gadget itself holds down.
func (k *Keyboard) KeyState(kk key.Key) (key.State, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return 0, errs.Closed("hidg keyboard")
	}
	if k.state.Held(kk) {
		return key.Pressed, nil
	}
	return key.Released, nil
}

// Inject writes one report per key change so that taps are not coalesced.
func (k *Keyboard) Inject(kk key.Key, pressed bool) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return errs.Closed("hidg keyboard")
	}
	if !k.state.Set(kk, pressed) {
		return errs.InvalidArgument("no HID usage for %s", kk)
	}
	report := k.state.BuildReport()
	k.cfg.tracer.Log(true, report)
	_, err := k.f.Write(report)
	return errs.Backend("write keyboard report", err)
}

func (k *Keyboard) Sync() error { return nil }

func (k *Keyboard) CurrentLayout() (*keymap.Layout, error) {
	return k.cfg.layout, nil
}

// Close releases every held key on the host before closing the gadget.
func (k *Keyboard) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	var err error
	if k.state != (KeyboardState{}) {
		k.state = KeyboardState{}
		_, err = k.f.Write(k.state.BuildReport())
	}
	k.mu.Unlock()

	close(k.stop)
	<-k.done
	return errs.Backend("hidg keyboard close", errors.Join(err, k.f.Close()))
}

// Pointer writes mouse reports. The host cursor is not observable, so the
// position is tracked from what was sent, starting at the screen center.
type Pointer struct {
	cfg config
	f   *os.File

	mu     sync.Mutex
	state  MouseState
	x, y   int
	closed bool
}

var _ backend.Pointer = (*Pointer)(nil)

func NewPointer(opts ...Option) (*Pointer, error) {
	cfg := newConfig(DefaultMousePath, opts)
	f, err := os.OpenFile(cfg.path, os.O_WRONLY, 0)
	if err != nil {
		return nil, errs.Backend("open gadget mouse", err)
	}
	return &Pointer{cfg: cfg, f: f, x: cfg.width / 2, y: cfg.height / 2}, nil
}

func (p *Pointer) Sources() ([]backend.Source, error) {
	return []backend.Source{{ID: p.cfg.path, Name: "HID gadget mouse", Path: p.cfg.path}}, nil
}

func (p *Pointer) Hook(func(backend.RawPointer), bool) error {
	return errs.Backend("hidg pointer hook", backend.ErrUnsupported)
}

func (p *Pointer) Unhook() error { return nil }

// send writes the current state and clears the one-shot deltas. Callers
// hold p.mu.
func (p *Pointer) send() error {
	report := p.state.BuildReport()
	p.state.DX, p.state.DY, p.state.Wheel, p.state.Pan = 0, 0, 0, 0
	p.cfg.tracer.Log(true, report)
	_, err := p.f.Write(report)
	return err
}

func (p *Pointer) InjectMotion(dx, dy int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errs.Closed("hidg pointer")
	}
	xs, ys := splitDelta(dx), splitDelta(dy)
	for i := range max(len(xs), len(ys)) {
		if i < len(xs) {
			p.state.DX = xs[i]
		}
		if i < len(ys) {
			p.state.DY = ys[i]
		}
		if err := p.send(); err != nil {
			return errs.Backend("write mouse report", err)
		}
	}
	p.x = min(max(p.x+dx, 0), p.cfg.width-1)
	p.y = min(max(p.y+dy, 0), p.cfg.height-1)
	return nil
}

func (p *Pointer) InjectButton(b key.Key, pressed bool) error {
	bit, ok := buttonBit(b)
	if !ok {
		return errs.InvalidArgument("no HID button for %s", b)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errs.Closed("hidg pointer")
	}
	if pressed {
		p.state.Buttons |= bit
	} else {
		p.state.Buttons &^= bit
	}
	return errs.Backend("write mouse report", p.send())
}

// InjectAxis scrolls by whole detents. HID wheels are positive away from
// the user, so vertical amounts are negated.
func (p *Pointer) InjectAxis(axis key.Axis, amount float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errs.Closed("hidg pointer")
	}
	v := int16(max(min(math.Round(amount), 32767), -32767))
	if axis == key.Vertical {
		p.state.Wheel = -v
	} else {
		p.state.Pan = v
	}
	return errs.Backend("write mouse report", p.send())
}

func (p *Pointer) ButtonState(b key.Key) (key.State, error) {
	bit, ok := buttonBit(b)
	if !ok {
		return 0, errs.InvalidArgument("no HID button for %s", b)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Buttons&bit != 0 {
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
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	var err error
	if p.state.Buttons != 0 {
		p.state = MouseState{}
		err = p.send()
	}
	return errs.Backend("hidg pointer close", errors.Join(err, p.f.Close()))
}
