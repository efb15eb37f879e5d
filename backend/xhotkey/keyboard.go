//go:build (linux || darwin) && cgo

package xhotkey

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/micmonay/keybd_event"
	"golang.design/x/hotkey"

	"github.com/Alia5/macrohook/backend"
	"github.com/Alia5/macrohook/errs"
	"github.com/Alia5/macrohook/event"
	"github.com/Alia5/macrohook/key"
	"github.com/Alia5/macrohook/keymap"
)

type config struct {
	logger *slog.Logger
	layout *keymap.Layout
}

type Option func(*config)

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLayout sets the layout reported by CurrentLayout. The default is the
// built-in US layout.
func WithLayout(l *keymap.Layout) Option {
	return func(c *config) { c.layout = l }
}

type grab struct {
	hk   *hotkey.Hotkey
	stop chan struct{}
	done chan struct{}
}

type Keyboard struct {
	cfg    config
	logger *slog.Logger

	kbOnce sync.Once
	kb     keybd_event.KeyBonding
	kbErr  error

	mu     sync.Mutex
	mods   modState
	sink   func(backend.Raw)
	grabs  map[event.HotKey]*grab
	closed bool
}

var (
	_ backend.Keyboard      = (*Keyboard)(nil)
	_ backend.HotkeyGrabber = (*Keyboard)(nil)
)

func NewKeyboard(opts ...Option) (*Keyboard, error) {
	cfg := config{logger: slog.Default(), layout: keymap.US()}
	for _, o := range opts {
		o(&cfg)
	}
	return &Keyboard{
		cfg:    cfg,
		logger: cfg.logger.With("backend", "xhotkey"),
		grabs:  make(map[event.HotKey]*grab),
	}, nil
}

func (k *Keyboard) bonding() (*keybd_event.KeyBonding, error) {
	k.kbOnce.Do(func() {
		k.kb, k.kbErr = keybd_event.NewKeyBonding()
	})
	return &k.kb, k.kbErr
}

func (k *Keyboard) Sources() ([]backend.Source, error) {
	return []backend.Source{{ID: "hotkey", Name: "desktop hotkeys"}}, nil
}

// Hook delivers the grabbed hotkeys to sink. grab is implied.
func (k *Keyboard) Hook(sink func(backend.Raw), _ bool) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return errs.Closed("xhotkey keyboard")
	}
	if k.sink != nil {
		return errs.PreconditionNotMet("keyboard already hooked")
	}
	k.sink = sink
	return nil
}

func (k *Keyboard) Unhook() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.sink = nil
	return nil
}

func (k *Keyboard) Grab(hk event.HotKey) error {
	hkKey, ok := hotkeyKey(hk.Key)
	if !ok {
		return errs.Backend("grab "+hk.String(), backend.ErrUnsupported)
	}
	var mods []hotkey.Modifier
	for _, r := range hk.Modifiers.Roles() {
		m, ok := hotkeyModifiers[r]
		if !ok {
			return errs.Backend("grab "+hk.String(), backend.ErrUnsupported)
		}
		mods = append(mods, m)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return errs.Closed("xhotkey keyboard")
	}
	if _, ok := k.grabs[hk]; ok {
		return nil
	}
	h := hotkey.New(mods, hkKey)
	if err := h.Register(); err != nil {
		return errs.Backend("grab "+hk.String(), err)
	}
	g := &grab{hk: h, stop: make(chan struct{}), done: make(chan struct{})}
	k.grabs[hk] = g
	go k.listen(hk, g)
	return nil
}

func (k *Keyboard) listen(hk event.HotKey, g *grab) {
	defer close(g.done)
	for {
		select {
		case <-g.stop:
			return
		case <-g.hk.Keydown():
			k.deliver(chordRaw(hk, true))
		case <-g.hk.Keyup():
			k.deliver(chordRaw(hk, false))
		}
	}
}

func (k *Keyboard) deliver(raw backend.Raw) {
	k.mu.Lock()
	sink := k.sink
	k.mu.Unlock()
	if sink != nil {
		sink(raw)
	}
}

func (k *Keyboard) Ungrab(hk event.HotKey) error {
	k.mu.Lock()
	g, ok := k.grabs[hk]
	delete(k.grabs, hk)
	k.mu.Unlock()
	if !ok {
		return nil
	}
	return k.release(g)
}

func (k *Keyboard) release(g *grab) error {
	close(g.stop)
	<-g.done
	return errs.Backend("ungrab", g.hk.Unregister())
}

func (k *Keyboard) Leds() (key.Lock, error) {
	return 0, errs.Backend("leds", backend.ErrUnsupported)
}

func (k *Keyboard) KeyState(key.Key) (key.State, error) {
	return 0, errs.Backend("key state", backend.ErrUnsupported)
}

// Inject latches modifiers and sends every other key with the latched
// modifiers applied.
func (k *Keyboard) Inject(kk key.Key, pressed bool) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return errs.Closed("xhotkey keyboard")
	}
	if k.mods.update(kk, pressed) {
		return nil
	}
	vk, ok := virtualKey(kk)
	if !ok {
		return errs.InvalidArgument("cannot inject %s", kk)
	}
	kb, err := k.bonding()
	if err != nil {
		return errs.Backend("keybd_event", err)
	}
	mask := k.mods.mask()
	kb.Clear()
	kb.SetKeys(vk)
	kb.HasSHIFT(mask.Has(key.ModShift))
	kb.HasCTRL(mask.Has(key.ModCtrl))
	kb.HasALT(mask.Has(key.ModAlt))
	kb.HasSuper(mask.Has(key.ModMeta))
	if pressed {
		err = kb.Press()
	} else {
		err = kb.Release()
	}
	return errs.Backend("inject", err)
}

func (k *Keyboard) Sync() error { return nil }

func (k *Keyboard) CurrentLayout() (*keymap.Layout, error) {
	return k.cfg.layout, nil
}

func (k *Keyboard) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	k.sink = nil
	grabs := k.grabs
	k.grabs = nil
	k.mu.Unlock()

	var err error
	for _, g := range grabs {
		err = errors.Join(err, k.release(g))
	}
	return err
}
