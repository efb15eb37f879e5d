package input

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/Alia5/macrohook/backend"
	"github.com/Alia5/macrohook/dispatch"
	"github.com/Alia5/macrohook/errs"
	"github.com/Alia5/macrohook/event"
	"github.com/Alia5/macrohook/hotkey"
	"github.com/Alia5/macrohook/hotstring"
	"github.com/Alia5/macrohook/key"
	"github.com/Alia5/macrohook/keymap"
	"github.com/Alia5/macrohook/translate"
)

// Keyboard hooks a keyboard backend, detects hotkeys and hotstrings and
// injects keys. Callbacks run one at a time on the keyboard dispatch
// worker, in event order.
type Keyboard struct {
	b           backend.Keyboard
	logger      *slog.Logger
	tr          *translate.Translator
	queue       *dispatch.Queue
	reloader    *translate.Reloader
	hotStringOn key.State

	// owned by the queue worker
	hotkeys    *hotkey.Registry
	hotstrings *hotstring.Matcher

	mu        sync.Mutex
	callback  func(event.KeyboardEvent)
	userHook  bool
	hotkeysOn bool
	hooked    bool
	grabbed   bool
	closed    bool
}

type layoutProvider struct {
	backend.Keyboard
	backend.LayoutSource
}

// NewKeyboard wraps b. The layout comes from WithLayout, else from the
// backend, falling back to the built-in US layout. Backends implementing
// backend.LayoutSource are watched for layout changes.
func NewKeyboard(b backend.Keyboard, opts ...KeyboardOption) (*Keyboard, error) {
	if b == nil {
		return nil, errs.InvalidArgument("nil keyboard backend")
	}
	cfg := defaultKeyboardConfig()
	for _, o := range opts {
		o(&cfg)
	}
	logger := cfg.logger.With("component", "keyboard")

	layout := cfg.layout
	if layout == nil {
		l, err := b.CurrentLayout()
		switch {
		case err != nil:
			logger.Warn("backend layout unavailable, using us", "error", err)
		case l != nil:
			layout = l
		}
	}

	k := &Keyboard{
		b:           b,
		logger:      logger,
		tr:          translate.New(layout),
		queue:       dispatch.New("keyboard", logger),
		hotStringOn: cfg.hotStringOn,
		hotkeys:     hotkey.NewRegistry(),
		hotstrings:  hotstring.NewMatcher(cfg.bufferSize),
	}
	if src, ok := b.(backend.LayoutSource); ok && cfg.layout == nil {
		k.reloader = translate.NewReloader(k.tr, layoutProvider{b, src}, logger,
			translate.WithInterval(cfg.reloadInterval))
	}
	logger.Debug("keyboard ready", "layout", k.tr.Layout().Name)
	return k, nil
}

// Layout returns the layout currently used for translation.
func (k *Keyboard) Layout() *keymap.Layout { return k.tr.Layout() }

// SetLayout replaces the layout until the backend reports a change.
func (k *Keyboard) SetLayout(l *keymap.Layout) { k.tr.Reload(l) }

// Translator exposes the character translator.
func (k *Keyboard) Translator() *translate.Translator { return k.tr }

// InstallHook delivers every physical key event to cb. With grab, events are
// withheld from other applications where the backend supports it.
func (k *Keyboard) InstallHook(cb func(event.KeyboardEvent), grab bool) error {
	if cb == nil {
		return errs.InvalidArgument("nil keyboard hook callback")
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return errs.Closed("keyboard")
	}
	if k.userHook {
		return errs.PreconditionNotMet("keyboard hook already installed")
	}
	if err := k.ensureHookLocked(grab); err != nil {
		return err
	}
	k.callback = cb
	k.userHook = true
	return nil
}

// UninstallHook removes the hook callback and every hotstring.
func (k *Keyboard) UninstallHook() error {
	k.mu.Lock()
	if k.closed || !k.userHook {
		k.mu.Unlock()
		return nil
	}
	k.userHook = false
	k.callback = nil
	err := k.releaseHookLocked()
	k.mu.Unlock()

	return errors.Join(err, k.queue.Submit(context.Background(), func() error {
		k.hotstrings.Clear()
		return nil
	}))
}

// HookInstalled reports whether InstallHook is in effect.
func (k *Keyboard) HookInstalled() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.userHook
}

func (k *Keyboard) ensureHookLocked(grab bool) error {
	if k.hooked && (k.grabbed || !grab) {
		return nil
	}
	if k.hooked {
		if err := k.b.Unhook(); err != nil {
			return errs.Backend("keyboard unhook", err)
		}
		k.hooked = false
	}
	if err := k.b.Hook(k.onRaw, grab); err != nil {
		return errs.Backend("keyboard hook", err)
	}
	k.hooked, k.grabbed = true, grab
	return nil
}

func (k *Keyboard) releaseHookLocked() error {
	if !k.hooked || k.userHook || k.hotkeysOn {
		return nil
	}
	k.hooked, k.grabbed = false, false
	return errs.Backend("keyboard unhook", k.b.Unhook())
}

// onRaw runs on the backend hook goroutine. Modifiers, locks and the
// character are resolved here, from one layout snapshot, so a layout switch
// never splits an event.
func (k *Keyboard) onRaw(raw backend.Raw) {
	if raw.Injected {
		return
	}
	var res translate.Result
	if raw.HasMask {
		res = k.tr.Translate(raw.Code, raw.Mask)
	} else {
		res = k.tr.TranslateCodes(raw.Code, raw.Held, raw.Leds)
	}
	state := key.Released
	if raw.Pressed {
		state = key.Pressed
	}
	char := res.Char
	if res.Modifiers.Without(key.ModShift|key.ModAltGr) != key.ModNone {
		char = 0
	}
	ev := event.KeyboardEvent{
		Stamp:     event.Now(),
		Source:    raw.Source,
		Key:       raw.Key,
		State:     state,
		Char:      char,
		Modifiers: res.Modifiers,
		Locks:     res.Locks,
	}
	if err := k.queue.Enqueue(func() error {
		k.handle(ev)
		return nil
	}); err != nil {
		k.logger.Debug("dropping keyboard event", "event", ev.String(), "error", err)
	}
}

// handle runs on the worker: the hook callback first, then hotkeys, then
// hotstrings.
func (k *Keyboard) handle(ev event.KeyboardEvent) {
	k.mu.Lock()
	cb := k.callback
	k.mu.Unlock()
	if cb != nil {
		cb(ev)
	}

	if hk, fire, ok := k.hotkeys.Match(ev); ok {
		k.logger.Debug("hotkey fired", "hotkey", hk.String())
		fire(hk)
	}

	if ev.State == k.hotStringOn && ev.Char != 0 {
		if hs, fire, ok := k.hotstrings.Feed(ev.Source, ev.Char); ok && fire != nil {
			k.logger.Debug("hotstring fired", "hotstring", hs.String, "trigger", string(hs.Trigger))
			fire(hs)
		}
	}
}

// InitHotkeys starts the backend hook needed for hotkey delivery. Register
// calls it implicitly.
func (k *Keyboard) InitHotkeys() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return errs.Closed("keyboard")
	}
	if err := k.ensureHookLocked(k.grabbed); err != nil {
		return err
	}
	k.hotkeysOn = true
	return nil
}

// UninitHotkeys drops every hotkey and stops the hook unless InstallHook
// still needs it.
func (k *Keyboard) UninitHotkeys() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return errs.Closed("keyboard")
	}
	k.mu.Unlock()

	err := k.queue.Submit(context.Background(), k.clearHotkeys)

	k.mu.Lock()
	defer k.mu.Unlock()
	k.hotkeysOn = false
	return errors.Join(err, k.releaseHookLocked())
}

func (k *Keyboard) clearHotkeys() error {
	var errList []error
	for _, hk := range k.hotkeys.Clear() {
		errList = append(errList, k.ungrab(hk))
	}
	return errors.Join(errList...)
}

// RegisterHotKey calls cb whenever k is pressed with exactly mods held.
// Registering the same combination again replaces the callback.
func (k *Keyboard) RegisterHotKey(kk key.Key, cb hotkey.Callback, mods ...key.Key) (event.HotKey, error) {
	hk, err := event.NewHotKey(kk, mods...)
	if err != nil {
		return event.HotKey{}, err
	}
	if cb == nil {
		return event.HotKey{}, errs.InvalidArgument("nil hotkey callback")
	}
	if err := k.InitHotkeys(); err != nil {
		return event.HotKey{}, err
	}
	err = k.queue.Submit(context.Background(), func() error {
		if !k.hotkeys.Register(hk, cb) {
			return nil
		}
		if g, ok := k.b.(backend.HotkeyGrabber); ok {
			if err := g.Grab(hk); err != nil {
				k.hotkeys.Unregister(hk)
				return errs.Backend("grab "+hk.String(), err)
			}
		}
		return nil
	})
	if err != nil {
		return event.HotKey{}, err
	}
	k.logger.Debug("hotkey registered", "hotkey", hk.String())
	return hk, nil
}

// UnregisterHotKey removes hk. Unknown hotkeys are ignored.
func (k *Keyboard) UnregisterHotKey(hk event.HotKey) error {
	return k.queue.Submit(context.Background(), func() error {
		if !k.hotkeys.Unregister(hk) {
			return nil
		}
		return k.ungrab(hk)
	})
}

func (k *Keyboard) ungrab(hk event.HotKey) error {
	if g, ok := k.b.(backend.HotkeyGrabber); ok {
		return errs.Backend("ungrab "+hk.String(), g.Ungrab(hk))
	}
	return nil
}

// HotKeys lists the registered hotkeys.
func (k *Keyboard) HotKeys() []event.HotKey {
	var out []event.HotKey
	_ = k.queue.Submit(context.Background(), func() error {
		out = k.hotkeys.HotKeys()
		return nil
	})
	return out
}

// RegisterHotString calls cb when s is typed, followed by one of triggers
// when any are given. A keyboard hook must be installed.
func (k *Keyboard) RegisterHotString(s string, triggers []rune, cb hotstring.Callback) (event.HotString, error) {
	hs, err := event.NewHotString(s, triggers...)
	if err != nil {
		return event.HotString{}, err
	}
	if cb == nil {
		return event.HotString{}, errs.InvalidArgument("nil hotstring callback")
	}
	k.mu.Lock()
	closed, hooked := k.closed, k.userHook
	k.mu.Unlock()
	if closed {
		return event.HotString{}, errs.Closed("keyboard")
	}
	if !hooked {
		return event.HotString{}, errs.PreconditionNotMet("hotstrings need an installed keyboard hook")
	}
	err = k.queue.Submit(context.Background(), func() error {
		k.hotstrings.Register(hs, cb)
		return nil
	})
	return hs, err
}

func (k *Keyboard) UnregisterHotString(hs event.HotString) error {
	return k.queue.Submit(context.Background(), func() error {
		k.hotstrings.Unregister(hs)
		return nil
	})
}

// HotStrings lists the registered hotstrings in registration order.
func (k *Keyboard) HotStrings() []event.HotString {
	var out []event.HotString
	_ = k.queue.Submit(context.Background(), func() error {
		out = k.hotstrings.HotStrings()
		return nil
	})
	return out
}

// KeyPress injects k. With no state it taps the key: press then release.
func (k *Keyboard) KeyPress(kk key.Key, state ...key.State) error {
	if len(state) > 1 {
		return errs.InvalidArgument("at most one key state, got %d", len(state))
	}
	if kk == key.KeyNone || kk.IsButton() {
		return errs.InvalidArgument("%s is not a keyboard key", kk)
	}
	if len(state) == 1 && !state[0].Valid() {
		return errs.InvalidArgument("invalid key state %d", state[0])
	}
	if kk.IsGeneric() {
		mod, _ := key.ModifierOf(kk)
		kk = mod.Physical()
	}
	return k.queue.Enqueue(func() error {
		if len(state) == 1 {
			if err := k.b.Inject(kk, state[0] == key.Pressed); err != nil {
				return err
			}
		} else {
			if err := k.b.Inject(kk, true); err != nil {
				return err
			}
			if err := k.b.Inject(kk, false); err != nil {
				return err
			}
		}
		return k.b.Sync()
	})
}

// Type injects the key strokes that type s with the current layout.
// Characters the layout cannot produce are skipped and logged.
func (k *Keyboard) Type(s string) error {
	if s == "" {
		return nil
	}
	return k.queue.Enqueue(func() error {
		for _, r := range s {
			if err := k.typeRune(r); err != nil {
				if errors.Is(err, errs.ErrUnmappableCharacter) {
					k.logger.Warn("skipping unmappable character", "char", string(r), "error", err)
					continue
				}
				return err
			}
		}
		return nil
	})
}

func (k *Keyboard) typeRune(r rune) error {
	l := k.tr.Layout()
	code, mods, err := k.tr.Encode(r)
	if err != nil {
		return err
	}
	var held []key.Key
	for _, role := range mods.Roles() {
		codes, ok := l.Roles.ModifierCodes(role)
		if !ok {
			codes = []keymap.Code{keymap.Code(role.Physical())}
		}
		for _, c := range codes {
			mk := key.Key(c)
			if err := k.b.Inject(mk, true); err != nil {
				return errors.Join(err, k.release(held))
			}
			held = append(held, mk)
		}
	}
	tapErr := errors.Join(k.b.Inject(key.Key(code), true), k.b.Inject(key.Key(code), false))
	return errors.Join(tapErr, k.release(held), k.b.Sync())
}

// release lets go of held modifiers in reverse order.
func (k *Keyboard) release(held []key.Key) error {
	var err error
	for _, mk := range slices.Backward(held) {
		err = errors.Join(err, k.b.Inject(mk, false))
	}
	return err
}

// KeyState reads the current state of k from the backend. A generic
// modifier is pressed when any key holding that role is.
func (k *Keyboard) KeyState(kk key.Key) (key.State, error) {
	if kk == key.KeyNone || kk.IsButton() {
		return 0, errs.InvalidArgument("%s is not a keyboard key", kk)
	}
	if kk.IsGeneric() {
		return k.roleState(kk)
	}
	st, err := k.b.KeyState(kk)
	if err != nil {
		return 0, errs.Backend("key state", err)
	}
	return st, nil
}

func (k *Keyboard) roleState(kk key.Key) (key.State, error) {
	mod, _ := key.ModifierOf(kk)
	roles := k.tr.Layout().Roles
	codes, all := roles.ModCodes[mod], false
	if len(codes) == 0 {
		// a synthesized ALTGR needs its whole chord held
		codes, all = roles.ModifierCodes(mod)
	}
	if len(codes) == 0 {
		codes = []keymap.Code{keymap.Code(mod.Physical())}
	}
	pressed := 0
	for _, c := range codes {
		st, err := k.b.KeyState(key.Key(c))
		if err != nil {
			return 0, errs.Backend("key state", err)
		}
		if st == key.Pressed {
			pressed++
		}
	}
	if pressed > 0 && (!all || pressed == len(codes)) {
		return key.Pressed, nil
	}
	return key.Released, nil
}

// Flush waits until every command enqueued so far has run.
func (k *Keyboard) Flush(ctx context.Context) error {
	return k.queue.Flush(ctx)
}

// Close unregisters everything, stops the hook and the layout watcher,
// drains the queue and closes the backend.
func (k *Keyboard) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	k.mu.Unlock()

	var errList []error
	errList = append(errList, k.queue.Submit(context.Background(), func() error {
		k.hotstrings.Clear()
		return k.clearHotkeys()
	}))

	k.mu.Lock()
	if k.hooked {
		errList = append(errList, errs.Backend("keyboard unhook", k.b.Unhook()))
	}
	k.hooked, k.grabbed, k.userHook, k.hotkeysOn = false, false, false, false
	k.callback = nil
	k.mu.Unlock()

	if k.reloader != nil {
		errList = append(errList, k.reloader.Close())
	}
	errList = append(errList, k.queue.Close(), k.b.Close())
	return errors.Join(errList...)
}
