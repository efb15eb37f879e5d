package window

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Alia5/macrohook/backend"
	"github.com/Alia5/macrohook/dispatch"
	"github.com/Alia5/macrohook/errs"
	"github.com/Alia5/macrohook/event"
)

// DefaultPollInterval is how often the window hook samples the window list.
const DefaultPollInterval = 300 * time.Millisecond

type EventType uint8

const (
	Created EventType = iota + 1
	Destroyed
	Focused
)

func (t EventType) String() string {
	switch t {
	case Created:
		return "created"
	case Destroyed:
		return "destroyed"
	case Focused:
		return "focused"
	}
	return "unknown"
}

// Event reports a window lifecycle change.
type Event struct {
	Stamp  event.Stamp
	Window *Window
	Type   EventType
}

func (e Event) Time() event.Stamp { return e.Stamp }

// Service is the entry point for window queries and the window hook. There
// is normally one per process, owned by whoever opened the backend.
type Service struct {
	b        backend.Windows
	logger   *slog.Logger
	cache    *Cache
	interval time.Duration

	mu     sync.Mutex
	hook   *hookLoop
	closed bool
}

type Option func(*Service)

// WithPollInterval sets the hook poll interval, capped at
// DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.interval = min(d, DefaultPollInterval)
		}
	}
}

func NewService(b backend.Windows, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		b:        b,
		logger:   logger,
		cache:    NewCache(),
		interval: DefaultPollInterval,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Cache exposes the identity cache, mostly for tests.
func (s *Service) Cache() *Cache { return s.cache }

// Get returns the canonical Window for h, or nil if the window no longer
// exists.
func (s *Service) Get(h ID) (*Window, error) {
	var infoErr error
	w := s.cache.GetOrCreate(h, func() *Window {
		info, err := s.b.Info(h)
		if err != nil {
			infoErr = err
			return nil
		}
		return &Window{id: h, class: info.Class, pid: info.PID, b: s.b}
	})
	if infoErr != nil {
		return nil, errs.Backend("window info", infoErr)
	}
	return w, nil
}

// List returns every top-level window. Windows that vanish while listing
// are skipped.
func (s *Service) List() ([]*Window, error) {
	handles, err := s.b.List()
	if err != nil {
		return nil, errs.Backend("list windows", err)
	}
	out := make([]*Window, 0, len(handles))
	for _, h := range handles {
		w, err := s.Get(h)
		if err != nil {
			s.logger.Debug("skipping window", "handle", uint64(h), "error", err)
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

// Active returns the focused window, or nil when none has focus.
func (s *Service) Active() (*Window, error) {
	h, err := s.b.Active()
	if err != nil {
		return nil, errs.Backend("active window", err)
	}
	if h == 0 {
		return nil, nil
	}
	return s.Get(h)
}

// UnderPointer returns the window below the cursor, or nil.
func (s *Service) UnderPointer() (*Window, error) {
	h, err := s.b.UnderPointer()
	if err != nil {
		return nil, errs.Backend("window under pointer", err)
	}
	if h == 0 {
		return nil, nil
	}
	return s.Get(h)
}

// ByClass returns the windows whose class equals class.
func (s *Service) ByClass(class string) ([]*Window, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	var out []*Window
	for _, w := range all {
		if w.Class() == class {
			out = append(out, w)
		}
	}
	return out, nil
}

// ByTitle returns the windows whose title contains part.
func (s *Service) ByTitle(part string) ([]*Window, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	var out []*Window
	for _, w := range all {
		title, err := w.Title()
		if err != nil {
			continue
		}
		if strings.Contains(title, part) {
			out = append(out, w)
		}
	}
	return out, nil
}

// InstallHook starts reporting window events to cb. Windows that exist at
// install time are not reported as created.
func (s *Service) InstallHook(cb func(Event)) error {
	if cb == nil {
		return errs.InvalidArgument("nil window hook callback")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errs.Closed("window service")
	}
	if s.hook != nil {
		return errs.PreconditionNotMet("window hook already installed")
	}
	h, err := s.startHook(cb)
	if err != nil {
		return err
	}
	s.hook = h
	return nil
}

// UninstallHook stops the hook. Events already queued are still delivered.
func (s *Service) UninstallHook() error {
	s.mu.Lock()
	h := s.hook
	s.hook = nil
	s.mu.Unlock()
	if h == nil {
		return nil
	}
	return h.stop()
}

// HookInstalled reports whether InstallHook is in effect.
func (s *Service) HookInstalled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hook != nil
}

// Close uninstalls the hook and closes the backend.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return errors.Join(s.UninstallHook(), s.b.Close())
}

type hookLoop struct {
	s     *Service
	cb    func(Event)
	queue *dispatch.Queue
	done  chan struct{}
	exit  chan struct{}

	known  map[ID]*Window
	active ID
}

func (s *Service) startHook(cb func(Event)) (*hookLoop, error) {
	h := &hookLoop{
		s:     s,
		cb:    cb,
		known: make(map[ID]*Window),
		done:  make(chan struct{}),
		exit:  make(chan struct{}),
	}
	windows, err := s.List()
	if err != nil {
		return nil, err
	}
	for _, w := range windows {
		h.known[w.ID()] = w
	}
	if active, err := s.b.Active(); err == nil {
		h.active = active
	}
	h.queue = dispatch.New("window", s.logger)
	go h.run()
	return h, nil
}

func (h *hookLoop) run() {
	defer close(h.exit)
	ticker := time.NewTicker(h.s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
			h.poll()
		}
	}
}

func (h *hookLoop) emit(w *Window, t EventType) {
	ev := Event{Stamp: event.Now(), Window: w, Type: t}
	if err := h.queue.Enqueue(func() error {
		h.cb(ev)
		return nil
	}); err != nil {
		h.s.logger.Debug("dropping window event", "type", t, "error", err)
	}
}

func (h *hookLoop) poll() {
	handles, err := h.s.b.List()
	if err != nil {
		h.s.logger.Debug("window poll failed", "error", err)
		return
	}
	seen := make(map[ID]struct{}, len(handles))
	for _, id := range handles {
		seen[id] = struct{}{}
		if _, ok := h.known[id]; ok {
			continue
		}
		w, err := h.s.Get(id)
		if err != nil || w == nil {
			continue
		}
		h.known[id] = w
		h.emit(w, Created)
	}
	for id, w := range h.known {
		if _, ok := seen[id]; !ok {
			delete(h.known, id)
			h.emit(w, Destroyed)
		}
	}

	active, err := h.s.b.Active()
	if err != nil || active == h.active {
		return
	}
	h.active = active
	if active == 0 {
		return
	}
	if w, err := h.s.Get(active); err == nil && w != nil {
		h.emit(w, Focused)
	}
}

func (h *hookLoop) stop() error {
	close(h.done)
	<-h.exit
	return h.queue.Close()
}
