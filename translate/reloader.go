package translate

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Alia5/macrohook/keymap"
)

// MaxReloadInterval bounds how long a layout change can go unnoticed.
const MaxReloadInterval = 300 * time.Millisecond

// LayoutProvider is the part of a keyboard backend the Reloader polls.
type LayoutProvider interface {
	LayoutID() (string, error)
	CurrentLayout() (*keymap.Layout, error)
}

// Reloader keeps a Translator in step with the layout of a backend. A watcher
// goroutine polls the layout ID and, on change, hands the reload to a second
// goroutine and waits for it to finish before polling again.
type Reloader struct {
	tr       *Translator
	src      LayoutProvider
	logger   *slog.Logger
	interval time.Duration
	onReload func(*keymap.Layout)

	mu        sync.Mutex
	cond      *sync.Cond
	requested uint64
	done      uint64
	closed    bool

	stop chan struct{}
	wg   sync.WaitGroup
}

type ReloaderOption func(*Reloader)

// WithInterval sets the poll interval. Values above MaxReloadInterval are
// capped.
func WithInterval(d time.Duration) ReloaderOption {
	return func(r *Reloader) {
		if d > 0 {
			r.interval = min(d, MaxReloadInterval)
		}
	}
}

// WithOnReload registers a hook called after each swap.
func WithOnReload(fn func(*keymap.Layout)) ReloaderOption {
	return func(r *Reloader) { r.onReload = fn }
}

// NewReloader starts watching src. The translator is not touched until the
// layout ID changes.
func NewReloader(tr *Translator, src LayoutProvider, logger *slog.Logger, opts ...ReloaderOption) *Reloader {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Reloader{
		tr:       tr,
		src:      src,
		logger:   logger,
		interval: MaxReloadInterval,
		stop:     make(chan struct{}),
	}
	r.cond = sync.NewCond(&r.mu)
	for _, o := range opts {
		o(r)
	}

	last, err := src.LayoutID()
	if err != nil {
		logger.Debug("initial layout id unavailable", "error", err)
	}

	r.wg.Add(2)
	go r.watch(last)
	go r.reloadLoop()
	return r
}

func (r *Reloader) watch(last string) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
		}
		id, err := r.src.LayoutID()
		if err != nil {
			r.logger.Debug("layout id poll failed", "error", err)
			continue
		}
		if id == last {
			continue
		}
		r.logger.Debug("layout changed", "from", last, "to", id)
		last = id
		if !r.request() {
			return
		}
	}
}

// request signals the reload goroutine and blocks until it acknowledges.
// It returns false if the Reloader closed meanwhile.
func (r *Reloader) request() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	r.requested++
	gen := r.requested
	r.cond.Broadcast()
	for r.done < gen && !r.closed {
		r.cond.Wait()
	}
	return !r.closed
}

func (r *Reloader) reloadLoop() {
	defer r.wg.Done()
	for {
		r.mu.Lock()
		for r.done == r.requested && !r.closed {
			r.cond.Wait()
		}
		if r.closed {
			r.mu.Unlock()
			return
		}
		gen := r.requested
		r.mu.Unlock()

		r.reload()

		r.mu.Lock()
		r.done = gen
		r.cond.Broadcast()
		r.mu.Unlock()
	}
}

func (r *Reloader) reload() {
	l, err := r.src.CurrentLayout()
	if err != nil {
		r.logger.Error("failed to read keyboard layout", "error", err)
		return
	}
	if l == nil {
		return
	}
	r.tr.Reload(l)
	r.logger.Info("keyboard layout reloaded", "name", l.Name, "id", l.ID())
	if r.onReload != nil {
		r.onReload(l)
	}
}

// Generation reports how many reloads have completed.
func (r *Reloader) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

// Close stops both goroutines. It is safe to call more than once.
func (r *Reloader) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.cond.Broadcast()
	r.mu.Unlock()

	close(r.stop)
	r.wg.Wait()
	return nil
}
