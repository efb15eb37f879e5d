// Package dispatch runs commands one at a time, in the order they were
// enqueued, on a single worker goroutine.
package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Alia5/macrohook/errs"
)

// Command is a unit of work. A returned error is logged by the worker.
type Command func() error

// ErrorHandler observes command failures on the worker goroutine. panicked
// is true when err was recovered from a panic.
type ErrorHandler func(err error, panicked bool)

// Queue is an unbounded FIFO drained by exactly one worker.
type Queue struct {
	name    string
	logger  *slog.Logger
	onError ErrorHandler

	mu      sync.Mutex
	cond    *sync.Cond
	pending []Command
	closed  bool
	stopped chan struct{}

	worker    atomic.Uint64 // goroutine id of the worker
	executing atomic.Bool   // a command is running on the worker

	enqueued atomic.Uint64
	executed atomic.Uint64
	failed   atomic.Uint64
	panicked atomic.Uint64
}

// Stats are cumulative counters.
type Stats struct {
	Enqueued uint64
	Executed uint64
	Failed   uint64
	Panicked uint64
	Pending  int
}

type Option func(*Queue)

// WithErrorHandler registers h for failed and panicking commands.
func WithErrorHandler(h ErrorHandler) Option {
	return func(q *Queue) { q.onError = h }
}

// New starts the worker for a queue named name.
func New(name string, logger *slog.Logger, opts ...Option) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		name:    name,
		logger:  logger.With("queue", name),
		stopped: make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	for _, o := range opts {
		o(q)
	}
	started := make(chan struct{})
	go q.run(started)
	<-started
	return q
}

func (q *Queue) Name() string { return q.name }

// Enqueue appends cmd without blocking. It fails with errs.ErrClosed once
// Close has been called.
func (q *Queue) Enqueue(cmd Command) error {
	if cmd == nil {
		return errs.InvalidArgument("nil command")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return errs.Closed(q.name + " queue")
	}
	q.pending = append(q.pending, cmd)
	q.enqueued.Add(1)
	q.cond.Signal()
	return nil
}

// Submit enqueues cmd and waits for its result. Called from the worker
// itself, cmd runs inline.
func (q *Queue) Submit(ctx context.Context, cmd Command) error {
	if cmd == nil {
		return errs.InvalidArgument("nil command")
	}
	if q.OnWorker() {
		return cmd()
	}
	done := make(chan error, 1)
	err := q.Enqueue(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("command panicked: %v", r)
			}
			done <- err
		}()
		return cmd()
	})
	if err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush waits until every command enqueued before the call has run.
func (q *Queue) Flush(ctx context.Context) error {
	return q.Submit(ctx, func() error { return nil })
}

// OnWorker reports whether the caller runs on the worker goroutine. The
// worker only calls back into the queue from a command, so the goroutine
// is identified only while one executes.
func (q *Queue) OnWorker() bool {
	if !q.executing.Load() {
		return false
	}
	return q.worker.Load() == goroutineID()
}

// Close drains the queue and joins the worker. Commands enqueued before
// Close still run. Only a concurrent caller that loses the race gets
// errs.ErrClosed.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		if q.OnWorker() {
			return nil
		}
		<-q.stopped
		return errs.Closed(q.name + " queue")
	}
	q.closed = true
	q.pending = append(q.pending, nil) // stop sentinel
	q.cond.Signal()
	q.mu.Unlock()

	if q.OnWorker() {
		return nil
	}
	<-q.stopped
	return nil
}

// Done is closed after the worker has exited.
func (q *Queue) Done() <-chan struct{} { return q.stopped }

func (q *Queue) Stats() Stats {
	q.mu.Lock()
	pending := len(q.pending)
	q.mu.Unlock()
	return Stats{
		Enqueued: q.enqueued.Load(),
		Executed: q.executed.Load(),
		Failed:   q.failed.Load(),
		Panicked: q.panicked.Load(),
		Pending:  pending,
	}
}

func (q *Queue) run(started chan<- struct{}) {
	defer close(q.stopped)
	q.worker.Store(goroutineID())
	close(started)

	q.logger.Debug("dispatch worker started")
	defer q.logger.Debug("dispatch worker stopped")

	for {
		q.mu.Lock()
		for len(q.pending) == 0 {
			q.cond.Wait()
		}
		cmd := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		q.mu.Unlock()

		if cmd == nil {
			return
		}
		q.execute(cmd)
	}
}

func (q *Queue) execute(cmd Command) {
	q.executing.Store(true)
	defer q.executing.Store(false)
	defer func() {
		if r := recover(); r != nil {
			q.panicked.Add(1)
			err := fmt.Errorf("command panicked: %v", r)
			q.logger.Error("dispatch command panicked", "panic", r, "stack", string(debug.Stack()))
			q.report(err, true)
		}
	}()
	err := cmd()
	q.executed.Add(1)
	if err != nil {
		q.failed.Add(1)
		q.logger.Error("dispatch command failed", "error", err)
		q.report(err, false)
	}
}

func (q *Queue) report(err error, panicked bool) {
	if q.onError == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("dispatch error handler panicked", "panic", r)
		}
	}()
	q.onError(err, panicked)
}

var goroutinePrefix = []byte("goroutine ")

// goroutineID parses the current goroutine id from the stack header.
func goroutineID() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, goroutinePrefix)
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, _ := strconv.ParseUint(string(b), 10, 64)
	return id
}
