package testing

import (
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/Alia5/macrohook/backend/fake"
	"github.com/Alia5/macrohook/input"
	"github.com/stretchr/testify/require"
)

// Collector gathers values delivered from other goroutines.
type Collector[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	values []T
}

func NewCollector[T any]() *Collector[T] {
	c := &Collector[T]{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Add is usable directly as a callback.
func (c *Collector[T]) Add(v T) {
	c.mu.Lock()
	c.values = append(c.values, v)
	c.mu.Unlock()
	c.cond.Broadcast()
}

func (c *Collector[T]) Values() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.values)
}

func (c *Collector[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}

func (c *Collector[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values = nil
}

// WaitN waits until at least n values arrived and returns the first n. The
// test fails after timeout.
func (c *Collector[T]) WaitN(t testing.TB, n int, timeout time.Duration) []T {
	t.Helper()
	deadline := time.Now().Add(timeout)
	timer := time.AfterFunc(timeout, c.cond.Broadcast)
	defer timer.Stop()

	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.values) < n {
		if time.Now().After(deadline) {
			require.FailNowf(t, "collector timed out", "waiting for %d values, got %d", n, len(c.values))
		}
		c.cond.Wait()
	}
	return slices.Clone(c.values[:n])
}

// NewKeyboard returns a facade over a fake keyboard, closed with the test.
func NewKeyboard(t testing.TB, opts ...input.KeyboardOption) (*input.Keyboard, *fake.Keyboard) {
	t.Helper()
	b := fake.NewKeyboard()
	kb, err := input.NewKeyboard(b, opts...)
	require.NoError(t, err, "new keyboard")
	t.Cleanup(func() { _ = kb.Close() })
	return kb, b
}

// NewPointer returns a facade over a 1920x1080 fake pointer, closed with the
// test.
func NewPointer(t testing.TB, opts ...input.PointerOption) (*input.Pointer, *fake.Pointer) {
	t.Helper()
	b := fake.NewPointer(1920, 1080)
	p, err := input.NewPointer(b, opts...)
	require.NoError(t, err, "new pointer")
	t.Cleanup(func() { _ = p.Close() })
	return p, b
}
