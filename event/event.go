// Package event holds the canonical input event model shared by backends,
// the trigger registries and callers.
package event

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/Alia5/macrohook/key"
)

// Stamp is a monotonic timestamp. It does not translate to wall time, but a
// later event always carries a stamp greater than or equal to an earlier one.
type Stamp time.Duration

var (
	epoch = time.Now()
	last  atomic.Int64
)

// Now returns the current stamp. Stamps never go backwards, even across
// goroutines.
func Now() Stamp {
	now := int64(time.Since(epoch))
	for {
		prev := last.Load()
		if now <= prev {
			return Stamp(prev)
		}
		if last.CompareAndSwap(prev, now) {
			return Stamp(now)
		}
	}
}

func (s Stamp) Duration() time.Duration { return time.Duration(s) }

// Event is implemented by every event variant.
type Event interface {
	Time() Stamp
}

// KeyboardEvent is a key press or release on a keyboard source.
type KeyboardEvent struct {
	Stamp     Stamp
	Source    string
	Key       key.Key
	State     key.State
	Char      rune // 0 when the event produced no character
	Modifiers key.Modifier
	Locks     key.Lock
}

func (e KeyboardEvent) Time() Stamp { return e.Stamp }

// HasChar reports whether the event produced a character.
func (e KeyboardEvent) HasChar() bool { return e.Char != 0 }

func (e KeyboardEvent) String() string {
	s := fmt.Sprintf("<KeyboardEvent key=%s state=%s", e.Key, e.State)
	if e.Char != 0 {
		s += fmt.Sprintf(" char=%q", e.Char)
	}
	if e.Modifiers != key.ModNone {
		s += " modifiers=" + e.Modifiers.String()
	}
	if e.Locks != key.LockNone {
		s += " locks=" + e.Locks.String()
	}
	return s + ">"
}

// PointerMotion is a pointer move to X, Y in screen pixels.
type PointerMotion struct {
	Stamp     Stamp
	X, Y      int
	Modifiers key.Modifier
}

func (e PointerMotion) Time() Stamp { return e.Stamp }

// PointerButton is a pointer button press or release at X, Y.
type PointerButton struct {
	Stamp     Stamp
	X, Y      int
	Button    key.Key
	State     key.State
	Modifiers key.Modifier
}

func (e PointerButton) Time() Stamp { return e.Stamp }

// PointerAxis is a scroll of Value along Axis. The unit is backend specific
// (wheel detents for evdev, WHEEL_DELTA fractions on Windows).
type PointerAxis struct {
	Stamp     Stamp
	X, Y      int
	Value     float64
	Axis      key.Axis
	Modifiers key.Modifier
}

func (e PointerAxis) Time() Stamp { return e.Stamp }
