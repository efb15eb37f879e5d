// Package record captures keyboard and pointer events and plays them back
// through the input facades.
package record

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Alia5/macrohook/errs"
	"github.com/Alia5/macrohook/event"
	"github.com/Alia5/macrohook/input"
	"github.com/Alia5/macrohook/key"
)

// Type selects the devices a recording listens to.
type Type uint8

const (
	Keyboard Type = iota + 1
	Pointer
	Both
)

func (t Type) Valid() bool { return t >= Keyboard && t <= Both }

func (t Type) String() string {
	switch t {
	case Keyboard:
		return "keyboard"
	case Pointer:
		return "pointer"
	case Both:
		return "both"
	}
	return "invalid"
}

func ParseType(s string) (Type, error) {
	switch s {
	case "keyboard":
		return Keyboard, nil
	case "pointer":
		return Pointer, nil
	case "both":
		return Both, nil
	}
	return 0, errs.InvalidArgument("unknown record type %q", s)
}

func (t Type) keyboard() bool { return t == Keyboard || t == Both }
func (t Type) pointer() bool { return t == Pointer || t == Both }

// Options control a recording. With neither StopKey nor Duration set the
// recording runs until ctx is done.
type Options struct {
	Type Type
	// StopKey ends the recording when pressed. It is a keyboard key or a
	// pointer button and is not recorded itself.
	StopKey  key.Key
	Duration time.Duration
}

// Record installs the hooks selected by opts and collects events until the
// stop key, the duration or ctx ends it. Events are returned in stamp order.
// The facades must not have a hook installed.
func Record(ctx context.Context, kb *input.Keyboard, ptr *input.Pointer, opts Options) ([]event.Event, error) {
	if !opts.Type.Valid() {
		return nil, errs.InvalidArgument("invalid record type %d", opts.Type)
	}
	if opts.Type.keyboard() && kb == nil {
		return nil, errs.InvalidArgument("recording %s needs a keyboard", opts.Type)
	}
	if opts.Type.pointer() && ptr == nil {
		return nil, errs.InvalidArgument("recording %s needs a pointer", opts.Type)
	}
	if opts.StopKey.IsButton() && !opts.Type.pointer() {
		return nil, errs.InvalidArgument("stop button %s needs a pointer recording", opts.StopKey)
	}
	if opts.StopKey != key.KeyNone && !opts.StopKey.IsButton() && !opts.Type.keyboard() {
		return nil, errs.InvalidArgument("stop key %s needs a keyboard recording", opts.StopKey)
	}

	var (
		mu     sync.Mutex
		events []event.Event
		done   bool
		stop   = make(chan struct{})
	)
	add := func(ev event.Event, k key.Key, pressed bool) {
		mu.Lock()
		defer mu.Unlock()
		if done {
			return
		}
		if opts.StopKey != key.KeyNone && k == opts.StopKey {
			if pressed {
				done = true
				close(stop)
			}
			return
		}
		events = append(events, ev)
	}

	if opts.Type.keyboard() {
		err := kb.InstallHook(func(ev event.KeyboardEvent) {
			add(ev, ev.Key, ev.State == key.Pressed)
		}, false)
		if err != nil {
			return nil, fmt.Errorf("record keyboard: %w", err)
		}
		defer func() { _ = kb.UninstallHook() }()
	}
	if opts.Type.pointer() {
		err := ptr.InstallHook(func(ev event.Event) {
			if b, ok := ev.(event.PointerButton); ok {
				add(ev, b.Button, b.State == key.Pressed)
				return
			}
			add(ev, key.KeyNone, false)
		}, false)
		if err != nil {
			return nil, fmt.Errorf("record pointer: %w", err)
		}
		defer func() { _ = ptr.UninstallHook() }()
	}

	var timeout <-chan time.Time
	if opts.Duration > 0 {
		t := time.NewTimer(opts.Duration)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case <-stop:
	case <-timeout:
	case <-ctx.Done():
	}

	mu.Lock()
	done = true
	out := events
	mu.Unlock()

	slices.SortStableFunc(out, func(a, b event.Event) int {
		return cmp.Compare(a.Time(), b.Time())
	})
	return out, nil
}

// Replay injects events in order. Key and button releases, motions and
// scrolls are each followed by delay. Cancelling ctx stops between events.
func Replay(ctx context.Context, kb *input.Keyboard, ptr *input.Pointer, events []event.Event, delay time.Duration) error {
	for i, ev := range events {
		switch ev.(type) {
		case event.KeyboardEvent:
			if kb == nil {
				return errs.InvalidArgument("event %d needs a keyboard", i)
			}
		case event.PointerMotion, event.PointerButton, event.PointerAxis:
			if ptr == nil {
				return errs.InvalidArgument("event %d needs a pointer", i)
			}
		default:
			return errs.InvalidArgument("event %d: cannot replay %T", i, ev)
		}
	}

	for i, ev := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		var (
			err   error
			pause bool
		)
		switch e := ev.(type) {
		case event.KeyboardEvent:
			err = kb.KeyPress(e.Key, e.State)
			pause = e.State == key.Released
		case event.PointerMotion:
			err = ptr.Warp(e.X, e.Y, false)
			pause = true
		case event.PointerButton:
			err = ptr.Click(e.Button, e.State)
			pause = e.State == key.Released
		case event.PointerAxis:
			err = ptr.Scroll(e.Axis, e.Value)
			pause = true
		}
		if err != nil {
			return fmt.Errorf("replay event %d: %w", i, err)
		}
		if pause && delay > 0 {
			if err := flush(ctx, kb, ptr); err != nil {
				return err
			}
			if err := sleep(ctx, delay); err != nil {
				return err
			}
		}
	}
	return flush(ctx, kb, ptr)
}

func flush(ctx context.Context, kb *input.Keyboard, ptr *input.Pointer) error {
	if kb != nil {
		if err := kb.Flush(ctx); err != nil {
			return err
		}
	}
	if ptr != nil {
		return ptr.Flush(ctx)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
