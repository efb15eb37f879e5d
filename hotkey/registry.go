// Package hotkey maps key plus modifier combinations to callbacks.
package hotkey

import (
	"cmp"
	"maps"
	"slices"

	"github.com/Alia5/macrohook/event"
	"github.com/Alia5/macrohook/key"
)

// Callback runs on the dispatch worker when its hotkey fires.
type Callback func(event.HotKeyEvent)

// Registry is not safe for concurrent use. The keyboard facade owns one and
// only touches it from its dispatch worker.
type Registry struct {
	entries map[event.HotKey]Callback
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[event.HotKey]Callback)}
}

// Register adds hk, replacing any existing callback. It reports whether hk
// was new.
func (r *Registry) Register(hk event.HotKey, cb Callback) bool {
	_, existed := r.entries[hk]
	r.entries[hk] = cb
	return !existed
}

// Unregister removes hk and reports whether it was registered.
func (r *Registry) Unregister(hk event.HotKey) bool {
	if _, ok := r.entries[hk]; !ok {
		return false
	}
	delete(r.entries, hk)
	return true
}

// Match looks up the hotkey for a key press. The modifier set must match
// exactly and locks are ignored. A modifier key also matches registrations
// made on its generic form.
func (r *Registry) Match(ev event.KeyboardEvent) (event.HotKeyEvent, Callback, bool) {
	if ev.State != key.Pressed || len(r.entries) == 0 {
		return event.HotKeyEvent{}, nil, false
	}
	hk := event.HotKey{Key: ev.Key, Modifiers: ev.Modifiers}
	cb, ok := r.entries[hk]
	if !ok {
		mod, isMod := key.ModifierOf(ev.Key)
		if !isMod || mod.Generic() == ev.Key {
			return event.HotKeyEvent{}, nil, false
		}
		hk.Key = mod.Generic()
		if cb, ok = r.entries[hk]; !ok {
			return event.HotKeyEvent{}, nil, false
		}
	}
	return event.HotKeyEvent{HotKey: hk, Stamp: event.Now()}, cb, true
}

func (r *Registry) Len() int { return len(r.entries) }

// HotKeys returns the registered hotkeys ordered by key, then modifiers.
func (r *Registry) HotKeys() []event.HotKey {
	return slices.SortedFunc(maps.Keys(r.entries), func(a, b event.HotKey) int {
		return cmp.Or(cmp.Compare(a.Key, b.Key), cmp.Compare(a.Modifiers, b.Modifiers))
	})
}

// Clear removes every registration and returns what was removed.
func (r *Registry) Clear() []event.HotKey {
	removed := r.HotKeys()
	clear(r.entries)
	return removed
}
