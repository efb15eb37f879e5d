package window

import (
	"runtime"
	"sync"
	"weak"
)

// Cache hands out one *Window per ID for as long as any caller holds it.
// Entries are weak: once every caller drops a Window it is collected and its
// entry removed.
type Cache struct {
	mu      sync.Mutex
	entries map[ID]weak.Pointer[Window]
}

func NewCache() *Cache {
	return &Cache{entries: make(map[ID]weak.Pointer[Window])}
}

type cacheRef struct {
	id ID
	wp weak.Pointer[Window]
}

// GetOrCreate returns the live Window for id, or stores the result of build.
// A nil result from build is returned as is and not cached.
func (c *Cache) GetOrCreate(id ID, build func() *Window) *Window {
	c.mu.Lock()
	defer c.mu.Unlock()
	if wp, ok := c.entries[id]; ok {
		if w := wp.Value(); w != nil {
			return w
		}
	}
	w := build()
	if w == nil {
		return nil
	}
	wp := weak.Make(w)
	c.entries[id] = wp
	runtime.AddCleanup(w, c.evict, cacheRef{id: id, wp: wp})
	return w
}

// Lookup returns the live Window for id without creating one.
func (c *Cache) Lookup(id ID) (*Window, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if wp, ok := c.entries[id]; ok {
		if w := wp.Value(); w != nil {
			return w, true
		}
	}
	return nil, false
}

// evict only removes the entry if it still refers to the collected object;
// a newer Window may have replaced it.
func (c *Cache) evict(ref cacheRef) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.entries[ref.id]; ok && cur == ref.wp {
		delete(c.entries, ref.id)
	}
}

// Len counts entries, including ones whose Window awaits collection.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
