package hotstring

import (
	"slices"
	"unicode/utf8"

	"github.com/Alia5/macrohook/event"
)

// Callback runs on the dispatch worker when its hotstring fires.
type Callback func(event.HotStringEvent)

type entry struct {
	hs     event.HotString
	length int
	cb     Callback
}

// Matcher feeds typed characters into one Buffer per keyboard source and
// fires at most one hotstring per character. Like hotkey.Registry it is not
// safe for concurrent use.
type Matcher struct {
	capacity int
	entries  []entry
	buffers  map[string]*Buffer
}

// NewMatcher returns a Matcher whose buffers hold capacity characters, or
// DefaultCapacity when capacity is not positive.
func NewMatcher(capacity int) *Matcher {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Matcher{capacity: capacity, buffers: make(map[string]*Buffer)}
}

// Register adds hs. Re-registering replaces the callback in place, keeping
// the original registration order.
func (m *Matcher) Register(hs event.HotString, cb Callback) bool {
	if i := m.index(hs); i >= 0 {
		m.entries[i].cb = cb
		return false
	}
	m.entries = append(m.entries, entry{hs: hs, length: utf8.RuneCountInString(hs.String), cb: cb})
	return true
}

func (m *Matcher) Unregister(hs event.HotString) bool {
	i := m.index(hs)
	if i < 0 {
		return false
	}
	m.entries = slices.Delete(m.entries, i, i+1)
	return true
}

func (m *Matcher) index(hs event.HotString) int {
	return slices.IndexFunc(m.entries, func(e entry) bool { return e.hs == hs })
}

func (m *Matcher) Len() int { return len(m.entries) }

// HotStrings returns the registrations in registration order.
func (m *Matcher) HotStrings() []event.HotString {
	out := make([]event.HotString, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.hs
	}
	return out
}

// Clear drops every registration and all buffered text.
func (m *Matcher) Clear() []event.HotString {
	removed := m.HotStrings()
	m.entries = nil
	clear(m.buffers)
	return removed
}

// Feed appends r to the buffer of source and reports the hotstring it
// completes. The longest matching string wins and ties go to the earliest
// registration. The buffer is cleared when a hotstring fires.
func (m *Matcher) Feed(source string, r rune) (event.HotStringEvent, Callback, bool) {
	buf := m.buffer(source)
	buf.Append(r)

	best := -1
	var trigger rune
	for i, e := range m.entries {
		if best >= 0 && e.length <= m.entries[best].length {
			continue
		}
		if e.hs.HasTriggers() {
			if e.hs.HasTrigger(r) && buf.HasSuffixBeforeLast(e.hs.String) {
				best, trigger = i, r
			}
			continue
		}
		if buf.HasSuffix(e.hs.String) {
			best, trigger = i, 0
		}
	}
	if best < 0 {
		return event.HotStringEvent{}, nil, false
	}
	buf.Clear()
	e := m.entries[best]
	return event.HotStringEvent{HotString: e.hs, Trigger: trigger, Stamp: event.Now()}, e.cb, true
}

// Reset clears the buffer of source.
func (m *Matcher) Reset(source string) {
	if b, ok := m.buffers[source]; ok {
		b.Clear()
	}
}

// Buffered returns the current buffer contents of source.
func (m *Matcher) Buffered(source string) string {
	if b, ok := m.buffers[source]; ok {
		return b.String()
	}
	return ""
}

func (m *Matcher) buffer(source string) *Buffer {
	b, ok := m.buffers[source]
	if !ok {
		b = NewBuffer(m.capacity)
		m.buffers[source] = b
	}
	return b
}
