package hotstring_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/macrohook/event"
	"github.com/Alia5/macrohook/hotstring"
)

func TestBuffer(t *testing.T) {
	b := hotstring.NewBuffer(4)
	for _, r := range "abcdef" {
		b.Append(r)
	}
	assert.Equal(t, "cdef", b.String())
	assert.Equal(t, 4, b.Len())
	assert.True(t, b.HasSuffix("ef"))
	assert.True(t, b.HasSuffix("cdef"))
	assert.False(t, b.HasSuffix("bcdef"))
	assert.True(t, b.HasSuffixBeforeLast("cde"))
	assert.False(t, b.HasSuffixBeforeLast("ef"))
	assert.True(t, b.HasSuffix(""))

	last, ok := b.Last()
	require.True(t, ok)
	assert.Equal(t, 'f', last)

	b.Clear()
	assert.Empty(t, b.String())
	assert.False(t, b.HasSuffixBeforeLast(""))
	_, ok = b.Last()
	assert.False(t, ok)

	assert.Equal(t, hotstring.DefaultCapacity, hotstring.NewBuffer(0).Cap())
}

func TestBufferMultibyte(t *testing.T) {
	b := hotstring.NewBuffer(8)
	for _, r := range "grüße" {
		b.Append(r)
	}
	assert.True(t, b.HasSuffix("üße"))
	assert.True(t, b.HasSuffixBeforeLast("grüß"))
}

// feed types s and collects every firing.
func feed(m *hotstring.Matcher, source, s string) []event.HotStringEvent {
	var fired []event.HotStringEvent
	for _, r := range s {
		if ev, cb, ok := m.Feed(source, r); ok {
			cb(ev)
			fired = append(fired, ev)
		}
	}
	return fired
}

func TestNoTriggerFiresOnLastCharacter(t *testing.T) {
	m := hotstring.NewMatcher(0)
	hs, err := event.NewHotString("foo")
	require.NoError(t, err)
	calls := 0
	m.Register(hs, func(event.HotStringEvent) { calls++ })

	fired := feed(m, "kbd", "xfoo")
	require.Len(t, fired, 1)
	assert.Equal(t, hs, fired[0].HotString)
	assert.Zero(t, fired[0].Trigger)
	assert.Equal(t, 1, calls)
	assert.Empty(t, m.Buffered("kbd"), "buffer clears on fire")
}

func TestTriggerRequired(t *testing.T) {
	m := hotstring.NewMatcher(0)
	hs, err := event.NewHotString("foo", ' ', '.')
	require.NoError(t, err)
	m.Register(hs, func(event.HotStringEvent) {})

	assert.Empty(t, feed(m, "kbd", "foo"))
	assert.Empty(t, feed(m, "kbd", "d"), "food is not foo followed by a trigger")

	m.Reset("kbd")
	fired := feed(m, "kbd", "foo ")
	require.Len(t, fired, 1)
	assert.Equal(t, ' ', fired[0].Trigger)

	fired = feed(m, "kbd", "foo.")
	require.Len(t, fired, 1)
	assert.Equal(t, '.', fired[0].Trigger)
}

func TestPriority(t *testing.T) {
	tests := []struct {
		name     string
		register []string
		typed    string
		want     string
	}{
		{name: "longest wins", register: []string{"lo", "hello"}, typed: "hello", want: "hello"},
		{name: "longest wins regardless of order", register: []string{"hello", "lo"}, typed: "hello", want: "hello"},
		{name: "shorter fires first when it completes first", register: []string{"hel", "help"}, typed: "help", want: "hel"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := hotstring.NewMatcher(0)
			for _, s := range tt.register {
				hs, err := event.NewHotString(s)
				require.NoError(t, err)
				m.Register(hs, func(event.HotStringEvent) {})
			}
			fired := feed(m, "kbd", tt.typed)
			require.NotEmpty(t, fired)
			assert.Equal(t, tt.want, fired[0].String)
		})
	}
}

func TestTieGoesToEarliestRegistration(t *testing.T) {
	m := hotstring.NewMatcher(0)
	withTrigger, err := event.NewHotString("btw", ' ')
	require.NoError(t, err)
	// same length as "btw" plus trigger, registered later
	plain, err := event.NewHotString("btw ")
	require.NoError(t, err)
	other, err := event.NewHotString("tw ")
	require.NoError(t, err)

	m.Register(withTrigger, func(event.HotStringEvent) {})
	m.Register(other, func(event.HotStringEvent) {})
	m.Register(plain, func(event.HotStringEvent) {})

	fired := feed(m, "kbd", "btw ")
	require.Len(t, fired, 1)
	assert.Equal(t, plain, fired[0].HotString, "4 runes beat 3")

	m.Unregister(plain)
	fired = feed(m, "kbd", "btw ")
	require.Len(t, fired, 1)
	assert.Equal(t, withTrigger, fired[0].HotString, "equal length, earliest registration")
}

func TestRegisterKeepsPosition(t *testing.T) {
	m := hotstring.NewMatcher(0)
	a, _ := event.NewHotString("ab")
	b, _ := event.NewHotString("xb")
	m.Register(a, nil)
	m.Register(b, nil)
	assert.False(t, m.Register(a, func(event.HotStringEvent) {}))
	assert.Equal(t, []event.HotString{a, b}, m.HotStrings())

	assert.True(t, m.Unregister(a))
	assert.False(t, m.Unregister(a))
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, []event.HotString{b}, m.Clear())
	assert.Zero(t, m.Len())
}

func TestBuffersArePerSource(t *testing.T) {
	m := hotstring.NewMatcher(0)
	hs, _ := event.NewHotString("abc")
	m.Register(hs, func(event.HotStringEvent) {})

	assert.Empty(t, feed(m, "one", "ab"))
	assert.Empty(t, feed(m, "two", "c"))
	assert.Equal(t, "ab", m.Buffered("one"))
	assert.Equal(t, "c", m.Buffered("two"))
	assert.Len(t, feed(m, "one", "c"), 1)
}

func TestBufferCapacityBoundsMatches(t *testing.T) {
	m := hotstring.NewMatcher(4)
	hs, _ := event.NewHotString("abcde")
	m.Register(hs, func(event.HotStringEvent) {})
	assert.Empty(t, feed(m, "kbd", "abcde"), "longer than the buffer never matches")

	m = hotstring.NewMatcher(0)
	m.Register(hs, func(event.HotStringEvent) {})
	assert.Len(t, feed(m, "kbd", strings.Repeat("x", 500)+"abcde"), 1)
}
