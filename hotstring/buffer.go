// Package hotstring detects typed abbreviations in a stream of characters.
package hotstring

import "unicode/utf8"

// DefaultCapacity is the number of characters remembered per source.
const DefaultCapacity = 128

// Buffer is a fixed-capacity ring of the most recent characters.
type Buffer struct {
	data  []rune
	start int
	n     int
}

func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{data: make([]rune, capacity)}
}

// Append adds r, dropping the oldest character when full.
func (b *Buffer) Append(r rune) {
	if b.n < len(b.data) {
		b.data[(b.start+b.n)%len(b.data)] = r
		b.n++
		return
	}
	b.data[b.start] = r
	b.start = (b.start + 1) % len(b.data)
}

func (b *Buffer) Len() int { return b.n }

func (b *Buffer) Cap() int { return len(b.data) }

func (b *Buffer) Clear() {
	b.start, b.n = 0, 0
}

// Last returns the newest character.
func (b *Buffer) Last() (rune, bool) {
	if b.n == 0 {
		return 0, false
	}
	return b.at(b.n - 1), true
}

// Runes returns the buffered characters, oldest first.
func (b *Buffer) Runes() []rune {
	out := make([]rune, b.n)
	for i := range out {
		out[i] = b.at(i)
	}
	return out
}

func (b *Buffer) String() string { return string(b.Runes()) }

// HasSuffix reports whether the buffer ends with s.
func (b *Buffer) HasSuffix(s string) bool {
	return b.suffixAt(s, b.n)
}

// HasSuffixBeforeLast reports whether the buffer without its newest
// character ends with s.
func (b *Buffer) HasSuffixBeforeLast(s string) bool {
	if b.n == 0 {
		return false
	}
	return b.suffixAt(s, b.n-1)
}

func (b *Buffer) at(i int) rune {
	return b.data[(b.start+i)%len(b.data)]
}

// suffixAt compares s backwards against the first end characters.
func (b *Buffer) suffixAt(s string, end int) bool {
	i := end
	for len(s) > 0 {
		r, size := utf8.DecodeLastRuneInString(s)
		i--
		if i < 0 || b.at(i) != r {
			return false
		}
		s = s[:len(s)-size]
	}
	return true
}
