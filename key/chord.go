package key

import (
	"strings"

	"github.com/Alia5/macrohook/errs"
)

// Chord is a trigger key plus the modifier keys held with it, as written in
// bindings files: "ctrl+alt+t", "lshift+f1".
type Chord struct {
	Key       Key
	Modifiers []Key
}

// ParseChord splits s on "+". The last part is the trigger key, every other
// part must name a modifier key.
func ParseChord(s string) (Chord, error) {
	parts := strings.Split(strings.TrimSpace(s), "+")
	// "ctrl++" names the plus key on the main block
	if strings.HasSuffix(s, "++") {
		parts = append(parts[:len(parts)-2], "=")
	}
	var c Chord
	for i, p := range parts {
		k, err := Parse(p)
		if err != nil {
			return Chord{}, err
		}
		if i == len(parts)-1 {
			c.Key = k
			break
		}
		if _, ok := ModifierOf(k); !ok {
			return Chord{}, errs.InvalidArgument("%s in %q is not a modifier", k, s)
		}
		c.Modifiers = append(c.Modifiers, k)
	}
	return c, nil
}

// Mask returns the modifier roles of the chord.
func (c Chord) Mask() Modifier {
	var m Modifier
	for _, k := range c.Modifiers {
		if mod, ok := ModifierOf(k); ok {
			m |= mod
		}
	}
	return m
}

func (c Chord) String() string {
	m := c.Mask().String()
	if m == "" {
		return c.Key.String()
	}
	return m + "+" + c.Key.String()
}
