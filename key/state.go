package key

import (
	"strings"

	"github.com/Alia5/macrohook/errs"
)

// State tells whether a key or button went down or up.
type State uint8

const (
	Pressed State = iota + 1
	Released
)

func (s State) Valid() bool {
	return s == Pressed || s == Released
}

func (s State) String() string {
	switch s {
	case Pressed:
		return "pressed"
	case Released:
		return "released"
	default:
		return "invalid"
	}
}

// ParseState accepts "pressed"/"press"/"down" and "released"/"release"/"up".
func ParseState(s string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pressed", "press", "down":
		return Pressed, nil
	case "released", "release", "up":
		return Released, nil
	}
	return 0, errs.InvalidArgument("unknown key state %q", s)
}

func (s State) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, errs.InvalidArgument("key state %d", s)
	}
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(b []byte) error {
	v, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Axis is a pointer scroll axis.
type Axis uint8

const (
	Vertical Axis = iota + 1
	Horizontal
)

func (a Axis) Valid() bool {
	return a == Vertical || a == Horizontal
}

func (a Axis) String() string {
	switch a {
	case Vertical:
		return "vertical"
	case Horizontal:
		return "horizontal"
	default:
		return "invalid"
	}
}

func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vertical", "v", "y":
		return Vertical, nil
	case "horizontal", "h", "x":
		return Horizontal, nil
	}
	return 0, errs.InvalidArgument("unknown axis %q", s)
}

func (a Axis) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, errs.InvalidArgument("axis %d", a)
	}
	return []byte(a.String()), nil
}

func (a *Axis) UnmarshalText(b []byte) error {
	v, err := ParseAxis(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
