package record

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/Alia5/macrohook/errs"
	"github.com/Alia5/macrohook/event"
	"github.com/Alia5/macrohook/key"
)

// Format is a recording file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf picks the format from a file extension, defaulting to YAML.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

const fileVersion = 1

type file struct {
	Version int     `json:"version" yaml:"version"`
	Events  []entry `json:"events" yaml:"events"`
}

// entry is one event. Kind tags which of the optional fields apply.
type entry struct {
	Kind      string       `json:"kind" yaml:"kind"`
	Stamp     int64        `json:"stamp" yaml:"stamp"`
	Source    string       `json:"source,omitempty" yaml:"source,omitempty"`
	Key       key.Key      `json:"key,omitempty" yaml:"key,omitempty"`
	Button    key.Key      `json:"button,omitempty" yaml:"button,omitempty"`
	State     key.State    `json:"state,omitempty" yaml:"state,omitempty"`
	Char      string       `json:"char,omitempty" yaml:"char,omitempty"`
	Modifiers key.Modifier `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	X         int          `json:"x,omitempty" yaml:"x,omitempty"`
	Y         int          `json:"y,omitempty" yaml:"y,omitempty"`
	Axis      key.Axis     `json:"axis,omitempty" yaml:"axis,omitempty"`
	Value     float64      `json:"value,omitempty" yaml:"value,omitempty"`
}

const (
	kindKey    = "key"
	kindMotion = "motion"
	kindButton = "button"
	kindAxis   = "axis"
)

func toEntry(ev event.Event) (entry, error) {
	switch e := ev.(type) {
	case event.KeyboardEvent:
		en := entry{Kind: kindKey, Stamp: int64(e.Stamp), Source: e.Source, Key: e.Key, State: e.State, Modifiers: e.Modifiers}
		if e.Char != 0 {
			en.Char = string(e.Char)
		}
		return en, nil
	case event.PointerMotion:
		return entry{Kind: kindMotion, Stamp: int64(e.Stamp), X: e.X, Y: e.Y, Modifiers: e.Modifiers}, nil
	case event.PointerButton:
		return entry{Kind: kindButton, Stamp: int64(e.Stamp), X: e.X, Y: e.Y, Button: e.Button, State: e.State, Modifiers: e.Modifiers}, nil
	case event.PointerAxis:
		return entry{Kind: kindAxis, Stamp: int64(e.Stamp), X: e.X, Y: e.Y, Axis: e.Axis, Value: e.Value, Modifiers: e.Modifiers}, nil
	}
	return entry{}, errs.InvalidArgument("cannot record %T", ev)
}

func (en entry) event() (event.Event, error) {
	stamp := event.Stamp(en.Stamp)
	switch en.Kind {
	case kindKey:
		if en.Key == key.KeyNone || !en.State.Valid() {
			return nil, errs.InvalidArgument("key event needs a key and a state")
		}
		r, _ := utf8.DecodeRuneInString(en.Char)
		if r == utf8.RuneError {
			r = 0
		}
		return event.KeyboardEvent{Stamp: stamp, Source: en.Source, Key: en.Key, State: en.State, Char: r, Modifiers: en.Modifiers}, nil
	case kindMotion:
		return event.PointerMotion{Stamp: stamp, X: en.X, Y: en.Y, Modifiers: en.Modifiers}, nil
	case kindButton:
		if !en.Button.IsButton() || !en.State.Valid() {
			return nil, errs.InvalidArgument("button event needs a button and a state")
		}
		return event.PointerButton{Stamp: stamp, X: en.X, Y: en.Y, Button: en.Button, State: en.State, Modifiers: en.Modifiers}, nil
	case kindAxis:
		if !en.Axis.Valid() {
			return nil, errs.InvalidArgument("axis event needs an axis")
		}
		return event.PointerAxis{Stamp: stamp, X: en.X, Y: en.Y, Axis: en.Axis, Value: en.Value, Modifiers: en.Modifiers}, nil
	}
	return nil, errs.InvalidArgument("unknown event kind %q", en.Kind)
}

// Encode writes events as a recording file.
func Encode(w io.Writer, events []event.Event, format Format) error {
	f := file{Version: fileVersion, Events: make([]entry, 0, len(events))}
	for i, ev := range events {
		en, err := toEntry(ev)
		if err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
		f.Events = append(f.Events, en)
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(f)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(f); err != nil {
			return err
		}
		return enc.Close()
	}
	return errs.InvalidArgument("unknown recording format %q", format)
}

// Decode reads a recording file.
func Decode(r io.Reader, format Format) ([]event.Event, error) {
	var f file
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, errs.InvalidArgument("unknown recording format %q", format)
	}
	if f.Version != fileVersion {
		return nil, errs.InvalidArgument("unsupported recording version %d", f.Version)
	}

	out := make([]event.Event, 0, len(f.Events))
	for i, en := range f.Events {
		ev, err := en.event()
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		out = append(out, ev)
	}
	return out, nil
}
