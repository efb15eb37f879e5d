package keymap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/Alia5/macrohook/errs"
	"github.com/Alia5/macrohook/key"
)

// Format names a layout file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatOf picks the format from a file extension. Unknown extensions are
// treated as YAML.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// File is the on-disk form of a layout.
type File struct {
	Name string              `json:"name" yaml:"name" toml:"name"`
	Base string              `json:"base,omitempty" yaml:"base,omitempty" toml:"base,omitempty"`
	Keys map[string][]string `json:"keys" yaml:"keys" toml:"keys"`
}

// Load reads a layout file.
func Load(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	l, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", path, err)
	}
	return l, nil
}

// LoadOrBuiltin resolves a built-in layout name first, then a file path.
func LoadOrBuiltin(nameOrPath string) (*Layout, error) {
	if l, err := Builtin(nameOrPath); err == nil {
		return l, nil
	}
	return Load(nameOrPath)
}

// Parse decodes a layout document.
func Parse(data []byte, format Format) (*Layout, error) {
	var f File
	var err error
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&f)
	case FormatTOML:
		err = toml.Unmarshal(data, &f)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&f)
	default:
		return nil, errs.InvalidArgument("unknown layout format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	return f.Build()
}

// Build turns the file contents into a Layout, starting from Base when set.
func (f *File) Build() (*Layout, error) {
	entries := map[Code][]Symbol{}
	roles := HIDRoles()
	if f.Base != "" {
		base, err := Builtin(f.Base)
		if err != nil {
			return nil, err
		}
		entries = base.Table.Entries()
		roles = base.Roles.Clone()
	}

	for k, vals := range f.Keys {
		c, err := parseCode(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		if len(vals) == 0 {
			delete(entries, c)
			continue
		}
		syms := make([]Symbol, len(vals))
		for i, v := range vals {
			s, err := ParseSymbol(v)
			if err != nil {
				return nil, fmt.Errorf("key %q level %d: %w", k, i, err)
			}
			syms[i] = s
		}
		entries[c] = syms
		if syms[0] == SymISOLevel3Shift || syms[0] == SymModeSwitch {
			roles.ModCodes[key.ModAltGr] = appendCode(roles.ModCodes[key.ModAltGr], c)
		}
	}

	name := f.Name
	if name == "" {
		name = f.Base
	}
	return New(name, NewTable(entries), roles), nil
}

// Document converts a layout back to its file form. Codes are written in
// decimal and symbols by name.
func Document(l *Layout) *File {
	f := &File{Name: l.Name, Keys: map[string][]string{}}
	for c, syms := range l.Table.Entries() {
		vals := make([]string, len(syms))
		for i, s := range syms {
			vals[i] = s.String()
		}
		f.Keys[strconv.FormatUint(uint64(c), 10)] = vals
	}
	return f
}

// parseCode accepts a numeric device code or a key name.
func parseCode(v string) (Code, error) {
	if n, err := strconv.ParseUint(v, 0, 32); err == nil {
		return Code(n), nil
	}
	k, err := key.Parse(v)
	if err != nil {
		return 0, err
	}
	return Code(k), nil
}

func appendCode(codes []Code, c Code) []Code {
	for _, have := range codes {
		if have == c {
			return codes
		}
	}
	return append(codes, c)
}
