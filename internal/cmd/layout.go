package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/Alia5/macrohook/internal/log"
	"github.com/Alia5/macrohook/key"
	"github.com/Alia5/macrohook/keymap"
)

// LayoutCommand groups the layout inspection subcommands.
type LayoutCommand struct {
	List LayoutList `cmd:"" help:"List built-in layouts"`
	Show LayoutShow `cmd:"" help:"Print a layout in file form"`
	ID   LayoutID   `cmd:"" name:"id" help:"Print a layout fingerprint"`
}

type LayoutList struct{}

func (c *LayoutList) Run() error {
	for _, name := range keymap.BuiltinNames() {
		fmt.Println(name)
	}
	return nil
}

// LayoutShow prints a layout. Without a name it prints the layout the
// backend reports.
type LayoutShow struct {
	Name   string `arg:"" optional:"" help:"Built-in name or layout file"`
	Format string `help:"Output format" enum:"json,yaml,toml" default:"yaml"`
}

func (c *LayoutShow) Run(g *Globals, logger *slog.Logger, rawLogger log.RawLogger) error {
	l, err := resolveLayout(c.Name, g, logger, rawLogger)
	if err != nil {
		return err
	}
	doc := keymap.Document(l)
	var data []byte
	switch normalizeFormat(c.Format) {
	case "json":
		data, err = json.MarshalIndent(doc, "", "  ")
		data = append(data, '\n')
	case "toml":
		data, err = toml.Marshal(doc)
	default:
		data, err = yaml.Marshal(doc)
	}
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

type LayoutID struct {
	Name string `arg:"" optional:"" help:"Built-in name or layout file"`
}

func (c *LayoutID) Run(g *Globals, logger *slog.Logger, rawLogger log.RawLogger) error {
	l, err := resolveLayout(c.Name, g, logger, rawLogger)
	if err != nil {
		return err
	}
	fmt.Printf("%s\t%s\n", l.ID(), l.Name)
	return nil
}

func resolveLayout(name string, g *Globals, logger *slog.Logger, rawLogger log.RawLogger) (*keymap.Layout, error) {
	if name != "" {
		return keymap.LoadOrBuiltin(name)
	}
	s, err := g.Open(logger, rawLogger)
	if err != nil {
		return nil, err
	}
	l := s.Keyboard.Layout()
	return l, s.Close()
}

// Keys lists the key and button names accepted in chords and bindings.
type Keys struct{}

func (c *Keys) Run() error {
	for _, k := range key.All() {
		fmt.Printf("%d\t%s\n", uint16(k), k)
	}
	return nil
}
