// Package platform opens the input backend selected on the command line.
package platform

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/Alia5/macrohook/backend"
	"github.com/Alia5/macrohook/internal/log"
	"github.com/Alia5/macrohook/keymap"
)

// Auto selects the preferred backend of the running OS.
const Auto = "auto"

// Options carries the settings a backend may honor. Zero values mean the
// backend default.
type Options struct {
	Logger  *slog.Logger
	Tracer  log.RawLogger
	Layout  *keymap.Layout
	Devices []string
	Width   int
	Height  int
}

// Backend is an opened platform. Pointer and Windows are nil when the
// backend lacks them.
type Backend struct {
	Name     string
	Keyboard backend.Keyboard
	Pointer  backend.Pointer
	Windows  backend.Windows
}

func (b *Backend) Close() error {
	var errList []error
	if b.Windows != nil {
		errList = append(errList, b.Windows.Close())
	}
	if b.Pointer != nil {
		errList = append(errList, b.Pointer.Close())
	}
	if b.Keyboard != nil {
		errList = append(errList, b.Keyboard.Close())
	}
	return errors.Join(errList...)
}

// Opener creates a backend.
type Opener func(o Options) (*Backend, error)

var (
	registry   = make(map[string]Opener)
	registryMu sync.RWMutex
	preferred  []string
)

// Register makes a backend available under name. Names are case-insensitive.
func Register(name string, open Opener) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = open
}

// Names lists the registered backends.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Open opens the named backend. For Auto, the OS preferences are tried in
// order and the first that opens wins.
func Open(name string, o Options) (*Backend, error) {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Tracer == nil {
		o.Tracer = log.Nop
	}
	name = strings.ToLower(name)
	if name == "" || name == Auto {
		return openAuto(o)
	}

	registryMu.RLock()
	open, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown backend %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	b, err := open(o)
	if err != nil {
		return nil, fmt.Errorf("open backend %s: %w", name, err)
	}
	b.Name = name
	return b, nil
}

func openAuto(o Options) (*Backend, error) {
	var errList []error
	for _, name := range preferred {
		b, err := Open(name, o)
		if err == nil {
			o.Logger.Debug("selected backend", "backend", name)
			return b, nil
		}
		o.Logger.Debug("backend unavailable", "backend", name, "error", err)
		errList = append(errList, err)
	}
	if len(errList) == 0 {
		return nil, errors.New("no backend for this platform")
	}
	return nil, errors.Join(errList...)
}
