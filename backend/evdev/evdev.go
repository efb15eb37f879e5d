//go:build linux

// Package evdev reads keyboards and pointers through /dev/input and injects
// through uinput virtual devices.
package evdev

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/holoplot/go-evdev"
	"golang.org/x/sys/unix"

	"github.com/Alia5/macrohook/backend"
	"github.com/Alia5/macrohook/internal/log"
	"github.com/Alia5/macrohook/keymap"
)

// Names of the uinput devices. Devices carrying these names are never
// hooked, so injected input does not loop back.
const (
	KeyboardDeviceName = "macrohook keyboard"
	PointerDeviceName  = "macrohook pointer"
)

var ErrNoDevices = errors.New("no matching input devices")

type config struct {
	logger  *slog.Logger
	tracer  log.RawLogger
	devices []string
	layout  *keymap.Layout
	width   int
	height  int
}

type Option func(*config)

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracer logs every input_event read or written.
func WithTracer(t log.RawLogger) Option {
	return func(c *config) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithDevices restricts the backend to the given /dev/input paths instead
// of probing every device.
func WithDevices(paths ...string) Option {
	return func(c *config) { c.devices = paths }
}

// WithLayout sets the layout reported by CurrentLayout. evdev has no notion
// of a layout; the default is the built-in US layout.
func WithLayout(l *keymap.Layout) Option {
	return func(c *config) { c.layout = l }
}

// WithScreen sets the screen size used to track the cursor.
func WithScreen(width, height int) Option {
	return func(c *config) {
		if width > 0 && height > 0 {
			c.width, c.height = width, height
		}
	}
}

func newConfig(opts []Option) config {
	c := config{
		logger: slog.Default(),
		tracer: log.Nop,
		width:  1920,
		height: 1080,
	}
	for _, o := range opts {
		o(&c)
	}
	if c.layout == nil {
		c.layout = keymap.US()
	}
	return c
}

func isKeyboard(d *evdev.InputDevice) bool {
	return slices.Contains(d.CapableEvents(evdev.EV_KEY), evdev.KEY_A) &&
		slices.Contains(d.CapableTypes(), evdev.EV_REP)
}

func isPointer(d *evdev.InputDevice) bool {
	return slices.Contains(d.CapableTypes(), evdev.EV_REL) &&
		slices.Contains(d.CapableEvents(evdev.EV_KEY), evdev.BTN_LEFT)
}

// openDevices opens the configured paths, or every device matching want.
// Our own uinput devices are skipped.
func openDevices(c config, want func(*evdev.InputDevice) bool) ([]*evdev.InputDevice, error) {
	paths := c.devices
	if len(paths) == 0 {
		found, err := evdev.ListDevicePaths()
		if err != nil {
			return nil, fmt.Errorf("list input devices: %w", err)
		}
		for _, p := range found {
			paths = append(paths, p.Path)
		}
	}

	var devs []*evdev.InputDevice
	for _, p := range paths {
		d, err := evdev.Open(p)
		if err != nil {
			c.logger.Debug("skipping input device", "path", p, "error", err)
			continue
		}
		name, _ := d.Name()
		if name == KeyboardDeviceName || name == PointerDeviceName || !want(d) {
			_ = d.Close()
			continue
		}
		c.logger.Debug("using input device", "path", p, "name", name)
		devs = append(devs, d)
	}
	return devs, nil
}

func sources(devs []*evdev.InputDevice) []backend.Source {
	out := make([]backend.Source, 0, len(devs))
	for _, d := range devs {
		name, _ := d.Name()
		out = append(out, backend.Source{ID: d.Path(), Name: name, Path: d.Path()})
	}
	return out
}

func closeAll(devs []*evdev.InputDevice) error {
	var errList []error
	for _, d := range devs {
		errList = append(errList, d.Close())
	}
	return errors.Join(errList...)
}

// reopen replaces closed hook devices with fresh handles for state queries.
func reopen(c config, devs []*evdev.InputDevice) []*evdev.InputDevice {
	out := make([]*evdev.InputDevice, 0, len(devs))
	for _, d := range devs {
		nd, err := evdev.Open(d.Path())
		if err != nil {
			c.logger.Warn("input device gone", "path", d.Path(), "error", err)
			continue
		}
		out = append(out, nd)
	}
	return out
}

func trace(t log.RawLogger, in bool, ev *evdev.InputEvent) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.NativeEndian, ev); err != nil {
		return
	}
	t.Log(in, buf.Bytes())
}

// readLoop feeds events from d to handle until the device is closed.
func readLoop(logger *slog.Logger, t log.RawLogger, d *evdev.InputDevice, handle func(string, *evdev.InputEvent)) {
	path := d.Path()
	for {
		ev, err := d.ReadOne()
		if err != nil {
			if !isClosed(err) {
				logger.Warn("input device read failed", "path", path, "error", err)
			}
			return
		}
		trace(t, true, ev)
		handle(path, ev)
	}
}

func isClosed(err error) bool {
	return errors.Is(err, os.ErrClosed) || errors.Is(err, unix.EBADF)
}

func write(t log.RawLogger, d *evdev.InputDevice, typ evdev.EvType, code evdev.EvCode, value int32) error {
	ev := &evdev.InputEvent{Type: typ, Code: code, Value: value}
	trace(t, false, ev)
	return d.WriteOne(ev)
}

func syn(t log.RawLogger, d *evdev.InputDevice) error {
	return write(t, d, evdev.EV_SYN, evdev.SYN_REPORT, 0)
}

var virtualID = evdev.InputID{BusType: 0x06, Vendor: 0x1209, Product: 0x4d48, Version: 1}
