//go:build linux

package platform

import (
	"errors"

	"github.com/Alia5/macrohook/backend/evdev"
	"github.com/Alia5/macrohook/backend/hidg"
)

func init() {
	preferred = []string{"evdev"}
	Register("evdev", openEvdev)
	Register("hidg", openHIDG)
}

func openEvdev(o Options) (*Backend, error) {
	opts := []evdev.Option{
		evdev.WithLogger(o.Logger),
		evdev.WithTracer(o.Tracer),
		evdev.WithLayout(o.Layout),
		evdev.WithScreen(o.Width, o.Height),
	}
	if len(o.Devices) > 0 {
		opts = append(opts, evdev.WithDevices(o.Devices...))
	}
	kb, err := evdev.NewKeyboard(opts...)
	if err != nil {
		return nil, err
	}
	ptr, err := evdev.NewPointer(opts...)
	if err != nil {
		return nil, errors.Join(err, kb.Close())
	}
	return &Backend{Keyboard: kb, Pointer: ptr}, nil
}

// openHIDG takes the keyboard and mouse gadget paths from Devices, in that
// order.
func openHIDG(o Options) (*Backend, error) {
	opts := []hidg.Option{
		hidg.WithLogger(o.Logger),
		hidg.WithTracer(o.Tracer),
		hidg.WithLayout(o.Layout),
		hidg.WithScreen(o.Width, o.Height),
	}
	kbOpts, ptrOpts := opts, opts
	if len(o.Devices) > 0 {
		kbOpts = append(kbOpts[:len(kbOpts):len(kbOpts)], hidg.WithPath(o.Devices[0]))
	}
	if len(o.Devices) > 1 {
		ptrOpts = append(ptrOpts[:len(ptrOpts):len(ptrOpts)], hidg.WithPath(o.Devices[1]))
	}
	kb, err := hidg.NewKeyboard(kbOpts...)
	if err != nil {
		return nil, err
	}
	ptr, err := hidg.NewPointer(ptrOpts...)
	if err != nil {
		return nil, errors.Join(err, kb.Close())
	}
	return &Backend{Keyboard: kb, Pointer: ptr}, nil
}
