//go:build (linux || darwin) && cgo

package platform

import "github.com/Alia5/macrohook/backend/xhotkey"

func init() {
	Register("xhotkey", func(o Options) (*Backend, error) {
		opts := []xhotkey.Option{xhotkey.WithLogger(o.Logger)}
		if o.Layout != nil {
			opts = append(opts, xhotkey.WithLayout(o.Layout))
		}
		kb, err := xhotkey.NewKeyboard(opts...)
		if err != nil {
			return nil, err
		}
		return &Backend{Keyboard: kb}, nil
	})
}
