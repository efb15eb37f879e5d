//go:build windows

package platform

import (
	"errors"

	"github.com/Alia5/macrohook/backend/winapi"
)

func init() {
	preferred = []string{"windows"}
	Register("windows", func(o Options) (*Backend, error) {
		kb, err := winapi.NewKeyboard(winapi.WithLogger(o.Logger))
		if err != nil {
			return nil, err
		}
		ptr, err := winapi.NewPointer(winapi.WithLogger(o.Logger))
		if err != nil {
			return nil, errors.Join(err, kb.Close())
		}
		return &Backend{Keyboard: kb, Pointer: ptr, Windows: winapi.NewWindows()}, nil
	})
}
