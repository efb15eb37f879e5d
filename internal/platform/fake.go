package platform

import "github.com/Alia5/macrohook/backend/fake"

func init() {
	Register("fake", func(o Options) (*Backend, error) {
		w, h := o.Width, o.Height
		if w <= 0 || h <= 0 {
			w, h = 1920, 1080
		}
		kb := fake.NewKeyboard()
		if o.Layout != nil {
			kb.SetLayout(o.Layout)
		}
		return &Backend{
			Keyboard: kb,
			Pointer:  fake.NewPointer(w, h),
			Windows:  fake.NewWindows(),
		}, nil
	})
}
