package hidg_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/macrohook/backend/hidg"
	"github.com/Alia5/macrohook/key"
)

func TestKeyboardState(t *testing.T) {
	var st hidg.KeyboardState
	require.True(t, st.Set(key.KeyA, true))
	require.True(t, st.Set(key.KeyLeftShift, true))
	require.True(t, st.Set(key.KeyRightAlt, true))
	assert.False(t, st.Set(key.BtnLeft, true))
	assert.False(t, st.Set(key.KeyShift, true))

	r := st.BuildReport()
	require.Len(t, r, hidg.KeyboardReportLen)
	assert.Equal(t, byte(0x42), r[0])
	assert.Equal(t, byte(0), r[1])
	// usage 0x04 is bit 4 of the first bitmap byte
	assert.Equal(t, byte(0x10), r[2])

	assert.True(t, st.Held(key.KeyA))
	st.Set(key.KeyA, false)
	st.Set(key.KeyLeftShift, false)
	assert.False(t, st.Held(key.KeyA))
	assert.False(t, st.Held(key.KeyLeftShift))
	assert.True(t, st.Held(key.KeyRightAlt))
	assert.Equal(t, byte(0), st.BuildReport()[2])
}

func TestParseLEDReport(t *testing.T) {
	l, err := hidg.ParseLEDReport([]byte{0x03})
	require.NoError(t, err)
	assert.True(t, l.Has(key.NumLock))
	assert.True(t, l.Has(key.CapsLock))
	assert.False(t, l.Has(key.ScrollLock))

	_, err = hidg.ParseLEDReport(nil)
	assert.Error(t, err)
}

func TestMouseReport(t *testing.T) {
	m := hidg.MouseState{Buttons: 0xff, DX: -2, DY: 300, Wheel: 1, Pan: -1}
	assert.Equal(t, []byte{
		0x1f,
		0xfe, 0xff,
		0x2c, 0x01,
		0x01, 0x00,
		0xff, 0xff,
	}, m.BuildReport())
}

func TestReportDescriptors(t *testing.T) {
	for name, d := range map[string][]byte{
		"keyboard": hidg.ReportDescriptorKeyboard,
		"mouse":    hidg.ReportDescriptorMouse,
	} {
		t.Run(name, func(t *testing.T) {
			depth := 0
			for i := 0; i < len(d); {
				prefix := d[i]
				switch prefix {
				case 0xA1:
					depth++
				case 0xC0:
					depth--
				}
				size := int(prefix & 0x03)
				if size == 3 {
					size = 4
				}
				i += 1 + size
			}
			assert.Zero(t, depth)
		})
	}
}
