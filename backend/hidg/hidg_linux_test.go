//go:build linux

package hidg_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/macrohook/backend"
	"github.com/Alia5/macrohook/backend/hidg"
	"github.com/Alia5/macrohook/errs"
	"github.com/Alia5/macrohook/key"
)

func TestPointerReports(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hidg1")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	p, err := hidg.NewPointer(hidg.WithPath(path), hidg.WithScreen(100, 50))
	require.NoError(t, err)

	x, y, err := p.CursorPosition()
	require.NoError(t, err)
	assert.Equal(t, []int{50, 25}, []int{x, y})

	require.NoError(t, p.InjectMotion(40000, 10))
	require.NoError(t, p.InjectButton(key.BtnLeft, true))
	require.NoError(t, p.InjectAxis(key.Vertical, 1))
	assert.Error(t, p.InjectButton(key.BtnTask, true))

	st, err := p.ButtonState(key.BtnLeft)
	require.NoError(t, err)
	assert.Equal(t, key.Pressed, st)

	x, y, err = p.CursorPosition()
	require.NoError(t, err)
	assert.Equal(t, []int{99, 35}, []int{x, y})

	assert.ErrorIs(t, p.Hook(func(backend.RawPointer) {}, false), backend.ErrUnsupported)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	// two motion reports, button, wheel, release on close
	require.Len(t, data, 5*hidg.MouseReportLen)
	r := data[3*hidg.MouseReportLen : 4*hidg.MouseReportLen]
	assert.Equal(t, byte(0x01), r[0])
	assert.Equal(t, []byte{0xff, 0xff}, r[5:7])
	assert.Equal(t, byte(0), data[4*hidg.MouseReportLen])
}

func TestOpenMissingGadget(t *testing.T) {
	_, err := hidg.NewKeyboard(hidg.WithPath(filepath.Join(t.TempDir(), "missing")))
	assert.ErrorIs(t, err, errs.ErrBackend)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
