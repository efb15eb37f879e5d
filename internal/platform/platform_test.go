package platform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/macrohook/backend/fake"
	"github.com/Alia5/macrohook/internal/platform"
	"github.com/Alia5/macrohook/keymap"
)

func TestOpenFake(t *testing.T) {
	de, err := keymap.Builtin("de")
	require.NoError(t, err)

	b, err := platform.Open("FAKE", platform.Options{Layout: de})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	assert.Equal(t, "fake", b.Name)
	require.NotNil(t, b.Pointer)
	require.NotNil(t, b.Windows)
	l, err := b.Keyboard.CurrentLayout()
	require.NoError(t, err)
	assert.Equal(t, de.ID(), l.ID())

	w, h, err := b.Pointer.ScreenBounds()
	require.NoError(t, err)
	assert.Equal(t, []int{1920, 1080}, []int{w, h})

	require.NoError(t, b.Close())
	assert.True(t, b.Keyboard.(*fake.Keyboard).Closed())
}

func TestOpenUnknown(t *testing.T) {
	_, err := platform.Open("nope", platform.Options{})
	assert.ErrorContains(t, err, "unknown backend")
	assert.Contains(t, platform.Names(), "fake")
}
