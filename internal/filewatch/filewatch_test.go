package filewatch_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/macrohook/internal/filewatch"
)

func TestWatchReportsWritesToTheFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bindings.yaml")
	other := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var calls atomic.Int32
	require.NoError(t, filewatch.Watch(ctx, path, nil, func() { calls.Add(1) }))

	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))
	time.Sleep(3 * filewatch.DefaultDebounce)
	assert.Zero(t, calls.Load(), "other files are ignored")

	// A burst of writes is coalesced.
	for range 3 {
		require.NoError(t, os.WriteFile(path, []byte("b"), 0o644))
	}
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(3 * filewatch.DefaultDebounce)
	assert.Equal(t, int32(1), calls.Load())

	cancel()
	time.Sleep(filewatch.DefaultDebounce)
	require.NoError(t, os.WriteFile(path, []byte("c"), 0o644))
	time.Sleep(3 * filewatch.DefaultDebounce)
	assert.Equal(t, int32(1), calls.Load(), "no callbacks after cancel")
}

func TestWatchMissingDirectory(t *testing.T) {
	err := filewatch.Watch(context.Background(), filepath.Join(t.TempDir(), "nope", "f.yaml"), nil, func() {})
	assert.Error(t, err)
}
