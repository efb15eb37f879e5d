package log_test

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/macrohook/internal/log"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"trace":   log.LevelTrace,
		"DEBUG":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, log.ParseLevel(in))
		})
	}
}

func TestMultiHandlerRespectsLevels(t *testing.T) {
	var debug, errs bytes.Buffer
	h := log.NewMultiHandler(
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&errs, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	logger := slog.New(h)
	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))

	logger.Debug("details")
	logger.Error("broken", "key", "value")

	assert.Contains(t, debug.String(), "details")
	assert.Contains(t, debug.String(), "broken")
	assert.NotContains(t, errs.String(), "details")
	assert.Contains(t, errs.String(), "key=value")
}

func TestRawLogger(t *testing.T) {
	var buf bytes.Buffer
	raw := log.NewRaw(&buf)
	raw.Log(true, []byte{0x01, 0xab})
	raw.Log(false, []byte{0xff})
	raw.Log(true, nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "dev->host chunk: 2 bytes, hex: 01 ab")
	assert.Contains(t, lines[1], "host->dev chunk: 1 bytes, hex: ff")

	log.NewRaw(nil).Log(true, []byte{1})
	log.Nop.Log(true, []byte{1})
}

func TestSetupRaw(t *testing.T) {
	raw, closer, err := log.SetupRaw(slog.LevelInfo, "")
	require.NoError(t, err)
	assert.Nil(t, closer)
	assert.Equal(t, log.Nop, raw)

	path := filepath.Join(t.TempDir(), "raw.log")
	raw, closer, err = log.SetupRaw(slog.LevelInfo, path)
	require.NoError(t, err)
	require.NotNil(t, closer)
	raw.Log(true, []byte{0x42})
	require.NoError(t, closer.Close())
}

func TestSetupLoggerWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, closers, err := log.SetupLogger("debug", path)
	require.NoError(t, err)
	require.Len(t, closers, 1)
	logger.Debug("hello")
	for _, c := range closers {
		require.NoError(t, c.Close())
	}
}
