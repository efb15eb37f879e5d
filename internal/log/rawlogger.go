package log

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
)

// RawLogger traces raw device traffic: evdev input_event records and HID
// reports.
type RawLogger interface {
	// Log writes one line for data. in is device to host.
	Log(in bool, data []byte)
}

type rawLogger struct {
	w  io.Writer
	mu sync.Mutex
}

// NewRaw returns a RawLogger writing to w. A nil w discards everything.
func NewRaw(w io.Writer) RawLogger {
	return &rawLogger{w: w}
}

// Nop discards all traffic.
var Nop RawLogger = &rawLogger{}

func (r *rawLogger) Log(in bool, data []byte) {
	if len(data) == 0 || r.w == nil {
		return
	}

	dir := "host->dev"
	if in {
		dir = "dev->host"
	}

	var hexbuf bytes.Buffer
	const hexdigits = "0123456789abcdef"
	for i, b := range data {
		if i > 0 {
			hexbuf.WriteByte(' ')
		}
		hexbuf.WriteByte(hexdigits[b>>4])
		hexbuf.WriteByte(hexdigits[b&0x0f])
	}

	line := fmt.Sprintf("%s %s chunk: %d bytes, hex: %s\n",
		time.Now().Format("2006/01/02 15:04:05.000"),
		dir,
		len(data),
		hexbuf.String())

	r.mu.Lock()
	_, _ = r.w.Write([]byte(line))
	r.mu.Unlock()
}

// SetupRaw picks the raw tracer for the configured level and file: the file
// when given, stdout at trace level, otherwise Nop.
func SetupRaw(level slog.Level, rawFile string) (RawLogger, io.Closer, error) {
	if rawFile != "" {
		f, err := os.OpenFile(rawFile, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open raw log: %w", err)
		}
		return NewRaw(f), f, nil
	}
	if level <= LevelTrace {
		return NewRaw(os.Stdout), nil, nil
	}
	return Nop, nil, nil
}
