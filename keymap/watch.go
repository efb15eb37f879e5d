package keymap

import (
	"context"
	"log/slog"

	"github.com/Alia5/macrohook/internal/filewatch"
)

// Watch reloads the layout file at path whenever it changes and hands each
// successfully parsed layout to onChange. Parse failures are logged and the
// previous layout stays in effect.
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange func(*Layout)) error {
	if logger == nil {
		logger = slog.Default()
	}
	return filewatch.Watch(ctx, path, logger, func() {
		l, err := Load(path)
		if err != nil {
			logger.Error("layout reload failed, keeping previous layout", "path", path, "error", err)
			return
		}
		logger.Info("layout reloaded", "path", path, "name", l.Name, "id", l.ID())
		onChange(l)
	})
}
