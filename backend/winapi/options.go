package winapi

import (
	"errors"
	"log/slog"
)

var ErrNoWindow = errors.New("no such window")

type config struct {
	logger *slog.Logger
}

type Option func(*config)

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func newConfig(opts []Option) config {
	c := config{logger: slog.Default()}
	for _, o := range opts {
		o(&c)
	}
	c.logger = c.logger.With("backend", "winapi")
	return c
}
