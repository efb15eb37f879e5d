package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Alia5/macrohook/internal/log"
	"github.com/Alia5/macrohook/key"
)

// Send groups the one-shot injection commands.
type Send struct {
	Type   SendType   `cmd:"" help:"Type text with the active layout"`
	Keys   SendKeys   `cmd:"" help:"Tap key chords such as ctrl+c"`
	Click  SendClick  `cmd:"" help:"Click a pointer button"`
	Move   SendMove   `cmd:"" help:"Move the pointer"`
	Scroll SendScroll `cmd:"" help:"Scroll the pointer wheel"`
}

// SendType types text.
type SendType struct {
	Text  string        `arg:"" help:"Text to type"`
	Delay time.Duration `help:"Wait before typing" default:"0s"`
}

func (c *SendType) Run(g *Globals, logger *slog.Logger, rawLogger log.RawLogger) error {
	return withSession(g, logger, rawLogger, c.Delay, func(ctx context.Context, s *Session) error {
		if err := s.Keyboard.Type(c.Text); err != nil {
			return err
		}
		return s.Keyboard.Flush(ctx)
	})
}

// SendKeys taps chords in order.
type SendKeys struct {
	Chords []string      `arg:"" help:"Chords, e.g. ctrl+shift+t or F5"`
	Delay  time.Duration `help:"Wait before sending" default:"0s"`
}

func (c *SendKeys) Run(g *Globals, logger *slog.Logger, rawLogger log.RawLogger) error {
	chords := make([]key.Chord, 0, len(c.Chords))
	for _, s := range c.Chords {
		ch, err := key.ParseChord(s)
		if err != nil {
			return err
		}
		chords = append(chords, ch)
	}
	return withSession(g, logger, rawLogger, c.Delay, func(ctx context.Context, s *Session) error {
		for _, ch := range chords {
			if err := pressChord(s.Keyboard, ch); err != nil {
				return err
			}
		}
		return s.Keyboard.Flush(ctx)
	})
}

// SendClick clicks a button.
type SendClick struct {
	Button string        `arg:"" optional:"" help:"Button name" default:"BtnLeft"`
	State  string        `help:"pressed or released; empty clicks"`
	Delay  time.Duration `help:"Wait before clicking" default:"0s"`
}

func (c *SendClick) Run(g *Globals, logger *slog.Logger, rawLogger log.RawLogger) error {
	b, err := key.Parse(c.Button)
	if err != nil {
		return err
	}
	var states []key.State
	if c.State != "" {
		st, err := key.ParseState(c.State)
		if err != nil {
			return err
		}
		states = append(states, st)
	}
	return withPointer(g, logger, rawLogger, c.Delay, func(ctx context.Context, s *Session) error {
		if err := s.Pointer.Click(b, states...); err != nil {
			return err
		}
		return s.Pointer.Flush(ctx)
	})
}

// SendMove warps the pointer.
type SendMove struct {
	X        int  `arg:"" help:"X coordinate or offset"`
	Y        int  `arg:"" help:"Y coordinate or offset"`
	Relative bool `short:"r" help:"Move by an offset"`
}

func (c *SendMove) Run(g *Globals, logger *slog.Logger, rawLogger log.RawLogger) error {
	return withPointer(g, logger, rawLogger, 0, func(ctx context.Context, s *Session) error {
		if err := s.Pointer.Warp(c.X, c.Y, c.Relative); err != nil {
			return err
		}
		if err := s.Pointer.Flush(ctx); err != nil {
			return err
		}
		x, y, err := s.Pointer.Position()
		if err != nil {
			return err
		}
		logger.Debug("pointer moved", "x", x, "y", y)
		return nil
	})
}

// SendScroll scrolls.
type SendScroll struct {
	Amount float64 `arg:"" help:"Notches; positive scrolls down or right"`
	Axis   string  `help:"Axis to scroll" enum:"vertical,horizontal" default:"vertical"`
}

func (c *SendScroll) Run(g *Globals, logger *slog.Logger, rawLogger log.RawLogger) error {
	axis, err := key.ParseAxis(c.Axis)
	if err != nil {
		return err
	}
	return withPointer(g, logger, rawLogger, 0, func(ctx context.Context, s *Session) error {
		if err := s.Pointer.Scroll(axis, c.Amount); err != nil {
			return err
		}
		return s.Pointer.Flush(ctx)
	})
}

// withSession opens a session, waits delay, then runs fn.
func withSession(g *Globals, logger *slog.Logger, rawLogger log.RawLogger, delay time.Duration, fn func(context.Context, *Session) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := g.Open(logger, rawLogger)
	if err != nil {
		return err
	}
	if delay > 0 {
		select {
		case <-ctx.Done():
			return s.Close()
		case <-time.After(delay):
		}
	}
	return errors.Join(fn(ctx, s), s.Close())
}

func withPointer(g *Globals, logger *slog.Logger, rawLogger log.RawLogger, delay time.Duration, fn func(context.Context, *Session) error) error {
	return withSession(g, logger, rawLogger, delay, func(ctx context.Context, s *Session) error {
		if s.Pointer == nil {
			return fmt.Errorf("backend %s has no pointer", s.Backend.Name)
		}
		return fn(ctx, s)
	})
}
