package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/Alia5/macrohook/errs"
	"github.com/Alia5/macrohook/internal/configpaths"
	"github.com/Alia5/macrohook/internal/log"
	"github.com/Alia5/macrohook/key"
	"github.com/Alia5/macrohook/record"
)

// Record captures input events into a file.
type Record struct {
	Output   string        `arg:"" help:"Destination file (.yaml or .json)" type:"path"`
	Type     string        `help:"What to record" enum:"keyboard,pointer,both" default:"keyboard"`
	StopKey  string        `help:"Key or button that ends the recording" default:"Escape"`
	Duration time.Duration `help:"Stop after this long (0 waits for the stop key)" default:"0s"`
	Force    bool          `help:"Overwrite if the file already exists"`
}

// Run is called by Kong when the record command is executed.
func (r *Record) Run(g *Globals, logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	typ, err := record.ParseType(r.Type)
	if err != nil {
		return err
	}
	opts := record.Options{Type: typ, Duration: r.Duration}
	if r.StopKey != "" {
		if opts.StopKey, err = key.Parse(r.StopKey); err != nil {
			return err
		}
	}
	if !r.Force {
		if _, err := os.Stat(r.Output); err == nil {
			return errs.PreconditionNotMet("%s exists; use --force to overwrite", r.Output)
		}
	}

	s, err := g.Open(logger, rawLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Error("close session", "error", err)
		}
	}()

	// Keep the recorded keys from echoing into the terminal.
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) && typ != record.Pointer {
		if old, err := term.MakeRaw(fd); err == nil {
			defer func() { _ = term.Restore(fd, old) }()
		}
		_, _ = fmt.Fprintf(os.Stderr, "recording %s, press %s to stop\r\n", typ, opts.StopKey)
	}

	events, err := record.Record(ctx, s.Keyboard, s.Pointer, opts)
	if err != nil {
		return err
	}
	logger.Info("recording done", "events", len(events))

	if err := configpaths.EnsureDir(r.Output); err != nil {
		return err
	}
	f, err := os.Create(r.Output)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := record.Encode(w, events, record.FormatOf(r.Output)); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Replay injects a recorded file.
type Replay struct {
	Input string        `arg:"" help:"Recording to replay (.yaml or .json)" type:"existingfile"`
	Delay time.Duration `help:"Pause after each release, motion and scroll" default:"10ms"`
	Wait  time.Duration `help:"Wait this long before replaying" default:"0s"`
}

// Run is called by Kong when the replay command is executed.
func (r *Replay) Run(g *Globals, logger *slog.Logger, rawLogger log.RawLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	f, err := os.Open(r.Input)
	if err != nil {
		return err
	}
	events, err := record.Decode(bufio.NewReader(f), record.FormatOf(r.Input))
	_ = f.Close()
	if err != nil {
		return err
	}

	s, err := g.Open(logger, rawLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logger.Error("close session", "error", err)
		}
	}()

	if r.Wait > 0 {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(r.Wait):
		}
	}
	logger.Info("replaying", "events", len(events), "file", r.Input)
	return record.Replay(ctx, s.Keyboard, s.Pointer, events, r.Delay)
}
