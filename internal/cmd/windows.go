package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/Alia5/macrohook/internal/log"
	"github.com/Alia5/macrohook/window"
)

// WindowsCommand groups the window subcommands.
type WindowsCommand struct {
	List  WindowsList  `cmd:"" help:"List top-level windows"`
	Watch WindowsWatch `cmd:"" help:"Print window events until interrupted"`
	Act   WindowsAct   `cmd:"" help:"Activate, minimize, maximize, restore or close a window"`
}

type WindowsList struct {
	Class  string `help:"Only windows of this class"`
	Title  string `help:"Only windows whose title contains this"`
	Active bool   `help:"Only the focused window"`
}

func (c *WindowsList) Run(g *Globals, logger *slog.Logger, rawLogger log.RawLogger) error {
	return withWindows(g, logger, rawLogger, func(_ context.Context, svc *window.Service) error {
		var (
			wins []*window.Window
			err  error
		)
		switch {
		case c.Active:
			var w *window.Window
			if w, err = svc.Active(); w != nil {
				wins = append(wins, w)
			}
		case c.Class != "":
			wins, err = svc.ByClass(c.Class)
		case c.Title != "":
			wins, err = svc.ByTitle(c.Title)
		default:
			wins, err = svc.List()
		}
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "ID\tPID\tSTATE\tCLASS\tTITLE")
		for _, w := range wins {
			title, _ := w.Title()
			state, _ := w.State()
			_, _ = fmt.Fprintf(tw, "0x%x\t%d\t%s\t%s\t%s\n", uint64(w.ID()), w.PID(), state, w.Class(), title)
		}
		return tw.Flush()
	})
}

type WindowsWatch struct{}

func (c *WindowsWatch) Run(g *Globals, logger *slog.Logger, rawLogger log.RawLogger) error {
	return withWindows(g, logger, rawLogger, func(ctx context.Context, svc *window.Service) error {
		err := svc.InstallHook(func(ev window.Event) {
			title, _ := ev.Window.Title()
			fmt.Printf("%s\t0x%x\t%s\t%s\n", ev.Type, uint64(ev.Window.ID()), ev.Window.Class(), title)
		})
		if err != nil {
			return err
		}
		<-ctx.Done()
		return svc.UninstallHook()
	})
}

type WindowsAct struct {
	ID     string `arg:"" help:"Window id as printed by list (hex with 0x, or decimal)"`
	Action string `arg:"" help:"Action to apply" enum:"activate,restore,minimize,maximize,close,force-close"`
}

func (c *WindowsAct) Run(g *Globals, logger *slog.Logger, rawLogger log.RawLogger) error {
	id, err := strconv.ParseUint(c.ID, 0, 64)
	if err != nil {
		return fmt.Errorf("window id %q: %w", c.ID, err)
	}
	return withWindows(g, logger, rawLogger, func(_ context.Context, svc *window.Service) error {
		w, err := svc.Get(window.ID(id))
		if err != nil {
			return err
		}
		if w == nil {
			return fmt.Errorf("no window 0x%x", id)
		}
		switch c.Action {
		case "activate":
			return w.Activate()
		case "restore":
			return w.Restore()
		case "minimize":
			return w.Minimize()
		case "maximize":
			return w.Maximize()
		case "close":
			return w.Close()
		default:
			return w.ForceClose()
		}
	})
}

func withWindows(g *Globals, logger *slog.Logger, rawLogger log.RawLogger, fn func(context.Context, *window.Service) error) error {
	return withSession(g, logger, rawLogger, 0, func(ctx context.Context, s *Session) error {
		if s.Windows == nil {
			return fmt.Errorf("backend %s has no window support", s.Backend.Name)
		}
		return fn(ctx, s.Windows)
	})
}
