package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	foundationerrors "git.home.luguber.info/inful/bgtimer/internal/foundation/errors"
	"git.home.luguber.info/inful/bgtimer/internal/journal"
	"git.home.luguber.info/inful/bgtimer/internal/logfields"
	"git.home.luguber.info/inful/bgtimer/internal/timer"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of runs to show" default:"10"`
	Run   string `help:"Show the actions of a single run"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	ctx := context.Background()
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	if !cfg.Journal.IsEnabled() {
		return foundationerrors.ConfigError("journal is disabled (set journal.enabled: true)").Build()
	}

	store, err := journal.NewSQLiteStore(cfg.Journal.Path)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryJournal, "failed to open journal").
			WithContext("path", cfg.Journal.Path).
			Build()
	}
	defer func() {
		if err := store.Close(); err != nil {
			g.Logger.Warn("failed to close journal", logfields.Error(err))
		}
	}()

	projection := journal.NewRunHistoryProjection(store, h.Limit)
	if err := projection.Rebuild(ctx); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryJournal, "failed to read journal").Build()
	}

	if h.Run != "" {
		return h.showRun(ctx, g.Out, store, projection)
	}

	runs := projection.History()
	if len(runs) == 0 {
		fmt.Fprintln(g.Out, "no runs recorded")
		return nil
	}
	if active, ok := projection.Active(); ok {
		fmt.Fprintf(g.Out, "active run %s since %s\n\n", active.RunID, active.LastActionAt.Local().Format(time.DateTime))
	}
	fmt.Fprintf(g.Out, "%-36s  %-7s  %-20s  %-10s  %s\n", "RUN", "STATUS", "STARTED", "ELAPSED", "PAUSES")
	for _, run := range runs {
		fmt.Fprintf(g.Out, "%-36s  %-7s  %-20s  %-10s  %d\n",
			run.RunID, run.Status, run.StartedAt.Local().Format(time.DateTime), timer.FormatDuration(run.Elapsed), run.Pauses)
	}
	return nil
}

func (h *HistoryCmd) showRun(ctx context.Context, out io.Writer, store journal.Store, projection *journal.RunHistoryProjection) error {
	summary, ok := projection.Run(h.Run)
	if !ok {
		return foundationerrors.NotFoundError("run").WithContext("run_id", h.Run).Build()
	}
	events, err := store.GetByRunID(ctx, h.Run)
	if err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryJournal, "failed to read journal").Build()
	}

	fmt.Fprintf(out, "run %s (%s)\n", summary.RunID, summary.Status)
	for _, e := range events {
		fmt.Fprintf(out, "  %s  %-14s %s\n", e.Timestamp().Local().Format(time.DateTime), e.Type(), timer.FormatDuration(journal.Elapsed(e)))
	}
	fmt.Fprintf(out, "total %s, %d pause(s)\n", timer.FormatDuration(summary.Elapsed), summary.Pauses)
	return nil
}
