// Package commands implements the bgtimer sub-commands.
package commands

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/bgtimer/internal/config"
	foundationerrors "git.home.luguber.info/inful/bgtimer/internal/foundation/errors"
	"git.home.luguber.info/inful/bgtimer/internal/journal"
	"git.home.luguber.info/inful/bgtimer/internal/kvstore"
	"git.home.luguber.info/inful/bgtimer/internal/logfields"
	"git.home.luguber.info/inful/bgtimer/internal/logging"
	"git.home.luguber.info/inful/bgtimer/internal/retry"
	"git.home.luguber.info/inful/bgtimer/internal/ticker"
	"git.home.luguber.info/inful/bgtimer/internal/timer"
)

// Global is shared state passed to every command's Run.
type Global struct {
	Logger *slog.Logger
	Clock  clockwork.Clock
	In     io.Reader
	Out    io.Writer
}

// NewGlobal returns the process-wide Global using the real clock.
func NewGlobal(in io.Reader, out io.Writer) *Global {
	return &Global{
		Logger: slog.Default(),
		Clock:  clockwork.NewRealClock(),
		In:     in,
		Out:    out,
	}
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"${config_path}" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	Start   StartCmd   `cmd:"" help:"Start or resume the timer"`
	Stop    StopCmd    `cmd:"" help:"Pause the timer"`
	Toggle  ToggleCmd  `cmd:"" help:"Start the timer if paused, pause it if running"`
	Reset   ResetCmd   `cmd:"" help:"Reset the timer to zero"`
	Status  StatusCmd  `cmd:"" help:"Show elapsed time and state"`
	Watch   WatchCmd   `cmd:"" help:"Run the interactive stopwatch"`
	History HistoryCmd `cmd:"" help:"Show the action journal"`
}

// AfterApply runs after flag parsing; set up bootstrap logging before the
// configuration is known.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	slog.SetDefault(logging.New(os.Stderr, config.LogFormatText, logging.Level(config.LogLevelInfo, c.Verbose)))
	return nil
}

// LoadConfig reads the configuration and switches logging to its settings.
func (c *CLI) LoadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	logger := logging.New(os.Stderr, cfg.Monitoring.Logging.Format, logging.Level(cfg.Monitoring.Logging.Level, c.Verbose))
	slog.SetDefault(logger)
	g.Logger = logger
	return cfg, nil
}

// session bundles an engine with the resources it was built from.
type session struct {
	cfg     *config.Config
	store   kvstore.Store
	journal *journal.SQLiteStore
	engine  *timer.Engine
}

// openSession opens the state store and journal and builds an engine over them.
// A journal that cannot be opened is logged and skipped.
func openSession(ctx context.Context, g *Global, cfg *config.Config, tk ticker.Ticker, opts ...timer.Option) (*session, error) {
	store, err := kvstore.Open(ctx, cfg.Storage, g.Logger)
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, store: store}

	base := []timer.Option{
		timer.WithInterval(cfg.Timer.TickInterval),
		timer.WithLogger(g.Logger),
		timer.WithRetryPolicy(retry.FromConfig(cfg.Persistence)),
		timer.WithBackendName(string(cfg.Storage.Backend)),
	}
	if cfg.Journal.IsEnabled() {
		js, jerr := journal.NewSQLiteStore(cfg.Journal.Path)
		if jerr != nil {
			g.Logger.Warn("journal unavailable; continuing without history", logfields.Path(cfg.Journal.Path), logfields.Error(jerr))
		} else {
			s.journal = js
			base = append(base, timer.WithJournal(journal.New(js)))
		}
	}

	s.engine = timer.NewEngine(store, g.Clock, tk, append(base, opts...)...)
	return s, nil
}

// Close releases the store and journal.
func (s *session) Close() error {
	var errs []error
	if s.journal != nil {
		errs = append(errs, s.journal.Close())
	}
	errs = append(errs, s.store.Close())
	return errors.Join(errs...)
}

// closeSession closes s and logs failures; used in defers.
func closeSession(g *Global, s *session) {
	if err := s.Close(); err != nil {
		g.Logger.Warn("failed to close timer storage", logfields.Error(err))
	}
}

// reportInit logs warnings from Initialize and passes through anything worse.
func reportInit(g *Global, err error) error {
	if err == nil {
		return nil
	}
	if foundationerrors.HasSeverity(err, foundationerrors.SeverityWarning) {
		g.Logger.Warn("timer state partially unreadable", logfields.Error(err))
		return nil
	}
	return err
}
