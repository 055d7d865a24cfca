package commands

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/bgtimer/internal/config"
	foundationerrors "git.home.luguber.info/inful/bgtimer/internal/foundation/errors"
	"git.home.luguber.info/inful/bgtimer/internal/logfields"
	"git.home.luguber.info/inful/bgtimer/internal/metrics"
	"git.home.luguber.info/inful/bgtimer/internal/shell"
	"git.home.luguber.info/inful/bgtimer/internal/ticker"
	"git.home.luguber.info/inful/bgtimer/internal/timer"
	"git.home.luguber.info/inful/bgtimer/internal/watcher"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	MetricsAddr string `name:"metrics-addr" help:"Serve Prometheus metrics on this address (overrides config)"`
	Ephemeral   bool   `help:"Keep state in memory only"`
	NoColor     bool   `name:"no-color" help:"Disable ANSI colours (also set by NO_COLOR)"`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	w.apply(cfg)
	return w.run(ctx, g, cfg)
}

// apply folds the command-line overrides into cfg.
func (w *WatchCmd) apply(cfg *config.Config) {
	if w.Ephemeral {
		cfg.Storage.Backend = config.StorageMemory
	}
	if w.MetricsAddr != "" {
		cfg.Monitoring.Metrics.Enabled = true
		cfg.Monitoring.Metrics.Listen = w.MetricsAddr
	}
}

func (w *WatchCmd) run(ctx context.Context, g *Global, cfg *config.Config) error {
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	if cfg.Monitoring.Metrics.Enabled {
		reg := prom.NewRegistry()
		recorder = metrics.NewPrometheusRecorder(reg)
		srv, err := metrics.StartServer(cfg.Monitoring.Metrics.Listen, cfg.Monitoring.Metrics.Path, reg, g.Logger)
		if err != nil {
			return foundationerrors.NetworkError("failed to start metrics server").WithCause(err).Build()
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer stopCancel()
			if err := srv.Stop(stopCtx); err != nil {
				g.Logger.Warn("failed to stop metrics server", logfields.Error(err))
			}
		}()
	}

	shellOpts := []shell.Option{shell.WithLogger(g.Logger), shell.WithColor(!w.NoColor && os.Getenv("NO_COLOR") == "")}
	if sw := w.stateWatcher(ctx, g, cfg); sw != nil {
		defer func() { _ = sw.Close() }()
		shellOpts = append(shellOpts, shell.WithReload(sw.Changes()))
	}
	sh := shell.New(g.In, g.Out, shellOpts...)

	tk, err := ticker.NewGocronTicker(
		ticker.WithClock(g.Clock),
		ticker.WithDispatcher(sh.Dispatch),
		ticker.WithLogger(g.Logger),
	)
	if err != nil {
		return foundationerrors.SchedulerError("failed to create ticker").WithCause(err).Build()
	}
	defer func() {
		if err := tk.Close(); err != nil {
			g.Logger.Warn("failed to stop ticker", logfields.Error(err))
		}
	}()

	sess, err := openSession(ctx, g, cfg, tk,
		timer.WithDisplay(sh),
		timer.WithListener(sh),
		timer.WithRecorder(recorder),
	)
	if err != nil {
		return err
	}
	defer closeSession(g, sess)

	return sh.Run(ctx, sess.engine)
}

// stateWatcher follows file-backed state so changes made by other bgtimer
// processes show up. It returns nil when reloading is off or unsupported.
func (w *WatchCmd) stateWatcher(ctx context.Context, g *Global, cfg *config.Config) *watcher.StateWatcher {
	if !cfg.Watch.ReloadEnabled() {
		return nil
	}
	switch cfg.Storage.Backend {
	case config.StorageJSON, config.StorageSQLite:
	default:
		g.Logger.Debug("state reload not supported for backend", logfields.Backend(string(cfg.Storage.Backend)))
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.Path), 0o750); err != nil {
		g.Logger.Warn("state reload disabled", logfields.Path(cfg.Storage.Path), logfields.Error(err))
		return nil
	}
	sw, err := watcher.New(cfg.Storage.Path, cfg.Watch.Debounce, watcher.WithClock(g.Clock), watcher.WithLogger(g.Logger))
	if err != nil {
		g.Logger.Warn("state reload disabled", logfields.Path(cfg.Storage.Path), logfields.Error(err))
		return nil
	}
	if err := sw.Start(ctx); err != nil {
		_ = sw.Close()
		g.Logger.Warn("state reload disabled", logfields.Path(cfg.Storage.Path), logfields.Error(err))
		return nil
	}
	return sw
}
