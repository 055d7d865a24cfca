// Package logging builds the slog loggers used by bgtimer.
package logging

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/golang-cz/devslog"
	"github.com/phsym/console-slog"
	slogformatter "github.com/samber/slog-formatter"

	"git.home.luguber.info/inful/bgtimer/internal/config"
)

var newHandler = slogformatter.NewFormatterHandler(
	slogformatter.ErrorFormatter("error"),
	slogformatter.FormatByType(func(d time.Duration) slog.Value {
		return slog.StringValue(d.String())
	}),
)

// New returns a logger writing format to w at level.
func New(w io.Writer, format config.LogFormat, level slog.Leveler) *slog.Logger {
	var h slog.Handler
	switch format {
	case config.LogFormatJSON:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	case config.LogFormatConsole:
		h = console.NewHandler(w, &console.HandlerOptions{
			Level:      level,
			TimeFormat: time.TimeOnly,
		})
	case config.LogFormatDev:
		h = devslog.NewHandler(w, &devslog.Options{
			HandlerOptions: &slog.HandlerOptions{
				AddSource: true,
				Level:     level,
			},
			SortKeys:   true,
			TimeFormat: time.RFC3339Nano,
		})
	default:
		h = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(newHandler(h))
}

// Level maps a configured level onto slog. Verbose forces debug.
func Level(l config.LogLevel, verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch l {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type noopHandler struct{}

func (noopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (noopHandler) Handle(context.Context, slog.Record) error { return nil }

func (h noopHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h noopHandler) WithGroup(string) slog.Handler { return h }

// Noop is a noop logger.
var Noop = slog.New(noopHandler{})
