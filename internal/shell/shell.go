// Package shell is the interactive terminal front end of the stopwatch.
//
// The shell owns the event loop goroutine. Keyboard commands, ticker
// callbacks and reload notifications are all received by one select, so the
// engine only ever runs on that goroutine.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	foundationerrors "git.home.luguber.info/inful/bgtimer/internal/foundation/errors"
	"git.home.luguber.info/inful/bgtimer/internal/logfields"
	"git.home.luguber.info/inful/bgtimer/internal/timer"
)

const (
	ansiGreen = "\x1b[32m"
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
	clearLine = "\x1b[2K"

	startButton = "[ START ]"
	stopButton  = "[ STOP ]"
)

const helpText = "keys: s/t/space toggle, r reset, q quit"

// Engine is the part of timer.Engine the shell drives.
type Engine interface {
	Initialize(ctx context.Context) error
	Toggle(ctx context.Context) error
	Reset(ctx context.Context) error
}

// Shell renders the stopwatch to a terminal and feeds it user commands.
// It implements timer.Display and timer.Listener.
type Shell struct {
	in     io.Reader
	out    io.Writer
	logger *slog.Logger
	color  bool
	reload <-chan struct{}

	ticks chan func()

	mu      sync.Mutex
	label   string
	running bool
}

var (
	_ timer.Display  = (*Shell)(nil)
	_ timer.Listener = (*Shell)(nil)
)

// Option configures a Shell.
type Option func(*Shell)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(s *Shell) { s.logger = l } }

// WithColor enables ANSI colours on the button.
func WithColor(enabled bool) Option { return func(s *Shell) { s.color = enabled } }

// WithReload re-initializes the engine whenever ch delivers.
func WithReload(ch <-chan struct{}) Option { return func(s *Shell) { s.reload = ch } }

// New creates a shell reading commands from in and drawing to out.
func New(in io.Reader, out io.Writer, opts ...Option) *Shell {
	s := &Shell{
		in:     in,
		out:    out,
		logger: slog.Default(),
		color:  true,
		ticks:  make(chan func(), 1),
		label:  timer.Zero,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch posts fn to the event loop. It never blocks: while a callback is
// already pending, fn is dropped. Use it as a ticker.Dispatcher.
func (s *Shell) Dispatch(fn func()) {
	select {
	case s.ticks <- fn:
	default:
	}
}

// Render implements timer.Display.
func (s *Shell) Render(label string) {
	s.mu.Lock()
	s.label = label
	s.mu.Unlock()
	s.draw()
}

// RunningChanged implements timer.Listener.
func (s *Shell) RunningChanged(running bool) {
	s.mu.Lock()
	s.running = running
	s.mu.Unlock()
	s.draw()
}

// Run initializes eng and processes events until the user quits, the input
// ends or ctx is cancelled. Persistence warnings are logged and the loop
// keeps going; any other engine error ends it.
func (s *Shell) Run(ctx context.Context, eng Engine) error {
	done := make(chan struct{})
	defer close(done)
	lines := s.readLines(done)

	fmt.Fprintln(s.out, helpText)
	if err := s.handle(eng.Initialize(ctx)); err != nil {
		return err
	}

	defer fmt.Fprintln(s.out)
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-s.ticks:
			fn()
		case <-s.reload:
			s.logger.Debug("state changed on disk, reloading")
			if err := s.handle(eng.Initialize(ctx)); err != nil {
				return err
			}
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := s.command(ctx, eng, line)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}
	}
}

// command executes one input line and reports whether the user asked to quit.
func (s *Shell) command(ctx context.Context, eng Engine, line string) (bool, error) {
	cmd := strings.ToLower(strings.TrimSpace(line))
	if cmd == "" && strings.Contains(line, " ") {
		cmd = "toggle"
	}

	switch cmd {
	case "s", "t", "start", "stop", "toggle":
		return false, s.handle(eng.Toggle(ctx))
	case "r", "reset":
		return false, s.handle(eng.Reset(ctx))
	case "q", "quit", "exit":
		return true, nil
	case "":
		s.draw()
	case "h", "?", "help":
		fmt.Fprintf(s.out, "\r%s%s\n", clearLine, helpText)
		s.draw()
	default:
		s.logger.Warn("unknown command", slog.String("command", cmd))
		s.draw()
	}
	return false, nil
}

// handle logs warnings and passes through anything worse.
func (s *Shell) handle(err error) error {
	if err == nil {
		return nil
	}
	if foundationerrors.HasSeverity(err, foundationerrors.SeverityWarning) {
		s.logger.Warn("timer state not saved", logfields.Error(err))
		return nil
	}
	return err
}

func (s *Shell) readLines(done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			s.logger.Debug("input closed", logfields.Error(err))
		}
	}()
	return lines
}

func (s *Shell) draw() {
	s.mu.Lock()
	label, running := s.label, s.running
	s.mu.Unlock()

	button, colour := startButton, ansiGreen
	if running {
		button, colour = stopButton, ansiRed
	}
	if s.color {
		button = colour + button + ansiReset
	}
	fmt.Fprintf(s.out, "\r%s%s  %s", clearLine, label, button)
}
