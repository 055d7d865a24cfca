package shell

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/bgtimer/internal/config"
	"git.home.luguber.info/inful/bgtimer/internal/kvstore"
	"git.home.luguber.info/inful/bgtimer/internal/retry"
	"git.home.luguber.info/inful/bgtimer/internal/ticker"
	"git.home.luguber.info/inful/bgtimer/internal/timer"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// syncBuffer is a bytes.Buffer safe for the shell goroutine and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fixture struct {
	shell  *Shell
	engine *timer.Engine
	clock  *clockwork.FakeClock
	ticker *ticker.Fake
	store  kvstore.Store
	out    *syncBuffer
	logs   *syncBuffer
}

func newFixture(t *testing.T, in io.Reader, store kvstore.Store, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		clock:  clockwork.NewFakeClockAt(t0),
		ticker: &ticker.Fake{},
		store:  store,
		out:    &syncBuffer{},
		logs:   &syncBuffer{},
	}
	logger := slog.New(slog.NewTextHandler(f.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	opts = append([]Option{WithColor(false), WithLogger(logger)}, opts...)
	f.shell = New(in, f.out, opts...)
	f.engine = timer.NewEngine(store, f.clock, f.ticker,
		timer.WithDisplay(f.shell),
		timer.WithListener(f.shell),
		timer.WithLogger(logger),
		timer.WithRetryPolicy(retry.NewPolicy(config.RetryBackoffFixed, time.Millisecond, time.Millisecond, 0)),
	)
	return f
}

// lastFrame returns the text after the final carriage return.
func lastFrame(out string) string {
	out = strings.TrimRight(out, "\n")
	if i := strings.LastIndex(out, "\r"); i >= 0 {
		out = out[i+1:]
	}
	return strings.TrimPrefix(out, clearLine)
}

func TestRunToggleAndReset(t *testing.T) {
	f := newFixture(t, strings.NewReader("s\nr\nq\n"), kvstore.NewMemoryStore())

	require.NoError(t, f.shell.Run(t.Context(), f.engine))

	out := f.out.String()
	assert.Contains(t, out, helpText)
	assert.Contains(t, out, "00:00:00  [ STOP ]")
	assert.Equal(t, "00:00:00  [ START ]", lastFrame(out))
	assert.Equal(t, timer.Idle{}, f.engine.State())
	assert.False(t, f.ticker.Active())
}

func TestRunSpaceToggles(t *testing.T) {
	f := newFixture(t, strings.NewReader(" \n"), kvstore.NewMemoryStore())

	require.NoError(t, f.shell.Run(t.Context(), f.engine))

	assert.True(t, f.engine.Running())
	assert.Equal(t, "00:00:00  [ STOP ]", lastFrame(f.out.String()))
}

func TestRunEndsOnEOF(t *testing.T) {
	f := newFixture(t, strings.NewReader(""), kvstore.NewMemoryStore())

	require.NoError(t, f.shell.Run(t.Context(), f.engine))
	assert.Equal(t, "00:00:00  [ START ]", lastFrame(f.out.String()))
}

func TestRunEndsOnCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	f := newFixture(t, pr, kvstore.NewMemoryStore())

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	require.NoError(t, f.shell.Run(ctx, f.engine))
}

func TestRunUnknownCommandKeepsGoing(t *testing.T) {
	f := newFixture(t, strings.NewReader("x\n?\ns\n"), kvstore.NewMemoryStore())

	require.NoError(t, f.shell.Run(t.Context(), f.engine))

	assert.Contains(t, f.logs.String(), "unknown command")
	assert.True(t, f.engine.Running())
}

func TestRunLogsPersistenceWarnings(t *testing.T) {
	store := kvstore.NewMemoryStore()
	require.NoError(t, store.Close())
	f := newFixture(t, strings.NewReader("s\ns\n"), store)

	require.NoError(t, f.shell.Run(t.Context(), f.engine))

	assert.Contains(t, f.logs.String(), "timer state not saved")
	// the display still follows the user's actions
	assert.Equal(t, "00:00:00  [ START ]", lastFrame(f.out.String()))
	assert.IsType(t, timer.Stopped{}, f.engine.State())
}

func TestRunExecutesDispatchedTicks(t *testing.T) {
	pr, pw := io.Pipe()
	f := newFixture(t, pr, kvstore.NewMemoryStore())

	done := make(chan error, 1)
	go func() { done <- f.shell.Run(t.Context(), f.engine) }()

	_, err := io.WriteString(pw, "s\n")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return strings.HasSuffix(f.out.String(), "[ STOP ]")
	}, time.Second, 5*time.Millisecond)

	f.clock.Advance(3 * time.Second)
	f.shell.Dispatch(f.engine.Tick)
	require.Eventually(t, func() bool {
		return lastFrame(f.out.String()) == "00:00:03  [ STOP ]"
	}, time.Second, 5*time.Millisecond)

	_, err = io.WriteString(pw, "q\n")
	require.NoError(t, err)
	require.NoError(t, <-done)
	require.NoError(t, pw.Close())
}

func TestRunReloadsOnChange(t *testing.T) {
	store := kvstore.NewMemoryStore()
	reload := make(chan struct{})
	pr, pw := io.Pipe()
	f := newFixture(t, pr, store, WithReload(reload))

	done := make(chan error, 1)
	go func() { done <- f.shell.Run(t.Context(), f.engine) }()

	require.Eventually(t, func() bool {
		return strings.HasSuffix(f.out.String(), "[ START ]")
	}, time.Second, 5*time.Millisecond)

	// another process starts the timer an hour ago
	ctx := t.Context()
	require.NoError(t, store.Set(ctx, timer.StartTimeKey, t0.Add(-time.Hour).Format(time.RFC3339Nano)))
	require.NoError(t, store.Set(ctx, timer.IsTimerCountingKey, "true"))
	reload <- struct{}{}

	require.Eventually(t, func() bool {
		return lastFrame(f.out.String()) == "01:00:00  [ STOP ]"
	}, time.Second, 5*time.Millisecond)
	assert.True(t, f.ticker.Active())

	_, err := io.WriteString(pw, "q\n")
	require.NoError(t, err)
	require.NoError(t, <-done)
	require.NoError(t, pw.Close())
}

func TestDispatchDropsWhilePending(t *testing.T) {
	sh := New(strings.NewReader(""), io.Discard)
	var calls []string
	sh.Dispatch(func() { calls = append(calls, "first") })
	sh.Dispatch(func() { calls = append(calls, "second") })

	require.Len(t, sh.ticks, 1)
	(<-sh.ticks)()
	assert.Equal(t, []string{"first"}, calls)
}

func TestDrawColours(t *testing.T) {
	var out bytes.Buffer
	sh := New(strings.NewReader(""), &out)

	sh.Render("00:00:07")
	assert.True(t, strings.HasSuffix(out.String(), "00:00:07  "+ansiGreen+startButton+ansiReset))

	sh.RunningChanged(true)
	assert.True(t, strings.HasSuffix(out.String(), "00:00:07  "+ansiRed+stopButton+ansiReset))
}
