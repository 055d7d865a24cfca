package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"git.home.luguber.info/inful/bgtimer/internal/ticker"
	"git.home.luguber.info/inful/bgtimer/internal/timer"
)

// StartCmd implements the 'start' command.
type StartCmd struct{}

func (*StartCmd) Run(g *Global, root *CLI) error {
	return runAction(g, root, (*timer.Engine).Start)
}

// StopCmd implements the 'stop' command.
type StopCmd struct{}

func (*StopCmd) Run(g *Global, root *CLI) error {
	return runAction(g, root, (*timer.Engine).Stop)
}

// ToggleCmd implements the 'toggle' command.
type ToggleCmd struct{}

func (*ToggleCmd) Run(g *Global, root *CLI) error {
	return runAction(g, root, (*timer.Engine).Toggle)
}

// ResetCmd implements the 'reset' command.
type ResetCmd struct{}

func (*ResetCmd) Run(g *Global, root *CLI) error {
	return runAction(g, root, (*timer.Engine).Reset)
}

// StatusCmd implements the 'status' command.
type StatusCmd struct {
	JSON bool `help:"Print status as JSON"`
}

// Status is the JSON form of `bgtimer status`.
type Status struct {
	Phase          timer.Phase `json:"phase"`
	Elapsed        string      `json:"elapsed"`
	ElapsedSeconds int64       `json:"elapsed_seconds"`
	StartTime      *time.Time  `json:"start_time,omitempty"`
	StopTime       *time.Time  `json:"stop_time,omitempty"`
	RunID          string      `json:"run_id,omitempty"`
}

func (s *StatusCmd) Run(g *Global, root *CLI) error {
	return withEngine(g, root, func(_ context.Context, eng *timer.Engine) error {
		if !s.JSON {
			printStatus(g, eng)
			return nil
		}

		status := Status{
			Phase:          eng.State().Phase(),
			Elapsed:        eng.Formatted(),
			ElapsedSeconds: int64(eng.Elapsed() / time.Second),
			RunID:          eng.RunID(),
		}
		switch st := eng.State().(type) {
		case timer.Running:
			status.StartTime = &st.Start
		case timer.Stopped:
			status.StartTime = &st.Start
			status.StopTime = &st.Stop
		}

		enc := json.NewEncoder(g.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	})
}

// runAction performs one engine action and prints the resulting status. A
// persistence warning is still returned so the exit code reports it.
func runAction(g *Global, root *CLI, action func(*timer.Engine, context.Context) error) error {
	return withEngine(g, root, func(ctx context.Context, eng *timer.Engine) error {
		err := action(eng, ctx)
		printStatus(g, eng)
		return err
	})
}

// withEngine loads configuration, initializes an engine that never ticks and
// hands it to fn.
func withEngine(g *Global, root *CLI, fn func(context.Context, *timer.Engine) error) error {
	ctx := context.Background()
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}

	sess, err := openSession(ctx, g, cfg, &ticker.Noop{})
	if err != nil {
		return err
	}
	defer closeSession(g, sess)

	if err := reportInit(g, sess.engine.Initialize(ctx)); err != nil {
		return err
	}
	return fn(ctx, sess.engine)
}

func printStatus(g *Global, eng *timer.Engine) {
	fmt.Fprintf(g.Out, "%s %s\n", eng.Formatted(), eng.State().Phase())
}
