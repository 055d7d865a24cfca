package timer

import (
	"context"

	"github.com/qmuntal/stateless"
)

type trigger string

const (
	triggerStart trigger = "start"
	triggerStop  trigger = "stop"
	triggerReset trigger = "reset"
)

// newMachine wires the phase transitions. The machine owns e.phase; the state
// payload in e.state is set by the entry actions.
//
//	idle    --start--> running   (stop ignored, reset re-enters idle)
//	running --stop---> stopped   (start ignored)
//	running --reset--> idle
//	stopped --start--> running   (stop ignored)
//	stopped --reset--> idle
func newMachine(e *Engine) *stateless.StateMachine {
	m := stateless.NewStateMachineWithExternalStorage(
		func(context.Context) (stateless.State, error) { return e.phase, nil },
		func(_ context.Context, s stateless.State) error {
			e.phase = s.(Phase)
			return nil
		},
		stateless.FiringImmediate,
	)

	m.Configure(PhaseIdle).
		Permit(triggerStart, PhaseRunning).
		Ignore(triggerStop).
		PermitReentry(triggerReset).
		OnEntryFrom(triggerReset, e.enterIdle)

	m.Configure(PhaseRunning).
		Permit(triggerStop, PhaseStopped).
		Permit(triggerReset, PhaseIdle).
		Ignore(triggerStart).
		OnEntryFrom(triggerStart, e.enterRunning)

	m.Configure(PhaseStopped).
		Permit(triggerStart, PhaseRunning).
		Permit(triggerReset, PhaseIdle).
		Ignore(triggerStop).
		OnEntryFrom(triggerStop, e.enterStopped)

	return m
}
