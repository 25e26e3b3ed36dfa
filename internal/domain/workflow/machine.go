package workflow

import "context"

// StateMachine tracks the current state and validates transitions.
// Implementations are safe for concurrent use.
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is configured for the current state
	CanFire(trigger Trigger) bool

	// Fire executes the trigger, moving to the first target whose guard passes
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns the triggers configured for the current state
	PermittedTriggers() []Trigger
}

// NewExportMachine returns the export lifecycle of a draft, starting idle.
// A finished export, successful or not, may be started again; an export in
// flight can only succeed or fail.
func NewExportMachine() StateMachine {
	b := NewBuilder()
	for _, s := range []State{StateIdle, StateExported, StateFailed} {
		b.Configure(s).Permit(TriggerStart, StateExporting)
	}
	b.Configure(StateExporting).
		Permit(TriggerSucceed, StateExported).
		Permit(TriggerFail, StateFailed)
	return b.Build(StateIdle)
}
