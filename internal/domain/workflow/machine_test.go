package workflow

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"idle", StateIdle, true},
		{"exporting", StateExporting, true},
		{"exported", StateExported, true},
		{"failed", StateFailed, true},
		{"unknown", State("PRINTING"), false},
		{"empty", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_Busy(t *testing.T) {
	if !StateExporting.Busy() {
		t.Error("EXPORTING should be busy")
	}
	for _, s := range []State{StateIdle, StateExported, StateFailed} {
		if s.Busy() {
			t.Errorf("%s should not be busy", s)
		}
	}
}

func TestBuilder_ConfigurePanicsOnInvalidState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Configure() should panic on invalid state")
		}
	}()
	NewBuilder().Configure(State("INVALID"))
}

func TestBuilder_BuildPanicsOnInvalidInitialState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial state")
		}
	}()
	NewBuilder().Build(State("INVALID"))
}

func TestBuilder_BuildIsolatesMachines(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateIdle).Permit(TriggerStart, StateExporting)
	machine := builder.Build(StateIdle)

	builder.Configure(StateIdle).Permit(TriggerFail, StateFailed)

	if machine.CanFire(TriggerFail) {
		t.Error("transitions configured after Build() must not leak into the machine")
	}
}

func TestStateConfiguration_PermitIf(t *testing.T) {
	allowed := false
	builder := NewBuilder()
	builder.Configure(StateIdle).
		PermitIf(TriggerStart, StateExporting, func(ctx context.Context) bool { return allowed })

	machine := builder.Build(StateIdle)

	err := machine.Fire(context.Background(), TriggerStart)
	if !errors.Is(err, ErrGuardFailed) {
		t.Fatalf("Fire() error = %v, want %v", err, ErrGuardFailed)
	}
	if machine.State() != StateIdle {
		t.Errorf("State should remain IDLE after a refused guard, got %v", machine.State())
	}

	allowed = true
	if err := machine.Fire(context.Background(), TriggerStart); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if machine.State() != StateExporting {
		t.Errorf("State after Fire() = %v, want %v", machine.State(), StateExporting)
	}
}

func TestExportMachine_Lifecycle(t *testing.T) {
	ctx := context.Background()
	machine := NewExportMachine()

	if machine.State() != StateIdle {
		t.Fatalf("initial state = %v, want IDLE", machine.State())
	}

	steps := []struct {
		trigger Trigger
		want    State
	}{
		{TriggerStart, StateExporting},
		{TriggerFail, StateFailed},
		{TriggerStart, StateExporting},
		{TriggerSucceed, StateExported},
		{TriggerStart, StateExporting},
	}
	for _, step := range steps {
		if err := machine.Fire(ctx, step.trigger); err != nil {
			t.Fatalf("Fire(%s) failed: %v", step.trigger, err)
		}
		if machine.State() != step.want {
			t.Fatalf("after %s state = %v, want %v", step.trigger, machine.State(), step.want)
		}
	}
}

func TestExportMachine_RejectsSecondStart(t *testing.T) {
	ctx := context.Background()
	machine := NewExportMachine()

	if err := machine.Fire(ctx, TriggerStart); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if machine.CanFire(TriggerStart) {
		t.Error("CanFire(START) should be false while exporting")
	}
	err := machine.Fire(ctx, TriggerStart)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}
}

func TestExportMachine_FinishRequiresStart(t *testing.T) {
	machine := NewExportMachine()
	for _, trigger := range []Trigger{TriggerSucceed, TriggerFail} {
		if err := machine.Fire(context.Background(), trigger); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Fire(%s) from IDLE error = %v, want %v", trigger, err, ErrInvalidTransition)
		}
	}
}

func TestExportMachine_PermittedTriggers(t *testing.T) {
	machine := NewExportMachine()
	if got := machine.PermittedTriggers(); !reflect.DeepEqual(got, []Trigger{TriggerStart}) {
		t.Errorf("PermittedTriggers() in IDLE = %v", got)
	}

	_ = machine.Fire(context.Background(), TriggerStart)
	if got := machine.PermittedTriggers(); !reflect.DeepEqual(got, []Trigger{TriggerFail, TriggerSucceed}) {
		t.Errorf("PermittedTriggers() in EXPORTING = %v", got)
	}
}

func TestExportMachine_ConcurrentStartsAdmitOne(t *testing.T) {
	machine := NewExportMachine()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		started int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := machine.Fire(context.Background(), TriggerStart); err == nil {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if started != 1 {
		t.Errorf("started = %d, want exactly 1", started)
	}
}
